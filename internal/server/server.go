// Package server exposes the Datadog agent intake endpoints over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/honeycombio/kennel"
	"github.com/honeycombio/kennel/datadog"
	"github.com/honeycombio/kennel/internal/config"
	"github.com/honeycombio/kennel/internal/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	addr   string
	router *gin.Engine
	logger zerolog.Logger
}

func New(cfg config.Config, sender datadog.Sender, logger zerolog.Logger) *Server {
	observability.RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(logger))
	r.Use(observability.RequestMetricsMiddleware())

	s := &Server{
		addr:   cfg.ListenAddr,
		router: r,
		logger: logger,
	}
	s.routes(sender, datadog.HandlerOptions{
		MaxBodyBytes: cfg.MaxBodyBytes,
		StoreAPIKey:  cfg.StoreAPIKey,
		Schema: datadog.LogSchema{
			SourceTypeKey: cfg.SourceTypeKey,
			HostKey:       cfg.HostKey,
		},
	})
	return s
}

func (s *Server) routes(sender datadog.Sender, opts datadog.HandlerOptions) {
	api := s.router.Group("/api/v0.2")
	api.POST("/traces", gin.WrapH(datadog.TracesHandler(sender, opts)))
	api.POST("/stats", gin.WrapH(datadog.StatsHandler(opts)))

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":            "ok",
			"version":           kennel.Version,
			"content_encodings": datadog.GetSupportedContentEncodings(),
		})
	})
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve listens until ctx is cancelled, then drains in-flight requests.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
