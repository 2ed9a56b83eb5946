package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/honeycombio/kennel"
	"github.com/honeycombio/kennel/datadog"
	"github.com/honeycombio/kennel/internal/config"
	"github.com/honeycombio/kennel/internal/observability"
	"github.com/honeycombio/kennel/internal/sender"
	"github.com/honeycombio/kennel/internal/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		observability.InitLogger("kennel", zerolog.InfoLevel)
		log.Fatal().Err(err).Str("path", *configPath).Msg("failed to load config")
	}
	level, _ := cfg.Level()
	logger := observability.InitLogger("kennel", level)
	observability.InstallTelemetryHook(logger)
	log.Info().Str("version", kennel.Version).Str("path", *configPath).Msg("loaded config")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, closeSender, err := newSender(ctx, cfg.Sender)
	if err != nil {
		log.Fatal().Err(err).Str("kind", cfg.Sender.Kind).Msg("failed to start sender")
	}
	defer closeSender()

	log.Info().Str("sender", cfg.Sender.Kind).Str("addr", cfg.ListenAddr).Msg("kennel started")
	if err := server.New(cfg, s, logger).Serve(ctx); err != nil {
		log.Fatal().Err(err).Msg("kennel stopped")
	}
	log.Info().Msg("kennel stopped")
}

func newSender(ctx context.Context, cfg config.SenderConfig) (datadog.Sender, func(), error) {
	switch cfg.Kind {
	case config.SenderRedis:
		r, err := sender.NewRedisFromURL(cfg.RedisURL, cfg.RedisList)
		if err != nil {
			return nil, nil, err
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := r.Ping(pingCtx); err != nil {
			r.Close()
			return nil, nil, err
		}
		return r, func() { _ = r.Close() }, nil
	default:
		return sender.NewWriter(os.Stdout), func() {}, nil
	}
}
