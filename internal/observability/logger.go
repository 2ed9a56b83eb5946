package observability

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/honeycombio/kennel"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger writes to stderr; stdout carries events for the stdout sender.
func InitLogger(app string, level zerolog.Level) zerolog.Logger {
	return initLogger(os.Stderr, app, level)
}

func initLogger(out io.Writer, app string, level zerolog.Level) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
	}
	logger := zerolog.New(output).Level(level).With().Timestamp().Str("app", app).Logger()
	log.Logger = logger
	return logger
}

// InstallTelemetryHook routes kennel telemetry attributes to debug logs and
// the prometheus counters. The logger attached to ctx is preferred over
// logger when one is present.
func InstallTelemetryHook(logger zerolog.Logger) {
	kennel.AddTelemetryAttributeFunc = func(ctx context.Context, key string, value any) {
		recordTelemetry(key, value)

		l := zerolog.Ctx(ctx)
		if l.GetLevel() == zerolog.Disabled {
			l = &logger
		}
		l.Debug().Interface("value", value).Str("key", key).Msg("telemetry")
	}
}
