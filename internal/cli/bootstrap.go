// Package cli assembles the process-wide pieces both binaries share.
package cli

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/efebarandurmaz/multillm/internal/config"
	"github.com/efebarandurmaz/multillm/internal/handler"
	"github.com/efebarandurmaz/multillm/internal/observability"
)

// Options are the command-line overrides applied on top of the settings file.
type Options struct {
	ConfigPath string
	// LogLevel overrides log.level when non-empty.
	LogLevel string
	// DotEnv lists .env files to load before reading the config.
	DotEnv []string
	Stderr io.Writer
}

// App is a configured Handler together with its logger and telemetry.
type App struct {
	Config  *config.Config
	Handler *handler.Handler
	Logger  *slog.Logger
	Metrics *observability.LLMMetrics
	tracing *observability.TracerProvider
}

// Setup loads the environment and settings file and builds the Handler
// through handler.New. Configuration problems are logged and defaults used;
// only a tracing exporter that cannot be created is an error.
func Setup(ctx context.Context, opts Options) (*App, error) {
	dotEnvErr := config.LoadDotEnv(opts.DotEnv...)

	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	metrics := observability.NewLLMMetrics()
	h := handler.New(opts.ConfigPath,
		handler.WithLoggerFor(func(cfg *config.Config) *slog.Logger {
			level := cfg.Log.Level
			if opts.LogLevel != "" {
				level = opts.LogLevel
			}
			return observability.NewLogger(stderr, level, cfg.Log.Format)
		}),
		handler.WithMetrics(metrics),
	)
	cfg := h.Config()
	logger := h.Logger()
	if dotEnvErr != nil {
		logger.Warn("could not load .env", "error", dotEnvErr)
	}

	tcfg := observability.DefaultTracingConfig()
	tcfg.OTLPEndpoint = cfg.Tracing.OTLPEndpoint
	tp, err := observability.InitTracing(ctx, tcfg)
	if err != nil {
		return nil, err
	}

	return &App{
		Config:  &cfg,
		Handler: h,
		Logger:  logger,
		Metrics: metrics,
		tracing: tp,
	}, nil
}

// Close flushes telemetry.
func (a *App) Close(ctx context.Context) {
	if err := a.tracing.Shutdown(ctx); err != nil {
		a.Logger.Warn("tracing shutdown", "error", err)
	}
}
