package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	_ "github.com/joho/godotenv/autoload"

	"recordapi/internal/bootstrap"
	"recordapi/internal/config"
	"recordapi/internal/logging"
	"recordapi/internal/otel"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()

	shutdownTracing, err := otel.Init(ctx, logger)
	if err != nil {
		logger.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// The store client is created once per execution environment and reused by every invocation.
	store, err := bootstrap.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open record store", slog.String("error", err.Error()))
		os.Exit(1)
	}

	h := bootstrap.NewHandler(store, cfg, logger, nil)

	lambda.StartWithOptions(h.Handle, lambda.WithEnableSIGTERM(func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("trace flush failed", slog.String("error", err.Error()))
		}
		_ = store.Close()
	}))
}
