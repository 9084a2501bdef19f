package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"recordapi/internal/function"
	handlers "recordapi/internal/http/handler"
	"recordapi/internal/http/middleware"
	"recordapi/internal/otel"
)

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the function behind a local API Gateway",
		Long: `Serve translates every request on / into an API Gateway proxy event for the
handler, and exposes /health, /healthz and /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.store.Close()

			shutdownTracing, err := otel.Init(ctx, e.logger)
			if err != nil {
				return err
			}
			defer func() {
				flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = shutdownTracing(flushCtx)
			}()

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

			metrics, err := function.NewMetrics(reg)
			if err != nil {
				return err
			}
			app, err := newApp(handlers.Deps{
				Function: e.handler(metrics),
				Ping:     e.store.Ping,
				Gatherer: reg,
				Logger:   e.logger,
			}, reg)
			if err != nil {
				return err
			}

			if port == "" {
				port = e.cfg.Port
			}
			return listen(ctx, app, ":"+port, e.logger)
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "Listen port (default: $PORT or 8080)")

	return cmd
}

func newApp(d handlers.Deps, reg prometheus.Registerer) (*fiber.App, error) {
	app := fiber.New(fiber.Config{
		ErrorHandler:          handlers.ErrorHandler(),
		DisableStartupMessage: true,
	})

	promMW, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return nil, fmt.Errorf("register http metrics: %w", err)
	}

	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	app.Use(otelfiber.Middleware())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger())
	app.Use(promMW.Handler())

	handlers.RegisterRoutes(app, d)
	return app, nil
}

func listen(ctx context.Context, app *fiber.App, addr string, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("local gateway listening", slog.String("addr", addr))
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}
