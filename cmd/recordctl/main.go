// Command recordctl runs the record function outside Lambda.
//
// Usage:
//
//	recordctl serve                 Local API Gateway on $PORT
//	recordctl invoke event.json     Invoke the handler with one raw event
//	recordctl invoke --workflow     Invoke with an empty workflow event
//	recordctl migrate               Create the postgres records table
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"

	"recordapi/internal/bootstrap"
	"recordapi/internal/config"
	"recordapi/internal/function"
	"recordapi/internal/logging"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "recordctl",
		Short:         "Run the record function locally",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newServeCmd(),
		newInvokeCmd(),
		newMigrateCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// env is what every subcommand needs: validated config, a logger and an open store.
type env struct {
	cfg    *config.AppConfig
	logger *slog.Logger
	store  *bootstrap.Store
}

func openEnv(ctx context.Context) (*env, error) {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store, err := bootstrap.OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, logger: logger, store: store}, nil
}

func (e *env) handler(metrics *function.Metrics) *function.Handler {
	return bootstrap.NewHandler(e.store, e.cfg, e.logger, metrics)
}
