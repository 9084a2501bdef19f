// Package bootstrap assembles the record store, service and handler from configuration.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"recordapi/internal/config"
	"recordapi/internal/database"
	"recordapi/internal/function"
	"recordapi/internal/model"
	"recordapi/internal/repository"
	"recordapi/internal/repository/dynamodb"
	"recordapi/internal/repository/objectstore"
	"recordapi/internal/repository/postgres"
	"recordapi/internal/service"
	"recordapi/internal/storage"
)

// Store is an opened record store.
type Store struct {
	Repo repository.RecordRepository
	// TableName names the underlying table or bucket for logs.
	TableName string
	// Ping is nil when the backend has no cheap health probe.
	Ping  func(ctx context.Context) error
	Close func() error
}

func nopClose() error { return nil }

// OpenStore opens the backend selected by cfg.StoreBackend.
func OpenStore(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (*Store, error) {
	switch cfg.StoreBackend {
	case config.BackendDynamoDB:
		client, err := dynamodb.NewClient(ctx, cfg.DynamoDB)
		if err != nil {
			return nil, err
		}
		table, err := dynamodb.NewRecordTable(client, cfg.DynamoDB.TableName, logger)
		if err != nil {
			return nil, err
		}
		return &Store{Repo: table, TableName: table.TableName(), Close: nopClose}, nil

	case config.BackendPostgres:
		db, err := database.OpenRecordStore(ctx, cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return &Store{
			Repo:      postgres.NewRecordPostgres(db),
			TableName: "records",
			Ping:      db.PingContext,
			Close:     db.Close,
		}, nil

	case config.BackendObjectStore:
		objStore, err := storage.NewMinIO(cfg.MinIO)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize object storage: %w", err)
		}
		return &Store{Repo: objectstore.NewRecordObjects(objStore), TableName: cfg.MinIO.Bucket, Close: nopClose}, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// FunctionConfig converts the configured defaults into handler settings.
func FunctionConfig(cfg *config.AppConfig, tableName string) function.Config {
	return function.Config{
		TableName: tableName,
		GatewayDefault: function.Defaults{
			Year:  model.YearOf(cfg.GatewayDefault.Year),
			Title: cfg.GatewayDefault.Title,
		},
		WorkflowDefault: function.Defaults{
			Year:  model.YearOf(cfg.WorkflowDefault.Year),
			Title: cfg.WorkflowDefault.Title,
		},
	}
}

// NewHandler wires the record service and the function handler over store.
func NewHandler(store *Store, cfg *config.AppConfig, logger *slog.Logger, metrics *function.Metrics) *function.Handler {
	svc := service.NewRecordService(store.Repo)
	return function.New(svc, FunctionConfig(cfg, store.TableName), logger, metrics)
}
