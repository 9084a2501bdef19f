// Package function implements the record Lambda: one stateless handler serving both
// API Gateway proxy events and direct Step Functions invocations.
package function

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"recordapi/internal/model"
	"recordapi/internal/service"
)

const (
	sourceGateway  = "gateway"
	sourceWorkflow = "workflow"
)

// Defaults is the year/title written when an invocation leaves them out.
type Defaults struct {
	Year  model.Year
	Title string
}

// Config holds the per-deployment settings of the handler.
type Config struct {
	// TableName is only reported in logs; the store is already bound to it.
	TableName       string
	GatewayDefault  Defaults
	WorkflowDefault Defaults
}

// Handler dispatches invocations to the record service.
// It holds no per-invocation state and is safe for concurrent use.
type Handler struct {
	svc     service.RecordService
	cfg     Config
	logger  *slog.Logger
	metrics *Metrics
	newID   func() string
}

// New builds a Handler. metrics may be nil.
func New(svc service.RecordService, cfg Config, logger *slog.Logger, metrics *Metrics) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		svc:     svc,
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		newID:   uuid.NewString,
	}
}

// Handle is the Lambda entry point. It returns an events.APIGatewayProxyResponse for gateway
// events and a *WorkflowResult for workflow events.
func (h *Handler) Handle(ctx context.Context, raw json.RawMessage) (any, error) {
	h.logger.InfoContext(ctx, "loaded table name", slog.String("table", h.cfg.TableName))
	h.logger.InfoContext(ctx, "received event", slog.String("event", string(raw)))

	inv, err := DecodeInvocation(raw)
	if err != nil {
		h.logger.ErrorContext(ctx, "decode event failed", slog.String("error", err.Error()))
		h.metrics.observe("unknown", "", statusError)
		return nil, err
	}

	switch v := inv.(type) {
	case *GatewayInvocation:
		return h.HandleGateway(ctx, v.Request)
	case *WorkflowInvocation:
		res, err := h.HandleWorkflow(ctx, v.Input)
		if err != nil {
			return nil, err
		}
		return res, nil
	default:
		return nil, ErrUnsupportedEvent
	}
}
