package function

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"recordapi/internal/model"
)

const MessageInsertedWorkflow = "Successfully inserted data from Step Functions"

// WorkflowResult is returned to the workflow engine as a plain object, not an HTTP envelope.
type WorkflowResult struct {
	StatusCode int          `json:"statusCode"`
	Message    string       `json:"message"`
	Item       model.Record `json:"item"`
}

// HandleWorkflow writes the record described by a workflow event, defaulting absent fields.
// A store failure is logged and returned so the workflow engine applies its own failure policy.
func (h *Handler) HandleWorkflow(ctx context.Context, in WorkflowInput) (*WorkflowResult, error) {
	rec := model.Record{ID: in.ID, Year: in.Year, Title: in.Title}
	if rec.Year == "" {
		rec.Year = h.cfg.WorkflowDefault.Year
	}
	if rec.Title == "" {
		rec.Title = h.cfg.WorkflowDefault.Title
	}
	if rec.ID == "" {
		rec.ID = h.newID()
	}

	stored, err := h.svc.Insert(ctx, rec)
	if err != nil {
		h.logger.ErrorContext(ctx, "error processing workflow request",
			slog.String("table", h.cfg.TableName),
			slog.String("id", rec.ID),
			slog.String("error", err.Error()),
		)
		h.metrics.observe(sourceWorkflow, "", statusError)
		return nil, err
	}

	h.metrics.observe(sourceWorkflow, "", strconv.Itoa(http.StatusOK))
	return &WorkflowResult{
		StatusCode: http.StatusOK,
		Message:    MessageInsertedWorkflow,
		Item:       *stored,
	}, nil
}
