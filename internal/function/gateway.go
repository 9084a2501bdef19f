package function

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aws/aws-lambda-go/events"

	"recordapi/internal/model"
)

const (
	MessageInserted         = "Successfully inserted data you have provided!"
	MessageInsertedDefault  = "Successfully inserted DEFAULT data!"
	MessageMethodNotAllowed = "Method Not Allowed"
)

type messageBody struct {
	Message string `json:"message"`
}

type itemsBody struct {
	Items []model.Record `json:"items"`
}

// postBody is a POST payload; a nil field was missing or null.
type postBody struct {
	Year  *model.Year `json:"year"`
	Title *string     `json:"title"`
	ID    *string     `json:"id"`
}

// HandleGateway serves an API Gateway proxy request.
// Errors are returned as invocation failures, never turned into 4xx/5xx responses here.
func (h *Handler) HandleGateway(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	resp, err := h.dispatchGateway(ctx, req)
	if err != nil {
		h.metrics.observe(sourceGateway, req.HTTPMethod, statusError)
		return events.APIGatewayProxyResponse{}, err
	}
	h.metrics.observe(sourceGateway, req.HTTPMethod, strconv.Itoa(resp.StatusCode))
	return resp, nil
}

func (h *Handler) dispatchGateway(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	switch req.HTTPMethod {
	case http.MethodPost:
		return h.post(ctx, req)
	case http.MethodGet:
		return h.list(ctx)
	default:
		return jsonResponse(http.StatusMethodNotAllowed, messageBody{Message: MessageMethodNotAllowed})
	}
}

func (h *Handler) post(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	body, err := requestBody(req)
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}

	var (
		rec     model.Record
		message string
	)
	if body == "" {
		h.logger.InfoContext(ctx, "received request without a payload")
		rec = model.Record{
			ID:    h.newID(),
			Year:  h.cfg.GatewayDefault.Year,
			Title: h.cfg.GatewayDefault.Title,
		}
		message = MessageInsertedDefault
	} else {
		rec, err = parseRecord(body)
		if err != nil {
			return events.APIGatewayProxyResponse{}, err
		}
		h.logger.InfoContext(ctx, "received payload",
			slog.String("id", rec.ID),
			slog.String("year", rec.Year.String()),
			slog.String("title", rec.Title),
		)
		message = MessageInserted
	}

	if _, err := h.svc.Insert(ctx, rec); err != nil {
		return events.APIGatewayProxyResponse{}, err
	}
	return jsonResponse(http.StatusOK, messageBody{Message: message})
}

func (h *Handler) list(ctx context.Context) (events.APIGatewayProxyResponse, error) {
	items, err := h.svc.List(ctx)
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}
	return jsonResponse(http.StatusOK, itemsBody{Items: items})
}

func requestBody(req events.APIGatewayProxyRequest) (string, error) {
	if !req.IsBase64Encoded || req.Body == "" {
		return req.Body, nil
	}
	b, err := base64.StdEncoding.DecodeString(req.Body)
	if err != nil {
		return "", fmt.Errorf("%w: body is not valid base64: %v", ErrMalformedInput, err)
	}
	return string(b), nil
}

// parseRecord requires year, title and id in the payload; nothing is defaulted.
func parseRecord(body string) (model.Record, error) {
	var p postBody
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		return model.Record{}, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	switch {
	case p.Year == nil || *p.Year == "":
		return model.Record{}, fmt.Errorf("%w: missing field year", ErrMalformedInput)
	case p.Title == nil || *p.Title == "":
		return model.Record{}, fmt.Errorf("%w: missing field title", ErrMalformedInput)
	case p.ID == nil || *p.ID == "":
		return model.Record{}, fmt.Errorf("%w: missing field id", ErrMalformedInput)
	}
	return model.Record{ID: *p.ID, Year: *p.Year, Title: *p.Title}, nil
}

func jsonResponse(status int, v any) (events.APIGatewayProxyResponse, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(b),
	}, nil
}
