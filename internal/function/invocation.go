package function

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-lambda-go/events"

	"recordapi/internal/model"
)

var (
	// ErrMalformedInput reports a POST body or workflow event that does not describe a record.
	ErrMalformedInput = errors.New("malformed input")
	// ErrUnsupportedEvent reports an event payload that is neither a JSON object nor null.
	ErrUnsupportedEvent = errors.New("unsupported event")
)

// gatewayDiscriminator is the key only gateway proxy events carry.
const gatewayDiscriminator = "httpMethod"

// Invocation is one decoded event: either *GatewayInvocation or *WorkflowInvocation.
type Invocation interface {
	source() string
}

// GatewayInvocation is an HTTP call proxied by the API gateway.
type GatewayInvocation struct {
	Request events.APIGatewayProxyRequest
}

// WorkflowInvocation is a direct invocation by the workflow engine.
type WorkflowInvocation struct {
	Input WorkflowInput
}

// WorkflowInput carries the optional top-level record fields of a workflow event.
// Empty fields are defaulted by the handler.
type WorkflowInput struct {
	Year  model.Year `json:"year"`
	Title string     `json:"title"`
	ID    string     `json:"id"`
}

func (*GatewayInvocation) source() string  { return sourceGateway }
func (*WorkflowInvocation) source() string { return sourceWorkflow }

// DecodeInvocation resolves a raw event into its invocation variant.
// An event with an httpMethod key is a gateway call; any other object, or null, is a workflow call.
func DecodeInvocation(raw json.RawMessage) (Invocation, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return &WorkflowInvocation{}, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedEvent, err)
	}

	if _, ok := fields[gatewayDiscriminator]; ok {
		var req events.APIGatewayProxyRequest
		if err := json.Unmarshal(trimmed, &req); err != nil {
			return nil, fmt.Errorf("%w: gateway event: %v", ErrMalformedInput, err)
		}
		return &GatewayInvocation{Request: req}, nil
	}

	var in WorkflowInput
	if err := json.Unmarshal(trimmed, &in); err != nil {
		return nil, fmt.Errorf("%w: workflow event: %v", ErrMalformedInput, err)
	}
	return &WorkflowInvocation{Input: in}, nil
}
