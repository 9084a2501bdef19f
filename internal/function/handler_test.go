package function

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"recordapi/internal/logging"
	"recordapi/internal/model"
	"recordapi/internal/service"
	serviceMocks "recordapi/internal/service/mocks"
)

var testConfig = Config{
	TableName:       "demo_table",
	GatewayDefault:  Defaults{Year: "2024", Title: "The title here, Added by AWS Lambda, and invoked by AWS API Gateway."},
	WorkflowDefault: Defaults{Year: "2024", Title: "Default Step Functions Title"},
}

// memRepo is an in-memory Record Store keyed by id.
type memRepo struct {
	mu    sync.Mutex
	order []string
	items map[string]model.Record
	err   error
}

func newMemRepo() *memRepo {
	return &memRepo{items: map[string]model.Record{}}
}

func (r *memRepo) Put(_ context.Context, rec *model.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if _, ok := r.items[rec.ID]; !ok {
		r.order = append(r.order, rec.ID)
	}
	r.items[rec.ID] = *rec
	return nil
}

func (r *memRepo) Scan(context.Context) ([]model.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Record, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.items[id])
	}
	return out, nil
}

func newTestHandler(repo *memRepo) *Handler {
	return New(service.NewRecordService(repo), testConfig, logging.Discard(), nil)
}

func invoke(t *testing.T, h *Handler, event any) (any, error) {
	t.Helper()
	raw, err := json.Marshal(event)
	require.NoError(t, err)
	return h.Handle(context.Background(), raw)
}

func TestHandle_PostThenGet(t *testing.T) {
	h := newTestHandler(newMemRepo())

	out, err := invoke(t, h, map[string]any{
		"httpMethod": "POST",
		"body":       `{"year":2023,"title":"Example Title","id":"unique-id-1234"}`,
	})
	require.NoError(t, err)

	resp := out.(events.APIGatewayProxyResponse)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Headers["Content-Type"])
	assert.JSONEq(t, `{"message": "Successfully inserted data you have provided!"}`, resp.Body)

	out, err = invoke(t, h, map[string]any{"httpMethod": "GET"})
	require.NoError(t, err)

	resp = out.(events.APIGatewayProxyResponse)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"items":[{"year":"2023","title":"Example Title","id":"unique-id-1234"}]}`, resp.Body)
}

func TestHandleGateway_PostWithoutBody(t *testing.T) {
	repo := newMemRepo()
	h := newTestHandler(repo)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		resp, err := h.HandleGateway(ctx, events.APIGatewayProxyRequest{HTTPMethod: http.MethodPost})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `{"message": "Successfully inserted DEFAULT data!"}`, resp.Body)
	}

	items, _ := repo.Scan(ctx)
	require.Len(t, items, 2)
	assert.NotEqual(t, items[0].ID, items[1].ID)
	for _, it := range items {
		_, err := uuid.Parse(it.ID)
		assert.NoError(t, err)
		assert.Equal(t, model.Year("2024"), it.Year)
		assert.Equal(t, testConfig.GatewayDefault.Title, it.Title)
	}
}

func TestHandleGateway_PostBase64Body(t *testing.T) {
	repo := newMemRepo()
	h := newTestHandler(repo)

	body := base64.StdEncoding.EncodeToString([]byte(`{"year":"1999","title":"Encoded","id":"b64"}`))
	resp, err := h.HandleGateway(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod:      http.MethodPost,
		Body:            body,
		IsBase64Encoded: true,
	})

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, model.Record{ID: "b64", Year: "1999", Title: "Encoded"}, repo.items["b64"])
}

// A malformed POST body is not answered with a 4xx: the error fails the invocation and the
// gateway reports it as a server error. The workflow path, by contrast, logs before failing.
func TestHandleGateway_MalformedBodyFailsInvocation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		base64  bool
		wantMsg string
	}{
		{name: "missing year", body: `{"title":"t","id":"x"}`, wantMsg: "missing field year"},
		{name: "missing title", body: `{"year":2023,"id":"x"}`, wantMsg: "missing field title"},
		{name: "missing id", body: `{"year":2023,"title":"t"}`, wantMsg: "missing field id"},
		{name: "null id", body: `{"year":2023,"title":"t","id":null}`, wantMsg: "missing field id"},
		{name: "not json", body: `year=2023`},
		{name: "json array", body: `[]`},
		{name: "bad year type", body: `{"year":true,"title":"t","id":"x"}`},
		{name: "bad base64", body: `%%%`, base64: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mSvc := new(serviceMocks.MockRecordService)
			h := New(mSvc, testConfig, logging.Discard(), nil)

			resp, err := h.HandleGateway(context.Background(), events.APIGatewayProxyRequest{
				HTTPMethod:      http.MethodPost,
				Body:            tt.body,
				IsBase64Encoded: tt.base64,
			})

			assert.ErrorIs(t, err, ErrMalformedInput)
			if tt.wantMsg != "" {
				assert.ErrorContains(t, err, tt.wantMsg)
			}
			assert.Zero(t, resp.StatusCode)
			mSvc.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
		})
	}
}

func TestHandleGateway_GetEmptyStore(t *testing.T) {
	h := newTestHandler(newMemRepo())

	resp, err := h.HandleGateway(context.Background(), events.APIGatewayProxyRequest{HTTPMethod: http.MethodGet})

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `{"items":[]}`, resp.Body)
}

func TestHandleGateway_MethodNotAllowed(t *testing.T) {
	h := newTestHandler(newMemRepo())

	for _, method := range []string{http.MethodPut, http.MethodDelete, http.MethodPatch, "OPTIONS", "get", ""} {
		t.Run(method, func(t *testing.T) {
			resp, err := h.HandleGateway(context.Background(), events.APIGatewayProxyRequest{HTTPMethod: method})

			require.NoError(t, err)
			assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
			assert.Equal(t, "application/json", resp.Headers["Content-Type"])
			assert.JSONEq(t, `{"message": "Method Not Allowed"}`, resp.Body)
		})
	}
}

func TestHandleGateway_StoreErrorsPropagate(t *testing.T) {
	ctx := context.Background()

	t.Run("post", func(t *testing.T) {
		repo := newMemRepo()
		repo.err = errors.New("throttled")
		h := newTestHandler(repo)

		_, err := h.HandleGateway(ctx, events.APIGatewayProxyRequest{HTTPMethod: http.MethodPost})
		assert.ErrorIs(t, err, service.ErrStoreWrite)
	})

	t.Run("get", func(t *testing.T) {
		mSvc := new(serviceMocks.MockRecordService)
		mSvc.On("List", ctx).Return(nil, errors.New("scan fail"))
		h := New(mSvc, testConfig, logging.Discard(), nil)

		_, err := h.HandleGateway(ctx, events.APIGatewayProxyRequest{HTTPMethod: http.MethodGet})
		assert.EqualError(t, err, "scan fail")
		mSvc.AssertExpectations(t)
	})
}

func TestHandleWorkflow(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults every field", func(t *testing.T) {
		repo := newMemRepo()
		h := newTestHandler(repo)
		h.newID = func() string { return "generated-id" }

		out, err := invoke(t, h, map[string]any{})
		require.NoError(t, err)

		res := out.(*WorkflowResult)
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Equal(t, MessageInsertedWorkflow, res.Message)
		want := model.Record{ID: "generated-id", Year: "2024", Title: "Default Step Functions Title"}
		assert.Equal(t, want, res.Item)
		assert.Equal(t, want, repo.items["generated-id"])

		b, err := json.Marshal(res)
		require.NoError(t, err)
		assert.JSONEq(t, `{"statusCode":200,"message":"Successfully inserted data from Step Functions",
			"item":{"year":"2024","title":"Default Step Functions Title","id":"generated-id"}}`, string(b))
	})

	t.Run("uses provided fields", func(t *testing.T) {
		repo := newMemRepo()
		h := newTestHandler(repo)

		res, err := h.HandleWorkflow(ctx, WorkflowInput{Year: "2024", Title: " Title here ", ID: "wf-1"})
		require.NoError(t, err)
		assert.Equal(t, model.Record{ID: "wf-1", Year: "2024", Title: " Title here "}, res.Item)
	})

	t.Run("generates a fresh id per invocation", func(t *testing.T) {
		repo := newMemRepo()
		h := newTestHandler(repo)

		a, err := h.HandleWorkflow(ctx, WorkflowInput{})
		require.NoError(t, err)
		b, err := h.HandleWorkflow(ctx, WorkflowInput{})
		require.NoError(t, err)
		assert.NotEqual(t, a.Item.ID, b.Item.ID)
	})

	t.Run("store failure is logged and returned", func(t *testing.T) {
		var buf bytes.Buffer
		repo := newMemRepo()
		repo.err = errors.New("access denied")
		h := New(service.NewRecordService(repo), testConfig, logging.NewWithWriter(&buf, "info"), nil)

		res, err := h.HandleWorkflow(ctx, WorkflowInput{ID: "wf-2"})

		assert.Nil(t, res)
		assert.ErrorIs(t, err, service.ErrStoreWrite)
		assert.Contains(t, buf.String(), "error processing workflow request")
		assert.Contains(t, buf.String(), `"id":"wf-2"`)
		assert.Contains(t, buf.String(), `"table":"demo_table"`)
	})
}

func TestHandle_UnsupportedEvent(t *testing.T) {
	h := newTestHandler(newMemRepo())

	out, err := h.Handle(context.Background(), json.RawMessage(`"hello"`))

	assert.ErrorIs(t, err, ErrUnsupportedEvent)
	assert.Nil(t, out)
}

func TestHandle_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := NewMetrics(reg)
	require.NoError(t, err)

	h := New(service.NewRecordService(newMemRepo()), testConfig, logging.Discard(), metrics)

	_, _ = invoke(t, h, map[string]any{"httpMethod": "GET"})
	_, _ = invoke(t, h, map[string]any{"httpMethod": "PUT"})
	_, _ = invoke(t, h, map[string]any{"httpMethod": "POST", "body": `{}`})
	_, _ = invoke(t, h, map[string]any{"title": "wf"})

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.invocations.WithLabelValues("gateway", "GET", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.invocations.WithLabelValues("gateway", "other", "405")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.invocations.WithLabelValues("gateway", "POST", "error")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.invocations.WithLabelValues("workflow", "", "200")))

	_, err = NewMetrics(reg)
	assert.Error(t, err)
}

func TestHandle_MetricsMethodLabelIsBounded(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := NewMetrics(reg)
	require.NoError(t, err)
	h := New(service.NewRecordService(newMemRepo()), testConfig, logging.Discard(), metrics)

	for _, method := range []string{"PUT", "DELETE", "BREW", "x-" + uuid.NewString()} {
		_, err := invoke(t, h, map[string]any{"httpMethod": method})
		require.NoError(t, err)
	}

	assert.Equal(t, 1, testutil.CollectAndCount(metrics.invocations))
	assert.Equal(t, float64(4), testutil.ToFloat64(metrics.invocations.WithLabelValues("gateway", "other", "405")))
}

func TestHandle_LogsEventAtInfo(t *testing.T) {
	var buf bytes.Buffer
	h := New(service.NewRecordService(newMemRepo()), testConfig, logging.NewWithWriter(&buf, "info"), nil)

	_, err := invoke(t, h, map[string]any{"httpMethod": "GET", "path": "/records"})
	require.NoError(t, err)

	assert.Contains(t, buf.String(), `"msg":"received event"`)
	assert.Contains(t, buf.String(), `\"path\":\"/records\"`)
}
