package handler

import (
	"context"
	"encoding/base64"
	"log/slog"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"recordapi/internal/http/middleware"
)

// GatewayInvoker is the function behind the local gateway.
type GatewayInvoker interface {
	HandleGateway(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)
}

// Deps are the collaborators of the local gateway routes.
type Deps struct {
	Function GatewayInvoker
	// Ping checks the record store; nil means the store has no cheap health probe.
	Ping func(ctx context.Context) error
	// Gatherer backs /metrics; nil disables the endpoint.
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

// RegisterRoutes attaches the local gateway routes to app. Every path not claimed by
// the health and metrics endpoints is proxied to the function, like a {proxy+} resource.
func RegisterRoutes(app *fiber.App, d Deps) {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	app.Get("/health", HealthCheck(d.Ping))
	app.Get("/healthz", LivenessProbe())
	if d.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}
	app.All("/*", Proxy(d.Function, logger))
}

// HealthCheck reports whether the record store answers.
func HealthCheck(ping func(ctx context.Context) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ping != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
			}
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe always answers 200.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// Proxy converts the request into an API Gateway proxy event, invokes fn and writes its
// response. A failed invocation becomes 502 {"message": "Internal server error"}.
func Proxy(fn GatewayInvoker, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req := proxyRequest(c)

		resp, err := fn.HandleGateway(c.UserContext(), req)
		if err != nil {
			logger.ErrorContext(c.UserContext(), "function invocation failed",
				slog.String("request_id", req.RequestContext.RequestID),
				slog.String("method", req.HTTPMethod),
				slog.String("error", err.Error()),
			)
			return c.Status(fiber.StatusBadGateway).JSON(proxyErrorBody{Message: "Internal server error"})
		}
		return writeProxyResponse(c, resp)
	}
}

func proxyRequest(c *fiber.Ctx) events.APIGatewayProxyRequest {
	headers := make(map[string]string)
	multi := c.GetReqHeaders()
	for k, v := range multi {
		if len(v) > 0 {
			headers[k] = v[len(v)-1]
		}
	}

	return events.APIGatewayProxyRequest{
		Resource:              "/{proxy+}",
		Path:                  c.Path(),
		HTTPMethod:            c.Method(),
		Headers:               headers,
		MultiValueHeaders:     multi,
		QueryStringParameters: c.Queries(),
		PathParameters:        map[string]string{"proxy": c.Params("*")},
		Body:                  string(c.Body()),
		RequestContext: events.APIGatewayProxyRequestContext{
			RequestID:  middleware.RequestIDFrom(c),
			HTTPMethod: c.Method(),
			Path:       c.Path(),
			Stage:      "local",
		},
	}
}

func writeProxyResponse(c *fiber.Ctx, resp events.APIGatewayProxyResponse) error {
	for k, v := range resp.Headers {
		c.Set(k, v)
	}
	for k, vs := range resp.MultiValueHeaders {
		for _, v := range vs {
			c.Response().Header.Add(k, v)
		}
	}

	c.Status(resp.StatusCode)
	if resp.IsBase64Encoded {
		b, err := base64.StdEncoding.DecodeString(resp.Body)
		if err != nil {
			return c.Status(fiber.StatusBadGateway).JSON(proxyErrorBody{Message: "Internal server error"})
		}
		return c.Send(b)
	}
	return c.SendString(resp.Body)
}
