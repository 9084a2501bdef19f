package function

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	statusError = "error"
	methodOther = "other"
)

// Metrics counts handled invocations by source, HTTP method and outcome.
type Metrics struct {
	invocations *prometheus.CounterVec
}

// NewMetrics registers the handler metrics with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		invocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "record_invocations_total",
				Help: "Total number of handler invocations processed.",
			},
			[]string{"source", "method", "status"},
		),
	}
	if err := reg.Register(m.invocations); err != nil {
		return nil, err
	}
	return m, nil
}

// observe is a no-op on a nil receiver so the handler runs without metrics.
func (m *Metrics) observe(source, method, status string) {
	if m == nil {
		return
	}
	m.invocations.WithLabelValues(source, methodLabel(method), status).Inc()
}

// methodLabel keeps the method label bounded: only the served methods get their own value.
func methodLabel(method string) string {
	switch method {
	case "", http.MethodGet, http.MethodPost:
		return method
	default:
		return methodOther
	}
}
