package verifier

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dioad/sigv4/sigv4err"
)

// Metrics counts verification outcomes, generalizing the teacher's
// http.MetricSet request counters down to the two numbers a signature
// verifier needs: how many requests passed, and which error code rejected
// the rest.
type Metrics struct {
	verifications *prometheus.CounterVec
}

// NewMetrics builds a Metrics and registers it against r.
func NewMetrics(r prometheus.Registerer) *Metrics {
	m := &Metrics{
		verifications: promauto.With(r).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "sigv4",
				Subsystem: "verifier",
				Name:      "requests_total",
				Help:      "Count of requests verified, labeled by result and, on failure, error code.",
			},
			[]string{"result", "code"},
		),
	}
	return m
}

func (m *Metrics) observeSuccess() {
	m.verifications.WithLabelValues("success", "").Inc()
}

func (m *Metrics) observeFailure(err error) {
	code := "InternalFailure"
	if e, ok := sigv4err.As(err); ok {
		code = e.Code()
	}
	m.verifications.WithLabelValues("failure", code).Inc()
}
