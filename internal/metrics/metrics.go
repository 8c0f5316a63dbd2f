package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Webhook outcomes. Every delivery counts as received plus exactly one of
// the others once it is handled.
const (
	OutcomeReceived  = "received"
	OutcomeRejected  = "rejected"
	OutcomeDuplicate = "duplicate"
	OutcomeProcessed = "processed"
	OutcomeFailed    = "failed"
)

type PaymentMetrics struct {
	registry       *prometheus.Registry
	webhooks       *prometheus.CounterVec
	gatewayLatency *prometheus.HistogramVec
}

// New registers the payment collectors on reg. A nil reg gets a private
// registry, which keeps tests independent of each other.
func New(reg *prometheus.Registry) *PaymentMetrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	webhooks := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "donasi_payment_webhooks_total",
			Help: "Provider webhooks by gateway and outcome.",
		},
		[]string{"gateway", "outcome"},
	)

	gatewayLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "donasi_payment_gateway_latency_seconds",
			Help: "Time spent in CreatePayment per gateway.",
			Buckets: []float64{
				0.1,
				0.25,
				0.5,
				1,
				2.5,
				5,
				10,
				15, // client timeout
			},
		},
		[]string{"gateway", "result"}, // success | failed
	)

	reg.MustRegister(webhooks, gatewayLatency)

	return &PaymentMetrics{
		registry:       reg,
		webhooks:       webhooks,
		gatewayLatency: gatewayLatency,
	}
}

// NewWithRuntime is New plus the Go runtime and process collectors, for the
// server binary.
func NewWithRuntime() *PaymentMetrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return New(reg)
}

func (m *PaymentMetrics) IncWebhook(gateway, outcome string) {
	if m == nil {
		return
	}
	m.webhooks.WithLabelValues(gateway, outcome).Inc()
}

func (m *PaymentMetrics) ObserveGatewayLatency(gateway string, success bool, d time.Duration) {
	if m == nil {
		return
	}

	result := "success"
	if !success {
		result = "failed"
	}
	m.gatewayLatency.WithLabelValues(gateway, result).Observe(d.Seconds())
}

// Handler exposes the registry in the Prometheus text format.
func (m *PaymentMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
