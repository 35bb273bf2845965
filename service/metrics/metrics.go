package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the application.
// Following the explicit dependency injection pattern, this struct
// is passed to all components that need to record metrics.
type Metrics struct {
	// Solana RPC Metrics
	solanaRPCCallsTotal   *prometheus.CounterVec
	solanaRPCCallDuration *prometheus.HistogramVec

	// Payment Gate Metrics
	paymentChecksTotal *prometheus.CounterVec

	// Agent Metrics
	agentActionsTotal   *prometheus.CounterVec
	intentParsesTotal   *prometheus.CounterVec
	intentParseDuration *prometheus.HistogramVec
	swapProviderCalls   *prometheus.CounterVec
	feeAppendsTotal     *prometheus.CounterVec

	// HTTP Metrics
	httpRequestDuration *prometheus.HistogramVec
	httpRequestsTotal   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance and registers all collectors.
// If registry is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		// Solana RPC Metrics
		solanaRPCCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "solana_rpc_calls_total",
				Help: "Total number of Solana RPC calls by method and status",
			},
			[]string{"method", "status", "endpoint"},
		),
		solanaRPCCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "solana_rpc_call_duration_seconds",
				Help:    "Duration of Solana RPC calls in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"method", "endpoint"},
		),

		// Payment Gate Metrics
		paymentChecksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_checks_total",
				Help: "Total number of payment gate decisions by outcome",
			},
			[]string{"outcome"},
		),

		// Agent Metrics
		agentActionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_actions_total",
				Help: "Total number of agent actions executed",
			},
			[]string{"action", "network", "status"},
		),
		intentParsesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "intent_parses_total",
				Help: "Total number of intent parse attempts",
			},
			[]string{"status"},
		),
		intentParseDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "intent_parse_duration_seconds",
				Help:    "Duration of intent parse calls in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 15.0},
			},
			[]string{"status"},
		),
		swapProviderCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swap_provider_calls_total",
				Help: "Total number of swap provider calls by stage and status",
			},
			[]string{"stage", "status"},
		),
		feeAppendsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fee_appends_total",
				Help: "Total number of fee bundling attempts by result",
			},
			[]string{"result"},
		),

		// HTTP Metrics
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
			},
			[]string{"handler", "method", "status"},
		),
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"handler", "method", "status"},
		),
	}
}

// Solana RPC metric helpers

// RecordRPCCall records a Solana RPC call with duration.
func (m *Metrics) RecordRPCCall(method, status, endpoint string, duration float64) {
	m.solanaRPCCallsTotal.WithLabelValues(method, status, endpoint).Inc()
	m.solanaRPCCallDuration.WithLabelValues(method, endpoint).Observe(duration)
}

// Payment gate metric helpers

// RecordPaymentCheck records a payment gate decision.
// Outcomes: admitted, bypass, missing, malformed, rejected, replayed.
func (m *Metrics) RecordPaymentCheck(outcome string) {
	m.paymentChecksTotal.WithLabelValues(outcome).Inc()
}

// Agent metric helpers

// RecordAgentAction records an executed agent action.
func (m *Metrics) RecordAgentAction(action, network, status string) {
	m.agentActionsTotal.WithLabelValues(action, network, status).Inc()
}

// RecordIntentParse records an intent parse attempt with duration.
func (m *Metrics) RecordIntentParse(status string, duration float64) {
	m.intentParsesTotal.WithLabelValues(status).Inc()
	m.intentParseDuration.WithLabelValues(status).Observe(duration)
}

// RecordSwapProviderCall records a swap provider call.
func (m *Metrics) RecordSwapProviderCall(stage, status string) {
	m.swapProviderCalls.WithLabelValues(stage, status).Inc()
}

// RecordFeeAppend records a fee bundling attempt.
// Results: appended, skipped, fallback.
func (m *Metrics) RecordFeeAppend(result string) {
	m.feeAppendsTotal.WithLabelValues(result).Inc()
}

// HTTP metric helpers

// RecordHTTPRequest records an HTTP request with duration.
func (m *Metrics) RecordHTTPRequest(handler, method string, statusCode int, duration float64) {
	status := statusCodeToString(statusCode)
	m.httpRequestDuration.WithLabelValues(handler, method, status).Observe(duration)
	m.httpRequestsTotal.WithLabelValues(handler, method, status).Inc()
}

// Helper functions

func statusCodeToString(code int) string {
	// Group status codes by class
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500 && code < 600:
		return "5xx"
	default:
		return "unknown"
	}
}
