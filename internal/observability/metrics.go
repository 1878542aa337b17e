package observability

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/efebarandurmaz/multillm/internal/llm"
)

// Outcome labels for multillm_llm_requests_total.
const (
	OutcomeSuccess       = "success"
	OutcomeTransport     = "transport_error"
	OutcomeAPI           = "api_error"
	OutcomeResponse      = "response_error"
	OutcomeNotInstalled  = "not_installed"
	OutcomeNotConfigured = "not_configured"
	OutcomeUnsupported   = "unsupported"
	OutcomeInternal      = "internal_error"
)

// LLMMetrics holds the prometheus collectors for dispatch calls.
type LLMMetrics struct {
	Registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	TokensTotal     *prometheus.CounterVec
}

// NewLLMMetrics creates the collectors on a fresh registry.
func NewLLMMetrics() *LLMMetrics {
	reg := prometheus.NewRegistry()
	m := &LLMMetrics{
		Registry: reg,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "multillm_llm_requests_total",
			Help: "LLM dispatch calls by backend and outcome.",
		}, []string{"backend", "outcome"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "multillm_llm_request_duration_seconds",
			Help:    "Wall time of LLM calls that reached a backend.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"backend"}),
		TokensTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "multillm_llm_tokens_total",
			Help: "Tokens reported by backends.",
		}, []string{"backend", "direction"}),
	}
	reg.MustRegister(m.RequestsTotal, m.RequestDuration, m.TokensTotal)
	return m
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *LLMMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// RecordLLMRequest records one dispatch call. duration is ignored for calls
// that never reached a backend. A nil receiver is a no-op.
func (m *LLMMetrics) RecordLLMRequest(backend llm.Backend, duration time.Duration, resp *llm.Response, err error) {
	if m == nil {
		return
	}
	outcome := Outcome(err)
	m.RequestsTotal.WithLabelValues(string(backend), outcome).Inc()

	switch outcome {
	case OutcomeNotConfigured, OutcomeUnsupported, OutcomeNotInstalled:
		return
	}
	m.RequestDuration.WithLabelValues(string(backend)).Observe(duration.Seconds())
	if resp != nil {
		m.TokensTotal.WithLabelValues(string(backend), "input").Add(float64(resp.InputTokens))
		m.TokensTotal.WithLabelValues(string(backend), "output").Add(float64(resp.OutputTokens))
	}
}

// Outcome maps a dispatch error to its metric label.
func Outcome(err error) string {
	if err == nil {
		return OutcomeSuccess
	}
	var e *llm.Error
	if !errors.As(err, &e) {
		return OutcomeInternal
	}
	switch e.Kind {
	case llm.KindAPI:
		return OutcomeAPI
	case llm.KindResponse:
		return OutcomeResponse
	case llm.KindNotInstalled:
		return OutcomeNotInstalled
	case llm.KindNotConfigured:
		return OutcomeNotConfigured
	case llm.KindUnsupported:
		return OutcomeUnsupported
	default:
		return OutcomeTransport
	}
}
