// Package metrics exposes pipeline and language-model collectors to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "newsguard"

// Metrics holds every collector newsguard records into. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	stageLatency *prometheus.HistogramVec
	documents    *prometheus.CounterVec
	judgments    *prometheus.CounterVec
	verdicts     *prometheus.CounterVec
	llmRequests  *prometheus.CounterVec
	llmLatency   *prometheus.HistogramVec
	llmTokens    *prometheus.CounterVec
	inFlight     prometheus.Gauge
	rejected     prometheus.Counter
}

// New registers all collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		stageLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Duration of each pipeline stage.",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 20, 40, 60},
			},
			[]string{"stage"},
		),
		documents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "documents_total",
				Help:      "Extracted documents by extraction status.",
			},
			[]string{"status"},
		),
		judgments: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "judgments_total",
				Help:      "Stance judgments by judge status and stance.",
			},
			[]string{"status", "stance"},
		),
		verdicts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "verdicts_total",
				Help:      "Verdicts by label.",
			},
			[]string{"label"},
		),
		llmRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "llm_requests_total",
				Help:      "Language-model requests by provider, model and outcome.",
			},
			[]string{"provider", "model", "status"},
		),
		llmLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "llm_latency_seconds",
				Help:      "Language-model request latency.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"provider", "model"},
		),
		llmTokens: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "llm_tokens_total",
				Help:      "Tokens consumed by direction.",
			},
			[]string{"provider", "model", "token_type"},
		),
		inFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "requests_in_flight",
			Help:      "Claims currently being checked.",
		}),
		rejected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_rejected_total",
			Help:      "Claims that timed out waiting for admission.",
		}),
	}
}

// Registry returns the registry backing m, for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveStage records how long a pipeline stage took.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageLatency.WithLabelValues(stage).Observe(d.Seconds())
}

// Document counts one extraction outcome.
func (m *Metrics) Document(status string) {
	if m == nil {
		return
	}
	m.documents.WithLabelValues(status).Inc()
}

// Judgment counts one judge outcome.
func (m *Metrics) Judgment(status, stance string) {
	if m == nil {
		return
	}
	m.judgments.WithLabelValues(status, stance).Inc()
}

// Verdict counts one final label.
func (m *Metrics) Verdict(label string) {
	if m == nil {
		return
	}
	m.verdicts.WithLabelValues(label).Inc()
}

// ObserveLLM records one language-model call.
func (m *Metrics) ObserveLLM(provider, model, status string, d time.Duration, tokensIn, tokensOut int) {
	if m == nil {
		return
	}
	m.llmRequests.WithLabelValues(provider, model, status).Inc()
	m.llmLatency.WithLabelValues(provider, model).Observe(d.Seconds())
	if status == "success" {
		m.llmTokens.WithLabelValues(provider, model, "input").Add(float64(tokensIn))
		m.llmTokens.WithLabelValues(provider, model, "output").Add(float64(tokensOut))
	}
}

// RequestStarted marks a claim as in flight.
func (m *Metrics) RequestStarted() {
	if m != nil {
		m.inFlight.Inc()
	}
}

// RequestFinished undoes RequestStarted.
func (m *Metrics) RequestFinished() {
	if m != nil {
		m.inFlight.Dec()
	}
}

// Rejected counts a claim that never got a pipeline slot.
func (m *Metrics) Rejected() {
	if m != nil {
		m.rejected.Inc()
	}
}
