package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	m := New()

	m.Document("ok")
	m.Document("ok")
	m.Document("fetch_failed")
	m.Judgment("ok", "refutes")
	m.Verdict("Unreliable")
	m.ObserveLLM("gemini", "gemini-2.5-flash-lite", "success", 200*time.Millisecond, 120, 30)
	m.ObserveLLM("gemini", "gemini-2.5-flash-lite", "error", time.Second, 0, 0)
	m.ObserveStage("extract", time.Second)
	m.RequestStarted()
	m.Rejected()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.documents.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.documents.WithLabelValues("fetch_failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.judgments.WithLabelValues("ok", "refutes")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.verdicts.WithLabelValues("Unreliable")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.llmRequests.WithLabelValues("gemini", "gemini-2.5-flash-lite", "error")))
	assert.Equal(t, 120.0, testutil.ToFloat64(m.llmTokens.WithLabelValues("gemini", "gemini-2.5-flash-lite", "input")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.inFlight))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rejected))

	m.RequestFinished()
	assert.Equal(t, 0.0, testutil.ToFloat64(m.inFlight))

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["newsguard_stage_duration_seconds"])
	assert.True(t, names["newsguard_llm_latency_seconds"])
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Document("ok")
		m.Judgment("ok", "supports")
		m.Verdict("Mixed")
		m.ObserveLLM("p", "m", "success", time.Second, 1, 1)
		m.ObserveStage("judge", time.Second)
		m.RequestStarted()
		m.RequestFinished()
		m.Rejected()
	})
	assert.Nil(t, m.Registry())
}
