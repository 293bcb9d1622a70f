package metrics

import "github.com/prometheus/client_golang/prometheus"

// ChatMetrics exposes counters/histograms for the chat pipeline.
type ChatMetrics struct {
	responsesTotal     *prometheus.CounterVec
	assessmentsTotal   *prometheus.CounterVec
	providerAttempts   *prometheus.CounterVec
	providerRetries    prometheus.Counter
	sideEffectFailures *prometheus.CounterVec
	providerLatency    *prometheus.HistogramVec
}

func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		responsesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wellness",
			Subsystem: "chat",
			Name:      "responses_total",
			Help:      "Chat replies by the path that produced them",
		}, []string{"provider"}),
		assessmentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wellness",
			Subsystem: "chat",
			Name:      "assessments_total",
			Help:      "Classified messages by risk level",
		}, []string{"risk_level", "heavy"}),
		providerAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wellness",
			Subsystem: "chat",
			Name:      "provider_attempts_total",
			Help:      "Completion provider calls by outcome",
		}, []string{"outcome"}),
		providerRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wellness",
			Subsystem: "chat",
			Name:      "provider_default_model_retries_total",
			Help:      "Retries against the default model after a rejected model",
		}),
		sideEffectFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wellness",
			Subsystem: "chat",
			Name:      "side_effect_failures_total",
			Help:      "Failed best-effort writes by kind",
		}, []string{"kind"}),
		providerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "wellness",
			Subsystem: "chat",
			Name:      "provider_latency_seconds",
			Help:      "Latency of completion provider calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.responsesTotal,
		m.assessmentsTotal,
		m.providerAttempts,
		m.providerRetries,
		m.sideEffectFailures,
		m.providerLatency,
	)
	return m
}

func (m *ChatMetrics) ObserveResponse(provider string) {
	if m == nil {
		return
	}
	m.responsesTotal.WithLabelValues(provider).Inc()
}

func (m *ChatMetrics) ObserveAssessment(level string, heavy bool) {
	if m == nil {
		return
	}
	label := "false"
	if heavy {
		label = "true"
	}
	m.assessmentsTotal.WithLabelValues(level, label).Inc()
}

// ObserveProviderAttempt records one provider call and its latency.
func (m *ChatMetrics) ObserveProviderAttempt(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.providerAttempts.WithLabelValues(outcome).Inc()
	m.providerLatency.WithLabelValues(outcome).Observe(seconds)
}

func (m *ChatMetrics) ObserveProviderRetry() {
	if m == nil {
		return
	}
	m.providerRetries.Inc()
}

func (m *ChatMetrics) ObserveSideEffectFailure(kind string) {
	if m == nil {
		return
	}
	m.sideEffectFailures.WithLabelValues(kind).Inc()
}
