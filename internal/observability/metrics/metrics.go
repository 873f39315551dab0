package metrics

import "github.com/prometheus/client_golang/prometheus"

// AssistantMetrics exposes counters/histograms for the command assistant.
type AssistantMetrics struct {
	commandsTotal   *prometheus.CounterVec
	commandLatency  *prometheus.HistogramVec
	storeErrors     *prometheus.CounterVec
	perfLogFailures *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
}

func NewAssistantMetrics(reg prometheus.Registerer) *AssistantMetrics {
	m := &AssistantMetrics{
		commandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crm",
			Subsystem: "assistant",
			Name:      "commands_total",
			Help:      "Total interpreted commands by intent and outcome",
		}, []string{"intent", "status"}),
		commandLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "crm",
			Subsystem: "assistant",
			Name:      "command_latency_seconds",
			Help:      "Latency of command interpretation including store calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"intent"}),
		storeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crm",
			Subsystem: "assistant",
			Name:      "store_errors_total",
			Help:      "Record store failures by entity",
		}, []string{"entity"}),
		perfLogFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crm",
			Subsystem: "assistant",
			Name:      "perf_log_failures_total",
			Help:      "Dropped performance log writes by sink",
		}, []string{"sink"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crm",
			Subsystem: "assistant",
			Name:      "response_cache_lookups_total",
			Help:      "Response cache lookups by result",
		}, []string{"result"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.commandsTotal, m.commandLatency, m.storeErrors, m.perfLogFailures, m.cacheLookups)
	return m
}

func (m *AssistantMetrics) ObserveCommand(intent, status string, seconds float64) {
	if m == nil {
		return
	}
	m.commandsTotal.WithLabelValues(intent, status).Inc()
	m.commandLatency.WithLabelValues(intent).Observe(seconds)
}

func (m *AssistantMetrics) ObserveStoreError(entity string) {
	if m == nil {
		return
	}
	m.storeErrors.WithLabelValues(entity).Inc()
}

func (m *AssistantMetrics) ObservePerfLogFailure(sink string) {
	if m == nil {
		return
	}
	m.perfLogFailures.WithLabelValues(sink).Inc()
}

// ObserveCacheLookup records a response cache hit or miss.
func (m *AssistantMetrics) ObserveCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}
