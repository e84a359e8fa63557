package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the service collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	Analyses         *prometheus.CounterVec
	ValidationErrors prometheus.Counter
	SensorsScored    *prometheus.CounterVec
	ScoreDuration    *prometheus.HistogramVec
	CacheLookups     *prometheus.CounterVec
	ReportsGenerated *prometheus.CounterVec
	ActiveSessions   prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "uniformity",
			Name:      "analyses_total",
			Help:      "Uploaded datasets processed, by outcome.",
		}, []string{"outcome"}),
		ValidationErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "uniformity",
			Name:      "validation_errors_total",
			Help:      "Uploads rejected for missing columns.",
		}),
		SensorsScored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "uniformity",
			Name:      "sensors_scored_total",
			Help:      "Sensor score records produced, by cohort.",
		}, []string{"cohort"}),
		ScoreDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "uniformity",
			Name:      "score_duration_seconds",
			Help:      "Time to score one cohort.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"cohort"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "uniformity",
			Name:      "cache_lookups_total",
			Help:      "Score cache lookups, by result.",
		}, []string{"result"}),
		ReportsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "uniformity",
			Name:      "reports_generated_total",
			Help:      "HTML reports rendered, by variant.",
		}, []string{"variant"}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "uniformity",
			Name:      "active_sessions",
			Help:      "Sessions currently held in memory.",
		}),
	}
	reg.MustRegister(
		m.Analyses,
		m.ValidationErrors,
		m.SensorsScored,
		m.ScoreDuration,
		m.CacheLookups,
		m.ReportsGenerated,
		m.ActiveSessions,
	)
	return m
}

// ObserveAnalysis counts one processed upload.
func (m *Metrics) ObserveAnalysis(outcome string) {
	if m == nil {
		return
	}
	m.Analyses.WithLabelValues(outcome).Inc()
}

// ObserveValidationError counts one rejected upload.
func (m *Metrics) ObserveValidationError() {
	if m == nil {
		return
	}
	m.ValidationErrors.Inc()
}

// ObserveScore records one cohort scoring run.
func (m *Metrics) ObserveScore(cohort string, sensors int, elapsed time.Duration, cacheHit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if cacheHit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
	m.SensorsScored.WithLabelValues(cohort).Add(float64(sensors))
	m.ScoreDuration.WithLabelValues(cohort).Observe(elapsed.Seconds())
}

// ObserveReport counts one rendered report.
func (m *Metrics) ObserveReport(variant string) {
	if m == nil {
		return
	}
	m.ReportsGenerated.WithLabelValues(variant).Inc()
}

// SetActiveSessions updates the session gauge.
func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.ActiveSessions.Set(float64(n))
}
