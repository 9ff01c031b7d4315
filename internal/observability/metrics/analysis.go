package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// AnalysisMetrics tracks runs, stage durations and classification outcomes.
// It implements analysis.Recorder.
type AnalysisMetrics struct {
	registry *prometheus.Registry

	runsTotal       *prometheus.CounterVec
	runsActive      prometheus.Gauge
	stageDuration   *prometheus.HistogramVec
	classifications *prometheus.CounterVec
	confidence      prometheus.Histogram
}

// NewAnalysisMetrics creates and registers analysis metrics
func NewAnalysisMetrics(registry *prometheus.Registry) (*AnalysisMetrics, error) {
	m := &AnalysisMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *AnalysisMetrics) initMetrics() {
	m.runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pugmark_runs_total",
			Help: "Total number of finished analysis runs",
		},
		[]string{"outcome"}, // completed, cancelled
	)

	m.runsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pugmark_runs_active",
		Help: "Number of analysis runs currently in progress",
	})

	m.stageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pugmark_stage_duration_seconds",
			Help:    "Time spent in each analysis stage",
			Buckets: prometheus.ExponentialBuckets(BucketStart10ms, BucketFactor2, BucketCount12),
		},
		[]string{"stage"},
	)

	m.classifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pugmark_classifications_total",
			Help: "Total number of classifications by class id",
		},
		[]string{"class_id"},
	)

	m.confidence = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "pugmark_classification_confidence",
		Help:    "Distribution of classification confidence percentages",
		Buckets: prometheus.LinearBuckets(ConfidenceBucketStart, ConfidenceBucketWidth, ConfidenceBucketCount),
	})
}

func (m *AnalysisMetrics) getCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.runsTotal,
		m.runsActive,
		m.stageDuration,
		m.classifications,
		m.confidence,
	}
}

// Describe implements the Collector interface
func (m *AnalysisMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.getCollectors() {
		collector.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *AnalysisMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.getCollectors() {
		collector.Collect(ch)
	}
}

// RunStarted marks a run as active.
func (m *AnalysisMetrics) RunStarted() {
	m.runsActive.Inc()
}

// RunFinished records a run's outcome and removes it from the active gauge.
func (m *AnalysisMetrics) RunFinished(outcome string, _ time.Duration) {
	m.runsActive.Dec()
	m.runsTotal.WithLabelValues(outcome).Inc()
}

// StageFinished records how long a run spent in stage.
func (m *AnalysisMetrics) StageFinished(stage string, elapsed time.Duration) {
	m.stageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}

// Classified records a classification result.
func (m *AnalysisMetrics) Classified(classID string, confidence float64) {
	m.classifications.WithLabelValues(classID).Inc()
	m.confidence.Observe(confidence)
}
