package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// scoring pipeline.
type Metrics struct {
	ProvincesScored    prometheus.Counter
	RecordsLoaded      prometheus.Counter
	RecordsDropped     prometheus.Counter
	IslandGroupsFailed prometheus.Counter
	RunRunning         prometheus.Gauge

	ProvinceScoreDuration prometheus.Histogram
	RunDuration           prometheus.Histogram

	SinkWrites *prometheus.CounterVec // labels: sink={file,kafka}, outcome={success,error}
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ProvincesScored,
		m.RecordsLoaded,
		m.RecordsDropped,
		m.IslandGroupsFailed,
		m.RunRunning,
		m.ProvinceScoreDuration,
		m.RunDuration,
		m.SinkWrites,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ProvincesScored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "npi_score",
			Name:      "provinces_scored_total",
			Help:      "Provinces fully scored during runs.",
		}),
		RecordsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "npi_score",
			Name:      "records_loaded_total",
			Help:      "Intervention records read from the source.",
		}),
		RecordsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "npi_score",
			Name:      "records_dropped_total",
			Help:      "Records dropped for unknown codes or provinces.",
		}),
		IslandGroupsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "npi_score",
			Name:      "island_groups_failed_total",
			Help:      "Island groups skipped because a member series was missing.",
		}),
		RunRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "npi_score",
			Name:      "run_running",
			Help:      "1 while a scoring run is active, 0 otherwise.",
		}),
		ProvinceScoreDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "npi_score",
			Name:      "province_score_duration_seconds",
			Help:      "Duration of scoring one province end to end.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "npi_score",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete scoring run over all provinces.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		}),
		SinkWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "npi_score",
			Name:      "sink_writes_total",
			Help:      "Score table writes by sink and outcome.",
		}, []string{"sink", "outcome"}),
	}
}
