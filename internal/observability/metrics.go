package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "gearsmarts"

// Metrics holds the Prometheus counters, histograms, and gauges for the service.
type Metrics struct {
	// Classifier metrics.
	TrainRequests           *prometheus.CounterVec // labels: outcome={success,bad_arguments,classifier_error,error}
	ClassifyRequests        *prometheus.CounterVec // labels: outcome={success,empty,bad_arguments,not_trained,classifier_error,error}
	ClassifierTrainDuration prometheus.Histogram
	Namespaces              prometheus.Gauge
	DatasetRows             *prometheus.GaugeVec // labels: namespace

	// HTTP metrics.
	HTTPRequests *prometheus.CounterVec // labels: method, code

	// Weather proxy metrics.
	WeatherRequests    *prometheus.CounterVec   // labels: endpoint={current,historical}, outcome={success,error}
	WeatherCache       *prometheus.CounterVec   // labels: endpoint={current,historical}, result={hit,miss,expired}
	WeatherAPIDuration *prometheus.HistogramVec // labels: endpoint={current,historical}
	WeatherEnabled     prometheus.Gauge

	// Training ingestion metrics.
	MessagesConsumed        prometheus.Counter
	MessagesProduced        prometheus.Counter
	TrainingErrors          *prometheus.CounterVec // labels: reason={bad_input,classifier,exhausted}
	PipelineRunning         prometheus.Gauge
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.TrainRequests,
		m.ClassifyRequests,
		m.ClassifierTrainDuration,
		m.Namespaces,
		m.DatasetRows,
		m.HTTPRequests,
		m.WeatherRequests,
		m.WeatherCache,
		m.WeatherAPIDuration,
		m.WeatherEnabled,
		m.MessagesConsumed,
		m.MessagesProduced,
		m.TrainingErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		TrainRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "train_requests_total",
			Help:      "Train operations by outcome.",
		}, []string{"outcome"}),
		ClassifyRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classify_requests_total",
			Help:      "Classify operations by outcome.",
		}, []string{"outcome"}),
		ClassifierTrainDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "classifier_train_duration_seconds",
			Help:      "Duration of a full classifier retrain.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		Namespaces: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "namespaces",
			Help:      "Number of trained namespaces.",
		}),
		DatasetRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_rows",
			Help:      "Rows held in each namespace dictionary.",
		}, []string{"namespace"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status code.",
		}, []string{"method", "code"}),
		WeatherRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weather_requests_total",
			Help:      "OpenWeatherMap requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		WeatherCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weather_cache_total",
			Help:      "Weather cache lookups by endpoint and result.",
		}, []string{"endpoint", "result"}),
		WeatherAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "weather_api_duration_seconds",
			Help:      "OpenWeatherMap request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"endpoint"}),
		WeatherEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "weather_enabled",
			Help:      "1 when the weather proxy is enabled, 0 otherwise.",
		}),
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_consumed_total",
			Help:      "Total messages read from the training topic.",
		}),
		MessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_produced_total",
			Help:      "Total training events written to the events topic.",
		}),
		TrainingErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "training_errors_total",
			Help:      "Total training-topic observations that failed, by reason.",
		}, []string{"reason"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the ingestion pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of messages per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch train-publish cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
	}
}
