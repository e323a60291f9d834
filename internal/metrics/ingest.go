package metrics

import "github.com/prometheus/client_golang/prometheus"

// Ingestion and collection Prometheus metrics.
var (
	IngestRowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "veccoll",
			Name:      "ingest_rows_total",
			Help:      "Rows submitted to collections",
		},
		[]string{"collection"},
	)

	IngestBatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "veccoll",
			Name:      "ingest_batches_total",
			Help:      "Batches submitted to collections",
		},
		[]string{"collection", "status"},
	)

	IngestBatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "veccoll",
			Name:      "ingest_batch_duration_seconds",
			Help:      "Duration of one batch add (embedding + write)",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"collection"},
	)

	CollectionDocuments = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "veccoll",
			Name:      "collection_documents",
			Help:      "Live document count per collection at the last report",
		},
		[]string{"collection"},
	)

	CollectionExpectedDocuments = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "veccoll",
			Name:      "collection_expected_documents",
			Help:      "Source row count per collection at the last report",
		},
		[]string{"collection"},
	)
)

var ingestMetricsRegistered bool

// RegisterIngestMetrics registers ingestion and collection metrics. Must be called once from main.
func RegisterIngestMetrics() {
	if ingestMetricsRegistered {
		return
	}
	prometheus.MustRegister(IngestRowsTotal)
	prometheus.MustRegister(IngestBatchesTotal)
	prometheus.MustRegister(IngestBatchDuration)
	prometheus.MustRegister(CollectionDocuments)
	prometheus.MustRegister(CollectionExpectedDocuments)
	ingestMetricsRegistered = true
}
