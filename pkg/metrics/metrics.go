package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	DocumentsExported = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "mongo_export", Name: "documents_exported_total", Help: "Number of documents written to export files by collection."},
		[]string{"collection"},
	)
	Runs = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "mongo_export", Name: "runs_total", Help: "Number of export runs by kind and outcome."},
		[]string{"kind", "status"},
	)
	RunDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: "mongo_export", Name: "run_duration_seconds", Help: "Wall-clock duration of export runs.", Buckets: prometheus.DefBuckets},
		[]string{"kind"},
	)
	LastSuccess = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Namespace: "mongo_export", Name: "last_success_timestamp_seconds", Help: "Unix time of the last successful export by kind."},
		[]string{"kind"},
	)
)

const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(DocumentsExported)
	reg.MustRegister(Runs)
	reg.MustRegister(RunDuration)
	reg.MustRegister(LastSuccess)
}

// WriteTextfile dumps the gathered metrics in the node-exporter textfile
// format. The file is replaced atomically.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
