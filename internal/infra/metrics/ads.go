package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(adsCreatedTotal, adsPublishedTotal, storageUploadDuration) }

var (
	adsCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ads_created_total",
			Help: "Ads created, labeled by source (bot/api) and initial status.",
		},
		[]string{"source", "status"},
	)

	adsPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ads_channel_publish_total",
			Help: "Channel publish attempts by result.",
		},
		[]string{"result"},
	)

	storageUploadDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storage_upload_duration_seconds",
			Help:    "Object storage upload latency in seconds.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"result"},
	)
)

func IncAdCreated(source, status string) {
	adsCreatedTotal.WithLabelValues(norm(source), norm(status)).Inc()
}

func IncAdPublished(result string) {
	adsPublishedTotal.WithLabelValues(norm(result)).Inc()
}

func ObserveStorageUpload(d time.Duration, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	storageUploadDuration.WithLabelValues(result).Observe(d.Seconds())
}
