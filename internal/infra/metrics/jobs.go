package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(jobsProcessedTotal, adsExpiredTotal, freeQuotaResetsTotal) }

var (
	jobsProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "background_jobs_processed_total",
			Help: "Background tasks run by the worker pool, labeled by job and status.",
		},
		[]string{"job", "status"}, // status: 'completed', 'failed', 'dropped'
	)

	adsExpiredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ads_expired_total",
			Help: "Ads moved to expired by the scheduler.",
		},
	)

	freeQuotaResetsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "free_quota_resets_total",
			Help: "Monthly free-ad quota resets performed.",
		},
	)
)

func IncJob(job, status string) {
	jobsProcessedTotal.WithLabelValues(norm(job), norm(status)).Inc()
}

func AddAdsExpired(n int) {
	adsExpiredTotal.Add(float64(n))
}

func IncFreeQuotaReset() {
	freeQuotaResetsTotal.Inc()
}
