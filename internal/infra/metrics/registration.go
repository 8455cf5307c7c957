package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(registrationsTotal, registrationImagesTotal) }

var (
	registrationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ad_registrations_total",
			Help: "Bot ad registrations by outcome (started/submitted/rejected/cancelled/failed/refused).",
		},
		[]string{"outcome"},
	)

	registrationImagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ad_registration_images_total",
			Help: "Photos received during ad registration by result.",
		},
		[]string{"result"}, // 'accepted', 'limit', 'failed'
	)
)

func IncRegistration(outcome string) {
	registrationsTotal.WithLabelValues(norm(outcome)).Inc()
}

func IncRegistrationImage(result string) {
	registrationImagesTotal.WithLabelValues(norm(result)).Inc()
}
