package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		usersRegisteredTotal,
		telegramUpdatesReceivedTotal,
		telegramRateLimitTriggeredTotal,
		telegramHandlerPanicsTotal,
	)
}

var (
	usersRegisteredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "users_registered_total",
			Help: "Total number of new users registered.",
		},
	)

	telegramUpdatesReceivedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_updates_received_total",
			Help: "Counts incoming updates from users by kind.",
		},
		[]string{"kind"},
	)

	telegramRateLimitTriggeredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "telegram_rate_limit_triggered_total",
			Help: "Total number of times users have been rate-limited.",
		},
	)

	telegramHandlerPanicsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "telegram_handler_panics_total",
			Help: "Panics recovered while handling an update.",
		},
	)
)

func IncUsersRegistered() {
	usersRegisteredTotal.Inc()
}

func IncTelegramUpdate(kind string) {
	telegramUpdatesReceivedTotal.WithLabelValues(norm(kind)).Inc()
}

func IncTelegramRateLimited() {
	telegramRateLimitTriggeredTotal.Inc()
}

func IncHandlerPanic() {
	telegramHandlerPanicsTotal.Inc()
}
