package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		paymentsTotal,
		paymentsRevenueTotal,
	)
}

var (
	paymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Payments by type and status (pending/completed/failed).",
		},
		[]string{"type", "status"},
	)

	paymentsRevenueTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_revenue_toman_total",
			Help: "The total value of completed payments in Toman, labeled by payment type.",
		},
		[]string{"type"},
	)
)

func IncPayment(paymentType, status string) {
	paymentsTotal.WithLabelValues(norm(paymentType), norm(status)).Inc()
}

func AddPaymentRevenue(paymentType string, amount int64) {
	paymentsRevenueTotal.WithLabelValues(norm(paymentType)).Add(float64(amount))
}
