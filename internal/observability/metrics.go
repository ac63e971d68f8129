package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ticketsIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tickets_issued_total",
			Help: "Tickets created in pending state",
		},
	)

	ticketsRedeemed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tickets_redeemed_total",
			Help: "Tickets successfully redeemed at the gate",
		},
	)

	ticketsCancelled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickets_cancelled_total",
			Help: "Tickets cancelled, by reason",
		},
		[]string{"reason"},
	)

	capacityRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "capacity_rejections_total",
			Help: "Purchase attempts denied because the event was sold out",
		},
	)

	paymentNotifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_notifications_total",
			Help: "Payment gateway notifications processed, by outcome",
		},
		[]string{"outcome"},
	)

	duplicatePaymentNotifications = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "duplicate_payment_notifications_total",
			Help: "Payment notifications ignored as already processed",
		},
	)

	capacityReleaseAnomalies = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "capacity_release_anomalies_total",
			Help: "Capacity releases that would have pushed sold below zero",
		},
	)
)

func TrackTicketIssued()            { ticketsIssued.Inc() }
func TrackTicketRedeemed()          { ticketsRedeemed.Inc() }
func TrackTicketCancelled(r string) { ticketsCancelled.WithLabelValues(r).Inc() }
func TrackCapacityRejection()       { capacityRejections.Inc() }
func TrackPaymentNotification(outcome string) {
	paymentNotifications.WithLabelValues(outcome).Inc()
}
func TrackDuplicatePaymentNotification() { duplicatePaymentNotifications.Inc() }
func TrackCapacityReleaseAnomaly()       { capacityReleaseAnomalies.Inc() }
