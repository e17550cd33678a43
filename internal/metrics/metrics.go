package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "escape_booking"

var (
	once sync.Once

	bookingCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_created_total",
			Help:      "Count of bookings created by source.",
		},
		[]string{"source"},
	)

	bookingTransition = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_transition_total",
			Help:      "Count of booking status transitions by target status.",
		},
		[]string{"status"},
	)

	slotConflict = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slot_conflict_total",
			Help:      "Count of create/reschedule attempts rejected because the slot was taken.",
		},
		[]string{"operation"},
	)

	watchesNotified = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slot_watches_notified_total",
			Help:      "Count of slot watches marked ready to notify.",
		},
	)

	outboxPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_events_published_total",
			Help:      "Count of outbox events relayed, by result.",
		},
		[]string{"result"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookingCreated, bookingTransition, slotConflict, watchesNotified, outboxPublished)
	})
}

func IncBookingCreated(source string) {
	bookingCreated.WithLabelValues(source).Inc()
}

func IncBookingTransition(status string) {
	bookingTransition.WithLabelValues(status).Inc()
}

func AddBookingTransitions(status string, n int64) {
	bookingTransition.WithLabelValues(status).Add(float64(n))
}

func IncSlotConflict(operation string) {
	slotConflict.WithLabelValues(operation).Inc()
}

func AddWatchesNotified(n int) {
	watchesNotified.Add(float64(n))
}

func IncOutboxPublished(result string) {
	outboxPublished.WithLabelValues(result).Inc()
}
