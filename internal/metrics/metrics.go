package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hozur"

var (
	once sync.Once

	checkins = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkins_total",
			Help:      "Count of check-ins by punctuality.",
		},
		[]string{"punctuality"},
	)

	checkinDelay = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "checkin_delay_minutes",
			Help:      "Delay of check-ins after shift start in minutes.",
			Buckets:   []float64{0, 1, 5, 10, 15, 30, 60, 120},
		},
	)

	checkouts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkouts_total",
			Help:      "Count of check-outs.",
		},
	)

	registrationDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registration_decisions_total",
			Help:      "Count of registration decisions.",
		},
		[]string{"decision"},
	)

	leaveDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "leave_decisions_total",
			Help:      "Count of leave request decisions.",
		},
		[]string{"decision"},
	)

	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Count of outbound notifications by kind and delivery status.",
		},
		[]string{"kind", "status"},
	)

	schedulerJobs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_jobs_total",
			Help:      "Count of fired scheduler jobs.",
		},
		[]string{"job"},
	)

	dialogTimeouts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dialog_timeouts_total",
			Help:      "Count of dialogs dropped after the idle timeout.",
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			checkins, checkinDelay, checkouts,
			registrationDecisions, leaveDecisions,
			notifications, schedulerJobs, dialogTimeouts,
		)
	})
}

func ObserveCheckIn(delayMinutes int) {
	punctuality := "on_time"
	if delayMinutes > 0 {
		punctuality = "late"
	}
	checkins.WithLabelValues(punctuality).Inc()
	checkinDelay.Observe(float64(delayMinutes))
}

func IncCheckOut() {
	checkouts.Inc()
}

func IncRegistrationDecision(decision string) {
	registrationDecisions.WithLabelValues(decision).Inc()
}

func IncLeaveDecision(decision string) {
	leaveDecisions.WithLabelValues(decision).Inc()
}

// IncNotification counts one outbound send. Status is "delivered", "blocked",
// "rate_limited" or "failed".
func IncNotification(kind, status string) {
	notifications.WithLabelValues(kind, status).Inc()
}

func IncSchedulerJob(job string) {
	schedulerJobs.WithLabelValues(job).Inc()
}

func IncDialogTimeout() {
	dialogTimeouts.Inc()
}
