package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRegisterIsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Register()
		Register()
	})
}

func TestObserveCheckInSplitsPunctuality(t *testing.T) {
	onTime := testutil.ToFloat64(checkins.WithLabelValues("on_time"))
	late := testutil.ToFloat64(checkins.WithLabelValues("late"))

	ObserveCheckIn(0)
	ObserveCheckIn(12)
	ObserveCheckIn(3)

	assert.Equal(t, onTime+1, testutil.ToFloat64(checkins.WithLabelValues("on_time")))
	assert.Equal(t, late+2, testutil.ToFloat64(checkins.WithLabelValues("late")))
}

func TestIncNotification(t *testing.T) {
	before := testutil.ToFloat64(notifications.WithLabelValues("late_alert", "blocked"))
	IncNotification("late_alert", "blocked")
	assert.Equal(t, before+1, testutil.ToFloat64(notifications.WithLabelValues("late_alert", "blocked")))
}
