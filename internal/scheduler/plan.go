// Package scheduler fires the shift reminder, late-arrival alert and nightly
// report at precise instants. Each day is planned once into one-shot timers and
// re-planned at midnight.
package scheduler

import (
	"fmt"
	"sort"
	"time"

	"hozur/internal/model"
	"hozur/internal/shifts"
)

// JobKind names a scheduled job.
type JobKind string

const (
	JobShiftReminder JobKind = "shift_reminder"
	JobLateAlert     JobKind = "late_alert"
	JobNightlyReport JobKind = "nightly_report"
)

// Job is one planned firing. Date is the day of the shift instance (or of the
// report), which can differ from the calendar day of At.
type Job struct {
	Kind    JobKind
	Date    string
	ShiftID int
	At      time.Time
}

// Key identifies the job across processes and re-plans.
func (j Job) Key() string {
	return fmt.Sprintf("hozur:job:%s:%s:%d", j.Kind, j.Date, j.ShiftID)
}

// Config holds the job offsets.
type Config struct {
	// ReminderBefore is how long before a shift starts its reminder fires.
	ReminderBefore time.Duration
	// LateAlertAfter is how long after a shift starts the late alert fires.
	LateAlertAfter time.Duration
	// NightlyReportAt is the report time as an offset from midnight.
	NightlyReportAt time.Duration

	DisableReminders     bool
	DisableLateAlerts    bool
	DisableNightlyReport bool
}

// Plan returns the jobs whose target falls on the calendar day of day, strictly
// after now, ordered by time. Shift instances of the neighbouring days are
// considered so a reminder for a midnight shift lands on the evening before.
// A nightly report set at 00:00 closes the previous day and reports on it.
func Plan(cat *shifts.Catalog, cfg Config, day, now time.Time) []Job {
	day = day.In(cat.Location())
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, cat.Location())
	to := from.AddDate(0, 0, 1)

	var jobs []Job
	add := func(j Job) {
		if j.At.Before(from) || !j.At.Before(to) || !j.At.After(now) {
			return
		}
		jobs = append(jobs, j)
	}

	for offset := -1; offset <= 1; offset++ {
		date := from.AddDate(0, 0, offset).Format(model.DateLayout)
		for _, id := range cat.IDs() {
			start, err := cat.Start(date, id)
			if err != nil {
				continue
			}
			if !cfg.DisableReminders {
				add(Job{Kind: JobShiftReminder, Date: date, ShiftID: id, At: start.Add(-cfg.ReminderBefore)})
			}
			if !cfg.DisableLateAlerts {
				add(Job{Kind: JobLateAlert, Date: date, ShiftID: id, At: start.Add(cfg.LateAlertAfter)})
			}
		}
	}
	if !cfg.DisableNightlyReport {
		h := int(cfg.NightlyReportAt / time.Hour)
		m := int((cfg.NightlyReportAt % time.Hour) / time.Minute)
		reportDay := from
		if cfg.NightlyReportAt == 0 {
			reportDay = from.AddDate(0, 0, -1)
		}
		add(Job{
			Kind: JobNightlyReport,
			Date: reportDay.Format(model.DateLayout),
			At:   time.Date(from.Year(), from.Month(), from.Day(), h, m, 0, 0, from.Location()),
		})
	}

	sort.SliceStable(jobs, func(i, j int) bool { return jobs[i].At.Before(jobs[j].At) })
	return jobs
}
