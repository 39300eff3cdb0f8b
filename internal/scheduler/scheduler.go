package scheduler

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"hozur/internal/metrics"
	"hozur/internal/shifts"
)

// guardTTL outlives any job window so a re-plan never fires a key twice.
const guardTTL = 48 * time.Hour

// Runner executes the job bodies. *workflow.Service implements it.
type Runner interface {
	SendShiftReminders(ctx context.Context, date string, shiftID int) error
	SendLateAlert(ctx context.Context, date string, shiftID int) error
	SendNightlyReport(ctx context.Context, date string) error
}

// Scheduler arms one timer per planned job plus a rollover timer at midnight.
type Scheduler struct {
	runner  Runner
	catalog *shifts.Catalog
	config  Config
	guard   Guard
	logger  zerolog.Logger
	now     func() time.Time

	mu      sync.Mutex
	running bool
	timers  []*time.Timer
	pending map[string]Job
	wg      sync.WaitGroup
}

// New creates a scheduler. A nil guard falls back to a process-local one.
func New(runner Runner, catalog *shifts.Catalog, config Config, guard Guard, logger zerolog.Logger) *Scheduler {
	if guard == nil {
		guard = NewMemoryGuard()
	}
	return &Scheduler{
		runner:  runner,
		catalog: catalog,
		config:  config,
		guard:   guard,
		logger:  logger.With().Str("component", "scheduler").Logger(),
		now:     time.Now,
		pending: make(map[string]Job),
	}
}

// Start plans the current day and keeps re-planning at every midnight until
// ctx is done or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	now := s.now()
	s.plan(ctx, now, now)
	go func() {
		<-ctx.Done()
		s.Stop()
	}()
}

// Stop cancels every armed timer and waits for running jobs.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.cancelLocked()
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info().Msg("scheduler stopped")
}

// Pending returns the armed jobs that have not fired yet, ordered by time.
func (s *Scheduler) Pending() []Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Job, 0, len(s.pending))
	for _, j := range s.pending {
		out = append(out, j)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out
}

// plan arms the jobs of the calendar day of day whose target is after the
// given instant, plus the rollover into the next day.
func (s *Scheduler) plan(ctx context.Context, day, after time.Time) {
	day = day.In(s.catalog.Location())
	jobs := Plan(s.catalog, s.config, day, after)
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.cancelLocked()
	for _, j := range jobs {
		s.armLocked(ctx, j, now)
	}

	// A target at exactly 00:00 belongs to the new day. The rollover timer
	// fires a moment after midnight, so it plans from just before it.
	midnight := time.Date(day.Year(), day.Month(), day.Day()+1, 0, 0, 0, 0, day.Location())
	s.timers = append(s.timers, time.AfterFunc(midnight.Sub(now), func() {
		s.plan(ctx, midnight, midnight.Add(-time.Nanosecond))
	}))

	s.logger.Info().
		Str("date", day.Format("2006-01-02")).
		Int("jobs", len(jobs)).
		Time("next_rollover", midnight).
		Msg("day planned")
}

func (s *Scheduler) armLocked(ctx context.Context, j Job, now time.Time) {
	key := j.Key()
	s.pending[key] = j
	s.timers = append(s.timers, time.AfterFunc(j.At.Sub(now), func() {
		s.mu.Lock()
		delete(s.pending, key)
		if !s.running {
			s.mu.Unlock()
			return
		}
		s.wg.Add(1)
		s.mu.Unlock()

		defer s.wg.Done()
		s.fire(ctx, j)
	}))
}

// schedule arms jobs outside the daily plan.
func (s *Scheduler) schedule(ctx context.Context, jobs ...Job) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range jobs {
		s.armLocked(ctx, j, now)
	}
}

func (s *Scheduler) cancelLocked() {
	for _, t := range s.timers {
		t.Stop()
	}
	s.timers = nil
	clear(s.pending)
}

func (s *Scheduler) fire(ctx context.Context, j Job) {
	if ctx.Err() != nil {
		return
	}

	log := s.logger.With().
		Str("job", string(j.Kind)).
		Str("date", j.Date).
		Int("shift_id", j.ShiftID).
		Logger()

	ok, err := s.guard.Acquire(ctx, j.Key(), guardTTL)
	if err != nil {
		log.Warn().Err(err).Msg("job guard unavailable, firing anyway")
	} else if !ok {
		log.Info().Msg("job already fired elsewhere")
		return
	}

	ctx = log.WithContext(ctx)
	switch j.Kind {
	case JobShiftReminder:
		err = s.runner.SendShiftReminders(ctx, j.Date, j.ShiftID)
	case JobLateAlert:
		err = s.runner.SendLateAlert(ctx, j.Date, j.ShiftID)
	case JobNightlyReport:
		err = s.runner.SendNightlyReport(ctx, j.Date)
	}
	metrics.IncSchedulerJob(string(j.Kind))
	if err != nil {
		log.Error().Err(err).Msg("job failed")
		return
	}
	log.Info().Msg("job fired")
}
