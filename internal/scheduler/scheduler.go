package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/oshokin/alarm-clock/internal/domain/alarm"
	"github.com/oshokin/alarm-clock/internal/logger"
)

// FireFunc receives the alarm identifier when its trigger arrives.
type FireFunc func(alarmID int64)

// Gate answers whether precise wake scheduling is currently permitted.
// A denial is reported and the alarm stays dormant; it is never fatal.
type Gate interface {
	// AllowPrecise returns an error when precise scheduling is denied.
	AllowPrecise() error
}

// allowAll is the default gate: scheduling is always permitted.
type allowAll struct{}

// AllowPrecise implements Gate.
func (allowAll) AllowPrecise() error { return nil }

// ErrNoTrigger is returned when a definition yields no computable trigger.
var ErrNoTrigger = errors.New("definition yields no trigger")

// TriggerScheduler keeps at most one installed trigger per alarm identifier.
type TriggerScheduler struct {
	// mu guards entries.
	mu sync.Mutex
	// runner executes installed triggers at their computed instants.
	runner *cron.Cron
	// entries maps alarm identifier to its installed runner entry.
	entries map[int64]cron.EntryID
	// fire is invoked when a trigger arrives.
	fire FireFunc
	// gate is consulted before every installation.
	gate Gate
}

// Option configures scheduler behaviour.
type Option func(*TriggerScheduler)

// WithGate replaces the default always-allow scheduling gate.
func WithGate(gate Gate) Option {
	return func(s *TriggerScheduler) {
		if gate != nil {
			s.gate = gate
		}
	}
}

// New returns a scheduler delivering trigger arrivals to fire.
func New(fire FireFunc, opts ...Option) *TriggerScheduler {
	s := &TriggerScheduler{
		runner:  cron.New(),
		entries: make(map[int64]cron.EntryID),
		fire:    fire,
		gate:    allowAll{},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start launches the trigger runner.
func (s *TriggerScheduler) Start() {
	s.runner.Start()
}

// Stop halts the trigger runner and waits for an in-flight fire to return.
func (s *TriggerScheduler) Stop(ctx context.Context) {
	done := s.runner.Stop()

	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

// Schedule installs the trigger for a definition, replacing any existing
// entry for the same identifier. A scheduling denial or a definition with no
// computable trigger leaves no entry installed and is reported to the caller,
// who logs and carries on.
func (s *TriggerScheduler) Schedule(ctx context.Context, def *alarm.Definition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeLocked(def.ID)

	if err := s.gate.AllowPrecise(); err != nil {
		logger.Warnf(ctx, "precise scheduling denied, alarm %d stays dormant: %v", def.ID, err)

		return fmt.Errorf("schedule alarm %d: %w", def.ID, err)
	}

	next, ok := alarm.NextTrigger(def, time.Now())
	if !ok {
		return fmt.Errorf("schedule alarm %d: %w", def.ID, ErrNoTrigger)
	}

	id := def.ID
	entry := s.runner.Schedule(
		triggerSchedule{def: def.Clone()},
		cron.FuncJob(func() { s.fire(id) }),
	)
	s.entries[def.ID] = entry

	logger.Debugf(ctx, "alarm %d scheduled, next trigger %s", def.ID, next.Format(time.RFC3339))

	return nil
}

// Cancel removes the trigger for an identifier. It is a no-op when nothing
// is installed.
func (s *TriggerScheduler) Cancel(alarmID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeLocked(alarmID)
}

// Synchronize reconciles the installed triggers against the full alarm set:
// every active definition gets its entry (re)installed, every inactive one
// cancelled, and entries for identifiers absent from the set are dropped.
// Calling it twice with the same input yields the same installed state.
func (s *TriggerScheduler) Synchronize(ctx context.Context, defs []*alarm.Definition) error {
	known := make(map[int64]struct{}, len(defs))

	var errs []error

	for _, def := range defs {
		known[def.ID] = struct{}{}

		if !def.IsActive {
			s.Cancel(def.ID)

			continue
		}

		if err := s.Schedule(ctx, def); err != nil {
			errs = append(errs, err)
		}
	}

	s.mu.Lock()

	for id := range s.entries {
		if _, ok := known[id]; !ok {
			s.removeLocked(id)
		}
	}

	s.mu.Unlock()

	return errors.Join(errs...)
}

// NextFire reports the computed instant of an installed trigger.
func (s *TriggerScheduler) NextFire(alarmID int64) (time.Time, bool) {
	s.mu.Lock()
	entryID, ok := s.entries[alarmID]
	s.mu.Unlock()

	if !ok {
		return time.Time{}, false
	}

	entry := s.runner.Entry(entryID)
	if !entry.Valid() {
		return time.Time{}, false
	}

	// Entries added before Start have no materialized Next yet.
	if entry.Next.IsZero() {
		return entry.Schedule.Next(time.Now()), true
	}

	return entry.Next, true
}

// Scheduled reports the identifiers with an installed trigger.
func (s *TriggerScheduler) Scheduled() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]int64, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}

	return ids
}

// removeLocked drops the entry for an identifier. Caller holds mu.
func (s *TriggerScheduler) removeLocked(alarmID int64) {
	if entryID, ok := s.entries[alarmID]; ok {
		s.runner.Remove(entryID)
		delete(s.entries, alarmID)
	}
}

// triggerSchedule adapts an alarm definition to the runner's schedule
// contract. Next re-computes the trigger from the definition itself, so a
// repeating alarm re-arms for its following weekday after each run.
type triggerSchedule struct {
	def *alarm.Definition
}

// Next returns the next trigger instant after t, or the zero time when the
// definition yields none.
func (ts triggerSchedule) Next(t time.Time) time.Time {
	next, ok := alarm.NextTrigger(ts.def, t)
	if !ok {
		return time.Time{}
	}

	return next
}
