package orchestrator

import (
	"context"
	"errors"
	"sync"

	"github.com/oshokin/alarm-clock/internal/domain/alarm"
	"github.com/oshokin/alarm-clock/internal/logger"
	"github.com/oshokin/alarm-clock/internal/repository/store"
)

// SessionStarter receives the resolved definition of a fired alarm.
type SessionStarter interface {
	// Fire begins or supersedes the live session.
	Fire(ctx context.Context, def *alarm.Definition)
}

// TriggerInstaller is the dispatcher's view of the trigger scheduler.
type TriggerInstaller interface {
	// Schedule installs the next trigger for a definition.
	Schedule(ctx context.Context, def *alarm.Definition) error
	// Cancel removes the trigger for an identifier.
	Cancel(alarmID int64)
}

// RecentFires is the short-lived cache bridging the gap between trigger
// delivery and store mutation, so a racing second fire signal can still
// resolve its definition.
type RecentFires interface {
	// Remember caches the definition under the recent-fire key.
	Remember(ctx context.Context, def *alarm.Definition) error
	// Recall returns the cached definition for an identifier.
	Recall(ctx context.Context, alarmID int64) (*alarm.Definition, error)
}

// Dispatcher is the firing entry point: it resolves the fired alarm, applies
// the reschedule-versus-deactivate decision and starts the session.
type Dispatcher struct {
	// store holds standing and one-shot definitions.
	store store.Store
	// cache is the recent-fire cache; optional.
	cache RecentFires
	// installer re-arms or cancels triggers.
	installer TriggerInstaller
	// sessions receives the resolved definition.
	sessions SessionStarter

	// inflight counts fire signals still being processed, so shutdown can
	// wait for them instead of dropping work mid-pipeline.
	inflight sync.WaitGroup
}

// NewDispatcher wires the firing entry point.
func NewDispatcher(st store.Store, cache RecentFires, installer TriggerInstaller, sessions SessionStarter) *Dispatcher {
	return &Dispatcher{
		store:     st,
		cache:     cache,
		installer: installer,
		sessions:  sessions,
	}
}

// HandleFire processes one fire signal. A resolution miss cancels any
// lingering trigger and ends cleanly; no session starts. The in-flight
// counter is released on every exit path.
func (d *Dispatcher) HandleFire(ctx context.Context, alarmID int64) {
	d.inflight.Add(1)
	defer d.inflight.Done()

	def, err := d.resolve(ctx, alarmID)
	if err != nil {
		logger.Warnf(ctx, "fired alarm %d has no definition, cancelling trigger: %v", alarmID, err)
		d.installer.Cancel(alarmID)

		return
	}

	d.sessions.Fire(ctx, def)
}

// Wait blocks until every in-flight fire signal has been processed.
func (d *Dispatcher) Wait() {
	d.inflight.Wait()
}

// resolve finds the fired alarm's definition and applies its post-fire store
// side effects: a repeating alarm is re-armed for its next trigger, a
// one-shot is deactivated or consumed and its trigger cancelled.
func (d *Dispatcher) resolve(ctx context.Context, alarmID int64) (*alarm.Definition, error) {
	def, err := d.store.GetAlarm(ctx, alarmID)
	if err == nil {
		d.remember(ctx, def)

		if def.IsOneShot() {
			if err = d.store.SetActive(ctx, alarmID, false); err != nil {
				logger.Errorf(ctx, "failed to deactivate fired one-shot alarm %d: %v", alarmID, err)
			}

			d.installer.Cancel(alarmID)
		} else if err = d.installer.Schedule(ctx, def); err != nil {
			logger.Warnf(ctx, "failed to re-arm alarm %d: %v", alarmID, err)
		}

		return def, nil
	}

	if !errors.Is(err, store.ErrNotFound) {
		logger.Errorf(ctx, "standing-alarm lookup failed for %d: %v", alarmID, err)
	}

	def, err = d.store.ConsumeOneShot(ctx, alarmID)
	if err == nil {
		d.remember(ctx, def)
		d.installer.Cancel(alarmID)

		return def, nil
	}

	if !errors.Is(err, store.ErrNotFound) {
		logger.Errorf(ctx, "one-shot lookup failed for %d: %v", alarmID, err)
	}

	if d.cache == nil {
		return nil, store.ErrNotFound
	}

	return d.cache.Recall(ctx, alarmID)
}

// remember puts the resolved definition into the recent-fire cache.
func (d *Dispatcher) remember(ctx context.Context, def *alarm.Definition) {
	if d.cache == nil {
		return
	}

	if err := d.cache.Remember(ctx, def); err != nil {
		logger.Debugf(ctx, "recent-fire cache write failed for alarm %d: %v", def.ID, err)
	}
}
