package orchestrator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oshokin/alarm-clock/internal/api/grpc/wire"
	"github.com/oshokin/alarm-clock/internal/challenge"
	"github.com/oshokin/alarm-clock/internal/companion"
	"github.com/oshokin/alarm-clock/internal/config"
	"github.com/oshokin/alarm-clock/internal/domain/alarm"
	"github.com/oshokin/alarm-clock/internal/logger"
	"github.com/oshokin/alarm-clock/internal/repository/store"
)

// Playback names the session's playback state.
type Playback string

// Playback states of a session. PlaybackChallenge is reported while a
// dismissal challenge is active on top of a ringing or paused session.
const (
	PlaybackIdle      Playback = "idle"
	PlaybackStarting  Playback = "starting"
	PlaybackRinging   Playback = "ringing"
	PlaybackPaused    Playback = "paused"
	PlaybackStopped   Playback = "stopped"
	PlaybackChallenge Playback = "challenge"
)

// ErrNoSession is returned when an operation targets an alarm that is not
// the current session.
var ErrNoSession = errors.New("no matching session")

// DismissalPublisher announces a confirmed dismissal to listening surfaces.
type DismissalPublisher interface {
	// DismissalConfirmed publishes the dismissed alarm identifier.
	DismissalConfirmed(ctx context.Context, alarmID int64) error
}

// session is the live state of one ringing alarm. At most one exists.
type session struct {
	// token distinguishes this session from any later one for the same id;
	// timers and handshake goroutines carry it and re-check before acting.
	token uuid.UUID
	// def is the resolved definition snapshot.
	def *alarm.Definition
	// state is the current playback state.
	state Playback
	// challenge is the active dismissal challenge, if any.
	challenge challenge.Challenge
	// audible reports whether local audio is currently sounding.
	audible bool
	// started reports whether local audio has started at least once; a
	// started-then-paused session resumes instead of replaying from scratch.
	started bool
	// notified reports whether the companion start notification was sent.
	notified bool
	// wakeRecorded is the write-once guard for the history record.
	wakeRecorded bool
	// fallback is the pending grace or post-ack timer, if any.
	fallback *time.Timer
}

// Orchestrator serializes every transition of the at-most-one live session
// through a single command loop.
type Orchestrator struct {
	// store persists wake events.
	store store.Store
	// publisher announces confirmed dismissals; optional.
	publisher DismissalPublisher
	// messenger talks to the wrist companion; optional.
	messenger companion.Messenger
	// player owns the audio resource.
	player Player
	// presenter owns the OS-visible surfaces.
	presenter Presenter
	// handshake holds the grace and post-ack fallback durations.
	handshake config.Handshake

	// commands is the actor inbox; only the run goroutine touches sess.
	commands chan func()
	// done ends the command loop.
	done chan struct{}
	// closeOnce guards done.
	closeOnce sync.Once

	// ctx spans the orchestrator's lifetime. Session goroutines, fallback
	// timers and challenge callbacks derive from it, never from a caller's
	// request context, which gRPC cancels the moment the RPC returns.
	ctx    context.Context
	cancel context.CancelFunc

	// sess is the current session; nil when idle.
	sess *session
}

// New starts the orchestrator's command loop.
func New(
	st store.Store,
	publisher DismissalPublisher,
	messenger companion.Messenger,
	player Player,
	presenter Presenter,
	handshake config.Handshake,
) *Orchestrator {
	ctx, cancel := context.WithCancel(logger.WithName(context.Background(), "orchestrator"))

	o := &Orchestrator{
		store:     st,
		publisher: publisher,
		messenger: messenger,
		player:    player,
		presenter: presenter,
		handshake: handshake,
		commands:  make(chan func()),
		done:      make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
	}

	go o.run()

	return o
}

// run is the actor loop; it is the only goroutine that touches sess.
func (o *Orchestrator) run() {
	for {
		select {
		case fn := <-o.commands:
			fn()
		case <-o.done:
			return
		}
	}
}

// exec runs fn on the actor goroutine and waits for it to finish.
// Must not be called from within the loop itself.
func (o *Orchestrator) exec(fn func()) {
	finished := make(chan struct{})

	select {
	case o.commands <- func() {
		fn()
		close(finished)
	}:
		<-finished
	case <-o.done:
	}
}

// Fire begins a session for the resolved definition. A re-fire for the
// already-ringing alarm is ignored; a fire for a different alarm supersedes
// the current session before the new one begins.
func (o *Orchestrator) Fire(ctx context.Context, def *alarm.Definition) {
	o.exec(func() {
		if s := o.sess; s != nil {
			if s.def.ID == def.ID {
				logger.Debugf(ctx, "alarm %d already ringing, fire signal ignored", def.ID)

				return
			}

			logger.Infof(ctx, "alarm %d supersedes ringing alarm %d", def.ID, s.def.ID)
			o.stopLocked(ctx, s)
		}

		s := &session{
			token: uuid.New(),
			def:   def.Clone(),
			state: PlaybackStarting,
		}
		o.sess = s

		o.presenter.SetInProgress(def.ID, def.Label)

		if !o.presenter.Interactive() {
			o.presenter.RequestFullScreen(def.ID)
		}

		// The handshake outlives the fire request.
		go o.runHandshake(o.ctx, s.token, s.def)
	})
}

// Command applies a session command. It reports false when the target alarm
// is not the current session; such commands are ignored.
func (o *Orchestrator) Command(ctx context.Context, alarmID int64, cmd wire.SessionCommand) bool {
	var applied bool

	o.exec(func() {
		s := o.sess
		if s == nil || s.def.ID != alarmID {
			return
		}

		applied = true

		switch cmd {
		case wire.CommandStop:
			o.stopLocked(ctx, s)
		case wire.CommandPause:
			if s.audible {
				o.player.Pause()

				s.audible = false
			}

			s.state = PlaybackPaused
		case wire.CommandResume:
			// Audio stays paused while a challenge is active; the challenge
			// outcome decides whether the session resumes or stops.
			if s.challenge == nil {
				o.startOrResumeAudioLocked(ctx, s)
			}
		case wire.CommandCompanionAck:
			// The wrist alert was dismissed. If local audio is not sounding
			// yet, escalate after the shorter post-ack window instead of the
			// remaining grace period.
			if !s.audible {
				o.armFallbackLocked(s, o.handshake.PostAckFallback)
			}
		default:
			applied = false
		}
	})

	return applied
}

// BeginChallenge pauses the alert and activates the session's configured
// dismissal challenge, returning the live instance for the presentation
// layer to drive. Calling it again while a challenge is active returns the
// same instance.
func (o *Orchestrator) BeginChallenge(ctx context.Context, alarmID int64) (challenge.Challenge, error) {
	var (
		active challenge.Challenge
		err    error
	)

	o.exec(func() {
		s := o.sess
		if s == nil || s.def.ID != alarmID {
			err = ErrNoSession

			return
		}

		if s.challenge != nil {
			active = s.challenge

			return
		}

		o.cancelFallbackLocked(s)

		if s.audible {
			o.player.Pause()

			s.audible = false
		}

		// Callbacks fire long after the begin request returned, so they run
		// on the orchestrator's context rather than the caller's.
		token := s.token
		callbacks := challenge.Callbacks{
			OnComplete: func(kind alarm.ChallengeKind) { o.completeChallenge(o.ctx, token, kind) },
			OnCancel:   func() { o.dropChallenge(o.ctx, token, false) },
			OnFail:     func() { o.dropChallenge(o.ctx, token, true) },
		}

		active, err = challenge.New(s.def.Challenge, callbacks)
		if err != nil {
			o.startOrResumeAudioLocked(ctx, s)

			return
		}

		s.challenge = active
	})

	return active, err
}

// Status reports the current session's alarm identifier and playback state.
// The identifier is zero when no session is live.
func (o *Orchestrator) Status() (int64, Playback) {
	var (
		alarmID  int64
		playback = PlaybackIdle
	)

	o.exec(func() {
		s := o.sess
		if s == nil {
			return
		}

		alarmID = s.def.ID
		playback = s.state

		if s.challenge != nil {
			playback = PlaybackChallenge
		}
	})

	return alarmID, playback
}

// Shutdown tears the current session down and stops the command loop. A
// still-active challenge gets its audio resumed before release, so the alarm
// is never left silently paused by a dying host process.
func (o *Orchestrator) Shutdown(ctx context.Context) {
	o.exec(func() {
		s := o.sess
		if s == nil {
			return
		}

		if s.challenge != nil && !s.wakeRecorded {
			o.startOrResumeAudioLocked(ctx, s)
		}

		o.stopLocked(ctx, s)
	})

	o.closeOnce.Do(func() { close(o.done) })
	o.cancel()
}

// runHandshake performs the companion probes off the actor loop and posts
// the outcome back, guarded by the session token.
func (o *Orchestrator) runHandshake(ctx context.Context, token uuid.UUID, def *alarm.Definition) {
	worn := false

	if o.messenger != nil {
		reachable, err := o.messenger.Reachable(ctx)

		switch {
		case err != nil:
			logger.Debugf(ctx, "companion unreachable, starting audio: %v", err)
		case reachable:
			state, wornErr := o.messenger.WornState(ctx)
			if wornErr != nil {
				logger.Debugf(ctx, "worn-state probe failed, starting audio: %v", wornErr)
			}

			worn = wornErr == nil && state == wire.WornStateWorn
		}
	}

	o.exec(func() {
		s := o.sess
		if s == nil || s.token != token {
			return
		}

		if !worn {
			o.startOrResumeAudioLocked(ctx, s)

			return
		}

		o.deferToCompanionLocked(ctx, s)
	})
}

// deferToCompanionLocked holds local audio back, notifies the companion
// exactly once and arms the grace-period fallback.
func (o *Orchestrator) deferToCompanionLocked(ctx context.Context, s *session) {
	s.state = PlaybackPaused

	if !s.notified {
		s.notified = true

		alarmID, label := s.def.ID, s.def.Label

		go func() {
			if err := o.messenger.NotifyStart(ctx, alarmID, label); err != nil {
				logger.Warnf(ctx, "companion start notification failed: %v", err)
			}
		}()
	}

	o.armFallbackLocked(s, o.handshake.GracePeriod)
}

// armFallbackLocked (re)arms the session's fallback timer: when it elapses
// and the session is still the same one and still silent, local audio starts.
// The timer runs on the orchestrator's context; the request that armed it is
// long gone by then.
func (o *Orchestrator) armFallbackLocked(s *session, after time.Duration) {
	o.cancelFallbackLocked(s)

	token := s.token
	s.fallback = time.AfterFunc(after, func() {
		o.exec(func() {
			cur := o.sess
			if cur == nil || cur.token != token || cur.audible || cur.challenge != nil {
				return
			}

			logger.Infof(o.ctx, "companion fallback elapsed, starting audio for alarm %d", cur.def.ID)
			o.startOrResumeAudioLocked(o.ctx, cur)
		})
	})
}

// cancelFallbackLocked drops the pending fallback timer, if any.
func (o *Orchestrator) cancelFallbackLocked(s *session) {
	if s.fallback != nil {
		s.fallback.Stop()
		s.fallback = nil
	}
}

// startOrResumeAudioLocked makes the session audible: fresh playback for a
// never-started session, resume for a paused one. A bad sound source falls
// back to the platform default; if that fails too, the session carries on
// without audio.
func (o *Orchestrator) startOrResumeAudioLocked(ctx context.Context, s *session) {
	if s.audible {
		s.state = PlaybackRinging

		return
	}

	if s.started {
		o.player.Resume()

		s.audible = true
		s.state = PlaybackRinging

		return
	}

	if err := o.player.Play(ctx, s.def.Sound); err != nil {
		logger.Warnf(ctx, "playback of %q failed, trying default sound: %v", s.def.Sound, err)

		if err = o.player.Play(ctx, ""); err != nil {
			logger.Errorf(ctx, "default playback failed, session continues without audio: %v", err)

			s.state = PlaybackRinging

			return
		}
	}

	s.audible = true
	s.started = true
	s.state = PlaybackRinging
}

// completeChallenge handles the exactly-once dismissal path: append the
// wake event, announce the dismissal and tear the session down.
func (o *Orchestrator) completeChallenge(ctx context.Context, token uuid.UUID, kind alarm.ChallengeKind) {
	o.exec(func() {
		s := o.sess
		if s == nil || s.token != token || s.wakeRecorded {
			return
		}

		s.wakeRecorded = true

		event := &alarm.WakeEvent{
			AlarmID:     s.def.ID,
			Label:       s.def.Label,
			Challenge:   kind,
			CompletedAt: time.Now(),
		}

		if err := o.store.AppendWakeEvent(ctx, event); err != nil {
			logger.Errorf(ctx, "failed to record wake event for alarm %d: %v", s.def.ID, err)
		}

		if o.publisher != nil {
			if err := o.publisher.DismissalConfirmed(ctx, s.def.ID); err != nil {
				logger.Warnf(ctx, "dismissal broadcast failed for alarm %d: %v", s.def.ID, err)
			}
		}

		logger.Infof(ctx, "alarm %d dismissed via %s challenge", s.def.ID, kind)
		o.stopLocked(ctx, s)
	})
}

// dropChallenge returns the session to audible ringing after the active
// challenge was cancelled, or after the focus variant's terminal
// confirmation failure. Neither path records history; the user picks a
// challenge again.
func (o *Orchestrator) dropChallenge(ctx context.Context, token uuid.UUID, failed bool) {
	o.exec(func() {
		s := o.sess
		if s == nil || s.token != token || s.challenge == nil {
			return
		}

		if failed {
			logger.Warnf(ctx, "challenge failed for alarm %d, alarm keeps ringing", s.def.ID)
		}

		s.challenge = nil

		o.startOrResumeAudioLocked(ctx, s)
	})
}

// stopLocked releases everything the session owns: audio, timers, the
// active challenge and the OS surfaces. No history is recorded here.
func (o *Orchestrator) stopLocked(ctx context.Context, s *session) {
	o.cancelFallbackLocked(s)

	if active := s.challenge; active != nil {
		s.challenge = nil

		// Cancel off the loop; the callback re-enters exec and finds a
		// stale token.
		go active.Cancel()
	}

	if s.started {
		o.player.Stop()
	}

	s.audible = false
	s.state = PlaybackStopped

	o.presenter.ClearInProgress()

	if o.sess == s {
		o.sess = nil
	}

	logger.Debugf(ctx, "session for alarm %d stopped", s.def.ID)
}
