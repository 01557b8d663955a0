package orchestrator

import (
	"context"

	"github.com/oshokin/alarm-clock/internal/logger"
)

// Player owns the single audio playback resource. An empty sound name selects
// the platform default. Pause keeps the playback position so Resume continues
// where the alert left off.
type Player interface {
	// Play starts looping playback of the named sound.
	Play(ctx context.Context, sound string) error
	// Pause suspends playback, keeping its position.
	Pause()
	// Resume continues paused playback.
	Resume()
	// Stop halts playback and releases the resource.
	Stop()
}

// Presenter is the engine's view of the device presentation layer: the
// OS-visible "alarm in progress" status and the full-screen dismissal surface.
type Presenter interface {
	// SetInProgress registers the OS-visible in-progress status.
	SetInProgress(alarmID int64, label string)
	// ClearInProgress removes the in-progress status.
	ClearInProgress()
	// Interactive reports whether the display is currently unlocked and in use.
	Interactive() bool
	// RequestFullScreen asks for the full-screen dismissal surface.
	RequestFullScreen(alarmID int64)
}

// LogPlayer is the daemon's default Player: it only logs transitions. Real
// audio output lives outside the engine process.
type LogPlayer struct{}

// Play implements Player.
func (LogPlayer) Play(ctx context.Context, sound string) error {
	if sound == "" {
		sound = "default"
	}

	logger.Infof(ctx, "audio started, sound %q", sound)

	return nil
}

// Pause implements Player.
func (LogPlayer) Pause() {
	logger.Info(context.Background(), "audio paused")
}

// Resume implements Player.
func (LogPlayer) Resume() {
	logger.Info(context.Background(), "audio resumed")
}

// Stop implements Player.
func (LogPlayer) Stop() {
	logger.Info(context.Background(), "audio stopped")
}

// LogPresenter is the daemon's default Presenter: it logs surface requests
// and reports the display as non-interactive, so every fired alarm asks for
// the full-screen surface.
type LogPresenter struct{}

// SetInProgress implements Presenter.
func (LogPresenter) SetInProgress(alarmID int64, label string) {
	logger.Infof(context.Background(), "alarm %d in progress, label %q", alarmID, label)
}

// ClearInProgress implements Presenter.
func (LogPresenter) ClearInProgress() {
	logger.Info(context.Background(), "alarm in-progress status cleared")
}

// Interactive implements Presenter.
func (LogPresenter) Interactive() bool { return false }

// RequestFullScreen implements Presenter.
func (LogPresenter) RequestFullScreen(alarmID int64) {
	logger.Infof(context.Background(), "full-screen dismissal surface requested for alarm %d", alarmID)
}
