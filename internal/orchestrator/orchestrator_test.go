package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/alarm-clock/internal/api/grpc/wire"
	"github.com/oshokin/alarm-clock/internal/challenge"
	"github.com/oshokin/alarm-clock/internal/config"
	"github.com/oshokin/alarm-clock/internal/domain/alarm"
	"github.com/oshokin/alarm-clock/internal/repository/store"
)

// fakePlayer records playback transitions.
type fakePlayer struct {
	mu        sync.Mutex
	playing   bool
	sounds    []string
	pauses    int
	resumes   int
	stops     int
	failSound string
}

func (p *fakePlayer) Play(_ context.Context, sound string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.sounds = append(p.sounds, sound)

	if p.failSound != "" && sound == p.failSound {
		return errors.New("unreadable sound source")
	}

	p.playing = true

	return nil
}

func (p *fakePlayer) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.pauses++
	p.playing = false
}

func (p *fakePlayer) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.resumes++
	p.playing = true
}

func (p *fakePlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stops++
	p.playing = false
}

func (p *fakePlayer) isPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.playing
}

func (p *fakePlayer) playCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.sounds)
}

// fakePresenter records surface requests.
type fakePresenter struct {
	mu          sync.Mutex
	interactive bool
	inProgress  bool
	fullScreens int
}

func (p *fakePresenter) SetInProgress(int64, string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.inProgress = true
}

func (p *fakePresenter) ClearInProgress() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.inProgress = false
}

func (p *fakePresenter) Interactive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.interactive
}

func (p *fakePresenter) RequestFullScreen(int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.fullScreens++
}

// fakeMessenger simulates the wrist companion. Like the real client, every
// call fails once its context is cancelled.
type fakeMessenger struct {
	mu        sync.Mutex
	reachable bool
	worn      wire.WornState
	notified  int
}

func (m *fakeMessenger) Reachable(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.reachable {
		return false, errors.New("companion offline")
	}

	return true, nil
}

func (m *fakeMessenger) WornState(ctx context.Context) (wire.WornState, error) {
	if err := ctx.Err(); err != nil {
		return wire.WornStateUnknown, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	return m.worn, nil
}

func (m *fakeMessenger) NotifyStart(ctx context.Context, _ int64, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.notified++

	return nil
}

func (m *fakeMessenger) notifyCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.notified
}

// fakePublisher records dismissal broadcasts.
type fakePublisher struct {
	mu  sync.Mutex
	ids []int64
}

func (p *fakePublisher) DismissalConfirmed(_ context.Context, alarmID int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.ids = append(p.ids, alarmID)

	return nil
}

func (p *fakePublisher) published() []int64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]int64(nil), p.ids...)
}

// testRig bundles the orchestrator with its fakes.
type testRig struct {
	orc       *Orchestrator
	store     *store.SQLStore
	player    *fakePlayer
	presenter *fakePresenter
	messenger *fakeMessenger
	publisher *fakePublisher
}

func newTestRig(t *testing.T, messenger *fakeMessenger) *testRig {
	t.Helper()

	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	rig := &testRig{
		store:     st,
		player:    &fakePlayer{},
		presenter: &fakePresenter{},
		messenger: messenger,
		publisher: &fakePublisher{},
	}

	handshake := config.Handshake{
		ProbeTimeout:    50 * time.Millisecond,
		GracePeriod:     150 * time.Millisecond,
		PostAckFallback: 25 * time.Millisecond,
	}

	rig.orc = New(st, rig.publisher, messenger, rig.player, rig.presenter, handshake)
	t.Cleanup(func() { rig.orc.Shutdown(context.Background()) })

	return rig
}

func objectAlarm(id int64) *alarm.Definition {
	return &alarm.Definition{
		ID:       id,
		Time:     alarm.TimeOfDay{Hour: 7},
		IsActive: true,
		Sound:    "classic",
		Label:    "Wake up",
		Challenge: alarm.ChallengeSpec{
			Kind:          alarm.ChallengeObject,
			TargetLabel:   "toothbrush",
			MinConfidence: 0.5,
		},
	}
}

func waitRinging(t *testing.T, rig *testRig, alarmID int64) {
	t.Helper()

	require.Eventually(t, func() bool {
		id, playback := rig.orc.Status()

		return id == alarmID && playback == PlaybackRinging
	}, 2*time.Second, 5*time.Millisecond)
}

func TestFireStartsAudioWhenCompanionOffline(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t, &fakeMessenger{reachable: false})
	rig.orc.Fire(context.Background(), objectAlarm(42))

	waitRinging(t, rig, 42)
	require.True(t, rig.player.isPlaying())
	require.Equal(t, 0, rig.messenger.notifyCount())

	rig.presenter.mu.Lock()
	defer rig.presenter.mu.Unlock()
	require.True(t, rig.presenter.inProgress)
	require.Equal(t, 1, rig.presenter.fullScreens)
}

func TestFireStartsAudioWhenNotWorn(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t, &fakeMessenger{reachable: true, worn: wire.WornStateNotWorn})
	rig.orc.Fire(context.Background(), objectAlarm(42))

	waitRinging(t, rig, 42)
	require.Equal(t, 0, rig.messenger.notifyCount())
}

func TestFireDefersAudioWhenWorn(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t, &fakeMessenger{reachable: true, worn: wire.WornStateWorn})
	rig.orc.Fire(context.Background(), objectAlarm(42))

	// The companion is worn: the session must sit silent until the grace
	// period elapses.
	require.Eventually(t, func() bool {
		id, playback := rig.orc.Status()

		return id == 42 && playback == PlaybackPaused
	}, 2*time.Second, 5*time.Millisecond)
	require.False(t, rig.player.isPlaying())

	// Grace fallback escalates to local audio.
	waitRinging(t, rig, 42)
	require.True(t, rig.player.isPlaying())
	require.Equal(t, 1, rig.messenger.notifyCount())
}

func TestFireOutlivesCallerContext(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t, &fakeMessenger{reachable: true, worn: wire.WornStateWorn})

	// A fire delivered over RPC arrives with a request-scoped context that
	// gRPC cancels as soon as the call returns. The handshake must not
	// inherit it: the worn companion still gets its deferral.
	ctx, cancel := context.WithCancel(context.Background())
	rig.orc.Fire(ctx, objectAlarm(42))
	cancel()

	require.Eventually(t, func() bool {
		id, playback := rig.orc.Status()

		return id == 42 && playback == PlaybackPaused
	}, 2*time.Second, 5*time.Millisecond)
	require.False(t, rig.player.isPlaying())

	require.Eventually(t, func() bool {
		return rig.messenger.notifyCount() == 1
	}, 2*time.Second, 5*time.Millisecond)

	// The grace fallback escalates afterwards as usual.
	waitRinging(t, rig, 42)
}

func TestRefireForRingingAlarmIsIgnored(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t, &fakeMessenger{})
	ctx := context.Background()

	rig.orc.Fire(ctx, objectAlarm(42))
	waitRinging(t, rig, 42)

	rig.orc.Fire(ctx, objectAlarm(42))

	id, _ := rig.orc.Status()
	require.Equal(t, int64(42), id)
	require.Equal(t, 1, rig.player.playCount())
}

func TestFireForDifferentAlarmSupersedes(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t, &fakeMessenger{})
	ctx := context.Background()

	rig.orc.Fire(ctx, objectAlarm(1))
	waitRinging(t, rig, 1)

	rig.orc.Fire(ctx, objectAlarm(2))
	waitRinging(t, rig, 2)

	rig.player.mu.Lock()
	defer rig.player.mu.Unlock()
	require.Equal(t, 1, rig.player.stops)
	require.Len(t, rig.player.sounds, 2)
}

func TestCompanionAckArmsShorterFallback(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t, &fakeMessenger{reachable: true, worn: wire.WornStateWorn})
	ctx := context.Background()

	rig.orc.Fire(ctx, objectAlarm(42))

	require.Eventually(t, func() bool {
		_, playback := rig.orc.Status()

		return playback == PlaybackPaused
	}, 2*time.Second, 5*time.Millisecond)

	// The wrist alert was dismissed: escalate after the shorter post-ack
	// window, well before the grace period would have elapsed.
	require.True(t, rig.orc.Command(ctx, 42, wire.CommandCompanionAck))

	require.Eventually(t, func() bool {
		return rig.player.isPlaying()
	}, 100*time.Millisecond, 5*time.Millisecond)
}

func TestCommandIgnoredForOtherAlarm(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t, &fakeMessenger{})
	ctx := context.Background()

	rig.orc.Fire(ctx, objectAlarm(42))
	waitRinging(t, rig, 42)

	require.False(t, rig.orc.Command(ctx, 7, wire.CommandStop))

	id, playback := rig.orc.Status()
	require.Equal(t, int64(42), id)
	require.Equal(t, PlaybackRinging, playback)
}

func TestPauseAndResume(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t, &fakeMessenger{})
	ctx := context.Background()

	rig.orc.Fire(ctx, objectAlarm(42))
	waitRinging(t, rig, 42)

	require.True(t, rig.orc.Command(ctx, 42, wire.CommandPause))
	require.False(t, rig.player.isPlaying())

	_, playback := rig.orc.Status()
	require.Equal(t, PlaybackPaused, playback)

	require.True(t, rig.orc.Command(ctx, 42, wire.CommandResume))
	require.True(t, rig.player.isPlaying())

	rig.player.mu.Lock()
	defer rig.player.mu.Unlock()
	require.Equal(t, 1, rig.player.resumes)
}

func TestResumeIgnoredWhileChallengeActive(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t, &fakeMessenger{})
	ctx := context.Background()

	rig.orc.Fire(ctx, objectAlarm(42))
	waitRinging(t, rig, 42)

	_, err := rig.orc.BeginChallenge(ctx, 42)
	require.NoError(t, err)
	require.False(t, rig.player.isPlaying())

	// RESUME must not make the alarm audible underneath the challenge.
	require.True(t, rig.orc.Command(ctx, 42, wire.CommandResume))
	require.False(t, rig.player.isPlaying())

	_, playback := rig.orc.Status()
	require.Equal(t, PlaybackChallenge, playback)
}

func TestStopCleansUpWithoutHistory(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t, &fakeMessenger{})
	ctx := context.Background()

	rig.orc.Fire(ctx, objectAlarm(42))
	waitRinging(t, rig, 42)

	require.True(t, rig.orc.Command(ctx, 42, wire.CommandStop))

	id, playback := rig.orc.Status()
	require.Equal(t, int64(0), id)
	require.Equal(t, PlaybackIdle, playback)
	require.False(t, rig.player.isPlaying())

	events, err := rig.store.ListWakeEvents(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, events)

	rig.presenter.mu.Lock()
	defer rig.presenter.mu.Unlock()
	require.False(t, rig.presenter.inProgress)
}

func TestBeginChallengePausesAudioAndCancelResumes(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t, &fakeMessenger{})
	ctx := context.Background()

	rig.orc.Fire(ctx, objectAlarm(42))
	waitRinging(t, rig, 42)

	active, err := rig.orc.BeginChallenge(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, alarm.ChallengeObject, active.Kind())
	require.False(t, rig.player.isPlaying())

	_, playback := rig.orc.Status()
	require.Equal(t, PlaybackChallenge, playback)

	// A second begin returns the same resumable instance.
	again, err := rig.orc.BeginChallenge(ctx, 42)
	require.NoError(t, err)
	require.Same(t, active, again)

	active.Cancel()

	waitRinging(t, rig, 42)
	require.True(t, rig.player.isPlaying())

	events, err := rig.store.ListWakeEvents(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, events)
}

func TestChallengeCompletionRecordsWakeEventOnce(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t, &fakeMessenger{})
	ctx := context.Background()

	rig.orc.Fire(ctx, objectAlarm(42))
	waitRinging(t, rig, 42)

	active, err := rig.orc.BeginChallenge(ctx, 42)
	require.NoError(t, err)

	object, ok := active.(*challenge.Object)
	require.True(t, ok)

	detections := []challenge.Detection{{Label: "toothbrush", Confidence: 0.9}}
	require.True(t, object.HandleDetections(detections))

	require.Eventually(t, func() bool {
		id, _ := rig.orc.Status()

		return id == 0
	}, 2*time.Second, 5*time.Millisecond)

	// A late duplicate of the qualifying frame must change nothing.
	require.False(t, object.HandleDetections(detections))

	events, err := rig.store.ListWakeEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, int64(42), events[0].AlarmID)
	require.Equal(t, "Wake up", events[0].Label)
	require.Equal(t, alarm.ChallengeObject, events[0].Challenge)

	require.Equal(t, []int64{42}, rig.publisher.published())
	require.False(t, rig.player.isPlaying())
}

func TestBeginChallengeCancelsPendingFallback(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t, &fakeMessenger{reachable: true, worn: wire.WornStateWorn})
	ctx := context.Background()

	rig.orc.Fire(ctx, objectAlarm(42))

	require.Eventually(t, func() bool {
		_, playback := rig.orc.Status()

		return playback == PlaybackPaused
	}, 2*time.Second, 5*time.Millisecond)

	_, err := rig.orc.BeginChallenge(ctx, 42)
	require.NoError(t, err)

	// Past the grace period: the cancelled fallback must not start audio
	// under the active challenge.
	time.Sleep(250 * time.Millisecond)
	require.False(t, rig.player.isPlaying())

	_, playback := rig.orc.Status()
	require.Equal(t, PlaybackChallenge, playback)
}

func TestPlaybackFallsBackToDefaultSound(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t, &fakeMessenger{})
	rig.player.failSound = "classic"

	rig.orc.Fire(context.Background(), objectAlarm(42))
	waitRinging(t, rig, 42)

	require.True(t, rig.player.isPlaying())

	rig.player.mu.Lock()
	defer rig.player.mu.Unlock()
	require.Equal(t, []string{"classic", ""}, rig.player.sounds)
}

func TestShutdownResumesActiveChallenge(t *testing.T) {
	t.Parallel()

	rig := newTestRig(t, &fakeMessenger{})
	ctx := context.Background()

	rig.orc.Fire(ctx, objectAlarm(42))
	waitRinging(t, rig, 42)

	_, err := rig.orc.BeginChallenge(ctx, 42)
	require.NoError(t, err)
	require.False(t, rig.player.isPlaying())

	rig.orc.Shutdown(ctx)

	rig.player.mu.Lock()
	defer rig.player.mu.Unlock()
	require.Equal(t, 1, rig.player.resumes)
	require.Equal(t, 1, rig.player.stops)
	require.False(t, rig.player.playing)
}
