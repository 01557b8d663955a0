package orchestrator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/alarm-clock/internal/domain/alarm"
	"github.com/oshokin/alarm-clock/internal/repository/store"
)

// fakeInstaller records trigger installs and cancellations.
type fakeInstaller struct {
	mu        sync.Mutex
	scheduled []int64
	cancelled []int64
}

func (f *fakeInstaller) Schedule(_ context.Context, def *alarm.Definition) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.scheduled = append(f.scheduled, def.ID)

	return nil
}

func (f *fakeInstaller) Cancel(alarmID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.cancelled = append(f.cancelled, alarmID)
}

// fakeStarter records the definitions handed to the session layer.
type fakeStarter struct {
	mu   sync.Mutex
	defs []*alarm.Definition
}

func (f *fakeStarter) Fire(_ context.Context, def *alarm.Definition) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.defs = append(f.defs, def)
}

func (f *fakeStarter) fired() []*alarm.Definition {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]*alarm.Definition(nil), f.defs...)
}

// memCache is an in-memory RecentFires.
type memCache struct {
	mu   sync.Mutex
	defs map[int64]*alarm.Definition
}

func newMemCache() *memCache {
	return &memCache{defs: make(map[int64]*alarm.Definition)}
}

func (c *memCache) Remember(_ context.Context, def *alarm.Definition) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.defs[def.ID] = def.Clone()

	return nil
}

func (c *memCache) Recall(_ context.Context, alarmID int64) (*alarm.Definition, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if def, ok := c.defs[alarmID]; ok {
		return def.Clone(), nil
	}

	return nil, store.ErrNotFound
}

// dispatcherRig bundles the dispatcher with its fakes.
type dispatcherRig struct {
	dispatcher *Dispatcher
	store      *store.SQLStore
	cache      *memCache
	installer  *fakeInstaller
	starter    *fakeStarter
}

func newDispatcherRig(t *testing.T) *dispatcherRig {
	t.Helper()

	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	rig := &dispatcherRig{
		store:     st,
		cache:     newMemCache(),
		installer: &fakeInstaller{},
		starter:   &fakeStarter{},
	}
	rig.dispatcher = NewDispatcher(st, rig.cache, rig.installer, rig.starter)

	return rig
}

func TestHandleFireRearmsRepeatingAlarm(t *testing.T) {
	t.Parallel()

	rig := newDispatcherRig(t)
	ctx := context.Background()

	def := &alarm.Definition{
		ID:         42,
		Time:       alarm.TimeOfDay{Hour: 9},
		RepeatDays: []time.Weekday{time.Monday},
		IsActive:   true,
		Label:      "Work",
	}
	require.NoError(t, rig.store.SaveAlarm(ctx, def))

	rig.dispatcher.HandleFire(ctx, 42)
	rig.dispatcher.Wait()

	fired := rig.starter.fired()
	require.Len(t, fired, 1)
	require.Equal(t, int64(42), fired[0].ID)

	rig.installer.mu.Lock()
	defer rig.installer.mu.Unlock()
	require.Equal(t, []int64{42}, rig.installer.scheduled)
	require.Empty(t, rig.installer.cancelled)

	// The fired definition landed in the recent-fire cache.
	cached, err := rig.cache.Recall(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, "Work", cached.Label)
}

func TestHandleFireDeactivatesStandingOneShot(t *testing.T) {
	t.Parallel()

	rig := newDispatcherRig(t)
	ctx := context.Background()

	def := &alarm.Definition{
		ID:       7,
		Time:     alarm.TimeOfDay{Hour: 6, Minute: 30},
		IsActive: true,
	}
	require.NoError(t, rig.store.SaveAlarm(ctx, def))

	rig.dispatcher.HandleFire(ctx, 7)

	require.Len(t, rig.starter.fired(), 1)

	stored, err := rig.store.GetAlarm(ctx, 7)
	require.NoError(t, err)
	require.False(t, stored.IsActive)

	rig.installer.mu.Lock()
	defer rig.installer.mu.Unlock()
	require.Equal(t, []int64{7}, rig.installer.cancelled)
	require.Empty(t, rig.installer.scheduled)
}

func TestHandleFireConsumesOneShot(t *testing.T) {
	t.Parallel()

	rig := newDispatcherRig(t)
	ctx := context.Background()

	def := &alarm.Definition{
		ID:    9,
		Time:  alarm.TimeOfDay{Hour: 14},
		Label: "Nap",
	}
	require.NoError(t, rig.store.SaveOneShot(ctx, def))

	rig.dispatcher.HandleFire(ctx, 9)

	fired := rig.starter.fired()
	require.Len(t, fired, 1)
	require.Equal(t, "Nap", fired[0].Label)

	// Consumed on resolution: a second lookup misses the store but the
	// recent-fire cache still resolves it.
	_, err := rig.store.ConsumeOneShot(ctx, 9)
	require.ErrorIs(t, err, store.ErrNotFound)

	rig.dispatcher.HandleFire(ctx, 9)
	require.Len(t, rig.starter.fired(), 2)
}

func TestHandleFireResolutionMiss(t *testing.T) {
	t.Parallel()

	rig := newDispatcherRig(t)
	ctx := context.Background()

	rig.dispatcher.HandleFire(ctx, 404)

	require.Empty(t, rig.starter.fired())

	rig.installer.mu.Lock()
	defer rig.installer.mu.Unlock()
	require.Equal(t, []int64{404}, rig.installer.cancelled)
}

func TestHandleFireWithoutCache(t *testing.T) {
	t.Parallel()

	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	installer := &fakeInstaller{}
	starter := &fakeStarter{}
	d := NewDispatcher(st, nil, installer, starter)

	d.HandleFire(context.Background(), 1)

	require.Empty(t, starter.fired())
}
