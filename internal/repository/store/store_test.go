package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/alarm-clock/internal/domain/alarm"
)

// openTestStore returns an in-memory store closed with the test.
func openTestStore(t *testing.T) *SQLStore {
	t.Helper()

	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s
}

// TestSaveAndGetAlarm verifies a full round trip including repeat days and
// challenge parameters.
func TestSaveAndGetAlarm(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()

	def := &alarm.Definition{
		ID:         42,
		Time:       alarm.TimeOfDay{Hour: 9},
		RepeatDays: []time.Weekday{time.Monday, time.Friday},
		IsActive:   true,
		Sound:      "chimes",
		Label:      "Work",
		Challenge: alarm.ChallengeSpec{
			Kind:           alarm.ChallengeScan,
			ExpectedCode:   "bathroom-mirror",
			UniqueCodeGoal: 0,
		},
	}

	require.NoError(t, s.SaveAlarm(ctx, def))

	got, err := s.GetAlarm(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, def, got)
}

// TestGetAlarmNotFound verifies the sentinel error for unknown ids.
func TestGetAlarmNotFound(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)

	_, err := s.GetAlarm(context.Background(), 999)
	require.ErrorIs(t, err, ErrNotFound)
}

// TestConsumeOneShot verifies the read-and-delete contract: the second
// consume of the same id misses.
func TestConsumeOneShot(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()

	def := &alarm.Definition{
		ID:        7,
		Time:      alarm.TimeOfDay{Hour: 14, Minute: 30},
		Label:     "Nap",
		Challenge: alarm.ChallengeSpec{Kind: alarm.ChallengeMath, Difficulty: 1},
	}
	require.NoError(t, s.SaveOneShot(ctx, def))

	got, err := s.ConsumeOneShot(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, def.Label, got.Label)
	require.Equal(t, def.Time, got.Time)
	require.True(t, got.IsOneShot())

	_, err = s.ConsumeOneShot(ctx, 7)
	require.ErrorIs(t, err, ErrNotFound)
}

// TestSetActive verifies flag updates and the not-found path.
func TestSetActive(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()

	def := &alarm.Definition{ID: 1, Time: alarm.TimeOfDay{Hour: 6}, IsActive: true}
	require.NoError(t, s.SaveAlarm(ctx, def))

	require.NoError(t, s.SetActive(ctx, 1, false))

	got, err := s.GetAlarm(ctx, 1)
	require.NoError(t, err)
	require.False(t, got.IsActive)

	require.ErrorIs(t, s.SetActive(ctx, 2, true), ErrNotFound)
}

// TestListAlarms verifies ordering by id.
func TestListAlarms(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()

	for _, id := range []int64{3, 1, 2} {
		require.NoError(t, s.SaveAlarm(ctx, &alarm.Definition{ID: id, Time: alarm.TimeOfDay{Hour: 8}}))
	}

	defs, err := s.ListAlarms(ctx)
	require.NoError(t, err)
	require.Len(t, defs, 3)
	require.Equal(t, int64(1), defs[0].ID)
	require.Equal(t, int64(3), defs[2].ID)
}

// TestWakeEvents verifies append and newest-first listing.
func TestWakeEvents(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()

	require.Error(t, s.AppendWakeEvent(ctx, nil))

	first := &alarm.WakeEvent{
		AlarmID:     42,
		Label:       "Work",
		Challenge:   alarm.ChallengeMemory,
		CompletedAt: time.Date(2024, time.April, 1, 9, 3, 0, 0, time.UTC),
	}
	second := &alarm.WakeEvent{
		AlarmID:     42,
		Label:       "Work",
		Challenge:   alarm.ChallengeMath,
		CompletedAt: time.Date(2024, time.April, 2, 9, 1, 0, 0, time.UTC),
	}

	require.NoError(t, s.AppendWakeEvent(ctx, first))
	require.NoError(t, s.AppendWakeEvent(ctx, second))

	events, err := s.ListWakeEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, alarm.ChallengeMath, events[0].Challenge)
	require.Equal(t, alarm.ChallengeMemory, events[1].Challenge)
}

// TestChangeListener verifies the listener fires on every alarm mutation.
func TestChangeListener(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()

	changes := 0
	s.SetChangeListener(func() { changes++ })

	require.NoError(t, s.SaveAlarm(ctx, &alarm.Definition{ID: 1, Time: alarm.TimeOfDay{Hour: 8}}))
	require.NoError(t, s.SetActive(ctx, 1, true))
	require.NoError(t, s.SaveOneShot(ctx, &alarm.Definition{ID: 2, Time: alarm.TimeOfDay{Hour: 9}}))

	require.Equal(t, 3, changes)
}
