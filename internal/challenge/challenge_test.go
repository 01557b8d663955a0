package challenge

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/alarm-clock/internal/domain/alarm"
)

// testRand returns a deterministic source for reproducible challenges.
func testRand() *rand.Rand {
	return rand.New(rand.NewSource(1)) //nolint:gosec // Deterministic tests.
}

// completionRecorder counts terminal callbacks for assertions.
type completionRecorder struct {
	completed []alarm.ChallengeKind
	cancelled int
	failed    int
}

func (r *completionRecorder) callbacks() Callbacks {
	return Callbacks{
		OnComplete: func(kind alarm.ChallengeKind) { r.completed = append(r.completed, kind) },
		OnCancel:   func() { r.cancelled++ },
		OnFail:     func() { r.failed++ },
	}
}

// TestNewDispatch verifies the variant tag to behavior mapping.
func TestNewDispatch(t *testing.T) {
	t.Parallel()

	kinds := []alarm.ChallengeKind{
		alarm.ChallengeMath,
		alarm.ChallengeMemory,
		alarm.ChallengeScan,
		alarm.ChallengeObject,
		alarm.ChallengeFocus,
	}

	for _, kind := range kinds {
		c, err := New(alarm.ChallengeSpec{Kind: kind}, Callbacks{})
		require.NoError(t, err)
		require.Equal(t, kind, c.Kind())
	}

	_, err := New(alarm.ChallengeSpec{Kind: "juggling"}, Callbacks{})
	require.ErrorIs(t, err, ErrUnknownKind)
}

// TestCancelReportsEachTime verifies cancellation may be delivered repeatedly.
func TestCancelReportsEachTime(t *testing.T) {
	t.Parallel()

	rec := &completionRecorder{}
	c := NewMath(alarm.ChallengeSpec{Kind: alarm.ChallengeMath}, rec.callbacks(), testRand())

	c.Cancel()
	c.Cancel()
	require.Equal(t, 2, rec.cancelled)
	require.Empty(t, rec.completed)
}
