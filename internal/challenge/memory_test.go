package challenge

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/alarm-clock/internal/domain/alarm"
)

// reproduce taps every cell of the current sequence in order.
func reproduce(t *testing.T, c *Memory) MemoryInput {
	t.Helper()

	var last MemoryInput
	for _, cell := range c.Sequence() {
		last = c.Input(cell)
		require.True(t, last.Correct)
	}

	return last
}

// TestMemoryWrongTapKeepsSequence verifies the documented scenario: with a
// five-cell sequence on the board, a wrong tap after four correct ones keeps
// the sequence unchanged, resets the input position and fires no completion.
func TestMemoryWrongTapKeepsSequence(t *testing.T) {
	t.Parallel()

	rec := &completionRecorder{}
	spec := alarm.ChallengeSpec{Kind: alarm.ChallengeMemory, TargetLength: 5}
	c := NewMemory(spec, rec.callbacks(), testRand())

	// Four full rounds grow the sequence to four cells.
	for round := 0; round < 4; round++ {
		c.Extend()
		reproduce(t, c)
	}

	// Fifth round: four correct taps, then a deliberately wrong fifth.
	sequence := c.Extend()
	require.Len(t, sequence, 5)

	for i := 0; i < 4; i++ {
		require.True(t, c.Input(sequence[i]).Correct)
	}

	wrong := (sequence[4] + 1) % memoryGridCells
	result := c.Input(wrong)
	require.False(t, result.Correct)
	require.False(t, result.Done)
	require.Empty(t, rec.completed)

	// Same sequence is replayed, input position starts over.
	require.Equal(t, sequence, c.Sequence())

	last := reproduce(t, c)
	require.True(t, last.Done)
	require.Equal(t, []alarm.ChallengeKind{alarm.ChallengeMemory}, rec.completed)
}

// TestMemoryCompletesAtTargetLength verifies rounds extend until the target
// and completion fires exactly once.
func TestMemoryCompletesAtTargetLength(t *testing.T) {
	t.Parallel()

	rec := &completionRecorder{}
	spec := alarm.ChallengeSpec{Kind: alarm.ChallengeMemory, TargetLength: 3}
	c := NewMemory(spec, rec.callbacks(), testRand())

	for round := 1; round <= 3; round++ {
		sequence := c.Extend()
		require.Len(t, sequence, round)

		last := reproduce(t, c)
		require.True(t, last.RoundComplete)
		require.Equal(t, round == 3, last.Done)
	}

	require.Len(t, rec.completed, 1)
}
