package challenge

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/alarm-clock/internal/domain/alarm"
)

// solve answers the current problem correctly by regenerating the expected answer.
func solve(t *testing.T, c *Math) MathResult {
	t.Helper()

	c.mu.Lock()
	answer := c.problems[c.index].answer
	c.mu.Unlock()

	return c.Submit(answer)
}

// TestMathWrongAnswerRetainsPosition verifies a mismatch keeps the current problem.
func TestMathWrongAnswerRetainsPosition(t *testing.T) {
	t.Parallel()

	rec := &completionRecorder{}
	c := NewMath(alarm.ChallengeSpec{Kind: alarm.ChallengeMath, Difficulty: 2}, rec.callbacks(), testRand())

	before, pos := c.Problem()
	require.Equal(t, 1, pos)

	result := c.Submit(-12345)
	require.False(t, result.Correct)
	require.False(t, result.Done)

	after, pos := c.Problem()
	require.Equal(t, 1, pos)
	require.Equal(t, before, after)
	require.Empty(t, rec.completed)
}

// TestMathCompletesAfterLastProblem verifies completion fires exactly once
// after the final correct answer.
func TestMathCompletesAfterLastProblem(t *testing.T) {
	t.Parallel()

	rec := &completionRecorder{}
	c := NewMath(alarm.ChallengeSpec{Kind: alarm.ChallengeMath, Difficulty: 1}, rec.callbacks(), testRand())

	for i := 0; i < problemCount-1; i++ {
		result := solve(t, c)
		require.True(t, result.Correct)
		require.False(t, result.Done)
		require.Empty(t, rec.completed)
	}

	result := solve(t, c)
	require.True(t, result.Done)
	require.Equal(t, []alarm.ChallengeKind{alarm.ChallengeMath}, rec.completed)

	// A duplicate submission after completion must not re-fire.
	again := c.Submit(0)
	require.True(t, again.Done)
	require.Len(t, rec.completed, 1)
}
