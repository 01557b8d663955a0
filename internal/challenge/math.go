package challenge

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/oshokin/alarm-clock/internal/domain/alarm"
)

// problemCount is the fixed number of problems per math challenge.
const problemCount = 3

// mathProblem is a single arithmetic question with its expected answer.
type mathProblem struct {
	text   string
	answer int
}

// Math is the arithmetic dismissal challenge: a fixed-size sequence of
// problems answered one by one. A wrong answer keeps the position; the
// challenge completes after the last problem is answered correctly.
type Math struct {
	reporter

	mu       sync.Mutex
	problems []mathProblem
	index    int
}

// MathResult describes the outcome of one submitted answer.
type MathResult struct {
	// Correct reports whether the submitted answer matched.
	Correct bool
	// Done reports whether the last problem was just solved.
	Done bool
}

// NewMath generates the problem set for the given difficulty and returns the
// ready-to-present challenge.
func NewMath(spec alarm.ChallengeSpec, cb Callbacks, rng *rand.Rand) *Math {
	c := &Math{
		reporter: reporter{kind: alarm.ChallengeMath, cb: cb},
		problems: make([]mathProblem, 0, problemCount),
	}

	for i := 0; i < problemCount; i++ {
		c.problems = append(c.problems, generateProblem(spec.Difficulty, rng))
	}

	return c
}

// Problem returns the current question and the 1-based progress position.
func (c *Math) Problem() (string, int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.index >= len(c.problems) {
		return "", len(c.problems)
	}

	return c.problems[c.index].text, c.index + 1
}

// Submit checks the answer for the current problem. A correct answer advances
// to the next problem; a wrong one keeps the position so the user retries.
func (c *Math) Submit(answer int) MathResult {
	c.mu.Lock()

	if c.index >= len(c.problems) {
		c.mu.Unlock()
		return MathResult{Correct: true, Done: true}
	}

	if answer != c.problems[c.index].answer {
		c.mu.Unlock()
		return MathResult{}
	}

	c.index++
	done := c.index == len(c.problems)
	c.mu.Unlock()

	if done {
		c.complete()
	}

	return MathResult{Correct: true, Done: done}
}

// Cancel abandons the challenge.
func (c *Math) Cancel() {
	c.cancelled()
}

// generateProblem builds one arithmetic question. Operand ranges grow with
// difficulty; difficulty values outside 1..3 are clamped.
func generateProblem(difficulty int, rng *rand.Rand) mathProblem {
	if difficulty < 1 {
		difficulty = 1
	}

	if difficulty > 3 {
		difficulty = 3
	}

	var a, b int

	switch difficulty {
	case 1:
		a, b = 1+rng.Intn(9), 1+rng.Intn(9)
	case 2:
		a, b = 10+rng.Intn(90), 1+rng.Intn(20)
	default:
		a, b = 10+rng.Intn(90), 10+rng.Intn(90)
	}

	// Multiplication only on the hardest level, addition otherwise.
	if difficulty == 3 && rng.Intn(2) == 0 {
		return mathProblem{
			text:   fmt.Sprintf("%d × %d", a, b),
			answer: a * b,
		}
	}

	return mathProblem{
		text:   fmt.Sprintf("%d + %d", a, b),
		answer: a + b,
	}
}
