package challenge

import (
	"math/rand"
	"sync"
	"time"

	"github.com/oshokin/alarm-clock/internal/domain/alarm"
)

const (
	// memoryGridCells is the number of tappable cells on the memory board.
	memoryGridCells = 9

	// defaultMemoryTarget is the winning sequence length when the spec does
	// not configure one.
	defaultMemoryTarget = 5

	// HighlightDuration is how long the surface highlights each cell while
	// playing the sequence back.
	HighlightDuration = 600 * time.Millisecond

	// HighlightPause is the gap between two highlighted cells during playback.
	HighlightPause = 200 * time.Millisecond
)

// Memory is the Simon-style dismissal challenge: the engine grows a random
// cell sequence, the surface plays it back, and the user must reproduce it by
// tapping cells in order. A wrong tap resets the input position but keeps the
// sequence, which is then replayed unchanged.
type Memory struct {
	reporter

	mu       sync.Mutex
	rng      *rand.Rand
	sequence []int
	target   int
	pos      int
}

// MemoryInput describes the outcome of one tapped cell.
type MemoryInput struct {
	// Correct reports whether the tap matched the expected cell.
	Correct bool
	// RoundComplete reports whether the whole sequence was just reproduced.
	RoundComplete bool
	// Done reports whether the target length was reached and the challenge completed.
	Done bool
}

// NewMemory returns a memory challenge with an empty sequence; call Extend to
// start the first round.
func NewMemory(spec alarm.ChallengeSpec, cb Callbacks, rng *rand.Rand) *Memory {
	target := spec.TargetLength
	if target <= 0 {
		target = defaultMemoryTarget
	}

	return &Memory{
		reporter: reporter{kind: alarm.ChallengeMemory, cb: cb},
		rng:      rng,
		sequence: make([]int, 0, target),
		target:   target,
	}
}

// Extend appends one random cell and returns a copy of the grown sequence for
// playback. The input position is reset for the new round.
func (c *Memory) Extend() []int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sequence = append(c.sequence, c.rng.Intn(memoryGridCells))
	c.pos = 0

	return append([]int(nil), c.sequence...)
}

// Sequence returns a copy of the current sequence, for replaying after a
// wrong tap.
func (c *Memory) Sequence() []int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]int(nil), c.sequence...)
}

// Target returns the sequence length that completes the challenge.
func (c *Memory) Target() int {
	return c.target
}

// Input processes one tapped cell. A wrong tap resets the input position to
// zero and keeps the sequence unchanged so the surface replays it.
func (c *Memory) Input(cell int) MemoryInput {
	c.mu.Lock()

	if c.pos >= len(c.sequence) {
		// Round already reproduced; surface should have called Extend.
		c.mu.Unlock()
		return MemoryInput{}
	}

	if cell != c.sequence[c.pos] {
		c.pos = 0
		c.mu.Unlock()

		return MemoryInput{}
	}

	c.pos++
	roundComplete := c.pos == len(c.sequence)
	done := roundComplete && len(c.sequence) >= c.target
	c.mu.Unlock()

	if done {
		c.complete()
	}

	return MemoryInput{Correct: true, RoundComplete: roundComplete, Done: done}
}

// Cancel abandons the challenge.
func (c *Memory) Cancel() {
	c.cancelled()
}
