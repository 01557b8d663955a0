package challenge

import (
	"sync"

	"github.com/oshokin/alarm-clock/internal/domain/alarm"
)

// ScanVerdict classifies one decoded camera frame.
type ScanVerdict int

// Possible verdicts for a decoded value.
const (
	// ScanIgnored means a decode was already accepted for the current frame
	// and processing is suspended until Reset.
	ScanIgnored ScanVerdict = iota
	// ScanMismatch means the value does not match the expected code
	// (specific-code mode only); the challenge continues.
	ScanMismatch
	// ScanDuplicate means the value was already counted
	// (unique-count mode only); it is rejected, not counted.
	ScanDuplicate
	// ScanAccepted means the value was accepted; in specific-code mode the
	// challenge is complete, in unique-count mode progress advanced.
	ScanAccepted
)

// Scan is the QR/barcode dismissal challenge. In specific-code mode it
// completes only when a decoded value exactly matches the expected payload.
// In unique-count mode it completes once the configured number of distinct
// values has been seen. At most one decode per frame is accepted; once a
// decode is accepted, further frames are ignored until Reset.
type Scan struct {
	reporter

	mu       sync.Mutex
	expected string
	goal     int
	seen     map[string]struct{}
	accepted bool
}

// NewScan returns a scan challenge for the spec. A positive UniqueCodeGoal
// selects unique-count mode, otherwise specific-code mode is used.
func NewScan(spec alarm.ChallengeSpec, cb Callbacks) *Scan {
	return &Scan{
		reporter: reporter{kind: alarm.ChallengeScan, cb: cb},
		expected: spec.ExpectedCode,
		goal:     spec.UniqueCodeGoal,
		seen:     make(map[string]struct{}),
	}
}

// UniqueCount returns the number of distinct codes seen so far.
func (c *Scan) UniqueCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.seen)
}

// Reset re-arms frame processing after an accepted decode.
func (c *Scan) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.accepted = false
}

// HandleDecode processes one decoded value from the camera pipeline.
func (c *Scan) HandleDecode(value string) ScanVerdict {
	c.mu.Lock()

	if c.accepted {
		c.mu.Unlock()
		return ScanIgnored
	}

	if c.goal > 0 {
		return c.handleUnique(value)
	}

	return c.handleSpecific(value)
}

// handleSpecific completes only on an exact match of the expected payload.
// Called with the mutex held; releases it.
func (c *Scan) handleSpecific(value string) ScanVerdict {
	if value != c.expected {
		c.mu.Unlock()
		return ScanMismatch
	}

	c.accepted = true
	c.mu.Unlock()

	c.complete()

	return ScanAccepted
}

// handleUnique counts distinct values and completes at the configured goal.
// Called with the mutex held; releases it.
func (c *Scan) handleUnique(value string) ScanVerdict {
	if _, dup := c.seen[value]; dup {
		c.mu.Unlock()
		return ScanDuplicate
	}

	c.seen[value] = struct{}{}
	c.accepted = true
	done := len(c.seen) >= c.goal
	c.mu.Unlock()

	if done {
		c.complete()
	}

	return ScanAccepted
}

// Cancel abandons the challenge.
func (c *Scan) Cancel() {
	c.cancelled()
}
