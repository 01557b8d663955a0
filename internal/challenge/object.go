package challenge

import (
	"strings"
	"sync"

	"github.com/oshokin/alarm-clock/internal/domain/alarm"
)

// defaultMinConfidence is used when the spec does not set a threshold.
const defaultMinConfidence = 0.6

// Detection is one (label, confidence) pair produced by the external
// detection collaborator for a camera frame.
type Detection struct {
	// Label is the detected object class.
	Label string
	// Confidence is the detector's score in [0, 1].
	Confidence float64
}

// Object is the camera-object dismissal challenge: it completes the first
// time any detection matches the configured target label at or above the
// confidence threshold. Qualifying frames arriving after completion are
// ignored, so the challenge never double-fires.
type Object struct {
	reporter

	mu     sync.Mutex
	label  string
	minC   float64
	solved bool
}

// NewObject returns an object challenge for the spec.
func NewObject(spec alarm.ChallengeSpec, cb Callbacks) *Object {
	minC := spec.MinConfidence
	if minC <= 0 {
		minC = defaultMinConfidence
	}

	return &Object{
		reporter: reporter{kind: alarm.ChallengeObject, cb: cb},
		label:    spec.TargetLabel,
		minC:     minC,
	}
}

// HandleDetections processes one frame's detections and reports whether the
// challenge completed on this frame.
func (c *Object) HandleDetections(detections []Detection) bool {
	c.mu.Lock()

	if c.solved {
		c.mu.Unlock()
		return false
	}

	matched := false

	for _, d := range detections {
		if strings.EqualFold(d.Label, c.label) && d.Confidence >= c.minC {
			matched = true
			break
		}
	}

	if !matched {
		c.mu.Unlock()
		return false
	}

	c.solved = true
	c.mu.Unlock()

	c.complete()

	return true
}

// Cancel abandons the challenge.
func (c *Object) Cancel() {
	c.cancelled()
}
