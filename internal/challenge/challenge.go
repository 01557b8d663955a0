package challenge

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/oshokin/alarm-clock/internal/domain/alarm"
)

// Callbacks receive the terminal outcomes of a challenge.
type Callbacks struct {
	// OnComplete is invoked exactly once when the challenge is solved.
	// It receives the variant that was actually completed.
	OnComplete func(kind alarm.ChallengeKind)
	// OnCancel is invoked when the user abandons the challenge.
	// It may be invoked multiple times; receivers must tolerate that.
	OnCancel func()
	// OnFail is invoked by the focus variant when a confirmation window is
	// missed. It is terminal but intentionally neither a completion nor a
	// cancellation.
	OnFail func()
}

// Challenge is the uniform contract shared by all dismissal variants.
type Challenge interface {
	// Kind returns the variant identifier.
	Kind() alarm.ChallengeKind
	// Cancel abandons the challenge and reports cancellation.
	Cancel()
}

// ErrUnknownKind is returned by New for an unrecognized challenge variant.
var ErrUnknownKind = errors.New("unknown challenge kind")

// New builds the challenge state machine for the given spec. This is the
// single dispatch point from variant tag to behavior.
func New(spec alarm.ChallengeSpec, cb Callbacks) (Challenge, error) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // Not used for security.

	switch spec.Kind {
	case alarm.ChallengeMath:
		return NewMath(spec, cb, rng), nil
	case alarm.ChallengeMemory:
		return NewMemory(spec, cb, rng), nil
	case alarm.ChallengeScan:
		return NewScan(spec, cb), nil
	case alarm.ChallengeObject:
		return NewObject(spec, cb), nil
	case alarm.ChallengeFocus:
		return NewFocus(spec, cb, rng), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, spec.Kind)
	}
}

// reporter guards the one-shot completion signal shared by all variants.
type reporter struct {
	kind alarm.ChallengeKind
	cb   Callbacks

	completeOnce sync.Once
}

// Kind returns the variant identifier.
func (r *reporter) Kind() alarm.ChallengeKind {
	return r.kind
}

// complete reports completion. Repeated calls are no-ops.
func (r *reporter) complete() {
	r.completeOnce.Do(func() {
		if r.cb.OnComplete != nil {
			r.cb.OnComplete(r.kind)
		}
	})
}

// cancelled reports cancellation. Receivers tolerate repeated delivery.
func (r *reporter) cancelled() {
	if r.cb.OnCancel != nil {
		r.cb.OnCancel()
	}
}

// failed reports the focus variant's terminal confirmation failure.
func (r *reporter) failed() {
	if r.cb.OnFail != nil {
		r.cb.OnFail()
	}
}
