package alarm

import (
	"fmt"
	"time"
)

// ChallengeKind identifies a dismissal challenge variant.
type ChallengeKind string

// Supported dismissal challenge variants.
const (
	ChallengeMath   ChallengeKind = "math"
	ChallengeMemory ChallengeKind = "memory"
	ChallengeScan   ChallengeKind = "scan"
	ChallengeObject ChallengeKind = "object"
	ChallengeFocus  ChallengeKind = "focus"
)

// ChallengeSpec carries the chosen dismissal challenge variant together with
// its variant-specific parameters. Only the fields relevant to Kind are used.
type ChallengeSpec struct {
	// Kind selects the challenge variant.
	Kind ChallengeKind
	// Difficulty scales the operand ranges of the math challenge.
	Difficulty int
	// TargetLength is the sequence length that completes the memory challenge.
	TargetLength int
	// ExpectedCode is the exact payload required by the scan challenge in specific-code mode.
	ExpectedCode string
	// UniqueCodeGoal is the number of distinct codes required by the scan
	// challenge in unique-count mode. Zero means specific-code mode.
	UniqueCodeGoal int
	// TargetLabel is the detection label that completes the object challenge.
	TargetLabel string
	// MinConfidence is the minimum detection confidence for the object challenge.
	MinConfidence float64
	// Duration is the countdown length of the focus challenge.
	Duration time.Duration
}

// Definition describes a configured alarm. It is owned by the persistence
// layer; the engine reads it and only ever writes back the active flag.
type Definition struct {
	// ID is the stable unique identifier of the alarm.
	ID int64
	// Time is the wall-clock time of day at which the alarm fires.
	Time TimeOfDay
	// RepeatDays lists the weekdays the alarm repeats on.
	// An empty set means a one-shot alarm consumed after firing once.
	RepeatDays []time.Weekday
	// IsActive indicates whether the alarm should be scheduled.
	IsActive bool
	// Sound references the alert sound to play.
	Sound string
	// Label is the user-visible alarm name, snapshotted into wake events.
	Label string
	// Challenge is the dismissal challenge the user must complete.
	Challenge ChallengeSpec
}

// Clone returns a deep copy of the definition to avoid leaking internal references.
func (d *Definition) Clone() *Definition {
	if d == nil {
		return nil
	}

	cloned := *d
	cloned.RepeatDays = append([]time.Weekday(nil), d.RepeatDays...)

	return &cloned
}

// IsOneShot reports whether the alarm fires once and is then consumed.
func (d *Definition) IsOneShot() bool {
	return len(d.RepeatDays) == 0
}

// RepeatsOn reports whether the alarm repeats on the given weekday.
func (d *Definition) RepeatsOn(day time.Weekday) bool {
	for _, wd := range d.RepeatDays {
		if wd == day {
			return true
		}
	}

	return false
}

// TimeOfDay is a wall-clock time without a date or zone.
type TimeOfDay struct {
	// Hour in 0-23.
	Hour int
	// Minute in 0-59.
	Minute int
}

// Valid reports whether the time of day is within the clock range.
func (t TimeOfDay) Valid() bool {
	return t.Hour >= 0 && t.Hour < 24 && t.Minute >= 0 && t.Minute < 60
}

// Minutes returns the time of day as minutes since midnight.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// String renders the time of day as HH:MM.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// WakeEvent is an immutable history record of one successful dismissal.
// It is appended exactly once per completed session and never on cancellation.
type WakeEvent struct {
	// AlarmID is the alarm that was dismissed.
	AlarmID int64
	// Label is the alarm label snapshot at dismissal time.
	Label string
	// Challenge is the variant that was actually completed.
	Challenge ChallengeKind
	// CompletedAt is the dismissal instant.
	CompletedAt time.Time
}
