package wire

import (
	"time"

	"github.com/oshokin/alarm-clock/internal/domain/alarm"
)

// WornState reports whether the companion is currently on the wrist.
type WornState string

// Possible worn-state probe answers.
const (
	WornStateWorn    WornState = "worn"
	WornStateNotWorn WornState = "not_worn"
	WornStateUnknown WornState = "unknown"
)

// SessionCommand names an operation on the currently ringing session.
type SessionCommand string

// Commands accepted by the engine's session command channel.
const (
	CommandStop         SessionCommand = "stop"
	CommandPause        SessionCommand = "pause"
	CommandResume       SessionCommand = "resume"
	CommandCompanionAck SessionCommand = "companion_ack"
)

// PingRequest probes companion connectivity.
type PingRequest struct{}

// PingResponse acknowledges a connectivity probe.
type PingResponse struct {
	Reachable bool `json:"reachable"`
}

// WornStateRequest probes whether the companion is being worn.
type WornStateRequest struct{}

// WornStateResponse carries the worn-state probe answer.
type WornStateResponse struct {
	State WornState `json:"state"`
}

// NotifyStartRequest tells the companion to alert the wearer for an alarm.
type NotifyStartRequest struct {
	AlarmID int64  `json:"alarm_id"`
	Label   string `json:"label"`
}

// NotifyStartResponse acknowledges the wrist alert was started.
type NotifyStartResponse struct{}

// CommandRequest applies a session command to the alarm with the given id.
type CommandRequest struct {
	AlarmID int64          `json:"alarm_id"`
	Command SessionCommand `json:"command"`
}

// CommandResponse reports whether the command matched the current session.
type CommandResponse struct {
	Applied bool `json:"applied"`
}

// FireRequest manually delivers a fire signal, mainly for testing setups.
type FireRequest struct {
	AlarmID int64 `json:"alarm_id"`
}

// FireResponse acknowledges a manual fire signal.
type FireResponse struct{}

// ChallengePayload mirrors alarm.ChallengeSpec on the wire.
type ChallengePayload struct {
	Kind           string  `json:"kind"`
	Difficulty     int     `json:"difficulty,omitempty"`
	TargetLength   int     `json:"target_length,omitempty"`
	ExpectedCode   string  `json:"expected_code,omitempty"`
	UniqueCodeGoal int     `json:"unique_code_goal,omitempty"`
	TargetLabel    string  `json:"target_label,omitempty"`
	MinConfidence  float64 `json:"min_confidence,omitempty"`
	DurationSec    int64   `json:"duration_sec,omitempty"`
}

// AlarmPayload mirrors alarm.Definition on the wire.
type AlarmPayload struct {
	ID         int64            `json:"id"`
	Hour       int              `json:"hour"`
	Minute     int              `json:"minute"`
	RepeatDays []int            `json:"repeat_days,omitempty"`
	IsActive   bool             `json:"is_active"`
	Sound      string           `json:"sound,omitempty"`
	Label      string           `json:"label,omitempty"`
	Challenge  ChallengePayload `json:"challenge"`
}

// SaveAlarmRequest inserts or replaces an alarm definition.
type SaveAlarmRequest struct {
	Alarm AlarmPayload `json:"alarm"`
	// OneShot stores the definition in the one-shot table instead of the
	// standing one.
	OneShot bool `json:"one_shot,omitempty"`
}

// SaveAlarmResponse acknowledges a save.
type SaveAlarmResponse struct{}

// SetActiveRequest flips the active flag of a standing alarm.
type SetActiveRequest struct {
	AlarmID int64 `json:"alarm_id"`
	Active  bool  `json:"active"`
}

// SetActiveResponse acknowledges the flag change.
type SetActiveResponse struct{}

// ListAlarmsRequest lists every standing alarm.
type ListAlarmsRequest struct{}

// ListAlarmsResponse carries the standing alarms.
type ListAlarmsResponse struct {
	Alarms []AlarmPayload `json:"alarms"`
}

// StatusRequest queries the engine's session state.
type StatusRequest struct{}

// StatusResponse describes the currently ringing session, if any.
type StatusResponse struct {
	// SessionAlarmID is zero when no session is live.
	SessionAlarmID int64  `json:"session_alarm_id"`
	Playback       string `json:"playback"`
}

// HistoryRequest queries recent wake events.
type HistoryRequest struct {
	Limit int `json:"limit,omitempty"`
}

// WakeEventPayload mirrors alarm.WakeEvent on the wire.
type WakeEventPayload struct {
	AlarmID     int64     `json:"alarm_id"`
	Label       string    `json:"label,omitempty"`
	Challenge   string    `json:"challenge"`
	CompletedAt time.Time `json:"completed_at"`
}

// HistoryResponse carries recent wake events, newest first.
type HistoryResponse struct {
	Events []WakeEventPayload `json:"events"`
}

// ToAlarmPayload converts a domain definition to its wire shape.
func ToAlarmPayload(def *alarm.Definition) AlarmPayload {
	if def == nil {
		return AlarmPayload{}
	}

	days := make([]int, 0, len(def.RepeatDays))
	for _, d := range def.RepeatDays {
		days = append(days, int(d))
	}

	return AlarmPayload{
		ID:         def.ID,
		Hour:       def.Time.Hour,
		Minute:     def.Time.Minute,
		RepeatDays: days,
		IsActive:   def.IsActive,
		Sound:      def.Sound,
		Label:      def.Label,
		Challenge: ChallengePayload{
			Kind:           string(def.Challenge.Kind),
			Difficulty:     def.Challenge.Difficulty,
			TargetLength:   def.Challenge.TargetLength,
			ExpectedCode:   def.Challenge.ExpectedCode,
			UniqueCodeGoal: def.Challenge.UniqueCodeGoal,
			TargetLabel:    def.Challenge.TargetLabel,
			MinConfidence:  def.Challenge.MinConfidence,
			DurationSec:    int64(def.Challenge.Duration / time.Second),
		},
	}
}

// ToDefinition converts a wire alarm back to the domain type.
func ToDefinition(p AlarmPayload) *alarm.Definition {
	days := make([]time.Weekday, 0, len(p.RepeatDays))
	for _, d := range p.RepeatDays {
		days = append(days, time.Weekday(d))
	}

	if len(days) == 0 {
		days = nil
	}

	return &alarm.Definition{
		ID:         p.ID,
		Time:       alarm.TimeOfDay{Hour: p.Hour, Minute: p.Minute},
		RepeatDays: days,
		IsActive:   p.IsActive,
		Sound:      p.Sound,
		Label:      p.Label,
		Challenge: alarm.ChallengeSpec{
			Kind:           alarm.ChallengeKind(p.Challenge.Kind),
			Difficulty:     p.Challenge.Difficulty,
			TargetLength:   p.Challenge.TargetLength,
			ExpectedCode:   p.Challenge.ExpectedCode,
			UniqueCodeGoal: p.Challenge.UniqueCodeGoal,
			TargetLabel:    p.Challenge.TargetLabel,
			MinConfidence:  p.Challenge.MinConfidence,
			Duration:       time.Duration(p.Challenge.DurationSec) * time.Second,
		},
	}
}

// ToWakeEventPayload converts a domain wake event to its wire shape.
func ToWakeEventPayload(event *alarm.WakeEvent) WakeEventPayload {
	if event == nil {
		return WakeEventPayload{}
	}

	return WakeEventPayload{
		AlarmID:     event.AlarmID,
		Label:       event.Label,
		Challenge:   string(event.Challenge),
		CompletedAt: event.CompletedAt,
	}
}
