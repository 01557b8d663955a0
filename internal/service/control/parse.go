package control

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/oshokin/alarm-clock/internal/api/grpc/wire"
	"github.com/oshokin/alarm-clock/internal/domain/alarm"
)

// Errors surfaced while parsing operator input.
var (
	ErrInvalidTime    = errors.New("time must be HH:MM")
	ErrInvalidWeekday = errors.New("unknown weekday")
	ErrInvalidCommand = errors.New("command must be stop, pause, resume or companion_ack")
)

// weekdayNames maps the accepted three-letter abbreviations.
var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

// parseTimeOfDay parses "HH:MM" into a validated time of day.
func parseTimeOfDay(value string) (alarm.TimeOfDay, error) {
	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 {
		return alarm.TimeOfDay{}, fmt.Errorf("%w: got %q", ErrInvalidTime, value)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return alarm.TimeOfDay{}, fmt.Errorf("%w: got %q", ErrInvalidTime, value)
	}

	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return alarm.TimeOfDay{}, fmt.Errorf("%w: got %q", ErrInvalidTime, value)
	}

	tod := alarm.TimeOfDay{Hour: hour, Minute: minute}
	if !tod.Valid() {
		return alarm.TimeOfDay{}, fmt.Errorf("%w: got %q", ErrInvalidTime, value)
	}

	return tod, nil
}

// parseWeekdays parses a comma-separated weekday list like "mon,wed,fri".
// Full names are accepted too; an empty value means a one-shot alarm.
func parseWeekdays(value string) ([]time.Weekday, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}

	var days []time.Weekday

	seen := make(map[time.Weekday]struct{})

	for _, raw := range strings.Split(value, ",") {
		name := strings.ToLower(strings.TrimSpace(raw))
		if len(name) > 3 {
			name = name[:3]
		}

		day, ok := weekdayNames[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidWeekday, raw)
		}

		if _, dup := seen[day]; dup {
			continue
		}

		seen[day] = struct{}{}
		days = append(days, day)
	}

	return days, nil
}

// parseSessionCommand validates an operator-supplied session command.
func parseSessionCommand(value string) (wire.SessionCommand, error) {
	switch cmd := wire.SessionCommand(strings.ToLower(value)); cmd {
	case wire.CommandStop, wire.CommandPause, wire.CommandResume, wire.CommandCompanionAck:
		return cmd, nil
	default:
		return "", fmt.Errorf("%w: got %q", ErrInvalidCommand, value)
	}
}

// formatDays renders the wire repeat-day list for humans.
func formatDays(days []int) string {
	if len(days) == 0 {
		return "one-shot"
	}

	names := make([]string, 0, len(days))
	for _, day := range days {
		names = append(names, strings.ToLower(time.Weekday(day).String()[:3]))
	}

	return strings.Join(names, ",")
}
