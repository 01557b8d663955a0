package alarm

import "time"

// daysPerWeek is used when rolling a same-day candidate whose time has passed.
const daysPerWeek = 7

// NextTrigger computes the next absolute instant at which the definition
// should fire, strictly relative to now. The second return value is false
// only for a malformed definition (nil or an out-of-range time of day).
//
// One-shot alarms fire today if the time of day is still ahead, otherwise
// tomorrow. Repeating alarms fire at the earliest configured weekday; a
// same-day candidate whose time has already passed rolls a full week.
// Instants are built from (date, time-of-day) in now's zone, so calendar
// and DST boundaries are handled by the zone database rather than by
// elapsed-seconds arithmetic.
func NextTrigger(d *Definition, now time.Time) (time.Time, bool) {
	if d == nil || !d.Time.Valid() {
		return time.Time{}, false
	}

	if d.IsOneShot() {
		today := occurrence(now, 0, d.Time)
		if today.After(now) {
			return today, true
		}

		return occurrence(now, 1, d.Time), true
	}

	var best time.Time

	for _, day := range d.RepeatDays {
		offset := (int(day) - int(now.Weekday()) + daysPerWeek) % daysPerWeek

		candidate := occurrence(now, offset, d.Time)
		if offset == 0 && !candidate.After(now) {
			candidate = occurrence(now, daysPerWeek, d.Time)
		}

		if best.IsZero() || candidate.Before(best) {
			best = candidate
		}
	}

	return best, true
}

// occurrence returns the instant at tod on ref's date shifted by dayOffset
// days, in ref's zone. A time of day that falls into a spring-forward gap is
// resolved to the first valid instant at or after it.
func occurrence(ref time.Time, dayOffset int, tod TimeOfDay) time.Time {
	year, month, day := ref.Date()
	t := time.Date(year, month, day+dayOffset, tod.Hour, tod.Minute, 0, 0, ref.Location())

	// time.Date normalizes instants inside a DST gap past the requested wall
	// clock (e.g. 02:30 becomes 03:30). Walk back to the transition instant,
	// which is the first valid wall clock at or after the requested one.
	if clockMinutes(t) != tod.Minutes() {
		for {
			prev := t.Add(-time.Minute)
			if clockMinutes(prev) < tod.Minutes() {
				break
			}

			t = prev
		}
	}

	return t
}

// clockMinutes returns t's wall clock as minutes since midnight.
func clockMinutes(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}
