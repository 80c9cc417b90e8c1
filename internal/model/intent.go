package model

import "time"

// Intent is the classified purpose of an utterance.
type Intent int

const (
	IntentUnknown Intent = iota
	IntentCreateEvent
	IntentListToday
	IntentListTomorrow
	IntentListWeek
	IntentListDate
)

// String returns the string representation of Intent.
func (i Intent) String() string {
	switch i {
	case IntentCreateEvent:
		return "create"
	case IntentListToday:
		return "list_today"
	case IntentListTomorrow:
		return "list_tomorrow"
	case IntentListWeek:
		return "list_week"
	case IntentListDate:
		return "list_date"
	default:
		return "unknown"
	}
}

// IsList reports whether the intent asks to view the schedule.
func (i Intent) IsList() bool {
	switch i {
	case IntentListToday, IntentListTomorrow, IntentListWeek, IntentListDate:
		return true
	}
	return false
}

// MarshalText lets intents appear as strings in JSON payloads.
func (i Intent) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// TimeRange is the half-open interval [Start, End).
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t lies inside the range. End is excluded.
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// Overlaps reports whether [start, end) intersects the range. Events that
// end exactly when the range starts, or start exactly when it ends, do not
// overlap it.
func (r TimeRange) Overlaps(start, end time.Time) bool {
	if !end.After(start) {
		// Zero-length events count when their instant is inside the range.
		return r.Contains(start)
	}
	return start.Before(r.End) && end.After(r.Start)
}
