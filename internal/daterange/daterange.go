// Package daterange maps a list intent to the half-open interval the
// calendar is queried with.
package daterange

import (
	"errors"
	"fmt"
	"time"

	"agendacal/internal/model"
)

var (
	// ErrNotListIntent is returned for intents that do not list the agenda.
	ErrNotListIntent = errors.New("daterange: intent is not a list intent")
	// ErrMissingDate is returned for model.IntentListDate without a date.
	ErrMissingDate = errors.New("daterange: list_date requires a date")
)

// WeekDays is the length of the "week" listing, starting today.
const WeekDays = 7

// For returns the range for kind. All boundaries are local midnights in loc,
// computed with calendar-day arithmetic so days with a DST change keep their
// true length. date is only read for model.IntentListDate.
func For(kind model.Intent, ref, date time.Time, loc *time.Location) (model.TimeRange, error) {
	if loc == nil {
		loc = time.Local
	}
	today := Midnight(ref, loc)

	switch kind {
	case model.IntentListToday:
		return days(today, 1), nil
	case model.IntentListTomorrow:
		return days(today.AddDate(0, 0, 1), 1), nil
	case model.IntentListWeek:
		return days(today, WeekDays), nil
	case model.IntentListDate:
		if date.IsZero() {
			return model.TimeRange{}, ErrMissingDate
		}
		return days(Midnight(date, loc), 1), nil
	}
	return model.TimeRange{}, fmt.Errorf("%w: %s", ErrNotListIntent, kind)
}

// Midnight returns 00:00 of t's calendar day in loc.
func Midnight(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func days(start time.Time, n int) model.TimeRange {
	return model.TimeRange{Start: start, End: start.AddDate(0, 0, n)}
}
