package ics

import (
	"errors"
	"time"

	"github.com/teambition/rrule-go"

	appLog "agendacal/internal/log"
	"agendacal/internal/model"
)

// maxOccurrencesPerEvent caps runaway RRULEs.
const maxOccurrencesPerEvent = 5000

type seriesKey struct {
	feed, uid string
}

// expand turns entries into the occurrences overlapping r, expressed in loc
// and sorted by start. RRULE, EXDATE and RECURRENCE-ID overrides are
// applied; cancelled instances are dropped.
func expand(entries []entry, r model.TimeRange, loc *time.Location) []model.Occurrence {
	if loc == nil {
		loc = time.Local
	}

	bases := make([]entry, 0, len(entries))
	overrides := make(map[seriesKey][]entry)
	for _, e := range entries {
		if e.RecurrenceID != nil {
			k := seriesKey{e.FeedID, e.UID}
			overrides[k] = append(overrides[k], e)
			continue
		}
		bases = append(bases, e)
	}

	out := make([]model.Occurrence, 0)
	for _, e := range bases {
		switch {
		case e.Cancelled:
		case e.RRule == "":
			out = appendIfOverlaps(out, e, e.Start, e.End, r, loc)
		default:
			out = append(out, expandSeries(e, overrides[seriesKey{e.FeedID, e.UID}], r, loc)...)
		}
	}

	// Overrides are listed on their own, wherever they were moved to.
	for _, ov := range overrides {
		for _, e := range ov {
			if !e.Cancelled {
				out = appendIfOverlaps(out, e, e.Start, e.End, r, loc)
			}
		}
	}

	model.SortOccurrences(out)
	return out
}

func expandSeries(e entry, overrides []entry, r model.TimeRange, loc *time.Location) []model.Occurrence {
	rule, err := rrule.StrToRRule(e.RRule)
	if err != nil {
		appLog.Error("ics rrule parse failed", err, "uid", e.UID, "rrule", e.RRule)
		return nil
	}
	rule.DTStart(e.Start)

	var set rrule.Set
	set.RRule(rule)
	for _, ex := range e.ExDates {
		set.ExDate(ex.In(e.Start.Location()))
	}

	// Instances that started before the range may still run into it.
	dur := e.End.Sub(e.Start)
	from := r.Start.Add(-dur).In(e.Start.Location())
	to := r.End.In(e.Start.Location())
	starts := set.Between(from, to, true)
	if len(starts) > maxOccurrencesPerEvent {
		appLog.Error("ics occurrences truncated", errors.New("max occurrences reached"),
			"uid", e.UID, "cap", maxOccurrencesPerEvent)
		starts = starts[:maxOccurrencesPerEvent]
	}

	out := make([]model.Occurrence, 0, len(starts))
	for _, start := range starts {
		if overridden(overrides, start) {
			continue
		}
		end := start.Add(dur)
		if e.AllDay {
			// Calendar days, not 24h blocks, across DST changes.
			end = start.AddDate(0, 0, daysBetween(e.Start, e.End))
		}
		out = appendIfOverlaps(out, e, start, end, r, loc)
	}
	return out
}

func overridden(overrides []entry, start time.Time) bool {
	for _, ov := range overrides {
		if ov.RecurrenceID.Equal(start) {
			return true
		}
	}
	return false
}

func appendIfOverlaps(out []model.Occurrence, e entry, start, end time.Time, r model.TimeRange, loc *time.Location) []model.Occurrence {
	if e.AllDay {
		// All-day dates are floating: the same calendar day in every zone.
		days := daysBetween(start, end)
		start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)
		end = start.AddDate(0, 0, days)
	}
	if !r.Overlaps(start, end) {
		return out
	}
	return append(out, model.Occurrence{
		SourceID:    e.FeedID,
		UID:         e.UID,
		Title:       e.Title,
		Description: e.Description,
		Location:    e.Location,
		AllDay:      e.AllDay,
		Start:       start.In(loc),
		End:         end.In(loc),
	})
}

func daysBetween(start, end time.Time) int {
	a := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	days := int(b.Sub(a).Hours() / 24)
	if days < 1 {
		days = 1
	}
	return days
}
