package ics

import (
	"bytes"
	"errors"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "agendacal/internal/log"
)

// entry is a VEVENT reduced to what a listing needs. Recurrences are kept
// unexpanded; see expand.go.
type entry struct {
	FeedID string
	UID    string

	Title       string
	Description string
	Location    string

	Start  time.Time
	End    time.Time
	AllDay bool

	RRule   string
	ExDates []time.Time
	// RecurrenceID is set on VEVENTs that override one instance of a series.
	RecurrenceID *time.Time
	Cancelled    bool
}

// parseFeed parses an ICS payload. Broken VEVENTs are logged and skipped.
func parseFeed(feedID string, body []byte) ([]entry, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errors.New("empty ICS body")
	}
	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		appLog.Error("ics parse failed", err, "id", feedID)
		return nil, err
	}
	entries := entriesOf(feedID, cal)
	appLog.Debug("ics parse completed", "id", feedID, "event_count", len(entries))
	return entries, nil
}

func entriesOf(feedID string, cal *ical.Calendar) []entry {
	out := make([]entry, 0, len(cal.Events()))
	for _, ve := range cal.Events() {
		e, err := parseEvent(feedID, ve)
		if err != nil {
			appLog.Error("ics vevent skipped", err, "id", feedID)
			continue
		}
		out = append(out, e)
	}
	return out
}

func parseEvent(feedID string, ve *ical.VEvent) (entry, error) {
	e := entry{FeedID: feedID}

	uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uid == nil || uid.Value == "" {
		return e, errors.New("missing UID")
	}
	e.UID = uid.Value
	e.Title = propValue(ve, ical.ComponentPropertySummary)
	e.Description = propValue(ve, ical.ComponentPropertyDescription)
	e.Location = propValue(ve, ical.ComponentPropertyLocation)
	e.Cancelled = strings.EqualFold(propValue(ve, ical.ComponentPropertyStatus), "CANCELLED")

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return e, errors.New("missing DTSTART")
	}
	e.AllDay = isDateValue(dtStart)

	var err error
	if e.AllDay {
		e.Start, err = ve.GetAllDayStartAt()
	} else {
		e.Start, err = ve.GetStartAt()
	}
	if err != nil {
		return e, err
	}

	if end, err := ve.GetEndAt(); err == nil && end.After(e.Start) {
		e.End = end
	} else if e.AllDay {
		e.End = e.Start.AddDate(0, 0, 1)
	} else {
		e.End = e.Start
	}

	e.RRule = propValue(ve, ical.ComponentPropertyRrule)

	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for part := range strings.SplitSeq(p.Value, ",") {
			if t, err := parseICSTime(part, p.ICalParameters, e.Start.Location()); err == nil {
				e.ExDates = append(e.ExDates, t)
			}
		}
	}

	if rid := ve.GetProperty(ical.ComponentPropertyRecurrenceId); rid != nil {
		if t, err := parseICSTime(rid.Value, rid.ICalParameters, e.Start.Location()); err == nil {
			e.RecurrenceID = &t
		}
	}

	return e, nil
}

func propValue(ve *ical.VEvent, p ical.ComponentProperty) string {
	if prop := ve.GetProperty(p); prop != nil {
		return prop.Value
	}
	return ""
}

// isDateValue reports VALUE=DATE or a bare YYYYMMDD value.
func isDateValue(p *ical.IANAProperty) bool {
	if vs := p.ICalParameters["VALUE"]; len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

// parseICSTime parses an EXDATE / RECURRENCE-ID value, honoring a TZID
// parameter and falling back to the series' own zone.
func parseICSTime(v string, params map[string][]string, fallback *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}

	loc := fallback
	if tz := params["TZID"]; len(tz) > 0 {
		if l, err := time.LoadLocation(tz[0]); err == nil {
			loc = l
		}
	}

	switch {
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, loc)
	default:
		return time.ParseInLocation("20060102", v, loc)
	}
}
