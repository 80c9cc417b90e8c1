// Package timeexpr resolves Spanish date/time expressions found anywhere in
// a sentence into an absolute, zoned instant.
package timeexpr

import (
	"errors"
	"regexp"
	"strconv"
	"time"

	"agendacal/internal/spanish"
)

// ErrUnparseable means the text carries no usable date or time. It is an
// expected outcome, not a failure of the resolver.
var ErrUnparseable = errors.New("timeexpr: no date or time found")

const (
	ampm    = `a\.?\s?m\.?|p\.?\s?m\.?`
	hourNum = `\d{1,2}|una|uno|dos|tres|cuatro|cinco|seis|siete|ocho|nueve|diez|once|doce`
)

// Patterns for date/time search. All of them run on folded text.
var (
	numericDatePattern = regexp.MustCompile(`(?:^|[^\d/])(\d{1,2})/(\d{1,2})(?:/(\d{4}|\d{2}))?(?:[^\d/]|$)`)
	monthDatePattern   = regexp.MustCompile(spanish.WordStart + `(\d{1,2})\s+de\s+(` + spanish.Alternation(spanish.Months) + `)(?:\s+(?:de|del)\s+(\d{4}))?` + spanish.WordEnd)

	offsetPattern = spanish.WordRegexp(`(?:dentro\s+de|en)\s+(\d{1,3})\s+(minutos?|horas?|d[ií]as?|semanas?)`)

	dayAfterPattern  = spanish.WordRegexp(`pasado\s+ma[ñn]ana`)
	tomorrowPattern  = spanish.WordRegexp(`ma[ñn]ana`)
	todayPattern     = spanish.WordRegexp(`hoy`)
	dayBeforePattern = spanish.WordRegexp(`anteayer|antier`)
	yesterdayPattern = spanish.WordRegexp(`ayer`)

	weekdayPattern  = spanish.WordRegexp(`(?:(pr[óo]ximo|siguiente)\s+)?(` + spanish.Alternation(spanish.Weekdays) + `)(\s+(?:que\s+viene|pr[óo]ximo))?`)
	nextWeekPattern = spanish.WordRegexp(`(?:la\s+)?(?:pr[óo]xima|siguiente)\s+semana|semana\s+que\s+viene`)
	thisWeekPattern = spanish.WordRegexp(`esta\s+semana`)

	clockPattern    = regexp.MustCompile(`(?:^|[^\d])(\d{1,2})[:.](\d{2})(?:\s*(` + ampm + `))?(?:[^\d]|$)`)
	ampmPattern     = regexp.MustCompile(`(?:^|[^\d])(\d{1,2})\s*(` + ampm + `)(?:[^\p{L}]|$)`)
	atHourPattern   = spanish.WordRegexp(`a\s+las?\s+(` + hourNum + `)(?:\s+y\s+(media|cuarto|\d{1,2}))?(?:\s+(?:en\s+punto|horas|hrs))?`)
	noonPattern     = spanish.WordRegexp(`mediod[ií]a|medio\s+d[ií]a`)
	midnightPattern = spanish.WordRegexp(`medianoche`)

	pmPeriodPattern = spanish.WordRegexp(`(?:de|por|en)\s+la\s+(?:tarde|noche)`)
	amPeriodPattern = spanish.WordRegexp(`(?:de|por|en)\s+la\s+(?:ma[ñn]ana|madrugada)`)

	// A number followed by a unit is an amount ("2.30 horas", "1/2 hora"),
	// unless it is introduced as a clock time ("a las 15.30 horas").
	unitPattern = regexp.MustCompile(`^\s*(?:horas?|hrs?|min)`)
	clockLeadIn = regexp.MustCompile(`(?:^|\s)las?\s+$`)
)

type dateKind int

const (
	dateNone dateKind = iota
	// dateRelative is a day offset from the reference day ("mañana").
	dateRelative
	// dateWeekday is the next occurrence of a weekday.
	dateWeekday
	// dateNoYear is a day and month whose year is inferred.
	dateNoYear
	// dateAbsolute is a complete calendar date.
	dateAbsolute
)

type dateMatch struct {
	kind dateKind

	offsetDays int
	weekday    time.Weekday
	forceNext  bool

	year  int
	month time.Month
	day   int
}

type clockMatch struct {
	hour, minute int
}

// Resolver turns expressions into instants in a fixed time zone.
type Resolver struct {
	loc *time.Location
}

// New creates a Resolver for loc. A nil location means time.Local.
func New(loc *time.Location) *Resolver {
	if loc == nil {
		loc = time.Local
	}
	return &Resolver{loc: loc}
}

// Location returns the zone every result is expressed in.
func (r *Resolver) Location() *time.Location {
	return r.loc
}

// Resolve finds the first date and clock expression in text and combines
// them against ref. Under-specified expressions prefer the next future
// occurrence: a clock time that already passed today rolls to tomorrow, a
// bare weekday to the next such day (today's weekday to next week), a
// day/month without year to next year.
func (r *Resolver) Resolve(text string, ref time.Time) (time.Time, error) {
	t := spanish.Fold(text)
	ref = ref.In(r.loc)

	if d, ok := findOffset(t); ok {
		return ref.Add(d).Truncate(time.Minute), nil
	}

	date, dateErr := findDate(t)
	clock, hasClock, clockErr := findClock(t)
	if dateErr != nil || clockErr != nil {
		return time.Time{}, ErrUnparseable
	}
	if date.kind == dateNone && !hasClock {
		return time.Time{}, ErrUnparseable
	}

	refDay := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, r.loc)

	at := func(day time.Time) time.Time {
		if hasClock {
			return time.Date(day.Year(), day.Month(), day.Day(), clock.hour, clock.minute, 0, 0, r.loc)
		}
		return day
	}

	switch date.kind {
	case dateNone:
		out := at(refDay)
		if out.Before(ref) {
			out = at(refDay.AddDate(0, 0, 1))
		}
		return out, nil

	case dateRelative:
		day := refDay.AddDate(0, 0, date.offsetDays)
		if hasClock {
			return at(day), nil
		}
		// Relative days without a clock keep the reference wall-clock time.
		return time.Date(day.Year(), day.Month(), day.Day(), ref.Hour(), ref.Minute(), 0, 0, r.loc), nil

	case dateWeekday:
		ahead := (int(date.weekday) - int(ref.Weekday()) + 7) % 7
		// Today's weekday without a clock time means the one next week.
		if ahead == 0 && (date.forceNext || !hasClock) {
			ahead = 7
		}
		out := at(refDay.AddDate(0, 0, ahead))
		if ahead == 0 && hasClock && out.Before(ref) {
			out = at(refDay.AddDate(0, 0, 7))
		}
		return out, nil

	case dateNoYear:
		for _, year := range []int{ref.Year(), ref.Year() + 1} {
			day, ok := validDate(year, date.month, date.day, r.loc)
			if !ok {
				continue
			}
			out := at(day)
			if (hasClock && out.Before(ref)) || day.Before(refDay) {
				continue
			}
			return out, nil
		}
		// 29/02 with no leap year in reach.
		return time.Time{}, ErrUnparseable

	case dateAbsolute:
		day, ok := validDate(date.year, date.month, date.day, r.loc)
		if !ok {
			return time.Time{}, ErrUnparseable
		}
		return at(day), nil
	}

	return time.Time{}, ErrUnparseable
}

func validDate(year int, month time.Month, day int, loc *time.Location) (time.Time, bool) {
	t := time.Date(year, month, day, 0, 0, 0, 0, loc)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

// findOffset handles "dentro de 2 horas" style expressions below one day.
func findOffset(t string) (time.Duration, bool) {
	m := offsetPattern.FindStringSubmatch(t)
	if m == nil {
		return 0, false
	}
	n, _ := strconv.Atoi(m[1])
	switch m[2][0] {
	case 'm':
		return time.Duration(n) * time.Minute, true
	case 'h':
		return time.Duration(n) * time.Hour, true
	}
	return 0, false
}

func findDate(t string) (dateMatch, error) {
	for _, m := range numericDatePattern.FindAllStringSubmatchIndex(t, -1) {
		end := m[5]
		if m[6] >= 0 {
			end = m[7]
		}
		if unitPattern.MatchString(t[end:]) {
			continue
		}
		day, _ := strconv.Atoi(t[m[2]:m[3]])
		month, _ := strconv.Atoi(t[m[4]:m[5]])
		if month < 1 || month > 12 || day < 1 || day > 31 {
			return dateMatch{}, ErrUnparseable
		}
		out := dateMatch{kind: dateNoYear, month: time.Month(month), day: day}
		if m[6] >= 0 {
			yearText := t[m[6]:m[7]]
			year, _ := strconv.Atoi(yearText)
			if len(yearText) == 2 {
				year += 2000
			}
			out.kind = dateAbsolute
			out.year = year
		}
		return out, nil
	}

	if m := monthDatePattern.FindStringSubmatch(t); m != nil {
		day, _ := strconv.Atoi(m[1])
		out := dateMatch{kind: dateNoYear, month: spanish.Months[m[2]], day: day}
		if m[3] != "" {
			out.kind = dateAbsolute
			out.year, _ = strconv.Atoi(m[3])
		}
		return out, nil
	}

	if m := offsetPattern.FindStringSubmatch(t); m != nil {
		n, _ := strconv.Atoi(m[1])
		if m[2][0] == 's' {
			n *= 7
		}
		return dateMatch{kind: dateRelative, offsetDays: n}, nil
	}

	dayWords := spanish.MorningPeriod.ReplaceAllString(t, " ")
	switch {
	case dayAfterPattern.MatchString(dayWords):
		return dateMatch{kind: dateRelative, offsetDays: 2}, nil
	case tomorrowPattern.MatchString(dayWords):
		return dateMatch{kind: dateRelative, offsetDays: 1}, nil
	case todayPattern.MatchString(dayWords):
		return dateMatch{kind: dateRelative}, nil
	case dayBeforePattern.MatchString(dayWords):
		return dateMatch{kind: dateRelative, offsetDays: -2}, nil
	case yesterdayPattern.MatchString(dayWords):
		return dateMatch{kind: dateRelative, offsetDays: -1}, nil
	}

	if m := weekdayPattern.FindStringSubmatch(t); m != nil {
		return dateMatch{
			kind:      dateWeekday,
			weekday:   spanish.Weekdays[m[2]],
			forceNext: m[1] != "" || m[3] != "",
		}, nil
	}

	if nextWeekPattern.MatchString(t) {
		return dateMatch{kind: dateRelative, offsetDays: 7}, nil
	}
	if thisWeekPattern.MatchString(t) {
		return dateMatch{kind: dateRelative}, nil
	}

	return dateMatch{}, nil
}

func findClock(t string) (clockMatch, bool, error) {
	for _, m := range clockPattern.FindAllStringSubmatchIndex(t, -1) {
		if m[6] < 0 && unitPattern.MatchString(t[m[5]:]) && !clockLeadIn.MatchString(t[:m[2]]) {
			continue
		}
		h, _ := strconv.Atoi(t[m[2]:m[3]])
		mm, _ := strconv.Atoi(t[m[4]:m[5]])
		if m[6] >= 0 {
			if h < 1 || h > 12 {
				return clockMatch{}, false, ErrUnparseable
			}
			h = applyMeridiem(h, t[m[6]:m[7]])
		} else {
			h = applyPeriod(t, h)
		}
		return checkClock(h, mm)
	}

	if m := ampmPattern.FindStringSubmatch(t); m != nil {
		h, _ := strconv.Atoi(m[1])
		if h < 1 || h > 12 {
			return clockMatch{}, false, ErrUnparseable
		}
		return checkClock(applyMeridiem(h, m[2]), 0)
	}

	if m := atHourPattern.FindStringSubmatch(t); m != nil {
		h, ok := spanish.Numbers[m[1]]
		if !ok {
			h, _ = strconv.Atoi(m[1])
		}
		mm := 0
		switch m[2] {
		case "":
		case "media":
			mm = 30
		case "cuarto":
			mm = 15
		default:
			mm, _ = strconv.Atoi(m[2])
		}
		return checkClock(applyPeriod(t, h), mm)
	}

	if noonPattern.MatchString(t) {
		return clockMatch{hour: 12}, true, nil
	}
	if midnightPattern.MatchString(t) {
		return clockMatch{hour: 0}, true, nil
	}

	return clockMatch{}, false, nil
}

func checkClock(h, m int) (clockMatch, bool, error) {
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return clockMatch{}, false, ErrUnparseable
	}
	return clockMatch{hour: h, minute: m}, true, nil
}

func applyMeridiem(h int, marker string) int {
	pm := marker[0] == 'p'
	switch {
	case pm && h < 12:
		return h + 12
	case !pm && h == 12:
		return 0
	}
	return h
}

// applyPeriod adjusts a 12-hour clock value using "de la tarde" style
// period words. Without a period word the hour is taken literally.
func applyPeriod(t string, h int) int {
	if h > 12 {
		return h
	}
	switch {
	case pmPeriodPattern.MatchString(t):
		if h < 12 {
			return h + 12
		}
	case amPeriodPattern.MatchString(t):
		if h == 12 {
			return 0
		}
	}
	return h
}
