// Package slots pulls title, start, duration and location candidates out of
// a free-form sentence into a PendingEvent draft.
package slots

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"agendacal/internal/model"
	"agendacal/internal/spanish"
	"agendacal/internal/timeexpr"
)

// fallbackTitleRunes is the length of the label used when no connector word
// introduces a title.
const fallbackTitleRunes = 30

const amountStart = `(?:^|[^\p{L}\p{N}./])`

var (
	locationPattern = regexp.MustCompile(`(?i)` + spanish.WordStart + `en\s+([^.,\n]+)`)

	// "en 30 minutos", "en la tarde", "en punto" are time phrases, not places.
	notPlacePattern = regexp.MustCompile(`(?i)^(?:\d{1,3}\s+(?:minutos?|horas?|d[ií]as?|semanas?)|la\s+(?:ma[ñn]ana|tarde|noche|madrugada)|punto)` + spanish.WordEnd)

	// A location ends where the next slot phrase begins.
	locationStopPattern = regexp.MustCompile(`(?i)\s+(?:con|para|sobre|(?:por|durante)\s+(?:\d+|media|una)|a\s+las?)` + spanish.WordEnd)

	// Amounts never continue a decimal or a fraction ("2.30 horas", "1/2 hora").
	minutesPattern   = regexp.MustCompile(`(?i)` + amountStart + `(?:(dentro\s+de|en)\s+)?(\d{1,3})\s*min`)
	hoursHalfPattern = regexp.MustCompile(`(?i)` + amountStart + `(?:(dentro\s+de|en)\s+)?(\d{1,2})\s*horas?\s+y\s+media`)
	hoursPattern     = regexp.MustCompile(`(?i)` + amountStart + `(?:(dentro\s+de|en)\s+)?(\d{1,2})\s*hora`)
	halfHourPattern  = regexp.MustCompile(`(?i)` + spanish.WordStart + `(?:media|1/2)\s+hora` + spanish.WordEnd)

	connectorPattern = regexp.MustCompile(`(?i)` + spanish.WordStart + `(?:con|para|sobre)\s+`)

	// Trailing phrases cut from a connector title: places, clock and date
	// phrases, durations.
	titleStopPattern = regexp.MustCompile(`(?i)\s+(?:` +
		`en|a\s+las?|(?:por|durante)\s+(?:\d+|media|una)|\d{1,3}\s*(?:min|hora)\w*|` +
		`hoy|(?:pasado\s+)?ma[ñn]ana|(?:el\s+)?(?:pr[óo]ximo\s+)?(?:` + spanish.Alternation(spanish.Weekdays) + `)|` +
		`(?:el\s+)?\d{1,2}/\d{1,2}(?:/\d{2,4})?|\d{1,2}(?:[:.]\d{2})?\s*[ap]\.?\s?m\.?` +
		`)` + spanish.WordEnd)
)

// Extractor builds drafts from sentences. It is safe for concurrent use.
type Extractor struct {
	resolver *timeexpr.Resolver
}

// New creates an Extractor that resolves start times with r.
func New(r *timeexpr.Resolver) *Extractor {
	return &Extractor{resolver: r}
}

// Extract never fails: slots it cannot find stay unset. The same text and
// reference instant always produce field-equal drafts.
func (e *Extractor) Extract(text string, ref time.Time) model.PendingEvent {
	text = spanish.Compose(text)

	ev := model.PendingEvent{
		Location:        Location(text),
		DurationMinutes: Duration(text),
		Title:           Title(text),
	}
	if start, err := e.resolver.Resolve(text, ref); err == nil {
		ev.Start = start
	}
	return ev
}

// Location returns the words after the first "en" that names a place, up to
// a clause boundary or the next slot phrase.
func Location(text string) string {
	for offset := 0; offset < len(text); {
		m := locationPattern.FindStringSubmatchIndex(text[offset:])
		if m == nil {
			break
		}
		candidate := text[offset+m[2] : offset+m[3]]
		// The next search starts inside this candidate so that a place
		// following a skipped time phrase is still found.
		offset += m[2]
		if notPlacePattern.MatchString(candidate) {
			continue
		}
		if loc := locationStopPattern.FindStringIndex(candidate); loc != nil {
			candidate = candidate[:loc[0]]
		}
		candidate = trimPhrase(candidate)
		if candidate != "" {
			return candidate
		}
	}
	return ""
}

// Duration returns the duration in minutes, or 0 when none is given. A
// minutes phrase wins over an hours phrase. "en 30 minutos" is a start
// offset and is ignored here.
func Duration(text string) int {
	if n := firstAmount(minutesPattern, text); n > 0 {
		return n
	}
	if n := firstAmount(hoursHalfPattern, text); n > 0 {
		return n*60 + 30
	}
	if n := firstAmount(hoursPattern, text); n > 0 {
		return n * 60
	}
	if halfHourPattern.MatchString(text) {
		return 30
	}
	return 0
}

func firstAmount(re *regexp.Regexp, text string) int {
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		if m[1] != "" {
			continue
		}
		if n, err := strconv.Atoi(m[2]); err == nil && n > 0 {
			return n
		}
	}
	return 0
}

// Title returns the text after the first connector word ("con", "para",
// "sobre") with trailing slot phrases cut. Without a usable connector it
// falls back to the first 30 runes of the trimmed text.
func Title(text string) string {
	for _, loc := range connectorPattern.FindAllStringIndex(text, -1) {
		// Keep the separator so a stop phrase right after the connector
		// ("para mañana") is cut as well.
		rest := " " + text[loc[1]:]
		if stop := titleStopPattern.FindStringIndex(rest); stop != nil {
			rest = rest[:stop[0]]
		}
		if title := trimPhrase(rest); title != "" {
			return title
		}
	}
	return truncateRunes(strings.TrimSpace(text), fallbackTitleRunes)
}

func trimPhrase(s string) string {
	return strings.TrimRight(strings.TrimSpace(s), " \t.,;:!?¿¡")
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
