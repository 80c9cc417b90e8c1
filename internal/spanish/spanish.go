// Package spanish holds the vocabulary and text helpers shared by the
// interpretation packages: normalization, whole-word matching and the
// calendar word tables.
package spanish

import (
	"regexp"
	"slices"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Fold returns s in NFC form and lower-cased with Spanish rules. Terminals
// on some platforms deliver decomposed "ñ" / "é", which would otherwise miss
// every keyword.
func Fold(s string) string {
	return cases.Lower(language.Spanish).String(norm.NFC.String(s))
}

// Compose returns s in NFC form without changing its case.
func Compose(s string) string {
	return norm.NFC.String(s)
}

// Word boundaries that understand accented letters; regexp's \b is ASCII-only
// and does not see the end of "qué" or "mañana".
const (
	WordStart = `(?:^|[^\p{L}\p{N}])`
	WordEnd   = `(?:[^\p{L}\p{N}]|$)`
)

// WordRegexp compiles pattern wrapped in word boundaries.
func WordRegexp(pattern string) *regexp.Regexp {
	return regexp.MustCompile(WordStart + `(?:` + pattern + `)` + WordEnd)
}

// HasWord reports whether phrase occurs in s as a whole word or phrase.
// Both arguments are expected to be folded.
func HasWord(s, phrase string) bool {
	return indexAt(s, phrase, true) >= 0
}

// HasWordPrefix reports whether phrase occurs in s starting at a word
// boundary ("pon" matches "ponme" but not "responder").
func HasWordPrefix(s, phrase string) bool {
	return indexAt(s, phrase, false) >= 0
}

func indexAt(s, phrase string, wholeWord bool) int {
	if phrase == "" {
		return -1
	}
	offset := 0
	for {
		i := strings.Index(s[offset:], phrase)
		if i < 0 {
			return -1
		}
		start := offset + i
		end := start + len(phrase)
		if boundaryBefore(s, start) && (!wholeWord || boundaryAfter(s, end)) {
			return start
		}
		offset = start + 1
	}
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !isWordRune(r)
}

func boundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// MorningPeriod matches "de la mañana" style phrases, which name a part of
// the day and not tomorrow.
var MorningPeriod = regexp.MustCompile(`(?:de|por|en)\s+la\s+ma[ñn]ana`)

// Weekdays maps weekday names (with and without accents) to time.Weekday.
var Weekdays = map[string]time.Weekday{
	"lunes":     time.Monday,
	"martes":    time.Tuesday,
	"miércoles": time.Wednesday,
	"miercoles": time.Wednesday,
	"jueves":    time.Thursday,
	"viernes":   time.Friday,
	"sábado":    time.Saturday,
	"sabado":    time.Saturday,
	"domingo":   time.Sunday,
}

// Months maps month names to time.Month. "setiembre" is common in Central
// America.
var Months = map[string]time.Month{
	"enero":      time.January,
	"febrero":    time.February,
	"marzo":      time.March,
	"abril":      time.April,
	"mayo":       time.May,
	"junio":      time.June,
	"julio":      time.July,
	"agosto":     time.August,
	"septiembre": time.September,
	"setiembre":  time.September,
	"octubre":    time.October,
	"noviembre":  time.November,
	"diciembre":  time.December,
}

// Numbers maps the spelled-out clock hours.
var Numbers = map[string]int{
	"una":    1,
	"uno":    1,
	"dos":    2,
	"tres":   3,
	"cuatro": 4,
	"cinco":  5,
	"seis":   6,
	"siete":  7,
	"ocho":   8,
	"nueve":  9,
	"diez":   10,
	"once":   11,
	"doce":   12,
}

// Alternation returns the keys of m joined with "|", longest first so that
// "miércoles" is preferred over shorter overlapping names.
func Alternation[V any](m map[string]V) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, regexp.QuoteMeta(k))
	}
	slices.SortFunc(keys, func(a, b string) int {
		if len(a) != len(b) {
			return len(b) - len(a)
		}
		return strings.Compare(a, b)
	})
	return strings.Join(keys, "|")
}
