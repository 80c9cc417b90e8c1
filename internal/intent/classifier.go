// Package intent decides whether an utterance asks to create an event, to
// list the agenda, or neither.
package intent

import (
	"regexp"
	"strings"
	"time"

	"agendacal/internal/model"
	"agendacal/internal/spanish"
	"agendacal/internal/timeexpr"
)

// ListPhrases are the phrases that mark a request to view the agenda.
var ListPhrases = []string{
	"qué tareas tengo", "que tareas tengo",
	"qué debo hacer", "que debo hacer",
	"mi agenda", "ver agenda",
	"qué hay", "que hay",
	"listar", "lista",
}

// CreateVerbs are the scheduling verbs that mark a creation request.
var CreateVerbs = []string{
	"agenda", "agendar",
	"programa", "programar",
	"crea", "crear",
	"pon", "poner",
	"haz", "hacer",
	"calendariza", "calendarizar",
}

var (
	// "agenda hoy", "agenda de mañana": the noun followed by a day word.
	agendaDayPattern = regexp.MustCompile(`^agenda\s+(?:(?:de|para|del\s+d[ií]a\s+de)\s+)?(?:hoy|ma[ñn]ana)` + spanish.WordEnd)

	timeLikePattern = regexp.MustCompile(spanish.WordStart +
		`(?:\d{1,2}[:.]\d{2}|\d{1,2}\s*[ap]\.?\s?m\.?|[ap]\.?m\.?|\d{1,2}/\d{1,2})` +
		`(?:[^\p{L}\p{N}]|$)`)
)

// Classification is the outcome of classifying one utterance. Date is set
// only for model.IntentListDate.
type Classification struct {
	Intent model.Intent `json:"intent"`
	Date   time.Time    `json:"date,omitzero"`
	// Rule names the rule that produced the result, empty for Unknown.
	Rule string `json:"rule,omitempty"`
}

// Rule is one entry of the ordered decision list. Match receives the folded,
// trimmed text.
type Rule struct {
	Name  string
	Match func(text string, ref time.Time) (Classification, bool)
}

// DefaultRules returns the decision list in priority order. Keyword rules
// come before the structural one: an explicit verb or list phrase is a
// stronger signal than a time-like token.
func DefaultRules(r *timeexpr.Resolver) []Rule {
	return []Rule{
		{Name: "list", Match: listRule(r)},
		{Name: "create-keyword", Match: createKeywordRule},
		{Name: "create-pattern", Match: createPatternRule},
	}
}

// Classifier evaluates rules top to bottom; the first match wins.
type Classifier struct {
	rules []Rule
}

// New creates a Classifier over rules.
func New(rules []Rule) *Classifier {
	return &Classifier{rules: rules}
}

// NewDefault creates a Classifier with DefaultRules.
func NewDefault(r *timeexpr.Resolver) *Classifier {
	return New(DefaultRules(r))
}

// Rules returns the rule names in evaluation order.
func (c *Classifier) Rules() []string {
	names := make([]string, len(c.rules))
	for i, rule := range c.rules {
		names[i] = rule.Name
	}
	return names
}

// Classify is total: text no rule recognizes yields model.IntentUnknown.
func (c *Classifier) Classify(text string, ref time.Time) Classification {
	t := strings.TrimSpace(spanish.Fold(text))
	for _, rule := range c.rules {
		if out, ok := rule.Match(t, ref); ok {
			out.Rule = rule.Name
			return out
		}
	}
	return Classification{Intent: model.IntentUnknown}
}

func listRule(r *timeexpr.Resolver) func(string, time.Time) (Classification, bool) {
	return func(t string, ref time.Time) (Classification, bool) {
		if !containsAny(t, ListPhrases) && !agendaDayPattern.MatchString(t) {
			return Classification{}, false
		}
		days := spanish.MorningPeriod.ReplaceAllString(t, " ")
		switch {
		case spanish.HasWord(days, "hoy"):
			return Classification{Intent: model.IntentListToday}, true
		case spanish.HasWord(days, "mañana"), spanish.HasWord(days, "manana"):
			return Classification{Intent: model.IntentListTomorrow}, true
		case spanish.HasWordPrefix(days, "semana"):
			return Classification{Intent: model.IntentListWeek}, true
		}
		if date, err := r.Resolve(t, ref); err == nil {
			return Classification{Intent: model.IntentListDate, Date: date}, true
		}
		return Classification{Intent: model.IntentListToday}, true
	}
}

func createKeywordRule(t string, _ time.Time) (Classification, bool) {
	if containsAny(t, CreateVerbs) {
		return Classification{Intent: model.IntentCreateEvent}, true
	}
	return Classification{}, false
}

func createPatternRule(t string, _ time.Time) (Classification, bool) {
	if timeLikePattern.MatchString(t) {
		return Classification{Intent: model.IntentCreateEvent}, true
	}
	return Classification{}, false
}

// containsAny matches phrases starting at a word boundary, so "pon" matches
// "ponme" but not "responder".
func containsAny(t string, phrases []string) bool {
	for _, p := range phrases {
		if spanish.HasWordPrefix(t, p) {
			return true
		}
	}
	return false
}
