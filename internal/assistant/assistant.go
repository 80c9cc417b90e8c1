// Package assistant interprets one utterance end to end: intent, draft and
// list range. The console, the HTTP API and the parse command share it.
package assistant

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"agendacal/internal/config"
	"agendacal/internal/daterange"
	"agendacal/internal/intent"
	appLog "agendacal/internal/log"
	"agendacal/internal/model"
	"agendacal/internal/slots"
	"agendacal/internal/spanish"
	"agendacal/internal/timeexpr"
)

// ErrUnknownWhen is returned by Range for an agenda selector it cannot read.
var ErrUnknownWhen = errors.New("assistant: unknown agenda range")

// Interpretation is the result of Interpret. Draft is set for creation
// requests and Range for list requests.
type Interpretation struct {
	Text           string                `json:"text"`
	Intent         model.Intent          `json:"intent"`
	Classification intent.Classification `json:"classification"`
	// Retried is true when an unrecognized utterance carried a start time
	// and is handled as a creation request.
	Retried bool                `json:"retried,omitempty"`
	Draft   *model.PendingEvent `json:"draft,omitempty"`
	Range   *model.TimeRange    `json:"range,omitempty"`
}

// Interpreter is safe for concurrent use; it holds only immutable settings.
type Interpreter struct {
	settings   config.Settings
	resolver   *timeexpr.Resolver
	classifier *intent.Classifier
	extractor  *slots.Extractor
}

// New builds an Interpreter with the default classification rules.
func New(s config.Settings) *Interpreter {
	if s.Location == nil {
		s.Location = time.Local
	}
	r := timeexpr.New(s.Location)
	return &Interpreter{
		settings:   s,
		resolver:   r,
		classifier: intent.NewDefault(r),
		extractor:  slots.New(r),
	}
}

// Settings returns the settings the Interpreter was built with.
func (i *Interpreter) Settings() config.Settings {
	return i.settings
}

// Interpret classifies text against now and fills in the draft or range.
func (i *Interpreter) Interpret(text string, now time.Time) Interpretation {
	cls := i.classifier.Classify(text, now)
	out := Interpretation{Text: text, Intent: cls.Intent, Classification: cls}

	switch {
	case cls.Intent.IsList():
		r, err := daterange.For(cls.Intent, now, cls.Date, i.settings.Location)
		if err != nil {
			appLog.Error("list range failed", err, "intent", cls.Intent.String())
			break
		}
		out.Range = &r

	case cls.Intent == model.IntentCreateEvent:
		draft := i.extractor.Extract(text, now)
		out.Draft = &draft

	default:
		draft := i.extractor.Extract(text, now)
		if !draft.Start.IsZero() {
			out.Intent = model.IntentCreateEvent
			out.Retried = true
			out.Draft = &draft
		}
	}

	appLog.Debug("interpreted", "intent", out.Intent.String(), "rule", cls.Rule, "retried", out.Retried)
	return out
}

// Range reads an agenda selector: "hoy" (or empty), "mañana", "semana", or
// any expression the resolver accepts, such as "12/09" or "el viernes".
func (i *Interpreter) Range(when string, now time.Time) (model.TimeRange, error) {
	kind := model.IntentListDate
	var date time.Time

	switch w := strings.TrimSpace(spanish.Fold(when)); w {
	case "", "hoy":
		kind = model.IntentListToday
	case "mañana", "manana":
		kind = model.IntentListTomorrow
	case "semana", "esta semana":
		kind = model.IntentListWeek
	default:
		d, err := i.resolver.Resolve(w, now)
		if err != nil {
			return model.TimeRange{}, fmt.Errorf("%w: %q", ErrUnknownWhen, when)
		}
		date = d
	}
	return daterange.For(kind, now, date, i.settings.Location)
}

// Resolve reads a single date/time answer, as given to a follow-up
// question.
func (i *Interpreter) Resolve(text string, now time.Time) (time.Time, error) {
	return i.resolver.Resolve(text, now)
}
