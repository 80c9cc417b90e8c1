// Package assemble completes extracted drafts with answers from a fallback
// provider, usually an interactive prompt.
package assemble

import (
	"context"
	"errors"
	"time"

	"agendacal/internal/model"
)

// ErrIncompleteDraft means the draft still lacks a title or a start after
// every fallback was asked. It is a normal outcome: the caller reports
// missing data and discards the draft.
var ErrIncompleteDraft = errors.New("assemble: draft is missing title or start")

// FallbackProvider supplies values for slots the sentence did not carry.
// Each method returns ok=false when the user gave no usable answer.
type FallbackProvider interface {
	AskDateTime(ctx context.Context) (time.Time, bool)
	AskTitle(ctx context.Context) (string, bool)
	AskLocation(ctx context.Context) (string, bool)
	AskDuration(ctx context.Context) (int, bool)
}

// Assembler fills drafts. DefaultDuration applies when neither the text nor
// the provider gave a duration; zero means model.DefaultDurationMinutes.
type Assembler struct {
	DefaultDuration int
}

// New creates an Assembler with the given default duration in minutes.
func New(defaultDuration int) *Assembler {
	return &Assembler{DefaultDuration: defaultDuration}
}

// Complete asks fb only for the slots draft leaves unset, in the order
// start, title, location, duration. The filled draft is always returned;
// the error is ErrIncompleteDraft when title or start is still missing, or
// the context error when ctx ended while asking.
func (a *Assembler) Complete(ctx context.Context, draft model.PendingEvent, fb FallbackProvider) (model.PendingEvent, error) {
	ev := draft

	if ev.Start.IsZero() {
		if v, ok := fb.AskDateTime(ctx); ok {
			ev.Start = v
		}
	}
	if ev.Title == "" {
		if v, ok := fb.AskTitle(ctx); ok {
			ev.Title = v
		}
	}
	if ev.Location == "" {
		if v, ok := fb.AskLocation(ctx); ok {
			ev.Location = v
		}
	}
	if ev.DurationMinutes <= 0 {
		if v, ok := fb.AskDuration(ctx); ok && v > 0 {
			ev.DurationMinutes = v
		} else {
			ev.DurationMinutes = a.defaultDuration()
		}
	}

	if err := ctx.Err(); err != nil {
		return ev, err
	}
	if !ev.Complete() {
		return ev, ErrIncompleteDraft
	}
	return ev, nil
}

func (a *Assembler) defaultDuration() int {
	if a.DefaultDuration > 0 {
		return a.DefaultDuration
	}
	return model.DefaultDurationMinutes
}
