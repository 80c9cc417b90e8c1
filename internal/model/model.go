package model

import (
	"slices"
	"strings"
	"time"
)

// DefaultDurationMinutes is used when neither the sentence nor the user
// supplied a duration.
const DefaultDurationMinutes = 60

// PendingEvent is a mutable draft of a calendar entry. Zero values mean
// "unset": an empty Title, a zero Start/End or a DurationMinutes of 0.
type PendingEvent struct {
	Title       string `json:"title,omitempty"`
	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`

	Start time.Time `json:"start,omitzero"`
	End   time.Time `json:"end,omitzero"`

	DurationMinutes int `json:"duration_minutes,omitempty"`
}

// Complete reports whether the draft carries both a title and a start.
// It is the only gate checked before handing the draft to a calendar.
func (e PendingEvent) Complete() bool {
	return e.Title != "" && !e.Start.IsZero()
}

// EffectiveEnd returns End when set, otherwise Start plus the draft's
// duration (or defaultMinutes when no duration was given). The draft itself
// is not modified.
func (e PendingEvent) EffectiveEnd(defaultMinutes int) time.Time {
	if !e.End.IsZero() {
		return e.End
	}
	dur := e.DurationMinutes
	if dur <= 0 {
		dur = defaultMinutes
	}
	if dur <= 0 {
		dur = DefaultDurationMinutes
	}
	return e.Start.Add(time.Duration(dur) * time.Minute)
}

// Occurrence represents a single concrete instance of an event
// (after recurrence expansion and timezone normalization).
type Occurrence struct {
	SourceID string `json:"source_id"` // calendar or subscription ID
	UID      string `json:"uid"`       // event UID in its source

	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`

	AllDay bool `json:"all_day"`

	// Start / End are in the configured display timezone.
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// SortOccurrences orders by start, all-day entries first on ties, then by
// title and UID.
func SortOccurrences(occ []Occurrence) {
	slices.SortStableFunc(occ, func(a, b Occurrence) int {
		if c := a.Start.Compare(b.Start); c != 0 {
			return c
		}
		if a.AllDay != b.AllDay {
			if a.AllDay {
				return -1
			}
			return 1
		}
		if c := strings.Compare(a.Title, b.Title); c != 0 {
			return c
		}
		return strings.Compare(a.UID, b.UID)
	})
}

// Created is what a calendar returns after storing an event.
type Created struct {
	ID   string `json:"id"`
	Link string `json:"link,omitempty"`
}
