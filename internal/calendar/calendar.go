// Package calendar defines the sink and source used by the assistant and
// opens the configured backend.
package calendar

import (
	"context"
	"fmt"

	"agendacal/internal/config"
	"agendacal/internal/gcal"
	"agendacal/internal/ics"
	appLog "agendacal/internal/log"
	"agendacal/internal/model"
)

// Created identifies a stored event.
type Created = model.Created

// Sink stores confirmed drafts.
type Sink interface {
	Create(ctx context.Context, ev model.PendingEvent) (Created, error)
}

// Source lists occurrences overlapping a range, sorted by start. Events
// that end exactly at the range start are not returned.
type Source interface {
	List(ctx context.Context, r model.TimeRange) ([]model.Occurrence, error)
}

// Backend is both a Sink and a Source.
type Backend interface {
	Sink
	Source
}

var (
	_ Backend = (*ics.Store)(nil)
	_ Backend = (*gcal.Calendar)(nil)
)

// Open builds the backend selected by cfg.Calendar.Backend. The prompter is
// only used by the google backend when no token is cached yet; nil makes a
// missing token an error.
func Open(ctx context.Context, cfg *config.Config, s config.Settings, p gcal.Prompter) (Backend, error) {
	switch cfg.Calendar.Backend {
	case config.BackendGoogle:
		c, err := gcal.New(ctx, gcal.Options{
			CredentialsFile:        cfg.Calendar.CredentialsFile,
			TokenFile:              cfg.Calendar.TokenFile,
			CalendarID:             cfg.Calendar.CalendarID,
			Location:               s.Location,
			DefaultDurationMinutes: s.DefaultDurationMinutes,
			Prompter:               p,
		})
		if err != nil {
			return nil, fmt.Errorf("calendar: open google backend: %w", err)
		}
		appLog.Info("calendar backend ready", "backend", config.BackendGoogle, "calendar_id", cfg.Calendar.CalendarID)
		return c, nil

	case config.BackendICS, "":
		store := ics.NewStore(ics.Options{
			Path:                   cfg.Calendar.ICSPath,
			Location:               s.Location,
			DefaultDurationMinutes: s.DefaultDurationMinutes,
			Subscriptions:          Subscriptions(cfg.Calendar.Subscriptions),
			CacheDir:               cfg.Calendar.CacheDir,
		})
		appLog.Info("calendar backend ready", "backend", config.BackendICS,
			"path", cfg.Calendar.ICSPath, "subscriptions", len(cfg.Calendar.Subscriptions))
		return store, nil

	default:
		return nil, fmt.Errorf("calendar: unknown backend %q", cfg.Calendar.Backend)
	}
}

// Subscriptions converts configured sources, skipping entries without a
// URL. The ID falls back to the name, then to the URL.
func Subscriptions(in []config.ICSConfig) []ics.Subscription {
	out := make([]ics.Subscription, 0, len(in))
	for _, c := range in {
		if c.URL == "" {
			continue
		}
		id := c.ID
		if id == "" {
			if c.Name != "" {
				id = c.Name
			} else {
				id = c.URL
			}
		}
		out = append(out, ics.Subscription{ID: id, URL: c.URL})
	}
	return out
}
