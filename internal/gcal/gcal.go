// Package gcal is the Google Calendar backend.
package gcal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	appLog "agendacal/internal/log"
	"agendacal/internal/model"
)

// Calendar creates and lists events on one Google calendar.
type Calendar struct {
	svc             *calendar.Service
	calendarID      string
	loc             *time.Location
	defaultDuration int
}

// Options configures New.
type Options struct {
	CredentialsFile string
	TokenFile       string
	// CalendarID defaults to "primary".
	CalendarID string

	Location               *time.Location
	DefaultDurationMinutes int

	// Prompter runs the consent flow when TokenFile does not exist yet.
	Prompter Prompter
}

// New builds an authorized Calendar. See Authorize for the token handling.
func New(ctx context.Context, opts Options) (*Calendar, error) {
	client, err := Authorize(ctx, opts.CredentialsFile, opts.TokenFile, opts.Prompter)
	if err != nil {
		return nil, err
	}
	svc, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("gcal: calendar service: %w", err)
	}
	return NewWithService(svc, opts.CalendarID, opts.Location, opts.DefaultDurationMinutes), nil
}

// NewWithService wraps an existing service.
func NewWithService(svc *calendar.Service, calendarID string, loc *time.Location, defaultDuration int) *Calendar {
	if calendarID == "" {
		calendarID = "primary"
	}
	if loc == nil {
		loc = time.Local
	}
	return &Calendar{svc: svc, calendarID: calendarID, loc: loc, defaultDuration: defaultDuration}
}

// Create inserts ev and returns its id and htmlLink.
func (c *Calendar) Create(ctx context.Context, ev model.PendingEvent) (model.Created, error) {
	if !ev.Complete() {
		return model.Created{}, errors.New("gcal: event needs a title and a start")
	}

	body := &calendar.Event{
		Summary:     ev.Title,
		Location:    ev.Location,
		Description: ev.Description,
		Start:       c.dateTime(ev.Start),
		End:         c.dateTime(ev.EffectiveEnd(c.defaultDuration)),
	}

	created, err := c.svc.Events.Insert(c.calendarID, body).Context(ctx).Do()
	if err != nil {
		return model.Created{}, fmt.Errorf("gcal: insert event: %w", err)
	}

	appLog.Info("gcal event created", "id", created.Id, "calendar", c.calendarID)
	return model.Created{ID: created.Id, Link: created.HtmlLink}, nil
}

// List returns the single (expanded) events overlapping r, ordered by start.
func (c *Calendar) List(ctx context.Context, r model.TimeRange) ([]model.Occurrence, error) {
	call := c.svc.Events.List(c.calendarID).
		TimeMin(r.Start.Format(time.RFC3339)).
		TimeMax(r.End.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime")

	out := make([]model.Occurrence, 0)
	err := call.Pages(ctx, func(page *calendar.Events) error {
		for _, item := range page.Items {
			if item.Status == "cancelled" {
				continue
			}
			occ, err := c.occurrence(item)
			if err != nil {
				appLog.Error("gcal event skipped", err, "id", item.Id)
				continue
			}
			if r.Overlaps(occ.Start, occ.End) {
				out = append(out, occ)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("gcal: list events: %w", err)
	}

	model.SortOccurrences(out)
	return out, nil
}

func (c *Calendar) dateTime(t time.Time) *calendar.EventDateTime {
	return &calendar.EventDateTime{
		DateTime: t.In(c.loc).Format(time.RFC3339),
		TimeZone: c.loc.String(),
	}
}

func (c *Calendar) occurrence(item *calendar.Event) (model.Occurrence, error) {
	occ := model.Occurrence{
		SourceID:    c.calendarID,
		UID:         item.Id,
		Title:       item.Summary,
		Description: item.Description,
		Location:    item.Location,
	}
	if occ.Title == "" {
		occ.Title = "(Sin título)"
	}
	if item.Start == nil || item.End == nil {
		return occ, errors.New("event without start or end")
	}

	if item.Start.DateTime == "" {
		// All-day: Date is "2006-01-02" and End.Date is exclusive.
		start, err := time.ParseInLocation(time.DateOnly, item.Start.Date, c.loc)
		if err != nil {
			return occ, err
		}
		end, err := time.ParseInLocation(time.DateOnly, item.End.Date, c.loc)
		if err != nil || !end.After(start) {
			end = start.AddDate(0, 0, 1)
		}
		occ.AllDay = true
		occ.Start, occ.End = start, end
		return occ, nil
	}

	start, err := time.Parse(time.RFC3339, item.Start.DateTime)
	if err != nil {
		return occ, err
	}
	end, err := time.Parse(time.RFC3339, item.End.DateTime)
	if err != nil {
		end = start
	}
	occ.Start, occ.End = start.In(c.loc), end.In(c.loc)
	return occ, nil
}
