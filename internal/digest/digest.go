// Package digest mails the day's agenda on a cron schedule.
package digest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"agendacal/internal/assistant"
	"agendacal/internal/calendar"
	"agendacal/internal/daterange"
	appLog "agendacal/internal/log"
	"agendacal/internal/model"
	"agendacal/internal/notify"
)

// Digest lists today's agenda and sends it to one recipient.
type Digest struct {
	source    calendar.Source
	notifier  notify.Notifier
	recipient string
	loc       *time.Location
	now       func() time.Time
}

// New creates a Digest. Days are computed in loc.
func New(source calendar.Source, notifier notify.Notifier, recipient string, loc *time.Location) *Digest {
	if loc == nil {
		loc = time.Local
	}
	return &Digest{source: source, notifier: notifier, recipient: recipient, loc: loc, now: time.Now}
}

// Send mails today's agenda. Without a recipient it does nothing.
func (d *Digest) Send(ctx context.Context) error {
	if d.recipient == "" {
		appLog.Info("digest skipped, no recipient configured")
		return nil
	}

	now := d.now()
	r, err := daterange.For(model.IntentListToday, now, time.Time{}, d.loc)
	if err != nil {
		return err
	}
	occ, err := d.source.List(ctx, r)
	if err != nil {
		return fmt.Errorf("digest: list: %w", err)
	}

	subject := "Tu agenda de hoy (" + r.Start.Format("02/01") + ")"
	if err := d.notifier.Notify(ctx, d.recipient, subject, assistant.AgendaText(occ, d.loc)); err != nil {
		return fmt.Errorf("digest: notify: %w", err)
	}
	appLog.Info("digest sent", "to", d.recipient, "events", len(occ))
	return nil
}

// Run sends the digest on every tick of spec, a standard five-field cron
// expression evaluated in the digest's zone, until ctx is cancelled.
func (d *Digest) Run(ctx context.Context, spec string) error {
	c := cron.New(cron.WithLocation(d.loc), cron.WithLogger(cronLogger{}))
	if _, err := c.AddFunc(spec, func() {
		if err := d.Send(ctx); err != nil && !errors.Is(err, context.Canceled) {
			appLog.Error("digest failed", err)
		}
	}); err != nil {
		return fmt.Errorf("digest: invalid schedule %q: %w", spec, err)
	}

	appLog.Info("digest scheduled", "cron", spec, "timezone", d.loc.String())
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// cronLogger routes cron's own messages to appLog.
type cronLogger struct{}

func (cronLogger) Info(msg string, kv ...any) {
	appLog.Debug("cron: "+msg, kv...)
}

func (cronLogger) Error(err error, msg string, kv ...any) {
	appLog.Error("cron: "+msg, err, kv...)
}
