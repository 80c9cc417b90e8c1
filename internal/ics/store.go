// Package ics is the default calendar backend: a local .ics file that new
// events are written to, merged with read-only ICS subscriptions when
// listing.
package ics

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"agendacal/internal/config"
	appLog "agendacal/internal/log"
	"agendacal/internal/model"
)

// LocalFeedID labels occurrences read from the local file.
const LocalFeedID = "local"

const productName = "agendacal"

// Options configures a Store.
type Options struct {
	// Path is the local calendar file. It is created on the first write.
	Path string
	// Location is the display zone of listed occurrences.
	Location *time.Location
	// DefaultDurationMinutes applies to drafts without duration or end.
	DefaultDurationMinutes int

	Subscriptions []Subscription
	CacheDir      string
	HTTPClient    *http.Client
}

// Store writes events to a local .ics file and lists them together with
// the configured subscriptions. It is safe for concurrent use.
type Store struct {
	mu sync.Mutex

	path            string
	loc             *time.Location
	defaultDuration int
	subs            []Subscription
	fetcher         *Fetcher

	now func() time.Time
}

// NewStore creates a Store. Nothing is read until the first call.
func NewStore(opts Options) *Store {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	return &Store{
		path:            opts.Path,
		loc:             loc,
		defaultDuration: opts.DefaultDurationMinutes,
		subs:            opts.Subscriptions,
		fetcher:         NewFetcher(opts.CacheDir, opts.HTTPClient),
		now:             time.Now,
	}
}

// Create appends ev to the local file. The returned link is a file:// URL
// whose fragment is the event UID.
func (s *Store) Create(ctx context.Context, ev model.PendingEvent) (model.Created, error) {
	if err := ctx.Err(); err != nil {
		return model.Created{}, err
	}
	if !ev.Complete() {
		return model.Created{}, errors.New("ics: event needs a title and a start")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cal, err := s.readLocal()
	if err != nil {
		return model.Created{}, err
	}
	if cal == nil {
		cal = ical.NewCalendarFor(productName)
		cal.SetMethod(ical.MethodPublish)
		cal.SetXWRTimezone(s.loc.String())
	}

	uid := uuid.NewString()
	now := s.now()

	ve := cal.AddEvent(uid)
	ve.SetDtStampTime(now)
	ve.SetCreatedTime(now)
	ve.SetStartAt(ev.Start)
	ve.SetEndAt(ev.EffectiveEnd(s.defaultDuration))
	ve.SetSummary(ev.Title)
	if ev.Location != "" {
		ve.SetLocation(ev.Location)
	}
	if ev.Description != "" {
		ve.SetDescription(ev.Description)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return model.Created{}, fmt.Errorf("ics: create dir: %w", err)
	}
	if err := config.WriteFileAtomic(s.path, []byte(cal.Serialize())); err != nil {
		return model.Created{}, fmt.Errorf("ics: write %s: %w", s.path, err)
	}

	appLog.Info("ics event created", "uid", uid, "start", ev.Start.Format(time.RFC3339), "path", s.path)
	return model.Created{ID: uid, Link: s.link(uid)}, nil
}

// List returns the occurrences overlapping r from the local file and every
// subscription, sorted by start. A subscription that cannot be fetched is
// logged and left out; only a broken local file fails the call.
func (s *Store) List(ctx context.Context, r model.TimeRange) ([]model.Occurrence, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	cal, err := s.readLocal()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	var entries []entry
	if cal != nil {
		entries = append(entries, entriesOf(LocalFeedID, cal)...)
	}

	feeds, _ := s.fetcher.FetchAll(ctx, s.subs)
	for _, feed := range feeds {
		parsed, err := parseFeed(feed.Subscription.ID, feed.Body)
		if err != nil {
			continue
		}
		entries = append(entries, parsed...)
	}

	occ := expand(entries, r, s.loc)
	appLog.Debug("ics list", "start", r.Start.Format(time.RFC3339), "end", r.End.Format(time.RFC3339), "count", len(occ))
	return occ, nil
}

// readLocal returns nil without error when the file does not exist yet.
func (s *Store) readLocal() (*ical.Calendar, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ics: read %s: %w", s.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	cal, err := ical.ParseCalendar(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("ics: parse %s: %w", s.path, err)
	}
	return cal, nil
}

func (s *Store) link(uid string) string {
	abs, err := filepath.Abs(s.path)
	if err != nil {
		abs = s.path
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs), Fragment: uid}
	return u.String()
}
