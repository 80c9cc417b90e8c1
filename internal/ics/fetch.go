package ics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"agendacal/internal/config"
	appLog "agendacal/internal/log"
)

// Subscription is a read-only ICS feed merged into listings.
type Subscription struct {
	// ID labels occurrences coming from this feed.
	ID string
	// URL is the feed endpoint; webcal:// is fetched over https.
	URL string
}

// Feed is the body of one subscription, fresh or from the disk cache.
type Feed struct {
	Subscription Subscription
	Body         []byte
	FromCache    bool
}

// cacheMeta holds the validators sent back on the next request.
type cacheMeta struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Fetcher downloads subscriptions with ETag / Last-Modified revalidation and
// falls back to the cached body when the network or the server fails.
type Fetcher struct {
	client   *http.Client
	cacheDir string
}

// NewFetcher creates a Fetcher caching under cacheDir. A nil client gets a
// 15 second timeout.
func NewFetcher(cacheDir string, client *http.Client) *Fetcher {
	if cacheDir == "" {
		cacheDir = "./var/ics-cache"
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Fetcher{client: client, cacheDir: cacheDir}
}

// FetchAll fetches every subscription. Failed feeds are logged and reported
// in the error slice; the others are still returned.
func (f *Fetcher) FetchAll(ctx context.Context, subs []Subscription) ([]Feed, []error) {
	feeds := make([]Feed, 0, len(subs))
	var errs []error

	for _, sub := range subs {
		feed, err := f.Fetch(ctx, sub)
		if err != nil {
			appLog.Error("ics fetch failed", err, "id", sub.ID, "url", redactURL(sub.URL))
			errs = append(errs, fmt.Errorf("subscription %s: %w", sub.ID, err))
			continue
		}
		feeds = append(feeds, feed)
	}
	return feeds, errs
}

// Fetch downloads one subscription.
func (f *Fetcher) Fetch(ctx context.Context, sub Subscription) (Feed, error) {
	target := fetchURL(sub.URL)
	if target == "" {
		return Feed{}, errors.New("subscription URL is empty")
	}

	dir := f.cacheDirFor(target)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return Feed{}, err
	}
	meta, _ := loadMeta(dir)
	cached, _ := os.ReadFile(filepath.Join(dir, "body.ics"))

	fallback := func(cause error) (Feed, error) {
		if len(cached) == 0 {
			return Feed{}, cause
		}
		appLog.Error("ics fetch failed, using cached body", cause, "id", sub.ID, "url", redactURL(sub.URL))
		return Feed{Subscription: sub, Body: cached, FromCache: true}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Feed{}, err
	}
	if meta.URL == target {
		if meta.ETag != "" {
			req.Header.Set("If-None-Match", meta.ETag)
		}
		if meta.LastModified != "" {
			req.Header.Set("If-Modified-Since", meta.LastModified)
		}
	}

	appLog.Debug("ics fetch start", "id", sub.ID, "url", redactURL(sub.URL))

	resp, err := f.client.Do(req)
	if err != nil {
		return fallback(err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fallback(err)
		}
		next := cacheMeta{
			URL:          target,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
			UpdatedAt:    time.Now().UTC(),
		}
		if err := saveCache(dir, next, body); err != nil {
			appLog.Error("ics cache save failed", err, "id", sub.ID)
		}
		appLog.Info("ics fetch success", "id", sub.ID, "url", redactURL(sub.URL), "bytes", len(body))
		return Feed{Subscription: sub, Body: body}, nil

	case http.StatusNotModified:
		if len(cached) == 0 {
			return Feed{}, errors.New("304 Not Modified without a cached body")
		}
		appLog.Debug("ics not modified, using cache", "id", sub.ID)
		return Feed{Subscription: sub, Body: cached, FromCache: true}, nil

	default:
		return fallback(fmt.Errorf("unexpected status %s", resp.Status))
	}
}

func (f *Fetcher) cacheDirFor(target string) string {
	sum := sha256.Sum256([]byte(target))
	return filepath.Join(f.cacheDir, hex.EncodeToString(sum[:8]))
}

func loadMeta(dir string) (cacheMeta, error) {
	var meta cacheMeta
	data, err := os.ReadFile(filepath.Join(dir, "meta.json"))
	if err != nil {
		return meta, err
	}
	err = json.Unmarshal(data, &meta)
	return meta, err
}

func saveCache(dir string, meta cacheMeta, body []byte) error {
	// Body first so the validators never describe a body we do not have.
	if err := config.WriteFileAtomic(filepath.Join(dir, "body.ics"), body); err != nil {
		return err
	}
	data, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return err
	}
	return config.WriteFileAtomic(filepath.Join(dir, "meta.json"), data)
}

// fetchURL maps webcal:// links, as handed out by most calendar apps, to https.
func fetchURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if rest, ok := strings.CutPrefix(raw, "webcal://"); ok {
		return "https://" + rest
	}
	return raw
}

// redactURL keeps only scheme and host; private feed URLs carry their secret
// in the path or query.
func redactURL(raw string) string {
	u, err := url.Parse(fetchURL(raw))
	if err != nil || u.Host == "" {
		return "ics://...(redacted)"
	}
	return u.Scheme + "://" + u.Host + "/...(redacted)"
}
