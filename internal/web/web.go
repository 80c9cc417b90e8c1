// Package web exposes the assistant over HTTP: interpretation of a single
// utterance, agenda listings and event creation.
package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"agendacal/internal/assemble"
	"agendacal/internal/assistant"
	"agendacal/internal/calendar"
	"agendacal/internal/config"
	appLog "agendacal/internal/log"
	"agendacal/internal/model"
	"agendacal/internal/notify"
)

// agendaCacheTTL bounds how long a listing is reused. Creating an event
// through the API clears the cache.
const agendaCacheTTL = 30 * time.Second

// maxBodyBytes limits request bodies.
const maxBodyBytes = 64 << 10

// Server provides the HTTP API. Every request samples its own "now"; the
// only shared mutable state is the agenda cache.
type Server struct {
	cfg      *config.Config
	interp   *assistant.Interpreter
	backend  calendar.Backend
	notifier notify.Notifier
	mux      *http.ServeMux
	now      func() time.Time

	agendaMu    sync.RWMutex
	agendaCache map[string]agendaCacheEntry
}

type agendaCacheEntry struct {
	resp      agendaResponse
	updatedAt time.Time
}

// NewServer constructs a new Server. A nil cfg means config.DefaultConfig();
// notifier may be nil.
func NewServer(cfg *config.Config, interp *assistant.Interpreter, backend calendar.Backend, notifier notify.Notifier) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if notifier == nil {
		notifier = notify.Nop{}
	}
	s := &Server{
		cfg:         cfg,
		interp:      interp,
		backend:     backend,
		notifier:    notifier,
		mux:         http.NewServeMux(),
		now:         time.Now,
		agendaCache: make(map[string]agendaCacheEntry),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg.BasicAuth == nil {
		return false
	}
	// Empty credentials disable auth instead of locking everyone out.
	if s.cfg.BasicAuth.Username == "" || s.cfg.BasicAuth.Password == "" {
		return false
	}
	return true
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="agendacal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Serve listens on cfg.Listen until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	appLog.Info("HTTP server stopped")
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /api/interpret", s.handleInterpret)
	s.mux.HandleFunc("GET /api/agenda", s.handleAgenda)
	s.mux.HandleFunc("POST /api/events", s.handleCreate)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

type interpretRequest struct {
	Text string `json:"text"`
}

// handleInterpret returns the intent, draft and range for one utterance.
// Nothing is written.
//
// POST /api/interpret {"text": "qué tareas tengo para mañana?"}
func (s *Server) handleInterpret(w http.ResponseWriter, r *http.Request) {
	var req interpretRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	writeJSON(w, http.StatusOK, s.interp.Interpret(req.Text, s.now()))
}

// agendaResponse is the JSON response shape for /api/agenda.
type agendaResponse struct {
	Occurrences     []model.Occurrence `json:"occurrences"`
	RangeStart      time.Time          `json:"range_start"`
	RangeEnd        time.Time          `json:"range_end"`
	DisplayTimeZone string             `json:"display_timezone"`
}

// handleAgenda lists the occurrences of a range.
//
// GET /api/agenda?when=hoy|mañana|semana|12/09
//   - when: defaults to hoy; any date expression is accepted
func (s *Server) handleAgenda(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	when := r.URL.Query().Get("when")

	rng, err := s.interp.Range(when, s.now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := rng.Start.Format(time.RFC3339) + "/" + rng.End.Format(time.RFC3339)
	s.agendaMu.RLock()
	entry, ok := s.agendaCache[key]
	s.agendaMu.RUnlock()
	if ok && time.Since(entry.updatedAt) < agendaCacheTTL {
		writeJSON(w, http.StatusOK, entry.resp)
		return
	}

	appLog.Info("api agenda request",
		"when", when,
		"range_start", rng.Start.Format(time.RFC3339),
		"range_end", rng.End.Format(time.RFC3339),
	)

	occ, err := s.backend.List(ctx, rng)
	if err != nil {
		appLog.Error("api agenda: list failed", err)
		writeError(w, http.StatusBadGateway, "failed to list events")
		return
	}
	if occ == nil {
		occ = []model.Occurrence{}
	}

	resp := agendaResponse{
		Occurrences:     occ,
		RangeStart:      rng.Start,
		RangeEnd:        rng.End,
		DisplayTimeZone: s.interp.Settings().Location.String(),
	}

	s.agendaMu.Lock()
	s.agendaCache[key] = agendaCacheEntry{resp: resp, updatedAt: time.Now()}
	s.agendaMu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

// createRequest carries an utterance plus explicit values for the slots the
// utterance may lack. Explicit values only fill slots left unset.
type createRequest struct {
	Text            string    `json:"text"`
	Title           string    `json:"title"`
	Location        string    `json:"location"`
	Start           time.Time `json:"start"`
	DurationMinutes int       `json:"duration_minutes"`
}

type createResponse struct {
	Event   model.PendingEvent `json:"event"`
	Created model.Created      `json:"created"`
}

type incompleteResponse struct {
	Error   string             `json:"error"`
	Missing []string           `json:"missing"`
	Draft   model.PendingEvent `json:"draft"`
}

// handleCreate interprets text as a creation request, completes it from
// the request fields and stores it.
//
// POST /api/events {"text": "...", "title": "...", "start": "2024-06-11T15:00:00-06:00"}
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var draft model.PendingEvent
	if req.Text != "" {
		if d := s.interp.Interpret(req.Text, s.now()).Draft; d != nil {
			draft = *d
		}
	}

	ev, err := assemble.New(s.interp.Settings().DefaultDurationMinutes).Complete(ctx, draft, requestFields(req))
	if errors.Is(err, assemble.ErrIncompleteDraft) {
		writeJSON(w, http.StatusUnprocessableEntity, incompleteResponse{
			Error:   err.Error(),
			Missing: missing(ev),
			Draft:   ev,
		})
		return
	}
	if err != nil {
		writeError(w, http.StatusRequestTimeout, err.Error())
		return
	}

	created, err := s.backend.Create(ctx, ev)
	if err != nil {
		appLog.Error("api create failed", err)
		writeError(w, http.StatusBadGateway, "failed to create event")
		return
	}

	s.agendaMu.Lock()
	clear(s.agendaCache)
	s.agendaMu.Unlock()

	if recipient := s.cfg.Notify.Recipient; recipient != "" {
		body := notify.CreatedBody(ev, created.Link, s.interp.Settings().Location)
		if err := s.notifier.Notify(ctx, recipient, notify.CreatedSubject, body); err != nil {
			appLog.Error("api notify failed", err)
		}
	}

	writeJSON(w, http.StatusCreated, createResponse{Event: ev, Created: created})
}

// requestFields answers the assembler from the request body.
type requestFields createRequest

func (f requestFields) AskDateTime(context.Context) (time.Time, bool) {
	return f.Start, !f.Start.IsZero()
}

func (f requestFields) AskTitle(context.Context) (string, bool) {
	return f.Title, f.Title != ""
}

func (f requestFields) AskLocation(context.Context) (string, bool) {
	return f.Location, f.Location != ""
}

func (f requestFields) AskDuration(context.Context) (int, bool) {
	return f.DurationMinutes, f.DurationMinutes > 0
}

func missing(ev model.PendingEvent) []string {
	out := make([]string, 0, 2)
	if ev.Start.IsZero() {
		out = append(out, "start")
	}
	if ev.Title == "" {
		out = append(out, "title")
	}
	return out
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
