package gcal

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"

	"agendacal/internal/config"
	appLog "agendacal/internal/log"
)

// ErrNoToken means the token file is missing and no Prompter was given to
// run the consent flow.
var ErrNoToken = errors.New("gcal: no cached token; run an interactive command once to authorize")

// Prompter shows the consent URL to the user and returns the pasted code.
type Prompter interface {
	AuthCode(ctx context.Context, authURL string) (string, error)
}

// LinePrompter asks on Out and reads one line from In. In is shared with
// the console so no buffered input is lost.
type LinePrompter struct {
	In  *bufio.Reader
	Out io.Writer
}

// AuthCode implements Prompter.
func (p LinePrompter) AuthCode(ctx context.Context, authURL string) (string, error) {
	fmt.Fprintf(p.Out, "Abre este enlace, autoriza el acceso y pega aquí el código (o la URL a la que fuiste redirigido):\n%s\n→ ", authURL)
	line, err := p.In.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), ctx.Err()
}

// Authorize returns an HTTP client for the Calendar API. The OAuth client
// comes from credentialsFile; the token is read from tokenFile, or obtained
// through p and then saved there. Refreshed tokens are written back.
func Authorize(ctx context.Context, credentialsFile, tokenFile string, p Prompter) (*http.Client, error) {
	raw, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("gcal: read credentials: %w", err)
	}
	cfg, err := google.ConfigFromJSON(raw, calendar.CalendarEventsScope)
	if err != nil {
		return nil, fmt.Errorf("gcal: parse credentials: %w", err)
	}

	tok, err := LoadToken(tokenFile)
	if err != nil {
		if p == nil {
			return nil, ErrNoToken
		}
		appLog.Info("gcal token missing, starting consent flow", "token_file", tokenFile)
		answer, err := p.AuthCode(ctx, cfg.AuthCodeURL("agendacal", oauth2.AccessTypeOffline, oauth2.ApprovalForce))
		if err != nil {
			return nil, fmt.Errorf("gcal: read auth code: %w", err)
		}
		code := authCode(answer)
		if code == "" {
			return nil, errors.New("gcal: empty auth code")
		}
		tok, err = cfg.Exchange(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("gcal: exchange auth code: %w", err)
		}
		if err := SaveToken(tokenFile, tok); err != nil {
			return nil, err
		}
	}

	src := &savingSource{base: cfg.TokenSource(ctx, tok), path: tokenFile, last: tok.AccessToken}
	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(tok, src)), nil
}

// LoadToken reads a token written by SaveToken.
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("gcal: parse token: %w", err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, errors.New("gcal: token file holds no token")
	}
	return &tok, nil
}

// SaveToken writes tok atomically with mode 0600.
func SaveToken(path string, tok *oauth2.Token) error {
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	if err := config.WriteFileAtomic(path, data); err != nil {
		return fmt.Errorf("gcal: save token: %w", err)
	}
	return nil
}

// authCode accepts either the bare code or the full redirect URL.
func authCode(answer string) string {
	answer = strings.TrimSpace(answer)
	if u, err := url.Parse(answer); err == nil && u.Scheme != "" {
		if code := u.Query().Get("code"); code != "" {
			return code
		}
	}
	return answer
}

// savingSource persists every newly minted token.
type savingSource struct {
	base oauth2.TokenSource
	path string

	mu   sync.Mutex
	last string
}

func (s *savingSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		s.last = tok.AccessToken
		if err := SaveToken(s.path, tok); err != nil {
			appLog.Error("gcal token save failed", err, "token_file", s.path)
		}
	}
	return tok, nil
}
