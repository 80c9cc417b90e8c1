// Package notify sends best-effort e-mail notifications.
package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"agendacal/internal/config"
	appLog "agendacal/internal/log"
	"agendacal/internal/model"
)

// Notifier delivers a plain-text message to recipient.
type Notifier interface {
	Notify(ctx context.Context, recipient, subject, body string) error
}

// Nop discards every message.
type Nop struct{}

// Notify implements Notifier.
func (Nop) Notify(context.Context, string, string, string) error { return nil }

// SMTP sends through a submission server with STARTTLS and PLAIN auth.
type SMTP struct {
	Host     string
	Port     int
	Username string
	Password string
	// From defaults to Username.
	From string

	// TLSConfig overrides the STARTTLS configuration.
	TLSConfig *tls.Config
	Timeout   time.Duration
}

// New returns an SMTP notifier for cfg, or Nop when no sender credentials
// are configured.
func New(cfg config.NotifyConfig) Notifier {
	if cfg.SenderEmail == "" || cfg.SenderPass == "" {
		appLog.Debug("notify disabled, sender credentials missing")
		return Nop{}
	}
	return &SMTP{
		Host:     cfg.SMTPServer,
		Port:     cfg.SMTPPort,
		Username: cfg.SenderEmail,
		Password: cfg.SenderPass,
	}
}

// Notify implements Notifier. An empty recipient or missing credentials
// skip the message without error.
func (s *SMTP) Notify(ctx context.Context, recipient, subject, body string) error {
	if recipient == "" || s.Username == "" || s.Password == "" {
		appLog.Debug("notify skipped", "has_recipient", recipient != "")
		return nil
	}
	from := s.From
	if from == "" {
		from = s.Username
	}

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	addr := net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("notify: dial %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, s.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("notify: smtp handshake: %w", err)
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		tlsCfg := s.TLSConfig
		if tlsCfg == nil {
			tlsCfg = &tls.Config{ServerName: s.Host, MinVersion: tls.VersionTLS12}
		}
		if err := c.StartTLS(tlsCfg); err != nil {
			return fmt.Errorf("notify: starttls: %w", err)
		}
	}
	if err := c.Auth(smtp.PlainAuth("", s.Username, s.Password, s.Host)); err != nil {
		return fmt.Errorf("notify: auth: %w", err)
	}
	if err := c.Mail(from); err != nil {
		return fmt.Errorf("notify: mail from: %w", err)
	}
	if err := c.Rcpt(recipient); err != nil {
		return fmt.Errorf("notify: rcpt to: %w", err)
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("notify: data: %w", err)
	}
	if _, err := w.Write(Message(from, recipient, subject, body)); err != nil {
		return fmt.Errorf("notify: write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("notify: send: %w", err)
	}
	if err := c.Quit(); err != nil {
		appLog.Debug("notify quit failed", "err", err)
	}

	appLog.Info("notification sent", "to", recipient)
	return nil
}

// Message renders a UTF-8 plain-text mail with CRLF line endings.
func Message(from, to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	b.WriteString("\r\n")
	body = strings.ReplaceAll(body, "\r\n", "\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(b.String())
}

// CreatedSubject is the subject of the "new appointment" mail.
const CreatedSubject = "Nueva cita agendada"

// CreatedBody describes a newly created event.
func CreatedBody(ev model.PendingEvent, link string, loc *time.Location) string {
	where := ev.Location
	if where == "" {
		where = "—"
	}
	return fmt.Sprintf("Se creó el evento '%s' el %s en %s\nEnlace en el calendario: %s\n",
		ev.Title, ev.Start.In(loc).Format("02/01 15:04"), where, link)
}
