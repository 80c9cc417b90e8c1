package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"agendacal/internal/model"
)

// EnvPrefix is the prefix of environment variables that override the file.
// AGENDACAL_NOTIFY_SENDER_PASS maps to notify.sender_pass.
const EnvPrefix = "AGENDACAL_"

const (
	BackendICS    = "ics"
	BackendGoogle = "google"
)

// ICSConfig describes a single read-only ICS subscription source.
type ICSConfig struct {
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" json:"url"`
	// ID is an internal identifier used for de-dup and logging.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label.
	Name string `yaml:"name" json:"name"`
}

// CalendarConfig selects and configures the calendar backend.
type CalendarConfig struct {
	// Backend is "ics" (local file, default) or "google".
	Backend string `yaml:"backend" json:"backend"`

	// ICSPath is the local calendar file written by the ics backend.
	ICSPath string `yaml:"ics_path" json:"ics_path"`
	// CacheDir holds the HTTP cache of subscriptions.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`
	// Subscriptions are merged into listings but never written to.
	Subscriptions []ICSConfig `yaml:"subscriptions" json:"subscriptions"`

	// CredentialsFile and TokenFile configure the google backend.
	CredentialsFile string `yaml:"credentials_file" json:"credentials_file"`
	TokenFile       string `yaml:"token_file" json:"token_file"`
	CalendarID      string `yaml:"calendar_id" json:"calendar_id"`
}

// NotifyConfig holds the optional SMTP notification settings.
type NotifyConfig struct {
	SMTPServer  string `yaml:"smtp_server" json:"smtp_server"`
	SMTPPort    int    `yaml:"smtp_port" json:"smtp_port"`
	SenderEmail string `yaml:"sender_email" json:"sender_email"`
	SenderPass  string `yaml:"sender_pass" json:"-"`
	// Recipient receives "new appointment" mails and the daily digest.
	Recipient string `yaml:"recipient" json:"recipient"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the HTTP API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Timezone is the IANA timezone used for parsing, display and range
	// boundaries (e.g. "America/Guatemala").
	Timezone string `yaml:"timezone" json:"timezone"`

	// DefaultDurationMinutes applies when neither the sentence nor the user
	// gives a duration.
	DefaultDurationMinutes int `yaml:"default_duration_minutes" json:"default_duration_minutes"`

	// LogLevel is one of debug, info, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// Listen is the HTTP listen address used by "serve".
	Listen string `yaml:"listen" json:"listen"`

	// DigestCron is a cron-style schedule string (e.g. "0 7 * * *") for the
	// daily agenda mail. Evaluated in Timezone.
	DigestCron string `yaml:"digest_cron" json:"digest_cron"`

	Calendar CalendarConfig `yaml:"calendar" json:"calendar"`
	Notify   NotifyConfig   `yaml:"notify" json:"notify"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// Settings is the immutable view of the configuration threaded through the
// interpretation core.
type Settings struct {
	Location               *time.Location
	DefaultDurationMinutes int
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Timezone:               "America/Guatemala",
		DefaultDurationMinutes: model.DefaultDurationMinutes,
		LogLevel:               "info",
		Listen:                 "127.0.0.1:8080",
		DigestCron:             "0 7 * * *",
		Calendar: CalendarConfig{
			Backend:         BackendICS,
			ICSPath:         "./var/agenda.ics",
			CacheDir:        "./var/ics-cache",
			Subscriptions:   []ICSConfig{},
			CredentialsFile: "credentials.json",
			TokenFile:       "token.json",
			CalendarID:      "primary",
		},
		Notify: NotifyConfig{
			SMTPServer: "smtp.gmail.com",
			SMTPPort:   587,
		},
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()

	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	if c.DefaultDurationMinutes <= 0 {
		c.DefaultDurationMinutes = def.DefaultDurationMinutes
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.DigestCron == "" {
		c.DigestCron = def.DigestCron
	}

	switch strings.ToLower(c.Calendar.Backend) {
	case BackendICS, BackendGoogle:
		c.Calendar.Backend = strings.ToLower(c.Calendar.Backend)
	default:
		// Unknown or empty backend; the local file always works.
		c.Calendar.Backend = BackendICS
	}
	if c.Calendar.ICSPath == "" {
		c.Calendar.ICSPath = def.Calendar.ICSPath
	}
	if c.Calendar.CacheDir == "" {
		c.Calendar.CacheDir = def.Calendar.CacheDir
	}
	if c.Calendar.Subscriptions == nil {
		c.Calendar.Subscriptions = []ICSConfig{}
	}
	if c.Calendar.CredentialsFile == "" {
		c.Calendar.CredentialsFile = def.Calendar.CredentialsFile
	}
	if c.Calendar.TokenFile == "" {
		c.Calendar.TokenFile = def.Calendar.TokenFile
	}
	if c.Calendar.CalendarID == "" {
		c.Calendar.CalendarID = def.Calendar.CalendarID
	}

	if c.Notify.SMTPServer == "" {
		c.Notify.SMTPServer = def.Notify.SMTPServer
	}
	if c.Notify.SMTPPort <= 0 {
		c.Notify.SMTPPort = def.Notify.SMTPPort
	}
}

// Settings resolves the configured time zone. An invalid zone is an error:
// silently parsing in another zone would shift every appointment.
func (c *Config) Settings() (Settings, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return Settings{}, fmt.Errorf("config: invalid timezone %q: %w", c.Timezone, err)
	}
	dur := c.DefaultDurationMinutes
	if dur <= 0 {
		dur = model.DefaultDurationMinutes
	}
	return Settings{Location: loc, DefaultDurationMinutes: dur}, nil
}

// legacyEnv maps the bare variable names of the first console version onto
// config keys. They are applied before the prefixed variables.
var legacyEnv = map[string]string{
	"SENDER_EMAIL": "notify.sender_email",
	"SENDER_PASS":  "notify.sender_pass",
	"NOTIFY_EMAIL": "notify.recipient",
}

// Load loads configuration from the given YAML path, then applies
// environment overrides.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - continue with the default config
//   - If the file exists:
//   - read YAML through koanf
//   - overlay SENDER_EMAIL/SENDER_PASS/NOTIFY_EMAIL and AGENDACAL_* variables
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		// First run: create default config file.
		if err := Save(path, DefaultConfig()); err != nil {
			return nil, err
		}
		data, err = yamlv3.Marshal(DefaultConfig())
		if err != nil {
			return nil, err
		}
	}

	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := k.Load(env.ProviderWithValue("", ".", func(key, value string) (string, interface{}) {
		target, ok := legacyEnv[key]
		if !ok || value == "" {
			return "", nil
		}
		return target, value
	}), nil); err != nil {
		return nil, fmt.Errorf("config: legacy env: %w", err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("config: env: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	cfg.Normalize()

	return &cfg, nil
}

// envKey maps AGENDACAL_SECTION_FIELD_NAME to section.field_name. Top-level
// keys (AGENDACAL_TIMEZONE, AGENDACAL_LOG_LEVEL, ...) are kept flat.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	for _, section := range []string{"basic_auth", "calendar", "notify"} {
		if rest, ok := strings.CutPrefix(lower, section+"_"); ok {
			return section + "." + rest
		}
	}
	return lower
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yamlv3.Marshal(cfg)
	if err != nil {
		return err
	}

	return WriteFileAtomic(path, data)
}

// WriteFileAtomic writes data to a temp file in the target directory, syncs
// it, sets 0600 and renames it over path.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".agendacal-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	// Flush and close before chmod/rename.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
