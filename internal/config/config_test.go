package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FirstRunWritesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "America/Guatemala", cfg.Timezone)
	assert.Equal(t, 60, cfg.DefaultDurationMinutes)
	assert.Equal(t, BackendICS, cfg.Calendar.Backend)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoad_NormalizesPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("timezone: Europe/Madrid\ncalendar:\n  backend: carrier-pigeon\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Europe/Madrid", cfg.Timezone)
	assert.Equal(t, BackendICS, cfg.Calendar.Backend)
	assert.Equal(t, 587, cfg.Notify.SMTPPort)
	assert.Equal(t, "primary", cfg.Calendar.CalendarID)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("notify:\n  sender_email: file@example.com\n"), 0o600))

	t.Setenv("NOTIFY_EMAIL", "legacy@example.com")
	t.Setenv("AGENDACAL_NOTIFY_SENDER_PASS", "s3cret")
	t.Setenv("AGENDACAL_DEFAULT_DURATION_MINUTES", "30")
	t.Setenv("AGENDACAL_CALENDAR_BACKEND", "google")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "file@example.com", cfg.Notify.SenderEmail)
	assert.Equal(t, "legacy@example.com", cfg.Notify.Recipient)
	assert.Equal(t, "s3cret", cfg.Notify.SenderPass)
	assert.Equal(t, 30, cfg.DefaultDurationMinutes)
	assert.Equal(t, BackendGoogle, cfg.Calendar.Backend)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "notify.sender_pass", envKey("AGENDACAL_NOTIFY_SENDER_PASS"))
	assert.Equal(t, "calendar.ics_path", envKey("AGENDACAL_CALENDAR_ICS_PATH"))
	assert.Equal(t, "basic_auth.username", envKey("AGENDACAL_BASIC_AUTH_USERNAME"))
	assert.Equal(t, "log_level", envKey("AGENDACAL_LOG_LEVEL"))
}

func TestSettings(t *testing.T) {
	cfg := DefaultConfig()
	s, err := cfg.Settings()
	require.NoError(t, err)
	assert.Equal(t, "America/Guatemala", s.Location.String())
	assert.Equal(t, 60, s.DefaultDurationMinutes)

	cfg.Timezone = "Mars/Olympus_Mons"
	_, err = cfg.Settings()
	assert.Error(t, err)
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.Calendar.Subscriptions = []ICSConfig{{ID: "work", URL: "https://example.com/work.ics"}}
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Len(t, loaded.Calendar.Subscriptions, 1)
	assert.Equal(t, "work", loaded.Calendar.Subscriptions[0].ID)
}
