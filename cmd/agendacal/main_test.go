package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "agendacal.yaml")
	cfgYAML := "timezone: America/Guatemala\ncalendar:\n  ics_path: " + filepath.Join(dir, "agenda.ics") +
		"\n  cache_dir: " + filepath.Join(dir, "cache") + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfgYAML), 0o600))

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestParseCommand(t *testing.T) {
	out, err := execute(t, "", "parse", "qué", "tareas", "tengo", "para", "mañana?")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "list_tomorrow", got["intent"])
	assert.Contains(t, got, "range")
}

func TestParseCommand_RequiresText(t *testing.T) {
	_, err := execute(t, "", "parse")
	assert.Error(t, err)
}

func TestAgendaCommand_Empty(t *testing.T) {
	out, err := execute(t, "", "agenda", "semana")
	require.NoError(t, err)
	assert.Contains(t, out, "No tienes eventos en ese rango")
}

func TestAgendaCommand_BadWhen(t *testing.T) {
	out, err := execute(t, "", "agenda", "nunca")
	assert.Error(t, err)
	assert.Contains(t, out, "error:")
}

func TestChatIsDefault(t *testing.T) {
	out, err := execute(t, "salir\n")
	require.NoError(t, err)
	assert.Contains(t, out, "Asistente de agenda")
	assert.Contains(t, out, "Hasta luego")
}

func TestInvalidTimezoneFlag(t *testing.T) {
	_, err := execute(t, "", "--tz", "Mars/Olympus", "parse", "hoy")
	assert.ErrorContains(t, err, "invalid timezone")
}
