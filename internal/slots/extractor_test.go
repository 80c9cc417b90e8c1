package slots

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agendacal/internal/timeexpr"
)

func newExtractor(t *testing.T) (*Extractor, time.Time) {
	t.Helper()
	loc, err := time.LoadLocation("America/Guatemala")
	require.NoError(t, err)
	return New(timeexpr.New(loc)), time.Date(2024, 6, 10, 10, 0, 0, 0, loc)
}

func TestExtract_Scenario(t *testing.T) {
	e, ref := newExtractor(t)

	ev := e.Extract("agenda una cita mañana a las 3pm con el dentista en zona 10 por 45 minutos", ref)

	assert.Equal(t, "el dentista", ev.Title)
	assert.Equal(t, "zona 10", ev.Location)
	assert.Equal(t, 45, ev.DurationMinutes)
	assert.Equal(t, "2024-06-11 15:00", ev.Start.Format("2006-01-02 15:04"))
	assert.True(t, ev.End.IsZero())
}

func TestExtract_Idempotent(t *testing.T) {
	e, ref := newExtractor(t)
	text := "reunión con Ana el viernes a las 10 en la oficina, 2 horas"

	first := e.Extract(text, ref)
	second := e.Extract(text, ref)
	assert.Equal(t, first, second)
}

func TestExtract_NoStructure(t *testing.T) {
	e, ref := newExtractor(t)

	ev := e.Extract("hola", ref)
	assert.Equal(t, "hola", ev.Title)
	assert.Empty(t, ev.Location)
	assert.Zero(t, ev.DurationMinutes)
	assert.True(t, ev.Start.IsZero())
	assert.False(t, ev.Complete())
}

func TestDuration(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"minutes", "por 45 minutos", 45},
		{"short minutes", "30min de llamada", 30},
		{"hours", "durante 2 horas", 120},
		{"minutes win over hours", "30 min de repaso y luego 2 horas de clase", 30},
		{"minutes win even when later", "2 horas o quizá 30 min", 30},
		{"hour and a half", "1 hora y media", 90},
		{"half hour", "por media hora", 30},
		{"start offset is not a duration", "en 30 minutos llamar a mamá", 0},
		{"offset then real duration", "dentro de 2 horas, reunión por 15 minutos", 15},
		{"none", "mañana a las 3pm", 0},
		{"decimal hours are ignored", "revisión de 2.30 horas", 0},
		{"fraction of an hour", "cita mañana por 1/2 hora", 30},
		{"uppercase", "POR 20 MINUTOS", 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Duration(tt.input))
		})
	}
}

func TestLocation(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"up to next slot phrase", "cita con el dentista en zona 10 por 45 minutos", "zona 10"},
		{"clause boundary", "reunión en la oficina, mañana a las 9", "la oficina"},
		{"stops at clock phrase", "almuerzo en casa a las 2", "casa"},
		{"stops at connector", "estudio en la biblioteca con Pedro", "la biblioteca"},
		{"first match only", "en Antigua. luego en Xela", "Antigua"},
		{"skips time offsets", "en 2 horas café en El Injerto", "El Injerto"},
		{"skips day periods", "mañana en la tarde gimnasio", ""},
		{"case insensitive", "Junta EN Sala B.", "Sala B"},
		{"no location", "llamar a Juan", ""},
		{"not inside words", "agenda entrenamiento", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Location(tt.input))
		})
	}
}

func TestTitle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"connector con", "agenda una cita con el dentista", "el dentista"},
		{"cuts location and duration", "cita con el dentista en zona 10 por 45 minutos", "el dentista"},
		{"cuts date words", "reunión con Ana mañana a las 10", "Ana"},
		{"cuts weekday", "llamada sobre el presupuesto el próximo lunes", "el presupuesto"},
		{"skips empty connector", "agenda algo para mañana a las 3 con el equipo", "el equipo"},
		{"trailing punctuation", "café con Lucía?", "Lucía"},
		{"fallback first 30 runes", "revisión anual del auto mañana a las 9 en el taller", "revisión anual del auto mañana"},
		{"fallback trims first", "   Ir al médico urgente mañana 3pm  ", "Ir al médico urgente mañana 3p"},
		{"fallback short text", "  dentista  ", "dentista"},
		{"connector only time", "para mañana", "para mañana"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Title(tt.input)
			assert.Equal(t, tt.want, got)
			assert.NotEmpty(t, got)
		})
	}
}
