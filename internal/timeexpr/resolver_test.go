package timeexpr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func guatemala(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Guatemala")
	require.NoError(t, err)
	return loc
}

func TestResolver_Combined(t *testing.T) {
	loc := guatemala(t)
	// Monday 2024-06-10 10:00.
	ref := time.Date(2024, 6, 10, 10, 0, 0, 0, loc)
	r := New(loc)

	tests := []struct {
		name  string
		input string
		want  string // "2006-01-02 15:04"
	}{
		{"mañana 3pm", "mañana a las 3pm", "2024-06-11 15:00"},
		{"sentence", "agenda una cita mañana a las 3pm con el dentista en zona 10 por 45 minutos", "2024-06-11 15:00"},
		{"numeric date and clock", "12/09 14:30", "2024-09-12 14:30"},
		{"numeric date with year", "3/1/2025 9:15", "2025-01-03 09:15"},
		{"two digit year", "3/1/25", "2025-01-03 00:00"},
		{"dot clock", "hoy a las 18.45", "2024-06-10 18:45"},
		{"pasado mañana", "pasado mañana a las 9", "2024-06-12 09:00"},
		{"de la tarde", "mañana a las 4 de la tarde", "2024-06-11 16:00"},
		{"y media", "mañana a las 5 y media de la tarde", "2024-06-11 17:30"},
		{"spelled hour", "el viernes a las tres de la tarde", "2024-06-14 15:00"},
		{"mañana por la mañana", "mañana por la mañana a las 8", "2024-06-11 08:00"},
		{"month name", "el 5 de julio a las 10:00", "2024-07-05 10:00"},
		{"month name with year", "15 de enero de 2025", "2025-01-15 00:00"},
		{"12am", "mañana 12am", "2024-06-11 00:00"},
		{"12pm", "mañana 12 pm", "2024-06-11 12:00"},
		{"p.m.", "hoy 7 p.m.", "2024-06-10 19:00"},
		{"mediodía", "mañana al mediodía", "2024-06-11 12:00"},
		{"next week", "la próxima semana a las 11:00", "2024-06-17 11:00"},
		{"in days", "en 3 días a las 9:30", "2024-06-13 09:30"},
		{"uppercase", "MAÑANA A LAS 3PM", "2024-06-11 15:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(tt.input, ref)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Format("2006-01-02 15:04"))
			assert.Equal(t, loc, got.Location())
		})
	}
}

func TestResolver_FutureBias(t *testing.T) {
	loc := guatemala(t)
	// Monday 2024-06-10 16:00.
	ref := time.Date(2024, 6, 10, 16, 0, 0, 0, loc)
	r := New(loc)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"clock already passed rolls to tomorrow", "a las 3pm", "2024-06-11 15:00"},
		{"clock still ahead stays today", "a las 17:00", "2024-06-10 17:00"},
		{"explicit today is kept", "hoy a las 3pm", "2024-06-10 15:00"},
		{"bare weekday is next occurrence", "el miércoles", "2024-06-12 00:00"},
		{"same weekday without clock is next week", "lunes", "2024-06-17 00:00"},
		{"same weekday passed clock", "lunes a las 9", "2024-06-17 09:00"},
		{"same weekday future clock", "lunes a las 18:00", "2024-06-10 18:00"},
		{"próximo forces next week", "el próximo lunes a las 18:00", "2024-06-17 18:00"},
		{"past day/month goes to next year", "12/03 14:30", "2025-03-12 14:30"},
		{"today's date with passed clock goes to next year", "10/06 09:00", "2025-06-10 09:00"},
		{"today's date without clock stays", "10/06", "2024-06-10 00:00"},
		{"sábado without accent", "el sabado a las 10", "2024-06-15 10:00"},
		{"decimal hours are not a clock", "revisión mañana de 2.30 horas", "2024-06-11 16:00"},
		{"clock followed by horas", "mañana a las 15.30 horas", "2024-06-11 15:30"},
		{"fraction of an hour is not a date", "cita mañana por 1/2 hora", "2024-06-11 16:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(tt.input, ref)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Format("2006-01-02 15:04"))
		})
	}
}

func TestResolver_RelativeKeepsReferenceClock(t *testing.T) {
	loc := guatemala(t)
	ref := time.Date(2024, 6, 10, 10, 17, 42, 0, loc)
	r := New(loc)

	got, err := r.Resolve("qué tareas tengo para mañana?", ref)
	require.NoError(t, err)
	assert.Equal(t, "2024-06-11 10:17:00", got.Format("2006-01-02 15:04:05"))
}

func TestResolver_Offsets(t *testing.T) {
	loc := guatemala(t)
	ref := time.Date(2024, 6, 10, 10, 0, 30, 0, loc)
	r := New(loc)

	got, err := r.Resolve("recuérdame dentro de 2 horas", ref)
	require.NoError(t, err)
	assert.Equal(t, "2024-06-10 12:00", got.Format("2006-01-02 15:04"))

	got, err = r.Resolve("en 30 minutos", ref)
	require.NoError(t, err)
	assert.Equal(t, "2024-06-10 10:30", got.Format("2006-01-02 15:04"))
}

func TestResolver_Unparseable(t *testing.T) {
	loc := guatemala(t)
	ref := time.Date(2024, 6, 10, 10, 0, 0, 0, loc)
	r := New(loc)

	inputs := []string{
		"",
		"hola, cómo estás",
		"ver mi agenda",
		"reunión en zona 10",
		"31/02",
		"25:00",
		"13pm",
		"12/13",
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			_, err := r.Resolve(in, ref)
			assert.ErrorIs(t, err, ErrUnparseable)
		})
	}
}

func TestResolver_OutputInConfiguredZone(t *testing.T) {
	loc := guatemala(t)
	r := New(loc)
	// 2024-06-11 03:00 UTC is still 2024-06-10 21:00 in Guatemala.
	ref := time.Date(2024, 6, 11, 3, 0, 0, 0, time.UTC)

	got, err := r.Resolve("hoy a las 22:00", ref)
	require.NoError(t, err)
	assert.Equal(t, loc, got.Location())
	assert.Equal(t, "2024-06-10 22:00", got.Format("2006-01-02 15:04"))
}

func TestResolver_RoundTripAcrossYear(t *testing.T) {
	loc := guatemala(t)
	r := New(loc)

	for _, ref := range []time.Time{
		time.Date(2024, 1, 5, 8, 0, 0, 0, loc),
		time.Date(2024, 11, 20, 8, 0, 0, 0, loc),
	} {
		got, err := r.Resolve("12/09 14:30", ref)
		require.NoError(t, err)
		assert.Equal(t, time.September, got.Month())
		assert.Equal(t, 12, got.Day())
		assert.Equal(t, 14, got.Hour())
		assert.Equal(t, 30, got.Minute())
		assert.False(t, got.Before(ref))
		assert.LessOrEqual(t, got.Year()-ref.Year(), 1)
	}
}
