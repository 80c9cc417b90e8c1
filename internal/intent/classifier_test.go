package intent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agendacal/internal/model"
	"agendacal/internal/timeexpr"
)

func newClassifier(t *testing.T) (*Classifier, time.Time) {
	t.Helper()
	loc, err := time.LoadLocation("America/Guatemala")
	require.NoError(t, err)
	// Monday.
	return NewDefault(timeexpr.New(loc)), time.Date(2024, 6, 10, 10, 0, 0, 0, loc)
}

func TestClassify(t *testing.T) {
	c, ref := newClassifier(t)

	tests := []struct {
		input    string
		want     model.Intent
		wantRule string
	}{
		{"qué debo hacer hoy?", model.IntentListToday, "list"},
		{"qué debo hacer hoy a las 3pm", model.IntentListToday, "list"},
		{"qué tareas tengo para mañana?", model.IntentListTomorrow, "list"},
		{"que tareas tengo manana", model.IntentListTomorrow, "list"},
		{"ver mi agenda de esta semana", model.IntentListWeek, "list"},
		{"Qué hay en las próximas semanas", model.IntentListWeek, "list"},
		{"lista", model.IntentListToday, "list"},
		{"agenda hoy", model.IntentListToday, "list"},
		{"agenda de mañana", model.IntentListTomorrow, "list"},
		{"QUÉ DEBO HACER HOY", model.IntentListToday, "list"},
		{"qué hay mañana por la mañana", model.IntentListTomorrow, "list"},
		{"agenda una cita mañana a las 3pm con el dentista en zona 10 por 45 minutos", model.IntentCreateEvent, "create-keyword"},
		{"ponme una reunión el lunes", model.IntentCreateEvent, "create-keyword"},
		{"programar llamada con Ana", model.IntentCreateEvent, "create-keyword"},
		{"Calendariza la revisión", model.IntentCreateEvent, "create-keyword"},
		{"dentista 12/09 14:30", model.IntentCreateEvent, "create-pattern"},
		{"cena 8pm", model.IntentCreateEvent, "create-pattern"},
		{"gimnasio 7.30", model.IntentCreateEvent, "create-pattern"},
		{"responder correos", model.IntentUnknown, ""},
		{"hola", model.IntentUnknown, ""},
		{"", model.IntentUnknown, ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := c.Classify(tt.input, ref)
			assert.Equal(t, tt.want, got.Intent)
			assert.Equal(t, tt.wantRule, got.Rule)
		})
	}
}

func TestClassify_ListDate(t *testing.T) {
	c, ref := newClassifier(t)

	got := c.Classify("qué hay el viernes", ref)
	assert.Equal(t, model.IntentListDate, got.Intent)
	assert.Equal(t, "2024-06-14", got.Date.Format("2006-01-02"))

	got = c.Classify("qué hay el viernes por la mañana", ref)
	assert.Equal(t, model.IntentListDate, got.Intent)
	assert.Equal(t, "2024-06-14", got.Date.Format("2006-01-02"))

	got = c.Classify("qué tareas tengo el 12/09", ref)
	assert.Equal(t, model.IntentListDate, got.Intent)
	assert.Equal(t, "2024-09-12", got.Date.Format("2006-01-02"))
}

func TestClassify_ListBeatsClockTime(t *testing.T) {
	c, ref := newClassifier(t)

	got := c.Classify("qué debo hacer hoy a las 3pm", ref)
	assert.True(t, got.Intent.IsList())
	assert.NotEqual(t, model.IntentCreateEvent, got.Intent)
}

func TestDefaultRules_Order(t *testing.T) {
	c, _ := newClassifier(t)
	assert.Equal(t, []string{"list", "create-keyword", "create-pattern"}, c.Rules())
}

func TestClassifier_FirstMatchWins(t *testing.T) {
	always := func(i model.Intent) func(string, time.Time) (Classification, bool) {
		return func(string, time.Time) (Classification, bool) {
			return Classification{Intent: i}, true
		}
	}
	c := New([]Rule{
		{Name: "first", Match: always(model.IntentListWeek)},
		{Name: "second", Match: always(model.IntentCreateEvent)},
	})

	got := c.Classify("cualquier cosa", time.Now())
	assert.Equal(t, model.IntentListWeek, got.Intent)
	assert.Equal(t, "first", got.Rule)
}

func TestClassify_WordBoundaries(t *testing.T) {
	c, ref := newClassifier(t)

	// "pon" inside "responder" and "crea" inside "recrea" are not verbs.
	assert.Equal(t, model.IntentUnknown, c.Classify("responder al cliente", ref).Intent)
	assert.Equal(t, model.IntentUnknown, c.Classify("se recrea la escena", ref).Intent)
	// "que hay" inside "porque hay" is not a list phrase.
	assert.Equal(t, model.IntentUnknown, c.Classify("porque hay tráfico", ref).Intent)
}
