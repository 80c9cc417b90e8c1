package spanish

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFold(t *testing.T) {
	// "n" + combining tilde, "e" + combining acute.
	decomposed := "Man\u0303ana Que\u0301"
	assert.Equal(t, "mañana qué", Fold(decomposed))
	assert.Equal(t, "ver agenda", Fold("VER Agenda"))
}

func TestHasWord(t *testing.T) {
	assert.True(t, HasWord("qué debo hacer hoy?", "hoy"))
	assert.True(t, HasWord("qué debo hacer hoy?", "qué debo hacer"))
	assert.False(t, HasWord("choyo", "hoy"))
	assert.True(t, HasWord("mañana", "mañana"))
	assert.False(t, HasWord("mañanas", "mañana"))
}

func TestHasWordPrefix(t *testing.T) {
	assert.True(t, HasWordPrefix("ponme una cita", "pon"))
	assert.False(t, HasWordPrefix("responder correo", "pon"))
	assert.True(t, HasWordPrefix("agendar reunión", "agenda"))
}

func TestWordRegexp(t *testing.T) {
	re := WordRegexp(`hoy|mañana`)
	assert.True(t, re.MatchString("para mañana?"))
	assert.False(t, re.MatchString("mañanas"))
}

func TestAlternation_LongestFirst(t *testing.T) {
	alt := Alternation(map[string]int{"a": 1, "abc": 2, "ab": 3})
	assert.Equal(t, "abc|ab|a", alt)
}
