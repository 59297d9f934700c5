package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"", ""},
		{"   ", ""},
		{"¡Hola, Mundo!  Soñé   con el MAR.", "hola mundo soñé con el mar"},
		{"casa-árbol", "casa árbol"},
		{"Volé muy alto", "volé muy alto"},
		{"Tengo 3 perros_grandes!!", "tengo 3 perros_grandes"},
		{"\tÑandú\n\nAZUL ", "ñandú azul"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Normalize(tc.in), tc.in)
	}
}

func TestWords(t *testing.T) {
	assert.Empty(t, Words(""))
	assert.Equal(t, []string{"el", "mar"}, Words("el mar"))
}

func TestSentences(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"", 0},
		{"  ...  ", 0},
		{"sin puntuación al final", 1},
		{"Hola. ¿Qué tal? ¡Bien!", 3},
		{"El Dr. Pérez llegó. Luego se fue.", 2},
		{"Pasaron 3.5 horas... y desperté.", 2},
		{"Vi a J. Martínez en la playa.", 1},
		{"¿Dónde estaba?! No lo sé…", 2},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CountSentences(tc.text), tc.text)
	}
}

func TestProperNounCandidatesSkipSentenceStarts(t *testing.T) {
	got := properNounCandidates(Sentences("Ayer vi a Lucía. Madrid estaba vacía, y Lucía lloraba."))
	assert.Contains(t, got, "lucía")
	assert.NotContains(t, got, "madrid")
	assert.NotContains(t, got, "ayer")
}
