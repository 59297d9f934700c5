package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func patternByName(t *testing.T, name string) *Pattern {
	t.Helper()
	for _, p := range mustDefaultLexicon(t).Patterns() {
		if p.Name() == name {
			return p
		}
	}
	t.Fatalf("pattern %q not found", name)
	return nil
}

func TestPatternMatchesInflections(t *testing.T) {
	cases := []struct {
		pattern string
		text    string
		want    []string
	}{
		{"flying", "volé sobre la ciudad y seguía volando", []string{"volé", "volando"}},
		{"being-chased", "ellos huían y me perseguía un perro", []string{"huían", "perseguía"}},
		{"falling", "la caída fue larga", []string{"caída"}},
		{"water", "mañana nadé en el mar", []string{"nadé", "mar"}},
		{"death", "alguien murió en el funeral", []string{"murió", "funeral"}},
		{"teeth", "se me caían los dientes", []string{"dientes"}},
	}
	for _, tc := range cases {
		got := patternByName(t, tc.pattern).FindAll(tc.text)
		assert.Equal(t, tc.want, got, "%s: %s", tc.pattern, tc.text)
	}
}

func TestPatternRequiresWholeWords(t *testing.T) {
	water := patternByName(t, "water")

	assert.Empty(t, water.FindAll("el camarón estaba en la marea"))
	// letters outside ASCII count as word characters
	assert.Empty(t, water.FindAll("añola"))
	assert.Empty(t, water.FindAll("olaño"))
	assert.Equal(t, []string{"mar", "mar"}, water.FindAll("mar mar"))
	assert.Empty(t, water.FindAll(""))
}

func TestDetectPatternsReportsEveryName(t *testing.T) {
	lex := mustDefaultLexicon(t)
	got := detectPatterns(lex, "un día tranquilo")

	require.Len(t, got, len(RequiredPatterns))
	for _, name := range RequiredPatterns {
		m, ok := got[name]
		require.True(t, ok, name)
		assert.False(t, m.Found, name)
		assert.Zero(t, m.Count, name)
		assert.NotNil(t, m.Matches, name)
	}
}
