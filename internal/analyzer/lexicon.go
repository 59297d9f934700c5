// internal/analyzer/lexicon.go
package analyzer

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed lexicon/es.yaml
var embeddedLexicon []byte

// Required names. A lexicon missing any of them is rejected.
var (
	RequiredCategories    = []string{"places", "people", "emotions", "actions", "objects", "colors", "animals"}
	RequiredEmotionGroups = []string{"fear", "joy", "sadness", "anger", "surprise", "peace"}
	RequiredPatterns      = []string{"falling", "flying", "being-chased", "water", "death", "nudity", "exam", "teeth"}
)

type lexiconFile struct {
	Categories    []wordGroupFile      `yaml:"categories"`
	EmotionGroups []wordGroupFile      `yaml:"emotion_groups"`
	Patterns      []patternFile        `yaml:"patterns"`
	Stopwords     []string             `yaml:"stopwords"`
	Polarity      map[string][]float64 `yaml:"polarity"`
	Intensifiers  map[string]float64   `yaml:"intensifiers"`
	Negators      []string             `yaml:"negators"`
	VaderBridge   map[string]string    `yaml:"vader_bridge"`
}

type wordGroupFile struct {
	Name  string   `yaml:"name"`
	Words []string `yaml:"words"`
}

type patternFile struct {
	Name string `yaml:"name"`
	Rule string `yaml:"rule"`
}

// WordGroup is a named ordered set of member words
type WordGroup struct {
	name  string
	words []string
	set   map[string]struct{}
}

func (g *WordGroup) Name() string { return g.name }

// Words returns a copy of the member words in lexicon order
func (g *WordGroup) Words() []string {
	out := make([]string, len(g.words))
	copy(out, g.words)
	return out
}

func (g *WordGroup) Contains(word string) bool {
	_, ok := g.set[word]
	return ok
}

// Pattern is a named narrative motif with its compiled rule
type Pattern struct {
	name string
	re   *regexp.Regexp
}

func (p *Pattern) Name() string { return p.name }

// PolarityEntry is the prior polarity and subjectivity of a word
type PolarityEntry struct {
	Polarity     float64
	Subjectivity float64
}

// Lexicon is the immutable vocabulary shared by every analysis
type Lexicon struct {
	categories    []*WordGroup
	emotionGroups []*WordGroup
	patterns      []*Pattern
	stopwords     map[string]struct{}
	polarity      map[string]PolarityEntry
	intensifiers  map[string]float64
	negators      map[string]struct{}
	bridge        map[string]string
}

var (
	defaultLexicon     *Lexicon
	defaultLexiconErr  error
	defaultLexiconOnce sync.Once
)

// DefaultLexicon returns the embedded Spanish lexicon, parsed once
func DefaultLexicon() (*Lexicon, error) {
	defaultLexiconOnce.Do(func() {
		defaultLexicon, defaultLexiconErr = ParseLexicon(embeddedLexicon)
	})
	return defaultLexicon, defaultLexiconErr
}

// LoadLexicon reads a lexicon file. An empty path yields the embedded lexicon.
func LoadLexicon(path string) (*Lexicon, error) {
	if path == "" {
		return DefaultLexicon()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon %s: %w", path, err)
	}
	lex, err := ParseLexicon(data)
	if err != nil {
		return nil, fmt.Errorf("lexicon %s: %w", path, err)
	}
	return lex, nil
}

// ParseLexicon decodes and validates lexicon YAML
func ParseLexicon(data []byte) (*Lexicon, error) {
	var file lexiconFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse lexicon: %w", err)
	}

	lex := &Lexicon{
		stopwords:    make(map[string]struct{}, len(file.Stopwords)),
		polarity:     make(map[string]PolarityEntry, len(file.Polarity)),
		intensifiers: make(map[string]float64, len(file.Intensifiers)),
		negators:     make(map[string]struct{}, len(file.Negators)),
		bridge:       make(map[string]string, len(file.VaderBridge)),
	}

	var err error
	if lex.categories, err = buildGroups("category", file.Categories, RequiredCategories); err != nil {
		return nil, err
	}
	if lex.emotionGroups, err = buildGroups("emotion group", file.EmotionGroups, RequiredEmotionGroups); err != nil {
		return nil, err
	}
	if lex.patterns, err = buildPatterns(file.Patterns); err != nil {
		return nil, err
	}

	for _, w := range file.Stopwords {
		lex.stopwords[normalizeWord(w)] = struct{}{}
	}
	for w, pair := range file.Polarity {
		if len(pair) != 2 {
			return nil, fmt.Errorf("polarity entry %q: want [polarity, subjectivity], got %v", w, pair)
		}
		if pair[0] < -1 || pair[0] > 1 || pair[1] < 0 || pair[1] > 1 {
			return nil, fmt.Errorf("polarity entry %q out of range: %v", w, pair)
		}
		lex.polarity[normalizeWord(w)] = PolarityEntry{Polarity: pair[0], Subjectivity: pair[1]}
	}
	for w, m := range file.Intensifiers {
		if m <= 0 {
			return nil, fmt.Errorf("intensifier %q must be positive, got %v", w, m)
		}
		lex.intensifiers[normalizeWord(w)] = m
	}
	for _, w := range file.Negators {
		lex.negators[normalizeWord(w)] = struct{}{}
	}
	for es, en := range file.VaderBridge {
		lex.bridge[normalizeWord(es)] = strings.ToLower(strings.TrimSpace(en))
	}
	return lex, nil
}

func buildGroups(kind string, groups []wordGroupFile, required []string) ([]*WordGroup, error) {
	out := make([]*WordGroup, 0, len(groups))
	seen := make(map[string]bool, len(groups))
	for _, g := range groups {
		if g.Name == "" {
			return nil, fmt.Errorf("%s without a name", kind)
		}
		if seen[g.Name] {
			return nil, fmt.Errorf("duplicate %s %q", kind, g.Name)
		}
		seen[g.Name] = true

		group := &WordGroup{name: g.Name, set: make(map[string]struct{}, len(g.Words))}
		for _, w := range g.Words {
			w = normalizeWord(w)
			if w == "" {
				continue
			}
			if _, dup := group.set[w]; dup {
				continue
			}
			group.set[w] = struct{}{}
			group.words = append(group.words, w)
		}
		if len(group.words) == 0 {
			return nil, fmt.Errorf("%s %q has no words", kind, g.Name)
		}
		out = append(out, group)
	}
	for _, name := range required {
		if !seen[name] {
			return nil, fmt.Errorf("missing %s %q", kind, name)
		}
	}
	return out, nil
}

func buildPatterns(patterns []patternFile) ([]*Pattern, error) {
	out := make([]*Pattern, 0, len(patterns))
	seen := make(map[string]bool, len(patterns))
	for _, p := range patterns {
		if p.Name == "" || strings.TrimSpace(p.Rule) == "" {
			return nil, fmt.Errorf("pattern %q needs a name and a rule", p.Name)
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("duplicate pattern %q", p.Name)
		}
		seen[p.Name] = true

		re, err := compileRule(p.Rule)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", p.Name, err)
		}
		out = append(out, &Pattern{name: p.Name, re: re})
	}
	for _, name := range RequiredPatterns {
		if !seen[name] {
			return nil, fmt.Errorf("missing pattern %q", name)
		}
	}
	return out, nil
}

// Categories returns the semantic categories in lexicon order
func (l *Lexicon) Categories() []*WordGroup {
	return append([]*WordGroup(nil), l.categories...)
}

// EmotionGroups returns the emotion groups in lexicon order
func (l *Lexicon) EmotionGroups() []*WordGroup {
	return append([]*WordGroup(nil), l.emotionGroups...)
}

// Patterns returns the narrative patterns in lexicon order
func (l *Lexicon) Patterns() []*Pattern {
	return append([]*Pattern(nil), l.patterns...)
}

func (l *Lexicon) CategoryNames() []string {
	return groupNames(l.categories)
}

func (l *Lexicon) EmotionGroupNames() []string {
	return groupNames(l.emotionGroups)
}

func (l *Lexicon) PatternNames() []string {
	out := make([]string, len(l.patterns))
	for i, p := range l.patterns {
		out[i] = p.name
	}
	return out
}

// Category looks a category up by name
func (l *Lexicon) Category(name string) (*WordGroup, bool) {
	for _, g := range l.categories {
		if g.name == name {
			return g, true
		}
	}
	return nil, false
}

func (l *Lexicon) IsStopword(word string) bool {
	_, ok := l.stopwords[word]
	return ok
}

func (l *Lexicon) Polarity(word string) (PolarityEntry, bool) {
	e, ok := l.polarity[word]
	return e, ok
}

// Intensifier returns the multiplier of an intensifier word
func (l *Lexicon) Intensifier(word string) (float64, bool) {
	m, ok := l.intensifiers[word]
	return m, ok
}

func (l *Lexicon) IsNegator(word string) bool {
	_, ok := l.negators[word]
	return ok
}

// Bridge returns the English counterpart of a Spanish affect word
func (l *Lexicon) Bridge(word string) (string, bool) {
	en, ok := l.bridge[word]
	return en, ok
}

func groupNames(groups []*WordGroup) []string {
	out := make([]string, len(groups))
	for i, g := range groups {
		out[i] = g.name
	}
	return out
}
