// internal/analyzer/tagger.go
package analyzer

import (
	"strings"
	"unicode"

	"github.com/kljensen/snowball"
)

// Tag is a Penn-style part-of-speech tag
type Tag string

const (
	TagNoun         Tag = "NN"
	TagNounPlural   Tag = "NNS"
	TagProperNoun   Tag = "NNP"
	TagVerb         Tag = "VB"
	TagVerbPast     Tag = "VBD"
	TagVerbGerund   Tag = "VBG"
	TagVerbParticle Tag = "VBN"
	TagVerbPresent  Tag = "VBP"
	TagAdjective    Tag = "JJ"
	TagAdverb       Tag = "RB"
	TagDeterminer   Tag = "DT"
	TagPreposition  Tag = "IN"
	TagPronoun      Tag = "PRP"
	TagConjunction  Tag = "CC"
	TagNumber       Tag = "CD"
	TagOther        Tag = "OTHER"
)

func (t Tag) IsNoun() bool      { return strings.HasPrefix(string(t), "NN") }
func (t Tag) IsProper() bool    { return t == TagProperNoun }
func (t Tag) IsVerb() bool      { return strings.HasPrefix(string(t), "VB") }
func (t Tag) IsAdjective() bool { return strings.HasPrefix(string(t), "JJ") }

// TaggedToken pairs a normalized token with its tag
type TaggedToken struct {
	Word string
	Tag  Tag
}

// Tagger assigns part-of-speech tags to normalized tokens. The original text
// is available for cues lost in normalization, such as capitalization.
type Tagger interface {
	Tag(tokens []string, original string) []TaggedToken
}

var closedClass = map[string]Tag{}

func init() {
	add := func(tag Tag, words string) {
		for _, w := range strings.Fields(words) {
			closedClass[w] = tag
		}
	}
	add(TagDeterminer, "el la los las un una unos unas lo este esta estos estas ese esa esos esas aquel aquella aquellos aquellas "+
		"mi mis tu tus su sus nuestro nuestra nuestros nuestras vuestro vuestra cada otro otra otros otras todo toda todos todas "+
		"algún alguna algunos algunas ningún ninguna varios varias cualquier")
	add(TagPreposition, "a al ante bajo con contra de del desde durante en entre hacia hasta mediante para por según sin sobre tras")
	add(TagPronoun, "yo tú él ella ello nosotros nosotras vosotros vosotras ellos ellas usted ustedes me te se nos os le les "+
		"mí ti conmigo contigo consigo que quien quienes cual cuales alguien nadie algo nada esto eso aquello")
	add(TagConjunction, "y e o u ni pero sino aunque mientras porque pues cuando si como donde entonces")
	add(TagAdverb, "no sí muy mucho poco también tampoco ya aún todavía siempre nunca jamás luego después antes ahora aquí allí "+
		"allá ahí cerca lejos bien mal más menos tan tanto casi solo sólo apenas quizá quizás además demasiado bastante arriba abajo "+
		"dentro fuera adelante atrás pronto tarde temprano despacio deprisa así")
	add(TagNumber, "uno dos tres cuatro cinco seis siete ocho nueve diez once doce veinte cien mil primero primera segundo tercera")
	add(TagVerbPresent, "es son soy eres somos está están estoy estás estamos hay tengo tiene tienen tenemos puedo puede pueden "+
		"quiero quiere sé sabe veo ve voy va van vamos hago hace siento sueño")
	add(TagVerbPast, "era eran fue fueron fui fuimos estaba estaban estuve estuvo había habían hubo tenía tenían tuve tuvo "+
		"podía podían pude pudo quería querían quise sabía supe vi vio veía iba iban hice hizo hacía dije dijo decía sentí sintió "+
		"sentía soñé soñaba")
	add(TagVerb, "ser estar haber tener poder querer saber ver ir hacer decir sentir dar venir salir")
	add(TagVerbParticle, "sido estado habido tenido podido querido sabido visto ido hecho dicho sentido dado venido salido")
}

// verb endings used when the stem is a known verb
var (
	gerundSuffixes     = []string{"ando", "iendo", "yendo"}
	participleSuffixes = []string{"ado", "ada", "ados", "adas", "ido", "ida", "idos", "idas"}
	infinitiveSuffixes = []string{"ar", "er", "ir", "arse", "erse", "irse"}
	pastSuffixes       = []string{"aba", "abas", "ábamos", "aban", "ía", "ías", "íamos", "ían", "é", "ó", "aste", "amos", "aron", "í", "iste", "ió", "imos", "ieron"}
	adverbSuffixes     = []string{"mente"}
	adjectiveSuffixes  = []string{"oso", "osa", "osos", "osas", "ble", "bles", "ivo", "iva", "ivos", "ivas", "ico", "ica", "icos", "icas", "ante", "antes", "ente", "entes"}
	nounSuffixes       = []string{"ción", "sión", "dad", "tad", "miento", "eza", "ura", "aje", "ismo", "ista"}
)

// RuleTagger is a Spanish tagger built from closed-class word lists, the
// lexicon vocabulary and suffix rules
type RuleTagger struct {
	verbStems  map[string]struct{}
	nouns      map[string]struct{}
	adjectives map[string]struct{}
}

// NewRuleTagger derives its open-class vocabulary from lex: the actions
// category feeds the verb stems, colors are adjectives, the remaining
// categories and emotion groups are nouns.
func NewRuleTagger(lex *Lexicon) *RuleTagger {
	t := &RuleTagger{
		verbStems:  make(map[string]struct{}),
		nouns:      make(map[string]struct{}),
		adjectives: make(map[string]struct{}),
	}
	for _, g := range lex.Categories() {
		for _, w := range g.Words() {
			switch g.Name() {
			case "actions":
				t.verbStems[Stem(w)] = struct{}{}
			case "colors":
				t.adjectives[w] = struct{}{}
			default:
				t.nouns[w] = struct{}{}
			}
		}
	}
	for _, g := range lex.EmotionGroups() {
		for _, w := range g.Words() {
			if hasSuffix(w, adjectiveSuffixes) || hasSuffix(w, participleSuffixes) {
				t.adjectives[w] = struct{}{}
				continue
			}
			t.nouns[w] = struct{}{}
		}
	}
	return t
}

// Stem returns the Spanish Snowball stem of a word, or the word itself
func Stem(word string) string {
	stemmed, err := snowball.Stem(word, "spanish", true)
	if err != nil || stemmed == "" {
		return word
	}
	return stemmed
}

func (t *RuleTagger) Tag(tokens []string, original string) []TaggedToken {
	proper := properNounCandidates(Sentences(original))
	out := make([]TaggedToken, len(tokens))
	for i, w := range tokens {
		out[i] = TaggedToken{Word: w, Tag: t.tagWord(w, proper)}
	}
	t.applyContext(out)
	return out
}

func (t *RuleTagger) tagWord(w string, proper map[string]struct{}) Tag {
	if isNumber(w) {
		return TagNumber
	}
	if tag, ok := closedClass[w]; ok {
		return tag
	}
	if _, ok := proper[w]; ok {
		return TagProperNoun
	}
	if _, ok := t.adjectives[w]; ok {
		return TagAdjective
	}
	if _, ok := t.nouns[w]; ok {
		if strings.HasSuffix(w, "s") {
			return TagNounPlural
		}
		return TagNoun
	}
	if _, ok := t.verbStems[Stem(w)]; ok {
		return verbForm(w)
	}

	switch {
	case hasSuffix(w, adverbSuffixes):
		return TagAdverb
	case hasSuffix(w, gerundSuffixes):
		return TagVerbGerund
	case len([]rune(w)) > 3 && hasSuffix(w, []string{"ar", "er", "ir"}):
		return TagVerb
	case hasSuffix(w, []string{"aba", "aban", "ábamos", "ían", "ió", "aron", "ieron"}):
		return TagVerbPast
	case hasSuffix(w, nounSuffixes):
		return TagNoun
	case hasSuffix(w, adjectiveSuffixes):
		return TagAdjective
	case strings.HasSuffix(w, "s") && len([]rune(w)) > 3:
		return TagNounPlural
	case isAlphaWord(w):
		return TagNoun
	}
	return TagOther
}

// applyContext fixes tags that depend on the neighbouring word
func (t *RuleTagger) applyContext(tokens []TaggedToken) {
	for i := 1; i < len(tokens); i++ {
		prev := tokens[i-1].Tag
		cur := &tokens[i]
		switch {
		case prev == TagDeterminer && cur.Tag.IsVerb() && cur.Tag != TagVerbParticle:
			// "el vuelo", "la caída"
			if strings.HasSuffix(cur.Word, "s") {
				cur.Tag = TagNounPlural
			} else {
				cur.Tag = TagNoun
			}
		case prev == TagPronoun && isClitic(tokens[i-1].Word) && (cur.Tag == TagNoun || cur.Tag == TagNounPlural):
			// "me perseguía", "se hundía"
			cur.Tag = TagVerbPast
		}
	}
}

func verbForm(w string) Tag {
	switch {
	case hasSuffix(w, gerundSuffixes):
		return TagVerbGerund
	case hasSuffix(w, participleSuffixes):
		return TagVerbParticle
	case hasSuffix(w, infinitiveSuffixes):
		return TagVerb
	case hasSuffix(w, pastSuffixes):
		return TagVerbPast
	}
	return TagVerbPresent
}

func isClitic(w string) bool {
	switch w {
	case "me", "te", "se", "nos", "os", "le", "les":
		return true
	}
	return false
}

func hasSuffix(w string, suffixes []string) bool {
	for _, s := range suffixes {
		if strings.HasSuffix(w, s) && len(w) > len(s) {
			return true
		}
	}
	return false
}

func isNumber(w string) bool {
	if w == "" {
		return false
	}
	for _, r := range w {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
