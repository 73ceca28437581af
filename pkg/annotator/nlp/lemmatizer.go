package nlp

import (
	"strings"
	"unicode"

	"github.com/kljensen/snowball"

	"github.com/cognicore/annotator/pkg/annotator/ingest"
)

// Lemmatizer reduces text to a space-joined sequence of lemmas.
type Lemmatizer interface {
	Lemmatise(text string) string
}

// SnowballLemmatizer approximates lemmas with Snowball stems. Cyrillic words
// use the Russian stemmer and everything else the English one.
type SnowballLemmatizer struct {
	tokenizer *ingest.Tokenizer
}

// NewSnowballLemmatizer creates a lemmatizer that drops stop words.
func NewSnowballLemmatizer(stops ingest.StopChecker) *SnowballLemmatizer {
	return &SnowballLemmatizer{tokenizer: ingest.NewTokenizer(stops)}
}

// Lemmatise returns the lemmas of the alphabetic, non-stop tokens of text.
func (l *SnowballLemmatizer) Lemmatise(text string) string {
	var lemmas []string
	for _, word := range l.tokenizer.Words(text) {
		for _, part := range strings.Split(word, "-") {
			if !ingest.IsAlpha(part) || l.tokenizer.IsStop(part) {
				continue
			}
			lemmas = append(lemmas, l.Lemma(part))
		}
	}
	return strings.Join(lemmas, " ")
}

// Lemma stems a single lower-cased word. Words the stemmer rejects are
// returned unchanged.
func (l *SnowballLemmatizer) Lemma(word string) string {
	language := "english"
	if isCyrillic(word) {
		language = "russian"
	}
	stem, err := snowball.Stem(word, language, true)
	if err != nil || stem == "" {
		return word
	}
	return stem
}

func isCyrillic(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Cyrillic, r) {
			return true
		}
	}
	return false
}
