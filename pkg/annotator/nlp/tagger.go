package nlp

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// POS is a coarse part-of-speech tag.
type POS string

const (
	Noun  POS = "NOUN"
	Propn POS = "PROPN"
	Adj   POS = "ADJ"
	Verb  POS = "VERB"
	Num   POS = "NUM"
	Punct POS = "PUNCT"
	Other POS = "X"
)

// Token is a tagged word or punctuation mark.
type Token struct {
	Text  string
	POS   POS
	Alpha bool
}

// IsNounLike reports whether the token can head a noun phrase.
func (t Token) IsNounLike() bool {
	return t.POS == Noun || t.POS == Propn
}

// Tagger assigns part-of-speech tags to the tokens of a text.
type Tagger interface {
	Tag(text string) []Token
}

// SuffixTagger is a rule-based tagger for Russian driven by word endings.
// Capitalisation marks proper nouns only away from sentence starts, so on
// lower-cased text it never fires.
type SuffixTagger struct{}

// NewSuffixTagger creates a suffix tagger.
func NewSuffixTagger() *SuffixTagger {
	return &SuffixTagger{}
}

// Tag splits text into words and punctuation and tags each of them.
func (s *SuffixTagger) Tag(text string) []Token {
	var tokens []Token
	var current strings.Builder
	sentenceStart := true

	flush := func() {
		if current.Len() == 0 {
			return
		}
		word := strings.Trim(current.String(), "-")
		current.Reset()
		if word == "" {
			return
		}
		tokens = append(tokens, Token{
			Text:  word,
			POS:   tagWord(word, sentenceStart),
			Alpha: isAlphaWord(word),
		})
		sentenceStart = false
	}

	for _, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-':
			current.WriteRune(r)
		case unicode.IsSpace(r):
			flush()
		default:
			flush()
			tokens = append(tokens, Token{Text: string(r), POS: Punct})
			if r == '.' || r == '!' || r == '?' || r == '…' {
				sentenceStart = true
			}
		}
	}
	flush()
	return tokens
}

var nounSuffixes = []string{
	"ние", "ния", "нию", "нием", "нии", "ний", "ниях", "ниям", "ниями",
	"тие", "тия", "тию", "тием", "тии",
	"ция", "ции", "цию", "цией", "ций", "циях",
	"ость", "ости", "остью", "остей",
	"ство", "ства", "ству", "ством", "стве", "ств",
	"изм", "изма", "ист", "иста", "тель", "теля", "телей", "телю",
	"рий", "рия", "рии", "рием",
}

var verbSuffixes = []string{
	"ть", "ться", "тся", "ется", "ются", "ится", "ятся",
	"ает", "яет", "ует", "ают", "яют", "уют", "ит", "ят",
	"ала", "яла", "ила", "али", "или", "ались", "ился",
}

// nounExceptions end like verbs or adjectives but are nouns.
var nounExceptions = map[string]bool{
	"сеть": true, "часть": true, "власть": true, "путь": true, "память": true,
	"печать": true, "площадь": true, "треть": true, "смерть": true,
	"кредит": true, "лимит": true, "бит": true,
}

var adjSuffixes = []string{
	"ный", "ной", "ная", "ное", "ные", "ного", "ному", "ным", "ных", "ными", "ную",
	"ский", "ской", "ская", "ское", "ские", "ского", "скому", "ским", "ских", "скими", "скую",
	"вой", "шой", "жой", "чной", "щий", "щая", "щее", "щие", "щего", "щих", "щим",
	"ый", "ий", "ая", "яя", "ое", "ее", "ые", "ие", "ого", "его", "ому", "ему", "ых", "их", "ую", "юю",
}

func tagWord(word string, sentenceStart bool) POS {
	if isDigits(word) {
		return Num
	}
	n := utf8.RuneCountInString(word)
	if n >= 2 && isUpperWord(word) {
		return Propn
	}
	first, _ := utf8.DecodeRuneInString(word)
	if unicode.IsUpper(first) && !sentenceStart {
		return Propn
	}
	lower := strings.ToLower(word)
	if !isCyrillic(lower) {
		return Noun
	}
	if n <= 2 {
		return Other
	}
	switch {
	case nounExceptions[lower] || hasSuffix(lower, nounSuffixes):
		return Noun
	case hasSuffix(lower, verbSuffixes) && n > 3:
		return Verb
	case hasSuffix(lower, adjSuffixes) && n > 3:
		return Adj
	}
	return Noun
}

func hasSuffix(word string, suffixes []string) bool {
	for _, s := range suffixes {
		if strings.HasSuffix(word, s) {
			return true
		}
	}
	return false
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) && r != '-' {
			return false
		}
	}
	return true
}

func isUpperWord(s string) bool {
	letters := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			if !unicode.IsUpper(r) {
				return false
			}
			letters++
		}
	}
	return letters > 0
}

func isAlphaWord(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return s != ""
}
