package ingest

import (
	"strings"
	"unicode"
)

// StopChecker reports whether a lower-cased token is a stop word.
type StopChecker interface {
	IsStop(token string) bool
}

// Tokenizer splits text into lower-cased word tokens.
type Tokenizer struct {
	stops StopChecker
}

// NewTokenizer creates a tokenizer. A nil stop checker keeps every token.
func NewTokenizer(stops StopChecker) *Tokenizer {
	return &Tokenizer{stops: stops}
}

// Words returns all word tokens of text in order, stop words included.
func (t *Tokenizer) Words(text string) []string {
	var tokens []string
	var current strings.Builder

	flush := func() {
		if current.Len() == 0 {
			return
		}
		if word := cleanToken(current.String()); word != "" {
			tokens = append(tokens, word)
		}
		current.Reset()
	}

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '-' {
			current.WriteRune(unicode.ToLower(r))
		} else {
			flush()
		}
	}
	flush()

	return tokens
}

// Tokenize returns the word tokens of text with stop words and pure numbers removed.
func (t *Tokenizer) Tokenize(text string) []string {
	words := t.Words(text)
	out := words[:0]
	for _, w := range words {
		if isNumericOnly(w) || t.IsStop(w) {
			continue
		}
		out = append(out, w)
	}
	return out
}

// IsStop reports whether word is a stop word for this tokenizer.
func (t *Tokenizer) IsStop(word string) bool {
	if t.stops == nil {
		return false
	}
	return t.stops.IsStop(strings.ToLower(word))
}

// cleanToken strips leading/trailing hyphens and normalizes consecutive hyphens
func cleanToken(token string) string {
	token = strings.Trim(token, "-")
	for strings.Contains(token, "--") {
		token = strings.ReplaceAll(token, "--", "-")
	}
	return token
}

// isNumericOnly returns true if the token contains only digits and hyphens.
func isNumericOnly(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) && r != '-' {
			return false
		}
	}
	return true
}

// IsAlpha reports whether every rune of s is a letter.
func IsAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
