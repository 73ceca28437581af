package ingest

import (
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var (
	emailRe   = regexp.MustCompile(`\S+@\S+\.\S+`)
	urlRe     = regexp.MustCompile(`(?i)https?://\S+`)
	pageRe    = regexp.MustCompile(`(?i)(?:страница|page)\s*\d+`)
	disallowR = regexp.MustCompile(`[^а-яА-ЯёЁ0-9\s.,;:!?\-()]`)
	spaceRe   = regexp.MustCompile(`\s+`)
)

// Cleaner normalizes raw extracted text into its canonical cleaned form:
// markup, emails, links and page markers removed, only Cyrillic letters,
// digits and basic punctuation kept, whitespace collapsed, lower-cased.
//
// Clean is total and idempotent.
type Cleaner struct{}

// NewCleaner creates a cleaner.
func NewCleaner() *Cleaner {
	return &Cleaner{}
}

// Clean returns the cleaned form of raw.
func (c *Cleaner) Clean(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	text := stripMarkup(raw)
	text = emailRe.ReplaceAllString(text, " ")
	text = urlRe.ReplaceAllString(text, " ")
	text = pageRe.ReplaceAllString(text, " ")
	text = disallowR.ReplaceAllString(text, " ")
	text = spaceRe.ReplaceAllString(text, " ")

	// The character filter and marker removal can both join the pieces of a
	// new marker ("страница страница 1 2"), so repeat until none survives.
	for pageRe.MatchString(text) {
		text = pageRe.ReplaceAllString(text, " ")
		text = spaceRe.ReplaceAllString(text, " ")
	}

	return strings.ToLower(strings.TrimSpace(text))
}

// stripMarkup keeps only the text tokens of an HTML-ish input.
// Plain text passes through as a single text token.
func stripMarkup(raw string) string {
	if !strings.ContainsRune(raw, '<') {
		return raw
	}

	z := html.NewTokenizer(strings.NewReader(raw))
	var b strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			if z.Err() != io.EOF {
				// The tokenizer only fails on the reader; fall back to the input.
				return raw
			}
			return b.String()
		case html.TextToken:
			b.Write(z.Text())
		default:
			b.WriteByte(' ')
		}
	}
}
