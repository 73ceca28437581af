package stoplist

import (
	_ "embed"
	"strings"
)

//go:embed russian.txt
var russianWords string

//go:embed english.txt
var englishWords string

//go:embed generic.txt
var genericWords string

// Manager holds the stop word set used by tokenization, candidate
// extraction and lemmatisation.
type Manager struct {
	stops map[string]struct{}
}

// NewManager creates a stoplist manager from the given terms.
func NewManager(terms []string) *Manager {
	stops := make(map[string]struct{}, len(terms))
	for _, s := range terms {
		if s = normalize(s); s != "" {
			stops[s] = struct{}{}
		}
	}
	return &Manager{stops: stops}
}

// Default returns a manager with the built-in Russian and English stop words.
func Default() *Manager {
	terms := append(Lines(russianWords), Lines(englishWords)...)
	return NewManager(terms)
}

// IsStop checks if a token is a stopword
func (m *Manager) IsStop(token string) bool {
	_, ok := m.stops[normalize(token)]
	return ok
}

// Add adds a token to the stoplist
func (m *Manager) Add(token string) {
	if token = normalize(token); token != "" {
		m.stops[token] = struct{}{}
	}
}

// Remove removes a token from the stoplist
func (m *Manager) Remove(token string) {
	delete(m.stops, normalize(token))
}

// All returns all stopwords
func (m *Manager) All() []string {
	result := make([]string, 0, len(m.stops))
	for s := range m.stops {
		result = append(result, s)
	}
	return result
}

// Len returns the number of stop words.
func (m *Manager) Len() int {
	return len(m.stops)
}

// GenericTerms returns the built-in list of overly common words that make a
// keyword phrase unspecific (проект, работа, система, ...). They are surface
// forms; consumers lemmatise them with the same lemmatizer they apply to phrases.
func GenericTerms() []string {
	return Lines(genericWords)
}

// Lines splits an embedded word list into trimmed non-empty, non-comment lines.
func Lines(data string) []string {
	var out []string
	for _, line := range strings.Split(data, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
