package keywords

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/cognicore/annotator/pkg/annotator/nlp"
)

const (
	maxPhraseTokens  = 6
	genericThreshold = 0.6
	nearDuplicateMax = 2
)

// Filter removes overlong, generic and near-duplicate keyword phrases.
type Filter struct {
	lemmatizer nlp.Lemmatizer
	generic    map[string]bool
}

// NewFilter creates a filter. genericTerms are lemmatised with lemmatizer so
// they compare against phrase lemmas.
func NewFilter(lemmatizer nlp.Lemmatizer, genericTerms []string) *Filter {
	generic := make(map[string]bool, len(genericTerms))
	for _, term := range genericTerms {
		for _, lemma := range strings.Fields(lemmatizer.Lemmatise(term)) {
			generic[lemma] = true
		}
	}
	return &Filter{lemmatizer: lemmatizer, generic: generic}
}

// Apply filters phrases, preserving order. A phrase is dropped when it has
// more than six tokens, when at least 60% of its lemmas are generic, or when
// its lemma form is within edit distance 2 of an accepted phrase.
func (f *Filter) Apply(phrases []string) []string {
	var accepted []string
	var seen []string

	for _, ph := range phrases {
		if len(strings.Fields(ph)) > maxPhraseTokens {
			continue
		}
		lemma := f.lemmatizer.Lemmatise(ph)
		lemmas := strings.Fields(lemma)
		if len(lemmas) == 0 {
			continue
		}

		generic := 0
		for _, l := range lemmas {
			if f.generic[l] {
				generic++
			}
		}
		if generic == len(lemmas) || float64(generic)/float64(len(lemmas)) >= genericThreshold {
			continue
		}

		if f.nearDuplicate(lemma, seen) {
			continue
		}
		seen = append(seen, lemma)
		accepted = append(accepted, strings.TrimSpace(ph))
	}
	return accepted
}

// IsGeneric reports whether lemma belongs to the generic lemma set.
func (f *Filter) IsGeneric(lemma string) bool {
	return f.generic[lemma]
}

func (f *Filter) nearDuplicate(lemma string, seen []string) bool {
	for _, s := range seen {
		if levenshtein.ComputeDistance(lemma, s) <= nearDuplicateMax {
			return true
		}
	}
	return false
}
