package keywords

import (
	"sort"
	"strings"
	"unicode"

	"github.com/cognicore/annotator/pkg/annotator/ingest"
)

// Rake ranks phrases by word degree and frequency. Phrases are maximal runs
// of non-stop words; punctuation does not split them.
type Rake struct {
	stops ingest.StopChecker
}

// NewRake creates a RAKE ranker.
func NewRake(stops ingest.StopChecker) *Rake {
	return &Rake{stops: stops}
}

// Extract returns up to topN phrases of text by descending score. A word
// scores (degree + frequency) / frequency and a phrase the sum of its words.
func (r *Rake) Extract(text string, topN int) []string {
	var phrases [][]string
	var cur []string
	for _, w := range rakeWords(text) {
		w = strings.ToLower(w)
		if r.stops != nil && r.stops.IsStop(w) {
			if len(cur) > 0 {
				phrases = append(phrases, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, w)
	}
	if len(cur) > 0 {
		phrases = append(phrases, cur)
	}

	freq := map[string]int{}
	degree := map[string]int{}
	for _, ph := range phrases {
		for _, w := range ph {
			freq[w]++
			degree[w] += len(ph) - 1
		}
	}

	type scored struct {
		phrase string
		score  float64
	}
	var ranked []scored
	index := map[string]bool{}
	for _, ph := range phrases {
		key := strings.Join(ph, " ")
		if index[key] {
			continue
		}
		index[key] = true
		var s float64
		for _, w := range ph {
			s += float64(degree[w]+freq[w]) / float64(freq[w])
		}
		ranked = append(ranked, scored{phrase: key, score: s})
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	if topN >= 0 && len(ranked) > topN {
		ranked = ranked[:topN]
	}
	out := make([]string, len(ranked))
	for i, r := range ranked {
		out[i] = r.phrase
	}
	return out
}

// rakeWords returns word-character runs of text with punctuation deleted
// rather than treated as a separator.
func rakeWords(text string) []string {
	var words []string
	var b strings.Builder
	for _, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			b.WriteRune(r)
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
		default:
			if b.Len() > 0 {
				words = append(words, b.String())
				b.Reset()
			}
		}
	}
	if b.Len() > 0 {
		words = append(words, b.String())
	}
	return words
}
