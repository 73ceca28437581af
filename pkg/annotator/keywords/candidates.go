package keywords

import (
	"strings"

	"github.com/cognicore/annotator/pkg/annotator/ingest"
	"github.com/cognicore/annotator/pkg/annotator/nlp"
)

// CandidateExtractor produces noun-phrase candidates from part-of-speech runs.
type CandidateExtractor struct {
	tagger nlp.Tagger
	stops  ingest.StopChecker
	minN   int
	maxN   int
}

// NewCandidateExtractor creates an extractor accepting runs of minN..maxN
// tokens. Non-positive bounds default to 2 and 4.
func NewCandidateExtractor(tagger nlp.Tagger, stops ingest.StopChecker, minN, maxN int) *CandidateExtractor {
	if minN <= 0 {
		minN = 2
	}
	if maxN < minN {
		maxN = 4
		if maxN < minN {
			maxN = minN
		}
	}
	return &CandidateExtractor{tagger: tagger, stops: stops, minN: minN, maxN: maxN}
}

// Extract returns multi-word phrases ending in a noun followed by single
// proper nouns and acronyms, deduplicated case-insensitively in order of
// first occurrence.
func (c *CandidateExtractor) Extract(text string) []string {
	tokens := c.tagger.Tag(text)

	var phrases []string
	var run []nlp.Token

	flush := func() {
		if len(run) >= c.minN && len(run) <= c.maxN && run[len(run)-1].IsNounLike() {
			words := make([]string, len(run))
			for i, t := range run {
				words[i] = t.Text
			}
			phrases = append(phrases, strings.Join(words, " "))
		}
		run = run[:0]
	}

	for _, t := range tokens {
		if t.Alpha && c.phrasePOS(t.POS) && !c.isStop(t.Text) {
			run = append(run, t)
			continue
		}
		flush()
	}
	flush()

	for _, t := range tokens {
		if t.Alpha && !c.isStop(t.Text) && (t.POS == nlp.Propn || strings.ToUpper(t.Text) == t.Text) {
			phrases = append(phrases, t.Text)
		}
	}

	return dedupeFold(phrases)
}

func (c *CandidateExtractor) phrasePOS(p nlp.POS) bool {
	return p == nlp.Adj || p == nlp.Noun || p == nlp.Propn
}

func (c *CandidateExtractor) isStop(word string) bool {
	return c.stops != nil && c.stops.IsStop(strings.ToLower(word))
}

// dedupeFold keeps the first occurrence of each phrase, ignoring case.
func dedupeFold(phrases []string) []string {
	seen := make(map[string]bool, len(phrases))
	out := make([]string, 0, len(phrases))
	for _, p := range phrases {
		key := strings.ToLower(p)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
	}
	return out
}
