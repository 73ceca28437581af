package summarise

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/cognicore/annotator/pkg/annotator/embed"
	"github.com/cognicore/annotator/pkg/annotator/ingest"
)

const (
	damping         = 0.85
	rankIterations  = 20
	positionDecay   = 0.8
	defaultMaxSents = 5
)

// Summariser builds extractive summaries with TextRank over sentence embeddings.
type Summariser struct {
	MaxSentences int
	Encoder      embed.Encoder
	Logger       *slog.Logger
}

// New creates a summariser. maxSentences <= 0 defaults to 5.
func New(enc embed.Encoder, maxSentences int, logger *slog.Logger) *Summariser {
	if maxSentences <= 0 {
		maxSentences = defaultMaxSents
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Summariser{MaxSentences: maxSentences, Encoder: enc, Logger: logger}
}

// TextRank returns the MaxSentences most central sentences of text in
// reading order. Short texts are returned sentence by sentence unchanged.
// Without a working encoder the leading sentences are used.
func (s *Summariser) TextRank(ctx context.Context, text string) string {
	sents := ingest.SplitSentences(text)
	if len(sents) <= s.MaxSentences {
		return strings.Join(sents, " ")
	}

	if s.Encoder == nil {
		return strings.Join(sents[:s.MaxSentences], " ")
	}
	vecs, err := s.Encoder.Encode(ctx, sents)
	if err != nil || len(vecs) != len(sents) {
		s.Logger.Warn("sentence encoding failed, using lead summary", "sentences", len(sents), "error", err)
		return strings.Join(sents[:s.MaxSentences], " ")
	}

	scores := rank(similarity(vecs))

	idx := make([]int, len(sents))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return scores[idx[a]] > scores[idx[b]] })
	top := idx[:s.MaxSentences]
	sort.Ints(top)

	out := make([]string, len(top))
	for i, j := range top {
		out[i] = sents[j]
	}
	return strings.Join(out, " ")
}

// Description returns the sentence with the highest word_count * 0.8^i weight.
func (s *Summariser) Description(text string) string {
	sents := ingest.SplitSentences(text)
	if len(sents) == 0 {
		return ""
	}
	best, bestWeight := 0, -1.0
	for i, sent := range sents {
		w := float64(len(strings.Fields(sent))) * math.Pow(positionDecay, float64(i))
		if w > bestWeight {
			best, bestWeight = i, w
		}
	}
	return sents[best]
}

// similarity returns the pairwise cosine matrix with a zero diagonal.
func similarity(vecs []embed.Vector) [][]float64 {
	n := len(vecs)
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
		for j := range m[i] {
			if i != j {
				m[i][j] = embed.Cosine(vecs[i], vecs[j])
			}
		}
	}
	return m
}

// rank runs a fixed number of PageRank iterations, renormalising the scores
// to sum to one after each step.
func rank(m [][]float64) []float64 {
	n := len(m)
	scores := make([]float64, n)
	for i := range scores {
		scores[i] = 1 / float64(n)
	}
	next := make([]float64, n)
	for iter := 0; iter < rankIterations; iter++ {
		var total float64
		for i := range m {
			var dot float64
			for j, w := range m[i] {
				dot += w * scores[j]
			}
			next[i] = damping*dot + (1 - damping)
			total += next[i]
		}
		for i := range next {
			scores[i] = next[i] / total
		}
	}
	return scores
}
