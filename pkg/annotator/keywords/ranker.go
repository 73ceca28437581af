package keywords

import (
	"context"
	"fmt"
	"sort"

	"github.com/cognicore/annotator/pkg/annotator/embed"
)

// EmbeddingRanker ranks candidate phrases by semantic similarity to the
// document they were drawn from.
type EmbeddingRanker struct {
	encoder  embed.Encoder
	embedder *embed.Embedder
}

// NewEmbeddingRanker creates a ranker backed by enc.
func NewEmbeddingRanker(enc embed.Encoder) *EmbeddingRanker {
	return &EmbeddingRanker{encoder: enc, embedder: embed.NewEmbedder(enc)}
}

// Rank orders candidates by relevance to text. When there are more candidates
// than topK, it selects min(n-1, topK*5) of them by maximal marginal relevance
// with the given diversity. Otherwise every candidate is returned by
// descending similarity.
func (r *EmbeddingRanker) Rank(ctx context.Context, text string, candidates []string, topK int, diversity float64) ([]string, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	doc, _, err := r.embedder.EmbedDocument(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed document: %w", err)
	}
	vecs, err := r.encoder.Encode(ctx, candidates)
	if err != nil {
		return nil, fmt.Errorf("embed candidates: %w", err)
	}
	if len(vecs) != len(candidates) {
		return nil, fmt.Errorf("got %d candidate embeddings for %d candidates", len(vecs), len(candidates))
	}

	docSim := make([]float64, len(candidates))
	for i, v := range vecs {
		docSim[i] = embed.Cosine(doc, v)
	}

	n := len(candidates)
	if n > topK {
		topN := topK * 5
		if n-1 < topN {
			topN = n - 1
		}
		return pick(candidates, mmr(docSim, vecs, topN, diversity)), nil
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return docSim[idx[a]] > docSim[idx[b]] })
	return pick(candidates, idx), nil
}

// mmr selects topN indices balancing relevance to the document against
// similarity to the phrases already chosen.
func mmr(docSim []float64, vecs []embed.Vector, topN int, diversity float64) []int {
	if topN <= 0 {
		return nil
	}

	best := 0
	for i := range docSim {
		if docSim[i] > docSim[best] {
			best = i
		}
	}
	selected := []int{best}
	remaining := make([]int, 0, len(docSim)-1)
	for i := range docSim {
		if i != best {
			remaining = append(remaining, i)
		}
	}

	for len(selected) < topN && len(remaining) > 0 {
		bestPos := 0
		bestScore := 0.0
		for pos, c := range remaining {
			redundancy := -1.0
			for _, s := range selected {
				if sim := embed.Cosine(vecs[c], vecs[s]); sim > redundancy {
					redundancy = sim
				}
			}
			score := (1-diversity)*docSim[c] - diversity*redundancy
			if pos == 0 || score > bestScore {
				bestPos, bestScore = pos, score
			}
		}
		selected = append(selected, remaining[bestPos])
		remaining = append(remaining[:bestPos], remaining[bestPos+1:]...)
	}
	return selected
}

func pick(items []string, idx []int) []string {
	out := make([]string, len(idx))
	for i, j := range idx {
		out[i] = items[j]
	}
	return out
}
