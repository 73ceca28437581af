package embed

import (
	"context"
	"fmt"

	"github.com/cognicore/annotator/pkg/annotator/ingest"
)

// Weighting selects how document embeddings are combined into a project embedding.
type Weighting string

const (
	// WeightSentences weights each document by its sentence count.
	WeightSentences Weighting = "sentences"
	// WeightUniform gives every document the same weight.
	WeightUniform Weighting = "uniform"
)

// Embedder builds document and project embeddings from sentence embeddings.
type Embedder struct {
	Encoder Encoder
}

// NewEmbedder creates an embedder backed by enc.
func NewEmbedder(enc Encoder) *Embedder {
	return &Embedder{Encoder: enc}
}

// EmbedDocument returns the renormalised mean of the sentence embeddings of
// text and its sentence count. Text without sentences yields a zero vector.
func (e *Embedder) EmbedDocument(ctx context.Context, text string) (Vector, int, error) {
	sentences := ingest.SplitSentences(text)
	if len(sentences) == 0 {
		return make(Vector, e.Encoder.Dimensions()), 0, nil
	}
	vecs, err := e.Encoder.Encode(ctx, sentences)
	if err != nil {
		return nil, len(sentences), fmt.Errorf("encode sentences: %w", err)
	}
	return Normalize(Mean(vecs)), len(sentences), nil
}

// EmbedProject embeds each document and aggregates them with weighting.
func (e *Embedder) EmbedProject(ctx context.Context, docs []string, weighting Weighting) (Vector, error) {
	vecs := make([]Vector, 0, len(docs))
	counts := make([]int, 0, len(docs))
	for i, doc := range docs {
		v, n, err := e.EmbedDocument(ctx, doc)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		vecs = append(vecs, v)
		counts = append(counts, n)
	}
	return Aggregate(vecs, counts, weighting), nil
}

// Aggregate returns the weighted average of vecs renormalised to unit length.
// With sentence weighting a document weighs its sentence count, at least 1.
// An unknown weighting falls back to uniform.
func Aggregate(vecs []Vector, sentenceCounts []int, weighting Weighting) Vector {
	if len(vecs) == 0 {
		return nil
	}
	weights := make([]float64, len(vecs))
	for i := range weights {
		weights[i] = 1
		if weighting == WeightSentences && i < len(sentenceCounts) && sentenceCounts[i] > 1 {
			weights[i] = float64(sentenceCounts[i])
		}
	}

	var total float64
	for _, w := range weights {
		total += w
	}

	dims := 0
	for _, v := range vecs {
		if len(v) > dims {
			dims = len(v)
		}
	}
	sum := make([]float64, dims)
	for i, v := range vecs {
		for j, x := range v {
			sum[j] += weights[i] / total * float64(x)
		}
	}

	out := make(Vector, dims)
	for j, s := range sum {
		out[j] = float32(s)
	}
	return Normalize(out)
}
