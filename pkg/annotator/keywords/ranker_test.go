package keywords

import (
	"context"
	"reflect"
	"testing"

	"github.com/cognicore/annotator/pkg/annotator/embed"
)

func TestEmbeddingRankerSmallPool(t *testing.T) {
	r := NewEmbeddingRanker(axisEncoder{})

	got, err := r.Rank(context.Background(), "нейронная сеть.", []string{"машинное обучение", "нейронная сеть"}, 5, 0.65)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	want := []string{"нейронная сеть", "машинное обучение"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Rank = %q, want %q", got, want)
	}
}

func TestEmbeddingRankerDiversifiesLargePool(t *testing.T) {
	r := NewEmbeddingRanker(axisEncoder{})
	cands := []string{"сеть один", "сеть два", "граф", "модель"}

	got, err := r.Rank(context.Background(), "нейронная сеть.", cands, 2, 0.65)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	// min(n-1, topK*5) = 3 selections
	if len(got) != 3 {
		t.Fatalf("expected 3 phrases, got %q", got)
	}
	if got[0] != "сеть один" {
		t.Errorf("most relevant phrase should come first, got %q", got)
	}
	if got[1] == "сеть два" {
		t.Errorf("redundant phrase should not be picked second, got %q", got)
	}
}

func TestEmbeddingRankerEncoderError(t *testing.T) {
	r := NewEmbeddingRanker(axisEncoder{fail: true})
	if _, err := r.Rank(context.Background(), "текст.", []string{"граф знаний"}, 5, 0.5); err == nil {
		t.Error("expected encoder error")
	}
}

func TestMMR(t *testing.T) {
	docSim := []float64{0.9, 0.85, 0.5}
	vecs := []embed.Vector{{1, 0}, {1, 0}, {0, 1}}

	got := mmr(docSim, vecs, 2, 0.65)
	if !reflect.DeepEqual(got, []int{0, 2}) {
		t.Errorf("mmr = %v, want [0 2]", got)
	}

	got = mmr(docSim, vecs, 2, 0)
	if !reflect.DeepEqual(got, []int{0, 1}) {
		t.Errorf("mmr without diversity = %v, want [0 1]", got)
	}
}
