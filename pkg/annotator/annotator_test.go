package annotator

import (
	"context"
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/cognicore/annotator/pkg/annotator/embed"
	"github.com/cognicore/annotator/pkg/annotator/entities"
	"github.com/cognicore/annotator/pkg/annotator/ingest"
	"github.com/cognicore/annotator/pkg/annotator/internalerr"
	"github.com/cognicore/annotator/pkg/annotator/keywords"
	"github.com/cognicore/annotator/pkg/annotator/nlp"
	"github.com/cognicore/annotator/pkg/annotator/stoplist"
	"github.com/cognicore/annotator/pkg/annotator/summarise"
	"github.com/cognicore/annotator/pkg/annotator/tags"
)

type topicEncoder struct{ fail bool }

func (e topicEncoder) Encode(_ context.Context, sentences []string) ([]embed.Vector, error) {
	if e.fail {
		return nil, errors.New("encoder offline")
	}
	out := make([]embed.Vector, len(sentences))
	for i, s := range sentences {
		if strings.Contains(s, "сет") {
			out[i] = embed.Vector{1, 0}
		} else {
			out[i] = embed.Vector{0, 1}
		}
	}
	return out, nil
}

func (topicEncoder) Dimensions() int { return 2 }

// courseAsker reports course 1 for text mentioning "первый" and 2 otherwise.
type courseAsker struct{ calls int }

func (c *courseAsker) AskJSON(_ context.Context, text string, schema map[string]any) map[string]any {
	c.calls++
	out := map[string]any{}
	for k, v := range schema {
		out[k] = v
	}
	if strings.Contains(strings.ToLower(text), "первый") {
		out["course"] = "1"
	} else {
		out["course"] = "2"
	}
	return out
}

type upperRefiner struct{ keywords string }

func (upperRefiner) RefineAnnotation(_ context.Context, d string) string  { return "A:" + d }
func (upperRefiner) RefineSummary(_ context.Context, d string) string     { return "S:" + d }
func (upperRefiner) RefineDescription(_ context.Context, d string) string { return "D:" + d }
func (u upperRefiner) RefineKeywords(_ context.Context, kw []string) string {
	return u.keywords
}

func testCatalog(t *testing.T) *tags.Source {
	t.Helper()
	c, err := tags.NewCatalog([]string{"нейросети", "графы"}, []embed.Vector{{1, 0}, {0, 1}})
	if err != nil {
		t.Fatal(err)
	}
	return tags.Static(c)
}

func newTestAnnotator(t *testing.T, enc embed.Encoder, asker entities.JSONAsker, refiner Refiner) *Annotator {
	t.Helper()
	stops := stoplist.Default()
	lem := nlp.NewSnowballLemmatizer(stops)
	return New(Options{
		Cleaner:    ingest.NewCleaner(),
		Lemmatizer: lem,
		Keywords: &keywords.HybridExtractor{
			Cleaner:    ingest.NewCleaner(),
			Candidates: keywords.NewCandidateExtractor(nlp.NewSuffixTagger(), stops, 2, 4),
			Filter:     keywords.NewFilter(lem, stoplist.GenericTerms()),
			Ranker:     keywords.NewEmbeddingRanker(enc),
			Yake:       keywords.NewYake(stops),
			Rake:       keywords.NewRake(stops),
		},
		Summariser: summarise.New(enc, 5, nil),
		Embedder:   embed.NewEmbedder(enc),
		Tags:       testCatalog(t),
		Entities:   entities.NewExtractor(asker, 0),
		Refiner:    refiner,
		TopTags:    1,
	})
}

const (
	docNetworks = "Первый документ про нейронные сети. Нейронная сеть распознаёт изображения. " +
		"Код сети лежит на https://github.com/team/vision."
	docGraphs = "Второй документ описывает графы знаний. Граф хранит связи между понятиями. " +
		"Ссылка https://github.com/team/vision повторяется."
)

func TestProcessDocument(t *testing.T) {
	a := newTestAnnotator(t, topicEncoder{}, &courseAsker{}, nil)

	meta, err := a.ProcessDocument(context.Background(), Source{Name: "a.txt", Text: docNetworks})
	if err != nil {
		t.Fatalf("ProcessDocument: %v", err)
	}

	if meta.RawText != docNetworks {
		t.Error("raw text should be kept verbatim")
	}
	if meta.CleanedText != strings.ToLower(meta.CleanedText) || strings.Contains(meta.CleanedText, "https") {
		t.Errorf("cleaned text not normalised: %q", meta.CleanedText)
	}
	if meta.LemmatisedText == "" {
		t.Error("expected lemmatised text")
	}
	if len(meta.RunID) != 26 {
		t.Errorf("expected a ULID run id, got %q", meta.RunID)
	}
	if !reflect.DeepEqual(meta.RepositoryLinks, []string{"https://github.com/team/vision"}) {
		t.Errorf("links = %v", meta.RepositoryLinks)
	}
	if meta.NamedEntities.Course == nil || *meta.NamedEntities.Course != "1" {
		t.Errorf("entities = %+v", meta.NamedEntities)
	}
	if math.Abs(embed.Norm(meta.Embedding)-1) > 1e-6 {
		t.Errorf("embedding should be unit length, got %v", meta.Embedding)
	}
	if !reflect.DeepEqual(meta.Tags, []string{"нейросети"}) {
		t.Errorf("tags = %v", meta.Tags)
	}
	if meta.Annotation != meta.Summary {
		t.Error("without refinement the annotation is the summary draft")
	}
	if meta.Keywords == nil {
		t.Error("keywords should be an empty list rather than nil")
	}
}

func TestProcessProjectMergesDocuments(t *testing.T) {
	asker := &courseAsker{}
	a := newTestAnnotator(t, topicEncoder{}, asker, nil)

	meta, err := a.ProcessProject(context.Background(), []Source{
		{Name: "a.txt", Text: docNetworks},
		{Name: "b.txt", Text: docGraphs},
	})
	if err != nil {
		t.Fatalf("ProcessProject: %v", err)
	}

	if meta.RawText != docNetworks+"\n"+docGraphs {
		t.Errorf("raw text should be newline-joined in order, got %q", meta.RawText)
	}
	if len(strings.Split(meta.CleanedText, "\n")) != 2 {
		t.Errorf("cleaned text should join both documents, got %q", meta.CleanedText)
	}
	if len(meta.RepositoryLinks) != 2 {
		t.Errorf("links should be concatenated with duplicates, got %v", meta.RepositoryLinks)
	}
	if asker.calls != 2 {
		t.Errorf("entities should be extracted per document, got %d calls", asker.calls)
	}
	if meta.NamedEntities.Course == nil || *meta.NamedEntities.Course != "1" {
		t.Errorf("entities should come from the first document, got %+v", meta.NamedEntities)
	}
	if len(strings.Split(meta.Summary, "\n")) != 2 || len(strings.Split(meta.Description, "\n")) != 2 {
		t.Errorf("summaries and descriptions should be joined per document: %q / %q", meta.Summary, meta.Description)
	}
	if math.Abs(embed.Norm(meta.Embedding)-1) > 1e-6 {
		t.Errorf("project embedding should be unit length, got %v", meta.Embedding)
	}
}

func TestProcessProjectEmptyExtractionIsFatal(t *testing.T) {
	asker := &courseAsker{}
	a := newTestAnnotator(t, topicEncoder{}, asker, nil)

	_, err := a.ProcessProject(context.Background(), []Source{
		{Name: "a.txt", Text: docNetworks},
		{Name: "b.pdf", Text: "   "},
	})
	if !errors.Is(err, internalerr.ErrEmptyExtraction) {
		t.Fatalf("expected ErrEmptyExtraction, got %v", err)
	}
	if asker.calls != 0 {
		t.Error("no document should be processed when one extraction is empty")
	}
}

func TestProcessProjectNoSources(t *testing.T) {
	a := newTestAnnotator(t, topicEncoder{}, nil, nil)
	if _, err := a.ProcessProject(context.Background(), nil); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestProcessDocumentCatalogFailureIsFatal(t *testing.T) {
	a := newTestAnnotator(t, topicEncoder{}, nil, nil)
	a.tags = tags.NewSource("/nonexistent/tags.json")

	_, err := a.ProcessDocument(context.Background(), Source{Text: docNetworks})
	if !errors.Is(err, internalerr.ErrCatalogUnavailable) {
		t.Errorf("expected ErrCatalogUnavailable, got %v", err)
	}
}

func TestProcessDocumentEncoderFailureDegrades(t *testing.T) {
	a := newTestAnnotator(t, topicEncoder{fail: true}, nil, nil)

	meta, err := a.ProcessDocument(context.Background(), Source{Text: docNetworks})
	if err != nil {
		t.Fatalf("encoder failure should not abort the run: %v", err)
	}
	if meta.Embedding != nil {
		t.Errorf("expected no embedding, got %v", meta.Embedding)
	}
	if len(meta.Tags) != 0 {
		t.Errorf("tags need an embedding, got %v", meta.Tags)
	}
	if meta.Summary == "" {
		t.Error("summary should fall back to the lead sentences")
	}
}

func TestProcessDocumentRefinement(t *testing.T) {
	a := newTestAnnotator(t, topicEncoder{}, nil, upperRefiner{keywords: "сеть, граф ,  "})

	meta, err := a.ProcessDocument(context.Background(), Source{Text: docNetworks})
	if err != nil {
		t.Fatalf("ProcessDocument: %v", err)
	}
	if !strings.HasPrefix(meta.Annotation, "A:") || !strings.HasPrefix(meta.Summary, "S:") || !strings.HasPrefix(meta.Description, "D:") {
		t.Errorf("drafts should be refined: %q %q %q", meta.Annotation, meta.Summary, meta.Description)
	}
	if len(meta.Keywords) > 0 && !reflect.DeepEqual(meta.Keywords, []string{"сеть", "граф"}) {
		t.Errorf("refined keywords = %q", meta.Keywords)
	}
}

func TestProcessDocumentEmptyKeywordRefinementKeepsDraft(t *testing.T) {
	plain := newTestAnnotator(t, topicEncoder{}, nil, nil)
	want, err := plain.ProcessDocument(context.Background(), Source{Text: docNetworks})
	if err != nil {
		t.Fatal(err)
	}

	a := newTestAnnotator(t, topicEncoder{}, nil, upperRefiner{keywords: ""})
	got, err := a.ProcessDocument(context.Background(), Source{Text: docNetworks})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got.Keywords, want.Keywords) {
		t.Errorf("keywords = %q, want draft %q", got.Keywords, want.Keywords)
	}
}

func TestRunIDsAreUnique(t *testing.T) {
	a := newTestAnnotator(t, topicEncoder{}, nil, nil)
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := a.newRunID()
		if seen[id] {
			t.Fatalf("duplicate run id %s", id)
		}
		seen[id] = true
	}
}

func TestSplitKeywords(t *testing.T) {
	got := splitKeywords(" a , b,, c ")
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("splitKeywords = %q", got)
	}
	if splitKeywords("") != nil {
		t.Error("empty input should give nil")
	}
}
