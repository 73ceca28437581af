package annotator

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/annotator/pkg/annotator/embed"
	"github.com/cognicore/annotator/pkg/annotator/entities"
	"github.com/cognicore/annotator/pkg/annotator/ingest"
	"github.com/cognicore/annotator/pkg/annotator/internalerr"
	"github.com/cognicore/annotator/pkg/annotator/keywords"
	"github.com/cognicore/annotator/pkg/annotator/nlp"
	"github.com/cognicore/annotator/pkg/annotator/summarise"
	"github.com/cognicore/annotator/pkg/annotator/tags"
)

// Refiner polishes draft texts. Implementations return the draft when they fail.
type Refiner interface {
	RefineAnnotation(ctx context.Context, draft string) string
	RefineSummary(ctx context.Context, draft string) string
	RefineDescription(ctx context.Context, draft string) string
	RefineKeywords(ctx context.Context, keywords []string) string
}

// Annotator turns extracted document text into project metadata.
type Annotator struct {
	cleaner    *ingest.Cleaner
	lemmatizer nlp.Lemmatizer
	keywords   *keywords.HybridExtractor
	summariser *summarise.Summariser
	embedder   *embed.Embedder
	tags       *tags.Source
	entities   *entities.Extractor
	refiner    Refiner
	language   *nlp.LanguageDetector
	logger     *slog.Logger

	topK      int
	diversity float64
	topTags   int
	weighting embed.Weighting

	idMu    sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// Options configures an Annotator. Embedder, Tags, Refiner and Language are
// optional; the corresponding fields of the metadata stay empty without them.
type Options struct {
	Cleaner    *ingest.Cleaner
	Lemmatizer nlp.Lemmatizer
	Keywords   *keywords.HybridExtractor
	Summariser *summarise.Summariser
	Embedder   *embed.Embedder
	Tags       *tags.Source
	Entities   *entities.Extractor
	Refiner    Refiner
	Language   *nlp.LanguageDetector
	Logger     *slog.Logger

	TopK      int
	Diversity float64
	TopTags   int
	Weighting embed.Weighting
}

// New creates an Annotator with the given dependencies.
func New(opts Options) *Annotator {
	a := &Annotator{
		cleaner:    opts.Cleaner,
		lemmatizer: opts.Lemmatizer,
		keywords:   opts.Keywords,
		summariser: opts.Summariser,
		embedder:   opts.Embedder,
		tags:       opts.Tags,
		entities:   opts.Entities,
		refiner:    opts.Refiner,
		language:   opts.Language,
		logger:     opts.Logger,
		topK:       opts.TopK,
		diversity:  opts.Diversity,
		topTags:    opts.TopTags,
		weighting:  opts.Weighting,
		entropy:    ulid.Monotonic(rand.Reader, 0),
	}
	if a.cleaner == nil {
		a.cleaner = ingest.NewCleaner()
	}
	if a.entities == nil {
		a.entities = entities.NewExtractor(nil, 0)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	if a.topK <= 0 {
		a.topK = 12
	}
	if a.topTags <= 0 {
		a.topTags = 5
	}
	if a.weighting == "" {
		a.weighting = embed.WeightSentences
	}
	return a
}

// Source is the extracted text of one input file. TextWithTables also
// carries tabular content and feeds entity extraction; Text is used when it
// is empty.
type Source struct {
	Name           string
	Text           string
	TextWithTables string
}

// docDraft holds the per-document results before aggregation and refinement.
type docDraft struct {
	doc         ingest.Document
	entities    entities.Entities
	links       []string
	embedding   embed.Vector
	embedFailed bool
	summary     string
	description string
}

// ProcessDocument annotates a single document.
func (a *Annotator) ProcessDocument(ctx context.Context, src Source) (*ProjectMetadata, error) {
	return a.ProcessProject(ctx, []Source{src})
}

// ProcessProject annotates every source and merges them into one record.
// Any source without text aborts the run. Model and refinement failures only
// degrade the affected fields.
func (a *Annotator) ProcessProject(ctx context.Context, sources []Source) (*ProjectMetadata, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("no sources: %w", internalerr.ErrInvalidInput)
	}
	for i, src := range sources {
		if strings.TrimSpace(src.Text) == "" {
			return nil, fmt.Errorf("source %d (%s): %w", i, src.Name, internalerr.ErrEmptyExtraction)
		}
	}
	catalog, err := a.catalog()
	if err != nil {
		return nil, err
	}

	runID := a.newRunID()
	start := time.Now()
	log := a.logger.With("run_id", runID, "documents", len(sources))
	log.Info("annotation run started")

	drafts := make([]docDraft, len(sources))
	for i, src := range sources {
		drafts[i] = a.draft(ctx, src)
	}

	var meta *ProjectMetadata
	if len(drafts) == 1 {
		meta = a.single(ctx, drafts[0])
	} else {
		meta = a.merge(ctx, drafts)
	}
	meta.RunID = runID

	meta.Tags = a.topTagsFor(catalog, meta.Embedding)
	a.refine(ctx, meta)

	log.Info("annotation run finished", "keywords", len(meta.Keywords), "tags", len(meta.Tags), "elapsed", time.Since(start))
	return meta, nil
}

func (a *Annotator) draft(ctx context.Context, src Source) docDraft {
	d := docDraft{doc: ingest.NewDocument(src.Text, a.cleaner)}

	nerText := src.TextWithTables
	if strings.TrimSpace(nerText) == "" {
		nerText = src.Text
	}
	d.entities = a.entities.Extract(ctx, nerText)
	d.links = entities.RepoLinks(src.Text)

	if a.embedder != nil {
		v, n, err := a.embedder.EmbedDocument(ctx, d.doc.CleanedText)
		if err != nil {
			a.logger.Warn("document embedding failed", "source", src.Name, "error", err)
			d.embedFailed = true
		} else {
			d.embedding = v
			d.doc.SentenceCount = n
		}
	}

	if a.summariser != nil {
		d.summary = a.summariser.TextRank(ctx, d.doc.CleanedText)
		d.description = a.summariser.Description(d.doc.CleanedText)
	}
	return d
}

func (a *Annotator) single(ctx context.Context, d docDraft) *ProjectMetadata {
	meta := &ProjectMetadata{
		RawText:         d.doc.RawText,
		CleanedText:     d.doc.CleanedText,
		NamedEntities:   d.entities,
		RepositoryLinks: d.links,
		Embedding:       d.embedding,
		Summary:         d.summary,
		Description:     d.description,
		Annotation:      d.summary,
	}
	a.lexical(ctx, meta)
	return meta
}

// merge concatenates per-document drafts in order. Entities come from the
// first document only.
func (a *Annotator) merge(ctx context.Context, drafts []docDraft) *ProjectMetadata {
	var raw, cleaned, summaries, descriptions []string
	links := []string{}
	vecs := make([]embed.Vector, 0, len(drafts))
	counts := make([]int, 0, len(drafts))
	embedFailed := false

	for _, d := range drafts {
		raw = append(raw, d.doc.RawText)
		cleaned = append(cleaned, d.doc.CleanedText)
		summaries = append(summaries, d.summary)
		descriptions = append(descriptions, d.description)
		links = append(links, d.links...)
		if d.embedFailed || d.embedding == nil {
			embedFailed = true
			continue
		}
		vecs = append(vecs, d.embedding)
		counts = append(counts, d.doc.SentenceCount)
	}

	meta := &ProjectMetadata{
		RawText:         strings.Join(raw, "\n"),
		CleanedText:     strings.Join(cleaned, "\n"),
		NamedEntities:   drafts[0].entities,
		RepositoryLinks: links,
		Summary:         strings.Join(summaries, "\n"),
		Description:     strings.Join(descriptions, "\n"),
		Annotation:      strings.Join(summaries, "\n"),
	}
	if !embedFailed && a.embedder != nil {
		meta.Embedding = embed.Aggregate(vecs, counts, a.weighting)
	}
	a.lexical(ctx, meta)
	return meta
}

// lexical fills the fields derived from the cleaned text.
func (a *Annotator) lexical(ctx context.Context, meta *ProjectMetadata) {
	if a.lemmatizer != nil {
		meta.LemmatisedText = a.lemmatizer.Lemmatise(meta.CleanedText)
	}
	if a.keywords != nil {
		meta.Keywords = a.keywords.Extract(ctx, meta.CleanedText, a.topK, a.diversity)
	}
	if meta.Keywords == nil {
		meta.Keywords = []string{}
	}
	if a.language != nil {
		meta.Language = a.language.Detect(meta.CleanedText)
	}
}

func (a *Annotator) catalog() (*tags.Catalog, error) {
	if a.tags == nil {
		return nil, nil
	}
	c, err := a.tags.Catalog()
	if err != nil {
		return nil, fmt.Errorf("tag catalog: %w", err)
	}
	return c, nil
}

func (a *Annotator) topTagsFor(c *tags.Catalog, v embed.Vector) []string {
	if c == nil {
		return []string{}
	}
	if v == nil {
		a.logger.Warn("no project embedding, skipping tags")
		return []string{}
	}
	out, err := c.TopTags(v, a.topTags)
	if err != nil {
		a.logger.Warn("tag lookup failed", "error", err)
		return []string{}
	}
	return out
}

func (a *Annotator) refine(ctx context.Context, meta *ProjectMetadata) {
	if a.refiner == nil {
		return
	}
	meta.Annotation = a.refiner.RefineAnnotation(ctx, meta.Annotation)
	meta.Summary = a.refiner.RefineSummary(ctx, meta.Summary)
	meta.Description = a.refiner.RefineDescription(ctx, meta.Description)
	if len(meta.Keywords) > 0 {
		if refined := splitKeywords(a.refiner.RefineKeywords(ctx, meta.Keywords)); len(refined) > 0 {
			meta.Keywords = refined
		}
	}
}

func splitKeywords(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (a *Annotator) newRunID() string {
	a.idMu.Lock()
	defer a.idMu.Unlock()
	return ulid.MustNew(ulid.Now(), a.entropy).String()
}
