package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/cognicore/annotator/internal/llm"
	"github.com/cognicore/annotator/internal/logging"
	"github.com/cognicore/annotator/internal/metrics"
	"github.com/cognicore/annotator/pkg/annotator"
	"github.com/cognicore/annotator/pkg/annotator/config"
	"github.com/cognicore/annotator/pkg/annotator/embed"
	"github.com/cognicore/annotator/pkg/annotator/entities"
	"github.com/cognicore/annotator/pkg/annotator/keywords"
	"github.com/cognicore/annotator/pkg/annotator/nlp"
	"github.com/cognicore/annotator/pkg/annotator/store"
	"github.com/cognicore/annotator/pkg/annotator/store/memstore"
	"github.com/cognicore/annotator/pkg/annotator/store/postgres"
	"github.com/cognicore/annotator/pkg/annotator/store/sqlite"
	"github.com/cognicore/annotator/pkg/annotator/summarise"
	"github.com/cognicore/annotator/pkg/annotator/tags"
)

// loadConfig reads the configuration named by the global flags and builds
// the process logger.
func loadConfig(c *cli.Context) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	if lvl := c.String("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	logger := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// newEncoder returns nil when no embedding endpoint is configured; the
// pipeline then runs on its statistical fallbacks.
func newEncoder(cfg config.Embedding, logger *slog.Logger) embed.Encoder {
	if cfg.BaseURL == "" {
		return nil
	}
	return embed.NewLazy(cfg.Dimensions, func() (embed.Encoder, error) {
		return embed.NewHTTPEncoder(embed.HTTPConfig{
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			APIKey:     cfg.APIKey,
			Dimensions: cfg.Dimensions,
			Timeout:    cfg.Timeout,
			CacheSize:  cfg.CacheSize,
			Logger:     logger,
		})
	})
}

func newRefiner(cfg config.Refinement, logger *slog.Logger, m *metrics.Metrics) *llm.Refiner {
	client := llm.NewClient(llm.ClientConfig{
		BaseURL:           cfg.BaseURL,
		APIKey:            cfg.APIKey,
		Model:             cfg.Model,
		Timeout:           cfg.Timeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
	})
	return llm.NewRefiner(client, llm.RefinerOptions{
		MaxAttempts: cfg.MaxAttempts,
		BaseDelay:   cfg.BaseDelay,
		Logger:      logger,
		OnFallback:  m.RefinementFallback,
	})
}

// buildAnnotator wires the pipeline from cfg. m may be nil.
func buildAnnotator(cfg config.Config, logger *slog.Logger, m *metrics.Metrics) (*annotator.Annotator, error) {
	loader := config.Loader{
		StoplistPath: cfg.Stoplist.Path,
		GenericPath:  cfg.Stoplist.GenericPath,
	}
	comps, err := loader.Load()
	if err != nil {
		return nil, err
	}

	enc := newEncoder(cfg.Embedding, logger)
	var (
		embedder *embed.Embedder
		ranker   *keywords.EmbeddingRanker
	)
	if enc != nil {
		embedder = embed.NewEmbedder(enc)
		ranker = keywords.NewEmbeddingRanker(enc)
	}

	kw := &keywords.HybridExtractor{
		Cleaner:    comps.Cleaner,
		Candidates: keywords.NewCandidateExtractor(comps.Tagger, comps.Stoplist, cfg.Pipeline.CandidateMinN, cfg.Pipeline.CandidateMaxN),
		Filter:     keywords.NewFilter(comps.Lemmatizer, comps.GenericTerms),
		Ranker:     ranker,
		Yake:       keywords.NewYake(comps.Stoplist),
		Rake:       keywords.NewRake(comps.Stoplist),
		Observer:   func(t keywords.Tier) { m.KeywordTier(string(t)) },
		Logger:     logger,
	}

	var tagSource *tags.Source
	if cfg.Tags.CatalogPath != "" {
		tagSource = tags.NewSource(cfg.Tags.CatalogPath)
	}

	var (
		refiner annotator.Refiner
		asker   entities.JSONAsker
	)
	if cfg.Refinement.Enabled {
		r := newRefiner(cfg.Refinement, logger, m)
		refiner = r
		asker = r
	}

	return annotator.New(annotator.Options{
		Cleaner:    comps.Cleaner,
		Lemmatizer: comps.Lemmatizer,
		Keywords:   kw,
		Summariser: summarise.New(enc, cfg.Pipeline.MaxSentences, logger),
		Embedder:   embedder,
		Tags:       tagSource,
		Entities:   entities.NewExtractor(asker, cfg.Pipeline.NERMaxChars),
		Refiner:    refiner,
		Language:   nlp.NewLanguageDetector(),
		Logger:     logger,
		TopK:       cfg.Pipeline.TopK,
		Diversity:  cfg.Pipeline.Diversity,
		TopTags:    cfg.Pipeline.TopTags,
		Weighting:  embed.Weighting(cfg.Pipeline.Weighting),
	}), nil
}

func openStore(ctx context.Context, cfg config.Store, logger *slog.Logger) (store.Store, error) {
	switch cfg.Driver {
	case "postgres":
		st, err := postgres.Open(ctx, cfg.DSN, logger)
		if err != nil {
			return nil, err
		}
		return st, nil
	case "memory":
		return memstore.New(), nil
	default:
		return sqlite.OpenSQLite(ctx, cfg.DSN)
	}
}
