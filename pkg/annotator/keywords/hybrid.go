package keywords

import (
	"context"
	"log/slog"

	"github.com/cognicore/annotator/pkg/annotator/ingest"
)

// Tier names the strategy that produced a keyword list.
type Tier string

const (
	TierEmbedding   Tier = "embedding"
	TierStatistical Tier = "statistical"
	TierRake        Tier = "rake"
	TierNone        Tier = "none"
)

// TierObserver is notified of the tier used by every extraction.
type TierObserver func(Tier)

// HybridExtractor ranks candidates with embeddings and falls back to YAKE and
// then RAKE when a tier yields nothing after filtering.
type HybridExtractor struct {
	Cleaner    *ingest.Cleaner
	Candidates *CandidateExtractor
	Filter     *Filter
	// Ranker may be nil, in which case extraction starts at the statistical tier.
	Ranker   *EmbeddingRanker
	Yake     *Yake
	Rake     *Rake
	Observer TierObserver
	Logger   *slog.Logger
}

// Extract returns at most topK keywords for raw text.
func (h *HybridExtractor) Extract(ctx context.Context, raw string, topK int, diversity float64) []string {
	if topK <= 0 {
		return nil
	}
	clean := h.Cleaner.Clean(raw)
	if clean == "" {
		h.observe(TierNone)
		return nil
	}
	candidates := h.Candidates.Extract(clean)
	if len(candidates) == 0 {
		h.observe(TierNone)
		return nil
	}

	tier := TierEmbedding
	var phrases []string
	if h.Ranker != nil {
		ranked, err := h.Ranker.Rank(ctx, clean, candidates, topK, diversity)
		if err != nil {
			h.logger().Warn("embedding keyword ranking failed, falling back", "error", err)
		}
		phrases = h.Filter.Apply(ranked)
	}
	if len(phrases) == 0 {
		tier = TierStatistical
		phrases = h.Filter.Apply(h.Yake.Extract(clean, topK*3))
	}
	if len(phrases) == 0 {
		tier = TierRake
		phrases = h.Filter.Apply(h.Rake.Extract(clean, topK*3))
	}
	if len(phrases) == 0 {
		h.logger().Warn("keyword tiers exhausted", "candidates", len(candidates))
		tier = TierNone
	}

	h.observe(tier)
	if len(phrases) > topK {
		phrases = phrases[:topK]
	}
	return phrases
}

func (h *HybridExtractor) observe(t Tier) {
	if h.Observer != nil {
		h.Observer(t)
	}
}

func (h *HybridExtractor) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}
