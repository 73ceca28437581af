package embed

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sashabaranov/go-openai"
)

// HTTPConfig configures an HTTPEncoder.
type HTTPConfig struct {
	// BaseURL of an OpenAI-compatible embedding endpoint (TEI, LocalAI, OpenAI).
	BaseURL string
	Model   string
	APIKey  string
	// Dimensions expected from the model (768 for multilingual mpnet).
	Dimensions int
	Timeout    time.Duration
	// CacheSize is the number of sentence embeddings kept in memory. Zero disables caching.
	CacheSize int
	Logger    *slog.Logger
	// HTTPClient overrides the default client. Timeout is ignored when set.
	HTTPClient *http.Client
}

// HTTPEncoder calls an OpenAI-compatible embeddings API.
type HTTPEncoder struct {
	client *openai.Client
	model  string
	dims   int
	cache  *lru.Cache[string, Vector]
	logger *slog.Logger
}

// NewHTTPEncoder creates an encoder for the configured endpoint.
func NewHTTPEncoder(cfg HTTPConfig) (*HTTPEncoder, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("embedding base_url is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("embedding model is required")
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = "none"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	oc := openai.DefaultConfig(apiKey)
	oc.BaseURL = cfg.BaseURL
	oc.HTTPClient = cfg.HTTPClient
	if oc.HTTPClient == nil {
		oc.HTTPClient = &http.Client{Timeout: timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	enc := &HTTPEncoder{
		client: openai.NewClientWithConfig(oc),
		model:  cfg.Model,
		dims:   cfg.Dimensions,
		logger: logger,
	}
	if cfg.CacheSize > 0 {
		cache, err := lru.New[string, Vector](cfg.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("embedding cache: %w", err)
		}
		enc.cache = cache
	}
	return enc, nil
}

// Encode returns one unit-length vector per sentence, serving repeats from the cache.
func (h *HTTPEncoder) Encode(ctx context.Context, sentences []string) ([]Vector, error) {
	out := make([]Vector, len(sentences))
	var missIdx []int
	var missText []string

	for i, s := range sentences {
		if h.cache != nil {
			if v, ok := h.cache.Get(ContentHash(s)); ok {
				out[i] = v
				continue
			}
		}
		missIdx = append(missIdx, i)
		missText = append(missText, s)
	}
	if len(missText) == 0 {
		return out, nil
	}

	resp, err := h.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: missText,
		Model: openai.EmbeddingModel(h.model),
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request: %w", err)
	}
	if len(resp.Data) != len(missText) {
		return nil, fmt.Errorf("embedding service returned %d vectors for %d sentences", len(resp.Data), len(missText))
	}

	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(missIdx) {
			return nil, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		v := Normalize(Vector(d.Embedding))
		if h.dims > 0 && len(v) != h.dims {
			h.logger.Warn("embedding dimension mismatch", "want", h.dims, "got", len(v))
		}
		out[missIdx[d.Index]] = v
		if h.cache != nil {
			h.cache.Add(ContentHash(missText[d.Index]), v)
		}
	}
	return out, nil
}

// Dimensions returns the configured embedding dimension.
func (h *HTTPEncoder) Dimensions() int {
	return h.dims
}

// ContentHash returns the hex SHA-256 of text, used as the cache key.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
