package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/annotator/pkg/annotator/internalerr"
)

// Config is the annotator configuration file.
type Config struct {
	Pipeline   Pipeline       `yaml:"pipeline"`
	Embedding  Embedding      `yaml:"embedding"`
	Refinement Refinement     `yaml:"refinement"`
	Tags       Tags           `yaml:"tags"`
	Stoplist   StoplistConfig `yaml:"stoplist"`
	Store      Store          `yaml:"store"`
	NATS       NATS           `yaml:"nats"`
	Log        Log            `yaml:"log"`
	Metrics    Metrics        `yaml:"metrics"`
}

// Pipeline holds the extraction parameters.
type Pipeline struct {
	TopK          int     `yaml:"top_k"`
	Diversity     float64 `yaml:"diversity"`
	MaxSentences  int     `yaml:"max_sentences"`
	TopTags       int     `yaml:"top_tags"`
	Weighting     string  `yaml:"weighting"`
	NERMaxChars   int     `yaml:"ner_max_chars"`
	CandidateMinN int     `yaml:"candidate_min_n"`
	CandidateMaxN int     `yaml:"candidate_max_n"`
}

// Embedding configures the sentence embedding service.
type Embedding struct {
	BaseURL    string        `yaml:"base_url"`
	Model      string        `yaml:"model"`
	APIKey     string        `yaml:"api_key"`
	Dimensions int           `yaml:"dimensions"`
	Timeout    time.Duration `yaml:"timeout"`
	CacheSize  int           `yaml:"cache_size"`
}

// Refinement configures the chat model used to polish drafts and extract entities.
type Refinement struct {
	Enabled           bool          `yaml:"enabled"`
	BaseURL           string        `yaml:"base_url"`
	Model             string        `yaml:"model"`
	APIKey            string        `yaml:"api_key"`
	Timeout           time.Duration `yaml:"timeout"`
	MaxAttempts       int           `yaml:"max_attempts"`
	BaseDelay         time.Duration `yaml:"base_delay"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
}

// Tags points at the tag catalog file.
type Tags struct {
	CatalogPath string `yaml:"catalog_path"`
}

// StoplistConfig points at optional stop word and generic term overrides.
type StoplistConfig struct {
	Path        string `yaml:"path"`
	GenericPath string `yaml:"generic_path"`
}

// Store selects the metadata store.
type Store struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// NATS configures the request queue and the object store bucket.
type NATS struct {
	URL             string `yaml:"url"`
	Stream          string `yaml:"stream"`
	RequestSubject  string `yaml:"request_subject"`
	ResponseSubject string `yaml:"response_subject"`
	Durable         string `yaml:"durable"`
	ObjectBucket    string `yaml:"object_bucket"`
}

// Log configures the process logger.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Metrics configures the Prometheus endpoint.
type Metrics struct {
	Addr string `yaml:"addr"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Pipeline: Pipeline{
			TopK:          12,
			Diversity:     0.65,
			MaxSentences:  5,
			TopTags:       5,
			Weighting:     "sentences",
			NERMaxChars:   2000,
			CandidateMinN: 2,
			CandidateMaxN: 4,
		},
		Embedding: Embedding{
			Model:      "sentence-transformers/paraphrase-multilingual-mpnet-base-v2",
			Dimensions: 768,
			Timeout:    30 * time.Second,
			CacheSize:  4096,
		},
		Refinement: Refinement{
			BaseURL:     "https://api.openai.com/v1/chat/completions",
			Model:       "gpt-4o-mini",
			Timeout:     60 * time.Second,
			MaxAttempts: 3,
			BaseDelay:   time.Second,
		},
		Store: Store{
			Driver: "sqlite",
			DSN:    "annotator.db",
		},
		NATS: NATS{
			URL:             "nats://127.0.0.1:4222",
			Stream:          "ANNOTATOR",
			RequestSubject:  "annotator.requests",
			ResponseSubject: "annotator.responses",
			Durable:         "annotator-worker",
			ObjectBucket:    "project-files",
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
		Metrics: Metrics{
			Addr: ":9090",
		},
	}
}

// Load reads a YAML file over the defaults and applies environment overrides.
// An empty path uses the defaults alone.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides secrets and endpoints from ANNOTATOR_* variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	set := func(name string, dst *string) {
		if v, ok := lookup(name); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set("ANNOTATOR_OPENAI_TOKEN", &c.Refinement.APIKey)
	set("ANNOTATOR_OPENAI_URL", &c.Refinement.BaseURL)
	set("ANNOTATOR_EMBEDDING_URL", &c.Embedding.BaseURL)
	set("ANNOTATOR_EMBEDDING_KEY", &c.Embedding.APIKey)
	set("ANNOTATOR_DB_DRIVER", &c.Store.Driver)
	set("ANNOTATOR_DB_URL", &c.Store.DSN)
	set("ANNOTATOR_NATS_URL", &c.NATS.URL)
	set("ANNOTATOR_TAG_CATALOG", &c.Tags.CatalogPath)
	set("ANNOTATOR_LOG_LEVEL", &c.Log.Level)

	if v, ok := lookup("ANNOTATOR_OPENAI_TOKEN"); ok && strings.TrimSpace(v) != "" {
		c.Refinement.Enabled = true
	}
}

// Validate checks value ranges.
func (c Config) Validate() error {
	p := c.Pipeline
	switch {
	case p.TopK <= 0:
		return invalid("pipeline.top_k", p.TopK)
	case p.Diversity < 0 || p.Diversity > 1:
		return invalid("pipeline.diversity", p.Diversity)
	case p.MaxSentences <= 0:
		return invalid("pipeline.max_sentences", p.MaxSentences)
	case p.TopTags <= 0:
		return invalid("pipeline.top_tags", p.TopTags)
	case p.NERMaxChars <= 0:
		return invalid("pipeline.ner_max_chars", p.NERMaxChars)
	case p.CandidateMinN <= 0 || p.CandidateMaxN < p.CandidateMinN:
		return invalid("pipeline.candidate_min_n/candidate_max_n", fmt.Sprintf("%d..%d", p.CandidateMinN, p.CandidateMaxN))
	case c.Embedding.Dimensions <= 0:
		return invalid("embedding.dimensions", c.Embedding.Dimensions)
	case c.Refinement.MaxAttempts <= 0:
		return invalid("refinement.max_attempts", c.Refinement.MaxAttempts)
	}
	switch c.Store.Driver {
	case "sqlite", "postgres", "memory":
	default:
		return invalid("store.driver", c.Store.Driver)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return invalid("log.format", c.Log.Format)
	}
	return nil
}

func invalid(field string, value any) error {
	return fmt.Errorf("%s: bad value %v: %w", field, value, internalerr.ErrInvalidConfig)
}
