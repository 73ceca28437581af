package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/annotator/pkg/annotator/ingest"
	"github.com/cognicore/annotator/pkg/annotator/nlp"
	"github.com/cognicore/annotator/pkg/annotator/stoplist"
)

// Stoplist represents the stopword list configuration
type Stoplist struct {
	Terms []string `yaml:"terms"`
	// Replace discards the built-in list instead of extending it.
	Replace bool `yaml:"replace"`
}

// LoadStoplist loads stopwords from a YAML file
func LoadStoplist(path string) (*Stoplist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sl Stoplist
	if err := yaml.Unmarshal(data, &sl); err != nil {
		return nil, err
	}

	return &sl, nil
}

// Loader loads the override files and constructs the text processing components
type Loader struct {
	StoplistPath string
	GenericPath  string
}

// Components holds the stateless text processing components shared by every run
type Components struct {
	Stoplist     *stoplist.Manager
	Cleaner      *ingest.Cleaner
	Tokenizer    *ingest.Tokenizer
	Tagger       nlp.Tagger
	Lemmatizer   nlp.Lemmatizer
	GenericTerms []string
}

// Load reads the override files and returns initialized components
func (l *Loader) Load() (*Components, error) {
	stops := stoplist.Default()
	if l.StoplistPath != "" {
		sl, err := LoadStoplist(l.StoplistPath)
		if err != nil {
			return nil, fmt.Errorf("load stoplist: %w", err)
		}
		if sl.Replace {
			stops = stoplist.NewManager(sl.Terms)
		} else {
			for _, term := range sl.Terms {
				stops.Add(term)
			}
		}
	}

	generic := stoplist.GenericTerms()
	if l.GenericPath != "" {
		gl, err := LoadStoplist(l.GenericPath)
		if err != nil {
			return nil, fmt.Errorf("load generic terms: %w", err)
		}
		if gl.Replace {
			generic = gl.Terms
		} else {
			generic = append(generic, gl.Terms...)
		}
	}

	return &Components{
		Stoplist:     stops,
		Cleaner:      ingest.NewCleaner(),
		Tokenizer:    ingest.NewTokenizer(stops),
		Tagger:       nlp.NewSuffixTagger(),
		Lemmatizer:   nlp.NewSnowballLemmatizer(stops),
		GenericTerms: generic,
	}, nil
}
