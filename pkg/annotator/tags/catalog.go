package tags

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/annotator/pkg/annotator/embed"
	"github.com/cognicore/annotator/pkg/annotator/internalerr"
)

// Catalog maps controlled-vocabulary tag names to unit-length embeddings.
// It is read-only once built and safe for concurrent use.
type Catalog struct {
	names []string
	vecs  []embed.Vector
	dims  int
}

type catalogFile struct {
	Tags       []string    `yaml:"tags" json:"tags"`
	Embeddings [][]float32 `yaml:"embeddings" json:"embeddings"`
}

// NewCatalog builds a catalog from parallel name and embedding slices.
// Every embedding must have the same dimension.
func NewCatalog(names []string, vecs []embed.Vector) (*Catalog, error) {
	if len(names) != len(vecs) {
		return nil, fmt.Errorf("tag catalog: %d names for %d embeddings: %w", len(names), len(vecs), internalerr.ErrInvalidInput)
	}
	c := &Catalog{
		names: make([]string, len(names)),
		vecs:  make([]embed.Vector, len(vecs)),
	}
	copy(c.names, names)
	for i, v := range vecs {
		if i == 0 {
			c.dims = len(v)
		} else if len(v) != c.dims {
			return nil, fmt.Errorf("tag %q has dimension %d, want %d: %w", names[i], len(v), c.dims, internalerr.ErrInvalidInput)
		}
		c.vecs[i] = append(embed.Vector(nil), v...)
	}
	return c, nil
}

// LoadCatalog reads a catalog file. JSON and YAML are both accepted.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tag catalog %s: %v: %w", path, err, internalerr.ErrCatalogUnavailable)
	}

	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse tag catalog %s: %v: %w", path, err, internalerr.ErrCatalogUnavailable)
	}

	vecs := make([]embed.Vector, len(f.Embeddings))
	for i, e := range f.Embeddings {
		vecs[i] = embed.Vector(e)
	}
	c, err := NewCatalog(f.Tags, vecs)
	if err != nil {
		return nil, fmt.Errorf("load tag catalog %s: %v: %w", path, err, internalerr.ErrCatalogUnavailable)
	}
	return c, nil
}

// BuildCatalog encodes names with enc. Blank names are skipped and the
// resulting embeddings are normalised.
func BuildCatalog(ctx context.Context, enc embed.Encoder, names []string) (*Catalog, error) {
	var clean []string
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			clean = append(clean, n)
		}
	}
	if len(clean) == 0 {
		return NewCatalog(nil, nil)
	}
	vecs, err := enc.Encode(ctx, clean)
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}
	for i := range vecs {
		vecs[i] = embed.Normalize(vecs[i])
	}
	return NewCatalog(clean, vecs)
}

// Save writes the catalog to path, as JSON for a .json extension and YAML otherwise.
func (c *Catalog) Save(path string) error {
	f := catalogFile{Tags: c.names, Embeddings: make([][]float32, len(c.vecs))}
	for i, v := range c.vecs {
		f.Embeddings[i] = v
	}

	var data []byte
	var err error
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = json.Marshal(f)
	} else {
		data, err = yaml.Marshal(f)
	}
	if err != nil {
		return fmt.Errorf("encode tag catalog: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// TopTags returns the n tags whose embeddings have the highest dot product
// with v, best first. Ties keep catalog order.
func (c *Catalog) TopTags(v embed.Vector, n int) ([]string, error) {
	if n <= 0 || len(c.names) == 0 {
		return nil, nil
	}
	if len(v) != c.dims {
		return nil, fmt.Errorf("vector dimension %d, catalog dimension %d: %w", len(v), c.dims, internalerr.ErrInvalidInput)
	}

	scores := make([]float64, len(c.vecs))
	idx := make([]int, len(c.vecs))
	for i, tv := range c.vecs {
		scores[i] = embed.Dot(tv, v)
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return scores[idx[a]] > scores[idx[b]] })

	if n > len(idx) {
		n = len(idx)
	}
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = c.names[idx[i]]
	}
	return out, nil
}

// Len returns the number of tags.
func (c *Catalog) Len() int { return len(c.names) }

// Dimensions returns the embedding dimension.
func (c *Catalog) Dimensions() int { return c.dims }

// Names returns the tag names in catalog order.
func (c *Catalog) Names() []string {
	return append([]string(nil), c.names...)
}
