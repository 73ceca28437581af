package tags

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/cognicore/annotator/pkg/annotator/embed"
	"github.com/cognicore/annotator/pkg/annotator/internalerr"
)

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := NewCatalog(
		[]string{"ml", "web", "db", "ml-copy"},
		[]embed.Vector{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {1, 0, 0}},
	)
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	return c
}

func TestTopTags(t *testing.T) {
	c := testCatalog(t)

	tests := []struct {
		name string
		v    embed.Vector
		n    int
		want []string
	}{
		{"best first, ties in catalog order", embed.Vector{0.8, 0.6, 0}, 3, []string{"ml", "ml-copy", "web"}},
		{"n larger than catalog", embed.Vector{0, 0, 1}, 10, []string{"db", "ml", "web", "ml-copy"}},
		{"zero n", embed.Vector{1, 0, 0}, 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.TopTags(tt.v, tt.n)
			if err != nil {
				t.Fatalf("TopTags: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("TopTags = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTopTagsDistinct(t *testing.T) {
	c := testCatalog(t)
	got, _ := c.TopTags(embed.Vector{0.5, 0.5, 0.5}, 4)
	seen := map[string]bool{}
	for _, tag := range got {
		if seen[tag] {
			t.Errorf("duplicate tag %q", tag)
		}
		seen[tag] = true
	}
}

func TestTopTagsDimensionMismatch(t *testing.T) {
	c := testCatalog(t)
	if _, err := c.TopTags(embed.Vector{1, 0}, 2); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestNewCatalogValidation(t *testing.T) {
	if _, err := NewCatalog([]string{"a"}, nil); err == nil {
		t.Error("expected error for mismatched lengths")
	}
	if _, err := NewCatalog([]string{"a", "b"}, []embed.Vector{{1, 0}, {1}}); err == nil {
		t.Error("expected error for mixed dimensions")
	}
}

func TestSaveAndLoad(t *testing.T) {
	c := testCatalog(t)
	dir := t.TempDir()

	for _, name := range []string{"tags.json", "tags.yaml"} {
		path := filepath.Join(dir, name)
		if err := c.Save(path); err != nil {
			t.Fatalf("Save(%s): %v", name, err)
		}
		loaded, err := LoadCatalog(path)
		if err != nil {
			t.Fatalf("LoadCatalog(%s): %v", name, err)
		}
		if !reflect.DeepEqual(loaded.Names(), c.Names()) || loaded.Dimensions() != 3 {
			t.Errorf("%s round trip lost data: %v dims=%d", name, loaded.Names(), loaded.Dimensions())
		}
	}
}

func TestLoadCatalogErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadCatalog(filepath.Join(dir, "missing.json")); !errors.Is(err, internalerr.ErrCatalogUnavailable) {
		t.Errorf("missing file: expected ErrCatalogUnavailable, got %v", err)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"tags": ["a", "b"], "embeddings": [[1, 0]]}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadCatalog(bad); !errors.Is(err, internalerr.ErrCatalogUnavailable) {
		t.Errorf("inconsistent file: expected ErrCatalogUnavailable, got %v", err)
	}
}

type scaleEncoder struct{}

func (scaleEncoder) Encode(_ context.Context, sentences []string) ([]embed.Vector, error) {
	out := make([]embed.Vector, len(sentences))
	for i, s := range sentences {
		out[i] = embed.Vector{float32(len(s)), 1}
	}
	return out, nil
}

func (scaleEncoder) Dimensions() int { return 2 }

func TestBuildCatalog(t *testing.T) {
	c, err := BuildCatalog(context.Background(), scaleEncoder{}, []string{"  ai ", "", "web"})
	if err != nil {
		t.Fatalf("BuildCatalog: %v", err)
	}
	if !reflect.DeepEqual(c.Names(), []string{"ai", "web"}) {
		t.Errorf("names = %v", c.Names())
	}
	for _, v := range c.vecs {
		if n := embed.Norm(v); n < 0.999 || n > 1.001 {
			t.Errorf("tag embedding should be normalised, norm=%f", n)
		}
	}
}

func TestSourceLoadsOnce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tags.json")
	if err := testCatalog(t).Save(path); err != nil {
		t.Fatal(err)
	}

	src := NewSource(path)
	first, err := src.Catalog()
	if err != nil {
		t.Fatalf("Catalog: %v", err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	second, err := src.Catalog()
	if err != nil || second != first {
		t.Errorf("second call should reuse the loaded catalog, got %v, %v", second, err)
	}
}

func TestStaticSource(t *testing.T) {
	c := testCatalog(t)
	got, err := Static(c).Catalog()
	if err != nil || got != c {
		t.Errorf("Static source returned %v, %v", got, err)
	}
}
