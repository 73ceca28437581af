package tags

import "sync"

// Source loads a catalog file on first use and shares it afterwards.
// A failed load is remembered and returned to every caller.
type Source struct {
	path string

	once sync.Once
	cat  *Catalog
	err  error
}

// NewSource creates a lazy catalog source for path.
func NewSource(path string) *Source {
	return &Source{path: path}
}

// Static wraps an already built catalog.
func Static(c *Catalog) *Source {
	s := &Source{cat: c}
	s.once.Do(func() {})
	return s
}

// Catalog returns the loaded catalog.
func (s *Source) Catalog() (*Catalog, error) {
	s.once.Do(func() {
		s.cat, s.err = LoadCatalog(s.path)
	})
	return s.cat, s.err
}
