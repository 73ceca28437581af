package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/cognicore/annotator/pkg/annotator/internalerr"
	"github.com/cognicore/annotator/pkg/annotator/store"
)

type project struct {
	title    string
	record   store.Record
	keywords map[string]struct{}
	tags     map[string]struct{}
}

// Store is an in-memory implementation of store.Store for tests and dry runs.
type Store struct {
	mu       sync.RWMutex
	nextID   int64
	projects map[int64]*project
	tags     map[string]struct{}
}

var _ store.Store = (*Store)(nil)

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		nextID:   1,
		projects: make(map[int64]*project),
		tags:     make(map[string]struct{}),
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// CreateProject implements store.Store.
func (s *Store) CreateProject(_ context.Context, title string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.projects[id] = &project{
		title:    title,
		keywords: make(map[string]struct{}),
		tags:     make(map[string]struct{}),
	}
	return id, nil
}

// SaveProject implements store.Store.
func (s *Store) SaveProject(_ context.Context, projectID int64, r store.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[projectID]
	if !ok {
		return fmt.Errorf("project %d: %w", projectID, internalerr.ErrNotFound)
	}
	p.record.Embedding = append([]float32(nil), r.Embedding...)
	p.record.Summary = r.Summary
	p.record.Description = r.Description
	p.record.Annotation = r.Annotation
	if r.RepositoryURL != "" {
		p.record.RepositoryURL = r.RepositoryURL
	}
	for _, kw := range store.UniqueStrings(r.Keywords) {
		p.keywords[kw] = struct{}{}
	}
	for _, tag := range store.UniqueStrings(r.Tags) {
		if _, known := s.tags[tag]; known {
			p.tags[tag] = struct{}{}
		}
	}
	return nil
}

// GetProject implements store.Store.
func (s *Store) GetProject(_ context.Context, projectID int64) (store.Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.projects[projectID]
	if !ok {
		return store.Record{}, false, nil
	}
	rec := p.record
	rec.Embedding = append([]float32(nil), p.record.Embedding...)
	rec.Keywords = sortedKeys(p.keywords)
	rec.Tags = sortedKeys(p.tags)
	return rec, true, nil
}

// EnsureTags implements store.Store.
func (s *Store) EnsureTags(_ context.Context, names []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, name := range store.UniqueStrings(names) {
		s.tags[name] = struct{}{}
	}
	return nil
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
