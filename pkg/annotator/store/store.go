package store

import (
	"context"

	"github.com/cognicore/annotator/pkg/annotator"
)

// Store persists annotation results against existing projects.
type Store interface {
	Close() error

	// CreateProject inserts an empty project row and returns its id.
	CreateProject(ctx context.Context, title string) (int64, error)

	// SaveProject writes a run's results. Keywords and tags are appended,
	// never removed; tags missing from the tag table are skipped. The
	// repository link replaces the previous one when set.
	SaveProject(ctx context.Context, projectID int64, r Record) error
	GetProject(ctx context.Context, projectID int64) (Record, bool, error)

	// EnsureTags makes the given names available for linking.
	EnsureTags(ctx context.Context, names []string) error
}

// Record is the persisted part of a project's metadata. Keywords and Tags
// come back from GetProject sorted.
type Record struct {
	Embedding     []float32
	Summary       string
	Description   string
	Annotation    string
	RepositoryURL string
	Keywords      []string
	Tags          []string
}

// NewRecord keeps the fields of m that are stored. Only the first
// repository link is kept.
func NewRecord(m annotator.ProjectMetadata) Record {
	r := Record{
		Embedding:   append([]float32(nil), m.Embedding...),
		Summary:     m.Summary,
		Description: m.Description,
		Annotation:  m.Annotation,
		Keywords:    UniqueStrings(m.Keywords),
		Tags:        UniqueStrings(m.Tags),
	}
	if len(m.RepositoryLinks) > 0 {
		r.RepositoryURL = m.RepositoryLinks[0]
	}
	return r
}

// UniqueStrings drops empty and repeated values, keeping the first occurrence.
func UniqueStrings(in []string) []string {
	set := make(map[string]struct{}, len(in))
	var out []string
	for _, v := range in {
		if v == "" {
			continue
		}
		if _, ok := set[v]; ok {
			continue
		}
		set[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
