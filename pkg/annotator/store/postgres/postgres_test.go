package postgres

import (
	"context"
	"errors"
	"os"
	"reflect"
	"testing"

	"github.com/cognicore/annotator/pkg/annotator/internalerr"
	"github.com/cognicore/annotator/pkg/annotator/store"
)

// openTestStore connects to POSTGRES_TEST_DSN; the tests are skipped without it.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set; skipping PostgreSQL integration tests")
	}
	st, err := Open(context.Background(), dsn, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestPostgresRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	id, err := st.CreateProject(ctx, "project_pg_test")
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if err := st.EnsureTags(ctx, []string{"графы"}); err != nil {
		t.Fatalf("EnsureTags: %v", err)
	}

	rec := store.Record{
		Embedding:     []float32{1, 0, 0},
		Summary:       "s",
		Description:   "d",
		Annotation:    "a",
		RepositoryURL: "https://github.com/acme/graphs",
		Keywords:      []string{"обход графа", "алгоритм"},
		Tags:          []string{"графы", "нет такого"},
	}
	if err := st.SaveProject(ctx, id, rec); err != nil {
		t.Fatalf("SaveProject: %v", err)
	}
	if err := st.SaveProject(ctx, id, rec); err != nil {
		t.Fatalf("SaveProject is not idempotent: %v", err)
	}

	got, found, err := st.GetProject(ctx, id)
	if err != nil || !found {
		t.Fatalf("GetProject: found=%v err=%v", found, err)
	}
	if !reflect.DeepEqual(got.Embedding, rec.Embedding) {
		t.Errorf("Embedding = %v", got.Embedding)
	}
	if want := []string{"алгоритм", "обход графа"}; !reflect.DeepEqual(got.Keywords, want) {
		t.Errorf("Keywords = %v, want %v", got.Keywords, want)
	}
	if want := []string{"графы"}; !reflect.DeepEqual(got.Tags, want) {
		t.Errorf("Tags = %v, want %v", got.Tags, want)
	}
}

func TestPostgresMissingProject(t *testing.T) {
	st := openTestStore(t)
	err := st.SaveProject(context.Background(), -1, store.Record{})
	if !errors.Is(err, internalerr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
