package main

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/cognicore/annotator/pkg/annotator"
	"github.com/cognicore/annotator/pkg/annotator/config"
	"github.com/cognicore/annotator/pkg/annotator/store/memstore"
)

func TestBuildAnnotatorDefaults(t *testing.T) {
	cfg := config.Default()
	if enc := newEncoder(cfg.Embedding, slog.Default()); enc != nil {
		t.Fatal("encoder must be nil without embedding.base_url")
	}

	a, err := buildAnnotator(cfg, slog.Default(), nil)
	if err != nil {
		t.Fatalf("buildAnnotator: %v", err)
	}
	meta, err := a.ProcessProject(context.Background(), []annotator.Source{{
		Name: "report.txt",
		Text: "Система учёта оборудования хранит данные в базе PostgreSQL. Пользователи бронируют оборудование через веб-интерфейс.",
	}})
	if err != nil {
		t.Fatalf("ProcessProject: %v", err)
	}
	if meta.Summary == "" {
		t.Error("expected a lead summary without an encoder")
	}
	if meta.Embedding != nil {
		t.Errorf("Embedding = %v, want nil without an encoder", meta.Embedding)
	}
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	st, err := openStore(ctx, config.Store{Driver: "memory"}, slog.Default())
	if err != nil {
		t.Fatalf("memory: %v", err)
	}
	if _, ok := st.(*memstore.Store); !ok {
		t.Errorf("memory driver returned %T", st)
	}

	st, err = openStore(ctx, config.Store{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "a.db")}, slog.Default())
	if err != nil {
		t.Fatalf("sqlite: %v", err)
	}
	defer st.Close()
	if _, err := st.CreateProject(ctx, "p"); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
}
