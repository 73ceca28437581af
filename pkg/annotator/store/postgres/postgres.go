package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/cognicore/annotator/pkg/annotator/internalerr"
	"github.com/cognicore/annotator/pkg/annotator/store"
)

// Store implements store.Store on PostgreSQL.
type Store struct {
	db                *sql.DB
	pgvectorAvailable bool
	logger            *slog.Logger
}

var _ store.Store = (*Store)(nil)

// Open connects to dsn, applies the schema and detects pgvector. A server
// without the extension keeps embeddings in a REAL[] column.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: %w: %v", internalerr.ErrStoreUnavailable, err)
	}

	s := &Store{db: db, logger: logger}
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: apply schema: %w", err)
	}

	if _, err := db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		logger.Warn("pgvector extension not available, storing embeddings as arrays", "error", err)
	} else {
		s.pgvectorAvailable = true
	}

	migration := MigrationArray
	if s.pgvectorAvailable {
		migration = MigrationVector
	}
	if _, err := db.ExecContext(ctx, migration); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: add embedding column: %w", err)
	}
	return s, nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateProject inserts a project row.
func (s *Store) CreateProject(ctx context.Context, title string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `INSERT INTO projects (title) VALUES ($1) RETURNING id`, title).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("postgres: create project: %w", err)
	}
	return id, nil
}

// embeddingValue picks the column encoding detected at Open.
func (s *Store) embeddingValue(v []float32) any {
	if len(v) == 0 {
		return nil
	}
	if s.pgvectorAvailable {
		return pgvector.NewVector(v)
	}
	return pq.Array(v)
}

// SaveProject updates the project row and appends keywords and tags in one
// transaction.
func (s *Store) SaveProject(ctx context.Context, projectID int64, r store.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE projects
		   SET embedding = $1,
		       short_description = $2,
		       description = $3,
		       annotation = $4
		 WHERE id = $5
	`, s.embeddingValue(r.Embedding), r.Summary, r.Description, r.Annotation, projectID)
	if err != nil {
		return fmt.Errorf("postgres: update project: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("postgres: project %d: %w", projectID, internalerr.ErrNotFound)
	}

	if r.RepositoryURL != "" {
		if _, err := tx.ExecContext(ctx, `DELETE FROM project_urls WHERE project_id = $1`, projectID); err != nil {
			return fmt.Errorf("postgres: clear links: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO project_urls (project_id, repository_url) VALUES ($1, $2)`,
			projectID, r.RepositoryURL); err != nil {
			return fmt.Errorf("postgres: insert link: %w", err)
		}
	}

	if keywords := store.UniqueStrings(r.Keywords); len(keywords) > 0 {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO project_keys (project_id, key)
			SELECT $1, k FROM unnest($2::text[]) AS k
			ON CONFLICT (project_id, key) DO NOTHING
		`, projectID, pq.Array(keywords)); err != nil {
			return fmt.Errorf("postgres: insert keywords: %w", err)
		}
	}

	if tags := store.UniqueStrings(r.Tags); len(tags) > 0 {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO project_tags (project_id, tag_id)
			SELECT $1, id FROM tags WHERE name = ANY ($2)
			ON CONFLICT (project_id, tag_id) DO NOTHING
		`, projectID, pq.Array(tags)); err != nil {
			return fmt.Errorf("postgres: link tags: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

// GetProject loads the stored record of a project.
func (s *Store) GetProject(ctx context.Context, projectID int64) (store.Record, bool, error) {
	var rec store.Record
	var summary, description, annotation sql.NullString
	var err error

	if s.pgvectorAvailable {
		var vec pgvector.Vector
		var present bool
		err = s.db.QueryRowContext(ctx, `
			SELECT embedding IS NOT NULL, COALESCE(embedding, '[0]'::vector), short_description, description, annotation
			  FROM projects WHERE id = $1
		`, projectID).Scan(&present, &vec, &summary, &description, &annotation)
		if err == nil && present {
			rec.Embedding = vec.Slice()
		}
	} else {
		var arr pq.Float32Array
		err = s.db.QueryRowContext(ctx, `
			SELECT embedding, short_description, description, annotation
			  FROM projects WHERE id = $1
		`, projectID).Scan(&arr, &summary, &description, &annotation)
		if err == nil && len(arr) > 0 {
			rec.Embedding = []float32(arr)
		}
	}
	if errors.Is(err, sql.ErrNoRows) {
		return store.Record{}, false, nil
	}
	if err != nil {
		return store.Record{}, false, fmt.Errorf("postgres: get project: %w", err)
	}
	rec.Summary = summary.String
	rec.Description = description.String
	rec.Annotation = annotation.String

	var url sql.NullString
	err = s.db.QueryRowContext(ctx,
		`SELECT repository_url FROM project_urls WHERE project_id = $1 LIMIT 1`, projectID).Scan(&url)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return store.Record{}, false, fmt.Errorf("postgres: get link: %w", err)
	}
	rec.RepositoryURL = url.String

	if rec.Keywords, err = s.strings(ctx,
		`SELECT key FROM project_keys WHERE project_id = $1 ORDER BY key`, projectID); err != nil {
		return store.Record{}, false, err
	}
	if rec.Tags, err = s.strings(ctx, `
		SELECT t.name FROM project_tags pt
		  JOIN tags t ON t.id = pt.tag_id
		 WHERE pt.project_id = $1
		 ORDER BY t.name`, projectID); err != nil {
		return store.Record{}, false, err
	}
	return rec, true, nil
}

// EnsureTags inserts missing tag names.
func (s *Store) EnsureTags(ctx context.Context, names []string) error {
	names = store.UniqueStrings(names)
	if len(names) == 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tags (name)
		SELECT n FROM unnest($1::text[]) AS n
		ON CONFLICT (name) DO NOTHING
	`, pq.Array(names))
	if err != nil {
		return fmt.Errorf("postgres: ensure tags: %w", err)
	}
	return nil
}

func (s *Store) strings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: query: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("postgres: scan: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
