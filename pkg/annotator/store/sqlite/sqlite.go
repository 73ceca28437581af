package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/annotator/pkg/annotator/internalerr"
	"github.com/cognicore/annotator/pkg/annotator/store"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled and creates the
// project tables.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS projects (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	embedding TEXT,
	short_description TEXT,
	description TEXT,
	annotation TEXT,
	updated_at TEXT
);

CREATE TABLE IF NOT EXISTS project_urls (
	project_id INTEGER NOT NULL,
	repository_url TEXT NOT NULL,
	FOREIGN KEY(project_id) REFERENCES projects(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS project_keys (
	project_id INTEGER NOT NULL,
	key TEXT NOT NULL,
	UNIQUE(project_id, key),
	FOREIGN KEY(project_id) REFERENCES projects(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS tags (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT UNIQUE NOT NULL
);

CREATE TABLE IF NOT EXISTS project_tags (
	project_id INTEGER NOT NULL,
	tag_id INTEGER NOT NULL,
	UNIQUE(project_id, tag_id),
	FOREIGN KEY(project_id) REFERENCES projects(id) ON DELETE CASCADE,
	FOREIGN KEY(tag_id) REFERENCES tags(id) ON DELETE CASCADE
);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// CreateProject inserts a project row
func (s *sqliteStore) CreateProject(ctx context.Context, title string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO projects (title) VALUES (?)`, title)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// SaveProject updates the project row and appends keywords and tags.
func (s *sqliteStore) SaveProject(ctx context.Context, projectID int64, r store.Record) error {
	embedding, err := json.Marshal(r.Embedding)
	if err != nil {
		return fmt.Errorf("encode embedding: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
UPDATE projects
   SET embedding = ?,
       short_description = ?,
       description = ?,
       annotation = ?,
       updated_at = ?
 WHERE id = ?;
`, string(embedding), r.Summary, r.Description, r.Annotation, time.Now().UTC().Format(time.RFC3339), projectID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("project %d: %w", projectID, internalerr.ErrNotFound)
	}

	if r.RepositoryURL != "" {
		if _, err := tx.ExecContext(ctx, `DELETE FROM project_urls WHERE project_id=?`, projectID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO project_urls (project_id, repository_url) VALUES (?, ?)`, projectID, r.RepositoryURL); err != nil {
			return err
		}
	}

	if err := insertKeywords(ctx, tx, projectID, store.UniqueStrings(r.Keywords)); err != nil {
		return err
	}
	if err := linkTags(ctx, tx, projectID, store.UniqueStrings(r.Tags)); err != nil {
		return err
	}

	return tx.Commit()
}

func insertKeywords(ctx context.Context, tx *sql.Tx, projectID int64, keywords []string) error {
	if len(keywords) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO project_keys (project_id, key) VALUES (?, ?) ON CONFLICT(project_id, key) DO NOTHING`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, kw := range keywords {
		if _, err := stmt.ExecContext(ctx, projectID, kw); err != nil {
			return err
		}
	}
	return nil
}

// linkTags links only the tags already present in the tags table.
func linkTags(ctx context.Context, tx *sql.Tx, projectID int64, names []string) error {
	if len(names) == 0 {
		return nil
	}
	lookup, err := tx.PrepareContext(ctx, `SELECT id FROM tags WHERE name = ?`)
	if err != nil {
		return err
	}
	defer lookup.Close()
	link, err := tx.PrepareContext(ctx, `INSERT INTO project_tags (project_id, tag_id) VALUES (?, ?) ON CONFLICT(project_id, tag_id) DO NOTHING`)
	if err != nil {
		return err
	}
	defer link.Close()

	for _, name := range names {
		var tagID int64
		err := lookup.QueryRowContext(ctx, name).Scan(&tagID)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return err
		}
		if _, err := link.ExecContext(ctx, projectID, tagID); err != nil {
			return err
		}
	}
	return nil
}

// GetProject loads the stored record of a project.
func (s *sqliteStore) GetProject(ctx context.Context, projectID int64) (store.Record, bool, error) {
	var rec store.Record
	var embedding, summary, description, annotation sql.NullString
	err := s.db.QueryRowContext(ctx, `
SELECT embedding, short_description, description, annotation
FROM projects
WHERE id = ?;
`, projectID).Scan(&embedding, &summary, &description, &annotation)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Record{}, false, nil
	}
	if err != nil {
		return store.Record{}, false, err
	}

	if embedding.Valid && embedding.String != "" {
		if err := json.Unmarshal([]byte(embedding.String), &rec.Embedding); err != nil {
			return store.Record{}, false, fmt.Errorf("decode embedding: %w", err)
		}
	}
	rec.Summary = summary.String
	rec.Description = description.String
	rec.Annotation = annotation.String

	urls, err := s.loadStringColumn(ctx, `SELECT repository_url FROM project_urls WHERE project_id=? LIMIT 1`, projectID)
	if err != nil {
		return store.Record{}, false, err
	}
	if len(urls) > 0 {
		rec.RepositoryURL = urls[0]
	}
	rec.Keywords, err = s.loadStringColumn(ctx, `SELECT key FROM project_keys WHERE project_id=? ORDER BY key`, projectID)
	if err != nil {
		return store.Record{}, false, err
	}
	rec.Tags, err = s.loadStringColumn(ctx, `
SELECT t.name FROM project_tags pt
JOIN tags t ON t.id = pt.tag_id
WHERE pt.project_id=?
ORDER BY t.name`, projectID)
	if err != nil {
		return store.Record{}, false, err
	}
	return rec, true, nil
}

// EnsureTags inserts missing tag names.
func (s *sqliteStore) EnsureTags(ctx context.Context, names []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO tags (name) VALUES (?) ON CONFLICT(name) DO NOTHING`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, name := range store.UniqueStrings(names) {
		if _, err := stmt.ExecContext(ctx, name); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *sqliteStore) loadStringColumn(ctx context.Context, query string, args ...interface{}) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var val string
		if err := rows.Scan(&val); err != nil {
			return nil, err
		}
		result = append(result, val)
	}
	return result, rows.Err()
}
