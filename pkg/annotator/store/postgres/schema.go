// Package postgres stores project metadata in PostgreSQL, using pgvector for
// the embedding column when the extension is installed.
package postgres

// Schema creates the project tables when the database is not managed by the
// web application. Every statement is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS projects (
    id BIGSERIAL PRIMARY KEY,
    title TEXT NOT NULL,
    short_description TEXT,
    description TEXT,
    annotation TEXT
);

CREATE TABLE IF NOT EXISTS project_urls (
    project_id BIGINT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
    repository_url TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS project_keys (
    project_id BIGINT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
    key TEXT NOT NULL,
    UNIQUE (project_id, key)
);

CREATE TABLE IF NOT EXISTS tags (
    id BIGSERIAL PRIMARY KEY,
    name TEXT UNIQUE NOT NULL
);

CREATE TABLE IF NOT EXISTS project_tags (
    project_id BIGINT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
    tag_id BIGINT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
    UNIQUE (project_id, tag_id)
);
`

// MigrationVector adds the pgvector embedding column.
const MigrationVector = `
ALTER TABLE projects ADD COLUMN IF NOT EXISTS embedding vector;
`

// MigrationArray adds a plain float array embedding column for servers
// without pgvector.
const MigrationArray = `
ALTER TABLE projects ADD COLUMN IF NOT EXISTS embedding REAL[];
`
