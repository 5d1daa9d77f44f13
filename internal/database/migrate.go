package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Statements run in order inside one transaction; every statement is
// idempotent.  The saved_queries, executions, chat and schema_cache tables
// carry no business logic yet — the schema exists so the data model is
// stable while those features are built out.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id                       BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		email                    TEXT NOT NULL UNIQUE,
		password_hash            TEXT,
		provider                 TEXT NOT NULL DEFAULT 'LOCAL',
		oauth_sub                TEXT,
		status                   TEXT NOT NULL DEFAULT 'PENDING',
		role                     TEXT NOT NULL DEFAULT 'USER',
		reset_token_hash         TEXT,
		verification_token_hash  TEXT,
		created_at               TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at               TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_users_provider_sub ON users (provider, oauth_sub)`,
	`CREATE INDEX IF NOT EXISTS idx_users_status ON users (status)`,

	`CREATE TABLE IF NOT EXISTS projects (
		id          BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		name        TEXT NOT NULL,
		description TEXT,
		owner_id    BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_projects_owner ON projects (owner_id)`,

	`CREATE TABLE IF NOT EXISTS db_connections (
		id           BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		project_id   BIGINT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		name         TEXT NOT NULL,
		host         TEXT NOT NULL,
		port         INTEGER NOT NULL DEFAULT 5432,
		database     TEXT NOT NULL,
		username     TEXT NOT NULL,
		password_enc TEXT NOT NULL,
		read_only    BOOLEAN NOT NULL DEFAULT true,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (project_id, name)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_db_connections_project ON db_connections (project_id)`,

	`CREATE TABLE IF NOT EXISTS schema_cache (
		id          BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		project_id  BIGINT NOT NULL UNIQUE REFERENCES projects(id) ON DELETE CASCADE,
		snapshot    JSONB NOT NULL DEFAULT '{}'::jsonb,
		captured_at TIMESTAMPTZ
	)`,

	`CREATE TABLE IF NOT EXISTS saved_queries (
		id         BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		project_id BIGINT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		name       TEXT NOT NULL,
		sql_text   TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS executions (
		id             BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		project_id     BIGINT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		saved_query_id BIGINT REFERENCES saved_queries(id) ON DELETE SET NULL,
		status         TEXT NOT NULL,
		started_at     TIMESTAMPTZ,
		finished_at    TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS chats (
		id         BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		project_id BIGINT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		title      TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS chat_messages (
		id         BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		chat_id    BIGINT NOT NULL REFERENCES chats(id) ON DELETE CASCADE,
		role       TEXT NOT NULL,
		content    TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// Migrate applies the schema.
func Migrate(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range migrations {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return tx.Commit()
}
