package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/sqlbay/sqlbay/internal/model"
)

// ConnectionStore is the persistence contract for external database
// connections.  One row per project is the enforced cardinality: Upsert
// always targets the single row found for the project.
type ConnectionStore interface {
	GetByProject(ctx context.Context, projectID uint64) (*model.DbConnection, error)
	Upsert(ctx context.Context, conn *model.DbConnection) error
}

// ConnectionRepo is the Postgres implementation of ConnectionStore.
type ConnectionRepo struct{ DB *sql.DB }

var _ ConnectionStore = (*ConnectionRepo)(nil)

func NewConnectionRepo(db *sql.DB) *ConnectionRepo { return &ConnectionRepo{DB: db} }

// GetByProject fetches the project's connection row.
func (r *ConnectionRepo) GetByProject(ctx context.Context, projectID uint64) (*model.DbConnection, error) {
	var c model.DbConnection
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, project_id, name, host, port, database, username, password_enc,
		        read_only, created_at, updated_at
		 FROM db_connections WHERE project_id = $1 LIMIT 1`, projectID,
	).Scan(&c.ID, &c.ProjectID, &c.Name, &c.Host, &c.Port, &c.Database,
		&c.Username, &c.PasswordEnc, &c.ReadOnly, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Upsert updates the project's existing connection row in place, or
// inserts one when the project has none yet.
func (r *ConnectionRepo) Upsert(ctx context.Context, conn *model.DbConnection) error {
	existing, err := r.GetByProject(ctx, conn.ProjectID)
	switch {
	case err == nil:
		conn.ID = existing.ID
		conn.CreatedAt = existing.CreatedAt
		err = r.DB.QueryRowContext(ctx,
			`UPDATE db_connections
			 SET name = $2, host = $3, port = $4, database = $5, username = $6,
			     password_enc = $7, read_only = $8, updated_at = now()
			 WHERE id = $1
			 RETURNING updated_at`,
			conn.ID, conn.Name, conn.Host, conn.Port, conn.Database,
			conn.Username, conn.PasswordEnc, conn.ReadOnly,
		).Scan(&conn.UpdatedAt)
	case errors.Is(err, ErrNotFound):
		err = r.DB.QueryRowContext(ctx,
			`INSERT INTO db_connections
			   (project_id, name, host, port, database, username, password_enc, read_only)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 RETURNING id, created_at, updated_at`,
			conn.ProjectID, conn.Name, conn.Host, conn.Port, conn.Database,
			conn.Username, conn.PasswordEnc, conn.ReadOnly,
		).Scan(&conn.ID, &conn.CreatedAt, &conn.UpdatedAt)
	default:
		return err
	}
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}
