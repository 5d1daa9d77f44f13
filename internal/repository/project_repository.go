package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/sqlbay/sqlbay/internal/model"
)

// ProjectStore is the persistence contract for projects.
type ProjectStore interface {
	Create(ctx context.Context, p *model.Project) error
	GetByID(ctx context.Context, id uint64) (*model.Project, error)
	ListByOwner(ctx context.Context, ownerID uint64) ([]model.Project, error)
	Update(ctx context.Context, p *model.Project) error
	Delete(ctx context.Context, id uint64) error
}

// ProjectRepo is the Postgres implementation of ProjectStore.
type ProjectRepo struct{ DB *sql.DB }

var _ ProjectStore = (*ProjectRepo)(nil)

func NewProjectRepo(db *sql.DB) *ProjectRepo { return &ProjectRepo{DB: db} }

// Create inserts the project and fills its ID and timestamps.
func (r *ProjectRepo) Create(ctx context.Context, p *model.Project) error {
	return r.DB.QueryRowContext(ctx,
		`INSERT INTO projects (name, description, owner_id)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at`,
		p.Name, p.Description, p.OwnerID,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

// GetByID fetches a project regardless of owner.  Ownership is the
// caller's concern: the guard distinguishes absent from foreign projects.
func (r *ProjectRepo) GetByID(ctx context.Context, id uint64) (*model.Project, error) {
	var p model.Project
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, name, description, owner_id, created_at, updated_at
		 FROM projects WHERE id = $1 LIMIT 1`, id,
	).Scan(&p.ID, &p.Name, &p.Description, &p.OwnerID, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListByOwner returns the owner's projects, newest first.
func (r *ProjectRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.Project, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, name, description, owner_id, created_at, updated_at
		 FROM projects WHERE owner_id = $1
		 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := []model.Project{}
	for rows.Next() {
		var p model.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.OwnerID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// Update persists name and description changes.
func (r *ProjectRepo) Update(ctx context.Context, p *model.Project) error {
	err := r.DB.QueryRowContext(ctx,
		`UPDATE projects SET name = $2, description = $3, updated_at = now()
		 WHERE id = $1
		 RETURNING updated_at`,
		p.ID, p.Name, p.Description,
	).Scan(&p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// Delete removes a project; its connection rows cascade.
func (r *ProjectRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
