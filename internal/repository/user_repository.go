package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/sqlbay/sqlbay/internal/model"
)

// UserStore is the persistence contract for user accounts.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id uint64) (*model.User, error)
	Update(ctx context.Context, u *model.User) error
}

// UserRepo is the Postgres implementation of UserStore.
type UserRepo struct{ DB *sql.DB }

var _ UserStore = (*UserRepo)(nil)

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// NormalizeEmail lowercases and trims an email address.  Uniqueness is
// case-insensitive and enforced here, before storage ever sees the value.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

const userColumns = `id, email, COALESCE(password_hash,''), provider, COALESCE(oauth_sub,''),
	status, role, COALESCE(reset_token_hash,''), COALESCE(verification_token_hash,''),
	created_at, updated_at`

func scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Provider, &u.OAuthSub,
		&u.Status, &u.Role, &u.ResetTokenHash, &u.VerificationTokenHash,
		&u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts the user and fills its ID and timestamps.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Email = NormalizeEmail(u.Email)
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO users (email, password_hash, provider, status, role)
		 VALUES ($1, NULLIF($2,''), $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		u.Email, u.PasswordHash, u.Provider, u.Status, u.Role,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrEmailExists
	}
	return err
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1 LIMIT 1`,
		NormalizeEmail(email)))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1 LIMIT 1`, id))
}

// Update persists the mutable profile fields.
func (r *UserRepo) Update(ctx context.Context, u *model.User) error {
	u.Email = NormalizeEmail(u.Email)
	err := r.DB.QueryRowContext(ctx,
		`UPDATE users
		 SET email = $2, password_hash = NULLIF($3,''), status = $4, updated_at = now()
		 WHERE id = $1
		 RETURNING updated_at`,
		u.ID, u.Email, u.PasswordHash, u.Status,
	).Scan(&u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if isUniqueViolation(err) {
		return ErrEmailExists
	}
	return err
}
