// Package repository implements Postgres persistence behind small store
// interfaces so handlers can be tested against fakes.  Sentinel errors
// let higher layers classify failures without knowing about SQL.
package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when a user insert or email change collides
// with the case-insensitive unique email constraint.
var ErrEmailExists = errors.New("email already exists")

// ErrDuplicate is returned on any other uniqueness violation, such as a
// second connection with the same name in one project.
var ErrDuplicate = errors.New("duplicate resource")

// isUniqueViolation reports whether err is a Postgres unique constraint
// failure (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
