package model

import "time"

// DbConnection holds the credentials of one external Postgres target,
// scoped to a project.  The schema allows multiple named connections per
// project (unique on project_id + name) but the service layer upserts the
// single row found for a project, so one row per project is the enforced
// cardinality.
//
// PasswordEnc is the envelope-encrypted password (base64 nonce||ciphertext,
// XChaCha20-Poly1305).  The plaintext exists only transiently while parsing
// an incoming connection string or rebuilding one for a probe, and is never
// serialized: DbConnection itself stays out of HTTP responses.
type DbConnection struct {
	ID          uint64
	ProjectID   uint64
	Name        string
	Host        string
	Port        int
	Database    string
	Username    string
	PasswordEnc string
	ReadOnly    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
