package model

import "time"

// AuthProvider identifies how an account authenticates.
type AuthProvider string

const (
	ProviderLocal  AuthProvider = "LOCAL"
	ProviderGoogle AuthProvider = "GOOGLE"
	ProviderGitHub AuthProvider = "GITHUB"
)

// UserStatus is the lifecycle state of an account.  BANNED is terminal
// for login purposes.
type UserStatus string

const (
	StatusPending UserStatus = "PENDING"
	StatusActive  UserStatus = "ACTIVE"
	StatusBanned  UserStatus = "BANNED"
)

// UserRole controls administrative access.
type UserRole string

const (
	RoleUser  UserRole = "USER"
	RoleAdmin UserRole = "ADMIN"
)

// User mirrors the `users` table.  Email is stored normalized (trimmed,
// lowercased).  PasswordHash is empty for OAuth-only accounts.  The hash
// and token fields must never cross the HTTP boundary, which is why User
// carries no JSON tags; handlers serialize SafeUser instead.
type User struct {
	ID                    uint64
	Email                 string
	PasswordHash          string
	Provider              AuthProvider
	OAuthSub              string
	Status                UserStatus
	Role                  UserRole
	ResetTokenHash        string
	VerificationTokenHash string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// SafeUser is the outward representation of a User.  Password and token
// hashes are projected out unconditionally.
type SafeUser struct {
	ID        uint64       `json:"id"`
	Email     string       `json:"email"`
	Provider  AuthProvider `json:"provider"`
	Status    UserStatus   `json:"status"`
	Role      UserRole     `json:"role"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// Safe returns the serializable projection of the user.
func (u *User) Safe() SafeUser {
	return SafeUser{
		ID:        u.ID,
		Email:     u.Email,
		Provider:  u.Provider,
		Status:    u.Status,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
