package utils

import "golang.org/x/crypto/bcrypt"

// DefaultBcryptCost matches bcrypt cost 10; overridable via config.
const DefaultBcryptCost = 10

// HashPassword returns the bcrypt hash of plain using the given cost.
// Cost values outside bcrypt's range fall back to DefaultBcryptCost.
func HashPassword(plain string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares a bcrypt hash and a plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
