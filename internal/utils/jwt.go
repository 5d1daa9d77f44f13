package utils // helpers for session tokens, password hashing and credential encryption

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers every signature, format and expiry failure so
// callers never branch on the concrete cause.
var ErrInvalidToken = errors.New("invalid token")

// AccessToken is a signed session token along with its expiry.
type AccessToken struct {
	Token string
	Exp   time.Time
}

// TokenClaims is the verified content of a session token.  The subject
// user id is the only claim the rest of the system trusts.
type TokenClaims struct {
	UserID    uint64
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// NewAccessToken builds and signs an HS256 JWT binding the user id as the
// subject.  ttl is typically 7 days.
func NewAccessToken(secret string, userID uint64, ttl time.Duration) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub": fmt.Sprintf("%d", userID),
		"iat": now.Unix(),
		"exp": exp.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// VerifyAccessToken parses and validates a token and returns its claims.
// Any signature, algorithm or expiry failure yields ErrInvalidToken.
func VerifyAccessToken(secret, raw string) (TokenClaims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return TokenClaims{}, ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return TokenClaims{}, ErrInvalidToken
	}

	out := TokenClaims{}
	switch sub := claims["sub"].(type) {
	case string:
		if _, err := fmt.Sscanf(sub, "%d", &out.UserID); err != nil {
			return TokenClaims{}, ErrInvalidToken
		}
	case float64:
		out.UserID = uint64(sub)
	default:
		return TokenClaims{}, ErrInvalidToken
	}
	if out.UserID == 0 {
		return TokenClaims{}, ErrInvalidToken
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		out.IssuedAt = iat.Time
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}
