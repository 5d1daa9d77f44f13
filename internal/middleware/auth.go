// Package middleware contains reusable HTTP middleware: session
// authentication, request logging and rate limiting.
package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/sqlbay/sqlbay/internal/apperr"
	"github.com/sqlbay/sqlbay/internal/utils"
)

// SessionCookie is the http-only cookie carrying the access token.
const SessionCookie = "accessToken"

const userIDKey = "user_id"

// Auth returns a middleware that authenticates a request from either the
// Authorization header (Bearer token) or the accessToken cookie.  The
// header takes precedence when both are present.  On success the subject
// user id is stored in the context under "user_id".
//
// The secret is validated at startup (config refuses to load without it),
// so there is no code path where verification is skipped.
func Auth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearerToken(c)
			if raw == "" {
				if cookie, err := c.Cookie(SessionCookie); err == nil {
					raw = cookie.Value
				}
			}
			if raw == "" {
				return apperr.Unauthorized(apperr.CodeUnauthorized, "Not authenticated.")
			}
			claims, err := utils.VerifyAccessToken(secret, raw)
			if err != nil {
				return apperr.Unauthorized(apperr.CodeUnauthorized, "Invalid or expired session.")
			}
			c.Set(userIDKey, claims.UserID)
			return next(c)
		}
	}
}

func bearerToken(c echo.Context) string {
	const prefix = "Bearer "
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if len(auth) > len(prefix) && auth[:len(prefix)] == prefix {
		return auth[len(prefix):]
	}
	return ""
}

// UserID extracts the authenticated user id set by Auth.
func UserID(c echo.Context) (uint64, error) {
	if id, ok := c.Get(userIDKey).(uint64); ok && id != 0 {
		return id, nil
	}
	return 0, apperr.Unauthorized(apperr.CodeUnauthorized, "Not authenticated.")
}
