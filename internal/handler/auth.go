package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sqlbay/sqlbay/internal/apperr"
	"github.com/sqlbay/sqlbay/internal/config"
	"github.com/sqlbay/sqlbay/internal/middleware"
	"github.com/sqlbay/sqlbay/internal/model"
	"github.com/sqlbay/sqlbay/internal/queue"
	"github.com/sqlbay/sqlbay/internal/repository"
	"github.com/sqlbay/sqlbay/internal/utils"
)

// AuthHandler bundles dependencies for the /user endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Users  repository.UserStore
	Events queue.EventPublisher
}

func NewAuthHandler(cfg config.Config, users repository.UserStore, events queue.EventPublisher) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: users, Events: events}
}

// ----- DTOs -----

type registerReq struct {
	Email         string `json:"email" validate:"required,email"`
	Password      string `json:"password" validate:"required,min=8,max=128,strongpassword"`
	PasswordCheck string `json:"passwordCheck" validate:"required,eqfield=Password"`
}

type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type updateMeReq struct {
	Email           string `json:"email" validate:"omitempty,email"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword" validate:"omitempty,min=8,max=128,strongpassword"`
}

type authResp struct {
	User        model.SafeUser `json:"user"`
	AccessToken string         `json:"accessToken"`
}

// Register handles POST /user/register: creates an ACTIVE local account
// and opens a session immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return apperr.Internal(err)
	}

	user := &model.User{
		Email:        req.Email,
		PasswordHash: hash,
		Provider:     model.ProviderLocal,
		Status:       model.StatusActive,
		Role:         model.RoleUser,
	}
	if err := h.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return apperr.Conflict(apperr.CodeEmailInUse, "Email already in use.")
		}
		return apperr.Internal(err)
	}

	token, err := utils.NewAccessToken(h.Cfg.JWTSecret, user.ID, h.Cfg.AccessTokenTTL)
	if err != nil {
		return apperr.Internal(err)
	}
	h.setSessionCookie(c, token)

	h.publish(c, queue.TypeUserRegistered, queue.UserRegisteredEvent{
		UserID:       user.ID,
		Email:        user.Email,
		RegisteredAt: user.CreatedAt.UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusCreated, authResp{User: user.Safe(), AccessToken: token.Token})
}

// Login handles POST /user/login.  Every credential failure — unknown
// email, OAuth-only account, wrong password — yields the same generic
// message so nothing distinguishes the cases.  A banned account is only
// revealed as such after the password verifies.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	invalid := apperr.Unauthorized(apperr.CodeInvalidCredentials, "Invalid credentials.")

	user, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return invalid
		}
		return apperr.Internal(err)
	}
	if user.PasswordHash == "" || !utils.VerifyPassword(user.PasswordHash, req.Password) {
		return invalid
	}
	if user.Status == model.StatusBanned {
		return apperr.Forbidden(apperr.CodeAccountBanned, "Account is banned.")
	}

	token, err := utils.NewAccessToken(h.Cfg.JWTSecret, user.ID, h.Cfg.AccessTokenTTL)
	if err != nil {
		return apperr.Internal(err)
	}
	h.setSessionCookie(c, token)

	return c.JSON(http.StatusCreated, authResp{User: user.Safe(), AccessToken: token.Token})
}

// Logout handles POST /user/logout by expiring the session cookie.
func (h *AuthHandler) Logout(c echo.Context) error {
	h.clearSessionCookie(c)
	return c.JSON(http.StatusOK, echo.Map{"message": "Signed out."})
}

// Me handles GET /user/me.
func (h *AuthHandler) Me(c echo.Context) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	user, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.Unauthorized(apperr.CodeUnauthorized, "User not found.")
		}
		return apperr.Internal(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"user": user.Safe()})
}

// UpdateMe handles PATCH /user/me/update.  An email change fails when
// the address is taken by another account; a password change requires
// currentPassword and newPassword together, and the new password must
// differ from the current one.
func (h *AuthHandler) UpdateMe(c echo.Context) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}

	var req updateMeReq
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	user, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.Unauthorized(apperr.CodeUnauthorized, "User not found.")
		}
		return apperr.Internal(err)
	}

	if req.Email != "" {
		user.Email = repository.NormalizeEmail(req.Email)
	}

	if req.CurrentPassword != "" || req.NewPassword != "" {
		if req.CurrentPassword == "" || req.NewPassword == "" {
			return apperr.BadRequest(apperr.CodeValidation, "Both currentPassword and newPassword are required.")
		}
		if user.PasswordHash == "" {
			return apperr.BadRequest(apperr.CodeValidation, "Password cannot be changed for this account.")
		}
		if !utils.VerifyPassword(user.PasswordHash, req.CurrentPassword) {
			return apperr.BadRequest(apperr.CodeValidation, "Current password is incorrect.")
		}
		if req.NewPassword == req.CurrentPassword {
			return apperr.BadRequest(apperr.CodeValidation, "New password must differ from the current password.")
		}
		hash, err := utils.HashPassword(req.NewPassword, h.Cfg.BcryptCost)
		if err != nil {
			return apperr.Internal(err)
		}
		user.PasswordHash = hash
	}

	if err := h.Users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return apperr.Conflict(apperr.CodeEmailInUse, "Email already in use.")
		}
		return apperr.Internal(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"user": user.Safe()})
}

// ----- helpers -----

// dbCtx bounds repository calls the way the rest of the handlers do.
func dbCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

func (h *AuthHandler) setSessionCookie(c echo.Context, token utils.AccessToken) {
	c.SetCookie(h.sessionCookie(token.Token, token.Exp))
}

func (h *AuthHandler) clearSessionCookie(c echo.Context) {
	cookie := h.sessionCookie("", time.Unix(0, 0))
	cookie.MaxAge = -1
	c.SetCookie(cookie)
}

func (h *AuthHandler) sessionCookie(value string, expires time.Time) *http.Cookie {
	sameSite := http.SameSiteLaxMode
	if h.Cfg.IsProd() {
		sameSite = http.SameSiteStrictMode
	}
	return &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.Cfg.IsProd(),
		SameSite: sameSite,
	}
}

func (h *AuthHandler) publish(c echo.Context, eventType string, payload any) {
	if h.Events == nil {
		return
	}
	// Audit events must never fail the request; errors are logged by the
	// publisher itself.
	_ = h.Events.Publish(c.Request().Context(), eventType, payload)
}
