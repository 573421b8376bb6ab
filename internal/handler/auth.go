package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/store-catalog/internal/auth"
	"github.com/iliyamo/store-catalog/internal/config"
	"github.com/iliyamo/store-catalog/internal/model"
	"github.com/iliyamo/store-catalog/internal/repository"
)

// CredentialStore is the user lookup surface the login flow needs.
// *repository.UserRepo implements it.
type CredentialStore interface {
	GetByEmail(ctx context.Context, email string) (*model.UserRecord, error)
	GetByUID(ctx context.Context, uid string) (*model.UserRecord, error)
}

// TokenStore persists refresh tokens. *repository.TokenRepo implements it.
type TokenStore interface {
	StoreRefresh(ctx context.Context, uid, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (string, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, uid string) error
}

// AuthHandler bundles dependencies for the token endpoints. There is no
// self-registration: accounts exist only once an admin provisions them,
// so the surface is login, refresh and logout.
type AuthHandler struct {
	Cfg    config.Config
	Users  CredentialStore
	Tokens TokenStore
	Verify auth.Verifier
}

func NewAuthHandler(cfg config.Config, u CredentialStore, t TokenStore, v auth.Verifier) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t, Verify: v}
}

// ----- DTOs -----

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
	Role  string `json:"role"`
}
type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

// Login: verify credentials and return a token pair. Deactivated
// accounts cannot log in at all, consistent with the resolver refusing
// them a role.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return jsonError(c, http.StatusBadRequest, "email/password required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return jsonError(c, http.StatusUnauthorized, "invalid credentials")
		}
		return jsonError(c, http.StatusInternalServerError, "query failed")
	}
	if !auth.VerifyPassword(u.PasswordHash, req.Password) {
		return jsonError(c, http.StatusUnauthorized, "invalid credentials")
	}
	if !u.Active {
		return jsonError(c, http.StatusForbidden, "account disabled")
	}

	return h.issuePair(ctx, c, u, http.StatusOK)
}

// Refresh: validate by hash, revoke the old token, issue a new pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return jsonError(c, http.StatusBadRequest, "refresh_token required")
	}
	hash := auth.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := reqCtx(c)
	defer cancel()

	uid, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return jsonError(c, http.StatusUnauthorized, "invalid refresh")
	}
	_ = h.Tokens.RevokeByHash(ctx, hash)

	u, err := h.Users.GetByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return jsonError(c, http.StatusUnauthorized, "invalid refresh")
		}
		return jsonError(c, http.StatusInternalServerError, "load user failed")
	}
	if !u.Active {
		return jsonError(c, http.StatusForbidden, "account disabled")
	}

	return h.issuePair(ctx, c, u, http.StatusOK)
}

// Logout revokes either one session (refresh token in the body) or every
// session of the caller (valid bearer, empty body).
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req) // an invalid body just means no refresh token
	refreshToken := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := reqCtx(c)
	defer cancel()

	if refreshToken != "" {
		hash := auth.HashRefreshRaw(refreshToken)
		if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
			return jsonError(c, http.StatusUnauthorized, "invalid refresh")
		}
		if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
			return jsonError(c, http.StatusInternalServerError, "logout failed")
		}
		return c.NoContent(http.StatusNoContent)
	}

	// No refresh token: fall back to the bearer credential. This route
	// sits outside the gate, so the header is verified here.
	header := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return jsonError(c, http.StatusBadRequest, "refresh_token or bearer token required")
	}
	ident, err := h.Verify.Verify(ctx, strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		return jsonError(c, http.StatusUnauthorized, "invalid token")
	}
	if err := h.Tokens.RevokeAllForUser(ctx, ident.UID); err != nil {
		return jsonError(c, http.StatusInternalServerError, "logout failed")
	}
	return c.NoContent(http.StatusNoContent)
}

// issuePair mints and persists a fresh access/refresh pair for a user.
func (h *AuthHandler) issuePair(ctx context.Context, c echo.Context, u *model.UserRecord, status int) error {
	access, err := auth.NewAccessToken(h.Cfg.JWTSecret, u.UID, u.Email, h.Cfg.AccessTTLMin)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "issue access failed")
	}
	refresh, err := auth.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "issue refresh failed")
	}
	if err := h.Tokens.StoreRefresh(ctx, u.UID, auth.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return jsonError(c, http.StatusInternalServerError, "save refresh failed")
	}
	return c.JSON(status, authResp{
		User:    userPart{UID: u.UID, Email: u.Email, Role: u.Role},
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw goes back to the client
	})
}
