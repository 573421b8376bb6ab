package handler // admin user management handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"      // uuid generates subject ids for provisioned accounts
	"github.com/labstack/echo/v4" // echo is the web framework used for handlers

	"github.com/iliyamo/store-catalog/internal/auth"
	"github.com/iliyamo/store-catalog/internal/authz"
	"github.com/iliyamo/store-catalog/internal/model"
	"github.com/iliyamo/store-catalog/internal/repository"
)

// defaultTempPassword is assigned when an admin provisions an account
// without choosing a password; the user is expected to change it.
const defaultTempPassword = "TempPass#123"

// AdminHandler bundles the admin-only user management endpoints. Role
// records are created and mutated here exclusively; a subject never
// edits its own record.
type AdminHandler struct {
	Users      UserStore
	Policy     *authz.Engine
	BcryptCost int
}

// NewAdminHandler constructs an AdminHandler and panics on nil deps.
func NewAdminHandler(users UserStore, policy *authz.Engine, bcryptCost int) *AdminHandler {
	if users == nil || policy == nil { // check for missing dependencies
		panic("nil dependency passed to NewAdminHandler")
	}
	return &AdminHandler{Users: users, Policy: policy, BcryptCost: bcryptCost}
}

// requireAdmin resolves the caller and enforces the admin role. It
// returns the identity and true when the request may proceed; otherwise
// it has already written the error response.
func (h *AdminHandler) requireAdmin(c echo.Context) (auth.Identity, bool) {
	ident, ok := requireIdentity(c)
	if !ok {
		_ = jsonError(c, http.StatusUnauthorized, "unauthorized")
		return auth.Identity{}, false
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	admin, err := h.Policy.IsAdmin(ctx, ident)
	if err != nil {
		_ = jsonError(c, http.StatusInternalServerError, "failed to resolve caller role")
		return auth.Identity{}, false
	}
	if !admin {
		_ = jsonError(c, http.StatusForbidden, "forbidden")
		return auth.Identity{}, false
	}
	return ident, true
}

// CreateUser handles POST /api/admin/users and provisions an account
// with a role record.
func (h *AdminHandler) CreateUser(c echo.Context) error {
	ident, ok := h.requireAdmin(c)
	if !ok {
		return nil
	}
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := c.Bind(&body); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request body")
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))
	if email == "" {
		return jsonError(c, http.StatusBadRequest, "email required")
	}
	roleStr := body.Role
	if roleStr == "" {
		roleStr = string(authz.RolePublisher) // provisioned accounts default to publisher
	}
	if _, valid := authz.ParseRole(roleStr); !valid {
		return jsonError(c, http.StatusBadRequest, "invalid role")
	}
	password := body.Password
	if password == "" {
		password = defaultTempPassword
	}
	hash, err := auth.HashPassword(password, h.BcryptCost)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "failed to create user")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	u := &model.UserRecord{
		UID:          uuid.NewString(), // store-independent opaque subject id
		Email:        email,
		PasswordHash: hash,
		Role:         roleStr,
		Active:       true,
		CreatedBy:    ident.UID,
	}
	if err := h.Users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return jsonError(c, http.StatusConflict, "user already exists")
		}
		return jsonError(c, http.StatusInternalServerError, "failed to create user")
	}
	return c.JSON(http.StatusCreated, echo.Map{"msg": "user created", "uid": u.UID})
}

// ListUsers handles GET /api/admin/users.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	if _, ok := h.requireAdmin(c); !ok {
		return nil
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	users, err := h.Users.List(ctx)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "db error")
	}
	return c.JSON(http.StatusOK, echo.Map{"items": users}) // password hashes are excluded by the model's json tags
}

// UpdateUser handles PUT /api/admin/users/:uid and updates the role
// and/or active flag of a record. A payload with neither field is a 400.
func (h *AdminHandler) UpdateUser(c echo.Context) error {
	if _, ok := h.requireAdmin(c); !ok {
		return nil
	}
	uid := c.Param("uid")
	if uid == "" {
		return jsonError(c, http.StatusBadRequest, "uid required")
	}
	var body struct {
		Role   *string `json:"role"`
		Active *bool   `json:"active"`
	}
	if err := c.Bind(&body); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request body")
	}
	if body.Role == nil && body.Active == nil {
		return jsonError(c, http.StatusBadRequest, "no updates provided")
	}
	if body.Role != nil {
		if _, valid := authz.ParseRole(*body.Role); !valid {
			return jsonError(c, http.StatusBadRequest, "invalid role")
		}
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	if _, err := h.Users.GetByUID(ctx, uid); err != nil { // verify the record exists before merging
		if errors.Is(err, repository.ErrUserNotFound) {
			return jsonError(c, http.StatusNotFound, "user not found")
		}
		return jsonError(c, http.StatusInternalServerError, "db error")
	}
	if err := h.Users.Update(ctx, uid, body.Role, body.Active); err != nil {
		return jsonError(c, http.StatusInternalServerError, "failed to update user")
	}
	return c.JSON(http.StatusOK, echo.Map{"msg": "user updated"})
}
