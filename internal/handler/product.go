package handler // product CRUD endpoints

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/store-catalog/internal/auth"
	"github.com/iliyamo/store-catalog/internal/authz"
	"github.com/iliyamo/store-catalog/internal/model"
	"github.com/iliyamo/store-catalog/internal/repository"
)

// List handles GET /api/products. The same endpoint returns three
// different result sets depending on the caller: anonymous requests see
// available products, admins see everything, any other authenticated
// caller sees exactly their own records. The policy engine computes the
// predicate; the store applies it.
func (h *ProductHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	var identPtr *auth.Identity
	if ident, ok := auth.IdentityFrom(c); ok {
		identPtr = &ident
	}
	scope, err := h.Policy.ListScopeFor(ctx, identPtr)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "failed to resolve caller role")
	}
	items, err := h.Products.List(ctx, scope)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "failed to fetch products")
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Create handles POST /api/products. The gate has already required a
// verified identity; the engine decides whether this identity may create
// (role-gated or open depending on configuration). The policy check runs
// before payload validation, so an unauthorized caller gets 403 even for
// a payload that would also fail validation. New products get the
// configured default status.
func (h *ProductHandler) Create(c echo.Context) error {
	ident, ok := requireIdentity(c)
	if !ok {
		return jsonError(c, http.StatusUnauthorized, "unauthorized")
	}
	var body map[string]any
	if err := c.Bind(&body); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request body")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	allowed, err := h.Policy.CanCreate(ctx, ident)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "failed to resolve caller role")
	}
	if !allowed {
		return jsonError(c, http.StatusForbidden, "account is not allowed to publish products")
	}

	name, _ := stringField(body, "name")
	name = strings.TrimSpace(name)
	if name == "" {
		return jsonError(c, http.StatusBadRequest, "product name required")
	}

	imageURL, _ := stringField(body, "image_url")
	description, _ := stringField(body, "description")
	p := &model.Product{
		Name:        name,
		Price:       authz.CoercePrice(body["price"]),
		Quantity:    authz.CoerceQuantity(body["quantity"]),
		ImageURL:    imageURL,
		Description: description,
		CreatorUID:  ident.UID,
		AddedBy:     ident.Email,
		Status:      h.Policy.DefaultStatus,
	}
	if err := h.Products.Create(ctx, p); err != nil {
		return jsonError(c, http.StatusInternalServerError, "failed to create product")
	}
	return c.JSON(http.StatusCreated, p)
}

// Get handles GET /api/products/:id. Single-item reads are unrestricted:
// the full record is returned to any caller, authenticated or not, once
// the id resolves.
func (h *ProductHandler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	p, err := h.Products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return jsonError(c, http.StatusNotFound, "product not found")
		}
		return jsonError(c, http.StatusInternalServerError, "db error")
	}
	return c.JSON(http.StatusOK, p)
}

// Update handles PUT /api/products/:id. Order of checks is load-bearing:
// the record is resolved first so a missing id is 404 before any
// ownership decision, then owner-or-admin is enforced, then the partial
// merge is applied. When quantity is part of the payload the availability
// status is derived from the coerced value.
func (h *ProductHandler) Update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	p, err := h.Products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return jsonError(c, http.StatusNotFound, "product not found")
		}
		return jsonError(c, http.StatusInternalServerError, "db error")
	}

	ident, ok := requireIdentity(c)
	if !ok {
		return jsonError(c, http.StatusUnauthorized, "unauthorized")
	}
	allowed, err := h.Policy.CanMutate(ctx, ident, p.CreatorUID)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "failed to resolve caller role")
	}
	if !allowed {
		return jsonError(c, http.StatusForbidden, "forbidden")
	}

	var body map[string]any
	if err := c.Bind(&body); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request body")
	}

	fields := map[string]any{}
	if name, ok := stringField(body, "name"); ok && strings.TrimSpace(name) != "" {
		fields["name"] = strings.TrimSpace(name)
	}
	if _, present := body["price"]; present {
		fields["price"] = authz.CoercePrice(body["price"])
	}
	if imageURL, ok := stringField(body, "image_url"); ok {
		fields["image_url"] = imageURL
	}
	if description, ok := stringField(body, "description"); ok {
		fields["description"] = description
	}
	if _, present := body["quantity"]; present {
		q := authz.CoerceQuantity(body["quantity"])
		fields["quantity"] = q
		fields["status"] = authz.StatusForQuantity(q)
	}

	if len(fields) > 0 {
		if err := h.Products.Update(ctx, id, fields); err != nil {
			return jsonError(c, http.StatusInternalServerError, "update failed")
		}
	}
	updated, err := h.Products.GetByID(ctx, id)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "db error")
	}
	return c.JSON(http.StatusOK, updated)
}

// Delete handles DELETE /api/products/:id with the same
// existence-then-ownership ordering as Update.
func (h *ProductHandler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	p, err := h.Products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return jsonError(c, http.StatusNotFound, "product not found")
		}
		return jsonError(c, http.StatusInternalServerError, "db error")
	}

	ident, ok := requireIdentity(c)
	if !ok {
		return jsonError(c, http.StatusUnauthorized, "unauthorized")
	}
	allowed, err := h.Policy.CanMutate(ctx, ident, p.CreatorUID)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "failed to resolve caller role")
	}
	if !allowed {
		return jsonError(c, http.StatusForbidden, "forbidden")
	}

	if err := h.Products.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return jsonError(c, http.StatusNotFound, "product not found")
		}
		return jsonError(c, http.StatusInternalServerError, "delete failed")
	}
	return c.NoContent(http.StatusNoContent)
}
