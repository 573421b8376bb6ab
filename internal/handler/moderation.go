package handler // moderation and admin cleanup endpoints

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/store-catalog/internal/model"
	"github.com/iliyamo/store-catalog/internal/queue"
	"github.com/iliyamo/store-catalog/internal/repository"
)

// Approve handles POST /api/products/:id/approve (admin only). Approval
// is a one-directional transition to available and stamps who approved
// and when. The role check runs before the existence check: a non-admin
// learns nothing about whether the id exists.
func (h *ProductHandler) Approve(c echo.Context) error {
	ident, ok := requireIdentity(c)
	if !ok {
		return jsonError(c, http.StatusUnauthorized, "unauthorized")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	admin, err := h.Policy.IsAdmin(ctx, ident)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "failed to resolve caller role")
	}
	if !admin {
		return jsonError(c, http.StatusForbidden, "forbidden")
	}

	id, err := parseID(c)
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid id")
	}
	if _, err := h.Products.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return jsonError(c, http.StatusNotFound, "product not found")
		}
		return jsonError(c, http.StatusInternalServerError, "db error")
	}

	now := time.Now().UTC()
	fields := map[string]any{
		"status":      model.StatusAvailable,
		"approved_by": ident.UID,
		"approved_at": now,
	}
	if err := h.Products.Update(ctx, id, fields); err != nil {
		return jsonError(c, http.StatusInternalServerError, "approve failed")
	}

	h.publishModerated(c, queue.ProductModeratedEvent{
		ProductID:    id,
		Action:       "approved",
		ModeratorUID: ident.UID,
		OccurredAt:   now,
	})
	return c.JSON(http.StatusOK, echo.Map{"msg": "product approved"})
}

// Reject handles POST /api/products/:id/reject (admin only). The
// rejection reason is recorded only when a non-empty reason accompanies
// the request.
func (h *ProductHandler) Reject(c echo.Context) error {
	ident, ok := requireIdentity(c)
	if !ok {
		return jsonError(c, http.StatusUnauthorized, "unauthorized")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	admin, err := h.Policy.IsAdmin(ctx, ident)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "failed to resolve caller role")
	}
	if !admin {
		return jsonError(c, http.StatusForbidden, "forbidden")
	}

	id, err := parseID(c)
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid id")
	}
	if _, err := h.Products.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return jsonError(c, http.StatusNotFound, "product not found")
		}
		return jsonError(c, http.StatusInternalServerError, "db error")
	}

	var body struct {
		Reason string `json:"reason"`
	}
	_ = c.Bind(&body) // missing/invalid body simply means no reason
	reason := strings.TrimSpace(body.Reason)

	now := time.Now().UTC()
	fields := map[string]any{
		"status":      model.StatusRejected,
		"rejected_by": ident.UID,
		"rejected_at": now,
	}
	if reason != "" {
		fields["rejection_reason"] = reason
	}
	if err := h.Products.Update(ctx, id, fields); err != nil {
		return jsonError(c, http.StatusInternalServerError, "reject failed")
	}

	h.publishModerated(c, queue.ProductModeratedEvent{
		ProductID:    id,
		Action:       "rejected",
		ModeratorUID: ident.UID,
		Reason:       reason,
		OccurredAt:   now,
	})
	return c.JSON(http.StatusOK, echo.Map{"msg": "product rejected"})
}

// Cleanup handles POST /api/cleanup-old-products (admin only). It gets
// the same explicit admin check as every other destructive route.
func (h *ProductHandler) Cleanup(c echo.Context) error {
	ident, ok := requireIdentity(c)
	if !ok {
		return jsonError(c, http.StatusUnauthorized, "unauthorized")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	admin, err := h.Policy.IsAdmin(ctx, ident)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "failed to resolve caller role")
	}
	if !admin {
		return jsonError(c, http.StatusForbidden, "forbidden")
	}

	n, err := h.Products.DeleteOwnerless(ctx)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "cleanup failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"msg": fmt.Sprintf("deleted %d ownerless products", n)})
}

// publishModerated sends a moderation event when a publisher is wired.
// Failures are the publisher's problem; the moderation decision is
// already committed.
func (h *ProductHandler) publishModerated(c echo.Context, ev queue.ProductModeratedEvent) {
	if h.Publish == nil {
		return
	}
	_ = h.Publish(context.WithoutCancel(c.Request().Context()), ev)
}
