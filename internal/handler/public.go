// This file defines the public storefront endpoint. It requires no
// authentication and always applies the available-only predicate, so its
// responses are identical for every caller and safe to cache.
package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/store-catalog/internal/authz"
	"github.com/iliyamo/store-catalog/internal/model"
)

// PublicHandler serves unauthenticated catalog browsing.
type PublicHandler struct {
	Products ProductStore
}

// GetPublicProducts handles GET /api/public/products: available products
// only, newest first.
func (h *PublicHandler) GetPublicProducts(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	items, err := h.Products.List(ctx, authz.ListScope{Status: model.StatusAvailable})
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "failed to fetch public products")
	}
	if len(items) == 0 {
		return c.JSON(http.StatusOK, echo.Map{"msg": "no available products", "items": []any{}})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
