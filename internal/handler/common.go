// Package handler exposes the HTTP handlers. Handlers depend on narrow
// store interfaces rather than concrete repositories so tests can run
// against in-memory fakes; the repository types satisfy these interfaces.
package handler

import (
	"context"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/store-catalog/internal/auth"
	"github.com/iliyamo/store-catalog/internal/authz"
	"github.com/iliyamo/store-catalog/internal/model"
	"github.com/iliyamo/store-catalog/internal/queue"
)

// dbTimeout bounds every store round-trip issued from a handler so a
// slow store cannot hang the request.
const dbTimeout = 5 * time.Second

// ProductStore is the product persistence surface handlers need.
// *repository.ProductRepo implements it.
type ProductStore interface {
	Create(ctx context.Context, p *model.Product) error
	GetByID(ctx context.Context, id uint64) (*model.Product, error)
	Update(ctx context.Context, id uint64, fields map[string]any) error
	Delete(ctx context.Context, id uint64) error
	List(ctx context.Context, scope authz.ListScope) ([]*model.Product, error)
	DeleteOwnerless(ctx context.Context) (int64, error)
}

// UserStore is the role-record persistence surface the admin endpoints
// need. *repository.UserRepo implements it.
type UserStore interface {
	Create(ctx context.Context, u *model.UserRecord) error
	GetByUID(ctx context.Context, uid string) (*model.UserRecord, error)
	List(ctx context.Context) ([]*model.UserRecord, error)
	Update(ctx context.Context, uid string, role *string, active *bool) error
}

// ProductHandler bundles the product CRUD and moderation endpoints.
// Publish sends moderation events to the queue; it may be nil (tests,
// deployments without a broker) and its errors are logged by the
// publisher but never fail the request.
type ProductHandler struct {
	Products ProductStore
	Policy   *authz.Engine
	Publish  func(ctx context.Context, ev queue.ProductModeratedEvent) error
}

// NewProductHandler wires the product endpoints. Policy and store are
// mandatory.
func NewProductHandler(products ProductStore, policy *authz.Engine) *ProductHandler {
	if products == nil || policy == nil {
		panic("nil dependency passed to NewProductHandler")
	}
	return &ProductHandler{Products: products, Policy: policy}
}

// reqCtx derives a deadline-bounded context from the request.
func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// requireIdentity fetches the identity the gate attached. The gate
// guarantees it for protected paths, so a miss here is a wiring bug and
// is answered with a plain 401.
func requireIdentity(c echo.Context) (auth.Identity, bool) {
	return auth.IdentityFrom(c)
}

// parseID parses the :id route parameter.
func parseID(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}

// stringField extracts a trimmed-capable string value from a bound JSON
// map; non-string values report ok=false.
func stringField(body map[string]any, key string) (string, bool) {
	v, present := body[key]
	if !present {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// jsonError is the uniform error response shape.
func jsonError(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"error": msg})
}
