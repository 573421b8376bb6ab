package authz

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/iliyamo/store-catalog/internal/auth"
	"github.com/iliyamo/store-catalog/internal/model"
)

// Path rules consumed by the request gate. The public prefix and the
// anonymous collection listing are exempt from authentication; everything
// else under the API prefix requires a verified identity.
const (
	APIPrefix    = "/api"
	PublicPrefix = "/api/public"
	ProductsPath = "/api/products"
)

// RequiresIdentity is the gate-level allow/deny rule: it reports whether
// a request to method+path must carry a verified credential. Checks are
// ordered: the public prefix must short-circuit before the generic
// API-prefix requirement, and the anonymous collection GET before the
// fall-through. Paths outside the API prefix (static files, root, health,
// login) never require a credential.
func RequiresIdentity(method, path string) bool {
	if strings.HasPrefix(path, PublicPrefix) {
		return false
	}
	if !strings.HasPrefix(path, APIPrefix) {
		return false
	}
	if path == ProductsPath && method == http.MethodGet {
		return false
	}
	return true
}

// IdentityOptional reports whether an exempt path still resolves a
// bearer credential when one is offered. Only the anonymous collection
// listing qualifies: it is the one unauthenticated route whose response
// varies by caller (the three-way visibility predicate), so a credential
// presented there must reach ListScopeFor. Other exempt paths (public
// catalog, static assets, token endpoints) ignore the header entirely.
func IdentityOptional(method, path string) bool {
	return path == ProductsPath && method == http.MethodGet
}

// ListScope is the visibility predicate applied to a collection scan: at
// most one equality filter, always ordered newest-first by creation time.
// The zero value is the unrestricted (admin) scope. Status and CreatorUID
// are mutually exclusive by construction; ListScopeFor never sets both.
type ListScope struct {
	Status     string // non-empty: only records with this status
	CreatorUID string // non-empty: only records owned by this uid
}

// Engine is the access policy engine. It answers resource-level
// authorization questions for handlers once the gate has resolved (or
// declined to resolve) an identity. CreateRole and DefaultStatus are the
// two deployment-dependent creation-policy knobs; both are fixed at
// construction.
type Engine struct {
	Roles         *Resolver
	CreateRole    Role   // required to create products; empty admits any authenticated identity
	DefaultStatus string // status assigned to newly created products
}

// NewEngine builds a policy engine around a role store. createRole may be
// empty ("any authenticated identity may create"). defaultStatus must be
// model.StatusPending or model.StatusAvailable; callers validate it at
// config load.
func NewEngine(store RoleStore, superAdminUID string, createRole Role, defaultStatus string) *Engine {
	return &Engine{
		Roles:         NewResolver(store, superAdminUID),
		CreateRole:    createRole,
		DefaultStatus: defaultStatus,
	}
}

// CanCreate decides whether the identity may create a product. With an
// empty CreateRole any authenticated identity passes; otherwise the
// configured role is required, with admins always allowed.
func (e *Engine) CanCreate(ctx context.Context, id auth.Identity) (bool, error) {
	if e.CreateRole == "" {
		return true, nil
	}
	role, ok, err := e.Roles.Resolve(ctx, id)
	if err != nil {
		return false, err
	}
	return ok && (role == e.CreateRole || role == RoleAdmin), nil
}

// CanMutate decides whether the identity may update or delete a product
// owned by creatorUID. Owners and admins pass. Callers must resolve the
// record first: existence checks are strictly upstream of ownership
// checks, so a missing id becomes NotFound before this runs.
func (e *Engine) CanMutate(ctx context.Context, id auth.Identity, creatorUID string) (bool, error) {
	if id.UID != "" && id.UID == creatorUID {
		return true, nil
	}
	return e.Roles.IsAdmin(ctx, id)
}

// IsAdmin exposes the admin check for moderation and user-management
// endpoints.
func (e *Engine) IsAdmin(ctx context.Context, id auth.Identity) (bool, error) {
	return e.Roles.IsAdmin(ctx, id)
}

// ListScopeFor computes the visibility predicate for a collection read.
// Three branches: anonymous callers see available products only, admins
// see everything, any other authenticated caller sees exactly their own
// records regardless of status. All three share the same newest-first
// ordering so pagination stays stable across the branches.
func (e *Engine) ListScopeFor(ctx context.Context, id *auth.Identity) (ListScope, error) {
	if id == nil {
		return ListScope{Status: model.StatusAvailable}, nil
	}
	admin, err := e.Roles.IsAdmin(ctx, *id)
	if err != nil {
		return ListScope{}, err
	}
	if admin {
		return ListScope{}, nil
	}
	return ListScope{CreatorUID: id.UID}, nil
}

// CoerceQuantity turns an arbitrary JSON value into a non-negative
// quantity. Malformed or negative input yields 0 rather than a validation
// error.
func CoerceQuantity(v any) int {
	switch t := v.(type) {
	case float64:
		if t < 0 {
			return 0
		}
		return int(t)
	case int:
		if t < 0 {
			return 0
		}
		return t
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil || n < 0 {
			return 0
		}
		return n
	}
	return 0
}

// CoercePrice turns an arbitrary JSON value into a non-negative price,
// with the same leniency as CoerceQuantity.
func CoercePrice(v any) float64 {
	switch t := v.(type) {
	case float64:
		if t < 0 {
			return 0
		}
		return t
	case int:
		if t < 0 {
			return 0
		}
		return float64(t)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil || f < 0 {
			return 0
		}
		return f
	}
	return 0
}

// StatusForQuantity derives the availability toggle applied whenever
// quantity is part of an update payload: zero stock parks the product as
// unavailable, positive stock makes it available again.
func StatusForQuantity(q int) string {
	if q <= 0 {
		return model.StatusUnavailable
	}
	return model.StatusAvailable
}
