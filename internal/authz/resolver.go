package authz

import (
	"context"

	"github.com/iliyamo/store-catalog/internal/auth"
)

// RoleStore is the narrow slice of the user repository the resolver
// needs: a point read of one role record. The ok result is false when no
// record exists for the uid; that is not an error.
type RoleStore interface {
	RoleRecord(ctx context.Context, uid string) (role string, active bool, ok bool, err error)
}

// Resolver maps a verified identity to its role. Resolution re-reads the
// store on every call; there is no cache and therefore no staleness
// window. The super-admin uid is an immutable value injected at
// construction, checked before the store is consulted.
type Resolver struct {
	store         RoleStore
	superAdminUID string
}

// NewResolver builds a resolver. superAdminUID may be empty, in which
// case no override applies.
func NewResolver(store RoleStore, superAdminUID string) *Resolver {
	return &Resolver{store: store, superAdminUID: superAdminUID}
}

// Resolve returns the identity's role. The ok result is false when the
// identity has no role: no stored record, or a record with active=false.
// Order matters: the super-admin override is a standing rule evaluated
// before the store read, so it holds even when the store has no record or
// a conflicting one for that uid.
func (r *Resolver) Resolve(ctx context.Context, id auth.Identity) (Role, bool, error) {
	if r.superAdminUID != "" && id.UID == r.superAdminUID {
		return RoleAdmin, true, nil
	}
	role, active, ok, err := r.store.RoleRecord(ctx, id.UID)
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, nil
	}
	// A deactivated account keeps its stored role but may not exercise it.
	if !active {
		return "", false, nil
	}
	parsed, valid := ParseRole(role)
	if !valid {
		return "", false, nil
	}
	return parsed, true, nil
}

// HasRole reports whether the identity resolves to exactly the given
// role. Note this is equality, not hierarchy: a moderator does not pass a
// HasRole(..., RoleAdmin) check.
func (r *Resolver) HasRole(ctx context.Context, id auth.Identity, role Role) (bool, error) {
	got, ok, err := r.Resolve(ctx, id)
	if err != nil {
		return false, err
	}
	return ok && got == role, nil
}

// IsAdmin is shorthand for HasRole with RoleAdmin.
func (r *Resolver) IsAdmin(ctx context.Context, id auth.Identity) (bool, error) {
	return r.HasRole(ctx, id, RoleAdmin)
}
