// Package authz holds the access-control core: the role resolver, the
// access policy engine and the list-visibility rules. Everything in this
// package is pure decision logic over injected dependencies: it performs
// no HTTP work and owns no mutable state beyond configuration copied in at
// construction.
package authz

// Role is a named authorization level stored per identity.
type Role string

// The allowed role set. Any stored value outside this set fails
// ParseRole and is rejected at the admin endpoints before it can reach
// the store.
const (
	RoleAdmin     Role = "admin"
	RolePublisher Role = "publisher"
	RoleModerator Role = "moderator"
	RoleViewer    Role = "viewer"
)

// ParseRole validates a raw role string against the allowed set.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RolePublisher, RoleModerator, RoleViewer:
		return Role(s), true
	}
	return "", false
}
