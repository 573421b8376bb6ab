package auth

import "github.com/labstack/echo/v4"

// Identity is a verified caller. It is produced only by a successful
// credential verification and lives for exactly one request; nothing in
// the application persists it.
type Identity struct {
	UID   string // opaque subject identifier (JWT "sub" claim)
	Email string // optional email claim, may be empty
}

// identityKey is the echo context key under which the request gate stores
// the resolved identity. Handlers must go through SetIdentity/IdentityFrom
// instead of reading the context directly so the stored type stays opaque.
const identityKey = "auth.identity"

// SetIdentity attaches a verified identity to the request context. Only
// the request gate should call this.
func SetIdentity(c echo.Context, id Identity) {
	c.Set(identityKey, id)
}

// IdentityFrom returns the identity attached by the request gate, if any.
// The boolean is false for anonymous requests (paths exempt from
// authentication).
func IdentityFrom(c echo.Context) (Identity, bool) {
	id, ok := c.Get(identityKey).(Identity)
	return id, ok
}
