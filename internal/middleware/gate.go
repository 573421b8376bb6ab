package middleware // middleware contains reusable HTTP middleware for the API

import (
	"context"
	"net/http" // HTTP status codes and method constants
	"strings"  // prefix checks and header trimming
	"time"     // deadline for the external verification call

	"github.com/labstack/echo/v4" // Echo framework middleware types

	"github.com/iliyamo/store-catalog/internal/auth"
	"github.com/iliyamo/store-catalog/internal/authz"
)

// verifyTimeout bounds the external credential verification. The identity
// provider call is blocking I/O and the gate is on every request path, so
// a slow provider must not hold requests indefinitely.
const verifyTimeout = 5 * time.Second

// Gate is the request gate: it runs ahead of every route and finishes in
// one of three ways: pass the request through (with or without an
// attached identity), reject it with 401, or pass a CORS preflight
// untouched so it never reaches business logic.
//
// The checks run in a fixed order and the order matters:
//
//  1. OPTIONS preflight passes before any path rule.
//  2. The /api/public prefix passes with no identity.
//  3. Paths outside /api (root, static assets, health, login) pass.
//  4. GET /api/products passes without a credential so anonymous callers
//     can list the catalog, but a Bearer header offered there is still
//     verified and attached: the listing varies by caller, and an
//     authenticated caller must reach the owner/admin visibility branch.
//  5. Everything else under /api requires a verified bearer credential.
//
// Steps 2-4 are the policy engine's gate rules (authz.RequiresIdentity
// and authz.IdentityOptional); the gate adds the preflight short-circuit
// and the credential handling. A token that fails verification is always
// 401, even on the optional path: presenting a bad credential is an
// error, never silently downgraded to anonymous. A present identity only
// admits the request to the handler; resource-level authorization
// happens downstream.
func Gate(v auth.Verifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			// Preflight never carries credentials; let the CORS
			// middleware answer it.
			if req.Method == http.MethodOptions {
				return next(c)
			}

			if !authz.RequiresIdentity(req.Method, req.URL.Path) {
				// The anonymous collection listing resolves an offered
				// credential; every other exempt path proceeds with
				// none. Handlers that care ask auth.IdentityFrom and
				// get ok=false for anonymous requests.
				if authz.IdentityOptional(req.Method, req.URL.Path) {
					header := req.Header.Get("Authorization")
					if strings.HasPrefix(header, "Bearer ") {
						if err := verifyAndAttach(c, v, header); err != nil {
							return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
						}
					}
				}
				return next(c)
			}

			// From here a credential is mandatory. A missing or
			// malformed header is AuthMissing; a header that fails
			// verification is AuthInvalid. Both are 401, with distinct
			// messages.
			header := req.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing or invalid authorization token"})
			}
			if err := verifyAndAttach(c, v, header); err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			return next(c)
		}
	}
}

// verifyAndAttach verifies the Bearer header's token and stores the
// resulting identity as a typed context value for downstream handlers.
func verifyAndAttach(c echo.Context, v auth.Verifier, header string) error {
	raw := strings.TrimPrefix(header, "Bearer ")
	ctx, cancel := context.WithTimeout(c.Request().Context(), verifyTimeout)
	defer cancel()
	ident, err := v.Verify(ctx, raw)
	if err != nil {
		return err
	}
	auth.SetIdentity(c, ident)
	return nil
}
