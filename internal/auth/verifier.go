package auth // package auth verifies bearer credentials and issues tokens

import (
	"context"
	"errors"

	"github.com/golang-jwt/jwt/v5" // JWT library for parsing and validating tokens
)

// ErrInvalidToken is returned for any credential that fails verification:
// bad signature, wrong algorithm, expired, malformed, or missing subject.
// Callers translate it into an HTTP 401. The error deliberately carries no
// detail about which check failed.
var ErrInvalidToken = errors.New("invalid token")

// Verifier validates an opaque bearer credential and produces the caller's
// identity. The request gate depends on this interface rather than on the
// concrete JWT implementation so tests can substitute a stub.
type Verifier interface {
	Verify(ctx context.Context, raw string) (Identity, error)
}

// JWTVerifier verifies HS256 access tokens signed with a shared secret.
// The secret is injected at construction and never read from process
// globals, so multiple verifiers with different secrets can coexist in
// tests.
type JWTVerifier struct {
	secret []byte
}

// NewJWTVerifier returns a verifier for tokens signed with the given secret.
func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

// Verify parses and validates the raw token string. Expiry is enforced by
// the jwt library during parsing. The subject claim is required; the email
// claim is optional. Any failure collapses into ErrInvalidToken; a single
// failed verification is a hard auth failure for the request, never
// retried.
func (v *JWTVerifier) Verify(_ context.Context, raw string) (Identity, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		// Reject tokens signed with anything other than HMAC.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return v.secret, nil
	})
	if err != nil || !tok.Valid {
		return Identity{}, ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return Identity{}, ErrInvalidToken
	}
	email, _ := claims["email"].(string)
	return Identity{UID: sub, Email: email}, nil
}
