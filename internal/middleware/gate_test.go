package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/store-catalog/internal/auth"
)

// stubVerifier accepts exactly one token value and rejects everything else.
type stubVerifier struct {
	accept string
	ident  auth.Identity
}

func (s *stubVerifier) Verify(_ context.Context, raw string) (auth.Identity, error) {
	if raw == s.accept {
		return s.ident, nil
	}
	return auth.Identity{}, auth.ErrInvalidToken
}

// runGate sends one request through the gate wrapped around a recording
// handler and reports the response plus whatever identity the handler saw.
func runGate(t *testing.T, v auth.Verifier, method, path, header string) (*httptest.ResponseRecorder, auth.Identity, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, path, nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var got auth.Identity
	var seen bool
	next := func(c echo.Context) error {
		got, seen = auth.IdentityFrom(c)
		return c.NoContent(http.StatusOK)
	}
	require.NoError(t, Gate(v)(next)(c))
	return rec, got, seen
}

func TestGatePassesPreflightWithoutIdentity(t *testing.T) {
	v := &stubVerifier{accept: "good", ident: auth.Identity{UID: "u1"}}
	rec, _, seen := runGate(t, v, http.MethodOptions, "/api/products", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, seen)
}

func TestGateExemptPathsPassAnonymously(t *testing.T) {
	v := &stubVerifier{accept: "good", ident: auth.Identity{UID: "u1"}}
	tests := []struct {
		method, path string
	}{
		{http.MethodGet, "/api/public/products"},
		{http.MethodGet, "/healthz"},
		{http.MethodGet, "/"},
		{http.MethodPost, "/auth/login"},
		{http.MethodGet, "/api/products"}, // anonymous collection listing
	}
	for _, tt := range tests {
		rec, _, seen := runGate(t, v, tt.method, tt.path, "")
		assert.Equal(t, http.StatusOK, rec.Code, "%s %s", tt.method, tt.path)
		assert.False(t, seen, "%s %s must not carry an identity", tt.method, tt.path)
	}
}

func TestGateResolvesBearerOnAnonymousListing(t *testing.T) {
	// GET /api/products is exempt from the credential requirement, but a
	// credential offered there must still resolve so the owner/admin list
	// branches are reachable.
	v := &stubVerifier{accept: "good", ident: auth.Identity{UID: "u1"}}
	rec, ident, seen := runGate(t, v, http.MethodGet, "/api/products", "Bearer good")
	assert.Equal(t, http.StatusOK, rec.Code)
	require.True(t, seen)
	assert.Equal(t, "u1", ident.UID)
}

func TestGateRejectsBadBearerOnAnonymousListing(t *testing.T) {
	// A presented token that fails verification is 401, never downgraded
	// to an anonymous listing.
	v := &stubVerifier{accept: "good"}
	rec, _, _ := runGate(t, v, http.MethodGet, "/api/products", "Bearer forged")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid token")
}

func TestGateIgnoresBearerOnOtherExemptPaths(t *testing.T) {
	// Identity-independent exempt paths never inspect the header, so a
	// stale token in a client's default headers cannot break them.
	v := &stubVerifier{accept: "good", ident: auth.Identity{UID: "u1"}}
	for _, path := range []string{"/healthz", "/auth/login", "/api/public/products"} {
		rec, _, seen := runGate(t, v, http.MethodGet, path, "Bearer forged")
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.False(t, seen, path)
	}
}

func TestGateMissingHeaderIsRejected(t *testing.T) {
	v := &stubVerifier{accept: "good"}
	rec, _, _ := runGate(t, v, http.MethodPost, "/api/products", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing or invalid authorization token")
}

func TestGateMalformedHeaderIsRejected(t *testing.T) {
	v := &stubVerifier{accept: "good"}
	for _, header := range []string{"good", "Basic abc", "bearer good"} {
		rec, _, _ := runGate(t, v, http.MethodPut, "/api/products/1", header)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header=%q", header)
		assert.Contains(t, rec.Body.String(), "missing or invalid authorization token")
	}
}

func TestGateFailedVerificationIsRejected(t *testing.T) {
	v := &stubVerifier{accept: "good"}
	rec, _, _ := runGate(t, v, http.MethodGet, "/api/products/1", "Bearer forged")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid token")
}

func TestGateAttachesVerifiedIdentity(t *testing.T) {
	v := &stubVerifier{accept: "good", ident: auth.Identity{UID: "u1", Email: "u1@example.com"}}
	rec, ident, seen := runGate(t, v, http.MethodDelete, "/api/products/7", "Bearer good")
	assert.Equal(t, http.StatusOK, rec.Code)
	require.True(t, seen)
	assert.Equal(t, "u1", ident.UID)
	assert.Equal(t, "u1@example.com", ident.Email)
}
