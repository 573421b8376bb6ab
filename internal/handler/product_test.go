package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/store-catalog/internal/auth"
	"github.com/iliyamo/store-catalog/internal/authz"
	mw "github.com/iliyamo/store-catalog/internal/middleware"
	"github.com/iliyamo/store-catalog/internal/model"
	"github.com/iliyamo/store-catalog/internal/queue"
	"github.com/iliyamo/store-catalog/internal/repository"
)

// fakeRoleStore is an in-memory authz.RoleStore keyed by uid.
type fakeRoleStore struct {
	roles map[string]string // uid -> role; present means active
}

func (f *fakeRoleStore) RoleRecord(_ context.Context, uid string) (string, bool, bool, error) {
	role, ok := f.roles[uid]
	if !ok {
		return "", false, false, nil
	}
	return role, true, true, nil
}

// fakeProductStore is an in-memory ProductStore that honors the list
// scope and the newest-first ordering the SQL layer would apply.
type fakeProductStore struct {
	products map[uint64]*model.Product
	nextID   uint64
}

func newFakeProductStore() *fakeProductStore {
	return &fakeProductStore{products: map[uint64]*model.Product{}, nextID: 1}
}

func (f *fakeProductStore) add(p model.Product) uint64 {
	p.ID = f.nextID
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC().Add(time.Duration(f.nextID) * time.Second)
	}
	f.products[p.ID] = &p
	f.nextID++
	return p.ID
}

func (f *fakeProductStore) Create(_ context.Context, p *model.Product) error {
	p.ID = f.nextID
	p.CreatedAt = time.Now().UTC()
	cp := *p
	f.products[p.ID] = &cp
	f.nextID++
	return nil
}

func (f *fakeProductStore) GetByID(_ context.Context, id uint64) (*model.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProductStore) Update(_ context.Context, id uint64, fields map[string]any) error {
	p, ok := f.products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	for k, v := range fields {
		switch k {
		case "name":
			p.Name = v.(string)
		case "price":
			p.Price = v.(float64)
		case "quantity":
			p.Quantity = v.(int)
		case "image_url":
			p.ImageURL = v.(string)
		case "description":
			p.Description = v.(string)
		case "status":
			p.Status = v.(string)
		case "approved_by":
			s := v.(string)
			p.ApprovedBy = &s
		case "approved_at":
			ts := v.(time.Time)
			p.ApprovedAt = &ts
		case "rejected_by":
			s := v.(string)
			p.RejectedBy = &s
		case "rejected_at":
			ts := v.(time.Time)
			p.RejectedAt = &ts
		case "rejection_reason":
			s := v.(string)
			p.RejectionReason = &s
		}
	}
	return nil
}

func (f *fakeProductStore) Delete(_ context.Context, id uint64) error {
	if _, ok := f.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(f.products, id)
	return nil
}

func (f *fakeProductStore) List(_ context.Context, scope authz.ListScope) ([]*model.Product, error) {
	out := make([]*model.Product, 0, len(f.products))
	for _, p := range f.products {
		if scope.Status != "" && p.Status != scope.Status {
			continue
		}
		if scope.CreatorUID != "" && p.CreatorUID != scope.CreatorUID {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (f *fakeProductStore) DeleteOwnerless(_ context.Context) (int64, error) {
	var n int64
	for id, p := range f.products {
		if p.CreatorUID == "" {
			delete(f.products, id)
			n++
		}
	}
	return n, nil
}

// newHandler builds a ProductHandler over seeded fakes with the default
// creation policy (publisher role required, new products pending).
func newHandler(store *fakeProductStore, roles map[string]string) *ProductHandler {
	engine := authz.NewEngine(&fakeRoleStore{roles: roles}, "", authz.RolePublisher, model.StatusPending)
	return NewProductHandler(store, engine)
}

// newCtx builds an echo context for a request. uid=="" leaves the request
// anonymous; otherwise the identity is attached the way the gate would.
func newCtx(method, target, body, uid string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if uid != "" {
		auth.SetIdentity(c, auth.Identity{UID: uid, Email: uid + "@example.com"})
	}
	return c, rec
}

func decodeItems(t *testing.T, rec *httptest.ResponseRecorder) []model.Product {
	t.Helper()
	var resp struct {
		Items []model.Product `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Items
}

func seedCatalog(store *fakeProductStore) {
	store.add(model.Product{Name: "pending-u1", CreatorUID: "u1", Status: model.StatusPending})
	store.add(model.Product{Name: "avail-u1", CreatorUID: "u1", Status: model.StatusAvailable})
	store.add(model.Product{Name: "avail-u2", CreatorUID: "u2", Status: model.StatusAvailable})
	store.add(model.Product{Name: "rejected-u2", CreatorUID: "u2", Status: model.StatusRejected})
}

func TestListAnonymousSeesAvailableOnly(t *testing.T) {
	store := newFakeProductStore()
	seedCatalog(store)
	h := newHandler(store, nil)

	c, rec := newCtx(http.MethodGet, "/api/products", "", "")
	require.NoError(t, h.List(c))
	require.Equal(t, http.StatusOK, rec.Code)

	items := decodeItems(t, rec)
	require.Len(t, items, 2)
	for _, p := range items {
		assert.Equal(t, model.StatusAvailable, p.Status)
	}
	// Newest first.
	assert.Equal(t, "avail-u2", items[0].Name)
	assert.Equal(t, "avail-u1", items[1].Name)
}

func TestListOwnerSeesOwnRecordsOnly(t *testing.T) {
	store := newFakeProductStore()
	seedCatalog(store)
	h := newHandler(store, map[string]string{"u1": "publisher"})

	c, rec := newCtx(http.MethodGet, "/api/products", "", "u1")
	require.NoError(t, h.List(c))

	items := decodeItems(t, rec)
	require.Len(t, items, 2)
	for _, p := range items {
		assert.Equal(t, "u1", p.CreatorUID)
	}
}

// tokenVerifier maps fixed token strings to identities.
type tokenVerifier struct {
	idents map[string]auth.Identity
}

func (v *tokenVerifier) Verify(_ context.Context, raw string) (auth.Identity, error) {
	id, ok := v.idents[raw]
	if !ok {
		return auth.Identity{}, auth.ErrInvalidToken
	}
	return id, nil
}

func TestListVisibilityThroughGate(t *testing.T) {
	// Full round trip: the request gate resolves (or skips) the bearer
	// and the handler applies the resulting visibility branch.
	store := newFakeProductStore()
	seedCatalog(store)
	h := newHandler(store, map[string]string{"boss": "admin", "u1": "publisher"})

	e := echo.New()
	e.Use(mw.Gate(&tokenVerifier{idents: map[string]auth.Identity{
		"boss-token": {UID: "boss"},
		"u1-token":   {UID: "u1"},
	}}))
	e.GET("/api/products", h.List)

	tests := []struct {
		name   string
		bearer string
		want   int
	}{
		{"anonymous sees available only", "", 2},
		{"owner sees own records", "u1-token", 2},
		{"admin sees everything", "boss-token", 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
			if tt.bearer != "" {
				req.Header.Set("Authorization", "Bearer "+tt.bearer)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code)

			items := decodeItems(t, rec)
			require.Len(t, items, tt.want)
			switch tt.bearer {
			case "":
				for _, p := range items {
					assert.Equal(t, model.StatusAvailable, p.Status)
				}
			case "u1-token":
				for _, p := range items {
					assert.Equal(t, "u1", p.CreatorUID)
				}
			}
		})
	}

	// A bad token on the same path is rejected at the gate.
	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.Header.Set("Authorization", "Bearer forged")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListAdminSeesEverything(t *testing.T) {
	store := newFakeProductStore()
	seedCatalog(store)
	h := newHandler(store, map[string]string{"boss": "admin"})

	c, rec := newCtx(http.MethodGet, "/api/products", "", "boss")
	require.NoError(t, h.List(c))
	assert.Len(t, decodeItems(t, rec), 4)
}

func TestGetIsUnrestrictedForNonOwners(t *testing.T) {
	store := newFakeProductStore()
	id := store.add(model.Product{Name: "pending-u1", CreatorUID: "u1", Status: model.StatusPending})
	h := newHandler(store, map[string]string{"u2": "viewer"})

	c, rec := newCtx(http.MethodGet, "/api/products/1", "", "u2")
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.Get(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var p model.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, id, p.ID)
	assert.Equal(t, "u1", p.CreatorUID)
}

func TestUpdateByNonOwnerIsForbidden(t *testing.T) {
	store := newFakeProductStore()
	store.add(model.Product{Name: "p", CreatorUID: "u1", Status: model.StatusAvailable})
	h := newHandler(store, map[string]string{"u2": "publisher"})

	c, rec := newCtx(http.MethodPut, "/api/products/1", `{"name":"hijacked"}`, "u2")
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "p", store.products[1].Name)
}

func TestUpdateUnknownIDIs404BeforeOwnership(t *testing.T) {
	store := newFakeProductStore()
	h := newHandler(store, nil)

	// u2 owns nothing and has no role; a missing id must still be 404,
	// not 403.
	c, rec := newCtx(http.MethodPut, "/api/products/99", `{"name":"x"}`, "u2")
	c.SetParamNames("id")
	c.SetParamValues("99")
	require.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateQuantityDrivesStatus(t *testing.T) {
	store := newFakeProductStore()
	store.add(model.Product{Name: "p", CreatorUID: "u1", Status: model.StatusAvailable, Quantity: 5})
	h := newHandler(store, nil)

	c, rec := newCtx(http.MethodPut, "/api/products/1", `{"quantity":0}`, "u1")
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.Update(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.StatusUnavailable, store.products[1].Status)
	assert.Equal(t, 0, store.products[1].Quantity)

	c, rec = newCtx(http.MethodPut, "/api/products/1", `{"quantity":3}`, "u1")
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.Update(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.StatusAvailable, store.products[1].Status)
	assert.Equal(t, 3, store.products[1].Quantity)
}

func TestUpdateCoercesMalformedQuantity(t *testing.T) {
	store := newFakeProductStore()
	store.add(model.Product{Name: "p", CreatorUID: "u1", Status: model.StatusAvailable, Quantity: 5})
	h := newHandler(store, nil)

	c, rec := newCtx(http.MethodPut, "/api/products/1", `{"quantity":"junk"}`, "u1")
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.Update(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, store.products[1].Quantity)
	assert.Equal(t, model.StatusUnavailable, store.products[1].Status)
}

func TestDeleteByOwner(t *testing.T) {
	store := newFakeProductStore()
	store.add(model.Product{Name: "p", CreatorUID: "u1", Status: model.StatusAvailable})
	h := newHandler(store, nil)

	c, rec := newCtx(http.MethodDelete, "/api/products/1", "", "u1")
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, store.products)
}

func TestDeleteByAdminNonOwner(t *testing.T) {
	store := newFakeProductStore()
	store.add(model.Product{Name: "p", CreatorUID: "u1", Status: model.StatusAvailable})
	h := newHandler(store, map[string]string{"boss": "admin"})

	c, rec := newCtx(http.MethodDelete, "/api/products/1", "", "boss")
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCreateRequiresConfiguredRole(t *testing.T) {
	store := newFakeProductStore()
	h := newHandler(store, map[string]string{"pub": "publisher", "vw": "viewer"})

	c, rec := newCtx(http.MethodPost, "/api/products", `{"name":"widget","price":9.5,"quantity":2}`, "vw")
	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "not allowed to publish")

	c, rec = newCtx(http.MethodPost, "/api/products", `{"name":"widget","price":9.5,"quantity":2}`, "pub")
	require.NoError(t, h.Create(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var p model.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, model.StatusPending, p.Status)
	assert.Equal(t, "pub", p.CreatorUID)
	assert.Equal(t, "pub@example.com", p.AddedBy)
	assert.Equal(t, 9.5, p.Price)
	assert.Equal(t, 2, p.Quantity)
}

func TestCreateOpenPolicyWithAvailableDefault(t *testing.T) {
	store := newFakeProductStore()
	engine := authz.NewEngine(&fakeRoleStore{}, "", "", model.StatusAvailable)
	h := NewProductHandler(store, engine)

	c, rec := newCtx(http.MethodPost, "/api/products", `{"name":"widget"}`, "anyone")
	require.NoError(t, h.Create(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var p model.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, model.StatusAvailable, p.Status)
}

func TestCreateRejectsMissingName(t *testing.T) {
	store := newFakeProductStore()
	h := newHandler(store, map[string]string{"pub": "publisher"})

	for _, body := range []string{`{}`, `{"name":"   "}`} {
		c, rec := newCtx(http.MethodPost, "/api/products", body, "pub")
		require.NoError(t, h.Create(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body=%s", body)
	}
}

func TestCreatePolicyCheckPrecedesValidation(t *testing.T) {
	// An unauthorized caller gets 403 even when the payload would also
	// fail validation.
	store := newFakeProductStore()
	h := newHandler(store, map[string]string{"vw": "viewer"})

	c, rec := newCtx(http.MethodPost, "/api/products", `{}`, "vw")
	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreateCoercesMalformedNumbers(t *testing.T) {
	store := newFakeProductStore()
	h := newHandler(store, map[string]string{"pub": "publisher"})

	c, rec := newCtx(http.MethodPost, "/api/products", `{"name":"w","price":"junk","quantity":-4}`, "pub")
	require.NoError(t, h.Create(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var p model.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Zero(t, p.Price)
	assert.Zero(t, p.Quantity)
}

func TestApproveByAdmin(t *testing.T) {
	store := newFakeProductStore()
	store.add(model.Product{Name: "p", CreatorUID: "u1", Status: model.StatusPending})
	h := newHandler(store, map[string]string{"boss": "admin"})

	var published []queue.ProductModeratedEvent
	h.Publish = func(_ context.Context, ev queue.ProductModeratedEvent) error {
		published = append(published, ev)
		return nil
	}

	c, rec := newCtx(http.MethodPost, "/api/products/1/approve", "", "boss")
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.Approve(c))
	require.Equal(t, http.StatusOK, rec.Code)

	p := store.products[1]
	assert.Equal(t, model.StatusAvailable, p.Status)
	require.NotNil(t, p.ApprovedBy)
	assert.Equal(t, "boss", *p.ApprovedBy)
	assert.NotNil(t, p.ApprovedAt)
	assert.Nil(t, p.RejectedBy)

	require.Len(t, published, 1)
	assert.Equal(t, "approved", published[0].Action)
	assert.Equal(t, uint64(1), published[0].ProductID)
	assert.Equal(t, "boss", published[0].ModeratorUID)
}

func TestApproveByNonAdminIsForbiddenBeforeLookup(t *testing.T) {
	store := newFakeProductStore()
	h := newHandler(store, map[string]string{"u1": "publisher"})

	// The id does not exist; a non-admin still gets 403, never 404.
	c, rec := newCtx(http.MethodPost, "/api/products/99/approve", "", "u1")
	c.SetParamNames("id")
	c.SetParamValues("99")
	require.NoError(t, h.Approve(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRejectRecordsReason(t *testing.T) {
	store := newFakeProductStore()
	store.add(model.Product{Name: "p", CreatorUID: "u1", Status: model.StatusPending})
	h := newHandler(store, map[string]string{"boss": "admin"})

	var published []queue.ProductModeratedEvent
	h.Publish = func(_ context.Context, ev queue.ProductModeratedEvent) error {
		published = append(published, ev)
		return nil
	}

	c, rec := newCtx(http.MethodPost, "/api/products/1/reject", `{"reason":"bad photos"}`, "boss")
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.Reject(c))
	require.Equal(t, http.StatusOK, rec.Code)

	p := store.products[1]
	assert.Equal(t, model.StatusRejected, p.Status)
	require.NotNil(t, p.RejectionReason)
	assert.Equal(t, "bad photos", *p.RejectionReason)

	require.Len(t, published, 1)
	assert.Equal(t, "rejected", published[0].Action)
	assert.Equal(t, "bad photos", published[0].Reason)
}

func TestRejectWithoutReasonLeavesReasonUnset(t *testing.T) {
	store := newFakeProductStore()
	store.add(model.Product{Name: "p", CreatorUID: "u1", Status: model.StatusPending})
	h := newHandler(store, map[string]string{"boss": "admin"})

	c, rec := newCtx(http.MethodPost, "/api/products/1/reject", `{"reason":"  "}`, "boss")
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.Reject(c))
	require.Equal(t, http.StatusOK, rec.Code)

	p := store.products[1]
	assert.Equal(t, model.StatusRejected, p.Status)
	assert.Nil(t, p.RejectionReason)
	require.NotNil(t, p.RejectedBy)
	assert.Equal(t, "boss", *p.RejectedBy)
}

func TestCleanupIsAdminOnly(t *testing.T) {
	store := newFakeProductStore()
	store.add(model.Product{Name: "orphan", CreatorUID: "", Status: model.StatusAvailable})
	store.add(model.Product{Name: "owned", CreatorUID: "u1", Status: model.StatusAvailable})
	h := newHandler(store, map[string]string{"boss": "admin", "u1": "publisher"})

	c, rec := newCtx(http.MethodPost, "/api/cleanup-old-products", "", "u1")
	require.NoError(t, h.Cleanup(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Len(t, store.products, 2)

	c, rec = newCtx(http.MethodPost, "/api/cleanup-old-products", "", "boss")
	require.NoError(t, h.Cleanup(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "deleted 1 ownerless products")
	assert.Len(t, store.products, 1)
}

func TestModerationWithoutPublisherStillSucceeds(t *testing.T) {
	store := newFakeProductStore()
	store.add(model.Product{Name: "p", CreatorUID: "u1", Status: model.StatusPending})
	h := newHandler(store, map[string]string{"boss": "admin"}) // Publish stays nil

	c, rec := newCtx(http.MethodPost, "/api/products/1/approve", "", "boss")
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.Approve(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}
