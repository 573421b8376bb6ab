package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/store-catalog/internal/auth"
)

// fakeRoleStore is an in-memory RoleStore for resolver tests.
type fakeRoleStore struct {
	records map[string]fakeRecord
	err     error
}

type fakeRecord struct {
	role   string
	active bool
}

func (f *fakeRoleStore) RoleRecord(_ context.Context, uid string) (string, bool, bool, error) {
	if f.err != nil {
		return "", false, false, f.err
	}
	rec, ok := f.records[uid]
	if !ok {
		return "", false, false, nil
	}
	return rec.role, rec.active, true, nil
}

func TestResolveNoRecordMeansNoRole(t *testing.T) {
	r := NewResolver(&fakeRoleStore{records: map[string]fakeRecord{}}, "")

	_, ok, err := r.Resolve(context.Background(), auth.Identity{UID: "nobody"})
	require.NoError(t, err)
	assert.False(t, ok)

	for _, role := range []Role{RoleAdmin, RolePublisher, RoleModerator, RoleViewer} {
		got, err := r.HasRole(context.Background(), auth.Identity{UID: "nobody"}, role)
		require.NoError(t, err)
		assert.False(t, got, "uid without record must fail HasRole(%s)", role)
	}
}

func TestSuperAdminOverride(t *testing.T) {
	tests := []struct {
		name  string
		store *fakeRoleStore
	}{
		{"no record in store", &fakeRoleStore{records: map[string]fakeRecord{}}},
		{"conflicting stored role", &fakeRoleStore{records: map[string]fakeRecord{
			"root": {role: "viewer", active: true},
		}}},
		{"inactive stored record", &fakeRoleStore{records: map[string]fakeRecord{
			"root": {role: "admin", active: false},
		}}},
		{"store errors are irrelevant", &fakeRoleStore{err: errors.New("store down")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(tt.store, "root")
			role, ok, err := r.Resolve(context.Background(), auth.Identity{UID: "root"})
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, RoleAdmin, role)
		})
	}
}

func TestEmptySuperAdminUIDDisablesOverride(t *testing.T) {
	// An empty configured uid must not grant admin to identities with an
	// empty uid (which should never occur, but must not be a bypass).
	r := NewResolver(&fakeRoleStore{records: map[string]fakeRecord{}}, "")
	ok, err := r.IsAdmin(context.Background(), auth.Identity{UID: ""})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInactiveRecordHasNoRole(t *testing.T) {
	r := NewResolver(&fakeRoleStore{records: map[string]fakeRecord{
		"u1": {role: "publisher", active: false},
	}}, "")
	_, ok, err := r.Resolve(context.Background(), auth.Identity{UID: "u1"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasRoleIsExactMatch(t *testing.T) {
	r := NewResolver(&fakeRoleStore{records: map[string]fakeRecord{
		"mod": {role: "moderator", active: true},
	}}, "")

	ok, err := r.HasRole(context.Background(), auth.Identity{UID: "mod"}, RoleModerator)
	require.NoError(t, err)
	assert.True(t, ok)

	// Moderator is not admin; there is no role hierarchy.
	admin, err := r.IsAdmin(context.Background(), auth.Identity{UID: "mod"})
	require.NoError(t, err)
	assert.False(t, admin)
}

func TestResolveRejectsUnknownStoredRole(t *testing.T) {
	r := NewResolver(&fakeRoleStore{records: map[string]fakeRecord{
		"odd": {role: "superuser", active: true},
	}}, "")
	_, ok, err := r.Resolve(context.Background(), auth.Identity{UID: "odd"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResolvePropagatesStoreErrors(t *testing.T) {
	r := NewResolver(&fakeRoleStore{err: errors.New("store down")}, "")
	_, _, err := r.Resolve(context.Background(), auth.Identity{UID: "u1"})
	assert.Error(t, err)
}
