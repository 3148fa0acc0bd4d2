package dynamo

import (
	"context"
	"errors"
	"testing"

	"github.com/flightdesk-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIdentityRepo() (*IdentityRepo, *fakeDynamo) {
	f := newFakeDynamo(map[string]string{"users": fieldEmail})
	return NewIdentityRepo(f, "users"), f
}

func TestIdentityRepo_CreateIfAbsent(t *testing.T) {
	repo, _ := newIdentityRepo()
	ctx := context.Background()

	first := &domain.Identity{UserID: "01A", Email: "a@b.com", Role: domain.RoleUser, Enable: true}
	require.NoError(t, repo.Create(ctx, first))

	second := &domain.Identity{UserID: "01B", Email: "a@b.com", Role: domain.RoleUser, Enable: true}
	err := repo.Create(ctx, second)
	assert.True(t, errors.Is(err, domain.ErrConflict))

	got, err := repo.GetByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "01A", got.UserID)
}

func TestIdentityRepo_GetByIDAndMissing(t *testing.T) {
	repo, _ := newIdentityRepo()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &domain.Identity{
		UserID: "01A", Email: "a@b.com", Role: domain.RoleInstructor,
		Permissions: []string{"invoices:read"}, Enable: true,
	}))

	got, err := repo.Get(ctx, "01A")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleInstructor, got.Role)
	assert.Equal(t, []string{"invoices:read"}, got.Permissions)

	_, err = repo.Get(ctx, "nope")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	_, err = repo.GetByEmail(ctx, "nobody@b.com")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestIdentityRepo_Update(t *testing.T) {
	repo, _ := newIdentityRepo()
	ctx := context.Background()
	ident := &domain.Identity{UserID: "01A", Email: "a@b.com", Role: domain.RoleUser, Permissions: []string{"files:write"}, Enable: true}
	require.NoError(t, repo.Create(ctx, ident))

	ident.Role = domain.RoleBaseManager
	ident.Permissions = nil
	ident.Enable = false
	require.NoError(t, repo.Update(ctx, ident))

	got, err := repo.GetByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleBaseManager, got.Role)
	assert.Empty(t, got.Permissions)
	assert.False(t, got.Enable)

	missing := &domain.Identity{UserID: "01Z", Email: "z@b.com", Role: domain.RoleUser}
	assert.True(t, errors.Is(repo.Update(ctx, missing), domain.ErrNotFound))
}

func TestIdentityRepo_ListPages(t *testing.T) {
	repo, _ := newIdentityRepo()
	ctx := context.Background()
	for _, e := range []string{"a@b.com", "b@b.com", "c@b.com"} {
		require.NoError(t, repo.Create(ctx, &domain.Identity{UserID: e, Email: e, Role: domain.RoleUser, Enable: true}))
	}

	page1, cursor, err := repo.List(ctx, 2, "")
	require.NoError(t, err)
	assert.Len(t, page1, 2)
	require.NotEmpty(t, cursor)

	page2, cursor, err := repo.List(ctx, 2, cursor)
	require.NoError(t, err)
	require.Len(t, page2, 1)
	assert.Equal(t, "c@b.com", page2[0].Email)
	assert.Empty(t, cursor)

	_, _, err = repo.List(ctx, 2, "%%%")
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestIdentityRepo_BackendDown(t *testing.T) {
	repo, f := newIdentityRepo()
	f.fail = errBackendDown
	_, err := repo.GetByEmail(context.Background(), "a@b.com")
	assert.True(t, errors.Is(err, domain.ErrUnavailable))
}
