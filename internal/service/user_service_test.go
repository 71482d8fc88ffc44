package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printready/proofdesk-backend/internal/repository"
	"github.com/printready/proofdesk-backend/internal/types"
)

func newUserFixture(t *testing.T) (*fakeProfileRepo, UserService) {
	t.Helper()
	profiles := newFakeProfileRepo()
	require.NoError(t, profiles.Upsert(context.Background(), &repository.Profile{
		ID: "admin-1", Email: "renate@example.com", Role: types.RoleAdmin, Status: types.ProfileActive, OwnerKey: "admin-1",
	}))
	require.NoError(t, profiles.Upsert(context.Background(), &repository.Profile{
		ID: "client-1", Email: "lotte@example.com", Role: types.RoleClient, Status: types.ProfileActive, OwnerKey: "client-1",
	}))
	return profiles, NewUserService(profiles)
}

func TestGetUserByID(t *testing.T) {
	_, svc := newUserFixture(t)

	profile, err := svc.GetByID(context.Background(), "client-1")
	require.NoError(t, err)
	assert.Equal(t, "lotte@example.com", profile.Email)

	_, err = svc.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateDisplayName(t *testing.T) {
	_, svc := newUserFixture(t)

	profile, err := svc.UpdateDisplayName(context.Background(), "client-1", "Lotte Jansen")
	require.NoError(t, err)
	assert.Equal(t, "Lotte Jansen", profile.DisplayName)

	_, err = svc.UpdateDisplayName(context.Background(), "client-1", "")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestUpdateRoleRequiresAdmin(t *testing.T) {
	profiles, svc := newUserFixture(t)
	ctx := context.Background()

	err := svc.UpdateRole(ctx, "client-1", "client-1", types.RoleDesigner)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	err = svc.UpdateRole(ctx, "admin-1", "client-1", "superuser")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	require.NoError(t, svc.UpdateRole(ctx, "admin-1", "client-1", types.RoleDesigner))
	updated, err := profiles.FindByID(ctx, "client-1")
	require.NoError(t, err)
	assert.Equal(t, types.RoleDesigner, updated.Role)
}

func TestUpdateStatusRequiresAdmin(t *testing.T) {
	profiles, svc := newUserFixture(t)
	ctx := context.Background()

	err := svc.UpdateStatus(ctx, "client-1", "client-1", types.ProfileInactive)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	err = svc.UpdateStatus(ctx, "admin-1", "client-1", "suspended")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	require.NoError(t, svc.UpdateStatus(ctx, "admin-1", "client-1", types.ProfileInactive))
	updated, err := profiles.FindByID(ctx, "client-1")
	require.NoError(t, err)
	assert.Equal(t, types.ProfileInactive, updated.Status)
}

func TestListClampsLimit(t *testing.T) {
	_, svc := newUserFixture(t)

	profiles, err := svc.List(context.Background(), -5, 0)
	require.NoError(t, err)
	assert.Len(t, profiles, 2)
}
