package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printready/proofdesk-backend/internal/repository"
	"github.com/printready/proofdesk-backend/internal/types"
)

type reconcileFixture struct {
	profiles     *fakeProfileRepo
	placeholders *fakePlaceholderRepo
	claims       *fakeClaimRepo
	proofs       *fakeProofRepo
	svc          *reconcileService
}

func newReconcileFixture() *reconcileFixture {
	profiles := newFakeProfileRepo()
	placeholders := newFakePlaceholderRepo()
	profiles.placeholders = placeholders
	claims := newFakeClaimRepo()
	proofs := newFakeProofRepo()

	svc := NewReconcileService(
		profiles, placeholders, claims,
		NewTransferService(proofs),
		nil, 10,
	).(*reconcileService)
	svc.pollAttempts = 2
	svc.pollInterval = time.Millisecond

	return &reconcileFixture{
		profiles:     profiles,
		placeholders: placeholders,
		claims:       claims,
		proofs:       proofs,
		svc:          svc,
	}
}

func TestResolveValidatesArguments(t *testing.T) {
	fx := newReconcileFixture()

	_, err := fx.svc.Resolve(context.Background(), "", "lotte@example.com")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = fx.svc.Resolve(context.Background(), "user-1", "")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestResolveReturnsExistingProfileByID(t *testing.T) {
	ctx := context.Background()
	fx := newReconcileFixture()
	require.NoError(t, fx.profiles.Upsert(ctx, &repository.Profile{
		ID: "user-1", Email: "lotte@example.com", Role: types.RoleClient, Status: types.ProfileActive, OwnerKey: "user-1",
	}))

	resolved, err := fx.svc.Resolve(ctx, "user-1", "lotte@example.com")
	require.NoError(t, err)
	assert.False(t, resolved.Degraded)
	assert.Equal(t, "user-1", resolved.Profile.ID)
}

func TestResolveAdoptsPreProvisionedProfileByEmail(t *testing.T) {
	ctx := context.Background()
	fx := newReconcileFixture()
	require.NoError(t, fx.profiles.Upsert(ctx, &repository.Profile{
		ID: "legacy-key", Email: "lotte@example.com", Role: types.RoleClient, Status: types.ProfileActive, OwnerKey: "legacy-key",
	}))

	resolved, err := fx.svc.Resolve(ctx, "user-1", "lotte@example.com")
	require.NoError(t, err)
	assert.Equal(t, "legacy-key", resolved.Profile.ID)
}

func TestResolveUpgradesPendingPlaceholder(t *testing.T) {
	ctx := context.Background()
	fx := newReconcileFixture()

	ph := &repository.Placeholder{
		Email: "pieter@example.com", DisplayName: "Pieter", Status: types.PlaceholderPending, InvitedBy: "renate@example.com",
	}
	require.NoError(t, fx.placeholders.Create(ctx, ph))
	require.NoError(t, fx.proofs.Create(ctx, &repository.Proof{
		Title: "flyer", FileRef: "flyer.pdf", OwnerKey: ph.ID, OwnerEmail: ph.Email,
	}))
	require.NoError(t, fx.proofs.Create(ctx, &repository.Proof{
		Title: "poster", FileRef: "poster.pdf", OwnerKey: ph.ID, OwnerEmail: ph.Email,
	}))

	resolved, err := fx.svc.Resolve(ctx, "user-9", "pieter@example.com")
	require.NoError(t, err)
	assert.False(t, resolved.Degraded)
	assert.Equal(t, "user-9", resolved.Profile.ID)
	assert.Equal(t, types.RoleClient, resolved.Profile.Role)
	assert.Equal(t, "Pieter", resolved.Profile.DisplayName)
	require.NotNil(t, resolved.Profile.OriginalPlaceholderID)
	assert.Equal(t, ph.ID, *resolved.Profile.OriginalPlaceholderID)
	assert.Equal(t, 2, resolved.TransferredCount)
	assert.False(t, resolved.TransferPending)

	upgraded, err := fx.placeholders.FindByID(ctx, ph.ID)
	require.NoError(t, err)
	assert.Equal(t, types.PlaceholderCompleted, upgraded.Status)

	moved, err := fx.proofs.FindByOwnerKey(ctx, "user-9")
	require.NoError(t, err)
	assert.Len(t, moved, 2)
}

func TestResolveCreatesDefaultProfileForUnknownAccount(t *testing.T) {
	ctx := context.Background()
	fx := newReconcileFixture()

	resolved, err := fx.svc.Resolve(ctx, "user-1", "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, "user-1", resolved.Profile.ID)
	assert.Equal(t, types.RoleClient, resolved.Profile.Role)
	assert.Equal(t, types.ProfileActive, resolved.Profile.Status)
	assert.Equal(t, "user-1", resolved.Profile.OwnerKey)

	stored, err := fx.profiles.FindByID(ctx, "user-1")
	require.NoError(t, err)
	require.NotNil(t, stored)
}

func TestResolveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	fx := newReconcileFixture()

	first, err := fx.svc.Resolve(ctx, "user-1", "new@example.com")
	require.NoError(t, err)
	second, err := fx.svc.Resolve(ctx, "user-1", "new@example.com")
	require.NoError(t, err)

	assert.Equal(t, first.Profile.ID, second.Profile.ID)
	profiles, err := fx.profiles.List(ctx, 100, 0)
	require.NoError(t, err)
	assert.Len(t, profiles, 1)
}

func TestResolveDegradesWhenStoreUnavailable(t *testing.T) {
	ctx := context.Background()
	fx := newReconcileFixture()
	fx.profiles.failWith = errors.New("store down")
	fx.claims.failWith = errors.New("store down")

	resolved, err := fx.svc.Resolve(ctx, "user-1", "lotte@example.com")
	require.NoError(t, err)
	assert.True(t, resolved.Degraded)
	assert.Equal(t, "user-1", resolved.Profile.ID)
	assert.Equal(t, "lotte@example.com", resolved.Profile.Email)
}

func TestResolveTransferFailureIsNonFatal(t *testing.T) {
	ctx := context.Background()
	fx := newReconcileFixture()

	ph := &repository.Placeholder{
		Email: "pieter@example.com", Status: types.PlaceholderPending, InvitedBy: "renate@example.com",
	}
	require.NoError(t, fx.placeholders.Create(ctx, ph))
	fx.proofs.failWith = errors.New("batch failed")

	resolved, err := fx.svc.Resolve(ctx, "user-9", "pieter@example.com")
	require.NoError(t, err)
	assert.False(t, resolved.Degraded)
	assert.True(t, resolved.TransferPending)
	assert.Equal(t, 0, resolved.TransferredCount)

	// The account is still upgraded.
	stored, err := fx.profiles.FindByID(ctx, "user-9")
	require.NoError(t, err)
	require.NotNil(t, stored)
}

func TestResolveWaitsOnLiveClaimThenAdoptsProfile(t *testing.T) {
	ctx := context.Background()
	fx := newReconcileFixture()

	require.NoError(t, fx.claims.Put(ctx, &repository.ActivationClaim{
		Email: "pieter@example.com", DurableID: "user-9", ExpiresAt: time.Now().Add(time.Minute),
	}))
	require.NoError(t, fx.profiles.Upsert(ctx, &repository.Profile{
		ID: "user-9", Email: "pieter@example.com", Role: types.RoleClient, Status: types.ProfileActive, OwnerKey: "user-9",
	}))

	resolved, err := fx.svc.Resolve(ctx, "user-9", "pieter@example.com")
	require.NoError(t, err)
	assert.Equal(t, "user-9", resolved.Profile.ID)
}

func TestResolveFallsBackWhenClaimNeverResolves(t *testing.T) {
	ctx := context.Background()
	fx := newReconcileFixture()

	require.NoError(t, fx.claims.Put(ctx, &repository.ActivationClaim{
		Email: "pieter@example.com", DurableID: "user-9", ExpiresAt: time.Now().Add(time.Minute),
	}))

	resolved, err := fx.svc.Resolve(ctx, "user-9", "pieter@example.com")
	require.NoError(t, err)
	assert.False(t, resolved.Degraded)
	assert.Equal(t, "user-9", resolved.Profile.ID)
}

func TestAcceptActivationHappyPath(t *testing.T) {
	ctx := context.Background()
	fx := newReconcileFixture()

	ph := &repository.Placeholder{
		Email: "pieter@example.com", DisplayName: "Pieter", Status: types.PlaceholderPending, InvitedBy: "renate@example.com",
	}
	require.NoError(t, fx.placeholders.Create(ctx, ph))
	require.NoError(t, fx.proofs.Create(ctx, &repository.Proof{
		Title: "flyer", FileRef: "flyer.pdf", OwnerKey: ph.ID, OwnerEmail: ph.Email,
	}))

	result, err := fx.svc.AcceptActivation(ctx, "user-9", "pieter@example.com", ph.ID)
	require.NoError(t, err)
	assert.True(t, result.PlaceholderCompleted)
	assert.Equal(t, 1, result.TransferredCount)
	assert.Equal(t, "user-9", result.Profile.ID)

	// Claim is cleared after the upgrade commits.
	claim, err := fx.claims.FindLiveByEmail(ctx, "pieter@example.com")
	require.NoError(t, err)
	assert.Nil(t, claim)
}

func TestAcceptActivationRejectsWrongEmail(t *testing.T) {
	ctx := context.Background()
	fx := newReconcileFixture()

	ph := &repository.Placeholder{
		Email: "pieter@example.com", Status: types.PlaceholderPending, InvitedBy: "renate@example.com",
	}
	require.NoError(t, fx.placeholders.Create(ctx, ph))

	_, err := fx.svc.AcceptActivation(ctx, "user-9", "intruder@example.com", ph.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestAcceptActivationUnknownPlaceholder(t *testing.T) {
	fx := newReconcileFixture()

	_, err := fx.svc.AcceptActivation(context.Background(), "user-9", "pieter@example.com", "ph-missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAcceptActivationSecondCallDoesNotReComplete(t *testing.T) {
	ctx := context.Background()
	fx := newReconcileFixture()

	ph := &repository.Placeholder{
		Email: "pieter@example.com", Status: types.PlaceholderPending, InvitedBy: "renate@example.com",
	}
	require.NoError(t, fx.placeholders.Create(ctx, ph))

	first, err := fx.svc.AcceptActivation(ctx, "user-9", "pieter@example.com", ph.ID)
	require.NoError(t, err)
	assert.True(t, first.PlaceholderCompleted)

	second, err := fx.svc.AcceptActivation(ctx, "user-9", "pieter@example.com", ph.ID)
	require.NoError(t, err)
	assert.False(t, second.PlaceholderCompleted)
	assert.Equal(t, "user-9", second.Profile.ID)
}
