package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printready/proofdesk-backend/internal/repository"
	"github.com/printready/proofdesk-backend/internal/types"
)

type invitationFixture struct {
	profiles     *fakeProfileRepo
	placeholders *fakePlaceholderRepo
	proofs       *fakeProofRepo
	svc          InvitationService
}

func newInvitationFixture() *invitationFixture {
	profiles := newFakeProfileRepo()
	placeholders := newFakePlaceholderRepo()
	proofs := newFakeProofRepo()
	svc := NewInvitationService(placeholders, proofs, profiles, nil, "http://localhost:3000")
	return &invitationFixture{profiles: profiles, placeholders: placeholders, proofs: proofs, svc: svc}
}

func TestIssueInvitationRequiresInviter(t *testing.T) {
	fx := newInvitationFixture()

	_, err := fx.svc.IssueInvitation(context.Background(), "pieter@example.com", "Pieter", "")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestIssueInvitationValidatesEmail(t *testing.T) {
	fx := newInvitationFixture()
	ctx := context.Background()

	_, err := fx.svc.IssueInvitation(ctx, "", "Pieter", "renate@example.com")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = fx.svc.IssueInvitation(ctx, "not-an-email", "Pieter", "renate@example.com")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestIssueInvitationRejectsActiveAccount(t *testing.T) {
	fx := newInvitationFixture()
	ctx := context.Background()
	require.NoError(t, fx.profiles.Upsert(ctx, &repository.Profile{
		ID: "user-1", Email: "lotte@example.com", Role: types.RoleClient, Status: types.ProfileActive, OwnerKey: "user-1",
	}))

	_, err := fx.svc.IssueInvitation(ctx, "lotte@example.com", "Lotte", "renate@example.com")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestIssueInvitationCreatesPlaceholderAndBundlesProofs(t *testing.T) {
	fx := newInvitationFixture()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		require.NoError(t, fx.proofs.Create(ctx, &repository.Proof{
			Title: "flyer", FileRef: "flyer.pdf", OwnerKey: "ph-pre", OwnerEmail: "pieter@example.com",
		}))
	}

	result, err := fx.svc.IssueInvitation(ctx, "Pieter@Example.com", "Pieter", "renate@example.com")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 2, result.ProofCount)
	assert.NotEmpty(t, result.EmailID)

	ph, err := fx.placeholders.FindByID(ctx, result.PlaceholderID)
	require.NoError(t, err)
	require.NotNil(t, ph)
	assert.Equal(t, "pieter@example.com", ph.Email)
	assert.Equal(t, types.PlaceholderPending, ph.Status)

	// Bundled proofs are marked covered so the direct path stays quiet.
	pending, err := fx.proofs.FindPendingByOwnerEmail(ctx, "pieter@example.com")
	require.NoError(t, err)
	for _, p := range pending {
		assert.Equal(t, types.NotifBundledInInvitation, p.NotificationState)
	}
}

func TestIssueInvitationReusesPendingPlaceholder(t *testing.T) {
	fx := newInvitationFixture()
	ctx := context.Background()

	first, err := fx.svc.IssueInvitation(ctx, "pieter@example.com", "Pieter", "renate@example.com")
	require.NoError(t, err)
	second, err := fx.svc.IssueInvitation(ctx, "pieter@example.com", "Pieter", "renate@example.com")
	require.NoError(t, err)

	assert.Equal(t, first.PlaceholderID, second.PlaceholderID)

	pending, err := fx.placeholders.ListPending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestSendReminderMarksPlaceholder(t *testing.T) {
	fx := newInvitationFixture()
	ctx := context.Background()

	ph := &repository.Placeholder{
		Email: "pieter@example.com", Status: types.PlaceholderPending, InvitedBy: "renate@example.com",
	}
	require.NoError(t, fx.placeholders.Create(ctx, ph))

	require.NoError(t, fx.svc.SendReminder(ctx, ph))

	stored, err := fx.placeholders.FindByID(ctx, ph.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.ReminderSentAt)
}

func TestSendReminderSkipsCompletedPlaceholder(t *testing.T) {
	fx := newInvitationFixture()
	ctx := context.Background()

	ph := &repository.Placeholder{
		Email: "pieter@example.com", Status: types.PlaceholderCompleted, InvitedBy: "renate@example.com",
	}
	require.NoError(t, fx.placeholders.Create(ctx, ph))

	require.NoError(t, fx.svc.SendReminder(ctx, ph))

	stored, err := fx.placeholders.FindByID(ctx, ph.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.ReminderSentAt)
}

func TestReminderCutoff(t *testing.T) {
	cutoff := ReminderCutoff(72)
	expected := time.Now().Add(-72 * time.Hour)
	assert.WithinDuration(t, expected, cutoff, time.Second)
}
