package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printready/proofdesk-backend/internal/types"
)

func newProofService(proofs *fakeProofRepo) ProofService {
	return NewProofService(proofs, newFakeProfileRepo(), newFakePlaceholderRepo(), nil)
}

func TestCreateProofRequiresCaller(t *testing.T) {
	svc := newProofService(newFakeProofRepo())

	_, err := svc.Create(context.Background(), "", CreateProofInput{Title: "flyer", FileRef: "flyer.pdf"})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestCreateProofValidatesInput(t *testing.T) {
	svc := newProofService(newFakeProofRepo())
	ctx := context.Background()

	_, err := svc.Create(ctx, "designer-1", CreateProofInput{FileRef: "flyer.pdf"})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.Create(ctx, "designer-1", CreateProofInput{Title: "flyer"})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestCreateProofDefaults(t *testing.T) {
	svc := newProofService(newFakeProofRepo())

	proof, err := svc.Create(context.Background(), "designer-1", CreateProofInput{
		Title: "flyer", FileRef: "flyer.pdf", OwnerEmail: "Lotte@Example.com",
		Quantity: 500, UnitPrice: decimal.NewFromFloat(0.18),
	})
	require.NoError(t, err)
	assert.Equal(t, types.ProofPending, proof.Status)
	assert.Equal(t, types.NotifNotSent, proof.NotificationState)
	assert.Equal(t, "lotte@example.com", proof.OwnerEmail)
	assert.Equal(t, 0, proof.RevisionNumber)
}

func TestCreateProofContinuesRevisionChain(t *testing.T) {
	proofs := newFakeProofRepo()
	svc := newProofService(proofs)
	ctx := context.Background()
	chain := "chain-1"

	first, err := svc.Create(ctx, "designer-1", CreateProofInput{Title: "v1", FileRef: "v1.pdf", RevisionChainID: &chain})
	require.NoError(t, err)
	assert.Equal(t, 1, first.RevisionNumber)

	second, err := svc.Create(ctx, "designer-1", CreateProofInput{Title: "v2", FileRef: "v2.pdf", RevisionChainID: &chain})
	require.NoError(t, err)
	assert.Equal(t, 2, second.RevisionNumber)
}

func TestGetProofByIDNotFound(t *testing.T) {
	svc := newProofService(newFakeProofRepo())

	_, err := svc.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateProofStatus(t *testing.T) {
	proofs := newFakeProofRepo()
	svc := newProofService(proofs)
	ctx := context.Background()

	created, err := svc.Create(ctx, "designer-1", CreateProofInput{Title: "flyer", FileRef: "flyer.pdf"})
	require.NoError(t, err)

	feedback := "colors are off"
	updated, err := svc.UpdateStatus(ctx, "client-1", created.ID, types.ProofDeclined, &feedback)
	require.NoError(t, err)
	assert.Equal(t, types.ProofDeclined, updated.Status)
	require.NotNil(t, updated.Feedback)
	assert.Equal(t, "colors are off", *updated.Feedback)
}

func TestUpdateProofStatusRejectsUnknownStatus(t *testing.T) {
	svc := newProofService(newFakeProofRepo())

	_, err := svc.UpdateStatus(context.Background(), "client-1", "proof-1", "archived", nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
