package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/printready/proofdesk-backend/internal/events"
	"github.com/printready/proofdesk-backend/internal/repository"
	"github.com/printready/proofdesk-backend/internal/types"
)

// CreateProofInput carries the upload record for a new proof. Owner fields
// may both be empty (unassigned upload) or point at a placeholder or durable
// identity.
type CreateProofInput struct {
	Title           string
	FileRef         string
	OwnerKey        string
	OwnerEmail      string
	RevisionChainID *string
	Quantity        int
	UnitPrice       decimal.Decimal
	AssignedTo      []string
}

type ProofService interface {
	Create(ctx context.Context, callerID string, input CreateProofInput) (*repository.Proof, error)
	GetByID(ctx context.Context, id string) (*repository.Proof, error)
	ListByOwner(ctx context.Context, ownerKey string) ([]*repository.Proof, error)
	UpdateStatus(ctx context.Context, callerID, proofID, status string, feedback *string) (*repository.Proof, error)
}

type proofService struct {
	proofRepo       repository.ProofRepository
	profileRepo     repository.ProfileRepository
	placeholderRepo repository.PlaceholderRepository
	dispatcher      *events.Dispatcher
}

func NewProofService(
	proofRepo repository.ProofRepository,
	profileRepo repository.ProfileRepository,
	placeholderRepo repository.PlaceholderRepository,
	dispatcher *events.Dispatcher,
) ProofService {
	return &proofService{
		proofRepo:       proofRepo,
		profileRepo:     profileRepo,
		placeholderRepo: placeholderRepo,
		dispatcher:      dispatcher,
	}
}

func (s *proofService) Create(ctx context.Context, callerID string, input CreateProofInput) (*repository.Proof, error) {
	if callerID == "" {
		return nil, ErrUnauthenticated
	}
	if input.Title == "" || input.FileRef == "" {
		return nil, fmt.Errorf("%w: title and fileRef are required", ErrInvalidArgument)
	}

	proof := &repository.Proof{
		Title:           input.Title,
		FileRef:         input.FileRef,
		OwnerKey:        input.OwnerKey,
		OwnerEmail:      normalizeEmail(input.OwnerEmail),
		Status:          types.ProofPending,
		RevisionChainID: input.RevisionChainID,
		Quantity:        input.Quantity,
		UnitPrice:       input.UnitPrice,
		AssignedTo:      input.AssignedTo,
	}

	// A new revision in an existing chain continues that chain's numbering.
	if input.RevisionChainID != nil {
		count, err := s.proofRepo.CountByRevisionChain(ctx, *input.RevisionChainID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInternal, err)
		}
		proof.RevisionNumber = count + 1
	}

	if err := s.proofRepo.Create(ctx, proof); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	if s.dispatcher != nil {
		s.dispatcher.PublishProofCreated(proof)
	}
	return proof, nil
}

func (s *proofService) GetByID(ctx context.Context, id string) (*repository.Proof, error) {
	proof, err := s.proofRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	if proof == nil {
		return nil, ErrNotFound
	}
	return proof, nil
}

func (s *proofService) ListByOwner(ctx context.Context, ownerKey string) ([]*repository.Proof, error) {
	if ownerKey == "" {
		return nil, fmt.Errorf("%w: owner key is required", ErrInvalidArgument)
	}
	return s.proofRepo.FindByOwnerKey(ctx, ownerKey)
}

func (s *proofService) UpdateStatus(ctx context.Context, callerID, proofID, status string, feedback *string) (*repository.Proof, error) {
	if callerID == "" {
		return nil, ErrUnauthenticated
	}
	if !types.IsValidProofStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidArgument, status)
	}

	oldStatus, err := s.proofRepo.UpdateStatus(ctx, proofID, status, feedback)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	proof, err := s.GetByID(ctx, proofID)
	if err != nil {
		return nil, err
	}

	// The event fires even for same-status writes; the gate owns the no-op
	// guard so replays stay harmless.
	if s.dispatcher != nil {
		s.dispatcher.PublishProofStatusChanged(events.ProofStatusChange{
			Proof:     proof,
			OldStatus: oldStatus,
			NewStatus: status,
		})
	}
	return proof, nil
}
