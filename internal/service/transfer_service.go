package service

import (
	"context"
	"fmt"
	"log"

	"github.com/printready/proofdesk-backend/internal/repository"
)

// TransferResult reports the outcome of an ownership transfer.
type TransferResult struct {
	Success          bool `json:"success"`
	TransferredCount int  `json:"transferredCount"`
}

// TransferService re-keys every proof owned by a placeholder onto a durable
// identity. The batch is atomic: either all matched proofs move or none do.
type TransferService interface {
	// Transfer requires the caller to be claiming resources for itself:
	// newDurableID must equal callerID.
	Transfer(ctx context.Context, callerID, oldOwnerKey, newDurableID string) (*TransferResult, error)
}

type transferService struct {
	proofRepo repository.ProofRepository
}

func NewTransferService(proofRepo repository.ProofRepository) TransferService {
	return &transferService{proofRepo: proofRepo}
}

func (s *transferService) Transfer(ctx context.Context, callerID, oldOwnerKey, newDurableID string) (*TransferResult, error) {
	if callerID == "" {
		return nil, ErrUnauthenticated
	}
	if oldOwnerKey == "" || newDurableID == "" {
		return nil, fmt.Errorf("%w: oldOwnerKey and newDurableId are required", ErrInvalidArgument)
	}
	if newDurableID != callerID {
		return nil, fmt.Errorf("%w: can only claim resources for yourself", ErrPermissionDenied)
	}

	count, err := s.proofRepo.TransferOwnership(ctx, oldOwnerKey, newDurableID)
	if err != nil {
		return nil, fmt.Errorf("%w: transfer batch failed: %v", ErrInternal, err)
	}

	// Zero matches is normal: invitations with no prior uploads are common.
	if count > 0 {
		log.Printf("[Transfer] Moved %d proof(s) from %s to %s", count, oldOwnerKey, newDurableID)
	}
	return &TransferResult{Success: true, TransferredCount: count}, nil
}
