package service

import (
	"context"
	"fmt"
	"log"

	"github.com/printready/proofdesk-backend/internal/repository"
	"github.com/printready/proofdesk-backend/internal/types"
)

// DeletionReport summarizes a completed identity teardown.
type DeletionReport struct {
	Success           bool   `json:"success"`
	DeletedID         string `json:"deletedId"`
	ProofsTransferred int    `json:"proofsTransferred"`
	CredentialGone    bool   `json:"credentialGone"`
}

type AdminService interface {
	// DeleteIdentityCompletely tears down a profile: audit record first, then
	// credential revocation, then proof reassignment, then the profile row.
	// Ordering matters; an interrupted teardown must leave a trail. An empty
	// reassignTo skips reassignment and leaves proof references for manual
	// follow-up.
	DeleteIdentityCompletely(ctx context.Context, callerID, targetID, reassignTo string) (*DeletionReport, error)
	ListAuditRecords(ctx context.Context, callerID string, limit int) ([]*repository.AuditRecord, error)
	PurgePlaceholder(ctx context.Context, callerID, placeholderID string) error
}

type adminService struct {
	profileRepo     repository.ProfileRepository
	proofRepo       repository.ProofRepository
	auditRepo       repository.AuditRepository
	authRepo        repository.AuthRepository
	placeholderRepo repository.PlaceholderRepository
}

func NewAdminService(
	profileRepo repository.ProfileRepository,
	proofRepo repository.ProofRepository,
	auditRepo repository.AuditRepository,
	authRepo repository.AuthRepository,
	placeholderRepo repository.PlaceholderRepository,
) AdminService {
	return &adminService{
		profileRepo:     profileRepo,
		proofRepo:       proofRepo,
		auditRepo:       auditRepo,
		authRepo:        authRepo,
		placeholderRepo: placeholderRepo,
	}
}

func (s *adminService) DeleteIdentityCompletely(ctx context.Context, callerID, targetID, reassignTo string) (*DeletionReport, error) {
	caller, err := s.requireAdmin(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if targetID == "" {
		return nil, fmt.Errorf("%w: targetId is required", ErrInvalidArgument)
	}
	if targetID == callerID {
		return nil, fmt.Errorf("%w: cannot delete your own account", ErrPermissionDenied)
	}

	target, err := s.profileRepo.FindByID(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	if target == nil {
		return nil, fmt.Errorf("%w: identity %s", ErrNotFound, targetID)
	}

	// Audit goes in before any destructive step so a crash mid-teardown still
	// leaves a record of who started it.
	rec := &repository.AuditRecord{
		Action:   "identity.delete",
		ActorID:  caller.ID,
		TargetID: targetID,
		Details: map[string]interface{}{
			"targetEmail": target.Email,
			"reassignTo":  reassignTo,
		},
	}
	if err := s.auditRepo.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("%w: audit record failed, aborting deletion: %v", ErrInternal, err)
	}

	// Credential revocation is best effort. The credential store can lag; the
	// profile teardown still proceeds and the gap is logged for follow-up.
	credentialGone := true
	if cred, err := s.authRepo.FindCredentialByEmail(ctx, target.Email); err != nil {
		credentialGone = false
		log.Printf("[Admin] ⚠️ Credential lookup failed for %s: %v", target.Email, err)
	} else if cred != nil {
		if err := s.authRepo.DeleteTokensForUser(ctx, cred.ID); err != nil {
			log.Printf("[Admin] ⚠️ Token revocation failed for %s: %v", cred.ID, err)
		}
		if err := s.authRepo.DeleteCredential(ctx, cred.ID); err != nil {
			credentialGone = false
			log.Printf("[Admin] ⚠️ Credential deletion failed for %s: %v", cred.ID, err)
		}
	}

	transferred := 0
	if reassignTo != "" {
		transferred, err = s.proofRepo.ReassignReferences(ctx, targetID, reassignTo)
		if err != nil {
			return nil, fmt.Errorf("%w: proof reassignment failed: %v", ErrInternal, err)
		}
	} else {
		log.Printf("[Admin] No reassignment target for %s, leaving proof references for manual follow-up", targetID)
	}

	if err := s.profileRepo.Delete(ctx, targetID); err != nil {
		return nil, fmt.Errorf("%w: profile deletion failed: %v", ErrInternal, err)
	}

	log.Printf("[Admin] Deleted identity %s (%s), moved %d proof reference(s)", targetID, target.Email, transferred)
	return &DeletionReport{
		Success:           true,
		DeletedID:         targetID,
		ProofsTransferred: transferred,
		CredentialGone:    credentialGone,
	}, nil
}

func (s *adminService) ListAuditRecords(ctx context.Context, callerID string, limit int) ([]*repository.AuditRecord, error) {
	if _, err := s.requireAdmin(ctx, callerID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	records, err := s.auditRepo.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return records, nil
}

func (s *adminService) PurgePlaceholder(ctx context.Context, callerID, placeholderID string) error {
	caller, err := s.requireAdmin(ctx, callerID)
	if err != nil {
		return err
	}
	ph, err := s.placeholderRepo.FindByID(ctx, placeholderID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}
	if ph == nil {
		return fmt.Errorf("%w: placeholder %s", ErrNotFound, placeholderID)
	}
	rec := &repository.AuditRecord{
		Action:   "placeholder.purge",
		ActorID:  caller.ID,
		TargetID: placeholderID,
		Details:  map[string]interface{}{"email": ph.Email, "status": ph.Status},
	}
	if err := s.auditRepo.Create(ctx, rec); err != nil {
		return fmt.Errorf("%w: audit record failed, aborting purge: %v", ErrInternal, err)
	}
	return s.placeholderRepo.Delete(ctx, placeholderID)
}

func (s *adminService) requireAdmin(ctx context.Context, callerID string) (*repository.Profile, error) {
	if callerID == "" {
		return nil, ErrUnauthenticated
	}
	caller, err := s.profileRepo.FindByID(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	if caller == nil || caller.Role != types.RoleAdmin {
		return nil, fmt.Errorf("%w: admin role required", ErrPermissionDenied)
	}
	return caller, nil
}
