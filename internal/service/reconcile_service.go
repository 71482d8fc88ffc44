package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/printready/proofdesk-backend/internal/db"
	"github.com/printready/proofdesk-backend/internal/repository"
	"github.com/printready/proofdesk-backend/internal/types"
)

// ResolvedProfile is the outcome of running reconciliation for a sign-in.
type ResolvedProfile struct {
	Profile *repository.Profile
	// Degraded marks a locally-synthesized profile returned because the store
	// was unreachable. The session stays usable; the UI should offer a retry.
	Degraded bool
	// TransferPending marks an activation whose proof transfer failed. The
	// account is fully usable; historical proofs need manual reassignment.
	TransferPending  bool
	TransferredCount int
}

// ActivationResult is the outcome of the explicit invitation-acceptance flow.
type ActivationResult struct {
	Profile              *repository.Profile
	TransferredCount     int
	TransferPending      bool
	PlaceholderCompleted bool
}

// ReconcileService maps sign-in events onto durable profiles: adopt an
// existing profile, upgrade a pending placeholder, or create a fresh default.
// Re-running resolution for the same durable identifier never creates a
// second profile.
type ReconcileService interface {
	Resolve(ctx context.Context, durableID, email string) (*ResolvedProfile, error)
	AcceptActivation(ctx context.Context, callerID, callerEmail, placeholderID string) (*ActivationResult, error)
}

type reconcileService struct {
	profileRepo     repository.ProfileRepository
	placeholderRepo repository.PlaceholderRepository
	claimRepo       repository.ClaimRepository
	transferSvc     TransferService
	cache           *db.RedisDB
	claimTTL        time.Duration

	pollAttempts int
	pollInterval time.Duration
}

func NewReconcileService(
	profileRepo repository.ProfileRepository,
	placeholderRepo repository.PlaceholderRepository,
	claimRepo repository.ClaimRepository,
	transferSvc TransferService,
	cache *db.RedisDB,
	claimTTLMinutes int,
) ReconcileService {
	return &reconcileService{
		profileRepo:     profileRepo,
		placeholderRepo: placeholderRepo,
		claimRepo:       claimRepo,
		transferSvc:     transferSvc,
		cache:           cache,
		claimTTL:        time.Duration(claimTTLMinutes) * time.Minute,
		pollAttempts:    5,
		pollInterval:    time.Second,
	}
}

func (s *reconcileService) Resolve(ctx context.Context, durableID, email string) (*ResolvedProfile, error) {
	if durableID == "" || email == "" {
		return nil, fmt.Errorf("%w: durable id and email are required", ErrInvalidArgument)
	}
	email = normalizeEmail(email)

	// Cache fast path: a profile already keyed by this durable identifier is
	// the common case for every sign-in after the first.
	if profile := s.cachedProfile(ctx, durableID); profile != nil {
		return &ResolvedProfile{Profile: profile}, nil
	}

	// A live activation claim means the invitation-acceptance flow owns this
	// reconciliation. Wait for its profile instead of creating a bare one.
	claim, err := s.claimRepo.FindLiveByEmail(ctx, email)
	if err != nil {
		log.Printf("[Reconcile] ⚠️ Claim lookup failed for %s: %v", email, err)
		return s.degraded(durableID, email), nil
	}
	if claim != nil {
		if profile := s.pollForProfile(ctx, durableID); profile != nil {
			s.cacheProfile(ctx, profile)
			return &ResolvedProfile{Profile: profile}, nil
		}
		log.Printf("[Reconcile] Activation claim for %s never produced a profile, falling back to default creation", email)
	}

	// (1) Already keyed by the durable identifier.
	profile, err := s.profileRepo.FindByID(ctx, durableID)
	if err != nil {
		log.Printf("[Reconcile] ⚠️ Profile lookup failed for %s: %v", durableID, err)
		return s.degraded(durableID, email), nil
	}
	if profile != nil {
		s.cacheProfile(ctx, profile)
		return &ResolvedProfile{Profile: profile}, nil
	}

	// (2) Pre-provisioned under a different key but the same mailbox.
	profile, err = s.profileRepo.FindActiveByEmail(ctx, email)
	if err != nil {
		log.Printf("[Reconcile] ⚠️ Email lookup failed for %s: %v", email, err)
		return s.degraded(durableID, email), nil
	}
	if profile != nil {
		s.cacheProfile(ctx, profile)
		return &ResolvedProfile{Profile: profile}, nil
	}

	// (3) A pending placeholder for this mailbox: perform the upgrade.
	ph, err := s.placeholderRepo.FindPendingByEmail(ctx, email)
	if err != nil {
		log.Printf("[Reconcile] ⚠️ Placeholder lookup failed for %s: %v", email, err)
		return s.degraded(durableID, email), nil
	}
	if ph != nil {
		resolved, _ := s.upgrade(ctx, durableID, email, ph)
		return resolved, nil
	}

	// (4) Nobody knows this account: fresh default profile.
	profile = s.defaultProfile(durableID, email)
	if err := s.profileRepo.Upsert(ctx, profile); err != nil {
		log.Printf("[Reconcile] ⚠️ Default profile creation failed for %s: %v", durableID, err)
		return s.degraded(durableID, email), nil
	}
	s.cacheProfile(ctx, profile)
	return &ResolvedProfile{Profile: profile}, nil
}

func (s *reconcileService) AcceptActivation(ctx context.Context, callerID, callerEmail, placeholderID string) (*ActivationResult, error) {
	if callerID == "" {
		return nil, ErrUnauthenticated
	}
	if placeholderID == "" {
		return nil, fmt.Errorf("%w: placeholder id is required", ErrInvalidArgument)
	}
	callerEmail = normalizeEmail(callerEmail)

	ph, err := s.placeholderRepo.FindByID(ctx, placeholderID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	if ph == nil {
		return nil, fmt.Errorf("%w: invitation not found", ErrNotFound)
	}
	if normalizeEmail(ph.Email) != callerEmail {
		return nil, fmt.Errorf("%w: invitation was issued to a different email", ErrPermissionDenied)
	}

	// Reserve the email before touching anything else so the generic sign-in
	// listener defers to this flow instead of racing it.
	claim := &repository.ActivationClaim{
		Email:     callerEmail,
		DurableID: callerID,
		ExpiresAt: time.Now().Add(s.claimTTL),
	}
	if err := s.claimRepo.Put(ctx, claim); err != nil {
		log.Printf("[Reconcile] ⚠️ Failed to write activation claim for %s: %v", callerEmail, err)
	}

	resolved, completed := s.upgrade(ctx, callerID, callerEmail, ph)
	if resolved.Degraded {
		return nil, fmt.Errorf("%w: activation could not be persisted", ErrInternal)
	}

	if err := s.claimRepo.DeleteByEmail(ctx, callerEmail); err != nil {
		log.Printf("[Reconcile] ⚠️ Failed to clear activation claim for %s: %v", callerEmail, err)
	}

	return &ActivationResult{
		Profile:              resolved.Profile,
		TransferredCount:     resolved.TransferredCount,
		TransferPending:      resolved.TransferPending,
		PlaceholderCompleted: completed,
	}, nil
}

// upgrade creates the durable profile and completes the placeholder in one
// atomic commit, then moves the placeholder's proofs across. Transfer failure
// is deliberately non-fatal: the account activates either way and the gap is
// surfaced for manual follow-up. The bool reports whether this call was the
// one that completed the placeholder.
func (s *reconcileService) upgrade(ctx context.Context, durableID, email string, ph *repository.Placeholder) (*ResolvedProfile, bool) {
	profile := &repository.Profile{
		ID:                    durableID,
		Email:                 email,
		DisplayName:           ph.DisplayName,
		Role:                  types.RoleClient,
		Status:                types.ProfileActive,
		OwnerKey:              durableID,
		OriginalPlaceholderID: &ph.ID,
		InvitedBy:             &ph.InvitedBy,
	}

	completed, err := s.profileRepo.UpgradeFromPlaceholder(ctx, profile, ph.ID)
	if err != nil {
		log.Printf("[Reconcile] ⚠️ Placeholder upgrade failed for %s: %v", email, err)
		return s.degraded(durableID, email), false
	}

	result := &ResolvedProfile{Profile: profile}
	transfer, err := s.transferSvc.Transfer(ctx, durableID, ph.ID, durableID)
	if err != nil {
		// Non-fatal: the account exists and is usable even if historical
		// proofs need manual reassignment.
		log.Printf("[Reconcile] ⚠️ Proof transfer failed for %s (placeholder %s): %v", email, ph.ID, err)
		result.TransferPending = true
	} else {
		result.TransferredCount = transfer.TransferredCount
	}

	s.cacheProfile(ctx, profile)
	return result, completed
}

// pollForProfile waits, bounded, for the activation flow to publish a durable
// profile. Reads only; no side effects until the bound is reached.
func (s *reconcileService) pollForProfile(ctx context.Context, durableID string) *repository.Profile {
	for attempt := 0; attempt < s.pollAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(s.pollInterval):
			}
		}
		profile, err := s.profileRepo.FindByID(ctx, durableID)
		if err != nil {
			log.Printf("[Reconcile] ⚠️ Poll %d for %s failed: %v", attempt+1, durableID, err)
			continue
		}
		if profile != nil {
			return profile
		}
	}
	return nil
}

func (s *reconcileService) defaultProfile(durableID, email string) *repository.Profile {
	return &repository.Profile{
		ID:       durableID,
		Email:    email,
		Role:     types.RoleClient,
		Status:   types.ProfileActive,
		OwnerKey: durableID,
	}
}

// degraded synthesizes an unpersisted profile so the session stays usable
// when the store is down.
func (s *reconcileService) degraded(durableID, email string) *ResolvedProfile {
	return &ResolvedProfile{Profile: s.defaultProfile(durableID, email), Degraded: true}
}

func (s *reconcileService) cachedProfile(ctx context.Context, durableID string) *repository.Profile {
	if s.cache == nil {
		return nil
	}
	var profile repository.Profile
	hit, err := s.cache.GetCache(ctx, "profile:"+durableID, &profile)
	if err != nil {
		log.Printf("[Reconcile] Cache read failed for %s: %v", durableID, err)
		return nil
	}
	if !hit {
		return nil
	}
	return &profile
}

func (s *reconcileService) cacheProfile(ctx context.Context, profile *repository.Profile) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetCache(ctx, "profile:"+profile.ID, profile, 5*time.Minute); err != nil {
		log.Printf("[Reconcile] Cache write failed for %s: %v", profile.ID, err)
	}
}
