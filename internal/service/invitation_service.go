package service

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/printready/proofdesk-backend/internal/email"
	"github.com/printready/proofdesk-backend/internal/repository"
	"github.com/printready/proofdesk-backend/internal/types"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// maxEnumeratedProofs caps how many pending proofs an invitation lists before
// collapsing the rest into a count.
const maxEnumeratedProofs = 3

// InvitationResult reports an issued invitation.
type InvitationResult struct {
	Success       bool   `json:"success"`
	EmailID       string `json:"emailId"`
	ProofCount    int    `json:"proofCount"`
	PlaceholderID string `json:"placeholderId"`
}

type InvitationService interface {
	// IssueInvitation creates (or reuses) a pending placeholder for the email
	// and sends the invitation, bundling any proofs already waiting.
	IssueInvitation(ctx context.Context, inviteEmail, displayName, inviterEmail string) (*InvitationResult, error)
	GetPending(ctx context.Context) ([]*repository.Placeholder, error)
	// SendReminder re-sends the invitation for a still-pending placeholder,
	// re-running the same bundling query.
	SendReminder(ctx context.Context, ph *repository.Placeholder) error
}

type invitationService struct {
	placeholderRepo repository.PlaceholderRepository
	proofRepo       repository.ProofRepository
	profileRepo     repository.ProfileRepository
	emailSvc        *email.Service
	frontendURL     string
}

func NewInvitationService(
	placeholderRepo repository.PlaceholderRepository,
	proofRepo repository.ProofRepository,
	profileRepo repository.ProfileRepository,
	emailSvc *email.Service,
	frontendURL string,
) InvitationService {
	return &invitationService{
		placeholderRepo: placeholderRepo,
		proofRepo:       proofRepo,
		profileRepo:     profileRepo,
		emailSvc:        emailSvc,
		frontendURL:     frontendURL,
	}
}

func (s *invitationService) IssueInvitation(ctx context.Context, inviteEmail, displayName, inviterEmail string) (*InvitationResult, error) {
	if inviterEmail == "" {
		return nil, ErrUnauthenticated
	}
	inviteEmail = normalizeEmail(inviteEmail)
	if inviteEmail == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidArgument)
	}
	if !emailPattern.MatchString(inviteEmail) {
		return nil, fmt.Errorf("%w: malformed email address", ErrInvalidArgument)
	}

	// An already-active profile means there is nothing to invite.
	if existing, err := s.profileRepo.FindActiveByEmail(ctx, inviteEmail); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	} else if existing != nil {
		return nil, fmt.Errorf("%w: %s already has an active account", ErrInvalidArgument, inviteEmail)
	}

	// Reuse a pending placeholder instead of stacking duplicates.
	ph, err := s.placeholderRepo.FindPendingByEmail(ctx, inviteEmail)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	if ph == nil {
		ph = &repository.Placeholder{
			Email:       inviteEmail,
			DisplayName: displayName,
			Status:      types.PlaceholderPending,
			InvitedBy:   normalizeEmail(inviterEmail),
		}
		if err := s.placeholderRepo.Create(ctx, ph); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInternal, err)
		}
	}

	proofCount, err := s.sendBundledInvitation(ctx, ph)
	if err != nil {
		return nil, err
	}

	// Everything enumerated (or counted) in the message is now covered by it.
	if _, err := s.proofRepo.MarkBundledPendingByEmail(ctx, inviteEmail); err != nil {
		log.Printf("[Invitation] ⚠️ Failed to mark bundled proofs for %s: %v", inviteEmail, err)
	}

	return &InvitationResult{
		Success:       true,
		EmailID:       uuid.New().String(),
		ProofCount:    proofCount,
		PlaceholderID: ph.ID,
	}, nil
}

func (s *invitationService) GetPending(ctx context.Context) ([]*repository.Placeholder, error) {
	return s.placeholderRepo.ListPending(ctx)
}

func (s *invitationService) SendReminder(ctx context.Context, ph *repository.Placeholder) error {
	if ph == nil || ph.Status != types.PlaceholderPending {
		return nil
	}
	if _, err := s.sendBundledInvitation(ctx, ph); err != nil {
		return err
	}
	return s.placeholderRepo.MarkReminderSent(ctx, ph.ID)
}

// sendBundledInvitation builds and sends the invitation message, enumerating
// the invitee's pending proofs. Uses the same (email, status=pending) query
// the notification gate relies on, so a proof bundled here is exactly one the
// gate would have suppressed.
func (s *invitationService) sendBundledInvitation(ctx context.Context, ph *repository.Placeholder) (int, error) {
	pending, err := s.proofRepo.FindPendingByOwnerEmail(ctx, ph.Email)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	data := email.InvitationData{
		DisplayName: ph.DisplayName,
		InvitedBy:   ph.InvitedBy,
		InviteURL:   fmt.Sprintf("%s/activate/%s", s.frontendURL, ph.ID),
		ProofCount:  len(pending),
	}
	for i, proof := range pending {
		if i >= maxEnumeratedProofs {
			break
		}
		data.Proofs = append(data.Proofs, email.BundledProof{
			Title:      proof.Title,
			FileName:   proof.FileRef,
			UploadedAt: proof.CreatedAt.Format("Jan 2, 2006"),
		})
	}
	if len(pending) > maxEnumeratedProofs {
		data.RemainderCount = len(pending) - maxEnumeratedProofs
	}

	if s.emailSvc != nil {
		if err := s.emailSvc.SendInvitation(ph.Email, data); err != nil {
			return 0, fmt.Errorf("%w: invitation to %s: %v", ErrDeliveryFailed, ph.Email, err)
		}
	}
	return len(pending), nil
}

// ReminderCutoff computes the invited-before threshold for reminder sweeps.
func ReminderCutoff(afterHours int) time.Time {
	return time.Now().Add(-time.Duration(afterHours) * time.Hour)
}
