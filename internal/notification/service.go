// Package notification decides, for every proof mutation, who may be told
// about it. Client-facing mail is gated on the owner's lifecycle state; the
// admin audit copy is unconditional.
package notification

import (
	"context"
	"fmt"
	"log"

	"github.com/printready/proofdesk-backend/internal/email"
	"github.com/printready/proofdesk-backend/internal/repository"
	"github.com/printready/proofdesk-backend/internal/types"
)

// Sender is the outbound mail surface the gate needs. *email.Service
// satisfies it.
type Sender interface {
	SendProofReady(to string, data email.ProofReadyData) error
	SendFallbackForward(to string, data email.FallbackForwardData) error
	SendAdminAudit(to string, data email.AdminAuditData) error
}

type Service struct {
	profileRepo     repository.ProfileRepository
	placeholderRepo repository.PlaceholderRepository
	proofRepo       repository.ProofRepository
	sender          Sender

	operatorEmail string
	adminEmail    string
	frontendURL   string
}

func NewService(
	profileRepo repository.ProfileRepository,
	placeholderRepo repository.PlaceholderRepository,
	proofRepo repository.ProofRepository,
	sender Sender,
	operatorEmail, adminEmail, frontendURL string,
) *Service {
	return &Service{
		profileRepo:     profileRepo,
		placeholderRepo: placeholderRepo,
		proofRepo:       proofRepo,
		sender:          sender,
		operatorEmail:   operatorEmail,
		adminEmail:      adminEmail,
		frontendURL:     frontendURL,
	}
}

// HandleProofCreated runs the gate for a freshly created proof. The admin
// audit copy always goes out; the client-facing message only when the owner
// is an active durable identity. Safe to replay: the direct send only fires
// from the not_sent state and the state write happens after a successful send.
func (s *Service) HandleProofCreated(ctx context.Context, proof *repository.Proof) {
	defer s.sendAudit("proof.created", s.auditLines(proof, nil))

	if proof.OwnerEmail == "" && proof.OwnerKey == "" {
		// Unassigned upload: nobody to notify yet. The invitation flow picks
		// it up once the proof is assigned.
		return
	}
	if proof.NotificationState != types.NotifNotSent {
		return
	}

	// Active durable owner: direct notification.
	profile, err := s.profileRepo.FindActiveByEmail(ctx, proof.OwnerEmail)
	if err != nil {
		log.Printf("[Notification] ⚠️ Owner lookup failed for proof %s: %v", proof.ID, err)
		return
	}
	if profile != nil {
		s.deliverProofReady(ctx, proof, profile)
		return
	}

	// Invited-but-pending owner: suppress the direct send. The proof rides
	// along in the invitation (or its reminder) instead.
	ph, err := s.placeholderRepo.FindPendingByEmail(ctx, proof.OwnerEmail)
	if err != nil {
		log.Printf("[Notification] ⚠️ Placeholder lookup failed for proof %s: %v", proof.ID, err)
		return
	}
	if ph != nil {
		if err := s.proofRepo.SetNotificationState(ctx, proof.ID, types.NotifBundledInInvitation); err != nil {
			log.Printf("[Notification] ⚠️ Failed to mark proof %s bundled: %v", proof.ID, err)
		}
		return
	}

	// Inactive or unknown owner: stay silent, leave not_sent so a later
	// invitation or reactivation can still cover it.
	log.Printf("[Notification] Proof %s owner %s is not active, holding notification", proof.ID, proof.OwnerEmail)
}

// HandleProofStatusChanged reports status transitions to the admin mailbox.
// Same-status writes are replays and produce nothing.
func (s *Service) HandleProofStatusChanged(ctx context.Context, proof *repository.Proof, oldStatus, newStatus string) {
	if oldStatus == newStatus {
		return
	}
	lines := s.auditLines(proof, proof.Feedback)
	lines = append([]string{fmt.Sprintf("Status: %s → %s", oldStatus, newStatus)}, lines...)
	s.sendAudit(fmt.Sprintf("proof.%s", newStatus), lines)
}

func (s *Service) deliverProofReady(ctx context.Context, proof *repository.Proof, owner *repository.Profile) {
	data := email.ProofReadyData{
		ClientName:     owner.DisplayName,
		Title:          proof.Title,
		FileName:       proof.FileRef,
		RevisionNumber: proof.RevisionNumber,
		ReviewURL:      fmt.Sprintf("%s/proofs/%s", s.frontendURL, proof.ID),
	}
	err := s.sender.SendProofReady(owner.Email, data)
	if err == nil {
		s.setState(ctx, proof.ID, types.NotifSent)
		return
	}
	log.Printf("[Notification] ⚠️ Direct send to %s failed for proof %s: %v", owner.Email, proof.ID, err)

	// Direct delivery failed: reroute to the operator mailbox so a human can
	// forward it. The proof is marked delivered-via-fallback, not lost.
	fallback := email.FallbackForwardData{
		IntendedRecipient: owner.Email,
		ClientName:        owner.DisplayName,
		Title:             proof.Title,
		FileName:          proof.FileRef,
		ReviewURL:         data.ReviewURL,
	}
	if err := s.sender.SendFallbackForward(s.operatorEmail, fallback); err != nil {
		log.Printf("[Notification] ⚠️ Fallback to operator also failed for proof %s: %v", proof.ID, err)
		return
	}
	s.setState(ctx, proof.ID, types.NotifSentViaFallback)
}

func (s *Service) setState(ctx context.Context, proofID, state string) {
	if err := s.proofRepo.SetNotificationState(ctx, proofID, state); err != nil {
		log.Printf("[Notification] ⚠️ Failed to record notification state %s for proof %s: %v", state, proofID, err)
	}
}

// sendAudit delivers the unconditional admin copy. A failure here is logged
// and never rerouted; audit mail must not cascade into the client path.
func (s *Service) sendAudit(event string, lines []string) {
	if s.adminEmail == "" {
		return
	}
	if err := s.sender.SendAdminAudit(s.adminEmail, email.AdminAuditData{Event: event, Lines: lines}); err != nil {
		log.Printf("[Notification] ⚠️ Admin audit send failed for %s: %v", event, err)
	}
}

func (s *Service) auditLines(proof *repository.Proof, feedback *string) []string {
	lines := []string{
		fmt.Sprintf("Proof: %s (%s)", proof.Title, proof.ID),
		fmt.Sprintf("Owner: %s (key %s)", proof.OwnerEmail, proof.OwnerKey),
		fmt.Sprintf("File: %s", proof.FileRef),
	}
	if proof.Quantity > 0 {
		lines = append(lines, fmt.Sprintf("Order: %d × %s", proof.Quantity, proof.UnitPrice.StringFixed(2)))
	}
	if proof.RevisionNumber > 0 {
		lines = append(lines, fmt.Sprintf("Revision: %d", proof.RevisionNumber))
	}
	if feedback != nil && *feedback != "" {
		lines = append(lines, fmt.Sprintf("Feedback: %s", *feedback))
	}
	return lines
}
