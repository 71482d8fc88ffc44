package cron

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"

	"github.com/printready/proofdesk-backend/internal/config"
	"github.com/printready/proofdesk-backend/internal/repository"
	"github.com/printready/proofdesk-backend/internal/service"
)

// Scheduler handles scheduled tasks
type Scheduler struct {
	cron            *cron.Cron
	services        *service.Services
	placeholderRepo repository.PlaceholderRepository
	claimRepo       repository.ClaimRepository
	proofRepo       repository.ProofRepository
	cfg             *config.Config
}

// NewScheduler creates a new scheduler
func NewScheduler(
	services *service.Services,
	placeholderRepo repository.PlaceholderRepository,
	claimRepo repository.ClaimRepository,
	proofRepo repository.ProofRepository,
	cfg *config.Config,
) *Scheduler {
	return &Scheduler{
		cron:            cron.New(),
		services:        services,
		placeholderRepo: placeholderRepo,
		claimRepo:       claimRepo,
		proofRepo:       proofRepo,
		cfg:             cfg,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	// Run every day at 9 AM - Invitation reminders
	s.cron.AddFunc("0 9 * * *", func() {
		log.Println("[Cron] Running invitation reminder sweep...")
		s.sendInvitationReminders()
	})

	// Run every 15 minutes - Expired activation claim cleanup
	s.cron.AddFunc("*/15 * * * *", func() {
		s.cleanupExpiredClaims()
	})

	// Run every hour - Pending invitation backlog report
	s.cron.AddFunc("0 * * * *", func() {
		s.reportPendingBacklog()
	})

	s.cron.Start()
	log.Println("[Cron] Scheduler started")
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("[Cron] Scheduler stopped")
}

// sendInvitationReminders re-sends invitations for placeholders that have
// been pending longer than the configured window and have not been reminded.
func (s *Scheduler) sendInvitationReminders() {
	ctx := context.Background()

	cutoff := service.ReminderCutoff(s.cfg.ReminderAfterHours)
	pending, err := s.placeholderRepo.ListPendingInvitedBefore(ctx, cutoff)
	if err != nil {
		log.Printf("[Cron] Error listing stale invitations: %v", err)
		return
	}

	sent := 0
	for _, ph := range pending {
		if ph.ReminderSentAt != nil {
			continue
		}
		if err := s.services.Invitation.SendReminder(ctx, ph); err != nil {
			log.Printf("[Cron] Error sending reminder to %s: %v", ph.Email, err)
			continue
		}
		sent++
	}
	if sent > 0 {
		log.Printf("[Cron] Sent %d invitation reminder(s)", sent)
	}
}

// cleanupExpiredClaims removes activation claims whose TTL has lapsed so an
// abandoned activation cannot block normal sign-in resolution forever.
func (s *Scheduler) cleanupExpiredClaims() {
	ctx := context.Background()

	removed, err := s.claimRepo.DeleteExpired(ctx)
	if err != nil {
		log.Printf("[Cron] Error cleaning expired claims: %v", err)
		return
	}
	if removed > 0 {
		log.Printf("[Cron] Removed %d expired activation claim(s)", removed)
	}
}

// reportPendingBacklog logs how many invitations are still waiting so an
// operator notices a stuck onboarding pipeline.
func (s *Scheduler) reportPendingBacklog() {
	ctx := context.Background()

	pending, err := s.placeholderRepo.ListPending(ctx)
	if err != nil {
		log.Printf("[Cron] Error listing pending invitations: %v", err)
		return
	}
	if len(pending) > 0 {
		log.Printf("[Cron] %d invitation(s) still pending activation", len(pending))
	}
}

// ManualTrigger allows manual triggering of scheduled checks (for testing)
func (s *Scheduler) ManualTrigger(checkType string) {
	switch checkType {
	case "reminders":
		s.sendInvitationReminders()
	case "claims":
		s.cleanupExpiredClaims()
	case "backlog":
		s.reportPendingBacklog()
	case "all":
		s.sendInvitationReminders()
		s.cleanupExpiredClaims()
		s.reportPendingBacklog()
	}
}
