package service

import (
	"errors"
	"strings"

	"github.com/printready/proofdesk-backend/internal/config"
	"github.com/printready/proofdesk-backend/internal/db"
	"github.com/printready/proofdesk-backend/internal/email"
	"github.com/printready/proofdesk-backend/internal/events"
	"github.com/printready/proofdesk-backend/internal/repository"
)

var (
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrNotFound         = errors.New("resource not found")
	ErrInternal         = errors.New("internal error")
	ErrDeliveryFailed   = errors.New("delivery failed")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidToken       = errors.New("invalid token")
)

// ============================================
// Services Container
// ============================================

type Services struct {
	Auth       AuthService
	User       UserService
	Transfer   TransferService
	Reconcile  ReconcileService
	Invitation InvitationService
	Proof      ProofService
	Admin      AdminService
}

type ServiceDeps struct {
	Config     *config.Config
	Repos      *repository.Repositories
	EmailSvc   *email.Service
	Dispatcher *events.Dispatcher
	Cache      *db.RedisDB
}

func NewServices(deps *ServiceDeps) *Services {
	transfer := NewTransferService(deps.Repos.ProofRepo)
	reconcile := NewReconcileService(
		deps.Repos.ProfileRepo,
		deps.Repos.PlaceholderRepo,
		deps.Repos.ClaimRepo,
		transfer,
		deps.Cache,
		deps.Config.ClaimTTLMinutes,
	)
	return &Services{
		Auth:       NewAuthService(deps.Config, deps.Repos.AuthRepo, deps.Dispatcher),
		User:       NewUserService(deps.Repos.ProfileRepo),
		Transfer:   transfer,
		Reconcile:  reconcile,
		Invitation: NewInvitationService(deps.Repos.PlaceholderRepo, deps.Repos.ProofRepo, deps.Repos.ProfileRepo, deps.EmailSvc, deps.Config.FrontendURL),
		Proof:      NewProofService(deps.Repos.ProofRepo, deps.Repos.ProfileRepo, deps.Repos.PlaceholderRepo, deps.Dispatcher),
		Admin:      NewAdminService(deps.Repos.ProfileRepo, deps.Repos.ProofRepo, deps.Repos.AuditRepo, deps.Repos.AuthRepo, deps.Repos.PlaceholderRepo),
	}
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}
