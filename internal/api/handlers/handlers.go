package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/printready/proofdesk-backend/internal/models"
	"github.com/printready/proofdesk-backend/internal/repository"
	"github.com/printready/proofdesk-backend/internal/service"
	"github.com/printready/proofdesk-backend/internal/socket"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	Auth       *AuthHandler
	User       *UserHandler
	Proof      *ProofHandler
	Invitation *InvitationHandler
	Transfer   *TransferHandler
	Admin      *AdminHandler
}

// NewHandlers creates all handlers
func NewHandlers(services *service.Services, broadcaster *socket.Broadcaster) *Handlers {
	return &Handlers{
		Auth:       &AuthHandler{authService: services.Auth, reconcileService: services.Reconcile},
		User:       &UserHandler{userService: services.User, authService: services.Auth, reconcileService: services.Reconcile},
		Proof:      &ProofHandler{proofService: services.Proof},
		Invitation: &InvitationHandler{invitationService: services.Invitation, authService: services.Auth, reconcileService: services.Reconcile, broadcaster: broadcaster},
		Transfer:   &TransferHandler{transferService: services.Transfer, broadcaster: broadcaster},
		Admin:      &AdminHandler{adminService: services.Admin, userService: services.User, broadcaster: broadcaster},
	}
}

// ============================================
// Error Mapping
// ============================================

// respondError translates service errors into HTTP responses with stable
// machine-readable codes.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "code": "unauthenticated"})
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error(), "code": "permission-denied"})
	case errors.Is(err, service.ErrInvalidArgument):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid-argument"})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": "not-found"})
	case errors.Is(err, service.ErrDeliveryFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "code": "delivery-failed"})
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "code": "unauthenticated"})
	case errors.Is(err, service.ErrUserExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "already-exists"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "code": "internal"})
	}
}

// ============================================
// Response Mappers
// ============================================

func toProfileResponse(p *repository.Profile) models.ProfileResponse {
	return models.ProfileResponse{
		ID:          p.ID,
		Email:       p.Email,
		DisplayName: p.DisplayName,
		Role:        p.Role,
		Status:      p.Status,
		OwnerKey:    p.OwnerKey,
		InvitedBy:   p.InvitedBy,
		ActivatedAt: p.ActivatedAt,
		CreatedAt:   p.CreatedAt,
	}
}

func toProofResponse(p *repository.Proof) models.ProofResponse {
	return models.ProofResponse{
		ID:                p.ID,
		Title:             p.Title,
		FileRef:           p.FileRef,
		OwnerKey:          p.OwnerKey,
		OwnerEmail:        p.OwnerEmail,
		Status:            p.Status,
		NotificationState: p.NotificationState,
		RevisionChainID:   p.RevisionChainID,
		RevisionNumber:    p.RevisionNumber,
		Quantity:          p.Quantity,
		UnitPrice:         p.UnitPrice.StringFixed(2),
		AssignedTo:        safeStringSlice(p.AssignedTo),
		Feedback:          p.Feedback,
		TransferredAt:     p.TransferredAt,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

func toPlaceholderResponse(ph *repository.Placeholder) models.PlaceholderResponse {
	return models.PlaceholderResponse{
		ID:             ph.ID,
		Email:          ph.Email,
		DisplayName:    ph.DisplayName,
		Status:         ph.Status,
		InvitedBy:      ph.InvitedBy,
		InvitedAt:      ph.InvitedAt,
		ReminderSentAt: ph.ReminderSentAt,
	}
}

func toAuditRecordResponse(rec *repository.AuditRecord) models.AuditRecordResponse {
	return models.AuditRecordResponse{
		ID:        rec.ID,
		Action:    rec.Action,
		ActorID:   rec.ActorID,
		TargetID:  rec.TargetID,
		Details:   rec.Details,
		CreatedAt: rec.CreatedAt,
	}
}

// Helper to ensure nil slices become empty slices
func safeStringSlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
