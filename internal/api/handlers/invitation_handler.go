package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/printready/proofdesk-backend/internal/api/middleware"
	"github.com/printready/proofdesk-backend/internal/models"
	"github.com/printready/proofdesk-backend/internal/service"
	"github.com/printready/proofdesk-backend/internal/socket"
)

// ============================================
// Invitation Handler
// ============================================

type InvitationHandler struct {
	invitationService service.InvitationService
	authService       service.AuthService
	reconcileService  service.ReconcileService
	broadcaster       *socket.Broadcaster
}

func (h *InvitationHandler) IssueInvitation(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.IssueInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid-argument"})
		return
	}

	inviterEmail, err := h.authService.GetEmailForUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.invitationService.IssueInvitation(c.Request.Context(), req.Email, req.DisplayName, inviterEmail)
	if err != nil {
		respondError(c, err)
		return
	}

	if h.broadcaster != nil {
		h.broadcaster.BroadcastInvitationIssued(result.PlaceholderID, req.Email, result.ProofCount)
	}

	c.JSON(http.StatusCreated, result)
}

func (h *InvitationHandler) ListPending(c *gin.Context) {
	if _, ok := middleware.RequireUserID(c); !ok {
		return
	}

	pending, err := h.invitationService.GetPending(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]models.PlaceholderResponse, len(pending))
	for i, ph := range pending {
		response[i] = toPlaceholderResponse(ph)
	}
	c.JSON(http.StatusOK, response)
}

// AcceptInvitation runs the activation flow: the signed-in caller claims the
// placeholder issued to their mailbox, upgrading it to their durable identity
// and pulling its proofs across.
func (h *InvitationHandler) AcceptInvitation(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.AcceptInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid-argument"})
		return
	}

	callerEmail, err := h.authService.GetEmailForUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.reconcileService.AcceptActivation(c.Request.Context(), userID, callerEmail, req.PlaceholderID)
	if err != nil {
		respondError(c, err)
		return
	}

	if h.broadcaster != nil {
		h.broadcaster.BroadcastIdentityActivated(userID, callerEmail, result.TransferredCount)
	}

	c.JSON(http.StatusOK, gin.H{
		"profile":              toProfileResponse(result.Profile),
		"transferredCount":     result.TransferredCount,
		"transferPending":      result.TransferPending,
		"placeholderCompleted": result.PlaceholderCompleted,
	})
}
