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
// Transfer Handler
// ============================================

type TransferHandler struct {
	transferService service.TransferService
	broadcaster     *socket.Broadcaster
}

// TransferOwnership re-keys all proofs under oldOwnerKey onto the caller's
// durable identity.
func (h *TransferHandler) TransferOwnership(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid-argument"})
		return
	}

	result, err := h.transferService.Transfer(c.Request.Context(), userID, req.OldOwnerKey, req.NewDurableID)
	if err != nil {
		respondError(c, err)
		return
	}

	if h.broadcaster != nil && result.TransferredCount > 0 {
		h.broadcaster.BroadcastProofTransferred(req.OldOwnerKey, req.NewDurableID, result.TransferredCount)
	}

	c.JSON(http.StatusOK, result)
}
