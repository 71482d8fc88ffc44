package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/printready/proofdesk-backend/internal/api/middleware"
	"github.com/printready/proofdesk-backend/internal/models"
	"github.com/printready/proofdesk-backend/internal/service"
)

// ============================================
// Proof Handler
// ============================================

type ProofHandler struct {
	proofService service.ProofService
}

func (h *ProofHandler) CreateProof(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.CreateProofRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid-argument"})
		return
	}

	unitPrice := decimal.Zero
	if req.UnitPrice != "" {
		parsed, err := decimal.NewFromString(req.UnitPrice)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid unitPrice", "code": "invalid-argument"})
			return
		}
		unitPrice = parsed
	}

	proof, err := h.proofService.Create(c.Request.Context(), userID, service.CreateProofInput{
		Title:           req.Title,
		FileRef:         req.FileRef,
		OwnerKey:        req.OwnerKey,
		OwnerEmail:      req.OwnerEmail,
		RevisionChainID: req.RevisionChainID,
		Quantity:        req.Quantity,
		UnitPrice:       unitPrice,
		AssignedTo:      req.AssignedTo,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toProofResponse(proof))
}

func (h *ProofHandler) GetProof(c *gin.Context) {
	if _, ok := middleware.RequireUserID(c); !ok {
		return
	}

	proof, err := h.proofService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toProofResponse(proof))
}

// ListMyProofs lists proofs keyed to the caller's durable identifier.
func (h *ProofHandler) ListMyProofs(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	proofs, err := h.proofService.ListByOwner(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]models.ProofResponse, len(proofs))
	for i, p := range proofs {
		response[i] = toProofResponse(p)
	}
	c.JSON(http.StatusOK, response)
}

func (h *ProofHandler) UpdateProofStatus(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.UpdateProofStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid-argument"})
		return
	}

	proof, err := h.proofService.UpdateStatus(c.Request.Context(), userID, c.Param("id"), req.Status, req.Feedback)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toProofResponse(proof))
}
