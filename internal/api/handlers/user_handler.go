package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/printready/proofdesk-backend/internal/api/middleware"
	"github.com/printready/proofdesk-backend/internal/models"
	"github.com/printready/proofdesk-backend/internal/service"
)

// ============================================
// User Handler
// ============================================

type UserHandler struct {
	userService      service.UserService
	authService      service.AuthService
	reconcileService service.ReconcileService
}

// GetCurrentUser resolves the caller's profile. Resolution runs the full
// reconciliation, so a first request after invitation activation still lands
// on the right profile.
func (h *UserHandler) GetCurrentUser(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	email, err := h.authService.GetEmailForUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	resolved, err := h.reconcileService.Resolve(c.Request.Context(), userID, email)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := toProfileResponse(resolved.Profile)
	c.JSON(http.StatusOK, gin.H{
		"profile":  resp,
		"degraded": resolved.Degraded,
	})
}

func (h *UserHandler) UpdateCurrentUser(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid-argument"})
		return
	}

	profile, err := h.userService.UpdateDisplayName(c.Request.Context(), userID, req.DisplayName)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toProfileResponse(profile))
}

func (h *UserHandler) GetUser(c *gin.Context) {
	if _, ok := middleware.RequireUserID(c); !ok {
		return
	}

	profile, err := h.userService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toProfileResponse(profile))
}
