package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/printready/proofdesk-backend/internal/api/middleware"
	"github.com/printready/proofdesk-backend/internal/models"
	"github.com/printready/proofdesk-backend/internal/service"
	"github.com/printready/proofdesk-backend/internal/socket"
)

// ============================================
// Admin Handler
// ============================================

type AdminHandler struct {
	adminService service.AdminService
	userService  service.UserService
	broadcaster  *socket.Broadcaster
}

func (h *AdminHandler) DeleteIdentity(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	// The body is optional: deleting without a reassignment target leaves
	// proof references for manual follow-up.
	var req models.DeleteIdentityRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid-argument"})
			return
		}
	}

	report, err := h.adminService.DeleteIdentityCompletely(c.Request.Context(), userID, c.Param("id"), req.ReassignTo)
	if err != nil {
		respondError(c, err)
		return
	}

	if h.broadcaster != nil {
		h.broadcaster.BroadcastIdentityDeleted(report.DeletedID, report.ProofsTransferred)
	}

	c.JSON(http.StatusOK, report)
}

func (h *AdminHandler) ListAuditRecords(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	records, err := h.adminService.ListAuditRecords(c.Request.Context(), userID, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]models.AuditRecordResponse, len(records))
	for i, rec := range records {
		response[i] = toAuditRecordResponse(rec)
	}
	c.JSON(http.StatusOK, response)
}

func (h *AdminHandler) PurgePlaceholder(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	if err := h.adminService.PurgePlaceholder(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	if _, ok := middleware.RequireUserID(c); !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	profiles, err := h.userService.List(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]models.ProfileResponse, len(profiles))
	for i, p := range profiles {
		response[i] = toProfileResponse(p)
	}
	c.JSON(http.StatusOK, response)
}

func (h *AdminHandler) UpdateUserRole(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid-argument"})
		return
	}

	if err := h.userService.UpdateRole(c.Request.Context(), userID, c.Param("id"), req.Role); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *AdminHandler) UpdateUserStatus(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.UpdateProfileStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid-argument"})
		return
	}

	if err := h.userService.UpdateStatus(c.Request.Context(), userID, c.Param("id"), req.Status); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
