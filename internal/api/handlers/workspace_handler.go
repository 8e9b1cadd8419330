package handlers

import (
	"net/http"

	"github.com/eventra-app/workspace-backend/internal/api/middleware"
	"github.com/eventra-app/workspace-backend/internal/api/response"
	"github.com/eventra-app/workspace-backend/internal/models"
	"github.com/eventra-app/workspace-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// ============================================
// Workspace Handler
// ============================================

type WorkspaceHandler struct {
	workspaceService service.WorkspaceService
	auditService     service.AuditService
}

func (h *WorkspaceHandler) Provision(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.ProvisionWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	workspace, err := h.workspaceService.Provision(c.Request.Context(), req.EventID, userID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Created(c, toWorkspaceResponse(workspace))
}

func (h *WorkspaceHandler) Get(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	id := c.Param("id")

	workspace, err := h.workspaceService.GetByID(c.Request.Context(), id, userID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, toWorkspaceResponse(workspace))
}

func (h *WorkspaceHandler) Update(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	id := c.Param("id")

	var req models.UpdateWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	workspace, err := h.workspaceService.Update(c.Request.Context(), id, userID, req.Name)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, toWorkspaceResponse(workspace))
}

func (h *WorkspaceHandler) Dissolve(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	id := c.Param("id")

	var req models.DissolveWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	workspace, err := h.workspaceService.Dissolve(c.Request.Context(), id, userID, req.RetentionPeriodDays)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, toWorkspaceResponse(workspace))
}

func (h *WorkspaceHandler) Status(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	id := c.Param("id")

	status, canTransitionTo, err := h.workspaceService.Status(c.Request.Context(), id, userID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, models.WorkspaceStatusResponse{
		Status:          status,
		CanTransitionTo: canTransitionTo,
	})
}

func (h *WorkspaceHandler) ListChannels(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	id := c.Param("id")

	channels, err := h.workspaceService.GetChannels(c.Request.Context(), id, userID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	resp := make([]models.ChannelResponse, len(channels))
	for i, ch := range channels {
		resp[i] = toChannelResponse(ch)
	}
	response.OK(c, resp)
}

func (h *WorkspaceHandler) ListAuditLog(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	id := c.Param("id")

	entries, err := h.auditService.ListEntries(c.Request.Context(), id, userID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	resp := make([]models.AuditEntryResponse, len(entries))
	for i, e := range entries {
		resp[i] = toAuditEntryResponse(e)
	}
	response.OK(c, resp)
}
