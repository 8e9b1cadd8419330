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
// Template Handler
// ============================================

type TemplateHandler struct {
	templateService service.TemplateService
}

func (h *TemplateHandler) CreateFromWorkspace(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	template, err := h.templateService.CreateFromWorkspace(c.Request.Context(),
		req.WorkspaceID, userID, req.Name, req.Description, req.Category, req.Complexity, req.IsPublic, req.Tags)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Created(c, toTemplateResponse(template))
}

func (h *TemplateHandler) Apply(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	workspaceID := c.Param("id")

	var req models.ApplyTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	workspace, err := h.templateService.Apply(c.Request.Context(), workspaceID, req.TemplateID, userID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, toWorkspaceResponse(workspace))
}

func (h *TemplateHandler) Recommendations(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	eventID := c.Param("id")

	templates, err := h.templateService.Recommendations(c.Request.Context(), eventID, userID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	resp := make([]models.TemplateResponse, len(templates))
	for i, t := range templates {
		resp[i] = toTemplateResponse(t)
	}
	response.OK(c, resp)
}

func (h *TemplateHandler) Get(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	templateID := c.Param("templateId")

	template, err := h.templateService.Get(c.Request.Context(), templateID, userID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, toTemplateResponse(template))
}

func (h *TemplateHandler) ListPublic(c *gin.Context) {
	templates, err := h.templateService.ListPublic(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}

	resp := make([]models.TemplateResponse, len(templates))
	for i, t := range templates {
		resp[i] = toTemplateResponse(t)
	}
	response.OK(c, resp)
}
