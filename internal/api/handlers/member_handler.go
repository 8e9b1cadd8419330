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
// Member Handler
// ============================================

type MemberHandler struct {
	memberService service.MemberService
}

func (h *MemberHandler) Invite(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	workspaceID := c.Param("workspaceId")

	var req models.InviteMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	invitation, err := h.memberService.Invite(c.Request.Context(), workspaceID, userID, req.Email, req.Role)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Created(c, toInvitationResponse(invitation))
}

func (h *MemberHandler) AcceptInvitation(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.AcceptInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	member, err := h.memberService.AcceptInvitation(c.Request.Context(), req.Token, userID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, toTeamMemberResponse(member))
}

func (h *MemberHandler) List(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	workspaceID := c.Param("workspaceId")

	members, err := h.memberService.List(c.Request.Context(), workspaceID, userID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	resp := make([]models.TeamMemberResponse, len(members))
	for i, m := range members {
		resp[i] = toTeamMemberResponse(m)
	}
	response.OK(c, resp)
}

func (h *MemberHandler) ListInvitations(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	workspaceID := c.Param("workspaceId")

	invitations, err := h.memberService.ListInvitations(c.Request.Context(), workspaceID, userID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	resp := make([]models.InvitationResponse, len(invitations))
	for i, inv := range invitations {
		resp[i] = toInvitationResponse(inv)
	}
	response.OK(c, resp)
}

func (h *MemberHandler) CancelInvitation(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	workspaceID := c.Param("workspaceId")
	invitationID := c.Param("invitationId")

	if err := h.memberService.CancelInvitation(c.Request.Context(), workspaceID, userID, invitationID); err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, gin.H{"cancelled": true})
}

func (h *MemberHandler) UpdateRole(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	workspaceID := c.Param("workspaceId")
	memberID := c.Param("memberId")

	var req models.UpdateMemberRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	member, err := h.memberService.UpdateRole(c.Request.Context(), workspaceID, userID, memberID, req.Role)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, toTeamMemberResponse(member))
}

func (h *MemberHandler) Remove(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	workspaceID := c.Param("workspaceId")
	memberID := c.Param("memberId")

	if err := h.memberService.Remove(c.Request.Context(), workspaceID, userID, memberID); err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, gin.H{"removed": true})
}
