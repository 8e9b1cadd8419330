package handlers

import (
	"github.com/eventra-app/workspace-backend/internal/models"
	"github.com/eventra-app/workspace-backend/internal/repository"
	"github.com/eventra-app/workspace-backend/internal/service"
	"github.com/eventra-app/workspace-backend/internal/types"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	Auth      *AuthHandler
	Event     *EventHandler
	Workspace *WorkspaceHandler
	Member    *MemberHandler
	Task      *TaskHandler
	Template  *TemplateHandler
}

// NewHandlers creates all handlers
func NewHandlers(services *service.Services, repos *repository.Repositories) *Handlers {
	return &Handlers{
		Auth:      &AuthHandler{authService: services.Auth},
		Event:     &EventHandler{events: repos.EventRepo},
		Workspace: &WorkspaceHandler{workspaceService: services.Workspace, auditService: services.Audit},
		Member:    &MemberHandler{memberService: services.Member},
		Task:      &TaskHandler{taskService: services.Task},
		Template:  &TemplateHandler{templateService: services.Template},
	}
}

// ============================================
// Response Mappers
// ============================================

func toUserResponse(u *repository.User) models.UserResponse {
	return models.UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: u.CreatedAt,
	}
}

func toWorkspaceResponse(ws *repository.Workspace) models.WorkspaceResponse {
	return models.WorkspaceResponse{
		ID:         ws.ID,
		EventID:    ws.EventID,
		Name:       ws.Name,
		Status:     ws.Status,
		TemplateID: ws.TemplateID,
		DissolveAt: ws.DissolveAt,
		CreatedAt:  ws.CreatedAt,
		UpdatedAt:  ws.UpdatedAt,
	}
}

func toChannelResponse(ch *repository.WorkspaceChannel) models.ChannelResponse {
	return models.ChannelResponse{
		ID:          ch.ID,
		WorkspaceID: ch.WorkspaceID,
		Name:        ch.Name,
		CreatedAt:   ch.CreatedAt,
	}
}

func toTeamMemberResponse(m *repository.TeamMember) models.TeamMemberResponse {
	resp := models.TeamMemberResponse{
		ID:          m.ID,
		WorkspaceID: m.WorkspaceID,
		UserID:      m.UserID,
		Role:        m.Role,
		Status:      m.Status,
		Permissions: types.CapabilitiesForRole(m.Role),
		InvitedBy:   m.InvitedBy,
		JoinedAt:    m.JoinedAt,
	}
	if m.User != nil {
		user := toUserResponse(m.User)
		resp.User = &user
	}
	return resp
}

func toInvitationResponse(inv *repository.Invitation) models.InvitationResponse {
	return models.InvitationResponse{
		ID:          inv.ID,
		WorkspaceID: inv.WorkspaceID,
		Email:       inv.Email,
		Role:        inv.Role,
		Status:      inv.Status,
		InvitedBy:   inv.InvitedBy,
		ExpiresAt:   inv.ExpiresAt,
		AcceptedAt:  inv.AcceptedAt,
		CreatedAt:   inv.CreatedAt,
	}
}

func toTaskResponse(t *repository.WorkspaceTask, deps []*repository.TaskDependency) models.TaskResponse {
	resp := models.TaskResponse{
		ID:          t.ID,
		WorkspaceID: t.WorkspaceID,
		Title:       t.Title,
		Description: t.Description,
		AssigneeID:  t.AssigneeID,
		Category:    t.Category,
		Priority:    t.Priority,
		Status:      t.Status,
		DueDate:     t.DueDate,
		CreatorID:   t.CreatorID,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if len(deps) > 0 {
		resp.Dependencies = make([]models.DependencyResponse, len(deps))
		for i, d := range deps {
			resp.Dependencies[i] = toDependencyResponse(d)
		}
	}
	return resp
}

func toDependencyResponse(d *repository.TaskDependency) models.DependencyResponse {
	return models.DependencyResponse{
		TaskID:          d.TaskID,
		DependsOnTaskID: d.DependsOnTaskID,
		Type:            d.DependencyType,
		CreatedAt:       d.CreatedAt,
	}
}

func toTemplateResponse(t *repository.WorkspaceTemplate) models.TemplateResponse {
	return models.TemplateResponse{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		Category:    t.Category,
		Complexity:  t.Complexity,
		IsPublic:    t.IsPublic,
		Tags:        safeStringSlice(t.Tags),
		Structure: models.TemplateStructure{
			Roles:          safeStringSlice(t.Roles),
			TaskCategories: safeStringSlice(t.TaskCategories),
		},
		UsageCount: t.UsageCount,
		CreatedBy:  t.CreatedBy,
		CreatedAt:  t.CreatedAt,
	}
}

func toAuditEntryResponse(e *repository.AuditLogEntry) models.AuditEntryResponse {
	return models.AuditEntryResponse{
		ID:          e.ID,
		WorkspaceID: e.WorkspaceID,
		ActorID:     e.ActorID,
		Action:      e.Action,
		Details:     e.Details,
		CreatedAt:   e.CreatedAt,
	}
}

func toEventResponse(e *repository.Event) models.EventResponse {
	return models.EventResponse{
		ID:          e.ID,
		Name:        e.Name,
		OrganizerID: e.OrganizerID,
		EventType:   e.EventType,
		Status:      e.Status,
		StartsAt:    e.StartsAt,
		EndsAt:      e.EndsAt,
		CreatedAt:   e.CreatedAt,
	}
}

// Helper to ensure nil slices become empty slices
func safeStringSlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
