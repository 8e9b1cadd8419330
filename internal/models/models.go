// Package models defines the API request and response shapes.
package models

import "time"

// ============================================
// Auth
// ============================================

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type AuthResponse struct {
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

// ============================================
// Events
// ============================================

type EventResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	OrganizerID string     `json:"organizerId"`
	EventType   string     `json:"eventType"`
	Status      string     `json:"status"`
	StartsAt    *time.Time `json:"startsAt,omitempty"`
	EndsAt      *time.Time `json:"endsAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// ============================================
// Workspaces
// ============================================

type ProvisionWorkspaceRequest struct {
	EventID string `json:"eventId" binding:"required"`
}

type UpdateWorkspaceRequest struct {
	Name string `json:"name" binding:"required"`
}

type DissolveWorkspaceRequest struct {
	RetentionPeriodDays *int `json:"retentionPeriodDays"`
}

type WorkspaceResponse struct {
	ID         string     `json:"id"`
	EventID    string     `json:"eventId"`
	Name       string     `json:"name"`
	Status     string     `json:"status"`
	TemplateID *string    `json:"templateId,omitempty"`
	DissolveAt *time.Time `json:"dissolveAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

type WorkspaceStatusResponse struct {
	Status          string   `json:"status"`
	CanTransitionTo []string `json:"canTransitionTo"`
}

type ChannelResponse struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspaceId"`
	Name        string    `json:"name"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ============================================
// Members & Invitations
// ============================================

type InviteMemberRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role" binding:"required"`
}

type AcceptInvitationRequest struct {
	Token string `json:"token" binding:"required"`
}

type UpdateMemberRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

type TeamMemberResponse struct {
	ID           string        `json:"id"`
	WorkspaceID  string        `json:"workspaceId"`
	UserID       string        `json:"userId"`
	Role         string        `json:"role"`
	Status       string        `json:"status"`
	Permissions  []string      `json:"permissions"`
	InvitedBy    *string       `json:"invitedBy,omitempty"`
	JoinedAt     time.Time     `json:"joinedAt"`
	User         *UserResponse `json:"user,omitempty"`
}

type InvitationResponse struct {
	ID          string     `json:"id"`
	WorkspaceID string     `json:"workspaceId"`
	Email       string     `json:"email"`
	Role        string     `json:"role"`
	Status      string     `json:"status"`
	InvitedBy   string     `json:"invitedBy"`
	ExpiresAt   time.Time  `json:"expiresAt"`
	AcceptedAt  *time.Time `json:"acceptedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// ============================================
// Tasks
// ============================================

type CreateTaskRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description *string    `json:"description"`
	Category    string     `json:"category" binding:"required"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
	AssigneeID  *string    `json:"assigneeId"`
}

type UpdateTaskRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Category    *string    `json:"category"`
	Priority    *string    `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
}

type UpdateTaskStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type AssignTaskRequest struct {
	AssigneeID *string `json:"assigneeId"`
}

type AddDependencyRequest struct {
	DependsOnTaskID string `json:"dependsOnTaskId" binding:"required"`
	Type            string `json:"type" binding:"required"`
}

type TaskResponse struct {
	ID           string               `json:"id"`
	WorkspaceID  string               `json:"workspaceId"`
	Title        string               `json:"title"`
	Description  *string              `json:"description,omitempty"`
	AssigneeID   *string              `json:"assigneeId,omitempty"`
	Category     string               `json:"category"`
	Priority     string               `json:"priority"`
	Status       string               `json:"status"`
	DueDate      *time.Time           `json:"dueDate,omitempty"`
	CreatorID    string               `json:"creatorId"`
	Dependencies []DependencyResponse `json:"dependencies,omitempty"`
	CreatedAt    time.Time            `json:"createdAt"`
	UpdatedAt    time.Time            `json:"updatedAt"`
}

type DependencyResponse struct {
	TaskID          string    `json:"taskId"`
	DependsOnTaskID string    `json:"dependsOnTaskId"`
	Type            string    `json:"type"`
	CreatedAt       time.Time `json:"createdAt"`
}

type TaskSummaryResponse struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"byStatus"`
}

// ============================================
// Templates
// ============================================

type CreateTemplateRequest struct {
	WorkspaceID string   `json:"workspaceId" binding:"required"`
	Name        string   `json:"name" binding:"required"`
	Description *string  `json:"description"`
	Category    string   `json:"category"`
	Complexity  string   `json:"complexity"`
	IsPublic    bool     `json:"isPublic"`
	Tags        []string `json:"tags"`
}

type ApplyTemplateRequest struct {
	TemplateID string `json:"templateId" binding:"required"`
}

type TemplateStructure struct {
	Roles          []string `json:"roles"`
	TaskCategories []string `json:"taskCategories"`
}

type TemplateResponse struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description *string           `json:"description,omitempty"`
	Category    string            `json:"category"`
	Complexity  string            `json:"complexity"`
	IsPublic    bool              `json:"isPublic"`
	Tags        []string          `json:"tags"`
	Structure   TemplateStructure `json:"structure"`
	UsageCount  int               `json:"usageCount"`
	CreatedBy   string            `json:"createdBy"`
	CreatedAt   time.Time         `json:"createdAt"`
}

// ============================================
// Audit
// ============================================

type AuditEntryResponse struct {
	ID          string                 `json:"id"`
	WorkspaceID string                 `json:"workspaceId"`
	ActorID     string                 `json:"actorId"`
	Action      string                 `json:"action"`
	Details     map[string]interface{} `json:"details,omitempty"`
	CreatedAt   time.Time              `json:"createdAt"`
}
