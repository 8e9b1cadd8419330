// internal/service/service.go
package service

import (
	"errors"

	"github.com/eventra-app/workspace-backend/internal/config"
	"github.com/eventra-app/workspace-backend/internal/db"
	"github.com/eventra-app/workspace-backend/internal/email"
	"github.com/eventra-app/workspace-backend/internal/repository"
)

// Sentinel errors shared across services. Handlers map these to HTTP codes.
var (
	ErrNotFound           = errors.New("resource not found")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrValidation         = errors.New("validation failed")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrInvitationExpired  = errors.New("invitation expired")
	ErrDependencyCycle    = errors.New("dependency cycle detected")
)

// Broadcaster pushes workspace events to connected clients. The socket
// package provides the real implementation; tests get a no-op.
type Broadcaster interface {
	WorkspaceEvent(workspaceID, eventType string, payload interface{})
}

type noopBroadcaster struct{}

func (noopBroadcaster) WorkspaceEvent(workspaceID, eventType string, payload interface{}) {}

// ServiceDeps carries everything services need. Redis and EmailSvc are
// optional; services degrade gracefully when they are nil.
type ServiceDeps struct {
	Config      *config.Config
	Repos       *repository.Repositories
	EmailSvc    *email.EmailService
	Redis       *db.RedisDB
	Broadcaster Broadcaster
}

// Services bundles all application services.
type Services struct {
	Auth      AuthService
	Workspace WorkspaceService
	Member    MemberService
	Task      TaskService
	Template  TemplateService
	Audit     AuditService
}

func NewServices(deps *ServiceDeps) *Services {
	if deps.Broadcaster == nil {
		deps.Broadcaster = noopBroadcaster{}
	}

	perms := newPermissionService(deps.Repos)
	audit := NewAuditService(deps.Repos, perms)

	return &Services{
		Auth:      NewAuthService(deps.Config, deps.Repos.UserRepo),
		Workspace: NewWorkspaceService(*deps, perms, audit),
		Member:    NewMemberService(*deps, perms, audit),
		Task:      NewTaskService(*deps, perms, audit),
		Template:  NewTemplateService(*deps, perms, audit),
		Audit:     audit,
	}
}
