// internal/service/audit_service.go
package service

import (
	"context"
	"errors"
	"log"

	"github.com/eventra-app/workspace-backend/internal/repository"
	"github.com/eventra-app/workspace-backend/internal/types"
)

// ============================================
// Audit Service
// ============================================

// AuditService writes and reads the append-only workspace activity trail.
// Every state-changing operation records an entry; denied attempts are
// recorded too, with a ".denied" suffix on the action.
type AuditService interface {
	Record(ctx context.Context, workspaceID, actorID, action string, details map[string]interface{})
	RecordDenied(ctx context.Context, workspaceID, actorID, action string, details map[string]interface{})
	Audited(ctx context.Context, workspaceID, actorID, action string, details map[string]interface{}, fn func() error) error
	ListEntries(ctx context.Context, workspaceID, userID string) ([]*repository.AuditLogEntry, error)
}

type auditService struct {
	repos *repository.Repositories
	perms *permissionService
}

func NewAuditService(repos *repository.Repositories, perms *permissionService) AuditService {
	return &auditService{repos: repos, perms: perms}
}

// Record appends an entry. Failures are logged, never propagated: the
// mutation already happened and must not be rolled back because the trail
// write failed.
func (s *auditService) Record(ctx context.Context, workspaceID, actorID, action string, details map[string]interface{}) {
	entry := &repository.AuditLogEntry{
		WorkspaceID: workspaceID,
		ActorID:     actorID,
		Action:      action,
		Details:     details,
	}
	if err := s.repos.AuditRepo.Append(ctx, entry); err != nil {
		log.Printf("[Audit] failed to append %s for workspace %s: %v", action, workspaceID, err)
	}
}

func (s *auditService) RecordDenied(ctx context.Context, workspaceID, actorID, action string, details map[string]interface{}) {
	s.Record(ctx, workspaceID, actorID, action+".denied", details)
}

// Audited wraps a mutation so the trail entry cannot be forgotten: success
// records the action, a permission denial records "<action>.denied", any
// other failure records nothing and the error passes through unchanged.
func (s *auditService) Audited(ctx context.Context, workspaceID, actorID, action string, details map[string]interface{}, fn func() error) error {
	err := fn()
	switch {
	case err == nil:
		s.Record(ctx, workspaceID, actorID, action, details)
	case errors.Is(err, ErrForbidden):
		s.RecordDenied(ctx, workspaceID, actorID, action, details)
	default:
		log.Printf("[Audit] %s rejected for actor %s in workspace %s: %v", action, actorID, workspaceID, err)
	}
	return err
}

// ListEntries returns the workspace trail, newest first.
func (s *auditService) ListEntries(ctx context.Context, workspaceID, userID string) ([]*repository.AuditLogEntry, error) {
	_, member, err := s.perms.RequireReader(ctx, workspaceID, userID)
	if err != nil {
		return nil, err
	}
	if !types.RoleHasCapability(member.Role, types.CapViewAuditLog) {
		return nil, ErrForbidden
	}
	return s.repos.AuditRepo.FindByWorkspaceID(ctx, workspaceID)
}
