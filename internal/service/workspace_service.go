// internal/service/workspace_service.go
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/eventra-app/workspace-backend/internal/repository"
	"github.com/eventra-app/workspace-backend/internal/types"
)

// ============================================
// Workspace Service
// ============================================

type WorkspaceService interface {
	Provision(ctx context.Context, eventID, requesterID string) (*repository.Workspace, error)
	GetByID(ctx context.Context, workspaceID, userID string) (*repository.Workspace, error)
	GetChannels(ctx context.Context, workspaceID, userID string) ([]*repository.WorkspaceChannel, error)
	Update(ctx context.Context, workspaceID, actorID, name string) (*repository.Workspace, error)
	Dissolve(ctx context.Context, workspaceID, actorID string, retentionDays *int) (*repository.Workspace, error)
	Status(ctx context.Context, workspaceID, actorID string) (string, []string, error)
	FinalizeDissolutions(ctx context.Context, now time.Time) (int, error)
}

type workspaceService struct {
	deps  ServiceDeps
	perms *permissionService
	audit AuditService
}

func NewWorkspaceService(deps ServiceDeps, perms *permissionService, audit AuditService) WorkspaceService {
	return &workspaceService{deps: deps, perms: perms, audit: audit}
}

// Provision creates the workspace for an event: the workspace row, the
// requester as WORKSPACE_OWNER, the three default channels and the first
// audit entry, all in one transaction. Exactly one workspace may exist
// per event.
func (s *workspaceService) Provision(ctx context.Context, eventID, requesterID string) (*repository.Workspace, error) {
	event, err := s.deps.Repos.EventRepo.FindByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrNotFound
	}
	if event.OrganizerID != requesterID {
		return nil, ErrForbidden
	}

	existing, err := s.deps.Repos.WorkspaceRepo.FindByEventID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrConflict
	}

	workspace := &repository.Workspace{
		EventID: eventID,
		Name:    fmt.Sprintf("%s Workspace", event.Name),
		Status:  types.WorkspaceActive,
	}
	owner := &repository.TeamMember{
		UserID: requesterID,
		Role:   types.RoleWorkspaceOwner,
		Status: types.MemberActive,
	}
	channels := make([]*repository.WorkspaceChannel, 0, len(types.DefaultChannelNames))
	for _, name := range types.DefaultChannelNames {
		channels = append(channels, &repository.WorkspaceChannel{Name: name})
	}
	entry := &repository.AuditLogEntry{
		ActorID: requesterID,
		Action:  "workspace.provision",
		Details: map[string]interface{}{"event_id": eventID, "name": workspace.Name},
	}

	if err := s.deps.Repos.WorkspaceRepo.Provision(ctx, workspace, owner, channels, entry); err != nil {
		if repository.IsDuplicate(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("failed to provision workspace: %w", err)
	}

	s.deps.Broadcaster.WorkspaceEvent(workspace.ID, "workspace.provisioned", workspace)
	return workspace, nil
}

// GetByID returns the workspace for an active member. Once dissolved,
// only the owner can still read it.
func (s *workspaceService) GetByID(ctx context.Context, workspaceID, userID string) (*repository.Workspace, error) {
	workspace, _, err := s.perms.RequireReader(ctx, workspaceID, userID)
	if err != nil {
		return nil, err
	}
	return workspace, nil
}

func (s *workspaceService) GetChannels(ctx context.Context, workspaceID, userID string) ([]*repository.WorkspaceChannel, error) {
	if _, err := s.GetByID(ctx, workspaceID, userID); err != nil {
		return nil, err
	}
	return s.deps.Repos.WorkspaceRepo.FindChannels(ctx, workspaceID)
}

func (s *workspaceService) Update(ctx context.Context, workspaceID, actorID, name string) (*repository.Workspace, error) {
	var workspace *repository.Workspace
	details := map[string]interface{}{}

	err := s.audit.Audited(ctx, workspaceID, actorID, "workspace.update", details, func() error {
		if _, err := s.perms.RequireCapability(ctx, workspaceID, actorID, types.CapManageWorkspace); err != nil {
			return err
		}

		var err error
		workspace, err = s.deps.Repos.WorkspaceRepo.FindByID(ctx, workspaceID)
		if err != nil {
			return err
		}
		if workspace == nil {
			return ErrNotFound
		}
		if workspace.Status == types.WorkspaceDissolved {
			return ErrConflict
		}
		if name == "" {
			return fmt.Errorf("%w: name is required", ErrValidation)
		}

		details["name_before"] = workspace.Name
		details["name_after"] = name
		workspace.Name = name
		return s.deps.Repos.WorkspaceRepo.Update(ctx, workspace)
	})
	if err != nil {
		return nil, err
	}

	s.deps.Broadcaster.WorkspaceEvent(workspaceID, "workspace.updated", workspace)
	return workspace, nil
}

// Dissolve moves an ACTIVE workspace to WINDING_DOWN and schedules the
// final DISSOLVED flip after the retention window. Zero retention
// dissolves in the same call. Rows are never deleted.
func (s *workspaceService) Dissolve(ctx context.Context, workspaceID, actorID string, retentionDays *int) (*repository.Workspace, error) {
	days := s.clampRetention(retentionDays)
	var workspace *repository.Workspace
	details := map[string]interface{}{"retention_days": days}

	err := s.audit.Audited(ctx, workspaceID, actorID, "workspace.dissolve", details, func() error {
		if _, err := s.perms.RequireCapability(ctx, workspaceID, actorID, types.CapDissolveWorkspace); err != nil {
			return err
		}

		var err error
		workspace, err = s.deps.Repos.WorkspaceRepo.FindByID(ctx, workspaceID)
		if err != nil {
			return err
		}
		if workspace == nil {
			return ErrNotFound
		}
		if !types.CanTransitionWorkspace(workspace.Status, types.WorkspaceWindingDown) {
			return ErrConflict
		}

		dissolveAt := time.Now().Add(time.Duration(days) * 24 * time.Hour)
		workspace.Status = types.WorkspaceWindingDown
		workspace.DissolveAt = &dissolveAt
		if err := s.deps.Repos.WorkspaceRepo.Update(ctx, workspace); err != nil {
			return err
		}

		if days == 0 {
			workspace.Status = types.WorkspaceDissolved
			return s.deps.Repos.WorkspaceRepo.Update(ctx, workspace)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.deps.Broadcaster.WorkspaceEvent(workspaceID, "workspace.winding_down", workspace)
	if workspace.Status == types.WorkspaceDissolved {
		s.deps.Broadcaster.WorkspaceEvent(workspaceID, "workspace.dissolved", workspace)
	}
	return workspace, nil
}

// Status returns the workspace status and the statuses it can still
// transition to.
func (s *workspaceService) Status(ctx context.Context, workspaceID, actorID string) (string, []string, error) {
	workspace, _, err := s.perms.RequireReader(ctx, workspaceID, actorID)
	if err != nil {
		return "", nil, err
	}

	next := append([]string(nil), types.WorkspaceTransitions[workspace.Status]...)
	if next == nil {
		next = []string{}
	}
	return workspace.Status, next, nil
}

// FinalizeDissolutions flips WINDING_DOWN workspaces whose retention
// window has passed to DISSOLVED. Safe to re-run: already-dissolved
// workspaces are never selected.
func (s *workspaceService) FinalizeDissolutions(ctx context.Context, now time.Time) (int, error) {
	expired, err := s.deps.Repos.WorkspaceRepo.FindRetentionExpired(ctx, now)
	if err != nil {
		return 0, err
	}

	finalized := 0
	for _, workspace := range expired {
		workspace.Status = types.WorkspaceDissolved
		if err := s.deps.Repos.WorkspaceRepo.Update(ctx, workspace); err != nil {
			return finalized, err
		}
		s.audit.Record(ctx, workspace.ID, "system", "workspace.dissolve.finalized", map[string]interface{}{
			"dissolve_at": workspace.DissolveAt,
		})
		s.deps.Broadcaster.WorkspaceEvent(workspace.ID, "workspace.dissolved", workspace)
		finalized++
	}
	return finalized, nil
}

func (s *workspaceService) clampRetention(retentionDays *int) int {
	days := s.deps.Config.DefaultRetentionDays
	if retentionDays != nil {
		days = *retentionDays
	}
	if days < 0 {
		days = 0
	}
	if days > s.deps.Config.MaxRetentionDays {
		days = s.deps.Config.MaxRetentionDays
	}
	return days
}
