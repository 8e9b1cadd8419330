// internal/service/permission_service.go
package service

import (
	"context"

	"github.com/eventra-app/workspace-backend/internal/repository"
	"github.com/eventra-app/workspace-backend/internal/types"
)

// permissionService resolves a user's active membership and checks role
// capabilities. Membership is always re-read from the repository so a role
// change or removal takes effect on the next call.
type permissionService struct {
	repos *repository.Repositories
}

func newPermissionService(repos *repository.Repositories) *permissionService {
	return &permissionService{repos: repos}
}

// RequireMember returns the caller's ACTIVE membership in the workspace,
// or ErrForbidden when the user is not an active member.
func (s *permissionService) RequireMember(ctx context.Context, workspaceID, userID string) (*repository.TeamMember, error) {
	member, err := s.repos.WorkspaceRepo.FindMember(ctx, workspaceID, userID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrForbidden
	}
	return member, nil
}

// RequireReader resolves the workspace and the caller's membership for a
// read. A DISSOLVED workspace is readable only by its owner; membership
// rows survive dissolution, so the status check cannot be skipped.
func (s *permissionService) RequireReader(ctx context.Context, workspaceID, userID string) (*repository.Workspace, *repository.TeamMember, error) {
	workspace, err := s.repos.WorkspaceRepo.FindByID(ctx, workspaceID)
	if err != nil {
		return nil, nil, err
	}
	if workspace == nil {
		return nil, nil, ErrNotFound
	}

	member, err := s.RequireMember(ctx, workspaceID, userID)
	if err != nil {
		return nil, nil, err
	}
	if workspace.Status == types.WorkspaceDissolved && member.Role != types.RoleWorkspaceOwner {
		return nil, nil, ErrForbidden
	}
	return workspace, member, nil
}

// RequireCapability checks active membership and that the member's role
// grants the capability.
func (s *permissionService) RequireCapability(ctx context.Context, workspaceID, userID string, cap types.Capability) (*repository.TeamMember, error) {
	member, err := s.RequireMember(ctx, workspaceID, userID)
	if err != nil {
		return nil, err
	}
	if !types.RoleHasCapability(member.Role, cap) {
		return nil, ErrForbidden
	}
	return member, nil
}

// HasCapability reports whether the user holds the capability without
// returning an error, for callers that branch rather than deny.
func (s *permissionService) HasCapability(ctx context.Context, workspaceID, userID string, cap types.Capability) bool {
	member, err := s.repos.WorkspaceRepo.FindMember(ctx, workspaceID, userID)
	if err != nil || member == nil {
		return false
	}
	return types.RoleHasCapability(member.Role, cap)
}
