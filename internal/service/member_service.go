// internal/service/member_service.go
package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/eventra-app/workspace-backend/internal/repository"
	"github.com/eventra-app/workspace-backend/internal/types"
	"github.com/google/uuid"
)

const invitationTTL = 7 * 24 * time.Hour

// ============================================
// Member Service
// ============================================

type MemberService interface {
	Invite(ctx context.Context, workspaceID, inviterID, email, role string) (*repository.Invitation, error)
	AcceptInvitation(ctx context.Context, token, userID string) (*repository.TeamMember, error)
	UpdateRole(ctx context.Context, workspaceID, actorID, memberID, newRole string) (*repository.TeamMember, error)
	Remove(ctx context.Context, workspaceID, actorID, memberID string) error
	List(ctx context.Context, workspaceID, userID string) ([]*repository.TeamMember, error)
	ListInvitations(ctx context.Context, workspaceID, actorID string) ([]*repository.Invitation, error)
	CancelInvitation(ctx context.Context, workspaceID, actorID, invitationID string) error
}

type memberService struct {
	deps  ServiceDeps
	perms *permissionService
	audit AuditService
}

func NewMemberService(deps ServiceDeps, perms *permissionService, audit AuditService) MemberService {
	return &memberService{deps: deps, perms: perms, audit: audit}
}

// Invite issues a pending invitation with a 7-day expiry. The owner role
// cannot be granted by invitation.
func (s *memberService) Invite(ctx context.Context, workspaceID, inviterID, email, role string) (*repository.Invitation, error) {
	var invitation *repository.Invitation
	details := map[string]interface{}{"email": email, "role": role}

	err := s.audit.Audited(ctx, workspaceID, inviterID, "member.invite", details, func() error {
		if _, err := s.perms.RequireCapability(ctx, workspaceID, inviterID, types.CapInviteMembers); err != nil {
			return err
		}
		if !types.IsInvitableRole(role) {
			return fmt.Errorf("%w: invalid role %q", ErrValidation, role)
		}

		workspace, err := s.deps.Repos.WorkspaceRepo.FindByID(ctx, workspaceID)
		if err != nil {
			return err
		}
		if workspace == nil {
			return ErrNotFound
		}
		if workspace.Status == types.WorkspaceDissolved {
			return ErrConflict
		}

		// a user who already holds an active membership cannot be reinvited
		user, err := s.deps.Repos.UserRepo.FindByEmail(ctx, email)
		if err != nil {
			return err
		}
		if user != nil {
			existing, err := s.deps.Repos.WorkspaceRepo.FindMember(ctx, workspaceID, user.ID)
			if err != nil {
				return err
			}
			if existing != nil {
				return ErrConflict
			}
		}
		pending, err := s.deps.Repos.InvitationRepo.FindPending(ctx, workspaceID, email)
		if err != nil {
			return err
		}
		if pending != nil && !pending.IsExpired() {
			return ErrConflict
		}

		invitation = &repository.Invitation{
			WorkspaceID: workspaceID,
			Email:       strings.ToLower(email),
			Role:        role,
			Token:       uuid.NewString(),
			InvitedBy:   inviterID,
			Status:      types.InvitationPending,
			ExpiresAt:   time.Now().Add(invitationTTL),
		}
		if err := s.deps.Repos.InvitationRepo.Create(ctx, invitation); err != nil {
			return fmt.Errorf("failed to create invitation: %w", err)
		}

		if s.deps.EmailSvc != nil {
			inviterName := ""
			if inviter, _ := s.deps.Repos.UserRepo.FindByID(ctx, inviterID); inviter != nil {
				inviterName = inviter.Name
			}
			if err := s.deps.EmailSvc.SendInvitation(invitation.Email, inviterName, workspace.Name, invitation.Token); err != nil {
				log.Printf("[Member] failed to send invitation email to %s: %v", invitation.Email, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return invitation, nil
}

// AcceptInvitation converts a pending invitation into an ACTIVE membership.
// The accepting user's email must match the invitation.
func (s *memberService) AcceptInvitation(ctx context.Context, token, userID string) (*repository.TeamMember, error) {
	invitation, err := s.deps.Repos.InvitationRepo.FindByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if invitation == nil {
		return nil, ErrNotFound
	}
	if invitation.Status != types.InvitationPending {
		return nil, ErrConflict
	}
	if invitation.IsExpired() {
		invitation.Status = types.InvitationExpired
		s.deps.Repos.InvitationRepo.Update(ctx, invitation)
		return nil, ErrInvitationExpired
	}

	user, err := s.deps.Repos.UserRepo.FindByID(ctx, userID)
	if err != nil || user == nil {
		return nil, ErrUserNotFound
	}
	if !strings.EqualFold(user.Email, invitation.Email) {
		return nil, ErrForbidden
	}

	workspace, err := s.deps.Repos.WorkspaceRepo.FindByID(ctx, invitation.WorkspaceID)
	if err != nil {
		return nil, err
	}
	if workspace == nil || workspace.Status == types.WorkspaceDissolved {
		return nil, ErrNotFound
	}

	if existing, _ := s.deps.Repos.WorkspaceRepo.FindMember(ctx, invitation.WorkspaceID, userID); existing != nil {
		return nil, ErrConflict
	}

	member := &repository.TeamMember{
		WorkspaceID: invitation.WorkspaceID,
		UserID:      userID,
		Role:        invitation.Role,
		Status:      types.MemberActive,
		InvitedBy:   &invitation.InvitedBy,
	}
	if err := s.deps.Repos.WorkspaceRepo.AddMember(ctx, member); err != nil {
		// a concurrent acceptance can win the unique index race
		if repository.IsDuplicate(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	now := time.Now()
	invitation.Status = types.InvitationAccepted
	invitation.AcceptedAt = &now
	if err := s.deps.Repos.InvitationRepo.Update(ctx, invitation); err != nil {
		log.Printf("[Member] failed to mark invitation %s accepted: %v", invitation.ID, err)
	}

	s.audit.Record(ctx, invitation.WorkspaceID, userID, "member.join", map[string]interface{}{
		"role":       member.Role,
		"invited_by": invitation.InvitedBy,
	})
	s.deps.Broadcaster.WorkspaceEvent(invitation.WorkspaceID, "member.joined", member)
	return member, nil
}

// UpdateRole changes a member's role. The owner's role is immutable.
func (s *memberService) UpdateRole(ctx context.Context, workspaceID, actorID, memberID, newRole string) (*repository.TeamMember, error) {
	var member *repository.TeamMember
	details := map[string]interface{}{"member_id": memberID, "role_after": newRole}

	err := s.audit.Audited(ctx, workspaceID, actorID, "member.role_change", details, func() error {
		if _, err := s.perms.RequireCapability(ctx, workspaceID, actorID, types.CapManageMembers); err != nil {
			return err
		}
		if !types.IsInvitableRole(newRole) {
			return fmt.Errorf("%w: invalid role %q", ErrValidation, newRole)
		}

		var err error
		member, err = s.deps.Repos.WorkspaceRepo.FindMemberByID(ctx, memberID)
		if err != nil {
			return err
		}
		if member == nil || member.WorkspaceID != workspaceID || member.Status != types.MemberActive {
			return ErrNotFound
		}
		if member.Role == types.RoleWorkspaceOwner {
			return ErrForbidden
		}

		details["role_before"] = member.Role
		member.Role = newRole
		return s.deps.Repos.WorkspaceRepo.UpdateMember(ctx, member)
	})
	if err != nil {
		return nil, err
	}

	s.deps.Broadcaster.WorkspaceEvent(workspaceID, "member.role_changed", member)
	return member, nil
}

// Remove soft-removes a member. The owner cannot be removed.
func (s *memberService) Remove(ctx context.Context, workspaceID, actorID, memberID string) error {
	details := map[string]interface{}{"member_id": memberID}

	err := s.audit.Audited(ctx, workspaceID, actorID, "member.remove", details, func() error {
		if _, err := s.perms.RequireCapability(ctx, workspaceID, actorID, types.CapManageMembers); err != nil {
			return err
		}

		member, err := s.deps.Repos.WorkspaceRepo.FindMemberByID(ctx, memberID)
		if err != nil {
			return err
		}
		if member == nil || member.WorkspaceID != workspaceID || member.Status != types.MemberActive {
			return ErrNotFound
		}
		if member.Role == types.RoleWorkspaceOwner {
			return ErrForbidden
		}

		details["user_id"] = member.UserID
		details["role"] = member.Role
		member.Status = types.MemberRemoved
		return s.deps.Repos.WorkspaceRepo.UpdateMember(ctx, member)
	})
	if err != nil {
		return err
	}

	s.deps.Broadcaster.WorkspaceEvent(workspaceID, "member.removed", map[string]string{"member_id": memberID})
	return nil
}

func (s *memberService) List(ctx context.Context, workspaceID, userID string) ([]*repository.TeamMember, error) {
	if _, _, err := s.perms.RequireReader(ctx, workspaceID, userID); err != nil {
		return nil, err
	}

	members, err := s.deps.Repos.WorkspaceRepo.FindMembers(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	for _, m := range members {
		user, _ := s.deps.Repos.UserRepo.FindByID(ctx, m.UserID)
		m.User = user
	}
	return members, nil
}

func (s *memberService) ListInvitations(ctx context.Context, workspaceID, actorID string) ([]*repository.Invitation, error) {
	_, member, err := s.perms.RequireReader(ctx, workspaceID, actorID)
	if err != nil {
		return nil, err
	}
	if !types.RoleHasCapability(member.Role, types.CapInviteMembers) {
		return nil, ErrForbidden
	}
	return s.deps.Repos.InvitationRepo.FindByWorkspaceID(ctx, workspaceID)
}

func (s *memberService) CancelInvitation(ctx context.Context, workspaceID, actorID, invitationID string) error {
	details := map[string]interface{}{"invitation_id": invitationID}

	return s.audit.Audited(ctx, workspaceID, actorID, "invitation.cancel", details, func() error {
		if _, err := s.perms.RequireCapability(ctx, workspaceID, actorID, types.CapInviteMembers); err != nil {
			return err
		}

		invitation, err := s.deps.Repos.InvitationRepo.FindByID(ctx, invitationID)
		if err != nil {
			return err
		}
		if invitation == nil || invitation.WorkspaceID != workspaceID {
			return ErrNotFound
		}
		if invitation.Status != types.InvitationPending {
			return ErrConflict
		}

		details["email"] = invitation.Email
		invitation.Status = types.InvitationCancelled
		return s.deps.Repos.InvitationRepo.Update(ctx, invitation)
	})
}
