package service_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/eventra-app/workspace-backend/internal/repository"
	"github.com/eventra-app/workspace-backend/internal/service"
	"github.com/eventra-app/workspace-backend/internal/types"
)

var _ = Describe("MemberService", func() {
	var env *testEnv

	BeforeEach(func() {
		env = newTestEnv()
	})

	Describe("Invite", func() {
		It("issues a pending invitation with a token and normalized email", func() {
			workspace, owner := env.provisionWorkspace()

			invitation, err := env.services.Member.Invite(ctx, workspace.ID, owner.ID, "Invitee@Example.COM", types.RoleEventCoordinator)
			Expect(err).NotTo(HaveOccurred())
			Expect(invitation.Status).To(Equal(types.InvitationPending))
			Expect(invitation.Token).NotTo(BeEmpty())
			Expect(invitation.Email).To(Equal("invitee@example.com"))
			Expect(invitation.Role).To(Equal(types.RoleEventCoordinator))
			Expect(invitation.ExpiresAt).To(BeTemporally(">", time.Now().Add(6*24*time.Hour)))
		})

		It("never grants the owner role by invitation", func() {
			workspace, owner := env.provisionWorkspace()

			_, err := env.services.Member.Invite(ctx, workspace.ID, owner.ID, "invitee@example.com", types.RoleWorkspaceOwner)
			Expect(err).To(MatchError(service.ErrValidation))
		})

		It("denies inviters without the capability and audits the attempt", func() {
			workspace, _ := env.provisionWorkspace()
			volunteer := env.createUser("volunteer")
			env.addMember(workspace.ID, volunteer, types.RoleGeneralVolunteer)

			_, err := env.services.Member.Invite(ctx, workspace.ID, volunteer.ID, "invitee@example.com", types.RoleTeamLead)
			Expect(err).To(MatchError(service.ErrForbidden))
			Expect(env.auditActions(workspace.ID)).To(ContainElement("member.invite.denied"))
		})

		It("rejects inviting a user who is already an active member", func() {
			workspace, owner := env.provisionWorkspace()
			existing := env.createUser("existing")
			env.addMember(workspace.ID, existing, types.RoleTeamLead)

			_, err := env.services.Member.Invite(ctx, workspace.ID, owner.ID, existing.Email, types.RoleTeamLead)
			Expect(err).To(MatchError(service.ErrConflict))
		})

		It("rejects a duplicate pending invitation for the same email", func() {
			workspace, owner := env.provisionWorkspace()

			_, err := env.services.Member.Invite(ctx, workspace.ID, owner.ID, "invitee@example.com", types.RoleTeamLead)
			Expect(err).NotTo(HaveOccurred())

			_, err = env.services.Member.Invite(ctx, workspace.ID, owner.ID, "invitee@example.com", types.RoleTeamLead)
			Expect(err).To(MatchError(service.ErrConflict))
		})

		It("aborts when the pending-invitation lookup fails instead of skipping the check", func() {
			workspace, owner := env.provisionWorkspace()
			env.repos.InvitationRepo = &failingInvitationRepo{InvitationRepository: env.repos.InvitationRepo}

			_, err := env.services.Member.Invite(ctx, workspace.ID, owner.ID, "invitee@example.com", types.RoleTeamLead)
			Expect(err).To(MatchError(errInvitationStore))

			invitations, err := env.repos.InvitationRepo.FindByWorkspaceID(ctx, workspace.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(invitations).To(BeEmpty())
		})
	})

	Describe("AcceptInvitation", func() {
		It("converts the invitation into an active membership", func() {
			workspace, owner := env.provisionWorkspace()
			invitee := env.createUser("invitee")

			invitation, err := env.services.Member.Invite(ctx, workspace.ID, owner.ID, invitee.Email, types.RoleEventCoordinator)
			Expect(err).NotTo(HaveOccurred())

			member, err := env.services.Member.AcceptInvitation(ctx, invitation.Token, invitee.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(member.Role).To(Equal(types.RoleEventCoordinator))
			Expect(member.Status).To(Equal(types.MemberActive))

			members, err := env.repos.WorkspaceRepo.FindMembers(ctx, workspace.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(members).To(HaveLen(2))

			accepted, err := env.repos.InvitationRepo.FindByID(ctx, invitation.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(accepted.Status).To(Equal(types.InvitationAccepted))
			Expect(accepted.AcceptedAt).NotTo(BeNil())

			Expect(env.auditActions(workspace.ID)).To(ContainElement("member.join"))
		})

		It("rejects acceptance by a user whose email does not match", func() {
			workspace, owner := env.provisionWorkspace()
			imposter := env.createUser("imposter")

			invitation, err := env.services.Member.Invite(ctx, workspace.ID, owner.ID, "someoneelse@example.com", types.RoleTeamLead)
			Expect(err).NotTo(HaveOccurred())

			_, err = env.services.Member.AcceptInvitation(ctx, invitation.Token, imposter.ID)
			Expect(err).To(MatchError(service.ErrForbidden))
		})

		It("rejects a second acceptance of the same invitation", func() {
			workspace, owner := env.provisionWorkspace()
			invitee := env.createUser("invitee")

			invitation, err := env.services.Member.Invite(ctx, workspace.ID, owner.ID, invitee.Email, types.RoleTeamLead)
			Expect(err).NotTo(HaveOccurred())

			_, err = env.services.Member.AcceptInvitation(ctx, invitation.Token, invitee.ID)
			Expect(err).NotTo(HaveOccurred())

			_, err = env.services.Member.AcceptInvitation(ctx, invitation.Token, invitee.ID)
			Expect(err).To(MatchError(service.ErrConflict))
		})

		It("marks expired invitations and refuses them", func() {
			workspace, owner := env.provisionWorkspace()
			invitee := env.createUser("invitee")

			invitation := &repository.Invitation{
				WorkspaceID: workspace.ID,
				Email:       invitee.Email,
				Role:        types.RoleTeamLead,
				Token:       "expired-token",
				InvitedBy:   owner.ID,
				Status:      types.InvitationPending,
				ExpiresAt:   time.Now().Add(-time.Hour),
			}
			Expect(env.repos.InvitationRepo.Create(ctx, invitation)).To(Succeed())

			_, err := env.services.Member.AcceptInvitation(ctx, invitation.Token, invitee.ID)
			Expect(err).To(MatchError(service.ErrInvitationExpired))

			stored, err := env.repos.InvitationRepo.FindByID(ctx, invitation.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Status).To(Equal(types.InvitationExpired))
		})

		It("rejects an unknown token", func() {
			env.provisionWorkspace()
			user := env.createUser("user")

			_, err := env.services.Member.AcceptInvitation(ctx, "no-such-token", user.ID)
			Expect(err).To(MatchError(service.ErrNotFound))
		})
	})

	Describe("UpdateRole", func() {
		It("changes a member's role", func() {
			workspace, owner := env.provisionWorkspace()
			user := env.createUser("member")
			member := env.addMember(workspace.ID, user, types.RoleTeamLead)

			updated, err := env.services.Member.UpdateRole(ctx, workspace.ID, owner.ID, member.ID, types.RoleEventCoordinator)
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Role).To(Equal(types.RoleEventCoordinator))
			Expect(env.auditActions(workspace.ID)[0]).To(Equal("member.role_change"))
		})

		It("never demotes the owner", func() {
			workspace, owner := env.provisionWorkspace()
			coordinator := env.createUser("coordinator")
			env.addMember(workspace.ID, coordinator, types.RoleEventCoordinator)

			ownerMember, err := env.repos.WorkspaceRepo.FindMember(ctx, workspace.ID, owner.ID)
			Expect(err).NotTo(HaveOccurred())

			_, err = env.services.Member.UpdateRole(ctx, workspace.ID, coordinator.ID, ownerMember.ID, types.RoleTeamLead)
			Expect(err).To(MatchError(service.ErrForbidden))
		})

		It("rejects granting the owner role", func() {
			workspace, owner := env.provisionWorkspace()
			user := env.createUser("member")
			member := env.addMember(workspace.ID, user, types.RoleTeamLead)

			_, err := env.services.Member.UpdateRole(ctx, workspace.ID, owner.ID, member.ID, types.RoleWorkspaceOwner)
			Expect(err).To(MatchError(service.ErrValidation))
		})
	})

	Describe("Remove", func() {
		It("soft-removes the member and revokes access", func() {
			workspace, owner := env.provisionWorkspace()
			user := env.createUser("member")
			member := env.addMember(workspace.ID, user, types.RoleTeamLead)

			Expect(env.services.Member.Remove(ctx, workspace.ID, owner.ID, member.ID)).To(Succeed())

			removed, err := env.repos.WorkspaceRepo.FindMemberByID(ctx, member.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(removed.Status).To(Equal(types.MemberRemoved))

			// no longer an active member
			_, err = env.services.Member.List(ctx, workspace.ID, user.ID)
			Expect(err).To(MatchError(service.ErrForbidden))
		})

		It("never removes the owner", func() {
			workspace, owner := env.provisionWorkspace()

			ownerMember, err := env.repos.WorkspaceRepo.FindMember(ctx, workspace.ID, owner.ID)
			Expect(err).NotTo(HaveOccurred())

			err = env.services.Member.Remove(ctx, workspace.ID, owner.ID, ownerMember.ID)
			Expect(err).To(MatchError(service.ErrForbidden))
		})
	})

	Describe("CancelInvitation", func() {
		It("cancels a pending invitation exactly once", func() {
			workspace, owner := env.provisionWorkspace()

			invitation, err := env.services.Member.Invite(ctx, workspace.ID, owner.ID, "invitee@example.com", types.RoleTeamLead)
			Expect(err).NotTo(HaveOccurred())

			Expect(env.services.Member.CancelInvitation(ctx, workspace.ID, owner.ID, invitation.ID)).To(Succeed())

			cancelled, err := env.repos.InvitationRepo.FindByID(ctx, invitation.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(cancelled.Status).To(Equal(types.InvitationCancelled))

			err = env.services.Member.CancelInvitation(ctx, workspace.ID, owner.ID, invitation.ID)
			Expect(err).To(MatchError(service.ErrConflict))
		})
	})

	Describe("List", func() {
		It("attaches user details and requires membership", func() {
			workspace, owner := env.provisionWorkspace()
			user := env.createUser("member")
			env.addMember(workspace.ID, user, types.RoleTeamLead)

			members, err := env.services.Member.List(ctx, workspace.ID, owner.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(members).To(HaveLen(2))
			for _, m := range members {
				Expect(m.User).NotTo(BeNil())
			}

			outsider := env.createUser("outsider")
			_, err = env.services.Member.List(ctx, workspace.ID, outsider.ID)
			Expect(err).To(MatchError(service.ErrForbidden))
		})
	})
})

var errInvitationStore = errors.New("invitation store unavailable")

// failingInvitationRepo delegates to the real repository except for the
// pending lookup, which always errors.
type failingInvitationRepo struct {
	repository.InvitationRepository
}

func (r *failingInvitationRepo) FindPending(ctx context.Context, workspaceID, email string) (*repository.Invitation, error) {
	return nil, errInvitationStore
}
