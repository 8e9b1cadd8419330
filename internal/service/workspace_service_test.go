package service_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/eventra-app/workspace-backend/internal/service"
	"github.com/eventra-app/workspace-backend/internal/types"
)

var _ = Describe("WorkspaceService", func() {
	var env *testEnv

	BeforeEach(func() {
		env = newTestEnv()
	})

	Describe("Provision", func() {
		It("creates the workspace with its owner and the three default channels", func() {
			organizer := env.createUser("organizer")
			event := env.createEvent(organizer.ID, "Summit", "conference")

			workspace, err := env.services.Workspace.Provision(ctx, event.ID, organizer.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(workspace.EventID).To(Equal(event.ID))
			Expect(workspace.Name).To(Equal("Summit Workspace"))
			Expect(workspace.Status).To(Equal(types.WorkspaceActive))

			members, err := env.repos.WorkspaceRepo.FindMembers(ctx, workspace.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(members).To(HaveLen(1))
			Expect(members[0].UserID).To(Equal(organizer.ID))
			Expect(members[0].Role).To(Equal(types.RoleWorkspaceOwner))
			Expect(members[0].Status).To(Equal(types.MemberActive))

			channels, err := env.repos.WorkspaceRepo.FindChannels(ctx, workspace.ID)
			Expect(err).NotTo(HaveOccurred())
			names := make([]string, len(channels))
			for i, ch := range channels {
				names[i] = ch.Name
			}
			Expect(names).To(Equal([]string{"general", "announcements", "tasks"}))

			Expect(env.auditActions(workspace.ID)).To(ContainElement("workspace.provision"))
		})

		It("rejects a second workspace for the same event", func() {
			organizer := env.createUser("organizer")
			event := env.createEvent(organizer.ID, "Summit", "conference")

			first, err := env.services.Workspace.Provision(ctx, event.ID, organizer.ID)
			Expect(err).NotTo(HaveOccurred())

			_, err = env.services.Workspace.Provision(ctx, event.ID, organizer.ID)
			Expect(err).To(MatchError(service.ErrConflict))

			unchanged, err := env.repos.WorkspaceRepo.FindByID(ctx, first.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(unchanged.Status).To(Equal(types.WorkspaceActive))
		})

		It("rejects a requester who is not the event organizer", func() {
			organizer := env.createUser("organizer")
			other := env.createUser("other")
			event := env.createEvent(organizer.ID, "Summit", "conference")

			_, err := env.services.Workspace.Provision(ctx, event.ID, other.ID)
			Expect(err).To(MatchError(service.ErrForbidden))
		})

		It("rejects an unknown event", func() {
			user := env.createUser("organizer")
			_, err := env.services.Workspace.Provision(ctx, "missing", user.ID)
			Expect(err).To(MatchError(service.ErrNotFound))
		})
	})

	Describe("GetByID", func() {
		It("denies non-members", func() {
			workspace, _ := env.provisionWorkspace()
			outsider := env.createUser("outsider")

			_, err := env.services.Workspace.GetByID(ctx, workspace.ID, outsider.ID)
			Expect(err).To(MatchError(service.ErrForbidden))
		})

		It("restricts dissolved workspaces to the owner", func() {
			workspace, owner := env.provisionWorkspace()
			volunteer := env.createUser("volunteer")
			env.addMember(workspace.ID, volunteer, types.RoleGeneralVolunteer)

			zero := 0
			_, err := env.services.Workspace.Dissolve(ctx, workspace.ID, owner.ID, &zero)
			Expect(err).NotTo(HaveOccurred())

			_, err = env.services.Workspace.GetByID(ctx, workspace.ID, owner.ID)
			Expect(err).NotTo(HaveOccurred())

			_, err = env.services.Workspace.GetByID(ctx, workspace.ID, volunteer.ID)
			Expect(err).To(MatchError(service.ErrForbidden))
		})

		It("closes every read path of a dissolved workspace to non-owners", func() {
			workspace, owner := env.provisionWorkspace()
			coordinator := env.createUser("coordinator")
			env.addMember(workspace.ID, coordinator, types.RoleEventCoordinator)

			task, err := env.services.Task.Create(ctx, workspace.ID, owner.ID, "Book venue", nil, types.CategoryLogistics, "", nil, nil)
			Expect(err).NotTo(HaveOccurred())

			zero := 0
			_, err = env.services.Workspace.Dissolve(ctx, workspace.ID, owner.ID, &zero)
			Expect(err).NotTo(HaveOccurred())

			// the coordinator's membership row is still ACTIVE, but the
			// workspace is gone for everyone but the owner
			_, err = env.services.Task.List(ctx, workspace.ID, coordinator.ID)
			Expect(err).To(MatchError(service.ErrForbidden))
			_, _, err = env.services.Task.Get(ctx, task.ID, coordinator.ID)
			Expect(err).To(MatchError(service.ErrForbidden))
			_, err = env.services.Task.Summary(ctx, workspace.ID, coordinator.ID)
			Expect(err).To(MatchError(service.ErrForbidden))
			_, err = env.services.Member.List(ctx, workspace.ID, coordinator.ID)
			Expect(err).To(MatchError(service.ErrForbidden))
			_, err = env.services.Member.ListInvitations(ctx, workspace.ID, coordinator.ID)
			Expect(err).To(MatchError(service.ErrForbidden))
			_, _, err = env.services.Workspace.Status(ctx, workspace.ID, coordinator.ID)
			Expect(err).To(MatchError(service.ErrForbidden))
			_, err = env.services.Audit.ListEntries(ctx, workspace.ID, coordinator.ID)
			Expect(err).To(MatchError(service.ErrForbidden))

			// the owner keeps read access throughout
			_, err = env.services.Task.List(ctx, workspace.ID, owner.ID)
			Expect(err).NotTo(HaveOccurred())
			_, err = env.services.Member.List(ctx, workspace.ID, owner.ID)
			Expect(err).NotTo(HaveOccurred())
			_, err = env.services.Audit.ListEntries(ctx, workspace.ID, owner.ID)
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("Update", func() {
		It("renames the workspace for an authorized actor", func() {
			workspace, owner := env.provisionWorkspace()

			updated, err := env.services.Workspace.Update(ctx, workspace.ID, owner.ID, "Renamed")
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Name).To(Equal("Renamed"))
			Expect(env.auditActions(workspace.ID)[0]).To(Equal("workspace.update"))
		})

		It("denies a general volunteer and leaves the row unchanged", func() {
			workspace, _ := env.provisionWorkspace()
			volunteer := env.createUser("volunteer")
			env.addMember(workspace.ID, volunteer, types.RoleGeneralVolunteer)

			_, err := env.services.Workspace.Update(ctx, workspace.ID, volunteer.ID, "Hijacked")
			Expect(err).To(MatchError(service.ErrForbidden))

			unchanged, err := env.repos.WorkspaceRepo.FindByID(ctx, workspace.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(unchanged.Name).To(Equal(workspace.Name))
		})

		It("rejects an empty name", func() {
			workspace, owner := env.provisionWorkspace()

			_, err := env.services.Workspace.Update(ctx, workspace.ID, owner.ID, "")
			Expect(err).To(MatchError(service.ErrValidation))
		})
	})

	Describe("Dissolve", func() {
		It("moves to WINDING_DOWN with the default retention window", func() {
			workspace, owner := env.provisionWorkspace()

			dissolved, err := env.services.Workspace.Dissolve(ctx, workspace.ID, owner.ID, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(dissolved.Status).To(Equal(types.WorkspaceWindingDown))
			Expect(dissolved.DissolveAt).NotTo(BeNil())
			Expect(dissolved.DissolveAt.Sub(time.Now())).To(BeNumerically("~", 30*24*time.Hour, time.Minute))
		})

		It("dissolves immediately with zero retention", func() {
			workspace, owner := env.provisionWorkspace()

			zero := 0
			dissolved, err := env.services.Workspace.Dissolve(ctx, workspace.ID, owner.ID, &zero)
			Expect(err).NotTo(HaveOccurred())
			Expect(dissolved.Status).To(Equal(types.WorkspaceDissolved))
		})

		It("clamps retention to the configured maximum", func() {
			workspace, owner := env.provisionWorkspace()

			huge := 1000
			dissolved, err := env.services.Workspace.Dissolve(ctx, workspace.ID, owner.ID, &huge)
			Expect(err).NotTo(HaveOccurred())
			Expect(dissolved.DissolveAt.Sub(time.Now())).To(BeNumerically("~", 365*24*time.Hour, time.Minute))
		})

		It("treats negative retention as zero", func() {
			workspace, owner := env.provisionWorkspace()

			negative := -5
			dissolved, err := env.services.Workspace.Dissolve(ctx, workspace.ID, owner.ID, &negative)
			Expect(err).NotTo(HaveOccurred())
			Expect(dissolved.Status).To(Equal(types.WorkspaceDissolved))
		})

		It("rejects dissolving a workspace that is already winding down", func() {
			workspace, owner := env.provisionWorkspace()

			_, err := env.services.Workspace.Dissolve(ctx, workspace.ID, owner.ID, nil)
			Expect(err).NotTo(HaveOccurred())

			_, err = env.services.Workspace.Dissolve(ctx, workspace.ID, owner.ID, nil)
			Expect(err).To(MatchError(service.ErrConflict))
		})

		It("denies non-owners and audits the attempt", func() {
			workspace, _ := env.provisionWorkspace()
			coordinator := env.createUser("coordinator")
			env.addMember(workspace.ID, coordinator, types.RoleEventCoordinator)

			_, err := env.services.Workspace.Dissolve(ctx, workspace.ID, coordinator.ID, nil)
			Expect(err).To(MatchError(service.ErrForbidden))
			Expect(env.auditActions(workspace.ID)).To(ContainElement("workspace.dissolve.denied"))
		})
	})

	Describe("Status", func() {
		It("reports the current status and reachable transitions", func() {
			workspace, owner := env.provisionWorkspace()

			status, next, err := env.services.Workspace.Status(ctx, workspace.ID, owner.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(types.WorkspaceActive))
			Expect(next).To(Equal([]string{types.WorkspaceWindingDown}))
		})

		It("reports no transitions from DISSOLVED", func() {
			workspace, owner := env.provisionWorkspace()
			zero := 0
			_, err := env.services.Workspace.Dissolve(ctx, workspace.ID, owner.ID, &zero)
			Expect(err).NotTo(HaveOccurred())

			status, next, err := env.services.Workspace.Status(ctx, workspace.ID, owner.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(types.WorkspaceDissolved))
			Expect(next).To(BeEmpty())
		})
	})

	Describe("FinalizeDissolutions", func() {
		It("flips workspaces past their retention window and is idempotent", func() {
			workspace, owner := env.provisionWorkspace()

			days := 5
			_, err := env.services.Workspace.Dissolve(ctx, workspace.ID, owner.ID, &days)
			Expect(err).NotTo(HaveOccurred())

			// before the window nothing happens
			count, err := env.services.Workspace.FinalizeDissolutions(ctx, time.Now())
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(BeZero())

			after := time.Now().Add(6 * 24 * time.Hour)
			count, err = env.services.Workspace.FinalizeDissolutions(ctx, after)
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(1))

			final, err := env.repos.WorkspaceRepo.FindByID(ctx, workspace.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(final.Status).To(Equal(types.WorkspaceDissolved))

			count, err = env.services.Workspace.FinalizeDissolutions(ctx, after)
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(BeZero())

			Expect(env.auditActions(workspace.ID)).To(ContainElement("workspace.dissolve.finalized"))
		})
	})
})
