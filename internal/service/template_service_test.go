package service_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/eventra-app/workspace-backend/internal/repository"
	"github.com/eventra-app/workspace-backend/internal/service"
	"github.com/eventra-app/workspace-backend/internal/types"
)

var _ = Describe("TemplateService", func() {
	var (
		env       *testEnv
		workspace *repository.Workspace
		owner     *repository.User
	)

	BeforeEach(func() {
		env = newTestEnv()
		workspace, owner = env.provisionWorkspace()
	})

	addTask := func(title, category string) *repository.WorkspaceTask {
		task, err := env.services.Task.Create(ctx, workspace.ID, owner.ID, title, nil, category, "", nil, nil)
		Expect(err).NotTo(HaveOccurred())
		return task
	}

	Describe("CreateFromWorkspace", func() {
		It("snapshots deduplicated member roles and task categories", func() {
			coordinator := env.createUser("coordinator")
			env.addMember(workspace.ID, coordinator, types.RoleEventCoordinator)

			addTask("Book venue", types.CategoryLogistics)
			addTask("Confirm caterer", types.CategoryLogistics)
			addTask("Launch campaign", types.CategoryMarketing)

			template, err := env.services.Template.CreateFromWorkspace(ctx, workspace.ID, owner.ID, "Conference Kit", nil, "conference", "medium", true, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(template.Roles).To(Equal([]string{types.RoleWorkspaceOwner, types.RoleEventCoordinator}))
			Expect(template.TaskCategories).To(Equal([]string{types.CategoryLogistics, types.CategoryMarketing}))
			Expect(template.SourceWorkspaceID).NotTo(BeNil())
			Expect(*template.SourceWorkspaceID).To(Equal(workspace.ID))
			Expect(template.CreatedBy).To(Equal(owner.ID))
		})

		It("is a point-in-time copy unaffected by later workspace changes", func() {
			addTask("Book venue", types.CategoryLogistics)

			template, err := env.services.Template.CreateFromWorkspace(ctx, workspace.ID, owner.ID, "Snapshot", nil, "conference", "low", false, nil)
			Expect(err).NotTo(HaveOccurred())

			addTask("Launch campaign", types.CategoryMarketing)

			stored, err := env.repos.TemplateRepo.FindByID(ctx, template.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.TaskCategories).To(Equal([]string{types.CategoryLogistics}))
		})

		It("refuses to snapshot a workspace that is not active", func() {
			days := 30
			_, err := env.services.Workspace.Dissolve(ctx, workspace.ID, owner.ID, &days)
			Expect(err).NotTo(HaveOccurred())

			_, err = env.services.Template.CreateFromWorkspace(ctx, workspace.ID, owner.ID, "Too late", nil, "conference", "low", false, nil)
			Expect(err).To(MatchError(service.ErrConflict))
		})

		It("denies members without the template capability", func() {
			lead := env.createUser("lead")
			env.addMember(workspace.ID, lead, types.RoleTeamLead)

			_, err := env.services.Template.CreateFromWorkspace(ctx, workspace.ID, lead.ID, "Nope", nil, "conference", "low", false, nil)
			Expect(err).To(MatchError(service.ErrForbidden))
		})
	})

	Describe("Apply", func() {
		It("scaffolds one task per template category and records usage", func() {
			addTask("Book venue", types.CategoryLogistics)
			addTask("Launch campaign", types.CategoryMarketing)

			template, err := env.services.Template.CreateFromWorkspace(ctx, workspace.ID, owner.ID, "Kit", nil, "conference", "medium", true, nil)
			Expect(err).NotTo(HaveOccurred())

			targetWorkspace, targetOwner := env.provisionWorkspace()

			applied, err := env.services.Template.Apply(ctx, targetWorkspace.ID, template.ID, targetOwner.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(applied.TemplateID).NotTo(BeNil())
			Expect(*applied.TemplateID).To(Equal(template.ID))

			tasks, err := env.repos.TaskRepo.FindByWorkspaceID(ctx, targetWorkspace.ID)
			Expect(err).NotTo(HaveOccurred())

			titles := make([]string, 0, len(tasks))
			for _, t := range tasks {
				titles = append(titles, t.Title)
				Expect(t.Status).To(Equal(types.TaskNotStarted))
			}
			Expect(titles).To(ConsistOf("Plan LOGISTICS work", "Plan MARKETING work"))

			stored, err := env.repos.TemplateRepo.FindByID(ctx, template.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.UsageCount).To(Equal(1))
		})

		It("rejects applying to a dissolved workspace", func() {
			template, err := env.services.Template.CreateFromWorkspace(ctx, workspace.ID, owner.ID, "Kit", nil, "conference", "medium", true, nil)
			Expect(err).NotTo(HaveOccurred())

			targetWorkspace, targetOwner := env.provisionWorkspace()
			days := 0
			_, err = env.services.Workspace.Dissolve(ctx, targetWorkspace.ID, targetOwner.ID, &days)
			Expect(err).NotTo(HaveOccurred())

			_, err = env.services.Template.Apply(ctx, targetWorkspace.ID, template.ID, targetOwner.ID)
			Expect(err).To(MatchError(service.ErrConflict))
		})
	})

	Describe("Recommendations", func() {
		makeTemplate := func(name, category string, usage int) *repository.WorkspaceTemplate {
			template := &repository.WorkspaceTemplate{
				Name:       name,
				Category:   category,
				Complexity: "medium",
				IsPublic:   true,
				CreatedBy:  owner.ID,
				UsageCount: usage,
			}
			Expect(env.repos.TemplateRepo.Create(ctx, template)).To(Succeed())
			return template
		}

		It("ranks matching categories first, then by usage", func() {
			event := env.createEvent(owner.ID, "Annual Gala", "wedding")
			makeTemplate("Popular Conference", "conference", 50)
			wedding := makeTemplate("Wedding Basics", "wedding", 2)
			weddingPro := makeTemplate("Wedding Pro", "wedding", 10)

			ranked, err := env.services.Template.Recommendations(ctx, event.ID, owner.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(len(ranked)).To(BeNumerically(">=", 3))
			Expect(ranked[0].ID).To(Equal(weddingPro.ID))
			Expect(ranked[1].ID).To(Equal(wedding.ID))
		})

		It("returns an empty slice when nothing is public", func() {
			event := env.createEvent(owner.ID, "Quiet Meetup", "meetup")

			ranked, err := env.services.Template.Recommendations(ctx, event.ID, owner.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(ranked).NotTo(BeNil())
			Expect(ranked).To(BeEmpty())
		})

		It("rejects an unknown event", func() {
			_, err := env.services.Template.Recommendations(ctx, "missing", owner.ID)
			Expect(err).To(MatchError(service.ErrNotFound))
		})
	})

	Describe("Get", func() {
		It("hides private templates from other users", func() {
			template, err := env.services.Template.CreateFromWorkspace(ctx, workspace.ID, owner.ID, "Private Kit", nil, "conference", "low", false, nil)
			Expect(err).NotTo(HaveOccurred())

			stranger := env.createUser("stranger")
			_, err = env.services.Template.Get(ctx, template.ID, stranger.ID)
			Expect(err).To(MatchError(service.ErrForbidden))

			got, err := env.services.Template.Get(ctx, template.ID, owner.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal(template.ID))
		})
	})
})
