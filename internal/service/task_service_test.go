package service_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/eventra-app/workspace-backend/internal/repository"
	"github.com/eventra-app/workspace-backend/internal/service"
	"github.com/eventra-app/workspace-backend/internal/types"
)

var _ = Describe("TaskService", func() {
	var (
		env       *testEnv
		workspace *repository.Workspace
		owner     *repository.User
	)

	BeforeEach(func() {
		env = newTestEnv()
		workspace, owner = env.provisionWorkspace()
	})

	createTask := func(title string) *repository.WorkspaceTask {
		task, err := env.services.Task.Create(ctx, workspace.ID, owner.ID, title, nil, types.CategoryLogistics, types.PriorityMedium, nil, nil)
		Expect(err).NotTo(HaveOccurred())
		return task
	}

	Describe("Create", func() {
		It("creates a NOT_STARTED task and defaults the priority", func() {
			task, err := env.services.Task.Create(ctx, workspace.ID, owner.ID, "Book venue", nil, types.CategoryLogistics, "", nil, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(task.Status).To(Equal(types.TaskNotStarted))
			Expect(task.Priority).To(Equal(types.PriorityMedium))
			Expect(task.CreatorID).To(Equal(owner.ID))
			Expect(env.auditActions(workspace.ID)[0]).To(Equal("task.create"))
		})

		It("rejects an invalid category", func() {
			_, err := env.services.Task.Create(ctx, workspace.ID, owner.ID, "Book venue", nil, "CATERING", "", nil, nil)
			Expect(err).To(MatchError(service.ErrValidation))
		})

		It("rejects an assignee who is not an active member of the workspace", func() {
			_, err := env.services.Task.Create(ctx, workspace.ID, owner.ID, "Book venue", nil, types.CategoryLogistics, "", nil, strPtr("not-a-member"))
			Expect(err).To(MatchError(service.ErrValidation))
		})

		It("denies a general volunteer and audits the attempt", func() {
			volunteer := env.createUser("volunteer")
			env.addMember(workspace.ID, volunteer, types.RoleGeneralVolunteer)

			_, err := env.services.Task.Create(ctx, workspace.ID, volunteer.ID, "Book venue", nil, types.CategoryLogistics, "", nil, nil)
			Expect(err).To(MatchError(service.ErrForbidden))
			Expect(env.auditActions(workspace.ID)).To(ContainElement("task.create.denied"))
		})
	})

	Describe("UpdateStatus", func() {
		It("moves an unconstrained task through its statuses", func() {
			task := createTask("Book venue")

			updated, err := env.services.Task.UpdateStatus(ctx, task.ID, owner.ID, types.TaskInProgress)
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Status).To(Equal(types.TaskInProgress))

			updated, err = env.services.Task.UpdateStatus(ctx, task.ID, owner.ID, types.TaskCompleted)
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Status).To(Equal(types.TaskCompleted))
		})

		It("never accepts BLOCKED as a requested status", func() {
			task := createTask("Book venue")

			_, err := env.services.Task.UpdateStatus(ctx, task.ID, owner.ID, types.TaskBlocked)
			Expect(err).To(MatchError(service.ErrValidation))
		})

		Context("with a FINISH_TO_START dependency", func() {
			It("flips a gated start attempt to BLOCKED and clears it when the prerequisite completes", func() {
				prereq := createTask("Confirm budget")
				task := createTask("Book venue")

				_, err := env.services.Task.AddDependency(ctx, task.ID, owner.ID, prereq.ID, types.DependencyFinishToStart)
				Expect(err).NotTo(HaveOccurred())

				// starting while the prerequisite is open yields BLOCKED, not an error
				blocked, err := env.services.Task.UpdateStatus(ctx, task.ID, owner.ID, types.TaskInProgress)
				Expect(err).NotTo(HaveOccurred())
				Expect(blocked.Status).To(Equal(types.TaskBlocked))

				_, err = env.services.Task.UpdateStatus(ctx, prereq.ID, owner.ID, types.TaskCompleted)
				Expect(err).NotTo(HaveOccurred())

				cleared, err := env.repos.TaskRepo.FindByID(ctx, task.ID)
				Expect(err).NotTo(HaveOccurred())
				Expect(cleared.Status).To(Equal(types.TaskNotStarted))
				Expect(env.auditActions(workspace.ID)).To(ContainElement("task.unblocked"))

				started, err := env.services.Task.UpdateStatus(ctx, task.ID, owner.ID, types.TaskInProgress)
				Expect(err).NotTo(HaveOccurred())
				Expect(started.Status).To(Equal(types.TaskInProgress))
			})
		})

		Context("with a START_TO_START dependency", func() {
			It("gates starting until the prerequisite has started", func() {
				prereq := createTask("Design flyer")
				task := createTask("Print flyer")

				_, err := env.services.Task.AddDependency(ctx, task.ID, owner.ID, prereq.ID, types.DependencyStartToStart)
				Expect(err).NotTo(HaveOccurred())

				blocked, err := env.services.Task.UpdateStatus(ctx, task.ID, owner.ID, types.TaskInProgress)
				Expect(err).NotTo(HaveOccurred())
				Expect(blocked.Status).To(Equal(types.TaskBlocked))

				_, err = env.services.Task.UpdateStatus(ctx, prereq.ID, owner.ID, types.TaskInProgress)
				Expect(err).NotTo(HaveOccurred())

				// once the prerequisite has started, the task can start
				started, err := env.services.Task.UpdateStatus(ctx, task.ID, owner.ID, types.TaskInProgress)
				Expect(err).NotTo(HaveOccurred())
				Expect(started.Status).To(Equal(types.TaskInProgress))
			})
		})

		Context("with a FINISH_TO_FINISH dependency", func() {
			It("allows starting but gates completion", func() {
				prereq := createTask("Load-in equipment")
				task := createTask("Stage setup")

				_, err := env.services.Task.AddDependency(ctx, task.ID, owner.ID, prereq.ID, types.DependencyFinishToFinish)
				Expect(err).NotTo(HaveOccurred())

				started, err := env.services.Task.UpdateStatus(ctx, task.ID, owner.ID, types.TaskInProgress)
				Expect(err).NotTo(HaveOccurred())
				Expect(started.Status).To(Equal(types.TaskInProgress))

				blocked, err := env.services.Task.UpdateStatus(ctx, task.ID, owner.ID, types.TaskCompleted)
				Expect(err).NotTo(HaveOccurred())
				Expect(blocked.Status).To(Equal(types.TaskBlocked))
			})
		})
	})

	Describe("AddDependency", func() {
		It("rejects a self-dependency", func() {
			task := createTask("Book venue")

			_, err := env.services.Task.AddDependency(ctx, task.ID, owner.ID, task.ID, types.DependencyFinishToStart)
			Expect(err).To(MatchError(service.ErrValidation))
		})

		It("rejects a direct cycle", func() {
			a := createTask("A")
			b := createTask("B")

			_, err := env.services.Task.AddDependency(ctx, a.ID, owner.ID, b.ID, types.DependencyFinishToStart)
			Expect(err).NotTo(HaveOccurred())

			_, err = env.services.Task.AddDependency(ctx, b.ID, owner.ID, a.ID, types.DependencyFinishToStart)
			Expect(err).To(MatchError(service.ErrValidation))
		})

		It("rejects a transitive cycle", func() {
			a := createTask("A")
			b := createTask("B")
			c := createTask("C")

			_, err := env.services.Task.AddDependency(ctx, a.ID, owner.ID, b.ID, types.DependencyFinishToStart)
			Expect(err).NotTo(HaveOccurred())
			_, err = env.services.Task.AddDependency(ctx, b.ID, owner.ID, c.ID, types.DependencyFinishToStart)
			Expect(err).NotTo(HaveOccurred())

			_, err = env.services.Task.AddDependency(ctx, c.ID, owner.ID, a.ID, types.DependencyFinishToStart)
			Expect(err).To(MatchError(service.ErrValidation))
		})

		It("rejects a duplicate edge", func() {
			a := createTask("A")
			b := createTask("B")

			_, err := env.services.Task.AddDependency(ctx, a.ID, owner.ID, b.ID, types.DependencyFinishToStart)
			Expect(err).NotTo(HaveOccurred())

			_, err = env.services.Task.AddDependency(ctx, a.ID, owner.ID, b.ID, types.DependencyStartToStart)
			Expect(err).To(MatchError(service.ErrConflict))
		})

		It("rejects a prerequisite from another workspace", func() {
			task := createTask("Book venue")

			otherWorkspace, otherOwner := env.provisionWorkspace()
			foreign, err := env.services.Task.Create(ctx, otherWorkspace.ID, otherOwner.ID, "Elsewhere", nil, types.CategoryLogistics, "", nil, nil)
			Expect(err).NotTo(HaveOccurred())

			_, err = env.services.Task.AddDependency(ctx, task.ID, owner.ID, foreign.ID, types.DependencyFinishToStart)
			Expect(err).To(MatchError(service.ErrNotFound))
		})

		It("retroactively blocks a started task when a new edge gates it", func() {
			prereq := createTask("Confirm budget")
			task := createTask("Book venue")

			_, err := env.services.Task.UpdateStatus(ctx, task.ID, owner.ID, types.TaskInProgress)
			Expect(err).NotTo(HaveOccurred())

			_, err = env.services.Task.AddDependency(ctx, task.ID, owner.ID, prereq.ID, types.DependencyFinishToStart)
			Expect(err).NotTo(HaveOccurred())

			stored, err := env.repos.TaskRepo.FindByID(ctx, task.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Status).To(Equal(types.TaskBlocked))
		})
	})

	Describe("RemoveDependency", func() {
		It("clears a BLOCKED task once nothing gates it", func() {
			prereq := createTask("Confirm budget")
			task := createTask("Book venue")

			_, err := env.services.Task.AddDependency(ctx, task.ID, owner.ID, prereq.ID, types.DependencyFinishToStart)
			Expect(err).NotTo(HaveOccurred())

			blocked, err := env.services.Task.UpdateStatus(ctx, task.ID, owner.ID, types.TaskInProgress)
			Expect(err).NotTo(HaveOccurred())
			Expect(blocked.Status).To(Equal(types.TaskBlocked))

			Expect(env.services.Task.RemoveDependency(ctx, task.ID, owner.ID, prereq.ID)).To(Succeed())

			cleared, err := env.repos.TaskRepo.FindByID(ctx, task.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(cleared.Status).To(Equal(types.TaskNotStarted))
		})
	})

	Describe("assignee permissions", func() {
		It("lets the assignee update their own task but nobody else's", func() {
			volunteerUser := env.createUser("volunteer")
			volunteer := env.addMember(workspace.ID, volunteerUser, types.RoleGeneralVolunteer)

			assigned, err := env.services.Task.Create(ctx, workspace.ID, owner.ID, "Hand out badges", nil, types.CategoryCoordination, "", nil, &volunteer.ID)
			Expect(err).NotTo(HaveOccurred())

			updated, err := env.services.Task.UpdateStatus(ctx, assigned.ID, volunteerUser.ID, types.TaskInProgress)
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Status).To(Equal(types.TaskInProgress))

			other := createTask("Someone else's task")
			_, err = env.services.Task.UpdateStatus(ctx, other.ID, volunteerUser.ID, types.TaskInProgress)
			Expect(err).To(MatchError(service.ErrForbidden))
		})
	})

	Describe("Assign", func() {
		It("assigns and clears an assignee", func() {
			task := createTask("Book venue")
			leadUser := env.createUser("lead")
			lead := env.addMember(workspace.ID, leadUser, types.RoleTeamLead)

			assigned, err := env.services.Task.Assign(ctx, task.ID, owner.ID, &lead.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(assigned.AssigneeID).NotTo(BeNil())
			Expect(*assigned.AssigneeID).To(Equal(lead.ID))

			cleared, err := env.services.Task.Assign(ctx, task.ID, owner.ID, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(cleared.AssigneeID).To(BeNil())
		})

		It("denies actors without the assign capability", func() {
			task := createTask("Book venue")
			specialistUser := env.createUser("specialist")
			specialist := env.addMember(workspace.ID, specialistUser, types.RoleTechnicalSpecialist)

			_, err := env.services.Task.Assign(ctx, task.ID, specialistUser.ID, &specialist.ID)
			Expect(err).To(MatchError(service.ErrForbidden))
		})
	})

	Describe("Summary", func() {
		It("counts tasks by status across all statuses", func() {
			createTask("A")
			b := createTask("B")
			_, err := env.services.Task.UpdateStatus(ctx, b.ID, owner.ID, types.TaskInProgress)
			Expect(err).NotTo(HaveOccurred())

			summary, err := env.services.Task.Summary(ctx, workspace.ID, owner.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(summary.Total).To(Equal(2))
			Expect(summary.ByStatus[types.TaskNotStarted]).To(Equal(1))
			Expect(summary.ByStatus[types.TaskInProgress]).To(Equal(1))
			Expect(summary.ByStatus[types.TaskCompleted]).To(BeZero())
		})
	})

	Describe("Get", func() {
		It("returns the task with its dependency edges", func() {
			prereq := createTask("Confirm budget")
			task := createTask("Book venue")

			_, err := env.services.Task.AddDependency(ctx, task.ID, owner.ID, prereq.ID, types.DependencyFinishToStart)
			Expect(err).NotTo(HaveOccurred())

			got, deps, err := env.services.Task.Get(ctx, task.ID, owner.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal(task.ID))
			Expect(deps).To(HaveLen(1))
			Expect(deps[0].DependsOnTaskID).To(Equal(prereq.ID))
		})
	})
})

func strPtr(s string) *string { return &s }
