package service_test

import (
	"bytes"
	"log"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/eventra-app/workspace-backend/internal/repository"
	"github.com/eventra-app/workspace-backend/internal/service"
	"github.com/eventra-app/workspace-backend/internal/types"
)

var _ = Describe("AuditService", func() {
	var (
		env       *testEnv
		workspace *repository.Workspace
		owner     *repository.User
	)

	BeforeEach(func() {
		env = newTestEnv()
		workspace, owner = env.provisionWorkspace()
	})

	Describe("ListEntries", func() {
		It("returns entries newest first", func() {
			_, err := env.services.Workspace.Update(ctx, workspace.ID, owner.ID, "Renamed Workspace")
			Expect(err).NotTo(HaveOccurred())

			entries, err := env.services.Audit.ListEntries(ctx, workspace.ID, owner.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(len(entries)).To(BeNumerically(">=", 2))
			Expect(entries[0].Action).To(Equal("workspace.update"))
			Expect(entries[len(entries)-1].Action).To(Equal("workspace.provision"))
		})

		It("denies members without the audit capability", func() {
			volunteer := env.createUser("volunteer")
			env.addMember(workspace.ID, volunteer, types.RoleGeneralVolunteer)

			_, err := env.services.Audit.ListEntries(ctx, workspace.ID, volunteer.ID)
			Expect(err).To(MatchError(service.ErrForbidden))
		})
	})

	Describe("denied attempts", func() {
		It("records a .denied entry carrying the denied actor", func() {
			volunteer := env.createUser("volunteer")
			env.addMember(workspace.ID, volunteer, types.RoleGeneralVolunteer)

			_, err := env.services.Workspace.Update(ctx, workspace.ID, volunteer.ID, "Hijacked")
			Expect(err).To(MatchError(service.ErrForbidden))

			entries, err := env.services.Audit.ListEntries(ctx, workspace.ID, owner.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries[0].Action).To(Equal("workspace.update.denied"))
			Expect(entries[0].ActorID).To(Equal(volunteer.ID))
		})

		It("records nothing for failures that are not permission denials, but logs them", func() {
			var buf bytes.Buffer
			log.SetOutput(&buf)
			defer log.SetOutput(os.Stderr)

			_, err := env.services.Workspace.Update(ctx, workspace.ID, owner.ID, "")
			Expect(err).To(MatchError(service.ErrValidation))

			Expect(env.auditActions(workspace.ID)).NotTo(ContainElement("workspace.update"))
			Expect(env.auditActions(workspace.ID)).NotTo(ContainElement("workspace.update.denied"))
			Expect(buf.String()).To(ContainSubstring("workspace.update rejected"))
		})
	})
})
