package cron

import (
	"context"
	"log"
	"time"

	"github.com/eventra-app/workspace-backend/internal/email"
	"github.com/eventra-app/workspace-backend/internal/repository"
	"github.com/eventra-app/workspace-backend/internal/service"
	"github.com/eventra-app/workspace-backend/internal/types"
	"github.com/robfig/cron/v3"
)

// Scheduler handles scheduled background work
type Scheduler struct {
	cron     *cron.Cron
	services *service.Services
	repos    *repository.Repositories
	emailSvc *email.EmailService
}

// NewScheduler creates a new scheduler
func NewScheduler(services *service.Services, repos *repository.Repositories, emailSvc *email.EmailService) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		services: services,
		repos:    repos,
		emailSvc: emailSvc,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	// Run every hour - finalize dissolutions for workspaces past retention
	s.cron.AddFunc("0 * * * *", func() {
		log.Println("[Cron] Running dissolution finalizer...")
		s.finalizeDissolutions()
	})

	// Run every day at 9 AM - due date reminders
	s.cron.AddFunc("0 9 * * *", func() {
		log.Println("[Cron] Running due date reminder check...")
		s.checkDueDateReminders()
	})

	s.cron.Start()
	log.Println("[Cron] Scheduler started")
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("[Cron] Scheduler stopped")
}

// finalizeDissolutions flips WINDING_DOWN workspaces past their dissolve
// time to DISSOLVED
func (s *Scheduler) finalizeDissolutions() {
	ctx := context.Background()

	count, err := s.services.Workspace.FinalizeDissolutions(ctx, time.Now())
	if err != nil {
		log.Printf("[Cron] Error finalizing dissolutions: %v", err)
		return
	}
	if count > 0 {
		log.Printf("[Cron] Dissolved %d workspace(s)", count)
	}
}

// checkDueDateReminders finds tasks due within 3 days and emails assignees
func (s *Scheduler) checkDueDateReminders() {
	if s.emailSvc == nil {
		log.Println("[Cron] Email service not configured, skipping due date reminders")
		return
	}
	ctx := context.Background()

	tasks, err := s.repos.TaskRepo.FindDueSoon(ctx, 72*time.Hour)
	if err != nil {
		log.Printf("[Cron] Error finding tasks due soon: %v", err)
		return
	}

	// Group by assignee membership so each person gets one email per workspace
	byAssignee := make(map[string][]*repository.WorkspaceTask)
	for _, task := range tasks {
		if task.AssigneeID == nil || task.DueDate == nil || task.Status == types.TaskCompleted {
			continue
		}
		byAssignee[*task.AssigneeID] = append(byAssignee[*task.AssigneeID], task)
	}

	for memberID, memberTasks := range byAssignee {
		s.sendReminderBatch(ctx, memberID, memberTasks)
	}
}

func (s *Scheduler) sendReminderBatch(ctx context.Context, memberID string, tasks []*repository.WorkspaceTask) {
	member, err := s.repos.WorkspaceRepo.FindMemberByID(ctx, memberID)
	if err != nil || member == nil || member.Status != types.MemberActive {
		return
	}

	workspace, err := s.repos.WorkspaceRepo.FindByID(ctx, member.WorkspaceID)
	if err != nil || workspace == nil || workspace.Status == types.WorkspaceDissolved {
		return
	}

	user, err := s.repos.UserRepo.FindByID(ctx, member.UserID)
	if err != nil || user == nil {
		return
	}

	data := email.DueDateReminderData{
		UserName:      user.Name,
		WorkspaceName: workspace.Name,
	}
	for _, task := range tasks {
		data.Tasks = append(data.Tasks, email.DueDateReminderTask{
			Title:   task.Title,
			DueDate: task.DueDate.Format("Jan 2, 2006"),
		})
	}

	if err := s.emailSvc.SendDueDateReminder(user.Email, data); err != nil {
		log.Printf("[Cron] Error sending due date reminder to %s: %v", user.Email, err)
	} else {
		log.Printf("[Cron] Sent due date reminder to %s (%d task(s))", user.Email, len(tasks))
	}
}

// ManualTrigger allows manual triggering of scheduled checks (for testing)
func (s *Scheduler) ManualTrigger(checkType string) {
	switch checkType {
	case "dissolutions":
		s.finalizeDissolutions()
	case "due_date":
		s.checkDueDateReminders()
	case "all":
		s.finalizeDissolutions()
		s.checkDueDateReminders()
	}
}
