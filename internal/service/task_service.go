// internal/service/task_service.go
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/eventra-app/workspace-backend/internal/repository"
	"github.com/eventra-app/workspace-backend/internal/types"
)

// ============================================
// Task Service
// ============================================

// TaskSummary aggregates a workspace's non-archived tasks by status.
type TaskSummary struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"byStatus"`
}

type TaskService interface {
	Create(ctx context.Context, workspaceID, creatorID, title string, description *string, category, priority string, dueDate *time.Time, assigneeID *string) (*repository.WorkspaceTask, error)
	Get(ctx context.Context, taskID, userID string) (*repository.WorkspaceTask, []*repository.TaskDependency, error)
	List(ctx context.Context, workspaceID, userID string) ([]*repository.WorkspaceTask, error)
	Summary(ctx context.Context, workspaceID, userID string) (*TaskSummary, error)
	Update(ctx context.Context, taskID, actorID string, title, description, category, priority *string, dueDate *time.Time) (*repository.WorkspaceTask, error)
	UpdateStatus(ctx context.Context, taskID, actorID, newStatus string) (*repository.WorkspaceTask, error)
	Assign(ctx context.Context, taskID, actorID string, assigneeID *string) (*repository.WorkspaceTask, error)
	AddDependency(ctx context.Context, taskID, actorID, dependsOnTaskID, depType string) (*repository.TaskDependency, error)
	RemoveDependency(ctx context.Context, taskID, actorID, dependsOnTaskID string) error
}

type taskService struct {
	deps  ServiceDeps
	perms *permissionService
	audit AuditService
}

func NewTaskService(deps ServiceDeps, perms *permissionService, audit AuditService) TaskService {
	return &taskService{deps: deps, perms: perms, audit: audit}
}

func (s *taskService) Create(ctx context.Context, workspaceID, creatorID, title string, description *string, category, priority string, dueDate *time.Time, assigneeID *string) (*repository.WorkspaceTask, error) {
	var task *repository.WorkspaceTask
	details := map[string]interface{}{"title": title, "category": category}

	err := s.audit.Audited(ctx, workspaceID, creatorID, "task.create", details, func() error {
		if _, err := s.perms.RequireCapability(ctx, workspaceID, creatorID, types.CapCreateTasks); err != nil {
			return err
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

		if title == "" {
			return fmt.Errorf("%w: title is required", ErrValidation)
		}
		if !types.IsValidTaskCategory(category) {
			return fmt.Errorf("%w: invalid category %q", ErrValidation, category)
		}
		if priority == "" {
			priority = types.PriorityMedium
		}
		if !types.IsValidPriority(priority) {
			return fmt.Errorf("%w: invalid priority %q", ErrValidation, priority)
		}
		if assigneeID != nil {
			assignee, err := s.deps.Repos.WorkspaceRepo.FindMemberByID(ctx, *assigneeID)
			if err != nil {
				return err
			}
			if assignee == nil || assignee.WorkspaceID != workspaceID || assignee.Status != types.MemberActive {
				return fmt.Errorf("%w: assignee is not an active member", ErrValidation)
			}
		}

		task = &repository.WorkspaceTask{
			WorkspaceID: workspaceID,
			Title:       title,
			Description: description,
			AssigneeID:  assigneeID,
			Category:    category,
			Priority:    priority,
			Status:      types.TaskNotStarted,
			DueDate:     dueDate,
			CreatorID:   creatorID,
		}
		return s.deps.Repos.TaskRepo.Create(ctx, task)
	})
	if err != nil {
		return nil, err
	}

	s.deps.Broadcaster.WorkspaceEvent(workspaceID, "task.created", task)
	return task, nil
}

func (s *taskService) Get(ctx context.Context, taskID, userID string) (*repository.WorkspaceTask, []*repository.TaskDependency, error) {
	task, err := s.deps.Repos.TaskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, nil, err
	}
	if task == nil {
		return nil, nil, ErrNotFound
	}
	if _, _, err := s.perms.RequireReader(ctx, task.WorkspaceID, userID); err != nil {
		return nil, nil, err
	}

	deps, err := s.deps.Repos.DependencyRepo.FindByTaskID(ctx, taskID)
	if err != nil {
		return nil, nil, err
	}
	return task, deps, nil
}

func (s *taskService) List(ctx context.Context, workspaceID, userID string) ([]*repository.WorkspaceTask, error) {
	if _, _, err := s.perms.RequireReader(ctx, workspaceID, userID); err != nil {
		return nil, err
	}
	return s.deps.Repos.TaskRepo.FindByWorkspaceID(ctx, workspaceID)
}

func (s *taskService) Summary(ctx context.Context, workspaceID, userID string) (*TaskSummary, error) {
	if _, _, err := s.perms.RequireReader(ctx, workspaceID, userID); err != nil {
		return nil, err
	}

	counts, err := s.deps.Repos.TaskRepo.CountByStatus(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	summary := &TaskSummary{ByStatus: make(map[string]int)}
	for _, status := range types.ValidTaskStatuses {
		summary.ByStatus[status] = counts[status]
		summary.Total += counts[status]
	}
	return summary, nil
}

func (s *taskService) Update(ctx context.Context, taskID, actorID string, title, description, category, priority *string, dueDate *time.Time) (*repository.WorkspaceTask, error) {
	task, _, err := s.requireTaskEditor(ctx, taskID, actorID)
	if err != nil {
		return nil, err
	}
	details := map[string]interface{}{"task_id": taskID}

	err = s.audit.Audited(ctx, task.WorkspaceID, actorID, "task.update", details, func() error {
		if title != nil {
			if *title == "" {
				return fmt.Errorf("%w: title cannot be empty", ErrValidation)
			}
			task.Title = *title
		}
		if description != nil {
			task.Description = description
		}
		if category != nil {
			if !types.IsValidTaskCategory(*category) {
				return fmt.Errorf("%w: invalid category %q", ErrValidation, *category)
			}
			task.Category = *category
		}
		if priority != nil {
			if !types.IsValidPriority(*priority) {
				return fmt.Errorf("%w: invalid priority %q", ErrValidation, *priority)
			}
			task.Priority = *priority
		}
		if dueDate != nil {
			task.DueDate = dueDate
		}
		return s.deps.Repos.TaskRepo.Update(ctx, task)
	})
	if err != nil {
		return nil, err
	}

	s.deps.Broadcaster.WorkspaceEvent(task.WorkspaceID, "task.updated", task)
	return task, nil
}

// UpdateStatus applies a status change subject to dependency gating. An
// attempt gated by an unsatisfied prerequisite persists BLOCKED instead
// of the requested status. Completing a task re-evaluates its blocked
// dependents and clears the ones whose prerequisites are now satisfied.
func (s *taskService) UpdateStatus(ctx context.Context, taskID, actorID, newStatus string) (*repository.WorkspaceTask, error) {
	task, _, err := s.requireTaskEditor(ctx, taskID, actorID)
	if err != nil {
		return nil, err
	}

	details := map[string]interface{}{"task_id": taskID, "status_before": task.Status, "requested": newStatus}
	err = s.audit.Audited(ctx, task.WorkspaceID, actorID, "task.status_change", details, func() error {
		if !types.IsValidTaskStatus(newStatus) || newStatus == types.TaskBlocked {
			return fmt.Errorf("%w: invalid status %q", ErrValidation, newStatus)
		}

		gated, gatingDep, err := s.statusGated(ctx, task, newStatus)
		if err != nil {
			return err
		}
		if gated {
			task.Status = types.TaskBlocked
			details["status_after"] = types.TaskBlocked
			details["gated_by"] = gatingDep.DependsOnTaskID
			details["dependency_type"] = gatingDep.DependencyType
			return s.deps.Repos.TaskRepo.Update(ctx, task)
		}

		task.Status = newStatus
		details["status_after"] = newStatus
		return s.deps.Repos.TaskRepo.Update(ctx, task)
	})
	if err != nil {
		return nil, err
	}

	s.deps.Broadcaster.WorkspaceEvent(task.WorkspaceID, "task.status_changed", task)

	if task.Status == types.TaskCompleted {
		if err := s.unblockDependents(ctx, task); err != nil {
			return nil, err
		}
	}
	return task, nil
}

func (s *taskService) Assign(ctx context.Context, taskID, actorID string, assigneeID *string) (*repository.WorkspaceTask, error) {
	task, err := s.deps.Repos.TaskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, ErrNotFound
	}

	details := map[string]interface{}{"task_id": taskID}
	err = s.audit.Audited(ctx, task.WorkspaceID, actorID, "task.assign", details, func() error {
		if _, err := s.perms.RequireCapability(ctx, task.WorkspaceID, actorID, types.CapAssignTasks); err != nil {
			return err
		}

		if assigneeID != nil {
			assignee, err := s.deps.Repos.WorkspaceRepo.FindMemberByID(ctx, *assigneeID)
			if err != nil {
				return err
			}
			if assignee == nil || assignee.WorkspaceID != task.WorkspaceID || assignee.Status != types.MemberActive {
				return fmt.Errorf("%w: assignee is not an active member", ErrValidation)
			}
			details["assignee_id"] = *assigneeID
		}
		task.AssigneeID = assigneeID
		return s.deps.Repos.TaskRepo.Update(ctx, task)
	})
	if err != nil {
		return nil, err
	}

	s.deps.Broadcaster.WorkspaceEvent(task.WorkspaceID, "task.assigned", task)
	return task, nil
}

// AddDependency links taskID to a prerequisite. Both tasks must live in
// the same workspace; self edges and cycles are rejected before anything
// is persisted.
func (s *taskService) AddDependency(ctx context.Context, taskID, actorID, dependsOnTaskID, depType string) (*repository.TaskDependency, error) {
	task, _, err := s.requireTaskEditor(ctx, taskID, actorID)
	if err != nil {
		return nil, err
	}

	var dep *repository.TaskDependency
	details := map[string]interface{}{"task_id": taskID, "depends_on": dependsOnTaskID, "type": depType}

	err = s.audit.Audited(ctx, task.WorkspaceID, actorID, "task.dependency_add", details, func() error {
		if !types.IsValidDependencyType(depType) {
			return fmt.Errorf("%w: invalid dependency type %q", ErrValidation, depType)
		}
		if taskID == dependsOnTaskID {
			return fmt.Errorf("%w: a task cannot depend on itself", ErrValidation)
		}

		prereq, err := s.deps.Repos.TaskRepo.FindByID(ctx, dependsOnTaskID)
		if err != nil {
			return err
		}
		if prereq == nil || prereq.WorkspaceID != task.WorkspaceID {
			return ErrNotFound
		}

		cyclic, err := s.wouldCycle(ctx, task.WorkspaceID, taskID, dependsOnTaskID)
		if err != nil {
			return err
		}
		if cyclic {
			return fmt.Errorf("%w: %s", ErrValidation, ErrDependencyCycle)
		}

		dep = &repository.TaskDependency{
			TaskID:          taskID,
			DependsOnTaskID: dependsOnTaskID,
			DependencyType:  depType,
		}
		if err := s.deps.Repos.DependencyRepo.Create(ctx, dep); err != nil {
			if repository.IsDuplicate(err) {
				return ErrConflict
			}
			return err
		}

		// the new edge can retroactively invalidate the task's status
		if violated, err := s.statusViolated(ctx, task); err != nil {
			return err
		} else if violated {
			task.Status = types.TaskBlocked
			details["blocked"] = true
			return s.deps.Repos.TaskRepo.Update(ctx, task)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.deps.Broadcaster.WorkspaceEvent(task.WorkspaceID, "task.dependency_added", dep)
	return dep, nil
}

func (s *taskService) RemoveDependency(ctx context.Context, taskID, actorID, dependsOnTaskID string) error {
	task, _, err := s.requireTaskEditor(ctx, taskID, actorID)
	if err != nil {
		return err
	}

	details := map[string]interface{}{"task_id": taskID, "depends_on": dependsOnTaskID}
	err = s.audit.Audited(ctx, task.WorkspaceID, actorID, "task.dependency_remove", details, func() error {
		if err := s.deps.Repos.DependencyRepo.Delete(ctx, taskID, dependsOnTaskID); err != nil {
			return err
		}
		if task.Status == types.TaskBlocked {
			return s.clearIfSatisfied(ctx, task)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.deps.Broadcaster.WorkspaceEvent(task.WorkspaceID, "task.dependency_removed", details)
	return nil
}

// requireTaskEditor loads the task and checks the actor is its assignee
// or holds EDIT_TASKS in the workspace.
func (s *taskService) requireTaskEditor(ctx context.Context, taskID, actorID string) (*repository.WorkspaceTask, *repository.TeamMember, error) {
	task, err := s.deps.Repos.TaskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, nil, err
	}
	if task == nil {
		return nil, nil, ErrNotFound
	}

	member, err := s.perms.RequireMember(ctx, task.WorkspaceID, actorID)
	if err != nil {
		return nil, nil, err
	}
	isAssignee := task.AssigneeID != nil && *task.AssigneeID == member.ID
	if !isAssignee && !types.RoleHasCapability(member.Role, types.CapEditTasks) {
		return nil, nil, ErrForbidden
	}
	return task, member, nil
}

// statusGated reports whether moving the task to newStatus is blocked by
// an unsatisfied dependency, returning the first gating edge.
func (s *taskService) statusGated(ctx context.Context, task *repository.WorkspaceTask, newStatus string) (bool, *repository.TaskDependency, error) {
	deps, err := s.deps.Repos.DependencyRepo.FindByTaskID(ctx, task.ID)
	if err != nil {
		return false, nil, err
	}

	for _, dep := range deps {
		prereq, err := s.deps.Repos.TaskRepo.FindByID(ctx, dep.DependsOnTaskID)
		if err != nil {
			return false, nil, err
		}
		if prereq == nil {
			continue
		}

		switch dep.DependencyType {
		case types.DependencyFinishToStart:
			if types.TaskHasStarted(newStatus) && prereq.Status != types.TaskCompleted {
				return true, dep, nil
			}
		case types.DependencyStartToStart:
			if types.TaskHasStarted(newStatus) && !types.TaskHasStarted(prereq.Status) {
				return true, dep, nil
			}
		case types.DependencyFinishToFinish:
			if newStatus == types.TaskCompleted && prereq.Status != types.TaskCompleted {
				return true, dep, nil
			}
		}
	}
	return false, nil, nil
}

// statusViolated reports whether the task's current status is no longer
// permitted by its dependencies.
func (s *taskService) statusViolated(ctx context.Context, task *repository.WorkspaceTask) (bool, error) {
	if task.Status == types.TaskNotStarted || task.Status == types.TaskBlocked {
		return false, nil
	}
	gated, _, err := s.statusGated(ctx, task, task.Status)
	return gated, err
}

// clearIfSatisfied resets a BLOCKED task to NOT_STARTED once nothing
// gates a fresh start anymore.
func (s *taskService) clearIfSatisfied(ctx context.Context, task *repository.WorkspaceTask) error {
	gated, _, err := s.statusGated(ctx, task, types.TaskInProgress)
	if err != nil {
		return err
	}
	if gated {
		return nil
	}

	task.Status = types.TaskNotStarted
	if err := s.deps.Repos.TaskRepo.Update(ctx, task); err != nil {
		return err
	}
	s.audit.Record(ctx, task.WorkspaceID, "system", "task.unblocked", map[string]interface{}{"task_id": task.ID})
	s.deps.Broadcaster.WorkspaceEvent(task.WorkspaceID, "task.status_changed", task)
	return nil
}

// unblockDependents re-evaluates BLOCKED tasks that depend on a task
// that just completed.
func (s *taskService) unblockDependents(ctx context.Context, completed *repository.WorkspaceTask) error {
	edges, err := s.deps.Repos.DependencyRepo.FindDependents(ctx, completed.ID)
	if err != nil {
		return err
	}
	for _, edge := range edges {
		dependent, err := s.deps.Repos.TaskRepo.FindByID(ctx, edge.TaskID)
		if err != nil {
			return err
		}
		if dependent == nil || dependent.Status != types.TaskBlocked {
			continue
		}
		if err := s.clearIfSatisfied(ctx, dependent); err != nil {
			return err
		}
	}
	return nil
}

// wouldCycle checks whether the prerequisite can already reach the task
// through existing dependency edges, which would close a cycle. Plain
// DFS over the workspace's dependency graph.
func (s *taskService) wouldCycle(ctx context.Context, workspaceID, taskID, dependsOnTaskID string) (bool, error) {
	edges, err := s.deps.Repos.DependencyRepo.FindByWorkspaceID(ctx, workspaceID)
	if err != nil {
		return false, err
	}

	adjacency := make(map[string][]string)
	for _, e := range edges {
		adjacency[e.TaskID] = append(adjacency[e.TaskID], e.DependsOnTaskID)
	}

	visited := make(map[string]bool)
	stack := []string{dependsOnTaskID}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if current == taskID {
			return true, nil
		}
		if visited[current] {
			continue
		}
		visited[current] = true
		stack = append(stack, adjacency[current]...)
	}
	return false, nil
}
