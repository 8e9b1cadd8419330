package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ============================================
// PostgreSQL Task Repository
// ============================================

type pgTaskRepository struct {
	pool *pgxpool.Pool
}

func (r *pgTaskRepository) Create(ctx context.Context, task *WorkspaceTask) error {
	query := `
		INSERT INTO workspace_tasks
			(workspace_id, title, description, assignee_id, category, priority, status, due_date, creator_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`
	return r.pool.QueryRow(ctx, query,
		task.WorkspaceID, task.Title, task.Description, task.AssigneeID,
		task.Category, task.Priority, task.Status, task.DueDate, task.CreatorID,
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
}

func (r *pgTaskRepository) FindByID(ctx context.Context, id string) (*WorkspaceTask, error) {
	query := `
		SELECT id, workspace_id, title, description, assignee_id, category,
		       priority, status, due_date, creator_id, archived, created_at, updated_at
		FROM workspace_tasks WHERE id = $1
	`
	task := &WorkspaceTask{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&task.ID, &task.WorkspaceID, &task.Title, &task.Description,
		&task.AssigneeID, &task.Category, &task.Priority, &task.Status,
		&task.DueDate, &task.CreatorID, &task.Archived,
		&task.CreatedAt, &task.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (r *pgTaskRepository) FindByWorkspaceID(ctx context.Context, workspaceID string) ([]*WorkspaceTask, error) {
	query := `
		SELECT id, workspace_id, title, description, assignee_id, category,
		       priority, status, due_date, creator_id, archived, created_at, updated_at
		FROM workspace_tasks
		WHERE workspace_id = $1 AND archived = FALSE
		ORDER BY created_at
	`
	rows, err := r.pool.Query(ctx, query, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTasks(rows)
}

func (r *pgTaskRepository) Update(ctx context.Context, task *WorkspaceTask) error {
	query := `
		UPDATE workspace_tasks
		SET title = $2, description = $3, assignee_id = $4, category = $5,
		    priority = $6, status = $7, due_date = $8, archived = $9, updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query,
		task.ID, task.Title, task.Description, task.AssigneeID, task.Category,
		task.Priority, task.Status, task.DueDate, task.Archived,
	)
	return err
}

func (r *pgTaskRepository) CountByStatus(ctx context.Context, workspaceID string) (map[string]int, error) {
	query := `
		SELECT status, COUNT(*) FROM workspace_tasks
		WHERE workspace_id = $1 AND archived = FALSE
		GROUP BY status
	`
	rows, err := r.pool.Query(ctx, query, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (r *pgTaskRepository) FindDueSoon(ctx context.Context, within time.Duration) ([]*WorkspaceTask, error) {
	query := `
		SELECT id, workspace_id, title, description, assignee_id, category,
		       priority, status, due_date, creator_id, archived, created_at, updated_at
		FROM workspace_tasks
		WHERE archived = FALSE
		  AND status NOT IN ('COMPLETED')
		  AND due_date IS NOT NULL
		  AND due_date BETWEEN NOW() AND $1
	`
	rows, err := r.pool.Query(ctx, query, time.Now().Add(within))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTasks(rows)
}

func scanTasks(rows pgx.Rows) ([]*WorkspaceTask, error) {
	var tasks []*WorkspaceTask
	for rows.Next() {
		task := &WorkspaceTask{}
		if err := rows.Scan(
			&task.ID, &task.WorkspaceID, &task.Title, &task.Description,
			&task.AssigneeID, &task.Category, &task.Priority, &task.Status,
			&task.DueDate, &task.CreatorID, &task.Archived,
			&task.CreatedAt, &task.UpdatedAt,
		); err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// ============================================
// PostgreSQL Task Dependency Repository
// ============================================

type pgTaskDependencyRepository struct {
	pool *pgxpool.Pool
}

func (r *pgTaskDependencyRepository) Create(ctx context.Context, dep *TaskDependency) error {
	query := `
		INSERT INTO task_dependencies (task_id, depends_on_task_id, dependency_type)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	return r.pool.QueryRow(ctx, query,
		dep.TaskID, dep.DependsOnTaskID, dep.DependencyType,
	).Scan(&dep.ID, &dep.CreatedAt)
}

func (r *pgTaskDependencyRepository) FindByTaskID(ctx context.Context, taskID string) ([]*TaskDependency, error) {
	query := `
		SELECT id, task_id, depends_on_task_id, dependency_type, created_at
		FROM task_dependencies WHERE task_id = $1 ORDER BY created_at
	`
	rows, err := r.pool.Query(ctx, query, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDependencies(rows)
}

func (r *pgTaskDependencyRepository) FindDependents(ctx context.Context, dependsOnTaskID string) ([]*TaskDependency, error) {
	query := `
		SELECT id, task_id, depends_on_task_id, dependency_type, created_at
		FROM task_dependencies WHERE depends_on_task_id = $1 ORDER BY created_at
	`
	rows, err := r.pool.Query(ctx, query, dependsOnTaskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDependencies(rows)
}

func (r *pgTaskDependencyRepository) FindByWorkspaceID(ctx context.Context, workspaceID string) ([]*TaskDependency, error) {
	query := `
		SELECT d.id, d.task_id, d.depends_on_task_id, d.dependency_type, d.created_at
		FROM task_dependencies d
		JOIN workspace_tasks t ON t.id = d.task_id
		WHERE t.workspace_id = $1
	`
	rows, err := r.pool.Query(ctx, query, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDependencies(rows)
}

func (r *pgTaskDependencyRepository) Delete(ctx context.Context, taskID, dependsOnTaskID string) error {
	query := `DELETE FROM task_dependencies WHERE task_id = $1 AND depends_on_task_id = $2`
	_, err := r.pool.Exec(ctx, query, taskID, dependsOnTaskID)
	return err
}

func scanDependencies(rows pgx.Rows) ([]*TaskDependency, error) {
	var deps []*TaskDependency
	for rows.Next() {
		dep := &TaskDependency{}
		if err := rows.Scan(
			&dep.ID, &dep.TaskID, &dep.DependsOnTaskID,
			&dep.DependencyType, &dep.CreatedAt,
		); err != nil {
			return nil, err
		}
		deps = append(deps, dep)
	}
	return deps, rows.Err()
}
