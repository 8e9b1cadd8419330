package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ============================================
// PostgreSQL Workspace Repository
// ============================================

type pgWorkspaceRepository struct {
	pool *pgxpool.Pool
}

func (r *pgWorkspaceRepository) Provision(ctx context.Context, workspace *Workspace, owner *TeamMember, channels []*WorkspaceChannel, entry *AuditLogEntry) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO workspaces (event_id, name, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`
	if err := tx.QueryRow(ctx, query,
		workspace.EventID, workspace.Name, workspace.Status,
	).Scan(&workspace.ID, &workspace.CreatedAt, &workspace.UpdatedAt); err != nil {
		return err
	}

	owner.WorkspaceID = workspace.ID
	memberQuery := `
		INSERT INTO team_members (workspace_id, user_id, role, status, invited_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, joined_at
	`
	if err := tx.QueryRow(ctx, memberQuery,
		owner.WorkspaceID, owner.UserID, owner.Role, owner.Status, owner.InvitedBy,
	).Scan(&owner.ID, &owner.JoinedAt); err != nil {
		return err
	}

	channelQuery := `
		INSERT INTO workspace_channels (workspace_id, name)
		VALUES ($1, $2)
		RETURNING id, created_at
	`
	for _, ch := range channels {
		ch.WorkspaceID = workspace.ID
		if err := tx.QueryRow(ctx, channelQuery, ch.WorkspaceID, ch.Name).
			Scan(&ch.ID, &ch.CreatedAt); err != nil {
			return err
		}
	}

	entry.WorkspaceID = workspace.ID
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return err
	}
	auditQuery := `
		INSERT INTO audit_log_entries (workspace_id, actor_id, action, details)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	if err := tx.QueryRow(ctx, auditQuery,
		entry.WorkspaceID, entry.ActorID, entry.Action, details,
	).Scan(&entry.ID, &entry.CreatedAt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *pgWorkspaceRepository) FindByID(ctx context.Context, id string) (*Workspace, error) {
	query := `
		SELECT id, event_id, name, status, template_id, dissolve_at, created_at, updated_at
		FROM workspaces WHERE id = $1
	`
	return r.scanWorkspace(r.pool.QueryRow(ctx, query, id))
}

func (r *pgWorkspaceRepository) FindByEventID(ctx context.Context, eventID string) (*Workspace, error) {
	query := `
		SELECT id, event_id, name, status, template_id, dissolve_at, created_at, updated_at
		FROM workspaces WHERE event_id = $1
	`
	return r.scanWorkspace(r.pool.QueryRow(ctx, query, eventID))
}

func (r *pgWorkspaceRepository) scanWorkspace(row pgx.Row) (*Workspace, error) {
	ws := &Workspace{}
	err := row.Scan(
		&ws.ID, &ws.EventID, &ws.Name, &ws.Status, &ws.TemplateID,
		&ws.DissolveAt, &ws.CreatedAt, &ws.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ws, nil
}

func (r *pgWorkspaceRepository) Update(ctx context.Context, workspace *Workspace) error {
	query := `
		UPDATE workspaces
		SET name = $2, status = $3, template_id = $4, dissolve_at = $5, updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query,
		workspace.ID, workspace.Name, workspace.Status,
		workspace.TemplateID, workspace.DissolveAt,
	)
	return err
}

func (r *pgWorkspaceRepository) FindRetentionExpired(ctx context.Context, now time.Time) ([]*Workspace, error) {
	query := `
		SELECT id, event_id, name, status, template_id, dissolve_at, created_at, updated_at
		FROM workspaces
		WHERE status = 'WINDING_DOWN' AND dissolve_at IS NOT NULL AND dissolve_at <= $1
	`
	rows, err := r.pool.Query(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workspaces []*Workspace
	for rows.Next() {
		ws := &Workspace{}
		if err := rows.Scan(
			&ws.ID, &ws.EventID, &ws.Name, &ws.Status, &ws.TemplateID,
			&ws.DissolveAt, &ws.CreatedAt, &ws.UpdatedAt,
		); err != nil {
			return nil, err
		}
		workspaces = append(workspaces, ws)
	}
	return workspaces, rows.Err()
}

func (r *pgWorkspaceRepository) FindChannels(ctx context.Context, workspaceID string) ([]*WorkspaceChannel, error) {
	query := `
		SELECT id, workspace_id, name, created_at
		FROM workspace_channels WHERE workspace_id = $1 ORDER BY created_at
	`
	rows, err := r.pool.Query(ctx, query, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var channels []*WorkspaceChannel
	for rows.Next() {
		ch := &WorkspaceChannel{}
		if err := rows.Scan(&ch.ID, &ch.WorkspaceID, &ch.Name, &ch.CreatedAt); err != nil {
			return nil, err
		}
		channels = append(channels, ch)
	}
	return channels, rows.Err()
}

func (r *pgWorkspaceRepository) AddMember(ctx context.Context, member *TeamMember) error {
	query := `
		INSERT INTO team_members (workspace_id, user_id, role, status, invited_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, joined_at
	`
	return r.pool.QueryRow(ctx, query,
		member.WorkspaceID, member.UserID, member.Role, member.Status, member.InvitedBy,
	).Scan(&member.ID, &member.JoinedAt)
}

func (r *pgWorkspaceRepository) FindMember(ctx context.Context, workspaceID, userID string) (*TeamMember, error) {
	query := `
		SELECT id, workspace_id, user_id, role, status, invited_by, joined_at
		FROM team_members
		WHERE workspace_id = $1 AND user_id = $2 AND status = 'ACTIVE'
	`
	return r.scanMember(r.pool.QueryRow(ctx, query, workspaceID, userID))
}

func (r *pgWorkspaceRepository) FindMemberByID(ctx context.Context, memberID string) (*TeamMember, error) {
	query := `
		SELECT id, workspace_id, user_id, role, status, invited_by, joined_at
		FROM team_members WHERE id = $1
	`
	return r.scanMember(r.pool.QueryRow(ctx, query, memberID))
}

func (r *pgWorkspaceRepository) scanMember(row pgx.Row) (*TeamMember, error) {
	m := &TeamMember{}
	err := row.Scan(
		&m.ID, &m.WorkspaceID, &m.UserID, &m.Role, &m.Status,
		&m.InvitedBy, &m.JoinedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *pgWorkspaceRepository) FindMembers(ctx context.Context, workspaceID string) ([]*TeamMember, error) {
	query := `
		SELECT id, workspace_id, user_id, role, status, invited_by, joined_at
		FROM team_members WHERE workspace_id = $1 ORDER BY joined_at
	`
	rows, err := r.pool.Query(ctx, query, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []*TeamMember
	for rows.Next() {
		m := &TeamMember{}
		if err := rows.Scan(
			&m.ID, &m.WorkspaceID, &m.UserID, &m.Role, &m.Status,
			&m.InvitedBy, &m.JoinedAt,
		); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *pgWorkspaceRepository) UpdateMember(ctx context.Context, member *TeamMember) error {
	query := `
		UPDATE team_members SET role = $2, status = $3 WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, member.ID, member.Role, member.Status)
	return err
}
