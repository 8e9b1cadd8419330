package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ============================================
// PostgreSQL Template Repository
// ============================================

type pgTemplateRepository struct {
	pool *pgxpool.Pool
}

func (r *pgTemplateRepository) Create(ctx context.Context, tpl *WorkspaceTemplate) error {
	query := `
		INSERT INTO workspace_templates
			(name, description, category, complexity, is_public, tags, roles,
			 task_categories, source_workspace_id, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`
	return r.pool.QueryRow(ctx, query,
		tpl.Name, tpl.Description, tpl.Category, tpl.Complexity, tpl.IsPublic,
		tpl.Tags, tpl.Roles, tpl.TaskCategories, tpl.SourceWorkspaceID, tpl.CreatedBy,
	).Scan(&tpl.ID, &tpl.CreatedAt)
}

func (r *pgTemplateRepository) FindByID(ctx context.Context, id string) (*WorkspaceTemplate, error) {
	query := `
		SELECT id, name, description, category, complexity, is_public, tags,
		       roles, task_categories, source_workspace_id, created_by, usage_count, created_at
		FROM workspace_templates WHERE id = $1
	`
	tpl := &WorkspaceTemplate{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&tpl.ID, &tpl.Name, &tpl.Description, &tpl.Category, &tpl.Complexity,
		&tpl.IsPublic, &tpl.Tags, &tpl.Roles, &tpl.TaskCategories,
		&tpl.SourceWorkspaceID, &tpl.CreatedBy, &tpl.UsageCount, &tpl.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return tpl, nil
}

func (r *pgTemplateRepository) FindPublic(ctx context.Context) ([]*WorkspaceTemplate, error) {
	query := `
		SELECT id, name, description, category, complexity, is_public, tags,
		       roles, task_categories, source_workspace_id, created_by, usage_count, created_at
		FROM workspace_templates
		WHERE is_public = TRUE
		ORDER BY usage_count DESC, created_at DESC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []*WorkspaceTemplate
	for rows.Next() {
		tpl := &WorkspaceTemplate{}
		if err := rows.Scan(
			&tpl.ID, &tpl.Name, &tpl.Description, &tpl.Category, &tpl.Complexity,
			&tpl.IsPublic, &tpl.Tags, &tpl.Roles, &tpl.TaskCategories,
			&tpl.SourceWorkspaceID, &tpl.CreatedBy, &tpl.UsageCount, &tpl.CreatedAt,
		); err != nil {
			return nil, err
		}
		templates = append(templates, tpl)
	}
	return templates, rows.Err()
}

func (r *pgTemplateRepository) IncrementUsage(ctx context.Context, id string) error {
	query := `UPDATE workspace_templates SET usage_count = usage_count + 1 WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

// ============================================
// PostgreSQL Invitation Repository
// ============================================

type pgInvitationRepository struct {
	pool *pgxpool.Pool
}

func (r *pgInvitationRepository) Create(ctx context.Context, inv *Invitation) error {
	query := `
		INSERT INTO invitations (workspace_id, email, role, token, invited_by, status, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	return r.pool.QueryRow(ctx, query,
		inv.WorkspaceID, inv.Email, inv.Role, inv.Token, inv.InvitedBy,
		inv.Status, inv.ExpiresAt,
	).Scan(&inv.ID, &inv.CreatedAt)
}

func (r *pgInvitationRepository) FindByID(ctx context.Context, id string) (*Invitation, error) {
	query := invitationSelect + ` WHERE id = $1`
	return r.scanInvitation(r.pool.QueryRow(ctx, query, id))
}

func (r *pgInvitationRepository) FindByToken(ctx context.Context, token string) (*Invitation, error) {
	query := invitationSelect + ` WHERE token = $1`
	return r.scanInvitation(r.pool.QueryRow(ctx, query, token))
}

func (r *pgInvitationRepository) FindPending(ctx context.Context, workspaceID, email string) (*Invitation, error) {
	query := invitationSelect + `
		WHERE workspace_id = $1 AND LOWER(email) = LOWER($2) AND status = 'PENDING'
	`
	return r.scanInvitation(r.pool.QueryRow(ctx, query, workspaceID, email))
}

const invitationSelect = `
	SELECT id, workspace_id, email, role, token, invited_by, status,
	       expires_at, accepted_at, created_at
	FROM invitations`

func (r *pgInvitationRepository) scanInvitation(row pgx.Row) (*Invitation, error) {
	inv := &Invitation{}
	err := row.Scan(
		&inv.ID, &inv.WorkspaceID, &inv.Email, &inv.Role, &inv.Token,
		&inv.InvitedBy, &inv.Status, &inv.ExpiresAt, &inv.AcceptedAt, &inv.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (r *pgInvitationRepository) FindByWorkspaceID(ctx context.Context, workspaceID string) ([]*Invitation, error) {
	query := invitationSelect + ` WHERE workspace_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invitations []*Invitation
	for rows.Next() {
		inv := &Invitation{}
		if err := rows.Scan(
			&inv.ID, &inv.WorkspaceID, &inv.Email, &inv.Role, &inv.Token,
			&inv.InvitedBy, &inv.Status, &inv.ExpiresAt, &inv.AcceptedAt, &inv.CreatedAt,
		); err != nil {
			return nil, err
		}
		invitations = append(invitations, inv)
	}
	return invitations, rows.Err()
}

func (r *pgInvitationRepository) Update(ctx context.Context, inv *Invitation) error {
	query := `UPDATE invitations SET status = $2, accepted_at = $3 WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, inv.ID, inv.Status, inv.AcceptedAt)
	return err
}

// ============================================
// PostgreSQL Audit Log Repository
// ============================================

type pgAuditLogRepository struct {
	pool *pgxpool.Pool
}

func (r *pgAuditLogRepository) Append(ctx context.Context, entry *AuditLogEntry) error {
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO audit_log_entries (workspace_id, actor_id, action, details)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	return r.pool.QueryRow(ctx, query,
		entry.WorkspaceID, entry.ActorID, entry.Action, details,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *pgAuditLogRepository) FindByWorkspaceID(ctx context.Context, workspaceID string) ([]*AuditLogEntry, error) {
	query := `
		SELECT id, workspace_id, actor_id, action, details, created_at
		FROM audit_log_entries
		WHERE workspace_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*AuditLogEntry
	for rows.Next() {
		entry := &AuditLogEntry{}
		var details []byte
		if err := rows.Scan(
			&entry.ID, &entry.WorkspaceID, &entry.ActorID, &entry.Action,
			&details, &entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &entry.Details); err != nil {
				return nil, err
			}
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
