// internal/repository/repository.go
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrDuplicate is returned when a write violates a uniqueness constraint.
// The pg repositories translate unique-violation errors into it so services
// can rely on the data layer, not on check-then-write races.
var ErrDuplicate = errors.New("duplicate row")

// IsDuplicate reports whether err is a uniqueness violation from either
// repository backend.
func IsDuplicate(err error) bool {
	if errors.Is(err, ErrDuplicate) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// ============================================
// Models / Entities
// ============================================

type User struct {
	ID        string
	Email     string
	Password  string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type RefreshToken struct {
	ID        string
	Token     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Event is the external collaborator the workspace binds to. This service
// reads events for synchronization display; it never mutates them beyond
// provisioning-time validation.
type Event struct {
	ID          string
	Name        string
	OrganizerID string
	EventType   string
	Status      string
	StartsAt    *time.Time
	EndsAt      *time.Time
	CreatedAt   time.Time
}

type Workspace struct {
	ID         string
	EventID    string
	Name       string
	Status     string
	TemplateID *string
	DissolveAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type TeamMember struct {
	ID          string
	WorkspaceID string
	UserID      string
	Role        string
	Status      string
	InvitedBy   *string
	JoinedAt    time.Time
	User        *User
}

type WorkspaceChannel struct {
	ID          string
	WorkspaceID string
	Name        string
	CreatedAt   time.Time
}

type WorkspaceTask struct {
	ID          string
	WorkspaceID string
	Title       string
	Description *string
	AssigneeID  *string
	Category    string
	Priority    string
	Status      string
	DueDate     *time.Time
	CreatorID   string
	Archived    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type TaskDependency struct {
	ID              string
	TaskID          string
	DependsOnTaskID string
	DependencyType  string
	CreatedAt       time.Time
}

type WorkspaceTemplate struct {
	ID                string
	Name              string
	Description       *string
	Category          string
	Complexity        string
	IsPublic          bool
	Tags              []string
	Roles             []string
	TaskCategories    []string
	SourceWorkspaceID *string
	CreatedBy         string
	UsageCount        int
	CreatedAt         time.Time
}

type Invitation struct {
	ID          string
	WorkspaceID string
	Email       string
	Role        string
	Token       string
	InvitedBy   string
	Status      string
	ExpiresAt   time.Time
	AcceptedAt  *time.Time
	CreatedAt   time.Time
}

func (i *Invitation) IsExpired() bool {
	return time.Now().After(i.ExpiresAt)
}

type AuditLogEntry struct {
	ID          string
	WorkspaceID string
	ActorID     string
	Action      string
	Details     map[string]interface{}
	CreatedAt   time.Time
}

// ============================================
// Repository Interfaces
// ============================================

type UserRepository interface {
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	SaveRefreshToken(ctx context.Context, token *RefreshToken) error
	FindRefreshToken(ctx context.Context, token string) (*RefreshToken, error)
	DeleteRefreshToken(ctx context.Context, token string) error
	DeleteUserRefreshTokens(ctx context.Context, userID string) error
}

type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	FindByID(ctx context.Context, id string) (*Event, error)
	FindAll(ctx context.Context) ([]*Event, error)
}

type WorkspaceRepository interface {
	// Provision writes the workspace, its owner membership, the default
	// channels and the provisioning audit entry as a single atomic unit.
	Provision(ctx context.Context, workspace *Workspace, owner *TeamMember, channels []*WorkspaceChannel, entry *AuditLogEntry) error
	FindByID(ctx context.Context, id string) (*Workspace, error)
	FindByEventID(ctx context.Context, eventID string) (*Workspace, error)
	Update(ctx context.Context, workspace *Workspace) error
	FindRetentionExpired(ctx context.Context, now time.Time) ([]*Workspace, error)
	FindChannels(ctx context.Context, workspaceID string) ([]*WorkspaceChannel, error)
	AddMember(ctx context.Context, member *TeamMember) error
	FindMember(ctx context.Context, workspaceID, userID string) (*TeamMember, error)
	FindMemberByID(ctx context.Context, memberID string) (*TeamMember, error)
	FindMembers(ctx context.Context, workspaceID string) ([]*TeamMember, error)
	UpdateMember(ctx context.Context, member *TeamMember) error
}

type TaskRepository interface {
	Create(ctx context.Context, task *WorkspaceTask) error
	FindByID(ctx context.Context, id string) (*WorkspaceTask, error)
	FindByWorkspaceID(ctx context.Context, workspaceID string) ([]*WorkspaceTask, error)
	Update(ctx context.Context, task *WorkspaceTask) error
	CountByStatus(ctx context.Context, workspaceID string) (map[string]int, error)
	FindDueSoon(ctx context.Context, within time.Duration) ([]*WorkspaceTask, error)
}

type TaskDependencyRepository interface {
	Create(ctx context.Context, dep *TaskDependency) error
	FindByTaskID(ctx context.Context, taskID string) ([]*TaskDependency, error)
	FindDependents(ctx context.Context, dependsOnTaskID string) ([]*TaskDependency, error)
	FindByWorkspaceID(ctx context.Context, workspaceID string) ([]*TaskDependency, error)
	Delete(ctx context.Context, taskID, dependsOnTaskID string) error
}

type TemplateRepository interface {
	Create(ctx context.Context, tpl *WorkspaceTemplate) error
	FindByID(ctx context.Context, id string) (*WorkspaceTemplate, error)
	FindPublic(ctx context.Context) ([]*WorkspaceTemplate, error)
	IncrementUsage(ctx context.Context, id string) error
}

type InvitationRepository interface {
	Create(ctx context.Context, inv *Invitation) error
	FindByID(ctx context.Context, id string) (*Invitation, error)
	FindByToken(ctx context.Context, token string) (*Invitation, error)
	FindByWorkspaceID(ctx context.Context, workspaceID string) ([]*Invitation, error)
	FindPending(ctx context.Context, workspaceID, email string) (*Invitation, error)
	Update(ctx context.Context, inv *Invitation) error
}

// AuditLogRepository is append-only: no update or delete exists.
type AuditLogRepository interface {
	Append(ctx context.Context, entry *AuditLogEntry) error
	FindByWorkspaceID(ctx context.Context, workspaceID string) ([]*AuditLogEntry, error)
}

// ============================================
// Repositories Container
// ============================================

type Repositories struct {
	UserRepo       UserRepository
	EventRepo      EventRepository
	WorkspaceRepo  WorkspaceRepository
	TaskRepo       TaskRepository
	DependencyRepo TaskDependencyRepository
	TemplateRepo   TemplateRepository
	InvitationRepo InvitationRepository
	AuditRepo      AuditLogRepository
}

// NewRepositories creates in-memory repositories (for testing/fallback)
func NewRepositories() *Repositories {
	workspaces := newInMemoryWorkspaceRepository()
	tasks := newInMemoryTaskRepository()
	deps := newInMemoryTaskDependencyRepository()
	audit := newInMemoryAuditLogRepository()
	workspaces.bindAudit(audit)
	deps.bindTasks(tasks)
	return &Repositories{
		UserRepo:       newInMemoryUserRepository(),
		EventRepo:      newInMemoryEventRepository(),
		WorkspaceRepo:  workspaces,
		TaskRepo:       tasks,
		DependencyRepo: deps,
		TemplateRepo:   newInMemoryTemplateRepository(),
		InvitationRepo: newInMemoryInvitationRepository(),
		AuditRepo:      audit,
	}
}

// NewPgRepositories creates PostgreSQL-backed repositories
func NewPgRepositories(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		UserRepo:       &pgUserRepository{pool: pool},
		EventRepo:      &pgEventRepository{pool: pool},
		WorkspaceRepo:  &pgWorkspaceRepository{pool: pool},
		TaskRepo:       &pgTaskRepository{pool: pool},
		DependencyRepo: &pgTaskDependencyRepository{pool: pool},
		TemplateRepo:   &pgTemplateRepository{pool: pool},
		InvitationRepo: &pgInvitationRepository{pool: pool},
		AuditRepo:      &pgAuditLogRepository{pool: pool},
	}
}

// ============================================
// PostgreSQL User Repository
// ============================================

type pgUserRepository struct {
	pool *pgxpool.Pool
}

func (r *pgUserRepository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (email, password, name)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`
	return r.pool.QueryRow(ctx, query,
		user.Email, user.Password, user.Name,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *pgUserRepository) FindByID(ctx context.Context, id string) (*User, error) {
	query := `
		SELECT id, email, password, name, created_at, updated_at
		FROM users WHERE id = $1
	`
	user := &User{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&user.ID, &user.Email, &user.Password, &user.Name,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *pgUserRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	query := `
		SELECT id, email, password, name, created_at, updated_at
		FROM users WHERE LOWER(email) = LOWER($1)
	`
	user := &User{}
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&user.ID, &user.Email, &user.Password, &user.Name,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *pgUserRepository) SaveRefreshToken(ctx context.Context, token *RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (token, user_id, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	return r.pool.QueryRow(ctx, query, token.Token, token.UserID, token.ExpiresAt).
		Scan(&token.ID, &token.CreatedAt)
}

func (r *pgUserRepository) FindRefreshToken(ctx context.Context, token string) (*RefreshToken, error) {
	query := `
		SELECT id, token, user_id, expires_at, created_at
		FROM refresh_tokens WHERE token = $1
	`
	rt := &RefreshToken{}
	err := r.pool.QueryRow(ctx, query, token).Scan(
		&rt.ID, &rt.Token, &rt.UserID, &rt.ExpiresAt, &rt.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rt, nil
}

func (r *pgUserRepository) DeleteRefreshToken(ctx context.Context, token string) error {
	query := `DELETE FROM refresh_tokens WHERE token = $1`
	_, err := r.pool.Exec(ctx, query, token)
	return err
}

func (r *pgUserRepository) DeleteUserRefreshTokens(ctx context.Context, userID string) error {
	query := `DELETE FROM refresh_tokens WHERE user_id = $1`
	_, err := r.pool.Exec(ctx, query, userID)
	return err
}

// ============================================
// PostgreSQL Event Repository
// ============================================

type pgEventRepository struct {
	pool *pgxpool.Pool
}

func (r *pgEventRepository) Create(ctx context.Context, event *Event) error {
	query := `
		INSERT INTO events (name, organizer_id, event_type, status, starts_at, ends_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	return r.pool.QueryRow(ctx, query,
		event.Name, event.OrganizerID, event.EventType, event.Status,
		event.StartsAt, event.EndsAt,
	).Scan(&event.ID, &event.CreatedAt)
}

func (r *pgEventRepository) FindByID(ctx context.Context, id string) (*Event, error) {
	query := `
		SELECT id, name, organizer_id, event_type, status, starts_at, ends_at, created_at
		FROM events WHERE id = $1
	`
	event := &Event{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&event.ID, &event.Name, &event.OrganizerID, &event.EventType,
		&event.Status, &event.StartsAt, &event.EndsAt, &event.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (r *pgEventRepository) FindAll(ctx context.Context) ([]*Event, error) {
	query := `
		SELECT id, name, organizer_id, event_type, status, starts_at, ends_at, created_at
		FROM events ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		event := &Event{}
		if err := rows.Scan(
			&event.ID, &event.Name, &event.OrganizerID, &event.EventType,
			&event.Status, &event.StartsAt, &event.EndsAt, &event.CreatedAt,
		); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
