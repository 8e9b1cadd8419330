// internal/repository/memory.go
//
// In-memory repository implementations. They back the test suites and the
// development fallback path, and enforce the same uniqueness constraints as
// the Postgres schema so service behavior matches across backends.
package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ============================================
// In-Memory User Repository
// ============================================

type inMemoryUserRepository struct {
	mu     sync.RWMutex
	users  map[string]*User
	tokens map[string]*RefreshToken
}

func newInMemoryUserRepository() *inMemoryUserRepository {
	return &inMemoryUserRepository{
		users:  make(map[string]*User),
		tokens: make(map[string]*RefreshToken),
	}
}

func (r *inMemoryUserRepository) Create(ctx context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, user.Email) {
			return ErrDuplicate
		}
	}
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *inMemoryUserRepository) FindByID(ctx context.Context, id string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if u, ok := r.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (r *inMemoryUserRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryUserRepository) SaveRefreshToken(ctx context.Context, token *RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	token.ID = uuid.NewString()
	token.CreatedAt = time.Now()
	cp := *token
	r.tokens[token.Token] = &cp
	return nil
}

func (r *inMemoryUserRepository) FindRefreshToken(ctx context.Context, token string) (*RefreshToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if t, ok := r.tokens[token]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, nil
}

func (r *inMemoryUserRepository) DeleteRefreshToken(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, token)
	return nil
}

func (r *inMemoryUserRepository) DeleteUserRefreshTokens(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, t := range r.tokens {
		if t.UserID == userID {
			delete(r.tokens, k)
		}
	}
	return nil
}

// ============================================
// In-Memory Event Repository
// ============================================

type inMemoryEventRepository struct {
	mu     sync.RWMutex
	events map[string]*Event
}

func newInMemoryEventRepository() *inMemoryEventRepository {
	return &inMemoryEventRepository{events: make(map[string]*Event)}
}

func (r *inMemoryEventRepository) Create(ctx context.Context, event *Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	event.ID = uuid.NewString()
	event.CreatedAt = time.Now()
	cp := *event
	r.events[event.ID] = &cp
	return nil
}

func (r *inMemoryEventRepository) FindByID(ctx context.Context, id string) (*Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.events[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, nil
}

func (r *inMemoryEventRepository) FindAll(ctx context.Context) ([]*Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	events := make([]*Event, 0, len(r.events))
	for _, e := range r.events {
		cp := *e
		events = append(events, &cp)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].CreatedAt.After(events[j].CreatedAt) })
	return events, nil
}

// ============================================
// In-Memory Workspace Repository
// ============================================

type inMemoryWorkspaceRepository struct {
	mu         sync.RWMutex
	workspaces map[string]*Workspace
	members    map[string]*TeamMember
	channels   []*WorkspaceChannel
	audit      *inMemoryAuditLogRepository
}

func newInMemoryWorkspaceRepository() *inMemoryWorkspaceRepository {
	return &inMemoryWorkspaceRepository{
		workspaces: make(map[string]*Workspace),
		members:    make(map[string]*TeamMember),
	}
}

// bindAudit lets Provision write its audit entry through the shared
// append-only store, matching the transactional pg implementation.
func (r *inMemoryWorkspaceRepository) bindAudit(audit *inMemoryAuditLogRepository) {
	r.audit = audit
}

func (r *inMemoryWorkspaceRepository) Provision(ctx context.Context, workspace *Workspace, owner *TeamMember, channels []*WorkspaceChannel, entry *AuditLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ws := range r.workspaces {
		if ws.EventID == workspace.EventID {
			return ErrDuplicate
		}
	}

	now := time.Now()
	workspace.ID = uuid.NewString()
	workspace.CreatedAt = now
	workspace.UpdatedAt = now
	wsCopy := *workspace
	r.workspaces[workspace.ID] = &wsCopy

	owner.ID = uuid.NewString()
	owner.WorkspaceID = workspace.ID
	owner.JoinedAt = now
	ownerCopy := *owner
	r.members[owner.ID] = &ownerCopy

	for _, ch := range channels {
		ch.ID = uuid.NewString()
		ch.WorkspaceID = workspace.ID
		ch.CreatedAt = now
		chCopy := *ch
		r.channels = append(r.channels, &chCopy)
	}

	entry.WorkspaceID = workspace.ID
	if r.audit != nil {
		return r.audit.Append(ctx, entry)
	}
	return nil
}

func (r *inMemoryWorkspaceRepository) FindByID(ctx context.Context, id string) (*Workspace, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if ws, ok := r.workspaces[id]; ok {
		cp := *ws
		return &cp, nil
	}
	return nil, nil
}

func (r *inMemoryWorkspaceRepository) FindByEventID(ctx context.Context, eventID string) (*Workspace, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ws := range r.workspaces {
		if ws.EventID == eventID {
			cp := *ws
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryWorkspaceRepository) Update(ctx context.Context, workspace *Workspace) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.workspaces[workspace.ID]
	if !ok {
		return nil
	}
	workspace.UpdatedAt = time.Now()
	cp := *workspace
	cp.CreatedAt = existing.CreatedAt
	r.workspaces[workspace.ID] = &cp
	return nil
}

func (r *inMemoryWorkspaceRepository) FindRetentionExpired(ctx context.Context, now time.Time) ([]*Workspace, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Workspace
	for _, ws := range r.workspaces {
		if ws.Status == "WINDING_DOWN" && ws.DissolveAt != nil && !ws.DissolveAt.After(now) {
			cp := *ws
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *inMemoryWorkspaceRepository) FindChannels(ctx context.Context, workspaceID string) ([]*WorkspaceChannel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*WorkspaceChannel
	for _, ch := range r.channels {
		if ch.WorkspaceID == workspaceID {
			cp := *ch
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *inMemoryWorkspaceRepository) AddMember(ctx context.Context, member *TeamMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if member.Status == "ACTIVE" {
		for _, m := range r.members {
			if m.WorkspaceID == member.WorkspaceID && m.UserID == member.UserID && m.Status == "ACTIVE" {
				return ErrDuplicate
			}
		}
	}
	member.ID = uuid.NewString()
	member.JoinedAt = time.Now()
	cp := *member
	r.members[member.ID] = &cp
	return nil
}

func (r *inMemoryWorkspaceRepository) FindMember(ctx context.Context, workspaceID, userID string) (*TeamMember, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.members {
		if m.WorkspaceID == workspaceID && m.UserID == userID && m.Status == "ACTIVE" {
			cp := *m
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryWorkspaceRepository) FindMemberByID(ctx context.Context, memberID string) (*TeamMember, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if m, ok := r.members[memberID]; ok {
		cp := *m
		return &cp, nil
	}
	return nil, nil
}

func (r *inMemoryWorkspaceRepository) FindMembers(ctx context.Context, workspaceID string) ([]*TeamMember, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*TeamMember
	for _, m := range r.members {
		if m.WorkspaceID == workspaceID {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JoinedAt.Before(out[j].JoinedAt) })
	return out, nil
}

func (r *inMemoryWorkspaceRepository) UpdateMember(ctx context.Context, member *TeamMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.members[member.ID]; ok {
		existing.Role = member.Role
		existing.Status = member.Status
	}
	return nil
}

// ============================================
// In-Memory Task Repository
// ============================================

type inMemoryTaskRepository struct {
	mu    sync.RWMutex
	tasks map[string]*WorkspaceTask
	seq   int
}

func newInMemoryTaskRepository() *inMemoryTaskRepository {
	return &inMemoryTaskRepository{tasks: make(map[string]*WorkspaceTask)}
}

func (r *inMemoryTaskRepository) Create(ctx context.Context, task *WorkspaceTask) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	task.ID = uuid.NewString()
	// sequence keeps creation order stable even when timestamps collide
	r.seq++
	task.CreatedAt = time.Now().Add(time.Duration(r.seq) * time.Nanosecond)
	task.UpdatedAt = task.CreatedAt
	cp := *task
	r.tasks[task.ID] = &cp
	return nil
}

func (r *inMemoryTaskRepository) FindByID(ctx context.Context, id string) (*WorkspaceTask, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if t, ok := r.tasks[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, nil
}

func (r *inMemoryTaskRepository) FindByWorkspaceID(ctx context.Context, workspaceID string) ([]*WorkspaceTask, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*WorkspaceTask
	for _, t := range r.tasks {
		if t.WorkspaceID == workspaceID && !t.Archived {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *inMemoryTaskRepository) Update(ctx context.Context, task *WorkspaceTask) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.tasks[task.ID]
	if !ok {
		return nil
	}
	task.UpdatedAt = time.Now()
	cp := *task
	cp.CreatedAt = existing.CreatedAt
	r.tasks[task.ID] = &cp
	return nil
}

func (r *inMemoryTaskRepository) CountByStatus(ctx context.Context, workspaceID string) (map[string]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[string]int)
	for _, t := range r.tasks {
		if t.WorkspaceID == workspaceID && !t.Archived {
			counts[t.Status]++
		}
	}
	return counts, nil
}

func (r *inMemoryTaskRepository) FindDueSoon(ctx context.Context, within time.Duration) ([]*WorkspaceTask, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	deadline := time.Now().Add(within)
	var out []*WorkspaceTask
	for _, t := range r.tasks {
		if t.Archived || t.Status == "COMPLETED" || t.DueDate == nil {
			continue
		}
		if t.DueDate.After(time.Now()) && t.DueDate.Before(deadline) {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ============================================
// In-Memory Task Dependency Repository
// ============================================

type inMemoryTaskDependencyRepository struct {
	mu    sync.RWMutex
	deps  []*TaskDependency
	tasks *inMemoryTaskRepository
}

func newInMemoryTaskDependencyRepository() *inMemoryTaskDependencyRepository {
	return &inMemoryTaskDependencyRepository{}
}

// bindTasks gives the dependency repo access to task rows so
// FindByWorkspaceID can mirror the pg join.
func (r *inMemoryTaskDependencyRepository) bindTasks(tasks *inMemoryTaskRepository) {
	r.tasks = tasks
}

func (r *inMemoryTaskDependencyRepository) Create(ctx context.Context, dep *TaskDependency) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.deps {
		if d.TaskID == dep.TaskID && d.DependsOnTaskID == dep.DependsOnTaskID {
			return ErrDuplicate
		}
	}
	dep.ID = uuid.NewString()
	dep.CreatedAt = time.Now()
	cp := *dep
	r.deps = append(r.deps, &cp)
	return nil
}

func (r *inMemoryTaskDependencyRepository) FindByTaskID(ctx context.Context, taskID string) ([]*TaskDependency, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*TaskDependency
	for _, d := range r.deps {
		if d.TaskID == taskID {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *inMemoryTaskDependencyRepository) FindDependents(ctx context.Context, dependsOnTaskID string) ([]*TaskDependency, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*TaskDependency
	for _, d := range r.deps {
		if d.DependsOnTaskID == dependsOnTaskID {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *inMemoryTaskDependencyRepository) FindByWorkspaceID(ctx context.Context, workspaceID string) ([]*TaskDependency, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*TaskDependency
	for _, d := range r.deps {
		if r.tasks != nil {
			if t, _ := r.tasks.FindByID(ctx, d.TaskID); t == nil || t.WorkspaceID != workspaceID {
				continue
			}
		}
		cp := *d
		out = append(out, &cp)
	}
	return out, nil
}

func (r *inMemoryTaskDependencyRepository) Delete(ctx context.Context, taskID, dependsOnTaskID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.deps[:0]
	for _, d := range r.deps {
		if d.TaskID == taskID && d.DependsOnTaskID == dependsOnTaskID {
			continue
		}
		kept = append(kept, d)
	}
	r.deps = kept
	return nil
}

// ============================================
// In-Memory Template Repository
// ============================================

type inMemoryTemplateRepository struct {
	mu        sync.RWMutex
	templates map[string]*WorkspaceTemplate
}

func newInMemoryTemplateRepository() *inMemoryTemplateRepository {
	return &inMemoryTemplateRepository{templates: make(map[string]*WorkspaceTemplate)}
}

func (r *inMemoryTemplateRepository) Create(ctx context.Context, tpl *WorkspaceTemplate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tpl.ID = uuid.NewString()
	tpl.CreatedAt = time.Now()
	cp := *tpl
	cp.Tags = append([]string(nil), tpl.Tags...)
	cp.Roles = append([]string(nil), tpl.Roles...)
	cp.TaskCategories = append([]string(nil), tpl.TaskCategories...)
	r.templates[tpl.ID] = &cp
	return nil
}

func (r *inMemoryTemplateRepository) FindByID(ctx context.Context, id string) (*WorkspaceTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if tpl, ok := r.templates[id]; ok {
		cp := *tpl
		cp.Tags = append([]string(nil), tpl.Tags...)
		cp.Roles = append([]string(nil), tpl.Roles...)
		cp.TaskCategories = append([]string(nil), tpl.TaskCategories...)
		return &cp, nil
	}
	return nil, nil
}

func (r *inMemoryTemplateRepository) FindPublic(ctx context.Context) ([]*WorkspaceTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*WorkspaceTemplate
	for _, tpl := range r.templates {
		if tpl.IsPublic {
			cp := *tpl
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UsageCount != out[j].UsageCount {
			return out[i].UsageCount > out[j].UsageCount
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *inMemoryTemplateRepository) IncrementUsage(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if tpl, ok := r.templates[id]; ok {
		tpl.UsageCount++
	}
	return nil
}

// ============================================
// In-Memory Invitation Repository
// ============================================

type inMemoryInvitationRepository struct {
	mu          sync.RWMutex
	invitations map[string]*Invitation
}

func newInMemoryInvitationRepository() *inMemoryInvitationRepository {
	return &inMemoryInvitationRepository{invitations: make(map[string]*Invitation)}
}

func (r *inMemoryInvitationRepository) Create(ctx context.Context, inv *Invitation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv.ID = uuid.NewString()
	inv.CreatedAt = time.Now()
	cp := *inv
	r.invitations[inv.ID] = &cp
	return nil
}

func (r *inMemoryInvitationRepository) FindByID(ctx context.Context, id string) (*Invitation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if inv, ok := r.invitations[id]; ok {
		cp := *inv
		return &cp, nil
	}
	return nil, nil
}

func (r *inMemoryInvitationRepository) FindByToken(ctx context.Context, token string) (*Invitation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, inv := range r.invitations {
		if inv.Token == token {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryInvitationRepository) FindByWorkspaceID(ctx context.Context, workspaceID string) ([]*Invitation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Invitation
	for _, inv := range r.invitations {
		if inv.WorkspaceID == workspaceID {
			cp := *inv
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *inMemoryInvitationRepository) FindPending(ctx context.Context, workspaceID, email string) (*Invitation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, inv := range r.invitations {
		if inv.WorkspaceID == workspaceID && strings.EqualFold(inv.Email, email) && inv.Status == "PENDING" {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryInvitationRepository) Update(ctx context.Context, inv *Invitation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.invitations[inv.ID]; ok {
		existing.Status = inv.Status
		existing.AcceptedAt = inv.AcceptedAt
	}
	return nil
}

// ============================================
// In-Memory Audit Log Repository
// ============================================

type inMemoryAuditLogRepository struct {
	mu      sync.RWMutex
	entries []*AuditLogEntry
	seq     int
}

func newInMemoryAuditLogRepository() *inMemoryAuditLogRepository {
	return &inMemoryAuditLogRepository{}
}

func (r *inMemoryAuditLogRepository) Append(ctx context.Context, entry *AuditLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.ID = uuid.NewString()
	r.seq++
	entry.CreatedAt = time.Now().Add(time.Duration(r.seq) * time.Nanosecond)
	cp := *entry
	r.entries = append(r.entries, &cp)
	return nil
}

func (r *inMemoryAuditLogRepository) FindByWorkspaceID(ctx context.Context, workspaceID string) ([]*AuditLogEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*AuditLogEntry
	for _, e := range r.entries {
		if e.WorkspaceID == workspaceID {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
