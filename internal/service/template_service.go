// internal/service/template_service.go
package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/eventra-app/workspace-backend/internal/repository"
	"github.com/eventra-app/workspace-backend/internal/types"
)

const recommendationCacheTTL = 5 * time.Minute

// ============================================
// Template Service
// ============================================

type TemplateService interface {
	CreateFromWorkspace(ctx context.Context, workspaceID, actorID, name string, description *string, category, complexity string, isPublic bool, tags []string) (*repository.WorkspaceTemplate, error)
	Apply(ctx context.Context, workspaceID, templateID, actorID string) (*repository.Workspace, error)
	Recommendations(ctx context.Context, eventID, actorID string) ([]*repository.WorkspaceTemplate, error)
	Get(ctx context.Context, templateID, userID string) (*repository.WorkspaceTemplate, error)
	ListPublic(ctx context.Context) ([]*repository.WorkspaceTemplate, error)
}

type templateService struct {
	deps  ServiceDeps
	perms *permissionService
	audit AuditService
}

func NewTemplateService(deps ServiceDeps, perms *permissionService, audit AuditService) TemplateService {
	return &templateService{deps: deps, perms: perms, audit: audit}
}

// CreateFromWorkspace snapshots the workspace's structure into a reusable
// template: the deduplicated roles of its ACTIVE members and the
// deduplicated categories of its non-archived tasks, copied by value.
// Later changes to the workspace do not touch the template.
func (s *templateService) CreateFromWorkspace(ctx context.Context, workspaceID, actorID, name string, description *string, category, complexity string, isPublic bool, tags []string) (*repository.WorkspaceTemplate, error) {
	var template *repository.WorkspaceTemplate
	details := map[string]interface{}{"name": name}

	err := s.audit.Audited(ctx, workspaceID, actorID, "template.create", details, func() error {
		if _, err := s.perms.RequireCapability(ctx, workspaceID, actorID, types.CapManageTemplates); err != nil {
			return err
		}
		if name == "" {
			return fmt.Errorf("%w: name is required", ErrValidation)
		}

		workspace, err := s.deps.Repos.WorkspaceRepo.FindByID(ctx, workspaceID)
		if err != nil {
			return err
		}
		if workspace == nil {
			return ErrNotFound
		}
		if workspace.Status != types.WorkspaceActive {
			return ErrConflict
		}

		members, err := s.deps.Repos.WorkspaceRepo.FindMembers(ctx, workspaceID)
		if err != nil {
			return err
		}
		roles := dedupe(activeRoles(members))

		tasks, err := s.deps.Repos.TaskRepo.FindByWorkspaceID(ctx, workspaceID)
		if err != nil {
			return err
		}
		categories := make([]string, 0, len(tasks))
		for _, t := range tasks {
			categories = append(categories, t.Category)
		}
		categories = dedupe(categories)

		template = &repository.WorkspaceTemplate{
			Name:              name,
			Description:       description,
			Category:          category,
			Complexity:        complexity,
			IsPublic:          isPublic,
			Tags:              tags,
			Roles:             roles,
			TaskCategories:    categories,
			SourceWorkspaceID: &workspaceID,
			CreatedBy:         actorID,
		}
		if err := s.deps.Repos.TemplateRepo.Create(ctx, template); err != nil {
			return fmt.Errorf("failed to create template: %w", err)
		}

		details["template_id"] = template.ID
		details["roles"] = roles
		details["task_categories"] = categories
		s.invalidateRecommendations(ctx)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return template, nil
}

// Apply clones a template's structure onto a workspace: one scaffold task
// per captured category, the workspace's templateId, and the template's
// usage counter.
func (s *templateService) Apply(ctx context.Context, workspaceID, templateID, actorID string) (*repository.Workspace, error) {
	var workspace *repository.Workspace
	details := map[string]interface{}{"template_id": templateID}

	err := s.audit.Audited(ctx, workspaceID, actorID, "template.apply", details, func() error {
		if _, err := s.perms.RequireCapability(ctx, workspaceID, actorID, types.CapManageTemplates); err != nil {
			return err
		}

		var err error
		workspace, err = s.deps.Repos.WorkspaceRepo.FindByID(ctx, workspaceID)
		if err != nil {
			return err
		}
		if workspace == nil {
			return ErrNotFound
		}
		if workspace.Status != types.WorkspaceActive {
			return ErrConflict
		}

		template, err := s.deps.Repos.TemplateRepo.FindByID(ctx, templateID)
		if err != nil {
			return err
		}
		if template == nil {
			return ErrNotFound
		}

		for _, category := range template.TaskCategories {
			task := &repository.WorkspaceTask{
				WorkspaceID: workspaceID,
				Title:       fmt.Sprintf("Plan %s work", category),
				Category:    category,
				Priority:    types.PriorityMedium,
				Status:      types.TaskNotStarted,
				CreatorID:   actorID,
			}
			if err := s.deps.Repos.TaskRepo.Create(ctx, task); err != nil {
				return err
			}
		}

		workspace.TemplateID = &templateID
		if err := s.deps.Repos.WorkspaceRepo.Update(ctx, workspace); err != nil {
			return err
		}
		if err := s.deps.Repos.TemplateRepo.IncrementUsage(ctx, templateID); err != nil {
			log.Printf("[Template] failed to bump usage for %s: %v", templateID, err)
		}

		details["task_categories"] = template.TaskCategories
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.deps.Broadcaster.WorkspaceEvent(workspaceID, "template.applied", workspace)
	return workspace, nil
}

// Recommendations ranks public templates for an event: templates whose
// category matches the event type come first, then by popularity. An
// empty list is a valid answer. Results are cached briefly per event
// type; the cache is never consulted for permission decisions.
func (s *templateService) Recommendations(ctx context.Context, eventID, actorID string) ([]*repository.WorkspaceTemplate, error) {
	event, err := s.deps.Repos.EventRepo.FindByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrNotFound
	}

	cacheKey := "templates:recommendations:" + event.EventType
	if s.deps.Redis != nil {
		var cached []*repository.WorkspaceTemplate
		if err := s.deps.Redis.GetCache(ctx, cacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	templates, err := s.deps.Repos.TemplateRepo.FindPublic(ctx)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(templates, func(i, j int) bool {
		iMatch := templates[i].Category == event.EventType
		jMatch := templates[j].Category == event.EventType
		if iMatch != jMatch {
			return iMatch
		}
		return templates[i].UsageCount > templates[j].UsageCount
	})
	if templates == nil {
		templates = []*repository.WorkspaceTemplate{}
	}

	if s.deps.Redis != nil {
		if err := s.deps.Redis.SetCache(ctx, cacheKey, templates, recommendationCacheTTL); err != nil {
			log.Printf("[Template] failed to cache recommendations: %v", err)
		}
	}
	return templates, nil
}

func (s *templateService) Get(ctx context.Context, templateID, userID string) (*repository.WorkspaceTemplate, error) {
	template, err := s.deps.Repos.TemplateRepo.FindByID(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if template == nil {
		return nil, ErrNotFound
	}
	if !template.IsPublic && template.CreatedBy != userID {
		return nil, ErrForbidden
	}
	return template, nil
}

func (s *templateService) ListPublic(ctx context.Context) ([]*repository.WorkspaceTemplate, error) {
	return s.deps.Repos.TemplateRepo.FindPublic(ctx)
}

func (s *templateService) invalidateRecommendations(ctx context.Context) {
	if s.deps.Redis == nil {
		return
	}
	if err := s.deps.Redis.InvalidateCache(ctx, "templates:recommendations:*"); err != nil {
		log.Printf("[Template] failed to invalidate recommendation cache: %v", err)
	}
}

func activeRoles(members []*repository.TeamMember) []string {
	roles := make([]string, 0, len(members))
	for _, m := range members {
		if m.Status == types.MemberActive {
			roles = append(roles, m.Role)
		}
	}
	return roles
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
