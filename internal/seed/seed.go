package seed

import (
	"context"
	"log"
	"time"

	"github.com/eventra-app/workspace-backend/internal/repository"
	"github.com/eventra-app/workspace-backend/internal/types"
	"golang.org/x/crypto/bcrypt"
)

// SeedData creates development fixtures: a few users and upcoming events
// ready for workspace provisioning.
func SeedData(repos *repository.Repositories) {
	ctx := context.Background()

	log.Println("[Seed] Creating initial data...")

	// ============================================
	// CREATE USERS
	// ============================================
	password, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)

	anika := &repository.User{
		Email:    "anika.rai@eventra.app",
		Password: string(password),
		Name:     "Anika Rai",
	}
	repos.UserRepo.Create(ctx, anika)

	dipesh := &repository.User{
		Email:    "dipesh.thapa@eventra.app",
		Password: string(password),
		Name:     "Dipesh Thapa",
	}
	repos.UserRepo.Create(ctx, dipesh)

	sunita := &repository.User{
		Email:    "sunita.gurung@eventra.app",
		Password: string(password),
		Name:     "Sunita Gurung",
	}
	repos.UserRepo.Create(ctx, sunita)

	log.Printf("[Seed] Created 3 users (password: password123)")

	// ============================================
	// CREATE EVENTS
	// ============================================
	conferenceStart := time.Now().AddDate(0, 2, 0)
	conferenceEnd := conferenceStart.AddDate(0, 0, 2)
	conference := &repository.Event{
		Name:        "Himalayan Tech Summit 2026",
		OrganizerID: anika.ID,
		EventType:   "conference",
		Status:      "PLANNED",
		StartsAt:    &conferenceStart,
		EndsAt:      &conferenceEnd,
	}
	repos.EventRepo.Create(ctx, conference)

	weddingStart := time.Now().AddDate(0, 1, 10)
	wedding := &repository.Event{
		Name:        "Gurung-Thapa Wedding",
		OrganizerID: sunita.ID,
		EventType:   "wedding",
		Status:      "PLANNED",
		StartsAt:    &weddingStart,
	}
	repos.EventRepo.Create(ctx, wedding)

	fundraiserStart := time.Now().AddDate(0, 0, 21)
	fundraiser := &repository.Event{
		Name:        "Community School Fundraiser",
		OrganizerID: dipesh.ID,
		EventType:   "fundraiser",
		Status:      "PLANNED",
		StartsAt:    &fundraiserStart,
	}
	repos.EventRepo.Create(ctx, fundraiser)

	log.Printf("[Seed] Created 3 events (organizers: %s, %s, %s)", anika.Name, sunita.Name, dipesh.Name)

	// ============================================
	// CREATE A PUBLIC TEMPLATE
	// ============================================
	description := "Baseline plan for multi-day conferences"
	template := &repository.WorkspaceTemplate{
		Name:        "Conference Starter",
		Description: &description,
		Category:    "conference",
		Complexity:  "medium",
		IsPublic:    true,
		CreatedBy:   anika.ID,
		Tags:        []string{"conference", "starter"},
		Roles:       []string{types.RoleEventCoordinator, types.RoleVolunteerManager},
		TaskCategories: []string{
			types.CategoryLogistics, types.CategoryMarketing, types.CategoryTechnical,
		},
	}
	repos.TemplateRepo.Create(ctx, template)

	log.Println("[Seed] Done")
}
