package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eventra-app/workspace-backend/internal/api/handlers"
	"github.com/eventra-app/workspace-backend/internal/api/middleware"
	"github.com/eventra-app/workspace-backend/internal/config"
	"github.com/eventra-app/workspace-backend/internal/cron"
	"github.com/eventra-app/workspace-backend/internal/db"
	"github.com/eventra-app/workspace-backend/internal/email"
	"github.com/eventra-app/workspace-backend/internal/repository"
	"github.com/eventra-app/workspace-backend/internal/seed"
	"github.com/eventra-app/workspace-backend/internal/service"
	"github.com/eventra-app/workspace-backend/internal/socket"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// ============================================
	// Load environment variables
	// ============================================
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// ============================================
	// Load configuration
	// ============================================
	cfg := config.Load()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// ============================================
	// Database: migrations + pool, with in-memory fallback
	// ============================================
	var repos *repository.Repositories
	var pg *db.PostgresDB

	if cfg.DatabaseURL != "" {
		log.Println("[Main] Running database migrations...")
		if err := db.RunMigrations(cfg.DatabaseURL, "./internal/db/migrations"); err != nil {
			log.Fatalf("[Main] Migration failed: %v", err)
		}
		log.Println("[Main] Database migrations completed")

		var err error
		pg, err = db.NewPostgresDB(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("[Main] Failed to connect to PostgreSQL: %v", err)
		}
		defer pg.Close()
		repos = repository.NewPgRepositories(pg.Pool)
	} else {
		log.Println("[Main] DATABASE_URL not set, using in-memory store")
		repos = repository.NewRepositories()
	}

	// ============================================
	// Redis (optional)
	// ============================================
	var redisDB *db.RedisDB
	if cfg.RedisURL != "" {
		var err error
		redisDB, err = db.NewRedisDB(cfg.RedisURL)
		if err != nil {
			log.Printf("[Main] Failed to connect to Redis: %v (continuing without cache)", err)
			redisDB = nil
		} else {
			defer redisDB.Close()
			log.Println("[Main] Redis cache enabled")
		}
	}

	// ============================================
	// Email Service (optional)
	// ============================================
	var emailSvc *email.EmailService
	if cfg.SMTPHost != "" {
		emailSvc = email.NewEmailService(&email.Config{
			Host:        cfg.SMTPHost,
			Port:        cfg.SMTPPort,
			User:        cfg.SMTPUser,
			Password:    cfg.SMTPPassword,
			From:        cfg.SMTPFrom,
			FromName:    cfg.SMTPFromName,
			UseTLS:      cfg.SMTPUseTLS,
			FrontendURL: cfg.FrontendURL,
		})
		log.Println("[Main] Email service initialized")
	} else {
		log.Println("[Main] Email not configured (SMTP_HOST not set)")
	}

	// ============================================
	// WebSocket Hub
	// ============================================
	hub := socket.NewHub()
	hub.CanJoin = func(workspaceID, userID string) bool {
		member, err := repos.WorkspaceRepo.FindMember(context.Background(), workspaceID, userID)
		return err == nil && member != nil
	}
	go hub.Run()
	broadcaster := socket.NewBroadcaster(hub)
	wsHandler := socket.NewHandler(hub, cfg.JWTSecret)
	log.Println("[Main] WebSocket hub initialized")

	// ============================================
	// Seed Data (for development)
	// ============================================
	if cfg.Environment != "production" {
		seed.SeedData(repos)
	}

	// ============================================
	// Services
	// ============================================
	services := service.NewServices(&service.ServiceDeps{
		Config:      cfg,
		Repos:       repos,
		EmailSvc:    emailSvc,
		Redis:       redisDB,
		Broadcaster: broadcaster,
	})
	log.Println("[Main] All services initialized")

	// ============================================
	// Handlers
	// ============================================
	h := handlers.NewHandlers(services, repos)

	// ============================================
	// Cron Scheduler
	// ============================================
	scheduler := cron.NewScheduler(services, repos, emailSvc)
	scheduler.Start()
	defer scheduler.Stop()

	// ============================================
	// Router
	// ============================================
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "healthy",
			"timestamp":  time.Now(),
			"cache":      cacheStatus(redisDB),
			"email":      emailStatus(emailSvc),
			"ws_clients": hub.GetConnectedClientsCount(),
		})
	})

	api := r.Group("/api")
	{
		// ============================================
		// Public routes
		// ============================================
		auth := api.Group("/auth")
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
			auth.POST("/logout", h.Auth.Logout)
		}

		// WebSocket route (token via query param)
		api.GET("/ws", wsHandler.HandleWebSocket)

		// ============================================
		// Protected routes
		// ============================================
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(services.Auth))
		{
			workspace := protected.Group("/workspace")
			{
				workspace.POST("/provision", h.Workspace.Provision)
				workspace.GET("/:id", h.Workspace.Get)
				workspace.PUT("/:id", h.Workspace.Update)
				workspace.POST("/:id/dissolve", h.Workspace.Dissolve)
				workspace.GET("/:id/status", h.Workspace.Status)
				workspace.GET("/:id/channels", h.Workspace.ListChannels)
				workspace.GET("/:id/audit-logs", h.Workspace.ListAuditLog)
				workspace.POST("/:id/apply-template", h.Template.Apply)
			}

			team := protected.Group("/team")
			{
				team.POST("/:workspaceId/invite", h.Member.Invite)
				team.GET("/:workspaceId/members", h.Member.List)
				team.PUT("/:workspaceId/members/:memberId", h.Member.UpdateRole)
				team.DELETE("/:workspaceId/members/:memberId", h.Member.Remove)
				team.GET("/:workspaceId/invitations", h.Member.ListInvitations)
				team.DELETE("/:workspaceId/invitations/:invitationId", h.Member.CancelInvitation)
			}

			invitations := protected.Group("/invitations")
			{
				invitations.POST("/accept", h.Member.AcceptInvitation)
			}

			tasks := protected.Group("/tasks")
			{
				tasks.POST("/:workspaceId", h.Task.Create)
				tasks.GET("/:workspaceId", h.Task.List)
				tasks.GET("/:workspaceId/summary", h.Task.Summary)
			}

			task := protected.Group("/task")
			{
				task.GET("/:taskId", h.Task.Get)
				task.PUT("/:taskId", h.Task.Update)
				task.PATCH("/:taskId/status", h.Task.UpdateStatus)
				task.POST("/:taskId/assign", h.Task.Assign)
				task.POST("/:taskId/dependencies", h.Task.AddDependency)
				task.DELETE("/:taskId/dependencies/:dependsOnTaskId", h.Task.RemoveDependency)
			}

			templates := protected.Group("/templates")
			{
				templates.GET("", h.Template.ListPublic)
				templates.POST("/create-from-workspace", h.Template.CreateFromWorkspace)
				templates.GET("/:templateId", h.Template.Get)
			}

			events := protected.Group("/events")
			{
				events.GET("", h.Event.List)
				events.GET("/:id", h.Event.Get)
				events.GET("/:id/template-recommendations", h.Template.Recommendations)
			}
		}
	}

	// ============================================
	// Server with graceful shutdown
	// ============================================
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("[Main] Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[Main] Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("[Main] Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("[Main] Server forced to shutdown: %v", err)
	}

	log.Println("[Main] Server exited")
}

func cacheStatus(redisDB *db.RedisDB) string {
	if redisDB != nil {
		return "connected"
	}
	return "disabled"
}

func emailStatus(emailSvc *email.EmailService) string {
	if emailSvc != nil {
		return "configured"
	}
	return "disabled"
}
