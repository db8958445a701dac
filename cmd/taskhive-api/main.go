package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m1z23r/drift/pkg/drift"
	"github.com/m1z23r/drift/pkg/middleware"

	"github.com/taskhive/taskhive-api/internal/config"
	"github.com/taskhive/taskhive-api/internal/database"
	"github.com/taskhive/taskhive-api/internal/handlers"
	authmw "github.com/taskhive/taskhive-api/internal/middleware"
	"github.com/taskhive/taskhive-api/internal/realtime"
	"github.com/taskhive/taskhive-api/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	hub := realtime.NewHub()
	go hub.Run()

	jwtService := services.NewJWTService(cfg.JWTSecret, cfg.JWTAccessExpiry, cfg.JWTRefreshExpiry)
	userService := services.NewUserService(db)
	tokenService := services.NewTokenService(db)
	orgService := services.NewOrganizationService(db)
	teamService := services.NewTeamService(db)
	projectService := services.NewProjectService(db, userService, hub)
	taskService := services.NewTaskService(db, userService, projectService, hub)
	apiKeyService := services.NewAPIKeyService(db)

	authHandler := handlers.NewAuthHandler(cfg, userService, tokenService, jwtService)
	userHandler := handlers.NewUserHandler(userService)
	orgHandler := handlers.NewOrganizationHandler(orgService, userService)
	teamHandler := handlers.NewTeamHandler(teamService, orgService, userService)
	projectHandler := handlers.NewProjectHandler(projectService, taskService, userService)
	taskHandler := handlers.NewTaskHandler(taskService)
	apiKeyHandler := handlers.NewAPIKeyHandler(apiKeyService, projectService, userService)
	automationHandler := handlers.NewAutomationHandler(taskService, projectService)
	sseHandler := handlers.NewSSEHandler(hub, projectService, userService)

	app := drift.New()

	if cfg.IsProduction() {
		app.SetMode(drift.ReleaseMode)
	} else {
		app.SetMode(drift.DebugMode)
	}

	app.Use(middleware.Recovery())
	app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", authmw.SessionHeader},
		MaxAge:       86400,
	}))
	app.Use(middleware.BodyParser())

	api := app.Group("/api/v1")

	auth := api.Group("/auth")
	auth.Get("/:provider/consent", authHandler.GetConsentURL)
	auth.Get("/:provider/callback", authHandler.Callback)
	auth.Post("/exchange", authHandler.ExchangeCode)
	auth.Post("/refresh", authHandler.RefreshToken)
	auth.Post("/logout", authHandler.Logout)

	protected := api.Group("")
	protected.Use(authmw.Auth(jwtService))

	protected.Post("/auth/logout-all", authHandler.LogoutAll)

	protected.Get("/users/me", userHandler.Me)
	protected.Patch("/users/me", userHandler.Update)
	protected.Patch("/users/:id/role", userHandler.SetRole)
	protected.Patch("/users/:id/status", userHandler.SetStatus)

	protected.Post("/organizations", orgHandler.Create)
	protected.Get("/organizations/:id", orgHandler.Get)
	protected.Patch("/organizations/:id", orgHandler.Update)
	protected.Post("/organizations/:id/archive", orgHandler.Archive)
	protected.Delete("/organizations/:id", orgHandler.Delete)
	protected.Get("/organizations/:id/members", orgHandler.GetMembers)
	protected.Post("/organizations/:id/admins/:userId", orgHandler.AddAdmin)
	protected.Delete("/organizations/:id/admins/:userId", orgHandler.RemoveAdmin)
	protected.Post("/organizations/:id/invites", orgHandler.Invite)
	protected.Get("/organizations/:id/teams", teamHandler.ListByOrganization)

	protected.Get("/invites", orgHandler.MyInvites)
	protected.Post("/invites/:inviteId/accept", orgHandler.AcceptInvite)
	protected.Post("/invites/:inviteId/decline", orgHandler.DeclineInvite)

	protected.Post("/teams", teamHandler.Create)
	protected.Get("/teams/:id", teamHandler.Get)
	protected.Patch("/teams/:id", teamHandler.Update)
	protected.Post("/teams/:id/archive", teamHandler.Archive)
	protected.Delete("/teams/:id", teamHandler.Delete)
	protected.Get("/teams/:id/members", teamHandler.GetMembers)
	protected.Post("/teams/:id/members", teamHandler.AddMember)
	protected.Delete("/teams/:id/members/:userId", teamHandler.RemoveMember)

	protected.Get("/projects", projectHandler.List)
	protected.Post("/projects", projectHandler.Create)
	protected.Get("/projects/:id", projectHandler.Get)
	protected.Patch("/projects/:id", projectHandler.Update)
	protected.Post("/projects/:id/archive", projectHandler.Archive)
	protected.Delete("/projects/:id", projectHandler.Delete)
	protected.Get("/projects/:id/members", projectHandler.GetMembers)
	protected.Post("/projects/:id/members", projectHandler.AddMember)
	protected.Delete("/projects/:id/members/:userId", projectHandler.RemoveMember)
	protected.Post("/projects/:id/columns", projectHandler.AddColumn)
	protected.Delete("/projects/:id/columns/:columnId", projectHandler.RemoveColumn)
	protected.Get("/projects/:id/assignable-users", projectHandler.AssignableUsers)
	protected.Get("/projects/:id/tasks", projectHandler.Tasks)

	protected.Get("/projects/:id/api-keys", apiKeyHandler.List)
	protected.Post("/projects/:id/api-keys", apiKeyHandler.Create)
	protected.Delete("/projects/:id/api-keys/:keyId", apiKeyHandler.Revoke)

	protected.Post("/tasks", taskHandler.Create)
	protected.Get("/tasks/personal", taskHandler.Personal)
	protected.Get("/tasks/assignable-users", taskHandler.AssignablePersonal)
	protected.Get("/tasks/:id", taskHandler.Get)
	protected.Patch("/tasks/:id", taskHandler.Update)
	protected.Post("/tasks/:id/transition", taskHandler.Transition)
	protected.Post("/tasks/:id/assignees", taskHandler.Assign)
	protected.Delete("/tasks/:id/assignees/:userId", taskHandler.Unassign)
	protected.Get("/tasks/:id/history", taskHandler.History)
	protected.Post("/tasks/:id/archive", taskHandler.Archive)
	protected.Delete("/tasks/:id", taskHandler.Delete)

	protected.Get("/events", sseHandler.Connect)
	protected.Post("/sse/:sessionId/subscribe/:projectId", sseHandler.Subscribe)
	protected.Post("/sse/:sessionId/unsubscribe/:projectId", sseHandler.Unsubscribe)

	automation := api.Group("/automation")
	automation.Use(authmw.APIKeyAuth(apiKeyService))
	automation.Get("/tasks", automationHandler.ListTasks)
	automation.Post("/tasks", automationHandler.CreateTask)
	automation.Post("/tasks/:taskId/transition", automationHandler.TransitionTask)

	api.Get("/health", func(c *drift.Context) {
		_ = c.JSON(200, map[string]string{"status": "ok"})
	})

	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		for range ticker.C {
			_ = tokenService.CleanupExpired(context.Background())
			_ = apiKeyService.CleanupExpired(context.Background())
		}
	}()

	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		log.Printf("Server starting on %s", addr)
		if err := app.Run(addr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
}
