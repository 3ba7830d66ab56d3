package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"studio/config"
	"studio/feeds"
	"studio/middleware"
	"studio/models"
)

// NewRouter wires every route. The JWT secret must already be set with
// middleware.SetJWTSecret and the database opened.
func NewRouter(cfg *config.Config, feedSvc *feeds.Service, logger *zap.Logger) http.Handler {
	authHandler := NewAuthHandler(cfg, logger)
	userHandler := NewUserHandler(logger)
	clientHandler := NewClientHandler(logger)
	projectHandler := NewProjectHandler(logger)
	taskHandler := NewTaskHandler(logger)
	dashboardHandler := NewDashboardHandler(logger)
	feedHandler := NewFeedHandler(feedSvc, logger)

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.RequestLogger(logger))
	router.Use(chimiddleware.Recoverer)

	// Public routes
	router.Get("/health", Health)
	router.Post("/api/auth/login", authHandler.Login)
	router.Post("/api/auth/register", authHandler.Register)

	// Protected routes
	router.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware)

		// Session routes (accessible even when password change required)
		r.Post("/api/auth/logout", authHandler.Logout)
		r.Get("/api/auth/me", authHandler.Me)
		r.Post("/api/auth/change-password", authHandler.ChangePassword)

		// Routes that require password to be changed first
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePasswordChange)

			r.Get("/api/dashboard", dashboardHandler.Dashboard)

			r.Get("/api/clients", clientHandler.List)
			r.Get("/api/clients/{id}", clientHandler.Get)

			r.Get("/api/projects", projectHandler.List)
			r.Get("/api/projects/{id}", projectHandler.Get)
			r.Get("/api/projects/{id}/phases", projectHandler.ListPhases)
			r.Get("/api/projects/{id}/milestones", projectHandler.ListMilestones)
			r.Get("/api/projects/{id}/documents", projectHandler.ListDocuments)
			r.Post("/api/projects/{id}/documents", projectHandler.CreateDocument)
			r.Get("/api/projects/{id}/activities", projectHandler.ListActivities)
			r.Get("/api/projects/{id}/tasks/export", taskHandler.ExportCSV)

			r.Get("/api/tasks", taskHandler.List)
			r.Post("/api/tasks", taskHandler.Create)
			r.Get("/api/tasks/{id}", taskHandler.Get)
			r.Patch("/api/tasks/{id}", taskHandler.Update)
			r.Delete("/api/tasks/{id}", taskHandler.Delete)
			r.Post("/api/tasks/{id}/comments", taskHandler.AddComment)

			// Feeds
			r.Get("/api/hr", feedHandler.Feed(feeds.FeedHR))
			r.Get("/api/buildings", feedHandler.Feed(feeds.FeedBuildings))
			r.Get("/api/project-stats", feedHandler.Feed(feeds.FeedProjectStats))
			r.Get("/api/pxt", feedHandler.Feed(feeds.FeedPXT))
			r.Get("/api/flow-standards", feedHandler.Feed(feeds.FeedFlowStandards))
			r.Get("/api/monday-metrics", feedHandler.Feed(feeds.FeedMonday))
			r.Get("/api/feeds/overview", feedHandler.Overview)

			// Admin and manager routes
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleAdmin, models.RoleManager))
				r.Get("/api/users", userHandler.List)
				r.Post("/api/clients", clientHandler.Create)
				r.Post("/api/projects", projectHandler.Create)
				r.Patch("/api/projects/{id}", projectHandler.Update)
				r.Delete("/api/projects/{id}", projectHandler.Delete)
				r.Post("/api/projects/{id}/members", projectHandler.AddMember)
				r.Delete("/api/projects/{id}/members/{userID}", projectHandler.RemoveMember)
				r.Post("/api/projects/{id}/phases", projectHandler.CreatePhase)
				r.Post("/api/projects/{id}/milestones", projectHandler.CreateMilestone)
				r.Patch("/api/milestones/{id}", projectHandler.UpdateMilestone)
			})

			// Admin only routes
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleAdmin))
				r.Post("/api/users", userHandler.Create)
				r.Patch("/api/users/{id}", userHandler.Update)
				r.Delete("/api/users/{id}", userHandler.Delete)
				r.Get("/api/invites", authHandler.ListInvites)
				r.Post("/api/invites", authHandler.CreateInvite)
			})
		})
	})

	return router
}
