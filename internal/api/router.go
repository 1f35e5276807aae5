package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/atelierhq/backend/internal/app"
	iauth "github.com/atelierhq/backend/internal/auth"
	"github.com/atelierhq/backend/internal/database"
	"github.com/atelierhq/backend/internal/handlers"
	"github.com/atelierhq/backend/internal/middleware"
	"github.com/atelierhq/backend/internal/services"
	"github.com/atelierhq/backend/internal/storage"
)

// Services bundles the wired application services the router exposes.
type Services struct {
	Store      iauth.CredentialStore
	Sessions   *iauth.SessionService
	Lifecycle  *iauth.LifecycleService
	Projects   *services.ProjectService
	Categories *services.CategoryService
	Quotes     *services.QuoteService
	Users      *services.UserService
	Uploads    *storage.UploadService
}

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(db *gorm.DB, jwt *iauth.JWTService, cfg *app.Config, svcs Services) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if jwt == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if svcs.Store == nil || svcs.Sessions == nil || svcs.Lifecycle == nil {
		return nil, fmt.Errorf("auth services must be provided")
	}
	if svcs.Projects == nil || svcs.Categories == nil || svcs.Quotes == nil || svcs.Users == nil {
		return nil, fmt.Errorf("domain services must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())

	r.NoRoute(middleware.NotFoundHandler)

	if cfg.Monitoring.Health.Enabled {
		r.GET("/healthz", handlers.NewHealthHandler(db).Check)
	}
	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	authHandler := handlers.NewAuthHandler(svcs.Sessions, svcs.Lifecycle)
	projectHandler := handlers.NewProjectHandler(svcs.Projects)
	categoryHandler := handlers.NewCategoryHandler(svcs.Categories)
	quoteHandler := handlers.NewQuoteHandler(svcs.Quotes)
	userHandler := handlers.NewUserHandler(svcs.Users)

	var uploadHandler *handlers.UploadHandler
	if svcs.Uploads != nil {
		uploadHandler = handlers.NewUploadHandler(svcs.Uploads)
	}

	// Public site routes
	public := r.Group("/api")
	{
		public.GET("/projects", projectHandler.ListPublic)
		public.GET("/projects/:slug", projectHandler.GetPublic)
		public.GET("/categories", categoryHandler.List)
		public.GET("/categories/:slug", categoryHandler.Get)
		public.POST("/quotes", quoteHandler.Submit)
		if uploadHandler != nil {
			public.GET("/uploads/:key", uploadHandler.Serve)
		}
	}

	// Public auth routes
	auth := r.Group("/api/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/activate", authHandler.Activate)
		auth.POST("/activate/resend", authHandler.ResendActivation)
		auth.POST("/password/forgot", authHandler.ForgotPassword)
		auth.POST("/password/reset", authHandler.ResetPassword)
	}

	requireAuth := middleware.Auth(jwt)

	// Authenticated auth routes
	session := r.Group("/api/auth")
	session.Use(requireAuth)
	{
		session.GET("/me", authHandler.Me)
		session.POST("/logout", authHandler.Logout)
		session.POST("/password/change", authHandler.ChangePassword)
	}

	// Admin routes. Editors manage content; user administration stays
	// admin-only.
	content := r.Group("/api/admin")
	content.Use(requireAuth, middleware.RequireRole(svcs.Store, database.RoleAdmin, database.RoleEditor))
	{
		content.GET("/projects", projectHandler.ListAdmin)
		content.GET("/projects/:slug", projectHandler.GetAdmin)
		content.POST("/projects", projectHandler.Create)
		content.PUT("/projects/:id", projectHandler.Update)
		content.DELETE("/projects/:id", projectHandler.Delete)

		content.POST("/categories", categoryHandler.Create)
		content.PUT("/categories/:id", categoryHandler.Update)
		content.DELETE("/categories/:id", categoryHandler.Delete)

		content.GET("/quotes", quoteHandler.List)
		content.GET("/quotes/:id", quoteHandler.Get)
		content.PUT("/quotes/:id/status", quoteHandler.UpdateStatus)

		if uploadHandler != nil {
			content.POST("/uploads", uploadHandler.Upload)
			content.DELETE("/uploads/:key", uploadHandler.Delete)
		}
	}

	admin := r.Group("/api/admin")
	admin.Use(requireAuth, middleware.RequireRole(svcs.Store, database.RoleAdmin))
	{
		admin.GET("/users", userHandler.List)
		admin.GET("/users/:id", userHandler.Get)
		admin.POST("/users", userHandler.Create)
		admin.PUT("/users/:id", userHandler.Update)
		admin.DELETE("/users/:id", userHandler.Delete)
	}

	return r, nil
}
