package main

import (
	"github.com/gin-gonic/gin"
	"github.com/taskflowhq/taskflow/internal/config"
	"github.com/taskflowhq/taskflow/internal/middleware"
	"github.com/taskflowhq/taskflow/pkg/logger"
)

// registerRoutes sets up all HTTP routes. Rate limit ceilings are per
// client per endpoint within the configured window; destructive and
// provisioning operations get the tightest budgets. The limiter runs
// before identity resolution so anonymous floods are cut off at the
// ceiling instead of reaching token verification.
func registerRoutes(r *gin.Engine, cfg *config.Config, svc *appServices) {
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	limit := svc.rateLimiter.Limit
	authn := middleware.RequireIdentity(cfg.Auth.SessionSecret)
	audit := middleware.AuditLog()

	// limited builds the standard chain for an authenticated endpoint:
	// rate limit, then identity, then audit, then the handler.
	limited := func(max int, h gin.HandlerFunc) []gin.HandlerFunc {
		return []gin.HandlerFunc{limit(max), authn, audit, h}
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "taskflow"})
	})

	// Identity provider deliveries; authenticated by signature only.
	r.POST("/webhooks/identity", limit(100), svc.webhookHandler.Handle)

	api := r.Group("/api")
	{
		api.GET("/users/me", limited(100, svc.userHandler.Me)...)
		api.POST("/sync-users", limited(5, svc.userHandler.Sync)...)

		users := api.Group("/users")
		{
			users.GET("", limited(60, svc.userHandler.List)...)
			users.GET("/:id", limited(60, svc.userHandler.Get)...)
			users.PUT("/:id", limited(30, svc.userHandler.Update)...)
			users.DELETE("/:id", limited(10, svc.userHandler.Delete)...)
		}

		orgs := api.Group("/organizations")
		{
			orgs.GET("", limited(30, svc.orgHandler.List)...)
			orgs.POST("", limited(5, svc.orgHandler.Create)...)
			orgs.GET("/:id", limited(30, svc.orgHandler.Get)...)
			orgs.PUT("/:id", limited(10, svc.orgHandler.Update)...)
			orgs.DELETE("/:id", limited(5, svc.orgHandler.Delete)...)
		}

		roles := api.Group("/roles")
		{
			roles.GET("", limited(30, svc.roleHandler.List)...)
			roles.POST("", limited(10, svc.roleHandler.Create)...)
			roles.GET("/permissions", limited(30, svc.roleHandler.Permissions)...)
			roles.GET("/:id", limited(30, svc.roleHandler.Get)...)
			roles.PUT("/:id", limited(10, svc.roleHandler.Update)...)
			roles.DELETE("/:id", limited(5, svc.roleHandler.Delete)...)
		}

		projects := api.Group("/projects")
		{
			projects.GET("", limited(100, svc.projectHandler.List)...)
			projects.POST("", limited(20, svc.projectHandler.Create)...)
			projects.GET("/:id", limited(100, svc.projectHandler.Get)...)
			projects.PUT("/:id", limited(30, svc.projectHandler.Update)...)
			projects.DELETE("/:id", limited(10, svc.projectHandler.Delete)...)
		}

		tasks := api.Group("/tasks")
		{
			tasks.GET("", limited(100, svc.taskHandler.List)...)
			tasks.POST("", limited(30, svc.taskHandler.Create)...)
			tasks.GET("/:id", limited(100, svc.taskHandler.Get)...)
			tasks.PUT("/:id", limited(50, svc.taskHandler.Update)...)
			tasks.DELETE("/:id", limited(20, svc.taskHandler.Delete)...)
		}

		api.GET("/analytics", limited(30, svc.analyticsHandler.Dashboard)...)

		logs := api.Group("/system-logs")
		{
			logs.GET("", limited(30, svc.systemLogHandler.List)...)
			logs.GET("/modules", limited(30, svc.systemLogHandler.GetModules)...)
			logs.POST("/cleanup", limited(5, svc.systemLogHandler.Cleanup)...)
		}
	}
}
