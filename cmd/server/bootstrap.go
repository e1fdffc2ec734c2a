package main

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/taskflowhq/taskflow/internal/auth"
	"github.com/taskflowhq/taskflow/internal/config"
	"github.com/taskflowhq/taskflow/internal/handlers"
	"github.com/taskflowhq/taskflow/internal/middleware"
	"github.com/taskflowhq/taskflow/internal/models"
	"github.com/taskflowhq/taskflow/internal/provider"
	"github.com/taskflowhq/taskflow/internal/repository"
	"github.com/taskflowhq/taskflow/internal/services"
	"github.com/taskflowhq/taskflow/pkg/logger"
)

// appServices holds initialized handlers and background workers.
type appServices struct {
	rateLimiter *middleware.RateLimiter
	maintenance *cron.Cron

	orgHandler       *handlers.OrganizationHandler
	roleHandler      *handlers.RoleHandler
	userHandler      *handlers.UserHandler
	projectHandler   *handlers.ProjectHandler
	taskHandler      *handlers.TaskHandler
	analyticsHandler *handlers.AnalyticsHandler
	webhookHandler   *handlers.WebhookHandler
	systemLogHandler *handlers.SystemLogHandler
}

// bootstrap wires both stores, the authorization service, and all
// handlers.
func bootstrap(cfg *config.Config) *appServices {
	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	db := models.GetDB()

	if err := services.EnsureDefaultOrganization(db); err != nil {
		logger.Warn().Err(err).Msg("Failed to seed default organization")
	}

	services.InitSystemLogger(db)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	mongoDB, err := repository.Connect(ctx, &cfg.Mongo)
	if err != nil {
		logger.Fatalf("Failed to connect to document store: %v", err)
	}
	if err := repository.EnsureIndexes(ctx, mongoDB); err != nil {
		logger.Warn().Err(err).Msg("Failed to ensure document indexes")
	}

	projectRepo := repository.NewProjectRepo(mongoDB, cfg.Mongo.QueryTimeout)
	taskRepo := repository.NewTaskRepo(mongoDB, cfg.Mongo.QueryTimeout)

	authSvc := auth.NewService(db, projectRepo, taskRepo)

	orgSvc := services.NewOrganizationService(db)
	roleSvc := services.NewRoleService(db)
	userSvc := services.NewUserService(db)
	providerClient := provider.NewHTTPClient(cfg.Provider.APIBaseURL, cfg.Provider.SecretKey)
	syncSvc := services.NewSyncService(db, providerClient)
	analyticsSvc := services.NewAnalyticsService(projectRepo, taskRepo)
	logSvc := services.NewSystemLogService(db)

	store := middleware.NewMemoryRateLimitStore()
	limiter := middleware.NewRateLimiter(store, cfg.RateLimit.Window)
	maintenance := services.StartMaintenanceScheduler(db, store)

	return &appServices{
		rateLimiter:      limiter,
		maintenance:      maintenance,
		orgHandler:       handlers.NewOrganizationHandler(orgSvc, authSvc),
		roleHandler:      handlers.NewRoleHandler(roleSvc, authSvc),
		userHandler:      handlers.NewUserHandler(userSvc, syncSvc, authSvc),
		projectHandler:   handlers.NewProjectHandler(projectRepo, userSvc, authSvc),
		taskHandler:      handlers.NewTaskHandler(taskRepo, projectRepo, authSvc),
		analyticsHandler: handlers.NewAnalyticsHandler(analyticsSvc, authSvc),
		webhookHandler:   handlers.NewWebhookHandler(syncSvc, cfg.Provider.WebhookSecret),
		systemLogHandler: handlers.NewSystemLogHandler(logSvc, authSvc),
	}
}

// shutdown stops background workers.
func (s *appServices) shutdown() {
	if s.maintenance != nil {
		s.maintenance.Stop()
	}
	logger.Info().Msg("background workers stopped")
}
