package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/westfield-hs/scheduler-api/api/swagger"
	"github.com/westfield-hs/scheduler-api/internal/handler"
	"github.com/westfield-hs/scheduler-api/internal/middleware"
	"github.com/westfield-hs/scheduler-api/internal/repository"
	"github.com/westfield-hs/scheduler-api/internal/router"
	"github.com/westfield-hs/scheduler-api/internal/service"
	"github.com/westfield-hs/scheduler-api/internal/workflow"
	rediscache "github.com/westfield-hs/scheduler-api/pkg/cache"
	"github.com/westfield-hs/scheduler-api/pkg/config"
	"github.com/westfield-hs/scheduler-api/pkg/database"
	"github.com/westfield-hs/scheduler-api/pkg/logger"
	corsmiddleware "github.com/westfield-hs/scheduler-api/pkg/middleware/cors"
	reqidmiddleware "github.com/westfield-hs/scheduler-api/pkg/middleware/requestid"
)

// @title Westfield HS Scheduler API
// @version 0.1.0
// @description Course scheduling workflow: student selections, gatekeeper approvals, counselor review
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	var metricsSvc *service.MetricsService
	if cfg.Metrics.Enabled {
		metricsSvc = service.NewMetricsService()
	}

	var cacheRepo service.CacheRepository
	redisClient, err := rediscache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
	} else {
		repo := repository.NewCacheRepository(redisClient, logr)
		defer repo.Close()
		cacheRepo = repo
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Roster.CacheTTL, logr, cacheRepo != nil && cfg.Roster.CacheEnabled)

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	approvalRepo := repository.NewApprovalRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)

	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "scheduler-api",
	})

	limits := workflow.Limits{
		MaxAcademic: cfg.Scheduling.MaxAcademicCourses,
		MaxElective: cfg.Scheduling.MaxElectiveChoices,
	}

	catalogSvc := service.NewCatalogService(courseRepo, approvalRepo, cacheSvc, nil, logr)
	scheduleSvc := service.NewScheduleService(scheduleRepo, courseRepo, approvalRepo, settingsRepo, studentRepo, userRepo, metricsSvc, logr, limits, cfg.Review.ClearOnEdit)
	approvalSvc := service.NewApprovalService(approvalRepo, courseRepo, scheduleRepo, userRepo, metricsSvc, logr)
	rosterSvc := service.NewRosterService(scheduleRepo, cacheSvc, cfg.Roster.CacheTTL, logr)
	reviewSvc := service.NewReviewService(scheduleSvc, catalogSvc, rosterSvc, logr)
	settingsSvc := service.NewSettingsService(settingsRepo, userRepo, logr)
	studentSvc := service.NewStudentService(studentRepo, userRepo, nil, logr)
	exportSvc := service.NewExportService(rosterSvc, scheduleSvc, logr, cfg.Exports.Enabled)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics(metricsSvc))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	if cfg.Metrics.Enabled {
		r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))
	}

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	router.Register(r, cfg.APIPrefix, authSvc, exportSvc, router.Handlers{
		Auth:     handler.NewAuthHandler(authSvc),
		Catalog:  handler.NewCatalogHandler(catalogSvc),
		Schedule: handler.NewScheduleHandler(scheduleSvc, approvalSvc, rosterSvc),
		Approval: handler.NewApprovalHandler(approvalSvc, rosterSvc),
		Roster:   handler.NewRosterHandler(rosterSvc),
		Review:   handler.NewReviewHandler(reviewSvc),
		Settings: handler.NewSettingsHandler(settingsSvc),
		Export:   handler.NewExportHandler(exportSvc),
		Student:  handler.NewStudentHandler(studentSvc),
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
