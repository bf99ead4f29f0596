package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/classhub/classhub-api/api/swagger"
	"github.com/classhub/classhub-api/internal/handler"
	"github.com/classhub/classhub-api/internal/middleware"
	"github.com/classhub/classhub-api/internal/models"
	"github.com/classhub/classhub-api/internal/repository"
	"github.com/classhub/classhub-api/internal/service"
	"github.com/classhub/classhub-api/pkg/cache"
	"github.com/classhub/classhub-api/pkg/config"
	"github.com/classhub/classhub-api/pkg/database"
	"github.com/classhub/classhub-api/pkg/logger"
	corsmiddleware "github.com/classhub/classhub-api/pkg/middleware/cors"
	reqidmiddleware "github.com/classhub/classhub-api/pkg/middleware/requestid"
	"github.com/classhub/classhub-api/pkg/storage"
)

// @title ClassHub API
// @version 1.0.0
// @description Classroom management API: classes, schedules, enrollments and announcements.
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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
	defer db.Close() //nolint:errcheck

	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect to redis", "error", err)
		}
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	uploads, err := storage.NewLocalStorage(cfg.Uploads.Dir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare uploads directory", "error", err)
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	classRepo := repository.NewClassRepository(db)
	announcementRepo := repository.NewAnnouncementRepository(db)

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, cfg.Cache.ClassTTL, cfg.Cache.Enabled, logr).WithMetrics(metricsSvc)
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		TokenSecret: cfg.JWT.Secret,
		TokenExpiry: cfg.JWT.Expiration,
		Issuer:      cfg.JWT.Issuer,
	})
	classSvc := service.NewClassService(classRepo, announcementRepo, cacheSvc, cfg.Schedule.StrictParse, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(classRepo, cacheSvc, logr)
	announcementSvc := service.NewAnnouncementService(announcementRepo, classRepo, validate, logr)
	exportSvc := service.NewExportService(classRepo, logr)

	authHandler := handler.NewAuthHandler(authSvc, uploads, cfg.Uploads.MaxSizeBytes, logr)
	classHandler := handler.NewClassHandler(classSvc, exportSvc, logr)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc, logr)
	announcementHandler := handler.NewAnnouncementHandler(announcementSvc, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "reason": "database"})
			return
		}
		if redisClient != nil {
			if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "reason": "cache"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))
	r.Static("/uploads", uploads.Dir())

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/auth/register", authHandler.Register)
		api.POST("/auth/login", authHandler.Login)

		authed := api.Group("", middleware.Authenticate(authSvc))
		{
			authed.GET("/me", authHandler.Me)
			authed.PATCH("/me", authHandler.UpdateMe)
			authed.GET("/me/classes", enrollmentHandler.MyClasses)
			authed.GET("/me/schedule/export", classHandler.ExportMySchedule)

			authed.GET("/classes", classHandler.List)
			authed.GET("/classes/:id", classHandler.Get)
			authed.GET("/classes/:id/announcements", announcementHandler.ListByClass)
			authed.GET("/classes/:id/schedule/export", classHandler.ExportSchedule)

			teachers := authed.Group("", middleware.RequireRoles(models.RoleTeacher))
			{
				teachers.POST("/classes", classHandler.Create)
				teachers.PATCH("/classes/:id", classHandler.Update)
				teachers.DELETE("/classes/:id", classHandler.Delete)
				teachers.GET("/classes/:id/students", classHandler.Students)
				teachers.POST("/classes/:id/announcements", announcementHandler.Create)
				teachers.PATCH("/announcements/:id", announcementHandler.Update)
				teachers.DELETE("/announcements/:id", announcementHandler.Delete)
			}

			students := authed.Group("", middleware.RequireRoles(models.RoleStudent))
			{
				students.POST("/classes/join", enrollmentHandler.Join)
			}
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
