package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/sma-substitution-api/api/swagger"
	"github.com/noah-isme/sma-substitution-api/internal/handler"
	"github.com/noah-isme/sma-substitution-api/internal/middleware"
	"github.com/noah-isme/sma-substitution-api/internal/repository"
	"github.com/noah-isme/sma-substitution-api/internal/service"
	"github.com/noah-isme/sma-substitution-api/pkg/cache"
	"github.com/noah-isme/sma-substitution-api/pkg/config"
	"github.com/noah-isme/sma-substitution-api/pkg/database"
	"github.com/noah-isme/sma-substitution-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-substitution-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-substitution-api/pkg/middleware/requestid"
)

// @title SMA Substitution API
// @version 0.1.0
// @description Teacher availability and substitution conflict engine
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	metricsSvc := service.NewMetricsService()

	cacheEnabled := cfg.Substitutions.CacheEnabled
	var cacheRepo service.CacheRepository
	if cacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, substitution cache disabled", "error", err)
			cacheEnabled = false
		} else {
			defer redisClient.Close() //nolint:errcheck
			cacheRepo = repository.NewRedisCacheRepository(redisClient)
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Substitutions.CacheTTL, logr, cacheEnabled)

	substitutionRepo := repository.NewSubstitutionRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	vacationRepo := repository.NewVacationRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	availabilitySvc := service.NewAvailabilityService(substitutionRepo, vacationRepo, teacherRepo, nil, logr)
	substitutionSvc := service.NewSubstitutionService(substitutionRepo, teacherRepo, availabilitySvc, cacheSvc, nil, logr)
	exportSvc := service.NewExportService(substitutionSvc, nil, nil, logr)

	substitutionHandler := handler.NewSubstitutionHandler(substitutionSvc, availabilitySvc, exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

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

	r.GET("/metrics", metricsHandler.Scrape)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(cfg.JWT.Secret))

	subs := api.Group("/substitutions")
	{
		subs.GET("", substitutionHandler.List)
		subs.GET("/available-teachers", substitutionHandler.AvailableTeachers)
		subs.GET("/check-availability/:teacherId", substitutionHandler.CheckAvailability)
		subs.GET("/stats", substitutionHandler.Stats)
		subs.GET("/export", substitutionHandler.Export)

		assign := subs.Group("")
		remove := subs.Group("")
		if cfg.Audit.Enabled {
			assign.Use(middleware.Audit(auditRepo, "substitution.assign", "lesson_occurrence"))
			remove.Use(middleware.Audit(auditRepo, "substitution.remove", "lesson_occurrence"))
		}
		assign.POST("", substitutionHandler.Assign)
		remove.DELETE("/:occurrenceId", substitutionHandler.Remove)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
