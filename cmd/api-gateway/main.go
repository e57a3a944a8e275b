package main

import (
	"context"
	"fmt"
	"log"
	"net/http/pprof"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/edudyne/scheduler/api/swagger"
	internalhandler "github.com/edudyne/scheduler/internal/handler"
	internalmiddleware "github.com/edudyne/scheduler/internal/middleware"
	"github.com/edudyne/scheduler/internal/repository"
	"github.com/edudyne/scheduler/internal/service"
	"github.com/edudyne/scheduler/pkg/cache"
	"github.com/edudyne/scheduler/pkg/config"
	"github.com/edudyne/scheduler/pkg/database"
	"github.com/edudyne/scheduler/pkg/jobs"
	"github.com/edudyne/scheduler/pkg/logger"
	"github.com/edudyne/scheduler/pkg/metrics"
	corsmiddleware "github.com/edudyne/scheduler/pkg/middleware/cors"
	reqidmiddleware "github.com/edudyne/scheduler/pkg/middleware/requestid"
)

// @title Edudyne Scheduler API
// @version 0.1.0
// @description Quantum-inspired simulated annealing schedule generator
// @BasePath /api/v1
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

	metricsSvc := metrics.New()
	metricsHandler := internalhandler.NewMetricsHandler(metricsSvc)

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to initialise database", "error", err)
	}
	defer db.Close()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
		registerPprof(r)
	}

	api := r.Group(cfg.APIPrefix)

	authSvc := service.NewAuthService(service.AuthConfig{
		Secret:        cfg.JWT.Secret,
		Expiry:        cfg.JWT.Expiration,
		Issuer:        "edudyne-scheduler",
		AdminPassword: cfg.JWT.AdminPassword,
	}, logr)
	authHandler := internalhandler.NewAuthHandler(authSvc)

	authRoutes := api.Group("/auth")
	authRoutes.POST("/admin/login", authHandler.Login)

	var cacheRepo service.CacheRepository
	var cacheCloser interface{ Close() error }
	if client, err := cache.NewRedis(cfg.Redis); err != nil {
		logr.Sugar().Warnw("battle-result cache disabled", "error", err)
	} else {
		cacheCloser = client
		cacheRepo = repository.NewCacheRepository(client, logr)
	}
	if cacheCloser != nil {
		defer cacheCloser.Close()
	}
	battleCacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Scheduler.CacheTTL, logr, cacheRepo != nil)

	validate := validator.New()
	runRepo := repository.NewRunRepository(db)
	runEntryRepo := repository.NewRunEntryRepository(db)

	var schedulerHandler *internalhandler.ScheduleGeneratorHandler
	if cfg.Scheduler.Enabled {
		schedulerSvc := service.NewScheduleGeneratorService(
			runRepo,
			runEntryRepo,
			db,
			metricsSvc,
			validate,
			logr,
			service.ScheduleGeneratorConfig{ProposalTTL: cfg.Scheduler.ProposalTTL},
		).WithCache(battleCacheSvc)

		if cfg.Audit.Enabled {
			workers := cfg.Audit.WorkerConcurrency
			if workers <= 0 {
				workers = 1
			}
			auditSvc := service.NewBattleAuditService(nil, logr)
			queueCfg := jobs.QueueConfig{
				Workers:    workers,
				BufferSize: workers * 4,
				MaxRetries: cfg.Audit.WorkerRetries,
				RetryDelay: 5 * time.Second,
				Logger:     logr,
			}
			auditQueue := jobs.NewQueue("battle-audit", auditSvc.Handle, queueCfg)
			queueCtx, cancel := context.WithCancel(context.Background())
			auditQueue.Start(queueCtx)
			defer func() {
				cancel()
				auditQueue.Stop()
			}()
			auditSvc = service.NewBattleAuditService(auditQueue, logr)
			schedulerSvc = schedulerSvc.WithBattleAudit(auditSvc)
		}

		schedulerHandler = internalhandler.NewScheduleGeneratorHandler(schedulerSvc)
	}

	secured := api.Group("")
	secured.Use(internalmiddleware.JWT(authSvc))

	if schedulerHandler != nil {
		api.POST("/schedule/generate", schedulerHandler.Generate)
		api.GET("/schedule/runs", schedulerHandler.List)
		api.GET("/schedule/runs/:runId", schedulerHandler.Entries)
		api.GET("/schedule/runs/:runId/calendar.ics", schedulerHandler.Calendar)

		secured.POST("/schedule/battle", schedulerHandler.Battle)
		secured.POST("/schedule/save", schedulerHandler.Save)
		secured.DELETE("/schedule/runs/:runId", schedulerHandler.Delete)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func registerPprof(r *gin.Engine) {
	group := r.Group("/debug/pprof")
	group.GET("/", gin.WrapF(pprof.Index))
	group.GET("/cmdline", gin.WrapF(pprof.Cmdline))
	group.GET("/profile", gin.WrapF(pprof.Profile))
	group.POST("/symbol", gin.WrapF(pprof.Symbol))
	group.GET("/symbol", gin.WrapF(pprof.Symbol))
	group.GET("/trace", gin.WrapF(pprof.Trace))
	group.GET("/allocs", gin.WrapH(pprof.Handler("allocs")))
	group.GET("/block", gin.WrapH(pprof.Handler("block")))
	group.GET("/goroutine", gin.WrapH(pprof.Handler("goroutine")))
	group.GET("/heap", gin.WrapH(pprof.Handler("heap")))
	group.GET("/mutex", gin.WrapH(pprof.Handler("mutex")))
	group.GET("/threadcreate", gin.WrapH(pprof.Handler("threadcreate")))
}
