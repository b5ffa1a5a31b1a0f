package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/futebagres/pelada-api/api/swagger"
	"github.com/futebagres/pelada-api/internal/handler"
	internalmiddleware "github.com/futebagres/pelada-api/internal/middleware"
	"github.com/futebagres/pelada-api/internal/repository"
	"github.com/futebagres/pelada-api/internal/service"
	"github.com/futebagres/pelada-api/pkg/cache"
	"github.com/futebagres/pelada-api/pkg/config"
	"github.com/futebagres/pelada-api/pkg/database"
	"github.com/futebagres/pelada-api/pkg/jobs"
	"github.com/futebagres/pelada-api/pkg/logger"
	corsmiddleware "github.com/futebagres/pelada-api/pkg/middleware/cors"
	reqidmiddleware "github.com/futebagres/pelada-api/pkg/middleware/requestid"
	"github.com/futebagres/pelada-api/pkg/scheduler"
	"github.com/futebagres/pelada-api/pkg/signing"
)

// @title FuteBagres Pelada API
// @version 1.0.0
// @description Scheduling, attendance and player profiles for pelada groups.
// @BasePath /
// @schemes http https
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
	sugar := logr.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		sugar.Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		sugar.Warnw("redis unavailable, caching disabled", "error", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	validate := validator.New()
	service.RegisterEventValidators(validate, logr)

	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	eventRepo := repository.NewEventRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	var metricsSvc *service.MetricsService
	if cfg.Metrics.Enabled {
		metricsSvc = service.NewMetricsService()
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, redisClient != nil)

	dashboardCache := service.NewDashboardCache(cacheSvc, cfg.Dashboard.CacheTTL, logr)
	invalidations := jobs.New[[]string]("dashboard-invalidation", dashboardCache.InvalidateNow, jobs.Config{
		Workers:    2,
		BufferSize: 256,
		MaxRetries: 3,
		RetryDelay: time.Second,
		Logger:     logr,
	})
	invalidations.Start(context.Background())
	dashboardCache.UseQueue(invalidations)

	loc := cfg.Heatmap.Location()

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	profileSvc := service.NewProfileService(profileRepo, validate, logr, dashboardCache, cfg.Profiles.PlaceholderAvatar)
	eventSvc := service.NewEventService(eventRepo, validate, logr, metricsSvc, dashboardCache, service.EventServiceConfig{
		CodeLength:      cfg.Events.CodeLength,
		CodeMaxAttempts: cfg.Events.CodeMaxAttempts,
		Location:        loc,
		MaxOccurrences:  cfg.Events.MaxOccurrences,
	})
	feedSvc := service.NewCalendarFeedService(eventRepo, logr, service.CalendarFeedConfig{
		Location: loc,
		Horizon:  cfg.Events.FeedHorizon,
		BaseURL:  cfg.PublicURL + cfg.APIPrefix,
		FeedURL:  cfg.PublicURL + cfg.APIPrefix + "/calendar/",
		Signer:   signing.NewSigner(cfg.Events.FeedSecret, cfg.Events.FeedLinkTTL),
	})
	attendanceSvc := service.NewAttendanceService(attendanceRepo, eventRepo, validate, logr, metricsSvc, dashboardCache, loc)
	dashboardSvc := service.NewDashboardService(eventRepo, attendanceSvc, dashboardCache, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	profileHandler := handler.NewProfileHandler(profileSvc)
	eventHandler := handler.NewEventHandler(eventSvc, feedSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)

	jobScheduler := scheduler.New(logr, time.Minute)
	if err := jobScheduler.Register("purge-expired-sessions", cfg.Jobs.TokenPurgeSpec, authSvc.PurgeExpiredSessions); err != nil {
		sugar.Fatalw("failed to register job", "error", err)
	}
	jobScheduler.Start()
	defer jobScheduler.Stop()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))
	r.Use(internalmiddleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	if cfg.Metrics.Enabled {
		r.GET("/metrics", metricsHandler.Prometheus)
	}
	if cfg.Env != config.EnvProduction && cfg.Docs.Enabled {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	requireAuth := internalmiddleware.JWT(authSvc)

	api.GET("/calendar/:token", eventHandler.SubscribedCalendar)

	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", requireAuth, authHandler.Logout)
	auth.GET("/me", requireAuth, authHandler.Me)

	secured := api.Group("")
	secured.Use(requireAuth)

	secured.GET("/profile", profileHandler.Me)
	secured.PUT("/profile", profileHandler.Update)
	secured.GET("/profiles/:username", profileHandler.ByUsername)

	events := secured.Group("/events")
	events.POST("/schedule", eventHandler.Preview)
	events.POST("", eventHandler.Create)
	events.GET("", eventHandler.List)
	events.GET("/calendar.ics", eventHandler.Calendar)
	events.GET("/calendar/link", eventHandler.CalendarLink)
	events.POST("/join", eventHandler.Join)
	events.GET("/:id", eventHandler.Get)
	events.DELETE("/:id/participants/me", eventHandler.Leave)
	events.GET("/:id/occurrences", eventHandler.Occurrences)
	events.POST("/:id/attendance", attendanceHandler.Mark)
	events.DELETE("/:id/attendance", attendanceHandler.Unmark)

	attendance := secured.Group("/attendance")
	attendance.GET("", attendanceHandler.List)
	attendance.GET("/heatmap", attendanceHandler.Heatmap)
	attendance.GET("/export", attendanceHandler.Export)

	secured.GET("/dashboard", dashboardHandler.Get)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		sugar.Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "timezone", loc.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	sugar.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	invalidations.Drain(shutdownCtx)
}
