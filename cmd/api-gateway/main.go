package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/drivingschool-api/api/swagger"
	"github.com/noah-isme/drivingschool-api/internal/handler"
	"github.com/noah-isme/drivingschool-api/internal/middleware"
	"github.com/noah-isme/drivingschool-api/internal/models"
	"github.com/noah-isme/drivingschool-api/internal/repository"
	"github.com/noah-isme/drivingschool-api/internal/service"
	"github.com/noah-isme/drivingschool-api/pkg/cache"
	"github.com/noah-isme/drivingschool-api/pkg/config"
	"github.com/noah-isme/drivingschool-api/pkg/database"
	"github.com/noah-isme/drivingschool-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/drivingschool-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/drivingschool-api/pkg/middleware/requestid"
	"github.com/noah-isme/drivingschool-api/pkg/outbound"
)

// @title Driving School Booking API
// @version 1.0.0
// @description Lesson and exam bookings with conflict detection, a monthly calendar and reminder delivery.
// @BasePath /api/v1
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database, logr)
	if err != nil {
		logr.Fatal("database unavailable", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, calendar cache disabled", zap.Error(err))
	}
	cacheRepo := repository.NewCacheRepository(redisClient, "drivingschool", logr)
	defer cacheRepo.Close() //nolint:errcheck

	transport, err := outbound.New(cfg.Outbound, logr)
	if err != nil {
		logr.Fatal("outbound transport unavailable", zap.Error(err))
	}
	defer transport.Close() //nolint:errcheck

	metrics := service.NewMetricsService()
	validate := validator.New()

	bookingRepo := repository.NewBookingRepository(db)
	reminderRepo := repository.NewReminderRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	directoryRepo := repository.NewDirectoryRepository(db)

	defaultChannel, err := models.ParseChannel(cfg.Reminders.DefaultChannel)
	if err != nil {
		logr.Fatal("invalid REMINDER_DEFAULT_CHANNEL", zap.Error(err))
	}

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Calendar.CacheTTL, logr, cfg.Calendar.CacheEnabled && redisClient != nil)
	calendarSvc := service.NewCalendarService(bookingRepo, cacheSvc, cfg.Calendar.CacheTTL, logr)
	dispatcher := service.NewReminderDispatcher(reminderRepo, directoryRepo, notificationRepo, transport, cfg.Reminders.OutboundTimeout, metrics, logr)
	scheduler := service.NewReminderScheduler(reminderRepo, dispatcher, validate, service.SchedulerConfig{
		DefaultChannel: defaultChannel,
		Location:       cfg.Timezone,
	}, metrics, logr)
	bookingSvc := service.NewBookingService(bookingRepo, directoryRepo, scheduler, calendarSvc, defaultChannel, metrics, validate, logr)
	detector := service.NewConflictDetector(bookingRepo)
	dashboardSvc := service.NewDashboardService(bookingRepo, reminderRepo, cfg.Timezone, nil, logr)
	verifier := service.NewTokenVerifier(cfg.JWT.Secret, cfg.JWT.Issuer)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.WithResponseMeta())

	metricsHandler := handler.NewMetricsHandler(metrics, db)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	bookingHandler := handler.NewBookingHandler(bookingSvc, detector)
	calendarHandler := handler.NewCalendarHandler(calendarSvc, cfg.Timezone)
	reminderHandler := handler.NewReminderHandler(scheduler)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(verifier))

	api.GET("/dashboard", middleware.SweepReminders(scheduler, logr), dashboardHandler.Summary)

	bookings := api.Group("/bookings", middleware.CSRF(cfg.CSRF.Enabled, cfg.CSRF.CookieName))
	bookings.GET("/events", calendarHandler.Events)
	staffBookings := bookings.Group("", middleware.RequireStaff())
	staffBookings.GET("/calendar", calendarHandler.Month)
	staffBookings.GET("/calendar/export", calendarHandler.Export)
	staffBookings.GET("/check-conflict", bookingHandler.CheckConflict)
	staffBookings.POST("", bookingHandler.Create)
	staffBookings.GET("/:id", bookingHandler.Get)
	staffBookings.PUT("/:id", bookingHandler.Update)
	staffBookings.PATCH("/:id/status", bookingHandler.UpdateStatus)

	reminders := api.Group("/reminders")
	reminders.POST("/run", middleware.RequireAdmin(), reminderHandler.Run)
	staffReminders := reminders.Group("", middleware.RequireStaff())
	staffReminders.POST("", reminderHandler.Create)
	staffReminders.GET("", reminderHandler.List)
	staffReminders.GET("/:id", reminderHandler.Get)

	var sweeper *service.ReminderSweeper
	if cfg.Reminders.SweepEnabled {
		sweeper, err = service.NewReminderSweeper(scheduler, cfg.Reminders.SweepSchedule, cfg.Reminders.SweepTimeout, cfg.Timezone, logr)
		if err != nil {
			logr.Fatal("invalid reminder sweep schedule", zap.Error(err))
		}
		sweeper.Start()
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env), zap.String("timezone", cfg.Timezone.String()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if sweeper != nil {
		sweeper.Stop(shutdownCtx)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
