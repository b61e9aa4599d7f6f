package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/salonkit/salon-api/internal/config"
	appointmentHandler "github.com/salonkit/salon-api/internal/handler/appointment"
	attendanceHandler "github.com/salonkit/salon-api/internal/handler/attendance"
	availabilityHandler "github.com/salonkit/salon-api/internal/handler/availability"
	"github.com/salonkit/salon-api/internal/handler/health"
	"github.com/salonkit/salon-api/internal/middleware"
	"github.com/salonkit/salon-api/internal/repository/postgres"
	"github.com/salonkit/salon-api/internal/router"
	appointmentService "github.com/salonkit/salon-api/internal/service/appointment"
	attendanceService "github.com/salonkit/salon-api/internal/service/attendance"
	availabilityService "github.com/salonkit/salon-api/internal/service/availability"
	"github.com/salonkit/salon-api/pkg/auth"
	"github.com/salonkit/salon-api/pkg/logger"
	"github.com/salonkit/salon-api/pkg/messaging/redis"
	"github.com/salonkit/salon-api/pkg/metrics"
	"github.com/salonkit/salon-api/pkg/validator"
	"github.com/salonkit/salon-api/pkg/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Repositories
	serviceRepo := postgres.NewServiceRepository(db)
	userRepo := postgres.NewUserRepository(db)
	availabilityRepo := postgres.NewAvailabilityRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	attendanceRepo := postgres.NewAttendanceRepository(db)
	settingsRepo := postgres.NewAttendanceSettingsRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	// Services
	availabilitySvc := availabilityService.NewService(availabilityRepo, userRepo)
	appointmentSvc := appointmentService.NewService(appointmentRepo, availabilityRepo, serviceRepo, userRepo)
	attendanceSvc := attendanceService.NewService(attendanceRepo, settingsRepo, userRepo, outboxRepo, appLogger)

	// Middleware and handlers
	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpiryHours)
	authMiddleware := middleware.NewAuthMiddleware(jwtSvc)
	v := validator.New()

	healthH := health.NewHandler(db)
	appointmentH := appointmentHandler.NewHandler(appointmentSvc, v)
	availabilityH := availabilityHandler.NewHandler(availabilitySvc, v, authMiddleware)
	attendanceH := attendanceHandler.NewHandler(attendanceSvc, v, authMiddleware)

	m := metrics.NewMetrics("salon_api")

	r := router.NewRouter(authMiddleware, healthH, appointmentH, availabilityH, attendanceH, m, cfg)
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	// Redis broker and outbox processor
	broker, err := redis.NewRedisBroker(redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, &log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer broker.Close()

	processorCtx, cancelProcessor := context.WithCancel(context.Background())
	defer cancelProcessor()

	processor := worker.NewOutboxProcessor(outboxRepo, broker, worker.OutboxProcessorConfig{}, appLogger, m)
	go processor.Start(processorCtx)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()
	log.Info().Int("port", cfg.Server.Port).Msg("server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")
	cancelProcessor()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
