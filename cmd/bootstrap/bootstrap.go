package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dental-clinic-api/config"
	"dental-clinic-api/internal/delivery/dto"
	deliveryHttp "dental-clinic-api/internal/delivery/http"
	"dental-clinic-api/internal/delivery/http/handler"
	"dental-clinic-api/internal/delivery/http/middleware"
	"dental-clinic-api/internal/infrastructure/cache"
	"dental-clinic-api/internal/infrastructure/database"
	"dental-clinic-api/internal/repository"
	"dental-clinic-api/internal/service"
	"dental-clinic-api/internal/usecase"
	"dental-clinic-api/pkg/jwt"
	"dental-clinic-api/pkg/metrics"
	"dental-clinic-api/pkg/validator"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// App holds all dependencies for the application
type App struct {
	Config      *config.Config
	DB          *gorm.DB
	RedisClient *redis.Client
	Server      *http.Server
	Log         *logrus.Logger

	locker   *service.DentistLocker
	notifier service.NotificationService
}

// New creates a new App instance with all dependencies initialized
func New() (*App, error) {
	app := &App{}

	cfg, log, err := loadConfig()
	if err != nil {
		return nil, err
	}
	app.Config = cfg
	app.Log = log

	// Initialize database
	db, err := database.NewPostgresConnection(cfg.DB, cfg.App.IsDevelopment())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = db
	log.Info("Database connected successfully")

	// Initialize Redis
	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	app.RedisClient = redisClient
	log.Info("Redis connected successfully")

	app.initializeServer()

	return app, nil
}

// loadConfig reads the configuration and configures the shared logrus logger from it.
func loadConfig() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := setupLogger(cfg.App)
	log.Info("Configuration loaded successfully")
	return cfg, log, nil
}

// setupLogger configures the logrus logger
func setupLogger(cfg config.AppConfig) *logrus.Logger {
	log := logrus.StandardLogger()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(logrus.InfoLevel)
	if cfg.IsDevelopment() {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

// initializeServer creates and configures the HTTP server
func (app *App) initializeServer() {
	cfg, db, log := app.Config, app.DB, app.Log
	expose := cfg.App.IsDevelopment()

	jwtService := jwt.NewJWTService(cfg.JWT)
	customValidator := validator.NewValidator()
	appMetrics := metrics.New()
	tx := database.NewTransactor(db)

	// Initialize repositories
	userRepo := repository.NewUserRepository()
	appointmentRepo := repository.NewAppointmentRepository()
	penaltyRepo := repository.NewPenaltyRepository()
	recordRepo := repository.NewMedicalRecordRepository()
	auditLogRepo := repository.NewAuditLogRepository()
	availabilityRepo := repository.NewAvailabilityRepository()
	sessionStore := cache.NewSessionStore(app.RedisClient)

	// Initialize services
	auditService := service.NewAuditService(log, auditLogRepo)
	conflictChecker := service.NewConflictChecker(cfg.Scheduling.OverlapWindow, appointmentRepo)
	penaltyEngine := service.NewPenaltyEngine(cfg.Scheduling)
	app.locker = service.NewDentistLocker(log)
	app.notifier = service.NewNotificationService(log, service.NewMailer(cfg.Mail, log), service.NewSMSSender(cfg.SMS, log), cfg.Mail.SendTimeout)

	// Initialize usecases
	authUsecase := usecase.NewAuthUsecase(tx, log, userRepo, sessionStore, auditService, jwtService)
	userUsecase := usecase.NewUserUsecase(tx, log, userRepo, sessionStore, auditService)
	appointmentUsecase := usecase.NewAppointmentUsecase(
		tx, log, cfg.Scheduling,
		appointmentRepo, userRepo, penaltyRepo,
		conflictChecker, penaltyEngine, app.locker,
		app.notifier, auditService, appMetrics,
	)
	penaltyUsecase := usecase.NewPenaltyUsecase(tx, log, cfg.Scheduling, penaltyRepo, userRepo, auditService, appMetrics)
	recordUsecase := usecase.NewMedicalRecordUsecase(tx, log, recordRepo, userRepo, appointmentRepo, auditService)
	auditLogUsecase := usecase.NewAuditLogUsecase(tx, log, auditLogRepo)
	availabilityUsecase := usecase.NewAvailabilityUsecase(tx, log, availabilityRepo, userRepo, appointmentRepo, auditService)

	// Initialize router
	router := deliveryHttp.NewRouter(
		deliveryHttp.Handlers{
			Auth:          handler.NewAuthHandler(authUsecase, userUsecase, customValidator, expose),
			Appointment:   handler.NewAppointmentHandler(appointmentUsecase, customValidator, expose),
			MedicalRecord: handler.NewMedicalRecordHandler(recordUsecase, customValidator, expose),
			Penalty:       handler.NewPenaltyHandler(penaltyUsecase, customValidator, expose),
			Availability:  handler.NewAvailabilityHandler(availabilityUsecase, customValidator, expose),
			AuditLog:      handler.NewAuditLogHandler(auditLogUsecase, expose),
			Health:        handler.NewHealthHandler(),
		},
		deliveryHttp.Middlewares{
			Auth:        middleware.NewAuthMiddleware(authUsecase, log),
			CORS:        middleware.NewCORSMiddleware(cfg.App.CORSAllowOrigin),
			Logging:     middleware.NewLoggingMiddleware(log),
			Recovery:    middleware.NewRecoveryMiddleware(log),
			Metrics:     middleware.NewMetricsMiddleware(appMetrics),
			RateLimiter: middleware.NewRateLimiter(cfg.RateLimit),
		},
		appMetrics.Handler(),
	)

	app.Server = &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.App.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Run starts the HTTP server and handles graceful shutdown
func (app *App) Run() {
	go func() {
		app.Log.Infof("Server starting on port %s", app.Config.App.Port)
		app.Log.Infof("Environment: %s", app.Config.App.Env)
		if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	app.waitForShutdown()
}

// waitForShutdown blocks until an interrupt signal is received
func (app *App) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	app.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.Server.Shutdown(ctx); err != nil {
		app.Log.Errorf("Server forced to shutdown: %v", err)
	}

	app.Close()

	app.Log.Info("Server shutdown complete")
}

// Close drains pending notifications, releases the lock janitor and closes
// database and Redis connections.
func (app *App) Close() {
	if app.notifier != nil {
		app.notifier.Close()
	}
	if app.locker != nil {
		app.locker.Stop()
	}

	if app.DB != nil {
		sqlDB, err := app.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}

	if app.RedisClient != nil {
		app.RedisClient.Close()
	}
}

// Migrate applies or reverts the embedded schema migrations.
func Migrate(direction database.MigrateDirection) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	return database.RunMigrations(database.MigrationURL(cfg.DB), direction, log)
}

// CreateAdmin provisions an admin account directly against the database.
// Redis is not needed because no session is issued.
func CreateAdmin(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error) {
	customValidator := validator.NewValidator()
	if err := customValidator.Validate(req); err != nil {
		return nil, fmt.Errorf("invalid admin account: %v", customValidator.FormatValidationErrors(err))
	}

	cfg, log, err := loadConfig()
	if err != nil {
		return nil, err
	}

	db, err := database.NewPostgresConnection(cfg.DB, false)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}()

	auditService := service.NewAuditService(log, repository.NewAuditLogRepository())
	authUsecase := usecase.NewAuthUsecase(
		database.NewTransactor(db), log,
		repository.NewUserRepository(), nil,
		auditService, jwt.NewJWTService(cfg.JWT),
	)
	return authUsecase.CreateAdmin(ctx, req)
}
