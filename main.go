// Package main provides the main entry point for the outreach portal API
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/clearwater-medical/outreach-portal/app/handlers"
	"github.com/clearwater-medical/outreach-portal/app/middleware"
	"github.com/clearwater-medical/outreach-portal/app/router"
	"github.com/clearwater-medical/outreach-portal/app/scheduler"
	"github.com/clearwater-medical/outreach-portal/app/services"
	businessflow "github.com/clearwater-medical/outreach-portal/business_flow"
	"github.com/clearwater-medical/outreach-portal/config"
	"github.com/clearwater-medical/outreach-portal/models"
	"github.com/clearwater-medical/outreach-portal/repository"
	"github.com/clearwater-medical/outreach-portal/utils"
)

// Application represents the main application structure
type Application struct {
	router    *router.FiberRouter
	config    *config.Config
	server    *fiber.App
	stopFuncs []func()
}

func main() {
	log.Println("Starting outreach portal...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	setupLogging(cfg.Logging)

	app, err := initializeApplication(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	app.router.SetupRoutes()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		log.Printf("Server starting on %s", address)

		if err := app.server.Listen(address); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-sigChan
	log.Println("Shutting down gracefully...")

	for _, fn := range app.stopFuncs {
		fn()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.server.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// setupLogging routes the stdlib logger to stdout, a rotating file, or both
func setupLogging(cfg config.LoggingConfig) {
	if cfg.Output == "stdout" {
		return
	}

	rotated := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}

	switch cfg.Output {
	case "file":
		log.SetOutput(rotated)
	case "both":
		log.SetOutput(io.MultiWriter(os.Stdout, rotated))
	default:
		log.Printf("Unknown LOG_OUTPUT %q, keeping stdout", cfg.Output)
	}
}

// initializeDatabase initializes the database connection with connection pooling
func initializeDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("Database connection established with %d max open connections, %d max idle connections",
		cfg.MaxOpenConns, cfg.MaxIdleConns)

	return db, nil
}

// initializeCache initializes the Redis client used for report caching. A nil
// client is a valid result: the reporting flow degrades to uncached reads.
func initializeCache(cfg config.CacheConfig) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opt.DB = cfg.RedisDB
	if cfg.RedisPassword != "" {
		opt.Password = cfg.RedisPassword
	}

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Printf("Redis connection established (db=%d)", cfg.RedisDB)
	return rc, nil
}

// initializeEmailProvider selects the outbound mail transport
func initializeEmailProvider(cfg config.EmailConfig) services.EmailProvider {
	if cfg.Mock {
		log.Println("Email provider: mock (broker handoff mail is logged, not sent)")
		return services.NewMockEmailProvider()
	}
	return services.NewSMTPEmailProvider(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
}

// startSessionSweeper periodically drops idle sessions so the tracker does not
// accumulate entries for users who never log out. The returned cancel function
// stops the sweeper.
func startSessionSweeper(parent context.Context, sessions *services.SessionTracker, interval time.Duration) func() {
	sweepCtx, cancel := context.WithCancel(parent)
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-ticker.C:
				if expired := sessions.Sweep(); len(expired) > 0 {
					log.Printf("Swept %d expired sessions", len(expired))
				}
			}
		}
	}()
	return cancel
}

// initializeApplication initializes the main application components
func initializeApplication(cfg *config.Config) (*Application, error) {
	var stopFuncs []func()

	db, err := initializeDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	if err := repository.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	rc, err := initializeCache(cfg.Cache)
	if err != nil {
		return nil, err
	}

	reportLoc, err := time.LoadLocation(cfg.Reporting.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid reporting timezone %q: %w", cfg.Reporting.Timezone, err)
	}

	// Initialize repositories
	profileRepo := repository.NewProfileRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	assignmentRepo := repository.NewProjectAssignmentRepository(db)
	patientRepo := repository.NewPatientRepository(db)
	outreachLogRepo := repository.NewOutreachLogRepository(db)
	brokerUpdateRepo := repository.NewBrokerUpdateRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	reportingRepo := repository.NewReportingRepository(db)

	// Initialize services
	tokenService, err := services.NewTokenService(
		cfg.JWT.AccessTokenTTL,
		cfg.JWT.RefreshTokenTTL,
		cfg.JWT.Issuer,
		cfg.JWT.Audience,
		cfg.JWT.SecretKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}
	log.Printf("Token service initialized with issuer: %s, audience: %s", cfg.JWT.Issuer, cfg.JWT.Audience)

	sessions := services.NewSessionTracker(services.NewRealClock(), cfg.Security.SessionInactivityTimeout)
	stopFuncs = append(stopFuncs, startSessionSweeper(context.Background(), sessions, time.Minute))

	notifier := services.NewNotificationService(initializeEmailProvider(cfg.Email), cfg.Email.FromEmail)
	exporter := services.NewReportExport()

	if err := ensureAdminAccount(profileRepo, cfg.Admin, cfg.Security); err != nil {
		return nil, err
	}

	// Initialize flows
	access := businessflow.NewAccessFlow(projectRepo, assignmentRepo, patientRepo, profileRepo)
	loginFlow := businessflow.NewLoginFlow(profileRepo, auditRepo, tokenService, sessions)
	patientFlow := businessflow.NewPatientFlow(patientRepo, profileRepo, access)
	importFlow := businessflow.NewImportFlow(db, patientRepo, projectRepo, profileRepo, auditRepo)
	outreachFlow := businessflow.NewOutreachFlow(db, patientRepo, outreachLogRepo, projectRepo, profileRepo, auditRepo, access)
	forwardingFlow := businessflow.NewForwardingFlow(db, patientRepo, outreachLogRepo, projectRepo, profileRepo, auditRepo, access, notifier)
	brokerFlow := businessflow.NewBrokerFlow(db, patientRepo, brokerUpdateRepo, projectRepo, profileRepo, auditRepo, access)
	messageFlow := businessflow.NewMessageFlow(messageRepo, patientRepo, profileRepo, auditRepo, access)
	projectFlow := businessflow.NewProjectFlow(db, projectRepo, assignmentRepo, profileRepo, auditRepo, access)
	reportingFlow := businessflow.NewReportingFlow(reportingRepo, projectRepo, profileRepo, assignmentRepo, rc, reportLoc, exporter)

	// Initialize handlers
	h := router.Handlers{
		Auth:     handlers.NewAuthHandler(loginFlow),
		Patient:  handlers.NewPatientHandler(patientFlow, importFlow),
		Outreach: handlers.NewOutreachHandler(outreachFlow, forwardingFlow),
		Broker:   handlers.NewBrokerHandler(brokerFlow),
		Message:  handlers.NewMessageHandler(messageFlow),
		Project:  handlers.NewProjectHandler(projectFlow),
		Report:   handlers.NewReportHandler(reportingFlow),
	}

	if cfg.Scheduler.HandoffRetryEnabled {
		retry := scheduler.NewHandoffRetryScheduler(forwardingFlow, log.Default(), cfg.Scheduler.HandoffRetryInterval)
		stopFuncs = append(stopFuncs, retry.Start(context.Background()))
	}

	authMiddleware := middleware.NewAuthMiddleware(tokenService, sessions)

	appRouter := router.NewFiberRouter(h, authMiddleware, cfg.Server, cfg.Security)

	fiberRouter := appRouter.(*router.FiberRouter)
	application := &Application{
		router:    fiberRouter,
		config:    cfg,
		server:    fiberRouter.GetApp(),
		stopFuncs: stopFuncs,
	}

	return application, nil
}

// ensureAdminAccount seeds the bootstrap administrator when one is configured
// and no profile with that email exists yet
func ensureAdminAccount(profileRepo repository.ProfileRepository, cfg config.AdminConfig, security config.SecurityConfig) error {
	if cfg.Email == "" {
		return nil
	}
	if len(cfg.Password) < security.PasswordMinLength {
		return fmt.Errorf("ADMIN_PASSWORD must be at least %d characters", security.PasswordMinLength)
	}

	ctx := context.Background()
	existing, err := profileRepo.ByEmail(ctx, cfg.Email)
	if err != nil {
		return fmt.Errorf("failed to look up admin account: %w", err)
	}
	if existing != nil {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), security.BcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := &models.Profile{
		UUID:         uuid.New(),
		Email:        cfg.Email,
		FirstName:    "Portal",
		LastName:     "Administrator",
		Role:         models.RoleAdmin,
		PasswordHash: string(hash),
		IsActive:     utils.ToPtr(true),
		CreatedAt:    utils.UTCNow(),
		UpdatedAt:    utils.UTCNow(),
	}
	if err := profileRepo.Save(ctx, admin); err != nil {
		return fmt.Errorf("failed to create admin account: %w", err)
	}

	log.Printf("Bootstrap admin account created: %s", cfg.Email)
	return nil
}
