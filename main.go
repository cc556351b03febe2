// Package main provides the main entry point for the Vitrine marketing site backend
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/amirphl/vitrine/app/handlers"
	"github.com/amirphl/vitrine/app/middleware"
	"github.com/amirphl/vitrine/app/router"
	"github.com/amirphl/vitrine/app/scheduler"
	"github.com/amirphl/vitrine/app/services"
	businessflow "github.com/amirphl/vitrine/business_flow"
	"github.com/amirphl/vitrine/config"
	"github.com/amirphl/vitrine/models"
	"github.com/amirphl/vitrine/repository"
	"github.com/amirphl/vitrine/utils"
	"github.com/google/uuid"
	"github.com/oschwald/geoip2-golang"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"
)

// Application represents the main application structure
type Application struct {
	router    router.Router
	config    *config.ProductionConfig
	stopFuncs []func()
	// closers release connections after the server has drained
	closers []func()
}

// @title Vitrine API
// @version 1.0
// @description Marketing site backend: visit tracking, contact intake and the staff dashboard.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	log.Println("Starting Vitrine application...")

	// Load production configuration
	cfg, err := config.LoadProductionConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize application
	app, err := initializeApplication(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	// Setup routes
	app.router.SetupRoutes()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := app.router.Start(address); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Println("Shutting down gracefully...")

	// Stop background workers
	for _, fn := range app.stopFuncs {
		fn()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.router.GetApp().ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	for _, fn := range app.closers {
		fn()
	}

	log.Println("Server stopped")
}

// initializeDatabase opens postgres or sqlite and configures connection pooling
func initializeDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)

	switch cfg.Driver {
	case "sqlite":
		if dir := filepath.Dir(cfg.SQLitePath); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
			}
		}
		sqlDB, openErr := sql.Open("sqlite", cfg.SQLitePath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
		if openErr != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", openErr)
		}
		db, err = gorm.Open(sqlite.Dialector{DriverName: "sqlite", Conn: sqlDB}, &gorm.Config{})
	default:
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB for connection pooling configuration
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

	if cfg.AutoMigrate {
		if err := db.AutoMigrate(models.AllModels()...); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	log.Printf("Database connection established (driver=%s) with %d max open connections, %d max idle connections",
		cfg.Driver, cfg.MaxOpenConns, cfg.MaxIdleConns)

	return db, nil
}

// initializeCache initializes the Cache client and verifies connectivity
func initializeCache(cfg config.CacheConfig) (*redis.Client, error) {
	if !cfg.Enabled || cfg.Provider != "redis" {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opt.DB = cfg.RedisDB

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Printf("Redis connection established to %s (db=%d)", cfg.RedisURL, cfg.RedisDB)
	return rc, nil
}

func startCacheHealthMonitor(parent context.Context, client *redis.Client, interval time.Duration) func() {
	monitorCtx, cancel := context.WithCancel(parent)
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-monitorCtx.Done():
				return
			case <-ticker.C:
				ctx, c := context.WithTimeout(context.Background(), 3*time.Second)
				if err := client.Ping(ctx).Err(); err != nil {
					log.Printf("Redis healthcheck failed: %v", err)
				}
				c()
			}
		}
	}()
	return cancel
}

func initializeEmailProvider(cfg config.EmailConfig) services.EmailProvider {
	switch cfg.Provider {
	case "mock":
		return services.NewMockEmailProvider()
	default:
		return services.NewSMTPEmailProvider(
			cfg.Host,
			cfg.Port,
			cfg.Username,
			cfg.Password,
			cfg.FromEmail,
			cfg.FromName,
			cfg.UseTLS,
			cfg.UseSTARTTLS,
			cfg.Timeout,
		)
	}
}

// ensureStaffAccount creates the configured dashboard account when it is missing
func ensureStaffAccount(ctx context.Context, repo repository.StaffRepository, cfg config.StaffConfig) error {
	if cfg.Username == "" || cfg.PasswordHash == "" {
		return nil
	}

	existing, err := repo.ByUsername(ctx, cfg.Username)
	if err != nil {
		return fmt.Errorf("failed to look up staff account: %w", err)
	}
	if existing != nil {
		return nil
	}

	active := true
	now := utils.UTCNow()
	staff := &models.Staff{
		UUID:         uuid.New(),
		Username:     cfg.Username,
		PasswordHash: cfg.PasswordHash,
		IsActive:     &active,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := repo.Save(ctx, staff); err != nil {
		return fmt.Errorf("failed to create staff account: %w", err)
	}
	log.Printf("Staff account %q created", cfg.Username)
	return nil
}

func initializeApplication(cfg *config.ProductionConfig) (*Application, error) {
	var stopFuncs, closers []func()
	loc := cfg.Server.Location()

	db, err := initializeDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	rc, err := initializeCache(cfg.Cache)
	if err != nil {
		return nil, err
	}
	if rc != nil {
		stopFuncs = append(stopFuncs, startCacheHealthMonitor(context.Background(), rc, cfg.Cache.CleanupInterval))
	}

	var maxmind *geoip2.Reader
	if cfg.Geo.MaxMindDBPath != "" {
		maxmind, err = geoip2.Open(cfg.Geo.MaxMindDBPath)
		if err != nil {
			log.Printf("GeoIP database unavailable, falling back to ip-api: %v", err)
			maxmind = nil
		} else {
			closers = append(closers, func() { _ = maxmind.Close() })
		}
	}

	contactRepo := repository.NewContactSubmissionRepository(db)
	pageViewRepo := repository.NewPageViewRepository(db)
	settingsRepo := repository.NewFormSettingsRepository(db)
	summaryRepo := repository.NewDailySummaryRepository(db)
	staffRepo := repository.NewStaffRepository(db)

	seedCtx, seedCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer seedCancel()
	if err := ensureStaffAccount(seedCtx, staffRepo, cfg.Staff); err != nil {
		return nil, err
	}
	if _, err := settingsRepo.GetOrCreate(seedCtx); err != nil {
		return nil, fmt.Errorf("failed to ensure form settings: %w", err)
	}

	var (
		statsCache  services.StatsCache = services.NoopStatsCache{}
		revocations services.RevocationStore
	)
	if rc != nil {
		statsCache = services.NewRedisStatsCache(rc, cfg.Cache.RedisPrefix+"stats:", cfg.Stats.CacheTTL)
		revocations = services.NewRedisRevocationStore(rc, cfg.Cache.RedisPrefix+"revoked:")
	} else {
		revocations = services.NewMemoryRevocationStore()
	}

	resolver := services.NewGeoDeviceResolver(services.GeoResolverOptions{
		Enabled:          cfg.Geo.Enabled,
		BaseURL:          cfg.Geo.IPAPIBaseURL,
		Timeout:          cfg.Geo.Timeout,
		CacheTTL:         cfg.Geo.CacheTTL,
		CachePrefix:      cfg.Cache.RedisPrefix,
		RequestsPerMin:   cfg.Geo.RequestsPerMin,
		BreakerFailures:  cfg.Geo.BreakerFailures,
		BreakerOpenDelay: cfg.Geo.BreakerOpenDelay,
	}, rc, maxmind)

	storage := services.NewDiskAttachmentStorage(cfg.Upload.Root)
	dispatcher := services.NewNotificationDispatcher(initializeEmailProvider(cfg.Email), storage, cfg.Server.PublicBaseURL, loc)
	exporter := services.NewContactExporter(loc)

	captchaSvc, err := services.NewCaptchaServiceRotate(cfg.Staff.CaptchaTTL, cfg.Staff.CaptchaPadding, cfg.Staff.CaptchaSizePx)
	if err != nil {
		return nil, err
	}

	tokenService, err := services.NewTokenService(
		cfg.JWT.AccessTokenTTL,
		cfg.JWT.RefreshTokenTTL,
		cfg.JWT.Issuer,
		cfg.JWT.Audience,
		cfg.JWT.UseRSAKeys,
		cfg.JWT.PrivateKey,
		cfg.JWT.PublicKey,
		cfg.JWT.SecretKey,
		revocations,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}

	log.Printf("Token service initialized with issuer: %s, audience: %s", cfg.JWT.Issuer, cfg.JWT.Audience)

	visitTracker := businessflow.NewVisitTracker(pageViewRepo, resolver)
	statsAggregator := businessflow.NewStatsAggregator(db, pageViewRepo, contactRepo, summaryRepo, statsCache, loc)
	contactIntake := businessflow.NewContactIntake(contactRepo, settingsRepo, storage, dispatcher, statsCache)
	contactManagement := businessflow.NewContactManagementFlow(contactRepo, storage, exporter, statsCache, loc)
	formSettingsFlow := businessflow.NewFormSettingsFlow(settingsRepo)
	staffAuthFlow := businessflow.NewStaffAuthFlow(staffRepo, tokenService, captchaSvc, cfg.JWT.AccessTokenTTL)

	if cfg.Scheduler.DailySummaryEnabled {
		summaryScheduler := scheduler.NewDailySummaryScheduler(statsAggregator, cfg.Scheduler, cfg.Logging, loc)
		stop, err := summaryScheduler.Start(context.Background())
		if err != nil {
			return nil, fmt.Errorf("failed to start daily summary scheduler: %w", err)
		}
		stopFuncs = append(stopFuncs, stop)
	}

	r := router.NewFiberRouter(
		cfg,
		handlers.NewContactHandler(contactIntake),
		handlers.NewTrackingHandler(visitTracker, statsAggregator, cfg.Tracking.SessionCookie),
		handlers.NewDashboardContactHandler(contactManagement),
		handlers.NewDashboardStatsHandler(statsAggregator, loc),
		handlers.NewFormSettingsHandler(formSettingsFlow),
		handlers.NewStaffAuthHandler(staffAuthFlow),
		middleware.NewAuthMiddleware(tokenService),
		visitTracker,
	)

	closers = append(closers, func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
		if rc != nil {
			if err := rc.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
				log.Printf("Error closing redis: %v", err)
			}
		}
	})

	return &Application{
		router:    r,
		config:    cfg,
		stopFuncs: stopFuncs,
		closers:   closers,
	}, nil
}
