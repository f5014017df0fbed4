package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amirphl/Ejare/app/handlers"
	"github.com/amirphl/Ejare/app/middleware"
	"github.com/amirphl/Ejare/app/router"
	"github.com/amirphl/Ejare/app/services"
	businessflow "github.com/amirphl/Ejare/business_flow"
	"github.com/amirphl/Ejare/config"
	"github.com/amirphl/Ejare/repository"
	"github.com/amirphl/Ejare/utils"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type Application struct {
	router    *router.FiberRouter
	config    *config.ProductionConfig
	logger    *zap.Logger
	stopFuncs []func()
}

func main() {
	cfg, err := config.LoadProductionConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := config.NewLogger(cfg.Logging)
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting Ejare API",
		zap.String("version", cfg.Deployment.Version),
		zap.String("commit", cfg.Deployment.CommitHash),
		zap.String("environment", cfg.Deployment.Environment))

	app, err := initializeApplication(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize application", zap.Error(err))
	}

	app.router.SetupRoutes()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := app.router.Start(address); err != nil {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-sigChan
	logger.Info("Shutting down gracefully")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.router.GetApp().ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	// Stop in reverse order so the audit emitter drains before the database closes
	for i := len(app.stopFuncs) - 1; i >= 0; i-- {
		app.stopFuncs[i]()
	}

	logger.Info("Server stopped")
}

func initializeDatabase(cfg config.DatabaseConfig, logger *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.SQLitePath + "?_foreign_keys=on&_busy_timeout=5000")
	default:
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)
		dialector = postgres.Open(dsn)
	}

	logLevel := gormlogger.Silent
	if cfg.SlowQueryLog {
		logLevel = gormlogger.Warn
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger: gormlogger.New(zap.NewStdLog(logger.Named("gorm")), gormlogger.Config{
			SlowThreshold:             cfg.SlowQueryTime,
			LogLevel:                  logLevel,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if cfg.Driver == "sqlite" {
		// sqlite serializes writers
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Database connection established",
		zap.String("driver", db.Dialector.Name()),
		zap.Int("max_open_conns", cfg.MaxOpenConns))

	if cfg.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := repository.RunMigrations(ctx, db); err != nil {
			return nil, err
		}
		logger.Info("Database migrations applied")
	}

	return db, nil
}

func initializeCache(cfg config.CacheConfig, logger *zap.Logger) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis connection established", zap.Int("db", opt.DB))
	return rc, nil
}

func startCacheHealthMonitor(parent context.Context, client *redis.Client, interval time.Duration, logger *zap.Logger) func() {
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
					logger.Warn("Redis healthcheck failed", zap.Error(err))
				}
				c()
			}
		}
	}()
	return cancel
}

func initializeNotificationService(cfg config.EmailConfig, logger *zap.Logger) services.NotificationService {
	var emailProvider services.EmailProvider
	switch cfg.Provider {
	case "smtp":
		emailProvider = services.NewSMTPEmailProvider(cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.FromEmail, cfg.FromName)
	default:
		emailProvider = services.NewMockEmailProvider(logger.Named("email"))
	}
	return services.NewNotificationService(emailProvider, cfg.VerificationURL)
}

func initializeKYCProvider(cfg config.KYCConfig) services.KYCProvider {
	switch cfg.Provider {
	case "http":
		return services.NewHTTPKYCClient(cfg.BaseURL, cfg.APIKey, cfg.Timeout)
	case "disabled":
		return nil
	default:
		return services.NewMockKYCProvider()
	}
}

func initializeRateLimiter(cfg config.RateLimitConfig, rc *redis.Client, logger *zap.Logger) *services.RateLimiter {
	if !cfg.Enabled {
		return nil
	}

	var store services.CounterStore
	if cfg.Backend == "redis" && rc != nil {
		store = services.NewRedisCounterStore(rc)
	} else {
		if cfg.Backend == "redis" {
			logger.Warn("Redis rate limit backend requested without cache, using memory store")
		}
		store = services.NewMemoryCounterStore(utils.UTCNow)
	}

	return services.NewRateLimiter(store, services.RateLimitPolicy{
		MaxAttempts: cfg.MaxAttempts,
		Window:      cfg.Window,
		Lockout:     cfg.Lockout,
		KeyPolicy:   cfg.KeyPolicy,
		KeyPrefix:   cfg.KeyPrefix,
	}, logger.Named("ratelimit"))
}

func initializeApplication(cfg *config.ProductionConfig, logger *zap.Logger) (*Application, error) {
	var stopFuncs []func()

	db, err := initializeDatabase(cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	stopFuncs = append(stopFuncs, func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	rc, err := initializeCache(cfg.Cache, logger)
	if err != nil {
		return nil, err
	}
	if rc != nil {
		stopFuncs = append(stopFuncs, func() { _ = rc.Close() })
		stopFuncs = append(stopFuncs, startCacheHealthMonitor(context.Background(), rc, cfg.Cache.HealthCheckInterval, logger))
	}

	accountRepo := repository.NewAccountRepository(db)
	profileRepo := repository.NewProfessionalProfileRepository(db)
	settingRepo := repository.NewSystemSettingRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	var auditEmitter services.AuditEmitter = services.NoopAuditEmitter{}
	if cfg.Audit.Enabled {
		auditEmitter = services.NewAuditEmitter(auditRepo, cfg.Audit.BufferSize, logger.Named("audit"))
	}
	stopFuncs = append(stopFuncs, auditEmitter.Close)

	tokenService, err := services.NewTokenService(
		cfg.JWT.AccessTokenTTL,
		cfg.JWT.RefreshTokenTTL,
		cfg.JWT.Issuer,
		cfg.JWT.Audience,
		cfg.JWT.UseRSAKeys,
		cfg.JWT.PrivateKey,
		cfg.JWT.PublicKey,
		cfg.JWT.SecretKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}
	logger.Info("Token service initialized", zap.String("issuer", cfg.JWT.Issuer), zap.String("audience", cfg.JWT.Audience))

	hasher, err := services.NewBcryptHasher(cfg.Security.BcryptCost)
	if err != nil {
		return nil, err
	}

	notificationService := initializeNotificationService(cfg.Email, logger)
	policyResolver := businessflow.NewSettingsPolicyResolver(settingRepo, logger)
	rateLimiter := initializeRateLimiter(cfg.RateLimit, rc, logger)

	signupFlow := businessflow.NewSignupFlow(
		accountRepo,
		profileRepo,
		policyResolver,
		hasher,
		tokenService,
		notificationService,
		auditEmitter,
		logger,
		db,
	)

	loginFlow := businessflow.NewLoginFlow(
		accountRepo,
		profileRepo,
		policyResolver,
		hasher,
		tokenService,
		rateLimiter,
		notificationService,
		auditEmitter,
		logger,
	)

	adminFlow := businessflow.NewAdminAccountFlow(accountRepo, profileRepo, settingRepo, auditEmitter, logger, db)
	kycFlow := businessflow.NewKYCFlow(accountRepo, initializeKYCProvider(cfg.KYC), auditEmitter, logger)

	cookies := handlers.CookieConfig{
		Secure:   cfg.Security.CookieSecure,
		SameSite: cfg.Security.CookieSameSite,
		Domain:   cfg.Security.CookieDomain,
	}

	r := router.NewFiberRouter(cfg, router.Handlers{
		Auth:  handlers.NewAuthHandler(signupFlow, loginFlow, cookies, logger),
		Admin: handlers.NewAdminHandler(adminFlow, logger),
		KYC:   handlers.NewKYCHandler(kycFlow, logger),
	}, middleware.NewAuthMiddleware(tokenService), logger)

	return &Application{
		router:    r,
		config:    cfg,
		logger:    logger,
		stopFuncs: stopFuncs,
	}, nil
}
