package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"referral-api/internal/account"
	"referral-api/internal/config"
	"referral-api/internal/database"
	"referral-api/internal/email"
	httpServer "referral-api/internal/http"
	"referral-api/internal/logging"
	"referral-api/internal/ratelimit"
	"referral-api/internal/session"
	"referral-api/internal/store"

	_ "referral-api/docs" // Swagger docs (generated)
)

// @title           Referral Signup API
// @version         1.0
// @description     A small referral/signup service: activation-code gated registration, referral-code wallet credits, session login and a dashboard.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
		"store_backend", cfg.Store.Backend,
	)

	// Initialize the account store backend
	accountStore, cleanup, err := initStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer cleanup()

	// Sessions and rate limiting live in Redis; without it both fall back
	// to in-process stores (single replica, lost on restart)
	var sessionStore session.Store
	var rateLimiter ratelimit.Limiter
	if cfg.Redis.Enabled {
		redisClient, err := initRedis(cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to initialize Redis: %w", err)
		}
		defer redisClient.Close()

		sessionStore = session.NewRedisStore(redisClient)
		rateLimiter = ratelimit.NewRedisLimiter(redisClient)
	} else {
		logger.Warn("redis disabled, using in-process session store and rate limiter")
		sessionStore = session.NewMemoryStore()
		rateLimiter = ratelimit.NewMemoryLimiter()
	}

	// Initialize sessions
	sessionManager := session.NewManager(
		sessionStore,
		cfg.Session.TTL,
		cfg.Session.CookieName,
		!cfg.Server.IsDevelopment(), // secure cookies in production
	)
	sessionMiddleware := session.NewMiddleware(sessionManager)

	// Initialize email service (optional; disabled without SMTP config)
	var emailService account.EmailService
	if cfg.Email.Enabled {
		emailService = email.NewService(
			cfg.Email.SMTPHost,
			cfg.Email.SMTPPort,
			cfg.Email.SMTPUser,
			cfg.Email.SMTPPassword,
			cfg.Email.FrontendURL,
		)
	}

	// Initialize account service
	accountService := account.NewService(accountStore, emailService, logger, account.Config{
		BonusAmount:       cfg.Referral.BonusAmount,
		MinPasswordLength: cfg.Referral.MinPasswordLength,
		BcryptCost:        cfg.Referral.BcryptCost,
	})

	// Initialize HTTP handlers
	accountHandler := account.NewHandler(accountService, sessionManager, rateLimiter, logger)

	// Initialize router
	router := httpServer.NewRouter(cfg, accountHandler, sessionMiddleware, logger)

	// Initialize HTTP server
	serverAddr := ":" + cfg.Server.Port
	server := httpServer.NewServer(
		serverAddr,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	// Wait for interrupt signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Printf("Received signal: %v", sig)

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// initStore builds the configured account-store backend and returns it with
// a cleanup function for whatever resources it holds.
func initStore(cfg *config.Config) (store.Store, func(), error) {
	switch cfg.Store.Backend {
	case config.BackendPostgres:
		sqlDB, err := initDB(cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		if err := database.RunMigrations(sqlDB); err != nil {
			sqlDB.Close()
			return nil, nil, err
		}
		db := database.NewBunDB(sqlDB)
		return store.NewPostgresStore(db), func() { db.Close() }, nil

	case config.BackendFile:
		fileStore, err := store.NewFileStore(cfg.Store.UsersFile, cfg.Store.CodesFile)
		if err != nil {
			return nil, nil, err
		}
		return fileStore, func() {}, nil

	case config.BackendMemory:
		return store.NewMemoryStore(), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// initDB opens and verifies the Postgres connection
func initDB(cfg config.DatabaseConfig) (*sql.DB, error) {
	sqlDB, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify connection
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	return sqlDB, nil
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Verify connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}
