package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	_ "github.com/redmonkez12/go-contacts-api/docs" // Swagger docs (generated)
	"github.com/redmonkez12/go-contacts-api/internal/auth"
	"github.com/redmonkez12/go-contacts-api/internal/config"
	"github.com/redmonkez12/go-contacts-api/internal/contact"
	"github.com/redmonkez12/go-contacts-api/internal/database"
	"github.com/redmonkez12/go-contacts-api/internal/email"
	httpServer "github.com/redmonkez12/go-contacts-api/internal/http"
	"github.com/redmonkez12/go-contacts-api/internal/logging"
	"github.com/redmonkez12/go-contacts-api/internal/mailqueue"
	"github.com/redmonkez12/go-contacts-api/internal/metrics"
	"github.com/redmonkez12/go-contacts-api/internal/ratelimit"
	"github.com/redmonkez12/go-contacts-api/internal/storage"
	"github.com/redmonkez12/go-contacts-api/internal/telemetry"
	"github.com/redmonkez12/go-contacts-api/internal/user"
)

// @title           Contacts API
// @version         1.0
// @description     Personal address book with email-confirmed accounts, token authentication and avatar uploads.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	ctx := context.Background()

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
		"token_strategy", cfg.Auth.TokenStrategy,
		"mail_queue", cfg.Queue.Backend,
		"rate_limit", cfg.RateLimit.Backend,
	)

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Error("failed to flush traces", "error", err)
		}
	}()

	// Initialize database connection and schema
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if err := database.RunMigrations(cfg.Database.URL()); err != nil {
		return err
	}
	logger.Info("database migrations applied")

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(registry)

	// Initialize rate limiter
	store, closeStore, err := initRateLimitStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize rate limiter: %w", err)
	}
	defer closeStore()
	limiter := ratelimit.New(store)

	// Initialize token service
	tokens, err := auth.NewTokenService(cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to initialize token service: %w", err)
	}

	// Initialize mail delivery
	mailer, stopMailer, err := initMailer(cfg, logger, collector)
	if err != nil {
		return fmt.Errorf("failed to initialize mail queue: %w", err)
	}
	defer stopMailer()

	// Initialize avatar storage
	var uploader user.AvatarUploader
	if cfg.Storage.Enabled() {
		s3Uploader, err := storage.NewS3Uploader(ctx, cfg.Storage, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
		if err := s3Uploader.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to prepare avatar bucket: %w", err)
		}
		uploader = s3Uploader
	} else {
		logger.Warn("S3 storage not configured, avatar uploads are disabled")
	}

	// Initialize repositories and services
	txManager := database.NewTxManager(db)
	userRepo := user.NewRepository(db)
	contactRepo := contact.NewRepository(db)

	authService := auth.NewService(
		userRepo,
		txManager,
		auth.NewPasswordHasher(),
		tokens,
		mailer,
		collector,
		auth.TokenTTL{
			Access:       cfg.Auth.AccessTokenDuration,
			Refresh:      cfg.Auth.RefreshTokenDuration,
			Confirmation: cfg.Auth.ConfirmationTokenDuration,
		},
	)
	contactService := contact.NewService(contactRepo, txManager)
	avatarService := user.NewAvatarService(userRepo, uploader, cfg.Storage.KeyPrefix)

	// Initialize router
	router := httpServer.NewRouter(cfg, httpServer.Deps{
		AuthHandler:    auth.NewHandler(authService, limiter, cfg.RateLimit.EmailCooldown, cfg.Server.PublicBaseURL),
		AuthMiddleware: auth.NewMiddleware(authService),
		UserHandler:    user.NewHandler(avatarService),
		ContactHandler: contact.NewHandler(contactService),
		Limiter:        limiter,
		Metrics:        collector,
		Gatherer:       registry,
		Logger:         logger,
	})

	// Initialize HTTP server
	serverAddr := ":" + cfg.Server.Port
	server := httpServer.NewServer(
		serverAddr,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
		logger,
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
		logger.Info("received signal", "signal", sig.String())

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// initRateLimitStore picks the counter backend. The returned func releases it.
func initRateLimitStore(ctx context.Context, cfg *config.Config) (ratelimit.Store, func(), error) {
	if cfg.RateLimit.Backend == config.BackendMemory {
		store := ratelimit.NewMemoryStore(10 * time.Minute)
		return store, store.Stop, nil
	}

	client, err := initRedis(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	return ratelimit.NewRedisStore(client), func() { _ = client.Close() }, nil
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Verify connection
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}

// initMailer returns the queue confirmation emails are handed to.
// The in-process pool sends mail itself; with AMQP cmd/worker does the sending.
func initMailer(cfg *config.Config, logger *logging.Logger, recorder mailqueue.Recorder) (auth.Mailer, func(), error) {
	if cfg.Queue.Backend == config.BackendAMQP {
		client, err := mailqueue.Dial(cfg.Queue, logger)
		if err != nil {
			return nil, nil, err
		}
		return client, client.Close, nil
	}

	sender := email.NewService(cfg.Email, cfg.Auth.ConfirmationTokenDuration.String())
	queue := mailqueue.NewQueue(sender, cfg.Queue.Workers, cfg.Queue.BufferSize, logger, recorder)
	queue.Start()

	stop := func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := queue.Shutdown(ctx); err != nil {
			logger.Error("mail queue did not drain", "error", err)
		}
	}
	return queue, stop, nil
}
