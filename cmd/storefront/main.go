package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/tendant/simple-storefront/internal/config"
	httpserver "github.com/tendant/simple-storefront/internal/http"
	"github.com/tendant/simple-storefront/internal/notification"
	"github.com/tendant/simple-storefront/internal/realtime"
	"github.com/tendant/simple-storefront/pkg/auth"
	"github.com/tendant/simple-storefront/pkg/cart"
	"github.com/tendant/simple-storefront/pkg/orders"
	"github.com/tendant/simple-storefront/pkg/repository"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to database
	db, err := repository.NewDB(ctx, cfg.DSN(), repository.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := repository.ValidateSchema(ctx, db); err != nil {
		logger.Error("database schema check failed", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to database")

	// Initialize repositories
	usersRepo := repository.NewUsersRepository(db)
	sessionsRepo := repository.NewSessionsRepository(db)
	productsRepo := repository.NewProductsRepository(db)
	categoriesRepo := repository.NewCategoriesRepository(db)
	cartRepo := repository.NewCartRepository(db)
	ordersRepo := repository.NewOrdersRepository(db)

	// Live notifications: a local hub, fed through Redis when configured so
	// every replica sees every event.
	hub := realtime.NewHub(logger, cfg.WSOutboxSize)
	var publisher realtime.Publisher = hub
	var states auth.StateStore = auth.NewMemoryStateStore()
	if cfg.HasRedis() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}

		relay := realtime.NewRedisRelay(rdb, cfg.RedisEventsChannel, hub, logger)
		go func() {
			if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("realtime relay stopped", "error", err)
			}
		}()
		publisher = relay
		states = auth.NewRedisStateStore(rdb)
		logger.Info("redis enabled", "addr", cfg.RedisAddr, "channel", cfg.RedisEventsChannel)
	}
	notifier := realtime.NewNotifier(publisher, logger)

	// Initialize services
	passwordPolicy := auth.NewPasswordPolicy(cfg.PasswordPolicy)
	sessionService := auth.NewSessionService(auth.SessionConfig{
		AccessTokenTTL: cfg.AccessTokenTTL,
		SessionTTL:     cfg.SessionTTL,
		JWTSecret:      []byte(cfg.JWTSecret),
		Issuer:         cfg.JWTIssuer,
	}, sessionsRepo)
	passwordService := auth.NewPasswordService(usersRepo, sessionService, passwordPolicy, cfg.Validation.BlockDisposableEmail)

	var dispatcher auth.ResetDispatcher = notification.NewLogDispatcher(logger, cfg.AppBaseURL)
	if cfg.HasSMTP() {
		dispatcher = notification.NewEmailService(notification.EmailConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			FromName: cfg.SMTPFromName,
		}, cfg.AppBaseURL)
		logger.Info("email service enabled")
	}
	resetService := auth.NewResetService(usersRepo, sessionService, dispatcher, passwordPolicy, cfg.PasswordResetTTL, logger)

	googleService := auth.NewGoogleService(auth.GoogleConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURI:  cfg.GoogleRedirectURI,
	}, usersRepo, sessionService, states)
	if googleService.Enabled() {
		logger.Info("Google OAuth enabled")
	}

	cartService := cart.NewService(cartRepo, productsRepo)
	orderService := orders.NewService(ordersRepo, cartRepo, notifier, cfg.ReportLocation())

	// Create router
	router := httpserver.NewRouter(httpserver.RouterConfig{
		Logger:          logger,
		PasswordService: passwordService,
		ResetService:    resetService,
		GoogleService:   googleService,
		SessionService:  sessionService,
		Users:           usersRepo,
		Products:        productsRepo,
		Categories:      categoriesRepo,
		Cart:            cartService,
		Orders:          orderService,
		Realtime:        realtime.NewHandler(hub, logger, cfg.WSAllowedOrigins),
		RateLimitConfig: cfg.RateLimit,
		SecurityHeaders: cfg.SecurityHeaders,
		Validation:      cfg.Validation,
		CookieSecure:    cfg.CookieSecure,
	})

	go cleanupSessions(ctx, logger, sessionsRepo, cfg.SessionCleanupInterval)

	// Create HTTP server. WriteTimeout stays zero so /ws connections are not cut.
	addr := fmt.Sprintf("%s:%d", cfg.ServerAddr, cfg.ServerPort)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting server", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	<-ctx.Done()
	logger.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	hub.Close()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("server stopped")
}

// cleanupSessions deletes sessions that expired or were revoked more than a
// day ago.
func cleanupSessions(ctx context.Context, logger *slog.Logger, sessions *repository.SessionsRepository, every time.Duration) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sessions.DeleteExpired(ctx, 24*time.Hour)
			if err != nil {
				logger.Error("session cleanup failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("expired sessions removed", "count", n)
			}
		}
	}
}
