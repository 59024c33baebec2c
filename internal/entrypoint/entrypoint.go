package entrypoint

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/authkit/internal/auth"
	"github.com/mrlokans/authkit/internal/config"
	"github.com/mrlokans/authkit/internal/database"
	"github.com/mrlokans/authkit/internal/database/users"
	http_controllers "github.com/mrlokans/authkit/internal/http"
	"github.com/mrlokans/authkit/internal/mailer"
	"github.com/mrlokans/authkit/internal/oauth"
	"github.com/mrlokans/authkit/internal/scheduler"
	"github.com/mrlokans/authkit/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting server at %s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Call shutdown callback first (e.g., to stop the task queue)
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting AuthKit v%s", version)

	if cfg.Auth.JWTSecret == "" {
		log.Fatalf("JWT_SECRET is not set. Generate one with 'authkit gen-secret' and export it.")
	}

	// Initialize database
	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	userStore := users.NewRepository(db.DB)
	hasher := auth.NewBcryptHasher(cfg.Auth.BcryptCost)
	outbound := mailer.NewFromConfig(cfg.SMTP)

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	var dispatcher auth.VerificationDispatcher
	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:         cfg.Tasks.Workers,
			ReleaseAfter:    cfg.Tasks.ReleaseAfter,
			CleanupInterval: cfg.Tasks.CleanupInterval,
		}

		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(
			tasks.NewSendVerificationQueue(outbound, cfg.HTTP.BaseURL),
		)

		// Start task workers in background
		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		dispatcher = tasks.NewDispatcher(taskClient)
	} else {
		log.Printf("Task queue disabled; verification emails will not be sent")
	}

	authService := auth.NewService(userStore, hasher, cfg.Auth, dispatcher)

	// Get underlying SQL DB for the session store
	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatalf("Failed to get SQL DB for sessions: %v", err)
	}

	sessionManager, err := auth.NewSessionManager(sqlDB, cfg.Auth)
	if err != nil {
		log.Fatalf("Failed to initialize session manager: %v", err)
	}

	guard := auth.NewMiddleware(authService, sessionManager)

	// Generate or use configured CSRF secret
	var csrfSecret []byte
	if cfg.Auth.SessionSecret != "" {
		csrfSecret, err = hex.DecodeString(cfg.Auth.SessionSecret)
		if err != nil {
			// Not hex, use as raw bytes
			csrfSecret = []byte(cfg.Auth.SessionSecret)
		}
	} else {
		secret, err := auth.GenerateSessionSecret()
		if err != nil {
			log.Fatalf("Failed to generate CSRF secret: %v", err)
		}
		csrfSecret, _ = hex.DecodeString(secret)
		log.Printf("Generated session secret (set AUTH_SESSION_SECRET to persist it across restarts)")
	}

	rateLimiter := auth.NewRateLimiter(auth.RateLimitConfig{
		MaxAttempts:     cfg.Auth.MaxLoginAttempts,
		WindowDuration:  cfg.Auth.RateLimitWindow,
		LockoutDuration: cfg.Auth.LockoutDuration,
	})

	// Register OAuth providers that have credentials configured
	var providers []oauth.Provider
	if cfg.OAuth.Google.ClientID != "" && cfg.OAuth.Google.ClientSecret != "" {
		providers = append(providers, oauth.NewGoogleProvider(cfg.OAuth.Google, cfg.HTTP.BaseURL))
		log.Printf("OAuth provider enabled: google")
	}
	if cfg.OAuth.GitHub.ClientID != "" && cfg.OAuth.GitHub.ClientSecret != "" {
		providers = append(providers, oauth.NewGitHubProvider(cfg.OAuth.GitHub, cfg.HTTP.BaseURL))
		log.Printf("OAuth provider enabled: github")
	}
	registry := oauth.NewRegistry(providers...)

	// Hourly purge of expired verification tokens
	cleanup := scheduler.NewCleanupScheduler(userStore, "")
	if err := cleanup.Start(); err != nil {
		log.Fatalf("Failed to start cleanup scheduler: %v", err)
	}

	routerCfg := http_controllers.RouterConfig{
		Database:             db,
		AuthService:          authService,
		Guard:                guard,
		SessionManager:       sessionManager,
		CSRFSecret:           csrfSecret,
		SecureCookies:        cfg.Auth.SecureCookies,
		Providers:            registry,
		OAuthSuccessRedirect: cfg.OAuth.SuccessRedirect,
		RateLimiter:          rateLimiter,
		AuthConfig:           cfg.Auth,
		Version:              version,
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		cleanup.Stop()
		rateLimiter.Stop()
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}
