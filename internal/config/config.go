package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Database
		Auth
		OAuth
		SMTP
		Tasks
		Global
	}

	HTTP struct {
		Port    int32
		Host    string
		BaseURL string // Public base URL used to build OAuth callback URLs
	}
	Database struct {
		Path string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Auth struct {
		JWTSecret         string
		TokenExpiry       time.Duration // Bearer token lifetime (default: 7 days)
		BcryptCost        int
		MinPasswordLength int
		SessionSecret     string
		SessionLifetime   time.Duration
		SecureCookies     bool // Set to false for local dev without HTTPS

		// Rate limiting configuration
		MaxLoginAttempts int           // Max failed attempts before lockout (default: 5)
		RateLimitWindow  time.Duration // Time window for counting attempts (default: 15m)
		LockoutDuration  time.Duration // How long to lock out (default: 30m)

		// Email verification
		VerificationExpiry time.Duration // Verification token lifetime (default: 24h)
	}
	OAuth struct {
		Google          OAuthClient
		GitHub          OAuthClient
		SuccessRedirect string // Optional URL to redirect to after OAuth login, token appended
	}
	OAuthClient struct {
		ClientID     string
		ClientSecret string
	}
	SMTP struct {
		Host string
		Port int
		User string
		Pass string
		From string
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8177)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("base_url", "http://localhost:8177")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)

	// Auth defaults
	v.SetDefault("jwt_secret", "")                // Required for serve; checked at startup
	v.SetDefault("jwt_expiry", "168h")            // 7 days
	v.SetDefault("auth_bcrypt_cost", 12)          // bcrypt cost factor
	v.SetDefault("auth_min_password_length", 6)   // Minimum password length
	v.SetDefault("auth_session_secret", "")       // Auto-generated if empty
	v.SetDefault("auth_session_lifetime", "24h")  // 24 hours
	v.SetDefault("auth_secure_cookies", true)     // HTTPS-only cookies
	v.SetDefault("auth_max_login_attempts", 5)    // Max failed attempts
	v.SetDefault("auth_rate_limit_window", "15m") // Window for counting attempts
	v.SetDefault("auth_lockout_duration", "30m")  // Lockout duration
	v.SetDefault("auth_verification_expiry", "24h")

	// OAuth defaults (providers are disabled unless credentials are set)
	v.SetDefault("google_client_id", "")
	v.SetDefault("google_client_secret", "")
	v.SetDefault("github_client_id", "")
	v.SetDefault("github_client_secret", "")
	v.SetDefault("oauth_success_redirect", "")

	// SMTP defaults (verification emails are logged if unset)
	v.SetDefault("smtp_host", "")
	v.SetDefault("smtp_port", 587)
	v.SetDefault("smtp_user", "")
	v.SetDefault("smtp_pass", "")
	v.SetDefault("smtp_from", "")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	return &Config{
		HTTP: HTTP{
			Port:    v.GetInt32("PORT"),
			Host:    v.GetString("HOST"),
			BaseURL: v.GetString("BASE_URL"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Auth: Auth{
			JWTSecret:          v.GetString("JWT_SECRET"),
			TokenExpiry:        v.GetDuration("JWT_EXPIRY"),
			BcryptCost:         v.GetInt("AUTH_BCRYPT_COST"),
			MinPasswordLength:  v.GetInt("AUTH_MIN_PASSWORD_LENGTH"),
			SessionSecret:      v.GetString("AUTH_SESSION_SECRET"),
			SessionLifetime:    v.GetDuration("AUTH_SESSION_LIFETIME"),
			SecureCookies:      v.GetBool("AUTH_SECURE_COOKIES"),
			MaxLoginAttempts:   v.GetInt("AUTH_MAX_LOGIN_ATTEMPTS"),
			RateLimitWindow:    v.GetDuration("AUTH_RATE_LIMIT_WINDOW"),
			LockoutDuration:    v.GetDuration("AUTH_LOCKOUT_DURATION"),
			VerificationExpiry: v.GetDuration("AUTH_VERIFICATION_EXPIRY"),
		},
		OAuth: OAuth{
			Google: OAuthClient{
				ClientID:     v.GetString("GOOGLE_CLIENT_ID"),
				ClientSecret: v.GetString("GOOGLE_CLIENT_SECRET"),
			},
			GitHub: OAuthClient{
				ClientID:     v.GetString("GITHUB_CLIENT_ID"),
				ClientSecret: v.GetString("GITHUB_CLIENT_SECRET"),
			},
			SuccessRedirect: v.GetString("OAUTH_SUCCESS_REDIRECT"),
		},
		SMTP: SMTP{
			Host: v.GetString("SMTP_HOST"),
			Port: v.GetInt("SMTP_PORT"),
			User: v.GetString("SMTP_USER"),
			Pass: v.GetString("SMTP_PASS"),
			From: v.GetString("SMTP_FROM"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
	}
}
