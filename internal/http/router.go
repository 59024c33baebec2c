package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/authkit/internal/auth"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies, improving testability
// and reducing parameter count.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(RequestIDMiddleware())
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())
	if cfg.SecureCookies {
		router.Use(auth.StrictTransportSecurityMiddleware())
	}

	// CSRF must run before session so that session context is preserved
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies, cfg.AuthService))
	}

	// Session runs after CSRF so session context isn't overwritten by
	// CSRF's request replacement
	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.SessionLoadSave())
	}

	healthController := NewHealthController(cfg.Database, cfg.Version)
	router.GET("/health", healthController.Status)

	authController := NewAuthController(cfg.AuthService, cfg.SessionManager, cfg.RateLimiter)
	router.POST("/auth/register", authController.Register)
	router.POST("/auth/login", authController.Login)
	router.POST("/auth/logout", authController.Logout)
	router.GET("/auth/verify/:token", authController.VerifyEmail)

	// Guarded routes: bearer token first, cookie session as fallback
	protected := router.Group("/auth")
	protected.Use(cfg.Guard.RequireAuth())
	protected.GET("/me", authController.Me)

	// OAuth flows require browser sessions for the state nonce
	if cfg.Providers != nil && cfg.SessionManager != nil {
		oauthController := NewOAuthController(cfg.AuthService, cfg.SessionManager, cfg.Providers, cfg.OAuthSuccessRedirect)
		for _, name := range cfg.Providers.Names() {
			router.GET("/auth/"+string(name), oauthController.Begin(name))
			router.GET("/auth/"+string(name)+"/callback", oauthController.Callback(name))
		}
	}

	return router
}
