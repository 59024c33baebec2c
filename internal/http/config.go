package http

import (
	"github.com/mrlokans/authkit/internal/auth"
	"github.com/mrlokans/authkit/internal/config"
	"github.com/mrlokans/authkit/internal/database"
	"github.com/mrlokans/authkit/internal/oauth"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Database    *database.Database
	AuthService *auth.Service
	Guard       *auth.Middleware

	// Browser-session plumbing (optional; nil disables cookie flows)
	SessionManager *auth.SessionManager
	CSRFSecret     []byte
	SecureCookies  bool

	// OAuth providers enabled at startup
	Providers *oauth.Registry
	// Optional URL to redirect to after a completed OAuth flow
	OAuthSuccessRedirect string

	// Login rate limiting
	RateLimiter *auth.RateLimiter

	AuthConfig config.Auth
	Version    string
}
