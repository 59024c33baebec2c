// Package auth implements the authentication core: credential resolution,
// bearer-token issuance and verification, and the route guard.
//
// The Service type is the facade the rest of the application talks to. It is
// transport-agnostic; Middleware adapts it to gin routes.
//
// # Tokens
//
// Bearer tokens are signed JWTs carrying the user ID. They are stateless and
// cannot be revoked before expiry: logout means the client discards the
// token (a browser session cookie, when used, is destroyed server-side).
// Pick JWT_EXPIRY accordingly.
//
// # Configuration
//
// All knobs come from the environment via internal/config:
//
//	JWT_SECRET=<random-string>            # Required
//	JWT_EXPIRY=168h                       # Bearer token lifetime (7 days)
//	AUTH_BCRYPT_COST=12                   # bcrypt cost factor
//	AUTH_MIN_PASSWORD_LENGTH=6            # Registration minimum
//	AUTH_SESSION_SECRET=<hex-32-bytes>    # Auto-generated if empty
//	AUTH_SESSION_LIFETIME=24h             # Cookie session duration
//	AUTH_SECURE_COOKIES=true              # HTTPS-only cookies
//
// # Usage
//
// Initialize in the entrypoint:
//
//	svc := auth.NewService(userRepo, auth.NewBcryptHasher(cfg.Auth.BcryptCost), cfg.Auth, dispatcher)
//	guard := auth.NewMiddleware(svc, sessionManager)
//	router.GET("/auth/me", guard.RequireAuth(), meHandler)
//
// Extract the user in handlers:
//
//	user := auth.GetUser(c)
package auth
