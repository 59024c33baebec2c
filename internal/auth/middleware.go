package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/authkit/internal/entities"
)

// Context keys for user data
const (
	ContextKeyUser   = "auth_user"
	ContextKeyUserID = "auth_user_id"
)

// Middleware guards HTTP routes with bearer-token authentication.
type Middleware struct {
	service        *Service
	sessionManager *SessionManager
}

// NewMiddleware creates the guard. sessionManager may be nil when cookie
// sessions are not in use; the guard then accepts bearer tokens only.
func NewMiddleware(service *Service, sessionManager *SessionManager) *Middleware {
	return &Middleware{
		service:        service,
		sessionManager: sessionManager,
	}
}

// RequireAuth returns a middleware that rejects unauthenticated requests
// with a 401 before they reach downstream handlers. On success the resolved
// user is attached to the request context.
func (m *Middleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Bearer token first (API clients)
		user, err := m.tryBearerAuth(c)
		if err != nil && errors.Is(err, ErrStoreUnavailable) {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"success": false,
				"message": "service unavailable",
			})
			return
		}
		if user != nil {
			m.setUserContext(c, user)
			c.Next()
			return
		}

		// Cookie session (browser flows)
		if user := m.trySessionAuth(c); user != nil {
			m.setUserContext(c, user)
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"message": "unauthorized",
		})
	}
}

// tryBearerAuth attempts to authenticate using the Authorization header.
func (m *Middleware) tryBearerAuth(c *gin.Context) (*entities.User, error) {
	token := ExtractBearerToken(c.Request)
	if token == "" {
		return nil, nil
	}

	user, err := m.service.CurrentUser(token)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// trySessionAuth attempts to authenticate using the session cookie.
func (m *Middleware) trySessionAuth(c *gin.Context) *entities.User {
	if m.sessionManager == nil {
		return nil
	}

	userID := m.sessionManager.GetUserID(c.Request)
	if userID == 0 {
		return nil
	}

	user, err := m.service.store.FindByID(userID)
	if err != nil {
		return nil
	}
	return user
}

func (m *Middleware) setUserContext(c *gin.Context, user *entities.User) {
	c.Set(ContextKeyUser, user)
	c.Set(ContextKeyUserID, user.ID)
}

// ExtractBearerToken pulls the token out of an "Authorization: Bearer <token>"
// header. Returns "" when the header is absent or not a bearer scheme.
func ExtractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

// Helper functions to extract auth data from Gin context

// GetUser retrieves the authenticated user from the context.
// Returns nil if the request was not authenticated.
func GetUser(c *gin.Context) *entities.User {
	if u, exists := c.Get(ContextKeyUser); exists {
		if user, ok := u.(*entities.User); ok {
			return user
		}
	}
	return nil
}

// GetUserID retrieves the authenticated user's ID from the context.
// Returns 0 if the request was not authenticated.
func GetUserID(c *gin.Context) uint {
	if id, exists := c.Get(ContextKeyUserID); exists {
		if userID, ok := id.(uint); ok {
			return userID
		}
	}
	return 0
}
