package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/authkit/internal/auth"
)

// AuthController handles registration, login, and session introspection.
type AuthController struct {
	service        *auth.Service
	sessionManager *auth.SessionManager
	rateLimiter    *auth.RateLimiter
}

// NewAuthController creates the authentication controller.
func NewAuthController(service *auth.Service, sessionManager *auth.SessionManager, rateLimiter *auth.RateLimiter) *AuthController {
	return &AuthController{
		service:        service,
		sessionManager: sessionManager,
		rateLimiter:    rateLimiter,
	}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /auth/register.
// 201 with token and user on success, 400 on validation failure,
// 409 on duplicate email.
func (ac *AuthController) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := ac.service.Register(req.Name, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrValidation):
			respondError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, auth.ErrDuplicateIdentity):
			respondError(c, http.StatusConflict, "email already registered")
		case errors.Is(err, auth.ErrStoreUnavailable):
			respondStoreUnavailable(c, err)
		default:
			respondInternalError(c, err)
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"token":   result.Token,
		"user":    result.User,
	})
}

// Login handles POST /auth/login.
// 200 with token on success, 401 on invalid credentials, 429 when the
// IP+email pair is locked out.
func (ac *AuthController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	ip := c.ClientIP()
	if ac.rateLimiter != nil {
		if allowed, retryAfter := ac.rateLimiter.Allow(ip, req.Email); !allowed {
			c.Header("Retry-After", retryAfter.String())
			respondError(c, http.StatusTooManyRequests, "too many login attempts")
			return
		}
	}

	result, err := ac.service.Login(req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			if ac.rateLimiter != nil {
				ac.rateLimiter.RecordFailure(ip, req.Email)
			}
			respondError(c, http.StatusUnauthorized, "invalid credentials")
		case errors.Is(err, auth.ErrStoreUnavailable):
			respondStoreUnavailable(c, err)
		default:
			respondInternalError(c, err)
		}
		return
	}

	if ac.rateLimiter != nil {
		ac.rateLimiter.RecordSuccess(ip, req.Email)
	}

	// Establish a cookie session for browser clients alongside the token
	if ac.sessionManager != nil {
		if err := ac.sessionManager.CreateSession(c.Request, result.User); err != nil {
			respondInternalError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   result.Token,
	})
}

// Me handles GET /auth/me. The guard has already resolved the user.
func (ac *AuthController) Me(c *gin.Context) {
	user := auth.GetUser(c)
	if user == nil {
		respondUnauthorized(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    user,
	})
}

// Logout handles POST /auth/logout. Bearer tokens are stateless and stay
// valid until expiry; only the cookie session is destroyed here.
func (ac *AuthController) Logout(c *gin.Context) {
	if ac.sessionManager != nil {
		if err := ac.sessionManager.DestroySession(c.Request); err != nil {
			respondInternalError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
	})
}

// VerifyEmail handles GET /auth/verify/:token.
func (ac *AuthController) VerifyEmail(c *gin.Context) {
	token := c.Param("token")

	if err := ac.service.VerifyEmail(token); err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidToken):
			respondError(c, http.StatusBadRequest, "unknown or expired verification token")
		case errors.Is(err, auth.ErrStoreUnavailable):
			respondStoreUnavailable(c, err)
		default:
			respondInternalError(c, err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "email verified",
	})
}
