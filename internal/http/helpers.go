package http

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// All responses share the envelope {"success": bool, ...}. Errors carry a
// human-readable message; successes carry the operation's payload fields.

// respondError sends an error response with the given status.
func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"message": message,
	})
}

// respondUnauthorized sends a 401 Unauthorized response.
func respondUnauthorized(c *gin.Context) {
	respondError(c, http.StatusUnauthorized, "unauthorized")
}

// respondInternalError logs the error and sends a 500 without leaking detail.
func respondInternalError(c *gin.Context, err error) {
	log.Printf("Internal error handling %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	respondError(c, http.StatusInternalServerError, "internal server error")
}

// respondStoreUnavailable sends a 503 for credential store outages.
func respondStoreUnavailable(c *gin.Context, err error) {
	log.Printf("Store unavailable handling %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	respondError(c, http.StatusServiceUnavailable, "service unavailable")
}
