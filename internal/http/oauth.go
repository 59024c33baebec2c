package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/authkit/internal/auth"
	"github.com/mrlokans/authkit/internal/entities"
	"github.com/mrlokans/authkit/internal/oauth"
)

// OAuthController handles the provider redirect and callback legs of the
// OAuth login flow.
type OAuthController struct {
	service         *auth.Service
	sessionManager  *auth.SessionManager
	providers       *oauth.Registry
	successRedirect string
}

// NewOAuthController creates the OAuth controller.
func NewOAuthController(service *auth.Service, sessionManager *auth.SessionManager, providers *oauth.Registry, successRedirect string) *OAuthController {
	return &OAuthController{
		service:         service,
		sessionManager:  sessionManager,
		providers:       providers,
		successRedirect: successRedirect,
	}
}

// Begin handles GET /auth/<provider>. It generates a state nonce, stashes
// it in the session, and redirects to the provider's consent page.
func (oc *OAuthController) Begin(name entities.OAuthProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		provider, err := oc.providers.Get(name)
		if err != nil {
			respondError(c, http.StatusNotFound, "unknown provider")
			return
		}

		state, err := oauth.GenerateState()
		if err != nil {
			respondInternalError(c, err)
			return
		}
		oc.sessionManager.PutOAuthState(c.Request, state)

		c.Redirect(http.StatusTemporaryRedirect, provider.AuthURL(state))
	}
}

// Callback handles GET /auth/<provider>/callback. The state parameter must
// match the nonce stored at the beginning of the flow.
func (oc *OAuthController) Callback(name entities.OAuthProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		provider, err := oc.providers.Get(name)
		if err != nil {
			respondError(c, http.StatusNotFound, "unknown provider")
			return
		}
		oc.callback(c, provider)
	}
}

func (oc *OAuthController) callback(c *gin.Context, provider oauth.Provider) {
	if errMsg := c.Query("error"); errMsg != "" {
		log.Printf("OAuth %s returned error: %s", provider.Name(), errMsg)
		respondError(c, http.StatusBadGateway, "provider rejected the authorization")
		return
	}

	state := c.Query("state")
	if state == "" || state != oc.sessionManager.PopOAuthState(c.Request) {
		respondError(c, http.StatusBadRequest, "state mismatch")
		return
	}

	code := c.Query("code")
	if code == "" {
		respondError(c, http.StatusBadRequest, "missing authorization code")
		return
	}

	profile, err := provider.Exchange(c.Request.Context(), code)
	if err != nil {
		log.Printf("OAuth %s exchange failed: %v", provider.Name(), err)
		respondError(c, http.StatusBadGateway, "token exchange failed")
		return
	}

	result, err := oc.service.OAuthLogin(profile.Provider, profile.SubjectID, profile.Email, profile.Name)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrValidation):
			respondError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, auth.ErrStoreUnavailable):
			respondStoreUnavailable(c, err)
		default:
			respondInternalError(c, err)
		}
		return
	}

	if err := oc.sessionManager.CreateSession(c.Request, result.User); err != nil {
		respondInternalError(c, err)
		return
	}

	if oc.successRedirect != "" {
		c.Redirect(http.StatusSeeOther, oc.successRedirect)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   result.Token,
	})
}
