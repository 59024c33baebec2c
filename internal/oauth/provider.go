// Package oauth provides OAuth2 provider adapters for delegated login.
//
// Each adapter wraps golang.org/x/oauth2 for the authorization-code
// handshake and the provider's profile API for identity data. The set of
// active providers is fixed at startup from configuration; a provider with
// missing credentials simply isn't registered.
package oauth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/mrlokans/authkit/internal/entities"
)

// Profile is the provider-verified identity returned from a completed flow.
type Profile struct {
	Provider  entities.OAuthProvider
	SubjectID string // Provider-assigned stable account identifier
	Email     string // May be empty if the provider withheld it
	Name      string
}

// Provider is the capability interface every adapter implements.
type Provider interface {
	// Name returns the provider identifier (e.g., "google", "github").
	Name() entities.OAuthProvider

	// AuthURL returns the provider consent URL for the given state nonce.
	AuthURL(state string) string

	// Exchange trades an authorization code for the user's profile.
	Exchange(ctx context.Context, code string) (*Profile, error)
}

// Registry holds the providers enabled at startup. It is populated once
// during wiring and read-only afterwards, so no locking is needed.
type Registry struct {
	providers map[entities.OAuthProvider]Provider
}

// NewRegistry creates a registry from the given providers.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[entities.OAuthProvider]Provider)}
	for _, p := range providers {
		r.providers[p.Name()] = p
	}
	return r
}

// Get retrieves a provider by name.
func (r *Registry) Get(name entities.OAuthProvider) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("provider %q not configured", name)
	}
	return p, nil
}

// Names returns all registered provider names.
func (r *Registry) Names() []entities.OAuthProvider {
	names := make([]entities.OAuthProvider, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}

// GenerateState mints a random state nonce for CSRF protection of the
// authorization-code flow. The caller stores it in the session and compares
// on callback.
func GenerateState() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
