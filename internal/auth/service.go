package auth

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mrlokans/authkit/internal/config"
	"github.com/mrlokans/authkit/internal/database/users"
	"github.com/mrlokans/authkit/internal/entities"
)

// VerificationDispatcher enqueues delivery of a verification token to a user.
// The tasks package provides the backlite-backed implementation.
type VerificationDispatcher interface {
	DispatchVerification(user *entities.User, token string) error
}

// VerificationStore is the optional store surface for email verification.
// The users repository implements it; stores that don't simply disable the
// verification flow.
type VerificationStore interface {
	CreateVerificationToken(userID uint, tokenHash string, expiresAt time.Time) error
	ConsumeVerificationToken(tokenHash string) (uint, error)
	MarkEmailVerified(userID uint) error
}

// AuthResult pairs a user with a freshly issued bearer token.
type AuthResult struct {
	User  *entities.User
	Token string
}

// Service is the authentication facade: it sequences the identity resolver,
// the token issuer, and the credential store behind transport-agnostic
// operations. The HTTP layer is a thin wrapper over this type.
type Service struct {
	resolver     *Resolver
	issuer       *TokenIssuer
	store        Store
	verification VerificationStore
	dispatcher   VerificationDispatcher
	config       config.Auth
}

// NewService creates the authentication facade. dispatcher may be nil, in
// which case registration skips the verification email.
func NewService(store Store, hasher Hasher, cfg config.Auth, dispatcher VerificationDispatcher) *Service {
	s := &Service{
		resolver:   NewResolver(store, hasher, cfg.MinPasswordLength),
		issuer:     NewTokenIssuer([]byte(cfg.JWTSecret), cfg.TokenExpiry),
		store:      store,
		dispatcher: dispatcher,
		config:     cfg,
	}
	if vs, ok := store.(VerificationStore); ok {
		s.verification = vs
	}
	return s
}

// Register creates a password-based account and issues a bearer token.
// A verification email is dispatched asynchronously; its failure does not
// fail the registration.
func (s *Service) Register(name, email, password string) (*AuthResult, error) {
	user, err := s.resolver.Register(name, email, password)
	if err != nil {
		return nil, err
	}

	token, err := s.issuer.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	if s.dispatcher != nil {
		if err := s.sendVerification(user); err != nil {
			log.Printf("Failed to dispatch verification email for user %d: %v", user.ID, err)
		}
	}

	return &AuthResult{User: user, Token: token}, nil
}

// Login verifies credentials and issues a bearer token.
func (s *Service) Login(email, password string) (*AuthResult, error) {
	user, err := s.resolver.Login(email, password)
	if err != nil {
		return nil, err
	}

	token, err := s.issuer.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

// OAuthLogin resolves a provider profile to a user and issues a bearer token.
func (s *Service) OAuthLogin(provider entities.OAuthProvider, subjectID, email, name string) (*AuthResult, error) {
	user, err := s.resolver.ResolveOAuth(provider, subjectID, email, name)
	if err != nil {
		return nil, err
	}

	token, err := s.issuer.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

// CurrentUser resolves a bearer token back to its user. Invalid and expired
// tokens, and tokens whose user no longer exists, all fail with
// ErrUnauthorized; the finer-grained cause is wrapped for logging.
func (s *Service) CurrentUser(token string) (*entities.User, error) {
	userID, err := s.issuer.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}

	user, err := s.store.FindByID(userID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, fmt.Errorf("%w: user no longer exists", ErrUnauthorized)
		}
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return user, nil
}

// VerifyEmail consumes a verification token and marks the account verified.
func (s *Service) VerifyEmail(token string) error {
	if s.verification == nil {
		return fmt.Errorf("%w: verification is not enabled", ErrInvalidToken)
	}
	userID, err := s.verification.ConsumeVerificationToken(HashToken(token))
	if err != nil {
		if errors.Is(err, users.ErrTokenNotFound) {
			return fmt.Errorf("%w: unknown or expired verification token", ErrInvalidToken)
		}
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	if err := s.verification.MarkEmailVerified(userID); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return nil
}

// sendVerification creates a verification token and hands it to the dispatcher.
func (s *Service) sendVerification(user *entities.User) error {
	if s.verification == nil {
		return nil
	}

	plaintext, hash, err := GenerateVerificationToken()
	if err != nil {
		return err
	}

	expiry := s.config.VerificationExpiry
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	if err := s.verification.CreateVerificationToken(user.ID, hash, time.Now().Add(expiry)); err != nil {
		return err
	}

	return s.dispatcher.DispatchVerification(user, plaintext)
}
