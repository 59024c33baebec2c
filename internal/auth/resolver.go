package auth

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/mrlokans/authkit/internal/database/users"
	"github.com/mrlokans/authkit/internal/entities"
)

// emailPattern accepts syntactically plausible addresses; full RFC 5322
// validation is not attempted.
var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// DefaultMinPasswordLength applies when the configured minimum is zero.
const DefaultMinPasswordLength = 6

// Store is the credential store consumed by the resolver.
type Store interface {
	FindByID(id uint) (*entities.User, error)
	FindByEmail(email string) (*entities.User, error)
	FindByProviderLink(provider entities.OAuthProvider, subjectID string) (*entities.User, error)
	Create(draft users.Draft) (*entities.User, error)
	LinkProvider(userID uint, provider entities.OAuthProvider, subjectID string) error
}

// Resolver turns credentials or provider profiles into user records.
// It is stateless: every call is independent and safe to run concurrently.
type Resolver struct {
	store       Store
	hasher      Hasher
	minPassword int
}

// NewResolver creates an identity resolver.
func NewResolver(store Store, hasher Hasher, minPasswordLength int) *Resolver {
	if minPasswordLength <= 0 {
		minPasswordLength = DefaultMinPasswordLength
	}
	return &Resolver{
		store:       store,
		hasher:      hasher,
		minPassword: minPasswordLength,
	}
}

// Register validates the input, hashes the password, and creates an
// unverified password-based account.
func (r *Resolver) Register(name, email, password string) (*entities.User, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: %w", ErrValidation, ErrNameRequired)
	}
	// RFC 5321 caps addresses at 254 characters
	if len(email) > 254 || !emailPattern.MatchString(email) {
		return nil, fmt.Errorf("%w: %w", ErrValidation, ErrEmailInvalid)
	}
	if len(password) < r.minPassword {
		return nil, fmt.Errorf("%w: %w", ErrValidation, ErrPasswordTooShort)
	}

	hash, err := r.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, ErrPasswordTooLong) {
			return nil, fmt.Errorf("%w: %w", ErrValidation, err)
		}
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := r.store.Create(users.Draft{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, users.ErrDuplicate) {
			return nil, ErrDuplicateIdentity
		}
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return user, nil
}

// Login matches (email, password) against the store. Unknown email,
// OAuth-only account, and wrong password all return ErrInvalidCredentials;
// a dummy hash comparison runs on the miss paths so response timing does
// not reveal whether the email exists.
func (r *Resolver) Login(email, password string) (*entities.User, error) {
	user, err := r.store.FindByEmail(email)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			r.hasher.Verify(password, dummyHash)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	if !user.HasPassword() {
		r.hasher.Verify(password, dummyHash)
		return nil, ErrInvalidCredentials
	}
	if !r.hasher.Verify(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// ResolveOAuth produces the user for a provider profile.
//
// Resolution order:
//  1. A user already linked to (provider, subjectID) is returned unchanged.
//  2. A user whose email matches the profile gets the provider linked to it,
//     rather than a second account being created for the same address.
//  3. Otherwise a new user is created with the link and a verified email,
//     since the provider has already verified the address.
func (r *Resolver) ResolveOAuth(provider entities.OAuthProvider, subjectID, email, name string) (*entities.User, error) {
	user, err := r.store.FindByProviderLink(provider, subjectID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, users.ErrNotFound) {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	if email != "" {
		existing, err := r.store.FindByEmail(email)
		if err == nil {
			if err := r.store.LinkProvider(existing.ID, provider, subjectID); err != nil {
				if errors.Is(err, users.ErrDuplicate) {
					// Lost a race with a concurrent callback for the same subject.
					return r.store.FindByProviderLink(provider, subjectID)
				}
				return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
			}
			return r.store.FindByID(existing.ID)
		}
		if !errors.Is(err, users.ErrNotFound) {
			return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}
	}

	// The email column is unique, so an account cannot be created without one.
	if email == "" {
		return nil, fmt.Errorf("%w: provider did not share an email address", ErrValidation)
	}

	user, err = r.store.Create(users.Draft{
		Name:            name,
		Email:           email,
		IsEmailVerified: true,
		Link: &entities.ProviderLink{
			Provider:  provider,
			SubjectID: subjectID,
		},
	})
	if err != nil {
		if errors.Is(err, users.ErrDuplicate) {
			// Concurrent callback created the link first.
			return r.store.FindByProviderLink(provider, subjectID)
		}
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return user, nil
}
