// Package users provides database operations for identity records.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	user, err := repo.FindByEmail("someone@example.com")
package users

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/authkit/internal/entities"
)

var (
	// ErrNotFound is returned when no matching user exists.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicate is returned when a create would violate email or
	// provider-link uniqueness. The underlying unique constraints make
	// this check atomic: of two concurrent creates, exactly one fails.
	ErrDuplicate = errors.New("identity already exists")
	// ErrTokenNotFound is returned when a verification token is unknown or expired.
	ErrTokenNotFound = errors.New("verification token not found")
)

// Draft describes a user to be created.
type Draft struct {
	Name            string
	Email           string
	PasswordHash    string
	IsEmailVerified bool
	Link            *entities.ProviderLink // Optional provider link, created atomically
}

// Repository handles all user database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user, and its provider link if the draft carries one,
// in a single transaction. Returns ErrDuplicate if the email or the provider
// link is already taken.
func (r *Repository) Create(draft Draft) (*entities.User, error) {
	user := &entities.User{
		Name:            draft.Name,
		Email:           draft.Email,
		PasswordHash:    draft.PasswordHash,
		IsEmailVerified: draft.IsEmailVerified,
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		if draft.Link != nil {
			link := *draft.Link
			link.UserID = user.ID
			if err := tx.Create(&link).Error; err != nil {
				return err
			}
			user.ProviderLinks = []entities.ProviderLink{link}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// FindByID retrieves a user by ID.
func (r *Repository) FindByID(id uint) (*entities.User, error) {
	var user entities.User
	err := r.db.Preload("ProviderLinks").First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// FindByEmail retrieves a user by email.
func (r *Repository) FindByEmail(email string) (*entities.User, error) {
	var user entities.User
	err := r.db.Preload("ProviderLinks").Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// FindByProviderLink retrieves the user linked to (provider, subjectID).
func (r *Repository) FindByProviderLink(provider entities.OAuthProvider, subjectID string) (*entities.User, error) {
	var link entities.ProviderLink
	err := r.db.Where("provider = ? AND subject_id = ?", provider, subjectID).First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return r.FindByID(link.UserID)
}

// LinkProvider attaches a provider identity to an existing user.
// Returns ErrDuplicate if the subject is already linked, to this user or any other.
func (r *Repository) LinkProvider(userID uint, provider entities.OAuthProvider, subjectID string) error {
	link := entities.ProviderLink{
		UserID:    userID,
		Provider:  provider,
		SubjectID: subjectID,
	}
	if err := r.db.Create(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to link provider: %w", err)
	}
	return nil
}

// MarkEmailVerified flips the verified flag for a user.
func (r *Repository) MarkEmailVerified(userID uint) error {
	result := r.db.Model(&entities.User{}).Where("id = ?", userID).
		Update("is_email_verified", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateVerificationToken stores a hashed verification token for a user.
func (r *Repository) CreateVerificationToken(userID uint, tokenHash string, expiresAt time.Time) error {
	token := entities.VerificationToken{
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
	}
	return r.db.Create(&token).Error
}

// ConsumeVerificationToken looks up an unexpired token by hash, deletes it,
// and returns the owning user ID. Single use: a second call with the same
// token fails with ErrTokenNotFound.
func (r *Repository) ConsumeVerificationToken(tokenHash string) (uint, error) {
	var userID uint
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var token entities.VerificationToken
		err := tx.Where("token_hash = ? AND expires_at > ?", tokenHash, time.Now()).
			First(&token).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTokenNotFound
			}
			return err
		}
		userID = token.UserID
		return tx.Delete(&token).Error
	})
	if err != nil {
		return 0, err
	}
	return userID, nil
}

// PurgeExpiredVerificationTokens removes verification tokens past their expiry.
// Returns the number of rows deleted.
func (r *Repository) PurgeExpiredVerificationTokens() (int64, error) {
	result := r.db.Where("expires_at <= ?", time.Now()).
		Delete(&entities.VerificationToken{})
	return result.RowsAffected, result.Error
}
