package entities

import (
	"time"

	"gorm.io/gorm"
)

// OAuthProvider identifies an external identity provider.
type OAuthProvider string

const (
	ProviderGoogle OAuthProvider = "google"
	ProviderGitHub OAuthProvider = "github"
)

type User struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Name            string         `gorm:"size:100" json:"name"`
	Email           string         `gorm:"uniqueIndex;size:255" json:"email"`
	PasswordHash    string         `gorm:"size:100" json:"-"` // Empty for OAuth-only accounts
	IsEmailVerified bool           `gorm:"default:false" json:"is_email_verified"`
	ProviderLinks   []ProviderLink `gorm:"foreignKey:UserID" json:"provider_links,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// HasPassword reports whether the account supports password login.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// Link returns the subject ID linked for the given provider, if any.
func (u *User) Link(provider OAuthProvider) (string, bool) {
	for _, l := range u.ProviderLinks {
		if l.Provider == provider {
			return l.SubjectID, true
		}
	}
	return "", false
}

// ProviderLink associates a local user with an external provider identity.
// A provider subject may be linked to at most one user.
type ProviderLink struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	UserID    uint          `gorm:"index;uniqueIndex:idx_user_provider,priority:2" json:"user_id"`
	Provider  OAuthProvider `gorm:"size:32;uniqueIndex:idx_provider_subject,priority:1;uniqueIndex:idx_user_provider,priority:1" json:"provider"`
	SubjectID string        `gorm:"size:255;uniqueIndex:idx_provider_subject,priority:2" json:"subject_id"`
	CreatedAt time.Time     `json:"created_at"`
}

// VerificationToken is a single-use email verification token.
// Only the SHA-256 hash of the token is stored.
type VerificationToken struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index" json:"user_id"`
	TokenHash string    `gorm:"uniqueIndex;size:64" json:"-"`
	ExpiresAt time.Time `gorm:"index" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
