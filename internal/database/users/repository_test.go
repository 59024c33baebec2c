package users

import (
	"errors"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/authkit/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, func()) {
	dbPath := "./test_users_" + t.Name() + ".db"

	// Busy timeout keeps concurrent writers waiting instead of erroring out
	db, err := gorm.Open(sqlite.Open(dbPath+"?_busy_timeout=5000"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.User{}, &entities.ProviderLink{}, &entities.VerificationToken{})
	require.NoError(t, err)

	repo := NewRepository(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return repo, cleanup
}

func TestRepository_Create(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	user, err := repo.Create(Draft{
		Name:         "Ada",
		Email:        "ada@example.com",
		PasswordHash: "$2a$12$fakehash",
	})
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.False(t, user.IsEmailVerified)
}

func TestRepository_Create_DuplicateEmail(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.Create(Draft{Name: "Ada", Email: "ada@example.com", PasswordHash: "h1"})
	require.NoError(t, err)

	_, err = repo.Create(Draft{Name: "Other", Email: "ada@example.com", PasswordHash: "h2"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestRepository_Create_ConcurrentDuplicateEmail(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	// Both registrations race on the same email. The unique index must let
	// exactly one through no matter which goroutine wins.
	for i := 0; i < 5; i++ {
		email := "race-" + t.Name() + "-" + strconv.Itoa(i) + "@example.com"

		errs := make(chan error, 2)
		var wg sync.WaitGroup
		for w := 0; w < 2; w++ {
			wg.Add(1)
			go func(name string) {
				defer wg.Done()
				_, err := repo.Create(Draft{Name: name, Email: email, PasswordHash: "h"})
				errs <- err
			}("racer-" + strconv.Itoa(w))
		}
		wg.Wait()
		close(errs)

		var succeeded, duplicated int
		for err := range errs {
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrDuplicate):
				duplicated++
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}
		assert.Equal(t, 1, succeeded, "exactly one registration must win")
		assert.Equal(t, 1, duplicated, "the loser must see a duplicate error")

		var count int64
		require.NoError(t, repo.db.Model(&entities.User{}).Where("email = ?", email).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	}
}

func TestRepository_Create_WithProviderLink(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	user, err := repo.Create(Draft{
		Name:            "Ada",
		Email:           "ada@example.com",
		IsEmailVerified: true,
		Link: &entities.ProviderLink{
			Provider:  entities.ProviderGoogle,
			SubjectID: "google-sub-1",
		},
	})
	require.NoError(t, err)
	require.Len(t, user.ProviderLinks, 1)
	assert.Equal(t, user.ID, user.ProviderLinks[0].UserID)

	found, err := repo.FindByProviderLink(entities.ProviderGoogle, "google-sub-1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
}

func TestRepository_Create_DuplicateLinkRollsBackUser(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.Create(Draft{
		Name:  "Ada",
		Email: "ada@example.com",
		Link:  &entities.ProviderLink{Provider: entities.ProviderGoogle, SubjectID: "sub-1"},
	})
	require.NoError(t, err)

	// Same subject, different email: the whole create must fail
	_, err = repo.Create(Draft{
		Name:  "Imposter",
		Email: "imposter@example.com",
		Link:  &entities.ProviderLink{Provider: entities.ProviderGoogle, SubjectID: "sub-1"},
	})
	assert.ErrorIs(t, err, ErrDuplicate)

	// The user row must not have survived the rolled-back transaction
	_, err = repo.FindByEmail("imposter@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_FindByID_NotFound(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.FindByID(4242)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_FindByEmail(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	created, err := repo.Create(Draft{Name: "Ada", Email: "ada@example.com", PasswordHash: "h"})
	require.NoError(t, err)

	found, err := repo.FindByEmail("ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = repo.FindByEmail("nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_LinkProvider(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	user, err := repo.Create(Draft{Name: "Ada", Email: "ada@example.com", PasswordHash: "h"})
	require.NoError(t, err)

	err = repo.LinkProvider(user.ID, entities.ProviderGitHub, "gh-77")
	require.NoError(t, err)

	found, err := repo.FindByProviderLink(entities.ProviderGitHub, "gh-77")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	// Linking the same subject again fails, for any user
	err = repo.LinkProvider(user.ID, entities.ProviderGitHub, "gh-77")
	assert.ErrorIs(t, err, ErrDuplicate)

	other, err := repo.Create(Draft{Name: "Eve", Email: "eve@example.com", PasswordHash: "h"})
	require.NoError(t, err)
	err = repo.LinkProvider(other.ID, entities.ProviderGitHub, "gh-77")
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestRepository_MarkEmailVerified(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	user, err := repo.Create(Draft{Name: "Ada", Email: "ada@example.com", PasswordHash: "h"})
	require.NoError(t, err)
	require.False(t, user.IsEmailVerified)

	err = repo.MarkEmailVerified(user.ID)
	require.NoError(t, err)

	found, err := repo.FindByID(user.ID)
	require.NoError(t, err)
	assert.True(t, found.IsEmailVerified)

	err = repo.MarkEmailVerified(9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_ConsumeVerificationToken(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	user, err := repo.Create(Draft{Name: "Ada", Email: "ada@example.com", PasswordHash: "h"})
	require.NoError(t, err)

	err = repo.CreateVerificationToken(user.ID, "hash-1", time.Now().Add(time.Hour))
	require.NoError(t, err)

	userID, err := repo.ConsumeVerificationToken("hash-1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)

	// Single use
	_, err = repo.ConsumeVerificationToken("hash-1")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestRepository_ConsumeVerificationToken_Expired(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	user, err := repo.Create(Draft{Name: "Ada", Email: "ada@example.com", PasswordHash: "h"})
	require.NoError(t, err)

	err = repo.CreateVerificationToken(user.ID, "hash-old", time.Now().Add(-time.Minute))
	require.NoError(t, err)

	_, err = repo.ConsumeVerificationToken("hash-old")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestRepository_PurgeExpiredVerificationTokens(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	user, err := repo.Create(Draft{Name: "Ada", Email: "ada@example.com", PasswordHash: "h"})
	require.NoError(t, err)

	require.NoError(t, repo.CreateVerificationToken(user.ID, "hash-live", time.Now().Add(time.Hour)))
	require.NoError(t, repo.CreateVerificationToken(user.ID, "hash-dead", time.Now().Add(-time.Hour)))

	purged, err := repo.PurgeExpiredVerificationTokens()
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	// The live token survives
	_, err = repo.ConsumeVerificationToken("hash-live")
	require.NoError(t, err)
}
