// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup and migrations
//	└── users/           # Identity records, provider links, verification tokens
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type with domain-specific operations:
//
//	// Initialize database connection
//	db, err := database.NewDatabase("./authkit.db")
//
//	// Create domain-specific repositories
//	usersRepo := users.NewRepository(db.DB)
//
//	// Use repositories
//	user, err := usersRepo.FindByEmail("someone@example.com")
//
// # Error Translation
//
// The connection is opened with TranslateError enabled, so unique-constraint
// violations surface as gorm.ErrDuplicatedKey. Repositories map that to their
// own sentinel errors (e.g., users.ErrDuplicate) rather than letting gorm
// types leak upwards.
//
// # Adding a New Domain
//
// To add a new domain (e.g., audit):
//
//  1. Create a new sub-package: internal/database/audit/
//  2. Define a Repository struct with a *gorm.DB field
//  3. Add NewRepository(db *gorm.DB) constructor
//  4. Register its entities in database.NewDatabase's AutoMigrate call
package database
