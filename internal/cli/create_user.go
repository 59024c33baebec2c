package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/mrlokans/authkit/internal/auth"
	"github.com/mrlokans/authkit/internal/config"
	"github.com/mrlokans/authkit/internal/database"
	"github.com/mrlokans/authkit/internal/database/users"
)

// CreateUserCommand provisions an account directly in the database,
// bypassing the HTTP surface. Useful for bootstrapping the first account
// or for scripted environments.
type CreateUserCommand struct {
	Name         string
	Email        string
	Password     string
	DatabasePath string
	Verified     bool
}

func NewCreateUserCommand() *CreateUserCommand {
	return &CreateUserCommand{}
}

func (cmd *CreateUserCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ExitOnError)

	fs.StringVar(&cmd.Name, "name", "", "Display name for the account (required)")
	fs.StringVar(&cmd.Email, "email", "", "Email address, used as the login identifier (required)")
	fs.StringVar(&cmd.Password, "password", "", "Password (required; prefer AUTHKIT_PASSWORD env var to keep it out of shell history)")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")
	fs.BoolVar(&cmd.Verified, "verified", true, "Mark the email address as already verified")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s create-user -name <name> -email <email> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create an account directly in the database.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s create-user -name \"Ada\" -email ada@example.com -password s3cret\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  AUTHKIT_PASSWORD=s3cret %s create-user -name \"Ada\" -email ada@example.com\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Password == "" {
		cmd.Password = os.Getenv("AUTHKIT_PASSWORD")
	}

	if cmd.Name == "" || cmd.Email == "" || cmd.Password == "" {
		fs.Usage()
		return fmt.Errorf("name, email, and password are required")
	}

	return nil
}

func (cmd *CreateUserCommand) Run() error {
	cfg := config.NewConfig()

	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	store := users.NewRepository(db.DB)
	hasher := auth.NewBcryptHasher(cfg.Auth.BcryptCost)
	resolver := auth.NewResolver(store, hasher, cfg.Auth.MinPasswordLength)

	user, err := resolver.Register(cmd.Name, cmd.Email, cmd.Password)
	if err != nil {
		return err
	}

	if cmd.Verified {
		if err := store.MarkEmailVerified(user.ID); err != nil {
			return fmt.Errorf("failed to mark email verified: %w", err)
		}
	}

	fmt.Printf("Created user %d (%s)\n", user.ID, user.Email)
	return nil
}
