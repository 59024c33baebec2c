package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/mrlokans/authkit/internal/auth"
)

// GenSecretCommand prints a freshly generated hex secret suitable for
// JWT_SECRET or AUTH_SESSION_SECRET.
type GenSecretCommand struct{}

func NewGenSecretCommand() *GenSecretCommand {
	return &GenSecretCommand{}
}

func (cmd *GenSecretCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("gen-secret", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s gen-secret\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Generate a random hex secret for JWT_SECRET or AUTH_SESSION_SECRET.\n")
	}
	return fs.Parse(args)
}

func (cmd *GenSecretCommand) Run() error {
	secret, err := auth.GenerateSessionSecret()
	if err != nil {
		return fmt.Errorf("failed to generate secret: %w", err)
	}
	fmt.Println(secret)
	return nil
}
