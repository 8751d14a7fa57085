package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/habitkeeper/internal/cli"
	apperrors "github.com/julianstephens/habitkeeper/internal/errors"
	"github.com/julianstephens/habitkeeper/internal/identity"
	"github.com/julianstephens/habitkeeper/internal/keyring"
	"github.com/julianstephens/habitkeeper/internal/storage/postgres"
)

type AuthCmd struct {
	Login    LoginCmd    `cmd:"" help:"Save a session for a user id or Firebase ID token."`
	Logout   LogoutCmd   `cmd:"" help:"Forget the saved session."`
	Whoami   WhoamiCmd   `cmd:"" help:"Show the current user id."`
	StoreDSN StoreDSNCmd `cmd:"" name:"store-dsn" help:"Keep a PostgreSQL connection string in the OS keyring."`
}

// LoginCmd saves the global --uid, or the uid of a verified ID token.
type LoginCmd struct {
	IDToken string `name:"id-token" help:"Firebase ID token; its verified uid is saved." env:"HABITKEEPER_ID_TOKEN"`
}

func (c *LoginCmd) Run(ctx *cli.Context) error {
	uid := ctx.Config.UID
	if uid == "" && c.IDToken == "" {
		return apperrors.Invalid("pass --uid or --id-token")
	}
	if uid != "" && c.IDToken != "" {
		return apperrors.Invalid("pass only one of --uid and --id-token")
	}
	if !keyring.IsAvailable() {
		return keyring.ErrKeyringUnavailable
	}

	bg := context.Background()
	var verifier identity.TokenVerifier
	if c.IDToken != "" {
		app, err := ctx.FirebaseApp(bg)
		if err != nil {
			return err
		}
		client, err := app.Auth(bg)
		if err != nil {
			return fmt.Errorf("error getting auth client: %w", err)
		}
		verifier = client
	}

	uid, err := identity.Login(bg, uid, c.IDToken, verifier)
	if err != nil {
		return err
	}
	ctx.Printf("✓ Signed in as %s\n", uid)
	return nil
}

type LogoutCmd struct{}

func (c *LogoutCmd) Run(ctx *cli.Context) error {
	if err := identity.Logout(); err != nil {
		return err
	}
	ctx.Println("✓ Signed out")
	return nil
}

type WhoamiCmd struct{}

func (c *WhoamiCmd) Run(ctx *cli.Context) error {
	uid, err := ctx.UID(context.Background())
	if err != nil {
		return err
	}
	ctx.Println(uid)
	return nil
}

// StoreDSNCmd stores database connection credentials in the OS keyring
type StoreDSNCmd struct {
	ConnectionString string `arg:"" help:"PostgreSQL connection string to store in keyring."`
}

func (c *StoreDSNCmd) Run(ctx *cli.Context) error {
	if !strings.HasPrefix(c.ConnectionString, "postgres://") &&
		!strings.HasPrefix(c.ConnectionString, "postgresql://") &&
		!strings.Contains(c.ConnectionString, "host=") {
		return apperrors.Invalid("connection string must be a valid PostgreSQL connection string")
	}

	if err := postgres.ValidateConnString(c.ConnectionString); err != nil {
		if !errors.Is(err, postgres.ErrEmbeddedCredentials) {
			return fmt.Errorf("invalid connection string: %w", err)
		}
		// The keyring is encrypted, so a password is allowed here.
		ctx.Println("⚠️  Connection string contains a password; it is kept only in the OS keyring.")
	}

	if err := keyring.SetConnectionString(c.ConnectionString); err != nil {
		return err
	}
	ctx.Println("✓ Connection string stored in keyring")
	return nil
}
