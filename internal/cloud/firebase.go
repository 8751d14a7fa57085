// Package cloud builds the Firebase app shared by the Firestore store and
// ID-token login.
package cloud

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	"github.com/julianstephens/habitkeeper/internal/logger"
)

// Config selects the project and credentials. CredentialsBase64 takes
// precedence over CredentialsFile; with neither set the emulator or
// application default credentials are used.
type Config struct {
	ProjectID         string
	CredentialsFile   string
	CredentialsBase64 string
}

// ClientOptions resolves cfg into Google API client options.
func ClientOptions(cfg Config) ([]option.ClientOption, error) {
	switch {
	case cfg.CredentialsBase64 != "":
		decoded, err := base64.StdEncoding.DecodeString(cfg.CredentialsBase64)
		if err != nil {
			return nil, fmt.Errorf("failed to decode base64 firebase credentials: %w", err)
		}
		logger.Debug("Using firebase credentials from environment")
		return []option.ClientOption{option.WithCredentialsJSON(decoded)}, nil
	case cfg.CredentialsFile != "":
		if _, err := os.Stat(cfg.CredentialsFile); err != nil {
			return nil, fmt.Errorf("firebase credentials file not found: %s", cfg.CredentialsFile)
		}
		logger.Debug("Using firebase credentials file", "path", cfg.CredentialsFile)
		return []option.ClientOption{option.WithCredentialsFile(cfg.CredentialsFile)}, nil
	case os.Getenv("FIRESTORE_EMULATOR_HOST") != "":
		logger.Debug("Using firestore emulator", "host", os.Getenv("FIRESTORE_EMULATOR_HOST"))
		return []option.ClientOption{option.WithoutAuthentication()}, nil
	default:
		return nil, nil
	}
}

// NewApp initializes a Firebase app for cfg.
func NewApp(ctx context.Context, cfg Config) (*firebase.App, error) {
	opts, err := ClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	var fbConfig *firebase.Config
	if cfg.ProjectID != "" {
		fbConfig = &firebase.Config{ProjectID: cfg.ProjectID}
	}
	app, err := firebase.NewApp(ctx, fbConfig, opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}
	return app, nil
}
