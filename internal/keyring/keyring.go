package keyring

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/julianstephens/habitkeeper/internal/constants"
)

var (
	// ErrNotFound is returned when nothing is stored under the requested key
	ErrNotFound = errors.New("credentials not found in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring cannot be reached
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

func get(user string) (string, error) {
	v, err := keyring.Get(constants.AppName, user)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return v, nil
}

func set(user, value, what string) error {
	if value == "" {
		return fmt.Errorf("%s cannot be empty", what)
	}
	if err := keyring.Set(constants.AppName, user, value); err != nil {
		return fmt.Errorf("failed to store %s in keyring: %w", what, err)
	}
	return nil
}

func del(user, what string) error {
	if err := keyring.Delete(constants.AppName, user); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete %s from keyring: %w", what, err)
	}
	return nil
}

// GetSessionUID returns the signed-in user id saved by 'auth login'.
func GetSessionUID() (string, error) { return get(constants.DefaultKeyringUser) }

func SetSessionUID(uid string) error { return set(constants.DefaultKeyringUser, uid, "user id") }

func DeleteSessionUID() error { return del(constants.DefaultKeyringUser, "user id") }

// GetConnectionString returns a PostgreSQL connection string kept in the
// keyring, which unlike the command line may carry a password.
func GetConnectionString() (string, error) { return get(constants.ConnKeyringUser) }

func SetConnectionString(connStr string) error {
	return set(constants.ConnKeyringUser, connStr, "connection string")
}

func DeleteConnectionString() error { return del(constants.ConnKeyringUser, "connection string") }

// IsAvailable is a best-effort probe of the OS keyring.
func IsAvailable() bool {
	_, err := keyring.Get(constants.AppName, "test-availability")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}
