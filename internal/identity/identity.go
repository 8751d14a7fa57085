// Package identity answers "who is the current user" for the CLI. Core
// operations never look this up themselves; the uid is passed to them.
package identity

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"firebase.google.com/go/v4/auth"

	"github.com/julianstephens/habitkeeper/internal/errors"
	"github.com/julianstephens/habitkeeper/internal/keyring"
	"github.com/julianstephens/habitkeeper/internal/logger"
)

// Provider yields a uid, or "" when it has none to offer.
type Provider interface {
	UID(ctx context.Context) (string, error)
}

// Static provides a fixed uid, from a flag or environment variable.
type Static string

func (s Static) UID(ctx context.Context) (string, error) {
	return strings.TrimSpace(string(s)), nil
}

// Keyring provides the uid saved by Login.
type Keyring struct{}

func (Keyring) UID(ctx context.Context) (string, error) {
	uid, err := keyring.GetSessionUID()
	if stderrors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	return uid, err
}

// Resolver asks each provider in turn.
type Resolver struct {
	providers []Provider
}

func NewResolver(providers ...Provider) *Resolver {
	return &Resolver{providers: providers}
}

// Current returns the first uid offered, or ErrNotAuthenticated.
func (r *Resolver) Current(ctx context.Context) (string, error) {
	for _, p := range r.providers {
		uid, err := p.UID(ctx)
		if err != nil {
			logger.Warn("Identity provider failed", "provider", fmt.Sprintf("%T", p), "error", err)
			continue
		}
		if uid != "" {
			return uid, nil
		}
	}
	return "", errors.ErrNotAuthenticated
}

// TokenVerifier checks a Firebase ID token. *auth.Client satisfies it.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// Login saves a session. With an ID token the uid comes from the verified
// token; otherwise uid is used as given.
func Login(ctx context.Context, uid, idToken string, verifier TokenVerifier) (string, error) {
	uid = strings.TrimSpace(uid)
	if idToken != "" {
		if verifier == nil {
			return "", errors.Invalid("ID token login needs a firebase project")
		}
		tok, err := verifier.VerifyIDToken(ctx, idToken)
		if err != nil {
			return "", fmt.Errorf("%w: %v", errors.ErrNotAuthenticated, err)
		}
		uid = tok.UID
	}
	if uid == "" {
		return "", errors.Invalid("a user id or ID token is required")
	}
	if err := keyring.SetSessionUID(uid); err != nil {
		return "", err
	}
	logger.Info("Signed in", "uid", uid)
	return uid, nil
}

// Logout clears the saved session. Logging out twice is not an error.
func Logout() error {
	err := keyring.DeleteSessionUID()
	if stderrors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}
