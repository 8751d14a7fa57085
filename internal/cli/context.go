package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	firebase "firebase.google.com/go/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/julianstephens/habitkeeper/internal/backup"
	"github.com/julianstephens/habitkeeper/internal/cloud"
	"github.com/julianstephens/habitkeeper/internal/config"
	"github.com/julianstephens/habitkeeper/internal/identity"
	"github.com/julianstephens/habitkeeper/internal/logger"
	"github.com/julianstephens/habitkeeper/internal/models"
	"github.com/julianstephens/habitkeeper/internal/storage"
	"github.com/julianstephens/habitkeeper/internal/storage/sqlite"
	"github.com/julianstephens/habitkeeper/internal/tracker"
)

// Context is handed to every command's Run method.
type Context struct {
	Config   *config.Config
	Store    storage.Provider
	Tracker  *tracker.Tracker
	Identity *identity.Resolver
	Registry *prometheus.Registry
	Metrics  *storage.Metrics

	// Out and In default to stdout and stdin.
	Out io.Writer
	In  io.Reader

	app *firebase.App
}

func (c *Context) out() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

func (c *Context) in() io.Reader {
	if c.In == nil {
		return os.Stdin
	}
	return c.In
}

// Printf writes to the command output.
func (c *Context) Printf(format string, args ...any) {
	fmt.Fprintf(c.out(), format, args...)
}

func (c *Context) Println(args ...any) {
	fmt.Fprintln(c.out(), args...)
}

// Confirm asks a yes/no question on the command input.
func (c *Context) Confirm(prompt string) (bool, error) {
	c.Printf("%s [y/N]: ", prompt)
	answer, err := bufio.NewReader(c.in()).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes", nil
}

// UID returns the current user or ErrNotAuthenticated.
func (c *Context) UID(ctx context.Context) (string, error) {
	return c.Identity.Current(ctx)
}

// Habit finds a habit of the current user by id or name. kind may be empty.
func (c *Context) Habit(ctx context.Context, ref string, kind models.HabitKind) (string, models.Habit, tracker.Ref, error) {
	uid, err := c.UID(ctx)
	if err != nil {
		return "", models.Habit{}, tracker.Ref{}, err
	}
	h, err := c.Tracker.Resolve(ctx, uid, ref, kind)
	if err != nil {
		return "", models.Habit{}, tracker.Ref{}, fmt.Errorf("%q: %w", ref, err)
	}
	return uid, h, tracker.Ref{Kind: h.Kind, ID: h.ID}, nil
}

// FirebaseApp builds the Firebase app on first use.
func (c *Context) FirebaseApp(ctx context.Context) (*firebase.App, error) {
	if c.app != nil {
		return c.app, nil
	}
	app, err := cloud.NewApp(ctx, c.Config.Firebase())
	if err != nil {
		return nil, err
	}
	c.app = app
	return app, nil
}

// SetFirebaseApp shares an app built while opening the store.
func (c *Context) SetFirebaseApp(app *firebase.App) {
	c.app = app
}

// SQLiteStore returns the local store when that is the active backend.
func (c *Context) SQLiteStore() (*sqlite.Store, bool) {
	s, ok := storage.Unwrap(c.Store).(*sqlite.Store)
	return s, ok
}

// PerformAutomaticBackup snapshots the local store and only logs failures.
func (c *Context) PerformAutomaticBackup(ctx context.Context) {
	s, ok := c.SQLiteStore()
	if !ok {
		return
	}
	if _, err := backup.NewManager(s.Path()).Create(ctx); err != nil {
		logger.Warn("Automatic backup failed", "error", err)
	}
}
