package system

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/habitkeeper/internal/cli"
	"github.com/julianstephens/habitkeeper/internal/models"
	"github.com/julianstephens/habitkeeper/internal/storage"
	"github.com/julianstephens/habitkeeper/internal/storage/sqlite"
)

type InitCmd struct {
	Force  bool   `help:"Delete an existing sqlite database before initialization."`
	Source string `help:"SQLite database to copy the current user's habits from."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	if c.Force {
		if err := c.reset(ctx); err != nil {
			return err
		}
	}

	if err := ctx.Store.Init(bg); err != nil {
		return err
	}
	if s, ok := ctx.SQLiteStore(); ok {
		ctx.Printf("Initialized habitkeeper storage at: %s\n", s.Path())
	} else {
		ctx.Printf("Initialized habitkeeper %s storage\n", ctx.Store.Name())
	}

	if c.Source != "" {
		ctx.Printf("Copying habits from: %s\n", c.Source)
		if err := c.copyFrom(bg, ctx); err != nil {
			return fmt.Errorf("copy failed: %w", err)
		}
	}
	return nil
}

func (c *InitCmd) reset(ctx *cli.Context) error {
	s, ok := ctx.SQLiteStore()
	if !ok {
		return fmt.Errorf("--force is only supported for the sqlite store")
	}
	dbPath := s.Path()
	if c.Source != "" {
		absDB, err := filepath.Abs(dbPath)
		if err == nil {
			dbPath = absDB
		}
		if absSource, err := filepath.Abs(c.Source); err == nil && absSource == dbPath {
			return fmt.Errorf("cannot use --force when source and destination are the same: %s", dbPath)
		}
	}

	if _, err := os.Stat(dbPath); err == nil {
		if err := ctx.Store.Close(); err != nil {
			return fmt.Errorf("failed to close existing database: %w", err)
		}
		if err := os.Remove(dbPath); err != nil {
			return fmt.Errorf("failed to delete existing database: %w", err)
		}
		ctx.Printf("Deleted existing database at: %s\n", dbPath)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to access existing database: %w", err)
	}
	return nil
}

// copyFrom copies both habit collections of the current user. Documents get
// new ids in the destination.
func (c *InitCmd) copyFrom(bg context.Context, ctx *cli.Context) error {
	uid, err := ctx.UID(bg)
	if err != nil {
		return err
	}
	source := sqlite.NewStore(c.Source)
	if err := source.Load(bg); err != nil {
		return fmt.Errorf("failed to load source database: %w", err)
	}
	defer source.Close()

	for _, kind := range []models.HabitKind{models.KindBuild, models.KindDestroy} {
		col := storage.CollectionPath{UID: uid, Collection: kind.Collection()}
		docs, err := source.List(bg, col)
		if err != nil {
			return fmt.Errorf("failed to list %s: %w", col, err)
		}
		for _, d := range docs {
			if _, err := ctx.Store.Create(bg, col, d.Fields); err != nil {
				return fmt.Errorf("failed to copy habit %s: %w", d.ID, err)
			}
		}
		ctx.Printf("  Copied %d %s habits\n", len(docs), cli.KindLabel(kind))
	}
	return nil
}
