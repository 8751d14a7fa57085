package system

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/habitkeeper/internal/backup"
	"github.com/julianstephens/habitkeeper/internal/cli"
	"github.com/julianstephens/habitkeeper/internal/keyring"
	"github.com/julianstephens/habitkeeper/internal/validation"
)

type DoctorCmd struct{}

type check struct {
	name string
	// warn marks a check whose failure does not fail the command
	warn bool
	run  func() error
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	ctx.Println("Running diagnostics...")
	ctx.Println()

	var uid string
	checks := []check{
		{name: "Clock/timezone", run: func() error { return checkClock(ctx) }},
		{name: "Keyring available", warn: true, run: func() error {
			if !keyring.IsAvailable() {
				return keyring.ErrKeyringUnavailable
			}
			return nil
		}},
		{name: "Signed in", run: func() error {
			var err error
			uid, err = ctx.UID(bg)
			return err
		}},
		{name: "Habit integrity", run: func() error { return checkHabits(bg, ctx, uid) }},
		{name: "Backups present", warn: true, run: func() error { return checkBackups(ctx) }},
	}

	failed := false
	for _, c := range checks {
		if c.name == "Habit integrity" && uid == "" {
			ctx.Printf("⊘ %s: SKIPPED (not signed in)\n", c.name)
			continue
		}
		err := c.run()
		switch {
		case err == nil:
			ctx.Printf("✓ %s: OK\n", c.name)
		case c.warn:
			ctx.Printf("⚠ %s: WARNING\n   %v\n", c.name, err)
		default:
			ctx.Printf("❌ %s: FAIL\n   Error: %v\n", c.name, err)
			failed = true
		}
	}

	ctx.Println()
	if failed {
		return fmt.Errorf("diagnostics found problems")
	}
	ctx.Println("All checks passed.")
	return nil
}

func checkClock(ctx *cli.Context) error {
	now := ctx.Tracker.Now()
	if now.Year() < 2000 {
		return fmt.Errorf("system clock looks wrong: %s", now.Format(time.RFC3339))
	}
	name, _ := now.Zone()
	if name == "" {
		return fmt.Errorf("timezone %q has no name", ctx.Tracker.Location())
	}
	return nil
}

func checkHabits(bg context.Context, ctx *cli.Context, uid string) error {
	var problems []string
	for _, k := range cli.Kinds("") {
		habits, err := ctx.Tracker.ListHabits(bg, uid, k)
		if err != nil {
			return err
		}
		for _, h := range habits {
			for _, p := range validation.CheckHabit(h).Problems {
				problems = append(problems, p.Description)
			}
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%d problem(s):\n   %s", len(problems), strings.Join(problems, "\n   "))
	}
	return nil
}

func checkBackups(ctx *cli.Context) error {
	s, ok := ctx.SQLiteStore()
	if !ok {
		return nil
	}
	list, err := backup.NewManager(s.Path()).List()
	if err != nil {
		return err
	}
	if len(list) == 0 {
		return fmt.Errorf("no backups yet; run 'habitkeeper backup create'")
	}
	if age := time.Since(list[0].Timestamp); age > 7*24*time.Hour {
		return fmt.Errorf("newest backup is %d days old", int(age.Hours()/24))
	}
	return nil
}
