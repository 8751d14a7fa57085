package main

import (
	"context"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/habitkeeper/internal/cli"
	"github.com/julianstephens/habitkeeper/internal/cli/auth"
	"github.com/julianstephens/habitkeeper/internal/cli/backups"
	"github.com/julianstephens/habitkeeper/internal/cli/days"
	"github.com/julianstephens/habitkeeper/internal/cli/habits"
	"github.com/julianstephens/habitkeeper/internal/cli/system"
	"github.com/julianstephens/habitkeeper/internal/config"
	"github.com/julianstephens/habitkeeper/internal/constants"
	"github.com/julianstephens/habitkeeper/internal/errors"
	"github.com/julianstephens/habitkeeper/internal/logger"
)

var CLI struct {
	config.Config
	Version kong.VersionFlag

	Init   system.InitCmd   `cmd:"" help:"Initialize habitkeeper storage."`
	Doctor system.DoctorCmd `cmd:"" help:"Run health checks and diagnostics."`
	Tui    system.TuiCmd    `cmd:"" help:"Launch the interactive day view." default:"1"`
	Watch  system.WatchCmd  `cmd:"" help:"Print habit changes as they happen."`
	Auth   auth.AuthCmd     `cmd:"" help:"Sign in and manage credentials."`
	Habit  habits.HabitCmd  `cmd:"" help:"Manage habits."`
	Day    days.DayCmd      `cmd:"" help:"Track a habit's day."`
	Goal   days.GoalCmd     `cmd:"" help:"Manage habit goals."`
	Backup struct {
		Create  backups.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    backups.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore backups.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage sqlite database backups."`
}

func main() {
	if err := config.LoadDotEnv(); err != nil {
		errors.Fatal(err)
	}

	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Habit progress ledger: streaks, goals and attempts for build and destroy habits"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	)

	cfg := &CLI.Config
	cfg.Normalize()
	command := ctx.Command()
	if err := logger.Init(logger.Config{
		Debug:     cfg.Debug,
		ConfigDir: cfg.ConfigDir,
		Stderr:    strings.HasPrefix(command, "watch"),
	}); err != nil {
		errors.Fatalf("failed to initialize logger: %v", err)
	}
	logger.Debug("Starting", "command", command, "version", constants.Version)

	// Storing a connection string must work before any store can be opened.
	if strings.HasPrefix(command, "auth store-dsn") {
		errors.Fatal(ctx.Run(&cli.Context{Config: cfg}))
		return
	}

	bg := context.Background()
	appCtx, err := cli.NewContext(bg, cfg)
	if err != nil {
		errors.Fatal(err)
	}

	// Init loads its own store; auth commands never touch habits.
	if command != "init" && !strings.HasPrefix(command, "auth") {
		if err := appCtx.Store.Load(bg); err != nil {
			appCtx.Store.Close()
			errors.Fatal(err)
		}
	}

	err = ctx.Run(appCtx)
	if cerr := appCtx.Store.Close(); cerr != nil {
		logger.Warn("Failed to close store", "error", cerr)
	}
	errors.Fatal(err)
}
