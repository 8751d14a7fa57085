package system

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/habitkeeper/internal/cli"
	"github.com/julianstephens/habitkeeper/internal/tui"
)

type TuiCmd struct{}

func (c *TuiCmd) Run(ctx *cli.Context) error {
	bg, cancel := context.WithCancel(context.Background())
	defer cancel()

	uid, err := ctx.UID(bg)
	if err != nil {
		return err
	}
	ctx.PerformAutomaticBackup(bg)
	stopMetrics := ctx.ServeMetrics()
	defer stopMetrics()

	p := tea.NewProgram(tui.NewModel(bg, ctx.Tracker, uid), tea.WithAltScreen())
	stop, err := tui.Watch(bg, ctx.Tracker, uid, p.Send)
	if err != nil {
		return err
	}
	defer stop()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui failed: %w", err)
	}
	return nil
}
