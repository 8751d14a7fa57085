package system

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/julianstephens/habitkeeper/internal/cli"
	"github.com/julianstephens/habitkeeper/internal/logger"
	"github.com/julianstephens/habitkeeper/internal/models"
)

type WatchCmd struct {
	Kind string `help:"Only watch build or destroy habits."`
}

func (c *WatchCmd) Run(ctx *cli.Context) error {
	kind, err := cli.ParseKind(c.Kind)
	if err != nil {
		return err
	}
	bg, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return c.watch(bg, ctx, kind)
}

func (c *WatchCmd) watch(bg context.Context, ctx *cli.Context, kind models.HabitKind) error {
	uid, err := ctx.UID(bg)
	if err != nil {
		return err
	}
	stopMetrics := ctx.ServeMetrics()
	defer stopMetrics()

	// Snapshots from different collections may arrive concurrently.
	var mu sync.Mutex
	var stops []func()
	defer func() {
		for _, s := range stops {
			s()
		}
	}()
	for _, k := range cli.Kinds(kind) {
		unsub, err := ctx.Tracker.Subscribe(bg, uid, k, func(habits []models.Habit) {
			mu.Lock()
			defer mu.Unlock()
			c.print(ctx, k, habits)
		})
		if err != nil {
			return err
		}
		stops = append(stops, unsub)
	}
	logger.Info("Watching habits", "uid", uid, "backend", ctx.Store.Name())
	ctx.Println("Watching for changes (Ctrl+C to stop)...")

	<-bg.Done()
	return nil
}

func (c *WatchCmd) print(ctx *cli.Context, kind models.HabitKind, habits []models.Habit) {
	today := ctx.Tracker.Today()
	ctx.Printf("[%s] %s habits: %d\n", time.Now().Format("15:04:05"), cli.KindTitle(kind), len(habits))
	for _, h := range habits {
		e, ok := h.Entry(today)
		if !ok {
			ctx.Printf("  %s %s\n", cli.EntryMark(h, e, ok), h.Name)
			continue
		}
		ctx.Printf("  %s %s  %s\n", cli.EntryMark(h, e, ok), h.Name, cli.DescribeEntry(e))
	}
}
