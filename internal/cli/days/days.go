package days

import (
	"context"

	"github.com/julianstephens/habitkeeper/internal/cli"
	"github.com/julianstephens/habitkeeper/internal/errors"
	"github.com/julianstephens/habitkeeper/internal/models"
	"github.com/julianstephens/habitkeeper/internal/tracker"
)

type DayCmd struct {
	Select   DaySelectCmd   `cmd:"" help:"Show a day, creating its entry from the day before."`
	Complete DayCompleteCmd `cmd:"" help:"Complete a day, or record one attempt on multi-try days."`
	Undo     DayUndoCmd     `cmd:"" help:"Undo a completion, or remove one attempt."`
	Inc      DayIncCmd      `cmd:"" help:"Record one attempt."`
	Dec      DayDecCmd      `cmd:"" help:"Remove one attempt."`
	Reset    DayResetCmd    `cmd:"" help:"Walk back the latest completion of a day."`
}

// Target names a habit and a day. Date defaults to today.
type Target struct {
	Ref  string `arg:"" help:"Habit id or name."`
	Date string `help:"Date in YYYY-MM-DD format (default: today)." default:""`
	Kind string `help:"build or destroy, when a name exists in both."`
}

func (t Target) habit(ctx *cli.Context) (string, models.Habit, tracker.Ref, error) {
	kind, err := cli.ParseKind(t.Kind)
	if err != nil {
		return "", models.Habit{}, tracker.Ref{}, err
	}
	return ctx.Habit(context.Background(), t.Ref, kind)
}

func (t Target) date(ctx *cli.Context) string {
	if t.Date == "" {
		return ctx.Tracker.Today()
	}
	return t.Date
}

type DaySelectCmd struct {
	Target
}

func (c *DaySelectCmd) Run(ctx *cli.Context) error {
	uid, h, ref, err := c.habit(ctx)
	if err != nil {
		return err
	}
	date := c.date(ctx)
	e, ok, err := ctx.Tracker.SelectDay(context.Background(), uid, ref, date)
	if err != nil {
		return err
	}
	if !ok {
		ctx.Printf("%s has no entry for %s (created %s)\n", h.Name, date, h.CreatedDay())
		return nil
	}
	ctx.Printf("%s on %s: %s\n", h.Name, date, cli.DescribeEntry(e))
	return nil
}

type DayCompleteCmd struct {
	Target
	NoPrompt bool `help:"Do not ask what to do when a goal is reached."`
}

func (c *DayCompleteCmd) Run(ctx *cli.Context) error {
	return step(ctx, c.Target, !c.NoPrompt, ctx.Tracker.Complete)
}

type DayUndoCmd struct {
	Target
}

func (c *DayUndoCmd) Run(ctx *cli.Context) error {
	return step(ctx, c.Target, false, ctx.Tracker.Uncomplete)
}

type DayIncCmd struct {
	Target
	NoPrompt bool `help:"Do not ask what to do when a goal is reached."`
}

func (c *DayIncCmd) Run(ctx *cli.Context) error {
	return step(ctx, c.Target, !c.NoPrompt, ctx.Tracker.Increment)
}

type DayDecCmd struct {
	Target
}

func (c *DayDecCmd) Run(ctx *cli.Context) error {
	return step(ctx, c.Target, false, ctx.Tracker.Decrement)
}

type DayResetCmd struct {
	Target
}

func (c *DayResetCmd) Run(ctx *cli.Context) error {
	return step(ctx, c.Target, false, ctx.Tracker.ResetDay)
}

type dayOp func(ctx context.Context, uid string, ref tracker.Ref, date string) (tracker.Result, error)

// step runs op and reports the day. A propagation failure still leaves the
// edited day written, so it is shown before the error is returned.
func step(ctx *cli.Context, t Target, prompt bool, op dayOp) error {
	uid, h, ref, err := t.habit(ctx)
	if err != nil {
		return err
	}
	date := t.date(ctx)
	res, err := op(context.Background(), uid, ref, date)
	var perr *errors.PropagationError
	if err != nil && !errors.As(err, &perr) {
		return err
	}

	if !res.Outcome.Changed() {
		ctx.Printf("%s on %s unchanged: %s\n", h.Name, date, cli.DescribeEntry(res.Habit.Log[date]))
	} else {
		ctx.Printf("%s on %s: %s\n", h.Name, date, cli.DescribeEntry(res.Habit.Log[date]))
		if n := len(res.Outcome.Propagated); n > 0 {
			ctx.Printf("Updated %d later day(s)\n", n)
		}
	}
	if perr != nil {
		return perr
	}
	return ctx.ResolveGoal(context.Background(), uid, ref, res, prompt)
}

type GoalCmd struct {
	Set GoalSetCmd `cmd:"" help:"Start a new goal cycle on a day."`
}

type GoalSetCmd struct {
	Target
	Goal   int     `help:"New goal, in days." required:""`
	Reward *string `help:"New reward (default: keep the current one)."`
}

func (c *GoalSetCmd) Run(ctx *cli.Context) error {
	uid, h, ref, err := c.habit(ctx)
	if err != nil {
		return err
	}
	reward := h.Reward
	if c.Reward != nil {
		reward = *c.Reward
	}
	date := c.date(ctx)
	res, err := ctx.Tracker.CommitNewGoal(context.Background(), uid, ref, date, c.Goal, reward)
	if err != nil {
		return err
	}
	ctx.Printf("New goal for %s from %s: %d days", h.Name, date, c.Goal)
	if reward != "" {
		ctx.Printf(" (reward: %s)", reward)
	}
	ctx.Printf("\nGoals achieved: %d\n", res.Habit.GoalsAchieved)
	return nil
}
