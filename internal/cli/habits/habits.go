package habits

import (
	"context"
	"fmt"

	"github.com/julianstephens/habitkeeper/internal/cli"
	"github.com/julianstephens/habitkeeper/internal/ledger"
	"github.com/julianstephens/habitkeeper/internal/models"
	"github.com/julianstephens/habitkeeper/internal/tracker"
	"github.com/julianstephens/habitkeeper/internal/utils"
	"github.com/julianstephens/habitkeeper/internal/validation"
)

type HabitCmd struct {
	Add  HabitAddCmd  `cmd:"" help:"Add a new habit."`
	Edit HabitEditCmd `cmd:"" help:"Edit a habit's settings and today's goal and tries."`
	List HabitListCmd `cmd:"" help:"List habits."`
	Show HabitShowCmd `cmd:"" help:"Show habit statistics."`
	Log  HabitLogCmd  `cmd:"" help:"Show habit log (ASCII history)."`
}

type HabitAddCmd struct {
	Name     string `arg:"" help:"Habit name."`
	Kind     string `help:"build (do it) or destroy (avoid it)." enum:"build,destroy" default:"build"`
	Goal     int    `help:"Streak length to aim for, in days." required:""`
	Tries    int    `help:"Attempts needed for a day to count." default:"1"`
	Reward   string `help:"Reward for reaching the goal."`
	Times    string `help:"Reminder times as HH:MM, one per try (e.g. 08:00,20:00)."`
	Duration string `help:"How long each attempt takes (e.g. 30m)."`
}

func (c *HabitAddCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	uid, err := ctx.UID(bg)
	if err != nil {
		return err
	}
	kind, err := models.ParseHabitKind(c.Kind)
	if err != nil {
		return err
	}
	times, err := cli.ParseTimes(c.Times, ctx.Tracker.Now())
	if err != nil {
		return err
	}
	duration, err := cli.ParseDuration(c.Duration)
	if err != nil {
		return err
	}

	// Names resolve habits on the command line, so keep them unique.
	if _, err := ctx.Tracker.Resolve(bg, uid, c.Name, ""); err == nil {
		return fmt.Errorf("habit with name %q already exists", c.Name)
	}

	h, err := ctx.Tracker.CreateHabit(bg, uid, tracker.CreateHabitInput{
		HabitInput: validation.HabitInput{
			Name:     c.Name,
			Goal:     c.Goal,
			Tries:    c.Tries,
			Times:    times,
			Duration: duration,
		},
		Kind:   kind,
		Reward: c.Reward,
	})
	if err != nil {
		return err
	}
	ctx.Printf("Added %s habit: %s (%s)\n", cli.KindLabel(kind), h.Name, h.ID)
	return nil
}

type HabitEditCmd struct {
	Ref      string  `arg:"" help:"Habit id or name."`
	Name     *string `help:"New name."`
	Goal     *int    `help:"Today's goal."`
	Tries    *int    `help:"Today's attempts needed."`
	Reward   *string `help:"New reward."`
	Times    *string `help:"Reminder times as HH:MM; empty clears them."`
	Duration *string `help:"Attempt duration; 0s clears it."`
}

func (c *HabitEditCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	uid, h, ref, err := ctx.Habit(bg, c.Ref, "")
	if err != nil {
		return err
	}

	in := tracker.EditInput{Name: c.Name, Goal: c.Goal, Tries: c.Tries, Reward: c.Reward}
	if c.Times != nil {
		times, err := cli.ParseTimes(*c.Times, ctx.Tracker.Now())
		if err != nil {
			return err
		}
		in.Times = &times
	}
	if c.Duration != nil {
		d, err := cli.ParseDuration(*c.Duration)
		if err != nil {
			return err
		}
		if d == nil {
			d = &models.Duration{}
		}
		in.Duration = d
	}

	res, err := ctx.Tracker.EditHabit(bg, uid, ref, in)
	if err != nil {
		return err
	}
	if res.Habit.Name != h.Name {
		ctx.Printf("Renamed %q to %q\n", h.Name, res.Habit.Name)
	}
	ctx.Printf("Updated habit: %s\n", res.Habit.Name)
	return ctx.ResolveGoal(bg, uid, ref, res, false)
}

type HabitListCmd struct {
	Kind string `help:"Only list build or destroy habits."`
}

func (c *HabitListCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	uid, err := ctx.UID(bg)
	if err != nil {
		return err
	}
	kind, err := cli.ParseKind(c.Kind)
	if err != nil {
		return err
	}

	today := ctx.Tracker.Today()
	total := 0
	for _, k := range cli.Kinds(kind) {
		habits, err := ctx.Tracker.ListHabits(bg, uid, k)
		if err != nil {
			return err
		}
		if len(habits) == 0 {
			continue
		}
		ctx.Printf("%s habits:\n", cli.KindTitle(k))
		for _, h := range habits {
			e, ok := h.Entry(today)
			if !ok {
				ctx.Printf("  %s %-24s %s\n", cli.EntryMark(h, e, ok), h.Name, h.ID)
				continue
			}
			ctx.Printf("  %s %-24s streak %d/%d  %s\n", cli.EntryMark(h, e, ok), h.Name, e.Streak, e.Goal, h.ID)
		}
		total += len(habits)
	}
	if total == 0 {
		ctx.Println("No habits found.")
	}
	return nil
}

type HabitShowCmd struct {
	Ref string `arg:"" help:"Habit id or name."`
}

func (c *HabitShowCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	uid, h, ref, err := ctx.Habit(bg, c.Ref, "")
	if err != nil {
		return err
	}
	stats, err := ctx.Tracker.Stats(bg, uid, ref)
	if err != nil {
		return err
	}

	ctx.Printf("%s (%s habit)\n", h.Name, cli.KindLabel(h.Kind))
	if h.Reward != "" {
		ctx.Printf("Reward: %s\n", h.Reward)
	}
	if h.Duration != nil {
		ctx.Printf("Duration: %s\n", h.Duration)
	}
	if len(h.Times) > 0 {
		ctx.Printf("Reminders: %s\n", utils.FormatClockTimes(h.Times, ctx.Tracker.Location()))
	}
	ctx.Printf("Created: %s\n\n", h.CreatedDay())
	printCards(ctx, stats)
	return nil
}

func printCards(ctx *cli.Context, s ledger.Stats) {
	cards := s.Cards()
	width := 0
	for _, card := range cards {
		if len(card.Label) > width {
			width = len(card.Label)
		}
	}
	for _, card := range cards {
		ctx.Printf("  %-*s  %s\n", width, card.Label, card.Value)
	}
}

type HabitLogCmd struct {
	Ref  string `arg:"" optional:"" help:"Habit id or name; all habits when omitted."`
	Days int    `help:"Number of days to show." default:"14"`
}

func (c *HabitLogCmd) Run(ctx *cli.Context) error {
	if c.Days <= 0 {
		return fmt.Errorf("days must be positive")
	}
	bg := context.Background()
	uid, err := ctx.UID(bg)
	if err != nil {
		return err
	}

	var habits []models.Habit
	if c.Ref != "" {
		_, h, _, err := ctx.Habit(bg, c.Ref, "")
		if err != nil {
			return err
		}
		habits = []models.Habit{h}
	} else {
		for _, k := range cli.Kinds("") {
			hs, err := ctx.Tracker.ListHabits(bg, uid, k)
			if err != nil {
				return err
			}
			habits = append(habits, hs...)
		}
	}
	if len(habits) == 0 {
		ctx.Println("No habits found.")
		return nil
	}

	today := ctx.Tracker.Today()
	start, err := utils.AddDays(today, -c.Days)
	if err != nil {
		return err
	}
	days, err := utils.DaysBetween(start, today)
	if err != nil {
		return err
	}

	nameWidth := 0
	for _, h := range habits {
		if len(h.Name) > nameWidth {
			nameWidth = len(h.Name)
		}
	}

	// Header: day of month for each column
	ctx.Printf("%-*s  ", nameWidth, "")
	for _, d := range days {
		ctx.Printf("%s ", d[len(d)-2:])
	}
	ctx.Println()
	for _, h := range habits {
		ctx.Printf("%-*s  ", nameWidth, h.Name)
		for _, d := range days {
			e, ok := h.Entry(d)
			ctx.Printf("%2s ", cli.EntryMark(h, e, ok))
		}
		ctx.Println()
	}
	ctx.Printf("\n✓ done  ~ partial  ○ open  x slipped  · untracked   (last %d days to %s)\n", c.Days, today)
	return nil
}
