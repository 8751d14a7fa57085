package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"

	"github.com/julianstephens/habitkeeper/internal/errors"
	"github.com/julianstephens/habitkeeper/internal/ledger"
	"github.com/julianstephens/habitkeeper/internal/tracker"
)

const (
	GoalChoiceNew   = "new"
	GoalChoiceReset = "reset"
	GoalChoiceLater = "later"
)

// GoalForm holds the answers of the goal-reached prompt.
type GoalForm struct {
	Choice string
	Goal   string
	Reward string
}

// NewGoalForm asks whether to start a new goal or reset the streak.
func NewGoalForm(habit string, fm *GoalForm) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(fmt.Sprintf("🎉 %s reached its goal!", habit)).
				Options(
					huh.NewOption("Set a new goal", GoalChoiceNew),
					huh.NewOption("Reset the streak", GoalChoiceReset),
					huh.NewOption("Decide later", GoalChoiceLater),
				).
				Value(&fm.Choice),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("New goal (days)").
				Value(&fm.Goal).
				Validate(ValidateGoalInput),
			huh.NewInput().
				Title("Reward").
				Value(&fm.Reward),
		).WithHideFunc(func() bool { return fm.Choice != GoalChoiceNew }),
	)
}

// ValidateGoalInput checks a goal typed into a form.
func ValidateGoalInput(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("goal must be a number")
	}
	if n <= 0 {
		return fmt.Errorf("goal must be a positive number")
	}
	return nil
}

// Interactive reports whether prompts can be shown.
func Interactive() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
}

// ResolveGoal drives the goal-reached cycle after a completion. With a
// terminal it asks what to do; otherwise it prints how to continue.
func (c *Context) ResolveGoal(ctx context.Context, uid string, ref tracker.Ref, res tracker.Result, prompt bool) error {
	var det ledger.GoalDetector
	det.Observe(res.Outcome)
	if det.State() != ledger.GoalReached {
		return nil
	}
	date := det.Date()

	if !prompt || !Interactive() {
		c.Printf("🎉 Goal reached for %s on %s!\n", res.Habit.Name, date)
		c.Printf("   Set a new goal with: habitkeeper goal set %s --goal N --date %s\n", ref.ID, date)
		c.Printf("   Or reset the streak with: habitkeeper day reset %s --date %s\n", ref.ID, date)
		return nil
	}

	fm := &GoalForm{Choice: GoalChoiceNew, Reward: res.Habit.Reward}
	if err := NewGoalForm(res.Habit.Name, fm).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return nil
		}
		return err
	}

	switch fm.Choice {
	case GoalChoiceNew:
		goal, _ := strconv.Atoi(strings.TrimSpace(fm.Goal))
		if err := det.CommitNewGoal(); err != nil {
			return err
		}
		if _, err := c.Tracker.CommitNewGoal(ctx, uid, ref, date, goal, fm.Reward); err != nil {
			return err
		}
		c.Printf("New goal set: %d days (reward: %s)\n", goal, fm.Reward)
	case GoalChoiceReset:
		if err := det.Reset(); err != nil {
			return err
		}
		if _, err := c.Tracker.ResetDay(ctx, uid, ref, date); err != nil {
			return err
		}
		c.Println("Streak reset.")
	}
	return nil
}
