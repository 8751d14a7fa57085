package ledger

import (
	"github.com/julianstephens/habitkeeper/internal/errors"
	"github.com/julianstephens/habitkeeper/internal/models"
)

// Op selects the direction of an attempt adjustment.
type Op int

const (
	Increment Op = iota
	Decrement
)

func (o Op) String() string {
	if o == Decrement {
		return "decrement"
	}
	return "increment"
}

// ToggleComplete flips a single-attempt day. currentlyCompleted is the state
// the caller saw; the day becomes its negation. completed follows the flag
// so the day reads fully done or untouched.
func ToggleComplete(h *models.Habit, date string, currentlyCompleted bool, today string) (Outcome, error) {
	if err := checkNotFuture(date, today); err != nil {
		return Outcome{}, err
	}
	e, ps, err := mustEntry(h, date)
	if err != nil {
		return Outcome{}, err
	}

	out := Outcome{Date: date, Patches: ps}
	completed := 0
	if !currentlyCompleted {
		completed = e.Tries
	}
	if completed != e.Completed {
		step := models.Patches{{Date: date, Field: models.FieldCompleted, Value: completed}}
		if err := h.Apply(step); err != nil {
			return Outcome{}, err
		}
		out.Patches = append(out.Patches, step...)
	}
	return flip(h, date, !currentlyCompleted, today, out)
}

// flip sets isCompleted on an existing entry and carries the streak,
// totalDone, goal check and forward ripple with it.
func flip(h *models.Habit, date string, complete bool, today string, out Outcome) (Outcome, error) {
	e := h.Log[date]
	wasCompleted := e.IsCompleted

	streak := e.Streak + 1
	if !complete {
		streak = floorZero(e.Streak - 1)
	}
	if complete && e.Streak+1 == e.Goal {
		out.GoalReached = true
	}

	ps := models.Patches{
		{Date: date, Field: models.FieldIsCompleted, Value: complete},
		{Date: date, Field: models.FieldStreak, Value: streak},
	}
	if wasCompleted != complete {
		total := h.TotalDone + 1
		if !complete {
			total = floorZero(h.TotalDone - 1)
		}
		ps = append(ps, models.Patch{Field: models.FieldTotalDone, Value: total})
	}
	if err := h.Apply(ps); err != nil {
		return Outcome{}, err
	}
	out.Patches = append(out.Patches, ps...)

	if date != today {
		prop, err := Propagate(h, date, today, complete)
		if err != nil {
			return Outcome{}, err
		}
		out.Propagated = prop
	}
	return out, nil
}

// AdjustAttempts records or removes one sub-attempt on a multi-attempt day.
// Increments stop at tries. Crossing into or out of the fully done state runs
// the same streak logic as ToggleComplete.
func AdjustAttempts(h *models.Habit, date string, op Op, today string) (Outcome, error) {
	if err := checkNotFuture(date, today); err != nil {
		return Outcome{}, err
	}
	e, ps, err := mustEntry(h, date)
	if err != nil {
		return Outcome{}, err
	}
	out := Outcome{Date: date, Patches: ps}

	var completed int
	switch op {
	case Increment:
		if e.Completed >= e.Tries {
			return out, nil
		}
		completed = e.Completed + 1
	case Decrement:
		if e.Completed <= 0 {
			return out, nil
		}
		completed = e.Completed - 1
	default:
		return Outcome{}, errors.Invalid("unknown attempt operation %d", op)
	}

	step := models.Patches{{Date: date, Field: models.FieldCompleted, Value: completed}}
	if err := h.Apply(step); err != nil {
		return Outcome{}, err
	}
	out.Patches = append(out.Patches, step...)

	done := completed >= e.Tries
	if done != e.IsCompleted {
		return flip(h, date, done, today, out)
	}
	return out, nil
}

// SetTries changes the attempts needed on date. completed is clamped to the
// new tries, and when the day crosses into or out of the fully done state it
// runs the same streak logic as ToggleComplete.
func SetTries(h *models.Habit, date string, tries int, today string) (Outcome, error) {
	if tries <= 0 {
		return Outcome{}, errors.Invalid("tries must be a positive number")
	}
	if err := checkNotFuture(date, today); err != nil {
		return Outcome{}, err
	}
	e, ps, err := mustEntry(h, date)
	if err != nil {
		return Outcome{}, err
	}
	out := Outcome{Date: date, Patches: ps}
	if tries == e.Tries {
		return out, nil
	}

	step := models.Patches{{Date: date, Field: models.FieldTries, Value: tries}}
	completed := e.Completed
	if completed > tries {
		completed = tries
		step = append(step, models.Patch{Date: date, Field: models.FieldCompleted, Value: completed})
	}
	if err := h.Apply(step); err != nil {
		return Outcome{}, err
	}
	out.Patches = append(out.Patches, step...)

	done := completed >= tries
	if done != e.IsCompleted {
		return flip(h, date, done, today, out)
	}
	return out, nil
}

// ResetDay walks back the latest completion on date: streak and completed
// drop by one, the day is no longer complete, and totalDone gives back the
// day if it had been counted.
func ResetDay(h *models.Habit, date string, today string) (Outcome, error) {
	if err := checkNotFuture(date, today); err != nil {
		return Outcome{}, err
	}
	e, ps, err := mustEntry(h, date)
	if err != nil {
		return Outcome{}, err
	}
	wasCompleted := e.IsCompleted

	ps = append(ps,
		models.Patch{Date: date, Field: models.FieldStreak, Value: floorZero(e.Streak - 1)},
		models.Patch{Date: date, Field: models.FieldCompleted, Value: floorZero(e.Completed - 1)},
		models.Patch{Date: date, Field: models.FieldIsCompleted, Value: false},
	)
	if wasCompleted {
		ps = append(ps, models.Patch{Field: models.FieldTotalDone, Value: floorZero(h.TotalDone - 1)})
	}
	if err := h.Apply(ps); err != nil {
		return Outcome{}, err
	}
	out := Outcome{Date: date, Patches: ps}

	if wasCompleted && date != today {
		prop, err := Propagate(h, date, today, false)
		if err != nil {
			return Outcome{}, err
		}
		out.Propagated = prop
	}
	return out, nil
}

// CommitNewGoal starts a new streak cycle on date with a fresh goal and reward.
func CommitNewGoal(h *models.Habit, date string, newGoal int, newReward string, today string) (Outcome, error) {
	if newGoal <= 0 {
		return Outcome{}, errors.Invalid("goal must be a positive number")
	}
	if err := checkNotFuture(date, today); err != nil {
		return Outcome{}, err
	}
	_, ps, err := mustEntry(h, date)
	if err != nil {
		return Outcome{}, err
	}
	ps = append(ps,
		models.Patch{Date: date, Field: models.FieldGoal, Value: newGoal},
		models.Patch{Date: date, Field: models.FieldStreak, Value: 1},
		models.Patch{Date: date, Field: models.FieldIsCompleted, Value: true},
		models.Patch{Field: models.FieldReward, Value: newReward},
		models.Patch{Field: models.FieldGoalsAchieved, Value: h.GoalsAchieved + 1},
	)
	if err := h.Apply(ps); err != nil {
		return Outcome{}, err
	}
	return Outcome{Date: date, Patches: ps}, nil
}
