package tracker

import (
	"context"

	"github.com/julianstephens/habitkeeper/internal/errors"
	"github.com/julianstephens/habitkeeper/internal/ledger"
	"github.com/julianstephens/habitkeeper/internal/logger"
	"github.com/julianstephens/habitkeeper/internal/models"
	"github.com/julianstephens/habitkeeper/internal/storage"
	"github.com/julianstephens/habitkeeper/internal/validation"
)

type operation func(h *models.Habit, date, today string) (ledger.Outcome, error)

// mutate loads the habit, runs op on it and writes the result: the edited
// date and habit fields in one partial update, then one update per
// propagated date in ascending order. A failed propagated date is logged and
// reported in a PropagationError; the other dates are still written.
func (t *Tracker) mutate(ctx context.Context, uid string, ref Ref, date string, op operation) (Result, error) {
	if err := requireUID(uid); err != nil {
		return Result{}, err
	}
	today := t.Today()
	if date == "" {
		date = today
	}
	if err := validation.ValidateDay(date, today); err != nil {
		return Result{}, err
	}

	h, err := t.load(ctx, uid, ref)
	if err != nil {
		return Result{}, err
	}
	out, err := op(&h, date, today)
	if err != nil {
		return Result{}, err
	}

	doc := collection(uid, ref.Kind).Doc(ref.ID)
	if len(out.Patches) > 0 {
		if err := t.store.UpdatePartial(ctx, doc, storage.PatchUpdates(out.Patches)); err != nil {
			return Result{}, errors.Storage("update", err)
		}
	}

	var failed map[string]error
	written := 0
	for _, day := range out.Propagated {
		if err := t.store.UpdatePartial(ctx, doc, storage.PatchUpdates(day.Patches)); err != nil {
			logger.Error("Failed to propagate streak", "habit", ref.ID, "date", day.Date, "error", err)
			if failed == nil {
				failed = make(map[string]error)
			}
			failed[day.Date] = err
			continue
		}
		written++
	}
	if t.metrics != nil && written > 0 {
		t.metrics.PropagatedDays.Add(float64(written))
	}

	res := Result{Habit: h, Outcome: out}
	if failed != nil {
		return res, &errors.PropagationError{Failed: failed}
	}
	if out.Changed() {
		logger.Debug("Updated habit day", "habit", ref.ID, "date", date, "propagated", written, "goalReached", out.GoalReached)
	}
	return res, nil
}

// SelectDay materializes date if needed. ok is false when the habit has no
// entry to clone from, such as a date before it was created.
func (t *Tracker) SelectDay(ctx context.Context, uid string, ref Ref, date string) (models.LogEntry, bool, error) {
	var entry models.LogEntry
	var ok bool
	_, err := t.mutate(ctx, uid, ref, date, func(h *models.Habit, date, today string) (ledger.Outcome, error) {
		var ps models.Patches
		entry, ps, ok = ledger.EnsureEntry(h, date)
		return ledger.Outcome{Date: date, Patches: ps}, nil
	})
	return entry, ok, err
}

// peek returns the entry date would have without touching h.
func peek(h *models.Habit, date string) (models.LogEntry, bool) {
	c := h.Clone()
	e, _, ok := ledger.EnsureEntry(&c, date)
	return e, ok
}

// Complete marks one more success on date: the whole day for single-attempt
// days, one attempt otherwise. Completing a finished day changes nothing.
func (t *Tracker) Complete(ctx context.Context, uid string, ref Ref, date string) (Result, error) {
	return t.mutate(ctx, uid, ref, date, func(h *models.Habit, date, today string) (ledger.Outcome, error) {
		e, ok := peek(h, date)
		switch {
		case ok && e.Tries > 1:
			return ledger.AdjustAttempts(h, date, ledger.Increment, today)
		case ok && e.IsCompleted:
			return ledger.Outcome{Date: date}, nil
		}
		return ledger.ToggleComplete(h, date, false, today)
	})
}

// Uncomplete removes one success from date. An untouched day changes nothing.
func (t *Tracker) Uncomplete(ctx context.Context, uid string, ref Ref, date string) (Result, error) {
	return t.mutate(ctx, uid, ref, date, func(h *models.Habit, date, today string) (ledger.Outcome, error) {
		e, ok := peek(h, date)
		switch {
		case ok && e.Tries > 1:
			return ledger.AdjustAttempts(h, date, ledger.Decrement, today)
		case ok && !e.IsCompleted:
			return ledger.Outcome{Date: date}, nil
		}
		return ledger.ToggleComplete(h, date, true, today)
	})
}

// Toggle flips a day from the state the caller last saw.
func (t *Tracker) Toggle(ctx context.Context, uid string, ref Ref, date string, currentlyCompleted bool) (Result, error) {
	return t.mutate(ctx, uid, ref, date, func(h *models.Habit, date, today string) (ledger.Outcome, error) {
		return ledger.ToggleComplete(h, date, currentlyCompleted, today)
	})
}

func (t *Tracker) Increment(ctx context.Context, uid string, ref Ref, date string) (Result, error) {
	return t.adjust(ctx, uid, ref, date, ledger.Increment)
}

func (t *Tracker) Decrement(ctx context.Context, uid string, ref Ref, date string) (Result, error) {
	return t.adjust(ctx, uid, ref, date, ledger.Decrement)
}

func (t *Tracker) adjust(ctx context.Context, uid string, ref Ref, date string, op ledger.Op) (Result, error) {
	return t.mutate(ctx, uid, ref, date, func(h *models.Habit, date, today string) (ledger.Outcome, error) {
		return ledger.AdjustAttempts(h, date, op, today)
	})
}

func (t *Tracker) ResetDay(ctx context.Context, uid string, ref Ref, date string) (Result, error) {
	return t.mutate(ctx, uid, ref, date, func(h *models.Habit, date, today string) (ledger.Outcome, error) {
		return ledger.ResetDay(h, date, today)
	})
}

// CommitNewGoal resolves a reached goal by starting a new cycle on date.
func (t *Tracker) CommitNewGoal(ctx context.Context, uid string, ref Ref, date string, goal int, reward string) (Result, error) {
	if err := validation.ValidateGoal(goal); err != nil {
		return Result{}, err
	}
	return t.mutate(ctx, uid, ref, date, func(h *models.Habit, date, today string) (ledger.Outcome, error) {
		return ledger.CommitNewGoal(h, date, goal, reward, today)
	})
}
