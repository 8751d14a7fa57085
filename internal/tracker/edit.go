package tracker

import (
	"context"
	"strings"
	"time"

	"github.com/julianstephens/habitkeeper/internal/errors"
	"github.com/julianstephens/habitkeeper/internal/ledger"
	"github.com/julianstephens/habitkeeper/internal/logger"
	"github.com/julianstephens/habitkeeper/internal/models"
	"github.com/julianstephens/habitkeeper/internal/storage"
	"github.com/julianstephens/habitkeeper/internal/validation"
)

// EditInput lists the fields to change. Nil fields are left alone and a
// zero Duration clears the duration.
// Goal and Tries apply to today's entry only, so past days keep the targets
// they were tracked against.
type EditInput struct {
	Name     *string
	Reward   *string
	Goal     *int
	Tries    *int
	Times    *[]time.Time
	Duration *models.Duration
}

func (in EditInput) empty() bool {
	return in.Name == nil && in.Reward == nil && in.Goal == nil && in.Tries == nil &&
		in.Times == nil && in.Duration == nil
}

// EditHabit rewrites habit fields and today's goal and tries. A tries change
// that completes or reopens today is reported in the Outcome, including a
// reached goal.
func (t *Tracker) EditHabit(ctx context.Context, uid string, ref Ref, in EditInput) (Result, error) {
	if err := requireUID(uid); err != nil {
		return Result{}, err
	}
	h, err := t.load(ctx, uid, ref)
	if err != nil {
		return Result{}, err
	}
	if in.empty() {
		return Result{Habit: h}, nil
	}

	today := t.Today()
	entry, ps, ok := ledger.EnsureEntry(&h, today)
	if !ok {
		return Result{}, errors.Invalid("habit %q has no entry to edit", h.Name)
	}

	check := validation.HabitInput{
		Name:  h.Name,
		Goal:  entry.Goal,
		Tries: entry.Tries,
		Times: h.Times,
	}
	if in.Duration != nil && !in.Duration.IsZero() {
		check.Duration = in.Duration
	}
	if in.Name != nil {
		check.Name = strings.TrimSpace(*in.Name)
	}
	if in.Goal != nil {
		check.Goal = *in.Goal
	}
	if in.Tries != nil {
		check.Tries = *in.Tries
	}
	if in.Times != nil {
		check.Times = *in.Times
	} else if in.Tries != nil && len(h.Times) > 0 && len(h.Times) != check.Tries {
		// Changing tries drops reminder times that no longer line up.
		check.Times = nil
		in.Times = &check.Times
	}
	if err := validation.ValidateHabit(check).Err(); err != nil {
		return Result{}, err
	}

	if in.Name != nil {
		ps = append(ps, models.Patch{Field: models.FieldName, Value: check.Name})
	}
	if in.Reward != nil {
		ps = append(ps, models.Patch{Field: models.FieldReward, Value: *in.Reward})
	}
	if in.Times != nil {
		ps = append(ps, models.Patch{Field: models.FieldTimes, Value: append([]time.Time(nil), (*in.Times)...)})
	}
	if in.Duration != nil {
		var d *models.Duration
		if !in.Duration.IsZero() {
			v := *in.Duration
			d = &v
		}
		ps = append(ps, models.Patch{Field: models.FieldDuration, Value: d})
	}
	if in.Goal != nil {
		ps = append(ps, models.Patch{Date: today, Field: models.FieldGoal, Value: check.Goal})
	}
	if err := h.Apply(ps); err != nil {
		return Result{}, err
	}

	out := ledger.Outcome{Date: today}
	if in.Tries != nil {
		out, err = ledger.SetTries(&h, today, check.Tries, today)
		if err != nil {
			return Result{}, err
		}
	}
	ps = append(ps, out.Patches...)
	out.Patches = ps

	doc := collection(uid, ref.Kind).Doc(ref.ID)
	if err := t.store.UpdatePartial(ctx, doc, storage.PatchUpdates(ps)); err != nil {
		return Result{}, errors.Storage("update", err)
	}
	logger.Info("Edited habit", "id", ref.ID, "fields", len(ps), "goal_reached", out.GoalReached)
	return Result{Habit: h, Outcome: out}, nil
}
