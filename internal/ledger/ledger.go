// Package ledger holds the per-day progress rules of a habit: materializing
// days, completing and undoing them, rippling streaks forward, detecting
// reached goals and deriving statistics. Every function mutates the habit it
// is given and reports the field patches it applied; persisting them is the
// caller's job.
package ledger

import (
	"github.com/julianstephens/habitkeeper/internal/errors"
	"github.com/julianstephens/habitkeeper/internal/models"
)

// DayPatches is the set of patches written to one log date.
type DayPatches struct {
	Date    string
	Patches models.Patches
}

// Outcome describes the effect of one completion-affecting operation.
type Outcome struct {
	Date string
	// Patches holds the edited date's fields and any habit-level fields.
	Patches models.Patches
	// Propagated holds the forward days that changed, in ascending date order.
	Propagated []DayPatches
	// GoalReached is set when a completion brought the streak to the goal.
	GoalReached bool
}

// Changed reports whether the operation wrote anything.
func (o Outcome) Changed() bool {
	return len(o.Patches) > 0 || len(o.Propagated) > 0
}

// EnsureEntry returns the entry for date, materializing it from the most
// recent earlier entry when missing. ok is false when no entry exists and
// none can be cloned, which includes every date before the habit was created.
func EnsureEntry(h *models.Habit, date string) (models.LogEntry, models.Patches, bool) {
	if date < h.CreatedDay() {
		return models.LogEntry{}, nil, false
	}
	if e, ok := h.Log[date]; ok {
		return e, nil, true
	}

	source := ""
	for d := range h.Log {
		if d < date && d > source {
			source = d
		}
	}
	if source == "" {
		return models.LogEntry{}, nil, false
	}

	e := cloneEntry(h.Log[source])
	ps := models.EntryPatches(date, e)
	if h.Log == nil {
		h.Log = make(models.Log)
	}
	h.Log[date] = e
	return e, ps, true
}

// cloneEntry carries streak, goal and tries into a fresh, unattempted day.
func cloneEntry(src models.LogEntry) models.LogEntry {
	return models.LogEntry{
		Tries:  src.Tries,
		Goal:   src.Goal,
		Streak: src.Streak,
	}
}

func mustEntry(h *models.Habit, date string) (models.LogEntry, models.Patches, error) {
	e, ps, ok := EnsureEntry(h, date)
	if !ok {
		return models.LogEntry{}, nil, errors.Invalid("habit %q has no entry on or before %s", h.Name, date)
	}
	return e, ps, nil
}

func checkNotFuture(date, today string) error {
	if date > today {
		return errors.Invalid("date %s is after today (%s)", date, today)
	}
	return nil
}

func floorZero(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
