package ledger

import (
	"github.com/julianstephens/habitkeeper/internal/models"
	"github.com/julianstephens/habitkeeper/internal/utils"
)

// Propagate ripples an edit on editedDate forward through today. Missing
// days are cloned from the day before them. An existing day moves by one in
// the edit's direction when its streak is at least the previous day's and
// still below its goal; anything else already reflects a break or a cap.
// Days are visited in ascending order since each depends on the one before.
func Propagate(h *models.Habit, editedDate, today string, completed bool) ([]DayPatches, error) {
	days, err := utils.DaysBetween(editedDate, today)
	if err != nil {
		return nil, err
	}

	var out []DayPatches
	prev := editedDate
	for _, d := range days {
		prevStreak := h.Log[prev].Streak

		e, exists := h.Log[d]
		var ps models.Patches
		switch {
		case !exists:
			ps = models.EntryPatches(d, cloneEntry(h.Log[prev]))
		case e.Streak >= prevStreak && e.Streak < e.Goal:
			streak := e.Streak + 1
			if !completed {
				streak = floorZero(e.Streak - 1)
			}
			if streak != e.Streak {
				ps = models.Patches{{Date: d, Field: models.FieldStreak, Value: streak}}
			}
		}

		if len(ps) > 0 {
			if err := h.Apply(ps); err != nil {
				return nil, err
			}
			out = append(out, DayPatches{Date: d, Patches: ps})
		}
		prev = d
	}
	return out, nil
}
