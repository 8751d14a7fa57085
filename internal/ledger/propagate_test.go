package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/habitkeeper/internal/models"
)

func TestPropagateUncompletion(t *testing.T) {
	h := newTestHabit(t, models.KindBuild, "2026-10-01", models.Log{
		"2026-10-01": {Completed: 1, IsCompleted: true, Tries: 1, Goal: 5, Streak: 1},
		"2026-10-02": {Completed: 1, IsCompleted: true, Tries: 1, Goal: 5, Streak: 2},
		"2026-10-03": {Completed: 1, IsCompleted: true, Tries: 1, Goal: 5, Streak: 3},
		"2026-10-04": {Completed: 1, IsCompleted: true, Tries: 1, Goal: 5, Streak: 4},
	})
	h.TotalDone = 4
	today := "2026-10-05"

	out, err := ToggleComplete(h, "2026-10-02", true, today)
	require.NoError(t, err)

	assert.False(t, h.Log["2026-10-02"].IsCompleted)
	assert.Equal(t, 1, h.Log["2026-10-02"].Streak)
	assert.Equal(t, 2, h.Log["2026-10-03"].Streak)
	assert.Equal(t, 3, h.Log["2026-10-04"].Streak)
	assert.Equal(t, models.LogEntry{Tries: 1, Goal: 5, Streak: 3}, h.Log[today])
	assert.Equal(t, 3, h.TotalDone)

	var dates []string
	for _, d := range out.Propagated {
		dates = append(dates, d.Date)
	}
	assert.Equal(t, []string{"2026-10-03", "2026-10-04", "2026-10-05"}, dates)
}

func TestPropagateCompletion(t *testing.T) {
	h := newTestHabit(t, models.KindBuild, "2026-10-01", models.Log{
		"2026-10-01": {Tries: 1, Goal: 5, Streak: 0},
		"2026-10-02": {Completed: 1, IsCompleted: true, Tries: 1, Goal: 5, Streak: 1},
	})

	_, err := ToggleComplete(h, "2026-10-01", false, "2026-10-03")
	require.NoError(t, err)

	assert.Equal(t, 1, h.Log["2026-10-01"].Streak)
	assert.Equal(t, 2, h.Log["2026-10-02"].Streak)
	assert.Equal(t, 2, h.Log["2026-10-03"].Streak)
}

func TestPropagateLeavesCappedAndBrokenDays(t *testing.T) {
	h := newTestHabit(t, models.KindBuild, "2026-10-01", models.Log{
		"2026-10-01": {Tries: 1, Goal: 3, Streak: 1},
		// already at its goal
		"2026-10-02": {Completed: 1, IsCompleted: true, Tries: 1, Goal: 3, Streak: 3},
		// below the previous day, a break
		"2026-10-03": {Tries: 1, Goal: 3, Streak: 0},
	})

	out, err := Propagate(h, "2026-10-01", "2026-10-03", true)
	require.NoError(t, err)

	assert.Empty(t, out)
	assert.Equal(t, 3, h.Log["2026-10-02"].Streak)
	assert.Equal(t, 0, h.Log["2026-10-03"].Streak)
}

func TestPropagateTodayIsNoop(t *testing.T) {
	h := newTestHabit(t, models.KindBuild, "2026-10-01", models.Log{"2026-10-01": {Tries: 1, Goal: 3}})

	out, err := Propagate(h, "2026-10-01", "2026-10-01", true)

	require.NoError(t, err)
	assert.Empty(t, out)
}
