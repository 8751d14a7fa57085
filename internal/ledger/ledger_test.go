package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/habitkeeper/internal/errors"
	"github.com/julianstephens/habitkeeper/internal/models"
)

func newTestHabit(t *testing.T, kind models.HabitKind, created string, log models.Log) *models.Habit {
	t.Helper()
	c, err := time.ParseInLocation("2006-01-02", created, time.Local)
	require.NoError(t, err)
	return &models.Habit{
		ID:        "h1",
		Kind:      kind,
		Name:      "Read",
		CreatedAt: c,
		Log:       log,
	}
}

func TestEnsureEntry(t *testing.T) {
	t.Run("existing entry is returned without patches", func(t *testing.T) {
		h := newTestHabit(t, models.KindBuild, "2026-10-01", models.Log{
			"2026-10-01": {Completed: 1, IsCompleted: true, Tries: 1, Goal: 5, Streak: 1},
		})

		first, ps1, ok1 := EnsureEntry(h, "2026-10-01")
		second, ps2, ok2 := EnsureEntry(h, "2026-10-01")

		require.True(t, ok1)
		require.True(t, ok2)
		assert.Empty(t, ps1)
		assert.Empty(t, ps2)
		assert.Equal(t, first, second)
		assert.Len(t, h.Log, 1)
	})

	t.Run("clones nearest prior entry across a gap", func(t *testing.T) {
		h := newTestHabit(t, models.KindBuild, "2026-10-01", models.Log{
			"2026-10-01": {Completed: 2, IsCompleted: true, Tries: 2, Goal: 10, Streak: 3},
		})

		e, ps, ok := EnsureEntry(h, "2026-10-05")

		require.True(t, ok)
		assert.Equal(t, models.LogEntry{Tries: 2, Goal: 10, Streak: 3}, e)
		assert.Equal(t, []string{"2026-10-05"}, ps.Dates())
		assert.Equal(t, e, h.Log["2026-10-05"])
		_, gap := h.Log["2026-10-03"]
		assert.False(t, gap, "intermediate days must not be materialized")

		_, again, _ := EnsureEntry(h, "2026-10-05")
		assert.Empty(t, again)
	})

	t.Run("dates before creation never materialize", func(t *testing.T) {
		h := newTestHabit(t, models.KindBuild, "2026-10-05", models.Log{
			"2026-10-05": {Tries: 1, Goal: 5},
		})

		_, ps, ok := EnsureEntry(h, "2026-10-04")

		assert.False(t, ok)
		assert.Empty(t, ps)
		assert.Len(t, h.Log, 1)
	})

	t.Run("empty log cannot materialize", func(t *testing.T) {
		h := newTestHabit(t, models.KindBuild, "2026-10-01", models.Log{})
		_, _, ok := EnsureEntry(h, "2026-10-02")
		assert.False(t, ok)
	})
}

func TestToggleComplete(t *testing.T) {
	today := "2026-10-14"

	t.Run("complete today", func(t *testing.T) {
		h := newTestHabit(t, models.KindBuild, today, models.Log{today: {Tries: 1, Goal: 5}})

		out, err := ToggleComplete(h, today, false, today)

		require.NoError(t, err)
		assert.Equal(t, models.LogEntry{Completed: 1, IsCompleted: true, Tries: 1, Goal: 5, Streak: 1}, h.Log[today])
		assert.Equal(t, 1, h.TotalDone)
		assert.Empty(t, out.Propagated)
		assert.False(t, out.GoalReached)
	})

	t.Run("undo never drives streak negative", func(t *testing.T) {
		h := newTestHabit(t, models.KindBuild, today, models.Log{today: {Completed: 1, IsCompleted: true, Tries: 1, Goal: 5, Streak: 0}})
		h.TotalDone = 1

		_, err := ToggleComplete(h, today, true, today)

		require.NoError(t, err)
		assert.Equal(t, 0, h.Log[today].Streak)
		assert.False(t, h.Log[today].IsCompleted)
		assert.Equal(t, 0, h.TotalDone)
	})

	t.Run("future dates are rejected", func(t *testing.T) {
		h := newTestHabit(t, models.KindBuild, today, models.Log{today: {Tries: 1, Goal: 5}})

		_, err := ToggleComplete(h, "2026-10-15", false, today)

		assert.ErrorIs(t, err, errors.ErrInvalidInput)
		assert.Len(t, h.Log, 1)
	})

	t.Run("dates before creation are rejected", func(t *testing.T) {
		h := newTestHabit(t, models.KindBuild, today, models.Log{today: {Tries: 1, Goal: 5}})

		_, err := ToggleComplete(h, "2026-10-01", false, today)

		assert.ErrorIs(t, err, errors.ErrInvalidInput)
	})

	t.Run("patches replay onto a fresh copy", func(t *testing.T) {
		h := newTestHabit(t, models.KindBuild, "2026-10-12", models.Log{"2026-10-12": {Tries: 1, Goal: 5}})
		before := h.Clone()

		out, err := ToggleComplete(h, "2026-10-12", false, today)
		require.NoError(t, err)

		require.NoError(t, before.Apply(out.Patches))
		for _, day := range out.Propagated {
			require.NoError(t, before.Apply(day.Patches))
		}
		assert.Equal(t, h.Log, before.Log)
		assert.Equal(t, h.TotalDone, before.TotalDone)
	})
}

func TestGoalReachedOnCompletion(t *testing.T) {
	today := "2026-10-14"
	tests := []struct {
		name   string
		streak int
		want   bool
	}{
		{name: "one short of goal", streak: 2, want: true},
		{name: "two short of goal", streak: 1, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHabit(t, models.KindBuild, "2026-10-01", models.Log{
				today: {Tries: 1, Goal: 3, Streak: tt.streak},
			})
			var g GoalDetector

			out, err := ToggleComplete(h, today, false, today)
			require.NoError(t, err)
			g.Observe(out)

			assert.Equal(t, tt.want, out.GoalReached)
			if tt.want {
				assert.Equal(t, GoalReached, g.State())
				assert.Equal(t, today, g.Date())
			} else {
				assert.Equal(t, InProgress, g.State())
			}
		})
	}

	t.Run("undo never reaches a goal", func(t *testing.T) {
		h := newTestHabit(t, models.KindBuild, today, models.Log{
			today: {Completed: 1, IsCompleted: true, Tries: 1, Goal: 3, Streak: 3},
		})
		out, err := ToggleComplete(h, today, true, today)
		require.NoError(t, err)
		assert.False(t, out.GoalReached)
	})

	t.Run("past date is checked against its own entry", func(t *testing.T) {
		h := newTestHabit(t, models.KindBuild, "2026-10-12", models.Log{
			"2026-10-12": {Tries: 1, Goal: 1, Streak: 0},
			today:        {Tries: 1, Goal: 10, Streak: 0},
		})
		out, err := ToggleComplete(h, "2026-10-12", false, today)
		require.NoError(t, err)
		assert.True(t, out.GoalReached)
		assert.Equal(t, "2026-10-12", out.Date)
	})
}

func TestAdjustAttempts(t *testing.T) {
	today := "2026-10-14"

	t.Run("reaching tries completes the day once", func(t *testing.T) {
		h := newTestHabit(t, models.KindBuild, today, models.Log{today: {Tries: 2, Goal: 5}})

		_, err := AdjustAttempts(h, today, Increment, today)
		require.NoError(t, err)
		assert.Equal(t, 1, h.Log[today].Completed)
		assert.False(t, h.Log[today].IsCompleted)
		assert.Equal(t, 0, h.TotalDone)

		_, err = AdjustAttempts(h, today, Increment, today)
		require.NoError(t, err)
		assert.Equal(t, models.LogEntry{Completed: 2, IsCompleted: true, Tries: 2, Goal: 5, Streak: 1}, h.Log[today])
		assert.Equal(t, 1, h.TotalDone)
	})

	t.Run("increment on a full day is a no-op", func(t *testing.T) {
		h := newTestHabit(t, models.KindBuild, today, models.Log{today: {Completed: 2, IsCompleted: true, Tries: 2, Goal: 5, Streak: 1}})
		h.TotalDone = 1

		out, err := AdjustAttempts(h, today, Increment, today)

		require.NoError(t, err)
		assert.False(t, out.Changed())
		assert.Equal(t, 2, h.Log[today].Completed)
		assert.Equal(t, 1, h.TotalDone)
	})

	t.Run("leaving the full state undoes the day", func(t *testing.T) {
		h := newTestHabit(t, models.KindBuild, today, models.Log{today: {Completed: 2, IsCompleted: true, Tries: 2, Goal: 5, Streak: 1}})
		h.TotalDone = 1

		_, err := AdjustAttempts(h, today, Decrement, today)

		require.NoError(t, err)
		assert.Equal(t, models.LogEntry{Completed: 1, IsCompleted: false, Tries: 2, Goal: 5, Streak: 0}, h.Log[today])
		assert.Equal(t, 0, h.TotalDone)
	})

	t.Run("decrement at zero is a no-op", func(t *testing.T) {
		h := newTestHabit(t, models.KindBuild, today, models.Log{today: {Tries: 3, Goal: 5}})

		out, err := AdjustAttempts(h, today, Decrement, today)

		require.NoError(t, err)
		assert.False(t, out.Changed())
		assert.Equal(t, 0, h.Log[today].Completed)
	})

	t.Run("increment materializes the day first", func(t *testing.T) {
		h := newTestHabit(t, models.KindBuild, "2026-10-10", models.Log{"2026-10-10": {Tries: 3, Goal: 5, Streak: 2}})

		out, err := AdjustAttempts(h, today, Increment, today)

		require.NoError(t, err)
		assert.Equal(t, models.LogEntry{Completed: 1, Tries: 3, Goal: 5, Streak: 2}, h.Log[today])
		assert.Equal(t, []string{today}, out.Patches.Dates())
	})
}

func TestSetTries(t *testing.T) {
	today := "2026-10-14"

	tests := []struct {
		name      string
		entry     models.LogEntry
		totalDone int
		tries     int
		want      models.LogEntry
		wantTotal int
		wantGoal  bool
	}{
		{
			name:      "raise on a done day reopens it",
			entry:     models.LogEntry{Completed: 1, IsCompleted: true, Tries: 1, Goal: 5, Streak: 1},
			totalDone: 1,
			tries:     3,
			want:      models.LogEntry{Completed: 1, Tries: 3, Goal: 5},
		},
		{
			name:  "raise on a partly done day keeps progress",
			entry: models.LogEntry{Completed: 1, Tries: 2, Goal: 5},
			tries: 4,
			want:  models.LogEntry{Completed: 1, Tries: 4, Goal: 5},
		},
		{
			name:      "lower to the progress completes the day",
			entry:     models.LogEntry{Completed: 2, Tries: 3, Goal: 5, Streak: 3},
			totalDone: 3,
			tries:     2,
			want:      models.LogEntry{Completed: 2, IsCompleted: true, Tries: 2, Goal: 5, Streak: 4},
			wantTotal: 4,
		},
		{
			name:      "lower on a done day clamps completed",
			entry:     models.LogEntry{Completed: 3, IsCompleted: true, Tries: 3, Goal: 5, Streak: 1},
			totalDone: 1,
			tries:     1,
			want:      models.LogEntry{Completed: 1, IsCompleted: true, Tries: 1, Goal: 5, Streak: 1},
			wantTotal: 1,
		},
		{
			name:      "completing through tries can reach the goal",
			entry:     models.LogEntry{Completed: 1, Tries: 2, Goal: 2, Streak: 1},
			totalDone: 1,
			tries:     1,
			want:      models.LogEntry{Completed: 1, IsCompleted: true, Tries: 1, Goal: 2, Streak: 2},
			wantTotal: 2,
			wantGoal:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHabit(t, models.KindBuild, today, models.Log{today: tt.entry})
			h.TotalDone = tt.totalDone

			out, err := SetTries(h, today, tt.tries, today)

			require.NoError(t, err)
			assert.Equal(t, tt.want, h.Log[today])
			assert.Equal(t, tt.wantTotal, h.TotalDone)
			assert.Equal(t, tt.wantGoal, out.GoalReached)
			assert.Equal(t, tt.want.IsCompleted, h.Log[today].Completed >= h.Log[today].Tries)
		})
	}

	t.Run("same tries writes nothing", func(t *testing.T) {
		h := newTestHabit(t, models.KindBuild, today, models.Log{today: {Tries: 2, Goal: 5}})
		out, err := SetTries(h, today, 2, today)
		require.NoError(t, err)
		assert.False(t, out.Changed())
	})

	t.Run("rejects zero tries", func(t *testing.T) {
		h := newTestHabit(t, models.KindBuild, today, models.Log{today: {Tries: 2, Goal: 5}})
		_, err := SetTries(h, today, 0, today)
		assert.ErrorIs(t, err, errors.ErrInvalidInput)
	})
}

func TestResetDay(t *testing.T) {
	today := "2026-10-14"

	t.Run("completed day gives back its count", func(t *testing.T) {
		h := newTestHabit(t, models.KindBuild, today, models.Log{today: {Completed: 1, IsCompleted: true, Tries: 1, Goal: 3, Streak: 3}})
		h.TotalDone = 4

		_, err := ResetDay(h, today, today)

		require.NoError(t, err)
		assert.Equal(t, models.LogEntry{Completed: 0, IsCompleted: false, Tries: 1, Goal: 3, Streak: 2}, h.Log[today])
		assert.Equal(t, 3, h.TotalDone)
	})

	t.Run("uncompleted day leaves totalDone alone", func(t *testing.T) {
		h := newTestHabit(t, models.KindBuild, today, models.Log{today: {Tries: 1, Goal: 3}})
		h.TotalDone = 2

		_, err := ResetDay(h, today, today)

		require.NoError(t, err)
		assert.Equal(t, 0, h.Log[today].Streak)
		assert.Equal(t, 2, h.TotalDone)
	})

	t.Run("past completed day ripples forward", func(t *testing.T) {
		h := newTestHabit(t, models.KindBuild, "2026-10-12", models.Log{
			"2026-10-12": {Completed: 1, IsCompleted: true, Tries: 1, Goal: 5, Streak: 1},
			"2026-10-13": {Completed: 1, IsCompleted: true, Tries: 1, Goal: 5, Streak: 2},
		})
		h.TotalDone = 2

		out, err := ResetDay(h, "2026-10-12", today)

		require.NoError(t, err)
		assert.Equal(t, 0, h.Log["2026-10-12"].Streak)
		assert.Equal(t, 1, h.Log["2026-10-13"].Streak)
		assert.Equal(t, 1, h.Log[today].Streak)
		assert.Len(t, out.Propagated, 2)
	})
}

func TestCommitNewGoal(t *testing.T) {
	today := "2026-10-14"
	h := newTestHabit(t, models.KindBuild, today, models.Log{today: {Completed: 1, IsCompleted: true, Tries: 1, Goal: 3, Streak: 3}})
	h.Reward = "coffee"

	_, err := CommitNewGoal(h, today, 7, "new book", today)

	require.NoError(t, err)
	assert.Equal(t, models.LogEntry{Completed: 1, IsCompleted: true, Tries: 1, Goal: 7, Streak: 1}, h.Log[today])
	assert.Equal(t, "new book", h.Reward)
	assert.Equal(t, 1, h.GoalsAchieved)

	_, err = CommitNewGoal(h, today, 0, "", today)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
	assert.Equal(t, 7, h.Log[today].Goal)
}
