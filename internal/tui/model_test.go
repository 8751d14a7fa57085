package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/habitkeeper/internal/cli"
	"github.com/julianstephens/habitkeeper/internal/errors"
	"github.com/julianstephens/habitkeeper/internal/models"
	"github.com/julianstephens/habitkeeper/internal/storage/memory"
	"github.com/julianstephens/habitkeeper/internal/tracker"
	"github.com/julianstephens/habitkeeper/internal/validation"
)

const uid = "user-1"

func setupTestTracker(t *testing.T) (*tracker.Tracker, *tracker.FakeClock) {
	t.Helper()
	clock := tracker.NewFakeClock(time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC))
	return tracker.New(memory.New(), tracker.WithClock(clock), tracker.WithLocation(time.UTC)), clock
}

func createHabit(t *testing.T, tr *tracker.Tracker, name string, kind models.HabitKind, goal, tries int) models.Habit {
	t.Helper()
	h, err := tr.CreateHabit(context.Background(), uid, tracker.CreateHabitInput{
		HabitInput: validation.HabitInput{Name: name, Goal: goal, Tries: tries},
		Kind:       kind,
		Reward:     "tea",
	})
	require.NoError(t, err)
	return h
}

// settle runs cmd and every command it leads to, stopping once the goal
// form takes over.
func settle(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for i := 0; len(queue) > 0; i++ {
		require.Less(t, i, 100, "model did not settle")
		next := queue[0]
		queue = queue[1:]
		if next == nil || m.state == StateGoal {
			continue
		}
		msg := next()
		if batch, ok := msg.(tea.BatchMsg); ok {
			queue = append(queue, batch...)
			continue
		}
		model, c := m.Update(msg)
		m = model.(Model)
		queue = append(queue, c)
	}
	return m
}

func press(t *testing.T, m Model, k tea.KeyMsg) Model {
	t.Helper()
	model, cmd := m.Update(k)
	return settle(t, model.(Model), cmd)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func startModel(t *testing.T, tr *tracker.Tracker) Model {
	t.Helper()
	m := NewModel(context.Background(), tr, uid)
	model, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m = model.(Model)
	return settle(t, m, m.Init())
}

func TestInitLoadsHabits(t *testing.T) {
	tr, _ := setupTestTracker(t)
	createHabit(t, tr, "Read", models.KindBuild, 5, 1)
	createHabit(t, tr, "Smoke", models.KindDestroy, 5, 1)

	m := startModel(t, tr)
	assert.Len(t, m.habits[models.KindBuild], 1)
	assert.Len(t, m.habits[models.KindDestroy], 1)

	it, ok := m.selected()
	require.True(t, ok)
	assert.Equal(t, "Read", it.Habit.Name)
	assert.True(t, it.Tracked)
	assert.Contains(t, m.View(), "Today · 2026-10-01")
}

func TestToggleCompletesSelectedHabit(t *testing.T) {
	tr, _ := setupTestTracker(t)
	h := createHabit(t, tr, "Read", models.KindBuild, 5, 1)
	m := startModel(t, tr)

	m = press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	require.NoError(t, m.err)

	e, ok, err := tr.SelectDay(context.Background(), uid, tracker.Ref{Kind: models.KindBuild, ID: h.ID}, "")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, e.IsCompleted)
	assert.Equal(t, 1, e.Streak)

	it, _ := m.selected()
	assert.True(t, it.Entry.IsCompleted)

	m = press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	it, _ = m.selected()
	assert.False(t, it.Entry.IsCompleted)
	assert.Equal(t, 0, it.Entry.Streak)
}

func TestAttemptKeys(t *testing.T) {
	tr, _ := setupTestTracker(t)
	createHabit(t, tr, "Water", models.KindBuild, 5, 3)
	m := startModel(t, tr)

	m = press(t, m, runes("+"))
	m = press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	it, _ := m.selected()
	assert.Equal(t, 2, it.Entry.Completed)
	assert.False(t, it.Entry.IsCompleted)

	m = press(t, m, runes("-"))
	it, _ = m.selected()
	assert.Equal(t, 1, it.Entry.Completed)

	m = press(t, m, runes("r"))
	it, _ = m.selected()
	assert.Equal(t, 0, it.Entry.Completed)
}

func TestDateNavigation(t *testing.T) {
	tr, clock := setupTestTracker(t)
	createHabit(t, tr, "Read", models.KindBuild, 5, 1)
	clock.AdvanceDays(1)
	m := startModel(t, tr)
	assert.Equal(t, "2026-10-02", m.date)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, "2026-10-01", m.date)
	it, _ := m.selected()
	assert.True(t, it.Tracked)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, "2026-09-30", m.date)
	it, _ = m.selected()
	assert.False(t, it.Tracked)
	assert.Equal(t, "not tracked on this day", it.Description())

	m = press(t, m, runes("t"))
	assert.Equal(t, "2026-10-02", m.date)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, "2026-10-02", m.date)
	assert.Equal(t, "Already on today", m.status)
}

func TestPastToggleUpdatesLaterDays(t *testing.T) {
	tr, clock := setupTestTracker(t)
	h := createHabit(t, tr, "Read", models.KindBuild, 5, 1)
	clock.AdvanceDays(1)
	m := startModel(t, tr)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	m = press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	require.NoError(t, m.err)

	e, _, err := tr.SelectDay(context.Background(), uid, tracker.Ref{Kind: models.KindBuild, ID: h.ID}, "2026-10-02")
	require.NoError(t, err)
	assert.Equal(t, 1, e.Streak)
}

func TestTabSwitchesKind(t *testing.T) {
	tr, _ := setupTestTracker(t)
	createHabit(t, tr, "Read", models.KindBuild, 5, 1)
	createHabit(t, tr, "Smoke", models.KindDestroy, 5, 1)
	m := startModel(t, tr)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, models.KindDestroy, m.kind)
	it, ok := m.selected()
	require.True(t, ok)
	assert.Equal(t, "Smoke", it.Habit.Name)

	m = press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	it, _ = m.selected()
	assert.True(t, strings.HasPrefix(it.Title(), "x "))
}

func TestStaleSnapshotDropped(t *testing.T) {
	tr, _ := setupTestTracker(t)
	h := createHabit(t, tr, "Read", models.KindBuild, 5, 1)
	m := NewModel(context.Background(), tr, uid)

	model, _ := m.Update(SnapshotMsg{Kind: models.KindBuild, Seq: 5, Habits: []models.Habit{h}})
	m = model.(Model)
	model, _ = m.Update(SnapshotMsg{Kind: models.KindBuild, Seq: 3})
	m = model.(Model)

	assert.Len(t, m.habits[models.KindBuild], 1)
	assert.Equal(t, uint64(5), m.seq[models.KindBuild])
}

func TestGoalReachedOpensForm(t *testing.T) {
	tr, _ := setupTestTracker(t)
	h := createHabit(t, tr, "Read", models.KindBuild, 1, 1)
	m := startModel(t, tr)

	m = press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	require.Equal(t, StateGoal, m.state)
	require.NotNil(t, m.goal)
	assert.Equal(t, "2026-10-01", m.goal.det.Date())
	assert.Equal(t, "tea", m.goalForm.Reward)

	m.goalForm.Choice = cli.GoalChoiceNew
	m.goalForm.Goal = "7"
	m.goalForm.Reward = "book"
	model, cmd := m.resolveGoal()
	m = settle(t, model.(Model), cmd)
	assert.Equal(t, StateHabits, m.state)
	require.NoError(t, m.err)

	stored, err := tr.GetHabit(context.Background(), uid, tracker.Ref{Kind: models.KindBuild, ID: h.ID})
	require.NoError(t, err)
	assert.Equal(t, 7, stored.Log["2026-10-01"].Goal)
	assert.Equal(t, "book", stored.Reward)
	assert.Equal(t, 1, stored.GoalsAchieved)
}

func TestGoalResetChoice(t *testing.T) {
	tr, _ := setupTestTracker(t)
	h := createHabit(t, tr, "Read", models.KindBuild, 1, 1)
	m := startModel(t, tr)

	m = press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	require.Equal(t, StateGoal, m.state)

	m.goalForm.Choice = cli.GoalChoiceReset
	model, cmd := m.resolveGoal()
	m = settle(t, model.(Model), cmd)

	stored, err := tr.GetHabit(context.Background(), uid, tracker.Ref{Kind: models.KindBuild, ID: h.ID})
	require.NoError(t, err)
	assert.False(t, stored.Log["2026-10-01"].IsCompleted)
	assert.Equal(t, 0, stored.TotalDone)
}

func TestGoalEscapeLeavesPending(t *testing.T) {
	tr, _ := setupTestTracker(t)
	createHabit(t, tr, "Read", models.KindBuild, 1, 1)
	m := startModel(t, tr)

	m = press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	require.Equal(t, StateGoal, m.state)

	model, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = model.(Model)
	assert.Equal(t, StateHabits, m.state)
	assert.Contains(t, m.status, "Goal left pending")
	it, ok := m.selected()
	require.True(t, ok)
	assert.True(t, it.GoalPending)
	assert.Contains(t, it.Description(), "press g")

	m = press(t, m, runes("g"))
	require.Equal(t, StateGoal, m.state)
	require.NotNil(t, m.goal)
	assert.Equal(t, "2026-10-01", m.goal.det.Date())
	assert.Empty(t, m.pending)

	m.goalForm.Choice = cli.GoalChoiceReset
	model, cmd := m.resolveGoal()
	m = settle(t, model.(Model), cmd)
	assert.Equal(t, StateHabits, m.state)
	assert.Empty(t, m.pending)
}

func TestGoalDecideLaterKeepsPending(t *testing.T) {
	tr, _ := setupTestTracker(t)
	createHabit(t, tr, "Read", models.KindBuild, 1, 1)
	m := startModel(t, tr)

	m = press(t, m, runes("g"))
	assert.Equal(t, StateHabits, m.state)
	assert.Contains(t, m.status, "No pending goal")

	m = press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	require.Equal(t, StateGoal, m.state)
	m.goalForm.Choice = cli.GoalChoiceLater
	model, cmd := m.resolveGoal()
	m = settle(t, model.(Model), cmd)
	assert.Equal(t, StateHabits, m.state)
	require.Len(t, m.pending, 1)

	// Undoing the day drops the undecided goal.
	m = press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	assert.Equal(t, StateHabits, m.state)
	assert.Empty(t, m.pending)
	m = press(t, m, runes("g"))
	assert.Contains(t, m.status, "No pending goal")
}

func TestErrorShownInView(t *testing.T) {
	tr, _ := setupTestTracker(t)
	m := NewModel(context.Background(), tr, uid)

	model, _ := m.Update(resultMsg{err: errors.ErrHabitNotFound})
	m = model.(Model)
	assert.Contains(t, m.View(), "Error:")
	assert.Contains(t, m.View(), "No build habits yet")
}

func TestQuit(t *testing.T) {
	tr, _ := setupTestTracker(t)
	m := NewModel(context.Background(), tr, uid)

	model, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, model.(Model).View())
}

func TestWatchSendsSnapshots(t *testing.T) {
	tr, _ := setupTestTracker(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msgs := make(chan tea.Msg, 16)
	stop, err := Watch(ctx, tr, uid, func(msg tea.Msg) { msgs <- msg })
	require.NoError(t, err)
	defer stop()

	next := func() SnapshotMsg {
		select {
		case msg := <-msgs:
			snap, ok := msg.(SnapshotMsg)
			require.True(t, ok)
			return snap
		case <-time.After(2 * time.Second):
			t.Fatalf("no snapshot received")
			return SnapshotMsg{}
		}
	}

	kinds := map[models.HabitKind]bool{}
	for i := 0; i < 2; i++ {
		kinds[next().Kind] = true
	}
	assert.Len(t, kinds, 2)

	createHabit(t, tr, "Read", models.KindBuild, 5, 1)
	snap := next()
	assert.Equal(t, models.KindBuild, snap.Kind)
	assert.Greater(t, snap.Seq, uint64(2))
	require.Len(t, snap.Habits, 1)
	assert.Equal(t, "Read", snap.Habits[0].Name)
}
