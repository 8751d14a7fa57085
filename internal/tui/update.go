package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habitkeeper/internal/cli"
	"github.com/julianstephens/habitkeeper/internal/errors"
	"github.com/julianstephens/habitkeeper/internal/ledger"
	"github.com/julianstephens/habitkeeper/internal/logger"
	"github.com/julianstephens/habitkeeper/internal/models"
	"github.com/julianstephens/habitkeeper/internal/tracker"
	"github.com/julianstephens/habitkeeper/internal/utils"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		h, v := docStyle.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v-4)
		if m.form != nil {
			m.form = m.form.WithWidth(msg.Width - h)
		}
		return m, nil

	case SnapshotMsg:
		if msg.Seq < m.seq[msg.Kind] {
			return m, nil
		}
		m.seq[msg.Kind] = msg.Seq
		m.habits[msg.Kind] = msg.Habits
		if msg.Kind != m.kind {
			return m, nil
		}
		refresh := m.refreshItems()
		return m, tea.Batch(refresh, m.loadEntries())

	case entriesMsg:
		if msg.kind != m.kind || msg.date != m.date {
			return m, nil
		}
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.entries = msg.entries
		cmd := m.refreshItems()
		return m, cmd

	case resultMsg:
		return m.handleResult(msg)
	}

	if m.state == StateGoal {
		return m.updateGoal(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok && m.list.FilterState() != list.Filtering {
		if model, cmd, handled := m.handleKey(msg); handled {
			return model, cmd
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit, true

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil, true

	case key.Matches(msg, m.keys.Tab):
		if m.kind == models.KindBuild {
			m.kind = models.KindDestroy
		} else {
			m.kind = models.KindBuild
		}
		m.list.ResetSelected()
		return m.changeView()

	case key.Matches(msg, m.keys.PrevDay):
		prev, err := utils.AddDays(m.date, -1)
		if err != nil {
			m.err = err
			return m, nil, true
		}
		m.date = prev
		return m.changeView()

	case key.Matches(msg, m.keys.NextDay):
		if m.date >= m.tracker.Today() {
			m.status = "Already on today"
			return m, nil, true
		}
		next, err := utils.AddDays(m.date, 1)
		if err != nil {
			m.err = err
			return m, nil, true
		}
		m.date = next
		return m.changeView()

	case key.Matches(msg, m.keys.Today):
		m.date = m.tracker.Today()
		return m.changeView()
	}

	it, ok := m.selected()
	if !ok {
		return m, nil, false
	}
	ref := tracker.Ref{Kind: it.Habit.Kind, ID: it.Habit.ID}
	t, uid, date := m.tracker, m.uid, m.date

	switch {
	case key.Matches(msg, m.keys.Toggle):
		if it.Tracked && it.Entry.Tries > 1 {
			return m, m.run(ref, func(ctx context.Context) (tracker.Result, error) {
				return t.Increment(ctx, uid, ref, date)
			}), true
		}
		done := it.Tracked && it.Entry.IsCompleted
		return m, m.run(ref, func(ctx context.Context) (tracker.Result, error) {
			return t.Toggle(ctx, uid, ref, date, done)
		}), true

	case key.Matches(msg, m.keys.Increment):
		return m, m.run(ref, func(ctx context.Context) (tracker.Result, error) {
			return t.Increment(ctx, uid, ref, date)
		}), true

	case key.Matches(msg, m.keys.Decrement):
		return m, m.run(ref, func(ctx context.Context) (tracker.Result, error) {
			return t.Decrement(ctx, uid, ref, date)
		}), true

	case key.Matches(msg, m.keys.Reset):
		return m, m.run(ref, func(ctx context.Context) (tracker.Result, error) {
			return t.ResetDay(ctx, uid, ref, date)
		}), true

	case key.Matches(msg, m.keys.Goal):
		p, ok := m.pending[it.Habit.ID]
		if !ok {
			m.status = "No pending goal for " + it.Habit.Name
			return m, nil, true
		}
		cmd := m.openGoal(p)
		return m, cmd, true
	}
	return m, nil, false
}

// changeView drops the entries of the previous kind or date and loads the
// new ones.
func (m Model) changeView() (tea.Model, tea.Cmd, bool) {
	m.status = ""
	m.err = nil
	m.entries = make(map[string]entryView)
	refresh := m.refreshItems()
	return m, tea.Batch(refresh, m.loadEntries()), true
}

func (m Model) handleResult(msg resultMsg) (tea.Model, tea.Cmd) {
	var perr *errors.PropagationError
	switch {
	case errors.As(msg.err, &perr):
		m.err = msg.err
	case msg.err != nil:
		m.err = msg.err
		return m, nil
	default:
		m.err = nil
	}

	h := msg.res.Habit
	if h.ID == "" {
		return m, nil
	}
	m.replaceHabit(h)
	// Any later write to the habit supersedes an undecided goal.
	delete(m.pending, h.ID)
	if e, ok := h.Log[m.date]; ok {
		m.entries[h.ID] = entryView{entry: e, ok: true}
	}
	if e, ok := h.Log[msg.res.Outcome.Date]; ok && m.err == nil {
		m.status = fmt.Sprintf("%s on %s: %s", h.Name, msg.res.Outcome.Date, cli.DescribeEntry(e))
	}

	var formCmd tea.Cmd
	var det ledger.GoalDetector
	det.Observe(msg.res.Outcome)
	if det.State() == ledger.GoalReached {
		logger.Debug("Goal reached", "habit", h.ID, "date", det.Date())
		p := pendingGoal{ref: msg.ref, habit: h, det: det}
		if m.state == StateHabits {
			formCmd = m.openGoal(p)
		} else {
			m.pending[h.ID] = p
		}
	}
	refresh := m.refreshItems()
	return m, tea.Batch(refresh, formCmd)
}

// openGoal shows the goal form for p.
func (m *Model) openGoal(p pendingGoal) tea.Cmd {
	delete(m.pending, p.habit.ID)
	m.goal = &p
	m.goalForm = &cli.GoalForm{Choice: cli.GoalChoiceNew, Reward: p.habit.Reward}
	m.form = cli.NewGoalForm(p.habit.Name, m.goalForm)
	if m.width > 0 {
		m.form = m.form.WithWidth(m.width)
	}
	m.state = StateGoal
	return m.form.Init()
}

// deferGoal closes the form and keeps the goal so g can reopen it.
func (m *Model) deferGoal() tea.Cmd {
	m.pending[m.goal.habit.ID] = *m.goal
	m.status = "Goal left pending for " + m.goal.habit.Name + " (press g to decide)"
	m.closeGoal()
	return m.refreshItems()
}

// replaceHabit swaps in the written habit until the next snapshot.
func (m *Model) replaceHabit(h models.Habit) {
	habits := append([]models.Habit(nil), m.habits[h.Kind]...)
	for i := range habits {
		if habits[i].ID == h.ID {
			habits[i] = h
			m.habits[h.Kind] = habits
			return
		}
	}
}

func (m Model) updateGoal(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEsc {
		cmd := m.deferGoal()
		return m, cmd
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		return m.resolveGoal()
	case huh.StateAborted:
		cmd := m.deferGoal()
		return m, cmd
	}
	return m, cmd
}

func (m *Model) closeGoal() {
	m.state = StateHabits
	m.form = nil
	m.goalForm = nil
	m.goal = nil
}

// resolveGoal applies the choice made in the goal form.
func (m Model) resolveGoal() (tea.Model, tea.Cmd) {
	g, fm := m.goal, m.goalForm
	if fm.Choice != cli.GoalChoiceNew && fm.Choice != cli.GoalChoiceReset {
		cmd := m.deferGoal()
		return m, cmd
	}
	m.closeGoal()

	t, uid, date := m.tracker, m.uid, g.det.Date()
	switch fm.Choice {
	case cli.GoalChoiceNew:
		goal, err := strconv.Atoi(strings.TrimSpace(fm.Goal))
		if err != nil {
			m.err = errors.Invalid("goal must be a number")
			m.pending[g.habit.ID] = *g
			cmd := m.refreshItems()
			return m, cmd
		}
		if err := g.det.CommitNewGoal(); err != nil {
			m.err = err
			return m, nil
		}
		reward := strings.TrimSpace(fm.Reward)
		return m, m.run(g.ref, func(ctx context.Context) (tracker.Result, error) {
			return t.CommitNewGoal(ctx, uid, g.ref, date, goal, reward)
		})
	case cli.GoalChoiceReset:
		if err := g.det.Reset(); err != nil {
			m.err = err
			return m, nil
		}
		return m, m.run(g.ref, func(ctx context.Context) (tracker.Result, error) {
			return t.ResetDay(ctx, uid, g.ref, date)
		})
	}
	return m, nil
}
