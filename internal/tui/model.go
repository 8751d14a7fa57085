// Package tui is the interactive day view: one tab per habit kind, a
// movable date and the goal-reached prompt.
package tui

import (
	"context"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habitkeeper/internal/cli"
	"github.com/julianstephens/habitkeeper/internal/errors"
	"github.com/julianstephens/habitkeeper/internal/ledger"
	"github.com/julianstephens/habitkeeper/internal/models"
	"github.com/julianstephens/habitkeeper/internal/tracker"
)

type SessionState int

const (
	StateHabits SessionState = iota
	StateGoal
)

// SnapshotMsg carries a fresh list of one kind's habits. Seq orders
// snapshots delivered out of order; older ones are dropped.
type SnapshotMsg struct {
	Kind   models.HabitKind
	Seq    uint64
	Habits []models.Habit
}

type entriesMsg struct {
	kind    models.HabitKind
	date    string
	entries map[string]entryView
	err     error
}

type resultMsg struct {
	ref tracker.Ref
	res tracker.Result
	err error
}

type entryView struct {
	entry models.LogEntry
	ok    bool
}

type pendingGoal struct {
	ref   tracker.Ref
	habit models.Habit
	det   ledger.GoalDetector
}

// Item is one habit row for the selected date.
type Item struct {
	Habit       models.Habit
	Entry       models.LogEntry
	Tracked     bool
	GoalPending bool
}

func (i Item) Title() string {
	return cli.EntryMark(i.Habit, i.Entry, i.Tracked) + " " + i.Habit.Name
}

func (i Item) Description() string {
	if !i.Tracked {
		return "not tracked on this day"
	}
	desc := cli.DescribeEntry(i.Entry)
	if i.Habit.Reward != "" {
		desc += "  reward: " + i.Habit.Reward
	}
	if i.GoalPending {
		desc += "  goal reached, press g"
	}
	return desc
}

func (i Item) FilterValue() string { return i.Habit.Name }

type Model struct {
	ctx     context.Context
	tracker *tracker.Tracker
	uid     string

	state   SessionState
	kind    models.HabitKind
	date    string
	habits  map[models.HabitKind][]models.Habit
	seq     map[models.HabitKind]uint64
	entries map[string]entryView

	list list.Model
	keys KeyMap
	help help.Model

	form     *huh.Form
	goalForm *cli.GoalForm
	goal     *pendingGoal
	// pending holds reached goals left undecided, by habit id.
	pending map[string]pendingGoal

	status   string
	err      error
	width    int
	height   int
	quitting bool
}

func NewModel(ctx context.Context, t *tracker.Tracker, uid string) Model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.DisableQuitKeybindings()
	l.SetStatusBarItemName("habit", "habits")

	return Model{
		ctx:     ctx,
		tracker: t,
		uid:     uid,
		state:   StateHabits,
		kind:    models.KindBuild,
		date:    t.Today(),
		habits:  make(map[models.HabitKind][]models.Habit),
		seq:     make(map[models.HabitKind]uint64),
		entries: make(map[string]entryView),
		pending: make(map[string]pendingGoal),
		list:    l,
		keys:    DefaultKeyMap(),
		help:    help.New(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadHabits(models.KindBuild), m.loadHabits(models.KindDestroy))
}

// loadHabits reads a kind once. Its snapshot carries Seq 0 so any
// subscription snapshot supersedes it.
func (m Model) loadHabits(kind models.HabitKind) tea.Cmd {
	ctx, t, uid := m.ctx, m.tracker, m.uid
	return func() tea.Msg {
		habits, err := t.ListHabits(ctx, uid, kind)
		if err != nil {
			return resultMsg{err: err}
		}
		return SnapshotMsg{Kind: kind, Habits: habits}
	}
}

// loadEntries selects the current date on every habit of the current kind,
// materializing days that have no entry yet.
func (m Model) loadEntries() tea.Cmd {
	ctx, t, uid := m.ctx, m.tracker, m.uid
	kind, date := m.kind, m.date
	habits := append([]models.Habit(nil), m.habits[kind]...)
	return func() tea.Msg {
		entries := make(map[string]entryView, len(habits))
		for _, h := range habits {
			e, ok, err := t.SelectDay(ctx, uid, tracker.Ref{Kind: kind, ID: h.ID}, date)
			if errors.Is(err, errors.ErrHabitNotFound) {
				continue
			}
			if err != nil {
				return entriesMsg{kind: kind, date: date, err: err}
			}
			entries[h.ID] = entryView{entry: e, ok: ok}
		}
		return entriesMsg{kind: kind, date: date, entries: entries}
	}
}

func (m Model) run(ref tracker.Ref, op func(ctx context.Context) (tracker.Result, error)) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		res, err := op(ctx)
		return resultMsg{ref: ref, res: res, err: err}
	}
}

func (m *Model) refreshItems() tea.Cmd {
	habits := m.habits[m.kind]
	items := make([]list.Item, 0, len(habits))
	for _, h := range habits {
		v := m.entries[h.ID]
		_, pending := m.pending[h.ID]
		items = append(items, Item{Habit: h, Entry: v.entry, Tracked: v.ok, GoalPending: pending})
	}
	return m.list.SetItems(items)
}

func (m Model) selected() (Item, bool) {
	it, ok := m.list.SelectedItem().(Item)
	return it, ok
}

// Watch subscribes to both kinds and forwards each snapshot to send.
// Sends happen on their own goroutines since the memory store delivers
// its first snapshot before Subscribe returns.
func Watch(ctx context.Context, t *tracker.Tracker, uid string, send func(tea.Msg)) (func(), error) {
	var seq atomic.Uint64
	var stops []func()
	stopAll := func() {
		for _, stop := range stops {
			stop()
		}
	}

	for _, kind := range []models.HabitKind{models.KindBuild, models.KindDestroy} {
		stop, err := t.Subscribe(ctx, uid, kind, func(habits []models.Habit) {
			msg := SnapshotMsg{Kind: kind, Seq: seq.Add(1), Habits: habits}
			go send(msg)
		})
		if err != nil {
			stopAll()
			return nil, err
		}
		stops = append(stops, stop)
	}
	return stopAll, nil
}
