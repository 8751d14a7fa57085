package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/habitkeeper/internal/cli"
	"github.com/julianstephens/habitkeeper/internal/models"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.state {
	case StateGoal:
		content = m.form.View()
	default:
		content = m.viewHabits()
	}

	var footer string
	switch {
	case m.err != nil:
		footer = errorStyle.Render("Error: " + m.err.Error())
	case m.status != "":
		footer = statusStyle.Render(m.status)
	}

	return docStyle.Render(lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewHeader(),
		content,
		footer,
		m.help.View(m.keys),
	))
}

func (m Model) viewHeader() string {
	var tabs []string
	for _, kind := range []models.HabitKind{models.KindBuild, models.KindDestroy} {
		title := cli.KindTitle(kind)
		if kind == m.kind {
			tabs = append(tabs, activeTabStyle.Render(title))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(title))
		}
	}

	date := m.date
	if date == m.tracker.Today() {
		date = "Today · " + date
	}
	tabs = append(tabs, dateStyle.Render(date))
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) viewHabits() string {
	if len(m.habits[m.kind]) == 0 {
		return statusStyle.Render("No " + cli.KindLabel(m.kind) + " habits yet. Add one with 'habitkeeper habit add'.")
	}
	return m.list.View()
}
