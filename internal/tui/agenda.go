package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/nsavage/dayloop/internal/datectx"
	"github.com/nsavage/dayloop/internal/planner"
	"github.com/nsavage/dayloop/internal/store"
)

// agendaModel is the Agenda tab: today's chosen tasks plus today's
// habits, a single active-item timer, and the Roll trigger.
type agendaModel struct {
	store  *store.Store
	timer  timerModel
	width  int
	height int

	effectiveDate string
	items         []store.WorkItem
	cursor        int
}

func newAgendaModel(s *store.Store) agendaModel {
	return agendaModel{
		store: s,
		timer: newTimerModel(s),
	}
}

func (d agendaModel) Init() tea.Cmd {
	return d.loadData()
}

func (d *agendaModel) setSize(w, h int) {
	d.width = w
	d.height = h
}

func (d agendaModel) isRunning() bool { return d.timer.running() }
func (d agendaModel) elapsed() time.Duration {
	return d.timer.currentElapsed()
}

type agendaDataMsg struct {
	effectiveDate string
	items         []store.WorkItem
}

func (d agendaModel) loadData() tea.Cmd {
	return func() tea.Msg {
		settings, err := d.store.GetSettings()
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		today := datectx.EffectiveDate(time.Now(), settings.DayStartEnabled, settings.DayStartTime)

		chosen, _ := d.store.ListChosenToday()
		habits, _ := d.store.ListTodayHabits(today)

		items := append([]store.WorkItem{}, chosen...)
		items = append(items, habits...)

		return agendaDataMsg{effectiveDate: today, items: items}
	}
}

func (d agendaModel) update(msg tea.Msg) (agendaModel, tea.Cmd) {
	switch msg := msg.(type) {
	case agendaDataMsg:
		d.effectiveDate = msg.effectiveDate
		d.items = msg.items
		if d.cursor >= len(d.items) {
			d.cursor = max(0, len(d.items)-1)
		}
		return d, nil

	case tickMsg:
		d.timer.tick()
		return d, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if d.cursor > 0 {
				d.cursor--
			}
		case key.Matches(msg, keys.Down):
			if d.cursor < len(d.items)-1 {
				d.cursor++
			}
		case key.Matches(msg, keys.Start):
			return d.startSelected()
		case key.Matches(msg, keys.Stop):
			return d.stopTimer()
		case key.Matches(msg, keys.Complete):
			return d.completeSelected()
		case key.Matches(msg, keys.Roll):
			return d.roll()
		}
	}
	return d, nil
}

func (d agendaModel) startSelected() (agendaModel, tea.Cmd) {
	if d.cursor < 0 || d.cursor >= len(d.items) {
		return d, nil
	}
	item := d.items[d.cursor]
	if err := d.timer.start(item.ID, item.Description); err != nil {
		return d, func() tea.Msg {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
	}
	return d, func() tea.Msg { return timerStartedMsg{item: &item} }
}

func (d agendaModel) stopTimer() (agendaModel, tea.Cmd) {
	item, err := d.timer.stop()
	if err != nil {
		return d, func() tea.Msg {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
	}
	return d, tea.Batch(
		d.loadData(),
		func() tea.Msg { return timerStoppedMsg{item: item} },
	)
}

func (d agendaModel) completeSelected() (agendaModel, tea.Cmd) {
	if d.cursor < 0 || d.cursor >= len(d.items) {
		return d, nil
	}
	id := d.items[d.cursor].ID
	item, points, err := d.timer.complete(&id, d.effectiveDate)
	if err != nil {
		return d, func() tea.Msg {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
	}
	return d, tea.Batch(
		d.loadData(),
		func() tea.Msg { return itemCompletedMsg{item: item, points: points} },
	)
}

func (d agendaModel) roll() (agendaModel, tea.Cmd) {
	return d, func() tea.Msg {
		result, err := planner.Roll(d.store, time.Now(), nil)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Roll failed: %v", err), isError: true}
		}
		return rollDoneMsg{result: result}
	}
}

func (d agendaModel) view() string {
	if d.width < 20 {
		return "Terminal too small"
	}

	contentWidth := d.width - 4

	timerPanel := d.renderTimerPanel(contentWidth)
	agendaPanel := d.renderAgendaPanel(contentWidth)

	return lipgloss.JoinVertical(lipgloss.Left, timerPanel, agendaPanel)
}

func (d agendaModel) renderTimerPanel(w int) string {
	if d.timer.running() {
		elapsed := d.timer.currentElapsed()
		timeDisplay := timerRunningStyle.Width(w - 6).Render(formatDuration(elapsed))
		indicator := successStyle.Render("●  ACTIVE")
		descLine := highlightStyle.Render(d.timer.itemDesc)

		content := lipgloss.JoinVertical(lipgloss.Center, timeDisplay, indicator, descLine)
		return activePanelStyle.Width(w).Render(content)
	}

	timeDisplay := timerStyle.Width(w - 6).Render("00:00:00")
	indicator := mutedStyle.Render("■  IDLE")
	hint := mutedStyle.Render("Press s to start the highlighted item, r to roll today's agenda")

	content := lipgloss.JoinVertical(lipgloss.Center, timeDisplay, indicator, hint)
	return panelStyle.Width(w).Render(content)
}

func (d agendaModel) renderAgendaPanel(w int) string {
	title := fmt.Sprintf("%s  %s", titleStyle.Render("Agenda"), mutedStyle.Render(d.effectiveDate))

	if len(d.items) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			mutedStyle.Render("Nothing rolled yet — press r to roll"),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title)
	for i, it := range d.items {
		icon := "○"
		switch it.Status {
		case store.StatusActive:
			icon = "●"
		case store.StatusCompleted:
			icon = "✓"
		}
		habitTag := ""
		if it.IsHabit {
			habitTag = mutedStyle.Render(fmt.Sprintf(" [streak %d]", it.Streak))
		}
		line := fmt.Sprintf("%s %-40s %s P%d/E%d%s", icon, it.Description, it.Project, it.Priority, it.Energy, habitTag)

		style := normalItemStyle
		cursor := "  "
		if i == d.cursor {
			style = selectedItemStyle
			cursor = "> "
		}
		rows = append(rows, style.Render(cursor+line))
	}

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
