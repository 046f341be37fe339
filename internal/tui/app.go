package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/nsavage/dayloop/internal/export"
	"github.com/nsavage/dayloop/internal/store"
)

// App is the root Bubble Tea model.
type App struct {
	store  *store.Store
	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	agenda   agendaModel
	items    itemsModel
	scoring  scoringModel
	goals    goalsModel
	settings settingsModel

	help   help.Model
	status string
}

func NewApp(s *store.Store) App {
	h := help.New()
	h.ShowAll = false

	return App{
		store:      s,
		activeView: viewAgenda,
		agenda:     newAgendaModel(s),
		items:      newItemsModel(s),
		scoring:    newScoringModel(s),
		goals:      newGoalsModel(s),
		settings:   newSettingsModel(s),
		help:       h,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.agenda.Init(),
		tickCmd(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.agenda.setSize(a.width, contentHeight)
		a.items.setSize(a.width, contentHeight)
		a.scoring.setSize(a.width, contentHeight)
		a.goals.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		// Export picker
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewAgenda
			return a, a.agenda.loadData()
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewItems
			return a, a.items.refresh()
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewScoring
			return a, a.scoring.refresh()
		case key.Matches(msg, keys.Tab4):
			a.activeView = viewGoals
			return a, a.goals.refresh()
		case key.Matches(msg, keys.Tab5):
			a.activeView = viewSettings
			return a, a.settings.refresh()
		case key.Matches(msg, keys.Tab) && a.activeView != viewScoring:
			a.activeView = (a.activeView + 1) % 5
			return a, a.refreshCurrentView()
		}

	case tickMsg:
		cmds = append(cmds, tickCmd())
		var cmd tea.Cmd
		a.agenda, cmd = a.agenda.update(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
		return a, tea.Batch(cmds...)

	case statusMsg:
		a.status = msg.text
		return a, nil

	case timerStoppedMsg:
		a.status = "Timer stopped"
		return a, nil

	case timerStartedMsg:
		a.status = "Timer started"
		return a, nil

	case itemCompletedMsg:
		a.status = fmt.Sprintf("Completed — earned %d points", msg.points)
		return a, nil

	case rollDoneMsg:
		a.status = fmt.Sprintf("Rolled %s: %d tasks, %d habits", msg.result.EffectiveDate, len(msg.result.ChosenTaskIDs), len(msg.result.TodayHabits))
		return a, a.agenda.loadData()

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.exportPicking = false
		return a, nil
	}

	return a.updateActiveView(msg)
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewAgenda:
		a.agenda, cmd = a.agenda.update(msg)
	case viewItems:
		a.items, cmd = a.items.update(msg)
	case viewScoring:
		a.scoring, cmd = a.scoring.update(msg)
	case viewGoals:
		a.goals, cmd = a.goals.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewItems:
		return a.items.formActive
	case viewSettings:
		return a.settings.formActive
	case viewGoals:
		return a.goals.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewAgenda:
		return a.agenda.loadData()
	case viewItems:
		return a.items.refresh()
	case viewScoring:
		return a.scoring.refresh()
	case viewGoals:
		return a.goals.refresh()
	case viewSettings:
		return a.settings.refresh()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewAgenda:
		content = a.agenda.view()
	case viewItems:
		content = a.items.view()
	case viewScoring:
		content = a.scoring.view()
	case viewGoals:
		content = a.goals.view()
	case viewSettings:
		content = a.settings.view()
	}

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	if a.exportPicking {
		content = a.renderExportPicker(contentHeight)
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("dayloop")
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		status = mutedStyle.Render(" " + a.status)
	}

	timerInfo := ""
	if a.agenda.isRunning() {
		elapsed := a.agenda.elapsed()
		timerInfo = successStyle.Render(" ● " + formatDuration(elapsed))
	}

	left := footerStyle.Render(helpView)
	right := timerInfo + status

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

var exportFormats = []string{"Items (CSV)", "Items (JSON)", "Ledger (CSV)", "Ledger (JSON)"}

func (a App) renderExportPicker(_ int) string {
	title := titleStyle.Render("Export")
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(format int) tea.Cmd {
	return func() tea.Msg {
		home, _ := os.UserHomeDir()
		dateStr := time.Now().Format(store.DateLayout)

		var path string
		var err error

		switch format {
		case 0:
			items, e := a.store.ListWorkItems(store.WorkItemFilter{})
			if e != nil {
				return statusMsg{text: fmt.Sprintf("Export error: %v", e), isError: true}
			}
			path = filepath.Join(home, fmt.Sprintf("dayloop-items-%s.csv", dateStr))
			err = export.ToWorkItemsCSV(items, path)
		case 1:
			items, e := a.store.ListWorkItems(store.WorkItemFilter{})
			if e != nil {
				return statusMsg{text: fmt.Sprintf("Export error: %v", e), isError: true}
			}
			path = filepath.Join(home, fmt.Sprintf("dayloop-items-%s.json", dateStr))
			err = export.ToWorkItemsJSON(items, path)
		case 2:
			ledgers, e := a.store.ListDayLedgers("0000-01-01", dateStr)
			if e != nil {
				return statusMsg{text: fmt.Sprintf("Export error: %v", e), isError: true}
			}
			path = filepath.Join(home, fmt.Sprintf("dayloop-ledger-%s.csv", dateStr))
			err = export.ToLedgerCSV(ledgers, path)
		default:
			ledgers, e := a.store.ListDayLedgers("0000-01-01", dateStr)
			if e != nil {
				return statusMsg{text: fmt.Sprintf("Export error: %v", e), isError: true}
			}
			path = filepath.Join(home, fmt.Sprintf("dayloop-ledger-%s.json", dateStr))
			err = export.ToLedgerJSON(ledgers, path)
		}

		if err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}
		return exportDoneMsg{path: path}
	}
}
