package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/nsavage/dayloop/internal/store"
)

var habitTypeOptions = []string{"", store.HabitSkill, store.HabitRoutine}
var recurrenceOptions = []string{store.RecurrenceNone, store.RecurrenceDaily, store.RecurrenceEveryNDays, store.RecurrenceWeekly}

// itemsModel is the Items tab: task/habit CRUD over the unified
// WorkItem table, driven by a single huh form per create/edit.
type itemsModel struct {
	store  *store.Store
	width  int
	height int

	items  []store.WorkItem
	cursor int

	formActive bool
	form       *huh.Form
	editingID  int64 // 0 means "creating new"

	formDescription *string
	formProject     *string
	formPriority    *string
	formEnergy      *string
	formDueDate     *string
	formIsHabit     *string
	formHabitType   *string
	formRecurrence  *string
	formInterval    *string
	formDailyTarget *string
	formDependsOn   *string
}

func newItemsModel(s *store.Store) itemsModel {
	desc, proj, pri, en, due := "", "", "0", "0", ""
	isHabit, habitType, recur, interval, target, dep := "no", "", store.RecurrenceNone, "1", "1", ""
	return itemsModel{
		store:           s,
		formDescription: &desc,
		formProject:     &proj,
		formPriority:    &pri,
		formEnergy:      &en,
		formDueDate:     &due,
		formIsHabit:     &isHabit,
		formHabitType:   &habitType,
		formRecurrence:  &recur,
		formInterval:    &interval,
		formDailyTarget: &target,
		formDependsOn:   &dep,
	}
}

func (m *itemsModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

type itemsDataMsg struct{ items []store.WorkItem }

func (m itemsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		items, _ := m.store.ListWorkItems(store.WorkItemFilter{})
		return itemsDataMsg{items: items}
	}
}

func (m itemsModel) update(msg tea.Msg) (itemsModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case itemsDataMsg:
		m.items = msg.items
		if m.cursor >= len(m.items) {
			m.cursor = max(0, len(m.items)-1)
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.items)-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.New):
			return m.showNewForm()
		case key.Matches(msg, keys.Enter):
			if len(m.items) > 0 {
				return m.showEditForm()
			}
		case key.Matches(msg, keys.Delete):
			if len(m.items) > 0 {
				item := m.items[m.cursor]
				m.store.DeleteWorkItem(item.ID)
				return m, m.refresh()
			}
		}
	}
	return m, nil
}

func (m itemsModel) showNewForm() (itemsModel, tea.Cmd) {
	*m.formDescription = ""
	*m.formProject = ""
	*m.formPriority = "0"
	*m.formEnergy = "0"
	*m.formDueDate = ""
	*m.formIsHabit = "no"
	*m.formHabitType = store.HabitSkill
	*m.formRecurrence = store.RecurrenceNone
	*m.formInterval = "1"
	*m.formDailyTarget = "1"
	*m.formDependsOn = ""
	m.editingID = 0

	m.form = m.buildForm()
	m.formActive = true
	return m, m.form.Init()
}

func (m itemsModel) showEditForm() (itemsModel, tea.Cmd) {
	item := m.items[m.cursor]
	*m.formDescription = item.Description
	*m.formProject = item.Project
	*m.formPriority = strconv.Itoa(item.Priority)
	*m.formEnergy = strconv.Itoa(item.Energy)
	*m.formDueDate = item.DueDate
	*m.formIsHabit = "no"
	if item.IsHabit {
		*m.formIsHabit = "yes"
	}
	*m.formHabitType = item.HabitType
	*m.formRecurrence = item.Recurrence.Type
	*m.formInterval = strconv.Itoa(maxInt1(item.Recurrence.Interval))
	*m.formDailyTarget = strconv.Itoa(maxInt1(item.DailyTarget))
	*m.formDependsOn = ""
	if item.DependsOn != nil {
		*m.formDependsOn = strconv.FormatInt(*item.DependsOn, 10)
	}
	m.editingID = item.ID

	m.form = m.buildForm()
	m.formActive = true
	return m, m.form.Init()
}

func maxInt1(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

func (m itemsModel) buildForm() *huh.Form {
	habitOptions := make([]huh.Option[string], len(habitTypeOptions))
	for i, h := range habitTypeOptions {
		label := h
		if label == "" {
			label = "(none)"
		}
		habitOptions[i] = huh.NewOption(label, h)
	}
	recurOpts := make([]huh.Option[string], len(recurrenceOptions))
	for i, r := range recurrenceOptions {
		recurOpts[i] = huh.NewOption(r, r)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Description").Value(m.formDescription),
			huh.NewInput().Title("Project").Value(m.formProject),
			huh.NewInput().Title("Priority (0-10)").Value(m.formPriority),
			huh.NewInput().Title("Energy (0-5)").Value(m.formEnergy),
			huh.NewInput().Title("Due date (YYYY-MM-DD)").Value(m.formDueDate),
			huh.NewInput().Title("Depends on item ID (blank for none)").Value(m.formDependsOn),
		),
		huh.NewGroup(
			huh.NewSelect[string]().Title("Is this a habit?").
				Options(huh.NewOption("No", "no"), huh.NewOption("Yes", "yes")).Value(m.formIsHabit),
			huh.NewSelect[string]().Title("Habit type").Options(habitOptions...).Value(m.formHabitType),
			huh.NewSelect[string]().Title("Recurrence").Options(recurOpts...).Value(m.formRecurrence),
			huh.NewInput().Title("Recurrence interval (every_n_days)").Value(m.formInterval),
			huh.NewInput().Title("Daily target").Value(m.formDailyTarget),
		),
	).WithShowHelp(true).WithShowErrors(true)
}

func (m itemsModel) updateForm(msg tea.Msg) (itemsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			m.formActive = false
			m.form = nil
			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.formActive = false
		return m.saveForm()
	}

	return m, cmd
}

func (m itemsModel) saveForm() (itemsModel, tea.Cmd) {
	if *m.formDescription == "" {
		return m, m.refresh()
	}

	priority, _ := strconv.Atoi(*m.formPriority)
	energy, _ := strconv.Atoi(*m.formEnergy)
	interval, _ := strconv.Atoi(*m.formInterval)
	target, _ := strconv.Atoi(*m.formDailyTarget)
	isHabit := *m.formIsHabit == "yes"

	var dependsOn *int64
	if strings.TrimSpace(*m.formDependsOn) != "" {
		if id, err := strconv.ParseInt(strings.TrimSpace(*m.formDependsOn), 10, 64); err == nil {
			dependsOn = &id
		}
	}

	item := store.WorkItem{
		ID:          m.editingID,
		Description: *m.formDescription,
		Project:     *m.formProject,
		Priority:    priority,
		Energy:      energy,
		DueDate:     *m.formDueDate,
		DependsOn:   dependsOn,
		IsHabit:     isHabit,
		HabitType:   *m.formHabitType,
		Recurrence: store.Recurrence{
			Type:     *m.formRecurrence,
			Interval: interval,
		},
		DailyTarget: target,
	}

	if dependsOn != nil && m.editingID != 0 {
		cyclic, err := m.store.WouldCreateCycle(m.editingID, *dependsOn)
		if err == nil && cyclic {
			return m, func() tea.Msg {
				return statusMsg{text: "Rejected: that dependency would create a cycle", isError: true}
			}
		}
	}

	if m.editingID == 0 {
		created, err := m.store.CreateWorkItem(item)
		if err != nil {
			return m, func() tea.Msg {
				return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
			}
		}
		return m, tea.Batch(m.refresh(), func() tea.Msg { return itemCreatedMsg{item: created} })
	}

	existing, err := m.store.GetWorkItem(m.editingID)
	if err != nil {
		return m, func() tea.Msg {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
	}
	item.Status = existing.Status
	item.CreatedAt = existing.CreatedAt
	item.StartedAt = existing.StartedAt
	item.CompletedAt = existing.CompletedAt
	item.TimeSpent = existing.TimeSpent
	item.Streak = existing.Streak
	item.LastCompleted = existing.LastCompleted
	item.DailyCompleted = existing.DailyCompleted
	item.IsToday = existing.IsToday

	if err := m.store.UpdateWorkItem(item); err != nil {
		return m, func() tea.Msg {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
	}
	return m, tea.Batch(m.refresh(), func() tea.Msg { return itemUpdatedMsg{} })
}

func (m itemsModel) view() string {
	w := m.width - 4

	if m.formActive && m.form != nil {
		title := titleStyle.Render("New Item")
		if m.editingID != 0 {
			title = titleStyle.Render("Edit Item")
		}
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", m.form.View())
		return panelStyle.Width(w).Render(content)
	}

	title := titleStyle.Render("Items")

	if len(m.items) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No items yet. Press n to create one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-3s %-34s %-14s %-10s %-6s", "", "Description", "Project", "Status", "P/E")))

	for i, item := range m.items {
		cursor := "  "
		style := normalItemStyle
		if i == m.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		tag := ""
		if item.IsHabit {
			tag = mutedStyle.Render(fmt.Sprintf(" [%s streak %d]", item.HabitType, item.Streak))
		}
		row := fmt.Sprintf("%s%-34s %-14s %-10s P%d/E%d", cursor, truncate(item.Description, 34), truncate(item.Project, 14), item.Status, item.Priority, item.Energy)
		rows = append(rows, style.Render(row)+tag)
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: new  enter: edit  d: delete  esc: back"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
