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

var goalTypeOptions = []string{store.GoalPoints, store.GoalProjectCompletion}

// goalsModel is the Goals tab: reward-goal CRUD and claiming, wrapping
// store.Goal and the scoring package's CheckGoals evaluation.
type goalsModel struct {
	store  *store.Store
	width  int
	height int

	goals  []store.Goal
	cursor int

	formActive bool
	form       *huh.Form

	formType     *string
	formTarget   *string
	formProject  *string
	formReward   *string
	formDeadline *string
}

func newGoalsModel(s *store.Store) goalsModel {
	t, target, proj, reward, deadline := store.GoalPoints, "", "", "", ""
	return goalsModel{
		store:        s,
		formType:     &t,
		formTarget:   &target,
		formProject:  &proj,
		formReward:   &reward,
		formDeadline: &deadline,
	}
}

func (m *goalsModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

type goalsDataMsg struct{ goals []store.Goal }

func (m goalsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		goals, _ := m.store.ListGoals()
		return goalsDataMsg{goals: goals}
	}
}

func (m goalsModel) update(msg tea.Msg) (goalsModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case goalsDataMsg:
		m.goals = msg.goals
		if m.cursor >= len(m.goals) {
			m.cursor = max(0, len(m.goals)-1)
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.goals)-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.New):
			return m.showNewForm()
		case key.Matches(msg, keys.Enter):
			return m.claimSelected()
		case key.Matches(msg, keys.Delete):
			if len(m.goals) > 0 {
				goal := m.goals[m.cursor]
				m.store.DeleteGoal(goal.ID)
				return m, m.refresh()
			}
		}
	}
	return m, nil
}

func (m goalsModel) claimSelected() (goalsModel, tea.Cmd) {
	if m.cursor < 0 || m.cursor >= len(m.goals) {
		return m, nil
	}
	goal := m.goals[m.cursor]
	if !goal.Achieved {
		return m, func() tea.Msg {
			return statusMsg{text: "That goal hasn't been achieved yet", isError: true}
		}
	}
	if err := m.store.ClaimReward(goal.ID); err != nil {
		return m, func() tea.Msg {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
	}
	return m, m.refresh()
}

func (m goalsModel) showNewForm() (goalsModel, tea.Cmd) {
	*m.formType = store.GoalPoints
	*m.formTarget = ""
	*m.formProject = ""
	*m.formReward = ""
	*m.formDeadline = ""

	m.form = m.buildForm()
	m.formActive = true
	return m, m.form.Init()
}

func (m goalsModel) buildForm() *huh.Form {
	typeOpts := make([]huh.Option[string], len(goalTypeOptions))
	for i, t := range goalTypeOptions {
		typeOpts[i] = huh.NewOption(t, t)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("Goal type").Options(typeOpts...).Value(m.formType),
			huh.NewInput().Title("Target points (points goals)").Value(m.formTarget),
			huh.NewInput().Title("Project name (project_completion goals)").Value(m.formProject),
			huh.NewInput().Title("Reward description").Value(m.formReward),
			huh.NewInput().Title("Deadline (YYYY-MM-DD, optional)").Value(m.formDeadline),
		),
	).WithShowHelp(true).WithShowErrors(true)
}

func (m goalsModel) updateForm(msg tea.Msg) (goalsModel, tea.Cmd) {
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

func (m goalsModel) saveForm() (goalsModel, tea.Cmd) {
	if strings.TrimSpace(*m.formReward) == "" {
		return m, m.refresh()
	}

	goal := store.Goal{
		Type:              *m.formType,
		RewardDescription: *m.formReward,
	}
	if strings.TrimSpace(*m.formTarget) != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(*m.formTarget)); err == nil {
			goal.TargetPoints = &n
		}
	}
	if strings.TrimSpace(*m.formProject) != "" {
		p := strings.TrimSpace(*m.formProject)
		goal.ProjectName = &p
	}
	if strings.TrimSpace(*m.formDeadline) != "" {
		d := strings.TrimSpace(*m.formDeadline)
		goal.Deadline = &d
	}

	created, err := m.store.CreateGoal(goal)
	if err != nil {
		return m, func() tea.Msg {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
	}
	return m, tea.Batch(m.refresh(), func() tea.Msg { return goalCreatedMsg{goal: created} })
}

func (m goalsModel) view() string {
	w := m.width - 4

	if m.formActive && m.form != nil {
		title := titleStyle.Render("New Goal")
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", m.form.View())
		return panelStyle.Width(w).Render(content)
	}

	title := titleStyle.Render("Goals")

	if len(m.goals) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No goals yet. Press n to create one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	for i, g := range m.goals {
		cursor := "  "
		style := normalItemStyle
		if i == m.cursor {
			cursor = "> "
			style = selectedItemStyle
		}

		status := "○ pending"
		switch {
		case g.Achieved && g.RewardClaimed:
			status = "✓ claimed"
		case g.Achieved:
			status = "★ achieved"
		}

		target := ""
		if g.Type == store.GoalPoints && g.TargetPoints != nil {
			target = fmt.Sprintf("%d pts", *g.TargetPoints)
		} else if g.Type == store.GoalProjectCompletion && g.ProjectName != nil {
			target = *g.ProjectName
		}

		row := fmt.Sprintf("%s%-20s %-12s %-20s %s", cursor, g.Type, target, g.RewardDescription, status)
		rows = append(rows, style.Render(row))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: new  enter: claim reward  d: delete"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
