package tui

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/nsavage/dayloop/internal/store"
)

// settingsModel is the Settings tab: a grouped huh.Form editor over the
// typed store.Settings singleton, replacing individual KV-key edits with
// one form submit that round-trips through store.UpdateSettings.
type settingsModel struct {
	store  *store.Store
	width  int
	height int

	settings   store.Settings
	backups    []store.Backup
	formActive bool
	form       *huh.Form

	maxTasksPerDay  *string
	criticalDays    *string
	dayStartEnabled *string
	dayStartTime    *string

	pointsPerTaskBase  *string
	pointsPerHabitBase *string
	routinePointsFixed *string
	energyMultBase     *string
	energyMultStep     *string
	minutesPerEnergy   *string
	minWorkTimeSeconds *string

	idlePenalty            *string
	incompleteDayPenalty   *string
	incompleteDayThreshold *string
	missedHabitPenalty     *string
	penaltyStreakReset     *string

	autoRollEnabled    *string
	autoRollTime       *string
	autoPenalties      *string
	penaltyTime        *string
	autoBackupEnabled  *string
	backupTime         *string
	backupIntervalDays *string
}

func newSettingsModel(s *store.Store) settingsModel {
	m := settingsModel{store: s}
	m.maxTasksPerDay = new(string)
	m.criticalDays = new(string)
	m.dayStartEnabled = new(string)
	m.dayStartTime = new(string)
	m.pointsPerTaskBase = new(string)
	m.pointsPerHabitBase = new(string)
	m.routinePointsFixed = new(string)
	m.energyMultBase = new(string)
	m.energyMultStep = new(string)
	m.minutesPerEnergy = new(string)
	m.minWorkTimeSeconds = new(string)
	m.idlePenalty = new(string)
	m.incompleteDayPenalty = new(string)
	m.incompleteDayThreshold = new(string)
	m.missedHabitPenalty = new(string)
	m.penaltyStreakReset = new(string)
	m.autoRollEnabled = new(string)
	m.autoRollTime = new(string)
	m.autoPenalties = new(string)
	m.penaltyTime = new(string)
	m.autoBackupEnabled = new(string)
	m.backupTime = new(string)
	m.backupIntervalDays = new(string)
	return m
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	settings store.Settings
	backups  []store.Backup
}

func (s settingsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		settings, err := s.store.GetSettings()
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		backups, err := s.store.ListBackups()
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		return settingsDataMsg{settings: settings, backups: backups}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		s.settings = msg.settings
		s.backups = msg.backups
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.New):
			return s.showForm()
		}
	}
	return s, nil
}

func boolStr(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func parseBool(s string) bool {
	return s == "yes" || s == "true"
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	st := s.settings

	*s.maxTasksPerDay = strconv.Itoa(st.MaxTasksPerDay)
	*s.criticalDays = strconv.Itoa(st.CriticalDays)
	*s.dayStartEnabled = boolStr(st.DayStartEnabled)
	*s.dayStartTime = st.DayStartTime

	*s.pointsPerTaskBase = strconv.Itoa(st.PointsPerTaskBase)
	*s.pointsPerHabitBase = strconv.Itoa(st.PointsPerHabitBase)
	*s.routinePointsFixed = strconv.Itoa(st.RoutinePointsFixed)
	*s.energyMultBase = strconv.FormatFloat(st.EnergyMultBase, 'f', -1, 64)
	*s.energyMultStep = strconv.FormatFloat(st.EnergyMultStep, 'f', -1, 64)
	*s.minutesPerEnergy = strconv.Itoa(st.MinutesPerEnergyUnit)
	*s.minWorkTimeSeconds = strconv.Itoa(st.MinWorkTimeSeconds)

	*s.idlePenalty = strconv.Itoa(st.IdlePenalty)
	*s.incompleteDayPenalty = strconv.Itoa(st.IncompleteDayPenalty)
	*s.incompleteDayThreshold = strconv.FormatFloat(st.IncompleteDayThreshold, 'f', -1, 64)
	*s.missedHabitPenalty = strconv.Itoa(st.MissedHabitPenaltyBase)
	*s.penaltyStreakReset = strconv.Itoa(st.PenaltyStreakResetDays)

	*s.autoRollEnabled = boolStr(st.AutoRollEnabled)
	*s.autoRollTime = st.AutoRollTime
	*s.autoPenalties = boolStr(st.AutoPenaltiesEnabled)
	*s.penaltyTime = st.PenaltyTime
	*s.autoBackupEnabled = boolStr(st.AutoBackupEnabled)
	*s.backupTime = st.BackupTime
	*s.backupIntervalDays = strconv.Itoa(st.BackupIntervalDays)

	yesNo := func(title string, val *string) *huh.Select[string] {
		return huh.NewSelect[string]().Title(title).
			Options(huh.NewOption("Yes", "yes"), huh.NewOption("No", "no")).Value(val)
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Max tasks per day").Value(s.maxTasksPerDay),
			huh.NewInput().Title("Critical days lookahead").Value(s.criticalDays),
			yesNo("Day boundary enabled", s.dayStartEnabled),
			huh.NewInput().Title("Day start time (HH:MM)").Value(s.dayStartTime),
		).Title("Planning"),
		huh.NewGroup(
			huh.NewInput().Title("Base points per task").Value(s.pointsPerTaskBase),
			huh.NewInput().Title("Base points per habit").Value(s.pointsPerHabitBase),
			huh.NewInput().Title("Fixed routine points").Value(s.routinePointsFixed),
			huh.NewInput().Title("Energy multiplier base").Value(s.energyMultBase),
			huh.NewInput().Title("Energy multiplier step").Value(s.energyMultStep),
			huh.NewInput().Title("Minutes per energy unit").Value(s.minutesPerEnergy),
			huh.NewInput().Title("Minimum work time (sec)").Value(s.minWorkTimeSeconds),
		).Title("Reward"),
		huh.NewGroup(
			huh.NewInput().Title("Idle penalty").Value(s.idlePenalty),
			huh.NewInput().Title("Incomplete day penalty").Value(s.incompleteDayPenalty),
			huh.NewInput().Title("Incomplete day threshold").Value(s.incompleteDayThreshold),
			huh.NewInput().Title("Missed habit penalty base").Value(s.missedHabitPenalty),
			huh.NewInput().Title("Penalty streak reset (days)").Value(s.penaltyStreakReset),
		).Title("Penalty"),
		huh.NewGroup(
			yesNo("Auto-roll enabled", s.autoRollEnabled),
			huh.NewInput().Title("Auto-roll time (HH:MM)").Value(s.autoRollTime),
			yesNo("Auto-penalties enabled", s.autoPenalties),
			huh.NewInput().Title("Penalty time (HH:MM)").Value(s.penaltyTime),
			yesNo("Auto-backup enabled", s.autoBackupEnabled),
			huh.NewInput().Title("Backup time (HH:MM)").Value(s.backupTime),
			huh.NewInput().Title("Backup interval (days)").Value(s.backupIntervalDays),
		).Title("Schedule"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		return s, tea.Batch(s.saveSettings(), s.refresh())
	}

	return s, cmd
}

func atoiOr(s string, fallback int) int {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return fallback
}

func atofOr(s string, fallback float64) float64 {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return fallback
}

func (s settingsModel) saveSettings() tea.Cmd {
	next := s.settings

	next.MaxTasksPerDay = atoiOr(*s.maxTasksPerDay, next.MaxTasksPerDay)
	next.CriticalDays = atoiOr(*s.criticalDays, next.CriticalDays)
	next.DayStartEnabled = parseBool(*s.dayStartEnabled)
	next.DayStartTime = *s.dayStartTime

	next.PointsPerTaskBase = atoiOr(*s.pointsPerTaskBase, next.PointsPerTaskBase)
	next.PointsPerHabitBase = atoiOr(*s.pointsPerHabitBase, next.PointsPerHabitBase)
	next.RoutinePointsFixed = atoiOr(*s.routinePointsFixed, next.RoutinePointsFixed)
	next.EnergyMultBase = atofOr(*s.energyMultBase, next.EnergyMultBase)
	next.EnergyMultStep = atofOr(*s.energyMultStep, next.EnergyMultStep)
	next.MinutesPerEnergyUnit = atoiOr(*s.minutesPerEnergy, next.MinutesPerEnergyUnit)
	next.MinWorkTimeSeconds = atoiOr(*s.minWorkTimeSeconds, next.MinWorkTimeSeconds)

	next.IdlePenalty = atoiOr(*s.idlePenalty, next.IdlePenalty)
	next.IncompleteDayPenalty = atoiOr(*s.incompleteDayPenalty, next.IncompleteDayPenalty)
	next.IncompleteDayThreshold = atofOr(*s.incompleteDayThreshold, next.IncompleteDayThreshold)
	next.MissedHabitPenaltyBase = atoiOr(*s.missedHabitPenalty, next.MissedHabitPenaltyBase)
	next.PenaltyStreakResetDays = atoiOr(*s.penaltyStreakReset, next.PenaltyStreakResetDays)

	next.AutoRollEnabled = parseBool(*s.autoRollEnabled)
	next.AutoRollTime = *s.autoRollTime
	next.AutoPenaltiesEnabled = parseBool(*s.autoPenalties)
	next.PenaltyTime = *s.penaltyTime
	next.AutoBackupEnabled = parseBool(*s.autoBackupEnabled)
	next.BackupTime = *s.backupTime
	next.BackupIntervalDays = atoiOr(*s.backupIntervalDays, next.BackupIntervalDays)

	return func() tea.Msg {
		if err := s.store.UpdateSettings(next); err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		return statusMsg{text: "Settings saved"}
	}
}

func (s settingsModel) view() string {
	w := s.width - 4

	if s.formActive && s.form != nil {
		title := titleStyle.Render("Settings")
		formView := s.form.View()
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", formView),
		)
	}

	title := titleStyle.Render("Settings")
	hint := mutedStyle.Render("Press enter to edit settings")

	st := s.settings
	row := func(label, value string) string {
		return fmt.Sprintf("  %s %s", lipgloss.NewStyle().Width(28).Render(label), highlightStyle.Render(value))
	}

	var rows []string
	rows = append(rows, title, "")
	rows = append(rows, row("Max tasks per day", strconv.Itoa(st.MaxTasksPerDay)))
	rows = append(rows, row("Day boundary", fmt.Sprintf("%s at %s", boolStr(st.DayStartEnabled), st.DayStartTime)))
	rows = append(rows, row("Base points / task / habit", fmt.Sprintf("%d / %d", st.PointsPerTaskBase, st.PointsPerHabitBase)))
	rows = append(rows, row("Idle penalty", strconv.Itoa(st.IdlePenalty)))
	rows = append(rows, row("Incomplete day penalty", strconv.Itoa(st.IncompleteDayPenalty)))
	rows = append(rows, row("Auto-roll", fmt.Sprintf("%s at %s", boolStr(st.AutoRollEnabled), st.AutoRollTime)))
	rows = append(rows, row("Auto-backup", fmt.Sprintf("%s at %s every %dd", boolStr(st.AutoBackupEnabled), st.BackupTime, st.BackupIntervalDays)))
	rows = append(rows, "", s.renderBackups(), "", hint)

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (s settingsModel) renderBackups() string {
	if len(s.backups) == 0 {
		return mutedStyle.Render("No backups yet")
	}

	n := len(s.backups)
	if n > 5 {
		n = 5
	}

	var lines []string
	lines = append(lines, subtitleStyle.Render("Recent backups"))
	for _, b := range s.backups[:n] {
		lines = append(lines, fmt.Sprintf("  %-28s %8s  %s",
			b.Filename, humanize.Bytes(uint64(b.SizeBytes)), mutedStyle.Render(humanize.Time(b.CreatedAt))))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
