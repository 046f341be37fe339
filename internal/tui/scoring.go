package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/nsavage/dayloop/internal/scoring"
	"github.com/nsavage/dayloop/internal/store"
)

// projectionHorizonDays is how far out the Scoring tab projects the
// running point total, trailing-averaged over the last 30 days.
const projectionHorizonDays = 30

type scoringRange int

const (
	scoringDaily scoringRange = iota
	scoringWeekly
)

// scoringModel is the Scoring tab: a bar chart of finalized DayLedger
// totals plus a detail table, toggling between a 7-day and a 4-week window.
type scoringModel struct {
	store  *store.Store
	width  int
	height int

	mode    scoringRange
	ledgers []store.DayLedger
	offset  int

	projection *scoring.Forecast

	chart barchart.Model
}

func newScoringModel(s *store.Store) scoringModel {
	return scoringModel{
		store: s,
		chart: barchart.New(60, 12),
	}
}

func (r *scoringModel) setSize(w, h int) {
	r.width = w
	r.height = h
}

type scoringDataMsg struct {
	ledgers    []store.DayLedger
	projection *scoring.Forecast
}

func (r scoringModel) refresh() tea.Cmd {
	return func() tea.Msg {
		from, to := r.dateRange()
		ledgers, _ := r.store.ListDayLedgers(from.Format(store.DateLayout), to.Format(store.DateLayout))

		now := time.Now()
		target := now.AddDate(0, 0, projectionHorizonDays).Format(store.DateLayout)
		projection, err := scoring.Projection(r.store, now, target)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		return scoringDataMsg{ledgers: ledgers, projection: projection}
	}
}

func (r scoringModel) dateRange() (time.Time, time.Time) {
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch r.mode {
	case scoringWeekly:
		end := today.AddDate(0, 0, -28*r.offset)
		start := end.AddDate(0, 0, -28)
		return start, end
	default:
		end := today.AddDate(0, 0, 1-7*r.offset)
		start := end.AddDate(0, 0, -7)
		return start, end
	}
}

func (r scoringModel) update(msg tea.Msg) (scoringModel, tea.Cmd) {
	switch msg := msg.(type) {
	case scoringDataMsg:
		r.ledgers = msg.ledgers
		r.projection = msg.projection
		r.buildChart()
		return r, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			r.offset++
			return r, r.refresh()
		case key.Matches(msg, keys.Right):
			if r.offset > 0 {
				r.offset--
			}
			return r, r.refresh()
		case key.Matches(msg, keys.Tab):
			if r.mode == scoringDaily {
				r.mode = scoringWeekly
			} else {
				r.mode = scoringDaily
			}
			r.offset = 0
			return r, r.refresh()
		}
	}
	return r, nil
}

func (r *scoringModel) buildChart() {
	chartWidth := r.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 12
	if r.height > 30 {
		chartHeight = 16
	}

	r.chart = barchart.New(chartWidth, chartHeight)

	byDate := make(map[string]store.DayLedger)
	for _, l := range r.ledgers {
		byDate[l.Date] = l
	}

	from, to := r.dateRange()

	var bars []barchart.BarData
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		dateStr := d.Format(store.DateLayout)
		label := d.Format("Mon 02")

		var values []barchart.BarValue
		if l, ok := byDate[dateStr]; ok {
			style := lipgloss.NewStyle().Foreground(colorSuccess)
			if l.DailyTotal < 0 {
				style = lipgloss.NewStyle().Foreground(colorError)
			}
			values = append(values, barchart.BarValue{
				Name:  dateStr,
				Value: float64(l.DailyTotal),
				Style: style,
			})
		} else {
			values = []barchart.BarValue{{Name: "", Value: 0, Style: lipgloss.NewStyle().Foreground(colorSubtle)}}
		}

		bars = append(bars, barchart.BarData{
			Label:  label,
			Values: values,
		})
	}

	r.chart.PushAll(bars)
	r.chart.Draw()
}

func (r scoringModel) view() string {
	w := r.width - 4

	dailyTab := inactiveTabStyle.Render("Daily")
	weeklyTab := inactiveTabStyle.Render("Weekly")
	if r.mode == scoringDaily {
		dailyTab = activeTabStyle.Render("Daily")
	} else {
		weeklyTab = activeTabStyle.Render("Weekly")
	}
	modeTabs := lipgloss.JoinHorizontal(lipgloss.Bottom, dailyTab, weeklyTab)

	from, to := r.dateRange()
	dateLabel := mutedStyle.Render(fmt.Sprintf("%s — %s", from.Format("Jan 02"), to.Add(-24*time.Hour).Format("Jan 02, 2006")))

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Scoring"), "  ", modeTabs, "  ", dateLabel,
	)

	chartView := r.chart.View()
	tableView := r.renderLedgerTable(w)
	projectionView := r.renderProjection()
	nav := mutedStyle.Render("  ←/→: navigate  tab: switch range")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", chartView, "", tableView, "", projectionView, "", nav,
		),
	)
}

func (r scoringModel) renderProjection() string {
	p := r.projection
	if p == nil {
		return ""
	}
	return fmt.Sprintf("  %s %d (%d–%d) %s",
		subtitleStyle.Render(fmt.Sprintf("Projected in %dd:", projectionHorizonDays)),
		p.AvgProjection, p.MinProjection, p.MaxProjection,
		mutedStyle.Render(fmt.Sprintf("avg %.1f pts/day", p.AvgPerDay)))
}

func (r scoringModel) renderLedgerTable(w int) string {
	if len(r.ledgers) == 0 {
		return mutedStyle.Render("  No finalized days in this period")
	}

	var rows []string
	headerRow := mutedStyle.Render(fmt.Sprintf("  %-12s %8s %8s %8s %10s %8s", "Date", "Earned", "Penalty", "Total", "Completion", "Streak"))
	rows = append(rows, headerRow)
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 62))))

	for _, l := range r.ledgers {
		rows = append(rows, fmt.Sprintf("  %-12s %8d %8d %8d %9.0f%% %8d",
			l.Date, l.PointsEarned, l.PointsPenalty, l.DailyTotal, l.CompletionRate*100, l.PenaltyStreak,
		))
	}

	return strings.Join(rows, "\n")
}
