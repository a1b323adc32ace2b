package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/pilotdeck/internal/store"
)

const (
	topPanelLines = 6
	minMapRows    = 6
)

// renderBody lays out the autopilot and alarm panels above the track map.
func (m Model) renderBody() string {
	styles := m.theme.Styles()
	leftW := m.width / 2
	rightW := m.width - leftW

	top := lipgloss.JoinHorizontal(lipgloss.Top,
		m.panel(styles, "Autopilot", m.autopilotLines(styles), leftW, topPanelLines),
		m.panel(styles, "Alarms", m.alarmLines(styles), rightW, topPanelLines),
	)

	// Title, status line and two border rows.
	rows := max(m.bodyHeight()-lipgloss.Height(top)-4, minMapRows)
	cols := max(m.width-4, 1)
	grid := densityGrid(m.pointSnap.Points, m.view, rows, cols)

	title := fmt.Sprintf("Track  %s", m.view)
	var lines []string
	lines = append(lines, m.mapStatus(styles))
	lines = append(lines, renderHeat(grid, m.theme.Heat))
	mapPanel := m.panel(styles, title, lines, m.width, 0)

	return lipgloss.JoinVertical(lipgloss.Left, top, mapPanel)
}

// panel wraps lines in a bordered box of outer width w. height pads the
// content to a fixed number of lines when > 0.
func (m Model) panel(styles Styles, title string, lines []string, w, height int) string {
	for height > 0 && len(lines) < height {
		lines = append(lines, "")
	}
	content := styles.PanelTitle.Render(title) + "\n" + strings.Join(lines, "\n")
	return styles.Panel.Width(max(w-2, 1)).Render(content)
}

func (m Model) autopilotLines(styles Styles) []string {
	snap := m.controlSnap
	switch snap.AutopilotStatus {
	case store.StatusUnfetched:
		return []string{styles.FaintText.Render("waiting for autopilot...")}
	case store.StatusKO:
		return []string{styles.DangerText.Render("data unavailable")}
	}
	ap := snap.Autopilot
	if ap == nil {
		return []string{styles.FaintText.Render("waiting for autopilot...")}
	}

	mode := styles.Badge("STANDBY", m.theme.Muted)
	if ap.Enabled {
		mode = styles.Badge("ENGAGED", m.theme.Success)
	}
	field := func(name, value string) string {
		return styles.MutedText.Width(10).Render(name) + styles.Text.Render(value)
	}
	lines := []string{
		field("Mode", mode),
		field("Set point", fmt.Sprintf("%.1f°", ap.SetPoint)),
		field("Course", fmt.Sprintf("%.1f°", ap.Course)),
		field("Offset", fmt.Sprintf("%+.1f°", ap.HeadingOffset)),
		field("Speed", fmt.Sprintf("%.1f kn", ap.Speed)),
	}
	if snap.PendingWrites > 0 {
		lines = append(lines, styles.InfoText.Render(fmt.Sprintf("sending %d change(s)...", snap.PendingWrites)))
	}
	return lines
}

func (m Model) alarmLines(styles Styles) []string {
	snap := m.controlSnap
	switch snap.DashboardStatus {
	case store.StatusUnfetched:
		return []string{styles.FaintText.Render("waiting for dashboard...")}
	case store.StatusKO:
		return []string{styles.DangerText.Render("data unavailable")}
	}
	alarms := snap.Dashboard.Alarms()
	if len(alarms) == 0 {
		return []string{styles.MutedText.Render("no alarms reported")}
	}
	lines := make([]string, 0, len(alarms))
	for _, a := range alarms {
		if a.On {
			lines = append(lines, styles.DangerText.Render("● "+a.Label))
		} else {
			lines = append(lines, styles.FaintText.Render("○ "+a.Label))
		}
	}
	return lines
}

func (m Model) mapStatus(styles Styles) string {
	snap := m.pointSnap
	status := fmt.Sprintf("%d points from %d tiles", len(snap.Points), snap.Parts)
	if snap.LastError != nil {
		return styles.MutedText.Render(status) + "  " +
			styles.WarningText.Render("some tiles failed: "+classifyConnectionError(snap.LastError))
	}
	return styles.MutedText.Render(status)
}
