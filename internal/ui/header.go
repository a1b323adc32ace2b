package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/pilotdeck/internal/gateway"
	"github.com/five82/pilotdeck/internal/store"
)

// renderHeader renders the status bar.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	snap := m.controlSnap

	parts := []string{bg.Render("pilotdeck", styles.Logo)}

	switch {
	case snap.IsOffline():
		parts = append(parts,
			bg.Render("API "+classifyConnectionError(snap.LastError), styles.DangerText),
			bg.Render("Retrying...", styles.WarningText.Bold(true)),
		)
	case snap.AutopilotStatus == store.StatusUnfetched && snap.DashboardStatus == store.StatusUnfetched:
		parts = append(parts, bg.Render("Connecting to "+m.daemonURL+"...", styles.WarningText.Bold(true)))
	default:
		parts = append(parts, bg.Render("● ONLINE", styles.SuccessText))
	}

	if ap := snap.Autopilot; ap != nil {
		if ap.Enabled {
			parts = append(parts, bg.Render("ENGAGED", styles.SuccessText))
		} else {
			parts = append(parts, bg.Render("STANDBY", styles.MutedText))
		}
	}
	if snap.PendingWrites > 0 {
		parts = append(parts, bg.Label("Sending:", fmt.Sprintf("%d", snap.PendingWrites), styles, styles.InfoText))
	}

	pts := m.pointSnap
	switch {
	case pts.Fetching && pts.Queued:
		parts = append(parts, bg.Render("map fetching (queued)", styles.InfoText))
	case pts.Fetching:
		parts = append(parts, bg.Render("map fetching", styles.InfoText))
	}

	if ts := m.formatTimestamp(); ts != "" {
		parts = append(parts, bg.Render(ts, styles.MutedText))
	}

	if snap.LastError != nil && !snap.IsOffline() {
		maxErr := 60
		if m.width < 100 {
			maxErr = 30
		}
		parts = append(parts,
			bg.Render("ERROR", styles.DangerText)+bg.Spaces(1)+
				bg.Render(truncate(snap.LastError.Error(), maxErr), styles.DangerText))
	}

	return styles.Header.Width(m.width).Render(bg.Join(parts, "  "))
}

// renderFooter renders key hints and any transient notice.
func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	line := m.help.ShortHelpView(m.keys.ShortHelp())
	if m.notice != "" {
		line = styles.WarningText.Render("! "+m.notice) + "  " + line
	}
	return lipgloss.NewStyle().MaxWidth(max(m.width, 1)).Render(line)
}

// formatTimestamp describes the most recent store update.
func (m Model) formatTimestamp() string {
	last := m.controlSnap.LastUpdated
	if m.pointSnap.LastUpdated.After(last) {
		last = m.pointSnap.LastUpdated
	}
	if last.IsZero() {
		return ""
	}
	return "updated " + formatAgo(m.now().Sub(last))
}

func formatAgo(d time.Duration) string {
	switch {
	case d < 2*time.Second:
		return "just now"
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	}
}

// classifyConnectionError returns a short description of a gateway failure.
func classifyConnectionError(err error) string {
	if err == nil {
		return ""
	}
	var f *gateway.Failure
	if errors.As(err, &f) && f.Kind == gateway.KindRemote {
		return fmt.Sprintf("HTTP %d", f.StatusCode)
	}
	switch gateway.KindOf(err) {
	case gateway.KindDecode:
		return "BAD PAYLOAD"
	case gateway.KindNetwork:
		msg := err.Error()
		switch {
		case strings.Contains(msg, "connection refused"):
			return "OFFLINE"
		case strings.Contains(msg, "no such host"):
			return "HOST NOT FOUND"
		case errors.Is(err, context.DeadlineExceeded), strings.Contains(msg, "timeout"):
			return "TIMEOUT"
		default:
			return "UNREACHABLE"
		}
	default:
		return "ERROR"
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
