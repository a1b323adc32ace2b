package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the dashboard.
type keyMap struct {
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Refresh    key.Binding

	// Autopilot
	ToggleAutopilot key.Binding
	OffsetUp        key.Binding
	OffsetDown      key.Binding
	OffsetReset     key.Binding

	// Map
	PanNorth key.Binding
	PanSouth key.Binding
	PanWest  key.Binding
	PanEast  key.Binding
	ZoomIn   key.Binding
	ZoomOut  key.Binding
	Home     key.Binding

	// Body scrolling when the terminal is short
	ScrollUp   key.Binding
	ScrollDown key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "theme"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),

		ToggleAutopilot: key.NewBinding(
			key.WithKeys("a", " "),
			key.WithHelp("a", "engage/standby"),
		),
		OffsetUp: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "offset starboard"),
		),
		OffsetDown: key.NewBinding(
			key.WithKeys("-", "_"),
			key.WithHelp("-", "offset port"),
		),
		OffsetReset: key.NewBinding(
			key.WithKeys("0"),
			key.WithHelp("0", "reset offset"),
		),

		PanNorth: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("↑", "pan north"),
		),
		PanSouth: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("↓", "pan south"),
		),
		PanWest: key.NewBinding(
			key.WithKeys("left"),
			key.WithHelp("←", "pan west"),
		),
		PanEast: key.NewBinding(
			key.WithKeys("right"),
			key.WithHelp("→", "pan east"),
		),
		ZoomIn: key.NewBinding(
			key.WithKeys("z"),
			key.WithHelp("z", "zoom in"),
		),
		ZoomOut: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "zoom out"),
		),
		Home: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "home viewport"),
		),

		ScrollUp: key.NewBinding(
			key.WithKeys("k", "pgup"),
			key.WithHelp("k", "scroll up"),
		),
		ScrollDown: key.NewBinding(
			key.WithKeys("j", "pgdown"),
			key.WithHelp("j", "scroll down"),
		),
	}
}

// ShortHelp returns key bindings for the footer.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.ToggleAutopilot, k.OffsetDown, k.OffsetUp, k.ZoomIn, k.ZoomOut, k.Help, k.Quit}
}

// FullHelp returns key bindings for the help overlay.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.ToggleAutopilot, k.OffsetUp, k.OffsetDown, k.OffsetReset},
		{k.PanNorth, k.PanSouth, k.PanWest, k.PanEast, k.ZoomIn, k.ZoomOut, k.Home},
		{k.ScrollUp, k.ScrollDown, k.Refresh, k.CycleTheme, k.Help, k.Quit},
	}
}
