// Package ui provides the Bubble Tea dashboard for pilotdeck. It reads store
// snapshots and turns key presses into intents; it never talks to the
// autopilot API itself.
package ui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/golang/glog"

	"github.com/five82/pilotdeck/internal/config"
	"github.com/five82/pilotdeck/internal/geo"
	"github.com/five82/pilotdeck/internal/intent"
	"github.com/five82/pilotdeck/internal/pilot"
	"github.com/five82/pilotdeck/internal/prefs"
	"github.com/five82/pilotdeck/internal/store"
)

// PointSource is the map read model.
type PointSource interface {
	Snapshot() store.PointSnapshot
	Subscribe(fn func()) *store.Subscription
}

// ControlSource is the autopilot/dashboard read model.
type ControlSource interface {
	Snapshot() store.ControlSnapshot
	Subscribe(fn func()) *store.Subscription
}

// Options configures the UI.
type Options struct {
	Context   context.Context
	Sink      store.Submitter
	Points    PointSource
	Control   ControlSource
	Viewport  config.Viewport
	Prefs     prefs.Prefs
	PrefsPath string
	DaemonURL string

	// RefreshTick redraws relative timestamps; 0 means one second.
	RefreshTick time.Duration
}

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx       context.Context
	sink      store.Submitter
	points    PointSource
	control   ControlSource
	changes   chan struct{}
	prefsPath string
	daemonURL string
	tick      time.Duration
	now       func() time.Time

	keys  keyMap
	help  help.Model
	body  viewport.Model
	theme Theme
	prefs prefs.Prefs

	width    int
	height   int
	ready    bool
	showHelp bool
	notice   string

	home geo.Bounds
	view geo.Bounds
	res  geo.Resolution

	pointSnap   store.PointSnapshot
	controlSnap store.ControlSnapshot
}

// New creates a new Bubble Tea model. Call Subscribe before starting the
// program so store changes reach it.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	tick := opts.RefreshTick
	if tick <= 0 {
		tick = time.Second
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	p := opts.Prefs
	if p == (prefs.Prefs{}) {
		p = prefs.Default()
	}

	m := Model{
		ctx:       ctx,
		sink:      opts.Sink,
		points:    opts.Points,
		control:   opts.Control,
		changes:   make(chan struct{}, 1),
		prefsPath: prefsPath,
		daemonURL: opts.DaemonURL,
		tick:      tick,
		now:       time.Now,
		keys:      DefaultKeyMap(),
		help:      help.New(),
		theme:     GetTheme(p.Theme),
		prefs:     p,
		home:      opts.Viewport.Bounds,
		view:      opts.Viewport.Bounds,
		res:       opts.Viewport.Resolution,
	}
	m.refresh()
	return m
}

// Subscribe registers store callbacks that wake the program. The returned
// function cancels them.
func (m Model) Subscribe() (cancel func()) {
	var subs []*store.Subscription
	signal := func() {
		// Never block a store publish on the UI loop.
		select {
		case m.changes <- struct{}{}:
		default:
		}
	}
	if m.points != nil {
		subs = append(subs, m.points.Subscribe(signal))
	}
	if m.control != nil {
		subs = append(subs, m.control.Subscribe(signal))
	}
	return func() {
		for _, s := range subs {
			s.Cancel()
		}
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(m.tick),
		waitForChange(m.changes),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		if !m.ready {
			m.body = viewport.New(msg.Width, m.bodyHeight())
			m.ready = true
		}
		m.body.Width = msg.Width
		m.body.Height = m.bodyHeight()
		m.updateBody()
		return m, nil

	case changedMsg:
		m.refresh()
		m.updateBody()
		return m, waitForChange(m.changes)

	case tickMsg:
		m.refresh()
		m.updateBody()
		return m, tickCmd(m.tick)
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderHeader() + "\n" + m.body.View() + "\n" + m.renderFooter()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}
	m.notice = ""

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.prefs.Theme = m.theme.Name
		if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
			glog.Warningf("save prefs: %v", err)
			m.notice = "could not save theme"
		}
		m.updateBody()
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		m.submit(
			intent.Query{Resource: intent.ResourceAutopilot},
			intent.Query{Resource: intent.ResourceDashboard},
			m.boundsIntent(),
		)
		return m, nil

	case key.Matches(msg, m.keys.ToggleAutopilot):
		return m.changeAutopilot(func(c pilot.Control) pilot.Control {
			c.Enabled = !c.Enabled
			return c
		})
	case key.Matches(msg, m.keys.OffsetUp):
		return m.changeAutopilot(func(c pilot.Control) pilot.Control {
			c.HeadingOffset = wrapOffset(c.HeadingOffset + m.prefs.HeadingStep)
			return c
		})
	case key.Matches(msg, m.keys.OffsetDown):
		return m.changeAutopilot(func(c pilot.Control) pilot.Control {
			c.HeadingOffset = wrapOffset(c.HeadingOffset - m.prefs.HeadingStep)
			return c
		})
	case key.Matches(msg, m.keys.OffsetReset):
		return m.changeAutopilot(func(c pilot.Control) pilot.Control {
			c.HeadingOffset = 0
			return c
		})

	case key.Matches(msg, m.keys.PanNorth):
		return m.moveView(m.view.Pan(m.prefs.PanStep, 0))
	case key.Matches(msg, m.keys.PanSouth):
		return m.moveView(m.view.Pan(-m.prefs.PanStep, 0))
	case key.Matches(msg, m.keys.PanWest):
		return m.moveView(m.view.Pan(0, -m.prefs.PanStep))
	case key.Matches(msg, m.keys.PanEast):
		return m.moveView(m.view.Pan(0, m.prefs.PanStep))
	case key.Matches(msg, m.keys.ZoomIn):
		return m.moveView(m.view.Zoom(1 / m.prefs.ZoomStep))
	case key.Matches(msg, m.keys.ZoomOut):
		return m.moveView(m.view.Zoom(m.prefs.ZoomStep))
	case key.Matches(msg, m.keys.Home):
		return m.moveView(m.home)

	case key.Matches(msg, m.keys.ScrollUp):
		m.body.ScrollUp(3)
		return m, nil
	case key.Matches(msg, m.keys.ScrollDown):
		m.body.ScrollDown(3)
		return m, nil
	}
	return m, nil
}

// changeAutopilot derives a command from the last known autopilot state.
// Without one there is nothing sensible to send.
func (m Model) changeAutopilot(edit func(pilot.Control) pilot.Control) (tea.Model, tea.Cmd) {
	ap := m.controlSnap.Autopilot
	if ap == nil {
		m.notice = "autopilot state unknown"
		m.updateBody()
		return m, nil
	}
	ctl := edit(pilot.Control{Enabled: ap.Enabled, HeadingOffset: ap.HeadingOffset})
	m.submit(intent.ChangeAutopilot{Control: ctl})
	return m, nil
}

func (m Model) moveView(b geo.Bounds) (tea.Model, tea.Cmd) {
	if _, err := geo.Partition(b, m.res, 1); err != nil || !onEarth(b) {
		m.notice = "viewport limit reached"
		m.updateBody()
		return m, nil
	}
	m.view = b
	m.updateBody()
	m.submit(m.boundsIntent())
	return m, nil
}

func (m Model) boundsIntent() intent.Intent {
	return intent.BoundsChanged{Bounds: m.view, Resolution: m.res}
}

// submit hands intents to the core in keypress order. It runs on the update
// loop: Submit only queues or runs handlers that never wait on the network.
func (m Model) submit(in ...intent.Intent) {
	if m.sink == nil {
		return
	}
	for _, i := range in {
		m.sink.Submit(i)
	}
}

func (m *Model) refresh() {
	if m.points != nil {
		m.pointSnap = m.points.Snapshot()
	}
	if m.control != nil {
		m.controlSnap = m.control.Snapshot()
	}
}

// bodyHeight leaves room for the header and footer lines.
func (m Model) bodyHeight() int {
	return max(m.height-2, 1)
}

func (m *Model) updateBody() {
	if !m.ready {
		return
	}
	m.body.SetContent(m.renderBody())
}

func onEarth(b geo.Bounds) bool {
	return b.MinLat >= -90 && b.MaxLat <= 90 && b.MinLng >= -180 && b.MaxLng <= 180
}

// wrapOffset folds a heading offset into (-180, 180].
func wrapOffset(v float64) float64 {
	for v > 180 {
		v -= 360
	}
	for v <= -180 {
		v += 360
	}
	return v
}

// Messages

type tickMsg time.Time

type changedMsg struct{}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForChange blocks until a store publishes. Update re-arms it after
// each delivery.
func waitForChange(changes <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		return changedMsg{}
	}
}

// Run starts the Bubble Tea program and blocks until the user quits or ctx
// is cancelled.
func Run(opts Options) error {
	m := New(opts)
	cancel := m.Subscribe()
	defer cancel()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}
