package store

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/golang/glog"

	"github.com/five82/pilotdeck/internal/coalesce"
	"github.com/five82/pilotdeck/internal/gateway"
	"github.com/five82/pilotdeck/internal/intent"
	"github.com/five82/pilotdeck/internal/metrics"
	"github.com/five82/pilotdeck/internal/pilot"
)

// Status tags a polled resource.
type Status int

const (
	// StatusUnfetched means no fetch has completed yet.
	StatusUnfetched Status = iota
	// StatusOK means the last fetch succeeded.
	StatusOK
	// StatusKO means the last fetch failed and the record was cleared.
	StatusKO
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusKO:
		return "KO"
	default:
		return "unfetched"
	}
}

// ControlSnapshot is the autopilot/dashboard read model. A nil Autopilot or
// Dashboard is "empty": never fetched or last fetch failed, which Status
// tells apart. A fetched dashboard with no alarms is non-nil.
type ControlSnapshot struct {
	Autopilot       *pilot.AutopilotStatus
	AutopilotStatus Status
	Dashboard       pilot.Dashboard
	DashboardStatus Status

	// PendingWrites counts autopilot changes sent but not yet answered.
	PendingWrites int

	LastUpdated time.Time
	LastError   error
	// ConsecutiveFailures is the longest current failure streak of either
	// polled resource, so one poll cycle adds at most one.
	ConsecutiveFailures int
}

// HasAutopilot reports whether an autopilot record is available.
func (s ControlSnapshot) HasAutopilot() bool { return s.Autopilot != nil }

// IsOffline returns true when the API has been unreachable for multiple
// polls in a row.
func (s ControlSnapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// ControlOptions configure a ControlStore.
type ControlOptions struct {
	Context context.Context
	Gateway gateway.Gateway
	Sink    Submitter
	API     pilot.API
	Metrics *metrics.Metrics
	Now     func() time.Time
}

// ControlStore owns the singleton autopilot and dashboard records. A query
// for a resource that is already being fetched is dropped.
// Handle must only be called by the intent channel.
type ControlStore struct {
	ctx     context.Context
	gw      gateway.Gateway
	sink    Submitter
	api     pilot.API
	metrics *metrics.Metrics
	now     func() time.Time

	// Handler-owned.
	guard     *coalesce.Guard[intent.Resource]
	resync    bool
	model     ControlSnapshot
	inflightW int
	health    map[intent.Resource]*readHealth

	snap atomic.Pointer[ControlSnapshot]
	obs  observers
}

// NewControlStore builds an empty ControlStore.
func NewControlStore(opts ControlOptions) (*ControlStore, error) {
	if opts.Gateway == nil {
		return nil, fmt.Errorf("control store requires a gateway")
	}
	if opts.Sink == nil {
		return nil, fmt.Errorf("control store requires an intent sink")
	}
	s := &ControlStore{
		ctx:     opts.Context,
		gw:      opts.Gateway,
		sink:    opts.Sink,
		api:     opts.API,
		metrics: opts.Metrics,
		now:     opts.Now,
		guard:   coalesce.NewGuard[intent.Resource](),
		health: map[intent.Resource]*readHealth{
			intent.ResourceAutopilot: {},
			intent.ResourceDashboard: {},
		},
	}
	if s.ctx == nil {
		s.ctx = context.Background()
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.snap.Store(&ControlSnapshot{})
	return s, nil
}

// Handle implements intent.Handler.
func (s *ControlStore) Handle(in intent.Intent) {
	switch in := in.(type) {
	case intent.Query:
		s.onQuery(in.Resource)
	case intent.AutopilotFetched:
		s.onAutopilotFetched(in)
	case intent.DashboardFetched:
		s.onDashboardFetched(in)
	case intent.ChangeAutopilot:
		s.onChange(in)
	case intent.AutopilotChanged:
		s.onChanged(in)
	}
}

// Snapshot returns a copy of the current read model.
func (s *ControlStore) Snapshot() ControlSnapshot {
	snap := *s.snap.Load()
	if snap.Autopilot != nil {
		ap := *snap.Autopilot
		snap.Autopilot = &ap
	}
	snap.Dashboard = snap.Dashboard.Clone()
	return snap
}

// Subscribe registers fn to run after every change to the read model.
func (s *ControlStore) Subscribe(fn func()) *Subscription {
	return s.obs.add(fn)
}

func (s *ControlStore) onQuery(r intent.Resource) {
	if !s.guard.Begin(r) {
		glog.V(2).Infof("[control] %s fetch in flight, dropping query", r)
		s.metrics.DroppedPoll(r.String())
		return
	}
	switch r {
	case intent.ResourceAutopilot:
		s.gw.Request(s.ctx, s.api.AutopilotRequest(), func(res gateway.Result) {
			status, err := pilot.DecodeAutopilot(res)
			s.sink.Submit(intent.AutopilotFetched{Status: status, Err: err})
		})
	case intent.ResourceDashboard:
		s.gw.Request(s.ctx, s.api.DashboardRequest(), func(res gateway.Result) {
			dash, err := pilot.DecodeDashboard(res)
			s.sink.Submit(intent.DashboardFetched{Dashboard: dash, Err: err})
		})
	default:
		glog.Errorf("[control] query for unknown resource %s", r)
		s.guard.End(r)
	}
}

func (s *ControlStore) onAutopilotFetched(res intent.AutopilotFetched) {
	s.guard.End(intent.ResourceAutopilot)
	if res.Err != nil {
		if s.model.AutopilotStatus != StatusKO {
			glog.Warningf("[control] autopilot unavailable: %v", res.Err)
		}
		s.model.Autopilot = nil
		s.model.AutopilotStatus = StatusKO
		s.failed(intent.ResourceAutopilot, res.Err)
	} else {
		status := res.Status
		s.model.Autopilot = &status
		s.model.AutopilotStatus = StatusOK
		s.succeeded(intent.ResourceAutopilot)
	}
	s.publish()

	if s.resync {
		s.resync = false
		glog.V(1).Info("[control] resyncing autopilot after write")
		s.sink.Submit(intent.Query{Resource: intent.ResourceAutopilot})
	}
}

func (s *ControlStore) onDashboardFetched(res intent.DashboardFetched) {
	s.guard.End(intent.ResourceDashboard)
	if res.Err != nil {
		if s.model.DashboardStatus != StatusKO {
			glog.Warningf("[control] dashboard unavailable: %v", res.Err)
		}
		s.model.Dashboard = nil
		s.model.DashboardStatus = StatusKO
		s.failed(intent.ResourceDashboard, res.Err)
	} else {
		dash := res.Dashboard.Clone()
		if dash == nil {
			dash = pilot.Dashboard{}
		}
		s.model.Dashboard = dash
		s.model.DashboardStatus = StatusOK
		s.succeeded(intent.ResourceDashboard)
	}
	s.publish()
}

func (s *ControlStore) onChange(cmd intent.ChangeAutopilot) {
	glog.Infof("[control] changing autopilot: enabled=%v offset=%.1f", cmd.Control.Enabled, cmd.Control.HeadingOffset)
	s.inflightW++
	s.publish()
	control := cmd.Control
	s.gw.Request(s.ctx, s.api.SetAutopilotRequest(control), func(res gateway.Result) {
		s.sink.Submit(intent.AutopilotChanged{Control: control, Err: res.Err})
	})
}

// onChanged resyncs from the daemon whatever the write outcome. If a read is
// already running it may predate the write, so one more is scheduled after it.
func (s *ControlStore) onChanged(res intent.AutopilotChanged) {
	if s.inflightW > 0 {
		s.inflightW--
	}
	if res.Err != nil {
		glog.Warningf("[control] autopilot change failed: %v", res.Err)
		s.model.LastError = res.Err
		s.model.LastUpdated = s.now()
	}
	s.publish()

	if s.guard.Busy(intent.ResourceAutopilot) {
		s.resync = true
		return
	}
	s.sink.Submit(intent.Query{Resource: intent.ResourceAutopilot})
}

// readHealth is the failure streak of one polled resource.
type readHealth struct {
	failures int
	err      error
}

func (s *ControlStore) failed(r intent.Resource, err error) {
	h := s.health[r]
	h.failures++
	h.err = err
	s.model.LastError = err
	s.model.LastUpdated = s.now()
	s.model.ConsecutiveFailures = s.longestStreak()
}

// succeeded resets r's streak. A resource that is still failing keeps its
// error visible.
func (s *ControlStore) succeeded(r intent.Resource) {
	h := s.health[r]
	h.failures = 0
	h.err = nil
	s.model.LastError = nil
	for _, other := range []intent.Resource{intent.ResourceAutopilot, intent.ResourceDashboard} {
		if err := s.health[other].err; err != nil {
			s.model.LastError = err
			break
		}
	}
	s.model.LastUpdated = s.now()
	s.model.ConsecutiveFailures = s.longestStreak()
}

func (s *ControlStore) longestStreak() int {
	n := 0
	for _, h := range s.health {
		n = max(n, h.failures)
	}
	return n
}

func (s *ControlStore) publish() {
	snap := s.model
	snap.PendingWrites = s.inflightW
	if snap.Autopilot != nil {
		ap := *snap.Autopilot
		snap.Autopilot = &ap
	}
	snap.Dashboard = snap.Dashboard.Clone()
	s.snap.Store(&snap)
	s.obs.notify()
}
