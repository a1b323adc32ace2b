package store

import (
	"errors"
	"net/http"
	"testing"

	"github.com/five82/pilotdeck/internal/gateway"
	"github.com/five82/pilotdeck/internal/intent"
	"github.com/five82/pilotdeck/internal/pilot"
)

var (
	queryAutopilot = intent.Query{Resource: intent.ResourceAutopilot}
	queryDashboard = intent.Query{Resource: intent.ResourceDashboard}
)

func TestControlStore_UnfetchedBeforeQuery(t *testing.T) {
	c := newCore(t, 1)
	snap := c.control.Snapshot()
	if snap.HasAutopilot() || snap.AutopilotStatus != StatusUnfetched {
		t.Fatalf("fresh snapshot = %+v", snap)
	}
	if snap.Dashboard != nil || snap.DashboardStatus != StatusUnfetched {
		t.Fatalf("fresh dashboard = %v (%s)", snap.Dashboard, snap.DashboardStatus)
	}
}

func TestControlStore_FetchAutopilot(t *testing.T) {
	c := newCore(t, 1)
	c.channel.Submit(queryAutopilot)
	calls := c.gw.take()
	if len(calls) != 1 || calls[0].req.Method != http.MethodGet || calls[0].req.Path != "/api/autopilot" {
		t.Fatalf("calls = %+v", calls)
	}

	calls[0].ok(t, pilot.AutopilotStatus{Enabled: false, SetPoint: 90, Course: 88.5, HeadingOffset: -2})
	snap := c.control.Snapshot()
	if !snap.HasAutopilot() || snap.AutopilotStatus != StatusOK {
		t.Fatalf("snapshot = %+v", snap)
	}
	// A disabled autopilot is still a record, distinct from "no data".
	if snap.Autopilot.Enabled || snap.Autopilot.Course != 88.5 {
		t.Fatalf("autopilot = %+v", *snap.Autopilot)
	}

	snap.Autopilot.Course = 0
	if c.control.Snapshot().Autopilot.Course != 88.5 {
		t.Fatal("Snapshot should copy the autopilot record")
	}
}

func TestControlStore_DropsQueryWhileInFlight(t *testing.T) {
	c := newCore(t, 1)
	c.channel.Submit(queryAutopilot)
	c.channel.Submit(queryAutopilot)
	c.channel.Submit(queryAutopilot)
	c.channel.Submit(queryDashboard)
	c.channel.Submit(queryDashboard)

	calls := c.gw.take()
	if len(calls) != 2 {
		t.Fatalf("calls = %d, want one per resource", len(calls))
	}

	calls[0].ok(t, pilot.AutopilotStatus{Enabled: true})
	c.channel.Submit(queryAutopilot)
	if n := c.gw.count(); n != 1 {
		t.Fatalf("calls after completion = %d, want 1", n)
	}
}

func TestControlStore_FailureClearsRecord(t *testing.T) {
	c := newCore(t, 1)
	c.channel.Submit(queryAutopilot)
	c.gw.take()[0].ok(t, pilot.AutopilotStatus{Enabled: true})

	c.channel.Submit(queryAutopilot)
	c.gw.take()[0].fail(http.StatusBadGateway)
	snap := c.control.Snapshot()
	if snap.HasAutopilot() || snap.AutopilotStatus != StatusKO {
		t.Fatalf("after failure = %+v", snap)
	}
	if !errors.Is(snap.LastError, gateway.ErrRemote) {
		t.Fatalf("LastError = %v, want remote failure", snap.LastError)
	}
	if snap.ConsecutiveFailures != 1 || snap.IsOffline() {
		t.Fatalf("failures = %d offline = %v", snap.ConsecutiveFailures, snap.IsOffline())
	}

	c.channel.Submit(queryAutopilot)
	c.gw.take()[0].fail(http.StatusBadGateway)
	if snap := c.control.Snapshot(); !snap.IsOffline() {
		t.Fatalf("two failures in a row should be offline, got %d", snap.ConsecutiveFailures)
	}

	c.channel.Submit(queryAutopilot)
	c.gw.take()[0].ok(t, pilot.AutopilotStatus{})
	snap = c.control.Snapshot()
	if snap.ConsecutiveFailures != 0 || snap.LastError != nil || !snap.HasAutopilot() {
		t.Fatalf("after recovery = %+v", snap)
	}
}

// pollTick answers one autopilot and one dashboard query.
func pollTick(t *testing.T, c *core, autopilotOK, dashboardOK bool) {
	t.Helper()
	c.channel.Submit(queryAutopilot)
	c.channel.Submit(queryDashboard)
	calls := c.gw.take()
	if len(calls) != 2 {
		t.Fatalf("calls = %d, want 2", len(calls))
	}
	for _, cl := range calls {
		ok := dashboardOK
		if cl.req.Path == "/api/autopilot" {
			ok = autopilotOK
		}
		if ok {
			cl.raw(`{}`)
		} else {
			cl.fail(http.StatusBadGateway)
		}
	}
}

func TestControlStore_FailuresCountPollsNotReads(t *testing.T) {
	c := newCore(t, 1)

	pollTick(t, c, false, false)
	snap := c.control.Snapshot()
	if snap.ConsecutiveFailures != 1 || snap.IsOffline() {
		t.Fatalf("after one failed poll: failures = %d offline = %v, want 1 false", snap.ConsecutiveFailures, snap.IsOffline())
	}

	pollTick(t, c, false, false)
	if snap := c.control.Snapshot(); snap.ConsecutiveFailures != 2 || !snap.IsOffline() {
		t.Fatalf("after two failed polls: failures = %d offline = %v, want 2 true", snap.ConsecutiveFailures, snap.IsOffline())
	}
}

func TestControlStore_AutopilotOutageSurvivesDashboardSuccess(t *testing.T) {
	c := newCore(t, 1)

	for i := 0; i < 5; i++ {
		pollTick(t, c, false, true)
	}
	snap := c.control.Snapshot()
	if snap.ConsecutiveFailures != 5 {
		t.Fatalf("ConsecutiveFailures = %d, want 5", snap.ConsecutiveFailures)
	}
	if !errors.Is(snap.LastError, gateway.ErrRemote) {
		t.Fatalf("LastError = %v, want the autopilot failure", snap.LastError)
	}
	if !snap.IsOffline() || snap.AutopilotStatus != StatusKO || snap.DashboardStatus != StatusOK {
		t.Fatalf("snapshot = %+v", snap)
	}

	pollTick(t, c, true, true)
	if snap := c.control.Snapshot(); snap.ConsecutiveFailures != 0 || snap.LastError != nil {
		t.Fatalf("after recovery: failures = %d err = %v", snap.ConsecutiveFailures, snap.LastError)
	}
}

func TestControlStore_MalformedBodyIsKO(t *testing.T) {
	c := newCore(t, 1)
	c.channel.Submit(queryAutopilot)
	c.gw.take()[0].raw(`{"enabled":`)
	snap := c.control.Snapshot()
	if snap.AutopilotStatus != StatusKO || !errors.Is(snap.LastError, gateway.ErrDecode) {
		t.Fatalf("snapshot = %+v", snap)
	}
}

func TestControlStore_Dashboard(t *testing.T) {
	c := newCore(t, 1)

	c.channel.Submit(queryDashboard)
	call := c.gw.take()[0]
	if call.req.Path != "/api/dashboard" {
		t.Fatalf("path = %q", call.req.Path)
	}
	call.raw(`{}`)
	snap := c.control.Snapshot()
	if snap.Dashboard == nil || len(snap.Dashboard) != 0 || snap.DashboardStatus != StatusOK {
		t.Fatalf("empty dashboard = %v (%s), want non-nil OK", snap.Dashboard, snap.DashboardStatus)
	}

	c.channel.Submit(queryDashboard)
	c.gw.take()[0].ok(t, map[string]bool{pilot.NoGPSFix: true, pilot.SpeedTooLow: false})
	snap = c.control.Snapshot()
	if !snap.Dashboard[pilot.NoGPSFix] || snap.Dashboard[pilot.SpeedTooLow] {
		t.Fatalf("dashboard = %v", snap.Dashboard)
	}

	snap.Dashboard[pilot.SpeedTooLow] = true
	if c.control.Snapshot().Dashboard[pilot.SpeedTooLow] {
		t.Fatal("Snapshot should copy the dashboard")
	}

	c.channel.Submit(queryDashboard)
	c.gw.take()[0].fail(http.StatusInternalServerError)
	snap = c.control.Snapshot()
	if snap.Dashboard != nil || snap.DashboardStatus != StatusKO {
		t.Fatalf("failed dashboard = %v (%s)", snap.Dashboard, snap.DashboardStatus)
	}
}

func TestControlStore_CommandTriggersResync(t *testing.T) {
	for _, tc := range []struct {
		name string
		fail bool
	}{
		{"success", false},
		{"failure", true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c := newCore(t, 1)
			ctrl := pilot.Control{Enabled: true, HeadingOffset: 5}
			c.channel.Submit(intent.ChangeAutopilot{Control: ctrl})

			calls := c.gw.take()
			if len(calls) != 1 || calls[0].req.Method != http.MethodPut || calls[0].req.Path != "/api/autopilot" {
				t.Fatalf("calls = %+v", calls)
			}
			if body, ok := calls[0].req.Body.(pilot.Control); !ok || body != ctrl {
				t.Fatalf("body = %#v, want %#v", calls[0].req.Body, ctrl)
			}
			if got := c.control.Snapshot().PendingWrites; got != 1 {
				t.Fatalf("PendingWrites = %d, want 1", got)
			}

			if tc.fail {
				calls[0].fail(http.StatusServiceUnavailable)
			} else {
				calls[0].raw(``)
			}

			snap := c.control.Snapshot()
			if snap.PendingWrites != 0 {
				t.Fatalf("PendingWrites = %d after completion", snap.PendingWrites)
			}
			if tc.fail && snap.LastError == nil {
				t.Fatal("write failure not recorded")
			}
			follow := c.gw.take()
			if len(follow) != 1 || follow[0].req.Method != http.MethodGet || follow[0].req.Path != "/api/autopilot" {
				t.Fatalf("follow-up calls = %+v, want one autopilot GET", follow)
			}
			follow[0].ok(t, pilot.AutopilotStatus{Enabled: true, HeadingOffset: 5})
			if snap := c.control.Snapshot(); !snap.HasAutopilot() || !snap.Autopilot.Enabled {
				t.Fatalf("after resync = %+v", snap)
			}
		})
	}
}

func TestControlStore_ResyncWaitsForInFlightQuery(t *testing.T) {
	c := newCore(t, 1)

	c.channel.Submit(queryAutopilot)
	read := c.gw.take()[0]

	c.channel.Submit(intent.ChangeAutopilot{Control: pilot.Control{Enabled: true}})
	write := c.gw.take()[0]
	write.raw(``)
	if n := c.gw.count(); n != 0 {
		t.Fatalf("resync sent while a read was in flight (%d calls)", n)
	}

	// The old read lands with pre-write data, then the resync goes out.
	read.ok(t, pilot.AutopilotStatus{Enabled: false})
	if !c.control.Snapshot().HasAutopilot() {
		t.Fatal("in-flight read result dropped")
	}
	resync := c.gw.take()
	if len(resync) != 1 || resync[0].req.Path != "/api/autopilot" {
		t.Fatalf("resync calls = %+v", resync)
	}
	resync[0].ok(t, pilot.AutopilotStatus{Enabled: true})
	if !c.control.Snapshot().Autopilot.Enabled {
		t.Fatal("resync result not applied")
	}
	if n := c.gw.count(); n != 0 {
		t.Fatalf("unexpected extra calls: %d", n)
	}
}

func TestControlStore_NotifiesSubscribers(t *testing.T) {
	c := newCore(t, 1)
	var seen []Status
	sub := c.control.Subscribe(func() {
		seen = append(seen, c.control.Snapshot().AutopilotStatus)
	})
	defer sub.Cancel()

	c.channel.Submit(queryAutopilot)
	c.gw.take()[0].ok(t, pilot.AutopilotStatus{})
	if len(seen) == 0 || seen[len(seen)-1] != StatusOK {
		t.Fatalf("observed statuses = %v", seen)
	}
}

func TestNewControlStore_Validates(t *testing.T) {
	if _, err := NewControlStore(ControlOptions{Sink: intent.NewChannel()}); err == nil {
		t.Fatal("missing gateway accepted")
	}
	if _, err := NewControlStore(ControlOptions{Gateway: &fakeGateway{}}); err == nil {
		t.Fatal("missing sink accepted")
	}
}

func TestStatusString(t *testing.T) {
	for s, want := range map[Status]string{StatusUnfetched: "unfetched", StatusOK: "OK", StatusKO: "KO"} {
		if got := s.String(); got != want {
			t.Fatalf("%d.String() = %q, want %q", s, got, want)
		}
	}
}
