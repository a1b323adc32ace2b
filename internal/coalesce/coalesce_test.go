package coalesce

import "testing"

func TestLatest_IdleDispatchesImmediately(t *testing.T) {
	l := NewLatest[string, int]()
	dispatch, superseded := l.Offer("map", 1)
	if !dispatch || superseded {
		t.Fatalf("Offer on idle = (%v, %v), want (true, false)", dispatch, superseded)
	}
	if !l.InFlight("map") {
		t.Fatal("InFlight = false after dispatch")
	}
	if _, ok := l.Done("map"); ok {
		t.Fatal("Done returned a pending request, want none")
	}
	if l.InFlight("map") {
		t.Fatal("InFlight = true after Done with nothing pending")
	}
}

func TestLatest_KeepsOnlyMostRecentPending(t *testing.T) {
	l := NewLatest[string, int]()
	l.Offer("map", 1)

	tests := []struct {
		req            int
		wantSuperseded bool
	}{
		{2, false},
		{3, true},
		{4, true},
	}
	for _, tt := range tests {
		dispatch, superseded := l.Offer("map", tt.req)
		if dispatch {
			t.Fatalf("Offer(%d) dispatched while in flight", tt.req)
		}
		if superseded != tt.wantSuperseded {
			t.Fatalf("Offer(%d) superseded = %v, want %v", tt.req, superseded, tt.wantSuperseded)
		}
	}
	if p, ok := l.Pending("map"); !ok || p != 4 {
		t.Fatalf("Pending = (%d, %v), want (4, true)", p, ok)
	}

	next, ok := l.Done("map")
	if !ok || next != 4 {
		t.Fatalf("Done = (%d, %v), want (4, true)", next, ok)
	}
	if !l.InFlight("map") {
		t.Fatal("key should stay in flight while the pending request runs")
	}
	if _, ok := l.Pending("map"); ok {
		t.Fatal("pending slot not cleared after hand-off")
	}

	if _, ok := l.Done("map"); ok {
		t.Fatal("second Done returned a request, want none")
	}
	if l.InFlight("map") {
		t.Fatal("InFlight = true after final Done")
	}
}

func TestLatest_KeysAreIndependent(t *testing.T) {
	l := NewLatest[int, string]()
	if d, _ := l.Offer(1, "a"); !d {
		t.Fatal("key 1 should dispatch")
	}
	if d, _ := l.Offer(2, "b"); !d {
		t.Fatal("key 2 should dispatch independently of key 1")
	}
	if _, ok := l.Done(3); ok {
		t.Fatal("Done on unknown key returned a request")
	}
}

func TestGuard_DropsWhileBusy(t *testing.T) {
	g := NewGuard[string]()
	if !g.Begin("autopilot") {
		t.Fatal("first Begin = false")
	}
	if g.Begin("autopilot") {
		t.Fatal("second Begin = true while busy")
	}
	if !g.Begin("dashboard") {
		t.Fatal("other key should not be blocked")
	}
	g.End("autopilot")
	if g.Busy("autopilot") {
		t.Fatal("Busy = true after End")
	}
	if !g.Begin("autopilot") {
		t.Fatal("Begin after End = false")
	}
}
