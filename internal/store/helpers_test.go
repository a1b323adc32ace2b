package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/five82/pilotdeck/internal/gateway"
	"github.com/five82/pilotdeck/internal/geo"
	"github.com/five82/pilotdeck/internal/intent"
	"github.com/five82/pilotdeck/internal/pilot"
)

// fakeGateway records requests; tests resolve them by hand, in any order.
type fakeGateway struct {
	mu    sync.Mutex
	calls []*call
}

type call struct {
	req  gateway.Request
	done gateway.Completion
}

func (f *fakeGateway) Request(_ context.Context, req gateway.Request, done gateway.Completion) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, &call{req: req, done: done})
}

// take returns the calls made since the previous take.
func (f *fakeGateway) take() []*call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.calls
	f.calls = nil
	return out
}

func (f *fakeGateway) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (c *call) ok(t *testing.T, payload any) {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	c.done(gateway.Result{Body: body})
}

func (c *call) raw(body string) {
	c.done(gateway.Result{Body: []byte(body)})
}

func (c *call) fail(status int) {
	c.done(gateway.Result{Err: &gateway.Failure{Kind: gateway.KindRemote, StatusCode: status, Message: "test failure"}})
}

type core struct {
	channel *intent.Channel
	gw      *fakeGateway
	points  *PointStore
	control *ControlStore
}

func newCore(t *testing.T, splits int) *core {
	t.Helper()
	ch := intent.NewChannel()
	gw := &fakeGateway{}

	tickets := 0
	points, err := NewPointStore(PointOptions{
		Gateway: gw,
		Sink:    ch,
		API:     pilot.NewAPI(""),
		Splits:  splits,
		NewTicket: func() string {
			tickets++
			return fmt.Sprintf("t%d", tickets)
		},
	})
	if err != nil {
		t.Fatalf("NewPointStore: %v", err)
	}
	control, err := NewControlStore(ControlOptions{Gateway: gw, Sink: ch, API: pilot.NewAPI("")})
	if err != nil {
		t.Fatalf("NewControlStore: %v", err)
	}
	ch.Register(points)
	ch.Register(control)
	return &core{channel: ch, gw: gw, points: points, control: control}
}

func wirePoints(points ...geo.Point) []map[string]float64 {
	out := make([]map[string]float64, len(points))
	for i, p := range points {
		out[i] = map[string]float64{"latitude": p.Lat, "longitude": p.Lng, "weight": p.Weight}
	}
	return out
}

func boundsOf(t *testing.T, c *call) geo.Bounds {
	t.Helper()
	b, _, err := pilot.ParsePointsQuery(c.req.Query)
	if err != nil {
		t.Fatalf("bad points query %v: %v", c.req.Query, err)
	}
	return b
}

func keys(points []geo.Point) map[string]bool {
	out := make(map[string]bool, len(points))
	for _, p := range points {
		out[p.Key()] = true
	}
	return out
}
