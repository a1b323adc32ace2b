package store

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
	"github.com/oklog/ulid/v2"

	"github.com/five82/pilotdeck/internal/coalesce"
	"github.com/five82/pilotdeck/internal/gateway"
	"github.com/five82/pilotdeck/internal/geo"
	"github.com/five82/pilotdeck/internal/intent"
	"github.com/five82/pilotdeck/internal/metrics"
	"github.com/five82/pilotdeck/internal/pilot"
)

// PointSnapshot is the map read model as seen by readers.
type PointSnapshot struct {
	// Points is the union of every partition's points in partition order,
	// deduplicated by Point.Key.
	Points []geo.Point
	// Parts is the number of partitions currently holding data.
	Parts int
	// Bounds is the viewport of the most recently dispatched fetch.
	Bounds geo.Bounds
	// Fetching is true while a fetch is in flight; Queued when a newer
	// request waits behind it.
	Fetching bool
	Queued   bool

	LastUpdated time.Time
	LastError   error
}

// PointOptions configure a PointStore.
type PointOptions struct {
	Context context.Context
	Gateway gateway.Gateway
	Sink    Submitter
	API     pilot.API
	Splits  int // grid size per axis; 0 means 1
	Metrics *metrics.Metrics

	// Overridable for tests.
	NewTicket func() string
	Now       func() time.Time
}

// pointsKey is the only coalescing key the map uses: "the current viewport".
type pointsKey struct{}

type batch struct {
	ticket   string
	parts    int
	resolved map[int]bool
}

// PointStore owns the map read model. Fetches are coalesced: one batch in
// flight, and only the latest BoundsChanged received meanwhile is kept.
// Handle must only be called by the intent channel.
type PointStore struct {
	ctx       context.Context
	gw        gateway.Gateway
	sink      Submitter
	api       pilot.API
	splits    int
	metrics   *metrics.Metrics
	newTicket func() string
	now       func() time.Time

	// Handler-owned.
	latest  *coalesce.Latest[pointsKey, intent.BoundsChanged]
	current *batch
	parts   map[int][]geo.Point
	bounds  geo.Bounds
	lastErr error
	updated time.Time

	snap atomic.Pointer[PointSnapshot]
	obs  observers
}

// NewPointStore builds an empty PointStore. Register it on a channel to
// start receiving intents.
func NewPointStore(opts PointOptions) (*PointStore, error) {
	if opts.Gateway == nil {
		return nil, fmt.Errorf("point store requires a gateway")
	}
	if opts.Sink == nil {
		return nil, fmt.Errorf("point store requires an intent sink")
	}
	splits := opts.Splits
	if splits == 0 {
		splits = 1
	}
	if splits < 0 {
		return nil, fmt.Errorf("splits must be positive, got %d", splits)
	}
	s := &PointStore{
		ctx:       opts.Context,
		gw:        opts.Gateway,
		sink:      opts.Sink,
		api:       opts.API,
		splits:    splits,
		metrics:   opts.Metrics,
		newTicket: opts.NewTicket,
		now:       opts.Now,
		latest:    coalesce.NewLatest[pointsKey, intent.BoundsChanged](),
		parts:     make(map[int][]geo.Point),
	}
	if s.ctx == nil {
		s.ctx = context.Background()
	}
	if s.newTicket == nil {
		s.newTicket = func() string { return ulid.Make().String() }
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.snap.Store(&PointSnapshot{})
	return s, nil
}

// Handle implements intent.Handler.
func (s *PointStore) Handle(in intent.Intent) {
	switch in := in.(type) {
	case intent.BoundsChanged:
		s.onBoundsChanged(in)
	case intent.PartitionFetched:
		s.onPartitionFetched(in)
	}
}

// Snapshot returns a copy of the current read model. It never blocks on a
// fetch.
func (s *PointStore) Snapshot() PointSnapshot {
	snap := *s.snap.Load()
	snap.Points = clonePoints(snap.Points)
	return snap
}

// Subscribe registers fn to run after every change to the read model.
func (s *PointStore) Subscribe(fn func()) *Subscription {
	return s.obs.add(fn)
}

func (s *PointStore) onBoundsChanged(req intent.BoundsChanged) {
	dispatch, superseded := s.latest.Offer(pointsKey{}, req)
	if superseded {
		s.metrics.Superseded()
	}
	if !dispatch {
		glog.V(1).Infof("[points] fetch in flight, queued %s", req.Bounds)
		s.publish()
		return
	}
	s.dispatch(req)
}

// dispatch sends req, or the next pending request if req turns out to be
// unusable, until one batch is in flight or nothing is left.
func (s *PointStore) dispatch(req intent.BoundsChanged) {
	for {
		tiles, err := geo.Partition(req.Bounds, req.Resolution, s.splits)
		if err == nil {
			s.send(req, tiles)
			return
		}
		glog.Warningf("[points] dropping request: %v", err)
		s.lastErr = err
		s.updated = s.now()
		next, ok := s.latest.Done(pointsKey{})
		s.publish()
		if !ok {
			return
		}
		req = next
	}
}

func (s *PointStore) send(req intent.BoundsChanged, tiles []geo.Tile) {
	b := &batch{
		ticket:   s.newTicket(),
		parts:    len(tiles),
		resolved: make(map[int]bool, len(tiles)),
	}
	s.current = b
	s.bounds = req.Bounds
	s.lastErr = nil
	s.metrics.BatchDispatched()
	glog.V(1).Infof("[points] batch %s: %d tiles over %s", b.ticket, len(tiles), req.Bounds)
	s.publish()

	for _, tile := range tiles {
		part := tile.Index
		ticket := b.ticket
		s.gw.Request(s.ctx, s.api.PointsRequest(tile), func(res gateway.Result) {
			points, err := pilot.DecodePoints(res)
			s.sink.Submit(intent.PartitionFetched{Ticket: ticket, Part: part, Points: points, Err: err})
		})
	}
}

func (s *PointStore) onPartitionFetched(res intent.PartitionFetched) {
	b := s.current
	if b == nil || res.Ticket != b.ticket {
		glog.V(1).Infof("[points] ignoring part %d of stale batch %s", res.Part, res.Ticket)
		return
	}
	if res.Part < 0 || res.Part >= b.parts {
		glog.Errorf("[points] batch %s: part %d out of range [0,%d)", b.ticket, res.Part, b.parts)
		return
	}

	if res.Err != nil {
		glog.Warningf("[points] batch %s part %d failed: %v", b.ticket, res.Part, res.Err)
		delete(s.parts, res.Part)
		s.lastErr = res.Err
		s.metrics.PartitionResult(false)
	} else {
		glog.V(2).Infof("[points] batch %s part %d: %d points", b.ticket, res.Part, len(res.Points))
		s.parts[res.Part] = clonePoints(res.Points)
		s.metrics.PartitionResult(true)
	}
	s.updated = s.now()

	b.resolved[res.Part] = true
	if len(b.resolved) < b.parts {
		s.publish()
		return
	}

	glog.V(1).Infof("[points] batch %s complete", b.ticket)
	s.current = nil
	next, ok := s.latest.Done(pointsKey{})
	if !ok {
		s.publish()
		return
	}
	s.dispatch(next)
}

// publish swaps in a fresh snapshot and notifies observers.
func (s *PointStore) publish() {
	_, queued := s.latest.Pending(pointsKey{})
	snap := &PointSnapshot{
		Points:      flatten(s.parts),
		Parts:       len(s.parts),
		Bounds:      s.bounds,
		Fetching:    s.latest.InFlight(pointsKey{}),
		Queued:      queued,
		LastUpdated: s.updated,
		LastError:   s.lastErr,
	}
	s.snap.Store(snap)
	s.obs.notify()
}

func flatten(parts map[int][]geo.Point) []geo.Point {
	if len(parts) == 0 {
		return nil
	}
	indexes := make([]int, 0, len(parts))
	total := 0
	for idx, pts := range parts {
		indexes = append(indexes, idx)
		total += len(pts)
	}
	sort.Ints(indexes)

	seen := make(map[string]struct{}, total)
	out := make([]geo.Point, 0, total)
	for _, idx := range indexes {
		for _, p := range parts[idx] {
			key := p.Key()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}

func clonePoints(points []geo.Point) []geo.Point {
	if len(points) == 0 {
		return nil
	}
	dup := make([]geo.Point, len(points))
	copy(dup, points)
	return dup
}
