// Package coalesce holds the bookkeeping used by the stores to keep at most
// one fetch in flight per key.
//
// Neither type locks: they are meant to be driven from intent handlers,
// which the intent channel already serializes.
package coalesce

// Latest allows one in-flight request per key and keeps only the most recent
// request that arrives while it runs.
type Latest[K comparable, R any] struct {
	slots map[K]*slot[R]
}

type slot[R any] struct {
	pending    R
	hasPending bool
}

// NewLatest returns an empty Latest.
func NewLatest[K comparable, R any]() *Latest[K, R] {
	return &Latest[K, R]{slots: make(map[K]*slot[R])}
}

// Offer registers r for k. dispatch is true when k was idle and r must be
// sent now. Otherwise r becomes the pending request; superseded reports
// whether it replaced an older pending one.
func (l *Latest[K, R]) Offer(k K, r R) (dispatch, superseded bool) {
	s, busy := l.slots[k]
	if !busy {
		l.slots[k] = &slot[R]{}
		return true, false
	}
	superseded = s.hasPending
	s.pending = r
	s.hasPending = true
	return false, superseded
}

// Done marks the in-flight request for k finished. When a request is
// pending it is handed back with ok true and k stays in flight; the caller
// must dispatch it. Otherwise k goes idle.
func (l *Latest[K, R]) Done(k K) (next R, ok bool) {
	s, busy := l.slots[k]
	if !busy {
		return next, false
	}
	if !s.hasPending {
		delete(l.slots, k)
		return next, false
	}
	next = s.pending
	var zero R
	s.pending = zero
	s.hasPending = false
	return next, true
}

// InFlight reports whether a request for k is running.
func (l *Latest[K, R]) InFlight(k K) bool {
	_, busy := l.slots[k]
	return busy
}

// Pending returns the request queued behind the in-flight one, if any.
func (l *Latest[K, R]) Pending(k K) (R, bool) {
	s, busy := l.slots[k]
	if !busy || !s.hasPending {
		var zero R
		return zero, false
	}
	return s.pending, true
}

// Guard allows one in-flight request per key and drops the rest.
type Guard[K comparable] struct {
	busy map[K]struct{}
}

// NewGuard returns an empty Guard.
func NewGuard[K comparable]() *Guard[K] {
	return &Guard[K]{busy: make(map[K]struct{})}
}

// Begin claims k. It returns false when k is already in flight.
func (g *Guard[K]) Begin(k K) bool {
	if _, ok := g.busy[k]; ok {
		return false
	}
	g.busy[k] = struct{}{}
	return true
}

// End releases k.
func (g *Guard[K]) End(k K) {
	delete(g.busy, k)
}

// Busy reports whether k is in flight.
func (g *Guard[K]) Busy(k K) bool {
	_, ok := g.busy[k]
	return ok
}
