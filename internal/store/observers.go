package store

import (
	"sync"
	"sync/atomic"

	"github.com/five82/pilotdeck/internal/intent"
)

// Submitter is where stores send the intents produced by gateway
// completions. *intent.Channel satisfies it.
type Submitter interface {
	Submit(intent.Intent)
}

// Subscription is returned by Subscribe. Cancel stops future callbacks and
// may be called any number of times.
type Subscription struct {
	active atomic.Bool
	once   sync.Once
	remove func()
}

// Cancel unregisters the callback.
func (s *Subscription) Cancel() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		s.active.Store(false)
		s.remove()
	})
}

type observer struct {
	id  uint64
	fn  func()
	sub *Subscription
}

// observers is a small ordered callback list.
type observers struct {
	mu     sync.Mutex
	nextID uint64
	list   []observer
}

func (o *observers) add(fn func()) *Subscription {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.nextID++
	id := o.nextID
	sub := &Subscription{}
	sub.active.Store(true)
	sub.remove = func() { o.removeID(id) }
	o.list = append(o.list, observer{id: id, fn: fn, sub: sub})
	return sub
}

func (o *observers) removeID(id uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, ob := range o.list {
		if ob.id == id {
			o.list = append(o.list[:i:i], o.list[i+1:]...)
			return
		}
	}
}

// notify calls every live callback in subscription order, outside the lock
// so callbacks may subscribe or cancel.
func (o *observers) notify() {
	o.mu.Lock()
	list := make([]observer, len(o.list))
	copy(list, o.list)
	o.mu.Unlock()

	for _, ob := range list {
		if ob.sub.active.Load() {
			ob.fn()
		}
	}
}

func (o *observers) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.list)
}
