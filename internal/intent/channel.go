package intent

import (
	"sync"

	"github.com/golang/glog"
)

// Handler receives every intent submitted to a Channel.
type Handler interface {
	Handle(Intent)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(Intent)

// Handle calls f(in).
func (f HandlerFunc) Handle(in Intent) { f(in) }

// Channel delivers intents to its handlers one at a time, in submission
// order, in registration order. Handlers never run concurrently with each
// other.
//
// The goroutine that finds the channel idle becomes the deliverer and drains
// the queue before Submit returns. A Submit made while delivery is already
// running (from a handler, or from another goroutine) appends to the queue
// and returns at once; the running deliverer picks it up before it stops.
type Channel struct {
	mu         sync.Mutex
	handlers   []Handler
	queue      []Intent
	delivering bool
	observe    func(Intent)
}

// NewChannel returns an empty Channel.
func NewChannel() *Channel {
	return &Channel{}
}

// Register appends h to the delivery list.
func (c *Channel) Register(h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, h)
}

// Observe installs a hook called once per intent before handlers see it.
func (c *Channel) Observe(fn func(Intent)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observe = fn
}

// Submit queues in and, if nobody is delivering yet, delivers the queue
// before returning. If another goroutine is already delivering, Submit
// returns before in is handled; that goroutine delivers it, in order, before
// its own Submit returns. The same holds for a Submit made from a handler.
func (c *Channel) Submit(in Intent) {
	if in == nil {
		return
	}
	c.mu.Lock()
	c.queue = append(c.queue, in)
	if c.delivering {
		c.mu.Unlock()
		return
	}
	c.delivering = true
	for len(c.queue) > 0 {
		next := c.queue[0]
		c.queue[0] = nil
		c.queue = c.queue[1:]
		handlers := c.handlers
		observe := c.observe
		c.mu.Unlock()

		if observe != nil {
			observe(next)
		}
		for _, h := range handlers {
			deliver(h, next)
		}

		c.mu.Lock()
	}
	c.queue = nil
	c.delivering = false
	c.mu.Unlock()
}

// Pending returns the number of queued, undelivered intents.
func (c *Channel) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

func deliver(h Handler, in Intent) {
	defer func() {
		if r := recover(); r != nil {
			glog.Errorf("[intent] handler %T panicked on %T: %v", h, in, r)
		}
	}()
	h.Handle(in)
}
