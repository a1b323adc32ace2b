package app

import (
	"context"
	"fmt"

	"github.com/five82/pilotdeck/internal/gateway"
	"github.com/five82/pilotdeck/internal/intent"
	"github.com/five82/pilotdeck/internal/metrics"
	"github.com/five82/pilotdeck/internal/pilot"
	"github.com/five82/pilotdeck/internal/store"
)

// Core is one wired-up synchronization core: an intent channel with the
// point and control stores registered on it.
type Core struct {
	Channel *intent.Channel
	Points  *store.PointStore
	Control *store.ControlStore
	Metrics *metrics.Metrics
}

// CoreOptions configure NewCore.
type CoreOptions struct {
	Gateway gateway.Gateway
	API     pilot.API
	Splits  int
	Metrics *metrics.Metrics
}

// NewCore builds the channel and both stores. Stores are registered points
// first, then control, which fixes their delivery order.
func NewCore(ctx context.Context, opts CoreOptions) (*Core, error) {
	ch := intent.NewChannel()
	if opts.Metrics != nil {
		ch.Observe(opts.Metrics.ObserveIntent)
	}

	points, err := store.NewPointStore(store.PointOptions{
		Context: ctx,
		Gateway: opts.Gateway,
		Sink:    ch,
		API:     opts.API,
		Splits:  opts.Splits,
		Metrics: opts.Metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("init point store: %w", err)
	}
	control, err := store.NewControlStore(store.ControlOptions{
		Context: ctx,
		Gateway: opts.Gateway,
		Sink:    ch,
		API:     opts.API,
		Metrics: opts.Metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("init control store: %w", err)
	}

	ch.Register(points)
	ch.Register(control)
	return &Core{Channel: ch, Points: points, Control: control, Metrics: opts.Metrics}, nil
}

// Failures reports the control store's consecutive failure count, for the
// poller.
func (c *Core) Failures() int {
	return c.Control.Snapshot().ConsecutiveFailures
}
