package app

import (
	"context"
	"time"

	"github.com/golang/glog"

	"github.com/five82/pilotdeck/internal/intent"
	"github.com/five82/pilotdeck/internal/store"
)

const (
	defaultPollInterval = 2 * time.Second
	maxBackoff          = 30 * time.Second
)

// StartPoller launches a background goroutine that asks for fresh autopilot
// and dashboard records at a fixed cadence, backing off while the daemon
// keeps failing. failures reports the current consecutive failure count. It
// returns immediately; the goroutine exits when ctx is cancelled.
func StartPoller(ctx context.Context, sink store.Submitter, failures func() int, interval time.Duration) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	go func() {
		timer := time.NewTimer(0)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}

			poll(sink)

			n := 0
			if failures != nil {
				n = failures()
			}
			wait := calculateBackoff(n, interval)
			if wait != interval {
				glog.V(1).Infof("[poller] %d consecutive failures, next poll in %s", n, wait)
			}
			timer.Reset(wait)
		}
	}()
}

func poll(sink store.Submitter) {
	sink.Submit(intent.Query{Resource: intent.ResourceAutopilot})
	sink.Submit(intent.Query{Resource: intent.ResourceDashboard})
}

// calculateBackoff doubles base once per failure, capped at maxBackoff. A
// base already at or above the cap is never shortened.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 || base >= maxBackoff {
		return base
	}
	wait := base
	for i := 0; i < failures; i++ {
		wait *= 2
		if wait >= maxBackoff {
			return maxBackoff
		}
	}
	return wait
}
