package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang/glog"

	"github.com/five82/pilotdeck/internal/config"
	"github.com/five82/pilotdeck/internal/gateway"
	"github.com/five82/pilotdeck/internal/intent"
	"github.com/five82/pilotdeck/internal/metrics"
	"github.com/five82/pilotdeck/internal/pilot"
	"github.com/five82/pilotdeck/internal/prefs"
	"github.com/five82/pilotdeck/internal/ui"
)

// Options configure the pilotdeck application. Zero values defer to the
// config file.
type Options struct {
	ConfigPath   string
	PrefsPath    string // empty uses default ~/.config/pilotdeck/prefs.toml
	APIBind      string
	Splits       int
	PollInterval time.Duration
	MetricsAddr  string
}

// Run boots the dashboard until the user quits or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyOverrides(&cfg, opts)

	userPrefs, _ := prefs.Load(opts.PrefsPath)

	m := metrics.New()
	client, err := gateway.NewClient(cfg.APIBind,
		gateway.WithTimeout(cfg.RequestTimeout),
		gateway.WithObserver(m.ObserveRequest),
	)
	if err != nil {
		return fmt.Errorf("init gateway: %w", err)
	}

	core, err := NewCore(ctx, CoreOptions{
		Gateway: client,
		API:     pilot.NewAPI(cfg.APIPrefix),
		Splits:  cfg.Splits,
		Metrics: m,
	})
	if err != nil {
		return err
	}
	glog.Infof("pilotdeck: daemon %s%s, %dx%d partitions, polling every %s",
		cfg.APIBind, cfg.APIPrefix, cfg.Splits, cfg.Splits, cfg.PollInterval)

	if cfg.MetricsAddr != "" {
		serveMetrics(ctx, cfg.MetricsAddr, m)
	}

	StartPoller(ctx, core.Channel, core.Failures, cfg.PollInterval)
	core.Channel.Submit(intent.BoundsChanged{Bounds: cfg.Viewport.Bounds, Resolution: cfg.Viewport.Resolution})

	return ui.Run(ui.Options{
		Context:   ctx,
		Sink:      core.Channel,
		Points:    core.Points,
		Control:   core.Control,
		Viewport:  cfg.Viewport,
		Prefs:     userPrefs,
		PrefsPath: opts.PrefsPath,
		DaemonURL: cfg.APIBind,
	})
}

func applyOverrides(cfg *config.Config, opts Options) {
	if opts.APIBind != "" {
		cfg.APIBind = opts.APIBind
	}
	if opts.Splits > 0 {
		cfg.Splits = opts.Splits
	}
	if opts.PollInterval > 0 {
		cfg.PollInterval = opts.PollInterval
	}
	if opts.MetricsAddr != "" {
		cfg.MetricsAddr = opts.MetricsAddr
	}
}

// serveMetrics exposes m on addr until ctx is done. Listen errors are logged,
// not fatal: the dashboard is still useful without metrics.
func serveMetrics(ctx context.Context, addr string, m *metrics.Metrics) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		glog.Infof("metrics listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			glog.Errorf("metrics server: %v", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}
