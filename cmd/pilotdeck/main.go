// pilotdeck is a terminal dashboard for a boat autopilot daemon: heading
// control, alarm LEDs and a heat map of the recorded track.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang/glog"
	"github.com/spf13/pflag"

	"github.com/five82/pilotdeck/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	var opts app.Options
	flagSet := pflag.NewFlagSet("pilotdeck", pflag.ContinueOnError)
	flagSet.StringVar(&opts.ConfigPath, "config", "", "config file (default ~/.config/pilotdeck/config.toml)")
	flagSet.StringVar(&opts.PrefsPath, "prefs", "", "UI preferences file (default ~/.config/pilotdeck/prefs.toml)")
	flagSet.StringVar(&opts.APIBind, "api", "", "autopilot daemon host:port (overrides config)")
	flagSet.IntVar(&opts.Splits, "splits", 0, "partition the map into NxN parallel fetches (overrides config)")
	flagSet.DurationVar(&opts.PollInterval, "poll", 0, "autopilot refresh interval (overrides config)")
	flagSet.StringVar(&opts.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	flagSet.AddGoFlagSet(flag.CommandLine)

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		fmt.Fprintf(os.Stderr, "pilotdeck: %v\n", err)
		return 2
	}
	defer glog.Flush()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Run(ctx, opts); err != nil {
		glog.Errorf("pilotdeck: %v", err)
		fmt.Fprintf(os.Stderr, "pilotdeck: %v\n", err)
		return 1
	}
	return 0
}
