// pilotsim serves a simulated autopilot daemon for local development.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang/glog"
	"github.com/spf13/pflag"

	"github.com/five82/pilotdeck/internal/sim"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		addr      string
		prefix    string
		traceSize int
		tick      time.Duration
		seed      int64
		boat      sim.BoatOptions
		failRate  float64
		debug     bool
	)
	flagSet := pflag.NewFlagSet("pilotsim", pflag.ContinueOnError)
	flagSet.StringVar(&addr, "addr", "127.0.0.1:8000", "listen address")
	flagSet.StringVar(&prefix, "prefix", "/api", "API mount point")
	flagSet.IntVar(&traceSize, "trace-size", 4096, "number of track fixes kept")
	flagSet.DurationVar(&tick, "tick", time.Second, "simulation step")
	flagSet.Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	flagSet.Float64Var(&boat.Lat, "lat", 45, "starting latitude")
	flagSet.Float64Var(&boat.Lng, "lng", 5, "starting longitude")
	flagSet.Float64Var(&boat.Course, "course", 90, "starting course in degrees")
	flagSet.Float64Var(&boat.Speed, "speed", 4, "starting speed in knots")
	flagSet.Float64Var(&failRate, "fail-rate", 0, "fraction of API requests answered with 503")
	flagSet.BoolVar(&debug, "debug", false, "gin debug logging")
	flagSet.AddGoFlagSet(flag.CommandLine)

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		fmt.Fprintf(os.Stderr, "pilotsim: %v\n", err)
		return 2
	}
	defer glog.Flush()

	if failRate < 0 || failRate > 1 {
		fmt.Fprintf(os.Stderr, "pilotsim: --fail-rate must be between 0 and 1\n")
		return 2
	}
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	boat.Seed = seed
	srv := sim.NewServer(sim.Options{
		Prefix:   prefix,
		Boat:     sim.NewBoat(boat),
		Tracer:   sim.NewTracer(traceSize),
		FailRate: failRate,
		Seed:     seed,
	})
	go srv.Run(ctx, tick)

	glog.Infof("pilotsim listening on %s%s", addr, prefix)
	if err := srv.ListenAndServe(ctx, addr); err != nil {
		glog.Errorf("pilotsim: %v", err)
		fmt.Fprintf(os.Stderr, "pilotsim: %v\n", err)
		return 1
	}
	return 0
}
