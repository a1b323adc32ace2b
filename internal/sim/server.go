// Package sim serves a simulated autopilot daemon over the same HTTP API the
// real boat exposes, for local development and integration tests.
package sim

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/five82/pilotdeck/internal/pilot"
)

// Options configure a Server.
type Options struct {
	Prefix string // API mount point, "/api" when blank
	Boat   *Boat
	Tracer *Tracer
	// FailRate is the fraction of API requests answered with 503.
	FailRate float64
	Seed     int64
}

// Server is the simulated daemon.
type Server struct {
	boat     *Boat
	tracer   *Tracer
	prefix   string
	failRate float64

	rngMu sync.Mutex
	rng   *rand.Rand

	registry *prometheus.Registry
	requests *prometheus.CounterVec
}

type wirePoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Weight    float64 `json:"weight"`
}

// NewServer builds a server around opts.Boat and opts.Tracer, creating
// defaults for whichever is nil.
func NewServer(opts Options) *Server {
	boat := opts.Boat
	if boat == nil {
		boat = NewBoat(BoatOptions{Lat: 45, Lng: 5, Speed: 4, Seed: opts.Seed})
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = NewTracer(4096)
	}
	reg := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pilotsim",
		Name:      "requests_total",
		Help:      "API requests served, by route and status code.",
	}, []string{"route", "code"})
	reg.MustRegister(requests)

	api := pilot.NewAPI(opts.Prefix)
	return &Server{
		boat:     boat,
		tracer:   tracer,
		prefix:   api.Prefix(),
		failRate: opts.FailRate,
		rng:      rand.New(rand.NewSource(opts.Seed)),
		registry: reg,
		requests: requests,
	}
}

// Router returns the gin engine serving the API and /metrics.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.count)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	g := r.Group(s.prefix)
	g.Use(s.faults)
	g.GET("/autopilot", s.getAutopilot)
	g.PUT("/autopilot", s.putAutopilot)
	g.GET("/dashboard", s.getDashboard)
	g.GET("/points", s.getPoints)
	return r
}

// Run advances the boat every tick and records its track until ctx is done.
func (s *Server) Run(ctx context.Context, tick time.Duration) {
	if tick <= 0 {
		tick = time.Second
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			lat, lng := s.boat.Step(tick)
			s.tracer.Add(Fix{Lat: lat, Lng: lng, Time: now})
		}
	}
}

// ListenAndServe serves the router on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Router(), ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) count(c *gin.Context) {
	c.Next()
	route := c.FullPath()
	if route == "" {
		route = "unmatched"
	}
	s.requests.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
}

func (s *Server) faults(c *gin.Context) {
	if s.failRate <= 0 {
		c.Next()
		return
	}
	s.rngMu.Lock()
	fail := s.rng.Float64() < s.failRate
	s.rngMu.Unlock()
	if fail {
		glog.V(1).Infof("[sim] injecting failure on %s %s", c.Request.Method, c.Request.URL.Path)
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "simulated outage"})
		return
	}
	c.Next()
}

func (s *Server) getAutopilot(c *gin.Context) {
	c.JSON(http.StatusOK, s.boat.Status())
}

func (s *Server) putAutopilot(c *gin.Context) {
	var ctl pilot.Control
	if err := c.ShouldBindJSON(&ctl); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	glog.Infof("[sim] autopilot enabled=%v offset=%.1f", ctl.Enabled, ctl.HeadingOffset)
	s.boat.Apply(ctl)
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

func (s *Server) getDashboard(c *gin.Context) {
	c.JSON(http.StatusOK, s.boat.Alarms())
}

func (s *Server) getPoints(c *gin.Context) {
	bounds, res, err := pilot.ParsePointsQuery(c.Request.URL.Query())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	heat := s.tracer.Heat(bounds, res)
	out := make([]wirePoint, len(heat))
	for i, p := range heat {
		out[i] = wirePoint{Latitude: p.Lat, Longitude: p.Lng, Weight: p.Weight}
	}
	c.JSON(http.StatusOK, out)
}
