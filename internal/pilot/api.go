// Package pilot describes the autopilot daemon's HTTP API.
package pilot

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/five82/pilotdeck/internal/gateway"
	"github.com/five82/pilotdeck/internal/geo"
)

// DefaultPrefix is where the autopilot daemon mounts its API.
const DefaultPrefix = "/api"

// API builds gateway requests for the autopilot daemon and decodes the
// answers.
type API struct {
	prefix string
}

// NewAPI returns an API rooted at prefix ("/api" when blank).
func NewAPI(prefix string) API {
	p := strings.TrimRight(strings.TrimSpace(prefix), "/")
	if p == "" {
		p = DefaultPrefix
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return API{prefix: p}
}

// Prefix returns the mount point requests are built under.
func (a API) Prefix() string {
	if a.prefix == "" {
		return DefaultPrefix
	}
	return a.prefix
}

func (a API) path(name string) string {
	return a.Prefix() + "/" + name
}

// AutopilotRequest reads the autopilot state.
func (a API) AutopilotRequest() gateway.Request {
	return gateway.Request{Method: http.MethodGet, Path: a.path("autopilot")}
}

// SetAutopilotRequest changes the autopilot state.
func (a API) SetAutopilotRequest(c Control) gateway.Request {
	return gateway.Request{Method: http.MethodPut, Path: a.path("autopilot"), Body: c}
}

// DashboardRequest reads the alarm LEDs.
func (a API) DashboardRequest() gateway.Request {
	return gateway.Request{Method: http.MethodGet, Path: a.path("dashboard")}
}

// PointsRequest reads the track points inside one tile.
func (a API) PointsRequest(tile geo.Tile) gateway.Request {
	return gateway.Request{Method: http.MethodGet, Path: a.path("points"), Query: PointsQuery(tile)}
}

// PointsQuery encodes a tile as the points endpoint expects it.
func PointsQuery(tile geo.Tile) url.Values {
	v := url.Values{}
	v.Set("vertDef", formatFloat(tile.Resolution.Vert))
	v.Set("horizDef", formatFloat(tile.Resolution.Horiz))
	v.Set("minLat", formatFloat(tile.Bounds.MinLat))
	v.Set("maxLat", formatFloat(tile.Bounds.MaxLat))
	v.Set("minLong", formatFloat(tile.Bounds.MinLng))
	v.Set("maxLong", formatFloat(tile.Bounds.MaxLng))
	return v
}

// ParsePointsQuery is the inverse of PointsQuery. Missing resolution values
// are zero; missing or malformed bounds are an error.
func ParsePointsQuery(v url.Values) (geo.Bounds, geo.Resolution, error) {
	var (
		b   geo.Bounds
		res geo.Resolution
		err error
	)
	fields := []struct {
		name string
		dst  *float64
	}{
		{"minLat", &b.MinLat},
		{"maxLat", &b.MaxLat},
		{"minLong", &b.MinLng},
		{"maxLong", &b.MaxLng},
	}
	for _, f := range fields {
		if *f.dst, err = strconv.ParseFloat(v.Get(f.name), 64); err != nil {
			return geo.Bounds{}, geo.Resolution{}, &QueryError{Param: f.name, Err: err}
		}
	}
	res.Vert, _ = strconv.ParseFloat(v.Get("vertDef"), 64)
	res.Horiz, _ = strconv.ParseFloat(v.Get("horizDef"), 64)
	return b, res, nil
}

// QueryError reports a bad points query parameter.
type QueryError struct {
	Param string
	Err   error
}

func (e *QueryError) Error() string { return "invalid " + e.Param + ": " + e.Err.Error() }
func (e *QueryError) Unwrap() error { return e.Err }

// DecodeAutopilot decodes a GET /api/autopilot result.
func DecodeAutopilot(res gateway.Result) (AutopilotStatus, error) {
	return gateway.Decode[AutopilotStatus](res)
}

// DecodeDashboard decodes a GET /api/dashboard result. A JSON null body
// decodes to an empty, non-nil Dashboard.
func DecodeDashboard(res gateway.Result) (Dashboard, error) {
	d, err := gateway.Decode[Dashboard](res)
	if err != nil {
		return nil, err
	}
	if d == nil {
		d = Dashboard{}
	}
	return d, nil
}

// DecodePoints decodes a GET /api/points result into map points.
func DecodePoints(res gateway.Result) ([]geo.Point, error) {
	wire, err := gateway.Decode[[]WirePoint](res)
	if err != nil {
		return nil, err
	}
	points := make([]geo.Point, len(wire))
	for i, w := range wire {
		points[i] = w.Point()
	}
	return points, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
