// Package config loads the pilotdeck configuration file.
//
// # Overview
//
// The configuration tells pilotdeck where the autopilot daemon listens, how
// often to poll it, how finely to split map fetches, and which map area to
// show at startup.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/pilotdeck/config.toml
//  3. If the config file doesn't exist, fall back to Default()
//  4. If the file exists but fields are missing or blank, use defaults
//
// # Default Values
//
//   - api_bind: 127.0.0.1:8000
//   - api_prefix: /api
//   - splits: 1 (a single points request per viewport)
//   - poll_interval: 2s
//   - request_timeout: 5s
//   - metrics_addr: unset (no metrics listener)
//   - viewport: 44.5..45.5 N, 4.5..5.5 E at 600x800
//
// # TOML Format
//
//	api_bind = "boat.local:8000"
//	splits = 2
//	poll_interval = "1s"
//	metrics_addr = ":9100"
//
//	[viewport]
//	min_lat = 47.2
//	max_lat = 47.6
//	min_lng = -3.2
//	max_lng = -2.6
//	vert_def = 600
//	horiz_def = 800
//
// Viewport keys may be given individually; the rest keep their defaults.
//
// # Error Handling
//
// Load returns errors for:
//   - Path expansion failures (e.g., cannot determine home directory)
//   - File read errors (except os.ErrNotExist, which triggers defaults)
//   - TOML parsing errors
//   - splits outside 1..16, unparsable or non-positive durations
//   - a viewport that cannot be partitioned (wraps geo.ErrInvalidPartition)
//
// Missing config files are NOT an error. pilotdeck works against a local
// daemon on the default port without any configuration.
//
// # Usage Example
//
//	cfg, err := config.Load("")
//	if err != nil {
//		glog.Exitf("load config: %v", err)
//	}
//	client := gateway.NewClient(cfg.APIBind, gateway.WithTimeout(cfg.RequestTimeout))
package config
