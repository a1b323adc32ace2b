// Package app is the composition root for pilotdeck.
//
// Run loads config.toml and prefs.toml, builds the HTTP gateway and metrics
// registry, then wires a Core: one intent.Channel with the PointStore and
// ControlStore registered on it, in that order. It starts the poller, seeds
// the map with the configured viewport and hands the stores to the UI.
//
//	Run()
//	 ├─> config.Load()         daemon address, splits, viewport
//	 ├─> gateway.NewClient()   HTTP transport, observed by metrics
//	 ├─> NewCore()             channel + stores
//	 ├─> serveMetrics()        optional /metrics endpoint
//	 ├─> StartPoller()         Query autopilot + dashboard every tick
//	 └─> ui.Run()              blocks until quit or ctx is done
//
// # Polling
//
// The poller submits queries; it never waits for answers. While the control
// store reports consecutive failures the interval doubles per failure, up
// to 30 seconds, and drops back as soon as a read succeeds.
//
// Nothing here is package-global: tests build several Cores side by side
// against the simulator in internal/sim.
package app
