// Package store holds the two read models the dashboard renders: the map
// points (PointStore) and the autopilot/dashboard records (ControlStore).
//
// # Overview
//
// Stores are intent handlers. They are registered on an intent.Channel,
// which serializes every call to Handle, so the handler-owned fields need no
// locking. Network I/O never happens inside Handle: requests go out through
// a gateway.Gateway and their completions come back as new intents
// submitted to the same channel.
//
//	 UI / poller                 Channel                    Store
//	┌────────────┐  Submit   ┌──────────────┐  Handle   ┌───────────────┐
//	│ Query      │──────────→│ FIFO, one at │──────────→│ start request │
//	│ Bounds...  │           │ a time       │           │ publish()     │
//	└────────────┘           └──────────────┘           └──────┬────────┘
//	                                ↑                          │ Gateway.Request
//	                                │ AutopilotFetched,        ↓
//	                                │ PartitionFetched...  ┌────────────┐
//	                                └──────────────────────│ completion │
//	                                                       └────────────┘
//
// # Snapshots
//
// Every state change ends in publish(), which stores a fresh snapshot behind
// an atomic pointer and calls the subscribers. Snapshot() may be called from
// any goroutine and returns a deep copy, so readers can keep or mutate what
// they get.
//
// Subscribers run synchronously on the delivering goroutine. They should do
// no more than signal another goroutine; calling back into the channel from
// a subscriber is allowed but only queues.
//
// # Coalescing
//
// PointStore keeps one partitioned fetch in flight. A BoundsChanged that
// arrives meanwhile is parked, and each newer one replaces it; when the
// batch finishes the parked request is dispatched. Each batch carries a ULID
// ticket so parts of an older batch are recognized and ignored.
//
// ControlStore drops a Query for a resource that is already being fetched.
// An autopilot change is always followed by a fresh autopilot read; if a
// read is running at that point, one more is issued when it returns.
//
// # Failures
//
// Gateway failures never escape a store. A failed autopilot or dashboard
// read clears the record and marks it StatusKO; a failed tile clears that
// tile's points. LastError and ConsecutiveFailures let the UI explain why.
// ConsecutiveFailures counts failed polls, taking the longer streak of the
// autopilot and dashboard reads.
package store
