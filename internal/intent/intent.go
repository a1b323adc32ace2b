// Package intent defines the messages exchanged between the UI, the poller
// and the stores, and the Channel that delivers them.
package intent

import (
	"fmt"

	"github.com/five82/pilotdeck/internal/geo"
	"github.com/five82/pilotdeck/internal/pilot"
)

// Kind groups intents by what they mean to the stores.
type Kind int

const (
	KindStatusQuery Kind = iota + 1
	KindStatusUpdate
	KindUserCommand
	KindBoundsChanged
	KindPartitionUpdate
)

func (k Kind) String() string {
	switch k {
	case KindStatusQuery:
		return "status-query"
	case KindStatusUpdate:
		return "status-update"
	case KindUserCommand:
		return "user-command"
	case KindBoundsChanged:
		return "bounds-changed"
	case KindPartitionUpdate:
		return "partition-update"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Intent is a message submitted to the Channel. The set of implementations
// is closed: only types in this package satisfy it.
type Intent interface {
	Kind() Kind
	sealed()
}

// Resource names a singleton remote resource polled by the control store.
type Resource int

const (
	ResourceAutopilot Resource = iota + 1
	ResourceDashboard
)

func (r Resource) String() string {
	switch r {
	case ResourceAutopilot:
		return "autopilot"
	case ResourceDashboard:
		return "dashboard"
	default:
		return fmt.Sprintf("resource(%d)", int(r))
	}
}

// Query asks for a fresh read of a resource.
type Query struct {
	Resource Resource
}

// AutopilotFetched carries the outcome of an autopilot read. Status is
// meaningful only when Err is nil.
type AutopilotFetched struct {
	Status pilot.AutopilotStatus
	Err    error
}

// DashboardFetched carries the outcome of a dashboard read.
type DashboardFetched struct {
	Dashboard pilot.Dashboard
	Err       error
}

// ChangeAutopilot is a user request to change the autopilot state.
type ChangeAutopilot struct {
	Control pilot.Control
}

// AutopilotChanged reports that a ChangeAutopilot write finished.
type AutopilotChanged struct {
	Control pilot.Control
	Err     error
}

// BoundsChanged reports a new viewport to fetch points for.
type BoundsChanged struct {
	Bounds     geo.Bounds
	Resolution geo.Resolution
}

// PartitionFetched carries the outcome of one tile of a point fetch.
type PartitionFetched struct {
	Ticket string
	Part   int
	Points []geo.Point
	Err    error
}

func (Query) Kind() Kind            { return KindStatusQuery }
func (AutopilotFetched) Kind() Kind { return KindStatusUpdate }
func (DashboardFetched) Kind() Kind { return KindStatusUpdate }
func (ChangeAutopilot) Kind() Kind  { return KindUserCommand }
func (AutopilotChanged) Kind() Kind { return KindUserCommand }
func (BoundsChanged) Kind() Kind    { return KindBoundsChanged }
func (PartitionFetched) Kind() Kind { return KindPartitionUpdate }

func (Query) sealed()            {}
func (AutopilotFetched) sealed() {}
func (DashboardFetched) sealed() {}
func (ChangeAutopilot) sealed()  {}
func (AutopilotChanged) sealed() {}
func (BoundsChanged) sealed()    {}
func (PartitionFetched) sealed() {}
