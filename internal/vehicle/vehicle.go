// Package vehicle declares the narrow contracts between the control core and
// the simulator transport: fetching named feedback values, writing named
// outputs, and discovering live instances. The transport itself lives outside
// this module; internal/testbed provides an in-process implementation.
package vehicle

import (
	"context"

	"github.com/san-kum/skypilot/internal/craft"
)

// Role classifies a discovered instance. Only master instances are eligible
// for a control-loop worker.
type Role string

const (
	RoleMaster   Role = "master"
	RoleObserver Role = "observer"
)

// Instance describes one discovered, addressable vehicle. Addr is the
// instance's identity for deduplication.
type Instance struct {
	Addr     string `json:"addr"`
	Role     Role   `json:"role"`
	HostKind string `json:"host_kind"`
}

// Output is one (field, value) pair flushed to the vehicle.
type Output struct {
	Field craft.Field
	Value float64
}

// FeedbackSource returns the most recently received value for each requested
// field, plus the vehicle's current time. Fields with no value yet are simply
// absent from the returned map, never zero-filled.
type FeedbackSource interface {
	FetchFeedback(ctx context.Context, inst Instance, fields []craft.Field) (map[craft.Field]float64, float64, error)
}

// CommandSink writes outputs to the vehicle in one best-effort round. A
// failure surfaces to the calling tick; the core never retries internally.
type CommandSink interface {
	WriteOutputs(ctx context.Context, inst Instance, outs []Output) error
}

// Discovery lists the currently discoverable instances, masters and
// otherwise.
type Discovery interface {
	ListInstances(ctx context.Context) ([]Instance, error)
}
