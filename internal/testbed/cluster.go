// Package testbed is an in-process stand-in for the simulator network: a
// cluster of simulated aircraft that implements the vehicle contracts
// (discovery, feedback fetch, output write) so the autopilot can run
// end-to-end without the external transport.
package testbed

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/san-kum/skypilot/internal/craft"
	"github.com/san-kum/skypilot/internal/vehicle"
)

// ErrUnknownInstance indicates a fetch or write for an address the cluster
// does not host.
var ErrUnknownInstance = errors.New("testbed: unknown instance")

// Aircraft is one simulated vehicle. Safe for concurrent use: the cluster's
// physics goroutine steps it while a control-loop worker fetches and writes.
type Aircraft struct {
	inst  vehicle.Instance
	dyn   *Lateral
	integ *RK4

	mu      sync.Mutex
	x       State
	aileron float64
	rudder  float64
	t       float64
}

func newAircraft(addr string, headingDeg float64) *Aircraft {
	x := make(State, stateDim)
	x[iHeading] = headingDeg
	return &Aircraft{
		inst:  vehicle.Instance{Addr: addr, Role: vehicle.RoleMaster, HostKind: "sim"},
		dyn:   NewLateral(),
		integ: NewRK4(),
		x:     x,
	}
}

// Step advances the airframe by dt seconds.
func (a *Aircraft) Step(dt float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	u := Control{a.aileron, a.rudder}
	a.x = a.integ.Step(a.dyn, a.x, u, a.t, dt)
	a.x[iHeading] = math.Mod(a.x[iHeading]+360, 360)
	a.t += dt
}

// Cruise values reported alongside the lateral state. Altitude and airspeed
// hold are stub modes, so these stay constant.
const (
	cruiseAirspeedKt = 68
	cruiseAltitudeFt = 3000
)

func (a *Aircraft) feedback(fields []craft.Field) (map[craft.Field]float64, float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	all := map[craft.Field]float64{
		craft.HeadingDeg:  a.x[iHeading],
		craft.RollDeg:     a.x[iRoll],
		craft.SideslipDeg: a.x[iSideslip],
		craft.AirspeedKt:  cruiseAirspeedKt,
		craft.AltitudeFt:  cruiseAltitudeFt,
	}
	out := make(map[craft.Field]float64, len(fields))
	for _, f := range fields {
		if v, ok := all[f]; ok {
			out[f] = v
		}
	}
	return out, a.t
}

func (a *Aircraft) apply(outs []vehicle.Output) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, o := range outs {
		v := math.Max(-1, math.Min(1, o.Value))
		switch o.Field {
		case craft.AileronTrim:
			a.aileron = v
		case craft.RudderTrim:
			a.rudder = v
		}
		// Setpoint echoes like target-roll-deg are accepted and dropped,
		// as the real simulator does for non-actuator properties.
	}
}

// HeadingDeg returns the current heading for tests and the live view.
func (a *Aircraft) HeadingDeg() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.x[iHeading]
}

// RollDeg returns the current bank angle.
func (a *Aircraft) RollDeg() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.x[iRoll]
}

// Cluster hosts n simulated aircraft plus one observer descriptor, which the
// supervisor must skip.
type Cluster struct {
	order    []string
	aircraft map[string]*Aircraft
}

func NewCluster(n int) *Cluster {
	c := &Cluster{aircraft: make(map[string]*Aircraft)}
	for i := 0; i < n; i++ {
		addr := fmt.Sprintf("sim-%02d:5500", i+1)
		// Spread initial headings so instances are visibly independent.
		c.aircraft[addr] = newAircraft(addr, float64((i*120)%360))
		c.order = append(c.order, addr)
	}
	return c
}

// Aircraft returns the simulated vehicle at addr, or nil.
func (c *Cluster) Aircraft(addr string) *Aircraft {
	return c.aircraft[addr]
}

// Run steps all aircraft at the given period until ctx ends.
func (c *Cluster) Run(ctx context.Context, dt time.Duration) error {
	ticker := time.NewTicker(dt)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.StepAll(dt.Seconds())
		}
	}
}

// StepAll advances every aircraft by dt seconds.
func (c *Cluster) StepAll(dt float64) {
	for _, addr := range c.order {
		c.aircraft[addr].Step(dt)
	}
}

// ListInstances implements vehicle.Discovery.
func (c *Cluster) ListInstances(ctx context.Context) ([]vehicle.Instance, error) {
	out := make([]vehicle.Instance, 0, len(c.order)+1)
	for _, addr := range c.order {
		out = append(out, c.aircraft[addr].inst)
	}
	out = append(out, vehicle.Instance{Addr: "viewer-01:5500", Role: vehicle.RoleObserver, HostKind: "sim"})
	return out, nil
}

// FetchFeedback implements vehicle.FeedbackSource.
func (c *Cluster) FetchFeedback(ctx context.Context, inst vehicle.Instance, fields []craft.Field) (map[craft.Field]float64, float64, error) {
	a, ok := c.aircraft[inst.Addr]
	if !ok {
		return nil, 0, fmt.Errorf("%w: %s", ErrUnknownInstance, inst.Addr)
	}
	values, t := a.feedback(fields)
	return values, t, nil
}

// WriteOutputs implements vehicle.CommandSink.
func (c *Cluster) WriteOutputs(ctx context.Context, inst vehicle.Instance, outs []vehicle.Output) error {
	a, ok := c.aircraft[inst.Addr]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownInstance, inst.Addr)
	}
	a.apply(outs)
	return nil
}
