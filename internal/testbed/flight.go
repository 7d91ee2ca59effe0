package testbed

import (
	"context"
	"math"

	"github.com/san-kum/skypilot/internal/craft"
	"github.com/san-kum/skypilot/internal/pid"
	"github.com/san-kum/skypilot/internal/vehicle"
)

// Flight drives one aircraft closed-loop through the heading cascade without
// timers: each Tick advances the physics and runs one control tick through
// the same vehicle contracts the live worker uses. The simulate command and
// the live view are built on it.
type Flight struct {
	cluster *Cluster
	inst    vehicle.Instance

	state    *craft.State
	cascades []craft.Cascade
	target   float64
}

// FlightGains configures the three heading-cascade stages.
type FlightGains struct {
	Heading pid.Config
	Roll    pid.Config
	Yaw     pid.Config
}

func NewFlight(cluster *Cluster, addr string, gains FlightGains, targetHeadingDeg float64) (*Flight, error) {
	f := &Flight{
		cluster: cluster,
		inst:    vehicle.Instance{Addr: addr, Role: vehicle.RoleMaster, HostKind: "sim"},
		state:   craft.NewState(),
		cascades: []craft.Cascade{
			craft.AirspeedCascade(),
			craft.HeadingCascade(),
			craft.AltitudeCascade(),
		},
		target: targetHeadingDeg,
	}

	regs := []struct {
		tr  craft.Triple
		cfg pid.Config
	}{
		{craft.HeadingStage, gains.Heading},
		{craft.RollStage, gains.Roll},
		{craft.YawStage, gains.Yaw},
	}
	for _, r := range regs {
		if err := f.state.Register(r.tr, r.cfg); err != nil {
			return nil, err
		}
	}

	f.state.SetMode(craft.ModeHeading, true)
	f.state.Set(craft.TargetHeadingDeg, targetHeadingDeg)
	f.state.Set(craft.TargetSideslipDeg, 0)
	return f, nil
}

var flightFields = []craft.Field{
	craft.HeadingDeg,
	craft.RollDeg,
	craft.SideslipDeg,
	craft.AirspeedKt,
	craft.AltitudeFt,
}

// Tick advances the airframe by dt seconds and runs one control tick.
func (f *Flight) Tick(dt float64) error {
	ctx := context.Background()

	f.cluster.Aircraft(f.inst.Addr).Step(dt)

	values, t, err := f.cluster.FetchFeedback(ctx, f.inst, flightFields)
	if err != nil {
		return err
	}
	for fld, v := range values {
		f.state.Set(fld, v)
	}
	f.state.SetTime(t)

	for _, c := range f.cascades {
		if err := c.Run(f.state); err != nil {
			return err
		}
	}

	var outs []vehicle.Output
	for _, fld := range []craft.Field{craft.TargetRollDeg, craft.AileronTrim, craft.RudderTrim} {
		if v, ok := f.state.Value(fld); ok {
			outs = append(outs, vehicle.Output{Field: fld, Value: v})
		}
	}
	if len(outs) == 0 {
		return nil
	}
	return f.cluster.WriteOutputs(ctx, f.inst, outs)
}

// Value reads a field from the flight's control state.
func (f *Flight) Value(fld craft.Field) (float64, bool) {
	return f.state.Value(fld)
}

// HeadingErrorDeg is the signed shortest-path error to the target heading.
func (f *Flight) HeadingErrorDeg() float64 {
	h := f.cluster.Aircraft(f.inst.Addr).HeadingDeg()
	err := math.Mod(f.target-h+540, 360) - 180
	return err
}
