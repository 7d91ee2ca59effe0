package testbed

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/skypilot/internal/craft"
	"github.com/san-kum/skypilot/internal/pid"
	"github.com/san-kum/skypilot/internal/vehicle"
)

func TestListInstances(t *testing.T) {
	c := NewCluster(2)
	instances, err := c.ListInstances(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	masters := 0
	for _, inst := range instances {
		if inst.Role == vehicle.RoleMaster {
			masters++
		}
	}
	if masters != 2 {
		t.Errorf("expected 2 masters, got %d", masters)
	}
	if len(instances) != 3 {
		t.Errorf("expected 2 masters + 1 observer, got %d instances", len(instances))
	}
}

func TestFetchFeedbackUnknownInstance(t *testing.T) {
	c := NewCluster(1)
	_, _, err := c.FetchFeedback(context.Background(), vehicle.Instance{Addr: "nope:5500"}, nil)
	if !errors.Is(err, ErrUnknownInstance) {
		t.Fatalf("expected ErrUnknownInstance, got %v", err)
	}
}

func TestFeedbackOmitsUnknownFields(t *testing.T) {
	c := NewCluster(1)
	inst := vehicle.Instance{Addr: "sim-01:5500"}

	values, _, err := c.FetchFeedback(context.Background(), inst,
		[]craft.Field{craft.HeadingDeg, craft.ElevatorTrim})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := values[craft.HeadingDeg]; !ok {
		t.Error("heading should be reported")
	}
	if _, ok := values[craft.ElevatorTrim]; ok {
		t.Error("non-feedback fields must be absent, not zero")
	}
}

func TestTimeAdvancesWithPhysics(t *testing.T) {
	c := NewCluster(1)
	inst := vehicle.Instance{Addr: "sim-01:5500"}

	_, t0, err := c.FetchFeedback(context.Background(), inst, nil)
	if err != nil {
		t.Fatal(err)
	}
	c.StepAll(0.02)
	c.StepAll(0.02)
	_, t1, err := c.FetchFeedback(context.Background(), inst, nil)
	if err != nil {
		t.Fatal(err)
	}
	if t1 <= t0 {
		t.Errorf("time should advance with physics: %g -> %g", t0, t1)
	}
}

func TestAileronRollsAircraft(t *testing.T) {
	c := NewCluster(1)
	inst := vehicle.Instance{Addr: "sim-01:5500"}

	err := c.WriteOutputs(context.Background(), inst, []vehicle.Output{
		{Field: craft.AileronTrim, Value: 0.5},
	})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 50; i++ {
		c.StepAll(0.02)
	}
	if roll := c.Aircraft("sim-01:5500").RollDeg(); roll <= 5 {
		t.Errorf("expected positive roll after one second of aileron, got %g", roll)
	}
}

func defaultGains() FlightGains {
	return FlightGains{
		Heading: pid.Config{P: 0.8, OutputMin: -25, OutputMax: 25, Modulo: 360},
		Roll:    pid.Config{P: 0.04, I: 0.0005, D: 0.002, OutputMin: -1, OutputMax: 1},
		Yaw:     pid.Config{P: 0.02, OutputMin: -0.3, OutputMax: 0.3},
	}
}

func TestClosedLoopHeadingConvergence(t *testing.T) {
	c := NewCluster(1)
	f, err := NewFlight(c, "sim-01:5500", defaultGains(), 90)
	if err != nil {
		t.Fatal(err)
	}

	// 40 simulated seconds at the 20ms control rate.
	for i := 0; i < 2000; i++ {
		if err := f.Tick(0.02); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
	}
	if err := f.HeadingErrorDeg(); math.Abs(err) > 1.0 {
		t.Errorf("heading did not converge: error %g deg", err)
	}
}

func TestClosedLoopWraparound(t *testing.T) {
	// Start at 350 deg, target 90: the shorter path crosses 0/360.
	c := NewCluster(1)
	a := c.Aircraft("sim-01:5500")
	a.mu.Lock()
	a.x[iHeading] = 350
	a.mu.Unlock()

	f, err := NewFlight(c, "sim-01:5500", defaultGains(), 90)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2000; i++ {
		if err := f.Tick(0.02); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.HeadingErrorDeg(); math.Abs(err) > 1.0 {
		t.Errorf("heading did not converge through wraparound: error %g deg", err)
	}
}
