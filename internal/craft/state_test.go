package craft

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/skypilot/internal/pid"
)

func TestValuePresence(t *testing.T) {
	s := NewState()

	if _, ok := s.Value(HeadingDeg); ok {
		t.Error("fresh state should have no heading value")
	}
	s.Set(HeadingDeg, 0)
	if v, ok := s.Value(HeadingDeg); !ok || v != 0 {
		t.Error("a stored zero must be present, not absent")
	}
}

func TestRegisterUnknownField(t *testing.T) {
	s := NewState()
	tr := Triple{Feedback: "vertical-speed-fpm", Setpoint: TargetAltitudeFt, Output: ElevatorTrim}

	err := s.Register(tr, pid.Config{OutputMin: -1, OutputMax: 1})
	if !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestRegisterIdempotent(t *testing.T) {
	s := NewState()
	tr := Triple{Feedback: RollDeg, Setpoint: TargetRollDeg, Output: AileronTrim}

	if err := s.Register(tr, pid.Config{P: 0.5, OutputMin: -1, OutputMax: 1}); err != nil {
		t.Fatal(err)
	}
	// Second registration with different parameters must be a no-op.
	if err := s.Register(tr, pid.Config{P: 99, OutputMin: -100, OutputMax: 100}); err != nil {
		t.Fatal(err)
	}

	if got := s.Controller(tr).Config().P; got != 0.5 {
		t.Errorf("first registration must win: P = %g", got)
	}
}

func TestSetOutputUnregistered(t *testing.T) {
	s := NewState()
	err := s.SetOutput(Triple{Feedback: RollDeg, Setpoint: TargetRollDeg, Output: AileronTrim})
	if !errors.Is(err, ErrNotRegistered) {
		t.Fatalf("expected ErrNotRegistered, got %v", err)
	}
}

func TestSetOutputMissingValues(t *testing.T) {
	s := NewState()
	tr := Triple{Feedback: RollDeg, Setpoint: TargetRollDeg, Output: AileronTrim}
	if err := s.Register(tr, pid.Config{P: 1, OutputMin: -1, OutputMax: 1}); err != nil {
		t.Fatal(err)
	}

	// No feedback, no setpoint: no-op, no error, no output.
	if err := s.SetOutput(tr); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Value(AileronTrim); ok {
		t.Error("no output should be written when inputs are missing")
	}

	// Feedback present but setpoint still missing: still a no-op.
	s.Set(RollDeg, 5)
	s.SetTime(1)
	if err := s.SetOutput(tr); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Value(AileronTrim); ok {
		t.Error("no output should be written while setpoint is missing")
	}
}

func TestSetOutputWritesBack(t *testing.T) {
	s := NewState()
	tr := Triple{Feedback: RollDeg, Setpoint: TargetRollDeg, Output: AileronTrim}
	if err := s.Register(tr, pid.Config{P: 0.1, OutputMin: -1, OutputMax: 1}); err != nil {
		t.Fatal(err)
	}

	s.Set(RollDeg, 0)
	s.Set(TargetRollDeg, 10)

	// First step primes the controller; no output yet, but controller state
	// advanced (write-back happens regardless of output).
	s.SetTime(0)
	if err := s.SetOutput(tr); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Value(AileronTrim); ok {
		t.Error("first step must not write an output")
	}

	s.SetTime(1)
	if err := s.SetOutput(tr); err != nil {
		t.Fatal(err)
	}
	out, ok := s.Value(AileronTrim)
	if !ok {
		t.Fatal("expected an output on the second advancing step")
	}
	if math.Abs(out-1.0) > 1e-12 {
		t.Errorf("expected output 1.0, got %g", out)
	}
}

func TestCascadeSkippedWhenModeOff(t *testing.T) {
	s := NewState()
	c := HeadingCascade()
	for _, tr := range c.Stages {
		if err := s.Register(tr, pid.Config{P: 1, OutputMin: -1, OutputMax: 1}); err != nil {
			t.Fatal(err)
		}
	}
	s.Set(HeadingDeg, 0)
	s.Set(TargetHeadingDeg, 90)
	s.Set(RollDeg, 0)
	s.Set(SideslipDeg, 0)
	s.Set(TargetSideslipDeg, 0)

	s.SetTime(1)
	if err := c.Run(s); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Value(TargetRollDeg); ok {
		t.Error("disabled cascade must not touch state")
	}

	s.SetMode(ModeHeading, true)
	s.SetTime(2)
	if err := c.Run(s); err != nil {
		t.Fatal(err)
	}
	s.SetTime(3)
	if err := c.Run(s); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Value(TargetRollDeg); !ok {
		t.Error("enabled cascade should have produced a target roll")
	}
}

// A later stage consumes the output an earlier stage wrote within the same
// tick: heading error -> target roll -> aileron trim.
func TestCascadeStageChaining(t *testing.T) {
	s := NewState()
	s.SetMode(ModeHeading, true)
	c := Cascade{Mode: ModeHeading, Stages: []Triple{HeadingStage, RollStage}}

	if err := s.Register(HeadingStage, pid.Config{P: 0.5, OutputMin: -25, OutputMax: 25, Modulo: 360}); err != nil {
		t.Fatal(err)
	}
	if err := s.Register(RollStage, pid.Config{P: 0.1, OutputMin: -1, OutputMax: 1}); err != nil {
		t.Fatal(err)
	}

	s.Set(HeadingDeg, 0)
	s.Set(TargetHeadingDeg, 10)
	s.Set(RollDeg, 0)

	// Tick 1 primes both controllers, but the roll stage has no setpoint yet
	// (the heading stage hasn't emitted), so it stays a no-op.
	s.SetTime(1)
	if err := c.Run(s); err != nil {
		t.Fatal(err)
	}

	// Tick 2: heading stage emits target roll 5, roll stage primes on it.
	s.SetTime(2)
	if err := c.Run(s); err != nil {
		t.Fatal(err)
	}
	tr, ok := s.Value(TargetRollDeg)
	if !ok || math.Abs(tr-5.0) > 1e-12 {
		t.Fatalf("expected target roll 5.0, got %v (present %v)", tr, ok)
	}

	// Tick 3: roll stage now advances against the in-tick target roll.
	s.SetTime(3)
	if err := c.Run(s); err != nil {
		t.Fatal(err)
	}
	out, ok := s.Value(AileronTrim)
	if !ok {
		t.Fatal("expected aileron output after three ticks")
	}
	if math.Abs(out-0.5) > 1e-12 {
		t.Errorf("expected aileron 0.5, got %g", out)
	}
}

func TestStubCascadesHaveNoStages(t *testing.T) {
	for _, c := range []Cascade{AirspeedCascade(), AltitudeCascade()} {
		if len(c.Stages) != 0 {
			t.Errorf("%s cascade should be a stub", c.Mode)
		}
		s := NewState()
		s.SetMode(c.Mode, true)
		if err := c.Run(s); err != nil {
			t.Errorf("%s: %v", c.Mode, err)
		}
	}
}
