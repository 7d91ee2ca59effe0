// Package metrics collects summary statistics over a closed-loop run.
package metrics

import "math"

type Metric interface {
	Name() string
	Observe(t, err, output float64)
	Value() float64
	Reset()
}

// ControlEffort is the mean absolute actuator output.
type ControlEffort struct {
	sum     float64
	samples int
}

func NewControlEffort() *ControlEffort { return &ControlEffort{} }

func (c *ControlEffort) Name() string { return "control_effort" }

func (c *ControlEffort) Observe(t, err, output float64) {
	c.sum += math.Abs(output)
	c.samples++
}

func (c *ControlEffort) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *ControlEffort) Reset() {
	c.sum = 0
	c.samples = 0
}

// SettlingTime records when the error last entered the tolerance band and
// stayed there.
type SettlingTime struct {
	Tolerance float64

	settledAt float64
	settled   bool
}

func NewSettlingTime(tolerance float64) *SettlingTime {
	return &SettlingTime{Tolerance: tolerance}
}

func (s *SettlingTime) Name() string { return "settling_time" }

func (s *SettlingTime) Observe(t, err, output float64) {
	if math.Abs(err) > s.Tolerance {
		s.settled = false
		return
	}
	if !s.settled {
		s.settled = true
		s.settledAt = t
	}
}

// Value returns the settling time in seconds, or -1 if the run never
// settled.
func (s *SettlingTime) Value() float64 {
	if !s.settled {
		return -1
	}
	return s.settledAt
}

func (s *SettlingTime) Reset() {
	s.settled = false
	s.settledAt = 0
}
