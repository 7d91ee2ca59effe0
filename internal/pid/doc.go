// Package pid implements the PID controller used by the autopilot cascades.
//
// A [Controller] is a state machine stepped once per control tick:
//
//	ctrl, _ := pid.New(pid.Config{P: 0.1, OutputMin: -1, OutputMax: 1})
//	out, ok := ctrl.Step(t, feedback, setpoint)
//
// Steps are time-gated: a step whose timestamp does not advance past the
// previous one only refreshes the stored error and produces no output, so at
// most one integral accumulation and one output happen per distinct timestamp,
// and the first step of a fresh controller never emits (there is no previous
// error to differentiate against).
//
// Setting [Config.Modulo] makes feedback and setpoint wrap onto the shorter
// angular path before the error is computed, which is what compass headings
// in degrees need (modulo 360).
package pid
