// Package craft holds the per-aircraft control state: a typed bag of scalar
// feedback, setpoint and output values, the PID controllers registered over
// them, and the mode flags gating which autopilot cascades run on a tick.
//
// A [State] is exclusively owned by one control-loop worker; nothing here is
// safe for concurrent use and nothing needs to be.
package craft
