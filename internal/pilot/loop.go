// Package pilot runs the per-instance control loop: once per tick it pulls
// fresh feedback into the craft state, runs every mode cascade in fixed
// order, and flushes the touched outputs back to the vehicle.
package pilot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/san-kum/skypilot/internal/craft"
	"github.com/san-kum/skypilot/internal/pid"
	"github.com/san-kum/skypilot/internal/vehicle"
)

// DefaultTickPeriod matches the simulator's network/physics rate.
const DefaultTickPeriod = 20 * time.Millisecond

// Config carries everything a worker needs to wire its cascades.
type Config struct {
	TickPeriod time.Duration

	// Engaged is the instance-level master enable. When off, ticks only
	// rearm the timer.
	Engaged bool

	// Modes enables individual cascades (heading, altitude, airspeed).
	Modes map[craft.Mode]bool

	HeadingGains pid.Config
	RollGains    pid.Config
	YawGains     pid.Config

	// TargetHeadingDeg is the initial heading setpoint.
	TargetHeadingDeg float64
}

// feedbackFields is what every tick requests from the vehicle.
var feedbackFields = []craft.Field{
	craft.HeadingDeg,
	craft.RollDeg,
	craft.SideslipDeg,
	craft.AirspeedKt,
	craft.AltitudeFt,
}

// Loop is one instance's control-loop worker. It exclusively owns its craft
// state; a restarted worker starts from a fresh one, losing integral history
// by design.
type Loop struct {
	inst vehicle.Instance
	src  vehicle.FeedbackSource
	sink vehicle.CommandSink
	cfg  Config
	log  *slog.Logger

	state    *craft.State
	cascades []craft.Cascade
}

// New builds the worker's state and registers all cascade controllers.
// Registration is idempotent at the state level, but every New starts from an
// empty state anyway.
func New(inst vehicle.Instance, src vehicle.FeedbackSource, sink vehicle.CommandSink, cfg Config, log *slog.Logger) (*Loop, error) {
	if cfg.TickPeriod <= 0 {
		cfg.TickPeriod = DefaultTickPeriod
	}

	l := &Loop{
		inst:  inst,
		src:   src,
		sink:  sink,
		cfg:   cfg,
		log:   log.With("instance", inst.Addr),
		state: craft.NewState(),
		cascades: []craft.Cascade{
			craft.AirspeedCascade(),
			craft.HeadingCascade(),
			craft.AltitudeCascade(),
		},
	}

	regs := []struct {
		tr  craft.Triple
		cfg pid.Config
	}{
		{craft.HeadingStage, l.cfg.HeadingGains},
		{craft.RollStage, l.cfg.RollGains},
		{craft.YawStage, l.cfg.YawGains},
	}
	for _, r := range regs {
		if err := l.state.Register(r.tr, r.cfg); err != nil {
			return nil, fmt.Errorf("pilot %s: %w", inst.Addr, err)
		}
	}

	for m, on := range cfg.Modes {
		l.state.SetMode(m, on)
	}
	l.state.Set(craft.TargetHeadingDeg, cfg.TargetHeadingDeg)
	l.state.Set(craft.TargetSideslipDeg, 0)

	return l, nil
}

// Run ticks until ctx is canceled or a tick fails. Ticks are scheduled
// relative to completion of the previous tick, so a slow tick delays the next
// one rather than producing a catch-up burst.
func (l *Loop) Run(ctx context.Context) error {
	l.log.Info("control loop started", "tick", l.cfg.TickPeriod, "engaged", l.cfg.Engaged)

	timer := time.NewTimer(l.cfg.TickPeriod)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		if l.cfg.Engaged {
			if err := l.tick(ctx); err != nil {
				return fmt.Errorf("pilot %s: %w", l.inst.Addr, err)
			}
		}

		timer.Reset(l.cfg.TickPeriod)
	}
}

// tick refreshes feedback, runs the cascades in fixed order, and flushes the
// outputs of enabled cascades. Every controller step in the tick observes the
// same state time.
func (l *Loop) tick(ctx context.Context) error {
	values, t, err := l.src.FetchFeedback(ctx, l.inst, feedbackFields)
	if err != nil {
		return fmt.Errorf("fetch feedback: %w", err)
	}
	for f, v := range values {
		l.state.Set(f, v)
	}
	l.state.SetTime(t)

	for _, c := range l.cascades {
		if err := c.Run(l.state); err != nil {
			return err
		}
	}

	outs := l.collectOutputs()
	if len(outs) == 0 {
		return nil
	}
	if err := l.sink.WriteOutputs(ctx, l.inst, outs); err != nil {
		return fmt.Errorf("write outputs: %w", err)
	}
	return nil
}

// collectOutputs gathers the output fields of enabled cascades that hold a
// value. Stages that have not produced yet stay absent and are not flushed.
func (l *Loop) collectOutputs() []vehicle.Output {
	var outs []vehicle.Output
	for _, c := range l.cascades {
		if !l.state.ModeEnabled(c.Mode) {
			continue
		}
		for _, f := range c.Outputs() {
			if v, ok := l.state.Value(f); ok {
				outs = append(outs, vehicle.Output{Field: f, Value: v})
			}
		}
	}
	return outs
}
