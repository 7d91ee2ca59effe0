package craft

import "fmt"

// Cascade is an ordered chain of controller steps sharing one tick's time.
// Later stages may consume outputs written by earlier stages as their
// setpoint; the ordering of Stages is the caller's contract.
type Cascade struct {
	Mode   Mode
	Stages []Triple
}

// Run executes the cascade's stages in order against s. When the cascade's
// mode flag is off the whole cascade is skipped and s passes through
// unchanged.
func (c Cascade) Run(s *State) error {
	if !s.ModeEnabled(c.Mode) {
		return nil
	}
	for _, tr := range c.Stages {
		if err := s.SetOutput(tr); err != nil {
			return fmt.Errorf("cascade %s: %w", c.Mode, err)
		}
	}
	return nil
}

// Outputs returns the output fields the cascade writes, in stage order.
func (c Cascade) Outputs() []Field {
	outs := make([]Field, 0, len(c.Stages))
	for _, tr := range c.Stages {
		outs = append(outs, tr.Output)
	}
	return outs
}

// Standard heading-cascade stages: the heading error sets a target roll,
// the roll error trims the ailerons, and the sideslip error trims the rudder.
var (
	HeadingStage = Triple{Feedback: HeadingDeg, Setpoint: TargetHeadingDeg, Output: TargetRollDeg}
	RollStage    = Triple{Feedback: RollDeg, Setpoint: TargetRollDeg, Output: AileronTrim}
	YawStage     = Triple{Feedback: SideslipDeg, Setpoint: TargetSideslipDeg, Output: RudderTrim}
)

// HeadingCascade chains heading -> roll -> yaw trim.
func HeadingCascade() Cascade {
	return Cascade{Mode: ModeHeading, Stages: []Triple{HeadingStage, RollStage, YawStage}}
}

// AirspeedCascade is a stub: the mode flag exists but no control law is
// wired, so an enabled airspeed mode passes state through unchanged.
func AirspeedCascade() Cascade {
	return Cascade{Mode: ModeAirspeed}
}

// AltitudeCascade is a stub, like AirspeedCascade.
func AltitudeCascade() Cascade {
	return Cascade{Mode: ModeAltitude}
}
