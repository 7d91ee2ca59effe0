package craft

// Field identifies one scalar value in a State. The set of valid fields is
// closed: registration validates against it so a typo fails at wiring time
// instead of silently reading an always-absent value.
type Field string

const (
	// Feedback read from the vehicle.
	HeadingDeg  Field = "heading-deg"
	RollDeg     Field = "roll-deg"
	SideslipDeg Field = "sideslip-deg"
	AirspeedKt  Field = "airspeed-kt"
	AltitudeFt  Field = "altitude-ft"

	// Setpoints.
	TargetHeadingDeg  Field = "target-heading-deg"
	TargetRollDeg     Field = "target-roll-deg"
	TargetSideslipDeg Field = "target-sideslip-deg"
	TargetAirspeedKt  Field = "target-airspeed-kt"
	TargetAltitudeFt  Field = "target-altitude-ft"

	// Outputs written back to the vehicle.
	AileronTrim  Field = "aileron-trim"
	ElevatorTrim Field = "elevator-trim"
	RudderTrim   Field = "rudder-trim"
	ThrottleTrim Field = "throttle-trim"
)

var validFields = map[Field]struct{}{
	HeadingDeg: {}, RollDeg: {}, SideslipDeg: {}, AirspeedKt: {}, AltitudeFt: {},
	TargetHeadingDeg: {}, TargetRollDeg: {}, TargetSideslipDeg: {}, TargetAirspeedKt: {}, TargetAltitudeFt: {},
	AileronTrim: {}, ElevatorTrim: {}, RudderTrim: {}, ThrottleTrim: {},
}

// Valid reports whether f is one of the known field identifiers.
func (f Field) Valid() bool {
	_, ok := validFields[f]
	return ok
}

// Mode is one autopilot mode. Each mode gates one cascade.
type Mode string

const (
	ModeAirspeed Mode = "airspeed"
	ModeHeading  Mode = "heading"
	ModeAltitude Mode = "altitude"
)

// Modes lists all modes in their fixed per-tick execution order.
func Modes() []Mode {
	return []Mode{ModeAirspeed, ModeHeading, ModeAltitude}
}
