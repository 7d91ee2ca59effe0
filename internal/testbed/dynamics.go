package testbed

import "math"

// State is the lateral state vector [roll deg, roll rate deg/s, heading deg,
// sideslip deg].
type State []float64

const (
	iRoll = iota
	iRollRate
	iHeading
	iSideslip
	stateDim
)

// Control is [aileron trim, rudder trim], both in [-1, 1].
type Control []float64

type Dynamics interface {
	Derivative(x State, u Control, t float64) State
}

type Integrator interface {
	Step(dyn Dynamics, x State, u Control, t, dt float64) State
}

// Lateral is a minimal lateral-directional airframe model: aileron drives
// roll rate, bank angle turns the aircraft, rudder damps sideslip.
type Lateral struct {
	AileronAuthority float64 // deg/s^2 at full deflection
	RollDamping      float64 // 1/s
	AirspeedMS       float64
	SideslipDamping  float64 // 1/s
	RudderAuthority  float64 // deg/s at full deflection
	RollYawCoupling  float64
}

func NewLateral() *Lateral {
	return &Lateral{
		AileronAuthority: 120,
		RollDamping:      2.0,
		AirspeedMS:       35,
		SideslipDamping:  1.5,
		RudderAuthority:  25,
		RollYawCoupling:  0.1,
	}
}

const gravityMS2 = 9.81

func (l *Lateral) Derivative(x State, u Control, t float64) State {
	aileron, rudder := 0.0, 0.0
	if len(u) >= 2 {
		aileron, rudder = u[0], u[1]
	}

	roll := x[iRoll]
	rollRate := x[iRollRate]
	sideslip := x[iSideslip]

	// Coordinated-turn rate from bank angle; the bank fed into tan is
	// limited so a transient overshoot cannot blow the model up.
	bank := math.Max(-60, math.Min(60, roll))
	turnRate := (gravityMS2 / l.AirspeedMS) * math.Tan(bank*math.Pi/180) * 180 / math.Pi

	return State{
		rollRate,
		l.AileronAuthority*aileron - l.RollDamping*rollRate,
		turnRate,
		-l.SideslipDamping*sideslip + l.RudderAuthority*rudder + l.RollYawCoupling*rollRate,
	}
}

// RK4 is a classic fixed-step Runge-Kutta integrator over the lateral state.
type RK4 struct {
	scratch State
}

func NewRK4() *RK4 {
	return &RK4{scratch: make(State, stateDim)}
}

func (r *RK4) Step(dyn Dynamics, x State, u Control, t, dt float64) State {
	n := len(x)
	if len(r.scratch) != n {
		r.scratch = make(State, n)
	}

	k1 := dyn.Derivative(x, u, t)
	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*k1[i]
	}
	k2 := dyn.Derivative(r.scratch, u, t+dt*0.5)
	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*k2[i]
	}
	k3 := dyn.Derivative(r.scratch, u, t+dt*0.5)
	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*k3[i]
	}
	k4 := dyn.Derivative(r.scratch, u, t+dt)

	result := make(State, n)
	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		result[i] = x[i] + dt6*(k1[i]+2*k2[i]+2*k3[i]+k4[i])
	}
	return result
}
