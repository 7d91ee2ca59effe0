package pid

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidBounds indicates OutputMin > OutputMax.
	ErrInvalidBounds = errors.New("pid: output min greater than output max")

	// ErrInvalidModulo indicates a negative modulo.
	ErrInvalidModulo = errors.New("pid: modulo must be positive")
)

// Config holds the gains and limits of a controller. It is immutable after
// construction; only the error history inside Controller changes between
// steps.
type Config struct {
	P float64
	I float64
	D float64

	// OutputMin and OutputMax are hard clamp bounds on the produced output.
	OutputMin float64
	OutputMax float64

	// Modulo, when positive, wraps feedback and setpoint onto the shorter
	// angular path before the error is computed. Zero disables wrapping.
	Modulo float64
}

// Controller is a single PID loop. Not safe for concurrent use; each
// controller belongs to exactly one control-loop worker.
type Controller struct {
	cfg Config

	errSum   float64
	errPrev  float64
	timePrev float64
	stepped  bool
}

// New validates cfg and returns a fresh controller. Inverted bounds or a
// negative modulo are wiring mistakes and fail construction.
func New(cfg Config) (*Controller, error) {
	if cfg.OutputMin > cfg.OutputMax {
		return nil, fmt.Errorf("%w: [%g, %g]", ErrInvalidBounds, cfg.OutputMin, cfg.OutputMax)
	}
	if cfg.Modulo < 0 {
		return nil, fmt.Errorf("%w: %g", ErrInvalidModulo, cfg.Modulo)
	}
	return &Controller{cfg: cfg}, nil
}

// Config returns the controller's immutable configuration.
func (c *Controller) Config() Config { return c.cfg }

// Step advances the controller to time t with the given feedback and
// setpoint. The returned bool is false when no output was produced: on the
// first step ever, and on any step whose t does not advance past the previous
// step's timestamp. Those steps still refresh the stored error so a later
// advancing step differentiates against fresh data.
func (c *Controller) Step(t, feedback, setpoint float64) (float64, bool) {
	if c.cfg.Modulo > 0 {
		half := c.cfg.Modulo / 2
		switch {
		case feedback-setpoint > half:
			setpoint += c.cfg.Modulo
		case setpoint-feedback > half:
			feedback += c.cfg.Modulo
		}
	}

	err := setpoint - feedback

	if !c.stepped || t <= c.timePrev {
		c.errPrev = err
		c.timePrev = t
		c.stepped = true
		return 0, false
	}

	// Integral accumulates raw error per advancing step, without dt scaling
	// and without anti-windup. The derivative is the only dt-scaled term.
	c.errSum += err
	dt := t - c.timePrev
	errDt := (err - c.errPrev) / dt

	out := c.cfg.P*err + c.cfg.I*c.errSum + c.cfg.D*errDt
	out = math.Min(c.cfg.OutputMax, math.Max(c.cfg.OutputMin, out))

	c.errPrev = err
	c.timePrev = t
	return out, true
}
