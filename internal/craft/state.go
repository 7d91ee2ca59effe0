package craft

import (
	"errors"
	"fmt"

	"github.com/san-kum/skypilot/internal/pid"
)

var (
	// ErrUnknownField indicates a field identifier outside the closed set.
	ErrUnknownField = errors.New("craft: unknown field")

	// ErrNotRegistered indicates a SetOutput call for a controller triple
	// that was never registered. This is a wiring bug, not a runtime
	// condition.
	ErrNotRegistered = errors.New("craft: controller not registered")
)

// Triple identifies a controller by the fields it reads and writes.
type Triple struct {
	Feedback Field
	Setpoint Field
	Output   Field
}

func (tr Triple) String() string {
	return fmt.Sprintf("%s/%s -> %s", tr.Feedback, tr.Setpoint, tr.Output)
}

// State aggregates one aircraft's scalar values, registered controllers and
// mode flags. Time advances only via SetTime, driven by the feedback refresh;
// controller steps never touch it.
type State struct {
	time        float64
	values      map[Field]float64
	controllers map[Triple]*pid.Controller
	modes       map[Mode]bool
}

func NewState() *State {
	return &State{
		values:      make(map[Field]float64),
		controllers: make(map[Triple]*pid.Controller),
		modes:       make(map[Mode]bool),
	}
}

// Set stores a value for a known field. Unknown fields are dropped silently;
// registration is where field names are validated.
func (s *State) Set(f Field, v float64) {
	if f.Valid() {
		s.values[f] = v
	}
}

// Value returns the current value for f and whether one is present. Absent is
// distinct from zero.
func (s *State) Value(f Field) (float64, bool) {
	v, ok := s.values[f]
	return v, ok
}

func (s *State) SetTime(t float64) { s.time = t }
func (s *State) Time() float64     { return s.time }

// SetMode toggles a mode flag. Toggling has no side effects: controller
// integral state persists across flips so a re-enabled mode resumes smoothly.
func (s *State) SetMode(m Mode, on bool) { s.modes[m] = on }

func (s *State) ModeEnabled(m Mode) bool { return s.modes[m] }

// Register creates the controller for tr with the given configuration. The
// first registration wins: registering an existing triple again is a no-op,
// which makes worker restarts idempotent. Field names are validated here.
func (s *State) Register(tr Triple, cfg pid.Config) error {
	for _, f := range []Field{tr.Feedback, tr.Setpoint, tr.Output} {
		if !f.Valid() {
			return fmt.Errorf("%w: %q in %s", ErrUnknownField, f, tr)
		}
	}
	if _, ok := s.controllers[tr]; ok {
		return nil
	}
	c, err := pid.New(cfg)
	if err != nil {
		return fmt.Errorf("register %s: %w", tr, err)
	}
	s.controllers[tr] = c
	return nil
}

// Controller returns the registered controller for tr, or nil.
func (s *State) Controller(tr Triple) *pid.Controller {
	return s.controllers[tr]
}

// SetOutput steps the controller registered for tr against the current state
// time and values, writing the produced output (if any) to tr.Output. A
// missing feedback or setpoint value makes the step a no-op. An unregistered
// triple is an error.
func (s *State) SetOutput(tr Triple) error {
	c, ok := s.controllers[tr]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotRegistered, tr)
	}

	feedback, ok := s.values[tr.Feedback]
	if !ok {
		return nil
	}
	setpoint, ok := s.values[tr.Setpoint]
	if !ok {
		return nil
	}

	if out, ok := c.Step(s.time, feedback, setpoint); ok {
		s.values[tr.Output] = out
	}
	return nil
}
