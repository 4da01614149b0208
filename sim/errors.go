package sim

import "fmt"

// InvariantError reports that the engine reached a state a validated
// configuration can never produce, such as a non-positive total rate.
type InvariantError struct {
	Time float64
	Msg  string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("simulation invariant violated at time %g: %s", e.Time, e.Msg)
}
