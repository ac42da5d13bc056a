// form/state.go
package form

import (
	"fmt"

	"github.com/dalemusser/phoneform/phone"
)

// State is the form's position in its lifecycle.
type State int

const (
	// StateEditing accepts keystrokes; Snapshot.Valid carries the
	// Editing(valid) parameter.
	StateEditing State = iota
	// StateInvalid follows a rejected submit. It renders like an editing
	// form with valid=false and leaves on the next keystroke.
	StateInvalid
	// StateSubmitted is the reset window. Submit is disabled.
	StateSubmitted
)

var stateNames = [...]string{
	StateEditing:   "editing",
	StateInvalid:   "invalid",
	StateSubmitted: "submitted",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	if s < 0 || int(s) >= len(stateNames) {
		return nil, fmt.Errorf("form: unknown state %d", int(s))
	}
	return []byte(stateNames[s]), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(b []byte) error {
	for i, name := range stateNames {
		if name == string(b) {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("form: unknown state %q", b)
}

// Snapshot is the complete state of one form: PhoneInput, ValidityFlag and
// SubmittedFlag, plus the derived State. Transitions on Snapshot are pure.
type Snapshot struct {
	Value     string `json:"value"`
	Valid     bool   `json:"valid"`
	Submitted bool   `json:"submitted"`
	State     State  `json:"state"`
}

// Initial returns the state every form mounts with and resets to.
func Initial() Snapshot {
	return Snapshot{Valid: true, State: StateEditing}
}

// Change applies a keystroke. The raw text is normalized and the field is
// marked valid: only Submit can flag a value invalid. Typing during the
// reset window is accepted but does not leave it.
func (s Snapshot) Change(raw string, n phone.Normalizer) Snapshot {
	value := n.Normalize(raw)
	next := Snapshot{
		Value:     value,
		Valid:     true,
		Submitted: s.Submitted,
		State:     StateEditing,
	}
	if s.Submitted {
		next.State = StateSubmitted
	}
	return next
}

// Submit enforces validity. It returns ErrSubmitDisabled unchanged while
// submitted, ErrInvalidPhone with valid=false for a bad value, and the
// Submitted state otherwise.
func (s Snapshot) Submit() (Snapshot, error) {
	if s.Submitted {
		return s, ErrSubmitDisabled
	}
	if !phone.Valid(s.Value) {
		s.Valid = false
		s.State = StateInvalid
		return s, ErrInvalidPhone
	}
	s.Valid = true
	s.Submitted = true
	s.State = StateSubmitted
	return s, nil
}
