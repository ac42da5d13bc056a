// form/view.go
package form

import (
	"fmt"

	"github.com/dalemusser/phoneform/phone"
)

// Indicator is the status icon shown beside the field.
type Indicator string

const (
	IndicatorNone     Indicator = "none"
	IndicatorComplete Indicator = "complete"
	IndicatorError    Indicator = "error"
)

// Heading and Subtitle introduce the form in both front ends.
const (
	Heading  = "Enter Your Phone"
	Subtitle = "Please provide your 11-digit phone number"
)

const (
	inlineInvalidMessage = "Please enter a valid 11-digit number."
	submitLabel          = "Submit"
	submittedLabel       = "Submitted Successfully!"
	confirmationBanner   = "Phone number verification initiated!"
)

// View is a Snapshot with every presentation value derived, ready for a
// template or a JSON client.
type View struct {
	Snapshot

	Indicator   Indicator `json:"indicator"`
	Counter     string    `json:"counter"`
	Message     string    `json:"message,omitempty"`
	SubmitLabel string    `json:"submit_label"`
	CanSubmit   bool      `json:"can_submit"`
	Banner      string    `json:"banner,omitempty"`
	Placeholder string    `json:"placeholder"`
	MaxDigits   int       `json:"max_digits"`
}

// Indicator picks the field's status icon.
func (s Snapshot) Indicator() Indicator {
	switch {
	case !s.Valid:
		return IndicatorError
	case len(s.Value) == phone.MaxDigits:
		return IndicatorComplete
	default:
		return IndicatorNone
	}
}

// Counter renders the digit counter, e.g. "4/11 digits".
func (s Snapshot) Counter() string {
	return fmt.Sprintf("%d/%d digits", len(s.Value), phone.MaxDigits)
}

// CanSubmit reports whether the submit control is enabled.
func (s Snapshot) CanSubmit() bool {
	return !s.Submitted
}

// View derives the presentation values for s.
func (s Snapshot) View() View {
	v := View{
		Snapshot:    s,
		Indicator:   s.Indicator(),
		Counter:     s.Counter(),
		SubmitLabel: submitLabel,
		CanSubmit:   s.CanSubmit(),
		Placeholder: phone.Placeholder,
		MaxDigits:   phone.MaxDigits,
	}
	if !s.Valid {
		v.Message = inlineInvalidMessage
	}
	if s.Submitted {
		v.SubmitLabel = submittedLabel
		v.Banner = confirmationBanner
	}
	return v
}
