// form/notification.go
package form

// Severity selects how a Notification is presented.
type Severity string

const (
	SeverityDefault Severity = "default"
	SeverityError   Severity = "error"
)

// Notification is the payload handed to a Notifier.
type Notification struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
}

// Notifier displays a transient message to the user. Implementations must
// not call back into the Form that notified them.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a plain function to the Notifier interface.
type NotifierFunc func(Notification)

// Notify calls f(n).
func (f NotifierFunc) Notify(n Notification) { f(n) }

var (
	invalidNotice = Notification{
		Title:       "Invalid Phone Number",
		Description: "Please enter exactly 11 digits",
		Severity:    SeverityError,
	}
	successNotice = Notification{
		Title:       "Success!",
		Description: "Phone number submitted successfully",
		Severity:    SeverityDefault,
	}
)

// InvalidNotice returns the notification emitted on a rejected submit.
func InvalidNotice() Notification { return invalidNotice }

// SuccessNotice returns the notification emitted on an accepted submit.
func SuccessNotice() Notification { return successNotice }

type nopNotifier struct{}

func (nopNotifier) Notify(Notification) {}
