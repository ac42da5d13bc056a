// form/form.go
package form

import (
	"errors"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/dalemusser/phoneform/phone"
)

// ResetDelay is the fixed reset window after a successful submission.
const ResetDelay = 3000 * time.Millisecond

// Event names the transition that produced a Snapshot.
type Event string

const (
	EventChange Event = "change"
	EventSubmit Event = "submit"
	EventReject Event = "reject"
	EventReset  Event = "reset"
)

// Observer is called after every transition with the resulting state.
// It runs with the form locked and must not call back into the Form.
type Observer func(ev Event, snap Snapshot)

// Option configures a Form.
type Option func(*Form)

// WithClock sets the clock used to schedule the reset. Tests pass a mock.
func WithClock(c clock.Clock) Option {
	return func(f *Form) { f.clock = c }
}

// WithNotifier sets where success and error notifications go.
func WithNotifier(n Notifier) Option {
	return func(f *Form) { f.notifier = n }
}

// WithNormalizer replaces the default keystroke normalizer.
func WithNormalizer(n phone.Normalizer) Option {
	return func(f *Form) { f.normalizer = n }
}

// WithObserver registers an Observer. May be given more than once.
func WithObserver(o Observer) Option {
	return func(f *Form) { f.observers = append(f.observers, o) }
}

// Form is one mounted phone form. It owns its Snapshot and the single
// pending reset timer. Transitions are serialized; the reset callback runs
// on the clock's goroutine and is a no-op once the form is closed.
type Form struct {
	mu         sync.Mutex
	snap       Snapshot
	normalizer phone.Normalizer
	notifier   Notifier
	clock      clock.Clock
	observers  []Observer

	timer  *clock.Timer
	gen    uint64
	closed bool
}

// New mounts a form in the initial state.
func New(opts ...Option) *Form {
	f := &Form{
		snap:     Initial(),
		notifier: nopNotifier{},
		clock:    clock.New(),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.notifier == nil {
		f.notifier = nopNotifier{}
	}
	if f.clock == nil {
		f.clock = clock.New()
	}
	return f
}

// Snapshot returns the current state.
func (f *Form) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

// Change applies a keystroke with raw field text.
func (f *Form) Change(raw string) (Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return f.snap, ErrClosed
	}
	f.snap = f.snap.Change(raw, f.normalizer)
	f.emit(EventChange)
	return f.snap, nil
}

// Submit attempts a submission. On success it notifies, enters the reset
// window and schedules the reset exactly ResetDelay later. On
// ErrInvalidPhone it notifies with an error and stays editable. On
// ErrSubmitDisabled nothing happens.
func (f *Form) Submit() (Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return f.snap, ErrClosed
	}

	next, err := f.snap.Submit()
	switch {
	case err == nil:
		f.snap = next
		f.notifier.Notify(successNotice)
		f.schedule()
		f.emit(EventSubmit)
	case errors.Is(err, ErrInvalidPhone):
		f.snap = next
		f.notifier.Notify(invalidNotice)
		f.emit(EventReject)
	}
	return f.snap, err
}

// Close tears the form down. A pending reset is stopped and, if its
// callback is already running, it finds the form closed and does nothing.
// Close is idempotent.
func (f *Form) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
	f.observers = nil
}

// Closed reports whether Close has been called.
func (f *Form) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// schedule arms the reset timer. Callers hold f.mu. Submit is disabled
// while submitted, so there is never a second pending timer.
func (f *Form) schedule() {
	f.gen++
	gen := f.gen
	f.timer = f.clock.AfterFunc(ResetDelay, func() { f.reset(gen) })
}

func (f *Form) reset(gen uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed || gen != f.gen || !f.snap.Submitted {
		return
	}
	f.timer = nil
	f.snap = Initial()
	f.emit(EventReset)
}

func (f *Form) emit(ev Event) {
	for _, o := range f.observers {
		o(ev, f.snap)
	}
}
