package form

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/dalemusser/phoneform/phone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	notes []Notification
}

func (r *recorder) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, n)
}

func (r *recorder) all() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.notes...)
}

func newTestForm(t *testing.T, opts ...Option) (*Form, *clock.Mock, *recorder) {
	t.Helper()
	mock := clock.NewMock()
	rec := &recorder{}
	f := New(append([]Option{WithClock(mock), WithNotifier(rec)}, opts...)...)
	t.Cleanup(f.Close)
	return f, mock, rec
}

func waitForReset(t *testing.T, f *Form) {
	t.Helper()
	require.Eventually(t, func() bool {
		return !f.Snapshot().Submitted
	}, time.Second, time.Millisecond)
}

func TestNew_InitialState(t *testing.T) {
	f, _, rec := newTestForm(t)

	assert.Equal(t, Snapshot{Value: "", Valid: true, Submitted: false, State: StateEditing}, f.Snapshot())
	assert.Empty(t, rec.all())
}

func TestChange_NormalizesAndNeverFlagsInvalid(t *testing.T) {
	f, _, _ := newTestForm(t)

	for _, raw := range []string{"1", "12ab", "(012) 34", "1234567890", ""} {
		snap, err := f.Change(raw)
		require.NoError(t, err)
		assert.True(t, snap.Valid, "typing %q must not mark the field invalid", raw)
		assert.Equal(t, StateEditing, snap.State)
		assert.Equal(t, phone.Normalize(raw), snap.Value)
	}

	snap, err := f.Change("123-456-789-01-99")
	require.NoError(t, err)
	assert.Equal(t, "12345678901", snap.Value)
	assert.True(t, snap.Valid)
}

func TestChange_PartialValueShowsNoError(t *testing.T) {
	f, _, rec := newTestForm(t)

	snap, err := f.Change("1234")
	require.NoError(t, err)

	v := snap.View()
	assert.True(t, v.Valid)
	assert.Equal(t, IndicatorNone, v.Indicator)
	assert.Empty(t, v.Message)
	assert.Equal(t, StateEditing, v.State)
	assert.Empty(t, rec.all())
}

func TestSubmit_Valid(t *testing.T) {
	f, _, rec := newTestForm(t)

	_, err := f.Change("12345678901")
	require.NoError(t, err)

	snap, err := f.Submit()
	require.NoError(t, err)
	assert.Equal(t, StateSubmitted, snap.State)
	assert.True(t, snap.Submitted)
	assert.True(t, snap.Valid)
	assert.False(t, snap.CanSubmit())
	assert.Equal(t, []Notification{SuccessNotice()}, rec.all())
	assert.Equal(t, SeverityDefault, rec.all()[0].Severity)
}

func TestSubmit_Invalid(t *testing.T) {
	f, _, rec := newTestForm(t)

	_, err := f.Change("1234")
	require.NoError(t, err)

	snap, err := f.Submit()
	require.ErrorIs(t, err, ErrInvalidPhone)
	assert.Equal(t, StateInvalid, snap.State)
	assert.False(t, snap.Valid)
	assert.False(t, snap.Submitted)
	assert.True(t, snap.CanSubmit())
	assert.Equal(t, "1234", snap.Value)

	notes := rec.all()
	require.Len(t, notes, 1)
	assert.Equal(t, "Invalid Phone Number", notes[0].Title)
	assert.Equal(t, "Please enter exactly 11 digits", notes[0].Description)
	assert.Equal(t, SeverityError, notes[0].Severity)

	// The next keystroke leaves Invalid.
	snap, err = f.Change("12345")
	require.NoError(t, err)
	assert.Equal(t, StateEditing, snap.State)
	assert.True(t, snap.Valid)
}

func TestSubmit_EmptyIsRejected(t *testing.T) {
	f, _, rec := newTestForm(t)

	snap, err := f.Submit()
	require.ErrorIs(t, err, ErrInvalidPhone)
	assert.False(t, snap.Valid)
	assert.Len(t, rec.all(), 1)
}

func TestReset_ExactlyAfterDelay(t *testing.T) {
	f, mock, _ := newTestForm(t)

	_, _ = f.Change("12345678901")
	_, err := f.Submit()
	require.NoError(t, err)

	mock.Add(ResetDelay - time.Millisecond)
	assert.True(t, f.Snapshot().Submitted, "reset must not fire before %s", ResetDelay)

	mock.Add(time.Millisecond)
	waitForReset(t, f)
	assert.Equal(t, Initial(), f.Snapshot())
}

func TestReset_IgnoresInteractionDuringWindow(t *testing.T) {
	f, mock, rec := newTestForm(t)

	_, _ = f.Change("12345678901")
	_, err := f.Submit()
	require.NoError(t, err)

	mock.Add(time.Second)
	snap, err := f.Change("999")
	require.NoError(t, err)
	assert.Equal(t, StateSubmitted, snap.State)
	assert.Equal(t, "999", snap.Value)

	_, err = f.Submit()
	require.ErrorIs(t, err, ErrSubmitDisabled)
	assert.Len(t, rec.all(), 1, "a disabled submit must not notify")

	mock.Add(ResetDelay - time.Second - time.Millisecond)
	assert.True(t, f.Snapshot().Submitted)

	mock.Add(time.Millisecond)
	waitForReset(t, f)
	assert.Equal(t, Initial(), f.Snapshot())
}

func TestReset_AllowsNextSubmission(t *testing.T) {
	f, mock, rec := newTestForm(t)

	for i := 0; i < 2; i++ {
		_, _ = f.Change("01700000000")
		_, err := f.Submit()
		require.NoError(t, err)
		mock.Add(ResetDelay)
		waitForReset(t, f)
	}
	assert.Len(t, rec.all(), 2)
}

func TestClose_SuppressesPendingReset(t *testing.T) {
	var events []Event
	f, mock, _ := newTestForm(t, WithObserver(func(ev Event, _ Snapshot) {
		events = append(events, ev)
	}))

	_, _ = f.Change("12345678901")
	_, err := f.Submit()
	require.NoError(t, err)

	f.Close()
	mock.Add(2 * ResetDelay)

	assert.True(t, f.Closed())
	assert.True(t, f.Snapshot().Submitted, "a closed form must not be reset")
	assert.Equal(t, []Event{EventChange, EventSubmit}, events)

	_, err = f.Change("1")
	assert.ErrorIs(t, err, ErrClosed)
	_, err = f.Submit()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestReset_StaleCallbackIsNoop(t *testing.T) {
	f, _, _ := newTestForm(t)

	_, _ = f.Change("12345678901")
	_, err := f.Submit()
	require.NoError(t, err)

	f.reset(f.gen + 1)
	assert.True(t, f.Snapshot().Submitted)

	gen := f.gen
	f.Close()
	f.reset(gen)
	assert.True(t, f.Snapshot().Submitted)
}

func TestObserver_SeesEveryTransition(t *testing.T) {
	var (
		mu     sync.Mutex
		events []Event
	)
	f, mock, _ := newTestForm(t, WithObserver(func(ev Event, snap Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, ev)
	}))

	_, _ = f.Submit()
	_, _ = f.Change("12345678901")
	_, _ = f.Submit()
	mock.Add(ResetDelay)
	waitForReset(t, f)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Event{EventReject, EventChange, EventSubmit, EventReset}, events)
}

func TestWithNormalizer(t *testing.T) {
	f, _, _ := newTestForm(t, WithNormalizer(phone.NewNormalizer(phone.WithWideDigits(true))))

	snap, err := f.Change("０１２３４５６７８９０")
	require.NoError(t, err)
	assert.Equal(t, "01234567890", snap.Value)
	assert.True(t, snap.Valid)
}

func TestSnapshot_JSON(t *testing.T) {
	b, err := json.Marshal(Snapshot{Value: "12", Valid: true, State: StateSubmitted, Submitted: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":"12","valid":true,"submitted":true,"state":"submitted"}`, string(b))

	var back Snapshot
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, StateSubmitted, back.State)

	assert.Error(t, json.Unmarshal([]byte(`{"state":"bogus"}`), &back))
}
