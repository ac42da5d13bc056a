package registry

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/dalemusser/phoneform/form"
	"github.com/dalemusser/phoneform/metrics"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestRegistry(t *testing.T, cfg Config) (*Registry, *clock.Mock) {
	t.Helper()
	mock := clock.NewMock()
	cfg.Clock = mock
	r := New(cfg, zaptest.NewLogger(t))
	t.Cleanup(r.Close)
	return r, mock
}

func TestCreateAndGet(t *testing.T) {
	r, _ := newTestRegistry(t, Config{})

	s := r.Create()
	_, err := uuid.Parse(s.ID)
	require.NoError(t, err)

	got, ok := r.Get(s.ID)
	require.True(t, ok)
	assert.Same(t, s, got)
	assert.Equal(t, 1, r.Len())
}

func TestGet_UnknownOrMalformed(t *testing.T) {
	r, _ := newTestRegistry(t, Config{})

	_, ok := r.Get("not-a-uuid")
	assert.False(t, ok)

	_, ok = r.Get(uuid.NewString())
	assert.False(t, ok)
}

func TestGetOrCreate(t *testing.T) {
	r, _ := newTestRegistry(t, Config{})

	s, created := r.GetOrCreate("")
	require.True(t, created)

	again, created := r.GetOrCreate(s.ID)
	assert.False(t, created)
	assert.Same(t, s, again)
}

func TestSessionsAreIndependent(t *testing.T) {
	r, _ := newTestRegistry(t, Config{})
	a, b := r.Create(), r.Create()

	_, err := a.Form.Change("12345")
	require.NoError(t, err)

	assert.Equal(t, "12345", a.Form.Snapshot().Value)
	assert.Equal(t, "", b.Form.Snapshot().Value)
}

func TestRemove_ClosesForm(t *testing.T) {
	r, mock := newTestRegistry(t, Config{})
	s := r.Create()

	_, err := s.Form.Change("12345678901")
	require.NoError(t, err)
	_, err = s.Form.Submit()
	require.NoError(t, err)

	require.True(t, r.Remove(s.ID))
	assert.True(t, s.Form.Closed())

	mock.Add(form.ResetDelay)
	assert.True(t, s.Form.Snapshot().Submitted, "closed form must not reset")

	_, ok := r.Get(s.ID)
	assert.False(t, ok)
}

func TestMaxSessions_EvictsLeastRecentlyUsed(t *testing.T) {
	r, _ := newTestRegistry(t, Config{MaxSessions: 2})

	first := r.Create()
	second := r.Create()
	_, ok := r.Get(first.ID)
	require.True(t, ok)

	r.Create()

	assert.Equal(t, 2, r.Len())
	assert.True(t, second.Form.Closed())
	assert.False(t, first.Form.Closed())
}

func TestTTL_EvictsIdleSessions(t *testing.T) {
	r, _ := newTestRegistry(t, Config{TTL: 50 * time.Millisecond})
	s := r.Create()

	require.Eventually(t, func() bool {
		return s.Form.Closed()
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, r.Len())
}

func TestSubscribe_ReceivesTransitions(t *testing.T) {
	r, mock := newTestRegistry(t, Config{})
	s := r.Create()

	views, stop := s.Subscribe()
	defer stop()

	_, err := s.Form.Change("12345678901")
	require.NoError(t, err)
	v := <-views
	assert.Equal(t, "12345678901", v.Value)
	assert.Equal(t, form.IndicatorComplete, v.Indicator)

	_, err = s.Form.Submit()
	require.NoError(t, err)
	v = <-views
	assert.True(t, v.Submitted)

	mock.Add(form.ResetDelay)
	select {
	case v = <-views:
		assert.Equal(t, form.Initial(), v.Snapshot)
	case <-time.After(2 * time.Second):
		t.Fatal("reset view not published")
	}
}

func TestSubscribe_ClosedOnEviction(t *testing.T) {
	r, _ := newTestRegistry(t, Config{})
	s := r.Create()
	views, stop := s.Subscribe()

	r.Remove(s.ID)

	_, open := <-views
	assert.False(t, open)
	stop()

	late, _ := s.Subscribe()
	_, open = <-late
	assert.False(t, open)
}

func TestToastsQueued(t *testing.T) {
	r, _ := newTestRegistry(t, Config{})
	s := r.Create()

	_, err := s.Form.Submit()
	require.ErrorIs(t, err, form.ErrInvalidPhone)

	assert.Equal(t, []form.Notification{form.InvalidNotice()}, s.Toasts.Drain())
}

func TestExtraNotifierReceivesEveryForm(t *testing.T) {
	var mu sync.Mutex
	var got []form.Notification
	r, _ := newTestRegistry(t, Config{Notifier: form.NotifierFunc(func(n form.Notification) {
		mu.Lock()
		got = append(got, n)
		mu.Unlock()
	})})

	for _, s := range []*Session{r.Create(), r.Create()} {
		_, _ = s.Form.Change("12345678901")
		_, err := s.Form.Submit()
		require.NoError(t, err)
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []form.Notification{form.SuccessNotice(), form.SuccessNotice()}, got)
}

func TestActiveFormsGauge(t *testing.T) {
	r, _ := newTestRegistry(t, Config{})
	before := testutil.ToFloat64(metrics.ActiveForms)

	s := r.Create()
	r.Create()
	assert.Equal(t, before+2, testutil.ToFloat64(metrics.ActiveForms))

	r.Remove(s.ID)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.ActiveForms))
}

func TestResetsCounter(t *testing.T) {
	r, mock := newTestRegistry(t, Config{})
	s := r.Create()
	before := testutil.ToFloat64(metrics.Resets)

	_, _ = s.Form.Change("12345678901")
	_, err := s.Form.Submit()
	require.NoError(t, err)
	mock.Add(form.ResetDelay)

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.Resets) == before+1
	}, 2*time.Second, 5*time.Millisecond)
}

func TestCheck(t *testing.T) {
	r := New(Config{}, nil)
	assert.NoError(t, r.Check(context.Background()))

	s := r.Create()
	r.Close()
	assert.ErrorIs(t, r.Check(context.Background()), ErrClosed)
	assert.True(t, s.Form.Closed())
}
