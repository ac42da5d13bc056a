// registry/registry.go
package registry

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/dalemusser/phoneform/form"
	"github.com/dalemusser/phoneform/metrics"
	"github.com/dalemusser/phoneform/notify"
	"github.com/dalemusser/phoneform/phone"
	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
)

// ErrClosed is returned by Check after Close.
var ErrClosed = errors.New("registry: closed")

const (
	DefaultTTL         = 30 * time.Minute
	DefaultMaxSessions = 10000

	subscriberBuffer = 8
)

// Config controls how sessions are created and evicted.
type Config struct {
	// TTL is how long an untouched session lives. Each lookup renews it.
	TTL time.Duration

	// MaxSessions caps live sessions; the least recently used is evicted.
	MaxSessions int

	// Normalizer is given to every new form.
	Normalizer phone.Normalizer

	// Notifier, if set, receives every form's notifications in addition to
	// the session's own toast queue.
	Notifier form.Notifier

	// Clock drives reset timers. Nil uses the wall clock.
	Clock clock.Clock
}

// Session is one visitor's mounted form plus the channels its page
// listens on.
type Session struct {
	ID     string
	Form   *form.Form
	Toasts *notify.Queue

	mu     sync.Mutex
	subs   map[chan form.View]struct{}
	closed bool
}

// Subscribe returns a channel that receives the form's view after every
// transition, and a func to stop. The channel is closed when the session is
// evicted. Slow subscribers miss intermediate views, never the channel close.
func (s *Session) Subscribe() (<-chan form.View, func()) {
	ch := make(chan form.View, subscriberBuffer)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	s.subs[ch] = struct{}{}

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subs[ch]; ok {
			delete(s.subs, ch)
			close(ch)
		}
	}
}

func (s *Session) publish(ev form.Event, snap form.Snapshot) {
	if ev == form.EventReset {
		metrics.Resets.Inc()
	}

	v := snap.View()
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- v:
		default:
		}
	}
}

func (s *Session) close() {
	s.Form.Close()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for ch := range s.subs {
		close(ch)
	}
	s.subs = nil
}

// Registry holds live sessions in memory. Nothing is persisted; an evicted
// session's form is closed so a pending reset becomes a no-op.
type Registry struct {
	cfg    Config
	cache  *expirable.LRU[string, *Session]
	logger *zap.Logger
	closed atomic.Bool
}

// New builds a Registry. Zero Config fields take the package defaults.
func New(cfg Config, logger *zap.Logger) *Registry {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = DefaultMaxSessions
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Registry{cfg: cfg, logger: logger}
	r.cache = expirable.NewLRU[string, *Session](cfg.MaxSessions, r.evicted, cfg.TTL)
	return r
}

func (r *Registry) evicted(id string, s *Session) {
	s.close()
	metrics.ActiveForms.Dec()
	r.logger.Debug("phone form session evicted", zap.String("session_id", id))
}

// Create mounts a new form under a fresh session id.
func (r *Registry) Create() *Session {
	s := &Session{
		ID:     uuid.NewString(),
		Toasts: notify.NewQueue(notify.DefaultQueueSize),
		subs:   make(map[chan form.View]struct{}),
	}
	s.Form = form.New(
		form.WithClock(r.cfg.Clock),
		form.WithNormalizer(r.cfg.Normalizer),
		form.WithNotifier(notify.Multi(s.Toasts, r.cfg.Notifier)),
		form.WithObserver(s.publish),
	)

	r.cache.Add(s.ID, s)
	metrics.ActiveForms.Inc()
	r.logger.Debug("phone form session created", zap.String("session_id", s.ID))
	return s
}

// Get returns the live session for id and renews its TTL.
func (r *Registry) Get(id string) (*Session, bool) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, false
	}
	s, ok := r.cache.Get(id)
	if !ok || s.Form.Closed() {
		return nil, false
	}
	r.cache.Add(id, s)
	return s, true
}

// GetOrCreate returns the session for id, or a new one when id is unknown,
// malformed or expired. created reports which.
func (r *Registry) GetOrCreate(id string) (s *Session, created bool) {
	if s, ok := r.Get(id); ok {
		return s, false
	}
	return r.Create(), true
}

// Remove evicts the session for id, closing its form.
func (r *Registry) Remove(id string) bool {
	return r.cache.Remove(id)
}

// Len returns the number of cached sessions.
func (r *Registry) Len() int {
	return r.cache.Len()
}

// Close evicts every session. Sessions created afterwards still work but
// Check reports the registry as down.
func (r *Registry) Close() {
	r.closed.Store(true)
	r.cache.Purge()
}

// Check is a health probe.
func (r *Registry) Check(context.Context) error {
	if r.closed.Load() {
		return ErrClosed
	}
	return nil
}
