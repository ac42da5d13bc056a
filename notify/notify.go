// notify/notify.go
package notify

import (
	"sync"

	"github.com/dalemusser/phoneform/form"
	"go.uber.org/zap"
)

// DefaultQueueSize bounds a Queue when no size is given.
const DefaultQueueSize = 16

// Log returns a Notifier that writes each notification to logger. Errors
// go out at Warn, everything else at Info.
func Log(logger *zap.Logger) form.Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return form.NotifierFunc(func(n form.Notification) {
		fields := []zap.Field{
			zap.String("title", n.Title),
			zap.String("description", n.Description),
			zap.String("severity", string(n.Severity)),
		}
		if n.Severity == form.SeverityError {
			logger.Warn("notification", fields...)
			return
		}
		logger.Info("notification", fields...)
	})
}

// Multi fans one notification out to every non-nil notifier, in order.
func Multi(ns ...form.Notifier) form.Notifier {
	list := make([]form.Notifier, 0, len(ns))
	for _, n := range ns {
		if n != nil {
			list = append(list, n)
		}
	}
	return form.NotifierFunc(func(n form.Notification) {
		for _, target := range list {
			target.Notify(n)
		}
	})
}

// Queue buffers notifications until a front end drains them: the HTTP
// handlers flush it into responses and the SSE stream forwards it. When
// full, the oldest notification is dropped.
type Queue struct {
	mu      sync.Mutex
	size    int
	pending []form.Notification
	ready   chan struct{}
}

// NewQueue returns a Queue holding at most size notifications.
func NewQueue(size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Queue{
		size:  size,
		ready: make(chan struct{}, 1),
	}
}

// Notify implements form.Notifier. It never blocks.
func (q *Queue) Notify(n form.Notification) {
	q.mu.Lock()
	if len(q.pending) == q.size {
		q.pending = q.pending[1:]
	}
	q.pending = append(q.pending, n)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// Drain removes and returns everything queued, oldest first.
func (q *Queue) Drain() []form.Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.pending
	q.pending = nil
	return out
}

// Len returns the number of queued notifications.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Ready is signalled after Notify. A receive does not guarantee the queue
// is non-empty; another reader may have drained it first.
func (q *Queue) Ready() <-chan struct{} {
	return q.ready
}
