package phoneform

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/phoneform/form"
	"github.com/dalemusser/phoneform/httputil"
	"github.com/dalemusser/phoneform/registry"
	"github.com/dalemusser/phoneform/sse"
	"go.uber.org/zap"
)

// ServeEvents streams the session's notifications as "toast" events and
// every form transition, the timed reset included, as "state" events.
// The current state is sent first.
func (h *Handler) ServeEvents(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)

	stream, err := sse.NewStream(w)
	if err != nil {
		h.logger.Error("event stream unavailable", zap.Error(err))
		httputil.JSONError(w, http.StatusInternalServerError, "stream_unsupported", "Streaming is not supported.")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	views, stop := sess.Subscribe()
	defer stop()

	events := make(chan *sse.Event)
	go h.pump(ctx, sess, views, events)

	err = sse.Serve(ctx, stream, h.opts.SSE, events)
	if err != nil && !errors.Is(err, context.Canceled) {
		h.logger.Debug("event stream ended", zap.String("session_id", sess.ID), zap.Error(err))
	}
}

// pump turns session activity into events until ctx is done or the
// session is evicted, then closes out.
func (h *Handler) pump(ctx context.Context, sess *registry.Session, views <-chan form.View, out chan<- *sse.Event) {
	defer close(out)

	send := func(ev *sse.Event, err error) bool {
		if err != nil {
			h.logger.Error("encode event", zap.Error(err))
			return true
		}
		select {
		case out <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}
	toasts := func() bool {
		for _, n := range sess.Toasts.Drain() {
			if !send(sse.ToastEvent(n)) {
				return false
			}
		}
		return true
	}

	if !send(sse.StateEvent(sess.Form.Snapshot().View())) || !toasts() {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case v, ok := <-views:
			if !ok {
				return
			}
			if !send(sse.StateEvent(v)) {
				return
			}
		case <-sess.Toasts.Ready():
			if !toasts() {
				return
			}
		}
	}
}
