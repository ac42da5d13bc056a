// sse/sse.go
package sse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dalemusser/phoneform/form"
)

// Event types pushed to a phone form page.
const (
	TypeToast = "toast"
	TypeState = "state"
)

var (
	// ErrFlushNotSupported is returned when the response writer can't flush.
	ErrFlushNotSupported = errors.New("sse: response writer does not support flushing")

	// ErrStreamClosed is returned when sending on a closed stream.
	ErrStreamClosed = errors.New("sse: stream closed")
)

// Event is one Server-Sent Event.
type Event struct {
	ID    string
	Event string
	Data  string
	Retry int
}

// NewJSONEvent creates an event whose data is v encoded as JSON.
func NewJSONEvent(eventType string, v any) (*Event, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("sse: encode %s event: %w", eventType, err)
	}
	return &Event{Event: eventType, Data: string(data)}, nil
}

// ToastEvent wraps a notification for the page's toast area.
func ToastEvent(n form.Notification) (*Event, error) {
	return NewJSONEvent(TypeToast, n)
}

// StateEvent wraps a form view so the page can re-render the form.
func StateEvent(v form.View) (*Event, error) {
	return NewJSONEvent(TypeState, v)
}

// Bytes serializes the event in wire format.
func (e *Event) Bytes() []byte {
	var buf strings.Builder

	if e.ID != "" {
		buf.WriteString("id: " + e.ID + "\n")
	}
	if e.Event != "" {
		buf.WriteString("event: " + e.Event + "\n")
	}
	if e.Retry > 0 {
		buf.WriteString("retry: " + strconv.Itoa(e.Retry) + "\n")
	}
	if e.Data != "" {
		for _, line := range strings.Split(e.Data, "\n") {
			buf.WriteString("data: " + line + "\n")
		}
	}
	buf.WriteByte('\n')
	return []byte(buf.String())
}

// Stream is an SSE connection to one client.
type Stream struct {
	w       http.ResponseWriter
	flusher http.Flusher
	mu      sync.Mutex
	closed  bool
}

// NewStream writes the SSE headers and returns a Stream.
func NewStream(w http.ResponseWriter) (*Stream, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrFlushNotSupported
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &Stream{w: w, flusher: flusher}, nil
}

// Send writes and flushes one event.
func (s *Stream) Send(event *Event) error {
	return s.write(event.Bytes())
}

// SendComment writes a comment line; clients ignore it.
func (s *Stream) SendComment(comment string) error {
	return s.write([]byte(": " + comment + "\n\n"))
}

func (s *Stream) write(b []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStreamClosed
	}
	if _, err := s.w.Write(b); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// Close marks the stream closed. Later sends fail with ErrStreamClosed.
func (s *Stream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// Config controls Serve.
type Config struct {
	// KeepAliveInterval is how often a keep-alive comment is sent.
	// Zero disables keep-alive.
	KeepAliveInterval time.Duration

	// RetryInterval is the reconnect delay suggested to the client.
	// Zero sends none.
	RetryInterval time.Duration
}

// DefaultConfig returns the settings used by the phone form page.
func DefaultConfig() Config {
	return Config{
		KeepAliveInterval: 30 * time.Second,
		RetryInterval:     3 * time.Second,
	}
}

// Serve forwards events to the stream until ctx is done, events is closed,
// or a write fails. The stream is closed on return.
func Serve(ctx context.Context, stream *Stream, cfg Config, events <-chan *Event) error {
	defer stream.Close()

	if cfg.RetryInterval > 0 {
		if err := stream.Send(&Event{Retry: int(cfg.RetryInterval.Milliseconds())}); err != nil {
			return err
		}
	}

	var keepAlive <-chan time.Time
	if cfg.KeepAliveInterval > 0 {
		ticker := time.NewTicker(cfg.KeepAliveInterval)
		defer ticker.Stop()
		keepAlive = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-events:
			if !ok {
				return nil
			}
			if err := stream.Send(event); err != nil {
				return err
			}

		case <-keepAlive:
			if err := stream.SendComment("keep-alive"); err != nil {
				return err
			}
		}
	}
}
