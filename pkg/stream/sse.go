// Package stream writes named server-sent events and paces their delivery.
package stream

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

const (
	EventSection        = "section"
	EventInterpretation = "interpretation"
	EventTitle          = "title"
	EventDone           = "done"
	EventError          = "error"
)

// Sink receives events in order. A non-nil error means the client is gone
// and nothing more should be written.
type Sink interface {
	Send(event string, payload any) error
}

type flushWriter interface {
	io.Writer
	Flush() error
}

// SSEWriter frames events as text/event-stream and flushes after each one.
type SSEWriter struct {
	w flushWriter
}

func NewSSEWriter(w *bufio.Writer) *SSEWriter {
	return &SSEWriter{w: w}
}

func (s *SSEWriter) Send(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event, err)
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	return s.w.Flush()
}
