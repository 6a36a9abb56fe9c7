// Package streamtest records and decodes server-sent events for tests.
package streamtest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"sync"

	"tarot-oracle-be/pkg/stream"
)

var _ stream.Sink = (*Recorder)(nil)

// Event is one decoded server-sent event.
type Event struct {
	Name string
	Data json.RawMessage
}

// Decode reads a complete event stream.
func Decode(r io.Reader) ([]Event, error) {
	var (
		events []Event
		name   string
		data   []byte
	)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		switch {
		case line == "":
			if name != "" || len(data) > 0 {
				events = append(events, Event{Name: name, Data: bytes.Clone(data)})
			}
			name, data = "", data[:0]
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimSpace(strings.TrimPrefix(line, "data:"))...)
		}
	}
	return events, scanner.Err()
}

// Recorder is an in-memory stream.Sink. FailAfter > 0 makes Send fail once
// that many events have been recorded.
type Recorder struct {
	mu        sync.Mutex
	Events    []Event
	FailAfter int
}

func (r *Recorder) Send(event string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailAfter > 0 && len(r.Events) >= r.FailAfter {
		return io.ErrClosedPipe
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	r.Events = append(r.Events, Event{Name: event, Data: data})
	return nil
}

// Names lists recorded event names in order.
func (r *Recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.Events))
	for i, e := range r.Events {
		names[i] = e.Name
	}
	return names
}
