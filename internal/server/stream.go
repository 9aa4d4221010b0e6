package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
)

var errStreamingUnsupported = errors.New("streaming not supported")

// eventStream writes numbered Server-Sent Events; safe for concurrent use
type eventStream struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
	seq     int
}

func newEventStream(w http.ResponseWriter) (*eventStream, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errStreamingUnsupported
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	return &eventStream{w: w, flusher: flusher}, nil
}

// send writes one event with a JSON payload and flushes it
func (s *eventStream) send(event string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", event, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	if _, err := fmt.Fprintf(s.w, "id: %d\nevent: %s\ndata: %s\n\n", s.seq, event, body); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}
