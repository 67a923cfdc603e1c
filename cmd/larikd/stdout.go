package main

import (
	"io"
	"sync"
)

// syncWriter serializes writes from the response loop and the event
// relay, which both write JSON values to the same stdout stream from
// separate goroutines.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
