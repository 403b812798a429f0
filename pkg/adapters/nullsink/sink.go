// Package nullsink provides a no-op debug sink implementation.
package nullsink

import (
	"github.com/user/mapshot/pkg/ports"
)

// Sink is a no-op implementation of ports.DebugSink.
// It discards all debug output.
type Sink struct{}

// New creates a new null sink.
func New() *Sink {
	return &Sink{}
}

// Enabled returns false as this sink discards all output.
func (s *Sink) Enabled() bool {
	return false
}

// SaveSnapshot does nothing.
func (s *Sink) SaveSnapshot(index int, name string, data []byte) error {
	return nil
}

// SaveCaptureJSON does nothing.
func (s *Sink) SaveCaptureJSON(data []byte) error {
	return nil
}

var _ ports.DebugSink = (*Sink)(nil)
