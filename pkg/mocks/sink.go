package mocks

import (
	"sync"

	"github.com/user/mapshot/pkg/ports"
)

// DebugSink is a mock implementation of ports.DebugSink.
type DebugSink struct {
	mu sync.RWMutex

	enabled bool

	CaptureJSON []byte
	Snapshots   map[int][]byte
}

// NewDebugSink creates a new mock DebugSink.
func NewDebugSink(enabled bool) *DebugSink {
	return &DebugSink{
		enabled:   enabled,
		Snapshots: make(map[int][]byte),
	}
}

func (m *DebugSink) Enabled() bool {
	return m.enabled
}

func (m *DebugSink) SaveSnapshot(index int, name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Snapshots[index] = data
	return nil
}

func (m *DebugSink) SaveCaptureJSON(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CaptureJSON = data
	return nil
}

var _ ports.DebugSink = (*DebugSink)(nil)

// NullSink is a no-op implementation of ports.DebugSink.
type NullSink struct{}

func (m *NullSink) Enabled() bool { return false }
func (m *NullSink) SaveSnapshot(index int, name string, data []byte) error { return nil }
func (m *NullSink) SaveCaptureJSON(data []byte) error { return nil }

var _ ports.DebugSink = (*NullSink)(nil)
