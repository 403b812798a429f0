package mocks

import (
	"sync"

	"github.com/user/mapshot/pkg/ports"
)

// Notifier is a mock implementation of ports.Notifier.
type Notifier struct {
	mu      sync.Mutex
	Notices []Notice
}

// Notice records a call to Notify.
type Notice struct {
	Level   ports.NoticeLevel
	Message string
}

func (m *Notifier) Notify(level ports.NoticeLevel, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Notices = append(m.Notices, Notice{Level: level, Message: message})
}

// Last returns the most recent notice, or false if none was sent.
func (m *Notifier) Last() (Notice, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Notices) == 0 {
		return Notice{}, false
	}
	return m.Notices[len(m.Notices)-1], true
}

var _ ports.Notifier = (*Notifier)(nil)
