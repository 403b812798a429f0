// Package notify provides user-facing notifiers.
package notify

import (
	"github.com/gen2brain/beeep"

	"github.com/user/mapshot/pkg/ports"
)

// Console shows notifications through a logger.
type Console struct {
	logger ports.Logger
}

// NewConsole creates a notifier that writes through logger.
func NewConsole(logger ports.Logger) *Console {
	return &Console{logger: logger}
}

// Notify logs the message at a level matching the notice.
func (c *Console) Notify(level ports.NoticeLevel, message string) {
	switch level {
	case ports.NoticeError:
		c.logger.Error("%s", message)
	case ports.NoticeWarn:
		c.logger.Warn("%s", message)
	default:
		c.logger.Info("%s", message)
	}
}

var _ ports.Notifier = (*Console)(nil)

// Desktop shows notifications with the operating system's notification center.
type Desktop struct {
	title  string
	icon   string
	logger ports.Logger
	notify func(title, message string, icon any) error
	alert  func(title, message string, icon any) error
}

// NewDesktop creates a desktop notifier. Delivery failures are logged at debug level.
func NewDesktop(title, icon string, logger ports.Logger) *Desktop {
	return &Desktop{
		title:  title,
		icon:   icon,
		logger: logger.WithComponent("notify"),
		notify: beeep.Notify,
		alert:  beeep.Alert,
	}
}

// Notify sends a desktop notification; errors use an alert with sound.
func (d *Desktop) Notify(level ports.NoticeLevel, message string) {
	send := d.notify
	if level == ports.NoticeError {
		send = d.alert
	}
	if err := send(d.title, message, d.icon); err != nil {
		d.logger.Debug("desktop notification failed: %s", err)
	}
}

var _ ports.Notifier = (*Desktop)(nil)

// Multi fans a notification out to several notifiers.
type Multi []ports.Notifier

// Notify forwards the notice to every notifier in order.
func (m Multi) Notify(level ports.NoticeLevel, message string) {
	for _, n := range m {
		if n != nil {
			n.Notify(level, message)
		}
	}
}

var _ ports.Notifier = Multi(nil)
