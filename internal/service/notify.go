package service

import (
	"errors"
	"runtime"

	"github.com/okzk/sdnotify"

	"taskly/internal/logger"
)

// Notifier sends sd_notify messages. Outside Linux, or when the daemon was
// not started by systemd, every call is a no-op.
type Notifier struct {
	log     *logger.Logger
	enabled bool
	send    func(state string) error
}

// NewNotifier creates a notifier for the current platform
func NewNotifier(log *logger.Logger) *Notifier {
	if log == nil {
		log = logger.Discard()
	}
	return &Notifier{log: log, enabled: runtime.GOOS == "linux", send: sdnotify.SdNotify}
}

func (n *Notifier) notify(state string) {
	if !n.enabled {
		return
	}
	if err := n.send(state); err != nil {
		if errors.Is(err, sdnotify.ErrSdNotifyNoSocket) {
			// not running under systemd
			n.enabled = false
			return
		}
		n.log.Debug("sd_notify %q failed: %v", state, err)
	}
}

// Ready reports startup complete (Type=notify services)
func (n *Notifier) Ready() {
	n.notify("READY=1")
	n.log.Debug("Sent READY notification to systemd")
}

// Stopping reports that shutdown has begun
func (n *Notifier) Stopping() {
	n.notify("STOPPING=1")
	n.log.Debug("Sent STOPPING notification to systemd")
}

// Watchdog pings the systemd watchdog
func (n *Notifier) Watchdog() {
	n.notify("WATCHDOG=1")
}

// Status sets the free-form status line shown by systemctl
func (n *Notifier) Status(status string) {
	n.notify("STATUS=" + status)
}
