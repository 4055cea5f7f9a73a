// Package systemd reports service state to the systemd service manager.
package systemd

import (
	"context"
	"log/slog"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
)

// notifyFunc matches daemon.SdNotify.
type notifyFunc func(unsetEnvironment bool, state string) (bool, error)

// watchdogFunc matches daemon.SdWatchdogEnabled.
type watchdogFunc func(unsetEnvironment bool) (time.Duration, error)

// Notifier sends sd_notify messages. Outside systemd every call is a no-op.
type Notifier struct {
	notify   notifyFunc
	watchdog watchdogFunc
	logger   *slog.Logger
}

// NewNotifier creates a notifier bound to $NOTIFY_SOCKET.
func NewNotifier(logger *slog.Logger) *Notifier {
	return &Notifier{
		notify:   daemon.SdNotify,
		watchdog: daemon.SdWatchdogEnabled,
		logger:   logger,
	}
}

// Ready reports READY=1 along with a status line.
func (n *Notifier) Ready(status string) {
	n.send(daemon.SdNotifyReady + "\nSTATUS=" + status)
}

// Stopping reports STOPPING=1.
func (n *Notifier) Stopping() {
	n.send(daemon.SdNotifyStopping)
}

// Status updates the free-form status shown by systemctl status.
func (n *Notifier) Status(status string) {
	n.send("STATUS=" + status)
}

// RunWatchdog pings the watchdog at half the configured interval until ctx
// is done. It returns immediately when the unit has no WatchdogSec.
func (n *Notifier) RunWatchdog(ctx context.Context) {
	interval, err := n.watchdog(false)
	if err != nil {
		n.logger.Warn("Failed to read watchdog settings", "error", err)
		return
	}
	if interval <= 0 {
		return
	}

	period := interval / 2
	n.logger.Debug("Watchdog enabled", "interval", interval, "ping_every", period)

	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n.send(daemon.SdNotifyWatchdog)
		}
	}
}

func (n *Notifier) send(state string) {
	sent, err := n.notify(false, state)
	if err != nil {
		n.logger.Warn("Failed to notify systemd", "state", state, "error", err)
		return
	}
	if sent {
		n.logger.Debug("Notified systemd", "state", state)
	}
}
