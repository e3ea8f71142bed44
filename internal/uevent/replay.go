package uevent

import (
	"context"
	"log/slog"

	"github.com/pilebones/go-udev/crawler"

	"devd/internal/logging"
)

// Action tells a replayer whether to keep delivering events.
type Action int

const (
	ActionContinue Action = iota
	ActionStop
)

// ReplayFunc receives one regenerated event and decides whether the replay
// continues.
type ReplayFunc func(Event) Action

// Replayer regenerates the device events that accumulated before the daemon
// attached, delivering each to the callback in discovery order.
type Replayer interface {
	Replay(ctx context.Context, fn ReplayFunc) error
}

// SysfsReplayer synthesizes an "add" event for every device already present
// in sysfs by crawling the kernel's uevent files.
type SysfsReplayer struct {
	logger *slog.Logger
}

// NewSysfsReplayer builds a replayer over the live sysfs tree.
func NewSysfsReplayer(logger *slog.Logger) *SysfsReplayer {
	return &SysfsReplayer{logger: logging.NewComponentLogger(logger, "uevent-replay")}
}

// Replay crawls existing devices and invokes fn for each. Per-device read
// errors are logged and skipped; the crawl itself is best-effort.
func (r *SysfsReplayer) Replay(ctx context.Context, fn ReplayFunc) error {
	queue := make(chan crawler.Device)
	errs := make(chan error)

	quit := crawler.ExistingDevices(queue, errs, nil)
	defer func() {
		close(quit)
		// The crawler may be blocked mid-send when we stop early.
		go func() {
			for range queue {
			}
		}()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case device, more := <-queue:
			if !more {
				return nil
			}
			ev := FromEnv("add", device.KObj, device.Env)
			if fn(ev) == ActionStop {
				return nil
			}
		case err := <-errs:
			r.logger.Warn("reading device uevent", logging.Error(err))
		}
	}
}
