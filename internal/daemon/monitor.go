package daemon

import (
	"context"
	"log/slog"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"devd/internal/logging"
	"devd/internal/uevent"
)

// netlinkMonitor listens for kernel uevents arriving after cold boot and
// feeds them through the handler chain. Handlers are not concurrency-safe,
// so dispatch is strictly sequential.
type netlinkMonitor struct {
	logger   *slog.Logger
	handlers []uevent.Handler

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
}

func newNetlinkMonitor(handlers []uevent.Handler, logger *slog.Logger) *netlinkMonitor {
	return &netlinkMonitor{
		logger:   logging.NewComponentLogger(logger, "netlink-monitor"),
		handlers: handlers,
	}
}

// Start begins listening for kernel uevents.
func (m *netlinkMonitor) Start(ctx context.Context) error {
	if m == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.KernelEvent); err != nil {
		m.logger.Warn("failed to connect to netlink socket; live events unavailable",
			logging.Error(err))
		return nil // Non-fatal: cold boot already handled the backlog.
	}

	m.conn = conn
	m.quit = make(chan struct{})
	m.running = true

	quit := m.quit
	go m.monitorLoop(ctx, quit)

	m.logger.Info("netlink monitor started")
	return nil
}

// Stop shuts down the netlink monitor.
func (m *netlinkMonitor) Stop() {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	if m.quit != nil {
		close(m.quit)
		m.quit = nil
	}
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	m.running = false

	m.logger.Info("netlink monitor stopped")
}

// Running reports whether the monitor is active.
func (m *netlinkMonitor) Running() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *netlinkMonitor) monitorLoop(ctx context.Context, quit <-chan struct{}) {
	queue := make(chan netlink.UEvent)
	errs := make(chan error)

	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()
	if conn == nil {
		return
	}

	monitorQuit := conn.Monitor(queue, errs, nil)

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case raw := <-queue:
			m.handleEvent(raw)
		case err := <-errs:
			m.logger.Warn("netlink monitor error", logging.Error(err))
		}
	}
}

func (m *netlinkMonitor) handleEvent(raw netlink.UEvent) {
	ev := uevent.FromEnv(string(raw.Action), raw.KObj, raw.Env)
	for _, handler := range m.handlers {
		if err := handler.Handle(ev); err != nil {
			m.logger.Warn("event handler",
				logging.String("handler", handler.Name()),
				logging.String("kobj", ev.KObj),
				logging.Error(err))
		}
	}
}
