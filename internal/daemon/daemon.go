package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"devd/internal/bootstate"
	"devd/internal/coldboot"
	"devd/internal/config"
	"devd/internal/logging"
	"devd/internal/report"
	"devd/internal/selabel"
	"devd/internal/uevent"
)

// Daemon coordinates the cold-boot pass and the live event monitor, and
// enforces single-instance execution.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	state   *bootstate.State
	reports *report.Store
	monitor *netlinkMonitor

	configPath string
	lockPath   string
	lock       *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc

	// runColdBoot is replaceable in tests; the default builds and runs the
	// real orchestrator.
	runColdBoot func(ctx context.Context) error
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	ColdBootDone bool
	Monitoring   bool
	ReportDBPath string
	LockFilePath string
}

// New constructs a daemon with initialized dependencies. reports may be nil.
func New(cfg *config.Config, configPath string, reports *report.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || logger == nil {
		return nil, errors.New("daemon requires config and logger")
	}

	handlers := uevent.HandlersFromConfig(cfg, logger)
	lockPath := filepath.Join(cfg.Paths.StateDir, "devd.lock")

	d := &Daemon{
		cfg:        cfg,
		logger:     logger,
		state:      bootstate.New(),
		reports:    reports,
		monitor:    newNetlinkMonitor(handlers, logger),
		configPath: configPath,
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
	}
	d.runColdBoot = d.defaultColdBoot
	return d, nil
}

func (d *Daemon) defaultColdBoot(ctx context.Context) error {
	labeler, err := selabel.NewLabelerFromConfig(d.cfg, d.logger)
	if err != nil {
		return fmt.Errorf("load label contexts: %w", err)
	}
	boot := coldboot.New(d.cfg, coldboot.Options{
		Replayer:   uevent.NewSysfsReplayer(d.logger),
		Restorer:   restorerOrNil(labeler),
		State:      d.state,
		Reports:    d.reports,
		ConfigPath: d.configPath,
	}, d.logger)
	boot.Run(ctx)
	return nil
}

// Start acquires the daemon lock, runs the cold-boot pass, and begins live
// monitoring. Cold-boot worker failures abort the process before Start
// returns; see the coldboot package.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another devd instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	if err := d.runColdBoot(runCtx); err != nil {
		_ = d.lock.Unlock()
		cancel()
		d.cancel = nil
		return fmt.Errorf("cold boot: %w", err)
	}

	if err := d.monitor.Start(runCtx); err != nil {
		_ = d.lock.Unlock()
		cancel()
		d.cancel = nil
		return fmt.Errorf("start netlink monitor: %w", err)
	}

	d.running.Store(true)
	d.logger.Info("devd daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops live monitoring and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.monitor.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("devd daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.reports != nil {
		return d.reports.Close()
	}
	return nil
}

// ColdBootDone reports whether the initial event pass has completed.
func (d *Daemon) ColdBootDone() bool {
	return d.state.Done()
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	reportPath := ""
	if d.reports != nil {
		reportPath = d.reports.Path()
	}
	return Status{
		Running:      d.running.Load(),
		ColdBootDone: d.state.Done(),
		Monitoring:   d.monitor.Running(),
		ReportDBPath: reportPath,
		LockFilePath: d.lockPath,
	}
}

// restorerOrNil avoids wrapping a typed nil in a non-nil interface.
func restorerOrNil(labeler *selabel.Labeler) selabel.Restorer {
	if labeler == nil {
		return nil
	}
	return labeler
}
