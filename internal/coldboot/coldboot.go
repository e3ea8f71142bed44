package coldboot

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"devd/internal/bootstate"
	"devd/internal/config"
	"devd/internal/logging"
	"devd/internal/report"
	"devd/internal/selabel"
	"devd/internal/shmem"
	"devd/internal/uevent"
)

// ColdBoot drives the initial device-event pass. It is single use: one Run
// consumes the regenerated backlog once.
type ColdBoot struct {
	cfg      *config.Config
	logger   *slog.Logger
	replayer uevent.Replayer
	restorer selabel.Restorer
	state    *bootstate.State
	reports  *report.Store

	// newSpawn builds the worker spawner once the snapshot region exists.
	// Production re-executes the daemon binary; tests substitute stubs.
	newSpawn func(region *shmem.Region) SpawnFunc

	backlog         uevent.Backlog
	parallelDirs    []string
	restoreconQueue []string
}

// Options carries the orchestrator's collaborators. Restorer and Reports may
// be nil (labeling disabled, no persistence).
type Options struct {
	Replayer uevent.Replayer
	Restorer selabel.Restorer
	State    *bootstate.State
	Reports  *report.Store
	// ConfigPath is handed to re-executed workers so they can rebuild their
	// handlers from the same configuration.
	ConfigPath string
}

// New builds the orchestrator.
func New(cfg *config.Config, opts Options, logger *slog.Logger) *ColdBoot {
	c := &ColdBoot{
		cfg:          cfg,
		logger:       logging.NewComponentLogger(logger, "coldboot"),
		replayer:     opts.Replayer,
		restorer:     opts.Restorer,
		state:        opts.State,
		reports:      opts.Reports,
		parallelDirs: append([]string(nil), cfg.ColdBoot.ParallelDirs...),
	}
	c.newSpawn = func(region *shmem.Region) SpawnFunc {
		return reexecSpawn(opts.ConfigPath, region)
	}
	return c
}

// Run executes the cold-boot pass: regenerate, seed discovery, fan out,
// sequential remainder, reap, publish completion.
func (c *ColdBoot) Run(ctx context.Context) {
	start := time.Now()
	session := report.NewSession()

	c.regenerateEvents(ctx)

	parallel := c.cfg.ColdBoot.EnableParallelRestorecon && c.restorer != nil
	if parallel {
		if len(c.parallelDirs) == 0 {
			c.parallelDirs = []string{
				c.cfg.ColdBoot.SysfsRoot,
				// Relabeling the devices subtree dominates cold boot on most
				// machines, so it gets its own parallel entry.
				filepath.Join(c.cfg.ColdBoot.SysfsRoot, "devices"),
			}
			c.logger.Info("parallel restorecon directories not set, using defaults")
		}
		for _, dir := range c.parallelDirs {
			if err := c.restorer.Restore(dir, false); err != nil {
				c.logger.Warn("restorecon", logging.String("dir", dir), logging.Error(err))
			}
			c.generateRestoreCon(dir)
		}
	}

	workers := c.cfg.ColdBoot.WorkerCount
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	supervisor := c.forkWorkers(workers, parallel)

	if !parallel && c.restorer != nil {
		if err := c.restorer.Restore(c.cfg.ColdBoot.SysfsRoot, true); err != nil {
			c.logger.Warn("restorecon", logging.String("dir", c.cfg.ColdBoot.SysfsRoot), logging.Error(err))
		}
	}

	supervisor.WaitForAll()

	if c.state != nil {
		c.state.SetDone()
	}

	elapsed := time.Since(start)
	c.logger.Info("cold boot complete",
		logging.Duration("took", elapsed),
		logging.Int("events", c.backlog.Len()),
		logging.Int("workers", workers),
		logging.String(logging.FieldSession, session.ID))

	if c.reports != nil {
		session.FinishedAt = time.Now().UTC()
		session.Duration = elapsed
		session.Events = c.backlog.Len()
		session.Workers = workers
		session.Parallel = parallel
		session.Outcome = "ok"
		if err := c.reports.Record(ctx, session); err != nil {
			c.logger.Warn("record boot session", logging.Error(err))
		}
	}
}

// regenerateEvents replays every pending kernel event into the backlog. The
// callback always continues; cold boot wants the whole backlog.
func (c *ColdBoot) regenerateEvents(ctx context.Context) {
	err := c.replayer.Replay(ctx, func(ev uevent.Event) uevent.Action {
		c.backlog.Append(ev)
		return uevent.ActionContinue
	})
	if err != nil {
		c.logger.Warn("regenerating device events", logging.Error(err))
	}
}

// generateRestoreCon enumerates the immediate subdirectories of dir into the
// discovered restore set, skipping any that is itself a parallel target so
// nested pre-declared paths are not relabeled twice.
func (c *ColdBoot) generateRestoreCon(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		c.logger.Warn("opendir", logging.String("dir", dir), logging.Error(err))
		return
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		fullpath := filepath.Join(dir, entry.Name())
		if containsPath(c.parallelDirs, fullpath) {
			continue
		}
		c.restoreconQueue = append(c.restoreconQueue, fullpath)
	}
}

func containsPath(paths []string, candidate string) bool {
	for _, path := range paths {
		if path == candidate {
			return true
		}
	}
	return false
}

// forkWorkers seals the snapshot and starts the worker processes. A snapshot
// that cannot be built is as fatal as a failed fork: no worker could do
// correct work without it.
func (c *ColdBoot) forkWorkers(workers int, parallel bool) *Supervisor {
	snapshot := Snapshot{
		Events:      c.backlog.Events(),
		RestoreDirs: c.restoreconQueue,
		Parallel:    parallel,
	}
	region, err := snapshot.Seal()
	if err != nil {
		c.logger.Error("sealing cold boot snapshot", logging.Error(err))
		os.Exit(1)
	}

	supervisor := NewSupervisor(c.newSpawn(region), c.logger)
	supervisor.ForkWorkers(workers)

	// Workers hold their own inherited descriptors now.
	_ = region.Close()
	return supervisor
}
