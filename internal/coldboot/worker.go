package coldboot

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"devd/internal/config"
	"devd/internal/logging"
	"devd/internal/selabel"
	"devd/internal/shmem"
	"devd/internal/uevent"
)

// WorkerCommand is the hidden CLI command name workers are re-executed with.
const WorkerCommand = "coldboot-worker"

// slowRestoreThreshold flags restore targets worth promoting into the
// parallel_dirs configuration.
const slowRestoreThreshold = 50 * time.Millisecond

// reexecSpawn starts a worker by re-executing the daemon binary with the
// snapshot region on fd 3. Go cannot fork without exec, so workers rebuild
// their handlers from the shared configuration instead of inheriting them.
func reexecSpawn(configPath string, region *shmem.Region) SpawnFunc {
	return func(worker, workers int) (int, error) {
		exe, err := os.Executable()
		if err != nil {
			return 0, fmt.Errorf("resolve executable: %w", err)
		}
		args := []string{
			exe, WorkerCommand,
			"--index", strconv.Itoa(worker),
			"--count", strconv.Itoa(workers),
		}
		if configPath != "" {
			args = append(args, "--config", configPath)
		}
		proc, err := os.StartProcess(exe, args, &os.ProcAttr{
			Files: []*os.File{os.Stdin, os.Stdout, os.Stderr, region.File()},
		})
		if err != nil {
			return 0, err
		}
		// Reaping happens through the supervisor's wait loop, not Process.Wait.
		proc.Release()
		return proc.Pid, nil
	}
}

// WorkerMain is the worker-process entry point: load the inherited snapshot,
// apply every handler to the owned stride of the backlog, then recursively
// restore the owned stride of the discovered set. Any returned error makes
// the worker exit non-zero, which the parent escalates.
func WorkerMain(cfg *config.Config, index, count int, logger *slog.Logger) error {
	logger = logging.NewComponentLogger(logger, "coldboot-worker").
		With(logging.Int(logging.FieldWorker, index))

	snap, err := LoadSnapshot()
	if err != nil {
		return err
	}

	handlers := uevent.HandlersFromConfig(cfg, logger)
	handleEvents(snap, handlers, index, count, logger)

	if snap.Parallel {
		labeler, err := selabel.NewLabelerFromConfig(cfg, logger)
		if err != nil {
			return fmt.Errorf("load label contexts: %w", err)
		}
		if labeler != nil {
			restoreOwnedDirs(snap, labeler, index, count, logger)
		}
	}
	return nil
}

func handleEvents(snap Snapshot, handlers []uevent.Handler, index, count int, logger *slog.Logger) {
	for i, ev := range snap.Events {
		if !Owns(i, index, count) {
			continue
		}
		for _, handler := range handlers {
			if err := handler.Handle(ev); err != nil {
				logger.Warn("event handler",
					logging.String("handler", handler.Name()),
					logging.String("kobj", ev.KObj),
					logging.Error(err))
			}
		}
	}
}

func restoreOwnedDirs(snap Snapshot, restorer selabel.Restorer, index, count int, logger *slog.Logger) {
	workerStart := time.Now()

	for i, dir := range snap.RestoreDirs {
		if !Owns(i, index, count) {
			continue
		}
		start := time.Now()
		if err := restorer.Restore(dir, true); err != nil {
			logger.Warn("restorecon", logging.String("dir", dir), logging.Error(err))
		}
		// A slow directory is a candidate for the parallel_dirs config so
		// future boots split it across workers.
		if elapsed := time.Since(start); elapsed > slowRestoreThreshold {
			logger.Info("slow restorecon",
				logging.String("dir", dir),
				logging.Duration("took", elapsed))
		}
	}

	logger.Debug("restorecon stride complete",
		logging.Duration("took", time.Since(workerStart)))
}
