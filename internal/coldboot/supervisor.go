package coldboot

import (
	"errors"
	"log/slog"
	"os"

	"golang.org/x/sys/unix"

	"devd/internal/logging"
)

// SpawnFunc starts one worker process for the given assignment and returns
// its pid.
type SpawnFunc func(worker, workers int) (int, error)

// Supervisor fans the cold-boot pass out across worker processes and reaps
// them with a fatal-on-crash policy.
type Supervisor struct {
	spawn  SpawnFunc
	logger *slog.Logger
	pids   map[int]struct{}
	exit   func(code int)
}

// NewSupervisor builds a supervisor that starts workers via spawn.
func NewSupervisor(spawn SpawnFunc, logger *slog.Logger) *Supervisor {
	return &Supervisor{
		spawn:  spawn,
		logger: logging.NewComponentLogger(logger, "coldboot"),
		pids:   map[int]struct{}{},
		exit:   os.Exit,
	}
}

// ForkWorkers starts exactly count workers. A spawn failure is immediately
// fatal; there is no partial fan-out to recover.
func (s *Supervisor) ForkWorkers(count int) {
	for i := 0; i < count; i++ {
		pid, err := s.spawn(i, count)
		if err != nil {
			s.fatal("spawning cold boot worker failed", logging.Error(err), logging.Int(logging.FieldWorker, i))
			return
		}
		s.pids[pid] = struct{}{}
	}
}

// WaitForAll reaps workers in arrival order until none remain. Untracked
// pids are ignored; they may belong to an unrelated grandchild. A tracked
// worker that exits non-zero or dies by signal is treated the same as the
// daemon itself crashing: the daemon aborts, its supervisor restarts it, and
// cold boot reruns from scratch. A worker that hangs keeps us waiting here;
// the external boot watchdog owns that timeout.
func (s *Supervisor) WaitForAll() {
	for len(s.pids) > 0 {
		var status unix.WaitStatus
		pid, err := unix.Wait4(-1, &status, 0, nil)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			s.logger.Error("wait for cold boot worker", logging.Error(err))
			continue
		}

		if _, tracked := s.pids[pid]; !tracked {
			continue
		}

		switch {
		case status.Exited() && status.ExitStatus() == 0:
			delete(s.pids, pid)
		case status.Exited():
			s.fatal("cold boot worker exited abnormally",
				logging.Int("pid", pid), logging.Int("status", status.ExitStatus()))
			return
		case status.Signaled():
			s.fatal("cold boot worker killed by signal",
				logging.Int("pid", pid), logging.String("signal", status.Signal().String()))
			return
		}
	}
}

func (s *Supervisor) fatal(msg string, attrs ...logging.Attr) {
	s.logger.Error(msg, logging.Args(attrs...)...)
	s.exit(1)
}
