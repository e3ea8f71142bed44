package coldboot_test

import (
	"errors"
	"os/exec"
	"testing"

	"devd/internal/coldboot"
	"devd/internal/logging"
)

// spawnCommand starts a real child running the named program so the reap
// loop has genuine pids and exit statuses to work with.
func spawnCommand(t *testing.T, name string) coldboot.SpawnFunc {
	t.Helper()
	path, err := exec.LookPath(name)
	if err != nil {
		t.Skipf("%s not available: %v", name, err)
	}
	return func(worker, workers int) (int, error) {
		cmd := exec.Command(path)
		if err := cmd.Start(); err != nil {
			return 0, err
		}
		// Reaping is the supervisor's job; Process.Wait must stay out of it.
		return cmd.Process.Pid, nil
	}
}

func TestWaitForAllReapsSuccessfulWorkers(t *testing.T) {
	sup := coldboot.NewSupervisor(spawnCommand(t, "true"), logging.NewNop())

	exited := false
	coldboot.SetExitForTest(sup, func(code int) { exited = true })

	sup.ForkWorkers(3)
	sup.WaitForAll()

	if exited {
		t.Fatal("supervisor aborted although every worker succeeded")
	}
}

func TestWaitForAllEscalatesWorkerFailure(t *testing.T) {
	sup := coldboot.NewSupervisor(spawnCommand(t, "false"), logging.NewNop())

	exitCode := -1
	coldboot.SetExitForTest(sup, func(code int) { exitCode = code })

	sup.ForkWorkers(1)
	sup.WaitForAll()

	if exitCode != 1 {
		t.Fatalf("expected fatal abort with code 1, got %d", exitCode)
	}
}

func TestForkWorkersFatalOnSpawnFailure(t *testing.T) {
	spawn := func(worker, workers int) (int, error) {
		return 0, errors.New("fork failed")
	}
	sup := coldboot.NewSupervisor(spawn, logging.NewNop())

	exitCode := -1
	coldboot.SetExitForTest(sup, func(code int) { exitCode = code })

	sup.ForkWorkers(2)

	if exitCode != 1 {
		t.Fatalf("expected fatal abort on spawn failure, got %d", exitCode)
	}
}

func TestWaitForAllIgnoresUntrackedPids(t *testing.T) {
	truePath, err := exec.LookPath("true")
	if err != nil {
		t.Skipf("true not available: %v", err)
	}

	// An unrelated child the supervisor never tracked.
	stray := exec.Command(truePath)
	if err := stray.Start(); err != nil {
		t.Fatalf("start stray child: %v", err)
	}

	sup := coldboot.NewSupervisor(spawnCommand(t, "true"), logging.NewNop())
	exited := false
	coldboot.SetExitForTest(sup, func(code int) { exited = true })

	sup.ForkWorkers(1)
	sup.WaitForAll()

	if exited {
		t.Fatal("supervisor aborted after reaping an untracked pid")
	}
}
