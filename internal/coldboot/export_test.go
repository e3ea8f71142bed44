package coldboot

import "devd/internal/shmem"

// SetExitForTest replaces the supervisor's abort hook so tests can observe
// fatal escalation without terminating the test process.
func SetExitForTest(s *Supervisor, exit func(code int)) {
	s.exit = exit
}

// SetSpawnForTest replaces how the orchestrator starts workers.
func SetSpawnForTest(c *ColdBoot, newSpawn func(region *shmem.Region) SpawnFunc) {
	c.newSpawn = newSpawn
}
