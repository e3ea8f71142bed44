package daemon

import "context"

// SetColdBootForTest replaces the cold-boot pass run during Start.
func SetColdBootForTest(d *Daemon, run func(ctx context.Context) error) {
	d.runColdBoot = run
}
