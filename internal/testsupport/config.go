// Package testsupport provides shared helpers for package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"devd/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// Labeling and module loading are disabled by default so tests never touch
// host state.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.ColdBoot.SysfsRoot = filepath.Join(base, "sys")
	cfg.ColdBoot.WorkerCount = 1
	cfg.Labeling.Enabled = false
	cfg.Modules.Enabled = false

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithParallelDirs sets the explicit parallel restore targets.
func WithParallelDirs(dirs ...string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.ColdBoot.ParallelDirs = dirs
	}
}

// WithWorkerCount overrides the cold-boot worker count.
func WithWorkerCount(count int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.ColdBoot.WorkerCount = count
	}
}

// WithDeviceRules installs device permission rules.
func WithDeviceRules(rules ...config.DeviceRule) ConfigOption {
	return func(cfg *config.Config) {
		cfg.DeviceRules = rules
	}
}
