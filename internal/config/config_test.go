package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"devd/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.toml")
	cfg, resolved, exists, err := config.Load(missing)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if exists {
		t.Fatal("reported an absent file as existing")
	}
	if resolved != missing {
		t.Fatalf("resolved path = %s, want %s", resolved, missing)
	}
	if cfg.ColdBoot.SysfsRoot != "/sys" {
		t.Fatalf("sysfs root = %s, want /sys", cfg.ColdBoot.SysfsRoot)
	}
	if !cfg.ColdBoot.EnableParallelRestorecon {
		t.Fatal("parallel restorecon should default on")
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	path := writeConfig(t, `
[paths]
log_dir = "/tmp/devd-test/logs"

[logging]
format = "JSON"
level = "Debug"

[coldboot]
worker_count = 4
parallel_dirs = ["/sys", "", "  /sys/devices  "]

[labeling]
enabled = true
threads = 8

[[device_rules]]
pattern = "/dev/ttyS*"
mode = "0660"
uid = 0
gid = 5
`)
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !exists {
		t.Fatal("existing file reported missing")
	}
	if cfg.ColdBoot.WorkerCount != 4 {
		t.Fatalf("worker count = %d, want 4", cfg.ColdBoot.WorkerCount)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("logging fields not lowercased: %+v", cfg.Logging)
	}
	want := []string{"/sys", "/sys/devices"}
	if len(cfg.ColdBoot.ParallelDirs) != len(want) {
		t.Fatalf("parallel dirs = %v, want %v", cfg.ColdBoot.ParallelDirs, want)
	}
	for i := range want {
		if cfg.ColdBoot.ParallelDirs[i] != want[i] {
			t.Fatalf("parallel dirs = %v, want %v", cfg.ColdBoot.ParallelDirs, want)
		}
	}
	if len(cfg.DeviceRules) != 1 || cfg.DeviceRules[0].GID != 5 {
		t.Fatalf("unexpected device rules: %+v", cfg.DeviceRules)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "negative worker count",
			content: "[coldboot]\nworker_count = -1\n",
			wantErr: "worker_count",
		},
		{
			name:    "bad log format",
			content: "[logging]\nformat = \"yaml\"\n",
			wantErr: "logging.format",
		},
		{
			name:    "empty rule pattern",
			content: "[[device_rules]]\nmode = \"0660\"\n",
			wantErr: "pattern",
		},
		{
			name:    "bad rule mode",
			content: "[[device_rules]]\npattern = \"/dev/null\"\nmode = \"worldwritable\"\n",
			wantErr: "mode",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.content)
			_, _, _, err := config.Load(path)
			if err == nil {
				t.Fatal("expected a validation error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error %q does not mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestParseMode(t *testing.T) {
	mode, err := config.ParseMode("0660")
	if err != nil {
		t.Fatalf("parse 0660: %v", err)
	}
	if mode != 0o660 {
		t.Fatalf("mode = %o, want 0660", mode)
	}

	for _, bad := range []string{"", "rw-rw----", "99999"} {
		if _, err := config.ParseMode(bad); err == nil {
			t.Errorf("ParseMode(%q) accepted an invalid mode", bad)
		}
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.StateDir = filepath.Join(base, "state", "nested")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.LogDir, cfg.Paths.StateDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("%s not created: %v", dir, err)
		}
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "etc", "devd", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("create sample: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("load sample: %v", err)
	}
	if !exists {
		t.Fatal("sample file reported missing")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("sample config invalid: %v", err)
	}
}

func TestExpandPathHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	got, err := config.ExpandPath("~/devd.toml")
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if got != filepath.Join(home, "devd.toml") {
		t.Fatalf("ExpandPath(~/devd.toml) = %s", got)
	}
}
