package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"devd/internal/config"
	"devd/internal/report"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	path := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(
		"[paths]\nlog_dir = %q\nstate_dir = %q\n\n[coldboot]\nsysfs_root = %q\nworker_count = 1\n",
		filepath.Join(base, "logs"),
		filepath.Join(base, "state"),
		filepath.Join(base, "sys"),
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCLI(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestConfigPathReportsMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.toml")
	out, _, err := runCLI(t, missing, "config", "path")
	if err != nil {
		t.Fatalf("config path: %v", err)
	}
	if !strings.Contains(out, missing) || !strings.Contains(out, "not present") {
		t.Fatalf("unexpected config path output: %q", out)
	}
}

func TestConfigInitAndShow(t *testing.T) {
	target := filepath.Join(t.TempDir(), "etc", "config.toml")
	out, _, err := runCLI(t, target, "config", "init")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, "wrote") {
		t.Fatalf("unexpected init output: %q", out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	out, _, err = runCLI(t, target, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "worker_count") || !strings.Contains(out, "sysfs_root") {
		t.Fatalf("show output missing expected keys: %q", out)
	}
}

func TestStatusWithNoSessions(t *testing.T) {
	configPath := writeTestConfig(t)
	out, _, err := runCLI(t, configPath, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, "no cold-boot sessions recorded") {
		t.Fatalf("unexpected status output: %q", out)
	}
}

func TestStatusListsRecordedSessions(t *testing.T) {
	configPath := writeTestConfig(t)

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	store, err := report.Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	session := report.NewSession()
	session.FinishedAt = session.StartedAt.Add(time.Second)
	session.Duration = time.Second
	session.Events = 128
	session.Workers = 4
	session.Parallel = true
	session.Outcome = "ok"
	if err := store.Record(context.Background(), session); err != nil {
		t.Fatalf("record session: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	out, _, err := runCLI(t, configPath, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	for _, want := range []string{"128", "parallel", "ok"} {
		if !strings.Contains(out, want) {
			t.Fatalf("status output missing %q: %q", want, out)
		}
	}
	if !strings.Contains(strings.ToUpper(out), "SESSION") {
		t.Fatalf("status output missing header: %q", out)
	}
}

func TestWorkerRejectsInvalidAssignment(t *testing.T) {
	configPath := writeTestConfig(t)
	cases := [][]string{
		{"coldboot-worker", "--index", "2", "--count", "1"},
		{"coldboot-worker", "--index", "-1", "--count", "4"},
		{"coldboot-worker", "--index", "0", "--count", "0"},
	}
	for _, args := range cases {
		if _, _, err := runCLI(t, configPath, args...); err == nil {
			t.Errorf("worker accepted invalid assignment %v", args)
		}
	}
}

func TestRootHelpListsCommands(t *testing.T) {
	out, _, err := runCLI(t, "", "--help")
	if err != nil {
		t.Fatalf("help: %v", err)
	}
	for _, want := range []string{"run", "status", "config"} {
		if !strings.Contains(out, want) {
			t.Fatalf("help output missing %q: %q", want, out)
		}
	}
	if strings.Contains(out, "coldboot-worker") {
		t.Fatalf("hidden worker command leaked into help: %q", out)
	}
}
