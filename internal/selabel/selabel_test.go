package selabel_test

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"
	"testing"

	"devd/internal/logging"
	"devd/internal/selabel"
)

func writeContexts(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "file_contexts")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write file_contexts: %v", err)
	}
	return path
}

func TestLoadContexts(t *testing.T) {
	path := writeContexts(t, `
# device labels
/sys(/.*)?      sysfs_t
/sys/devices/.* device_t
`)
	contexts, err := selabel.LoadContexts(path)
	if err != nil {
		t.Fatalf("load contexts: %v", err)
	}
	if contexts.Len() != 2 {
		t.Fatalf("expected 2 rules, got %d", contexts.Len())
	}
}

func TestLoadContextsRejectsMalformedLine(t *testing.T) {
	path := writeContexts(t, "/sys sysfs_t extra\n")
	if _, err := selabel.LoadContexts(path); err == nil {
		t.Fatal("expected error for a three-field line")
	}
}

func TestLookupLastMatchWins(t *testing.T) {
	contexts := selabel.NewContexts([]selabel.Rule{
		{Pattern: regexp.MustCompile(`^/sys(/.*)?$`), Label: "sysfs_t"},
		{Pattern: regexp.MustCompile(`^/sys/devices(/.*)?$`), Label: "device_t"},
	})

	cases := []struct {
		path string
		want string
	}{
		{"/sys", "sysfs_t"},
		{"/sys/class/net", "sysfs_t"},
		{"/sys/devices/pci0000", "device_t"},
		{"/proc/self", ""},
	}
	for _, tc := range cases {
		if got := contexts.Lookup(tc.path); got != tc.want {
			t.Errorf("Lookup(%s) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

type labelRecorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *labelRecorder) apply(path, label string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
	return nil
}

func (r *labelRecorder) sorted() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]string(nil), r.paths...)
	sort.Strings(out)
	return out
}

func buildTree(t *testing.T) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "sys")
	for _, dir := range []string{
		filepath.Join(root, "class"),
		filepath.Join(root, "devices", "pci0000"),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
	for _, file := range []string{
		filepath.Join(root, "class", "uevent"),
		filepath.Join(root, "devices", "pci0000", "uevent"),
	} {
		if err := os.WriteFile(file, nil, 0o644); err != nil {
			t.Fatalf("write %s: %v", file, err)
		}
	}
	return root
}

func matchAll(t *testing.T) *selabel.Contexts {
	t.Helper()
	return selabel.NewContexts([]selabel.Rule{
		{Pattern: regexp.MustCompile(`^.*$`), Label: "sysfs_t"},
	})
}

func treePaths(t *testing.T, root string) []string {
	t.Helper()
	var paths []string
	err := filepath.WalkDir(root, func(path string, _ os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		t.Fatalf("walk %s: %v", root, err)
	}
	sort.Strings(paths)
	return paths
}

func TestRestoreNonRecursiveLabelsOnlyTarget(t *testing.T) {
	root := buildTree(t)
	recorder := &labelRecorder{}
	labeler := selabel.NewLabeler(matchAll(t), "user.test", logging.NewNop(),
		selabel.WithApplyFunc(recorder.apply))

	if err := labeler.Restore(root, false); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if got := recorder.sorted(); len(got) != 1 || got[0] != root {
		t.Fatalf("expected only %s labeled, got %v", root, got)
	}
}

func TestRestoreRecursiveLabelsWholeTree(t *testing.T) {
	root := buildTree(t)
	recorder := &labelRecorder{}
	labeler := selabel.NewLabeler(matchAll(t), "user.test", logging.NewNop(),
		selabel.WithApplyFunc(recorder.apply))

	if err := labeler.Restore(root, true); err != nil {
		t.Fatalf("restore: %v", err)
	}

	want := treePaths(t, root)
	got := recorder.sorted()
	if len(got) != len(want) {
		t.Fatalf("labeled %d paths, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("labeled set differs at %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestParallelRestoreLabelsSameSet(t *testing.T) {
	root := buildTree(t)

	sequential := &labelRecorder{}
	selabel.NewLabeler(matchAll(t), "user.test", logging.NewNop(),
		selabel.WithApplyFunc(sequential.apply)).Restore(root, true)

	parallel := &labelRecorder{}
	selabel.NewLabeler(matchAll(t), "user.test", logging.NewNop(),
		selabel.WithApplyFunc(parallel.apply),
		selabel.WithThreads(4)).Restore(root, true)

	seq, par := sequential.sorted(), parallel.sorted()
	if len(seq) != len(par) {
		t.Fatalf("parallel labeled %d paths, sequential %d", len(par), len(seq))
	}
	for i := range seq {
		if seq[i] != par[i] {
			t.Fatalf("labeled sets differ at %d: %s vs %s", i, seq[i], par[i])
		}
	}
}

func TestRestoreSkipsPathsWithoutRule(t *testing.T) {
	root := buildTree(t)
	contexts := selabel.NewContexts([]selabel.Rule{
		{Pattern: regexp.MustCompile(`^.*/uevent$`), Label: "sysfs_t"},
	})
	recorder := &labelRecorder{}
	labeler := selabel.NewLabeler(contexts, "user.test", logging.NewNop(),
		selabel.WithApplyFunc(recorder.apply))

	if err := labeler.Restore(root, true); err != nil {
		t.Fatalf("restore: %v", err)
	}
	for _, path := range recorder.sorted() {
		if filepath.Base(path) != "uevent" {
			t.Fatalf("labeled %s which matches no rule", path)
		}
	}
	if len(recorder.sorted()) != 2 {
		t.Fatalf("expected 2 uevent files labeled, got %v", recorder.sorted())
	}
}
