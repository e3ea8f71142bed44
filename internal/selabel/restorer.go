package selabel

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sys/unix"

	"devd/internal/config"
	"devd/internal/logging"
	"devd/internal/threadpool"
)

// Restorer applies security labels to a path, optionally recursing over the
// tree below it.
type Restorer interface {
	Restore(path string, recursive bool) error
}

// ApplyFunc writes one label to one path. Injectable so tests can observe
// label decisions without privileges.
type ApplyFunc func(path, label string) error

// Labeler is the concrete Restorer: it resolves each path against the rule
// table and writes the label xattr. Unreadable directories are logged and
// skipped; relabeling is best-effort by design.
type Labeler struct {
	contexts *Contexts
	apply    ApplyFunc
	threads  int
	logger   *slog.Logger
}

// Option customizes a Labeler.
type Option func(*Labeler)

// WithApplyFunc replaces the xattr writer. Used by tests.
func WithApplyFunc(apply ApplyFunc) Option {
	return func(l *Labeler) { l.apply = apply }
}

// WithThreads sizes the worker pool used for recursive restores. Values
// below 2 keep the walk sequential.
func WithThreads(threads int) Option {
	return func(l *Labeler) { l.threads = threads }
}

// NewLabeler builds a Labeler writing the named xattr.
func NewLabeler(contexts *Contexts, xattr string, logger *slog.Logger, opts ...Option) *Labeler {
	l := &Labeler{
		contexts: contexts,
		apply: func(path, label string) error {
			return unix.Lsetxattr(path, xattr, []byte(label), 0)
		},
		threads: 1,
		logger:  logging.NewComponentLogger(logger, "selabel"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewLabelerFromConfig loads the configured file_contexts table. A nil
// Restorer with nil error means labeling is disabled.
func NewLabelerFromConfig(cfg *config.Config, logger *slog.Logger) (*Labeler, error) {
	if !cfg.Labeling.Enabled {
		return nil, nil
	}
	contexts, err := LoadContexts(cfg.Labeling.FileContexts)
	if err != nil {
		return nil, err
	}
	return NewLabeler(contexts, cfg.Labeling.Xattr, logger, WithThreads(cfg.Labeling.Threads)), nil
}

// Restore labels path. When recursive is false only path itself is labeled;
// otherwise the whole tree below it is walked, in parallel when the labeler
// was built with more than one thread.
func (l *Labeler) Restore(path string, recursive bool) error {
	if err := l.relabel(path); err != nil {
		return err
	}
	if !recursive {
		return nil
	}
	if l.threads > 1 {
		l.restoreTreeParallel(path)
		return nil
	}
	l.restoreTree(path)
	return nil
}

func (l *Labeler) relabel(path string) error {
	label := l.contexts.Lookup(path)
	if label == "" {
		return nil
	}
	if err := l.apply(path, label); err != nil {
		return fmt.Errorf("label %s as %s: %w", path, label, err)
	}
	return nil
}

func (l *Labeler) restoreTree(root string) {
	entries, err := os.ReadDir(root)
	if err != nil {
		l.logger.Warn("opendir", logging.String("dir", root), logging.Error(err))
		return
	}
	for _, entry := range entries {
		full := filepath.Join(root, entry.Name())
		if err := l.relabel(full); err != nil {
			l.logger.Warn("relabel", logging.Error(err))
		}
		if entry.IsDir() {
			l.restoreTree(full)
		}
	}
}

// restoreTreeParallel walks the tree on a bounded worker pool. Directory
// tasks enqueue one task per subdirectory.
func (l *Labeler) restoreTreeParallel(root string) {
	pool := threadpool.New(l.threads)

	var enqueue func(dir string)
	var pending sync.WaitGroup
	enqueue = func(dir string) {
		pending.Add(1)
		pool.Enqueue(func() {
			defer pending.Done()
			entries, err := os.ReadDir(dir)
			if err != nil {
				l.logger.Warn("opendir", logging.String("dir", dir), logging.Error(err))
				return
			}
			for _, entry := range entries {
				full := filepath.Join(dir, entry.Name())
				if err := l.relabel(full); err != nil {
					l.logger.Warn("relabel", logging.Error(err))
				}
				if entry.IsDir() {
					enqueue(full)
				}
			}
		})
	}
	enqueue(root)

	pending.Wait()
	pool.Wait()
}
