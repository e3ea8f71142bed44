package uevent

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"devd/internal/config"
	"devd/internal/kmod"
	"devd/internal/logging"
)

// Handler reacts to a single device event. Handler errors are logged by the
// caller and never abort the pass.
type Handler interface {
	Name() string
	Handle(ev Event) error
}

// HandlersFromConfig assembles the handler chain configured for this host.
// The same chain serves the cold-boot backlog and live events.
func HandlersFromConfig(cfg *config.Config, logger *slog.Logger) []Handler {
	var handlers []Handler
	if len(cfg.DeviceRules) > 0 {
		handlers = append(handlers, NewPermissionsHandler(cfg.DeviceRules, logger))
	}
	if cfg.Modules.Enabled {
		handlers = append(handlers, NewModaliasHandler(cfg.Modules.ModprobePath, logger))
	}
	return handlers
}

// PermissionsHandler applies configured ownership and mode rules to device
// nodes as their events arrive.
type PermissionsHandler struct {
	rules  []config.DeviceRule
	logger *slog.Logger
}

func NewPermissionsHandler(rules []config.DeviceRule, logger *slog.Logger) *PermissionsHandler {
	return &PermissionsHandler{
		rules:  rules,
		logger: logging.NewComponentLogger(logger, "permissions"),
	}
}

func (h *PermissionsHandler) Name() string { return "permissions" }

func (h *PermissionsHandler) Handle(ev Event) error {
	if ev.Action == "remove" {
		return nil
	}
	path := ev.DevicePath()
	if path == "" {
		return nil
	}
	for _, rule := range h.rules {
		matched, err := filepath.Match(rule.Pattern, path)
		if err != nil || !matched {
			continue
		}
		if err := applyRule(path, rule); err != nil {
			return fmt.Errorf("apply rule %q to %s: %w", rule.Pattern, path, err)
		}
		h.logger.Debug("device rule applied",
			logging.String("device", path),
			logging.String("pattern", rule.Pattern))
	}
	return nil
}

func applyRule(path string, rule config.DeviceRule) error {
	if _, err := os.Lstat(path); err != nil {
		// The node may not exist yet or may be gone already.
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if rule.Mode != "" {
		mode, err := config.ParseMode(rule.Mode)
		if err != nil {
			return err
		}
		if err := os.Chmod(path, mode); err != nil {
			return err
		}
	}
	if rule.UID > 0 || rule.GID > 0 {
		if err := os.Chown(path, rule.UID, rule.GID); err != nil {
			return err
		}
	}
	return nil
}

// ModprobeRunner loads one kernel module by alias or name.
type ModprobeRunner func(ctx context.Context, alias string) error

// ModaliasHandler loads kernel modules for devices that advertise a
// MODALIAS, the way a device manager resolves drivers for cold-plugged
// hardware. Like every Handler it is not safe for concurrent calls.
type ModaliasHandler struct {
	run       ModprobeRunner
	requested map[string]struct{}
	logger    *slog.Logger
}

func NewModaliasHandler(modprobePath string, logger *slog.Logger) *ModaliasHandler {
	run := func(ctx context.Context, alias string) error {
		out, err := exec.CommandContext(ctx, modprobePath, "-q", "--", alias).CombinedOutput()
		if err != nil {
			return fmt.Errorf("modprobe %s: %w (%s)", alias, err, string(out))
		}
		return nil
	}
	return NewModaliasHandlerWithRunner(run, logger)
}

// NewModaliasHandlerWithRunner is used by tests to observe module requests.
func NewModaliasHandlerWithRunner(run ModprobeRunner, logger *slog.Logger) *ModaliasHandler {
	return &ModaliasHandler{
		run:       run,
		requested: make(map[string]struct{}),
		logger:    logging.NewComponentLogger(logger, "modalias"),
	}
}

func (h *ModaliasHandler) Name() string { return "modalias" }

func (h *ModaliasHandler) Handle(ev Event) error {
	if ev.Action != "add" {
		return nil
	}
	alias := ev.Modalias()
	if alias == "" {
		return nil
	}

	// Many devices share one alias; request each module once per pass.
	// Bare module names are canonicalized the way module file names are.
	key := alias
	if !strings.Contains(alias, ":") {
		name, err := kmod.Canonicalize(alias)
		if err != nil {
			return err
		}
		key = name
	}
	if _, ok := h.requested[key]; ok {
		return nil
	}
	h.requested[key] = struct{}{}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return h.run(ctx, alias)
}
