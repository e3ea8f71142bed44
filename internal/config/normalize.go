package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeColdBoot(); err != nil {
		return err
	}
	if err := c.normalizeLabeling(); err != nil {
		return err
	}
	c.normalizeModules()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeColdBoot() error {
	if strings.TrimSpace(c.ColdBoot.SysfsRoot) == "" {
		c.ColdBoot.SysfsRoot = defaultSysfsRoot
	}
	var err error
	if c.ColdBoot.SysfsRoot, err = expandPath(c.ColdBoot.SysfsRoot); err != nil {
		return fmt.Errorf("coldboot.sysfs_root: %w", err)
	}
	dirs := make([]string, 0, len(c.ColdBoot.ParallelDirs))
	for _, dir := range c.ColdBoot.ParallelDirs {
		trimmed := strings.TrimSpace(dir)
		if trimmed == "" {
			continue
		}
		expanded, err := expandPath(trimmed)
		if err != nil {
			return fmt.Errorf("coldboot.parallel_dirs: %w", err)
		}
		dirs = append(dirs, expanded)
	}
	c.ColdBoot.ParallelDirs = dirs
	return nil
}

func (c *Config) normalizeLabeling() error {
	if strings.TrimSpace(c.Labeling.Xattr) == "" {
		c.Labeling.Xattr = defaultLabelXattr
	}
	if strings.TrimSpace(c.Labeling.FileContexts) == "" {
		c.Labeling.FileContexts = defaultFileContexts
	}
	var err error
	if c.Labeling.FileContexts, err = expandPath(c.Labeling.FileContexts); err != nil {
		return fmt.Errorf("labeling.file_contexts: %w", err)
	}
	if c.Labeling.Threads < 0 {
		c.Labeling.Threads = 1
	}
	return nil
}

func (c *Config) normalizeModules() {
	if strings.TrimSpace(c.Modules.ModprobePath) == "" {
		c.Modules.ModprobePath = defaultModprobe
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
