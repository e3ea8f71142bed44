package config

import (
	"errors"
	"fmt"
	"path/filepath"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateColdBoot(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateDeviceRules(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateColdBoot() error {
	if c.ColdBoot.WorkerCount < 0 {
		return errors.New("coldboot.worker_count must be zero or positive")
	}
	if c.ColdBoot.SysfsRoot == "" {
		return errors.New("coldboot.sysfs_root must be set")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateDeviceRules() error {
	for i, rule := range c.DeviceRules {
		if rule.Pattern == "" {
			return fmt.Errorf("device_rules[%d].pattern must be set", i)
		}
		if _, err := filepath.Match(rule.Pattern, "/dev/null"); err != nil {
			return fmt.Errorf("device_rules[%d].pattern: %w", i, err)
		}
		if rule.Mode != "" {
			if _, err := ParseMode(rule.Mode); err != nil {
				return fmt.Errorf("device_rules[%d].mode: %w", i, err)
			}
		}
	}
	return nil
}
