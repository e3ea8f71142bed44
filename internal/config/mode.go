package config

import (
	"fmt"
	"io/fs"
	"strconv"
)

// ParseMode interprets an octal permission string like "0660".
func ParseMode(value string) (fs.FileMode, error) {
	parsed, err := strconv.ParseUint(value, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid octal mode %q", value)
	}
	if parsed > 0o7777 {
		return 0, fmt.Errorf("mode %q out of range", value)
	}
	return fs.FileMode(parsed), nil
}
