// Package kmod provides kernel-module naming helpers used by the modalias
// event handler.
package kmod

import (
	"fmt"
	"strings"
)

// Canonicalize derives a module name from a module path or alias file name:
// the basename with any ".ko" suffix removed and dashes folded to
// underscores, which is how module file names spell the dashes their names
// may contain.
func Canonicalize(modulePath string) (string, error) {
	name := modulePath
	if idx := strings.LastIndexByte(name, '/'); idx >= 0 {
		name = name[idx+1:]
	}
	name = strings.TrimSuffix(name, ".ko")
	if len(name) <= 1 {
		return "", fmt.Errorf("malformed module name: %q", modulePath)
	}
	return strings.ReplaceAll(name, "-", "_"), nil
}
