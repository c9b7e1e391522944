// Package version exposes the elisa release version, embedded from the
// VERSION file so the binary and the source tree always agree.
package version

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var raw string

// Get returns the release version string.
func Get() string {
	return strings.TrimSpace(raw)
}
