// Package buildinfo provides build-time version information.
//
// Variables are set via ldflags during build:
//
//	go build -ldflags "-X github.com/matzehuels/widgetgrid/pkg/buildinfo.Version=v1.0.0 \
//	    -X github.com/matzehuels/widgetgrid/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/matzehuels/widgetgrid/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)" \
//	    ./cmd/widgetgrid
package buildinfo

import (
	"fmt"

	"github.com/matzehuels/widgetgrid/pkg/grid"
)

var (
	// Version is the semantic version (e.g., "v1.2.3").
	Version = "dev"

	// Commit is the git commit SHA.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// String returns the formatted build information, including the layout
// document version this build reads and writes.
func String() string {
	return fmt.Sprintf("version: %s\ncommit: %s\nbuilt: %s\nlayout format: v%d", Version, Commit, Date, grid.FormatVersion)
}

// Template returns the version template string for cobra.
func Template() string {
	return fmt.Sprintf("{{.Name}} version %s\ncommit: %s\nbuilt: %s\nlayout format: v%d\n", Version, Commit, Date, grid.FormatVersion)
}

// CacheScope returns the key prefix that keeps cache entries of different
// builds apart.
func CacheScope() string {
	return Version + ":"
}
