// Package version exposes build information injected at link time.
package version

import (
	"fmt"
	"runtime"
)

// Set with -ldflags "-X github.com/NERVsystems/greenlens/pkg/version.BuildVersion=..."
var (
	BuildVersion = "dev"
	BuildCommit  = "unknown"
	BuildDate    = "unknown"
)

// Info returns build information as a flat map.
func Info() map[string]string {
	return map[string]string{
		"version":    BuildVersion,
		"commit":     BuildCommit,
		"build_date": BuildDate,
		"go_version": runtime.Version(),
	}
}

// String formats build information for -version output.
func String() string {
	return fmt.Sprintf("greenlens %s (commit %s, built %s, %s)",
		BuildVersion, BuildCommit, BuildDate, runtime.Version())
}
