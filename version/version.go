// Package version holds build metadata injected at link time.
package version

import "runtime"

// Set via -ldflags "-X github.com/archivist-ml/collate/version.GitRelease=..."
var (
	GitRelease    = "dev"
	GitCommit     = "unknown"
	GitCommitDate = "unknown"
)

// GoInfo is the toolchain that built the binary.
var GoInfo = runtime.Version()
