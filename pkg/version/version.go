// Package version carries the build identity stamped in via -ldflags.
package version

// Version is the semantic version of the running binary.
var Version = "dev" //nolint:gochecknoglobals // set by the linker

// Commit is the Git hash the binary was built from.
var Commit = "<unknown>" //nolint:gochecknoglobals // set by the linker

// Date is the build timestamp.
var Date = "<unknown>" //nolint:gochecknoglobals // set by the linker
