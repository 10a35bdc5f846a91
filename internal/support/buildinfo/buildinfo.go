// Package buildinfo carries the build-time version stamp.
package buildinfo

// Version is overridden at build time via
// -ldflags "-X driftd/internal/support/buildinfo.Version=...".
var Version = "dev"
