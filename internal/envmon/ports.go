package envmon

import (
	"context"
	"net/netip"
	"time"
)

// HostnameManager reads and writes the machine hostname.
// Production: *osutil.Facility. Testing: in-memory fake.
type HostnameManager interface {
	// HostnameRecord returns the recorded hostname, creating the record
	// from the live hostname on first use.
	HostnameRecord() (string, error)
	// Hostname returns the live kernel hostname.
	Hostname() (string, error)
	SetHostname(name string) error
	// PublishHostname pushes the hostname to the platform (DNS record).
	PublishHostname(name string) error
}

// DHCPWatcher discovers DHCP client processes and probes their liveness.
type DHCPWatcher interface {
	// DHCPPIDs returns the pids of all running DHCP client processes,
	// unordered. May fail when process enumeration is unavailable.
	DHCPPIDs(ctx context.Context) ([]int, error)
	PIDAlive(pid int) bool
}

// FirewallManager asserts and removes the endpoint protection rules.
type FirewallManager interface {
	// PruneRulesFiles removes stray persistent-net rules files. Runs
	// every tick; must be cheap and idempotent.
	PruneRulesFiles()
	// EnableEndpointRule asserts the allow/drop pair protecting endpoint
	// for the given effective uid. Idempotent.
	EnableEndpointRule(endpoint netip.Addr, uid int) error
	// RemoveEndpointRule deletes any rule pair for endpoint, including
	// legacy rule versions.
	RemoveEndpointRule(endpoint netip.Addr, uid int) error
}

// DiskTuner applies block-device settings.
type DiskTuner interface {
	SetSCSITimeout(seconds int) error
}

// RouteConfigurer re-installs the routes the DHCP client is responsible
// for. Production: *routes.Controller.
type RouteConfigurer interface {
	ConfigureRoutes(ctx context.Context) error
}

// Archiver prunes and bundles the goal-state cache.
// Production: *archive.StateArchiver.
type Archiver interface {
	// Purge enforces the retained-file limit on the cache.
	Purge(ctx context.Context) error
	// Archive bundles the current cache state, recording now as the run
	// time.
	Archive(ctx context.Context, now time.Time) error
	// LastRun reports when an archive last completed; zero when never.
	LastRun(ctx context.Context) (time.Time, error)
}

// PeriodicRecorder emits a deduplicated operation outcome: at most one
// record per (operation, version, success) within interval, regardless
// of tick frequency. Production: *telemetry.Periodic.
type PeriodicRecorder interface {
	RecordPeriodic(interval time.Duration, operation, version string, success bool)
}

// Clock abstracts wall-clock reads so time-gated behavior is testable.
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }
