package envmon

import "time"

// monitorState is the monitor's mutable state. One instance is created
// per Run and mutated exclusively by the loop goroutine, so it carries
// no locking.
type monitorState struct {
	// hostname is the last observed hostname.
	hostname string

	// dhcpPIDs is the last known DHCP client pid set, kept sorted so
	// set comparisons are order-independent. Empty means "unknown": the
	// next tick re-enters the bootstrap fetch path.
	dhcpPIDs []int

	// dhcpWarningEnabled gates the "not running" warning: true only
	// while pids are present, so the warning fires exactly once on the
	// transition to empty and re-arms on recovery.
	dhcpWarningEnabled bool

	// hasResetFirewall flips to true after the one-time hard rule reset.
	// Never cleared within a Run; a fresh Run starts over.
	hasResetFirewall bool

	// lastArchive is when archiving last completed. Zero means never,
	// which makes the first tick eligible.
	lastArchive time.Time
}

func newMonitorState() *monitorState {
	return &monitorState{dhcpWarningEnabled: true}
}

func equalPIDs(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
