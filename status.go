// Package driftd holds the shared types of the driftd environment
// monitor: the daemon surface and CLI exchange these over the local
// status API.
package driftd

import "time"

// MonitorStatus is a snapshot of the environment monitor's state.
type MonitorStatus struct {
	Alive           bool      `json:"alive"`
	Hostname        string    `json:"hostname,omitempty"`
	DHCPPIDs        []int     `json:"dhcp_pids,omitempty"`
	Endpoint        string    `json:"endpoint,omitempty"`
	FirewallEnabled bool      `json:"firewall_enabled"`
	LastArchive     time.Time `json:"last_archive,omitzero"`
	LastTick        time.Time `json:"last_tick,omitzero"`
}

// ClockStatus reports wall-clock health from the NTP checker. Archive
// scheduling and telemetry deduplication are wall-clock driven, so a
// skewed clock degrades both.
type ClockStatus struct {
	Healthy   bool          `json:"healthy"`
	Offset    time.Duration `json:"offset_ns"`
	Error     string        `json:"error,omitempty"`
	CheckedAt time.Time     `json:"checked_at,omitzero"`
}

// Status is the full response of the daemon's status endpoint.
type Status struct {
	Version string        `json:"version"`
	Monitor MonitorStatus `json:"monitor"`
	Clock   ClockStatus   `json:"clock"`
}
