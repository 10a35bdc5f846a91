package envmon

import (
	"context"
	"log/slog"
	"sort"
)

// DHCPRestartDetector notices DHCP client restarts by comparing pid
// sets across ticks and restores the routing table when one occurs.
//
// Known blind spot: if a dead pid is reused by an unrelated process
// before the liveness probe runs, the restart goes undetected. Accepted;
// the next real restart is still caught.
type DHCPRestartDetector struct {
	DHCP   DHCPWatcher
	Routes RouteConfigurer
}

// Tick runs one detection round against st.
func (d *DHCPRestartDetector) Tick(ctx context.Context, st *monitorState) {
	if len(st.dhcpPIDs) == 0 {
		// Bootstrap path: no baseline yet, so a populated fetch is not a
		// restart signal.
		st.dhcpPIDs = d.FetchPIDs(ctx, st)
		return
	}

	alive := true
	for _, pid := range st.dhcpPIDs {
		if !d.DHCP.PIDAlive(pid) {
			alive = false
			break
		}
	}
	if alive {
		return
	}

	fresh := d.FetchPIDs(ctx, st)
	if len(fresh) != 0 && !equalPIDs(fresh, st.dhcpPIDs) {
		slog.Info("DHCP client restart detected, restoring routing table.",
			"previous", st.dhcpPIDs, "current", fresh)
		if err := d.Routes.ConfigureRoutes(ctx); err != nil {
			slog.Error("Failed to restore routes after DHCP restart.", "err", err)
		}
	}
	// Store the fresh set in every sub-case, including empty: the next
	// tick then re-enters the bootstrap path instead of probing pids
	// that are already known dead.
	st.dhcpPIDs = fresh
}

// FetchPIDs returns the current sorted DHCP client pid set, degrading to
// empty on failure. The "not running" warning fires only on the
// transition into the empty state and re-arms once pids reappear.
func (d *DHCPRestartDetector) FetchPIDs(ctx context.Context, st *monitorState) []int {
	pids, err := d.DHCP.DHCPPIDs(ctx)
	if err != nil {
		if st.dhcpWarningEnabled {
			slog.Error("Failed to get the PID of the DHCP client.", "err", err)
		}
		pids = nil
	}
	sort.Ints(pids)

	if len(pids) == 0 && err == nil && st.dhcpWarningEnabled {
		slog.Warn("DHCP client is not running.")
	}
	st.dhcpWarningEnabled = len(pids) != 0

	return pids
}
