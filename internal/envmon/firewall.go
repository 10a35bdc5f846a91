package envmon

import (
	"net/netip"
	"time"
)

const (
	// OpFirewall tags firewall outcomes in telemetry.
	OpFirewall = "Firewall"

	// firewallReportInterval bounds firewall telemetry to one record per
	// hour regardless of the 5s tick cadence.
	firewallReportInterval = time.Hour

	// FirewallRulesVersion identifies the current rule layout. Bumping
	// it means deployed rules from older versions may coexist with the
	// new ones, which is why every Run performs one hard reset before
	// re-asserting.
	FirewallRulesVersion = "1.1"
)

// FirewallReconciler converges the endpoint protection rules once per
// tick. It never returns an error: failures are observable only through
// the periodic telemetry outcome.
type FirewallReconciler struct {
	Firewall  FirewallManager
	Telemetry PeriodicRecorder

	// Enabled mirrors the enable-firewall configuration. When false only
	// the rules-file pruning runs.
	Enabled bool

	// UID is the effective uid whose traffic the allow rule exempts.
	UID int
}

// Tick prunes stray rules files, performs the one-time hard reset, and
// re-asserts the allow rule for endpoint.
func (r *FirewallReconciler) Tick(st *monitorState, endpoint netip.Addr) {
	r.Firewall.PruneRulesFiles()

	if !r.Enabled {
		return
	}

	// Old rule versions can coexist with current ones and negate them,
	// so the first tick of every Run clears the slate. Repeating the
	// reset would thrash rule state for no benefit.
	if !st.hasResetFirewall {
		_ = r.Firewall.RemoveEndpointRule(endpoint, r.UID)
		st.hasResetFirewall = true
	}

	err := r.Firewall.EnableEndpointRule(endpoint, r.UID)
	r.Telemetry.RecordPeriodic(firewallReportInterval, OpFirewall, FirewallRulesVersion, err == nil)
}
