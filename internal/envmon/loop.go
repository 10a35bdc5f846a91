package envmon

import (
	"context"
	"fmt"
	"log/slog"
	"net/netip"
	"time"

	"driftd"
	"driftd/internal/protocol"
)

// tickInterval is the convergence cadence. Short enough to catch a DHCP
// restart before lease renewal, long enough to keep the monitor cheap.
const tickInterval = 5 * time.Second

// loop owns one Run's monitorState and executes the reconcilers in a
// fixed order once per tick. Single goroutine; no locking on state.
type loop struct {
	state    *monitorState
	firewall *FirewallReconciler
	hostname *HostnameChangeDetector
	dhcp     *DHCPRestartDetector
	archive  *ArchiveScheduler
	disks    DiskTuner
	resolve  protocol.Factory
	opts     Options
	clock    Clock
	publish  func(driftd.MonitorStatus)
}

func (l *loop) run(ctx context.Context) error {
	// Resolve a fresh accessor in this goroutine instead of reusing the
	// bootstrap one, so no accessor is shared across goroutines.
	acc, err := l.resolve(ctx)
	if err != nil {
		return fmt.Errorf("resolve protocol endpoint: %w", err)
	}
	endpoint := acc.Endpoint()

	interval := l.opts.TickInterval
	if interval == 0 {
		interval = tickInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := l.tick(ctx, endpoint); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// tick runs the reconcilers in their fixed order. Hostname and archive
// failures terminate the loop; firewall failures surface only through
// telemetry; DHCP fetch failures degrade to an empty pid set.
func (l *loop) tick(ctx context.Context, endpoint netip.Addr) error {
	l.firewall.Tick(l.state, endpoint)

	if t := l.opts.RootDeviceSCSITimeout; t != nil {
		if err := l.disks.SetSCSITimeout(*t); err != nil {
			slog.Warn("Failed to set SCSI disk timeout.", "err", err)
		}
	}

	if l.opts.MonitorHostname {
		if err := l.hostname.Tick(l.state); err != nil {
			return fmt.Errorf("hostname monitor: %w", err)
		}
	}

	l.dhcp.Tick(ctx, l.state)

	if err := l.archive.Tick(ctx, l.state); err != nil {
		return fmt.Errorf("archive cache: %w", err)
	}

	l.publish(l.snapshot(endpoint))
	return nil
}

func (l *loop) snapshot(endpoint netip.Addr) driftd.MonitorStatus {
	pids := make([]int, len(l.state.dhcpPIDs))
	copy(pids, l.state.dhcpPIDs)
	return driftd.MonitorStatus{
		Hostname:        l.state.hostname,
		DHCPPIDs:        pids,
		Endpoint:        endpoint.String(),
		FirewallEnabled: l.opts.FirewallEnabled,
		LastArchive:     l.state.lastArchive,
		LastTick:        l.clock.Now(),
	}
}
