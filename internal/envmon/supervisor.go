// Package envmon is the environment convergence core: a supervisor that
// owns a single background loop re-asserting firewall rules, routes,
// hostname, and the goal-state cache bound against external drift.
//
// The monitor polls. DHCP client restarts, hostname edits and firewall
// flushes happen behind the agent's back with no reliable OS event
// surface, so every tick re-derives desired state from scratch.
package envmon

import (
	"context"
	"fmt"
	"log/slog"
	"net/netip"
	"sync"
	"time"

	"driftd"
	"driftd/internal/protocol"
)

// Options mirror the configuration the monitor consumes.
type Options struct {
	FirewallEnabled   bool
	MonitorHostname   bool
	ProtocolMigration bool

	// RootDeviceSCSITimeout, when non-nil, is applied on every tick.
	RootDeviceSCSITimeout *int

	// LegacyEndpoint is the pre-migration metadata address whose rule is
	// removed during bootstrap while ProtocolMigration is set.
	LegacyEndpoint netip.Addr

	// UID is the effective uid the firewall allow rule exempts.
	UID int

	// TickInterval and ArchiveInterval override the defaults when
	// non-zero (tests).
	TickInterval    time.Duration
	ArchiveInterval time.Duration
}

// Supervisor owns the monitor loop's lifetime. Collaborators are
// injected as fields; zero-value ports are not tolerated (Run fails
// fast on first use).
//
// Restart safety: Run fully drains any previous loop before starting a
// new one, so at most one loop goroutine is ever alive. Stop blocks
// until the loop has exited; a tick stuck in an external call therefore
// stalls shutdown. That risk is documented, not mitigated.
type Supervisor struct {
	Hostnames HostnameManager
	DHCP      DHCPWatcher
	Firewall  FirewallManager
	Disks     DiskTuner
	Routes    RouteConfigurer
	Archiver  Archiver
	Telemetry PeriodicRecorder
	Resolve   protocol.Factory
	Clock     Clock
	Options   Options

	mu     sync.Mutex // guards cancel/done lifecycle fields
	cancel context.CancelFunc
	done   chan struct{}

	statusMu sync.RWMutex
	status   driftd.MonitorStatus
}

func (s *Supervisor) clock() Clock {
	if s.Clock != nil {
		return s.Clock
	}
	return RealClock{}
}

// Run bootstraps the monitor and hands off to the background loop. If a
// loop is already running it is stopped first, blocking until joined.
// Bootstrap failures are returned and leave no loop running.
func (s *Supervisor) Run(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()

	slog.Info("Starting environment monitor.")

	st := newMonitorState()

	if err := s.Routes.ConfigureRoutes(ctx); err != nil {
		return fmt.Errorf("configure routes: %w", err)
	}

	hostname, err := s.Hostnames.HostnameRecord()
	if err != nil {
		return fmt.Errorf("read hostname record: %w", err)
	}
	st.hostname = hostname

	dhcp := &DHCPRestartDetector{DHCP: s.DHCP, Routes: s.Routes}
	st.dhcpPIDs = dhcp.FetchPIDs(ctx, st)

	// The archive gate carries across process restarts; a daemon restart
	// must not trigger an immediate re-archive.
	if last, err := s.Archiver.LastRun(ctx); err == nil {
		st.lastArchive = last
	} else {
		slog.Warn("Failed to read last archive time, archiving on first tick.", "err", err)
	}

	// Agents migrating off the legacy protocol still carry its firewall
	// rule. Remove it before the loop starts so goal state is never
	// queried while rules are wrong.
	if s.Options.FirewallEnabled && s.Options.ProtocolMigration {
		if err := s.Firewall.RemoveEndpointRule(s.Options.LegacyEndpoint, s.Options.UID); err != nil {
			slog.Warn("Failed to remove legacy endpoint firewall rule.", "err", err)
		}
	}

	firewall := &FirewallReconciler{
		Firewall:  s.Firewall,
		Telemetry: s.Telemetry,
		Enabled:   s.Options.FirewallEnabled,
		UID:       s.Options.UID,
	}

	acc, err := s.Resolve(ctx)
	if err != nil {
		return fmt.Errorf("resolve protocol endpoint: %w", err)
	}
	// One synchronous pass before the loop spawns: rules must be correct
	// before anything queries goal state.
	firewall.Tick(st, acc.Endpoint())

	l := &loop{
		state:    st,
		firewall: firewall,
		hostname: &HostnameChangeDetector{Hostnames: s.Hostnames},
		dhcp:     dhcp,
		archive:  &ArchiveScheduler{Archiver: s.Archiver, Clock: s.clock(), Interval: s.Options.ArchiveInterval},
		disks:    s.Disks,
		resolve:  s.Resolve,
		opts:     s.Options,
		clock:    s.clock(),
		publish:  s.setStatus,
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	go func() {
		defer close(done)
		if err := l.run(loopCtx); err != nil {
			slog.Error("Environment monitor exited.", "err", err)
		}
	}()

	return nil
}

// Stop cancels the loop and blocks until it has exited. Idempotent.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Supervisor) stopLocked() {
	if s.cancel == nil {
		return
	}
	slog.Info("Stopping environment monitor.")
	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil
}

// IsAlive reports whether the loop goroutine is currently executing.
func (s *Supervisor) IsAlive() bool {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}

// Status returns the last published monitor snapshot.
func (s *Supervisor) Status() driftd.MonitorStatus {
	s.statusMu.RLock()
	st := s.status
	s.statusMu.RUnlock()
	st.Alive = s.IsAlive()
	return st
}

func (s *Supervisor) setStatus(st driftd.MonitorStatus) {
	s.statusMu.Lock()
	s.status = st
	s.statusMu.Unlock()
}
