package envmon

import (
	"errors"
	"net/netip"
	"testing"
	"time"
)

var testEndpoint = netip.MustParseAddr("168.63.129.16")

func TestFirewallReconciler_ResetsExactlyOnce(t *testing.T) {
	fw := &fakeFirewall{}
	rec := &fakeRecorder{}
	r := &FirewallReconciler{Firewall: fw, Telemetry: rec, Enabled: true, UID: 0}
	st := newMonitorState()

	for range 10 {
		r.Tick(st, testEndpoint)
	}

	if got := len(fw.removed()); got != 1 {
		t.Errorf("hard reset ran %d times, want exactly 1", got)
	}
	if len(fw.enableCalls) != 10 {
		t.Errorf("allow rule asserted %d times, want every tick (10)", len(fw.enableCalls))
	}
	if fw.pruneCalls != 10 {
		t.Errorf("rules files pruned %d times, want every tick (10)", fw.pruneCalls)
	}
}

func TestFirewallReconciler_ResetTargetsEndpoint(t *testing.T) {
	fw := &fakeFirewall{}
	r := &FirewallReconciler{Firewall: fw, Telemetry: &fakeRecorder{}, Enabled: true}

	r.Tick(newMonitorState(), testEndpoint)

	removed := fw.removed()
	if len(removed) != 1 || removed[0] != testEndpoint {
		t.Errorf("reset removed %v, want [%v]", removed, testEndpoint)
	}
}

func TestFirewallReconciler_DisabledOnlyPrunes(t *testing.T) {
	fw := &fakeFirewall{}
	rec := &fakeRecorder{}
	r := &FirewallReconciler{Firewall: fw, Telemetry: rec, Enabled: false}
	st := newMonitorState()

	r.Tick(st, testEndpoint)

	if fw.pruneCalls != 1 {
		t.Error("pruning must run even with the firewall disabled")
	}
	if len(fw.enableCalls) != 0 || len(fw.removed()) != 0 {
		t.Error("no rule operations expected with the firewall disabled")
	}
	if len(rec.all()) != 0 {
		t.Error("no telemetry expected with the firewall disabled")
	}
	if st.hasResetFirewall {
		t.Error("reset flag must not flip while disabled")
	}
}

func TestFirewallReconciler_RecordsOutcome(t *testing.T) {
	fw := &fakeFirewall{}
	rec := &fakeRecorder{}
	r := &FirewallReconciler{Firewall: fw, Telemetry: rec, Enabled: true}

	r.Tick(newMonitorState(), testEndpoint)

	records := rec.all()
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	got := records[0]
	if got.operation != OpFirewall || got.version != FirewallRulesVersion {
		t.Errorf("record = %+v", got)
	}
	if got.interval != time.Hour {
		t.Errorf("interval = %v, want 1h", got.interval)
	}
	if !got.success {
		t.Error("success should be true")
	}
}

func TestFirewallReconciler_FailureIsTelemetryOnly(t *testing.T) {
	fw := &fakeFirewall{enableErr: errors.New("iptables: permission denied")}
	rec := &fakeRecorder{}
	r := &FirewallReconciler{Firewall: fw, Telemetry: rec, Enabled: true}

	// Tick has no error return: failures must not escape.
	r.Tick(newMonitorState(), testEndpoint)

	records := rec.all()
	if len(records) != 1 || records[0].success {
		t.Errorf("expected one failed outcome, got %+v", records)
	}
}
