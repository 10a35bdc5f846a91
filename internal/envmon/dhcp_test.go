package envmon

import (
	"context"
	"errors"
	"testing"
)

func newDetector() (*DHCPRestartDetector, *fakeDHCP, *fakeRoutes) {
	dhcp := &fakeDHCP{dead: map[int]bool{}}
	routes := &fakeRoutes{}
	return &DHCPRestartDetector{DHCP: dhcp, Routes: routes}, dhcp, routes
}

func TestDHCPRestartDetector_NoopWhenAllAlive(t *testing.T) {
	d, _, routes := newDetector()
	st := newMonitorState()
	st.dhcpPIDs = []int{101, 205}

	d.Tick(context.Background(), st)

	if routes.callCount() != 0 {
		t.Errorf("routes configured %d times, want 0", routes.callCount())
	}
	if !equalPIDs(st.dhcpPIDs, []int{101, 205}) {
		t.Errorf("stored pids changed to %v", st.dhcpPIDs)
	}
}

func TestDHCPRestartDetector_DetectsRestart(t *testing.T) {
	d, dhcp, routes := newDetector()
	st := newMonitorState()
	st.dhcpPIDs = []int{101, 205}
	dhcp.dead[101] = true
	dhcp.set([]int{309, 205}) // unsorted on purpose

	d.Tick(context.Background(), st)

	if routes.callCount() != 1 {
		t.Errorf("routes configured %d times, want exactly 1", routes.callCount())
	}
	if !equalPIDs(st.dhcpPIDs, []int{205, 309}) {
		t.Errorf("stored pids = %v, want sorted [205 309]", st.dhcpPIDs)
	}
}

func TestDHCPRestartDetector_BootstrapFetchIsNotRestart(t *testing.T) {
	d, dhcp, routes := newDetector()
	st := newMonitorState()
	dhcp.set([]int{42})

	d.Tick(context.Background(), st)

	if routes.callCount() != 0 {
		t.Error("bootstrap fetch must not reconfigure routes")
	}
	if !equalPIDs(st.dhcpPIDs, []int{42}) {
		t.Errorf("stored pids = %v, want [42]", st.dhcpPIDs)
	}
}

func TestDHCPRestartDetector_SameSetAfterDeathIsNotRestart(t *testing.T) {
	// A dead pid with an unchanged refetched set (e.g. /proc raced) must
	// not trigger route reconfiguration.
	d, dhcp, routes := newDetector()
	st := newMonitorState()
	st.dhcpPIDs = []int{101}
	dhcp.dead[101] = true
	dhcp.set([]int{101})

	d.Tick(context.Background(), st)

	if routes.callCount() != 0 {
		t.Error("identical pid set must not count as a restart")
	}
}

func TestDHCPRestartDetector_EmptyRefetchReentersBootstrap(t *testing.T) {
	d, dhcp, routes := newDetector()
	st := newMonitorState()
	st.dhcpPIDs = []int{101}
	dhcp.dead[101] = true
	dhcp.set(nil)

	d.Tick(context.Background(), st)

	if routes.callCount() != 0 {
		t.Error("empty refetch must not count as a restart")
	}
	if len(st.dhcpPIDs) != 0 {
		t.Errorf("stored pids = %v, want empty so next tick bootstraps", st.dhcpPIDs)
	}

	// Next tick is a bootstrap fetch again, still no restart signal.
	dhcp.set([]int{7})
	d.Tick(context.Background(), st)
	if routes.callCount() != 0 {
		t.Error("re-bootstrap after empty state must not reconfigure routes")
	}
	if !equalPIDs(st.dhcpPIDs, []int{7}) {
		t.Errorf("stored pids = %v, want [7]", st.dhcpPIDs)
	}
}

func TestFetchPIDs_FailureDegradesToEmpty(t *testing.T) {
	d, dhcp, _ := newDetector()
	st := newMonitorState()
	dhcp.err = errors.New("proc unavailable")

	pids := d.FetchPIDs(context.Background(), st)

	if len(pids) != 0 {
		t.Errorf("got %v, want empty on fetch failure", pids)
	}
	if st.dhcpWarningEnabled {
		t.Error("warning must disarm after the transition to empty")
	}
}

func TestFetchPIDs_WarningRearmsOnRecovery(t *testing.T) {
	d, dhcp, _ := newDetector()
	st := newMonitorState()

	dhcp.set(nil)
	d.FetchPIDs(context.Background(), st)
	if st.dhcpWarningEnabled {
		t.Fatal("warning should be disarmed while pid set is empty")
	}

	dhcp.set([]int{11})
	d.FetchPIDs(context.Background(), st)
	if !st.dhcpWarningEnabled {
		t.Error("warning should re-arm once pids reappear")
	}
}

func TestFetchPIDs_ReturnsSorted(t *testing.T) {
	d, dhcp, _ := newDetector()
	dhcp.set([]int{900, 5, 42})

	pids := d.FetchPIDs(context.Background(), newMonitorState())

	if !equalPIDs(pids, []int{5, 42, 900}) {
		t.Errorf("got %v, want sorted [5 42 900]", pids)
	}
}
