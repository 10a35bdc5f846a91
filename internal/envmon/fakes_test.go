package envmon

import (
	"context"
	"net/netip"
	"sync"
	"time"
)

// Shared fakes for the reconciler and supervisor tests. An optional
// order sink records the sequence of collaborator calls.

type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(name string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.calls = append(l.calls, name)
	l.mu.Unlock()
}

func (l *callLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.calls))
	copy(out, l.calls)
	return out
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fakeHostnames struct {
	mu        sync.Mutex
	record    string
	live      string
	liveErr   error
	recordErr error
	setErr    error
	pubErr    error
	setCalls  []string
	pubCalls  []string
	log       *callLog
}

func (f *fakeHostnames) HostnameRecord() (string, error) { return f.record, f.recordErr }

func (f *fakeHostnames) Hostname() (string, error) {
	f.log.add("hostname")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.live, f.liveErr
}

func (f *fakeHostnames) SetHostname(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.setCalls = append(f.setCalls, name)
	return nil
}

func (f *fakeHostnames) PublishHostname(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pubErr != nil {
		return f.pubErr
	}
	f.pubCalls = append(f.pubCalls, name)
	return nil
}

type fakeDHCP struct {
	mu   sync.Mutex
	pids []int
	err  error
	dead map[int]bool
	log  *callLog
}

func (f *fakeDHCP) DHCPPIDs(context.Context) ([]int, error) {
	f.log.add("dhcp.fetch")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]int, len(f.pids))
	copy(out, f.pids)
	return out, nil
}

func (f *fakeDHCP) PIDAlive(pid int) bool {
	f.log.add("dhcp.probe")
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.dead[pid]
}

func (f *fakeDHCP) set(pids []int) {
	f.mu.Lock()
	f.pids = pids
	f.mu.Unlock()
}

type fakeRoutes struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeRoutes) ConfigureRoutes(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func (f *fakeRoutes) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeFirewall struct {
	mu          sync.Mutex
	pruneCalls  int
	enableCalls []netip.Addr
	removeCalls []netip.Addr
	enableErr   error
	removeErr   error
	log         *callLog
}

func (f *fakeFirewall) PruneRulesFiles() {
	f.log.add("firewall.prune")
	f.mu.Lock()
	f.pruneCalls++
	f.mu.Unlock()
}

func (f *fakeFirewall) EnableEndpointRule(endpoint netip.Addr, _ int) error {
	f.log.add("firewall.enable")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enableCalls = append(f.enableCalls, endpoint)
	return f.enableErr
}

func (f *fakeFirewall) RemoveEndpointRule(endpoint netip.Addr, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removeCalls = append(f.removeCalls, endpoint)
	return f.removeErr
}

func (f *fakeFirewall) removed() []netip.Addr {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]netip.Addr, len(f.removeCalls))
	copy(out, f.removeCalls)
	return out
}

type fakeDisks struct {
	mu       sync.Mutex
	timeouts []int
	err      error
	log      *callLog
}

func (f *fakeDisks) SetSCSITimeout(seconds int) error {
	f.log.add("disks.timeout")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.timeouts = append(f.timeouts, seconds)
	return f.err
}

type fakeArchiver struct {
	mu           sync.Mutex
	purgeCalls   int
	archiveCalls int
	purgeErr     error
	archiveErr   error
	last         time.Time
	lastErr      error
	archivedAt   []time.Time
	log          *callLog
}

func (f *fakeArchiver) Purge(context.Context) error {
	f.log.add("archive.purge")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.purgeCalls++
	return f.purgeErr
}

func (f *fakeArchiver) Archive(_ context.Context, now time.Time) error {
	f.log.add("archive.archive")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.archiveErr != nil {
		return f.archiveErr
	}
	f.archiveCalls++
	f.archivedAt = append(f.archivedAt, now)
	return nil
}

func (f *fakeArchiver) LastRun(context.Context) (time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last, f.lastErr
}

func (f *fakeArchiver) counts() (purge, archive int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.purgeCalls, f.archiveCalls
}

type periodicRecord struct {
	interval  time.Duration
	operation string
	version   string
	success   bool
}

type fakeRecorder struct {
	mu      sync.Mutex
	records []periodicRecord
}

func (f *fakeRecorder) RecordPeriodic(interval time.Duration, operation, version string, success bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, periodicRecord{interval, operation, version, success})
}

func (f *fakeRecorder) all() []periodicRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]periodicRecord, len(f.records))
	copy(out, f.records)
	return out
}
