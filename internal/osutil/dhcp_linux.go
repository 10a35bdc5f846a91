//go:build linux

package osutil

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// DHCPPIDs scans /proc for known DHCP client processes. Returned order
// is whatever the directory listing yields; callers sort.
func (f *Facility) DHCPPIDs(ctx context.Context) ([]int, error) {
	entries, err := os.ReadDir(f.ProcRoot)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", f.ProcRoot, err)
	}

	var pids []int
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pid, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}
		comm, err := os.ReadFile(filepath.Join(f.ProcRoot, entry.Name(), "comm"))
		if err != nil {
			// Process exited mid-scan.
			continue
		}
		if dhcpClientNames[strings.TrimSpace(string(comm))] {
			pids = append(pids, pid)
		}
	}
	return pids, nil
}

// PIDAlive probes pid with signal 0. EPERM still means alive: the
// process exists but belongs to another user.
func (f *Facility) PIDAlive(pid int) bool {
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}
