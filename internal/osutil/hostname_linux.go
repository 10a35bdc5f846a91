//go:build linux

package osutil

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// SetHostname applies name to the kernel and persists it to
// /etc/hostname so it survives reboot.
func (f *Facility) SetHostname(name string) error {
	if err := unix.Sethostname([]byte(name)); err != nil {
		return fmt.Errorf("sethostname %q: %w", name, err)
	}
	path := filepath.Join(f.EtcRoot, "hostname")
	if err := os.WriteFile(path, []byte(name+"\n"), 0o644); err != nil {
		return fmt.Errorf("persist hostname: %w", err)
	}
	return nil
}

// PublishHostname pushes name to the platform DNS via hostnamectl and
// records it as published. Distros without hostnamectl fall back to the
// record write alone; the kernel name is already set.
func (f *Facility) PublishHostname(name string) error {
	if _, err := exec.LookPath("hostnamectl"); err == nil {
		out, err := exec.Command("hostnamectl", "set-hostname", "--transient", name).CombinedOutput()
		if err != nil {
			return fmt.Errorf("hostnamectl set-hostname: %s: %w", strings.TrimSpace(string(out)), err)
		}
	}
	return f.writeHostnameRecord(name)
}
