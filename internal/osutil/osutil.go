// Package osutil is the OS facility behind the environment monitor:
// hostname records, DHCP client discovery, firewall rules, block-device
// tuning. Linux is the real implementation; other platforms get
// inert stubs so the daemon builds everywhere.
package osutil

import "path/filepath"

// dhcpClientNames are the process names counted as DHCP clients.
var dhcpClientNames = map[string]bool{
	"dhclient":         true,
	"dhcpcd":           true,
	"udhcpc":           true,
	"systemd-networkd": true,
}

// persistentNetRules are stale udev artifacts that pin interface naming
// across re-provisioning. They are pruned on every tick.
var persistentNetRules = []string{
	"75-persistent-net-generator.rules",
	"70-persistent-net.rules",
}

// Facility implements the monitor's OS-level ports. All paths are
// rooted so tests can point it at a scratch tree.
type Facility struct {
	// StateDir holds the hostname record.
	StateDir string

	// ProcRoot is /proc unless overridden.
	ProcRoot string

	// SysRoot is /sys unless overridden.
	SysRoot string

	// EtcRoot is /etc unless overridden.
	EtcRoot string

	// UdevRulesDirs are scanned for persistent-net rules files.
	UdevRulesDirs []string
}

// New returns a Facility rooted at the real system paths.
func New(stateDir string) *Facility {
	return &Facility{
		StateDir: stateDir,
		ProcRoot: "/proc",
		SysRoot:  "/sys",
		EtcRoot:  "/etc",
		UdevRulesDirs: []string{
			"/lib/udev/rules.d",
			"/etc/udev/rules.d",
		},
	}
}

func (f *Facility) hostnameRecordPath() string {
	return filepath.Join(f.StateDir, "published_hostname")
}
