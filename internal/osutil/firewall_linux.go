//go:build linux

package osutil

import (
	"errors"
	"fmt"
	"net/netip"
	"strconv"

	"github.com/docker/docker/libnetwork/iptables"
)

// The rule pair protecting the provisioning endpoint: the agent's own
// uid may talk to it, everything else is dropped before a connection
// forms. Legacy agents shipped an unconditional drop that negates the
// owner exemption, so removal also sweeps that variant.
//
// Rules live in the security table so container engines rewriting the
// filter table don't flush them.
const securityTable iptables.Table = "security"

func ownerAcceptRule(endpoint netip.Addr, uid int) []string {
	return []string{
		"--destination", endpoint.String(),
		"-p", "tcp",
		"-m", "owner", "--uid-owner", strconv.Itoa(uid),
		"-j", "ACCEPT",
	}
}

func nonOwnerDropRule(endpoint netip.Addr) []string {
	return []string{
		"--destination", endpoint.String(),
		"-p", "tcp",
		"-m", "conntrack", "--ctstate", "INVALID,NEW",
		"-j", "DROP",
	}
}

func legacyDropRule(endpoint netip.Addr) []string {
	return []string{
		"--destination", endpoint.String(),
		"-p", "tcp",
		"-j", "DROP",
	}
}

// EnableEndpointRule asserts the accept/drop pair on the security-table OUTPUT
// chain. ProgramRule only touches the kernel when a rule is missing, so
// calling this every tick is cheap.
func (f *Facility) EnableEndpointRule(endpoint netip.Addr, uid int) error {
	ipt := iptables.GetIptable(iptables.IPv4)
	if err := ipt.ProgramRule(securityTable, "OUTPUT", iptables.Insert, ownerAcceptRule(endpoint, uid)); err != nil {
		return fmt.Errorf("insert owner accept rule: %w", err)
	}
	if err := ipt.ProgramRule(securityTable, "OUTPUT", iptables.Append, nonOwnerDropRule(endpoint)); err != nil {
		return fmt.Errorf("append non-owner drop rule: %w", err)
	}
	return nil
}

// RemoveEndpointRule deletes every rule variant for endpoint, including
// the legacy unconditional drop. Missing rules are not an error.
func (f *Facility) RemoveEndpointRule(endpoint netip.Addr, uid int) error {
	ipt := iptables.GetIptable(iptables.IPv4)
	var errs []error
	for _, rule := range [][]string{
		ownerAcceptRule(endpoint, uid),
		nonOwnerDropRule(endpoint),
		legacyDropRule(endpoint),
	} {
		if ipt.Exists(securityTable, "OUTPUT", rule...) {
			if err := ipt.ProgramRule(securityTable, "OUTPUT", iptables.Delete, rule); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
