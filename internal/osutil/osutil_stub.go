//go:build !linux

package osutil

import (
	"context"
	"net/netip"
)

// Non-Linux builds get inert implementations: the daemon starts, the
// loop ticks, and every OS mutation is a no-op. Useful for development
// on a laptop; never shipped.

func (f *Facility) SetHostname(string) error     { return nil }
func (f *Facility) PublishHostname(string) error { return nil }

func (f *Facility) DHCPPIDs(context.Context) ([]int, error) { return nil, nil }
func (f *Facility) PIDAlive(int) bool                       { return false }

func (f *Facility) EnableEndpointRule(netip.Addr, int) error { return nil }
func (f *Facility) RemoveEndpointRule(netip.Addr, int) error { return nil }

func (f *Facility) SetSCSITimeout(int) error { return nil }
