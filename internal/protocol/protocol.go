// Package protocol resolves the provisioning endpoint the monitor
// protects and routes to.
package protocol

import (
	"context"
	"fmt"
	"net/netip"
	"os"
	"strings"
)

// Well-known fabric addresses.
var (
	// WireServerEndpoint is the goal-state service address.
	WireServerEndpoint = netip.AddrFrom4([4]byte{168, 63, 129, 16})
	// LegacyMetadataEndpoint is the pre-migration metadata service. Its
	// firewall rule is removed when an agent migrates off the legacy
	// protocol.
	LegacyMetadataEndpoint = netip.AddrFrom4([4]byte{169, 254, 169, 254})
)

// Accessor exposes the resolved protocol endpoint.
type Accessor interface {
	Endpoint() netip.Addr
}

// Factory builds an Accessor. The supervisor calls it once at bootstrap
// and the monitor loop calls it again from its own goroutine, so no
// accessor is ever shared across goroutines.
type Factory func(ctx context.Context) (Accessor, error)

type staticAccessor struct {
	addr netip.Addr
}

func (a staticAccessor) Endpoint() netip.Addr { return a.addr }

// Static returns a Factory that always yields addr. Used when the
// endpoint is pinned in configuration and in tests.
func Static(addr netip.Addr) Factory {
	return func(context.Context) (Accessor, error) {
		return staticAccessor{addr: addr}, nil
	}
}

// FileResolver resolves the endpoint from a cached endpoint file,
// falling back to the well-known wireserver address when the file is
// absent. The file is written by the provisioning flow on first lease.
type FileResolver struct {
	Path string
}

// Resolve reads the cached endpoint. It satisfies Factory.
func (r FileResolver) Resolve(_ context.Context) (Accessor, error) {
	data, err := os.ReadFile(r.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return staticAccessor{addr: WireServerEndpoint}, nil
		}
		return nil, fmt.Errorf("read endpoint cache: %w", err)
	}

	raw := strings.TrimSpace(string(data))
	if raw == "" {
		return staticAccessor{addr: WireServerEndpoint}, nil
	}
	addr, err := netip.ParseAddr(raw)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint cache %s: %w", r.Path, err)
	}
	return staticAccessor{addr: addr}, nil
}
