//go:build linux

package routes

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"github.com/vishvananda/netlink"
)

// ConfigureRoutes replaces the host route to the endpoint via the
// default route's interface. RouteReplace is idempotent, so calling
// this when the route is already present is a no-op.
func (c *Controller) ConfigureRoutes(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	link, err := defaultRouteLink()
	if err != nil {
		return err
	}

	dst := &net.IPNet{
		IP:   c.Endpoint.AsSlice(),
		Mask: net.CIDRMask(c.Endpoint.BitLen(), c.Endpoint.BitLen()),
	}
	route := netlink.Route{
		LinkIndex: link.Attrs().Index,
		Dst:       dst,
		Scope:     netlink.SCOPE_LINK,
	}
	if err := netlink.RouteReplace(&route); err != nil {
		return fmt.Errorf("replace endpoint route %s: %w", dst, err)
	}

	slog.Debug("Endpoint route asserted.", "dst", dst.String(), "link", link.Attrs().Name)
	return nil
}

// defaultRouteLink returns the interface carrying the IPv4 default
// route. That interface is where DHCP runs, so the endpoint host route
// belongs there too.
func defaultRouteLink() (netlink.Link, error) {
	rts, err := netlink.RouteList(nil, netlink.FAMILY_V4)
	if err != nil {
		return nil, fmt.Errorf("list routes: %w", err)
	}
	for _, rt := range rts {
		if rt.Dst != nil {
			continue
		}
		link, err := netlink.LinkByIndex(rt.LinkIndex)
		if err != nil {
			return nil, fmt.Errorf("resolve default route link: %w", err)
		}
		return link, nil
	}
	return nil, fmt.Errorf("no IPv4 default route")
}
