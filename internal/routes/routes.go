// Package routes re-installs the routes a DHCP client is responsible
// for. The fabric endpoint is reached through a host route that a DHCP
// client restart silently drops, so the monitor re-asserts it at
// bootstrap and after every detected restart.
package routes

import "net/netip"

// Controller asserts the endpoint host route.
type Controller struct {
	// Endpoint is the provisioning address the host route targets.
	Endpoint netip.Addr
}

// New returns a Controller for endpoint.
func New(endpoint netip.Addr) *Controller {
	return &Controller{Endpoint: endpoint}
}
