//go:build !linux

package routes

import (
	"context"
	"log/slog"
)

// ConfigureRoutes is a no-op off Linux: there is no netlink and no
// fabric to route to.
func (c *Controller) ConfigureRoutes(ctx context.Context) error {
	slog.Debug("Route configuration skipped on this platform.")
	return ctx.Err()
}
