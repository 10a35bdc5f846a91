// Package daemon composes the environment monitor, the clock checker
// and the local status API into one supervised process.
package daemon

import (
	"context"
	"log/slog"

	systemd "github.com/coreos/go-systemd/v22/daemon"
	"golang.org/x/sync/errgroup"

	"driftd/internal/envmon"
	"driftd/internal/timesync"
)

type Options struct {
	Socket  string
	Version string
}

// Run starts the monitor, clock checker and status API, then blocks
// until ctx is cancelled or the monitor fails to bootstrap.
func Run(ctx context.Context, sup *envmon.Supervisor, clock *timesync.Checker, opts Options) error {
	srv := NewServer(sup, clock, opts.Version)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Starting environment monitor.")
		if err := sup.Run(ctx); err != nil {
			return err
		}

		// Notify systemd once the monitor loop is up.
		if _, err := systemd.SdNotify(false, systemd.SdNotifyReady); err != nil {
			slog.Error("Failed to notify systemd that the daemon is ready.", "err", err)
		}

		<-ctx.Done()
		sup.Stop()
		return nil
	})
	g.Go(func() error {
		clock.Run(ctx)
		return nil
	})
	g.Go(func() error { return srv.ListenAndServe(ctx, opts.Socket) })
	return g.Wait()
}
