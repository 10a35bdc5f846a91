package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/netip"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"driftd/config"
	"driftd/internal/archive"
	"driftd/internal/daemon"
	"driftd/internal/envmon"
	"driftd/internal/logging"
	"driftd/internal/osutil"
	"driftd/internal/protocol"
	"driftd/internal/routes"
	"driftd/internal/support/buildinfo"
	"driftd/internal/telemetry"
	"driftd/internal/timesync"
)

func main() {
	if err := logging.Configure(logging.LevelInfo); err != nil {
		_, _ = os.Stderr.WriteString("configure logger: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := rootCmd().Execute(); err != nil {
		slog.Error("daemon failed", "err", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string
	var socketPath string
	var debug bool

	cmd := &cobra.Command{
		Use:     "driftd",
		Short:   "Environment convergence daemon",
		Version: buildinfo.Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			level := cfg.LogLevel
			if debug {
				level = logging.LevelDebug
			}
			if err := logging.Configure(level); err != nil {
				return err
			}
			if cmd.Flags().Changed("socket") {
				cfg.Socket = socketPath
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", config.DefaultPath, "Config file path")
	cmd.Flags().StringVar(&socketPath, "socket", config.Default().Socket, "Unix socket path of the status API")
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")
	return cmd
}

func run(ctx context.Context, cfg config.Config) error {
	shutdownMetrics, err := telemetry.Setup(buildinfo.Version)
	if err != nil {
		return err
	}
	defer func() { _ = shutdownMetrics(context.Background()) }()

	recorder, err := telemetry.NewPeriodic()
	if err != nil {
		return err
	}

	resolve, routeTarget, err := endpointResolver(cfg)
	if err != nil {
		return err
	}

	index, err := archive.OpenIndex(filepath.Join(cfg.StateDir, "archive.db"))
	if err != nil {
		return err
	}
	defer index.Close()

	facility := osutil.New(cfg.StateDir)
	sup := &envmon.Supervisor{
		Hostnames: facility,
		DHCP:      facility,
		Firewall:  facility,
		Disks:     facility,
		Routes:    routes.New(routeTarget),
		Archiver:  archive.NewStateArchiver(cfg.CacheDir, index),
		Telemetry: recorder,
		Resolve:   resolve,
		Options: envmon.Options{
			FirewallEnabled:       cfg.EnableFirewall,
			MonitorHostname:       cfg.MonitorHostname,
			ProtocolMigration:     cfg.ProtocolMigration,
			RootDeviceSCSITimeout: cfg.RootDeviceSCSITimeout,
			LegacyEndpoint:        protocol.LegacyMetadataEndpoint,
			UID:                   os.Geteuid(),
		},
	}

	return daemon.Run(ctx, sup, timesync.NewChecker(cfg.NTPPool), daemon.Options{
		Socket:  cfg.Socket,
		Version: buildinfo.Version,
	})
}

// endpointResolver picks the protocol factory: a configured endpoint
// pins it, otherwise the cached endpoint file decides with a fallback
// to the well-known fabric address. The route target must be known
// before the first resolve, so a pinned or well-known address is used
// there either way.
func endpointResolver(cfg config.Config) (protocol.Factory, netip.Addr, error) {
	if cfg.Endpoint != "" {
		addr, err := netip.ParseAddr(cfg.Endpoint)
		if err != nil {
			return nil, netip.Addr{}, fmt.Errorf("parse configured endpoint: %w", err)
		}
		return protocol.Static(addr), addr, nil
	}
	resolver := protocol.FileResolver{Path: filepath.Join(cfg.StateDir, "endpoint")}
	return resolver.Resolve, protocol.WireServerEndpoint, nil
}
