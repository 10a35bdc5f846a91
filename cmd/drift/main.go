package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"driftd"
	"driftd/cmd/drift/ui"
	"driftd/config"
	"driftd/internal/logging"
	"driftd/internal/support/buildinfo"
	"driftd/sdk"
)

func main() {
	if err := logging.Configure(logging.LevelWarn); err != nil {
		_, _ = os.Stderr.WriteString("configure logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	ui.Configure()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var socketPath string

	root := &cobra.Command{
		Use:           "drift",
		Short:         "Inspect the environment convergence daemon",
		Version:       buildinfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&socketPath, "socket", config.Default().Socket, "Unix socket path of the daemon")

	root.AddCommand(statusCmd(&socketPath))
	root.AddCommand(healthCmd(&socketPath))
	root.AddCommand(versionCmd(&socketPath))
	return root
}

// versionCmd prints the client version and, when the daemon is
// reachable, its version too.
func versionCmd(socketPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show client and daemon versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Println(ui.KeyValues("  ", ui.KV("Client", buildinfo.Version)))

			client := sdk.New(*socketPath)
			defer client.Close()
			st, err := client.Status(cmd.Context())
			if err != nil {
				fmt.Println(ui.KeyValues("  ", ui.KV("Daemon", "unreachable")))
				return nil
			}
			fmt.Println(ui.KeyValues("  ", ui.KV("Daemon", st.Version)))
			return nil
		},
	}
}

func statusCmd(socketPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client := sdk.New(*socketPath)
			defer client.Close()

			st, err := client.Status(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Println(ui.KeyValues("  ",
				ui.KV("Version", st.Version),
				ui.KV("Monitor", ui.Bool(st.Monitor.Alive)),
				ui.KV("Hostname", st.Monitor.Hostname),
				ui.KV("DHCP PIDs", formatPIDs(st.Monitor.DHCPPIDs)),
				ui.KV("Endpoint", st.Monitor.Endpoint),
				ui.KV("Firewall", ui.Bool(st.Monitor.FirewallEnabled)),
				ui.KV("Last archive", formatTime(st.Monitor.LastArchive)),
				ui.KV("Last tick", formatTime(st.Monitor.LastTick)),
				ui.KV("Clock", formatClock(st.Clock)),
			))
			return nil
		},
	}
}

func healthCmd(socketPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check whether the monitor loop is running",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client := sdk.New(*socketPath)
			defer client.Close()

			healthy, err := client.Healthy(cmd.Context())
			if err != nil {
				return err
			}
			if !healthy {
				return fmt.Errorf("monitor loop is not running")
			}
			fmt.Println(ui.Health(true))
			return nil
		},
	}
}

func formatPIDs(pids []int) string {
	if len(pids) == 0 {
		return "none"
	}
	sorted := append([]int(nil), pids...)
	sort.Ints(sorted)
	parts := make([]string, len(sorted))
	for i, pid := range sorted {
		parts[i] = strconv.Itoa(pid)
	}
	return strings.Join(parts, ", ")
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format(time.RFC3339)
}

func formatClock(c driftd.ClockStatus) string {
	if c.CheckedAt.IsZero() {
		return "unchecked"
	}
	if c.Error != "" {
		return ui.ErrorStyle.Render("error") + " (" + c.Error + ")"
	}
	return ui.Health(c.Healthy) + " (offset " + c.Offset.Round(time.Millisecond).String() + ")"
}
