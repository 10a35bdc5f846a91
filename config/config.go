// Package config loads the driftd daemon configuration.
//
// Config is stored at /etc/driftd/config.yaml by default. A missing file
// is not an error: every field has a working default, so a bare install
// runs without any configuration at all.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the daemon looks for its configuration.
const DefaultPath = "/etc/driftd/config.yaml"

// Config holds the daemon settings.
type Config struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log-level,omitempty"`

	// Socket is the unix socket path of the local status API.
	Socket string `yaml:"socket,omitempty"`

	// StateDir holds the hostname record, endpoint cache, rule markers
	// and the archive index.
	StateDir string `yaml:"state-dir,omitempty"`

	// CacheDir is the goal-state cache the archiver prunes and bundles.
	CacheDir string `yaml:"cache-dir,omitempty"`

	// EnableFirewall asserts the provisioning-endpoint firewall rules on
	// every tick.
	EnableFirewall bool `yaml:"enable-firewall"`

	// MonitorHostname re-publishes the hostname when it drifts from the
	// recorded value.
	MonitorHostname bool `yaml:"monitor-hostname"`

	// RootDeviceSCSITimeout, when set, is written to every SCSI disk's
	// sysfs timeout on each tick. Seconds.
	RootDeviceSCSITimeout *int `yaml:"root-device-scsi-timeout,omitempty"`

	// Endpoint overrides the resolved provisioning endpoint. Normally
	// empty; the resolver falls back to the cached endpoint file and the
	// well-known fabric address.
	Endpoint string `yaml:"endpoint,omitempty"`

	// ProtocolMigration marks an agent mid-migration from the legacy
	// metadata protocol. While set, the legacy endpoint's firewall rule
	// is removed before the monitor loop starts.
	ProtocolMigration bool `yaml:"protocol-migration"`

	// NTPPool overrides the pool queried by the clock checker.
	NTPPool string `yaml:"ntp-pool,omitempty"`
}

// Default returns the configuration a bare install runs with.
func Default() Config {
	return Config{
		LogLevel:        "info",
		Socket:          "/run/driftd/driftd.sock",
		StateDir:        "/var/lib/driftd",
		CacheDir:        "/var/lib/driftd/cache",
		EnableFirewall:  true,
		MonitorHostname: true,
	}
}

// Load reads the config file at path. A missing file yields Default().
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.StateDir == "" {
		return errors.New("state-dir must not be empty")
	}
	if c.CacheDir == "" {
		return errors.New("cache-dir must not be empty")
	}
	if c.RootDeviceSCSITimeout != nil && *c.RootDeviceSCSITimeout <= 0 {
		return fmt.Errorf("root-device-scsi-timeout must be positive, got %d", *c.RootDeviceSCSITimeout)
	}
	return nil
}
