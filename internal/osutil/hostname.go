package osutil

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Hostname returns the live kernel hostname.
func (f *Facility) Hostname() (string, error) {
	return os.Hostname()
}

// HostnameRecord returns the recorded hostname. On first use the record
// is created from the live hostname, so later ticks have a baseline to
// diff against.
func (f *Facility) HostnameRecord() (string, error) {
	data, err := os.ReadFile(f.hostnameRecordPath())
	if err == nil {
		return strings.TrimSpace(string(data)), nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("read hostname record: %w", err)
	}

	name, err := f.Hostname()
	if err != nil {
		return "", fmt.Errorf("query hostname: %w", err)
	}
	if err := f.writeHostnameRecord(name); err != nil {
		return "", err
	}
	return name, nil
}

func (f *Facility) writeHostnameRecord(name string) error {
	if err := os.MkdirAll(f.StateDir, 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	if err := os.WriteFile(f.hostnameRecordPath(), []byte(name+"\n"), 0o644); err != nil {
		return fmt.Errorf("write hostname record: %w", err)
	}
	return nil
}
