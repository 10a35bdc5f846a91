//go:build linux

package osutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// SetSCSITimeout writes seconds to every SCSI disk's sysfs timeout.
// Disks hot-added since the last tick get picked up on the next pass.
func (f *Facility) SetSCSITimeout(seconds int) error {
	pattern := filepath.Join(f.SysRoot, "block", "sd*", "device", "timeout")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return fmt.Errorf("glob scsi timeouts: %w", err)
	}

	value := []byte(strconv.Itoa(seconds))
	var errs []error
	for _, path := range matches {
		if err := os.WriteFile(path, value, 0o644); err != nil {
			errs = append(errs, fmt.Errorf("write %s: %w", path, err))
		}
	}
	return errors.Join(errs...)
}
