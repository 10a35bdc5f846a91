package osutil

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
)

// PruneRulesFiles removes stale persistent-net udev rules. Regenerated
// rules pin NIC names to MAC addresses from a previous VM generation
// and break interface naming after re-provisioning. Missing files are
// the normal case.
func (f *Facility) PruneRulesFiles() {
	for _, dir := range f.UdevRulesDirs {
		for _, name := range persistentNetRules {
			path := filepath.Join(dir, name)
			err := os.Remove(path)
			if err == nil {
				slog.Info("Removed stale rules file.", "path", path)
				continue
			}
			if !errors.Is(err, os.ErrNotExist) {
				slog.Warn("Failed to remove rules file.", "path", path, "err", err)
			}
		}
	}
}
