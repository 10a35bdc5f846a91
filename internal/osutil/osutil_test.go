package osutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestHostnameRecord_CreatesOnFirstUse(t *testing.T) {
	f := &Facility{StateDir: t.TempDir()}

	got, err := f.HostnameRecord()
	if err != nil {
		t.Fatalf("HostnameRecord: %v", err)
	}
	live, _ := os.Hostname()
	if got != live {
		t.Errorf("record = %q, want live hostname %q", got, live)
	}
	if _, err := os.Stat(f.hostnameRecordPath()); err != nil {
		t.Errorf("record file not created: %v", err)
	}
}

func TestHostnameRecord_ReadsExisting(t *testing.T) {
	f := &Facility{StateDir: t.TempDir()}
	if err := os.WriteFile(f.hostnameRecordPath(), []byte("recorded-host\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := f.HostnameRecord()
	if err != nil {
		t.Fatalf("HostnameRecord: %v", err)
	}
	if got != "recorded-host" {
		t.Errorf("record = %q, want recorded-host", got)
	}
}

func TestPruneRulesFiles(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, "70-persistent-net.rules")
	keep := filepath.Join(dir, "99-custom.rules")
	for _, p := range []string{stale, keep} {
		if err := os.WriteFile(p, []byte("# rule\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	f := &Facility{UdevRulesDirs: []string{dir, filepath.Join(dir, "missing")}}
	f.PruneRulesFiles()

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale persistent-net rules file should be removed")
	}
	if _, err := os.Stat(keep); err != nil {
		t.Error("unrelated rules files must be left alone")
	}

	// Second pass over now-missing files is silent.
	f.PruneRulesFiles()
}
