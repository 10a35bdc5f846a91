// Package archive bounds the on-disk goal-state cache: old cache files
// are pruned past a retention limit and the survivors are bundled into
// timestamped zip snapshots for support diagnostics.
package archive

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"
)

const (
	// MaxCachedFiles is the number of goal-state cache files kept on
	// disk after a purge.
	MaxCachedFiles = 50

	// maxBundles bounds the history directory the same way.
	maxBundles = 50

	bundleTimeFormat = "2006-01-02T15-04-05"
)

// cachePatterns match the incarnation-suffixed goal-state files the
// fabric protocol writes next to the agent state.
var cachePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(.*)\.(\d+)\.(agentsManifest)$`),
	regexp.MustCompile(`(?i)^(.*)\.(\d+)\.(manifest\.xml)$`),
	regexp.MustCompile(`(?i)^(.*)\.(\d+)\.(xml)$`),
}

// StateArchiver prunes and bundles the cache directory.
type StateArchiver struct {
	cacheDir   string
	historyDir string
	index      *Index
}

// NewStateArchiver returns an archiver over cacheDir, bundling into
// cacheDir/history and recording runs in index.
func NewStateArchiver(cacheDir string, index *Index) *StateArchiver {
	return &StateArchiver{
		cacheDir:   cacheDir,
		historyDir: filepath.Join(cacheDir, "history"),
		index:      index,
	}
}

func isCacheFile(name string) bool {
	for _, p := range cachePatterns {
		if p.MatchString(name) {
			return true
		}
	}
	return false
}

// cacheFiles lists matching cache entries newest-first.
func (a *StateArchiver) cacheFiles() ([]string, error) {
	entries, err := os.ReadDir(a.cacheDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read cache dir: %w", err)
	}

	type aged struct {
		name string
		mod  time.Time
	}
	var files []aged
	for _, e := range entries {
		if e.IsDir() || !isCacheFile(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, aged{name: e.Name(), mod: info.ModTime()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].mod.After(files[j].mod) })

	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.name
	}
	return out, nil
}

// Purge removes cache files beyond the retention limit (oldest first)
// and bounds the bundle history the same way.
func (a *StateArchiver) Purge(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	files, err := a.cacheFiles()
	if err != nil {
		return err
	}
	for _, name := range skipNewest(files, MaxCachedFiles) {
		path := filepath.Join(a.cacheDir, name)
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("purge cache file %s: %w", path, err)
		}
		slog.Debug("Purged cache file.", "path", path)
	}

	return a.purgeBundles()
}

func skipNewest(files []string, keep int) []string {
	if len(files) <= keep {
		return nil
	}
	return files[keep:]
}

func (a *StateArchiver) purgeBundles() error {
	entries, err := os.ReadDir(a.historyDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read history dir: %w", err)
	}

	var bundles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".zip" {
			bundles = append(bundles, e.Name())
		}
	}
	// Bundle names are timestamps, so lexical order is age order.
	sort.Sort(sort.Reverse(sort.StringSlice(bundles)))
	for _, name := range skipNewest(bundles, maxBundles) {
		path := filepath.Join(a.historyDir, name)
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("purge bundle %s: %w", path, err)
		}
	}
	return nil
}

// Archive bundles the current cache files into a timestamped zip and
// records the run. An empty cache still records a run so the scheduling
// gate re-arms.
func (a *StateArchiver) Archive(ctx context.Context, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	files, err := a.cacheFiles()
	if err != nil {
		return err
	}

	bundle := ""
	if len(files) > 0 {
		bundle = filepath.Join(a.historyDir, now.UTC().Format(bundleTimeFormat)+".zip")
		if err := a.writeBundle(bundle, files); err != nil {
			return err
		}
		slog.Info("Archived goal-state cache.", "bundle", bundle, "files", len(files))
	}

	if a.index != nil {
		return a.index.RecordRun(ctx, now, bundle, len(files))
	}
	return nil
}

func (a *StateArchiver) writeBundle(path string, files []string) (err error) {
	if err := os.MkdirAll(a.historyDir, 0o700); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create bundle: %w", err)
	}
	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close bundle: %w", cerr)
		}
	}()

	zw := zip.NewWriter(out)
	for _, name := range files {
		if err := addToBundle(zw, filepath.Join(a.cacheDir, name), name); err != nil {
			_ = zw.Close()
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize bundle: %w", err)
	}
	return nil
}

func addToBundle(zw *zip.Writer, path, name string) error {
	in, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Purged or rewritten between listing and bundling.
			return nil
		}
		return fmt.Errorf("open cache file %s: %w", path, err)
	}
	defer in.Close()

	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("add %s to bundle: %w", name, err)
	}
	if _, err := io.Copy(w, in); err != nil {
		return fmt.Errorf("copy %s into bundle: %w", name, err)
	}
	return nil
}

// LastRun reports the most recent recorded archive time.
func (a *StateArchiver) LastRun(ctx context.Context) (time.Time, error) {
	if a.index == nil {
		return time.Time{}, nil
	}
	return a.index.LastRun(ctx)
}
