// Package workspace manages the shared scratch directory that fetched media
// is written to before delivery.
//
// Requests never coordinate through locks. Each request owns the files that
// start with its request ID, and every removal treats a missing file as done,
// so concurrent reaping and per-request cleanup can race freely.
package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/iconidentify/tokgrabba/internal/domain"
)

// partialSuffixes mark files the fetch tool writes while a download is in flight.
var partialSuffixes = []string{".part", ".ytdl", ".temp"}

// Workspace is a scratch directory shared by all requests.
type Workspace struct {
	dir    string
	logger *slog.Logger
	now    func() time.Time
}

// New creates a workspace rooted at dir. The directory is not touched until
// EnsureReady is called.
func New(dir string, logger *slog.Logger) *Workspace {
	if logger == nil {
		logger = slog.Default()
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return &Workspace{
		dir:    dir,
		logger: logger.With("component", "workspace"),
		now:    time.Now,
	}
}

// Dir returns the absolute path of the scratch directory.
func (w *Workspace) Dir() string {
	return w.dir
}

// EnsureReady creates the scratch directory if it does not exist.
func (w *Workspace) EnsureReady() error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("%w: create %s: %v", domain.ErrWorkspace, w.dir, err)
	}
	info, err := os.Stat(w.dir)
	if err != nil {
		return fmt.Errorf("%w: stat %s: %v", domain.ErrWorkspace, w.dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", domain.ErrWorkspace, w.dir)
	}
	return nil
}

// OutputTemplate returns the fetch tool output template for a request.
// The extension placeholder is filled in by the tool.
func (w *Workspace) OutputTemplate(id domain.RequestID) string {
	return filepath.Join(w.dir, id.String()+".%(ext)s")
}

// LocateByPrefix returns the regular files whose name starts with prefix.
// Complete files are listed before partial downloads; within each group the
// order is lexical.
func (w *Workspace) LocateByPrefix(prefix string) ([]string, error) {
	if prefix == "" {
		return nil, errors.New("empty prefix")
	}

	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, fmt.Errorf("read workspace: %w", err)
	}

	var complete, partial []string
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		path := filepath.Join(w.dir, e.Name())
		if isPartial(e.Name()) {
			partial = append(partial, path)
		} else {
			complete = append(complete, path)
		}
	}
	sort.Strings(complete)
	sort.Strings(partial)

	return append(complete, partial...), nil
}

// ReapStale removes regular files last modified more than maxAge ago and
// returns how many it removed. Directories are never touched. A file that
// cannot be removed is logged and skipped.
func (w *Workspace) ReapStale(maxAge time.Duration) int {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.logger.Error("reap: read workspace", "error", err)
		return 0
	}

	cutoff := w.now().Add(-maxAge)
	removed := 0
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// Removed between ReadDir and Info by another request.
			if !errors.Is(err, fs.ErrNotExist) {
				w.logger.Warn("reap: stat file", "file", e.Name(), "error", err)
			}
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}

		path := filepath.Join(w.dir, e.Name())
		if err := os.Remove(path); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				w.logger.Warn("reap: remove file", "file", path, "error", err)
			}
			continue
		}
		removed++
	}

	if removed > 0 {
		w.logger.Info("reaped stale files", "count", removed, "max_age", maxAge)
	}
	return removed
}

// Remove deletes path. It never fails: a file that is already gone is fine,
// anything else is logged.
func (w *Workspace) Remove(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		w.logger.Warn("remove artifact", "file", path, "error", err)
	}
}

// RemovePrefix deletes every file of one request, including partial
// downloads left behind by a killed fetch. It returns the number of files
// that were listed for removal.
func (w *Workspace) RemovePrefix(prefix string) int {
	paths, err := w.LocateByPrefix(prefix)
	if err != nil {
		w.logger.Warn("remove by prefix", "prefix", prefix, "error", err)
		return 0
	}
	for _, p := range paths {
		w.Remove(p)
	}
	return len(paths)
}

// Size returns the current on-disk size of path.
func (w *Workspace) Size(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if !info.Mode().IsRegular() {
		return 0, fmt.Errorf("%s is not a regular file", path)
	}
	return info.Size(), nil
}

// Stats summarizes the directory for status reporting.
func (w *Workspace) Stats() domain.WorkspaceStats {
	stats := domain.WorkspaceStats{Dir: w.dir}

	entries, err := os.ReadDir(w.dir)
	if err == nil {
		for _, e := range entries {
			if !e.Type().IsRegular() {
				continue
			}
			info, err := e.Info()
			if err != nil {
				continue
			}
			stats.Files++
			stats.TotalBytes += info.Size()
		}
	}

	stats.DiskTotalBytes, stats.DiskFreeBytes = diskUsage(w.dir)
	return stats
}

// Writable reports whether a file can be created in the directory.
func (w *Workspace) Writable() error {
	f, err := os.CreateTemp(w.dir, ".probe-*")
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrWorkspace, err)
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}

func isPartial(name string) bool {
	for _, s := range partialSuffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}
