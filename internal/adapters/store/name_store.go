// Package store persists the append-only name sets of a target domain.
package store

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"subterra/internal/core/domain"
	"subterra/internal/platform/errors"
	"subterra/internal/platform/logx"
	"subterra/internal/platform/validator"
)

// NameStore is a file-backed, append-only set of hostnames.
//
// The in-memory set gives O(1) membership during a run; the file holds the
// same names sorted one per line. Merge is the only mutation and holds the
// store lock across diff, union and persist, so concurrent callers never
// compute a stale diff.
type NameStore struct {
	mu     sync.Mutex
	path   string
	names  map[domain.Hostname]struct{}
	logger logx.Logger
}

// Open loads the set persisted at path, creating an empty file when absent.
// Lines that are not valid hostnames are skipped.
func Open(path string, logger logx.Logger) (*NameStore, error) {
	s := &NameStore{
		path:   path,
		names:  make(map[domain.Hostname]struct{}),
		logger: logger.With("component", "store", "file", filepath.Base(path)),
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrapf(errors.ErrMergeIO, "create directory for %s: %v", path, err)
	}

	skipped, err := s.load()
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		s.logger.Warn("skipped invalid persisted entries", "count", skipped)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := s.persist(); err != nil {
			return nil, err
		}
	}

	s.logger.Debug("store loaded", "names", len(s.names))
	return s, nil
}

func (s *NameStore) load() (int, error) {
	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrapf(errors.ErrMergeIO, "open %s: %v", s.path, err)
	}
	defer f.Close()

	skipped := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) == 0 {
			continue
		}
		h, ok := validator.ValidateHostname(line)
		if !ok {
			skipped++
			continue
		}
		s.names[h] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return skipped, errors.Wrapf(errors.ErrMergeIO, "read %s: %v", s.path, err)
	}
	return skipped, nil
}

// Merge adds names to the set and returns the ones that were not present,
// sorted. The file is rewritten atomically before Merge returns; when that
// fails the in-memory set is rolled back and the error wraps ErrMergeIO.
func (s *NameStore) Merge(names []domain.Hostname) ([]domain.Hostname, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := make([]domain.Hostname, 0)
	seen := make(map[domain.Hostname]struct{}, len(names))
	for _, n := range names {
		if n == "" {
			continue
		}
		if _, ok := s.names[n]; ok {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		added = append(added, n)
	}

	if len(added) == 0 {
		return added, nil
	}

	for _, n := range added {
		s.names[n] = struct{}{}
	}

	if err := s.persist(); err != nil {
		for _, n := range added {
			delete(s.names, n)
		}
		return nil, err
	}

	domain.SortHostnames(added)
	s.logger.Debug("merged", "offered", len(names), "added", len(added), "total", len(s.names))
	return added, nil
}

// persist rewrites the file from the in-memory set. Must be called with
// s.mu held (or before the store is shared).
func (s *NameStore) persist() error {
	sorted := s.sortedLocked()

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+"-*.tmp")
	if err != nil {
		return errors.Wrapf(errors.ErrMergeIO, "create temp file in %s: %v", dir, err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if err := writeLines(tmp, sorted); err != nil {
		tmp.Close()
		return errors.Wrapf(errors.ErrMergeIO, "write %s: %v", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrapf(errors.ErrMergeIO, "sync %s: %v", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(errors.ErrMergeIO, "close %s: %v", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return errors.Wrapf(errors.ErrMergeIO, "chmod %s: %v", tmpName, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return errors.Wrapf(errors.ErrMergeIO, "rename into %s: %v", s.path, err)
	}
	committed = true
	return nil
}

func writeLines(w io.Writer, names []domain.Hostname) error {
	bw := bufio.NewWriter(w)
	for _, n := range names {
		if _, err := fmt.Fprintln(bw, n); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Contains reports whether name is in the set.
func (s *NameStore) Contains(name domain.Hostname) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.names[name]
	return ok
}

// Len returns the number of names in the set.
func (s *NameStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.names)
}

// Snapshot returns a sorted copy of the set.
func (s *NameStore) Snapshot() []domain.Hostname {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedLocked()
}

// Missing returns the names in candidates that are not in the set,
// preserving order and dropping duplicates.
func (s *NameStore) Missing(candidates []domain.Hostname) []domain.Hostname {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Hostname, 0, len(candidates))
	seen := make(map[domain.Hostname]struct{}, len(candidates))
	for _, c := range candidates {
		if _, ok := s.names[c]; ok {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// Path returns the backing file path.
func (s *NameStore) Path() string {
	return s.path
}

func (s *NameStore) sortedLocked() []domain.Hostname {
	out := make([]domain.Hostname, 0, len(s.names))
	for n := range s.names {
		out = append(out, n)
	}
	domain.SortHostnames(out)
	return out
}
