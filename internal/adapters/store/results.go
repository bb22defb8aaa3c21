package store

import (
	"path/filepath"

	"subterra/internal/core/domain"
	"subterra/internal/platform/logx"
)

// File names inside the per-domain results directory.
const (
	CanonicalFile = "subdomains.txt"
	LiveFile      = "live_subdomains.txt"
)

// Results groups the two persisted sets of one target domain.
type Results struct {
	Dir       string
	Canonical *NameStore
	Live      *NameStore
}

// DomainDir returns <outputDir>/<domain>.
func DomainDir(outputDir string, root domain.Hostname) string {
	return filepath.Join(outputDir, string(root))
}

// OpenResults loads (or creates) the canonical and live sets for root.
// Both files exist on disk once OpenResults returns without error.
func OpenResults(outputDir string, root domain.Hostname, logger logx.Logger) (*Results, error) {
	dir := DomainDir(outputDir, root)

	canonical, err := Open(filepath.Join(dir, CanonicalFile), logger)
	if err != nil {
		return nil, err
	}
	live, err := Open(filepath.Join(dir, LiveFile), logger)
	if err != nil {
		return nil, err
	}

	return &Results{Dir: dir, Canonical: canonical, Live: live}, nil
}
