package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/RoninATX/MKUltraSkelly/internal/bleerr"
)

// WriteDiscovery renders the summary's records as a JSON array and
// writes it atomically to path.
func WriteDiscovery(summary *DiscoverySummary, path string) error {
	records := summary.Records()
	if records == nil {
		records = []*AdvertisementRecord{}
	}
	return writeJSON(records, path)
}

// WriteProfile renders the device profile and writes it atomically to
// path.
func WriteProfile(p *DeviceProfile, path string) error {
	return writeJSON(p, path)
}

// writeJSON marshals v and writes it via a temporary file in the
// destination directory followed by a rename, so a concurrent reader
// never observes a half-written document and a failed run leaves any
// existing file untouched.
func writeJSON(v any, path string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return bleerr.Wrap(bleerr.WriteError, "marshal output", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return bleerr.Wrap(bleerr.WriteError, fmt.Sprintf("create output directory %s", dir), err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return bleerr.Wrap(bleerr.WriteError, fmt.Sprintf("create temporary file in %s", dir), err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return bleerr.Wrap(bleerr.WriteError, "write output", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return bleerr.Wrap(bleerr.WriteError, "sync output", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return bleerr.Wrap(bleerr.WriteError, "close output", err)
	}

	// CreateTemp uses 0600; published files should be world-readable.
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return bleerr.Wrap(bleerr.WriteError, "chmod output", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return bleerr.Wrap(bleerr.WriteError, fmt.Sprintf("rename into %s", path), err)
	}
	return nil
}
