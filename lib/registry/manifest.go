package registry

import (
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/ValentinKolb/mKV/lib/db"
	"github.com/cockroachdb/errors"
	"github.com/zeebo/blake3"
)

const (
	manifestName    = "manifest.json"
	manifestVersion = 1
	databasesDir    = "dbs"
)

// manifestEntry is the persisted form of a registered database.
// Path is relative to the data directory.
type manifestEntry struct {
	UID     string     `json:"uid"`
	Name    string     `json:"name"`
	Path    string     `json:"path"`
	Options db.Options `json:"options"`
}

type manifest struct {
	Version   int             `json:"version"`
	Databases []manifestEntry `json:"databases"`
	Checksum  string          `json:"checksum"`
}

// checksum returns the hex encoded blake3 digest of the serialized entries
func checksum(entries []manifestEntry) (string, error) {
	b, err := json.Marshal(entries)
	if err != nil {
		return "", err
	}
	sum := blake3.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// loadManifest reads the manifest from dataDir.
// A missing manifest is an empty registry.
func loadManifest(dataDir string) ([]manifestEntry, error) {
	b, err := os.ReadFile(filepath.Join(dataDir, manifestName))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read manifest")
	}

	var m manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, errors.Wrap(err, "failed to parse manifest")
	}
	if m.Version != manifestVersion {
		return nil, errors.Newf("unsupported manifest version %d", m.Version)
	}

	sum, err := checksum(m.Databases)
	if err != nil {
		return nil, err
	}
	if sum != m.Checksum {
		return nil, errors.Wrapf(ErrCorruptManifest, "expected %s, got %s", m.Checksum, sum)
	}

	return m.Databases, nil
}

// storeManifest atomically replaces the manifest in dataDir
func storeManifest(dataDir string, entries []manifestEntry) error {
	if entries == nil {
		entries = []manifestEntry{}
	}

	sum, err := checksum(entries)
	if err != nil {
		return err
	}

	b, err := json.MarshalIndent(manifest{
		Version:   manifestVersion,
		Databases: entries,
		Checksum:  sum,
	}, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode manifest")
	}

	tmp := filepath.Join(dataDir, manifestName+".tmp")
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return errors.Wrap(err, "failed to write manifest")
	}
	if err := os.Rename(tmp, filepath.Join(dataDir, manifestName)); err != nil {
		return errors.Wrap(err, "failed to replace manifest")
	}
	return nil
}
