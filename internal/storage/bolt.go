package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

// History layout: scans maps a scan ID to its JSON ScanMeta, scan_index maps
// a target to the JSON list of its scan IDs.
const (
	bucketScans     = "scans"
	bucketScanIndex = "scan_index"
)

// lockWait is how long NewStore waits for another run to release the file
const lockWait = time.Second

// ErrHistoryLocked means another process holds the history database open
var ErrHistoryLocked = errors.New("history database is in use by another run")

// Store is the bbolt-backed run history
type Store struct {
	db *bbolt.DB
}

// NewStore opens (creating if needed) the history database at path,
// including its parent directory and buckets.
func NewStore(path string) (*Store, error) {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return nil, fmt.Errorf("creating directory for %s: %w", path, err)
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: lockWait})
	if errors.Is(err, bbolt.ErrTimeout) {
		return nil, fmt.Errorf("%w: %s", ErrHistoryLocked, path)
	}
	if err != nil {
		return nil, fmt.Errorf("opening history database %s: %w", path, err)
	}

	if err := db.Update(createBuckets); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("preparing history database %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

func createBuckets(tx *bbolt.Tx) error {
	for _, name := range []string{bucketScans, bucketScanIndex} {
		if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
			return fmt.Errorf("bucket %s: %w", name, err)
		}
	}
	return nil
}

// Close releases the database file lock
func (s *Store) Close() error {
	return s.db.Close()
}
