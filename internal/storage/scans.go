package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.etcd.io/bbolt"

	"github.com/hakim/nativerecon/internal/models"
)

// ErrScanNotFound is returned when a scan ID has no history record
var ErrScanNotFound = errors.New("scan not found")

// SaveScan persists a scan metadata record, replacing any earlier version,
// and indexes it under its target.
func (s *Store) SaveScan(meta *models.ScanMeta) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("encoding scan %s: %w", meta.ID, err)
		}

		scans := tx.Bucket([]byte(bucketScans))
		if err := scans.Put([]byte(meta.ID), data); err != nil {
			return err
		}

		// Update scan index (target -> []scan_id mapping)
		index := tx.Bucket([]byte(bucketScanIndex))
		targetKey := []byte(meta.Target)

		var scanIDs []string
		if existing := index.Get(targetKey); existing != nil {
			if err := json.Unmarshal(existing, &scanIDs); err != nil {
				return fmt.Errorf("decoding index for %s: %w", meta.Target, err)
			}
		}
		if slices.Contains(scanIDs, meta.ID) {
			return nil
		}
		scanIDs = append(scanIDs, meta.ID)

		indexData, err := json.Marshal(scanIDs)
		if err != nil {
			return err
		}
		return index.Put(targetKey, indexData)
	})
}

// GetScan retrieves a scan metadata record by ID
func (s *Store) GetScan(id string) (*models.ScanMeta, error) {
	var meta *models.ScanMeta

	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(bucketScans)).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%w: %s", ErrScanNotFound, id)
		}

		meta = &models.ScanMeta{}
		return json.Unmarshal(data, meta)
	})
	if err != nil {
		return nil, err
	}

	return meta, nil
}

// ListScans retrieves all scan metadata records for a target, newest first
func (s *Store) ListScans(target string) ([]*models.ScanMeta, error) {
	var scans []*models.ScanMeta

	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(bucketScanIndex)).Get([]byte(target))
		if data == nil {
			return nil
		}

		var scanIDs []string
		if err := json.Unmarshal(data, &scanIDs); err != nil {
			return fmt.Errorf("decoding index for %s: %w", target, err)
		}

		bucket := tx.Bucket([]byte(bucketScans))
		for _, id := range scanIDs {
			raw := bucket.Get([]byte(id))
			if raw == nil {
				continue
			}
			var meta models.ScanMeta
			if err := json.Unmarshal(raw, &meta); err != nil {
				return fmt.Errorf("decoding scan %s: %w", id, err)
			}
			scans = append(scans, &meta)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(scans, func(a, b *models.ScanMeta) int {
		return b.StartedAt.Compare(a.StartedAt)
	})

	return scans, nil
}

// GetLatestScan retrieves the most recent scan for a target, or nil if the
// target has never been scanned.
func (s *Store) GetLatestScan(target string) (*models.ScanMeta, error) {
	scans, err := s.ListScans(target)
	if err != nil {
		return nil, err
	}
	if len(scans) == 0 {
		return nil, nil
	}
	return scans[0], nil
}

// UpdateScanStatus sets the status of a scan and stamps CompletedAt the first
// time it reaches a terminal state.
func (s *Store) UpdateScanStatus(id string, status models.ScanStatus) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		scans := tx.Bucket([]byte(bucketScans))

		data := scans.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%w: %s", ErrScanNotFound, id)
		}

		var meta models.ScanMeta
		if err := json.Unmarshal(data, &meta); err != nil {
			return fmt.Errorf("decoding scan %s: %w", id, err)
		}

		meta.Status = status
		if status.Terminal() && meta.CompletedAt == nil {
			now := time.Now()
			meta.CompletedAt = &now
		}

		updated, err := json.Marshal(&meta)
		if err != nil {
			return err
		}
		return scans.Put([]byte(id), updated)
	})
}
