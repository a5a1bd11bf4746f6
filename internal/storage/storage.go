// Package storage persists factor importance results using BoltDB. Score
// reports are stored as JSON records keyed by dataset name and timestamp,
// which keeps time-range queries a simple prefix scan.
package storage

import (
	"fmt"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

const reportsBucket = "reports"

// Store provides persistent storage for score reports.
type Store struct {
	db *bbolt.DB
}

// New opens the database under dataPath and creates the report bucket.
func New(dataPath string) (*Store, error) {
	dbPath := filepath.Join(dataPath, "selectio-data.db")

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(reportsBucket)); err != nil {
			return fmt.Errorf("create reports bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
