package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

// ScoreReport captures one factor importance run for later comparison.
type ScoreReport struct {
	Dataset    string    `json:"dataset"`
	Timestamp  time.Time `json:"timestamp"`
	Features   []string  `json:"features,omitempty"`
	Scores     []float64 `json:"scores"`
	SampleSize int       `json:"sample_size"`
	Normalized bool      `json:"normalized"`
	Estimator  string    `json:"estimator"`
	Seed       int64     `json:"seed"`
}

// StoreReport stores a score report keyed by dataset name and timestamp.
func (s *Store) StoreReport(report ScoreReport) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(reportsBucket))
		if err != nil {
			return fmt.Errorf("create reports bucket: %w", err)
		}

		data, err := json.Marshal(report)
		if err != nil {
			return fmt.Errorf("marshal score report: %w", err)
		}

		key := fmt.Sprintf("%s_%d", report.Dataset, report.Timestamp.UnixNano())
		return b.Put([]byte(key), data)
	})
}

// GetReportsInRange returns reports for a dataset within a time range.
func (s *Store) GetReportsInRange(dataset string, start, end time.Time) ([]ScoreReport, error) {
	var reports []ScoreReport

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(reportsBucket))
		if b == nil {
			return nil
		}

		c := b.Cursor()
		prefix := []byte(dataset + "_")

		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var report ScoreReport
			if err := json.Unmarshal(v, &report); err != nil {
				continue
			}
			if report.Timestamp.After(start) && report.Timestamp.Before(end) {
				reports = append(reports, report)
			}
		}
		return nil
	})

	return reports, err
}

// LatestReport returns the most recent report for a dataset, or nil when the
// dataset has none.
func (s *Store) LatestReport(dataset string) (*ScoreReport, error) {
	var latest *ScoreReport

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(reportsBucket))
		if b == nil {
			return nil
		}

		c := b.Cursor()
		prefix := []byte(dataset + "_")

		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var report ScoreReport
			if err := json.Unmarshal(v, &report); err != nil {
				continue
			}
			if latest == nil || report.Timestamp.After(latest.Timestamp) {
				r := report
				latest = &r
			}
		}
		return nil
	})

	return latest, err
}
