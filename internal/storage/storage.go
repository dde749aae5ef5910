// Package storage provides persistent storage for the sentiment service.
// It uses BoltDB as the underlying storage engine to keep a log of training,
// evaluation and model load runs.
//
// Records are keyed "kind_timestamp_sequence" inside one bucket per kind, so
// time-range queries are cursor scans over ordered keys.
package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

// DBFileName is the database file created inside the data directory.
const DBFileName = "sentiment-runs.db"

// Store provides persistent storage for run records using BoltDB.
type Store struct {
	db *bbolt.DB // BoltDB database instance
}

// New opens (or creates) the run log in dataPath and creates one bucket per
// run kind.
func New(dataPath string) (*Store, error) {
	dbPath := filepath.Join(dataPath, DBFileName)

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, kind := range RunKinds {
			if _, err := tx.CreateBucketIfNotExists([]byte(kind)); err != nil {
				return fmt.Errorf("create %s bucket: %w", kind, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database connection gracefully.
func (s *Store) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	if s.db == nil {
		return ""
	}
	return s.db.Path()
}

var maxKeyTime = time.Unix(0, math.MaxInt64)

// keyNanos clamps t to the range representable in a record key.
func keyNanos(t time.Time) int64 {
	switch {
	case t.Before(time.Unix(0, 0)):
		return 0
	case t.After(maxKeyTime):
		return math.MaxInt64
	default:
		return t.UnixNano()
	}
}

func recordKey(prefix string, ts time.Time, seq uint64) []byte {
	return []byte(fmt.Sprintf("%s_%019d_%020d", prefix, keyNanos(ts), seq))
}

// getRecordsInRange scans bucketName for keys between start and end, both
// inclusive, decoding each value. Malformed records are skipped.
func getRecordsInRange[T any](tx *bbolt.Tx, bucketName string, start, end time.Time) ([]T, error) {
	b := tx.Bucket([]byte(bucketName))
	if b == nil {
		return nil, fmt.Errorf("bucket %q not found", bucketName)
	}

	prefix := []byte(bucketName + "_")
	startKey := []byte(fmt.Sprintf("%s_%019d", bucketName, keyNanos(start)))
	// '~' sorts after every sequence suffix of the end timestamp
	endKey := []byte(fmt.Sprintf("%s_%019d~", bucketName, keyNanos(end)))

	var records []T
	c := b.Cursor()
	for k, v := c.Seek(startKey); k != nil && bytes.Compare(k, endKey) <= 0; k, v = c.Next() {
		if !bytes.HasPrefix(k, prefix) {
			continue
		}
		var record T
		if err := json.Unmarshal(v, &record); err != nil {
			continue
		}
		records = append(records, record)
	}
	return records, nil
}
