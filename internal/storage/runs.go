package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"
)

// RunKind classifies a run record.
type RunKind string

const (
	RunTrain    RunKind = "train"
	RunEvaluate RunKind = "evaluate"
	RunLoad     RunKind = "load"
)

// RunKinds lists every kind, one bucket each.
var RunKinds = []RunKind{RunTrain, RunEvaluate, RunLoad}

// ParseRunKind validates a kind name.
func ParseRunKind(s string) (RunKind, error) {
	for _, kind := range RunKinds {
		if string(kind) == s {
			return kind, nil
		}
	}
	return "", fmt.Errorf("unknown run kind %q", s)
}

// RunRecord is one training, evaluation or model load event.
type RunRecord struct {
	ID             string    `json:"id"`
	Kind           RunKind   `json:"kind"`
	Timestamp      time.Time `json:"timestamp"`
	Samples        int       `json:"samples"`
	Accuracy       float64   `json:"accuracy"`
	Precision      float64   `json:"precision,omitempty"`
	Recall         float64   `json:"recall,omitempty"`
	F1Score        float64   `json:"f1_score,omitempty"`
	VocabularySize int       `json:"vocabulary_size,omitempty"`
	DurationMs     float64   `json:"duration_ms"`
	Source         string    `json:"source,omitempty"`
}

// Record appends a run record. A missing ID or timestamp is filled in.
func (s *Store) Record(record RunRecord) (RunRecord, error) {
	if _, err := ParseRunKind(string(record.Kind)); err != nil {
		return record, err
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(record.Kind))

		seq, err := b.NextSequence()
		if err != nil {
			return fmt.Errorf("next sequence: %w", err)
		}

		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal run record: %w", err)
		}

		return b.Put(recordKey(string(record.Kind), record.Timestamp, seq), data)
	})
	return record, err
}

// Runs returns records of kind with start <= timestamp <= end, oldest first.
func (s *Store) Runs(kind RunKind, start, end time.Time) ([]RunRecord, error) {
	var records []RunRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		records, err = getRecordsInRange[RunRecord](tx, string(kind), start, end)
		return err
	})
	return records, err
}

// Latest returns up to n most recent records of kind, newest first.
func (s *Store) Latest(kind RunKind, n int) ([]RunRecord, error) {
	if n <= 0 {
		return []RunRecord{}, nil
	}

	records := make([]RunRecord, 0, n)
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(kind))
		if b == nil {
			return fmt.Errorf("bucket %q not found", kind)
		}

		c := b.Cursor()
		for k, v := c.Last(); k != nil && len(records) < n; k, v = c.Prev() {
			var record RunRecord
			if err := json.Unmarshal(v, &record); err != nil {
				continue
			}
			records = append(records, record)
		}
		return nil
	})
	return records, err
}

// Count returns the number of records of kind.
func (s *Store) Count(kind RunKind) (int, error) {
	var count int
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(kind))
		if b == nil {
			return fmt.Errorf("bucket %q not found", kind)
		}
		count = b.Stats().KeyN
		return nil
	})
	return count, err
}
