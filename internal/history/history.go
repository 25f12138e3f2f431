// Package history records the accounting of finished transfer attempts.
// Only counters and outcomes are persisted, never object bytes.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"s3smbcopy/internal/transfer"
)

// Outcome labels for a recorded attempt.
const (
	OutcomeSuccess   = "success"
	OutcomeFailed    = "failed"
	OutcomeCancelled = "cancelled"
)

// Record captures one transfer attempt.
type Record struct {
	TransferID      string  `json:"transfer_id"`
	Bucket          string  `json:"bucket"`
	Key             string  `json:"key"`
	Destination     string  `json:"destination"`
	Outcome         string  `json:"outcome"`
	Error           string  `json:"error,omitempty"`
	DeclaredSize    int64   `json:"declared_size"`
	BytesWritten    int64   `json:"bytes_written"`
	WriteOperations int64   `json:"write_operations"`
	ElapsedSeconds  float64 `json:"elapsed_seconds"`
	ThroughputBps   float64 `json:"throughput_bps"`
	FinishedAt      int64   `json:"finished_at"` // Unix timestamp
}

// NewRecord builds a record from a finished run.
func NewRecord(req transfer.Request, res transfer.Result, runErr error) Record {
	rec := Record{
		TransferID:      res.TransferID,
		Bucket:          req.Bucket,
		Key:             req.Key,
		Destination:     req.Destination,
		Outcome:         OutcomeSuccess,
		DeclaredSize:    res.DeclaredSize,
		BytesWritten:    res.BytesWritten,
		WriteOperations: res.WriteOperations,
		ElapsedSeconds:  res.Elapsed.Seconds(),
		ThroughputBps:   res.ThroughputBps,
		FinishedAt:      time.Now().Unix(),
	}
	if runErr != nil {
		rec.Outcome = OutcomeFailed
		if errors.Is(runErr, transfer.ErrCancelled) {
			rec.Outcome = OutcomeCancelled
		}
		rec.Error = runErr.Error()
	}
	return rec
}

// Store wraps BadgerDB for transfer records.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) the history database at the given path.
func Open(path string) (*Store, error) {
	db, err := badger.Open(badger.DefaultOptions(path).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores a record keyed by its transfer ID.
func (s *Store) Put(rec Record) error {
	key := []byte("transfer:" + rec.TransferID)
	val, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, val)
	})
}

// Get retrieves a record by transfer ID.
func (s *Store) Get(transferID string) (Record, error) {
	key := []byte("transfer:" + transferID)
	var rec Record
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	return rec, err
}

// List returns every recorded attempt.
func (s *Store) List() ([]Record, error) {
	var recs []Record
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte("transfer:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var rec Record
				if err := json.Unmarshal(val, &rec); err != nil {
					return err
				}
				recs = append(recs, rec)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return recs, err
}
