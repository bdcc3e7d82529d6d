// Package results stores completed practice runs in a bbolt database.
// Keys are big-endian sequence numbers so a cursor walks runs in the order
// they were saved; values are JSON.
package results

import (
	"encoding/binary"
	"encoding/json"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	"typing-server/internal/types"
)

// List limits
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

var bucketResults = []byte("results")

// ErrInvalidResult is returned for a run that cannot have happened
var ErrInvalidResult = errors.New("invalid result")

// Store persists results
type Store struct {
	db *bolt.DB
}

// NewStore opens (or creates) a bbolt database at the given path.
func NewStore(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, errors.Wrap(err, "bbolt open")
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketResults)
		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "creating results bucket")
	}
	return &Store{db: db}, nil
}

// Close closes the underlying bbolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores a result
func (s *Store) Save(res types.Result) error {
	value, err := json.Marshal(res)
	if err != nil {
		return errors.Wrap(err, "marshal result")
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketResults)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		return b.Put(sequenceKey(seq), value)
	})
}

// Recent returns up to limit results, newest first
func (s *Store) Recent(limit int) ([]types.Result, error) {
	out := make([]types.Result, 0)
	if limit <= 0 {
		return out, nil
	}

	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketResults).Cursor()
		for k, v := c.Last(); k != nil && len(out) < limit; k, v = c.Prev() {
			var res types.Result
			if err := json.Unmarshal(v, &res); err != nil {
				return errors.Wrapf(err, "decoding result %d", binary.BigEndian.Uint64(k))
			}
			out = append(out, res)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of stored results
func (s *Store) Count() (int, error) {
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(bucketResults).Stats().KeyN
		return nil
	})
	return n, err
}

// Validate rejects negative counters and more errors than typed characters
func Validate(req types.ResultRequest) error {
	switch {
	case req.CharsTyped < 0, req.Errors < 0, req.TextLength < 0, req.DurationMs < 0:
		return errors.Wrap(ErrInvalidResult, "counters must not be negative")
	case req.Errors > req.CharsTyped:
		return errors.Wrap(ErrInvalidResult, "errors exceed characters typed")
	}
	return nil
}

// NewResult builds a result from a validated request
func NewResult(req types.ResultRequest, source types.TextSource) types.Result {
	return types.Result{
		ID:         uuid.NewString(),
		CharsTyped: req.CharsTyped,
		Errors:     req.Errors,
		TextLength: req.TextLength,
		Accuracy:   Accuracy(req.CharsTyped, req.Errors),
		DurationMs: req.DurationMs,
		Source:     source,
		CreatedAt:  time.Now().UTC(),
	}
}

// Accuracy is the rounded percentage of typed characters that were correct.
// Nothing typed counts as 100.
func Accuracy(charsTyped, errs int) int {
	if charsTyped == 0 {
		return 100
	}
	return int(math.Round(float64(charsTyped-errs) / float64(charsTyped) * 100))
}

func sequenceKey(seq uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, seq)
	return k
}
