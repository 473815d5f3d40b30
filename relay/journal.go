package relay

import (
	"errors"
	"fmt"
	"time"

	"github.com/nspcc-dev/neo-go/pkg/util"
	"go.etcd.io/bbolt"
)

// Status of the transfer in the Journal.
type Status byte

const (
	// StatusUnknown is a status of transfers never seen before.
	StatusUnknown Status = iota
	// StatusPending is set before the mint is submitted. Transfers found
	// pending after restart may or may not be minted and need a manual check.
	StatusPending
	// StatusDone is set after the mint succeeds.
	StatusDone
	// StatusFailed is set when the mint can't be done.
	StatusFailed
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusUnknown:
		return "unknown"
	case StatusPending:
		return "pending"
	case StatusDone:
		return "done"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", byte(s))
	}
}

var transfersBucket = []byte("transfers")

// ErrCorruptedRecord is returned for journal records that can't be decoded.
var ErrCorruptedRecord = errors.New("corrupted journal record")

// Record is a journal entry of the transfer.
type Record struct {
	Status Status
	// Mint is a hash of the mint transaction, it's set for done transfers.
	Mint util.Uint256
	// Reason is a failure message, it's set for failed transfers.
	Reason string
}

// Journal is a persistent set of relayed transfers backed by bbolt.
type Journal struct {
	db *bbolt.DB
}

// OpenJournal opens or creates journal file.
func OpenJournal(path string) (*Journal, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(transfersBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init journal %s: %w", path, err)
	}

	return &Journal{db: db}, nil
}

// Close closes journal file.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Get returns record of the transfer. Unknown transfers have StatusUnknown.
func (j *Journal) Get(id TransferID) (Record, error) {
	var r Record

	err := j.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(transfersBucket).Get(id.Bytes())
		if v == nil {
			return nil
		}

		var err error
		r, err = decodeRecord(v)
		return err
	})
	return r, err
}

// Begin marks transfer pending. It returns false without any changes if the
// transfer is already journaled.
func (j *Journal) Begin(id TransferID) (bool, error) {
	var started bool

	err := j.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(transfersBucket)
		if b.Get(id.Bytes()) != nil {
			return nil
		}
		started = true
		return b.Put(id.Bytes(), encodeRecord(Record{Status: StatusPending}))
	})
	return started && err == nil, err
}

// Done marks transfer minted by the given transaction.
func (j *Journal) Done(id TransferID, mint util.Uint256) error {
	return j.put(id, Record{Status: StatusDone, Mint: mint})
}

// Fail marks transfer failed.
func (j *Journal) Fail(id TransferID, reason string) error {
	return j.put(id, Record{Status: StatusFailed, Reason: reason})
}

// Abort forgets pending transfer, so it can be started again. Transfers in
// other states are left untouched.
func (j *Journal) Abort(id TransferID) error {
	return j.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(transfersBucket)
		v := b.Get(id.Bytes())
		if len(v) == 0 || Status(v[0]) != StatusPending {
			return nil
		}
		return b.Delete(id.Bytes())
	})
}

// Iterate calls f for every journaled transfer until it returns false.
func (j *Journal) Iterate(f func(TransferID, Record) bool) error {
	return j.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(transfersBucket).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			u, err := util.Uint256DecodeBytesBE(k)
			if err != nil {
				return fmt.Errorf("%w: key %x", ErrCorruptedRecord, k)
			}
			r, err := decodeRecord(v)
			if err != nil {
				return err
			}
			if !f(TransferID(u), r) {
				return nil
			}
		}
		return nil
	})
}

func (j *Journal) put(id TransferID, r Record) error {
	return j.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(transfersBucket).Put(id.Bytes(), encodeRecord(r))
	})
}

// Record layout: status byte, then mint hash for StatusDone or failure reason
// for StatusFailed.
func encodeRecord(r Record) []byte {
	switch r.Status {
	case StatusDone:
		return append([]byte{byte(r.Status)}, r.Mint.BytesBE()...)
	case StatusFailed:
		return append([]byte{byte(r.Status)}, r.Reason...)
	default:
		return []byte{byte(r.Status)}
	}
}

func decodeRecord(v []byte) (Record, error) {
	if len(v) == 0 {
		return Record{}, fmt.Errorf("%w: empty value", ErrCorruptedRecord)
	}

	r := Record{Status: Status(v[0])}
	switch r.Status {
	case StatusPending:
	case StatusDone:
		var err error
		if r.Mint, err = util.Uint256DecodeBytesBE(v[1:]); err != nil {
			return Record{}, fmt.Errorf("%w: %v", ErrCorruptedRecord, err)
		}
	case StatusFailed:
		r.Reason = string(v[1:])
	default:
		return Record{}, fmt.Errorf("%w: unexpected status %d", ErrCorruptedRecord, v[0])
	}
	return r, nil
}
