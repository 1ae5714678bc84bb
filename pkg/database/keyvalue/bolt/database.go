// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package bolt

import (
	"log/slog"
	"time"

	"gitlab.com/accumulatenetwork/tokenledger/internal/logging"
	"gitlab.com/accumulatenetwork/tokenledger/pkg/database/keyvalue"
	"gitlab.com/accumulatenetwork/tokenledger/pkg/database/keyvalue/memory"
	"gitlab.com/accumulatenetwork/tokenledger/pkg/errors"
	"gitlab.com/accumulatenetwork/tokenledger/pkg/types/record"
	bolt "go.etcd.io/bbolt"
)

// Database is a key-value store backed by a bbolt file. The first part of
// every key must be a string; it names the bucket the rest of the key is
// stored in.
type Database struct {
	bolt *bolt.DB
}

func Open(filepath string) (*Database, error) {
	db, err := bolt.Open(filepath, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, errors.UnknownError.WithFormat("open %s: %w", filepath, err)
	}
	return &Database{bolt: db}, nil
}

func (d *Database) bucket(tx *bolt.Tx, key *record.Key, create bool) (*bolt.Bucket, []byte, error) {
	if key.Len() == 0 {
		return nil, nil, errors.InternalError.With("invalid key: empty")
	}

	s, ok := key.Get(0).(string)
	if !ok {
		return nil, nil, errors.InternalError.WithFormat("invalid key: first part of %v is not a string", key)
	}

	b := tx.Bucket([]byte(s))
	if b == nil {
		if !create {
			return nil, nil, nil
		}

		var err error
		b, err = tx.CreateBucket([]byte(s))
		if err != nil {
			return nil, nil, err
		}
	}

	k, err := key.SliceI(1).MarshalBinary()
	if err != nil {
		return nil, nil, errors.InternalError.WithFormat("invalid key: %w", err)
	}
	return b, k, nil
}

// Begin begins a change set.
func (d *Database) Begin(prefix *record.Key, writable bool) keyvalue.ChangeSet {
	// Use a read-only transaction for reading
	rd, err := d.bolt.Begin(false)

	discard := func() {
		if rd != nil {
			_ = rd.Rollback()
		}
	}

	get := func(key *record.Key) ([]byte, error) {
		if err != nil {
			return nil, err
		}
		return d.get(rd, key)
	}

	var commit memory.CommitFunc
	if writable {
		commit = func(entries map[record.KeyHash]memory.Entry) error {
			// Release the read transaction, otherwise Update may deadlock
			// waiting on the mmap lock
			discard()
			return d.commit(entries)
		}
	}

	forEach := func(fn func(*record.Key, []byte) error) error {
		if err != nil {
			return err
		}
		return d.forEach(rd, fn)
	}

	return memory.NewChangeSet(memory.ChangeSetOptions{
		Prefix:  prefix,
		Get:     get,
		Commit:  commit,
		ForEach: forEach,
		Discard: discard,
	})
}

func (d *Database) get(txn *bolt.Tx, key *record.Key) ([]byte, error) {
	b, k, err := d.bucket(txn, key, false)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, (*keyvalue.NotFoundError)(key)
	}

	v := b.Get(k)
	if v == nil {
		return nil, (*keyvalue.NotFoundError)(key)
	}

	u := make([]byte, len(v))
	copy(u, v)
	return u, nil
}

func (d *Database) commit(entries map[record.KeyHash]memory.Entry) error {
	return d.bolt.Update(func(tx *bolt.Tx) error {
		for _, e := range entries {
			b, k, err := d.bucket(tx, e.Key, true)
			if err != nil {
				return err
			}

			if e.Delete {
				err = b.Delete(k)
			} else {
				err = b.Put(k, e.Value)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (d *Database) forEach(txn *bolt.Tx, fn func(*record.Key, []byte) error) error {
	return txn.ForEach(func(name []byte, b *bolt.Bucket) error {
		return b.ForEach(func(k, v []byte) error {
			key := new(record.Key)
			if err := key.UnmarshalBinary(k); err != nil {
				slog.Error("Cannot unmarshal database key", "bucket", string(name), "key", logging.AsHex(k), "error", err)
				return errors.InternalError.WithFormat("cannot unmarshal key: %w", err)
			}

			// Add bucket
			key = record.NewKey(string(name)).AppendKey(key)

			u := make([]byte, len(v))
			copy(u, v)
			return fn(key, u)
		})
	})
}

func (d *Database) Close() error {
	return d.bolt.Close()
}
