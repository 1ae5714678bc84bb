// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package storage persists the token ledger in a key-value store.
//
// Layout:
//
//	Token.Metadata        JSON token metadata
//	Token.Balance.<id>    8-byte big-endian balance
//	Token.Commit          JSON commit record
package storage

import (
	"encoding/binary"
	"encoding/json"
	"log/slog"

	"gitlab.com/accumulatenetwork/tokenledger/internal/ledger"
	"gitlab.com/accumulatenetwork/tokenledger/pkg/database/keyvalue"
	"gitlab.com/accumulatenetwork/tokenledger/pkg/errors"
	"gitlab.com/accumulatenetwork/tokenledger/pkg/types/record"
)

var (
	keyToken    = record.NewKey("Token")
	keyMetadata = record.NewKey("Metadata")
	keyBalance  = record.NewKey("Balance")
	keyCommit   = record.NewKey("Commit")
)

// Commit records the last block committed to the ledger.
type Commit struct {
	Height  int64  `json:"height"`
	AppHash []byte `json:"appHash"`
}

// Store reads and writes ledger state.
type Store struct {
	db keyvalue.Beginner
}

func New(db keyvalue.Beginner) *Store {
	return &Store{db: db}
}

// Load loads the persisted ledger state. Load returns [errors.NotFound] if no
// ledger has been saved.
func (s *Store) Load() (*ledger.State, error) {
	state := new(ledger.State)
	err := keyvalue.View(s.db, keyToken, func(batch keyvalue.Store) error {
		b, err := batch.Get(keyMetadata)
		if err != nil {
			return errors.UnknownError.WithFormat("load token metadata: %w", err)
		}

		err = json.Unmarshal(b, &state.Metadata)
		if err != nil {
			return errors.EncodingError.WithFormat("decode token metadata: %w", err)
		}

		state.Balances = map[ledger.AccountID]uint64{}
		err = forEachBalance(batch, func(id ledger.AccountID, value []byte) error {
			if len(value) != 8 {
				return errors.EncodingError.WithFormat("invalid balance for %s: want 8 bytes, got %d", id, len(value))
			}
			state.Balances[id] = binary.BigEndian.Uint64(value)
			return nil
		})
		if err != nil {
			return errors.UnknownError.WithFormat("load balances: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Debug("Loaded ledger", "accounts", len(state.Balances), "module", "storage")
	return state, nil
}

// Save replaces whatever was persisted with the given state. The commit record
// is kept.
func (s *Store) Save(state *ledger.State) error {
	return keyvalue.Update(s.db, keyToken, func(batch keyvalue.ChangeSet) error {
		// Delete balances that are not part of the new state
		var stale []ledger.AccountID
		err := forEachBalance(batch, func(id ledger.AccountID, _ []byte) error {
			if _, ok := state.Balances[id]; !ok {
				stale = append(stale, id)
			}
			return nil
		})
		if err != nil {
			return errors.UnknownError.WithFormat("load balances: %w", err)
		}
		for _, id := range stale {
			err = batch.Delete(keyBalance.Append(id))
			if err != nil {
				return errors.UnknownError.WithFormat("delete balance of %s: %w", id, err)
			}
		}

		b, err := json.Marshal(state.Metadata)
		if err != nil {
			return errors.EncodingError.WithFormat("encode token metadata: %w", err)
		}
		err = batch.Put(keyMetadata, b)
		if err != nil {
			return errors.UnknownError.WithFormat("store token metadata: %w", err)
		}

		for id, balance := range state.Balances {
			err = putBalance(batch, id, balance)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveAccounts writes the records of the given accounts. Accounts without a
// record are deleted.
func (s *Store) SaveAccounts(l *ledger.Ledger, ids ...ledger.AccountID) error {
	if len(ids) == 0 {
		return nil
	}

	return keyvalue.Update(s.db, keyToken, func(batch keyvalue.ChangeSet) error {
		for _, id := range ids {
			a, ok := l.Account(id)
			if ok {
				err := putBalance(batch, id, a.Balance)
				if err != nil {
					return err
				}
				continue
			}

			err := batch.Delete(keyBalance.Append(id))
			if err != nil {
				return errors.UnknownError.WithFormat("delete balance of %s: %w", id, err)
			}
		}
		return nil
	})
}

// LastCommit returns the commit record. LastCommit returns
// [errors.NotFound] if nothing has been committed.
func (s *Store) LastCommit() (*Commit, error) {
	c := new(Commit)
	err := keyvalue.View(s.db, keyToken, func(batch keyvalue.Store) error {
		b, err := batch.Get(keyCommit)
		if err != nil {
			return errors.UnknownError.WithFormat("load commit: %w", err)
		}

		err = json.Unmarshal(b, c)
		if err != nil {
			return errors.EncodingError.WithFormat("decode commit: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// SetCommit writes the commit record.
func (s *Store) SetCommit(c *Commit) error {
	b, err := json.Marshal(c)
	if err != nil {
		return errors.EncodingError.WithFormat("encode commit: %w", err)
	}

	return keyvalue.Update(s.db, keyToken, func(batch keyvalue.ChangeSet) error {
		err := batch.Put(keyCommit, b)
		if err != nil {
			return errors.UnknownError.WithFormat("store commit: %w", err)
		}
		return nil
	})
}

// Reset deletes everything that has been persisted.
func (s *Store) Reset() error {
	var keys []*record.Key
	err := keyvalue.Update(s.db, keyToken, func(batch keyvalue.ChangeSet) error {
		err := batch.ForEach(func(key *record.Key, _ []byte) error {
			keys = append(keys, key)
			return nil
		})
		if err != nil {
			return errors.UnknownError.WithFormat("load keys: %w", err)
		}

		for _, key := range keys {
			err = batch.Delete(key)
			if err != nil {
				return errors.UnknownError.WithFormat("delete %v: %w", key, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("Reset ledger storage", "keys", len(keys), "module", "storage")
	return nil
}

// forEachBalance calls fn for each persisted balance record.
func forEachBalance(batch keyvalue.Store, fn func(ledger.AccountID, []byte) error) error {
	return batch.ForEach(func(key *record.Key, value []byte) error {
		if key.Len() != 2 || !key.HasPrefix(keyBalance) {
			return nil
		}

		id, ok := key.Get(1).(string)
		if !ok {
			return errors.EncodingError.WithFormat("invalid balance key %v", key)
		}
		return fn(ledger.AccountID(id), value)
	})
}

func putBalance(batch keyvalue.ChangeSet, id ledger.AccountID, balance uint64) error {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], balance)
	err := batch.Put(keyBalance.Append(id), b[:])
	if err != nil {
		return errors.UnknownError.WithFormat("store balance of %s: %w", id, err)
	}
	return nil
}
