// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package keyvalue

import (
	"gitlab.com/accumulatenetwork/tokenledger/pkg/errors"
	"gitlab.com/accumulatenetwork/tokenledger/pkg/types/record"
)

// A Beginner can begin key-value change sets.
type Beginner interface {
	// Begin begins a change set. Keys passed to the change set are relative
	// to prefix. A change set that is not writable rejects Put and Delete.
	Begin(prefix *record.Key, writable bool) ChangeSet
}

// ChangeSet buffers changes until they are committed.
type ChangeSet interface {
	Store
	Beginner

	// Commit applies the pending changes. A change set cannot be used after
	// it is committed.
	Commit() error

	// Discard drops the pending changes. Discard is a no-op after Commit.
	Discard()
}

// View calls fn with a read-only change set.
func View(db Beginner, prefix *record.Key, fn func(Store) error) error {
	batch := db.Begin(prefix, false)
	defer batch.Discard()
	return fn(batch)
}

// Update calls fn with a writable change set and commits it if fn succeeds.
// Nothing is written if fn fails.
func Update(db Beginner, prefix *record.Key, fn func(ChangeSet) error) error {
	batch := db.Begin(prefix, true)
	defer batch.Discard()

	err := fn(batch)
	if err != nil {
		return err
	}

	err = batch.Commit()
	if err != nil {
		return errors.UnknownError.WithFormat("commit: %w", err)
	}
	return nil
}
