// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package memory

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gitlab.com/accumulatenetwork/tokenledger/pkg/database/keyvalue"
	"gitlab.com/accumulatenetwork/tokenledger/pkg/database/keyvalue/kvtest"
	"gitlab.com/accumulatenetwork/tokenledger/pkg/errors"
	"gitlab.com/accumulatenetwork/tokenledger/pkg/types/record"
)

func open(testing.TB) kvtest.Opener {
	// Reuse the same in-memory database each time
	db := New(nil)
	return func() (keyvalue.Beginner, error) { return db, nil }
}

func TestSuite(t *testing.T) {
	kvtest.TestSuite(t, open)
}

func TestCommitTwice(t *testing.T) {
	db := New(nil)
	batch := db.Begin(nil, true)
	require.NoError(t, batch.Put(record.NewKey("foo"), []byte("bar")))
	require.NoError(t, batch.Commit())
	require.ErrorIs(t, batch.Commit(), errors.NotAllowed)
	require.ErrorIs(t, batch.Put(record.NewKey("foo"), []byte("baz")), errors.NotAllowed)
}

func TestExportImport(t *testing.T) {
	db := New(nil)
	batch := db.Begin(nil, true)
	require.NoError(t, batch.Put(record.NewKey("foo", 1), []byte("bar")))
	require.NoError(t, batch.Commit())

	entries, err := db.Export()
	require.NoError(t, err)
	require.Len(t, entries, 1)

	db2 := New(nil)
	require.NoError(t, db2.Import(entries))
	batch = db2.Begin(nil, false)
	defer batch.Discard()
	v, err := batch.Get(record.NewKey("foo", 1))
	require.NoError(t, err)
	require.Equal(t, "bar", string(v))
}

func TestUpdateAndView(t *testing.T) {
	db := New(nil)
	prefix := record.NewKey("Token")

	// A failed update writes nothing
	err := keyvalue.Update(db, prefix, func(batch keyvalue.ChangeSet) error {
		require.NoError(t, batch.Put(record.NewKey("Balance", "alice"), []byte{1}))
		return errors.InsufficientBalance.With("nope")
	})
	require.ErrorIs(t, err, errors.InsufficientBalance)

	err = keyvalue.View(db, prefix, func(batch keyvalue.Store) error {
		_, err := batch.Get(record.NewKey("Balance", "alice"))
		return err
	})
	require.ErrorIs(t, err, errors.NotFound)

	require.NoError(t, keyvalue.Update(db, prefix, func(batch keyvalue.ChangeSet) error {
		return batch.Put(record.NewKey("Balance", "alice"), []byte{2})
	}))

	var v []byte
	require.NoError(t, keyvalue.View(db, nil, func(batch keyvalue.Store) error {
		var err error
		v, err = batch.Get(record.NewKey("Token", "Balance", "alice"))
		return err
	}))
	require.Equal(t, []byte{2}, v)

	// View is read-only
	err = keyvalue.View(db, prefix, func(batch keyvalue.Store) error {
		return batch.Put(record.NewKey("Balance", "bob"), []byte{3})
	})
	require.ErrorIs(t, err, errors.NotAllowed)
}

func BenchmarkCommit(b *testing.B) {
	kvtest.BenchmarkCommit(b, open(b))
}

func BenchmarkReadRandom(b *testing.B) {
	kvtest.BenchmarkReadRandom(b, open(b))
}
