// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package badger

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"gitlab.com/accumulatenetwork/tokenledger/pkg/database/keyvalue"
	"gitlab.com/accumulatenetwork/tokenledger/pkg/database/keyvalue/kvtest"
	"gitlab.com/accumulatenetwork/tokenledger/pkg/errors"
	"gitlab.com/accumulatenetwork/tokenledger/pkg/types/record"
)

func open(t testing.TB) kvtest.Opener {
	path := t.TempDir()
	return func() (keyvalue.Beginner, error) {
		return New(path)
	}
}

func TestSuite(t *testing.T) {
	kvtest.TestSuite(t, open)
}

func TestIsolation(t *testing.T) {
	kvtest.TestIsolation(t, open(t))
}

func TestCommitAfterClose(t *testing.T) {
	db, err := New(t.TempDir())
	require.NoError(t, err)

	batch := db.Begin(nil, true)
	defer batch.Discard()
	require.NoError(t, batch.Put(record.NewKey("foo"), []byte("bar")))

	require.NoError(t, db.Close())
	require.ErrorIs(t, batch.Commit(), errors.NotReady)
}

func TestMetrics(t *testing.T) {
	dbs, txns := testutil.ToFloat64(mDbOpen), testutil.ToFloat64(mTxnOpen)

	db, err := New(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, dbs+1, testutil.ToFloat64(mDbOpen))

	batch := db.Begin(record.NewKey("Token"), true)
	require.Equal(t, txns+1, testutil.ToFloat64(mTxnOpen))
	require.NoError(t, batch.Put(record.NewKey("Balance", "alice"), []byte{0, 0, 0, 0, 0, 0, 0, 1}))
	require.NoError(t, batch.Commit())
	require.Equal(t, txns, testutil.ToFloat64(mTxnOpen))

	require.NoError(t, db.Close())
	require.Equal(t, dbs, testutil.ToFloat64(mDbOpen))

	desc := mDbOpen.Desc().String()
	require.Contains(t, desc, `"tokenledger_storage_open_databases"`)
	require.Contains(t, desc, `driver="badger"`)
}

func BenchmarkCommit(b *testing.B) {
	kvtest.BenchmarkCommit(b, open(b))
}

func BenchmarkReadRandom(b *testing.B) {
	kvtest.BenchmarkReadRandom(b, open(b))
}
