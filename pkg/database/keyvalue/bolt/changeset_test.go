// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package bolt

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gitlab.com/accumulatenetwork/tokenledger/pkg/database/keyvalue"
	"gitlab.com/accumulatenetwork/tokenledger/pkg/database/keyvalue/kvtest"
	"gitlab.com/accumulatenetwork/tokenledger/pkg/types/record"
)

func open(t testing.TB) kvtest.Opener {
	dir := t.TempDir()
	return func() (keyvalue.Beginner, error) {
		return Open(filepath.Join(dir, "bolt.db"))
	}
}

func TestSuite(t *testing.T) {
	kvtest.TestSuite(t, open)
}

func TestIsolation(t *testing.T) {
	t.Skip("Deadlocks due to database locks")
	kvtest.TestIsolation(t, open(t))
}

func TestBucketKey(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "bolt.db"))
	require.NoError(t, err)
	defer db.Close()

	batch := db.Begin(nil, true)
	defer batch.Discard()
	require.NoError(t, batch.Put(record.NewKey(1, "foo"), []byte("bar")))
	require.Error(t, batch.Commit(), "the first key part must name a bucket")
}

func BenchmarkCommit(b *testing.B) {
	kvtest.BenchmarkCommit(b, open(b))
}
