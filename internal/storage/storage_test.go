// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package storage_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gitlab.com/accumulatenetwork/tokenledger/internal/ledger"
	. "gitlab.com/accumulatenetwork/tokenledger/internal/storage"
	"gitlab.com/accumulatenetwork/tokenledger/pkg/errors"
)

func testLedger(t *testing.T) *ledger.Ledger {
	l := ledger.New(ledger.Params{Owner: "alice", TotalSupply: 1000, Symbol: "TKN", Name: "Token", Decimals: 2})
	require.NoError(t, l.Transfer("alice", "bob", 300))
	require.NoError(t, l.Transfer("alice", "carol", 0))
	return l
}

func TestDrivers(t *testing.T) {
	for _, typ := range Types {
		t.Run(string(typ), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "ledger.db")
			db, err := Open(typ, path)
			require.NoError(t, err)
			store := New(db)

			_, err = store.Load()
			require.ErrorIs(t, err, errors.NotFound)
			_, err = store.LastCommit()
			require.ErrorIs(t, err, errors.NotFound)

			l := testLedger(t)
			require.NoError(t, store.Save(l.State()))
			require.NoError(t, store.SetCommit(&Commit{Height: 3, AppHash: []byte{1, 2, 3}}))

			if typ == Memory {
				// Nothing to reopen
				s, err := store.Load()
				require.NoError(t, err)
				require.Equal(t, l.State(), s)
				return
			}

			require.NoError(t, Close(db))
			db, err = Open(typ, path)
			require.NoError(t, err)
			defer func() { require.NoError(t, Close(db)) }()
			store = New(db)

			s, err := store.Load()
			require.NoError(t, err)
			require.Equal(t, l.State(), s)

			c, err := store.LastCommit()
			require.NoError(t, err)
			require.Equal(t, &Commit{Height: 3, AppHash: []byte{1, 2, 3}}, c)
		})
	}
}

func TestSaveAccounts(t *testing.T) {
	db, err := Open(Memory, "")
	require.NoError(t, err)
	store := New(db)

	l := testLedger(t)
	require.NoError(t, store.Save(l.State()))

	require.NoError(t, l.Transfer("bob", "dave", 100))
	require.NoError(t, store.SaveAccounts(l, "bob", "dave"))

	s, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, l.State(), s)

	restored, err := ledger.FromState(s)
	require.NoError(t, err)
	require.Equal(t, l.Hash(), restored.Hash())
}

func TestSaveReplaces(t *testing.T) {
	db, err := Open(Memory, "")
	require.NoError(t, err)
	store := New(db)

	require.NoError(t, store.Save(testLedger(t).State()))
	require.NoError(t, store.SetCommit(&Commit{Height: 1}))

	// Re-initializing discards the old accounts
	l := ledger.New(ledger.Params{Owner: "zed", TotalSupply: 5})
	require.NoError(t, store.Save(l.State()))

	s, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, map[ledger.AccountID]uint64{"zed": 5}, s.Balances)

	_, err = store.LastCommit()
	require.NoError(t, err)
}

func TestReset(t *testing.T) {
	db, err := Open(Memory, "")
	require.NoError(t, err)
	store := New(db)

	require.NoError(t, store.Save(testLedger(t).State()))
	require.NoError(t, store.SetCommit(&Commit{Height: 1}))
	require.NoError(t, store.Reset())

	_, err = store.Load()
	require.ErrorIs(t, err, errors.NotFound)
	_, err = store.LastCommit()
	require.ErrorIs(t, err, errors.NotFound)
}

func TestUnsupportedType(t *testing.T) {
	_, err := Open("mongo", "")
	require.ErrorIs(t, err, errors.BadRequest)
}
