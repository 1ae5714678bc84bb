// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package kvtest

import (
	"encoding/binary"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"gitlab.com/accumulatenetwork/tokenledger/pkg/types/record"
)

// The benchmarks use the shape of a ledger's balance records: one key per
// account holding an 8-byte balance.

func balanceKey(i int) *record.Key {
	return record.NewKey("Token", "Balance", fmt.Sprintf("acct%d", i))
}

func balanceValue(i int) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(i))
	return b[:]
}

// BenchmarkCommit measures committing b.N balance updates in one change set.
func BenchmarkCommit(b *testing.B, open Opener) {
	db := openDb(b, open)

	batch := db.Begin(nil, true)
	defer batch.Discard()

	for i := 0; i < b.N; i++ {
		require.NoError(b, batch.Put(balanceKey(i), balanceValue(i)), "Put")
	}

	b.ResetTimer()
	require.NoError(b, batch.Commit())
}

// BenchmarkReadRandom measures balance lookups across a populated store.
func BenchmarkReadRandom(b *testing.B, open Opener) {
	const accounts = 100000

	db := openDb(b, open)

	batch := db.Begin(nil, true)
	defer batch.Discard()

	for i := 0; i < accounts; i++ {
		require.NoError(b, batch.Put(balanceKey(i), balanceValue(i)), "Put")
	}
	require.NoError(b, batch.Commit())

	r := rand.New(rand.NewSource(0))
	lookups := make([]int, b.N)
	for i := range lookups {
		lookups[i] = r.Intn(accounts)
	}

	batch = db.Begin(nil, false)
	defer batch.Discard()

	b.ResetTimer()
	for _, i := range lookups {
		v, err := batch.Get(balanceKey(i))
		if err != nil {
			b.Fatal(err)
		}
		if binary.BigEndian.Uint64(v) != uint64(i) {
			b.Fatalf("balance of acct%d: got %d", i, binary.BigEndian.Uint64(v))
		}
	}
}
