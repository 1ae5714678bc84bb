// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package ledger_test

import (
	"encoding/json"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	. "gitlab.com/accumulatenetwork/tokenledger/internal/ledger"
	"gitlab.com/accumulatenetwork/tokenledger/pkg/errors"
	"gopkg.in/yaml.v3"
)

func TestStateRoundTrip(t *testing.T) {
	l := newLedger(1000)
	require.NoError(t, l.Transfer("alice", "bob", 250))
	require.NoError(t, l.Transfer("alice", "carol", 0))

	m, err := FromState(l.State())
	require.NoError(t, err)
	require.Equal(t, l.State(), m.State())
	require.Equal(t, l.Hash(), m.Hash())

	// The zero record survives
	_, ok := m.Account("carol")
	require.True(t, ok)
}

func TestStateEncoding(t *testing.T) {
	l := newLedger(1000)
	require.NoError(t, l.Transfer("alice", "bob", 250))

	b, err := json.Marshal(l.State())
	require.NoError(t, err)
	require.JSONEq(t, `{"owner":"alice","totalSupply":1000,"symbol":"TKN","name":"Token","decimals":8,"balances":{"alice":750,"bob":250}}`, string(b))

	b, err = yaml.Marshal(l.State())
	require.NoError(t, err)
	s := new(State)
	require.NoError(t, yaml.Unmarshal(b, s))
	require.Equal(t, l.State(), s)
}

func TestFromStateInvalid(t *testing.T) {
	_, err := FromState(nil)
	require.ErrorIs(t, err, errors.BadRequest)

	_, err = FromState(&State{
		Metadata: Metadata{Owner: "alice", TotalSupply: 10},
		Balances: map[AccountID]uint64{"alice": 9},
	})
	require.ErrorIs(t, err, errors.Conflict)

	_, err = FromState(&State{
		Metadata: Metadata{Owner: "alice", TotalSupply: 10},
		Balances: map[AccountID]uint64{"alice": math.MaxUint64, "bob": 11},
	})
	require.ErrorIs(t, err, errors.BadRequest)
}

func TestHash(t *testing.T) {
	a := newLedger(1000)
	b := newLedger(1000)
	require.Equal(t, a.Hash(), b.Hash())

	// Different paths to the same state hash the same
	require.NoError(t, a.Transfer("alice", "bob", 100))
	require.NoError(t, a.Transfer("alice", "bob", 100))
	require.NoError(t, b.Transfer("alice", "bob", 200))
	require.Equal(t, a.Hash(), b.Hash())

	// A zero record changes the hash
	require.NoError(t, b.Transfer("alice", "carol", 0))
	require.NotEqual(t, a.Hash(), b.Hash())
}

func TestHandleRestore(t *testing.T) {
	var h Handle
	err := h.Restore(&State{Metadata: Metadata{TotalSupply: 1}})
	require.ErrorIs(t, err, errors.Conflict)
	require.False(t, h.Initialized())

	require.NoError(t, h.Restore(newLedger(1000).State()))
	require.True(t, h.Initialized())
	require.Equal(t, uint64(1000), h.BalanceOf("alice"))
	require.Equal(t, newLedger(1000).Hash(), h.Hash())
}

func TestHandleConcurrent(t *testing.T) {
	var h Handle
	h.Initialize(Params{Owner: "alice", TotalSupply: 1000})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = h.Transfer("alice", "bob", 1)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = h.Transfer("bob", "alice", 1)
			}
		}()
	}
	wg.Wait()

	require.NoError(t, h.View(func(l *Ledger) error {
		require.Equal(t, uint64(1000), l.BalanceOf("alice")+l.BalanceOf("bob"))
		return nil
	}))
}
