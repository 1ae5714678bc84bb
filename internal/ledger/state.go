// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package ledger

import (
	"crypto/sha256"
	"encoding/binary"
	"math/bits"

	"gitlab.com/accumulatenetwork/tokenledger/pkg/errors"
)

// State is the serializable form of a [Ledger].
type State struct {
	Metadata `yaml:",inline"`
	Balances map[AccountID]uint64 `json:"balances" yaml:"balances"`
}

// State exports the ledger.
func (l *Ledger) State() *State {
	if l == nil {
		return nil
	}
	s := &State{
		Metadata: l.Metadata(),
		Balances: make(map[AccountID]uint64, len(l.balances)),
	}
	for id, a := range l.balances {
		s.Balances[id] = a.Balance
	}
	return s
}

// FromState restores a ledger. The balances must sum to the total supply.
func FromState(s *State) (*Ledger, error) {
	if s == nil {
		return nil, errors.BadRequest.With("missing ledger state")
	}

	var sum uint64
	l := &Ledger{
		TotalSupply: s.TotalSupply,
		Owner:       s.Owner,
		Symbol:      s.Symbol,
		Name:        s.Name,
		Decimals:    s.Decimals,
		balances:    make(map[AccountID]*Account, len(s.Balances)),
	}
	for id, balance := range s.Balances {
		var carry uint64
		sum, carry = bits.Add64(sum, balance, 0)
		if carry != 0 {
			return nil, errors.BadRequest.With("invalid ledger state: balances overflow")
		}
		l.balances[id] = &Account{Balance: balance}
	}

	if sum != s.TotalSupply {
		return nil, errors.Conflict.WithFormat("invalid ledger state: balances sum to %d, total supply is %d", sum, s.TotalSupply)
	}
	return l, nil
}

// Hash returns a commitment to the ledger's state. Equal states have equal
// hashes regardless of how they were reached. The hash of a nil ledger is
// zero.
func (l *Ledger) Hash() [32]byte {
	if l == nil {
		return [32]byte{}
	}

	h := sha256.New()
	var buf [binary.MaxVarintLen64]byte
	writeUint := func(v uint64) {
		h.Write(buf[:binary.PutUvarint(buf[:], v)])
	}
	writeString := func(s string) {
		writeUint(uint64(len(s)))
		h.Write([]byte(s))
	}

	writeString(string(l.Owner))
	writeString(l.Symbol)
	writeString(l.Name)
	writeUint(uint64(l.Decimals))
	writeUint(l.TotalSupply)

	ids := l.Accounts()
	writeUint(uint64(len(ids)))
	for _, id := range ids {
		writeString(string(id))
		writeUint(l.balances[id].Balance)
	}

	var hash [32]byte
	copy(hash[:], h.Sum(nil))
	return hash
}
