// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package ledger is a single fungible token ledger: a fixed supply credited to
// an owner at initialization and moved between accounts by transfers.
package ledger

import (
	"math/bits"
	"sort"

	"gitlab.com/accumulatenetwork/tokenledger/pkg/errors"
)

// AccountID names a balance holder. The ledger does not validate it.
type AccountID string

func (id AccountID) String() string { return string(id) }

// Account is a balance record, in the token's smallest unit.
type Account struct {
	Balance uint64
}

// CreditTokens adds amount to the balance. It returns false if the balance
// would overflow.
func (a *Account) CreditTokens(amount uint64) bool {
	v, carry := bits.Add64(a.Balance, amount, 0)
	if carry != 0 {
		return false
	}
	a.Balance = v
	return true
}

func (a *Account) CanDebitTokens(amount uint64) bool {
	return amount <= a.Balance
}

// DebitTokens subtracts amount from the balance. It returns false if the
// balance is insufficient.
func (a *Account) DebitTokens(amount uint64) bool {
	if !a.CanDebitTokens(amount) {
		return false
	}
	a.Balance -= amount
	return true
}

// Params are the parameters of a new ledger.
type Params struct {
	Owner       AccountID
	TotalSupply uint64
	Symbol      string
	Name        string

	// Decimals is a display hint. It does not affect arithmetic.
	Decimals uint8
}

// Metadata describes the token.
type Metadata struct {
	Owner       AccountID `json:"owner" yaml:"owner"`
	TotalSupply uint64    `json:"totalSupply" yaml:"totalSupply"`
	Symbol      string    `json:"symbol" yaml:"symbol"`
	Name        string    `json:"name" yaml:"name"`
	Decimals    uint8     `json:"decimals" yaml:"decimals"`
}

// Ledger is the token ledger. The sum of all balances always equals
// TotalSupply.
//
// A nil Ledger is an uninitialized ledger: every balance is zero and every
// transfer fails with [errors.NotInitialized].
type Ledger struct {
	TotalSupply uint64
	Owner       AccountID
	Symbol      string
	Name        string
	Decimals    uint8

	balances map[AccountID]*Account
}

// New creates a ledger and credits the entire supply to the owner.
func New(p Params) *Ledger {
	return &Ledger{
		TotalSupply: p.TotalSupply,
		Owner:       p.Owner,
		Symbol:      p.Symbol,
		Name:        p.Name,
		Decimals:    p.Decimals,
		balances: map[AccountID]*Account{
			p.Owner: {Balance: p.TotalSupply},
		},
	}
}

// Metadata returns the token's metadata.
func (l *Ledger) Metadata() Metadata {
	return Metadata{
		Owner:       l.Owner,
		TotalSupply: l.TotalSupply,
		Symbol:      l.Symbol,
		Name:        l.Name,
		Decimals:    l.Decimals,
	}
}

// BalanceOf returns the balance of the account, or zero if the account has no
// record or the ledger is not initialized.
func (l *Ledger) BalanceOf(id AccountID) uint64 {
	if l == nil {
		return 0
	}
	if a, ok := l.balances[id]; ok {
		return a.Balance
	}
	return 0
}

// Account returns the account's record and whether it exists. An account
// that has been credited zero tokens exists with a zero balance.
func (l *Ledger) Account(id AccountID) (Account, bool) {
	if l == nil {
		return Account{}, false
	}
	a, ok := l.balances[id]
	if !ok {
		return Account{}, false
	}
	return *a, true
}

// Accounts returns the IDs of every account with a record, sorted.
func (l *Ledger) Accounts() []AccountID {
	if l == nil {
		return nil
	}
	ids := make([]AccountID, 0, len(l.balances))
	for id := range l.balances {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// CheckTransfer checks whether [Ledger.Transfer] would succeed, without
// changing anything.
func (l *Ledger) CheckTransfer(from, to AccountID, amount uint64) error {
	if l == nil {
		return errors.NotInitialized.With("token ledger not initialized")
	}

	sender, ok := l.balances[from]
	if !ok {
		return errors.AccountNotFound.WithFormat("sender account %s not found", from)
	}

	if !sender.CanDebitTokens(amount) {
		return errors.InsufficientBalance.WithFormat("insufficient balance: %s has %d, need %d", from, sender.Balance, amount)
	}

	// Cannot happen while the supply is conserved
	if recipient, ok := l.balances[to]; ok && from != to {
		if _, carry := bits.Add64(recipient.Balance, amount, 0); carry != 0 {
			return errors.InternalError.WithFormat("balance of %s would overflow", to)
		}
	}
	return nil
}

// Transfer moves amount from one account to another. The recipient's record
// is created if it does not exist, even for a zero amount. Self-transfers are
// permitted and leave the balance unchanged.
func (l *Ledger) Transfer(from, to AccountID, amount uint64) error {
	err := l.CheckTransfer(from, to, amount)
	if err != nil {
		return err
	}

	l.balances[from].DebitTokens(amount)

	recipient, ok := l.balances[to]
	if !ok {
		recipient = new(Account)
		l.balances[to] = recipient
	}
	recipient.CreditTokens(amount)
	return nil
}
