// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package ledger

import (
	"sync"

	"gitlab.com/accumulatenetwork/tokenledger/pkg/errors"
)

// Handle owns the process's ledger. Every read and write goes through a
// single critical section. The zero value is an uninitialized ledger.
type Handle struct {
	mu     sync.RWMutex
	ledger *Ledger
}

// Initialize creates a new ledger, discarding any existing state.
func (h *Handle) Initialize(p Params) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ledger = New(p)
}

// Restore replaces the ledger with one restored from the state.
func (h *Handle) Restore(s *State) error {
	l, err := FromState(s)
	if err != nil {
		return errors.UnknownError.Wrap(err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.ledger = l
	return nil
}

// Initialized returns true if the ledger has been initialized or restored.
func (h *Handle) Initialized() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ledger != nil
}

// View calls fn with the ledger under a read lock. The ledger is nil if it has
// not been initialized. fn must not modify the ledger or retain it.
func (h *Handle) View(fn func(*Ledger) error) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return fn(h.ledger)
}

// Update calls fn with the ledger under the write lock. The ledger is nil if
// it has not been initialized. fn must not retain it.
func (h *Handle) Update(fn func(*Ledger) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return fn(h.ledger)
}

func (h *Handle) BalanceOf(id AccountID) uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ledger.BalanceOf(id)
}

func (h *Handle) Transfer(from, to AccountID, amount uint64) error {
	return h.Update(func(l *Ledger) error {
		return l.Transfer(from, to, amount)
	})
}

// State exports the ledger.
func (h *Handle) State() (*State, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.ledger == nil {
		return nil, errors.NotInitialized.With("token ledger not initialized")
	}
	return h.ledger.State(), nil
}

// Hash returns the ledger's state commitment.
func (h *Handle) Hash() [32]byte {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ledger.Hash()
}
