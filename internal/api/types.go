// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package api

import "gitlab.com/accumulatenetwork/tokenledger/internal/ledger"

// TransferRequest is the body of POST /v1/transfer.
type TransferRequest struct {
	From   ledger.AccountID `json:"from" validate:"required"`
	To     ledger.AccountID `json:"to" validate:"required"`
	Amount uint64           `json:"amount"`
}

// Balance is the balance of an account.
type Balance struct {
	Account ledger.AccountID `json:"account"`
	Balance uint64           `json:"balance"`
}

// TransferResponse reports the balances after a transfer.
type TransferResponse struct {
	From Balance `json:"from"`
	To   Balance `json:"to"`
}

// Health is the body of GET /healthz.
type Health struct {
	Status      string `json:"status"`
	Initialized bool   `json:"initialized"`
	Consensus   bool   `json:"consensus"`
}
