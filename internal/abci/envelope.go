// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package abci

import (
	"bytes"
	"encoding/json"

	"gitlab.com/accumulatenetwork/tokenledger/internal/ledger"
	"gitlab.com/accumulatenetwork/tokenledger/pkg/errors"
)

// Transfer is the transaction submitted to the network to move tokens.
type Transfer struct {
	From   ledger.AccountID `json:"from"`
	To     ledger.AccountID `json:"to"`
	Amount uint64           `json:"amount"`
}

func (t *Transfer) MarshalBinary() ([]byte, error) {
	b, err := json.Marshal(t)
	if err != nil {
		return nil, errors.EncodingError.WithFormat("encode transfer: %w", err)
	}
	return b, nil
}

func (t *Transfer) UnmarshalBinary(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	err := dec.Decode(t)
	if err != nil {
		return errors.EncodingError.WithFormat("decode transfer: %w", err)
	}
	if dec.More() {
		return errors.EncodingError.With("decode transfer: trailing data")
	}
	return nil
}
