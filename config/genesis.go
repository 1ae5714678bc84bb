// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package config

import (
	"os"
	"path/filepath"

	"gitlab.com/accumulatenetwork/tokenledger/internal/ledger"
	"gitlab.com/accumulatenetwork/tokenledger/pkg/errors"
)

// Genesis holds the parameters the ledger is initialized with.
//
// The ledger accepts any account identifier as its owner, including the empty
// string. Requiring a non-empty Owner is a check on genesis documents only, so
// that a missing key in a hand-written file is caught before the supply is
// minted to an unnamed account. A total supply above [math.MaxInt64] cannot be
// saved as TOML; use YAML or JSON for it.
type Genesis struct {
	Owner       string `json:"owner" validate:"required"`
	TotalSupply uint64 `json:"totalSupply"`
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	Decimals    uint8  `json:"decimals"`
}

// LoadGenesis reads a genesis document. The format is chosen by the file's
// extension.
func LoadGenesis(file string) (*Genesis, error) {
	abs, err := filepath.Abs(file)
	if err != nil {
		return nil, errors.BadRequest.WithFormat("resolve %s: %w", file, err)
	}

	g := new(Genesis)
	err = readFile(os.DirFS(filepath.Dir(abs)), filepath.Base(abs), g)
	if err != nil {
		return nil, err
	}

	err = g.Validate()
	if err != nil {
		return nil, err
	}
	return g, nil
}

// ParseGenesis decodes a JSON genesis document.
func ParseGenesis(b []byte) (*Genesis, error) {
	g := new(Genesis)
	err := unmarshal(b, jsonUnmarshal, g)
	if err != nil {
		return nil, errors.BadRequest.WithFormat("decode genesis: %w", err)
	}

	err = g.Validate()
	if err != nil {
		return nil, err
	}
	return g, nil
}

// Save writes the genesis document.
func (g *Genesis) Save(file string) error {
	return writeFile(file, g)
}

// JSON encodes the genesis document with kebab-case keys.
func (g *Genesis) JSON() ([]byte, error) {
	b, err := marshal(g, jsonMarshal)
	if err != nil {
		return nil, errors.EncodingError.WithFormat("encode genesis: %w", err)
	}
	return b, nil
}

func (g *Genesis) Validate() error {
	err := validate.Struct(g)
	if err != nil {
		return errors.BadRequest.WithFormat("invalid genesis: %w", err)
	}
	return nil
}

// Params returns the ledger's initialization parameters.
func (g *Genesis) Params() ledger.Params {
	return ledger.Params{
		Owner:       ledger.AccountID(g.Owner),
		TotalSupply: g.TotalSupply,
		Symbol:      g.Symbol,
		Name:        g.Name,
		Decimals:    g.Decimals,
	}
}
