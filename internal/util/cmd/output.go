// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package cmdutil

import (
	"encoding/json"
	"io"
	"math/big"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"
)

// PrintJSON writes v as indented JSON.
func PrintJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// FormatAmount formats a raw token amount with the given number of decimal
// places and thousands separators, e.g. 123456789 with 2 decimals is
// "1,234,567.89". Trailing zeros in the fraction are dropped.
func FormatAmount(amount uint64, decimals uint8) string {
	d := decimal.NewFromBigInt(new(big.Int).SetUint64(amount), -int32(decimals))
	whole, frac, _ := strings.Cut(d.String(), ".")

	w, _ := new(big.Int).SetString(whole, 10)
	s := humanize.BigComma(w)
	if frac == "" {
		return s
	}
	return s + "." + frac
}

// Table writes rows as a table with the given header.
func Table(w io.Writer, header []string, rows [][]string) {
	t := tablewriter.NewWriter(w)
	t.SetHeader(header)
	t.SetBorder(false)
	t.SetAutoWrapText(false)
	t.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	t.SetAlignment(tablewriter.ALIGN_LEFT)
	t.AppendBulk(rows)
	t.Render()
}
