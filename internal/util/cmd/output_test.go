// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package cmdutil

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		Amount   uint64
		Decimals uint8
		Expect   string
	}{
		{0, 0, "0"},
		{1234567, 0, "1,234,567"},
		{123456789, 2, "1,234,567.89"},
		{100, 2, "1"},
		{150, 2, "1.5"},
		{5, 3, "0.005"},
		{0, 8, "0"},
		{math.MaxUint64, 0, "18,446,744,073,709,551,615"},
		{math.MaxUint64, 18, "18.446744073709551615"},
		{1, 20, "0.00000000000000000001"},
	}
	for _, c := range cases {
		require.Equal(t, c.Expect, FormatAmount(c.Amount, c.Decimals), "%d with %d decimals", c.Amount, c.Decimals)
	}
}

func TestTable(t *testing.T) {
	buf := new(bytes.Buffer)
	Table(buf, []string{"Account", "Balance"}, [][]string{{"alice", "700"}, {"bob", "300"}})
	require.Contains(t, buf.String(), "ACCOUNT")
	require.Contains(t, buf.String(), "alice")
	require.Contains(t, buf.String(), "300")
}

func TestPrintJSON(t *testing.T) {
	buf := new(bytes.Buffer)
	require.NoError(t, PrintJSON(buf, map[string]int{"a": 1}))
	require.Equal(t, "{\n  \"a\": 1\n}\n", buf.String())
}
