// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	. "gitlab.com/accumulatenetwork/tokenledger/internal/api"
	"gitlab.com/accumulatenetwork/tokenledger/internal/ledger"
	"gitlab.com/accumulatenetwork/tokenledger/pkg/errors"
)

func newClient(t *testing.T, init bool) *Client {
	h, _, _ := newHandler(t, init)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(strings.TrimPrefix(srv.URL, "http://"))
}

func TestClient(t *testing.T) {
	c := newClient(t, true)
	ctx := context.Background()

	md, err := c.Token(ctx)
	require.NoError(t, err)
	require.Equal(t, "TKN", md.Symbol)
	require.Equal(t, uint64(1000), md.TotalSupply)

	res, err := c.Transfer(ctx, &TransferRequest{From: "alice", To: "bob", Amount: 250})
	require.NoError(t, err)
	require.Equal(t, uint64(750), res.From.Balance)
	require.Equal(t, uint64(250), res.To.Balance)

	bal, err := c.Balance(ctx, "bob")
	require.NoError(t, err)
	require.Equal(t, uint64(250), bal.Balance)

	s, err := c.State(ctx)
	require.NoError(t, err)
	require.Equal(t, map[ledger.AccountID]uint64{"alice": 750, "bob": 250}, s.Balances)

	health, err := c.Health(ctx)
	require.NoError(t, err)
	require.True(t, health.Initialized)
}

func TestClientErrors(t *testing.T) {
	c := newClient(t, true)
	ctx := context.Background()

	_, err := c.Transfer(ctx, &TransferRequest{From: "bob", To: "alice", Amount: 1})
	require.ErrorIs(t, err, errors.AccountNotFound)
	require.NotErrorIs(t, err, errors.NotFound)
	require.EqualError(t, err, "sender account bob not found")

	_, err = c.Transfer(ctx, &TransferRequest{From: "alice", To: "bob", Amount: 5000})
	require.ErrorIs(t, err, errors.InsufficientBalance)

	c = newClient(t, false)
	_, err = c.Token(ctx)
	require.ErrorIs(t, err, errors.NotInitialized)
}

func TestClientNonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway down", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	_, err := NewClient(srv.URL).Health(context.Background())
	require.Error(t, err)
	require.Equal(t, errors.Status(http.StatusBadGateway), errors.Code(err))
}
