// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	. "gitlab.com/accumulatenetwork/tokenledger/internal/api"
	"gitlab.com/accumulatenetwork/tokenledger/internal/ledger"
	"gitlab.com/accumulatenetwork/tokenledger/internal/logging"
	"gitlab.com/accumulatenetwork/tokenledger/internal/storage"
	"gitlab.com/accumulatenetwork/tokenledger/pkg/database/keyvalue/memory"
	"gitlab.com/accumulatenetwork/tokenledger/pkg/errors"
)

func newHandler(t *testing.T, init bool) (http.Handler, *ledger.Handle, *storage.Store) {
	h := new(ledger.Handle)
	if init {
		h.Initialize(ledger.Params{Owner: "alice", TotalSupply: 1000, Symbol: "TKN", Name: "Token", Decimals: 2})
	}
	store := storage.New(memory.New(nil))
	return NewHandler(Options{
		Ledger:      h,
		Store:       store,
		CorsOrigins: []string{"*"},
		Logger:      logging.NewTestLogger(t),
	}), h, store
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) *errors.Error {
	t.Helper()
	e := new(errors.Error)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), e))
	return e
}

func TestGetToken(t *testing.T) {
	h, _, _ := newHandler(t, true)
	w := do(t, h, "GET", "/v1/token", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "application/json", w.Header().Get("Content-Type"))
	require.NotEmpty(t, w.Header().Get("X-Request-Id"))

	var md ledger.Metadata
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &md))
	require.Equal(t, ledger.Metadata{Owner: "alice", TotalSupply: 1000, Symbol: "TKN", Name: "Token", Decimals: 2}, md)
}

func TestNotInitialized(t *testing.T) {
	h, _, _ := newHandler(t, false)

	w := do(t, h, "GET", "/v1/token", "")
	require.Equal(t, int(errors.NotInitialized), w.Code)
	require.Equal(t, errors.NotInitialized, decodeError(t, w).Code)

	w = do(t, h, "GET", "/v1/state", "")
	require.Equal(t, int(errors.NotInitialized), w.Code)

	w = do(t, h, "POST", "/v1/transfer", `{"from":"alice","to":"bob","amount":1}`)
	require.Equal(t, int(errors.NotInitialized), w.Code)

	// Balances of an uninitialized ledger are zero
	w = do(t, h, "GET", "/v1/accounts/alice/balance", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"account":"alice","balance":0}`, w.Body.String())

	w = do(t, h, "GET", "/healthz", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status":"ok","initialized":false,"consensus":false}`, w.Body.String())
}

func TestTransfer(t *testing.T) {
	h, l, store := newHandler(t, true)
	s, err := l.State()
	require.NoError(t, err)
	require.NoError(t, store.Save(s))

	w := do(t, h, "POST", "/v1/transfer", `{"from":"alice","to":"bob","amount":300}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.JSONEq(t, `{"from":{"account":"alice","balance":700},"to":{"account":"bob","balance":300}}`, w.Body.String())

	require.Equal(t, uint64(700), l.BalanceOf("alice"))
	require.Equal(t, uint64(300), l.BalanceOf("bob"))

	w = do(t, h, "GET", "/v1/accounts/bob/balance", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"account":"bob","balance":300}`, w.Body.String())

	// The touched accounts are persisted
	loaded, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, map[ledger.AccountID]uint64{"alice": 700, "bob": 300}, loaded.Balances)
}

func TestTransferErrors(t *testing.T) {
	h, l, _ := newHandler(t, true)

	cases := []struct {
		Name   string
		Body   string
		Status errors.Status
	}{
		{"UnknownSender", `{"from":"bob","to":"alice","amount":1}`, errors.AccountNotFound},
		{"InsufficientBalance", `{"from":"alice","to":"bob","amount":1001}`, errors.InsufficientBalance},
		{"MissingFrom", `{"to":"bob","amount":1}`, errors.BadRequest},
		{"UnknownField", `{"from":"alice","to":"bob","amount":1,"memo":"x"}`, errors.BadRequest},
		{"Malformed", `{"from":`, errors.BadRequest},
		{"NegativeAmount", `{"from":"alice","to":"bob","amount":-1}`, errors.BadRequest},
	}
	for _, c := range cases {
		t.Run(c.Name, func(t *testing.T) {
			w := do(t, h, "POST", "/v1/transfer", c.Body)
			require.Equal(t, int(c.Status), w.Code, w.Body.String())
			require.Equal(t, c.Status, decodeError(t, w).Code)
		})
	}

	w := do(t, h, "POST", "/v1/transfer", `{"from":"alice","to":"bob","amount":1001}`)
	require.Equal(t, "insufficient balance: alice has 1000, need 1001", decodeError(t, w).Message)

	// Nothing changed
	require.Equal(t, uint64(1000), l.BalanceOf("alice"))
	require.Equal(t, uint64(0), l.BalanceOf("bob"))
}

func TestConsensusRejectsTransfer(t *testing.T) {
	l := new(ledger.Handle)
	l.Initialize(ledger.Params{Owner: "alice", TotalSupply: 1000})
	h := NewHandler(Options{Ledger: l, Consensus: true, Logger: logging.NewTestLogger(t)})

	w := do(t, h, "POST", "/v1/transfer", `{"from":"alice","to":"bob","amount":1}`)
	require.Equal(t, http.StatusMethodNotAllowed, w.Code)
	require.Equal(t, errors.NotAllowed, decodeError(t, w).Code)
	require.Equal(t, uint64(1000), l.BalanceOf("alice"))

	w = do(t, h, "GET", "/healthz", "")
	require.JSONEq(t, `{"status":"ok","initialized":true,"consensus":true}`, w.Body.String())
}

func TestRouting(t *testing.T) {
	h, _, _ := newHandler(t, true)

	w := do(t, h, "GET", "/v1/nope", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, errors.NotFound, decodeError(t, w).Code)

	w = do(t, h, "DELETE", "/v1/token", "")
	require.Equal(t, http.StatusMethodNotAllowed, w.Code)
	require.Equal(t, errors.NotAllowed, decodeError(t, w).Code)
}

func TestState(t *testing.T) {
	h, l, _ := newHandler(t, true)
	require.NoError(t, l.Transfer("alice", "bob", 10))

	w := do(t, h, "GET", "/v1/state", "")
	require.Equal(t, http.StatusOK, w.Code)

	var s ledger.State
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &s))
	require.Equal(t, map[ledger.AccountID]uint64{"alice": 990, "bob": 10}, s.Balances)
	require.Equal(t, "TKN", s.Symbol)
}

func TestCORS(t *testing.T) {
	h, _, _ := newHandler(t, true)
	req := httptest.NewRequest("GET", "/v1/token", nil)
	req.Header.Set("Origin", "https://example.com")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestStatusOf(t *testing.T) {
	require.Equal(t, http.StatusNotFound, StatusOf(errors.NotFound.With("x")))
	require.Equal(t, http.StatusInternalServerError, StatusOf(errors.OK))
	require.Equal(t, http.StatusInternalServerError, StatusOf(errors.Status(42)))
	require.Equal(t, int(errors.UnknownError), StatusOf(errors.UnknownError.With("x")))
}
