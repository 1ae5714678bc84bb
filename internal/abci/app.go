// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package abci hosts the token ledger as a CometBFT application.
//
// # Transaction Processing
//
// CometBFT processes transactions in the following phases:
//
//   - [App.CheckTx] admits a transfer to the mempool if it would succeed now
//   - [App.FinalizeBlock] applies each transfer of a decided block
//   - [App.Commit] persists the accounts the block touched
package abci

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"sync"

	abci "github.com/cometbft/cometbft/abci/types"
	"gitlab.com/accumulatenetwork/tokenledger"
	"gitlab.com/accumulatenetwork/tokenledger/config"
	"gitlab.com/accumulatenetwork/tokenledger/internal/ledger"
	"gitlab.com/accumulatenetwork/tokenledger/internal/logging"
	"gitlab.com/accumulatenetwork/tokenledger/internal/storage"
	"gitlab.com/accumulatenetwork/tokenledger/pkg/errors"
)

// Version is the version of the ABCI application.
const Version uint64 = 0x1

type Options struct {
	Ledger *ledger.Handle
	Store  *storage.Store

	// Genesis is used by InitChain when the chain's genesis document carries
	// no app state.
	Genesis *config.Genesis

	Logger *slog.Logger
}

// App is the ABCI application.
type App struct {
	abci.BaseApplication
	Options
	logger *slog.Logger

	mu      sync.Mutex
	dirty   map[ledger.AccountID]bool
	height  int64
	appHash []byte
}

var _ abci.Application = (*App)(nil)

func New(opts Options) *App {
	app := &App{
		Options: opts,
		logger:  opts.Logger,
		dirty:   map[ledger.AccountID]bool{},
	}
	if app.logger == nil {
		app.logger = slog.Default()
	}
	app.logger = app.logger.With("module", "abci")
	return app
}

// Info returns the last committed height and app hash so CometBFT can replay
// any blocks the application has not seen.
func (app *App) Info(_ context.Context, req *abci.RequestInfo) (*abci.ResponseInfo, error) {
	data, err := json.Marshal(struct {
		Version, Commit string
	}{
		Version: tokenledger.Version,
		Commit:  tokenledger.Commit,
	})
	if err != nil {
		return nil, errors.EncodingError.Wrap(err)
	}

	res := &abci.ResponseInfo{
		Data:       string(data),
		Version:    req.Version,
		AppVersion: Version,
	}

	c, err := app.Store.LastCommit()
	switch {
	case err == nil:
		res.LastBlockHeight = c.Height
		res.LastBlockAppHash = c.AppHash
	case errors.Is(err, errors.NotFound):
		// Nothing committed yet
	default:
		return nil, errors.UnknownError.WithFormat("load last commit: %w", err)
	}

	app.mu.Lock()
	app.height = res.LastBlockHeight
	app.mu.Unlock()

	app.logger.Info("ABCI info", "height", res.LastBlockHeight, "hash", logHash(res.LastBlockAppHash))
	return res, nil
}

// InitChain initializes the ledger from the chain's genesis app state, or the
// configured genesis if the app state is empty. Any existing state is
// replaced.
func (app *App) InitChain(_ context.Context, req *abci.RequestInitChain) (*abci.ResponseInitChain, error) {
	genesis := app.Genesis
	if len(req.AppStateBytes) > 0 {
		var err error
		genesis, err = config.ParseGenesis(req.AppStateBytes)
		if err != nil {
			return nil, errors.UnknownError.WithFormat("init chain: %w", err)
		}
	}
	if genesis == nil {
		return nil, errors.BadRequest.With("init chain: no genesis")
	}

	app.Ledger.Initialize(genesis.Params())

	state, err := app.Ledger.State()
	if err != nil {
		return nil, errors.UnknownError.Wrap(err)
	}
	err = app.Store.Save(state)
	if err != nil {
		return nil, errors.UnknownError.WithFormat("init chain: %w", err)
	}

	app.mu.Lock()
	app.dirty = map[ledger.AccountID]bool{}
	app.mu.Unlock()

	hash := app.Ledger.Hash()
	app.logger.Info("Initialized ledger", "chain", req.ChainId, "owner", genesis.Owner, "supply", genesis.TotalSupply, "symbol", genesis.Symbol)
	return &abci.ResponseInitChain{AppHash: hash[:]}, nil
}

// CheckTx checks a transfer against the current state without applying it.
func (app *App) CheckTx(_ context.Context, req *abci.RequestCheckTx) (*abci.ResponseCheckTx, error) {
	tx := new(Transfer)
	err := tx.UnmarshalBinary(req.Tx)
	if err == nil {
		err = app.Ledger.View(func(l *ledger.Ledger) error {
			return l.CheckTransfer(tx.From, tx.To, tx.Amount)
		})
	}

	res := &abci.ResponseCheckTx{Code: resultCode(err)}
	if err != nil {
		res.Log = err.Error()
		app.logger.Debug("Rejected transfer", "error", err)
	}
	return res, nil
}

// FinalizeBlock applies the block's transfers in order. A failed transfer has
// no effect and does not affect the others.
func (app *App) FinalizeBlock(_ context.Context, req *abci.RequestFinalizeBlock) (*abci.ResponseFinalizeBlock, error) {
	app.mu.Lock()
	defer app.mu.Unlock()

	res := new(abci.ResponseFinalizeBlock)
	for i, b := range req.Txs {
		tx := new(Transfer)
		err := tx.UnmarshalBinary(b)
		if err == nil {
			err = app.Ledger.Transfer(tx.From, tx.To, tx.Amount)
		}

		result := &abci.ExecTxResult{Code: resultCode(err)}
		if err == nil {
			app.dirty[tx.From] = true
			app.dirty[tx.To] = true
			mTxResults.WithLabelValues("ok").Inc()
		} else {
			result.Log = err.Error()
			mTxResults.WithLabelValues(errors.Code(err).String()).Inc()
			app.logger.Info("Transfer failed", "height", req.Height, "index", i, "error", err)
		}
		res.TxResults = append(res.TxResults, result)
	}

	hash := app.Ledger.Hash()
	res.AppHash = hash[:]
	app.height = req.Height
	app.appHash = res.AppHash

	app.logger.Debug("Finalized block", "height", req.Height, "txs", len(req.Txs), "hash", logHash(res.AppHash))
	return res, nil
}

// Commit persists the accounts changed since the last commit.
func (app *App) Commit(context.Context, *abci.RequestCommit) (*abci.ResponseCommit, error) {
	app.mu.Lock()
	defer app.mu.Unlock()

	ids := make([]ledger.AccountID, 0, len(app.dirty))
	for id := range app.dirty {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	err := app.Ledger.View(func(l *ledger.Ledger) error {
		return app.Store.SaveAccounts(l, ids...)
	})
	if err != nil {
		return nil, errors.UnknownError.WithFormat("commit: %w", err)
	}

	err = app.Store.SetCommit(&storage.Commit{Height: app.height, AppHash: app.appHash})
	if err != nil {
		return nil, errors.UnknownError.WithFormat("commit: %w", err)
	}

	app.dirty = map[ledger.AccountID]bool{}
	mHeight.Set(float64(app.height))
	app.logger.Debug("Committed", "height", app.height, "accounts", len(ids))
	return &abci.ResponseCommit{}, nil
}

// Query answers /balance (data is the account ID) and /token.
func (app *App) Query(_ context.Context, req *abci.RequestQuery) (*abci.ResponseQuery, error) {
	app.mu.Lock()
	height := app.height
	app.mu.Unlock()

	res := &abci.ResponseQuery{Key: req.Data, Height: height}
	var value any
	var err error
	switch req.Path {
	case "/balance":
		id := ledger.AccountID(req.Data)
		value = struct {
			Account ledger.AccountID `json:"account"`
			Balance uint64           `json:"balance"`
		}{id, app.Ledger.BalanceOf(id)}

	case "/token":
		err = app.Ledger.View(func(l *ledger.Ledger) error {
			if l == nil {
				return errors.NotInitialized.With("token ledger not initialized")
			}
			value = l.Metadata()
			return nil
		})

	default:
		err = errors.NotFound.WithFormat("unknown query path %q", req.Path)
	}

	if err == nil {
		res.Value, err = json.Marshal(value)
	}
	res.Code = resultCode(err)
	if err != nil {
		res.Log = err.Error()
		app.logger.Debug("Query failed", "path", req.Path, "error", err)
	}
	return res, nil
}

// resultCode returns the ABCI code of an error. CometBFT treats zero as
// success, so errors without a status are reported as unknown.
func resultCode(err error) uint32 {
	if err == nil {
		return abci.CodeTypeOK
	}
	code := errors.Code(err)
	if code == 0 || code.Success() {
		code = errors.UnknownError
	}
	return uint32(code)
}

func logHash(b []byte) logging.Hex {
	if len(b) > 4 {
		b = b[:4]
	}
	return logging.AsHex(b)
}
