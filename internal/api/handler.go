// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package api serves the token ledger over HTTP.
package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
	"gitlab.com/accumulatenetwork/tokenledger/internal/ledger"
	"gitlab.com/accumulatenetwork/tokenledger/internal/logging"
	"gitlab.com/accumulatenetwork/tokenledger/internal/storage"
	"gitlab.com/accumulatenetwork/tokenledger/pkg/errors"
)

type Options struct {
	Ledger *ledger.Handle

	// Store persists the accounts a transfer touches. May be nil.
	Store *storage.Store

	// Consensus is set when the ledger is hosted by CometBFT, in which case
	// transfers must be submitted to the network.
	Consensus bool

	CorsOrigins []string
	Logger      *slog.Logger
}

type handler struct {
	Options
	logger   *slog.Logger
	validate *validator.Validate
}

// NewHandler returns the API's HTTP handler.
func NewHandler(opts Options) http.Handler {
	h := &handler{
		Options:  opts,
		logger:   opts.Logger,
		validate: validator.New(),
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	h.logger = h.logger.With("module", "api")

	r := httprouter.New()
	r.GET("/v1/token", h.route("token", h.getToken))
	r.GET("/v1/accounts/:id/balance", h.route("balance", h.getBalance))
	r.POST("/v1/transfer", h.route("transfer", h.postTransfer))
	r.GET("/v1/state", h.route("state", h.getState))
	r.GET("/healthz", h.route("health", h.getHealth))

	r.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.writeError(w, r, errors.NotFound.WithFormat("no route for %s", r.URL.Path))
	})
	r.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.writeError(w, r, errors.NotAllowed.WithFormat("method %s not allowed for %s", r.Method, r.URL.Path))
	})

	c := cors.New(cors.Options{
		AllowedOrigins: opts.CorsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	})
	return c.Handler(r)
}

type endpoint func(*http.Request, httprouter.Params) (any, error)

// route wraps an endpoint with request IDs, logging, metrics, and response
// encoding.
func (h *handler) route(name string, fn endpoint) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		start := time.Now()
		id := uuid.NewString()
		w.Header().Set("X-Request-Id", id)
		r = r.WithContext(logging.WithRequest(r.Context(), id))

		status := http.StatusOK
		res, err := fn(r, p)
		if err != nil {
			status = h.writeError(w, r, err)
		} else {
			h.writeJSON(w, r, status, res)
		}

		mRequests.WithLabelValues(name, strconv.Itoa(status)).Inc()
		mRequestDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
		h.logger.DebugContext(r.Context(), "Request", "method", r.Method, "path", r.URL.Path, "status", status, "duration", time.Since(start))
	}
}

func (h *handler) getToken(*http.Request, httprouter.Params) (any, error) {
	var md ledger.Metadata
	err := h.Ledger.View(func(l *ledger.Ledger) error {
		if l == nil {
			return errors.NotInitialized.With("token ledger not initialized")
		}
		md = l.Metadata()
		return nil
	})
	return md, err
}

func (h *handler) getBalance(_ *http.Request, p httprouter.Params) (any, error) {
	id := ledger.AccountID(p.ByName("id"))
	return Balance{Account: id, Balance: h.Ledger.BalanceOf(id)}, nil
}

func (h *handler) postTransfer(r *http.Request, _ httprouter.Params) (any, error) {
	if h.Consensus {
		return nil, errors.NotAllowed.With("transfers must be submitted to the network")
	}

	req := new(TransferRequest)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	err := dec.Decode(req)
	if err != nil {
		return nil, errors.BadRequest.WithFormat("decode request: %w", err)
	}
	err = h.validate.Struct(req)
	if err != nil {
		return nil, errors.BadRequest.WithFormat("invalid request: %w", err)
	}
	ctx := logging.With(r.Context(), "from", req.From, "to", req.To)

	var res TransferResponse
	err = h.Ledger.Update(func(l *ledger.Ledger) error {
		err := l.Transfer(req.From, req.To, req.Amount)
		if err != nil {
			return err
		}

		res.From = Balance{Account: req.From, Balance: l.BalanceOf(req.From)}
		res.To = Balance{Account: req.To, Balance: l.BalanceOf(req.To)}
		if h.Store == nil {
			return nil
		}

		err = h.Store.SaveAccounts(l, req.From, req.To)
		if err != nil {
			// The in-memory transfer is not rolled back
			h.logger.ErrorContext(ctx, "Failed to persist transfer", "error", err)
		}
		return nil
	})
	if err != nil {
		mTransfers.WithLabelValues(errors.Code(err).String()).Inc()
		return nil, err
	}

	mTransfers.WithLabelValues("ok").Inc()
	h.logger.InfoContext(ctx, "Transfer", "amount", req.Amount)
	return res, nil
}

func (h *handler) getState(*http.Request, httprouter.Params) (any, error) {
	return h.Ledger.State()
}

func (h *handler) getHealth(*http.Request, httprouter.Params) (any, error) {
	return Health{
		Status:      "ok",
		Initialized: h.Ledger.Initialized(),
		Consensus:   h.Consensus,
	}, nil
}

func (h *handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	b := new(bytes.Buffer)
	err := json.NewEncoder(b).Encode(v)
	if err != nil {
		h.writeError(w, r, errors.EncodingError.WithFormat("encode response: %w", err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(b.Bytes())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to write response", "error", err)
	}
}

// writeError writes the error as JSON, using its status code as the HTTP
// status, and returns the HTTP status.
func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error) int {
	err2 := errors.UnknownError.Wrap(err).(*errors.Error)
	status := StatusOf(err2)
	if status >= 500 {
		h.logger.ErrorContext(r.Context(), "Request failed", "path", r.URL.Path, "error", err)
	}

	// Do not leak call sites to clients
	body := &errors.Error{Code: err2.Code, Message: err2.Error()}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err = json.NewEncoder(w).Encode(body)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to encode response", "error", err)
	}
	return status
}

// StatusOf returns the HTTP status for an error.
func StatusOf(err error) int {
	code := errors.Code(err)
	if code < 100 || code > 599 || code.Success() {
		return http.StatusInternalServerError
	}
	return int(code)
}
