// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package abci

import (
	"context"
	"log/slog"

	"github.com/cometbft/cometbft/abci/server"
	"gitlab.com/accumulatenetwork/tokenledger/internal/logging"
	"gitlab.com/accumulatenetwork/tokenledger/pkg/errors"
)

// Serve serves the application to a CometBFT node over the given transport
// (socket or grpc) until the context is canceled.
func Serve(ctx context.Context, app *App, addr, transport string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	srv, err := server.NewServer(addr, transport, app)
	if err != nil {
		return errors.BadRequest.WithFormat("create ABCI server: %w", err)
	}
	srv.SetLogger(logging.NewSlogger(logger.With("module", "abci-server")))

	err = srv.Start()
	if err != nil {
		return errors.UnknownError.WithFormat("start ABCI server: %w", err)
	}
	logger.Info("ABCI server listening", "address", addr, "transport", transport, "module", "abci")

	<-ctx.Done()
	err = srv.Stop()
	if err != nil {
		return errors.UnknownError.WithFormat("stop ABCI server: %w", err)
	}
	return nil
}
