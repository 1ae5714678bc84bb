// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package node assembles and runs the token ledger daemon.
package node

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gitlab.com/accumulatenetwork/tokenledger/config"
	"gitlab.com/accumulatenetwork/tokenledger/internal/abci"
	"gitlab.com/accumulatenetwork/tokenledger/internal/api"
	"gitlab.com/accumulatenetwork/tokenledger/internal/ledger"
	"gitlab.com/accumulatenetwork/tokenledger/internal/logging"
	"gitlab.com/accumulatenetwork/tokenledger/internal/snapshot"
	"gitlab.com/accumulatenetwork/tokenledger/internal/storage"
	"gitlab.com/accumulatenetwork/tokenledger/pkg/database/keyvalue"
	"gitlab.com/accumulatenetwork/tokenledger/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Node is a running token ledger daemon.
type Node struct {
	config  *config.Config
	base    *slog.Logger // passed to services, which set their own module
	logger  *slog.Logger
	genesis *config.Genesis

	group    *errgroup.Group    // tracks the node's services
	context  context.Context    // canceled when the node shuts down
	shutdown context.CancelFunc // shuts down the node
	stopping sync.WaitGroup     // tracks cleanups that must finish before the database is closed

	db     keyvalue.Beginner
	store  *storage.Store
	ledger *ledger.Handle

	apiAddr     net.Addr
	metricsAddr net.Addr
}

// Start creates a node and starts its services.
func Start(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Node, error) {
	n, err := New(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return n, n.Start()
}

// New opens the node's storage and restores the ledger. If nothing has been
// persisted and consensus is disabled, the ledger is initialized from the
// genesis document. With consensus enabled, the ledger is initialized by
// InitChain.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Node, error) {
	if logger == nil {
		logger = slog.Default()
	}

	n := new(Node)
	n.config = cfg
	n.base = logger
	n.logger = logger.With("module", "node")
	n.ledger = new(ledger.Handle)
	n.context, n.shutdown = context.WithCancel(ctx)
	n.group, n.context = errgroup.WithContext(n.context)

	var err error
	n.genesis, err = loadGenesisIfExists(cfg.Path(cfg.Genesis))
	if err != nil {
		n.shutdown()
		return nil, errors.UnknownError.WithFormat("load genesis: %w", err)
	}

	n.db, err = storage.Open(storage.Type(cfg.Storage.Type), cfg.Path(cfg.Storage.Path))
	if err != nil {
		n.shutdown()
		return nil, errors.UnknownError.WithFormat("open storage: %w", err)
	}
	n.store = storage.New(n.db)

	err = n.restore()
	if err != nil {
		n.shutdown()
		_ = storage.Close(n.db)
		return nil, err
	}

	// Close the database once everything else has stopped
	n.group.Go(func() error {
		<-n.context.Done()
		n.stopping.Wait()
		err := storage.Close(n.db)
		if err != nil {
			return errors.UnknownError.WithFormat("close storage: %w", err)
		}
		return nil
	})
	return n, nil
}

func loadGenesisIfExists(file string) (*config.Genesis, error) {
	_, err := os.Stat(file)
	switch {
	case err == nil:
		return config.LoadGenesis(file)
	case errors.Is(err, os.ErrNotExist):
		return nil, nil
	default:
		return nil, err
	}
}

func (n *Node) restore() error {
	state, err := n.store.Load()
	switch {
	case err == nil:
		err = n.ledger.Restore(state)
		if err != nil {
			return errors.UnknownError.WithFormat("restore ledger: %w", err)
		}
		n.logger.Info("Restored ledger", "symbol", state.Symbol, "accounts", len(state.Balances), "hash", logHash(n.ledger.Hash()))
		return nil

	case !errors.Is(err, errors.NotFound):
		return errors.UnknownError.WithFormat("load ledger: %w", err)

	case n.config.Consensus.Enabled:
		n.logger.Info("Waiting for InitChain to initialize the ledger")
		return nil

	case n.genesis == nil:
		return errors.NotInitialized.WithFormat("no persisted ledger and no genesis document at %s", n.config.Path(n.config.Genesis))
	}

	n.ledger.Initialize(n.genesis.Params())
	state, err = n.ledger.State()
	if err != nil {
		return err
	}
	err = n.store.Save(state)
	if err != nil {
		return errors.UnknownError.WithFormat("save ledger: %w", err)
	}
	n.logger.Info("Initialized ledger from genesis", "owner", n.genesis.Owner, "supply", n.genesis.TotalSupply, "symbol", n.genesis.Symbol)
	return nil
}

// Start starts the API, instrumentation, consensus, and snapshot services.
// Listeners are bound before Start returns.
func (n *Node) Start() (err error) {
	// Cleanup if boot fails
	defer func() {
		if err != nil {
			_ = n.Stop()
		}
	}()

	err = n.startAPI()
	if err != nil {
		return errors.UnknownError.WithFormat("start API: %w", err)
	}

	err = n.startInstrumentation()
	if err != nil {
		return errors.UnknownError.WithFormat("start instrumentation: %w", err)
	}

	err = n.startConsensus()
	if err != nil {
		return errors.UnknownError.WithFormat("start consensus: %w", err)
	}

	err = n.startSnapshots()
	if err != nil {
		return errors.UnknownError.WithFormat("start snapshots: %w", err)
	}
	return nil
}

// Ledger returns the node's ledger.
func (n *Node) Ledger() *ledger.Handle { return n.ledger }

// Store returns the node's ledger store.
func (n *Node) Store() *storage.Store { return n.store }

// APIAddr returns the address the API is listening on.
func (n *Node) APIAddr() net.Addr { return n.apiAddr }

// MetricsAddr returns the address the metrics endpoint is listening on, or
// nil.
func (n *Node) MetricsAddr() net.Addr { return n.metricsAddr }

// Done is closed when the node begins shutting down.
func (n *Node) Done() <-chan struct{} { return n.context.Done() }

// Stop shuts the node down and waits for its services to stop. Stop returns
// the first error returned by a service.
func (n *Node) Stop() error {
	n.shutdown()
	return n.group.Wait()
}

// Wait waits for the node to shut down.
func (n *Node) Wait() error {
	return n.group.Wait()
}

func (n *Node) startAPI() error {
	h := api.NewHandler(api.Options{
		Ledger:      n.ledger,
		Store:       n.store,
		Consensus:   n.config.Consensus.Enabled,
		CorsOrigins: n.config.API.CorsOrigins,
		Logger:      n.base,
	})

	var err error
	n.apiAddr, err = n.serveHTTP("api", n.config.API.Listen, h)
	return err
}

func (n *Node) startInstrumentation() error {
	// No address disables the metrics endpoint
	if n.config.Instrumentation.Listen == "" {
		return nil
	}

	h := promhttp.InstrumentMetricHandler(
		prometheus.DefaultRegisterer, promhttp.HandlerFor(
			prometheus.DefaultGatherer,
			promhttp.HandlerOpts{},
		),
	)

	var err error
	n.metricsAddr, err = n.serveHTTP("instrumentation", n.config.Instrumentation.Listen, h)
	return err
}

func (n *Node) startConsensus() error {
	if !n.config.Consensus.Enabled {
		return nil
	}

	app := abci.New(abci.Options{
		Ledger:  n.ledger,
		Store:   n.store,
		Genesis: n.genesis,
		Logger:  n.base,
	})
	n.run(func(ctx context.Context) error {
		return abci.Serve(ctx, app, n.config.Consensus.Listen, n.config.Consensus.Transport, n.base)
	})
	return nil
}

func (n *Node) startSnapshots() error {
	if n.config.Snapshot.Schedule == "" {
		return nil
	}

	sched, err := snapshot.ParseSchedule(n.config.Snapshot.Schedule)
	if err != nil {
		return err
	}

	s := snapshot.NewScheduler(snapshot.Options{
		Ledger:   n.ledger,
		Schedule: sched,
		Dir:      n.config.Path(n.config.Snapshot.Dir),
		Retain:   n.config.Snapshot.Retain,
		Logger:   n.base,
	})
	n.logger.Info("Snapshots scheduled", "next", s.Next(), "dir", s.Dir)
	n.run(s.Run)
	return nil
}

func (n *Node) serveHTTP(name, addr string, h http.Handler) (net.Addr, error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	s := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: n.config.API.ReadHeaderTimeout.Get(),
	}
	if s.ReadHeaderTimeout == 0 {
		s.ReadHeaderTimeout = 10 * time.Second
	}

	n.logger.Info("Listening", "service", name, "address", l.Addr())
	n.run(func(context.Context) error {
		err := s.Serve(l)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.UnknownError.WithFormat("%s server: %w", name, err)
	})

	n.cleanup(name, func(ctx context.Context) error {
		return s.Shutdown(ctx)
	})
	return l.Addr(), nil
}

// run runs fn as one of the node's services. If fn fails, the node shuts down.
func (n *Node) run(fn func(context.Context) error) {
	n.group.Go(func() error { return fn(n.context) })
}

// cleanup runs fn once the node begins shutting down.
func (n *Node) cleanup(name string, fn func(context.Context) error) {
	n.stopping.Add(1)
	n.group.Go(func() error {
		defer n.stopping.Done()
		<-n.context.Done()

		n.logger.Debug("Stopping", "process", name)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := fn(ctx)
		if err != nil {
			n.logger.Error("Error during shutdown", "error", err, "process", name)
			return nil
		}
		n.logger.Debug("Stopped", "process", name)
		return nil
	})
}

func logHash(h [32]byte) logging.Hex {
	return logging.AsHex(h[:4])
}
