// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gitlab.com/accumulatenetwork/tokenledger/config"
	"gitlab.com/accumulatenetwork/tokenledger/internal/logging"
	"gitlab.com/accumulatenetwork/tokenledger/internal/node"
	"gitlab.com/accumulatenetwork/tokenledger/pkg/database/keyvalue/badger"
)

var cmdRun = &cobra.Command{
	Use:   "run",
	Short: "Run the daemon",
	Args:  cobra.NoArgs,
	Run:   runNode,
}

var flagRun = struct {
	Truncate    bool
	CiStopAfter time.Duration
}{}

// Flags that override configuration keys
var runOverrides = map[string]string{
	"api-listen":       "api.listen",
	"metrics-listen":   "instrumentation.listen",
	"storage":          "storage.type",
	"consensus":        "consensus.enabled",
	"consensus-listen": "consensus.listen",
	"log-format":       "logging.format",
	"log-rules":        "logging.rules",
	"snapshot-cron":    "snapshot.schedule",
}

func init() {
	cmdMain.AddCommand(cmdRun)

	cmdRun.Flags().BoolVar(&flagRun.Truncate, "truncate", false, "Truncate Badger if necessary")
	cmdRun.Flags().DurationVar(&flagRun.CiStopAfter, "ci-stop-after", 0, "FOR CI ONLY - stop the node after some time")
	cmdRun.Flag("ci-stop-after").Hidden = true

	cmdRun.Flags().String("api-listen", "", "Address of the HTTP API")
	cmdRun.Flags().String("metrics-listen", "", "Address of the Prometheus endpoint")
	cmdRun.Flags().String("storage", "", "Storage driver (memory, bolt, badger, leveldb)")
	cmdRun.Flags().Bool("consensus", false, "Host the ledger as a CometBFT application")
	cmdRun.Flags().String("consensus-listen", "", "Address of the ABCI server")
	cmdRun.Flags().String("log-format", "", "Log format (text, plain, json)")
	cmdRun.Flags().String("log-rules", "", "Log levels, e.g. error;ledger=info")
	cmdRun.Flags().String("snapshot-cron", "", "Cron schedule for ledger snapshots")
}

func runNode(cmd *cobra.Command, _ []string) {
	badger.TruncateBadger = flagRun.Truncate

	v := viper.New()
	for flag, key := range runOverrides {
		check(v.BindPFlag(key, cmd.Flag(flag)))
	}

	cfg, err := config.Load(filepath.Join(flagMain.WorkDir, config.DefaultFile), v)
	checkf(err, "load configuration")

	base, err := logging.Setup(cfg.Logging.Format, cfg.Logging.Rules)
	checkf(err, "configure logging")
	logger := base.With("module", "tokend")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if flagRun.CiStopAfter > 0 {
		var stop context.CancelFunc
		ctx, stop = context.WithTimeout(ctx, flagRun.CiStopAfter)
		defer stop()
	}

	n, err := node.Start(ctx, cfg, base)
	checkf(err, "start node")

	<-n.Done()
	logger.Info("Shutting down")
	err = n.Stop()
	checkf(err, "shutdown")
	logger.Info("Stopped")
}
