// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gitlab.com/accumulatenetwork/tokenledger/config"
	"gitlab.com/accumulatenetwork/tokenledger/internal/api"
	"gitlab.com/accumulatenetwork/tokenledger/internal/ledger"
	"gitlab.com/accumulatenetwork/tokenledger/internal/snapshot"
	"gitlab.com/accumulatenetwork/tokenledger/internal/storage"
	cmdutil "gitlab.com/accumulatenetwork/tokenledger/internal/util/cmd"
)

var cmdSnapshot = &cobra.Command{
	Use:   "snapshot",
	Short: "Manage ledger snapshots",
}

var cmdSnapshotTake = &cobra.Command{
	Use:   "take",
	Short: "Take a snapshot of a running daemon's ledger",
	Args:  cobra.NoArgs,
	Run: func(*cobra.Command, []string) {
		cfg, err := config.Load(filepath.Join(flagMain.WorkDir, config.DefaultFile), nil)
		checkf(err, "load configuration")
		check(takeSnapshot(os.Stdout, newClient(), cfg))
	},
}

var cmdSnapshotList = &cobra.Command{
	Use:   "list",
	Short: "List snapshots",
	Args:  cobra.NoArgs,
	Run: func(*cobra.Command, []string) {
		cfg, err := config.Load(filepath.Join(flagMain.WorkDir, config.DefaultFile), nil)
		checkf(err, "load configuration")
		check(listSnapshots(os.Stdout, cfg))
	},
}

var cmdSnapshotRestore = &cobra.Command{
	Use:   "restore [file]",
	Short: "Replace the persisted ledger with a snapshot (the daemon must be stopped)",
	Long:  "Replace the persisted ledger with a snapshot. Without a file, the latest snapshot is used. The daemon must be stopped.",
	Args:  cobra.MaximumNArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		cfg, err := config.Load(filepath.Join(flagMain.WorkDir, config.DefaultFile), nil)
		checkf(err, "load configuration")

		var file string
		if len(args) > 0 {
			file = args[0]
		} else {
			file, err = snapshot.Latest(cfg.Path(cfg.Snapshot.Dir))
			check(err)
		}
		check(restoreSnapshot(os.Stdout, cfg, file))
	},
}

func init() {
	cmdMain.AddCommand(cmdSnapshot)
	cmdSnapshot.AddCommand(cmdSnapshotTake, cmdSnapshotList, cmdSnapshotRestore)

	cmdSnapshotTake.Flags().StringVarP(&flagClient.Server, "server", "s", config.Default().API.Listen, "Address of the daemon's API")
	cmdSnapshotTake.Flags().DurationVar(&flagClient.Timeout, "timeout", 10*time.Second, "Request timeout")
}

func takeSnapshot(w io.Writer, c *api.Client, cfg *config.Config) error {
	ctx, cancel := requestContext()
	defer cancel()

	s, err := c.State(ctx)
	if err != nil {
		return err
	}

	dir := cfg.Path(cfg.Snapshot.Dir)
	file, err := snapshot.Write(dir, s, time.Now())
	if err != nil {
		return err
	}
	_, err = snapshot.Prune(dir, cfg.Snapshot.Retain)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "%s %s\n", color.GreenString("Wrote"), file)
	return err
}

func listSnapshots(w io.Writer, cfg *config.Config) error {
	files, err := snapshot.List(cfg.Path(cfg.Snapshot.Dir))
	if err != nil {
		return err
	}
	if len(files) == 0 {
		_, err = fmt.Fprintln(w, "No snapshots")
		return err
	}

	rows := make([][]string, 0, len(files))
	for _, file := range files {
		st, err := os.Stat(file)
		if err != nil {
			return err
		}
		rows = append(rows, []string{
			filepath.Base(file),
			humanize.Bytes(uint64(st.Size())),
			humanize.Time(st.ModTime()),
		})
	}
	cmdutil.Table(w, []string{"Snapshot", "Size", "Taken"}, rows)
	return nil
}

func restoreSnapshot(w io.Writer, cfg *config.Config, file string) error {
	s, err := snapshot.Read(file)
	if err != nil {
		return err
	}

	// Validate before touching storage
	l, err := ledger.FromState(s)
	if err != nil {
		return err
	}

	db, err := storage.Open(storage.Type(cfg.Storage.Type), cfg.Path(cfg.Storage.Path))
	if err != nil {
		return err
	}
	defer func() { _ = storage.Close(db) }()

	err = storage.New(db).Save(l.State())
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "%s %s (%d accounts)\n", color.GreenString("Restored"), filepath.Base(file), len(s.Balances))
	return err
}
