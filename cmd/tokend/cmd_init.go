// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gitlab.com/accumulatenetwork/tokenledger/config"
	"gitlab.com/accumulatenetwork/tokenledger/internal/storage"
	"gitlab.com/accumulatenetwork/tokenledger/pkg/errors"
)

var cmdInit = &cobra.Command{
	Use:   "init",
	Short: "Initialize the work directory with a configuration and genesis document",
	Args:  cobra.NoArgs,
	Run:   initNode,
}

var flagInit struct {
	Owner    string
	Supply   uint64
	Symbol   string
	Name     string
	Decimals uint8
	Storage  string
	Reset    bool
}

func init() {
	cmdMain.AddCommand(cmdInit)

	cmdInit.Flags().StringVar(&flagInit.Owner, "owner", "", "Account that receives the total supply")
	cmdInit.Flags().Uint64Var(&flagInit.Supply, "supply", 0, "Total supply, in base units")
	cmdInit.Flags().StringVar(&flagInit.Symbol, "symbol", "", "Token symbol")
	cmdInit.Flags().StringVar(&flagInit.Name, "name", "", "Token name")
	cmdInit.Flags().Uint8Var(&flagInit.Decimals, "decimals", 0, "Number of decimal places used to display amounts")
	cmdInit.Flags().StringVar(&flagInit.Storage, "storage", string(storage.Bolt), "Storage driver (memory, bolt, badger, leveldb)")
	cmdInit.Flags().BoolVar(&flagInit.Reset, "reset", false, "Overwrite an existing configuration and erase the persisted ledger")
	_ = cmdInit.MarkFlagRequired("owner")
}

func initNode(*cobra.Command, []string) {
	g := &config.Genesis{
		Owner:       flagInit.Owner,
		TotalSupply: flagInit.Supply,
		Symbol:      flagInit.Symbol,
		Name:        flagInit.Name,
		Decimals:    flagInit.Decimals,
	}

	err := initWorkDir(flagMain.WorkDir, g, flagInit.Storage, flagInit.Reset)
	if errors.Is(err, errors.Conflict) {
		fatalf("%v (use --reset to re-initialize)", err)
	}
	check(err)

	fmt.Printf("%s %s in %s\n", color.GreenString("Initialized"), g.Symbol, flagMain.WorkDir)
}

// initWorkDir writes the configuration and genesis document. With reset, any
// existing configuration is overwritten and the persisted ledger is erased so
// the next run initializes from the new genesis document.
func initWorkDir(dir string, g *config.Genesis, storageType string, reset bool) error {
	err := g.Validate()
	if err != nil {
		return err
	}

	file := filepath.Join(dir, config.DefaultFile)
	_, err = os.Stat(file)
	switch {
	case err == nil:
		if !reset {
			return errors.Conflict.WithFormat("%s already exists", file)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return errors.UnknownError.WithFormat("check %s: %w", file, err)
	}

	err = os.MkdirAll(dir, 0700)
	if err != nil {
		return errors.UnknownError.WithFormat("create %s: %w", dir, err)
	}

	cfg := config.Default()
	if reset {
		// Keep the existing settings, if they can be read
		old := config.Default()
		if old.LoadFrom(file) == nil {
			cfg = old
		}
	}
	cfg.SetFilePath(file)
	cfg.Storage.Type = storageType
	err = cfg.Validate()
	if err != nil {
		return err
	}

	err = cfg.Save()
	if err != nil {
		return err
	}

	err = g.Save(cfg.Path(cfg.Genesis))
	if err != nil {
		return err
	}

	if !reset {
		return nil
	}

	db, err := storage.Open(storage.Type(cfg.Storage.Type), cfg.Path(cfg.Storage.Path))
	if err != nil {
		return err
	}
	defer func() { _ = storage.Close(db) }()
	return storage.New(db).Reset()
}
