// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package main

import (
	"log"
	"os"
	"os/user"
	"path/filepath"

	"github.com/spf13/cobra"
	cmdutil "gitlab.com/accumulatenetwork/tokenledger/internal/util/cmd"
)

var currentUser = func() *user.User {
	usr, err := user.Current()
	if err != nil {
		log.Fatal(err)
	}
	return usr
}()

var defaultWorkDir = filepath.Join(currentUser.HomeDir, ".tokend")

var cmdMain = &cobra.Command{
	Use:   "tokend",
	Short: "Token ledger daemon",
	Run:   printUsageAndExit1,
}

var flagMain struct {
	WorkDir string
}

func init() {
	cmdMain.PersistentFlags().StringVarP(&flagMain.WorkDir, "work-dir", "w", defaultWorkDir, "Working directory for configuration and data")
}

func main() {
	_ = cmdMain.Execute()
}

func printUsageAndExit1(cmd *cobra.Command, _ []string) {
	_ = cmd.Usage()
	os.Exit(1)
}

var (
	fatalf = cmdutil.Fatalf
	check  = cmdutil.Check
	checkf = cmdutil.Checkf
)
