// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gitlab.com/accumulatenetwork/tokenledger/config"
	"gitlab.com/accumulatenetwork/tokenledger/internal/api"
	"gitlab.com/accumulatenetwork/tokenledger/internal/ledger"
	cmdutil "gitlab.com/accumulatenetwork/tokenledger/internal/util/cmd"
)

var cmdBalance = &cobra.Command{
	Use:   "balance <account>",
	Short: "Show the balance of an account",
	Args:  cobra.ExactArgs(1),
	Run:   func(_ *cobra.Command, args []string) { check(showBalance(os.Stdout, newClient(), args[0])) },
}

var cmdTransfer = &cobra.Command{
	Use:   "transfer <from> <to> <amount>",
	Short: "Transfer tokens between accounts",
	Long:  "Transfer tokens between accounts. The amount is in base units.",
	Args:  cobra.ExactArgs(3),
	Run: func(_ *cobra.Command, args []string) {
		amount, err := strconv.ParseUint(args[2], 10, 64)
		checkf(err, "invalid amount %q", args[2])
		check(transfer(os.Stdout, newClient(), args[0], args[1], amount))
	},
}

var cmdInfo = &cobra.Command{
	Use:   "info",
	Short: "Show the token's metadata",
	Args:  cobra.NoArgs,
	Run:   func(*cobra.Command, []string) { check(showInfo(os.Stdout, newClient())) },
}

var cmdHolders = &cobra.Command{
	Use:   "holders",
	Short: "List account balances, largest first",
	Args:  cobra.NoArgs,
	Run:   func(*cobra.Command, []string) { check(showHolders(os.Stdout, newClient())) },
}

var flagClient struct {
	Server  string
	JSON    bool
	Timeout time.Duration
}

func init() {
	for _, cmd := range []*cobra.Command{cmdBalance, cmdTransfer, cmdInfo, cmdHolders} {
		cmdMain.AddCommand(cmd)
		cmd.Flags().StringVarP(&flagClient.Server, "server", "s", config.Default().API.Listen, "Address of the daemon's API")
		cmd.Flags().BoolVarP(&flagClient.JSON, "json", "j", false, "Print results as JSON")
		cmd.Flags().DurationVar(&flagClient.Timeout, "timeout", 10*time.Second, "Request timeout")
	}
}

func newClient() *api.Client {
	return api.NewClient(flagClient.Server)
}

func requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), flagClient.Timeout)
}

func showBalance(w io.Writer, c *api.Client, account string) error {
	ctx, cancel := requestContext()
	defer cancel()

	bal, err := c.Balance(ctx, ledger.AccountID(account))
	if err != nil {
		return err
	}
	if flagClient.JSON {
		return cmdutil.PrintJSON(w, bal)
	}

	md, err := c.Token(ctx)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\t%s %s\n", bal.Account, cmdutil.FormatAmount(bal.Balance, md.Decimals), md.Symbol)
	return err
}

func transfer(w io.Writer, c *api.Client, from, to string, amount uint64) error {
	ctx, cancel := requestContext()
	defer cancel()

	res, err := c.Transfer(ctx, &api.TransferRequest{
		From:   ledger.AccountID(from),
		To:     ledger.AccountID(to),
		Amount: amount,
	})
	if err != nil {
		return err
	}
	if flagClient.JSON {
		return cmdutil.PrintJSON(w, res)
	}

	md, err := c.Token(ctx)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s %s %s from %s to %s\n",
		color.GreenString("Transferred"),
		cmdutil.FormatAmount(amount, md.Decimals), md.Symbol, from, to)
	if err != nil {
		return err
	}
	cmdutil.Table(w, []string{"Account", "Balance"}, [][]string{
		{string(res.From.Account), cmdutil.FormatAmount(res.From.Balance, md.Decimals)},
		{string(res.To.Account), cmdutil.FormatAmount(res.To.Balance, md.Decimals)},
	})
	return nil
}

func showInfo(w io.Writer, c *api.Client) error {
	ctx, cancel := requestContext()
	defer cancel()

	md, err := c.Token(ctx)
	if err != nil {
		return err
	}
	if flagClient.JSON {
		return cmdutil.PrintJSON(w, md)
	}

	cmdutil.Table(w, []string{"Field", "Value"}, [][]string{
		{"Name", md.Name},
		{"Symbol", md.Symbol},
		{"Owner", string(md.Owner)},
		{"Total supply", cmdutil.FormatAmount(md.TotalSupply, md.Decimals)},
		{"Decimals", strconv.Itoa(int(md.Decimals))},
	})
	return nil
}

func showHolders(w io.Writer, c *api.Client) error {
	ctx, cancel := requestContext()
	defer cancel()

	s, err := c.State(ctx)
	if err != nil {
		return err
	}

	type holder struct {
		Account ledger.AccountID `json:"account"`
		Balance uint64           `json:"balance"`
	}
	holders := make([]holder, 0, len(s.Balances))
	for id, bal := range s.Balances {
		holders = append(holders, holder{id, bal})
	}
	sort.Slice(holders, func(i, j int) bool {
		if holders[i].Balance != holders[j].Balance {
			return holders[i].Balance > holders[j].Balance
		}
		return holders[i].Account < holders[j].Account
	})

	if flagClient.JSON {
		return cmdutil.PrintJSON(w, holders)
	}

	rows := make([][]string, len(holders))
	for i, h := range holders {
		share := 0.0
		if s.TotalSupply > 0 {
			share = float64(h.Balance) / float64(s.TotalSupply) * 100
		}
		rows[i] = []string{
			string(h.Account),
			cmdutil.FormatAmount(h.Balance, s.Decimals),
			strconv.FormatFloat(share, 'f', 2, 64) + "%",
		}
	}
	cmdutil.Table(w, []string{"Account", "Balance", "Share"}, rows)
	return nil
}
