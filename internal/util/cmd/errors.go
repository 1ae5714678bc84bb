// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package cmdutil holds helpers shared by command-line programs.
package cmdutil

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"
)

func Fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s "+format+"\n", append([]interface{}{errorPrefix()}, args...)...)
	os.Exit(1)
}

func Check(err error) {
	if err != nil {
		Fatalf("%v", err)
	}
}

func Checkf(err error, format string, otherArgs ...interface{}) {
	if err != nil {
		Fatalf(format+": %v", append(otherArgs, err)...)
	}
}

func Warnf(format string, args ...interface{}) {
	format = "WARNING: " + format + "\n"
	if IsTerminal(os.Stderr) {
		fmt.Fprint(os.Stderr, color.YellowString(format, args...))
	} else {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

// IsTerminal returns true if f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func errorPrefix() string {
	if IsTerminal(os.Stderr) {
		return color.RedString("Error:")
	}
	return "Error:"
}
