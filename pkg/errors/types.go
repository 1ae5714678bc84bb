// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package errors

// Status is a request status code. Values follow HTTP status codes where one
// fits.
type Status uint64

// Error is an error with a status code, an optional cause, and the call sites
// it passed through.
type Error struct {
	Message   string      `json:"message,omitempty"`
	Code      Status      `json:"code,omitempty"`
	Cause     *Error      `json:"cause,omitempty"`
	CallStack []*CallSite `json:"callStack,omitempty"`
}

// CallSite records where an error was created or wrapped.
type CallSite struct {
	FuncName string `json:"funcName,omitempty"`
	File     string `json:"file,omitempty"`
	Line     int64  `json:"line,omitempty"`
}

var trackLocation bool

// EnableLocationTracking enables recording the call site of errors. It is not
// safe to call concurrently with error creation.
func EnableLocationTracking() { trackLocation = true }
