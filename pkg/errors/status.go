// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package errors

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	// OK means the request completed successfully.
	OK Status = 200

	// BadRequest means the request was malformed or invalid.
	BadRequest Status = 400

	// Unauthenticated means the caller could not be authenticated.
	Unauthenticated Status = 401

	// InsufficientBalance means an account does not hold enough tokens.
	InsufficientBalance Status = 402

	// NotFound means a record or account could not be found.
	NotFound Status = 404

	// NotAllowed means the operation is not permitted in this context.
	NotAllowed Status = 405

	// Conflict means the request conflicts with existing state.
	Conflict Status = 409

	// EncodingError means encoding or decoding failed.
	EncodingError Status = 420

	// NotReady means the service is not ready to handle the request.
	NotReady Status = 422

	// AccountNotFound means the sender of a transfer has no account.
	AccountNotFound Status = 424

	// NotInitialized means the ledger has not been initialized.
	NotInitialized Status = 425

	// InternalError means an internal error occurred.
	InternalError Status = 500

	// UnknownError means an unknown error occurred.
	UnknownError Status = 501
)

var statusNames = map[Status]string{
	OK:                  "ok",
	BadRequest:          "badRequest",
	Unauthenticated:     "unauthenticated",
	InsufficientBalance: "insufficientBalance",
	NotFound:            "notFound",
	NotAllowed:          "notAllowed",
	Conflict:            "conflict",
	EncodingError:       "encodingError",
	NotReady:            "notReady",
	AccountNotFound:     "accountNotFound",
	NotInitialized:      "notInitialized",
	InternalError:       "internalError",
	UnknownError:        "unknownError",
}

var statusByName = func() map[string]Status {
	m := make(map[string]Status, len(statusNames))
	for s, n := range statusNames {
		m[strings.ToLower(n)] = s
	}
	return m
}()

// String returns the name of the status.
func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return fmt.Sprintf("Status:%d", uint64(s))
}

// StatusByName returns the named status.
func StatusByName(name string) (Status, bool) {
	s, ok := statusByName[strings.ToLower(name)]
	return s, ok
}

// MarshalJSON marshals the status as its name.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON unmarshals the status from its name or its numeric value.
func (s *Status) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		var v uint64
		if err2 := json.Unmarshal(data, &v); err2 != nil {
			return err
		}
		*s = Status(v)
		return nil
	}

	v, ok := StatusByName(name)
	if !ok {
		return fmt.Errorf("invalid status %q", name)
	}
	*s = v
	return nil
}
