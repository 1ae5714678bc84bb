// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package keyvalue

import (
	"gitlab.com/accumulatenetwork/tokenledger/pkg/errors"
	"gitlab.com/accumulatenetwork/tokenledger/pkg/types/record"
)

// Store is a key-value store.
type Store interface {
	// Get loads a value. Get returns a [NotFoundError] if the key does not
	// exist.
	Get(*record.Key) ([]byte, error)

	// Put stores a value.
	Put(*record.Key, []byte) error

	// Delete deletes a key-value pair.
	Delete(*record.Key) error

	// ForEach iterates over each value.
	ForEach(func(*record.Key, []byte) error) error
}

// NotFoundError is returned when a key does not exist.
type NotFoundError record.Key

func (e *NotFoundError) Error() string {
	return (*record.Key)(e).String() + " not found"
}

// Is returns true if target is [errors.NotFound].
func (e *NotFoundError) Is(target error) bool {
	return target == errors.NotFound
}

// Unwrap returns [errors.NotFound].
func (e *NotFoundError) Unwrap() error {
	return errors.NotFound
}
