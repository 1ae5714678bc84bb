// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package record

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
)

const KeyHashLength = 32

type KeyHash [KeyHashLength]byte

// String hex encodes the key hash.
func (k KeyHash) String() string {
	return fmt.Sprintf("%X", k[:])
}

// MarshalJSON is implemented for JSON-based logging
func (k KeyHash) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// Append hashes each part into the key hash, in order.
func (k KeyHash) Append(key ...any) KeyHash {
	for _, key := range key {
		bytes := keyBytes(key)
		b := make([]byte, KeyHashLength+len(bytes))
		copy(b, k[:])
		copy(b[KeyHashLength:], bytes)
		k = sha256.Sum256(b)
	}
	return k
}

func keyBytes(v any) []byte {
	v, err := normalizeKeyPart(v)
	if err != nil {
		panic(err)
	}

	switch v := v.(type) {
	case []byte:
		return v
	case [32]byte:
		return v[:]
	case string:
		return []byte(v)
	case uint64:
		var b [binary.MaxVarintLen64]byte
		return b[:binary.PutUvarint(b[:], v)]
	case int64:
		var b [binary.MaxVarintLen64]byte
		return b[:binary.PutVarint(b[:], v)]
	default:
		panic(fmt.Errorf("cannot use %T as a key part", v))
	}
}
