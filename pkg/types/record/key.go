// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package record

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"reflect"
	"strings"

	"gitlab.com/accumulatenetwork/tokenledger/pkg/errors"
)

// A Key is the key for a record.
type Key struct {
	values []any
}

// NewKey returns a key with the given parts. NewKey panics if a part is not a
// supported type.
func NewKey(v ...any) *Key {
	return &Key{mustNormalize(v)}
}

func mustNormalize(v []any) []any {
	for i, u := range v {
		w, err := normalizeKeyPart(u)
		if err != nil {
			panic(err)
		}
		v[i] = w
	}
	return v
}

func asString(v any) (string, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.String {
		return "", false
	}
	return rv.String(), true
}

func (k *Key) Len() int {
	if k == nil {
		return 0
	}
	return len(k.values)
}

func (k *Key) Get(i int) any {
	if i < 0 || i >= k.Len() {
		return nil
	}
	return k.values[i]
}

func (k *Key) SliceI(i int) *Key {
	return &Key{k.values[i:]}
}

func (k *Key) SliceJ(j int) *Key {
	return &Key{k.values[:j]}
}

// Append creates a child key of this key.
func (k *Key) Append(v ...any) *Key {
	if len(v) == 0 {
		return k
	}
	v = mustNormalize(v)
	if k.Len() == 0 {
		return &Key{v}
	}
	l := make([]any, len(k.values)+len(v))
	n := copy(l, k.values)
	copy(l[n:], v)
	return &Key{l}
}

// AppendKey appends one key to another.
func (k *Key) AppendKey(l *Key) *Key {
	if k.Len() == 0 {
		return l
	}
	if l.Len() == 0 {
		return k
	}
	return k.Append(l.values...)
}

// HasPrefix returns true if the key starts with the given prefix.
func (k *Key) HasPrefix(prefix *Key) bool {
	if prefix.Len() > k.Len() {
		return false
	}
	for i := 0; i < prefix.Len(); i++ {
		if !keyPartsEqual(k.values[i], prefix.values[i]) {
			return false
		}
	}
	return true
}

// Hash converts the record key to a storage key.
func (k *Key) Hash() KeyHash {
	if k.Len() == 0 {
		return KeyHash{}
	}
	return (KeyHash{}).Append(k.values...)
}

// String returns a human-readable string for the key.
func (k *Key) String() string {
	if k.Len() == 0 {
		return "()"
	}
	s := make([]string, len(k.values))
	for i, v := range k.values {
		switch v := v.(type) {
		case []byte:
			s[i] = hex.EncodeToString(v)
		case [32]byte:
			s[i] = hex.EncodeToString(v[:])
		case string:
			s[i] = v
		default:
			s[i] = fmt.Sprint(v)
		}
	}
	return strings.Join(s, ".")
}

// Copy returns a copy of the key.
func (k *Key) Copy() *Key {
	if k == nil {
		return nil
	}
	l := make([]any, len(k.values))
	copy(l, k.values)
	return &Key{l}
}

// Equal checks if the two keys are equal.
func (k *Key) Equal(l *Key) bool {
	if k.Len() != l.Len() {
		return false
	}
	for i := 0; i < k.Len(); i++ {
		if !keyPartsEqual(k.values[i], l.values[i]) {
			return false
		}
	}
	return true
}

// MarshalBinary marshals the key to bytes.
func (k *Key) MarshalBinary() ([]byte, error) {
	buf := new(bytes.Buffer)

	// Write the length
	var tmp [binary.MaxVarintLen64]byte
	buf.Write(tmp[:binary.PutUvarint(tmp[:], uint64(k.Len()))])

	for i := 0; i < k.Len(); i++ {
		err := writeKeyPart(buf, k.values[i])
		if err != nil {
			return nil, errors.UnknownError.Wrap(err)
		}
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary unmarshals a key from bytes.
func (k *Key) UnmarshalBinary(b []byte) error {
	rd := bytes.NewReader(b)

	// Read the length
	n, err := binary.ReadUvarint(rd)
	if err != nil {
		return errors.EncodingError.WithFormat("decode Key: %w", err)
	}
	if n > uint64(len(b)) {
		return errors.EncodingError.WithFormat("decode Key: invalid length %d", n)
	}

	k.values = make([]any, n)
	for i := range k.values {
		k.values[i], err = readKeyPart(rd)
		if err != nil {
			return errors.EncodingError.WithFormat("decode Key: %w", err)
		}
	}
	if rd.Len() > 0 {
		return errors.EncodingError.WithFormat("decode Key: %d trailing bytes", rd.Len())
	}
	return nil
}
