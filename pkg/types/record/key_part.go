// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package record

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"gitlab.com/accumulatenetwork/tokenledger/pkg/errors"
)

// typeCode identifies the type of a key part in the binary encoding.
type typeCode byte

const (
	typeCodeInt    typeCode = 1
	typeCodeUint   typeCode = 2
	typeCodeString typeCode = 3
	typeCodeHash   typeCode = 4
	typeCodeBytes  typeCode = 5
)

// normalizeKeyPart converts v to one of the canonical key part types: int64,
// uint64, string, [32]byte, or []byte.
func normalizeKeyPart(v any) (any, error) {
	switch v := v.(type) {
	case int64, uint64, string, [32]byte, []byte:
		return v, nil
	case *[32]byte:
		return *v, nil
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case uint:
		return uint64(v), nil
	case uint8:
		return uint64(v), nil
	case uint16:
		return uint64(v), nil
	case uint32:
		return uint64(v), nil
	case fmt.Stringer:
		return v.String(), nil
	}

	// Named string types such as ledger.AccountID
	if s, ok := asString(v); ok {
		return s, nil
	}
	return nil, errors.BadRequest.WithFormat("%T is not a supported key part type", v)
}

func writeKeyPart(w *bytes.Buffer, v any) error {
	v, err := normalizeKeyPart(v)
	if err != nil {
		return err
	}

	var tmp [binary.MaxVarintLen64]byte
	switch v := v.(type) {
	case int64:
		w.WriteByte(byte(typeCodeInt))
		w.Write(tmp[:binary.PutVarint(tmp[:], v)])
	case uint64:
		w.WriteByte(byte(typeCodeUint))
		w.Write(tmp[:binary.PutUvarint(tmp[:], v)])
	case string:
		w.WriteByte(byte(typeCodeString))
		w.Write(tmp[:binary.PutUvarint(tmp[:], uint64(len(v)))])
		w.WriteString(v)
	case [32]byte:
		w.WriteByte(byte(typeCodeHash))
		w.Write(v[:])
	case []byte:
		w.WriteByte(byte(typeCodeBytes))
		w.Write(tmp[:binary.PutUvarint(tmp[:], uint64(len(v)))])
		w.Write(v)
	}
	return nil
}

func readKeyPart(r *bytes.Reader) (any, error) {
	typ, err := r.ReadByte()
	if err != nil {
		return nil, err
	}

	switch typeCode(typ) {
	case typeCodeInt:
		return binary.ReadVarint(r)
	case typeCodeUint:
		return binary.ReadUvarint(r)
	case typeCodeString:
		b, err := readBytes(r)
		return string(b), err
	case typeCodeHash:
		var h [32]byte
		_, err := io.ReadFull(r, h[:])
		return h, err
	case typeCodeBytes:
		return readBytes(r)
	default:
		return nil, errors.EncodingError.WithFormat("%d is not a valid key part type code", typ)
	}
}

func readBytes(r *bytes.Reader) ([]byte, error) {
	n, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, err
	}
	if n > uint64(r.Len()) {
		return nil, io.ErrUnexpectedEOF
	}
	b := make([]byte, n)
	_, err = io.ReadFull(r, b)
	return b, err
}

func keyPartsEqual(v, u any) bool {
	switch v := v.(type) {
	case []byte:
		u, ok := u.([]byte)
		return ok && bytes.Equal(v, u)
	default:
		return v == u
	}
}
