// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package storage

import (
	"io"
	"os"
	"path/filepath"

	"gitlab.com/accumulatenetwork/tokenledger/pkg/database/keyvalue"
	"gitlab.com/accumulatenetwork/tokenledger/pkg/database/keyvalue/badger"
	"gitlab.com/accumulatenetwork/tokenledger/pkg/database/keyvalue/bolt"
	"gitlab.com/accumulatenetwork/tokenledger/pkg/database/keyvalue/leveldb"
	"gitlab.com/accumulatenetwork/tokenledger/pkg/database/keyvalue/memory"
	"gitlab.com/accumulatenetwork/tokenledger/pkg/errors"
)

// Type is a key-value store driver.
type Type string

const (
	Memory  Type = "memory"
	Bolt    Type = "bolt"
	Badger  Type = "badger"
	LevelDB Type = "leveldb"
)

// Types lists the supported drivers.
var Types = []Type{Memory, Bolt, Badger, LevelDB}

// Open opens a key-value store. The caller must close the returned database
// if it implements [io.Closer].
func Open(typ Type, path string) (keyvalue.Beginner, error) {
	switch typ {
	case Memory:
		return memory.New(nil), nil

	case Bolt:
		err := os.MkdirAll(filepath.Dir(path), 0700)
		if err != nil {
			return nil, errors.UnknownError.WithFormat("create %q: %w", filepath.Dir(path), err)
		}
		return bolt.Open(path)

	case Badger:
		return badger.New(path)

	case LevelDB:
		return leveldb.OpenFile(path)

	default:
		return nil, errors.BadRequest.WithFormat("unsupported storage type %q", typ)
	}
}

// Close closes the database if it can be closed.
func Close(db keyvalue.Beginner) error {
	if c, ok := db.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
