// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package memory

import (
	"sync"

	"gitlab.com/accumulatenetwork/tokenledger/pkg/database/keyvalue"
	"gitlab.com/accumulatenetwork/tokenledger/pkg/types/record"
)

type Database struct {
	mu      sync.RWMutex
	entries map[record.KeyHash]Entry
	prefix  *record.Key
}

var _ keyvalue.Beginner = (*Database)(nil)

func New(prefix *record.Key) *Database {
	return &Database{prefix: prefix}
}

// Begin begins a change set.
func (d *Database) Begin(prefix *record.Key, writable bool) keyvalue.ChangeSet {
	var commit CommitFunc
	if writable {
		commit = d.put
	}
	return NewChangeSet(ChangeSetOptions{
		Prefix:  prefix,
		Get:     d.get,
		Commit:  commit,
		ForEach: d.forEach,
	})
}

// Export exports the database as a set of entries. Behavior is undefined if the
// database was created with a prefix.
func (d *Database) Export() ([]Entry, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	entries := make([]Entry, 0, len(d.entries))
	for _, e := range d.entries {
		entries = append(entries, e)
	}
	return entries, nil
}

// Import imports a set of entries into the database. Behavior is undefined if
// the database was created with a prefix.
func (d *Database) Import(entries []Entry) error {
	m := make(map[record.KeyHash]Entry, len(entries))
	for _, e := range entries {
		m[e.Key.Hash()] = e
	}
	return d.put(m)
}

func (d *Database) get(key *record.Key) ([]byte, error) {
	// Prefix the key
	key = d.prefix.AppendKey(key)

	d.mu.RLock()
	defer d.mu.RUnlock()
	entry, ok := d.entries[key.Hash()]
	if !ok {
		return nil, (*keyvalue.NotFoundError)(key)
	}

	v := make([]byte, len(entry.Value))
	copy(v, entry.Value)
	return v, nil
}

func (d *Database) put(entries map[record.KeyHash]Entry) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.entries == nil {
		d.entries = make(map[record.KeyHash]Entry, len(entries))
	}

	for _, e := range entries {
		// Prefix the key
		key := d.prefix.AppendKey(e.Key)

		if e.Delete {
			delete(d.entries, key.Hash())
		} else {
			d.entries[key.Hash()] = Entry{Key: key, Value: e.Value}
		}
	}
	return nil
}

func (d *Database) forEach(fn func(*record.Key, []byte) error) error {
	d.mu.RLock()
	entries := make([]Entry, 0, len(d.entries))
	for _, e := range d.entries {
		if e.Key.HasPrefix(d.prefix) {
			entries = append(entries, e)
		}
	}
	d.mu.RUnlock()

	for _, e := range entries {
		v := make([]byte, len(e.Value))
		copy(v, e.Value)
		err := fn(e.Key.SliceI(d.prefix.Len()), v)
		if err != nil {
			return err
		}
	}
	return nil
}
