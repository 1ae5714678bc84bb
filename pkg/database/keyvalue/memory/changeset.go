// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package memory

import (
	"sync"

	"gitlab.com/accumulatenetwork/tokenledger/pkg/database/keyvalue"
	"gitlab.com/accumulatenetwork/tokenledger/pkg/errors"
	"gitlab.com/accumulatenetwork/tokenledger/pkg/types/record"
)

// Entry is a pending key-value change.
type Entry struct {
	Key    *record.Key
	Value  []byte
	Delete bool
}

type GetFunc = func(*record.Key) ([]byte, error)
type CommitFunc = func(map[record.KeyHash]Entry) error
type ForEachFunc = func(func(*record.Key, []byte) error) error

// ChangeSetOptions are the callbacks a [ChangeSet] uses to reach the
// underlying store. A nil Commit makes the change set read-only.
type ChangeSetOptions struct {
	Prefix  *record.Key
	Get     GetFunc
	Commit  CommitFunc
	ForEach ForEachFunc
	Discard func()
}

// ChangeSet caches changes in memory until they are committed.
type ChangeSet struct {
	opts    ChangeSetOptions
	mu      sync.Mutex
	entries map[record.KeyHash]Entry
	done    bool
}

var _ keyvalue.ChangeSet = (*ChangeSet)(nil)

func NewChangeSet(opts ChangeSetOptions) *ChangeSet {
	return &ChangeSet{
		opts:    opts,
		entries: map[record.KeyHash]Entry{},
	}
}

// Begin begins a nested change set. Committing the nested change set writes
// its changes into this one.
func (c *ChangeSet) Begin(prefix *record.Key, writable bool) keyvalue.ChangeSet {
	var commit CommitFunc
	if writable {
		commit = c.putAll
	}
	return NewChangeSet(ChangeSetOptions{
		Prefix:  prefix,
		Get:     c.Get,
		Commit:  commit,
		ForEach: c.ForEach,
	})
}

func (c *ChangeSet) Get(key *record.Key) ([]byte, error) {
	full := c.opts.Prefix.AppendKey(key)

	c.mu.Lock()
	e, ok := c.entries[full.Hash()]
	c.mu.Unlock()

	if ok {
		if e.Delete {
			return nil, (*keyvalue.NotFoundError)(key)
		}
		v := make([]byte, len(e.Value))
		copy(v, e.Value)
		return v, nil
	}

	if c.opts.Get == nil {
		return nil, (*keyvalue.NotFoundError)(key)
	}
	return c.opts.Get(full)
}

func (c *ChangeSet) Put(key *record.Key, value []byte) error {
	return c.put(key, value, false)
}

func (c *ChangeSet) Delete(key *record.Key) error {
	return c.put(key, nil, true)
}

func (c *ChangeSet) put(key *record.Key, value []byte, delete bool) error {
	if c.opts.Commit == nil {
		return errors.NotAllowed.With("change set is read-only")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done {
		return errors.NotAllowed.With("change set has been committed or discarded")
	}

	full := c.opts.Prefix.AppendKey(key)
	v := make([]byte, len(value))
	copy(v, value)
	c.entries[full.Hash()] = Entry{Key: full, Value: v, Delete: delete}
	return nil
}

func (c *ChangeSet) putAll(entries map[record.KeyHash]Entry) error {
	for _, e := range entries {
		err := c.put(e.Key, e.Value, e.Delete)
		if err != nil {
			return err
		}
	}
	return nil
}

// ForEach iterates over the underlying store merged with pending changes.
// Keys are relative to the change set's prefix.
func (c *ChangeSet) ForEach(fn func(*record.Key, []byte) error) error {
	c.mu.Lock()
	pending := make(map[record.KeyHash]Entry, len(c.entries))
	for k, e := range c.entries {
		pending[k] = e
	}
	c.mu.Unlock()

	prefix := c.opts.Prefix
	if c.opts.ForEach != nil {
		err := c.opts.ForEach(func(key *record.Key, value []byte) error {
			if !key.HasPrefix(prefix) {
				return nil
			}
			if _, ok := pending[key.Hash()]; ok {
				return nil
			}
			return fn(key.SliceI(prefix.Len()), value)
		})
		if err != nil {
			return err
		}
	}

	for _, e := range pending {
		if e.Delete {
			continue
		}
		err := fn(e.Key.SliceI(prefix.Len()), e.Value)
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *ChangeSet) Commit() error {
	if c.opts.Commit == nil {
		return errors.NotAllowed.With("change set is read-only")
	}

	c.mu.Lock()
	if c.done {
		c.mu.Unlock()
		return errors.NotAllowed.With("change set has been committed or discarded")
	}
	c.done = true
	entries := c.entries
	c.entries = map[record.KeyHash]Entry{}
	c.mu.Unlock()

	err := c.opts.Commit(entries)
	if c.opts.Discard != nil {
		c.opts.Discard()
	}
	return err
}

func (c *ChangeSet) Discard() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done {
		return
	}
	c.done = true
	if c.opts.Discard != nil {
		c.opts.Discard()
	}
}
