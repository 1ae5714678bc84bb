// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package badger

import (
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/dgraph-io/badger"
	"gitlab.com/accumulatenetwork/tokenledger/internal/logging"
	"gitlab.com/accumulatenetwork/tokenledger/pkg/database/keyvalue"
	"gitlab.com/accumulatenetwork/tokenledger/pkg/database/keyvalue/memory"
	"gitlab.com/accumulatenetwork/tokenledger/pkg/errors"
	"gitlab.com/accumulatenetwork/tokenledger/pkg/types/record"
)

// TruncateBadger controls whether Badger is configured to truncate corrupted
// data. If the daemon is terminated abruptly, setting this may be necessary to
// recover. The last committed block may be lost.
var TruncateBadger = false

// GCInterval is how often the value log is garbage collected.
var GCInterval = time.Hour

type Database struct {
	badger *badger.DB
	ready  bool
	mu     sync.RWMutex
	done   chan struct{}
}

var _ keyvalue.Beginner = (*Database)(nil)

func New(filepath string) (*Database, error) {
	// Make sure all directories exist
	err := os.MkdirAll(filepath, 0700)
	if err != nil {
		return nil, errors.UnknownError.WithFormat("open badger: create %q: %w", filepath, err)
	}

	opts := badger.DefaultOptions(filepath)
	opts = opts.WithLogger(logging.BadgerLogger{})

	// Truncate corrupted data
	if TruncateBadger {
		opts = opts.WithTruncate(true)
	}

	d := new(Database)
	d.badger, err = badger.Open(opts)
	if err != nil {
		return nil, errors.UnknownError.WithFormat("open badger: %w", err)
	}

	d.ready = true
	d.done = make(chan struct{})
	mDbOpen.Inc()

	go d.gc()

	return d, nil
}

func (d *Database) key(key *record.Key) []byte {
	b, err := key.MarshalBinary()
	if err != nil {
		panic(err)
	}
	return b
}

// Begin begins a change set.
func (d *Database) Begin(prefix *record.Key, writable bool) keyvalue.ChangeSet {
	// Use a read-only transaction for reading
	rd := d.badger.NewTransaction(false)
	mTxnOpen.Inc()

	get := func(key *record.Key) ([]byte, error) {
		item, err := rd.Get(d.key(key))
		switch {
		case err == nil:
			// Ok
		case errors.Is(err, badger.ErrKeyNotFound):
			return nil, (*keyvalue.NotFoundError)(key)
		default:
			return nil, errors.UnknownError.WithFormat("get %v: %w", key, err)
		}

		v, err := item.ValueCopy(nil)
		if err != nil {
			return nil, errors.UnknownError.WithFormat("get %v: %w", key, err)
		}
		return v, nil
	}

	var commit memory.CommitFunc
	if writable {
		commit = d.commit
	}

	forEach := func(fn func(*record.Key, []byte) error) error {
		return d.forEach(rd, fn)
	}

	var once sync.Once
	discard := func() {
		once.Do(func() {
			rd.Discard()
			mTxnOpen.Dec()
		})
	}

	return memory.NewChangeSet(memory.ChangeSetOptions{
		Prefix:  prefix,
		Get:     get,
		Commit:  commit,
		ForEach: forEach,
		Discard: discard,
	})
}

func (d *Database) commit(entries map[record.KeyHash]memory.Entry) error {
	l, err := d.lock(false)
	if err != nil {
		return err
	}
	defer l.Unlock()

	start := time.Now()
	defer func() { mCommitDuration.Set(time.Since(start).Seconds()) }()

	// Split the changes over as many transactions as Badger requires
	txn := d.badger.NewTransaction(true)
	defer func() { txn.Discard() }()

	apply := func(txn *badger.Txn, e memory.Entry) error {
		if e.Delete {
			return txn.Delete(d.key(e.Key))
		}
		return txn.Set(d.key(e.Key), e.Value)
	}

	for _, e := range entries {
		err := apply(txn, e)
		if !errors.Is(err, badger.ErrTxnTooBig) {
			if err != nil {
				return errors.UnknownError.WithFormat("write %v: %w", e.Key, err)
			}
			continue
		}

		err = txn.Commit()
		if err != nil {
			return errors.UnknownError.WithFormat("commit: %w", err)
		}
		mCommitSplits.Inc()
		txn = d.badger.NewTransaction(true)
		err = apply(txn, e)
		if err != nil {
			return errors.UnknownError.WithFormat("write %v: %w", e.Key, err)
		}
	}

	err = txn.Commit()
	if err != nil {
		return errors.UnknownError.WithFormat("commit: %w", err)
	}
	return nil
}

func (d *Database) forEach(txn *badger.Txn, fn func(*record.Key, []byte) error) error {
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		item := it.Item()
		key := new(record.Key)
		err := key.UnmarshalBinary(item.Key())
		if err != nil {
			slog.Error("Cannot unmarshal database key", "key", logging.AsHex(item.Key()), "error", err, "module", "badger")
			return errors.InternalError.WithFormat("cannot unmarshal key: %w", err)
		}

		value, err := item.ValueCopy(nil)
		if err != nil {
			return errors.UnknownError.WithFormat("get %v: %w", key, err)
		}

		err = fn(key, value)
		if err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying database.
func (d *Database) Close() error {
	if l, err := d.lock(true); err != nil {
		return err
	} else {
		defer l.Unlock()
	}

	d.ready = false
	close(d.done)
	mDbOpen.Dec()
	return d.badger.Close()
}

func (d *Database) gc() {
	tick := time.NewTicker(GCInterval)
	defer tick.Stop()

	for {
		select {
		case <-d.done:
			return
		case <-tick.C:
		}

		// Still open?
		l, err := d.lock(false)
		if err != nil {
			return
		}

		// Run GC if 50% space could be reclaimed
		start := time.Now()
		err = d.badger.RunValueLogGC(0.5)
		if err != nil && !errors.Is(err, badger.ErrNoRewrite) {
			slog.Error("Badger GC failed", "error", err, "module", "badger")
		}
		mGcRuns.Inc()
		mGcDuration.Set(time.Since(start).Seconds())

		l.Unlock()
	}
}

// lock acquires a lock on the ready mutex and checks for readiness. This
// prevents races between Commit and Close, which can cause panics.
func (d *Database) lock(closing bool) (sync.Locker, error) {
	var l sync.Locker = &d.mu
	if !closing {
		l = d.mu.RLocker()
	}

	l.Lock()
	if !d.ready {
		l.Unlock()
		return nil, errors.NotReady.With("database is closed")
	}

	return l, nil
}
