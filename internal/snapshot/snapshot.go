// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package snapshot writes point-in-time copies of the ledger to disk.
package snapshot

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gitlab.com/accumulatenetwork/tokenledger/internal/ledger"
	"gitlab.com/accumulatenetwork/tokenledger/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	filePrefix = "snapshot-"
	fileSuffix = ".yaml"
	timeLayout = "20060102T150405Z"
)

// FileName returns the name of the snapshot taken at the given time.
func FileName(t time.Time) string {
	return filePrefix + t.UTC().Format(timeLayout) + fileSuffix
}

// Write writes the state to dir and returns the path of the new snapshot.
func Write(dir string, s *ledger.State, t time.Time) (string, error) {
	err := os.MkdirAll(dir, 0700)
	if err != nil {
		return "", errors.UnknownError.WithFormat("create snapshot directory: %w", err)
	}

	buf := new(bytes.Buffer)
	enc := yaml.NewEncoder(buf)
	enc.SetIndent(2)
	err = enc.Encode(s)
	if err != nil {
		return "", errors.EncodingError.WithFormat("encode snapshot: %w", err)
	}

	// Write then rename so readers never see a partial snapshot
	file := filepath.Join(dir, FileName(t))
	tmp := file + ".tmp"
	err = os.WriteFile(tmp, buf.Bytes(), 0600)
	if err != nil {
		return "", errors.UnknownError.WithFormat("write snapshot: %w", err)
	}
	err = os.Rename(tmp, file)
	if err != nil {
		return "", errors.UnknownError.WithFormat("write snapshot: %w", err)
	}
	return file, nil
}

// Read reads a snapshot. The state is not validated; use [ledger.FromState] or
// [ledger.Handle.Restore] for that.
func Read(file string) (*ledger.State, error) {
	b, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.UnknownError.WithFormat("read snapshot: %w", err)
	}

	s := new(ledger.State)
	err = yaml.Unmarshal(b, s)
	if err != nil {
		return nil, errors.EncodingError.WithFormat("decode snapshot %s: %w", filepath.Base(file), err)
	}
	return s, nil
}

// List returns the snapshots in dir, oldest first. A missing directory has no
// snapshots.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist):
		return nil, nil
	default:
		return nil, errors.UnknownError.WithFormat("list snapshots: %w", err)
	}

	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}

	// The timestamp format sorts lexically
	sort.Strings(files)
	return files, nil
}

// Latest returns the most recent snapshot in dir, or [errors.NotFound].
func Latest(dir string) (string, error) {
	files, err := List(dir)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", errors.NotFound.WithFormat("no snapshots in %s", dir)
	}
	return files[len(files)-1], nil
}

// Prune deletes all but the newest retain snapshots. A retain of zero keeps
// everything.
func Prune(dir string, retain int) ([]string, error) {
	if retain <= 0 {
		return nil, nil
	}

	files, err := List(dir)
	if err != nil {
		return nil, err
	}
	if len(files) <= retain {
		return nil, nil
	}

	files = files[:len(files)-retain]
	for _, file := range files {
		err = os.Remove(file)
		if err != nil {
			return nil, errors.UnknownError.WithFormat("prune snapshot: %w", err)
		}
	}
	return files, nil
}
