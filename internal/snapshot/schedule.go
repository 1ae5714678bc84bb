// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package snapshot

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"gitlab.com/accumulatenetwork/tokenledger/internal/ledger"
	"gitlab.com/accumulatenetwork/tokenledger/pkg/errors"
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSchedule parses a standard five-field cron expression or a descriptor
// such as @hourly.
func ParseSchedule(spec string) (cron.Schedule, error) {
	s, err := parser.Parse(spec)
	if err != nil {
		return nil, errors.BadRequest.WithFormat("invalid snapshot schedule %q: %w", spec, err)
	}
	return s, nil
}

type Options struct {
	Ledger   *ledger.Handle
	Schedule cron.Schedule
	Dir      string
	Retain   int
	Logger   *slog.Logger

	// Now is used in place of [time.Now] if set.
	Now func() time.Time
}

// Scheduler takes a snapshot of the ledger each time the schedule fires.
type Scheduler struct {
	Options
	logger *slog.Logger
	next   time.Time
}

func NewScheduler(opts Options) *Scheduler {
	s := &Scheduler{Options: opts, logger: opts.Logger}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("module", "snapshot")
	if s.Now == nil {
		s.Now = time.Now
	}
	return s
}

// Next returns the time of the next snapshot.
func (s *Scheduler) Next() time.Time {
	if s.next.IsZero() {
		s.next = s.Schedule.Next(s.Now().UTC())
	}
	return s.next
}

// Run takes snapshots until the context is canceled.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		timer := time.NewTimer(time.Until(s.Next()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}

		_, err := s.Take()
		if err != nil {
			s.logger.ErrorContext(ctx, "Snapshot failed", "error", err)
		}
	}
}

// Take writes a snapshot now, prunes old snapshots, and advances the
// schedule. An uninitialized ledger is skipped.
func (s *Scheduler) Take() (string, error) {
	now := s.Now().UTC()
	s.next = s.Schedule.Next(now)

	state, err := s.Ledger.State()
	if errors.Is(err, errors.NotInitialized) {
		s.logger.Debug("Skipping snapshot of uninitialized ledger")
		return "", nil
	}
	if err != nil {
		return "", err
	}

	file, err := Write(s.Dir, state, now)
	if err != nil {
		return "", err
	}
	s.logger.Info("Snapshot", "file", file, "accounts", len(state.Balances), "next", s.next)

	pruned, err := Prune(s.Dir, s.Retain)
	if err != nil {
		return file, err
	}
	if len(pruned) > 0 {
		s.logger.Debug("Pruned snapshots", "count", len(pruned))
	}
	return file, nil
}
