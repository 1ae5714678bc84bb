// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package badger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ledger storage metrics, exported as tokenledger_storage_* with
// driver="badger" so they sit next to the other storage drivers.
var (
	mDbOpen         = gauge("open_databases", "Number of open ledger databases")
	mTxnOpen        = gauge("open_transactions", "Number of open ledger change sets")
	mCommitDuration = gauge("commit_duration_seconds", "Duration of the last ledger commit")
	mGcDuration     = gauge("gc_duration_seconds", "Duration of the last value log garbage collection")

	mCommitSplits = counter("commit_splits_total", "Ledger commits that were too big for one Badger transaction and were split")
	mGcRuns       = counter("gc_runs_total", "Value log garbage collection runs")
)

var labels = prometheus.Labels{"driver": "badger"}

func gauge(name, help string) prometheus.Gauge {
	return promauto.NewGauge(prometheus.GaugeOpts{
		Namespace:   "tokenledger",
		Subsystem:   "storage",
		Name:        name,
		Help:        help,
		ConstLabels: labels,
	})
}

func counter(name, help string) prometheus.Counter {
	return promauto.NewCounter(prometheus.CounterOpts{
		Namespace:   "tokenledger",
		Subsystem:   "storage",
		Name:        name,
		Help:        help,
		ConstLabels: labels,
	})
}
