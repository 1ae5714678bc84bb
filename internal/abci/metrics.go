// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package abci

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mTxResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tokenledger",
		Subsystem: "abci",
		Name:      "tx_results_total",
		Help:      "Number of executed transactions by result",
	}, []string{"result"})
	mHeight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "tokenledger",
		Subsystem: "abci",
		Name:      "height",
		Help:      "Height of the last committed block",
	})
)
