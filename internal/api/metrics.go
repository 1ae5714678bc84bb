// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tokenledger",
		Subsystem: "api",
		Name:      "requests_total",
		Help:      "Number of API requests by route and status",
	}, []string{"route", "status"})
	mRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tokenledger",
		Subsystem: "api",
		Name:      "request_duration_seconds",
		Help:      "API request duration in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})
	mTransfers = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tokenledger",
		Subsystem: "api",
		Name:      "transfers_total",
		Help:      "Number of transfers by result",
	}, []string{"result"})
)
