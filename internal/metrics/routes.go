// Copyright © 2021 Kaleido, Inc.
//
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var RouteCacheCounter *prometheus.CounterVec
var RoutesReturnedHistogram prometheus.Histogram

// MetricsRouteCache is the prometheus metric for route lookups, by cache result
var MetricsRouteCache = "eida_stationlite_route_lookups_total"

// MetricsRoutesReturned is the prometheus metric for the number of routes per lookup
var MetricsRoutesReturned = "eida_stationlite_routes_returned"

const (
	CacheLabelName = "cache"
)

func InitRouteMetrics() {
	RouteCacheCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: MetricsRouteCache,
		Help: "Number of route lookups, by cache hit or miss",
	}, []string{CacheLabelName})
	RoutesReturnedHistogram = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    MetricsRoutesReturned,
		Help:    "Number of stream routes returned by a lookup",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	})
}

func RegisterRouteMetrics() {
	registry.MustRegister(RouteCacheCounter)
	registry.MustRegister(RoutesReturnedHistogram)
}
