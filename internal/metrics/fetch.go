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

var FetchInvocationsCounter *prometheus.CounterVec
var FetchDurationHistogram *prometheus.HistogramVec

// MetricsFetchInvocations is the prometheus metric for invocations of the fetch tool
var MetricsFetchInvocations = "eida_fetch_invocations_total"

// MetricsFetchDuration is the prometheus metric for the duration of the fetch tool
var MetricsFetchDuration = "eida_fetch_duration_seconds"

const (
	ServiceLabelName = "service"
	ResultLabelName  = "result"
)

// Results of an invocation of the fetch tool
const (
	FetchResultData    = "data"
	FetchResultNoData  = "nodata"
	FetchResultFailed  = "failed"
	FetchResultTimeout = "timeout"
)

func InitFetchMetrics() {
	FetchInvocationsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: MetricsFetchInvocations,
		Help: "Number of invocations of the fetch tool, by result",
	}, []string{ServiceLabelName, ResultLabelName})
	FetchDurationHistogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    MetricsFetchDuration,
		Help:    "Duration of the fetch tool",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 600},
	}, []string{ServiceLabelName})
}

func RegisterFetchMetrics() {
	registry.MustRegister(FetchInvocationsCounter)
	registry.MustRegister(FetchDurationHistogram)
}
