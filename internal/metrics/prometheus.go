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
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var registry *prometheus.Registry
var instrumentations = map[string]*Instrumentation{}

// Registry returns the customized Prometheus registry
func Registry() *prometheus.Registry {
	if registry == nil {
		initMetricsCollectors()
		registry = prometheus.NewRegistry()
		registerMetricsCollectors()
	}

	return registry
}

// GetServerInstrumentation returns the HTTP middleware of a named server, ensuring its metrics are never
// registered twice
func GetServerInstrumentation(subsystem string) *Instrumentation {
	i, ok := instrumentations[subsystem]
	if !ok {
		i = NewCustomInstrumentation(
			true,
			"eida_apiserver",
			subsystem,
			prometheus.DefBuckets,
			map[string]string{},
			Registry(),
		)
		instrumentations[subsystem] = i
	}
	return i
}

// Clear will reset the Prometheus metrics registry and instrumentations, useful for testing
func Clear() {
	registry = nil
	instrumentations = map[string]*Instrumentation{}
}

func initMetricsCollectors() {
	InitFetchMetrics()
	InitRouteMetrics()
}

func registerMetricsCollectors() {
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	RegisterFetchMetrics()
	RegisterRouteMetrics()
}
