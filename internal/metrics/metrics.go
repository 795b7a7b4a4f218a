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
	"context"
	"time"

	"github.com/eida/eidangws/internal/config"
)

// Manager records the domain metrics. All methods are no-ops when metrics are disabled.
type Manager interface {
	FetchCompleted(service, result string, duration time.Duration)
	RouteLookup(cacheHit bool, routes int)
	IsMetricsEnabled() bool
}

type metricsManager struct {
	ctx            context.Context
	metricsEnabled bool
}

// NewMetricsManager creates the manager, ensuring the registry is initialized
func NewMetricsManager(ctx context.Context) Manager {
	mm := &metricsManager{
		ctx:            ctx,
		metricsEnabled: config.GetBool(config.MetricsEnabled),
	}
	if mm.metricsEnabled {
		Registry()
	}
	return mm
}

func (mm *metricsManager) FetchCompleted(service, result string, duration time.Duration) {
	if !mm.metricsEnabled {
		return
	}
	FetchInvocationsCounter.WithLabelValues(service, result).Inc()
	FetchDurationHistogram.WithLabelValues(service).Observe(duration.Seconds())
}

func (mm *metricsManager) RouteLookup(cacheHit bool, routes int) {
	if !mm.metricsEnabled {
		return
	}
	if cacheHit {
		RouteCacheCounter.WithLabelValues("hit").Inc()
	} else {
		RouteCacheCounter.WithLabelValues("miss").Inc()
	}
	RoutesReturnedHistogram.Observe(float64(routes))
}

func (mm *metricsManager) IsMetricsEnabled() bool {
	return mm.metricsEnabled
}
