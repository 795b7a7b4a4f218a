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

package database

import (
	"context"
	"time"

	"github.com/eida/eidangws/internal/config"
)

// Plugin is the interface implemented by each database plugin
type Plugin interface {
	PersistenceInterface

	// Name is the name of the plugin, as selected in configuration
	Name() string

	// InitPrefix initializes the set of configuration options that are valid, with defaults. Called on all plugins.
	InitPrefix(prefix config.Prefix)

	// Init initializes the plugin, with configuration
	Init(ctx context.Context, prefix config.Prefix, callbacks Callbacks) error
}

// Callbacks are notified after changes to the routing table are committed
type Callbacks interface {
	StreamRoutesChanged()
}

// PersistenceInterface is the routing table of stationlite.
//
// The table maps stream epochs of a service (dataselect, station, wfcatalog) to
// the endpoint URL of the data center serving them. It is populated by the
// harvesting tooling, and read by the routing resource.
type PersistenceInterface interface {
	// RunAsGroup groups the database operations performed within fn into a single
	// transaction. The context passed to fn must be used for each operation.
	RunAsGroup(ctx context.Context, fn func(ctx context.Context) error) error

	// UpsertStreamRoute inserts a route, or updates the end time of an existing route
	// with the same stream, service, URL and start time
	UpsertStreamRoute(ctx context.Context, route *StreamRoute) error

	// StreamRoutes returns the routes matching the filter, ordered by URL then stream
	StreamRoutes(ctx context.Context, filter *StreamRouteFilter) ([]*StreamRoute, error)

	// DeleteStreamRoutes removes every route of a service to a URL
	DeleteStreamRoutes(ctx context.Context, service, url string) error

	// Close releases the database connections
	Close()
}

// StreamRoute routes a stream epoch of a service to the endpoint of a data center.
// An empty location is stored as "", and a nil EndTime is an open epoch.
type StreamRoute struct {
	Network   string
	Station   string
	Location  string
	Channel   string
	Service   string
	URL       string
	StartTime time.Time
	EndTime   *time.Time
}

// StreamRouteFilter selects routes. Each SNCL list holds patterns with the FDSNWS
// wildcards "*" and "?", any of which may match. An empty list matches everything.
// Routes are selected when their epoch overlaps the time window.
type StreamRouteFilter struct {
	Service   string
	Network   []string
	Station   []string
	Location  []string
	Channel   []string
	StartTime *time.Time
	EndTime   *time.Time
}
