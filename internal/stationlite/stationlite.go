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

// Package stationlite is the EIDA routing service. Stream routes are read from
// the stationlite database, and recent lookups are cached until the routes change.
package stationlite

import (
	"context"
	"net/http"

	"github.com/eida/eidangws/internal/apiserver"
	"github.com/eida/eidangws/internal/cache"
	"github.com/eida/eidangws/internal/config"
	"github.com/eida/eidangws/internal/database"
	"github.com/eida/eidangws/internal/database/difactory"
	"github.com/eida/eidangws/internal/log"
	"github.com/eida/eidangws/internal/metrics"
)

const (
	FormatPost = "post"
	FormatGet  = "get"
)

const routingPath = "/eidaws/routing/1/"

var databaseConfig = config.NewPluginConfig("stationlite.database")

// InitConfig registers the configuration of every database plugin
func InitConfig() {
	difactory.InitPrefix(databaseConfig)
}

// GetDatabasePlugin returns the configured, uninitialized, database plugin
func GetDatabasePlugin(ctx context.Context) (database.Plugin, error) {
	return difactory.GetPlugin(ctx, config.GetString(config.StationliteDatabaseType))
}

// Stationlite is the apiserver.Frontend of the routing service
type Stationlite struct {
	database    database.Plugin
	routeCache  cache.CInterface
	metrics     metrics.Manager
	postMaxSize int64
	version     string
}

// New initializes the database plugin, which reports route changes back to the
// returned Stationlite
func New(ctx context.Context, di database.Plugin, cm cache.Manager, mm metrics.Manager) (*Stationlite, error) {
	routeCache, err := cm.GetCache(cache.NewCacheConfig(ctx, config.StationliteCacheSize, config.StationliteCacheTTL))
	if err != nil {
		return nil, err
	}
	sl := &Stationlite{
		database:    di,
		routeCache:  routeCache,
		metrics:     mm,
		postMaxSize: config.GetByteSize(config.StationlitePostMaxSize),
		version:     config.GetString(config.ServiceVersion),
	}
	if err := di.Init(ctx, databaseConfig.SubPrefix(di.Name()), sl); err != nil {
		return nil, err
	}
	log.L(ctx).Infof("Stationlite using %s database (route cache enabled=%t)", di.Name(), routeCache.IsEnabled())
	return sl, nil
}

// StreamRoutesChanged drops every cached lookup
func (sl *Stationlite) StreamRoutesChanged() {
	log.L(context.Background()).Debugf("Stream routes changed, clearing route cache")
	sl.routeCache.Clear()
}

// Database is the persistence of the stream routes
func (sl *Stationlite) Database() database.PersistenceInterface {
	return sl.database
}

func (sl *Stationlite) Close() {
	sl.database.Close()
}

func (sl *Stationlite) Name() string {
	return "stationlite"
}

func (sl *Stationlite) Routes() []*apiserver.Route {
	return []*apiserver.Route{
		{
			Name:    "routingGet",
			Path:    routingPath + "query",
			Methods: []string{http.MethodGet},
			Handler: sl.getHandler,
		},
		{
			Name:    "routingPost",
			Path:    routingPath + "query",
			Methods: []string{http.MethodPost},
			Handler: sl.postHandler,
		},
		{
			Name:    "routingVersion",
			Path:    routingPath + "version",
			Methods: []string{http.MethodGet},
			Handler: apiserver.TextHandler(sl.version),
		},
	}
}
