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

// Package federator serves the FDSNWS dataselect and station resources of the
// EIDA federator. Each request is translated into a single invocation of the
// fetch tool, which federates the request across the EIDA nodes.
package federator

import (
	"context"
	"net/http"

	"github.com/eida/eidangws/internal/apiserver"
	"github.com/eida/eidangws/internal/config"
	"github.com/eida/eidangws/internal/fdsnws"
	"github.com/eida/eidangws/internal/fetch"
	"github.com/eida/eidangws/internal/log"
	"github.com/eida/eidangws/internal/tempfile"
	"github.com/eida/eidangws/internal/translator"
)

const (
	MimetypeMseed = "application/vnd.fdsn.mseed"
	MimetypeXML   = "application/xml"
	MimetypeText  = "text/plain"
)

// resource is a federated FDSNWS service
type resource struct {
	service     string
	vocabulary  *fdsnws.Vocabulary
	translator  *translator.Translator
	requireSNCL bool
	mimetype    func(qa *fdsnws.QueryArgs) string
}

// Federator is the apiserver.Frontend of the federator
type Federator struct {
	runner       fetch.Runner
	temp         *tempfile.Allocator
	postMaxSize  int64
	maxURILength int
	version      string
	resources    []*resource
}

// New builds the federator from configuration. The fetch tool must be installed.
func New(ctx context.Context, routing translator.RoutingResolver, runner fetch.Runner) (*Federator, error) {
	if err := runner.Check(ctx); err != nil {
		return nil, err
	}
	selector := config.GetString(config.FederatorRouting)
	f := &Federator{
		runner: runner,
		temp: &tempfile.Allocator{
			Dir:    config.GetString(config.FederatorTempDir),
			Prefix: "eidangws-",
		},
		postMaxSize:  config.GetByteSize(config.FederatorPostMaxSize),
		maxURILength: config.GetInt(config.FederatorGetMaxURILength),
		version:      config.GetString(config.ServiceVersion),
		resources: []*resource{
			{
				service:     fdsnws.ServiceDataselect,
				vocabulary:  fdsnws.DataselectVocabulary,
				translator:  translator.New(routing, selector, translator.DataselectMapping),
				requireSNCL: true,
				mimetype:    func(qa *fdsnws.QueryArgs) string { return MimetypeMseed },
			},
			{
				service:    fdsnws.ServiceStation,
				vocabulary: fdsnws.StationVocabulary,
				translator: translator.New(routing, selector, translator.StationMapping),
				mimetype:   stationMimetype,
			},
		},
	}
	log.L(ctx).Infof("Federator routing=%s tempDir=%s postMaxSize=%d maxURILength=%d", selector, f.temp.Dir, f.postMaxSize, f.maxURILength)
	return f, nil
}

func stationMimetype(qa *fdsnws.QueryArgs) string {
	if format, ok := qa.Get("format"); ok && format == "text" {
		return MimetypeText
	}
	return MimetypeXML
}

func (f *Federator) Name() string {
	return "federator"
}

func (f *Federator) Routes() []*apiserver.Route {
	routes := make([]*apiserver.Route, 0, len(f.resources)*3)
	for _, r := range f.resources {
		routes = append(routes,
			&apiserver.Route{
				Name:    r.service + "Get",
				Path:    "/fdsnws/" + r.service + "/1/query",
				Methods: []string{http.MethodGet},
				Handler: f.getHandler(r),
			},
			&apiserver.Route{
				Name:    r.service + "Post",
				Path:    "/fdsnws/" + r.service + "/1/query",
				Methods: []string{http.MethodPost},
				Handler: f.postHandler(r),
			},
			&apiserver.Route{
				Name:    r.service + "Version",
				Path:    "/fdsnws/" + r.service + "/1/version",
				Methods: []string{http.MethodGet},
				Handler: apiserver.TextHandler(f.version),
			},
		)
	}
	return routes
}
