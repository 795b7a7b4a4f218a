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

package stationlite

import (
	"context"
	"io"
	"net/http"

	"github.com/eida/eidangws/internal/apiserver"
	"github.com/eida/eidangws/internal/fdsnws"
	"github.com/eida/eidangws/internal/httperrors"
	"github.com/eida/eidangws/internal/i18n"
	"github.com/eida/eidangws/internal/log"
	"github.com/eida/eidangws/internal/translator"
)

type routingRequest struct {
	service string
	format  string
	nodata  int
	epochs  []*fdsnws.StreamEpoch
}

var supportedServices = map[string]bool{
	fdsnws.ServiceDataselect: true,
	fdsnws.ServiceStation:    true,
	fdsnws.ServiceWFCatalog:  true,
}

func newRoutingRequest(ctx context.Context, qa *fdsnws.QueryArgs) (*routingRequest, error) {
	if err := fdsnws.RoutingVocabulary.RejectUnknown(ctx, qa); err != nil {
		return nil, err
	}
	rr := &routingRequest{
		service: fdsnws.ServiceDataselect,
		format:  FormatPost,
		nodata:  fdsnws.NoDataCode(qa),
	}
	if service, ok := qa.Get("service"); ok {
		if !supportedServices[service] {
			return nil, httperrors.NewBadRequest(ctx, i18n.MsgUnsupportedRoutingService, service)
		}
		rr.service = service
	}
	if err := fdsnws.RoutingVocabulary.Validate(ctx, qa); err != nil {
		return nil, err
	}
	if format, ok := qa.Get("format"); ok {
		rr.format = format
	}
	// Alternative routes are not stored
	if alternative, ok := qa.Get("alternative"); ok && alternative != "false" {
		return nil, httperrors.NewBadRequest(ctx, i18n.MsgInvalidParameterValue, alternative, "alternative")
	}
	return rr, nil
}

func (sl *Stationlite) getHandler(res http.ResponseWriter, req *http.Request) (status int, err error) {
	ctx := req.Context()
	qa, err := fdsnws.ParseRawQuery(ctx, req.URL.RawQuery)
	if err != nil {
		return http.StatusBadRequest, err
	}
	rr, err := newRoutingRequest(ctx, qa)
	if err != nil {
		return http.StatusBadRequest, err
	}
	rr.epochs = []*fdsnws.StreamEpoch{fdsnws.StreamEpochFromQuery(qa)}
	return sl.process(res, req, rr)
}

func (sl *Stationlite) postHandler(res http.ResponseWriter, req *http.Request) (status int, err error) {
	ctx := req.Context()
	body, err := apiserver.ReadBody(ctx, req, sl.postMaxSize)
	if err != nil {
		return http.StatusRequestEntityTooLarge, err
	}
	qa, err := fdsnws.ParseRawQuery(ctx, req.URL.RawQuery)
	if err != nil {
		return http.StatusBadRequest, err
	}
	cleaned, overrides, err := translator.SplitPostBody(ctx, body)
	if err != nil {
		return http.StatusBadRequest, err
	}
	for _, kv := range overrides {
		qa = qa.With(kv.Key, kv.Value)
	}
	rr, err := newRoutingRequest(ctx, qa)
	if err != nil {
		return http.StatusBadRequest, err
	}
	if rr.epochs, err = fdsnws.ParseBulkLines(ctx, cleaned); err != nil {
		return http.StatusBadRequest, err
	}
	return sl.process(res, req, rr)
}

func (sl *Stationlite) process(res http.ResponseWriter, req *http.Request, rr *routingRequest) (int, error) {
	ctx := req.Context()
	groups, err := sl.resolve(ctx, rr)
	if err != nil {
		return http.StatusInternalServerError, httperrors.NewInternalServerError(err)
	}
	if len(groups) == 0 {
		return http.StatusNoContent, httperrors.NewNoData(rr.nodata)
	}

	var text string
	if rr.format == FormatGet {
		text = renderGet(groups)
	} else {
		text = renderPost(groups)
	}
	res.Header().Set("Content-Type", apiserver.TextPlain)
	res.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(res, text); err != nil {
		log.L(ctx).Warnf("Failed to send routes: %s", err)
	}
	return http.StatusOK, nil
}
