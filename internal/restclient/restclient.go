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

// Package restclient builds resty clients for the outbound calls of the services,
// such as fetching the EIDA node registry. Retries are left to the caller.
package restclient

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/eida/eidangws/internal/config"
	"github.com/eida/eidangws/internal/i18n"
	"github.com/eida/eidangws/internal/ids"
	"github.com/eida/eidangws/internal/log"
	"github.com/go-resty/resty/v2"
)

// maxErrorBody is the number of characters of a response body kept in an error
const maxErrorBody = 256

type requestStartKey struct{}

// New creates a resty client from the keys registered with InitPrefix
func New(ctx context.Context, prefix config.Prefix) *resty.Client {
	client := resty.New()
	if hc, ok := prefix.Get(HTTPCustomClient).(*http.Client); ok && hc != nil {
		client = resty.NewWithClient(hc)
	}

	baseURL := strings.TrimSuffix(prefix.GetString(HTTPConfigURL), "/")
	if baseURL != "" {
		client.SetBaseURL(baseURL)
	}
	if proxy := prefix.GetString(HTTPConfigProxyURL); proxy != "" {
		client.SetProxy(proxy)
	}
	client.SetTimeout(prefix.GetDuration(HTTPConfigRequestTimeout))

	for k, v := range prefix.GetStringMap(HTTPConfigHeaders) {
		if vs, ok := v.(string); ok {
			client.SetHeader(k, vs)
		}
	}
	if user, pass := prefix.GetString(HTTPConfigAuthUsername), prefix.GetString(HTTPConfigAuthPassword); user != "" && pass != "" {
		client.SetBasicAuth(user, pass)
	}

	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		rctx := log.WithLogField(req.Context(), "oreq", ids.ShortID())
		rctx = context.WithValue(rctx, requestStartKey{}, time.Now())
		req.SetContext(rctx)
		log.L(rctx).Infof("==> %s %s%s", req.Method, baseURL, req.URL)
		return nil
	})
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		logResponse(res)
		return nil
	})

	log.L(ctx).Debugf("Created REST client for '%s'", baseURL)
	return client
}

func logResponse(res *resty.Response) {
	if res == nil || res.Request == nil {
		return
	}
	rctx := res.Request.Context()
	start, ok := rctx.Value(requestStartKey{}).(time.Time)
	if !ok {
		return
	}
	elapsed := float64(time.Since(start)) / float64(time.Millisecond)
	log.L(rctx).Infof("<== %s %s [%d] (%.2fms)", res.Request.Method, res.Request.URL, res.StatusCode(), elapsed)
}

// WrapRestErr builds an error from a failed request. The last insert is the start
// of the response body.
func WrapRestErr(ctx context.Context, res *resty.Response, err error, key i18n.MessageKey, inserts ...interface{}) error {
	inserts = append(inserts, errorBody(res))
	if err != nil {
		return i18n.WrapError(ctx, err, key, inserts...)
	}
	return i18n.NewError(ctx, key, inserts...)
}

func errorBody(res *resty.Response) string {
	if res == nil {
		return ""
	}
	var body string
	if raw := res.RawBody(); raw != nil {
		defer func() { _ = raw.Close() }()
		if b, err := io.ReadAll(raw); err == nil {
			body = string(b)
		}
	}
	if body == "" {
		body = res.String()
	}
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody] + "..."
	}
	return body
}
