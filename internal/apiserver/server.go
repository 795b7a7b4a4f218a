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

package apiserver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/eida/eidangws/internal/config"
	"github.com/eida/eidangws/internal/fdsnws"
	"github.com/eida/eidangws/internal/httperrors"
	"github.com/eida/eidangws/internal/i18n"
	"github.com/eida/eidangws/internal/ids"
	"github.com/eida/eidangws/internal/log"
	"github.com/eida/eidangws/internal/metrics"
)

// TextPlain is the content type of error documents, and of the plain text resources
const TextPlain = "text/plain; charset=utf-8"

var (
	apiConfigPrefix     = config.NewPluginConfig("http")
	metricsConfigPrefix = config.NewPluginConfig("metrics")
)

// HandlerFunc serves a resource. A returned error is rendered as an FDSN error document,
// so once a handler has started writing the response body it must return a nil error.
type HandlerFunc func(res http.ResponseWriter, req *http.Request) (status int, err error)

// Route binds a handler to a path template
type Route struct {
	Name    string
	Path    string
	Methods []string
	Handler HandlerFunc
}

// Frontend is a web service front-end, such as the federator or stationlite
type Frontend interface {
	Name() string
	Routes() []*Route
}

// Server is the external interface for the API Server
type Server interface {
	Serve(ctx context.Context, fe Frontend) error
	// Router builds the request handler of a front-end, without CORS
	Router(fe Frontend) http.Handler
}

type apiServer struct {
	documentationURI string
	serviceVersion   string
	publicURL        string
	noContentCodes   []int
	metricsEnabled   bool
}

type requestTimeKey struct{}

func InitConfig() {
	initHTTPConfPrefix(apiConfigPrefix, 8080, "15m")
	initHTTPConfPrefix(metricsConfigPrefix, 6000, "15s")
}

func NewAPIServer() Server {
	return &apiServer{
		documentationURI: config.GetString(config.ServiceDocumentationURI),
		serviceVersion:   config.GetString(config.ServiceVersion),
		publicURL:        strings.TrimSuffix(apiConfigPrefix.GetString(HTTPConfPublicURL), "/"),
		noContentCodes:   fdsnws.NoContentCodes(),
		metricsEnabled:   config.GetBool(config.MetricsEnabled),
	}
}

// RequestTime is the time the API server received the request
func RequestTime(ctx context.Context) time.Time {
	t, ok := ctx.Value(requestTimeKey{}).(time.Time)
	if !ok {
		return time.Now()
	}
	return t
}

// Serve is the main entry point for the API Server
func (as *apiServer) Serve(ctx context.Context, fe Frontend) (err error) {
	httpErrChan := make(chan error, 1)
	metricsErrChan := make(chan error, 1)

	apiHTTPServer, err := newHTTPServer(ctx, fe.Name(), wrapCorsIfEnabled(ctx, as.createMuxRouter(fe)), httpErrChan, apiConfigPrefix)
	if err != nil {
		return err
	}
	go apiHTTPServer.serveHTTP(ctx)

	if as.metricsEnabled {
		metricsHTTPServer, err := newHTTPServer(ctx, "metrics", as.createMetricsMuxRouter(), metricsErrChan, metricsConfigPrefix)
		if err != nil {
			return err
		}
		go metricsHTTPServer.serveHTTP(ctx)
	}

	return as.waitForServerStop(httpErrChan, metricsErrChan)
}

func (as *apiServer) waitForServerStop(httpErrChan, metricsErrChan chan error) error {
	select {
	case err := <-httpErrChan:
		return err
	case err := <-metricsErrChan:
		return err
	}
}

func (as *apiServer) requestURL(req *http.Request) string {
	if as.publicURL != "" {
		return as.publicURL + req.URL.RequestURI()
	}
	proto := "https"
	if req.TLS == nil {
		proto = "http"
	}
	return fmt.Sprintf("%s://%s%s", proto, req.Host, req.URL.RequestURI())
}

func (as *apiServer) apiWrapper(handler HandlerFunc) http.HandlerFunc {
	return func(res http.ResponseWriter, req *http.Request) {

		startTime := time.Now()
		ctx := log.WithLogField(req.Context(), "httpreq", ids.ShortID())
		ctx = context.WithValue(ctx, requestTimeKey{}, startTime)
		req = req.WithContext(ctx)

		l := log.L(ctx)
		l.Infof("--> %s %s", req.Method, req.URL.Path)
		status, err := handler(res, req)
		durationMS := float64(time.Since(startTime)) / float64(time.Millisecond)
		if err == nil {
			l.Infof("<-- %s %s [%d] (%.2fms)", req.Method, req.URL.Path, status, durationMS)
			return
		}

		fe := httperrors.Classify(err, as.noContentCodes)
		if fe.Kind == httperrors.NoData {
			code := httperrors.NoDataStatus(fe.Code, as.noContentCodes)
			l.Infof("<-- %s %s [%d] (%.2fms): no data", req.Method, req.URL.Path, code, durationMS)
			res.WriteHeader(code)
			return
		}
		l.Infof("<-- %s %s [%d] (%.2fms): %s", req.Method, req.URL.Path, fe.Code, durationMS, err)
		res.Header().Set("Content-Type", TextPlain)
		res.WriteHeader(fe.Code)
		_, _ = io.WriteString(res, fe.Render(as.requestURL(req), RequestTime(ctx), as.documentationURI, as.serviceVersion))
	}
}

// The taxonomy has no "not found" kind, and 404 may be configured as a no content code
func (as *apiServer) notFoundHandler(res http.ResponseWriter, req *http.Request) (status int, err error) {
	res.Header().Set("Content-Type", TextPlain)
	res.WriteHeader(http.StatusNotFound)
	_, _ = io.WriteString(res, i18n.ExpandWithCode(req.Context(), i18n.Msg404NotFound)+"\n")
	return http.StatusNotFound, nil
}

// TextHandler serves a fixed plain text document, such as a service version
func TextHandler(text string) HandlerFunc {
	return func(res http.ResponseWriter, req *http.Request) (status int, err error) {
		res.Header().Set("Content-Type", TextPlain)
		res.WriteHeader(http.StatusOK)
		if _, err := io.WriteString(res, text); err != nil {
			log.L(req.Context()).Warnf("Failed to send response: %s", err)
		}
		return http.StatusOK, nil
	}
}

// ReadBody reads a request body of at most maxSize bytes, or of any size if maxSize is zero
func ReadBody(ctx context.Context, req *http.Request, maxSize int64) (string, error) {
	if maxSize > 0 && req.ContentLength > maxSize {
		return "", httperrors.NewRequestTooLarge(ctx, i18n.MsgPostBodyTooLarge, maxSize)
	}
	reader := io.Reader(req.Body)
	if maxSize > 0 {
		reader = io.LimitReader(req.Body, maxSize+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return "", httperrors.NewBadRequest(ctx, i18n.MsgPostBodyReadFailed)
	}
	if maxSize > 0 && int64(len(body)) > maxSize {
		return "", httperrors.NewRequestTooLarge(ctx, i18n.MsgPostBodyTooLarge, maxSize)
	}
	return string(body), nil
}

func (as *apiServer) Router(fe Frontend) http.Handler {
	return as.createMuxRouter(fe)
}

func (as *apiServer) createMuxRouter(fe Frontend) *mux.Router {
	r := mux.NewRouter()
	if as.metricsEnabled {
		r.Use(metrics.GetServerInstrumentation(fe.Name()).Middleware)
	}

	for _, route := range fe.Routes() {
		r.HandleFunc(route.Path, as.apiWrapper(route.Handler)).
			Methods(route.Methods...).
			Name(route.Name)
	}

	r.NotFoundHandler = as.apiWrapper(as.notFoundHandler)
	return r
}

func (as *apiServer) createMetricsMuxRouter() *mux.Router {
	r := mux.NewRouter()

	r.Path(config.GetString(config.MetricsPath)).Handler(promhttp.InstrumentMetricHandler(metrics.Registry(),
		promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{})))

	return r
}
