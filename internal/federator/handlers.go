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

package federator

import (
	"context"
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/eida/eidangws/internal/apiserver"
	"github.com/eida/eidangws/internal/fdsnws"
	"github.com/eida/eidangws/internal/httperrors"
	"github.com/eida/eidangws/internal/i18n"
	"github.com/eida/eidangws/internal/log"
	"github.com/eida/eidangws/internal/translator"
)

func (f *Federator) parseQuery(ctx context.Context, req *http.Request, r *resource) (*fdsnws.QueryArgs, error) {
	qa, err := fdsnws.ParseRawQuery(ctx, req.URL.RawQuery)
	if err != nil {
		return nil, err
	}
	if err := r.vocabulary.Validate(ctx, qa); err != nil {
		return nil, err
	}
	return qa, nil
}

func (f *Federator) getHandler(r *resource) apiserver.HandlerFunc {
	return func(res http.ResponseWriter, req *http.Request) (status int, err error) {
		ctx := req.Context()
		if f.maxURILength > 0 && len(req.URL.RequestURI()) > f.maxURILength {
			return http.StatusRequestURITooLong, httperrors.NewRequestURITooLarge(ctx, i18n.MsgRequestURITooLarge, f.maxURILength)
		}
		qa, err := f.parseQuery(ctx, req, r)
		if err != nil {
			return http.StatusBadRequest, err
		}

		scope := f.temp.NewScope(ctx)
		defer scope.Close()

		ia, err := r.translator.Translate(ctx, qa, r.service, scope)
		if err != nil {
			return http.StatusBadRequest, err
		}
		if r.requireSNCL {
			if err := translator.RequireConstrainedSNCL(ctx, ia); err != nil {
				return http.StatusBadRequest, err
			}
		}
		return f.process(res, req, r, qa, ia)
	}
}

func (f *Federator) readBody(ctx context.Context, req *http.Request) (string, error) {
	return apiserver.ReadBody(ctx, req, f.postMaxSize)
}

func (f *Federator) postHandler(r *resource) apiserver.HandlerFunc {
	return func(res http.ResponseWriter, req *http.Request) (status int, err error) {
		ctx := req.Context()
		body, err := f.readBody(ctx, req)
		if err != nil {
			return http.StatusRequestEntityTooLarge, err
		}
		qa, err := f.parseQuery(ctx, req, r)
		if err != nil {
			return http.StatusBadRequest, err
		}
		cleaned, overrides, err := translator.SplitPostBody(ctx, body)
		if err != nil {
			return http.StatusBadRequest, err
		}
		// nodata and format may also be supplied in the body
		effective := qa
		for _, kv := range overrides {
			effective = effective.With(kv.Key, kv.Value)
		}
		if err := r.vocabulary.Validate(ctx, effective); err != nil {
			return http.StatusBadRequest, err
		}

		scope := f.temp.NewScope(ctx)
		defer scope.Close()

		ia, err := r.translator.Translate(ctx, qa, r.service, scope)
		if err != nil {
			return http.StatusBadRequest, err
		}
		postfile, err := scope.WriteFile([]byte(cleaned))
		if err != nil {
			return http.StatusInternalServerError, httperrors.NewInternalServerError(err)
		}
		ia.Add(translator.FlagPostfile, postfile)
		translator.ApplyOverrides(ia, overrides)
		return f.process(res, req, r, effective, ia)
	}
}

func (f *Federator) process(res http.ResponseWriter, req *http.Request, r *resource, qa *fdsnws.QueryArgs, ia *translator.InvocationArguments) (int, error) {
	ctx := req.Context()
	path, ok := f.runner.Run(ctx, ia)
	if !ok {
		return http.StatusNoContent, httperrors.NewNoData(fdsnws.NoDataCode(qa))
	}
	return sendFile(ctx, res, path, r.mimetype(qa))
}

// sendFile streams the output of the fetch tool. Once the header is written failures
// can only be logged.
func sendFile(ctx context.Context, res http.ResponseWriter, path, mimetype string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return http.StatusInternalServerError, httperrors.NewInternalServerError(err)
	}
	defer file.Close()

	res.Header().Set("Content-Type", mimetype)
	if fi, err := file.Stat(); err == nil {
		res.Header().Set("Content-Length", strconv.FormatInt(fi.Size(), 10))
	}
	res.WriteHeader(http.StatusOK)
	if _, err := io.Copy(res, file); err != nil {
		log.L(ctx).Errorf("Failed to send %s: %s", path, err)
	}
	return http.StatusOK, nil
}
