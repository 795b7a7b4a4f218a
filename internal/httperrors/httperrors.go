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

// Package httperrors implements the FDSN web service error taxonomy, and the
// plain text error message document defined by the FDSN specification.
//
// See also: http://www.fdsn.org/webservices/FDSN-WS-Specifications-1.1.pdf
package httperrors

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/eida/eidangws/internal/i18n"
)

// Kind is the variant of an FDSN error
type Kind int

const (
	InternalServerError Kind = iota
	NoData
	BadRequest
	RequestTooLarge
	RequestURITooLarge
	TemporarilyUnavailable
)

const errorMessageTemplate = `
Error %d: %s

%s

Usage details are available from %s

Request:
%s

Request Submitted:
%s

Service version:
%s
`

var kindInfo = map[Kind]struct {
	code  int
	short string
}{
	NoData:                 {http.StatusNoContent, ""},
	BadRequest:             {http.StatusBadRequest, "Bad request"},
	RequestTooLarge:        {http.StatusRequestEntityTooLarge, "Request too large"},
	RequestURITooLarge:     {http.StatusRequestURITooLong, "Request URI too large"},
	InternalServerError:    {http.StatusInternalServerError, "Internal server error"},
	TemporarilyUnavailable: {http.StatusServiceUnavailable, "Service temporarily unavailable"},
}

// DefaultNoContentCodes are the status codes a client may select for "no data"
var DefaultNoContentCodes = []int{http.StatusNoContent, http.StatusNotFound}

// FDSNError is the typed error returned by the request processing layers.
// The API server renders it into the FDSN error document.
type FDSNError struct {
	Kind   Kind
	Code   int
	Detail error
}

func (e *FDSNError) Error() string {
	if e.Detail != nil {
		return e.Detail.Error()
	}
	if e.Kind == NoData {
		return fmt.Sprintf("No data (%d)", e.Code)
	}
	return fmt.Sprintf("%d: %s", e.Code, e.Short())
}

func (e *FDSNError) Unwrap() error {
	return e.Detail
}

// Short is the simple error description
func (e *FDSNError) Short() string {
	return kindInfo[e.Kind].short
}

// Long is the detailed error description
func (e *FDSNError) Long() string {
	if e.Detail != nil {
		return e.Detail.Error()
	}
	return e.Short()
}

// Render produces the response body. NoData always has an empty body.
func (e *FDSNError) Render(requestURL string, requestTime time.Time, documentationURI, serviceVersion string) string {
	if e.Kind == NoData {
		return ""
	}
	return fmt.Sprintf(errorMessageTemplate,
		e.Code, e.Short(), e.Long(),
		documentationURI, requestURL,
		requestTime.UTC().Format("2006-01-02T15:04:05.000000"),
		serviceVersion)
}

func newKind(kind Kind, detail error) *FDSNError {
	return &FDSNError{Kind: kind, Code: kindInfo[kind].code, Detail: detail}
}

// FromStatusCode maps a status code to the error taxonomy. Codes in noContentCodes
// are NoData (retaining the code), anything unmapped is an InternalServerError.
func FromStatusCode(code int, noContentCodes []int, detail error) *FDSNError {
	for _, c := range noContentCodes {
		if c == code {
			return &FDSNError{Kind: NoData, Code: code, Detail: detail}
		}
	}
	switch code {
	case http.StatusBadRequest:
		return newKind(BadRequest, detail)
	case http.StatusRequestEntityTooLarge:
		return newKind(RequestTooLarge, detail)
	case http.StatusRequestURITooLong:
		return newKind(RequestURITooLarge, detail)
	case http.StatusServiceUnavailable:
		return newKind(TemporarilyUnavailable, detail)
	default:
		return newKind(InternalServerError, detail)
	}
}

// NewNoData is returned when a request matched nothing, or the fetch produced nothing.
// The code is the client selected "nodata" code, 0 for the default of 204.
func NewNoData(code int) *FDSNError {
	if code == 0 {
		code = http.StatusNoContent
	}
	return &FDSNError{Kind: NoData, Code: code}
}

// NoDataStatus is the status written for a NoData error. Codes outside
// noContentCodes fall back to 204.
func NoDataStatus(code int, noContentCodes []int) int {
	for _, c := range noContentCodes {
		if c == code {
			return code
		}
	}
	return http.StatusNoContent
}

func NewBadRequest(ctx context.Context, msg i18n.MessageKey, inserts ...interface{}) *FDSNError {
	return newKind(BadRequest, i18n.NewError(ctx, msg, inserts...))
}

func NewRequestTooLarge(ctx context.Context, msg i18n.MessageKey, inserts ...interface{}) *FDSNError {
	return newKind(RequestTooLarge, i18n.NewError(ctx, msg, inserts...))
}

func NewRequestURITooLarge(ctx context.Context, msg i18n.MessageKey, inserts ...interface{}) *FDSNError {
	return newKind(RequestURITooLarge, i18n.NewError(ctx, msg, inserts...))
}

func NewInternalServerError(detail error) *FDSNError {
	return newKind(InternalServerError, detail)
}

func NewTemporarilyUnavailable(detail error) *FDSNError {
	return newKind(TemporarilyUnavailable, detail)
}
