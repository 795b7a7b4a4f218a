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

package translator

import (
	"context"
	"fmt"
	"strings"

	"github.com/eida/eidangws/internal/fdsnws"
	"github.com/eida/eidangws/internal/httperrors"
	"github.com/eida/eidangws/internal/i18n"
	"github.com/eida/eidangws/internal/tempfile"
)

// RoutingResolver provides the routing service URL for a node selector
type RoutingResolver interface {
	RoutingURL(ctx context.Context, selector string) (string, error)
}

// Translator turns the parameters of a request into the invocation of the fetch tool.
// It is immutable once built, and shared by all requests.
type Translator struct {
	Routing  RoutingResolver
	Selector string
	Mapping  ParameterMapping
}

// New builds a translator for the routing node selector
func New(routing RoutingResolver, selector string, mapping ParameterMapping) *Translator {
	return &Translator{
		Routing:  routing,
		Selector: selector,
		Mapping:  mapping,
	}
}

// Translate builds the invocation arguments. The output path is allocated from the
// scope, but not created. Unsupported parameters fail with BadRequest.
func (t *Translator) Translate(ctx context.Context, qa *fdsnws.QueryArgs, service string, tmp *tempfile.Scope) (*InvocationArguments, error) {
	ia := NewInvocationArguments()
	ia.Add(FlagOutfile, tmp.NewPath())

	routingURL, err := t.Routing.RoutingURL(ctx, t.Selector)
	if err != nil {
		return nil, httperrors.NewInternalServerError(err)
	}
	ia.Add(FlagRouting, routingURL)

	for _, a := range qa.Args() {
		if a.Value == nil {
			continue
		}
		enc, ok := t.Mapping[a.Name]
		if !ok {
			return nil, httperrors.NewBadRequest(ctx, i18n.MsgUnsupportedParameter, a.Name)
		}
		switch enc.Kind {
		case PositionalFlag:
			ia.Add(enc.Flag, *a.Value)
		case RepeatableQuery:
			ia.Add(FlagQuery, fmt.Sprintf("%s=%s", a.Name, *a.Value))
		}
	}

	ia.Add(FlagService, service)
	return ia, nil
}

// ApplyOverrides folds key=value lines extracted from a POST body into the query list
func ApplyOverrides(ia *InvocationArguments, overrides []KeyValue) {
	for _, kv := range overrides {
		ia.Add(FlagQuery, fmt.Sprintf("%s=%s", kv.Key, kv.Value))
	}
}

func isWildcardOnly(v string) bool {
	return strings.Trim(v, "*?,") == ""
}

// RequireConstrainedSNCL rejects a request where none of station, channel or location
// narrows the selection. A value made only of wildcards does not count.
func RequireConstrainedSNCL(ctx context.Context, ia *InvocationArguments) error {
	for _, flag := range []string{FlagStation, FlagChannel, FlagLocation} {
		if v, ok := ia.Get(flag); ok && !isWildcardOnly(v) {
			return nil
		}
	}
	return httperrors.NewBadRequest(ctx, i18n.MsgSNCLNotConstrained)
}
