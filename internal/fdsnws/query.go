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

package fdsnws

import (
	"context"
	"net/url"
	"strings"

	"github.com/eida/eidangws/internal/httperrors"
	"github.com/eida/eidangws/internal/i18n"
	"github.com/eida/eidangws/internal/log"
)

// QueryArg is a single recognized parameter. A nil Value means supplied without a value.
type QueryArg struct {
	Name  string
	Value *string
}

// QueryArgs is the ordered, immutable set of parameters of a single request
type QueryArgs struct {
	args []QueryArg
}

// aliases are the abbreviated parameter names allowed by the FDSNWS specification
var aliases = map[string]string{
	"net":    "network",
	"sta":    "station",
	"loc":    "location",
	"cha":    "channel",
	"start":  "starttime",
	"end":    "endtime",
	"minlat": "minlatitude",
	"maxlat": "maxlatitude",
	"minlon": "minlongitude",
	"maxlon": "maxlongitude",
	"lat":    "latitude",
	"lon":    "longitude",
}

// CanonicalName resolves FDSNWS abbreviations to the full parameter name
func CanonicalName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if full, ok := aliases[name]; ok {
		return full
	}
	return name
}

// NewQueryArgs builds a set from name/value pairs, in order. The first occurrence of a name wins.
func NewQueryArgs(pairs ...QueryArg) *QueryArgs {
	qa := &QueryArgs{}
	for _, p := range pairs {
		qa = qa.with(p.Name, p.Value, false)
	}
	return qa
}

// Str is a convenience for building QueryArg values
func Str(s string) *string {
	return &s
}

func (qa *QueryArgs) with(name string, value *string, override bool) *QueryArgs {
	name = CanonicalName(name)
	args := make([]QueryArg, 0, len(qa.args)+1)
	replaced := false
	for _, a := range qa.args {
		if a.Name == name {
			if override {
				a.Value = value
			}
			replaced = true
		}
		args = append(args, a)
	}
	if !replaced {
		args = append(args, QueryArg{Name: name, Value: value})
	}
	return &QueryArgs{args: args}
}

// With returns a copy of the set, with the named parameter overridden (or appended)
func (qa *QueryArgs) With(name, value string) *QueryArgs {
	return qa.with(name, &value, true)
}

// Get returns the value of a parameter, and whether it was supplied with a value
func (qa *QueryArgs) Get(name string) (string, bool) {
	name = CanonicalName(name)
	for _, a := range qa.args {
		if a.Name == name && a.Value != nil {
			return *a.Value, true
		}
	}
	return "", false
}

// Args returns a copy of the ordered parameters
func (qa *QueryArgs) Args() []QueryArg {
	return append([]QueryArg{}, qa.args...)
}

// Len is the number of parameters
func (qa *QueryArgs) Len() int {
	return len(qa.args)
}

// ParseRawQuery parses a URL query string, preserving the order parameters were supplied in
func ParseRawQuery(ctx context.Context, rawQuery string) (*QueryArgs, error) {
	qa := &QueryArgs{}
	for _, kv := range strings.FieldsFunc(rawQuery, func(r rune) bool { return r == '&' || r == ';' }) {
		var value *string
		key := kv
		if i := strings.Index(kv, "="); i >= 0 {
			key = kv[:i]
			v, err := url.QueryUnescape(kv[i+1:])
			if err != nil {
				return nil, httperrors.NewBadRequest(ctx, i18n.MsgInvalidParameterValue, kv[i+1:], key)
			}
			value = &v
		}
		key, err := url.QueryUnescape(key)
		if err != nil || strings.TrimSpace(key) == "" {
			return nil, httperrors.NewBadRequest(ctx, i18n.MsgUnsupportedParameter, kv)
		}
		if _, exists := qa.Get(key); exists {
			log.L(ctx).Debugf("Ignoring duplicate parameter '%s'", key)
			continue
		}
		qa = qa.with(key, value, false)
	}
	return qa, nil
}

var readableQuery = strings.NewReplacer("%2C", ",", "%2A", "*", "%3A", ":", "%3F", "?")

// Encode renders the parameters as a URL query string, in order, omitting valueless parameters
func (qa *QueryArgs) Encode() string {
	parts := make([]string, 0, len(qa.args))
	for _, a := range qa.args {
		if a.Value == nil {
			continue
		}
		parts = append(parts, url.QueryEscape(a.Name)+"="+readableQuery.Replace(url.QueryEscape(*a.Value)))
	}
	return strings.Join(parts, "&")
}
