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
	"regexp"
	"strconv"
	"strings"

	"github.com/eida/eidangws/internal/config"
	"github.com/eida/eidangws/internal/httperrors"
	"github.com/eida/eidangws/internal/i18n"
	"github.com/go-playground/validator/v10"
)

const (
	ServiceDataselect = "dataselect"
	ServiceStation    = "station"
	ServiceWFCatalog  = "wfcatalog"
	ServiceRouting    = "routing"
)

var snclRegex = regexp.MustCompile(`^[A-Za-z0-9*?,\-]*$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("fdsndatetime", func(fl validator.FieldLevel) bool {
		_, ok := ParseDatetime(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("sncl", func(fl validator.FieldLevel) bool {
		return snclRegex.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("nodata", func(fl validator.FieldLevel) bool {
		code, err := strconv.Atoi(fl.Field().String())
		return err == nil && isNoContentCode(code)
	})
	_ = v.RegisterValidation("fdsnbool", func(fl validator.FieldLevel) bool {
		_, err := strconv.ParseBool(fl.Field().String())
		return err == nil
	})
	// numrange=min;max on a numeric string, either bound may be empty
	_ = v.RegisterValidation("numrange", func(fl validator.FieldLevel) bool {
		f, err := strconv.ParseFloat(fl.Field().String(), 64)
		if err != nil {
			return false
		}
		bounds := strings.SplitN(fl.Param(), ";", 2)
		if bounds[0] != "" {
			if min, err := strconv.ParseFloat(bounds[0], 64); err != nil || f < min {
				return false
			}
		}
		if len(bounds) > 1 && bounds[1] != "" {
			if max, err := strconv.ParseFloat(bounds[1], 64); err != nil || f > max {
				return false
			}
		}
		return true
	})
	return v
}

// Vocabulary is the set of parameters a service accepts, with the validation rule for each value
type Vocabulary struct {
	Service string
	Rules   map[string]string
}

var generalRules = map[string]string{
	"starttime": "fdsndatetime",
	"endtime":   "fdsndatetime",
	"network":   "sncl",
	"station":   "sncl",
	"location":  "sncl",
	"channel":   "sncl",
	"nodata":    "nodata",
}

func extend(service string, base map[string]string, rules map[string]string) *Vocabulary {
	merged := make(map[string]string, len(base)+len(rules))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range rules {
		merged[k] = v
	}
	return &Vocabulary{Service: service, Rules: merged}
}

var (
	DataselectVocabulary = extend(ServiceDataselect, generalRules, map[string]string{
		"format":        "oneof=miniseed mseed",
		"quality":       "oneof=D R Q M B",
		"minimumlength": "numeric,numrange=0;",
		"longestonly":   "fdsnbool",
	})

	StationVocabulary = extend(ServiceStation, generalRules, map[string]string{
		"format":              "oneof=xml text",
		"minlatitude":         "numeric,numrange=-90;90",
		"maxlatitude":         "numeric,numrange=-90;90",
		"minlongitude":        "numeric,numrange=-180;180",
		"maxlongitude":        "numeric,numrange=-180;180",
		"latitude":            "numeric,numrange=-90;90",
		"longitude":           "numeric,numrange=-180;180",
		"minradius":           "numeric,numrange=0;180",
		"maxradius":           "numeric,numrange=0;180",
		"level":               "oneof=network station channel response",
		"includerestricted":   "fdsnbool",
		"includeavailability": "fdsnbool",
		"updatedafter":        "fdsndatetime",
		"matchtimeseries":     "fdsnbool",
	})

	RoutingVocabulary = extend(ServiceRouting, generalRules, map[string]string{
		"service":     "oneof=dataselect station wfcatalog",
		"format":      "oneof=post get",
		"alternative": "fdsnbool",
	})
)

// Knows returns true if the parameter is part of the vocabulary
func (v *Vocabulary) Knows(name string) bool {
	_, ok := v.Rules[CanonicalName(name)]
	return ok
}

// Validate checks every value for a parameter the vocabulary knows. Unknown
// parameters are left for the caller, which decides whether they are supported.
func (v *Vocabulary) Validate(ctx context.Context, qa *QueryArgs) error {
	for _, a := range qa.args {
		rule, known := v.Rules[a.Name]
		if !known || a.Value == nil || rule == "" {
			continue
		}
		if err := validate.Var(*a.Value, rule); err != nil {
			return httperrors.NewBadRequest(ctx, i18n.MsgInvalidParameterValue, *a.Value, a.Name)
		}
	}
	start, hasStart := qa.Get("starttime")
	end, hasEnd := qa.Get("endtime")
	if hasStart && hasEnd {
		st, _ := ParseDatetime(start)
		et, _ := ParseDatetime(end)
		if !st.Before(et) {
			return httperrors.NewBadRequest(ctx, i18n.MsgTimeWindowInverted)
		}
	}
	return nil
}

// RejectUnknown fails with BadRequest for the first parameter outside the vocabulary
func (v *Vocabulary) RejectUnknown(ctx context.Context, qa *QueryArgs) error {
	for _, a := range qa.args {
		if !v.Knows(a.Name) {
			return httperrors.NewBadRequest(ctx, i18n.MsgUnsupportedParameter, a.Name)
		}
	}
	return nil
}

// NoContentCodes are the status codes a client may select with nodata
func NoContentCodes() []int {
	codes := config.GetIntSlice(config.ServiceNoContentCodes)
	if len(codes) == 0 {
		return httperrors.DefaultNoContentCodes
	}
	return codes
}

func isNoContentCode(code int) bool {
	for _, c := range NoContentCodes() {
		if c == code {
			return true
		}
	}
	return false
}

// NoDataCode returns the client selected status code for empty results, 0 if not
// supplied or not one of the no content codes
func NoDataCode(qa *QueryArgs) int {
	if v, ok := qa.Get("nodata"); ok {
		if code, err := strconv.Atoi(v); err == nil && isNoContentCode(code) {
			return code
		}
	}
	return 0
}
