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

import "github.com/eida/eidangws/internal/fdsnws"

// EncodingKind is the variant of a parameter encoding
type EncodingKind int

const (
	// PositionalFlag maps the parameter to its own single value flag
	PositionalFlag EncodingKind = iota + 1
	// RepeatableQuery folds the parameter into the query list as name=value
	RepeatableQuery
)

// Encoding describes how one recognized parameter is passed to the fetch tool
type Encoding struct {
	Kind EncodingKind
	Flag string
}

// Positional encodes a parameter as the given flag
func Positional(flag string) Encoding {
	return Encoding{Kind: PositionalFlag, Flag: flag}
}

// Repeatable encodes a parameter as a -q name=value entry
var Repeatable = Encoding{Kind: RepeatableQuery, Flag: FlagQuery}

// ParameterMapping is the constant table of supported parameters. A name
// missing from the table is not supported.
type ParameterMapping map[string]Encoding

func merge(mappings ...ParameterMapping) ParameterMapping {
	m := ParameterMapping{}
	for _, mapping := range mappings {
		for k, v := range mapping {
			m[k] = v
		}
	}
	return m
}

var generalMapping = ParameterMapping{
	"starttime": Positional(FlagStart),
	"endtime":   Positional(FlagEnd),
	"network":   Positional(FlagNetwork),
	"station":   Positional(FlagStation),
	"location":  Positional(FlagLocation),
	"channel":   Positional(FlagChannel),
	"format":    Repeatable,
	"nodata":    Repeatable,
}

var dataselectMapping = ParameterMapping{
	"quality":       Repeatable,
	"minimumlength": Repeatable,
	"longestonly":   Repeatable,
}

var stationMapping = ParameterMapping{
	"minlatitude":         Repeatable,
	"maxlatitude":         Repeatable,
	"minlongitude":        Repeatable,
	"maxlongitude":        Repeatable,
	"latitude":            Repeatable,
	"longitude":           Repeatable,
	"minradius":           Repeatable,
	"maxradius":           Repeatable,
	"level":               Repeatable,
	"includerestricted":   Repeatable,
	"includeavailability": Repeatable,
	"updatedafter":        Repeatable,
	"matchtimeseries":     Repeatable,
}

var (
	// DataselectMapping is the table for the dataselect service
	DataselectMapping = merge(generalMapping, dataselectMapping)
	// StationMapping is the table for the station service
	StationMapping = merge(generalMapping, stationMapping)
	// DefaultMapping accepts every parameter of every service
	DefaultMapping = merge(generalMapping, dataselectMapping, stationMapping)
)

// MappingFor returns the table for a service, or DefaultMapping
func MappingFor(service string) ParameterMapping {
	switch service {
	case fdsnws.ServiceDataselect:
		return DataselectMapping
	case fdsnws.ServiceStation:
		return StationMapping
	default:
		return DefaultMapping
	}
}
