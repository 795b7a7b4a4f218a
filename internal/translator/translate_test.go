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
	"os"
	"testing"

	"github.com/eida/eidangws/internal/fdsnws"
	"github.com/eida/eidangws/internal/httperrors"
	"github.com/eida/eidangws/internal/tempfile"
	"github.com/eida/eidangws/mocks/translatormocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

const testRoutingURL = "http://eida.ethz.ch/eidaws/routing/1/query"

func newTestTranslator(t *testing.T, mapping ParameterMapping) (*Translator, *tempfile.Scope, func()) {
	mrr := &translatormocks.RoutingResolver{}
	mrr.On("RoutingURL", mock.Anything, "ETH").Return(testRoutingURL, nil)
	tmp := (&tempfile.Allocator{Dir: t.TempDir(), Prefix: "fetch-"}).NewScope(context.Background())
	return New(mrr, "ETH", mapping), tmp, tmp.Close
}

func TestTranslateRecognizedParams(t *testing.T) {
	tr, tmp, done := newTestTranslator(t, DataselectMapping)
	defer done()

	qa := fdsnws.NewQueryArgs(
		fdsnws.QueryArg{Name: "net", Value: fdsnws.Str("CH")},
		fdsnws.QueryArg{Name: "sta", Value: fdsnws.Str("DAVOX")},
		fdsnws.QueryArg{Name: "quality", Value: fdsnws.Str("B")},
		fdsnws.QueryArg{Name: "location"},
		fdsnws.QueryArg{Name: "start", Value: fdsnws.Str("2020-01-01")},
		fdsnws.QueryArg{Name: "minimumlength", Value: fdsnws.Str("10")},
	)
	ia, err := tr.Translate(context.Background(), qa, fdsnws.ServiceDataselect, tmp)
	assert.NoError(t, err)

	outfile, ok := ia.Get(FlagOutfile)
	assert.True(t, ok)
	assert.NotEmpty(t, outfile)
	assert.NoFileExists(t, outfile)
	assert.NoError(t, os.WriteFile(outfile, []byte("data"), 0600))
	tmp.Close()
	assert.NoFileExists(t, outfile)

	routing, _ := ia.Get(FlagRouting)
	assert.Equal(t, testRoutingURL, routing)
	service, _ := ia.Get(FlagService)
	assert.Equal(t, "dataselect", service)

	v, _ := ia.Get(FlagNetwork)
	assert.Equal(t, "CH", v)
	v, _ = ia.Get(FlagStation)
	assert.Equal(t, "DAVOX", v)
	v, _ = ia.Get(FlagStart)
	assert.Equal(t, "2020-01-01", v)
	_, ok = ia.Get(FlagLocation)
	assert.False(t, ok)

	assert.Equal(t, []string{"quality=B", "minimumlength=10"}, ia.List(FlagQuery))
}

func TestTranslateEveryMappedParam(t *testing.T) {
	for service, mapping := range map[string]ParameterMapping{
		fdsnws.ServiceDataselect: DataselectMapping,
		fdsnws.ServiceStation:    StationMapping,
		"":                       DefaultMapping,
	} {
		tr, tmp, done := newTestTranslator(t, mapping)
		pairs := []fdsnws.QueryArg{}
		for name := range mapping {
			pairs = append(pairs, fdsnws.QueryArg{Name: name, Value: fdsnws.Str("x")})
		}
		ia, err := tr.Translate(context.Background(), fdsnws.NewQueryArgs(pairs...), service, tmp)
		assert.NoError(t, err)
		for _, flag := range []string{FlagOutfile, FlagRouting} {
			v, ok := ia.Get(flag)
			assert.True(t, ok)
			assert.NotEmpty(t, v)
		}
		_, ok := ia.Get(FlagService)
		assert.True(t, ok)
		done()
	}
}

func TestTranslateUnsupportedParam(t *testing.T) {
	tr, tmp, done := newTestTranslator(t, StationMapping)
	defer done()

	_, err := tr.Translate(context.Background(), fdsnws.NewQueryArgs(
		fdsnws.QueryArg{Name: "network", Value: fdsnws.Str("CH")},
		fdsnws.QueryArg{Name: "quality", Value: fdsnws.Str("B")},
	), fdsnws.ServiceStation, tmp)
	assert.Regexp(t, "EIDA10108.*quality", err)
	assert.Equal(t, httperrors.BadRequest, err.(*httperrors.FDSNError).Kind)
}

func TestTranslateUnsupportedValuelessParamIgnored(t *testing.T) {
	tr, tmp, done := newTestTranslator(t, StationMapping)
	defer done()

	_, err := tr.Translate(context.Background(), fdsnws.NewQueryArgs(
		fdsnws.QueryArg{Name: "bogus"},
	), fdsnws.ServiceStation, tmp)
	assert.NoError(t, err)
}

func TestTranslateRepeatableOrder(t *testing.T) {
	tr, tmp, done := newTestTranslator(t, StationMapping)
	defer done()

	ia, err := tr.Translate(context.Background(), fdsnws.NewQueryArgs(
		fdsnws.QueryArg{Name: "level", Value: fdsnws.Str("channel")},
		fdsnws.QueryArg{Name: "format", Value: fdsnws.Str("text")},
		fdsnws.QueryArg{Name: "maxlat", Value: fdsnws.Str("50")},
		fdsnws.QueryArg{Name: "minlat", Value: fdsnws.Str("40")},
	), fdsnws.ServiceStation, tmp)
	assert.NoError(t, err)
	assert.Equal(t, []string{"level=channel", "format=text", "maxlatitude=50", "minlatitude=40"}, ia.List(FlagQuery))
}

func TestTranslateRoutingFailure(t *testing.T) {
	mrr := &translatormocks.RoutingResolver{}
	mrr.On("RoutingURL", mock.Anything, "XXX").Return("", fmt.Errorf("pop"))
	tmp := (&tempfile.Allocator{Dir: t.TempDir()}).NewScope(context.Background())
	defer tmp.Close()

	_, err := New(mrr, "XXX", DefaultMapping).Translate(context.Background(), fdsnws.NewQueryArgs(), fdsnws.ServiceStation, tmp)
	assert.Regexp(t, "pop", err)
	assert.Equal(t, httperrors.InternalServerError, err.(*httperrors.FDSNError).Kind)
	mrr.AssertExpectations(t)
}

func TestApplyOverrides(t *testing.T) {
	ia := NewInvocationArguments()
	ia.Add(FlagQuery, "format=miniseed")
	ApplyOverrides(ia, []KeyValue{{Key: "quality", Value: "B"}, {Key: "net", Value: "XX"}})
	assert.Equal(t, []string{"format=miniseed", "quality=B", "net=XX"}, ia.List(FlagQuery))
}

func TestRequireConstrainedSNCL(t *testing.T) {
	ctx := context.Background()

	ia := NewInvocationArguments()
	ia.Add(FlagNetwork, "CH")
	err := RequireConstrainedSNCL(ctx, ia)
	assert.Regexp(t, "EIDA10111", err)

	for _, flag := range []string{FlagStation, FlagChannel, FlagLocation} {
		for _, wildcard := range []string{"*", "??", "*,?"} {
			ia := NewInvocationArguments()
			ia.Add(flag, wildcard)
			assert.Error(t, RequireConstrainedSNCL(ctx, ia), "%s %s", flag, wildcard)
		}
		ia := NewInvocationArguments()
		ia.Add(flag, "H*")
		assert.NoError(t, RequireConstrainedSNCL(ctx, ia), flag)
	}

	ia = NewInvocationArguments()
	ia.Add(FlagLocation, "--")
	assert.NoError(t, RequireConstrainedSNCL(ctx, ia))
}

func TestMappingFor(t *testing.T) {
	assert.Equal(t, DataselectMapping, MappingFor("dataselect"))
	assert.Equal(t, StationMapping, MappingFor("station"))
	assert.Equal(t, DefaultMapping, MappingFor("wfcatalog"))
	_, ok := DataselectMapping["level"]
	assert.False(t, ok)
	assert.Equal(t, 24, len(DefaultMapping))
}
