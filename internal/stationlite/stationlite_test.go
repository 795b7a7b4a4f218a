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
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/eida/eidangws/internal/apiserver"
	"github.com/eida/eidangws/internal/cache"
	"github.com/eida/eidangws/internal/config"
	"github.com/eida/eidangws/internal/database"
	"github.com/eida/eidangws/internal/database/sqlcommon"
	"github.com/eida/eidangws/internal/metrics"
	"github.com/eida/eidangws/mocks/databasemocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

const (
	gfzDataselect = "http://geofon.gfz-potsdam.de/fdsnws/dataselect/1/query"
	odcDataselect = "http://www.orfeus-eu.org/fdsnws/dataselect/1/query"
)

type testStationlite struct {
	sl      *Stationlite
	db      *databasemocks.Plugin
	handler http.Handler
}

func newTestStationlite(t *testing.T, setup ...func()) *testStationlite {
	config.Reset()
	apiserver.InitConfig()
	InitConfig()
	for _, fn := range setup {
		fn()
	}
	ts := &testStationlite{
		db: &databasemocks.Plugin{},
	}
	ts.db.On("Name").Return("sqlite")
	ts.db.On("Init", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	ctx := context.Background()
	var err error
	ts.sl, err = New(ctx, ts.db, cache.NewCacheManager(ctx), metrics.NewMetricsManager(ctx))
	assert.NoError(t, err)
	ts.handler = apiserver.NewAPIServer().Router(ts.sl)
	return ts
}

func (ts *testStationlite) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	res := httptest.NewRecorder()
	ts.handler.ServeHTTP(res, req)
	return res
}

func testRoute(net, sta, loc, cha, url string, start time.Time, end *time.Time) *database.StreamRoute {
	return &database.StreamRoute{
		Network:   net,
		Station:   sta,
		Location:  loc,
		Channel:   cha,
		Service:   "dataselect",
		URL:       url,
		StartTime: start,
		EndTime:   end,
	}
}

func utc(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNewInitFails(t *testing.T) {
	config.Reset()
	InitConfig()
	db := &databasemocks.Plugin{}
	db.On("Name").Return("postgres")
	db.On("Init", mock.Anything, mock.Anything, mock.Anything).Return(fmt.Errorf("pop"))
	ctx := context.Background()
	_, err := New(ctx, db, cache.NewCacheManager(ctx), metrics.NewMetricsManager(ctx))
	assert.Regexp(t, "pop", err)
}

func TestNewRegistersCallbacks(t *testing.T) {
	ts := newTestStationlite(t)
	assert.Equal(t, "stationlite", ts.sl.Name())
	assert.Len(t, ts.sl.Routes(), 3)
	assert.Equal(t, ts.db, ts.sl.Database())
	ts.db.AssertCalled(t, "Init", mock.Anything, mock.Anything, ts.sl)
	ts.db.On("Close").Return()
	ts.sl.Close()
	ts.db.AssertCalled(t, "Close")
}

func TestGetDatabasePlugin(t *testing.T) {
	config.Reset()
	plugin, err := GetDatabasePlugin(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "sqlite", plugin.Name())

	config.Set(config.StationliteDatabaseType, "oracle")
	_, err = GetDatabasePlugin(context.Background())
	assert.Regexp(t, "EIDA10123", err)
}

func TestGetPostFormat(t *testing.T) {
	ts := newTestStationlite(t)
	ts.db.On("StreamRoutes", mock.Anything, mock.MatchedBy(func(f *database.StreamRouteFilter) bool {
		return f.Service == "dataselect" &&
			assert.ObjectsAreEqual([]string{"CH", "GE"}, f.Network) &&
			assert.ObjectsAreEqual([]string{"*"}, f.Station) &&
			assert.ObjectsAreEqual([]string{"*"}, f.Location) &&
			assert.ObjectsAreEqual([]string{"BHZ"}, f.Channel) &&
			f.StartTime.Equal(utc(2010, 1, 1)) && f.EndTime == nil
	})).Return([]*database.StreamRoute{
		testRoute("GE", "APE", "", "BHZ", gfzDataselect, utc(2000, 1, 1), nil),
		testRoute("CH", "DAVOX", "", "BHZ", odcDataselect, utc(2005, 1, 1), nil),
		testRoute("GE", "BKB", "00", "BHZ", gfzDataselect, utc(2012, 3, 4), nil),
	}, nil)

	res := ts.do(http.MethodGet, "/eidaws/routing/1/query?net=GE,CH&cha=BHZ&start=2010-01-01", "")
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, apiserver.TextPlain, res.Header().Get("Content-Type"))
	assert.Equal(t, gfzDataselect+"\n"+
		"GE APE -- BHZ 2010-01-01T00:00:00 *\n"+
		"GE BKB 00 BHZ 2012-03-04T00:00:00 *\n"+
		"\n"+
		odcDataselect+"\n"+
		"CH DAVOX -- BHZ 2010-01-01T00:00:00 *\n", res.Body.String())
	ts.db.AssertExpectations(t)
}

func TestGetGetFormat(t *testing.T) {
	ts := newTestStationlite(t)
	end := utc(2015, 1, 1)
	ts.db.On("StreamRoutes", mock.Anything, mock.MatchedBy(func(f *database.StreamRouteFilter) bool {
		return f.Service == "station" && assert.ObjectsAreEqual([]string{""}, f.Location)
	})).Return([]*database.StreamRoute{
		testRoute("GE", "APE", "", "BHZ", "http://geofon.gfz-potsdam.de/fdsnws/station/1/query", utc(2000, 1, 1), &end),
	}, nil)

	res := ts.do(http.MethodGet, "/eidaws/routing/1/query?sta=APE&loc=--&service=station&format=get&end=2020-01-01", "")
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "http://geofon.gfz-potsdam.de/fdsnws/station/1/query?network=GE&station=APE&location=--&channel=BHZ&starttime=2000-01-01T00:00:00&endtime=2015-01-01T00:00:00\n", res.Body.String())
}

func TestGetNoData(t *testing.T) {
	ts := newTestStationlite(t)
	ts.db.On("StreamRoutes", mock.Anything, mock.Anything).Return([]*database.StreamRoute{}, nil)

	res := ts.do(http.MethodGet, "/eidaws/routing/1/query?net=XX", "")
	assert.Equal(t, http.StatusNoContent, res.Code)
	assert.Empty(t, res.Body.String())

	res = ts.do(http.MethodGet, "/eidaws/routing/1/query?net=XX&nodata=404", "")
	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestGetBadRequests(t *testing.T) {
	ts := newTestStationlite(t)
	for query, code := range map[string]string{
		"service=availability":            "EIDA10134",
		"minlat=10":                       "EIDA10108",
		"format=xml":                      "EIDA10109",
		"alternative=true":                "EIDA10109",
		"start=yesterday":                 "EIDA10109",
		"start=2020-01-01&end=2019-01-01": "EIDA10135",
	} {
		res := ts.do(http.MethodGet, "/eidaws/routing/1/query?"+query, "")
		assert.Equal(t, http.StatusBadRequest, res.Code, query)
		assert.Regexp(t, code, res.Body.String(), query)
	}
	ts.db.AssertNotCalled(t, "StreamRoutes", mock.Anything, mock.Anything)
}

func TestGetAlternativeFalse(t *testing.T) {
	ts := newTestStationlite(t)
	ts.db.On("StreamRoutes", mock.Anything, mock.Anything).Return([]*database.StreamRoute{
		testRoute("GE", "APE", "", "BHZ", gfzDataselect, utc(2000, 1, 1), nil),
	}, nil)
	res := ts.do(http.MethodGet, "/eidaws/routing/1/query?net=GE&alternative=false", "")
	assert.Equal(t, http.StatusOK, res.Code)
}

func TestGetDatabaseFails(t *testing.T) {
	ts := newTestStationlite(t)
	ts.db.On("StreamRoutes", mock.Anything, mock.Anything).Return(nil, fmt.Errorf("pop"))
	res := ts.do(http.MethodGet, "/eidaws/routing/1/query?net=GE", "")
	assert.Equal(t, http.StatusInternalServerError, res.Code)
	assert.Regexp(t, "pop", res.Body.String())
}

func TestGetCachedUntilRoutesChange(t *testing.T) {
	ts := newTestStationlite(t)
	ts.db.On("StreamRoutes", mock.Anything, mock.Anything).Return([]*database.StreamRoute{
		testRoute("GE", "APE", "", "BHZ", gfzDataselect, utc(2000, 1, 1), nil),
	}, nil)

	res := ts.do(http.MethodGet, "/eidaws/routing/1/query?net=GE,NL&sta=APE", "")
	assert.Equal(t, http.StatusOK, res.Code)
	res = ts.do(http.MethodGet, "/eidaws/routing/1/query?sta=APE&net=NL,GE", "")
	assert.Equal(t, http.StatusOK, res.Code)
	ts.db.AssertNumberOfCalls(t, "StreamRoutes", 1)

	ts.sl.StreamRoutesChanged()
	res = ts.do(http.MethodGet, "/eidaws/routing/1/query?net=GE,NL&sta=APE", "")
	assert.Equal(t, http.StatusOK, res.Code)
	ts.db.AssertNumberOfCalls(t, "StreamRoutes", 2)
}

func TestGetCacheDisabled(t *testing.T) {
	ts := newTestStationlite(t, func() {
		config.Set(config.StationliteCacheSize, "0")
	})
	ts.db.On("StreamRoutes", mock.Anything, mock.Anything).Return([]*database.StreamRoute{
		testRoute("GE", "APE", "", "BHZ", gfzDataselect, utc(2000, 1, 1), nil),
	}, nil)
	ts.do(http.MethodGet, "/eidaws/routing/1/query?net=GE", "")
	ts.do(http.MethodGet, "/eidaws/routing/1/query?net=GE", "")
	ts.db.AssertNumberOfCalls(t, "StreamRoutes", 2)
}

func TestPostOK(t *testing.T) {
	ts := newTestStationlite(t)
	ts.db.On("StreamRoutes", mock.Anything, mock.MatchedBy(func(f *database.StreamRouteFilter) bool {
		return f.Service == "station" && f.Network[0] == "GE"
	})).Return([]*database.StreamRoute{
		testRoute("GE", "APE", "", "BHZ", gfzDataselect, utc(2000, 1, 1), nil),
	}, nil)
	ts.db.On("StreamRoutes", mock.Anything, mock.MatchedBy(func(f *database.StreamRouteFilter) bool {
		return f.Service == "station" && f.Network[0] == "NL"
	})).Return([]*database.StreamRoute{
		testRoute("NL", "HGN", "02", "BHZ", odcDataselect, utc(2001, 1, 1), nil),
	}, nil)

	res := ts.do(http.MethodPost, "/eidaws/routing/1/query", "service=station\r\nformat=get\r\n"+
		"GE APE -- BHZ 2010-01-01 2010-01-02\r\n"+
		"NL HGN 02 BHZ 2010-01-01 2010-01-02\r\n")
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t,
		gfzDataselect+"?network=GE&station=APE&location=--&channel=BHZ&starttime=2010-01-01T00:00:00&endtime=2010-01-02T00:00:00\n"+
			odcDataselect+"?network=NL&station=HGN&location=02&channel=BHZ&starttime=2010-01-01T00:00:00&endtime=2010-01-02T00:00:00\n",
		res.Body.String())
	ts.db.AssertExpectations(t)
}

func TestPostDuplicateLinesMerged(t *testing.T) {
	ts := newTestStationlite(t)
	ts.db.On("StreamRoutes", mock.Anything, mock.Anything).Return([]*database.StreamRoute{
		testRoute("GE", "APE", "", "BHZ", gfzDataselect, utc(2000, 1, 1), nil),
	}, nil)
	res := ts.do(http.MethodPost, "/eidaws/routing/1/query", "GE APE * BHZ 2010-01-01 2010-01-02\nGE A?E * BHZ 2010-01-01 2010-01-02\n")
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, gfzDataselect+"\nGE APE -- BHZ 2010-01-01T00:00:00 2010-01-02T00:00:00\n", res.Body.String())
}

func TestPostNoData(t *testing.T) {
	ts := newTestStationlite(t)
	ts.db.On("StreamRoutes", mock.Anything, mock.Anything).Return([]*database.StreamRoute{}, nil)
	res := ts.do(http.MethodPost, "/eidaws/routing/1/query", "nodata=404\nXX * * * * *\n")
	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestPostBadRequests(t *testing.T) {
	ts := newTestStationlite(t)
	for body, code := range map[string]string{
		"service=station\n":              "EIDA10110",
		"GE APE\n":                       "EIDA10119",
		"service=event\nGE APE -- BHZ\n": "EIDA10134",
		"GE APE -- BHZ 2010-13-01 *\n":    "EIDA10118",
	} {
		res := ts.do(http.MethodPost, "/eidaws/routing/1/query", body)
		assert.Equal(t, http.StatusBadRequest, res.Code, body)
		assert.Regexp(t, code, res.Body.String(), body)
	}
	res := ts.do(http.MethodPost, "/eidaws/routing/1/query?foo=bar", "GE APE -- BHZ\n")
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Regexp(t, "EIDA10108", res.Body.String())
}

func TestPostTooLarge(t *testing.T) {
	ts := newTestStationlite(t, func() {
		config.Set(config.StationlitePostMaxSize, "16B")
	})
	res := ts.do(http.MethodPost, "/eidaws/routing/1/query", "GE APE -- BHZ 2010-01-01 2010-01-02\n")
	assert.Equal(t, http.StatusRequestEntityTooLarge, res.Code)
	assert.Regexp(t, "EIDA10112", res.Body.String())
}

func TestVersion(t *testing.T) {
	ts := newTestStationlite(t)
	res := ts.do(http.MethodGet, "/eidaws/routing/1/version", "")
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "0.9.1", res.Body.String())
}

func TestRoutingWithSQLite(t *testing.T) {
	config.Reset()
	apiserver.InitConfig()
	InitConfig()
	sqliteConfig := databaseConfig.SubPrefix("sqlite")
	sqliteConfig.Set(sqlcommon.SQLConfDatasourceURL, "file:"+filepath.Join(t.TempDir(), "stationlite.db"))
	sqliteConfig.Set(sqlcommon.SQLConfMigrationsAuto, true)
	sqliteConfig.Set(sqlcommon.SQLConfMigrationsDirectory, "../../db/migrations/sqlite")

	ctx := context.Background()
	di, err := GetDatabasePlugin(ctx)
	assert.NoError(t, err)
	sl, err := New(ctx, di, cache.NewCacheManager(ctx), metrics.NewMetricsManager(ctx))
	assert.NoError(t, err)
	defer sl.Close()
	handler := apiserver.NewAPIServer().Router(sl)
	query := func() *httptest.ResponseRecorder {
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/eidaws/routing/1/query?net=GE&cha=BH?", nil))
		return res
	}

	res := query()
	assert.Equal(t, http.StatusNoContent, res.Code)

	err = sl.Database().UpsertStreamRoute(ctx, testRoute("GE", "APE", "", "BHZ", gfzDataselect, utc(2000, 1, 1), nil))
	assert.NoError(t, err)
	res = query()
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, gfzDataselect+"\nGE APE -- BHZ 2000-01-01T00:00:00 *\n", res.Body.String())

	// the blank location code only matches itself
	err = sl.Database().UpsertStreamRoute(ctx, testRoute("GE", "APE", "00", "BHZ", gfzDataselect, utc(2000, 1, 1), nil))
	assert.NoError(t, err)
	res = httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/eidaws/routing/1/query?net=GE&loc=--&cha=BHZ", nil))
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, gfzDataselect+"\nGE APE -- BHZ 2000-01-01T00:00:00 *\n", res.Body.String())

	err = sl.Database().DeleteStreamRoutes(ctx, "dataselect", gfzDataselect)
	assert.NoError(t, err)
	res = query()
	assert.Equal(t, http.StatusNoContent, res.Code)
}
