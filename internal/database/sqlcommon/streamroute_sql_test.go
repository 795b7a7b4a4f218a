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

package sqlcommon

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/eida/eidangws/internal/database"
	"github.com/stretchr/testify/assert"
)

var (
	t2000 = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	t2010 = time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)
	t2020 = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
)

func newRoute(net, sta, loc, cha, url string, start time.Time, end *time.Time) *database.StreamRoute {
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

func TestStreamRoutesE2EWithDB(t *testing.T) {
	s, cleanup := newSQLiteTestProvider(t)
	defer cleanup()
	ctx := context.Background()
	s.callbacks.On("StreamRoutesChanged").Return()

	gfz := "http://geofon.gfz-potsdam.de/fdsnws/dataselect/1/query"
	odc := "http://www.orfeus-eu.org/fdsnws/dataselect/1/query"
	end := t2010
	for _, r := range []*database.StreamRoute{
		newRoute("GE", "APE", "", "BHZ", gfz, t2000, nil),
		newRoute("GE", "APE", "", "BHN", gfz, t2000, &end),
		newRoute("GE", "BKB", "00", "HHZ", gfz, t2010, nil),
		newRoute("NL", "HGN", "02", "BHZ", odc, t2000, nil),
	} {
		err := s.UpsertStreamRoute(ctx, r)
		assert.NoError(t, err)
	}

	// Everything, ordered by URL
	routes, err := s.StreamRoutes(ctx, &database.StreamRouteFilter{Service: "dataselect"})
	assert.NoError(t, err)
	assert.Len(t, routes, 4)
	assert.Equal(t, "APE", routes[0].Station)
	assert.Equal(t, "BHN", routes[0].Channel)
	assert.Equal(t, t2000, routes[0].StartTime)
	assert.Equal(t, t2010, *routes[0].EndTime)
	assert.Nil(t, routes[1].EndTime)
	assert.Equal(t, "HGN", routes[3].Station)

	// Wildcards
	routes, err = s.StreamRoutes(ctx, &database.StreamRouteFilter{
		Service: "dataselect",
		Network: []string{"G?"},
		Channel: []string{"BH*"},
	})
	assert.NoError(t, err)
	assert.Len(t, routes, 2)

	// Explicit list with empty location
	routes, err = s.StreamRoutes(ctx, &database.StreamRouteFilter{
		Service:  "dataselect",
		Location: []string{"", "02"},
		Channel:  []string{"BHZ"},
	})
	assert.NoError(t, err)
	assert.Len(t, routes, 2)
	assert.Equal(t, "GE", routes[0].Network)
	assert.Equal(t, "NL", routes[1].Network)

	// A bare wildcard does not restrict
	routes, err = s.StreamRoutes(ctx, &database.StreamRouteFilter{
		Service: "dataselect",
		Station: []string{"*", "APE"},
	})
	assert.NoError(t, err)
	assert.Len(t, routes, 4)

	// Time overlap
	after := time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)
	routes, err = s.StreamRoutes(ctx, &database.StreamRouteFilter{
		Service:   "dataselect",
		Network:   []string{"GE"},
		StartTime: &after,
	})
	assert.NoError(t, err)
	assert.Len(t, routes, 2)
	before := time.Date(2005, 1, 1, 0, 0, 0, 0, time.UTC)
	routes, err = s.StreamRoutes(ctx, &database.StreamRouteFilter{
		Service: "dataselect",
		Network: []string{"GE"},
		EndTime: &before,
	})
	assert.NoError(t, err)
	assert.Len(t, routes, 2)

	// Other services are separate
	routes, err = s.StreamRoutes(ctx, &database.StreamRouteFilter{Service: "station"})
	assert.NoError(t, err)
	assert.Empty(t, routes)

	// Upsert closes an open epoch
	closed := t2020
	err = s.UpsertStreamRoute(ctx, newRoute("GE", "BKB", "00", "HHZ", gfz, t2010, &closed))
	assert.NoError(t, err)
	routes, err = s.StreamRoutes(ctx, &database.StreamRouteFilter{
		Service: "dataselect",
		Station: []string{"BKB"},
	})
	assert.NoError(t, err)
	assert.Len(t, routes, 1)
	assert.Equal(t, t2020, *routes[0].EndTime)

	// Delete
	err = s.DeleteStreamRoutes(ctx, "dataselect", gfz)
	assert.NoError(t, err)
	routes, err = s.StreamRoutes(ctx, &database.StreamRouteFilter{Service: "dataselect"})
	assert.NoError(t, err)
	assert.Len(t, routes, 1)
	assert.Equal(t, odc, routes[0].URL)

	// Nothing to delete does not notify
	err = s.DeleteStreamRoutes(ctx, "dataselect", gfz)
	assert.NoError(t, err)

	s.callbacks.AssertNumberOfCalls(t, "StreamRoutesChanged", 6)
}

func TestStreamRoutesGroupedNotifyOnCommit(t *testing.T) {
	s, cleanup := newSQLiteTestProvider(t)
	defer cleanup()
	s.callbacks.On("StreamRoutesChanged").Return()

	err := s.RunAsGroup(context.Background(), func(ctx context.Context) error {
		for _, cha := range []string{"BHZ", "BHN", "BHE"} {
			if err := s.UpsertStreamRoute(ctx, newRoute("CH", "DAVOX", "", cha, "http://eida.ethz.ch", t2000, nil)); err != nil {
				return err
			}
		}
		return nil
	})
	assert.NoError(t, err)
	s.callbacks.AssertNumberOfCalls(t, "StreamRoutesChanged", 3)

	routes, err := s.StreamRoutes(context.Background(), &database.StreamRouteFilter{})
	assert.NoError(t, err)
	assert.Len(t, routes, 3)
}

func TestUpsertStreamRouteMissingFields(t *testing.T) {
	s, _ := newMockProvider().init()
	ctx := context.Background()
	for field, r := range map[string]*database.StreamRoute{
		"network":   newRoute("", "APE", "", "BHZ", "http://x", t2000, nil),
		"station":   newRoute("GE", "", "", "BHZ", "http://x", t2000, nil),
		"channel":   newRoute("GE", "APE", "", "", "http://x", t2000, nil),
		"url":       newRoute("GE", "APE", "", "BHZ", "", t2000, nil),
		"starttime": newRoute("GE", "APE", "", "BHZ", "http://x", time.Time{}, nil),
	} {
		err := s.UpsertStreamRoute(ctx, r)
		assert.Regexp(t, "EIDA10137.*"+field, err)
	}
	r := newRoute("GE", "APE", "", "BHZ", "http://x", t2000, nil)
	r.Service = ""
	err := s.UpsertStreamRoute(ctx, r)
	assert.Regexp(t, "EIDA10137.*service", err)
}

func TestUpsertStreamRouteFailBegin(t *testing.T) {
	s, mock := newMockProvider().init()
	mock.ExpectBegin().WillReturnError(fmt.Errorf("pop"))
	err := s.UpsertStreamRoute(context.Background(), newRoute("GE", "APE", "", "BHZ", "http://x", t2000, nil))
	assert.Regexp(t, "EIDA10126", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertStreamRouteFailSelect(t *testing.T) {
	s, mock := newMockProvider().init()
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .*").WillReturnError(fmt.Errorf("pop"))
	mock.ExpectRollback()
	err := s.UpsertStreamRoute(context.Background(), newRoute("GE", "APE", "", "BHZ", "http://x", t2000, nil))
	assert.Regexp(t, "EIDA10128", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertStreamRouteFailScan(t *testing.T) {
	s, mock := newMockProvider().init()
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .*").WillReturnRows(sqlmock.NewRows([]string{"seq"}).AddRow("not a number"))
	mock.ExpectRollback()
	err := s.UpsertStreamRoute(context.Background(), newRoute("GE", "APE", "", "BHZ", "http://x", t2000, nil))
	assert.Regexp(t, "EIDA10132", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertStreamRouteFailInsert(t *testing.T) {
	s, mock := newMockProvider().init()
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .*").WillReturnRows(sqlmock.NewRows([]string{"seq"}))
	mock.ExpectExec("INSERT .*").WillReturnError(fmt.Errorf("pop"))
	mock.ExpectRollback()
	err := s.UpsertStreamRoute(context.Background(), newRoute("GE", "APE", "", "BHZ", "http://x", t2000, nil))
	assert.Regexp(t, "EIDA10129", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertStreamRouteFailUpdate(t *testing.T) {
	s, mock := newMockProvider().init()
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .*").WillReturnRows(sqlmock.NewRows([]string{"seq"}).AddRow(1))
	mock.ExpectExec("UPDATE .*").WillReturnError(fmt.Errorf("pop"))
	mock.ExpectRollback()
	err := s.UpsertStreamRoute(context.Background(), newRoute("GE", "APE", "", "BHZ", "http://x", t2000, nil))
	assert.Regexp(t, "EIDA10130", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertStreamRouteFailCommit(t *testing.T) {
	s, mock := newMockProvider().init()
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .*").WillReturnRows(sqlmock.NewRows([]string{"seq"}))
	mock.ExpectExec("INSERT .*").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit().WillReturnError(fmt.Errorf("pop"))
	err := s.UpsertStreamRoute(context.Background(), newRoute("GE", "APE", "", "BHZ", "http://x", t2000, nil))
	assert.Regexp(t, "EIDA10131", err)
	assert.NoError(t, mock.ExpectationsWereMet())
	s.callbacks.AssertNotCalled(t, "StreamRoutesChanged")
}

func TestStreamRoutesQueryFail(t *testing.T) {
	s, mock := newMockProvider().init()
	mock.ExpectQuery("SELECT .*").WillReturnError(fmt.Errorf("pop"))
	_, err := s.StreamRoutes(context.Background(), &database.StreamRouteFilter{})
	assert.Regexp(t, "EIDA10128", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStreamRoutesReadFail(t *testing.T) {
	s, mock := newMockProvider().init()
	mock.ExpectQuery("SELECT .*").WillReturnRows(sqlmock.NewRows([]string{"network"}).AddRow("GE"))
	_, err := s.StreamRoutes(context.Background(), &database.StreamRouteFilter{})
	assert.Regexp(t, "EIDA10132", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStreamRoutesFilterSQL(t *testing.T) {
	s, mock := newMockProvider().init()
	start := t2000
	mock.ExpectQuery(`SELECT network, station, location, channel, service, url, starttime, endtime FROM stream_routes WHERE \(service = \$1 AND \(network LIKE \$2 OR network = \$3\) AND \(endtime IS NULL OR endtime > \$4\)\) ORDER BY url, network, station, location, channel, starttime`).
		WithArgs("station", "G_", "NL", toDBTime(start)).
		WillReturnRows(sqlmock.NewRows(streamRouteColumns))
	routes, err := s.StreamRoutes(context.Background(), &database.StreamRouteFilter{
		Service:   "station",
		Network:   []string{"G?", "NL"},
		Station:   []string{"*"},
		StartTime: &start,
	})
	assert.NoError(t, err)
	assert.Empty(t, routes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteStreamRoutesFailBegin(t *testing.T) {
	s, mock := newMockProvider().init()
	mock.ExpectBegin().WillReturnError(fmt.Errorf("pop"))
	err := s.DeleteStreamRoutes(context.Background(), "dataselect", "http://x")
	assert.Regexp(t, "EIDA10126", err)
}

func TestDeleteStreamRoutesFailDelete(t *testing.T) {
	s, mock := newMockProvider().init()
	mock.ExpectBegin()
	mock.ExpectExec("DELETE .*").WillReturnError(fmt.Errorf("pop"))
	mock.ExpectRollback()
	err := s.DeleteStreamRoutes(context.Background(), "dataselect", "http://x")
	assert.Regexp(t, "EIDA10138", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStreamRoutesBlankLocationWithDB(t *testing.T) {
	s, cleanup := newSQLiteTestProvider(t)
	defer cleanup()
	ctx := context.Background()
	s.callbacks.On("StreamRoutesChanged").Return()

	url := "http://eida.ethz.ch/fdsnws/dataselect/1/query"
	for _, loc := range []string{"", "00", "10"} {
		err := s.UpsertStreamRoute(ctx, newRoute("CH", "DAVOX", loc, "HHZ", url, t2000, nil))
		assert.NoError(t, err)
	}

	routes, err := s.StreamRoutes(ctx, &database.StreamRouteFilter{
		Service:  "dataselect",
		Network:  []string{"CH"},
		Station:  []string{"DAVOX"},
		Location: []string{""},
		Channel:  []string{"HHZ"},
	})
	assert.NoError(t, err)
	assert.Len(t, routes, 1)
	assert.Equal(t, "", routes[0].Location)

	routes, err = s.StreamRoutes(ctx, &database.StreamRouteFilter{
		Service:  "dataselect",
		Location: []string{"", "1?"},
	})
	assert.NoError(t, err)
	assert.Len(t, routes, 2)
	assert.Equal(t, "", routes[0].Location)
	assert.Equal(t, "10", routes[1].Location)
}

func TestPatternCondition(t *testing.T) {
	assert.Nil(t, patternCondition("network", nil))
	assert.Nil(t, patternCondition("network", []string{"GE", "**"}))
	sql, args, err := patternCondition("location", []string{""}).ToSql()
	assert.NoError(t, err)
	assert.Equal(t, "(location = ?)", sql)
	assert.Equal(t, []interface{}{""}, args)
	sql, args, err = patternCondition("channel", []string{"BH?", "HHZ"}).ToSql()
	assert.NoError(t, err)
	assert.Equal(t, "(channel LIKE ? OR channel = ?)", sql)
	assert.Equal(t, []interface{}{"BH_", "HHZ"}, args)
}
