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
	"database/sql"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/eida/eidangws/internal/database"
	"github.com/eida/eidangws/internal/i18n"
	"github.com/eida/eidangws/internal/log"
)

var (
	streamRouteColumns = []string{
		"network",
		"station",
		"location",
		"channel",
		"service",
		"url",
		"starttime",
		"endtime",
	}
)

const streamRoutesTable = "stream_routes"

// Times are stored as microseconds since the epoch, the resolution of FDSNWS datetimes
func toDBTime(t time.Time) int64 {
	return t.UTC().UnixMicro()
}

func fromDBTime(v int64) time.Time {
	return time.UnixMicro(v).UTC()
}

func (s *SQLCommon) notifyRoutesChanged(tx *txWrapper) {
	if s.callbacks != nil {
		s.postCommitEvent(tx, s.callbacks.StreamRoutesChanged)
	}
}

func validateStreamRoute(ctx context.Context, route *database.StreamRoute) error {
	switch {
	case route.Network == "":
		return i18n.NewError(ctx, i18n.MsgRouteFieldMissing, "network")
	case route.Station == "":
		return i18n.NewError(ctx, i18n.MsgRouteFieldMissing, "station")
	case route.Channel == "":
		return i18n.NewError(ctx, i18n.MsgRouteFieldMissing, "channel")
	case route.Service == "":
		return i18n.NewError(ctx, i18n.MsgRouteFieldMissing, "service")
	case route.URL == "":
		return i18n.NewError(ctx, i18n.MsgRouteFieldMissing, "url")
	case route.StartTime.IsZero():
		return i18n.NewError(ctx, i18n.MsgRouteFieldMissing, "starttime")
	}
	return nil
}

func (s *SQLCommon) UpsertStreamRoute(ctx context.Context, route *database.StreamRoute) (err error) {
	if err := validateStreamRoute(ctx, route); err != nil {
		return err
	}

	ctx, tx, autoCommit, err := s.beginOrUseTx(ctx)
	if err != nil {
		return err
	}
	defer s.rollbackTx(ctx, tx, autoCommit)

	key := sq.Eq{
		"network":   route.Network,
		"station":   route.Station,
		"location":  route.Location,
		"channel":   route.Channel,
		"service":   route.Service,
		"url":       route.URL,
		"starttime": toDBTime(route.StartTime),
	}
	var endTime interface{}
	if route.EndTime != nil {
		endTime = toDBTime(*route.EndTime)
	}

	rows, err := s.queryTx(ctx, tx,
		sq.Select(sequenceColumn).
			From(streamRoutesTable).
			Where(key),
	)
	if err != nil {
		return err
	}
	existing := rows.Next()
	var seq int64
	if existing {
		err = rows.Scan(&seq)
	}
	rows.Close()
	if err != nil {
		return i18n.WrapError(ctx, err, i18n.MsgDBReadErr, streamRoutesTable)
	}

	if existing {
		if err = s.updateTx(ctx, tx,
			sq.Update(streamRoutesTable).
				Set("endtime", endTime).
				Where(sq.Eq{sequenceColumn: seq}),
		); err != nil {
			return err
		}
	} else {
		if _, err = s.insertTx(ctx, tx,
			sq.Insert(streamRoutesTable).
				Columns(streamRouteColumns...).
				Values(
					route.Network,
					route.Station,
					route.Location,
					route.Channel,
					route.Service,
					route.URL,
					toDBTime(route.StartTime),
					endTime,
				),
		); err != nil {
			return err
		}
	}
	s.notifyRoutesChanged(tx)

	return s.commitTx(ctx, tx, autoCommit)
}

// patternCondition matches a column against FDSNWS patterns. A nil result matches everything.
// The empty string is the blank location code, and only matches itself.
func patternCondition(column string, patterns []string) sq.Sqlizer {
	or := sq.Or{}
	for _, p := range patterns {
		if p != "" && strings.Trim(p, "*") == "" {
			return nil
		}
		if strings.ContainsAny(p, "*?") {
			or = append(or, sq.Like{column: strings.NewReplacer("*", "%", "?", "_").Replace(p)})
		} else {
			or = append(or, sq.Eq{column: p})
		}
	}
	if len(or) == 0 {
		return nil
	}
	return or
}

func (s *SQLCommon) streamRouteResult(ctx context.Context, row *sql.Rows) (*database.StreamRoute, error) {
	var route database.StreamRoute
	var startTime int64
	var endTime sql.NullInt64
	err := row.Scan(
		&route.Network,
		&route.Station,
		&route.Location,
		&route.Channel,
		&route.Service,
		&route.URL,
		&startTime,
		&endTime,
	)
	if err != nil {
		return nil, i18n.WrapError(ctx, err, i18n.MsgDBReadErr, streamRoutesTable)
	}
	route.StartTime = fromDBTime(startTime)
	if endTime.Valid {
		et := fromDBTime(endTime.Int64)
		route.EndTime = &et
	}
	return &route, nil
}

func (s *SQLCommon) StreamRoutes(ctx context.Context, filter *database.StreamRouteFilter) ([]*database.StreamRoute, error) {
	where := sq.And{}
	if filter.Service != "" {
		where = append(where, sq.Eq{"service": filter.Service})
	}
	for _, c := range []struct {
		column   string
		patterns []string
	}{
		{"network", filter.Network},
		{"station", filter.Station},
		{"location", filter.Location},
		{"channel", filter.Channel},
	} {
		if cond := patternCondition(c.column, c.patterns); cond != nil {
			where = append(where, cond)
		}
	}
	if filter.EndTime != nil {
		where = append(where, sq.Lt{"starttime": toDBTime(*filter.EndTime)})
	}
	if filter.StartTime != nil {
		where = append(where, sq.Or{
			sq.Eq{"endtime": nil},
			sq.Gt{"endtime": toDBTime(*filter.StartTime)},
		})
	}

	rows, err := s.query(ctx,
		sq.Select(streamRouteColumns...).
			From(streamRoutesTable).
			Where(where).
			OrderBy("url", "network", "station", "location", "channel", "starttime"),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	routes := []*database.StreamRoute{}
	for rows.Next() {
		route, err := s.streamRouteResult(ctx, rows)
		if err != nil {
			return nil, err
		}
		routes = append(routes, route)
	}
	log.L(ctx).Debugf("Found %d stream routes", len(routes))
	return routes, nil
}

func (s *SQLCommon) DeleteStreamRoutes(ctx context.Context, service, url string) (err error) {
	ctx, tx, autoCommit, err := s.beginOrUseTx(ctx)
	if err != nil {
		return err
	}
	defer s.rollbackTx(ctx, tx, autoCommit)

	deleted, err := s.deleteTx(ctx, tx,
		sq.Delete(streamRoutesTable).Where(sq.Eq{
			"service": service,
			"url":     url,
		}),
	)
	if err != nil {
		return err
	}
	if deleted > 0 {
		s.notifyRoutesChanged(tx)
	}

	return s.commitTx(ctx, tx, autoCommit)
}
