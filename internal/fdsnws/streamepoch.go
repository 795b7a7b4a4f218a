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
	"strings"
	"time"

	"github.com/eida/eidangws/internal/httperrors"
	"github.com/eida/eidangws/internal/i18n"
)

// StreamEpoch is a single SNCL with an optional time window
type StreamEpoch struct {
	Network   string
	Station   string
	Location  string
	Channel   string
	StartTime *time.Time
	EndTime   *time.Time
}

// EmptyLocation is the FDSNWS representation of a blank location code
const EmptyLocation = "--"

// BulkLine renders the epoch as a line of an FDSNWS POST request
func (se *StreamEpoch) BulkLine() string {
	loc := se.Location
	if loc == "" {
		loc = EmptyLocation
	}
	start, end := "*", "*"
	if se.StartTime != nil {
		start = FormatDatetime(*se.StartTime)
	}
	if se.EndTime != nil {
		end = FormatDatetime(*se.EndTime)
	}
	return strings.Join([]string{se.Network, se.Station, loc, se.Channel, start, end}, " ")
}

func parseOptionalTime(ctx context.Context, s string) (*time.Time, error) {
	if s == "" || s == "*" {
		return nil, nil
	}
	t, ok := ParseDatetime(s)
	if !ok {
		return nil, httperrors.NewBadRequest(ctx, i18n.MsgInvalidDatetime, s)
	}
	return &t, nil
}

// ParseBulkLines parses the passthrough lines of a POST request:
// NET STA LOC CHA [START [END]], where "--" is an empty location and "*" an open time.
func ParseBulkLines(ctx context.Context, body string) ([]*StreamEpoch, error) {
	var epochs []*StreamEpoch
	for _, line := range strings.Split(body, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 4 || len(fields) > 6 {
			return nil, httperrors.NewBadRequest(ctx, i18n.MsgInvalidPostLine, line)
		}
		for _, f := range fields[0:4] {
			if !snclRegex.MatchString(f) {
				return nil, httperrors.NewBadRequest(ctx, i18n.MsgInvalidPostLine, line)
			}
		}
		se := &StreamEpoch{
			Network:  fields[0],
			Station:  fields[1],
			Location: fields[2],
			Channel:  fields[3],
		}
		if se.Location == EmptyLocation {
			se.Location = ""
		}
		var err error
		if len(fields) > 4 {
			if se.StartTime, err = parseOptionalTime(ctx, fields[4]); err != nil {
				return nil, err
			}
		}
		if len(fields) > 5 {
			if se.EndTime, err = parseOptionalTime(ctx, fields[5]); err != nil {
				return nil, err
			}
		}
		if se.StartTime != nil && se.EndTime != nil && !se.StartTime.Before(*se.EndTime) {
			return nil, httperrors.NewBadRequest(ctx, i18n.MsgTimeWindowInverted)
		}
		epochs = append(epochs, se)
	}
	if len(epochs) == 0 {
		return nil, httperrors.NewBadRequest(ctx, i18n.MsgEmptyPostRequest)
	}
	return epochs, nil
}

// StreamEpochFromQuery builds the single stream epoch described by GET parameters.
// Missing SNCL parameters match everything.
func StreamEpochFromQuery(qa *QueryArgs) *StreamEpoch {
	get := func(name, def string) string {
		if v, ok := qa.Get(name); ok && v != "" {
			return v
		}
		return def
	}
	se := &StreamEpoch{
		Network:  get("network", "*"),
		Station:  get("station", "*"),
		Location: get("location", "*"),
		Channel:  get("channel", "*"),
	}
	if se.Location == EmptyLocation {
		se.Location = ""
	}
	if v, ok := qa.Get("starttime"); ok {
		if t, ok := ParseDatetime(v); ok {
			se.StartTime = &t
		}
	}
	if v, ok := qa.Get("endtime"); ok {
		if t, ok := ParseDatetime(v); ok {
			se.EndTime = &t
		}
	}
	return se
}
