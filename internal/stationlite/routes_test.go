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
	"testing"

	"github.com/eida/eidangws/internal/database"
	"github.com/eida/eidangws/internal/fdsnws"
	"github.com/stretchr/testify/assert"
)

func TestCacheKeyNormalized(t *testing.T) {
	start := utc(2010, 1, 1)
	k1 := cacheKey(newStreamRouteFilter("station", &fdsnws.StreamEpoch{
		Network: "NL,GE", Station: "*", Location: "--,00", Channel: "BHZ", StartTime: &start,
	}))
	k2 := cacheKey(newStreamRouteFilter("station", &fdsnws.StreamEpoch{
		Network: "GE, NL", Station: "*", Location: "00,--", Channel: "BHZ", StartTime: &start,
	}))
	assert.Equal(t, "station|GE,NL|*|--,00|BHZ|2010-01-01T00:00:00|*", k1)
	assert.Equal(t, k1, k2)
}

func TestClip(t *testing.T) {
	end := utc(2015, 1, 1)
	route := testRoute("GE", "APE", "", "BHZ", gfzDataselect, utc(2000, 1, 1), &end)

	se := clip(route, &fdsnws.StreamEpoch{})
	assert.Equal(t, "GE APE -- BHZ 2000-01-01T00:00:00 2015-01-01T00:00:00", se.BulkLine())

	reqStart, reqEnd := utc(2005, 1, 1), utc(2020, 1, 1)
	se = clip(route, &fdsnws.StreamEpoch{StartTime: &reqStart, EndTime: &reqEnd})
	assert.Equal(t, "GE APE -- BHZ 2005-01-01T00:00:00 2015-01-01T00:00:00", se.BulkLine())

	route.EndTime = nil
	se = clip(route, &fdsnws.StreamEpoch{EndTime: &reqEnd})
	assert.Equal(t, "GE APE -- BHZ 2000-01-01T00:00:00 2020-01-01T00:00:00", se.BulkLine())
}

func TestCachedRoutesSize(t *testing.T) {
	assert.Equal(t, int64(24), cachedRoutes{}.Size())
	cr := cachedRoutes{&database.StreamRoute{Network: "GE", Station: "APE", Channel: "BHZ", Service: "station", URL: "http://x"}}
	assert.Equal(t, int64(24+96+2+3+3+7+8), cr.Size())
}
