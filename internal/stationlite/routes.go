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
	"sort"
	"strings"

	"github.com/eida/eidangws/internal/database"
	"github.com/eida/eidangws/internal/fdsnws"
)

// routeGroup is the set of stream epochs served by a single endpoint
type routeGroup struct {
	url    string
	epochs []*fdsnws.StreamEpoch
}

// cachedRoutes is the result of a single database lookup
type cachedRoutes []*database.StreamRoute

// Size is an estimate of the memory held by the routes
func (cr cachedRoutes) Size() int64 {
	size := int64(24)
	for _, r := range cr {
		size += int64(96 + len(r.Network) + len(r.Station) + len(r.Location) + len(r.Channel) + len(r.Service) + len(r.URL))
	}
	return size
}

func splitCodes(codes string, location bool) []string {
	parts := strings.Split(codes, ",")
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if location && p == fdsnws.EmptyLocation {
			p = ""
		}
		parts[i] = p
	}
	sort.Strings(parts)
	return parts
}

func newStreamRouteFilter(service string, se *fdsnws.StreamEpoch) *database.StreamRouteFilter {
	return &database.StreamRouteFilter{
		Service:   service,
		Network:   splitCodes(se.Network, false),
		Station:   splitCodes(se.Station, false),
		Location:  splitCodes(se.Location, true),
		Channel:   splitCodes(se.Channel, false),
		StartTime: se.StartTime,
		EndTime:   se.EndTime,
	}
}

func cacheKey(filter *database.StreamRouteFilter) string {
	start, end := "*", "*"
	if filter.StartTime != nil {
		start = fdsnws.FormatDatetime(*filter.StartTime)
	}
	if filter.EndTime != nil {
		end = fdsnws.FormatDatetime(*filter.EndTime)
	}
	location := make([]string, len(filter.Location))
	for i, l := range filter.Location {
		if l == "" {
			l = fdsnws.EmptyLocation
		}
		location[i] = l
	}
	return strings.Join([]string{
		filter.Service,
		strings.Join(filter.Network, ","),
		strings.Join(filter.Station, ","),
		strings.Join(location, ","),
		strings.Join(filter.Channel, ","),
		start,
		end,
	}, "|")
}

func (sl *Stationlite) lookup(ctx context.Context, filter *database.StreamRouteFilter) ([]*database.StreamRoute, error) {
	key := cacheKey(filter)
	if cached, ok := sl.routeCache.Get(key).(cachedRoutes); ok {
		sl.metrics.RouteLookup(true, len(cached))
		return cached, nil
	}
	routes, err := sl.database.StreamRoutes(ctx, filter)
	if err != nil {
		return nil, err
	}
	sl.routeCache.Set(key, cachedRoutes(routes))
	sl.metrics.RouteLookup(false, len(routes))
	return routes, nil
}

// clip restricts the epoch of a route to the requested time window
func clip(route *database.StreamRoute, se *fdsnws.StreamEpoch) *fdsnws.StreamEpoch {
	start := route.StartTime
	if se.StartTime != nil && se.StartTime.After(start) {
		start = *se.StartTime
	}
	end := route.EndTime
	if se.EndTime != nil && (end == nil || se.EndTime.Before(*end)) {
		end = se.EndTime
	}
	return &fdsnws.StreamEpoch{
		Network:   route.Network,
		Station:   route.Station,
		Location:  route.Location,
		Channel:   route.Channel,
		StartTime: &start,
		EndTime:   end,
	}
}

// resolve looks up the routes of every requested epoch, grouped by endpoint URL
func (sl *Stationlite) resolve(ctx context.Context, rr *routingRequest) ([]*routeGroup, error) {
	byURL := make(map[string]*routeGroup)
	seen := make(map[string]bool)
	for _, se := range rr.epochs {
		routes, err := sl.lookup(ctx, newStreamRouteFilter(rr.service, se))
		if err != nil {
			return nil, err
		}
		for _, route := range routes {
			epoch := clip(route, se)
			line := epoch.BulkLine()
			if seen[route.URL+" "+line] {
				continue
			}
			seen[route.URL+" "+line] = true
			g := byURL[route.URL]
			if g == nil {
				g = &routeGroup{url: route.URL}
				byURL[route.URL] = g
			}
			g.epochs = append(g.epochs, epoch)
		}
	}

	groups := make([]*routeGroup, 0, len(byURL))
	for _, g := range byURL {
		sort.Slice(g.epochs, func(i, j int) bool {
			return g.epochs[i].BulkLine() < g.epochs[j].BulkLine()
		})
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].url < groups[j].url
	})
	return groups, nil
}

func renderPost(groups []*routeGroup) string {
	var b strings.Builder
	for i, g := range groups {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(g.url)
		b.WriteString("\n")
		for _, se := range g.epochs {
			b.WriteString(se.BulkLine())
			b.WriteString("\n")
		}
	}
	return b.String()
}

func getQuery(se *fdsnws.StreamEpoch) *fdsnws.QueryArgs {
	location := se.Location
	if location == "" {
		location = fdsnws.EmptyLocation
	}
	qa := fdsnws.NewQueryArgs().
		With("network", se.Network).
		With("station", se.Station).
		With("location", location).
		With("channel", se.Channel)
	if se.StartTime != nil {
		qa = qa.With("starttime", fdsnws.FormatDatetime(*se.StartTime))
	}
	if se.EndTime != nil {
		qa = qa.With("endtime", fdsnws.FormatDatetime(*se.EndTime))
	}
	return qa
}

func renderGet(groups []*routeGroup) string {
	var b strings.Builder
	for _, g := range groups {
		for _, se := range g.epochs {
			b.WriteString(g.url)
			b.WriteString("?")
			b.WriteString(getQuery(se).Encode())
			b.WriteString("\n")
		}
	}
	return b.String()
}
