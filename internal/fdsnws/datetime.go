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
	"regexp"
	"strings"
	"time"
)

// FDSNWS datetimes are ISO8601 without a timezone, optionally date only.
// A trailing Z is tolerated, as UTC is the only timezone allowed.
var datetimeRegex = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})(?:[T ](\d{1,2}):(\d{1,2})(?::(\d{1,2})(?:\.(\d{1,6})\d{0,6})?)?)?Z?$`)

var datetimeLayouts = []string{
	"2006-1-2T15:4:5.999999999",
	"2006-1-2T15:4:5",
	"2006-1-2T15:4",
	"2006-1-2",
}

// ParseDatetime parses a datetime as defined by the FDSNWS specification, always in UTC
func ParseDatetime(s string) (time.Time, bool) {
	if !datetimeRegex.MatchString(s) {
		return time.Time{}, false
	}
	s = strings.TrimSuffix(strings.Replace(s, " ", "T", 1), "Z")
	for _, layout := range datetimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatDatetime renders a time in the canonical FDSNWS form
func FormatDatetime(t time.Time) string {
	t = t.UTC()
	if t.Nanosecond() == 0 {
		return t.Format("2006-01-02T15:04:05")
	}
	return t.Format("2006-01-02T15:04:05.000000")
}
