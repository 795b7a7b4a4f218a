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
	"strings"

	"github.com/eida/eidangws/internal/httperrors"
	"github.com/eida/eidangws/internal/i18n"
	"github.com/eida/eidangws/internal/log"
)

// KeyValue is a parameter override found in a POST body
type KeyValue struct {
	Key   string
	Value string
}

// SplitPostBody separates name=value override lines from the bulk request lines of a
// POST body. Bulk lines are returned in order, each terminated by a newline.
func SplitPostBody(ctx context.Context, raw string) (string, []KeyValue, error) {
	var cleaned strings.Builder
	var overrides []KeyValue
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}
		pieces := strings.Split(line, "=")
		switch len(pieces) {
		case 1:
			cleaned.WriteString(line)
			cleaned.WriteString("\n")
		case 2:
			overrides = append(overrides, KeyValue{
				Key:   strings.TrimSpace(pieces[0]),
				Value: strings.TrimSpace(pieces[1]),
			})
		default:
			log.L(ctx).Warnf("POST line is not a valid override, passing through: %s", line)
			cleaned.WriteString(line)
			cleaned.WriteString("\n")
		}
	}
	if cleaned.Len() == 0 {
		return "", nil, httperrors.NewBadRequest(ctx, i18n.MsgEmptyPostRequest)
	}
	return cleaned.String(), overrides, nil
}
