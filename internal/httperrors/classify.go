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

package httperrors

import (
	"errors"
	"regexp"

	"github.com/eida/eidangws/internal/i18n"
)

var codeExtractor = regexp.MustCompile(`^(EIDA\d+):`)

// Classify converts any error escaping a handler into the taxonomy. Typed errors
// are returned as-is, otherwise the status hint of the message code is used.
func Classify(err error, noContentCodes []int) *FDSNError {
	var fe *FDSNError
	if errors.As(err, &fe) {
		return fe
	}
	status := 500
	codeExtract := codeExtractor.FindStringSubmatch(err.Error())
	if len(codeExtract) >= 2 {
		if statusHint, ok := i18n.GetStatusHint(codeExtract[1]); ok {
			status = statusHint
		}
	}
	return FromStatusCode(status, noContentCodes, err)
}
