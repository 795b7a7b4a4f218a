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

package restclient

import "github.com/eida/eidangws/internal/config"

const defaultRequestTimeout = "30s"

const (
	// HTTPConfigURL the base URL of the remote service
	HTTPConfigURL = "url"
	// HTTPConfigProxyURL an optional HTTP proxy
	HTTPConfigProxyURL = "proxy.url"
	// HTTPConfigHeaders additional headers to add to every request
	HTTPConfigHeaders = "headers"
	// HTTPConfigAuthUsername basic auth username
	HTTPConfigAuthUsername = "auth.username"
	// HTTPConfigAuthPassword basic auth password
	HTTPConfigAuthPassword = "auth.password"
	// HTTPConfigRequestTimeout the timeout of a single request
	HTTPConfigRequestTimeout = "requestTimeout"

	// HTTPCustomClient - unit test only - allows injection of a custom HTTP client to resty
	HTTPCustomClient = "customClient"
)

// InitPrefix registers the REST client keys under a config prefix
func InitPrefix(prefix config.Prefix) {
	prefix.AddKnownKey(HTTPConfigURL)
	prefix.AddKnownKey(HTTPConfigProxyURL)
	prefix.AddKnownKey(HTTPConfigHeaders)
	prefix.AddKnownKey(HTTPConfigAuthUsername)
	prefix.AddKnownKey(HTTPConfigAuthPassword)
	prefix.AddKnownKey(HTTPConfigRequestTimeout, defaultRequestTimeout)
	prefix.AddKnownKey(HTTPCustomClient)
}
