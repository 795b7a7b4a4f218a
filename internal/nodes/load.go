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

package nodes

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/eida/eidangws/internal/config"
	"github.com/eida/eidangws/internal/i18n"
	"github.com/eida/eidangws/internal/log"
	"github.com/eida/eidangws/internal/restclient"
	"github.com/eida/eidangws/internal/retry"
)

var (
	remoteConfig = config.NewPluginConfig("nodes.remote")
	retryConfig  = remoteConfig.SubPrefix("load")
)

func init() {
	restclient.InitPrefix(remoteConfig)
	retry.InitPrefix(retryConfig, 5)
}

// Load builds the registry from configuration. The configured table replaces the
// built-in one. Entries loaded from the remote registry, if configured, are merged over it.
func Load(ctx context.Context) (*Registry, error) {
	var configured map[string]*Node
	if err := config.UnmarshalKey(ctx, config.NodesRegistry, &configured); err != nil {
		return nil, err
	}
	if len(configured) == 0 {
		configured = BuiltinNodes()
	}
	nodes := map[string]*Node{}
	merge(nodes, configured)

	if remoteConfig.GetString(restclient.HTTPConfigURL) != "" {
		remote, err := loadRemote(ctx)
		if err != nil {
			return nil, err
		}
		merge(nodes, remote)
	}

	r := NewRegistry(nodes, config.GetString(config.NodesDefault), config.GetString(config.NodesRoutingPath))
	if err := r.Validate(ctx); err != nil {
		return nil, err
	}
	loaded := r.Nodes()
	names := make([]string, len(loaded))
	for i, n := range loaded {
		names[i] = n.Name
	}
	log.L(ctx).Infof("Loaded %d EIDA nodes (default=%s): %s", len(names), r.DefaultNode(), strings.Join(names, ","))
	return r, nil
}

// merge copies src over dst. Names are case insensitive, so the keys are normalized first.
func merge(dst, src map[string]*Node) {
	for name, n := range src {
		if n != nil {
			dst[normalize(name)] = n
		}
	}
}

func loadRemote(ctx context.Context) (nodes map[string]*Node, err error) {
	client := restclient.New(ctx, remoteConfig)
	url := remoteConfig.GetString(restclient.HTTPConfigURL)
	err = retry.NewFromConfig(retryConfig).Do(ctx, "node registry load", func(attempt int) (bool, error) {
		res, err := client.R().SetContext(ctx).Get("")
		if err != nil || !res.IsSuccess() {
			return true, restclient.WrapRestErr(ctx, res, err, i18n.MsgNodeRegistryLoadFailed, url)
		}
		nodes = map[string]*Node{}
		if err := json.Unmarshal(res.Body(), &nodes); err != nil {
			return false, i18n.WrapError(ctx, err, i18n.MsgNodeRegistryLoadFailed, url, err)
		}
		return false, nil
	})
	return nodes, err
}
