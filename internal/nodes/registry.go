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
	"sort"
	"strings"

	"github.com/eida/eidangws/internal/i18n"
)

// Endpoint is the base URL of a service hosted by a node
type Endpoint struct {
	Server string `json:"server"`
}

// EIDAServices are the EIDA specific services of a node
type EIDAServices struct {
	Routing     Endpoint `json:"routing"`
	Stationlite Endpoint `json:"stationlite,omitempty"`
}

// Services of a node
type Services struct {
	EIDA EIDAServices `json:"eida"`
}

// Node is a single EIDA data center
type Node struct {
	Name     string   `json:"name,omitempty"`
	Services Services `json:"services"`
}

// Registry is the table of EIDA nodes. It is immutable once built, and safe to share.
type Registry struct {
	nodes       map[string]*Node
	defaultNode string
	routingPath string
}

func normalize(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// NewRegistry builds a registry. Node names are case insensitive.
func NewRegistry(nodes map[string]*Node, defaultNode, routingPath string) *Registry {
	r := &Registry{
		nodes:       make(map[string]*Node, len(nodes)),
		defaultNode: normalize(defaultNode),
		routingPath: routingPath,
	}
	for name, n := range nodes {
		if n == nil {
			continue
		}
		c := *n
		c.Name = normalize(name)
		r.nodes[c.Name] = &c
	}
	return r
}

// Validate checks every node has a routing server, and the default node exists
func (r *Registry) Validate(ctx context.Context) error {
	for name, n := range r.nodes {
		if n.Services.EIDA.Routing.Server == "" {
			return i18n.NewError(ctx, i18n.MsgNodeRegistryInvalid, name)
		}
	}
	if _, ok := r.nodes[r.defaultNode]; !ok {
		return i18n.NewError(ctx, i18n.MsgRoutingNodeMissing, r.defaultNode, r.defaultNode)
	}
	return nil
}

// RoutingURL resolves the routing service of the selected node, falling back to
// the default node. Missing both is a configuration error.
func (r *Registry) RoutingURL(ctx context.Context, selector string) (string, error) {
	n, ok := r.Node(selector)
	if !ok {
		if n, ok = r.Node(r.defaultNode); !ok {
			return "", i18n.NewError(ctx, i18n.MsgRoutingNodeMissing, selector, r.defaultNode)
		}
	}
	return strings.TrimSuffix(n.Services.EIDA.Routing.Server, "/") + r.routingPath, nil
}

// Node returns a single node by name
func (r *Registry) Node(name string) (*Node, bool) {
	n, ok := r.nodes[normalize(name)]
	return n, ok
}

// Nodes returns all nodes sorted by name
func (r *Registry) Nodes() []*Node {
	nodes := make([]*Node, 0, len(r.nodes))
	for _, n := range r.nodes {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Name < nodes[j].Name })
	return nodes
}

// DefaultNode is the name of the fallback node
func (r *Registry) DefaultNode() string {
	return r.defaultNode
}
