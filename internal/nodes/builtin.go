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

func node(server string) *Node {
	return &Node{Services: Services{EIDA: EIDAServices{Routing: Endpoint{Server: server}}}}
}

// BuiltinNodes is the table of EIDA nodes used when none is configured
func BuiltinNodes() map[string]*Node {
	return map[string]*Node{
		"BGR":        node("http://eida.bgr.de"),
		"ETH":        node("http://eida.ethz.ch"),
		"GFZ":        node("http://geofon.gfz-potsdam.de"),
		"INGV":       node("http://webservices.ingv.it"),
		"IPGP":       node("http://eida.ipgp.fr"),
		"KOERI":      node("http://eida.koeri.boun.edu.tr"),
		"LMU":        node("http://erde.geophysik.uni-muenchen.de"),
		"NIEP":       node("http://eida-sc3.infp.ro"),
		"NOA":        node("http://eida.gein.noa.gr"),
		"ODC":        node("http://www.orfeus-eu.org"),
		"RESIF":      node("http://ws.resif.fr"),
		"UIB-NORSAR": node("http://eida.geo.uib.no"),
	}
}
