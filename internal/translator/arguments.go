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

	"github.com/eida/eidangws/internal/i18n"
)

// Flags understood by the fetch tool
const (
	FlagOutfile  = "-o"
	FlagService  = "-y"
	FlagRouting  = "-u"
	FlagQuery    = "-q"
	FlagPostfile = "-p"
	FlagStart    = "-s"
	FlagEnd      = "-e"
	FlagNetwork  = "-N"
	FlagStation  = "-S"
	FlagLocation = "-L"
	FlagChannel  = "-C"
)

// SlotKind determines how writes to a flag are accumulated
type SlotKind int

const (
	// SingleValue slots are overwritten, the last write wins
	SingleValue SlotKind = iota
	// RepeatableList slots are only appended to, in insertion order
	RepeatableList
)

// KindOf is fixed per flag. The query flag is the only repeatable one.
func KindOf(flag string) SlotKind {
	if flag == FlagQuery {
		return RepeatableList
	}
	return SingleValue
}

// Slot is a single output flag, with its value or values
type Slot struct {
	Flag   string
	Kind   SlotKind
	Value  string
	Values []string
}

// InvocationArguments is the ordered collection of slots, serialized into the argv of the fetch tool
type InvocationArguments struct {
	slots []*Slot
	index map[string]*Slot
}

// NewInvocationArguments starts with an empty query list slot
func NewInvocationArguments() *InvocationArguments {
	ia := &InvocationArguments{index: make(map[string]*Slot)}
	ia.slot(FlagQuery)
	return ia
}

func (ia *InvocationArguments) slot(flag string) *Slot {
	s, ok := ia.index[flag]
	if !ok {
		s = &Slot{Flag: flag, Kind: KindOf(flag)}
		ia.slots = append(ia.slots, s)
		ia.index[flag] = s
	}
	return s
}

// Add writes a value according to the kind of the flag
func (ia *InvocationArguments) Add(flag, value string) {
	s := ia.slot(flag)
	if s.Kind == RepeatableList {
		s.Values = append(s.Values, value)
		return
	}
	s.Value = value
}

// Get returns the value of a single value slot
func (ia *InvocationArguments) Get(flag string) (string, bool) {
	s, ok := ia.index[flag]
	if !ok || s.Kind != SingleValue {
		return "", false
	}
	return s.Value, true
}

// List returns a copy of the values of a repeatable slot
func (ia *InvocationArguments) List(flag string) []string {
	s, ok := ia.index[flag]
	if !ok || s.Kind != RepeatableList {
		return nil
	}
	return append([]string{}, s.Values...)
}

// Slots returns the slots in the order they were first written
func (ia *InvocationArguments) Slots() []Slot {
	slots := make([]Slot, 0, len(ia.slots))
	for _, s := range ia.slots {
		c := *s
		c.Values = append([]string{}, s.Values...)
		slots = append(slots, c)
	}
	return slots
}

// Argv flattens the slots, repeating the flag for each value of a list slot
func (ia *InvocationArguments) Argv() []string {
	argv := make([]string, 0, len(ia.slots)*2)
	for _, s := range ia.slots {
		if s.Kind == RepeatableList {
			for _, v := range s.Values {
				argv = append(argv, s.Flag, v)
			}
			continue
		}
		argv = append(argv, s.Flag, s.Value)
	}
	return argv
}

// String is the space separated argv, used for logging
func (ia *InvocationArguments) String() string {
	return strings.Join(ia.Argv(), " ")
}

// ParseArgv rebuilds arguments from flag/value pairs
func ParseArgv(ctx context.Context, argv []string) (*InvocationArguments, error) {
	if len(argv)%2 != 0 {
		return nil, i18n.NewError(ctx, i18n.MsgInvalidArgv, strings.Join(argv, " "))
	}
	ia := NewInvocationArguments()
	for i := 0; i < len(argv); i += 2 {
		if !strings.HasPrefix(argv[i], "-") {
			return nil, i18n.NewError(ctx, i18n.MsgInvalidArgv, strings.Join(argv, " "))
		}
		ia.Add(argv[i], argv[i+1])
	}
	return ia, nil
}
