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

package tempfile

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/eida/eidangws/internal/i18n"
	"github.com/eida/eidangws/internal/ids"
	"github.com/eida/eidangws/internal/log"
)

// Allocator hands out unique file paths in a directory. Paths are not created.
type Allocator struct {
	Dir    string
	Prefix string
}

// NewPath returns a new unique path
func (a *Allocator) NewPath() string {
	dir := a.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, a.Prefix+ids.NewUUID())
}

// Scope owns every path allocated through it, and removes them all on Close.
// Callers defer Close immediately after creating the scope.
type Scope struct {
	ctx       context.Context
	allocator *Allocator
	mux       sync.Mutex
	paths     []string
}

// NewScope creates a cleanup scope for a single request
func (a *Allocator) NewScope(ctx context.Context) *Scope {
	return &Scope{ctx: ctx, allocator: a}
}

// NewPath allocates a path owned by the scope
func (s *Scope) NewPath() string {
	p := s.allocator.NewPath()
	s.mux.Lock()
	s.paths = append(s.paths, p)
	s.mux.Unlock()
	return p
}

// WriteFile allocates a path owned by the scope, and writes data to it
func (s *Scope) WriteFile(data []byte) (string, error) {
	p := s.NewPath()
	if err := os.WriteFile(p, data, 0600); err != nil {
		return "", i18n.WrapError(s.ctx, err, i18n.MsgTempFileFailed, p)
	}
	return p, nil
}

// Close removes all files. Paths that were never created are skipped silently.
func (s *Scope) Close() {
	s.mux.Lock()
	defer s.mux.Unlock()
	for _, p := range s.paths {
		err := os.Remove(p)
		switch {
		case err == nil:
			log.L(s.ctx).Debugf("Removed temp file %s", p)
		case !os.IsNotExist(err):
			log.L(s.ctx).Warnf("Failed to remove temp file %s: %s", p, err)
		}
	}
	s.paths = nil
}
