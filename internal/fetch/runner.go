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

package fetch

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"time"

	"github.com/eida/eidangws/internal/config"
	"github.com/eida/eidangws/internal/i18n"
	"github.com/eida/eidangws/internal/log"
	"github.com/eida/eidangws/internal/metrics"
	"github.com/eida/eidangws/internal/translator"
	"github.com/sirupsen/logrus"
)

// Runner invokes the external fetch tool
type Runner interface {
	// Check fails if the tool cannot be located
	Check(ctx context.Context) error
	// Run blocks until the tool exits, and returns the output file if it holds any data.
	// Every failure of the tool is reported as no data.
	Run(ctx context.Context, args *translator.InvocationArguments) (path string, ok bool)
}

// waitDelay bounds the wait for output of a killed tool
const waitDelay = 5 * time.Second

type execRunner struct {
	command string
	args    []string
	timeout time.Duration
	metrics metrics.Manager
}

// NewRunner builds the runner from the federator configuration
func NewRunner(mm metrics.Manager) Runner {
	return &execRunner{
		command: config.GetString(config.FederatorFetchCommand),
		args:    config.GetStringSlice(config.FederatorFetchArgs),
		timeout: config.GetDuration(config.FederatorFetchTimeout),
		metrics: mm,
	}
}

func (r *execRunner) Check(ctx context.Context) error {
	path, err := exec.LookPath(r.command)
	if err != nil {
		return i18n.WrapError(ctx, err, i18n.MsgFetchToolNotFound, r.command)
	}
	log.L(ctx).Infof("Fetch tool: %s", path)
	return nil
}

func (r *execRunner) Run(ctx context.Context, args *translator.InvocationArguments) (string, bool) {
	outfile, ok := args.Get(translator.FlagOutfile)
	if !ok || outfile == "" {
		return "", false
	}
	service, _ := args.Get(translator.FlagService)

	runCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	argv := append(append([]string{}, r.args...), args.Argv()...)
	l := log.L(ctx)
	l.Debugf("Invoking %s %s", r.command, args)

	output := l.WriterLevel(logrus.DebugLevel)
	defer output.Close()
	cmd := exec.CommandContext(runCtx, r.command, argv...)
	cmd.Stdout = output
	cmd.Stderr = output
	cmd.WaitDelay = waitDelay

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	result := metrics.FetchResultData
	switch {
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		l.Errorf("Fetch tool timed out after %s", elapsed)
		result = metrics.FetchResultTimeout
	case err != nil:
		l.Errorf("Fetch tool failed after %s: %s", elapsed, err)
		result = metrics.FetchResultFailed
	}

	ok = result == metrics.FetchResultData && hasData(outfile)
	if result == metrics.FetchResultData && !ok {
		result = metrics.FetchResultNoData
	}
	r.metrics.FetchCompleted(service, result, elapsed)
	l.Debugf("Fetch tool completed in %.2fms: %s", float64(elapsed)/float64(time.Millisecond), result)
	if !ok {
		return "", false
	}
	return outfile, true
}

func hasData(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular() && fi.Size() > 0
}
