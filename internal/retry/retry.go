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

package retry

import (
	"context"
	"time"

	"github.com/eida/eidangws/internal/config"
	"github.com/eida/eidangws/internal/i18n"
	"github.com/eida/eidangws/internal/log"
)

const (
	DefaultFactor = 2.0
)

const (
	// ConfigInitialDelay the first delay between attempts
	ConfigInitialDelay = "initialDelay"
	// ConfigMaximumDelay the cap on the delay between attempts
	ConfigMaximumDelay = "maxDelay"
	// ConfigFactor the multiplier applied to the delay after each attempt
	ConfigFactor = "factor"
	// ConfigMaxAttempts stops retrying after this many attempts, zero for unlimited
	ConfigMaxAttempts = "maxAttempts"
)

// Retry configures a simple backoff retry. It is safe for concurrent use.
type Retry struct {
	InitialDelay time.Duration
	MaximumDelay time.Duration
	Factor       float32
	MaxAttempts  int
}

// InitPrefix registers the retry keys under a config prefix
func InitPrefix(prefix config.Prefix, maxAttempts int) {
	prefix.AddKnownKey(ConfigInitialDelay, "250ms")
	prefix.AddKnownKey(ConfigMaximumDelay, "30s")
	prefix.AddKnownKey(ConfigFactor, DefaultFactor)
	prefix.AddKnownKey(ConfigMaxAttempts, maxAttempts)
}

// NewFromConfig builds a retry from keys registered with InitPrefix
func NewFromConfig(prefix config.Prefix) *Retry {
	return &Retry{
		InitialDelay: prefix.GetDuration(ConfigInitialDelay),
		MaximumDelay: prefix.GetDuration(ConfigMaximumDelay),
		Factor:       float32(prefix.GetFloat64(ConfigFactor)),
		MaxAttempts:  prefix.GetInt(ConfigMaxAttempts),
	}
}

// Do invokes the function until it returns false, the attempts are exhausted,
// or the context is done. The last error returned by the function is returned.
func (r *Retry) Do(ctx context.Context, action string, f func(attempt int) (retry bool, err error)) error {
	attempt := 0
	delay := r.InitialDelay
	factor := r.Factor
	if factor < 1 { // Can't reduce
		factor = DefaultFactor
	}
	for {
		attempt++
		retry, err := f(attempt)
		if !retry || (r.MaxAttempts > 0 && attempt >= r.MaxAttempts) {
			return err
		}
		log.L(ctx).Warnf("%s attempt %d failed: %s", action, attempt, err)

		// Limit the delay based on the context deadline and maximum delay
		deadline, dok := ctx.Deadline()
		if delay > r.MaximumDelay {
			delay = r.MaximumDelay
		}
		if dok {
			timeleft := time.Until(deadline)
			if timeleft < delay {
				delay = timeleft
			}
		}

		select {
		case <-ctx.Done():
			return i18n.NewError(ctx, i18n.MsgContextCanceled)
		case <-time.After(delay):
		}
		delay = time.Duration(float32(delay) * factor)
	}
}
