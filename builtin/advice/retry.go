/*
 * Copyright 2024 The GoWeave Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package advice

import (
	"time"

	"github.com/goweave/goweave/api/types"
)

// retryReplayKey marks an invocation whose chain is being replayed by a
// retry attempt. The attribute map is shared between an invocation and its
// clones, so re-entering retry interceptors see the mark and pass through.
const retryReplayKey = "$retryReplay"

var _ types.Interceptor = (*RetryInterceptor)(nil)

// RetryInterceptor re-invokes a failed call up to MaxAttempts times, waiting
// Delay between attempts. Each attempt replays the chain through an
// invocable clone, so advice downstream of this interceptor runs again per
// attempt.
type RetryInterceptor struct {
	// MaxAttempts is the total number of attempts including the first.
	// Values below 1 behave as 1.
	MaxAttempts int
	// Delay is the pause between attempts. Zero retries immediately.
	Delay time.Duration
}

func (r *RetryInterceptor) Invoke(invocation types.MethodInvocation) (interface{}, error) {
	if invocation.GetUserAttribute(retryReplayKey) != nil {
		return invocation.Proceed()
	}
	result, err := invocation.Proceed()
	for attempt := 2; err != nil && attempt <= r.MaxAttempts; attempt++ {
		if r.Delay > 0 {
			time.Sleep(r.Delay)
		}
		clone := invocation.InvocableClone()
		clone.SetUserAttribute(retryReplayKey, true)
		result, err = clone.Proceed()
	}
	return result, err
}
