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

// Package advice provides built-in advice implementations: debug tracing,
// retry, expression-based call guarding and JavaScript advice with its
// adapter.
//
// Package advice 提供内置的通知实现。
package advice

import (
	"github.com/goweave/goweave/api/types"
)

var (
	_ types.Interceptor = (*DebugInterceptor)(nil)
	_ types.Ordered     = (*DebugInterceptor)(nil)
)

// DebugInterceptor reports every call entering and leaving the chain through
// the configuration's OnInvoke callback, falling back to the logger when no
// callback is set.
type DebugInterceptor struct {
	config types.Config
}

// NewDebugInterceptor creates a debug interceptor bound to the given
// configuration.
func NewDebugInterceptor(config types.Config) *DebugInterceptor {
	return &DebugInterceptor{config: config}
}

func (d *DebugInterceptor) Invoke(invocation types.MethodInvocation) (interface{}, error) {
	d.onInvoke(invocation, types.In, nil, nil)
	result, err := invocation.Proceed()
	d.onInvoke(invocation, types.Out, result, err)
	return result, err
}

func (d *DebugInterceptor) onInvoke(invocation types.MethodInvocation, flowType string, result interface{}, err error) {
	if d.config.OnInvoke != nil {
		d.config.OnInvoke(invocation.ID(), flowType, invocation.GetMethod(), invocation.GetArguments(), result, err)
	} else if d.config.Logger != nil {
		d.config.Logger.Printf("invocation[%s] %s method=%s args=%v result=%v err=%v",
			invocation.ID(), flowType, invocation.GetMethod().String(), invocation.GetArguments(), result, err)
	}
}

// Order returns a late order so debug output wraps the call as tightly as
// possible around user advice.
func (d *DebugInterceptor) Order() int {
	return 900
}
