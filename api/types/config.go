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

package types

import "time"

const (
	// In is the flow type reported to OnInvoke before the chain runs.
	In = "IN"
	// Out is the flow type reported to OnInvoke after the chain returned.
	Out = "OUT"
)

// Config carries the ambient collaborators of a proxy configuration.
type Config struct {
	// Logger is the logging interface, defaulting to DefaultLogger().
	Logger Logger
	// OnInvoke is a callback for invocation debug information. It is only
	// called by the built-in debug interceptor.
	// - invocationId: unique id of the top-level invocation.
	// - flowType: IN before the chain runs, OUT after it returned.
	// - method: the intercepted method.
	// - args: the current argument values.
	// - result: the call result, nil for flowType IN.
	// - err: error information, if any.
	OnInvoke func(invocationId string, flowType string, method Method, args []interface{}, result interface{}, err error)
	// Properties are global key/value properties made available to script and
	// expression based advice under the `global` variable.
	Properties map[string]interface{}
	// ScriptMaxExecutionTime caps the execution time of script-based advice.
	// Zero means no limit.
	ScriptMaxExecutionTime time.Duration
}

// NewConfig creates a new Config with default values and applies the provided options.
func NewConfig(opts ...Option) Config {
	c := &Config{
		Logger:     DefaultLogger(),
		Properties: make(map[string]interface{}),
	}
	for _, opt := range opts {
		_ = opt(c)
	}
	return *c
}
