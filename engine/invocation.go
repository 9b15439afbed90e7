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

package engine

import (
	"reflect"

	"github.com/gofrs/uuid/v5"
	"github.com/goweave/goweave/api/types"
	utilreflect "github.com/goweave/goweave/utils/reflect"
)

var _ types.MethodInvocation = (*reflectiveMethodInvocation)(nil)

// reflectiveMethodInvocation is the per-call context threading one method
// call through its interceptor chain. Each instance belongs to a single call
// and is not safe for concurrent use; independent re-invocation goes through
// InvocableClone.
type reflectiveMethodInvocation struct {
	id         string
	proxy      types.Proxy
	target     interface{}
	targetType reflect.Type
	method     types.Method
	arguments  []interface{}
	chain      []ChainEntry

	// currentInterceptorIndex is the cursor into chain. It starts at -1 and
	// the call reaches the target once it equals len(chain)-1.
	currentInterceptorIndex int

	// userAttributes carries call-scoped state across interceptors. Created
	// lazily; clones share the same map with their origin.
	userAttributes map[string]interface{}
}

func newInvocation(proxy types.Proxy, target interface{}, method types.Method, arguments []interface{}, targetType reflect.Type, chain []ChainEntry) *reflectiveMethodInvocation {
	return &reflectiveMethodInvocation{
		id:                      newInvocationId(),
		proxy:                   proxy,
		target:                  target,
		targetType:              targetType,
		method:                  method,
		arguments:               arguments,
		chain:                   chain,
		currentInterceptorIndex: -1,
	}
}

func newInvocationId() string {
	id, err := uuid.NewV4()
	if err != nil {
		return ""
	}
	return id.String()
}

func (inv *reflectiveMethodInvocation) ID() string {
	return inv.id
}

func (inv *reflectiveMethodInvocation) GetProxy() types.Proxy {
	return inv.proxy
}

func (inv *reflectiveMethodInvocation) GetTarget() interface{} {
	return inv.target
}

func (inv *reflectiveMethodInvocation) GetTargetType() reflect.Type {
	return inv.targetType
}

func (inv *reflectiveMethodInvocation) GetMethod() types.Method {
	return inv.method
}

func (inv *reflectiveMethodInvocation) GetArguments() []interface{} {
	return inv.arguments
}

// SetArguments replaces the arguments seen by the rest of the chain and by
// the target. The change is not visible to interceptors that already ran.
func (inv *reflectiveMethodInvocation) SetArguments(arguments []interface{}) {
	inv.arguments = arguments
}

// Proceed advances the cursor and hands control to the next interceptor, or
// to the target once the chain is exhausted. Entries carrying a runtime
// matcher are re-checked against the live arguments and skipped on mismatch.
func (inv *reflectiveMethodInvocation) Proceed() (interface{}, error) {
	if inv.currentInterceptorIndex == len(inv.chain)-1 {
		return inv.invokeJoinpoint()
	}
	inv.currentInterceptorIndex++
	entry := inv.chain[inv.currentInterceptorIndex]
	if entry.Matcher != nil {
		if entry.Matcher.MatchesArgs(inv.method, inv.targetType, inv.arguments) {
			return entry.Interceptor.Invoke(inv)
		}
		// Dynamic matching failed. Skip this interceptor and move on.
		return inv.Proceed()
	}
	return entry.Interceptor.Invoke(inv)
}

// invokeJoinpoint calls the underlying target method with the current
// arguments.
func (inv *reflectiveMethodInvocation) invokeJoinpoint() (interface{}, error) {
	return utilreflect.Invoke(inv.target, inv.method, inv.arguments)
}

// InvocableClone returns a re-invocable copy with a fresh cursor and its own
// argument slice. The user attribute map is forced into existence first so
// the clone and the origin share call-scoped state.
func (inv *reflectiveMethodInvocation) InvocableClone() types.MethodInvocation {
	cloneArguments := make([]interface{}, len(inv.arguments))
	copy(cloneArguments, inv.arguments)
	return inv.InvocableCloneWithArgs(cloneArguments)
}

// InvocableCloneWithArgs is InvocableClone with the given arguments installed
// in the copy.
func (inv *reflectiveMethodInvocation) InvocableCloneWithArgs(arguments []interface{}) types.MethodInvocation {
	if inv.userAttributes == nil {
		inv.userAttributes = make(map[string]interface{})
	}
	clone := *inv
	clone.arguments = arguments
	clone.currentInterceptorIndex = -1
	return &clone
}

// SetUserAttribute attaches call-scoped state under the given key. A nil
// value removes the entry.
func (inv *reflectiveMethodInvocation) SetUserAttribute(key string, value interface{}) {
	if value == nil {
		if inv.userAttributes != nil {
			delete(inv.userAttributes, key)
		}
		return
	}
	if inv.userAttributes == nil {
		inv.userAttributes = make(map[string]interface{})
	}
	inv.userAttributes[key] = value
}

func (inv *reflectiveMethodInvocation) GetUserAttribute(key string) interface{} {
	if inv.userAttributes == nil {
		return nil
	}
	return inv.userAttributes[key]
}

// UserAttributes returns the live attribute map, creating it on first use.
func (inv *reflectiveMethodInvocation) UserAttributes() map[string]interface{} {
	if inv.userAttributes == nil {
		inv.userAttributes = make(map[string]interface{})
	}
	return inv.userAttributes
}
