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
	"testing"

	"github.com/goweave/goweave/api/types"
	"github.com/goweave/goweave/test"
	"github.com/goweave/goweave/test/assert"
	utilreflect "github.com/goweave/goweave/utils/reflect"
)

func greetMethod(t *testing.T) types.Method {
	t.Helper()
	surface := utilreflect.SurfaceOf(reflect.TypeOf(&test.GreeterService{}))
	m, ok := surface["Greet"]
	assert.True(t, ok)
	return m
}

func chainOf(interceptors ...types.Interceptor) []ChainEntry {
	chain := make([]ChainEntry, len(interceptors))
	for i, interceptor := range interceptors {
		chain[i] = ChainEntry{Interceptor: interceptor}
	}
	return chain
}

func TestInvocationProceed(t *testing.T) {
	service := test.NewGreeterService()
	method := greetMethod(t)

	t.Run("emptyChainCallsTarget", func(t *testing.T) {
		inv := newInvocation(nil, service, method, []interface{}{"world"}, reflect.TypeOf(service), nil)
		result, err := inv.Proceed()
		assert.Nil(t, err)
		assert.Equal(t, "hello, world", result)
	})

	t.Run("interceptorsRunInRegistrationOrder", func(t *testing.T) {
		log := &test.CallLog{}
		chain := chainOf(
			&test.LabelInterceptor{Label: "outer", Log: log},
			&test.LabelInterceptor{Label: "inner", Log: log},
		)
		inv := newInvocation(nil, service, method, []interface{}{"world"}, reflect.TypeOf(service), chain)
		result, err := inv.Proceed()
		assert.Nil(t, err)
		assert.Equal(t, "hello, world", result)
		assert.Equal(t, []string{"outer:before", "inner:before", "inner:after", "outer:after"}, log.Entries())
	})

	t.Run("invocationHasId", func(t *testing.T) {
		inv := newInvocation(nil, service, method, []interface{}{"world"}, reflect.TypeOf(service), nil)
		assert.NotEqual(t, "", inv.ID())
	})

	t.Run("rewrittenArgumentsReachTarget", func(t *testing.T) {
		rewriter := rewritingInterceptor{replacement: "rewritten"}
		inv := newInvocation(nil, service, method, []interface{}{"original"}, reflect.TypeOf(service), chainOf(rewriter))
		result, err := inv.Proceed()
		assert.Nil(t, err)
		assert.Equal(t, "hello, rewritten", result)
	})
}

type rewritingInterceptor struct {
	replacement string
}

func (i rewritingInterceptor) Invoke(invocation types.MethodInvocation) (interface{}, error) {
	invocation.SetArguments([]interface{}{i.replacement})
	return invocation.Proceed()
}

func TestInvocationDynamicMatcher(t *testing.T) {
	service := test.NewGreeterService()
	method := greetMethod(t)
	log := &test.CallLog{}

	// The matched interceptor only applies when the first argument is "vip".
	matcher := argEqualsMatcher{value: "vip"}
	chain := []ChainEntry{
		{Interceptor: &test.LabelInterceptor{Label: "always", Log: log}},
		{Interceptor: &test.LabelInterceptor{Label: "vipOnly", Log: log}, Matcher: matcher},
	}

	inv := newInvocation(nil, service, method, []interface{}{"plain"}, reflect.TypeOf(service), chain)
	result, err := inv.Proceed()
	assert.Nil(t, err)
	assert.Equal(t, "hello, plain", result)
	assert.Equal(t, []string{"always:before", "always:after"}, log.Entries())

	inv = newInvocation(nil, service, method, []interface{}{"vip"}, reflect.TypeOf(service), chain)
	result, err = inv.Proceed()
	assert.Nil(t, err)
	assert.Equal(t, "hello, vip", result)
	assert.Equal(t, []string{"always:before", "vipOnly:before", "vipOnly:after", "always:after"}, log.Entries()[2:])
}

type argEqualsMatcher struct {
	value string
}

func (m argEqualsMatcher) Matches(method types.Method, targetType reflect.Type) bool {
	return true
}

func (m argEqualsMatcher) IsRuntime() bool {
	return true
}

func (m argEqualsMatcher) MatchesArgs(method types.Method, targetType reflect.Type, args []interface{}) bool {
	return len(args) > 0 && args[0] == m.value
}

func TestInvocableClone(t *testing.T) {
	service := test.NewGreeterService()
	method := greetMethod(t)

	t.Run("cloneProceedsIndependently", func(t *testing.T) {
		log := &test.CallLog{}
		chain := chainOf(&test.LabelInterceptor{Label: "a", Log: log})
		inv := newInvocation(nil, service, method, []interface{}{"one"}, reflect.TypeOf(service), chain)

		result, err := inv.Proceed()
		assert.Nil(t, err)
		assert.Equal(t, "hello, one", result)

		clone := inv.InvocableCloneWithArgs([]interface{}{"two"})
		result, err = clone.Proceed()
		assert.Nil(t, err)
		assert.Equal(t, "hello, two", result)

		// Both runs walked the full chain.
		assert.Equal(t, 4, len(log.Entries()))
	})

	t.Run("cloneSharesId", func(t *testing.T) {
		inv := newInvocation(nil, service, method, []interface{}{"x"}, reflect.TypeOf(service), nil)
		assert.Equal(t, inv.ID(), inv.InvocableClone().ID())
	})

	t.Run("cloneCopiesArguments", func(t *testing.T) {
		inv := newInvocation(nil, service, method, []interface{}{"x"}, reflect.TypeOf(service), nil)
		clone := inv.InvocableClone()
		clone.SetArguments([]interface{}{"y"})
		assert.Equal(t, "x", inv.GetArguments()[0])
		assert.Equal(t, "y", clone.GetArguments()[0])
	})

	t.Run("userAttributesAreSharedWithClones", func(t *testing.T) {
		inv := newInvocation(nil, service, method, []interface{}{"x"}, reflect.TypeOf(service), nil)
		clone := inv.InvocableClone()
		clone.SetUserAttribute("k", "v")
		assert.Equal(t, "v", inv.GetUserAttribute("k"))

		inv.SetUserAttribute("k", nil)
		assert.Nil(t, clone.GetUserAttribute("k"))
	})
}

func TestUserAttributes(t *testing.T) {
	service := test.NewGreeterService()
	method := greetMethod(t)
	inv := newInvocation(nil, service, method, []interface{}{"x"}, reflect.TypeOf(service), nil)

	assert.Nil(t, inv.GetUserAttribute("missing"))
	inv.SetUserAttribute("k", 42)
	assert.Equal(t, 42, inv.GetUserAttribute("k"))
	assert.Equal(t, 1, len(inv.UserAttributes()))
	inv.SetUserAttribute("k", nil)
	assert.Equal(t, 0, len(inv.UserAttributes()))
}
