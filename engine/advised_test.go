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
	"errors"
	"reflect"
	"testing"

	"github.com/goweave/goweave/advisor"
	"github.com/goweave/goweave/api/types"
	"github.com/goweave/goweave/test"
	"github.com/goweave/goweave/test/assert"
)

func newAdvisedWithTarget(t *testing.T, service *test.GreeterService) *AdvisedSupport {
	t.Helper()
	advised := NewAdvisedSupport(types.NewConfig())
	assert.Nil(t, advised.SetTarget(service))
	return advised
}

func TestAdvisedChainResolution(t *testing.T) {
	service := test.NewGreeterService()
	serviceType := reflect.TypeOf(service)
	method := greetMethod(t)

	t.Run("emptyConfigurationYieldsEmptyChain", func(t *testing.T) {
		advised := newAdvisedWithTarget(t, service)
		chain, err := advised.GetInterceptorsAndDynamicInterceptionAdvice(method, serviceType)
		assert.Nil(t, err)
		assert.Equal(t, 0, len(chain))
	})

	t.Run("staticMatchHasNoMatcherAttached", func(t *testing.T) {
		advised := newAdvisedWithTarget(t, service)
		assert.Nil(t, advised.AddAdvisor(advisor.NewWithPointcut(
			advisor.NewNameMatchMethodPointcut("Greet"),
			&test.CountingBeforeAdvice{},
		)))
		chain, err := advised.GetInterceptorsAndDynamicInterceptionAdvice(method, serviceType)
		assert.Nil(t, err)
		assert.Equal(t, 1, len(chain))
		assert.Nil(t, chain[0].Matcher)
	})

	t.Run("runtimeMatchKeepsMatcherAttached", func(t *testing.T) {
		advised := newAdvisedWithTarget(t, service)
		pointcut := &advisor.FuncPointcut{
			ArgsFunc: func(method types.Method, targetType reflect.Type, args []interface{}) bool {
				return len(args) > 0 && args[0] == "vip"
			},
		}
		assert.Nil(t, advised.AddAdvisor(advisor.NewWithPointcut(pointcut, &test.CountingBeforeAdvice{})))
		chain, err := advised.GetInterceptorsAndDynamicInterceptionAdvice(method, serviceType)
		assert.Nil(t, err)
		assert.Equal(t, 1, len(chain))
		assert.NotNil(t, chain[0].Matcher)
	})

	t.Run("nonMatchingPointcutIsExcluded", func(t *testing.T) {
		advised := newAdvisedWithTarget(t, service)
		assert.Nil(t, advised.AddAdvisor(advisor.NewWithPointcut(
			advisor.NewNameMatchMethodPointcut("Save"),
			&test.CountingBeforeAdvice{},
		)))
		chain, err := advised.GetInterceptorsAndDynamicInterceptionAdvice(method, serviceType)
		assert.Nil(t, err)
		assert.Equal(t, 0, len(chain))
	})
}

func TestAdvisedChainCache(t *testing.T) {
	service := test.NewGreeterService()
	serviceType := reflect.TypeOf(service)
	method := greetMethod(t)

	advised := newAdvisedWithTarget(t, service)
	assert.Nil(t, advised.AddAdvice(&test.CountingBeforeAdvice{}))

	chain1, err := advised.GetInterceptorsAndDynamicInterceptionAdvice(method, serviceType)
	assert.Nil(t, err)
	assert.Equal(t, 1, len(chain1))

	// Mutating the advisor sequence must invalidate the cached chain.
	assert.Nil(t, advised.AddAdvice(&test.CountingBeforeAdvice{}))
	chain2, err := advised.GetInterceptorsAndDynamicInterceptionAdvice(method, serviceType)
	assert.Nil(t, err)
	assert.Equal(t, 2, len(chain2))

	advisors := advised.GetAdvisors()
	assert.Nil(t, advised.RemoveAdvisor(advisors[0]))
	chain3, err := advised.GetInterceptorsAndDynamicInterceptionAdvice(method, serviceType)
	assert.Nil(t, err)
	assert.Equal(t, 1, len(chain3))
}

func TestAdvisedFrozen(t *testing.T) {
	service := test.NewGreeterService()
	advised := newAdvisedWithTarget(t, service)
	assert.Nil(t, advised.AddAdvice(&test.CountingBeforeAdvice{}))

	advised.SetFrozen(true)
	assert.True(t, advised.IsFrozen())

	err := advised.AddAdvice(&test.CountingBeforeAdvice{})
	assert.True(t, errors.Is(err, types.ErrFrozen))
	err = advised.RemoveAdvisor(advised.GetAdvisors()[0])
	assert.True(t, errors.Is(err, types.ErrFrozen))
	err = advised.SetTargetSource(nil)
	assert.True(t, errors.Is(err, types.ErrFrozen))
	assert.Equal(t, 1, advised.CountAdvisors())

	advised.SetFrozen(false)
	assert.Nil(t, advised.AddAdvice(&test.CountingBeforeAdvice{}))
}

func TestRemoveUnknownAdvisor(t *testing.T) {
	advised := newAdvisedWithTarget(t, test.NewGreeterService())
	err := advised.RemoveAdvisor(advisor.New(&test.CountingBeforeAdvice{}))
	assert.True(t, errors.Is(err, types.ErrProxyConfig))
}

func TestSetInterfacesRejectsNonInterface(t *testing.T) {
	advised := NewAdvisedSupport(types.NewConfig())
	err := advised.SetInterfaces(reflect.TypeOf(&test.GreeterService{}))
	assert.True(t, errors.Is(err, types.ErrProxyConfig))
}
