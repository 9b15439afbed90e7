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
	utilreflect "github.com/goweave/goweave/utils/reflect"
)

func TestAdapterRegistryWrap(t *testing.T) {
	registry := NewAdapterRegistry()

	t.Run("advisorPassesThrough", func(t *testing.T) {
		adv := advisor.New(&test.CountingBeforeAdvice{})
		wrapped, err := registry.Wrap(adv)
		assert.Nil(t, err)
		assert.True(t, wrapped == types.Advisor(adv))
	})

	t.Run("interceptorIsWrapped", func(t *testing.T) {
		wrapped, err := registry.Wrap(&test.LabelInterceptor{Label: "x", Log: &test.CallLog{}})
		assert.Nil(t, err)
		assert.NotNil(t, wrapped)
	})

	t.Run("beforeAdviceIsWrapped", func(t *testing.T) {
		wrapped, err := registry.Wrap(&test.CountingBeforeAdvice{})
		assert.Nil(t, err)
		assert.NotNil(t, wrapped)
	})

	t.Run("unknownShapeIsRejected", func(t *testing.T) {
		_, err := registry.Wrap("not advice")
		assert.True(t, errors.Is(err, types.ErrUnknownAdviceType))
	})
}

func TestAdapterRegistryGetInterceptors(t *testing.T) {
	registry := NewAdapterRegistry()
	service := test.NewGreeterService()
	method := greetMethod(t)

	invoke := func(t *testing.T, advice types.Advice, args ...interface{}) (interface{}, error) {
		t.Helper()
		interceptors, err := registry.GetInterceptors(advisor.New(advice))
		assert.Nil(t, err)
		assert.Equal(t, 1, len(interceptors))
		inv := newInvocation(nil, service, method, args, reflect.TypeOf(service), chainOf(interceptors...))
		return inv.Proceed()
	}

	t.Run("beforeAdviceRunsBeforeTarget", func(t *testing.T) {
		before := &test.CountingBeforeAdvice{}
		result, err := invoke(t, before, "world")
		assert.Nil(t, err)
		assert.Equal(t, "hello, world", result)
		assert.Equal(t, int32(1), before.Count())
	})

	t.Run("beforeAdviceVetoBlocksTarget", func(t *testing.T) {
		veto := errors.New("not allowed")
		before := &test.CountingBeforeAdvice{Err: veto}
		calls := service.CallCount()
		_, err := invoke(t, before, "world")
		assert.Equal(t, veto, err)
		assert.Equal(t, calls, service.CallCount())
	})

	t.Run("afterReturningSeesResult", func(t *testing.T) {
		after := &test.CountingAfterAdvice{}
		result, err := invoke(t, after, "world")
		assert.Nil(t, err)
		assert.Equal(t, "hello, world", result)
		assert.Equal(t, int32(1), after.Count())
		assert.Equal(t, "hello, world", after.LastResult())
	})

	t.Run("throwsAdviceObservesErrorAndPropagatesIt", func(t *testing.T) {
		log := &test.CallLog{}
		throws := &test.RecordingThrowsAdvice{Log: log}
		interceptors, err := registry.GetInterceptors(advisor.New(throws))
		assert.Nil(t, err)

		surface := reflect.TypeOf(service)
		loadMethod := mustMethod(t, surface, "Load")
		inv := newInvocation(nil, service, loadMethod, []interface{}{-1}, surface, chainOf(interceptors...))
		_, err = inv.Proceed()
		assert.NotNil(t, err)
		assert.Equal(t, 1, len(log.Entries()))
	})

	t.Run("unknownAdviceYieldsNoInterceptors", func(t *testing.T) {
		_, err := registry.GetInterceptors(advisor.New(struct{}{}))
		assert.True(t, errors.Is(err, types.ErrUnknownAdviceType))
	})
}

func mustMethod(t *testing.T, targetType reflect.Type, name string) types.Method {
	t.Helper()
	m, ok := utilreflect.SurfaceOf(targetType)[name]
	assert.True(t, ok)
	return m
}

// multiShapeAdvice implements two advice shapes at once.
type multiShapeAdvice struct {
	test.CountingBeforeAdvice
	test.CountingAfterAdvice
}

func TestAdviceWithMultipleShapesYieldsMultipleInterceptors(t *testing.T) {
	registry := NewAdapterRegistry()
	interceptors, err := registry.GetInterceptors(advisor.New(&multiShapeAdvice{}))
	assert.Nil(t, err)
	assert.Equal(t, 2, len(interceptors))
}

// auditAdvice is a custom advice shape recognized only by auditAdapter.
type auditAdvice struct {
	log *test.CallLog
}

func (a *auditAdvice) Audit(methodName string) {
	a.log.Append("audit:" + methodName)
}

type auditAdapter struct{}

func (auditAdapter) SupportsAdvice(advice types.Advice) bool {
	_, ok := advice.(*auditAdvice)
	return ok
}

func (auditAdapter) GetInterceptor(adv types.Advisor) types.Interceptor {
	return &auditInterceptor{advice: adv.GetAdvice().(*auditAdvice)}
}

type auditInterceptor struct {
	advice *auditAdvice
}

func (i *auditInterceptor) Invoke(invocation types.MethodInvocation) (interface{}, error) {
	i.advice.Audit(invocation.GetMethod().Name)
	return invocation.Proceed()
}

func TestRegisterCustomAdapter(t *testing.T) {
	registry := NewAdapterRegistry()
	log := &test.CallLog{}

	_, err := registry.Wrap(&auditAdvice{log: log})
	assert.True(t, errors.Is(err, types.ErrUnknownAdviceType))

	registry.RegisterAdvisorAdapter(auditAdapter{})

	wrapped, err := registry.Wrap(&auditAdvice{log: log})
	assert.Nil(t, err)
	interceptors, err := registry.GetInterceptors(wrapped)
	assert.Nil(t, err)
	assert.Equal(t, 1, len(interceptors))

	service := test.NewGreeterService()
	inv := newInvocation(nil, service, greetMethod(t), []interface{}{"w"}, reflect.TypeOf(service), chainOf(interceptors...))
	_, err = inv.Proceed()
	assert.Nil(t, err)
	assert.Equal(t, []string{"audit:Greet"}, log.Entries())
}
