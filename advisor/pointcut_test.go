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

package advisor

import (
	"reflect"
	"testing"

	"github.com/goweave/goweave/api/types"
	"github.com/goweave/goweave/test"
	"github.com/goweave/goweave/test/assert"
	utilreflect "github.com/goweave/goweave/utils/reflect"
)

var (
	serviceType    = reflect.TypeOf(&test.GreeterService{})
	serviceSurface = utilreflect.SurfaceOf(serviceType)
)

func TestTruePointcut(t *testing.T) {
	assert.True(t, True.MatchesType(serviceType))
	matcher := True.MethodMatcher()
	assert.True(t, matcher.Matches(serviceSurface["Greet"], serviceType))
	assert.False(t, matcher.IsRuntime())
}

func TestNameMatchMethodPointcut(t *testing.T) {
	t.Run("exactNames", func(t *testing.T) {
		pointcut := NewNameMatchMethodPointcut("Greet", "Save")
		assert.True(t, pointcut.Matches(serviceSurface["Greet"], serviceType))
		assert.True(t, pointcut.Matches(serviceSurface["Save"], serviceType))
		assert.False(t, pointcut.Matches(serviceSurface["Load"], serviceType))
	})

	t.Run("addMethodNameChains", func(t *testing.T) {
		pointcut := NewNameMatchMethodPointcut().AddMethodName("Greet").AddMethodName("Load")
		assert.True(t, pointcut.Matches(serviceSurface["Greet"], serviceType))
		assert.True(t, pointcut.Matches(serviceSurface["Load"], serviceType))
		assert.False(t, pointcut.Matches(serviceSurface["Save"], serviceType))
	})

	t.Run("wildcardPrefixAndSuffix", func(t *testing.T) {
		prefix := NewNameMatchMethodPointcut("G*")
		assert.True(t, prefix.Matches(serviceSurface["Greet"], serviceType))
		assert.False(t, prefix.Matches(serviceSurface["Save"], serviceType))

		suffix := NewNameMatchMethodPointcut("*ave")
		assert.True(t, suffix.Matches(serviceSurface["Save"], serviceType))
		assert.False(t, suffix.Matches(serviceSurface["Greet"], serviceType))
	})

	t.Run("isStatic", func(t *testing.T) {
		assert.False(t, NewNameMatchMethodPointcut("Greet").IsRuntime())
	})
}

func TestRegexpMethodPointcut(t *testing.T) {
	pointcut, err := NewRegexpMethodPointcut(`^G.*$`, `^Lo.d$`)
	assert.Nil(t, err)
	assert.True(t, pointcut.Matches(serviceSurface["Greet"], serviceType))
	assert.True(t, pointcut.Matches(serviceSurface["Load"], serviceType))
	assert.False(t, pointcut.Matches(serviceSurface["Save"], serviceType))

	_, err = NewRegexpMethodPointcut(`([`)
	assert.NotNil(t, err)
}

func TestFuncPointcut(t *testing.T) {
	t.Run("typeFilter", func(t *testing.T) {
		pointcut := &FuncPointcut{
			TypeFunc: func(targetType reflect.Type) bool {
				return targetType == serviceType
			},
		}
		assert.True(t, pointcut.MatchesType(serviceType))
		assert.False(t, pointcut.MatchesType(reflect.TypeOf("")))
		assert.False(t, pointcut.IsRuntime())
	})

	t.Run("argsFuncMakesItRuntime", func(t *testing.T) {
		pointcut := &FuncPointcut{
			ArgsFunc: func(method types.Method, targetType reflect.Type, args []interface{}) bool {
				return len(args) > 0
			},
		}
		assert.True(t, pointcut.IsRuntime())
		assert.True(t, pointcut.MatchesArgs(serviceSurface["Greet"], serviceType, []interface{}{"x"}))
		assert.False(t, pointcut.MatchesArgs(serviceSurface["Greet"], serviceType, nil))
	})

	t.Run("nilFuncsMatchEverything", func(t *testing.T) {
		pointcut := &FuncPointcut{}
		assert.True(t, pointcut.MatchesType(serviceType))
		assert.True(t, pointcut.Matches(serviceSurface["Greet"], serviceType))
	})
}

func TestDefaultPointcutAdvisor(t *testing.T) {
	advice := &test.CountingBeforeAdvice{}

	t.Run("nilPointcutMeansAlwaysMatch", func(t *testing.T) {
		adv := &DefaultPointcutAdvisor{Advice: advice}
		assert.True(t, adv.GetPointcut() == True)
	})

	t.Run("equalsComparesAdviceAndPointcut", func(t *testing.T) {
		assert.True(t, New(advice).Equals(New(advice)))
		assert.False(t, New(advice).Equals(New(&test.CountingBeforeAdvice{})))
		pointcut := NewNameMatchMethodPointcut("Greet")
		assert.True(t, NewWithPointcut(pointcut, advice).Equals(NewWithPointcut(pointcut, advice)))
		assert.False(t, NewWithPointcut(pointcut, advice).Equals(New(advice)))
	})
}
