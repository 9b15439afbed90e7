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
	"fmt"
	"sync"

	"github.com/goweave/goweave/advisor"
	"github.com/goweave/goweave/api/types"
)

// DefaultAdapterRegistry is the shared registry used by configurations that
// do not install their own. It recognizes the built-in advice shapes and any
// adapter registered process-wide.
var DefaultAdapterRegistry types.AdapterRegistry = NewAdapterRegistry()

var _ types.AdapterRegistry = (*AdvisorAdapterRegistry)(nil)

// AdvisorAdapterRegistry normalizes advice objects and advisors into
// canonical interceptors. It ships with adapters for the three built-in
// advice shapes (before, after-returning, throws); further shapes plug in
// through RegisterAdvisorAdapter.
//
// AdvisorAdapterRegistry 将通知对象和切面归一化为标准拦截器。
type AdvisorAdapterRegistry struct {
	sync.RWMutex
	adapters []types.AdvisorAdapter
}

// NewAdapterRegistry creates a registry preloaded with the built-in advice
// shape adapters.
func NewAdapterRegistry() *AdvisorAdapterRegistry {
	return &AdvisorAdapterRegistry{
		adapters: []types.AdvisorAdapter{
			beforeAdviceAdapter{},
			afterReturningAdviceAdapter{},
			throwsAdviceAdapter{},
		},
	}
}

// Wrap normalizes the given object into an advisor. Advisors pass through
// unchanged; interceptors and advice of a registered shape are wrapped in an
// always-matching advisor. Anything else fails with ErrUnknownAdviceType.
func (r *AdvisorAdapterRegistry) Wrap(adviceObject interface{}) (types.Advisor, error) {
	if adv, ok := adviceObject.(types.Advisor); ok {
		return adv, nil
	}
	advice, ok := adviceObject.(types.Advice)
	if !ok {
		return nil, fmt.Errorf("%w: %T is neither a supported subinterface of advice nor an advisor", types.ErrUnknownAdviceType, adviceObject)
	}
	if _, ok := advice.(types.Interceptor); ok {
		return advisor.New(advice), nil
	}
	r.RLock()
	defer r.RUnlock()
	for _, adapter := range r.adapters {
		if adapter.SupportsAdvice(advice) {
			return advisor.New(advice), nil
		}
	}
	return nil, fmt.Errorf("%w: %T is neither a supported subinterface of advice nor an advisor", types.ErrUnknownAdviceType, adviceObject)
}

// GetInterceptors expands an advisor's advice into the interceptors that
// implement it. An advice may satisfy several shapes at once and then yields
// several interceptors, in adapter registration order.
func (r *AdvisorAdapterRegistry) GetInterceptors(adv types.Advisor) ([]types.Interceptor, error) {
	advice := adv.GetAdvice()
	var interceptors []types.Interceptor
	if interceptor, ok := advice.(types.Interceptor); ok {
		interceptors = append(interceptors, interceptor)
	}
	r.RLock()
	defer r.RUnlock()
	for _, adapter := range r.adapters {
		if adapter.SupportsAdvice(advice) {
			interceptors = append(interceptors, adapter.GetInterceptor(adv))
		}
	}
	if len(interceptors) == 0 {
		return nil, fmt.Errorf("%w: advice %T is not supported by any registered adapter", types.ErrUnknownAdviceType, advice)
	}
	return interceptors, nil
}

// RegisterAdvisorAdapter adds support for a new advice shape.
func (r *AdvisorAdapterRegistry) RegisterAdvisorAdapter(adapter types.AdvisorAdapter) {
	r.Lock()
	defer r.Unlock()
	r.adapters = append(r.adapters, adapter)
}

// beforeAdviceAdapter adapts BeforeAdvice: the advice runs first and may veto
// the call by returning an error; on success the chain proceeds normally.
type beforeAdviceAdapter struct{}

func (beforeAdviceAdapter) SupportsAdvice(advice types.Advice) bool {
	_, ok := advice.(types.BeforeAdvice)
	return ok
}

func (beforeAdviceAdapter) GetInterceptor(adv types.Advisor) types.Interceptor {
	return &beforeAdviceInterceptor{advice: adv.GetAdvice().(types.BeforeAdvice)}
}

type beforeAdviceInterceptor struct {
	advice types.BeforeAdvice
}

func (i *beforeAdviceInterceptor) Invoke(invocation types.MethodInvocation) (interface{}, error) {
	if err := i.advice.Before(invocation.GetMethod(), invocation.GetArguments(), invocation.GetTarget()); err != nil {
		return nil, err
	}
	return invocation.Proceed()
}

// afterReturningAdviceAdapter adapts AfterReturningAdvice: the advice runs
// only after a successful proceed and sees, but cannot replace, the result.
type afterReturningAdviceAdapter struct{}

func (afterReturningAdviceAdapter) SupportsAdvice(advice types.Advice) bool {
	_, ok := advice.(types.AfterReturningAdvice)
	return ok
}

func (afterReturningAdviceAdapter) GetInterceptor(adv types.Advisor) types.Interceptor {
	return &afterReturningInterceptor{advice: adv.GetAdvice().(types.AfterReturningAdvice)}
}

type afterReturningInterceptor struct {
	advice types.AfterReturningAdvice
}

func (i *afterReturningInterceptor) Invoke(invocation types.MethodInvocation) (interface{}, error) {
	result, err := invocation.Proceed()
	if err != nil {
		return nil, err
	}
	if err = i.advice.AfterReturning(result, invocation.GetMethod(), invocation.GetArguments(), invocation.GetTarget()); err != nil {
		return nil, err
	}
	return result, nil
}

// throwsAdviceAdapter adapts ThrowsAdvice: the advice observes failures
// flowing back through the chain, then the original error continues to
// propagate unchanged.
type throwsAdviceAdapter struct{}

func (throwsAdviceAdapter) SupportsAdvice(advice types.Advice) bool {
	_, ok := advice.(types.ThrowsAdvice)
	return ok
}

func (throwsAdviceAdapter) GetInterceptor(adv types.Advisor) types.Interceptor {
	return &throwsInterceptor{advice: adv.GetAdvice().(types.ThrowsAdvice)}
}

type throwsInterceptor struct {
	advice types.ThrowsAdvice
}

func (i *throwsInterceptor) Invoke(invocation types.MethodInvocation) (interface{}, error) {
	result, err := invocation.Proceed()
	if err != nil {
		i.advice.AfterThrowing(invocation.GetMethod(), invocation.GetArguments(), invocation.GetTarget(), err)
		return nil, err
	}
	return result, nil
}
