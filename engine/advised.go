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

// Package engine provides the core functionality of the GoWeave interception
// framework: the advised configuration model, the reflective method
// invocation driving the interceptor chain, the advisor-adapter registry and
// the two proxy strategies.
//
// Package engine 提供 GoWeave 拦截框架的核心功能：
// 配置模型、驱动拦截器链的方法调用上下文、适配器注册表和两种代理策略。
//
// The engine package is responsible for:
//   - Holding the ordered advisor sequence and proxy flags (AdvisedSupport)
//   - Resolving and caching the interceptor chain per (method, target type)
//   - Walking the chain via MethodInvocation.Proceed
//   - Building interface-based and subclass-based proxies with identical
//     dispatch semantics
package engine

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/goweave/goweave/api/types"
	"github.com/goweave/goweave/target"
	utilreflect "github.com/goweave/goweave/utils/reflect"
)

// Ensuring AdvisedSupport implements types.Advised.
var _ types.Advised = (*AdvisedSupport)(nil)

// ChainEntry is one resolved element of an interceptor chain. A non-nil
// Matcher marks a dynamically matched interceptor that must be re-checked
// with the live arguments on every call.
type ChainEntry struct {
	Interceptor types.Interceptor
	Matcher     types.MethodMatcher
}

// cacheKey identifies a resolved chain. Method names are unique per proxied
// surface, so the pair (name, target type) is a stable key.
type cacheKey struct {
	methodName string
	targetType reflect.Type
}

// AdvisedSupport is the mutable configuration model behind every proxy: the
// ordered advisor sequence, the target source, the proxy flags and the
// derived chain cache.
//
// The advisor sequence and the cache are shared mutable state read on every
// call; both are guarded by the embedded RWMutex, and the cache is
// invalidated synchronously with every advisor mutation so readers observe
// either the pre- or post-mutation chain, never a partial one.
//
// AdvisedSupport 是每个代理背后的可变配置模型。
type AdvisedSupport struct {
	sync.RWMutex
	config       types.Config
	targetSource types.TargetSource
	advisors     []types.Advisor
	interfaces   []reflect.Type
	registry     types.AdapterRegistry
	proxyContext *ProxyContext

	exposeProxy     bool
	opaque          bool
	proxyTargetType bool
	frozen          bool

	methodCache map[cacheKey][]ChainEntry
}

// NewAdvisedSupport creates an empty configuration using the global advisor
// adapter registry.
func NewAdvisedSupport(config types.Config) *AdvisedSupport {
	return &AdvisedSupport{
		config:       config,
		targetSource: target.EmptySource,
		registry:     DefaultAdapterRegistry,
		proxyContext: &ProxyContext{},
		methodCache:  make(map[cacheKey][]ChainEntry),
	}
}

// Config returns the ambient configuration.
func (a *AdvisedSupport) Config() types.Config {
	return a.config
}

// SetTarget wraps the given object in a fixed singleton target source.
func (a *AdvisedSupport) SetTarget(targetObj interface{}) error {
	return a.SetTargetSource(target.NewSingletonSource(targetObj))
}

// SetTargetSource replaces the target source. Part of the Advised surface, so
// a live proxy can be re-pointed through itself.
func (a *AdvisedSupport) SetTargetSource(targetSource types.TargetSource) error {
	a.Lock()
	defer a.Unlock()
	if a.frozen {
		return types.ErrFrozen
	}
	if targetSource == nil {
		targetSource = target.EmptySource
	}
	a.targetSource = targetSource
	a.invalidateCache()
	return nil
}

// GetTargetSource returns the current target source.
func (a *AdvisedSupport) GetTargetSource() types.TargetSource {
	a.RLock()
	defer a.RUnlock()
	return a.targetSource
}

// SetInterfaces declares the explicit interface list proxied by the
// interface-based strategy. Every type must be an interface type, obtained
// via reflect.TypeOf((*Iface)(nil)).Elem().
func (a *AdvisedSupport) SetInterfaces(interfaces ...reflect.Type) error {
	for _, it := range interfaces {
		if it == nil || it.Kind() != reflect.Interface {
			return fmt.Errorf("%w: %v is not an interface type", types.ErrProxyConfig, it)
		}
	}
	a.Lock()
	defer a.Unlock()
	a.interfaces = interfaces
	a.invalidateCache()
	return nil
}

// Interfaces returns a copy of the explicit proxied-interface list.
func (a *AdvisedSupport) Interfaces() []reflect.Type {
	a.RLock()
	defer a.RUnlock()
	out := make([]reflect.Type, len(a.interfaces))
	copy(out, a.interfaces)
	return out
}

// SetAdapterRegistry replaces the advisor adapter registry used to expand
// advice into canonical interceptors.
func (a *AdvisedSupport) SetAdapterRegistry(registry types.AdapterRegistry) {
	a.Lock()
	defer a.Unlock()
	if registry != nil {
		a.registry = registry
	}
}

// AdapterRegistry returns the advisor adapter registry in use.
func (a *AdvisedSupport) AdapterRegistry() types.AdapterRegistry {
	a.RLock()
	defer a.RUnlock()
	return a.registry
}

// ProxyContext returns the call-scoped current-proxy store of this
// configuration, used by the expose-proxy feature.
func (a *AdvisedSupport) ProxyContext() *ProxyContext {
	return a.proxyContext
}

// SetExposeProxy controls whether dispatch publishes the current proxy to the
// proxy context for the duration of each call.
func (a *AdvisedSupport) SetExposeProxy(exposeProxy bool) {
	a.Lock()
	defer a.Unlock()
	a.exposeProxy = exposeProxy
}

func (a *AdvisedSupport) IsExposeProxy() bool {
	a.RLock()
	defer a.RUnlock()
	return a.exposeProxy
}

// SetOpaque controls whether the Advised configuration surface is reachable
// through the proxy.
func (a *AdvisedSupport) SetOpaque(opaque bool) {
	a.Lock()
	defer a.Unlock()
	a.opaque = opaque
}

func (a *AdvisedSupport) IsOpaque() bool {
	a.RLock()
	defer a.RUnlock()
	return a.opaque
}

// SetProxyTargetType forces proxying of the concrete target type instead of
// its interfaces.
func (a *AdvisedSupport) SetProxyTargetType(proxyTargetType bool) {
	a.Lock()
	defer a.Unlock()
	a.proxyTargetType = proxyTargetType
}

func (a *AdvisedSupport) IsProxyTargetType() bool {
	a.RLock()
	defer a.RUnlock()
	return a.proxyTargetType
}

// SetFrozen freezes the advisor sequence. Once frozen, all mutations fail
// with ErrFrozen.
func (a *AdvisedSupport) SetFrozen(frozen bool) {
	a.Lock()
	defer a.Unlock()
	a.frozen = frozen
}

func (a *AdvisedSupport) IsFrozen() bool {
	a.RLock()
	defer a.RUnlock()
	return a.frozen
}

// AddAdvice appends the advice wrapped in an always-matching advisor.
func (a *AdvisedSupport) AddAdvice(advice types.Advice) error {
	wrapped, err := a.AdapterRegistry().Wrap(advice)
	if err != nil {
		return err
	}
	return a.AddAdvisor(wrapped)
}

// AddAdvisor appends an advisor. The advisor sequence order is the advice
// execution order.
func (a *AdvisedSupport) AddAdvisor(adv types.Advisor) error {
	a.Lock()
	defer a.Unlock()
	if a.frozen {
		return types.ErrFrozen
	}
	if adv == nil {
		return fmt.Errorf("%w: advisor must not be nil", types.ErrProxyConfig)
	}
	a.advisors = append(a.advisors, adv)
	a.invalidateCache()
	return nil
}

// RemoveAdvisor removes the first advisor identical to the given one.
func (a *AdvisedSupport) RemoveAdvisor(adv types.Advisor) error {
	a.Lock()
	defer a.Unlock()
	if a.frozen {
		return types.ErrFrozen
	}
	for i, existing := range a.advisors {
		if sameAdvisor(existing, adv) {
			a.advisors = append(a.advisors[:i], a.advisors[i+1:]...)
			a.invalidateCache()
			return nil
		}
	}
	return fmt.Errorf("%w: advisor not registered: %v", types.ErrProxyConfig, adv)
}

// GetAdvisors returns a copy of the ordered advisor sequence. Never nil;
// empty means no added behavior.
func (a *AdvisedSupport) GetAdvisors() []types.Advisor {
	a.RLock()
	defer a.RUnlock()
	out := make([]types.Advisor, len(a.advisors))
	copy(out, a.advisors)
	return out
}

// CountAdvisors returns the number of registered advisors.
func (a *AdvisedSupport) CountAdvisors() int {
	a.RLock()
	defer a.RUnlock()
	return len(a.advisors)
}

// GetInterceptorsAndDynamicInterceptionAdvice resolves the interceptor chain
// applicable to one method on one target type. Statically matched advisors
// contribute bare interceptors; advisors whose method matcher requires
// per-call evaluation contribute entries that keep the matcher attached for
// re-evaluation with the actual arguments. The resolved chain is cached by
// (method name, target type) until the advisor sequence mutates.
func (a *AdvisedSupport) GetInterceptorsAndDynamicInterceptionAdvice(method types.Method, targetType reflect.Type) ([]ChainEntry, error) {
	key := cacheKey{methodName: method.Name, targetType: targetType}
	a.RLock()
	if chain, ok := a.methodCache[key]; ok {
		a.RUnlock()
		return chain, nil
	}
	a.RUnlock()

	a.Lock()
	defer a.Unlock()
	if chain, ok := a.methodCache[key]; ok {
		return chain, nil
	}
	chain := make([]ChainEntry, 0, len(a.advisors))
	for _, adv := range a.advisors {
		var matcher types.MethodMatcher
		if pa, ok := adv.(types.PointcutAdvisor); ok && pa.GetPointcut() != nil {
			pointcut := pa.GetPointcut()
			if !pointcut.MatchesType(targetType) {
				continue
			}
			mm := pointcut.MethodMatcher()
			if !mm.Matches(method, targetType) {
				continue
			}
			if mm.IsRuntime() {
				// Statically undecidable. Keep the matcher for per-call checks.
				matcher = mm
			}
		}
		interceptors, err := a.registry.GetInterceptors(adv)
		if err != nil {
			return nil, err
		}
		for _, interceptor := range interceptors {
			chain = append(chain, ChainEntry{Interceptor: interceptor, Matcher: matcher})
		}
	}
	a.methodCache[key] = chain
	return chain, nil
}

// invalidateCache drops every resolved chain. Callers must hold the write lock.
func (a *AdvisedSupport) invalidateCache() {
	a.methodCache = make(map[cacheKey][]ChainEntry)
}

// equalsConfig reports whether two configurations are interchangeable from a
// caller's point of view: same advisor sequence (order-sensitive), same
// target source, same proxied interfaces and the same proxy-target-type flag.
func (a *AdvisedSupport) equalsConfig(other *AdvisedSupport) bool {
	if a == other {
		return true
	}
	if other == nil {
		return false
	}
	a.RLock()
	defer a.RUnlock()
	other.RLock()
	defer other.RUnlock()
	if len(a.advisors) != len(other.advisors) || len(a.interfaces) != len(other.interfaces) {
		return false
	}
	if a.proxyTargetType != other.proxyTargetType {
		return false
	}
	for i := range a.advisors {
		if !sameAdvisor(a.advisors[i], other.advisors[i]) {
			return false
		}
	}
	for i := range a.interfaces {
		if a.interfaces[i] != other.interfaces[i] {
			return false
		}
	}
	return targetSourceEquals(a.targetSource, other.targetSource)
}

// sameAdvisor compares advisors by advisor-defined equality where available,
// then by reference identity, then by plain equality for comparable value
// types.
func sameAdvisor(x, y types.Advisor) bool {
	if x == nil || y == nil {
		return x == y
	}
	if eq, ok := x.(interface{ Equals(other interface{}) bool }); ok {
		return eq.Equals(y)
	}
	if utilreflect.SameObject(x, y) {
		return true
	}
	xv, yv := reflect.ValueOf(x), reflect.ValueOf(y)
	if xv.Type() != yv.Type() || !xv.Type().Comparable() {
		return false
	}
	return x == y
}

// targetSourceEquals compares target sources, delegating to a source-defined
// Equals where available (e.g. singleton sources wrapping the same target).
func targetSourceEquals(x, y types.TargetSource) bool {
	if x == nil || y == nil {
		return x == y
	}
	if eq, ok := x.(interface{ Equals(other interface{}) bool }); ok {
		return eq.Equals(y)
	}
	return utilreflect.SameObject(x, y)
}

// targetSourceHash derives a hash from the target source, delegating to a
// source-defined HashCode where available.
func targetSourceHash(ts types.TargetSource) int {
	if ts == nil {
		return 0
	}
	if h, ok := ts.(interface{ HashCode() int }); ok {
		return h.HashCode()
	}
	v := reflect.ValueOf(ts)
	if v.Kind() == reflect.Pointer {
		return int(v.Pointer())
	}
	return 0
}
