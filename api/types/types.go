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

// Package types defines the public contracts of the GoWeave method-interception
// framework: advice shapes, advisors, pointcuts, target sources, the method
// invocation context and the proxy handle.
//
// Package types 定义 GoWeave 方法拦截框架的公共契约：
// 增强（advice）、切面顾问（advisor）、切入点（pointcut）、目标源（target source）、
// 方法调用上下文和代理句柄。
package types

import (
	"errors"
	"reflect"
)

var (
	// ErrProxyConfig indicates an invalid or incomplete proxy configuration,
	// raised synchronously while building a proxy.
	// ErrProxyConfig 表示代理配置无效或不完整，在构建代理时同步抛出。
	ErrProxyConfig = errors.New("aop: invalid proxy configuration")

	// ErrUnknownAdviceType is returned when an advice object matches no
	// registered advisor adapter.
	// ErrUnknownAdviceType 当增强对象没有匹配任何已注册的适配器时返回。
	ErrUnknownAdviceType = errors.New("aop: unknown advice type")

	// ErrInvocation indicates that the interceptor chain produced a result
	// that cannot satisfy the invoked method's contract, e.g. a nil value for
	// a non-nilable return type.
	// ErrInvocation 表示拦截器链产生的结果无法满足被调用方法的契约。
	ErrInvocation = errors.New("aop: invocation error")

	// ErrNotInitialized is returned when the proxy is requested from a builder
	// before its Init step ran.
	// ErrNotInitialized 在构建步骤执行前请求代理时返回。
	ErrNotInitialized = errors.New("aop: proxy builder not initialized")

	// ErrFrozen is returned when an advised configuration is mutated after it
	// was frozen.
	// ErrFrozen 在配置被冻结后仍尝试修改时返回。
	ErrFrozen = errors.New("aop: advised configuration is frozen")
)

// Advice is the marker for a unit of behavior to run around, before or after a
// method call. Concrete shapes are Interceptor, BeforeAdvice,
// AfterReturningAdvice and ThrowsAdvice; custom shapes can be supported by
// registering an AdvisorAdapter.
//
// Advice 是围绕方法调用执行的行为单元的标记接口。
type Advice interface{}

// Interceptor is the canonical advice shape. It fully wraps a call: it decides
// whether, when and how often to call Proceed on the invocation.
//
// Interceptor 是规范的增强形态，完全包裹一次调用：由它决定是否、何时以及
// 调用多少次 Proceed。
type Interceptor interface {
	Invoke(invocation MethodInvocation) (interface{}, error)
}

// BeforeAdvice runs before the target method. It cannot prevent the call from
// proceeding other than by returning an error.
type BeforeAdvice interface {
	Before(method Method, args []interface{}, target interface{}) error
}

// AfterReturningAdvice runs after the target method returned successfully.
// Returning an error replaces the call's outcome with that error.
type AfterReturningAdvice interface {
	AfterReturning(result interface{}, method Method, args []interface{}, target interface{}) error
}

// ThrowsAdvice is notified when the target method or a later interceptor
// returned an error. The original error still propagates to the caller
// unmodified after the advice ran.
type ThrowsAdvice interface {
	AfterThrowing(method Method, args []interface{}, target interface{}, err error)
}

// Advisor pairs an advice with the rule determining where it applies.
// Advisors are held in an explicit ordered sequence; the sequence order is the
// advice execution order.
//
// Advisor 将增强与其适用规则配对。顾问序列的顺序即增强的执行顺序。
type Advisor interface {
	GetAdvice() Advice
}

// PointcutAdvisor is an Advisor driven by a Pointcut. Almost every advisor is
// one; advisors without a pointcut are treated as always matching.
type PointcutAdvisor interface {
	Advisor
	GetPointcut() Pointcut
}

// Pointcut selects the classes and methods an advisor applies to. The type
// filter is evaluated once per target type; the method matcher is evaluated
// per method and, for runtime matchers, per call with the actual arguments.
//
// Pointcut 选择顾问适用的类型和方法。
type Pointcut interface {
	// MatchesType reports whether the pointcut can apply to the target type at all.
	MatchesType(targetType reflect.Type) bool
	// MethodMatcher returns the per-method matching rule.
	MethodMatcher() MethodMatcher
}

// MethodMatcher decides whether a pointcut applies to a method. A static
// matcher is decided once and cached; a runtime matcher (IsRuntime true) is
// additionally re-evaluated on every call with the live argument values.
type MethodMatcher interface {
	// Matches performs the static check for the given method on the target type.
	Matches(method Method, targetType reflect.Type) bool
	// IsRuntime reports whether MatchesArgs must be consulted per call.
	IsRuntime() bool
	// MatchesArgs performs the per-call check with actual arguments. Only
	// called when IsRuntime returns true and Matches already passed.
	MatchesArgs(method Method, targetType reflect.Type, args []interface{}) bool
}

// TargetSource abstracts where the object receiving the intercepted call comes
// from: a fixed singleton, a fresh prototype per call, a pooled instance, or a
// lazily created one.
//
// TargetSource 抽象被拦截调用的目标对象来源：固定单例、每次调用新建原型、
// 池化实例或惰性创建。
type TargetSource interface {
	// GetTarget returns a target instance for one call.
	GetTarget() (interface{}, error)
	// ReleaseTarget gives an instance obtained from GetTarget back to the
	// source. Required for pooled sources; a no-op for static ones.
	ReleaseTarget(target interface{}) error
	// IsStatic reports whether GetTarget always returns the same instance,
	// enabling the dispatcher to skip the release step.
	IsStatic() bool
	// GetTargetType returns the type of targets produced by this source, used
	// for method discovery when no explicit proxy interfaces are configured.
	GetTargetType() reflect.Type
}

// MethodInvocation is the per-call mutable context: the proxy reference, the
// target, the resolved method, the current (rewritable) arguments and the
// position within the interceptor chain. It drives the chain via Proceed.
//
// A single instance is not safe for concurrent Proceed calls; use
// InvocableClone to replay the same logical call independently.
//
// MethodInvocation 是每次调用的可变上下文，通过 Proceed 驱动拦截器链。
type MethodInvocation interface {
	// ID returns the unique identifier of the top-level invocation. Clones
	// share the id of the invocation they were cloned from.
	ID() string
	// GetProxy returns the proxy handle the call was made on.
	GetProxy() Proxy
	// GetTarget returns the raw target object, or nil if there is none.
	GetTarget() interface{}
	// GetTargetType returns the runtime type of the target.
	GetTargetType() reflect.Type
	// GetMethod returns the invoked method, resolved against the target.
	GetMethod() Method
	// GetArguments returns the current argument values. The slice is live:
	// an interceptor may rewrite entries before proceeding.
	GetArguments() []interface{}
	// SetArguments replaces the argument values used from now on.
	SetArguments(args []interface{})
	// Proceed runs the next interceptor in the chain, or the target method
	// once the chain is exhausted. It returns whatever the eventual result
	// is, or propagates whatever error eventually surfaces.
	Proceed() (interface{}, error)
	// InvocableClone returns an independently proceedable copy with its own
	// cursor and a value copy of the argument slice. The user attribute map
	// is shared by reference with the original and all other clones.
	InvocableClone() MethodInvocation
	// InvocableCloneWithArgs is InvocableClone with a replacement argument slice.
	InvocableCloneWithArgs(args []interface{}) MethodInvocation
	// SetUserAttribute attaches a key/value to this invocation. A nil value
	// removes the key. The store is shared across clones.
	SetUserAttribute(key string, value interface{})
	// GetUserAttribute returns the value attached under key, or nil.
	GetUserAttribute(key string) interface{}
	// UserAttributes returns the shared attribute map, creating it on demand.
	UserAttributes() map[string]interface{}
}

// Proxy is the callable handle presented to callers in place of the target.
// Every Invoke runs the matching advisors in order and finally dispatches to
// the target implementation.
//
// Proxy 是呈现给调用方的可调用句柄，代替目标对象接收调用。
type Proxy interface {
	// Invoke intercepts a call to the named method with the given arguments.
	// Methods returning (T, error) surface the error through the second
	// return value; multiple non-error results are returned as []interface{}.
	Invoke(method string, args ...interface{}) (interface{}, error)
	// Type returns the primary type this proxy stands in for: the first
	// proxied interface, or the concrete target type.
	Type() reflect.Type
	// Equals compares proxy identity by underlying configuration equality
	// (same advisor sequence and target source), never by target state.
	Equals(other interface{}) bool
	// HashCode derives a hash from the target source combined with a
	// strategy-specific constant, consistent with Equals.
	HashCode() int
}

// Advised is the configuration-management surface of a live proxy. Unless the
// configuration is marked opaque, calls to these methods on the proxy itself
// are dispatched to the underlying configuration, letting callers inspect and
// reconfigure a proxy they only hold a handle to.
type Advised interface {
	// GetAdvisors returns a copy of the ordered advisor sequence.
	GetAdvisors() []Advisor
	// AddAdvice appends the advice wrapped in an always-matching advisor.
	AddAdvice(advice Advice) error
	// AddAdvisor appends an advisor to the sequence.
	AddAdvisor(advisor Advisor) error
	// RemoveAdvisor removes the first advisor identical to the given one.
	RemoveAdvisor(advisor Advisor) error
	// GetTargetSource returns the current target source.
	GetTargetSource() TargetSource
	// SetTargetSource swaps the target source at runtime.
	SetTargetSource(targetSource TargetSource) error
	// IsFrozen reports whether the advisor sequence is immutable.
	IsFrozen() bool
	// IsExposeProxy reports whether the current proxy is published to the
	// call-scoped proxy context during dispatch.
	IsExposeProxy() bool
	// IsProxyTargetType reports whether the concrete target type rather than
	// its interfaces is proxied.
	IsProxyTargetType() bool
}

// AdvisorAdapter converts one non-canonical advice shape into the canonical
// Interceptor form. New adapters may be registered at runtime to teach the
// framework custom advice kinds.
type AdvisorAdapter interface {
	// SupportsAdvice reports whether this adapter understands the advice.
	SupportsAdvice(advice Advice) bool
	// GetInterceptor adapts the advisor's advice into an Interceptor.
	GetInterceptor(advisor Advisor) Interceptor
}

// AdapterRegistry wraps heterogeneous advice objects into advisors and
// expands advisors into canonical interceptors.
type AdapterRegistry interface {
	// Wrap returns the object itself if it already is an Advisor, otherwise
	// wraps a supported advice into an always-matching advisor.
	Wrap(adviceOrAdvisor interface{}) (Advisor, error)
	// GetInterceptors returns the canonical interceptors for the advisor's
	// advice, in adapter registration order.
	GetInterceptors(advisor Advisor) ([]Interceptor, error)
	// RegisterAdvisorAdapter adds support for a custom advice shape.
	RegisterAdvisorAdapter(adapter AdvisorAdapter)
}

// RawTargetAccess marks a proxied surface whose methods must receive the raw
// target object, opting out of proxy-for-target result substitution. Proxied
// interfaces embed it; targets implement the single no-op method.
type RawTargetAccess interface {
	RawTargetAccess()
}

// Ordered is implemented by advisors and advice that carry an explicit
// execution order. Smaller values run earlier when a composition sorts by it.
type Ordered interface {
	Order() int
}
