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
	"reflect"

	"github.com/goweave/goweave/api/types"
	"github.com/goweave/goweave/target"
	utilreflect "github.com/goweave/goweave/utils/reflect"
)

// ProxyStrategy builds a callable proxy handle over an advised
// configuration. Both built-in strategies validate the configuration, decide
// the proxied surface and hand dispatch to the shared engine, so the
// observable interception semantics are identical regardless of strategy.
type ProxyStrategy interface {
	GetProxy(advised *AdvisedSupport) (types.Proxy, error)
}

var (
	_ types.Proxy = (*aopProxy)(nil)

	rawTargetAccessType = reflect.TypeOf((*types.RawTargetAccess)(nil)).Elem()
	advisedType         = reflect.TypeOf((*types.Advised)(nil)).Elem()

	// advisedSurface lists the configuration-management methods a non-opaque
	// proxy answers itself instead of forwarding to the target.
	advisedSurface = mustSurface(advisedType)
)

func mustSurface(interfaceType reflect.Type) map[string]types.Method {
	surface, err := utilreflect.SurfaceOfInterfaces([]reflect.Type{interfaceType})
	if err != nil {
		panic(err)
	}
	return surface
}

// aopProxy is the shared dispatch engine behind both proxy strategies. The
// strategy fixes the proxied surface and the primary type at construction;
// everything after that is common.
type aopProxy struct {
	advised     *AdvisedSupport
	surface     map[string]types.Method
	primaryType reflect.Type

	// hashSeed keeps hashes of interface-based and subclass-based proxies of
	// the same configuration distinct.
	hashSeed int

	// equalsDefined and hashCodeDefined record whether the proxied surface
	// declares its own Equals/HashCode, which then win over proxy-level
	// equality.
	equalsDefined   bool
	hashCodeDefined bool
}

func newAopProxy(advised *AdvisedSupport, surface map[string]types.Method, primaryType reflect.Type, hashSeed int) *aopProxy {
	_, equalsDefined := surface["Equals"]
	_, hashCodeDefined := surface["HashCode"]
	return &aopProxy{
		advised:         advised,
		surface:         surface,
		primaryType:     primaryType,
		hashSeed:        hashSeed,
		equalsDefined:   equalsDefined,
		hashCodeDefined: hashCodeDefined,
	}
}

// validateAdvised rejects configurations that would produce a proxy with
// nothing to do and nothing to call.
func validateAdvised(advised *AdvisedSupport) error {
	if advised == nil {
		return fmt.Errorf("%w: advised configuration must not be nil", types.ErrProxyConfig)
	}
	if advised.CountAdvisors() == 0 && targetSourceEquals(advised.GetTargetSource(), target.EmptySource) {
		return fmt.Errorf("%w: no advisors and no target source specified", types.ErrProxyConfig)
	}
	return nil
}

// Type returns the primary proxied type: the first proxied interface for the
// interface-based strategy, the concrete target type for the subclass-based
// one.
func (p *aopProxy) Type() reflect.Type {
	return p.primaryType
}

// Invoke dispatches one call through the interception pipeline.
func (p *aopProxy) Invoke(methodName string, args ...interface{}) (interface{}, error) {
	return p.dispatch(methodName, args)
}

// Equals reports whether the other proxy is interchangeable with this one:
// same strategy and an equal advised configuration (advisor sequence, target
// source, proxied interfaces). Two independently constructed proxies over
// equal configurations are equal.
func (p *aopProxy) Equals(other interface{}) bool {
	if other == nil {
		return false
	}
	op, ok := other.(*aopProxy)
	if !ok {
		if prx, isProxy := other.(types.Proxy); isProxy {
			op, ok = prx.(*aopProxy)
		}
		if !ok {
			return false
		}
	}
	if op == p {
		return true
	}
	if op.hashSeed != p.hashSeed {
		return false
	}
	return p.advised.equalsConfig(op.advised)
}

// HashCode derives a stable hash from the strategy seed and the target
// source, consistent with Equals.
func (p *aopProxy) HashCode() int {
	return p.hashSeed*13 + targetSourceHash(p.advised.GetTargetSource())
}

// dispatch runs the full interception pipeline for one named call:
//
//  1. Equals/HashCode are answered by the proxy itself when the proxied
//     surface does not declare them.
//  2. Unless the configuration is opaque, configuration-management methods
//     are served by the advised configuration, allowing runtime advice
//     changes through the proxy.
//  3. The current proxy is exposed for the duration of the call when the
//     expose-proxy flag is set, restoring the previous value on exit.
//  4. The target is resolved from the target source and, for non-static
//     sources, released when the call unwinds.
//  5. An empty chain short-circuits straight to a reflective target call;
//     otherwise a method invocation walks the chain.
//  6. The result is post-processed: a target returning itself is replaced by
//     the proxy where the declared result type permits, and a nil result for
//     a non-nilable result type is an invocation error.
func (p *aopProxy) dispatch(methodName string, args []interface{}) (result interface{}, err error) {
	if !p.equalsDefined && methodName == "Equals" && len(args) == 1 {
		return p.Equals(args[0]), nil
	}
	if !p.hashCodeDefined && methodName == "HashCode" && len(args) == 0 {
		return p.HashCode(), nil
	}

	advised := p.advised
	if _, onSurface := p.surface[methodName]; !onSurface && !advised.IsOpaque() {
		if m, ok := advisedSurface[methodName]; ok {
			return utilreflect.Invoke(advised, m, args)
		}
	}

	method, ok := p.surface[methodName]
	if !ok {
		return nil, fmt.Errorf("%w: method %s is not part of the proxied surface of %v", types.ErrInvocation, methodName, p.primaryType)
	}

	var oldProxy types.Proxy
	exposed := false
	if advised.IsExposeProxy() {
		oldProxy = advised.ProxyContext().SetCurrentProxy(p)
		exposed = true
	}
	targetSource := advised.GetTargetSource()
	var targetObj interface{}
	defer func() {
		if targetObj != nil && !targetSource.IsStatic() {
			if releaseErr := targetSource.ReleaseTarget(targetObj); releaseErr != nil && err == nil {
				err = releaseErr
			}
		}
		if exposed {
			advised.ProxyContext().SetCurrentProxy(oldProxy)
		}
	}()

	targetObj, err = targetSource.GetTarget()
	if err != nil {
		return nil, err
	}
	var targetType reflect.Type
	if targetObj != nil {
		targetType = reflect.TypeOf(targetObj)
	}

	chain, err := advised.GetInterceptorsAndDynamicInterceptionAdvice(method, targetType)
	if err != nil {
		return nil, err
	}

	var retVal interface{}
	if len(chain) == 0 {
		// Nothing to interpose. Call the target directly, skipping the
		// invocation machinery entirely.
		retVal, err = utilreflect.Invoke(targetObj, method, args)
	} else {
		invocation := newInvocation(p, targetObj, method, args, targetType, chain)
		retVal, err = invocation.Proceed()
	}
	if err != nil {
		return nil, err
	}
	return p.postProcess(method, targetObj, retVal)
}

// postProcess applies the identity-result substitution and the nil-result
// check to a successful call.
func (p *aopProxy) postProcess(method types.Method, targetObj, retVal interface{}) (interface{}, error) {
	resultType := method.ResultType()
	if retVal != nil && targetObj != nil && utilreflect.SameObject(retVal, targetObj) &&
		resultType != nil && resultType.Kind() == reflect.Interface &&
		reflect.TypeOf(p).Implements(resultType) &&
		!declaresRawTargetAccess(method) {
		// The target returned this, so a fluent caller would escape the
		// interception layer. Substitute the proxy. Only the direct return
		// value is checked; a target smuggling itself inside another object
		// is not rewritten.
		retVal = p
	}
	if retVal == nil && resultType != nil && !utilreflect.IsNilable(resultType.Kind()) {
		return nil, fmt.Errorf("%w: nil return value does not match %v result type of %s", types.ErrInvocation, resultType, method.String())
	}
	return retVal, nil
}

// declaresRawTargetAccess reports whether the method's declaring surface
// opted out of identity-result substitution via the RawTargetAccess marker.
func declaresRawTargetAccess(m types.Method) bool {
	return m.DeclaringType != nil && m.DeclaringType.Kind() == reflect.Interface &&
		m.DeclaringType.Implements(rawTargetAccessType)
}
