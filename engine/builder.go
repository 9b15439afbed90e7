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
	"github.com/goweave/goweave/utils/maps"
)

// ProxyFlags is the declarative flag block of a ProxyBuilder, decodable from
// a plain map for configuration-driven setups.
type ProxyFlags struct {
	ExposeProxy     bool `mapstructure:"exposeProxy"`
	Opaque          bool `mapstructure:"opaque"`
	ProxyTargetType bool `mapstructure:"proxyTargetType"`
	Frozen          bool `mapstructure:"frozen"`
}

// ProxyBuilder assembles a single shared proxy declaratively: a target, an
// optional main interceptor produced by a factory function, and pre/post
// interceptor lists wrapped through the adapter registry. Init builds the
// proxy exactly once; GetObject then returns the same instance on every
// call.
//
// ProxyBuilder 以声明方式组装一个共享代理。
type ProxyBuilder struct {
	config           types.Config
	targetObj        interface{}
	proxyInterfaces  []reflect.Type
	preInterceptors  []interface{}
	postInterceptors []interface{}
	mainFactory      func() (interface{}, error)
	registry         types.AdapterRegistry
	flags            ProxyFlags

	initialized bool
	proxy       types.Proxy
}

// NewProxyBuilder creates an empty builder.
func NewProxyBuilder(config types.Config) *ProxyBuilder {
	return &ProxyBuilder{config: config, registry: DefaultAdapterRegistry}
}

// SetTarget sets the proxied object or a target source supplying it.
func (b *ProxyBuilder) SetTarget(targetObj interface{}) *ProxyBuilder {
	b.targetObj = targetObj
	return b
}

// SetProxyInterfaces declares the interfaces the proxy should expose. When
// empty, the target's own method set is proxied.
func (b *ProxyBuilder) SetProxyInterfaces(interfaces ...reflect.Type) *ProxyBuilder {
	b.proxyInterfaces = interfaces
	return b
}

// SetPreInterceptors sets advice applied before the main interceptor, in
// order. Elements may be advisors, interceptors or any registered advice
// shape.
func (b *ProxyBuilder) SetPreInterceptors(interceptors ...interface{}) *ProxyBuilder {
	b.preInterceptors = interceptors
	return b
}

// SetPostInterceptors sets advice applied after the main interceptor.
func (b *ProxyBuilder) SetPostInterceptors(interceptors ...interface{}) *ProxyBuilder {
	b.postInterceptors = interceptors
	return b
}

// SetMainInterceptorFactory sets the factory producing the builder's central
// piece of advice, called once during Init.
func (b *ProxyBuilder) SetMainInterceptorFactory(factory func() (interface{}, error)) *ProxyBuilder {
	b.mainFactory = factory
	return b
}

// SetAdapterRegistry overrides the adapter registry used to wrap
// interceptors and advice.
func (b *ProxyBuilder) SetAdapterRegistry(registry types.AdapterRegistry) *ProxyBuilder {
	if registry != nil {
		b.registry = registry
	}
	return b
}

// SetFlags sets the proxy behavior flags.
func (b *ProxyBuilder) SetFlags(flags ProxyFlags) *ProxyBuilder {
	b.flags = flags
	return b
}

// DecodeFlags decodes the proxy behavior flags from a plain map, typically
// loaded from a configuration file.
func (b *ProxyBuilder) DecodeFlags(configuration map[string]interface{}) error {
	return maps.Map2Struct(configuration, &b.flags)
}

// Init validates the declaration and builds the shared proxy. It must be
// called exactly once before GetObject.
func (b *ProxyBuilder) Init() error {
	if b.initialized {
		return fmt.Errorf("%w: builder already initialized", types.ErrProxyConfig)
	}
	if b.targetObj == nil {
		return fmt.Errorf("%w: property 'target' is required", types.ErrProxyConfig)
	}
	if name, ok := b.targetObj.(string); ok {
		return fmt.Errorf("%w: 'target' needs to be an object reference, not the name %q", types.ErrProxyConfig, name)
	}

	factory := NewProxyFactory(b.config)
	factory.SetAdapterRegistry(b.registry)

	for _, pre := range b.preInterceptors {
		if err := b.addWrapped(factory, pre); err != nil {
			return err
		}
	}
	if b.mainFactory != nil {
		main, err := b.mainFactory()
		if err != nil {
			return err
		}
		if err = b.addWrapped(factory, main); err != nil {
			return err
		}
	}
	for _, post := range b.postInterceptors {
		if err := b.addWrapped(factory, post); err != nil {
			return err
		}
	}

	var targetSource types.TargetSource
	if ts, ok := b.targetObj.(types.TargetSource); ok {
		targetSource = ts
	} else {
		targetSource = target.NewSingletonSource(b.targetObj)
	}
	if err := factory.SetTargetSource(targetSource); err != nil {
		return err
	}
	if len(b.proxyInterfaces) > 0 {
		if err := factory.SetInterfaces(b.proxyInterfaces...); err != nil {
			return err
		}
	}
	factory.SetExposeProxy(b.flags.ExposeProxy)
	factory.SetOpaque(b.flags.Opaque)
	factory.SetProxyTargetType(b.flags.ProxyTargetType)

	proxy, err := factory.GetProxy()
	if err != nil {
		return err
	}
	// Freeze after construction so the frozen check does not reject the
	// builder's own advisor additions.
	factory.SetFrozen(b.flags.Frozen)

	b.proxy = proxy
	b.initialized = true
	return nil
}

// addWrapped normalizes one declared interceptor into an advisor and adds it.
func (b *ProxyBuilder) addWrapped(factory *ProxyFactory, adviceObject interface{}) error {
	advisor, err := b.registry.Wrap(adviceObject)
	if err != nil {
		return err
	}
	return factory.AddAdvisor(advisor)
}

// GetObject returns the shared proxy. Fails with ErrNotInitialized before a
// successful Init.
func (b *ProxyBuilder) GetObject() (types.Proxy, error) {
	if !b.initialized {
		return nil, types.ErrNotInitialized
	}
	return b.proxy, nil
}

// GetObjectType reports the primary type of the proxy this builder produces,
// usable before Init: the built proxy's type once initialized, otherwise the
// first declared interface, the target source's target type, or the target's
// concrete type.
func (b *ProxyBuilder) GetObjectType() reflect.Type {
	if b.proxy != nil {
		return b.proxy.Type()
	}
	if len(b.proxyInterfaces) > 0 {
		return b.proxyInterfaces[0]
	}
	if ts, ok := b.targetObj.(types.TargetSource); ok {
		return ts.GetTargetType()
	}
	if b.targetObj != nil {
		return reflect.TypeOf(b.targetObj)
	}
	return nil
}
