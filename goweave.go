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

// Package goweave is a method-interception framework: advice attached to
// plain Go objects through proxies, with pointcut-based selection, ordered
// interceptor chains and pluggable target sources.
//
// Package goweave 是一个方法拦截框架：通过代理将增强（advice）附加到普通
// Go 对象上，支持切入点选择、有序拦截器链和可插拔目标源。
//
// Quick start:
//
//	config := goweave.NewConfig()
//	factory, err := goweave.NewProxyFactoryFor(&GreeterService{}, config)
//	_ = factory.AddAdvice(advice.NewDebugInterceptor(config))
//	proxy, err := factory.GetProxy()
//	result, err := proxy.Invoke("Greet", "world")
package goweave

import (
	"github.com/goweave/goweave/api/types"
	"github.com/goweave/goweave/engine"
)

// NewConfig creates a Config with default values, applying the options.
func NewConfig(opts ...types.Option) types.Config {
	return types.NewConfig(opts...)
}

// NewProxyFactory creates an empty proxy factory.
func NewProxyFactory(config types.Config) *engine.ProxyFactory {
	return engine.NewProxyFactory(config)
}

// NewProxyFactoryFor creates a proxy factory over the given target object.
func NewProxyFactoryFor(target interface{}, config types.Config) (*engine.ProxyFactory, error) {
	return engine.NewProxyFactoryFor(target, config)
}

// NewProxyBuilder creates a declarative single-proxy builder.
func NewProxyBuilder(config types.Config) *engine.ProxyBuilder {
	return engine.NewProxyBuilder(config)
}

// RegisterAdvisorAdapter teaches the shared adapter registry a custom advice
// shape, affecting every configuration that uses the default registry.
func RegisterAdvisorAdapter(adapter types.AdvisorAdapter) {
	engine.DefaultAdapterRegistry.RegisterAdvisorAdapter(adapter)
}

// Proxy builds a proxy over the target with the given advice objects in one
// step, using default configuration and automatic strategy selection. Each
// element may be an advisor, an interceptor or any registered advice shape.
func Proxy(target interface{}, advices ...interface{}) (types.Proxy, error) {
	factory, err := engine.NewProxyFactoryFor(target, types.NewConfig())
	if err != nil {
		return nil, err
	}
	for _, adviceObject := range advices {
		wrapped, err := engine.DefaultAdapterRegistry.Wrap(adviceObject)
		if err != nil {
			return nil, err
		}
		if err = factory.AddAdvisor(wrapped); err != nil {
			return nil, err
		}
	}
	return factory.GetProxy()
}
