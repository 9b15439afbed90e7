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
	"github.com/goweave/goweave/api/types"
)

// ProxyFactory is the programmatic entry point for building proxies: set a
// target, add advisors, pick a strategy, call GetProxy. The embedded advised
// configuration stays live after proxy creation, so advice added later is
// seen by proxies already handed out (unless frozen).
//
// ProxyFactory 是创建代理的编程入口。
type ProxyFactory struct {
	*AdvisedSupport
	strategy ProxyStrategy
}

// NewProxyFactory creates a factory with an empty configuration.
func NewProxyFactory(config types.Config) *ProxyFactory {
	return &ProxyFactory{AdvisedSupport: NewAdvisedSupport(config)}
}

// NewProxyFactoryFor creates a factory pre-configured with the given target
// object.
func NewProxyFactoryFor(targetObj interface{}, config types.Config) (*ProxyFactory, error) {
	f := NewProxyFactory(config)
	if err := f.SetTarget(targetObj); err != nil {
		return nil, err
	}
	return f, nil
}

// SetStrategy overrides the automatic strategy selection.
func (f *ProxyFactory) SetStrategy(strategy ProxyStrategy) {
	f.strategy = strategy
}

// GetProxy builds a proxy over the current configuration. Without an
// explicit strategy, the subclass-based strategy is used when the
// configuration forces concrete-type proxying or declares no interfaces, and
// the interface-based strategy otherwise.
func (f *ProxyFactory) GetProxy() (types.Proxy, error) {
	strategy := f.strategy
	if strategy == nil {
		if f.IsProxyTargetType() || len(f.Interfaces()) == 0 {
			strategy = SubclassProxyStrategy{}
		} else {
			strategy = InterfaceProxyStrategy{}
		}
	}
	return strategy.GetProxy(f.AdvisedSupport)
}
