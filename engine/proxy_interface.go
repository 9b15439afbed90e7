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

	"github.com/goweave/goweave/api/types"
	utilreflect "github.com/goweave/goweave/utils/reflect"
)

// interfaceProxyHashSeed distinguishes interface-based proxy hashes from
// subclass-based ones.
const interfaceProxyHashSeed = 0x7c11

var _ ProxyStrategy = InterfaceProxyStrategy{}

// InterfaceProxyStrategy proxies an explicit list of interface types. When
// the configuration declares no interfaces, the exported method set of the
// target type is proxied instead, which keeps the strategy usable for quick
// single-object setups.
type InterfaceProxyStrategy struct{}

// GetProxy builds the proxy handle for the given configuration.
func (InterfaceProxyStrategy) GetProxy(advised *AdvisedSupport) (types.Proxy, error) {
	if err := validateAdvised(advised); err != nil {
		return nil, err
	}
	interfaces := advised.Interfaces()
	if len(interfaces) > 0 {
		surface, err := utilreflect.SurfaceOfInterfaces(interfaces)
		if err != nil {
			return nil, err
		}
		return newAopProxy(advised, surface, interfaces[0], interfaceProxyHashSeed), nil
	}
	targetType := advised.GetTargetSource().GetTargetType()
	if targetType == nil {
		return nil, fmt.Errorf("%w: cannot determine proxied interfaces without a target type", types.ErrProxyConfig)
	}
	return newAopProxy(advised, utilreflect.SurfaceOf(targetType), targetType, interfaceProxyHashSeed), nil
}
