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

// subclassProxyHashSeed distinguishes subclass-based proxy hashes from
// interface-based ones.
const subclassProxyHashSeed = 0x5c1b

var _ ProxyStrategy = SubclassProxyStrategy{}

// SubclassProxyStrategy proxies the concrete target type itself: the proxied
// surface is the full exported method set of the target type, so callers are
// not restricted to interface methods. Requires a target source that can
// state its target type.
type SubclassProxyStrategy struct{}

// GetProxy builds the proxy handle for the given configuration.
func (SubclassProxyStrategy) GetProxy(advised *AdvisedSupport) (types.Proxy, error) {
	if err := validateAdvised(advised); err != nil {
		return nil, err
	}
	targetType := advised.GetTargetSource().GetTargetType()
	if targetType == nil {
		return nil, fmt.Errorf("%w: target type required to proxy a concrete type", types.ErrProxyConfig)
	}
	surface := utilreflect.SurfaceOf(targetType)
	if len(surface) == 0 {
		return nil, fmt.Errorf("%w: target type %v exports no methods to proxy", types.ErrProxyConfig, targetType)
	}
	return newAopProxy(advised, surface, targetType, subclassProxyHashSeed), nil
}
