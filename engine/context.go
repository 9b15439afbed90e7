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
	"sync"

	"github.com/goweave/goweave/api/types"
)

// ProxyContext holds the currently executing proxy for one advised
// configuration. When the expose-proxy flag is set, dispatch publishes the
// proxy here on entry and restores the previous value on exit, so nested
// calls observe stack discipline. Advice running inside an interception can
// read the exposed proxy to re-enter the intercepted surface instead of
// calling the raw target.
type ProxyContext struct {
	mu      sync.RWMutex
	current types.Proxy
}

// SetCurrentProxy installs the proxy as current and returns the previously
// installed one, which the caller must restore when the call unwinds.
func (c *ProxyContext) SetCurrentProxy(proxy types.Proxy) types.Proxy {
	c.mu.Lock()
	defer c.mu.Unlock()
	old := c.current
	c.current = proxy
	return old
}

// CurrentProxy returns the proxy of the innermost in-flight exposed call, or
// nil when no exposed interception is executing.
func (c *ProxyContext) CurrentProxy() types.Proxy {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}
