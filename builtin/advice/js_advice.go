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

package advice

import (
	"fmt"

	"github.com/goweave/goweave/api/types"
	"github.com/goweave/goweave/utils/js"
)

// JsAdvice runs a JavaScript function around argument preparation: the
// script's `OnCall(method, args)` receives the method name and argument
// values and may return a rewritten argument array, or nothing to keep the
// arguments as they are. It is its own advice shape, recognized by
// JsAdviceAdapter rather than by the built-in adapters.
//
// JsAdvice 在参数准备阶段运行一个 JavaScript 函数。
type JsAdvice struct {
	jsEngine *js.GojaJsEngine
	script   string
}

// JsFuncName is the script function JsAdvice invokes.
const JsFuncName = "OnCall"

// NewJsAdvice compiles the script once; execution uses pooled VMs.
func NewJsAdvice(config types.Config, script string) (*JsAdvice, error) {
	jsEngine, err := js.NewGojaJsEngine(config, script, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: bad advice script: %v", types.ErrProxyConfig, err)
	}
	return &JsAdvice{jsEngine: jsEngine, script: script}, nil
}

// OnCall runs the script function and returns the arguments the target call
// should proceed with.
func (a *JsAdvice) OnCall(method types.Method, args []interface{}) ([]interface{}, error) {
	out, err := a.jsEngine.Execute(JsFuncName, method.Name, args)
	if err != nil {
		return nil, fmt.Errorf("%w: advice script failed: %v", types.ErrInvocation, err)
	}
	if rewritten, ok := out.([]interface{}); ok {
		return rewritten, nil
	}
	return args, nil
}

// Stop releases the script engine.
func (a *JsAdvice) Stop() {
	a.jsEngine.Stop()
}

var _ types.AdvisorAdapter = JsAdviceAdapter{}

// JsAdviceAdapter teaches the adapter registry the JsAdvice shape. Register
// it once per registry:
//
//	registry.RegisterAdvisorAdapter(advice.JsAdviceAdapter{})
type JsAdviceAdapter struct{}

func (JsAdviceAdapter) SupportsAdvice(adviceObject types.Advice) bool {
	_, ok := adviceObject.(*JsAdvice)
	return ok
}

func (JsAdviceAdapter) GetInterceptor(adv types.Advisor) types.Interceptor {
	return &jsAdviceInterceptor{advice: adv.GetAdvice().(*JsAdvice)}
}

type jsAdviceInterceptor struct {
	advice *JsAdvice
}

func (i *jsAdviceInterceptor) Invoke(invocation types.MethodInvocation) (interface{}, error) {
	rewritten, err := i.advice.OnCall(invocation.GetMethod(), invocation.GetArguments())
	if err != nil {
		return nil, err
	}
	invocation.SetArguments(rewritten)
	return invocation.Proceed()
}
