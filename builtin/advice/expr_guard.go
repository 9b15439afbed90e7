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

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/goweave/goweave/api/types"
)

var _ types.BeforeAdvice = (*ExprGuard)(nil)

// ExprGuard vetoes calls with a boolean expression evaluated before the
// target runs. The expression sees the variables:
//   - `method`: the called method name
//   - `args`: the argument values
//   - `target`: the resolved target object
//   - `global`: the configuration properties
//
// A false result or an evaluation error rejects the call.
//
// ExprGuard 使用布尔表达式在目标运行前否决调用。
type ExprGuard struct {
	config     types.Config
	expression string
	program    *vm.Program
}

// NewExprGuard compiles the guard expression. Undefined variables evaluate
// as nil rather than failing compilation, so guards can reference arguments
// that only some methods have.
func NewExprGuard(config types.Config, expression string) (*ExprGuard, error) {
	program, err := expr.Compile(expression, expr.AllowUndefinedVariables(), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("%w: bad guard expression %q: %v", types.ErrProxyConfig, expression, err)
	}
	return &ExprGuard{config: config, expression: expression, program: program}, nil
}

func (g *ExprGuard) Before(method types.Method, args []interface{}, targetObj interface{}) error {
	evn := map[string]interface{}{
		"method": method.Name,
		"args":   args,
		"target": targetObj,
		"global": g.config.Properties,
	}
	out, err := vm.Run(g.program, evn)
	if err != nil {
		return fmt.Errorf("%w: guard %q failed: %v", types.ErrInvocation, g.expression, err)
	}
	if allowed, ok := out.(bool); !ok || !allowed {
		return fmt.Errorf("%w: call to %s rejected by guard %q", types.ErrInvocation, method.Name, g.expression)
	}
	return nil
}
