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

package advisor

import (
	"fmt"
	"reflect"

	"github.com/goweave/goweave/api/types"
)

// Ensuring DefaultPointcutAdvisor implements types.PointcutAdvisor.
var _ types.PointcutAdvisor = (*DefaultPointcutAdvisor)(nil)

// DefaultPointcutAdvisor is the generic advisor pairing any advice with any
// pointcut. A nil pointcut means the advice applies everywhere.
type DefaultPointcutAdvisor struct {
	Pointcut types.Pointcut
	Advice   types.Advice
}

// New creates an always-matching advisor for the given advice.
func New(advice types.Advice) *DefaultPointcutAdvisor {
	return &DefaultPointcutAdvisor{Pointcut: True, Advice: advice}
}

// NewWithPointcut creates an advisor applying the advice where the pointcut matches.
func NewWithPointcut(pointcut types.Pointcut, advice types.Advice) *DefaultPointcutAdvisor {
	return &DefaultPointcutAdvisor{Pointcut: pointcut, Advice: advice}
}

func (a *DefaultPointcutAdvisor) GetAdvice() types.Advice {
	return a.Advice
}

func (a *DefaultPointcutAdvisor) GetPointcut() types.Pointcut {
	if a.Pointcut == nil {
		return True
	}
	return a.Pointcut
}

// Equals reports whether the other advisor carries the same advice and
// pointcut, so two independent wrappings of the same advice compare equal.
func (a *DefaultPointcutAdvisor) Equals(other interface{}) bool {
	o, ok := other.(*DefaultPointcutAdvisor)
	if !ok {
		return false
	}
	if a == o {
		return true
	}
	return samePart(a.Advice, o.Advice) && samePart(a.GetPointcut(), o.GetPointcut())
}

// samePart compares an advice or pointcut component by reference identity,
// falling back to plain equality for comparable value types.
func samePart(x, y interface{}) bool {
	if x == nil || y == nil {
		return x == y
	}
	xv, yv := reflect.ValueOf(x), reflect.ValueOf(y)
	if xv.Type() != yv.Type() {
		return false
	}
	switch xv.Kind() {
	case reflect.Pointer, reflect.Chan, reflect.Map, reflect.Func, reflect.UnsafePointer:
		return xv.Pointer() == yv.Pointer()
	}
	if !xv.Type().Comparable() {
		return false
	}
	return x == y
}

func (a *DefaultPointcutAdvisor) String() string {
	return fmt.Sprintf("DefaultPointcutAdvisor: advice [%T]", a.Advice)
}
