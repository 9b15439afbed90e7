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

// Package advisor provides ready-made pointcuts and advisors: the
// always-matching pointcut, name and regexp based method selection, func-based
// dynamic pointcuts and the default pointcut advisor pairing any advice with
// any pointcut.
package advisor

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/goweave/goweave/api/types"
)

// True is the canonical pointcut that matches every type and method.
var True types.Pointcut = truePointcut{}

type truePointcut struct{}

func (truePointcut) MatchesType(targetType reflect.Type) bool { return true }

func (truePointcut) MethodMatcher() types.MethodMatcher { return trueMethodMatcher{} }

type trueMethodMatcher struct{}

func (trueMethodMatcher) Matches(method types.Method, targetType reflect.Type) bool { return true }

func (trueMethodMatcher) IsRuntime() bool { return false }

func (trueMethodMatcher) MatchesArgs(method types.Method, targetType reflect.Type, args []interface{}) bool {
	return true
}

// NameMatchMethodPointcut selects methods by name. A mapped name matches
// exactly, or as a simple pattern with a leading or trailing "*".
type NameMatchMethodPointcut struct {
	MappedNames []string
}

// NewNameMatchMethodPointcut creates a pointcut matching the given method names.
func NewNameMatchMethodPointcut(names ...string) *NameMatchMethodPointcut {
	return &NameMatchMethodPointcut{MappedNames: names}
}

// AddMethodName adds a method name and returns the pointcut for chaining.
func (p *NameMatchMethodPointcut) AddMethodName(name string) *NameMatchMethodPointcut {
	p.MappedNames = append(p.MappedNames, name)
	return p
}

func (p *NameMatchMethodPointcut) MatchesType(targetType reflect.Type) bool { return true }

func (p *NameMatchMethodPointcut) MethodMatcher() types.MethodMatcher { return p }

func (p *NameMatchMethodPointcut) Matches(method types.Method, targetType reflect.Type) bool {
	for _, mapped := range p.MappedNames {
		if mapped == method.Name || simpleMatch(mapped, method.Name) {
			return true
		}
	}
	return false
}

func (p *NameMatchMethodPointcut) IsRuntime() bool { return false }

func (p *NameMatchMethodPointcut) MatchesArgs(method types.Method, targetType reflect.Type, args []interface{}) bool {
	return true
}

// simpleMatch supports "xxx*", "*xxx" and "*xxx*" patterns.
func simpleMatch(pattern, name string) bool {
	first := strings.HasPrefix(pattern, "*")
	last := strings.HasSuffix(pattern, "*")
	switch {
	case first && last:
		return strings.Contains(name, strings.Trim(pattern, "*"))
	case first:
		return strings.HasSuffix(name, pattern[1:])
	case last:
		return strings.HasPrefix(name, pattern[:len(pattern)-1])
	default:
		return false
	}
}

// RegexpMethodPointcut selects methods whose name, or qualified
// "type.Name" form, matches one of the compiled patterns.
type RegexpMethodPointcut struct {
	patterns []*regexp.Regexp
}

// NewRegexpMethodPointcut compiles the given patterns into a pointcut.
func NewRegexpMethodPointcut(patterns ...string) (*RegexpMethodPointcut, error) {
	p := &RegexpMethodPointcut{}
	for _, pattern := range patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, err
		}
		p.patterns = append(p.patterns, re)
	}
	return p, nil
}

func (p *RegexpMethodPointcut) MatchesType(targetType reflect.Type) bool { return true }

func (p *RegexpMethodPointcut) MethodMatcher() types.MethodMatcher { return p }

func (p *RegexpMethodPointcut) Matches(method types.Method, targetType reflect.Type) bool {
	for _, re := range p.patterns {
		if re.MatchString(method.Name) || re.MatchString(method.String()) {
			return true
		}
	}
	return false
}

func (p *RegexpMethodPointcut) IsRuntime() bool { return false }

func (p *RegexpMethodPointcut) MatchesArgs(method types.Method, targetType reflect.Type, args []interface{}) bool {
	return true
}

// FuncPointcut composes a pointcut from plain functions. A nil TypeFunc or
// MethodFunc matches everything; a non-nil ArgsFunc makes the pointcut
// dynamic, re-evaluated on every call with the live arguments.
type FuncPointcut struct {
	TypeFunc   func(targetType reflect.Type) bool
	MethodFunc func(method types.Method, targetType reflect.Type) bool
	ArgsFunc   func(method types.Method, targetType reflect.Type, args []interface{}) bool
}

func (p *FuncPointcut) MatchesType(targetType reflect.Type) bool {
	if p.TypeFunc == nil {
		return true
	}
	return p.TypeFunc(targetType)
}

func (p *FuncPointcut) MethodMatcher() types.MethodMatcher { return p }

func (p *FuncPointcut) Matches(method types.Method, targetType reflect.Type) bool {
	if p.MethodFunc == nil {
		return true
	}
	return p.MethodFunc(method, targetType)
}

func (p *FuncPointcut) IsRuntime() bool { return p.ArgsFunc != nil }

func (p *FuncPointcut) MatchesArgs(method types.Method, targetType reflect.Type, args []interface{}) bool {
	if p.ArgsFunc == nil {
		return true
	}
	return p.ArgsFunc(method, targetType, args)
}
