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

// Package reflect provides the reflective invocation capability of the
// framework: discovering the callable surface of a proxied type and invoking
// a resolved method on a target object with plain interface{} arguments.
//
// Key features:
// - SurfaceOf: method discovery for concrete types (receiver-less signatures)
// - SurfaceOfInterfaces: method discovery for an explicit interface list
// - Invoke: call a method on a target, surfacing errors and panics as error
// - SameObject: reference identity check used for proxy result substitution
package reflect

import (
	"fmt"
	"reflect"

	"github.com/goweave/goweave/api/types"
)

var errType = reflect.TypeOf((*error)(nil)).Elem()

// SurfaceOf returns the exported method set of a concrete type keyed by name.
// Signatures are normalized to receiver-less func types, so methods promoted
// from embedded types appear exactly once, resolved against t itself.
func SurfaceOf(t reflect.Type) map[string]types.Method {
	surface := make(map[string]types.Method, t.NumMethod())
	for i := 0; i < t.NumMethod(); i++ {
		m := t.Method(i)
		if !m.IsExported() {
			continue
		}
		surface[m.Name] = types.Method{
			Name:          m.Name,
			Type:          stripReceiver(m.Type),
			DeclaringType: t,
		}
	}
	return surface
}

// SurfaceOfInterfaces returns the union of the method sets of the given
// interface types keyed by name. The first interface declaring a name wins,
// so its type is the one consulted for marker checks.
func SurfaceOfInterfaces(interfaces []reflect.Type) (map[string]types.Method, error) {
	surface := make(map[string]types.Method)
	for _, it := range interfaces {
		if it == nil || it.Kind() != reflect.Interface {
			return nil, fmt.Errorf("%w: proxied type %v is not an interface", types.ErrProxyConfig, it)
		}
		for i := 0; i < it.NumMethod(); i++ {
			m := it.Method(i)
			if _, ok := surface[m.Name]; ok {
				continue
			}
			surface[m.Name] = types.Method{
				Name:          m.Name,
				Type:          m.Type,
				DeclaringType: it,
			}
		}
	}
	return surface, nil
}

// stripReceiver rebuilds a concrete method's func type without the receiver
// parameter, making it comparable with interface method signatures.
func stripReceiver(fn reflect.Type) reflect.Type {
	in := make([]reflect.Type, 0, fn.NumIn()-1)
	for i := 1; i < fn.NumIn(); i++ {
		in = append(in, fn.In(i))
	}
	out := make([]reflect.Type, 0, fn.NumOut())
	for i := 0; i < fn.NumOut(); i++ {
		out = append(out, fn.Out(i))
	}
	return reflect.FuncOf(in, out, fn.IsVariadic())
}

// Invoke calls the named method on the target with the given arguments,
// surfacing any error the method returned and converting reflection panics
// into errors. The arguments are converted to the parameter types where Go
// would allow the conversion.
func Invoke(target interface{}, method types.Method, args []interface{}) (result interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: calling %s: %v", types.ErrInvocation, method.String(), r)
		}
	}()
	if target == nil {
		return nil, fmt.Errorf("%w: no target for method %s", types.ErrInvocation, method.String())
	}
	fn := reflect.ValueOf(target).MethodByName(method.Name)
	if !fn.IsValid() {
		return nil, fmt.Errorf("%w: method %s not found on %T", types.ErrInvocation, method.Name, target)
	}
	in, err := buildArgs(fn.Type(), args, method)
	if err != nil {
		return nil, err
	}
	return splitResults(fn.Type(), fn.Call(in))
}

// buildArgs converts plain argument values to the typed parameter values the
// method expects. Untyped nils become zero values of the parameter type.
func buildArgs(fnType reflect.Type, args []interface{}, method types.Method) ([]reflect.Value, error) {
	numIn := fnType.NumIn()
	if fnType.IsVariadic() {
		if len(args) < numIn-1 {
			return nil, fmt.Errorf("%w: %s expects at least %d arguments, got %d",
				types.ErrInvocation, method.String(), numIn-1, len(args))
		}
	} else if len(args) != numIn {
		return nil, fmt.Errorf("%w: %s expects %d arguments, got %d",
			types.ErrInvocation, method.String(), numIn, len(args))
	}
	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		var paramType reflect.Type
		if fnType.IsVariadic() && i >= numIn-1 {
			paramType = fnType.In(numIn - 1).Elem()
		} else {
			paramType = fnType.In(i)
		}
		if arg == nil {
			in[i] = reflect.Zero(paramType)
			continue
		}
		v := reflect.ValueOf(arg)
		if !v.Type().AssignableTo(paramType) {
			if !v.Type().ConvertibleTo(paramType) {
				return nil, fmt.Errorf("%w: argument %d of %s: %T is not assignable to %v",
					types.ErrInvocation, i, method.String(), arg, paramType)
			}
			v = v.Convert(paramType)
		}
		in[i] = v
	}
	return in, nil
}

// splitResults separates a trailing error return from the payload values.
// Zero payload values yield nil, one yields the value itself, several yield
// a []interface{} in declaration order.
func splitResults(fnType reflect.Type, out []reflect.Value) (interface{}, error) {
	var err error
	n := fnType.NumOut()
	if n > 0 && fnType.Out(n-1) == errType {
		if e := out[n-1].Interface(); e != nil {
			err = e.(error)
		}
		out = out[:n-1]
	}
	switch len(out) {
	case 0:
		return nil, err
	case 1:
		return out[0].Interface(), err
	default:
		results := make([]interface{}, len(out))
		for i, v := range out {
			results[i] = v.Interface()
		}
		return results, err
	}
}

// IsNilable reports whether values of the given kind can hold nil.
func IsNilable(k reflect.Kind) bool {
	switch k {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map,
		reflect.Pointer, reflect.Slice, reflect.UnsafePointer:
		return true
	default:
		return false
	}
}

// SameObject reports whether a and b are the same object by reference
// identity. Only pointer-like values can be identical; two equal structs or
// strings are not the same object.
func SameObject(a, b interface{}) bool {
	if a == nil || b == nil {
		return false
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Pointer, reflect.Chan, reflect.Map, reflect.Func, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	default:
		return false
	}
}
