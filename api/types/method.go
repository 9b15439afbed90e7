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

package types

import "reflect"

// Method describes one invocable method of a proxied surface. The func type
// excludes the receiver, so interface methods and concrete methods compare
// uniformly. Methods promoted from embedded types resolve to the embedding
// type's method set, the Go analogue of bridge-method resolution.
type Method struct {
	// Name is the exported method name.
	Name string
	// Type is the receiver-less func signature.
	Type reflect.Type
	// DeclaringType is the interface that contributed this method to the
	// proxied surface, or the concrete target type for subclass-style proxies.
	DeclaringType reflect.Type
}

// NumResults returns the number of non-error return values.
func (m Method) NumResults() int {
	n := m.Type.NumOut()
	if m.ReturnsError() {
		n--
	}
	return n
}

// ReturnsError reports whether the method's last return value is an error.
func (m Method) ReturnsError() bool {
	n := m.Type.NumOut()
	return n > 0 && m.Type.Out(n-1) == errorType
}

// ResultType returns the type of the first non-error return value, or nil for
// void methods.
func (m Method) ResultType() reflect.Type {
	if m.NumResults() == 0 {
		return nil
	}
	return m.Type.Out(0)
}

// IsVoid reports whether the method has no non-error return values.
func (m Method) IsVoid() bool {
	return m.NumResults() == 0
}

// String returns the method name qualified by its declaring type.
func (m Method) String() string {
	if m.DeclaringType != nil {
		return m.DeclaringType.String() + "." + m.Name
	}
	return m.Name
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()
