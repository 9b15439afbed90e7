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

// Package test provides shared fixtures for the framework's tests: a small
// proxied service, advice implementations that record their execution, and a
// concurrency-safe call log.
package test

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/goweave/goweave/api/types"
)

// Greeter is the proxied surface used across tests.
type Greeter interface {
	Greet(name string) (string, error)
	Save(data string) error
	Load(id int) (string, error)
	Self() interface{}
}

// GreeterService is the default target implementation behind Greeter.
type GreeterService struct {
	Greeting string
	Saved    []string
	calls    int32
}

func NewGreeterService() *GreeterService {
	return &GreeterService{Greeting: "hello"}
}

func (s *GreeterService) Greet(name string) (string, error) {
	atomic.AddInt32(&s.calls, 1)
	return s.Greeting + ", " + name, nil
}

func (s *GreeterService) Save(data string) error {
	atomic.AddInt32(&s.calls, 1)
	if data == "" {
		return errors.New("empty data")
	}
	s.Saved = append(s.Saved, data)
	return nil
}

func (s *GreeterService) Load(id int) (string, error) {
	atomic.AddInt32(&s.calls, 1)
	if id < 0 {
		return "", fmt.Errorf("no record with id %d", id)
	}
	return fmt.Sprintf("record-%d", id), nil
}

// Self returns the service itself, exercising identity-result substitution.
func (s *GreeterService) Self() interface{} {
	atomic.AddInt32(&s.calls, 1)
	return s
}

// CallCount returns the number of target method executions.
func (s *GreeterService) CallCount() int32 {
	return atomic.LoadInt32(&s.calls)
}

// GreeterType returns the reflected Greeter interface type for proxy
// configuration.
func GreeterType() reflect.Type {
	return reflect.TypeOf((*Greeter)(nil)).Elem()
}

// RawGreeter is a Greeter surface that opted out of identity-result
// substitution.
type RawGreeter interface {
	types.RawTargetAccess
	Greet(name string) (string, error)
	Self() interface{}
}

// RawGreeterService implements RawGreeter.
type RawGreeterService struct {
	GreeterService
}

func (s *RawGreeterService) RawTargetAccess() {}

func (s *RawGreeterService) Self() interface{} {
	return s
}

// FlakyService fails its Work method until a configured number of calls has
// been made, for retry advice tests.
type FlakyService struct {
	SucceedAfter int32
	calls        int32
}

func (s *FlakyService) Work() (string, error) {
	n := atomic.AddInt32(&s.calls, 1)
	if n < s.SucceedAfter {
		return "", fmt.Errorf("transient failure on attempt %d", n)
	}
	return "done", nil
}

func (s *FlakyService) CallCount() int32 {
	return atomic.LoadInt32(&s.calls)
}

// CallLog records labels in execution order, safe for concurrent use.
type CallLog struct {
	mu      sync.Mutex
	entries []string
}

func (l *CallLog) Append(entry string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
}

func (l *CallLog) Entries() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.entries))
	copy(out, l.entries)
	return out
}

// LabelInterceptor wraps the call and logs its label on the way in and out.
type LabelInterceptor struct {
	Label string
	Log   *CallLog
}

func (i *LabelInterceptor) Invoke(invocation types.MethodInvocation) (interface{}, error) {
	i.Log.Append(i.Label + ":before")
	result, err := invocation.Proceed()
	i.Log.Append(i.Label + ":after")
	return result, err
}

// CountingBeforeAdvice counts executions and optionally vetoes the call.
type CountingBeforeAdvice struct {
	Err   error
	count int32
}

func (a *CountingBeforeAdvice) Before(method types.Method, args []interface{}, target interface{}) error {
	atomic.AddInt32(&a.count, 1)
	return a.Err
}

func (a *CountingBeforeAdvice) Count() int32 {
	return atomic.LoadInt32(&a.count)
}

// CountingAfterAdvice counts successful completions and remembers the last
// result it observed.
type CountingAfterAdvice struct {
	mu         sync.Mutex
	count      int32
	lastResult interface{}
}

func (a *CountingAfterAdvice) AfterReturning(result interface{}, method types.Method, args []interface{}, target interface{}) error {
	atomic.AddInt32(&a.count, 1)
	a.mu.Lock()
	a.lastResult = result
	a.mu.Unlock()
	return nil
}

func (a *CountingAfterAdvice) Count() int32 {
	return atomic.LoadInt32(&a.count)
}

func (a *CountingAfterAdvice) LastResult() interface{} {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastResult
}

// RecordingThrowsAdvice logs every failure it observes.
type RecordingThrowsAdvice struct {
	Log *CallLog
}

func (a *RecordingThrowsAdvice) AfterThrowing(method types.Method, args []interface{}, target interface{}, err error) {
	a.Log.Append("throws:" + method.Name + ":" + err.Error())
}
