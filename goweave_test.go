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

package goweave

import (
	"errors"
	"testing"

	"github.com/goweave/goweave/api/types"
	"github.com/goweave/goweave/test"
	"github.com/goweave/goweave/test/assert"
)

func TestProxyOneStep(t *testing.T) {
	service := test.NewGreeterService()
	before := &test.CountingBeforeAdvice{}
	log := &test.CallLog{}

	proxy, err := Proxy(service, before, &test.LabelInterceptor{Label: "around", Log: log})
	assert.Nil(t, err)

	result, err := proxy.Invoke("Greet", "world")
	assert.Nil(t, err)
	assert.Equal(t, "hello, world", result)
	assert.Equal(t, int32(1), before.Count())
	assert.Equal(t, []string{"around:before", "around:after"}, log.Entries())
}

func TestProxyRejectsUnknownAdvice(t *testing.T) {
	_, err := Proxy(test.NewGreeterService(), 42)
	assert.True(t, errors.Is(err, types.ErrUnknownAdviceType))
}

func TestNewProxyFactoryFacade(t *testing.T) {
	config := NewConfig()
	factory, err := NewProxyFactoryFor(test.NewGreeterService(), config)
	assert.Nil(t, err)
	assert.Nil(t, factory.AddAdvice(&test.CountingBeforeAdvice{}))
	proxy, err := factory.GetProxy()
	assert.Nil(t, err)
	assert.NotNil(t, proxy)
}

func TestNewProxyBuilderFacade(t *testing.T) {
	builder := NewProxyBuilder(NewConfig()).
		SetTarget(test.NewGreeterService()).
		SetPreInterceptors(&test.CountingBeforeAdvice{})
	assert.Nil(t, builder.Init())
	proxy, err := builder.GetObject()
	assert.Nil(t, err)
	_, err = proxy.Invoke("Greet", "world")
	assert.Nil(t, err)
}
