// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cor

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// BaseContext is the default, mutex guarded Context implementation.
type BaseContext struct {
	mu      sync.RWMutex
	data    map[string]interface{}
	errors  map[string]error
	context context.Context
}

// NewBaseContext returns an empty context with no Go context set.
func NewBaseContext() Context {
	return &BaseContext{
		data:   make(map[string]interface{}),
		errors: make(map[string]error),
	}
}

// NewContextWith returns a BaseContext bound to ctx with input stored under CtxIn.
func NewContextWith(ctx context.Context, input interface{}) Context {
	c := NewBaseContext()
	c.SetContext(ctx)
	if input != nil {
		c.Add(CtxIn, input)
	}
	return c
}

func (c *BaseContext) SetContext(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.context = ctx
}

func (c *BaseContext) GetContext() context.Context {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.context
}

func (c *BaseContext) Add(key string, value interface{}) Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return c
}

func (c *BaseContext) AddError(key string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors[key] = err
}

func (c *BaseContext) GetErrors() map[string]error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]error, len(c.errors))
	for k, v := range c.errors {
		out[k] = v
	}
	return out
}

func (c *BaseContext) Get(key string) interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data[key]
}

func (c *BaseContext) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
}

func (c *BaseContext) HasErrors() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.errors) > 0
}

// JoinErrors combines the errors of a context into one error, ordered by key,
// or returns nil when none were recorded.
func JoinErrors(c Context) error {
	errs := c.GetErrors()
	if len(errs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	joined := make([]error, 0, len(keys))
	for _, k := range keys {
		joined = append(joined, errs[k])
	}
	return errors.Join(joined...)
}

// scopedContext shares data and errors with its parent but carries its own Go
// context, so parallel commands each get their own span.
type scopedContext struct {
	Context
	mu  sync.RWMutex
	ctx context.Context
}

func newScopedContext(parent Context, ctx context.Context) *scopedContext {
	return &scopedContext{Context: parent, ctx: ctx}
}

func (s *scopedContext) SetContext(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctx = ctx
}

func (s *scopedContext) GetContext() context.Context {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ctx
}

func (s *scopedContext) Add(key string, value interface{}) Context {
	s.Context.Add(key, value)
	return s
}
