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

// Package cor provides a Chain of Responsibility runtime. A fusion run is a
// chain of commands sharing one Context: each command reads its inputs from
// the context, writes its outputs back, and records errors under its own name.
//
// Two chain flavours exist. BaseChain runs its commands in order and pipes the
// output of one into the input of the next. ParallelChain runs independent
// commands on a bounded worker pool; its commands must write disjoint keys.
//
// Every command carries an OpenTelemetry tracer, a meter and success/error
// counters so that each step of a run is observable.
package cor

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	// CtxIn is the conventional key for a command's primary input.
	CtxIn = "__IN__"
	// CtxOut is the conventional key for a command's primary output. A
	// sequential chain moves it to CtxIn before the next command runs.
	CtxOut = "__OUT__"
)

// Context is the state shared by the commands of a chain. Implementations must
// be safe for concurrent use by the commands of a ParallelChain.
type Context interface {
	// SetContext replaces the Go context used for cancellation and tracing.
	SetContext(ctx context.Context)

	// GetContext returns the current Go context.
	GetContext() context.Context

	// Add stores a value under key and returns the Context for chaining.
	Add(key string, value interface{}) Context

	// AddError records err under key, usually the command name.
	AddError(key string, err error)

	// GetErrors returns a copy of the recorded errors.
	GetErrors() map[string]error

	// Get returns the value stored under key, or nil.
	Get(key string) interface{}

	// Remove deletes key.
	Remove(key string)

	// HasErrors reports whether any error was recorded.
	HasErrors() bool
}

// Executable is anything that can run against a Context.
type Executable interface {
	Execute(context Context)
}

// Command is one step of a chain.
type Command interface {
	Executable

	GetName() string

	GetInputParam() string

	GetOutputParam() string

	// IsExecutable reports whether the command's preconditions hold.
	// Commands that are not executable are skipped and marked on their span.
	IsExecutable(context Context) bool

	GetTracer() trace.Tracer

	GetMeter() metric.Meter

	GetSuccessCounter() metric.Int64Counter

	GetErrorCounter() metric.Int64Counter
}

// Chain is a Command composed of other commands.
type Chain interface {
	Command

	// ContinueOnFailure controls whether later commands run after an error.
	ContinueOnFailure(bool) Chain

	AddCommand(command Command) Chain
}
