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
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ParallelChain runs independent commands on a bounded pool of workers. All
// commands see the same inputs; each must write only its own output keys.
// The chain does not pipe CtxOut between its commands.
type ParallelChain struct {
	BaseCommand
	numberOfWorkers   int
	continueOnFailure bool
	commands          []Command
}

// NewParallelChain creates a parallel chain with at most workers concurrent
// commands. A value below 1 runs the commands one at a time.
func NewParallelChain(name string, workers int) *ParallelChain {
	if workers < 1 {
		workers = 1
	}
	return &ParallelChain{BaseCommand: *NewBaseCommand(name), numberOfWorkers: workers}
}

// ContinueOnFailure is accepted for the Chain interface. Commands of a
// parallel chain are all started regardless of the errors of their siblings.
func (c *ParallelChain) ContinueOnFailure(continueOnFailure bool) Chain {
	c.continueOnFailure = continueOnFailure
	return c
}

func (c *ParallelChain) AddCommand(command Command) Chain {
	c.commands = append(c.commands, command)
	return c
}

func (c *ParallelChain) IsExecutable(context Context) bool {
	return context != nil && context.GetContext() != nil
}

type parallelJob struct {
	command Command
	scoped  *scopedContext
	span    trace.Span
}

func (c *ParallelChain) Execute(chCtx Context) {
	parentCtx := chCtx.GetContext()
	outerCtx, chainSpan := c.Tracer.Start(parentCtx, fmt.Sprintf("%s_execute", c.GetName()))
	defer chainSpan.End()
	chainSpan.SetAttributes(attribute.Int("workers", c.numberOfWorkers), attribute.Int("commands", len(c.commands)))

	if chCtx.HasErrors() && !c.continueOnFailure {
		chainSpan.SetStatus(codes.Error, "previous error on chain; skipping execution")
		return
	}

	jobs := make(chan *parallelJob, len(c.commands))
	var wg sync.WaitGroup
	for w := 0; w < c.numberOfWorkers; w++ {
		wg.Add(1)
		go parallelWorker(jobs, &wg)
	}

	before := len(chCtx.GetErrors())
	for i, command := range c.commands {
		commandCtx, commandSpan := c.Tracer.Start(outerCtx, command.GetName())
		commandSpan.SetAttributes(attribute.Int("sequence", i))
		jobs <- &parallelJob{
			command: command,
			scoped:  newScopedContext(chCtx, commandCtx),
			span:    commandSpan,
		}
	}
	close(jobs)
	wg.Wait()

	if len(chCtx.GetErrors()) == before {
		c.Succeeded(chCtx)
		chainSpan.SetStatus(codes.Ok, "chain completed successfully")
	} else {
		c.countError(chCtx)
		chainSpan.SetStatus(codes.Error, "chain failed to execute")
	}
}

func parallelWorker(jobs <-chan *parallelJob, wg *sync.WaitGroup) {
	defer wg.Done()
	for j := range jobs {
		name := j.command.GetName()
		if !j.command.IsExecutable(j.scoped) {
			j.span.SetStatus(codes.Error, fmt.Sprintf("command not executable: %s", name))
			j.span.End()
			continue
		}
		j.command.Execute(j.scoped)
		if _, failed := j.scoped.GetErrors()[name]; failed {
			j.span.SetStatus(codes.Error, "error during command execution")
		} else {
			j.span.SetStatus(codes.Ok, "command completed successfully")
		}
		j.span.End()
	}
}
