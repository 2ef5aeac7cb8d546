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

	"go.opentelemetry.io/otel/codes"
)

// BaseChain runs its commands sequentially. After each command the value
// under CtxOut becomes the CtxIn of the next one.
type BaseChain struct {
	BaseCommand
	continueOnFailure bool
	commands          []Command
}

// NewBaseChain creates an empty sequential chain.
func NewBaseChain(name string) *BaseChain {
	return &BaseChain{BaseCommand: *NewBaseCommand(name)}
}

func (c *BaseChain) ContinueOnFailure(continueOnFailure bool) Chain {
	c.continueOnFailure = continueOnFailure
	return c
}

func (c *BaseChain) AddCommand(command Command) Chain {
	c.commands = append(c.commands, command)
	return c
}

// Commands returns the commands of the chain in execution order.
func (c *BaseChain) Commands() []Command {
	return c.commands
}

// IsExecutable only requires a Go context; commands check their own inputs.
func (c *BaseChain) IsExecutable(context Context) bool {
	return context != nil && context.GetContext() != nil
}

func (c *BaseChain) Execute(chCtx Context) {
	parentCtx := chCtx.GetContext()

	outerCtx, chainSpan := c.Tracer.Start(parentCtx, fmt.Sprintf("%s_execute", c.GetName()))
	defer chainSpan.End()

	for _, command := range c.commands {
		if chCtx.HasErrors() && !c.continueOnFailure {
			_, skipped := c.Tracer.Start(outerCtx, command.GetName())
			skipped.SetStatus(codes.Error, "previous error on chain; skipping execution")
			skipped.End()
			break
		}

		commandCtx, commandSpan := c.Tracer.Start(outerCtx, command.GetName())
		if command.IsExecutable(chCtx) {
			before := len(chCtx.GetErrors())
			chCtx.SetContext(commandCtx)
			command.Execute(chCtx)
			chCtx.SetContext(outerCtx)
			if len(chCtx.GetErrors()) > before {
				commandSpan.SetStatus(codes.Error, "error during command execution")
			} else {
				commandSpan.SetStatus(codes.Ok, "command completed successfully")
			}
		} else {
			commandSpan.SetStatus(codes.Error, fmt.Sprintf("command not executable: %s", command.GetName()))
		}
		commandSpan.End()

		outputValue := chCtx.Get(CtxOut)
		if outputValue != nil {
			chCtx.Remove(CtxIn)
			chCtx.Add(CtxIn, outputValue)
		}
		chCtx.Remove(CtxOut)
	}

	chCtx.SetContext(parentCtx)
	if !chCtx.HasErrors() {
		c.Succeeded(chCtx)
		chainSpan.SetStatus(codes.Ok, "chain completed successfully")
	} else {
		c.countError(chCtx)
		chainSpan.SetStatus(codes.Error, "chain failed to execute")
	}
}
