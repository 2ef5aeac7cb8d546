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

// Package cloud provides components for interacting with Google Cloud services.
// This file defines a generic Pub/Sub message listener that hands every message
// to a cor.Command.
//
// Logic Flow:
//  1. A PubSubListener is created with a client and a subscription ID.
//  2. A Command is attached to the listener once the workflows are built.
//  3. Listen starts a goroutine receiving from the subscription.
//  4. Each message becomes the CtxIn of a fresh chain context.
//  5. The message is Ack'd when the command records no error and Nack'd
//     otherwise, so Pub/Sub redelivers it following the subscription's retry
//     policy.
package cloud

import (
	"context"
	"errors"
	"log/slog"

	"cloud.google.com/go/pubsub"
	"github.com/jaycherian/gcp-go-media-fusion/internal/core/cor"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// PubSubListener connects a Pub/Sub subscription to a processing command.
type PubSubListener struct {
	client       *pubsub.Client
	subscription *pubsub.Subscription
	command      cor.Command
}

// NewPubSubListener creates a listener on subscriptionID. command may be nil
// and attached later with SetCommand.
func NewPubSubListener(
	pubsubClient *pubsub.Client,
	subscriptionID string,
	command cor.Command,
) (cmd *PubSubListener, err error) {
	if pubsubClient == nil {
		return nil, errors.New("pubsub client is required")
	}
	cmd = &PubSubListener{
		client:       pubsubClient,
		subscription: pubsubClient.Subscription(subscriptionID),
		command:      command,
	}
	return cmd, nil
}

// SetCommand attaches command unless one is already set.
func (m *PubSubListener) SetCommand(command cor.Command) {
	if m.command == nil {
		m.command = command
	}
}

// Listen receives messages in the background until ctx is cancelled.
func (m *PubSubListener) Listen(ctx context.Context) {
	slog.Info("listening", "subscription", m.subscription.String())

	go func() {
		err := m.subscription.Receive(ctx, func(msgCtx context.Context, msg *pubsub.Message) {
			if HandleMessage(msgCtx, m.command, msg.Data) {
				msg.Ack()
			} else {
				msg.Nack()
			}
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("error receiving data", "subscription", m.subscription.String(), "error", err)
		}
	}()
}

// HandleMessage runs command with data as its input and reports whether the
// chain finished without errors.
func HandleMessage(ctx context.Context, command cor.Command, data []byte) bool {
	tracer := otel.Tracer("message-listener")
	spanCtx, span := tracer.Start(ctx, "receive-message")
	defer span.End()
	span.SetAttributes(attribute.String("msg", string(data)))

	if command == nil {
		span.SetStatus(codes.Error, "no command attached")
		slog.ErrorContext(spanCtx, "message received before a command was attached")
		return false
	}

	chainCtx := cor.NewContextWith(spanCtx, string(data))
	command.Execute(chainCtx)

	if !chainCtx.HasErrors() {
		span.SetStatus(codes.Ok, "success")
		return true
	}
	span.SetStatus(codes.Error, "failed")
	for name, e := range chainCtx.GetErrors() {
		slog.ErrorContext(spanCtx, "error executing chain", "command", name, "error", e)
	}
	return false
}
