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

// This file defines a generic, reusable Pub/Sub message listener. Receiving
// is decoupled from processing: the listener pulls messages from one
// subscription and hands each payload to an attached Command, acknowledging
// only on success so failed edit requests are redelivered under the
// subscription's retry policy.
package cloud

import (
	"context"
	"log/slog"

	"cloud.google.com/go/pubsub"
	"github.com/storycut/edit-service/internal/core/cor"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// PubSubListener connects one Pub/Sub subscription to a processing command.
// Listeners have a life-cycle independent of individual API requests, so
// they live in the cloud package rather than the server.
type PubSubListener struct {
	client       *pubsub.Client
	subscription *pubsub.Subscription
	command      cor.Command
}

// NewPubSubListener creates a listener for the given subscription ID. The
// command may be nil at construction time and attached later with
// SetCommand, which lets the service clients be built before the workflow
// chains exist.
func NewPubSubListener(
	pubsubClient *pubsub.Client,
	subscriptionID string,
	command cor.Command,
) (*PubSubListener, error) {
	return &PubSubListener{
		client:       pubsubClient,
		subscription: pubsubClient.Subscription(subscriptionID),
		command:      command,
	}, nil
}

// SetCommand attaches a command to the listener. A command that is already
// set is never overwritten.
func (m *PubSubListener) SetCommand(command cor.Command) {
	if m.command == nil {
		m.command = command
	}
}

// Listen starts receiving in a background goroutine. Canceling ctx stops the
// receive loop.
//
// Each message gets its own trace span and chain context; the raw payload is
// placed at cor.CtxIn and the attached command decides what it means. The
// message is Ack'd only when the chain finishes without errors, leaving
// failures to redelivery.
func (m *PubSubListener) Listen(ctx context.Context) {
	slog.InfoContext(ctx, "listening", "subscription", m.subscription.String())

	go func() {
		tracer := otel.Tracer("message-listener")

		err := m.subscription.Receive(ctx, func(_ context.Context, msg *pubsub.Message) {
			spanCtx, span := tracer.Start(ctx, "receive-message")
			span.SetAttributes(attribute.String("msg", string(msg.Data)))
			defer span.End()

			chainCtx := cor.NewBaseContext()
			defer chainCtx.Close()
			chainCtx.SetContext(spanCtx)
			chainCtx.Add(cor.CtxIn, string(msg.Data))

			m.command.Execute(chainCtx)

			if !chainCtx.HasErrors() {
				span.SetStatus(codes.Ok, "success")
				msg.Ack()
				return
			}
			span.SetStatus(codes.Error, "failed")
			for _, e := range chainCtx.GetErrors() {
				slog.ErrorContext(spanCtx, "error executing chain", "error", e)
			}
			// No Ack and no Nack: the message is redelivered after its
			// acknowledgement deadline expires.
		})
		if err != nil {
			slog.ErrorContext(ctx, "error receiving data", "error", err)
		}
	}()
}
