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

package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/pubsub"

	"github.com/hooptuber/highlight-pipeline/internal/core/model"
)

// Publisher publishes Job envelopes onto the topic the Worker's
// Subscriber consumes from.
type Publisher struct {
	topic   *pubsub.Topic
	timeout time.Duration
}

// NewPublisher wraps an already-open pubsub.Client's Topic handle.
func NewPublisher(client *pubsub.Client, topicID string, timeoutSeconds int) *Publisher {
	if timeoutSeconds <= 0 {
		timeoutSeconds = 10
	}
	return &Publisher{
		topic:   client.Topic(topicID),
		timeout: time.Duration(timeoutSeconds) * time.Second,
	}
}

// Publish marshals env and publishes it, waiting up to the configured
// timeout for the publish to be acknowledged by the Pub/Sub service.
func (p *Publisher) Publish(ctx context.Context, env model.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("platform: marshaling envelope for job %s: %w", env.JobID, err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	result := p.topic.Publish(ctx, &pubsub.Message{Data: data})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("platform: publishing job %s: %w", env.JobID, err)
	}
	return nil
}

// Handler processes one decoded envelope. Returning an error does not
// prevent the ack — see Subscriber.Subscribe's ack policy.
type Handler func(ctx context.Context, env model.Envelope) error

// Subscriber streaming-pulls job envelopes for the Worker.
type Subscriber struct {
	sub *pubsub.Subscription
}

// NewSubscriber wraps an already-open pubsub.Client's Subscription handle.
func NewSubscriber(client *pubsub.Client, subscriptionID string) *Subscriber {
	return &Subscriber{sub: client.Subscription(subscriptionID)}
}

// Subscribe runs the streaming-pull receive loop until ctx is canceled.
//
// Ack policy diverges deliberately from the teacher: the teacher's
// PubSubListener only acks on success, leaving failed messages to be
// redelivered indefinitely. Here every message is acked once handler
// returns, whatever it returned: most handler paths end in a terminal Job
// write (done or error), and redelivery would just re-run an
// already-terminal Job. Messages whose envelope does not decode, or whose
// Job could not be loaded, are acked as well.
func (s *Subscriber) Subscribe(ctx context.Context, handler Handler) error {
	return s.sub.Receive(ctx, func(msgCtx context.Context, msg *pubsub.Message) {
		var env model.Envelope
		if err := json.Unmarshal(msg.Data, &env); err != nil {
			slog.Error("platform: discarding undecodable pubsub message", "error", err)
			msg.Ack()
			return
		}

		if err := handler(msgCtx, env); err != nil {
			slog.Error("platform: job handler returned error", "jobId", env.JobID, "error", err)
		}
		msg.Ack()
	})
}
