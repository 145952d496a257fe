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

// Package platform wires the GCP client surface (Storage, Pub/Sub,
// Firestore, IAM, GenAI) into the typed ports the rest of the pipeline
// depends on, and assembles them into a single ServiceClients container
// built once at process startup.
package platform

import (
	"context"
	"fmt"

	firestore "cloud.google.com/go/firestore"
	iam "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"google.golang.org/genai"

	"github.com/hooptuber/highlight-pipeline/internal/config"
)

// ServiceClients is the dependency-injection container every component
// that talks to GCP receives at construction time, built once from a
// validated Config. Nothing in this repo reaches for a package-level
// global client.
type ServiceClients struct {
	Config *config.Config

	GCS        GcsPort
	JobStore   *JobStore
	Publisher  *Publisher
	Subscriber *Subscriber
	Analyzer   *QuotaAwareModel
	// GenAI is the raw client, kept alongside the QuotaAwareModel decorator
	// so callers can also build a FileServiceAdapter for the Analyzer's
	// local-file fallback path.
	GenAI *genai.Client
}

// NewServiceClients constructs every GCP client the pipeline needs and
// wraps them in the typed ports under internal/platform. ServiceClients
// has no Close method; the clients stay open for the life of the process.
func NewServiceClients(ctx context.Context, cfg *config.Config) (*ServiceClients, error) {
	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("platform: storage.NewClient: %w", err)
	}

	iamClient, err := iam.NewIamCredentialsClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("platform: iam.NewIamCredentialsClient: %w", err)
	}

	pubsubClient, err := pubsub.NewClient(ctx, cfg.Application.GoogleProjectId)
	if err != nil {
		return nil, fmt.Errorf("platform: pubsub.NewClient: %w", err)
	}

	fsClient, err := firestore.NewClient(ctx, cfg.Application.GoogleProjectId)
	if err != nil {
		return nil, fmt.Errorf("platform: firestore.NewClient: %w", err)
	}

	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  cfg.Application.GoogleProjectId,
		Location: cfg.Application.GoogleLocation,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("platform: genai.NewClient: %w", err)
	}

	gcsPort := NewGcsAdapter(storageClient, iamClient, cfg.Application.SignerServiceAccountEmail)

	return &ServiceClients{
		Config:     cfg,
		GCS:        gcsPort,
		JobStore:   NewJobStore(fsClient, cfg.Firestore.JobCollection),
		Publisher:  NewPublisher(pubsubClient, cfg.PubSub.Topic, cfg.PubSub.PublishTimeoutSec),
		Subscriber: NewSubscriber(pubsubClient, cfg.PubSub.Subscription),
		Analyzer:   NewQuotaAwareModel(genaiClient, cfg.Analyzer),
		GenAI:      genaiClient,
	}, nil
}
