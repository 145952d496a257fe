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
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/hooptuber/highlight-pipeline/internal/core/model"
)

// ErrJobNotFound is returned when a Job document doesn't exist.
var ErrJobNotFound = errors.New("platform: job not found")

// JobStore is the Firestore-backed persistence layer for Job documents.
// The teacher has no equivalent of this (its persistence is an
// append-only BigQuery insert); this is grounded instead on the
// `firestore_client.collection(...).document(job_id).set(data, merge=True)`
// pattern in the original Python worker and API.
type JobStore struct {
	client     *firestore.Client
	collection string
}

// NewJobStore wraps an already-open firestore.Client.
func NewJobStore(client *firestore.Client, collection string) *JobStore {
	return &JobStore{client: client, collection: collection}
}

func (s *JobStore) doc(jobID string) *firestore.DocumentRef {
	return s.client.Collection(s.collection).Doc(jobID)
}

// Create writes a brand-new Job document. Fails if one already exists
// under this ID (upload-init always mints a fresh UUID, so a collision
// indicates a bug rather than a legitimate retry).
func (s *JobStore) Create(ctx context.Context, job *model.Job) error {
	_, err := s.doc(job.JobID).Create(ctx, job)
	if err != nil {
		return fmt.Errorf("platform: creating job %s: %w", job.JobID, err)
	}
	return nil
}

// Get fetches a Job by ID, returning ErrJobNotFound if it doesn't exist.
func (s *JobStore) Get(ctx context.Context, jobID string) (*model.Job, error) {
	snap, err := s.doc(jobID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("platform: getting job %s: %w", jobID, err)
	}
	var job model.Job
	if err := snap.DataTo(&job); err != nil {
		return nil, fmt.Errorf("platform: decoding job %s: %w", jobID, err)
	}
	job.JobID = jobID
	return &job, nil
}

// Merge applies a field-level merge-write, leaving fields not present in
// updates untouched — the Firestore behavior the spec's status-transition
// writes (e.g. status=processing, then later shotEvents+status=done) rely
// on to avoid read-modify-write races between the API and the Worker.
func (s *JobStore) Merge(ctx context.Context, jobID string, updates map[string]interface{}) error {
	_, err := s.doc(jobID).Set(ctx, updates, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("platform: merging job %s: %w", jobID, err)
	}
	return nil
}

// IncrementCounter atomically increments an int64 field (likesCount,
// viewsCount) without a read-modify-write round trip.
func (s *JobStore) IncrementCounter(ctx context.Context, jobID, field string, delta int64) error {
	_, err := s.doc(jobID).Update(ctx, []firestore.Update{
		{Path: field, Value: firestore.Increment(delta)},
	})
	if err != nil {
		return fmt.Errorf("platform: incrementing %s on job %s: %w", field, jobID, err)
	}
	return nil
}

// AddToEmailSet atomically adds email to an array field using Firestore's
// ArrayUnion, so concurrent likes from different users never clobber
// each other the way a naive read-append-write would.
func (s *JobStore) AddToEmailSet(ctx context.Context, jobID, field, email string) error {
	_, err := s.doc(jobID).Update(ctx, []firestore.Update{
		{Path: field, Value: firestore.ArrayUnion(email)},
	})
	if err != nil {
		return fmt.Errorf("platform: adding %s to %s on job %s: %w", email, field, jobID, err)
	}
	return nil
}

// RemoveFromEmailSet is the inverse of AddToEmailSet, used when a user
// un-likes a highlight.
func (s *JobStore) RemoveFromEmailSet(ctx context.Context, jobID, field, email string) error {
	_, err := s.doc(jobID).Update(ctx, []firestore.Update{
		{Path: field, Value: firestore.ArrayRemove(email)},
	})
	if err != nil {
		return fmt.Errorf("platform: removing %s from %s on job %s: %w", email, field, jobID, err)
	}
	return nil
}

// ListByOwnerPage returns a page of finished Jobs owned by the given
// field/value pair (ownerEmail or userId — the caller picks ownerEmail
// when present, falling back to userId per spec.md §4.8), ordered by
// completion time descending, with opaque cursor pagination via
// Firestore's StartAfter — mirroring the original API's
// `.where(...).order_by(...).start_after(...)` query shape.
func (s *JobStore) ListByOwnerPage(ctx context.Context, field, value string, pageSize int, cursor *firestore.DocumentSnapshot) ([]*model.Job, *firestore.DocumentSnapshot, error) {
	q := s.client.Collection(s.collection).
		Where(field, "==", value).
		Where("status", "==", model.JobStatusDone).
		OrderBy("completedAt", firestore.Desc).
		Limit(pageSize)
	if cursor != nil {
		q = q.StartAfter(cursor)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var jobs []*model.Job
	var last *firestore.DocumentSnapshot
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("platform: listing jobs for %s=%s: %w", field, value, err)
		}
		var job model.Job
		if err := snap.DataTo(&job); err != nil {
			return nil, nil, fmt.Errorf("platform: decoding job %s: %w", snap.Ref.ID, err)
		}
		job.JobID = snap.Ref.ID
		jobs = append(jobs, &job)
		last = snap
	}
	return jobs, last, nil
}

// DocByID exposes the raw DocumentRef lookup ListByOwnerPage's cursor
// needs: a pageToken is the last document id of the previous page, which
// must be resolved back to a DocumentSnapshot before it can seed
// Query.StartAfter.
func (s *JobStore) DocByID(ctx context.Context, jobID string) (*firestore.DocumentSnapshot, error) {
	snap, err := s.doc(jobID).Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("platform: resolving page token %s: %w", jobID, err)
	}
	return snap, nil
}
