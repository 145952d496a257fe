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

// Package model holds the data types shared across the pipeline: the Job
// document persisted in Firestore, the shot events an Analyzer produces,
// and the Pub/Sub envelope that hands a Job off to the Worker.
package model

import "time"

// JobStatus is the lifecycle state of a Job document.
type JobStatus string

const (
	// JobStatusUploadPending is set by /upload/init before the client has
	// PUT the object to the signed URL; no envelope exists yet.
	JobStatusUploadPending JobStatus = "upload_pending"
	JobStatusUploading     JobStatus = "uploading"
	JobStatusQueued        JobStatus = "queued"
	JobStatusProcessing    JobStatus = "processing"
	// JobStatusRendering is the render-mode analogue of processing,
	// entered between queued(mode=render) and ready.
	JobStatusRendering JobStatus = "rendering"
	JobStatusDone      JobStatus = "done"
	// JobStatusReady is the render-mode terminal state, distinct from
	// JobStatusDone (the analysis-mode terminal state) since a rendered
	// final video has no shotEvents/analysisGcsUri of its own.
	JobStatusReady JobStatus = "ready"
	JobStatusError JobStatus = "error"
	// JobStatusPublishError and JobStatusRenderPublishError are terminal,
	// retriable-only-by-manual-re-enqueue states entered when the API
	// accepted and stored the upload but the bus publish itself failed.
	JobStatusPublishError       JobStatus = "publish_error"
	JobStatusRenderPublishError JobStatus = "render_publish_error"
	JobStatusDeleted            JobStatus = "deleted"
)

// JobMode selects which pipeline the Worker runs for a given Job.
type JobMode string

const (
	// ModeAnalysis runs the full Analyzer-driven highlight pipeline,
	// including rendering and uploading the highlight video.
	ModeAnalysis JobMode = "analysis"
	// ModeRender renders a user-edited list of clip ranges without
	// invoking the Analyzer.
	ModeRender JobMode = "render"
	// ModeVertex runs the same Analyzer-driven pipeline as ModeAnalysis
	// but stops after committing shot events: no clip render, no
	// highlight upload. Used when only the event detections are wanted.
	ModeVertex JobMode = "vertex"
)

// Visibility controls whether a finished highlight appears in public listings.
type Visibility string

const (
	VisibilityPrivate  Visibility = "private"
	VisibilityUnlisted Visibility = "unlisted"
	VisibilityPublic   Visibility = "public"
)

// Job is the Firestore-backed document tracking one upload through the
// pipeline, from initial upload request to a rendered highlight video.
// JSON tags mirror the Firestore field names so the API tier can return
// the document to clients without a separate wire type.
type Job struct {
	JobID  string `firestore:"-" json:"jobId"`
	UserID string `firestore:"userId" json:"userId,omitempty"`

	OwnerEmail       string     `firestore:"ownerEmail" json:"ownerEmail,omitempty"`
	Status           JobStatus  `firestore:"status" json:"status"`
	Mode             JobMode    `firestore:"mode" json:"mode"`
	Visibility       Visibility `firestore:"visibility" json:"visibility"`
	OriginalFileName string     `firestore:"originalFileName" json:"originalFileName,omitempty"`
	Title            string     `firestore:"title" json:"title,omitempty"`

	VideoGcsUri    string `firestore:"videoGcsUri" json:"videoGcsUri,omitempty"`
	OutputGcsUri   string `firestore:"outputGcsUri,omitempty" json:"outputGcsUri,omitempty"`
	AnalysisGcsUri string `firestore:"analysisGcsUri,omitempty" json:"analysisGcsUri,omitempty"`
	// FinalVideoGcsUri holds the render-mode output (final_render.mp4);
	// distinct from OutputGcsUri, the analysis-mode highlight.
	FinalVideoGcsUri string `firestore:"finalVideoGcsUri,omitempty" json:"finalVideoGcsUri,omitempty"`

	ShotEvents               []ShotEvent `firestore:"shotEvents,omitempty" json:"shotEvents,omitempty"`
	VideoDurationSec         float64     `firestore:"videoDurationSec,omitempty" json:"videoDurationSec,omitempty"`
	HighlightDurationSeconds float64     `firestore:"highlightDurationSeconds,omitempty" json:"highlightDurationSeconds,omitempty"`

	LikesCount    int64    `firestore:"likesCount" json:"likesCount"`
	ViewsCount    int64    `firestore:"viewsCount" json:"viewsCount"`
	LikedByEmails []string `firestore:"likedByEmails,omitempty" json:"likedByEmails,omitempty"`

	ErrorMessage string `firestore:"errorMessage,omitempty" json:"errorMessage,omitempty"`

	CreatedAt time.Time `firestore:"createdAt,serverTimestamp" json:"createdAt,omitempty"`
	UpdatedAt time.Time `firestore:"updatedAt,serverTimestamp" json:"updatedAt,omitempty"`
	// QueuedAt and StartedAt mark the queued->processing (or rendering)
	// handoff; both are written with the Firestore server-timestamp
	// sentinel via Merge, not client clocks, since the API and Worker
	// processes run on different machines. Deliberately untagged here
	// (not serverTimestamp on the struct) since that tag would stamp
	// QueuedAt on every struct write, including the upload_pending Create
	// that predates a job ever being queued.
	QueuedAt  time.Time `firestore:"queuedAt,omitempty" json:"queuedAt,omitempty"`
	StartedAt time.Time `firestore:"startedAt,omitempty" json:"startedAt,omitempty"`
	// CompletedAt is this system's name for the original's finishedAt:
	// the moment the Worker or Renderer reached a terminal status.
	CompletedAt  time.Time `firestore:"completedAt,omitempty" json:"completedAt,omitempty"`
	DeletedAt    time.Time `firestore:"deletedAt,omitempty" json:"deletedAt,omitempty"`
	LastViewedAt time.Time `firestore:"lastViewedAt,omitempty" json:"lastViewedAt,omitempty"`
	LastLikedAt  time.Time `firestore:"lastLikedAt,omitempty" json:"lastLikedAt,omitempty"`
}

// Terminal reports whether the Job has reached a state the Worker will
// never transition out of on its own (done, ready, error, publish_error,
// render_publish_error, or soft-deleted).
// The Worker uses this to short-circuit replayed Pub/Sub messages.
func (j *Job) Terminal() bool {
	switch j.Status {
	case JobStatusDone, JobStatusReady, JobStatusError, JobStatusPublishError, JobStatusRenderPublishError, JobStatusDeleted:
		return true
	default:
		return false
	}
}

// Envelope is the Pub/Sub message payload published by the API when a
// Job is ready for the Worker, mirroring the upload-triggered job
// dispatch in the original FastAPI service.
type Envelope struct {
	JobID      string     `json:"jobId"`
	VideoGcsUri string    `json:"videoGcsUri"`
	OutBucket  string     `json:"outBucket"`
	UserID     string     `json:"userId,omitempty"`
	OwnerEmail string     `json:"ownerEmail,omitempty"`
	Visibility Visibility `json:"visibility,omitempty"`
	Mode       JobMode    `json:"mode"`
	// FinalClips carries the user-edited, already-ordered clip ranges for
	// a mode=render envelope; unused for mode=analysis.
	FinalClips []ClipRange `json:"finalClips,omitempty"`
}
