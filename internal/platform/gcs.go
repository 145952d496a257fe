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
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	iam "cloud.google.com/go/iam/credentials/apiv1"
	credentialspb "cloud.google.com/go/iam/credentials/apiv1/credentialspb"
	"cloud.google.com/go/storage"
)

// GcsPort is the pipeline's entire surface onto Google Cloud Storage:
// streaming object IO, deletion, and V4 signed URL generation. Every
// other component depends on this interface, never on *storage.Client
// directly, so tests can substitute a fake.
type GcsPort interface {
	// UploadStream copies src into bucket/key, streaming without
	// buffering the whole object in memory.
	UploadStream(ctx context.Context, bucket, key string, contentType string, src io.Reader) error
	// DownloadToFile streams bucket/key into a newly created file at
	// destPath, returning the file size.
	DownloadToFile(ctx context.Context, bucket, key, destPath string) (int64, error)
	// Delete removes bucket/key; a missing object is not an error.
	Delete(ctx context.Context, bucket, key string) error
	// Exists reports whether bucket/key currently refers to an object,
	// used by the two-phase upload flow to confirm a client's direct PUT
	// actually landed before the Job is queued for processing.
	Exists(ctx context.Context, bucket, key string) (bool, error)
	// SignRead returns a time-limited signed GET URL for bucket/key.
	SignRead(ctx context.Context, bucket, key string, expires time.Duration) (string, error)
	// SignWrite returns a time-limited signed PUT URL for bucket/key, used
	// by the two-phase upload flow so the client can push bytes directly
	// to the object store without routing them through the API.
	SignWrite(ctx context.Context, bucket, key, contentType string, expires time.Duration) (string, error)
}

// ParseGcsUri splits a `gs://bucket/key` URI into its parts. Any other
// scheme is rejected: spec.md requires GCS URIs in this exact form,
// unlike the teacher's `https://storage.mtls.cloud.google.com/...` shape.
func ParseGcsUri(uri string) (bucket, key string, err error) {
	const prefix = "gs://"
	if !strings.HasPrefix(uri, prefix) {
		return "", "", fmt.Errorf("platform: invalid gcs uri %q: must start with %q", uri, prefix)
	}
	rest := uri[len(prefix):]
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("platform: invalid gcs uri %q: expected gs://bucket/key", uri)
	}
	return parts[0], parts[1], nil
}

// FormatGcsUri is the inverse of ParseGcsUri.
func FormatGcsUri(bucket, key string) string {
	return fmt.Sprintf("gs://%s/%s", bucket, key)
}

type gcsAdapter struct {
	client              *storage.Client
	iamClient           *iam.IamCredentialsClient
	signerServiceAccount string
}

// NewGcsAdapter builds the GcsPort implementation. signerServiceAccount,
// when non-empty, is the service account email SignRead asks the IAM
// Credentials API to sign on behalf of — the real SignBlob path the
// teacher only ever constructed a client for and never called.
func NewGcsAdapter(client *storage.Client, iamClient *iam.IamCredentialsClient, signerServiceAccount string) GcsPort {
	return &gcsAdapter{client: client, iamClient: iamClient, signerServiceAccount: signerServiceAccount}
}

func (a *gcsAdapter) UploadStream(ctx context.Context, bucket, key, contentType string, src io.Reader) error {
	w := a.client.Bucket(bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, src); err != nil {
		_ = w.Close()
		return fmt.Errorf("platform: uploading gs://%s/%s: %w", bucket, key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("platform: finalizing upload gs://%s/%s: %w", bucket, key, err)
	}
	return nil
}

func (a *gcsAdapter) DownloadToFile(ctx context.Context, bucket, key, destPath string) (int64, error) {
	r, err := a.client.Bucket(bucket).Object(key).NewReader(ctx)
	if err != nil {
		return 0, fmt.Errorf("platform: opening reader for gs://%s/%s: %w", bucket, key, err)
	}
	defer r.Close()

	f, err := os.Create(destPath)
	if err != nil {
		return 0, fmt.Errorf("platform: creating %s: %w", destPath, err)
	}
	// Closed explicitly before the caller touches the file again, never
	// left open across a later subprocess invocation against destPath.
	n, copyErr := io.Copy(f, r)
	closeErr := f.Close()
	if copyErr != nil {
		return n, fmt.Errorf("platform: downloading gs://%s/%s to %s: %w", bucket, key, destPath, copyErr)
	}
	if closeErr != nil {
		return n, fmt.Errorf("platform: closing %s: %w", destPath, closeErr)
	}
	return n, nil
}

func (a *gcsAdapter) Delete(ctx context.Context, bucket, key string) error {
	if err := a.client.Bucket(bucket).Object(key).Delete(ctx); err != nil {
		if err == storage.ErrObjectNotExist {
			return nil
		}
		return fmt.Errorf("platform: deleting gs://%s/%s: %w", bucket, key, err)
	}
	return nil
}

func (a *gcsAdapter) Exists(ctx context.Context, bucket, key string) (bool, error) {
	_, err := a.client.Bucket(bucket).Object(key).Attrs(ctx)
	if err == storage.ErrObjectNotExist {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("platform: checking gs://%s/%s: %w", bucket, key, err)
	}
	return true, nil
}

func (a *gcsAdapter) SignRead(ctx context.Context, bucket, key string, expires time.Duration) (string, error) {
	return a.sign(ctx, bucket, key, "GET", "", expires)
}

func (a *gcsAdapter) SignWrite(ctx context.Context, bucket, key, contentType string, expires time.Duration) (string, error) {
	return a.sign(ctx, bucket, key, "PUT", contentType, expires)
}

func (a *gcsAdapter) sign(ctx context.Context, bucket, key, method, contentType string, expires time.Duration) (string, error) {
	opts := &storage.SignedURLOptions{
		Scheme:      storage.SigningSchemeV4,
		Method:      method,
		ContentType: contentType,
		Expires:     time.Now().Add(expires),
	}

	if a.signerServiceAccount != "" {
		opts.GoogleAccessID = a.signerServiceAccount
		opts.SignBytes = func(b []byte) ([]byte, error) {
			name := fmt.Sprintf("projects/-/serviceAccounts/%s", a.signerServiceAccount)
			resp, err := a.iamClient.SignBlob(ctx, &credentialspb.SignBlobRequest{
				Name:    name,
				Payload: b,
			})
			if err != nil {
				return nil, fmt.Errorf("platform: SignBlob: %w", err)
			}
			return resp.SignedBlob, nil
		}
	}

	url, err := a.client.Bucket(bucket).SignedURL(key, opts)
	if err != nil {
		return "", fmt.Errorf("platform: signing gs://%s/%s: %w", bucket, key, err)
	}
	return url, nil
}
