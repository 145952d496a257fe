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
	"os"

	"google.golang.org/genai"
)

// FileServiceAdapter implements analyzer.FileWaiter against the real
// genai.Client File Service, used only by the Analyzer's local-file
// fallback path (the primary path references a gs:// URI directly and
// never touches this).
type FileServiceAdapter struct {
	client *genai.Client
}

// NewFileServiceAdapter wraps an already-open genai.Client.
func NewFileServiceAdapter(client *genai.Client) *FileServiceAdapter {
	return &FileServiceAdapter{client: client}
}

func (a *FileServiceAdapter) UploadFromPath(ctx context.Context, path, displayName, mimeType string) (*genai.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("platform: opening %s for file-service upload: %w", path, err)
	}
	defer f.Close()

	file, err := a.client.Files.Upload(ctx, f, &genai.UploadFileConfig{
		DisplayName: displayName,
		MIMEType:    mimeType,
	})
	if err != nil {
		return nil, fmt.Errorf("platform: uploading %s to file service: %w", path, err)
	}
	return file, nil
}

func (a *FileServiceAdapter) GetFile(ctx context.Context, name string) (*genai.File, error) {
	file, err := a.client.Files.Get(ctx, name, nil)
	if err != nil {
		return nil, fmt.Errorf("platform: getting file %s: %w", name, err)
	}
	return file, nil
}
