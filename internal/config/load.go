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

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const (
	// ConfigFileBaseName is the root name shared by every config file,
	// before the runtime suffix and extension are applied.
	ConfigFileBaseName = ".env"
	// ConfigFileExtension is the file extension used for all config files.
	ConfigFileExtension = ".toml"
	// EnvConfigFilePrefix names the environment variable holding the
	// directory config files are loaded from.
	EnvConfigFilePrefix = "GCP_CONFIG_PREFIX"
	// EnvConfigRuntime names the environment variable selecting the
	// runtime-specific overlay file (e.g. "dev", "prod").
	EnvConfigRuntime = "GCP_RUNTIME"
)

// Load reads the base config file (`<prefix>/.env.toml`) and, if
// GCP_RUNTIME is set, overlays `<prefix>/.env.<runtime>.toml` on top of it.
// Overlay fields win; fields the overlay omits keep the base value, since
// both files are decoded into the same struct in sequence. Returns a
// Config pre-populated with New()'s defaults if neither file sets a value.
func Load() (*Config, error) {
	prefix := os.Getenv(EnvConfigFilePrefix)
	if prefix == "" {
		prefix = "."
	}

	cfg := New()

	basePath := filepath.Join(prefix, ConfigFileBaseName+ConfigFileExtension)
	if _, err := toml.DecodeFile(basePath, cfg); err != nil {
		return nil, fmt.Errorf("loading base config %s: %w", basePath, err)
	}

	if runtime := os.Getenv(EnvConfigRuntime); runtime != "" {
		overlayPath := filepath.Join(prefix, ConfigFileBaseName+"."+runtime+ConfigFileExtension)
		if _, err := os.Stat(overlayPath); err == nil {
			if _, err := toml.DecodeFile(overlayPath, cfg); err != nil {
				return nil, fmt.Errorf("loading runtime overlay %s: %w", overlayPath, err)
			}
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate fails fast on configuration required by every component; a
// partially-configured process should never reach steady state silently.
func (c *Config) validate() error {
	switch {
	case c.Application.GoogleProjectId == "":
		return fmt.Errorf("config: application.google_project_id is required")
	case c.Storage.RawBucket == "":
		return fmt.Errorf("config: storage.raw_bucket is required")
	case c.Storage.OutputBucket == "":
		return fmt.Errorf("config: storage.output_bucket is required")
	case c.Firestore.JobCollection == "":
		return fmt.Errorf("config: firestore.job_collection is required")
	case c.PubSub.Topic == "":
		return fmt.Errorf("config: pubsub.topic is required")
	case c.PubSub.Subscription == "":
		return fmt.Errorf("config: pubsub.subscription is required")
	case c.Analyzer.Model == "":
		return fmt.Errorf("config: analyzer.model is required")
	}
	return nil
}
