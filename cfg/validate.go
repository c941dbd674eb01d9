// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cfg

import "fmt"

// Validate checks the invariants BindFlags' defaults alone can't enforce:
// mutually exclusive bucket selection, and the positive sizes spec.md
// §6.3's table requires.
func (c *Config) Validate() error {
	if c.Bucket.Name == "" && c.Bucket.LocalDirectory == "" {
		return fmt.Errorf("cfg: exactly one of bucket.name or bucket.local-directory must be set")
	}
	if c.Bucket.Name != "" && c.Bucket.LocalDirectory != "" {
		return fmt.Errorf("cfg: bucket.name and bucket.local-directory are mutually exclusive")
	}
	if c.MountPoint == "" {
		return fmt.Errorf("cfg: mount point is required")
	}

	if c.Layout.BlockSize == 0 {
		return fmt.Errorf("cfg: layout.block-size must be positive")
	}
	if c.Layout.BlocksPerSegment == 0 {
		return fmt.Errorf("cfg: layout.blocks-per-segment must be positive")
	}
	if c.Cache.MemoryCacheSegments == 0 {
		return fmt.Errorf("cfg: cache.memory-cache-segments must be positive")
	}
	if c.Cache.DiskCacheSegments == 0 {
		return fmt.Errorf("cfg: cache.disk-cache-segments must be positive")
	}
	if c.Cache.WriteQueueSegments == 0 {
		return fmt.Errorf("cfg: cache.write-queue-segments must be positive")
	}
	if c.Cache.UploadWorkers == 0 {
		return fmt.Errorf("cfg: cache.upload-workers must be positive")
	}
	if c.Checkpoint.FrequencySeconds == 0 {
		return fmt.Errorf("cfg: checkpoint.frequency-seconds must be positive")
	}
	return nil
}
