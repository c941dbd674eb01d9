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

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() Config {
	return Config{
		MountPoint: "/mnt/logfuse",
		Bucket:     BucketConfig{Name: "my-bucket"},
		Layout:     LayoutConfig{BlockSize: 4096, BlocksPerSegment: 512},
		Cache: CacheConfig{
			MemoryCacheSegments: 16,
			DiskCacheSegments:   64,
			WriteQueueSegments:  8,
			UploadWorkers:       4,
		},
		Checkpoint: CheckpointConfig{FrequencySeconds: 60},
	}
}

func TestValidateAcceptsWellFormedConfig(t *testing.T) {
	c := validConfig()
	assert.NoError(t, c.Validate())
}

func TestValidateRejectsNoBucketSelected(t *testing.T) {
	c := validConfig()
	c.Bucket = BucketConfig{}
	assert.Error(t, c.Validate())
}

func TestValidateRejectsBothBucketKindsSelected(t *testing.T) {
	c := validConfig()
	c.Bucket.LocalDirectory = "/tmp/bucket"
	assert.Error(t, c.Validate())
}

func TestValidateRejectsZeroBlockSize(t *testing.T) {
	c := validConfig()
	c.Layout.BlockSize = 0
	assert.Error(t, c.Validate())
}

func TestValidateRejectsMissingMountPoint(t *testing.T) {
	c := validConfig()
	c.MountPoint = ""
	assert.Error(t, c.Validate())
}

func TestOctalUnmarshalText(t *testing.T) {
	var o Octal
	assert.NoError(t, o.UnmarshalText([]byte("755")))
	assert.Equal(t, Octal(0o755), o)

	text, err := o.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "755", string(text))
}
