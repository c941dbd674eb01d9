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

package cmd

import (
	"testing"
	"time"

	"github.com/google/logfuse/cfg"
	"github.com/google/logfuse/fs"
	"github.com/google/logfuse/objectstore/memblob"
	"github.com/stretchr/testify/assert"
)

func TestServerConfigFromCopiesLayoutAndPerms(t *testing.T) {
	c := &cfg.Config{
		Layout: cfg.LayoutConfig{BlockSize: 8192, BlocksPerSegment: 256},
		Perms:  cfg.PermsConfig{Uid: 1000, Gid: 1000, DirMode: 0o750, FileMode: 0o640},
		Checkpoint: cfg.CheckpointConfig{
			FrequencySeconds: 30,
		},
	}

	got := serverConfigFrom(fs.ServerConfig{}, c)

	assert.Equal(t, uint32(8192), got.BlockSize)
	assert.Equal(t, uint32(256), got.BlocksPerSegment)
	assert.Equal(t, uint32(1000), got.Uid)
	assert.Equal(t, uint32(1000), got.Gid)
	assert.Equal(t, 30*time.Second, got.CheckpointFrequency)
	assert.NotNil(t, got.Clock)
}

func TestServerConfigFromPreservesBackend(t *testing.T) {
	base := fs.ServerConfig{Backend: memblob.New()}
	got := serverConfigFrom(base, &cfg.Config{})
	assert.Equal(t, base.Backend, got.Backend)
}
