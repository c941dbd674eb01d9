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

package disk_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/logfuse/internal/cache/disk"
	"github.com/google/logfuse/objectstore/memblob"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskCacheRoundTripAndFilesExist(t *testing.T) {
	ctx := context.Background()
	parent := t.TempDir()
	inner := memblob.New()

	c, err := disk.New(inner, parent, 2)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.PutSegment(ctx, 1, []byte("hello")))
	got, err := c.GetSegment(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)

	entries, err := os.ReadDir(c.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestDiskCacheEvictsOldestFile(t *testing.T) {
	ctx := context.Background()
	parent := t.TempDir()
	inner := memblob.New()

	c, err := disk.New(inner, parent, 2)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.PutSegment(ctx, 1, []byte("a")))
	require.NoError(t, c.PutSegment(ctx, 2, []byte("b")))
	require.NoError(t, c.PutSegment(ctx, 3, []byte("c")))

	entries, err := os.ReadDir(c.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	_, err = os.Stat(filepath.Join(c.Dir(), "seg_1"))
	assert.True(t, os.IsNotExist(err))
}

func TestCloseRemovesScratchDir(t *testing.T) {
	ctx := context.Background()
	parent := t.TempDir()
	inner := memblob.New()

	c, err := disk.New(inner, parent, 2)
	require.NoError(t, err)
	require.NoError(t, c.PutSegment(ctx, 1, []byte("x")))

	dir := c.Dir()
	require.NoError(t, c.Close())

	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}
