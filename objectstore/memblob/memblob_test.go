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

package memblob_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/logfuse/objectstore"
	"github.com/google/logfuse/objectstore/memblob"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGetPutSegment(t *testing.T) {
	ctx := context.Background()
	m := memblob.New()

	_, err := m.GetSegment(ctx, 1)
	assert.True(t, errors.Is(err, objectstore.ErrNotFound))

	require.NoError(t, m.PutSegment(ctx, 1, []byte("hello")))
	got, err := m.GetSegment(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)
}

func TestMemoryRejectsRewrite(t *testing.T) {
	ctx := context.Background()
	m := memblob.New()
	require.NoError(t, m.PutSegment(ctx, 1, []byte("a")))
	assert.Error(t, m.PutSegment(ctx, 1, []byte("b")))
}

func TestMemoryCheckpointOverwrite(t *testing.T) {
	ctx := context.Background()
	m := memblob.New()

	_, err := m.GetCheckpoint(ctx)
	assert.True(t, errors.Is(err, objectstore.ErrNotFound))

	require.NoError(t, m.PutCheckpoint(ctx, []byte("v1")))
	require.NoError(t, m.PutCheckpoint(ctx, []byte("v2")))

	got, err := m.GetCheckpoint(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)
}

func TestLocalDirectoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	d := memblob.NewLocalDirectory(dir)
	require.NoError(t, d.Create(ctx))

	require.NoError(t, d.PutSegment(ctx, 7, []byte("payload")))
	got, err := d.GetSegment(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)

	assert.Error(t, d.PutSegment(ctx, 7, []byte("other")))

	require.NoError(t, d.PutCheckpoint(ctx, []byte("ckpt")))
	got, err = d.GetCheckpoint(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("ckpt"), got)
}

func TestLocalDirectoryNotFound(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	d := memblob.NewLocalDirectory(dir)
	require.NoError(t, d.Create(ctx))

	_, err := d.GetSegment(ctx, 42)
	assert.True(t, errors.Is(err, objectstore.ErrNotFound))
}
