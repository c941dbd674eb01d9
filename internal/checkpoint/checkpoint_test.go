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

package checkpoint_test

import (
	"context"
	"testing"

	"github.com/google/logfuse/internal/checkpoint"
	"github.com/google/logfuse/internal/imap"
	"github.com/google/logfuse/internal/inode"
	"github.com/google/logfuse/internal/segment"
	"github.com/google/logfuse/objectstore"
	"github.com/google/logfuse/objectstore/memblob"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	c := checkpoint.New("t1", 64, 4, 1)
	c.InodeMap[1] = inode.BlockAddress{SegmentID: 1, Offset: 0}
	c.SegmentCounter = 1

	data, err := c.Encode()
	require.NoError(t, err)

	got, err := checkpoint.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, c.BucketName, got.BucketName)
	assert.Equal(t, c.SegmentCounter, got.SegmentCounter)
	assert.Equal(t, c.InodeMap, got.InodeMap)
}

func TestSaveThenLoadReturnsSavedCheckpoint(t *testing.T) {
	ctx := context.Background()
	store := memblob.New()

	c := checkpoint.New("t1", 64, 4, 1)
	require.NoError(t, c.Save(ctx, store))

	loaded, err := checkpoint.Load(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, c.BucketName, loaded.BucketName)
}

func TestLoadMissingCheckpointIsNotFound(t *testing.T) {
	ctx := context.Background()
	store := memblob.New()
	_, err := checkpoint.Load(ctx, store)
	assert.ErrorIs(t, err, objectstore.ErrNotFound)
}

func TestRollForwardReplaysSegmentsPastCheckpoint(t *testing.T) {
	ctx := context.Background()
	store := memblob.New()

	seg1 := segment.NewRW(1, 64, 4)
	_, err := seg1.WriteInode(make([]byte, 64), 1)
	require.NoError(t, err)
	sealed1, err := seg1.Seal()
	require.NoError(t, err)
	require.NoError(t, store.PutSegment(ctx, 1, sealed1))

	seg2 := segment.NewRW(2, 64, 4)
	_, err = seg2.WriteInode(make([]byte, 64), 2)
	require.NoError(t, err)
	sealed2, err := seg2.Seal()
	require.NoError(t, err)
	require.NoError(t, store.PutSegment(ctx, 2, sealed2))

	c := checkpoint.New("t1", 64, 4, 1)
	c.SegmentCounter = 0
	m := imap.New()

	require.NoError(t, checkpoint.RollForward(ctx, store, c, m))

	_, ok := m.Lookup(1)
	assert.True(t, ok)
	_, ok = m.Lookup(2)
	assert.True(t, ok)
	assert.Equal(t, uint64(2), c.SegmentCounter)
}

func TestRollForwardStopsAtFirstMissingSegment(t *testing.T) {
	ctx := context.Background()
	store := memblob.New()

	seg1 := segment.NewRW(1, 64, 4)
	_, err := seg1.WriteInode(make([]byte, 64), 1)
	require.NoError(t, err)
	sealed1, err := seg1.Seal()
	require.NoError(t, err)
	require.NoError(t, store.PutSegment(ctx, 1, sealed1))

	c := checkpoint.New("t1", 64, 4, 1)
	c.SegmentCounter = 0
	m := imap.New()

	require.NoError(t, checkpoint.RollForward(ctx, store, c, m))
	assert.Equal(t, uint64(1), c.SegmentCounter)
}

func TestRollForwardIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := memblob.New()

	seg1 := segment.NewRW(1, 64, 4)
	_, err := seg1.WriteInode(make([]byte, 64), 1)
	require.NoError(t, err)
	sealed1, err := seg1.Seal()
	require.NoError(t, err)
	require.NoError(t, store.PutSegment(ctx, 1, sealed1))

	c1 := checkpoint.New("t1", 64, 4, 1)
	m1 := imap.New()
	require.NoError(t, checkpoint.RollForward(ctx, store, c1, m1))

	c2 := checkpoint.New("t1", 64, 4, 1)
	m2 := imap.New()
	require.NoError(t, checkpoint.RollForward(ctx, store, c2, m2))

	assert.Equal(t, m1.Snapshot(), m2.Snapshot())
	assert.Equal(t, c1.SegmentCounter, c2.SegmentCounter)
}
