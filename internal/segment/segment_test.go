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

package segment_test

import (
	"bytes"
	"testing"

	"github.com/google/logfuse/internal/segment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testBlockSize  = 64
	testBlocksPerS = 4
)

func TestWriteDataPadsShortBlocks(t *testing.T) {
	s := segment.NewRW(0, testBlockSize, testBlocksPerS)
	idx, err := s.WriteData([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 0, idx)

	got, err := s.ReadBlock(idx)
	require.NoError(t, err)
	want := append([]byte("hello"), make([]byte, testBlockSize-5)...)
	assert.Equal(t, want, got)
}

func TestWriteDataRejectsOversizedBlock(t *testing.T) {
	s := segment.NewRW(0, testBlockSize, testBlocksPerS)
	_, err := s.WriteData(make([]byte, testBlockSize+1))
	assert.Error(t, err)
}

func TestIsFullAndOverfillRejected(t *testing.T) {
	s := segment.NewRW(1, testBlockSize, 2)
	_, err := s.WriteData([]byte("a"))
	require.NoError(t, err)
	assert.False(t, s.IsFull())

	_, err = s.WriteData([]byte("b"))
	require.NoError(t, err)
	assert.True(t, s.IsFull())

	_, err = s.WriteData([]byte("c"))
	assert.Error(t, err)
}

func TestSummaryRoundTripInterleaved(t *testing.T) {
	s := segment.NewRW(5, testBlockSize, testBlocksPerS)

	i0, err := s.WriteInode([]byte("inode-1"), 1)
	require.NoError(t, err)
	i1, err := s.WriteData([]byte("data"))
	require.NoError(t, err)
	i2, err := s.WriteInode([]byte("inode-2"), 2)
	require.NoError(t, err)

	sealed, err := s.Seal()
	require.NoError(t, err)
	ro, err := segment.Decode(5, sealed, testBlockSize)
	require.NoError(t, err)

	got0, err := ro.ReadBlock(i0)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(got0, []byte("inode-1")))

	got1, err := ro.ReadBlock(i1)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(got1, []byte("data")))

	got2, err := ro.ReadBlock(i2)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(got2, []byte("inode-2")))

	wantSummary := []segment.InodeBlock{
		{InodeNumber: 1, BlockIndex: uint32(i0)},
		{InodeNumber: 2, BlockIndex: uint32(i2)},
	}
	assert.Equal(t, wantSummary, ro.InodeBlockNumbers())
}

func TestSealedOnWireSizeIsExact(t *testing.T) {
	s := segment.NewRW(0, testBlockSize, testBlocksPerS)
	for i := 0; i < testBlocksPerS; i++ {
		_, err := s.WriteData([]byte{byte(i)})
		require.NoError(t, err)
	}
	sealed, err := s.Seal()
	require.NoError(t, err)
	assert.Len(t, sealed, (testBlocksPerS+1)*testBlockSize)
}

func TestIsFullWhenInodeSummaryWouldOverflow(t *testing.T) {
	s := segment.NewRW(0, testBlockSize, 1<<20)
	max := segment.MaxSummaryEntries(testBlockSize)

	for i := 0; i < max; i++ {
		assert.False(t, s.IsFull())
		_, err := s.WriteInode([]byte("x"), uint64(i))
		require.NoError(t, err)
	}
	assert.True(t, s.IsFull())

	sealed, err := s.Seal()
	require.NoError(t, err)
	assert.NotEmpty(t, sealed)
}

func TestDecodeRejectsTruncatedSummary(t *testing.T) {
	_, err := segment.Decode(0, make([]byte, testBlockSize-1), testBlockSize)
	assert.Error(t, err)
}
