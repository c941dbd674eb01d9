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

package inode_test

import (
	"testing"

	"github.com/google/logfuse/internal/inode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleINode() *inode.INode {
	n := &inode.INode{
		InodeNumber: 7,
		ParentInode: 1,
		Size:        4096,
		BlockSize:   4096,
		Mode:        inode.ModeRegular | 0o644,
		UID:         1000,
		GID:         1000,
		HardLinks:   1,
		ATime:       100,
		MTime:       200,
		CTime:       300,
	}
	n.Direct[0] = inode.BlockAddress{SegmentID: 1, Offset: 2}
	n.Indirect[0] = inode.BlockAddress{SegmentID: 9, Offset: 0}
	return n
}

func TestINodeEncodeDecodeRoundTrip(t *testing.T) {
	n := sampleINode()
	buf := n.Encode()
	require.Len(t, buf, inode.ImageSize)

	got, err := inode.Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, n, got)
}

func TestINodeTypeBits(t *testing.T) {
	n := &inode.INode{Mode: inode.ModeDir | 0o755}
	assert.True(t, n.IsDir())
	assert.False(t, n.IsRegular())

	n.Mode = inode.ModeRegular | 0o644
	assert.True(t, n.IsRegular())
	assert.False(t, n.IsSymlink())

	n.Mode = inode.ModeSymlink | 0o777
	assert.True(t, n.IsSymlink())
}

func TestBlockCountIsCeilDiv512(t *testing.T) {
	cases := []struct {
		size uint64
		want uint64
	}{
		{0, 0},
		{1, 1},
		{512, 1},
		{513, 2},
		{4096, 8},
		{4097, 9},
	}
	for _, c := range cases {
		n := &inode.INode{Size: c.size}
		assert.Equal(t, c.want, n.BlockCount(), "size=%d", c.size)
	}
}

func TestPadRejectsOversizedPayload(t *testing.T) {
	_, err := inode.Pad(make([]byte, 10), 8)
	assert.Error(t, err)

	out, err := inode.Pad([]byte("hi"), 8)
	require.NoError(t, err)
	assert.Equal(t, []byte{'h', 'i', 0, 0, 0, 0, 0, 0}, out)
}
