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

func TestBlockAddressRoundTrip(t *testing.T) {
	tests := []inode.BlockAddress{
		{SegmentID: 0, Offset: 0},
		{SegmentID: 1, Offset: 511},
		{SegmentID: 0xFFFFFFFFFFFF, Offset: 0xFFFF}, // max 6-byte segment id
		{SegmentID: 42, Offset: 7},
	}

	for _, a := range tests {
		enc := a.Encode()
		got := inode.DecodeAddress(enc[:])
		assert.Equal(t, a, got)
	}
}

func TestBlockAddressZeroIsSentinel(t *testing.T) {
	assert.True(t, inode.BlockAddress{}.IsZero())
	assert.False(t, inode.BlockAddress{SegmentID: 1}.IsZero())
	assert.False(t, inode.BlockAddress{Offset: 1}.IsZero())
}

func TestAddressBlockRoundTrip(t *testing.T) {
	const blockSize = 64 // A = 8 addresses
	b := inode.NewAddressBlock(blockSize)
	require.Len(t, b.Addresses, 8)

	b.Addresses[0] = inode.BlockAddress{SegmentID: 3, Offset: 9}
	b.Addresses[7] = inode.BlockAddress{SegmentID: 99, Offset: 1}

	encoded := b.Encode(blockSize)
	assert.Len(t, encoded, blockSize)

	decoded := inode.DecodeAddressBlock(encoded, blockSize)
	assert.Equal(t, b.Addresses, decoded.Addresses)
}
