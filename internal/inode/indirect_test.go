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

// With block_size=64, A = 64/8 = 8: direct covers [0,16), single [16,24),
// double [24, 24+64)=[24,88), triple [88, 88+512).
func TestLocateTierBoundaries(t *testing.T) {
	const blockSize = 64

	tier, offsets, err := inode.Locate(0, blockSize)
	require.NoError(t, err)
	assert.Equal(t, inode.TierDirect, tier)
	assert.Equal(t, []int{0}, offsets)

	tier, offsets, err = inode.Locate(15, blockSize)
	require.NoError(t, err)
	assert.Equal(t, inode.TierDirect, tier)
	assert.Equal(t, []int{15}, offsets)

	tier, offsets, err = inode.Locate(16, blockSize)
	require.NoError(t, err)
	assert.Equal(t, inode.TierSingle, tier)
	assert.Equal(t, []int{0}, offsets)

	tier, offsets, err = inode.Locate(23, blockSize)
	require.NoError(t, err)
	assert.Equal(t, inode.TierSingle, tier)
	assert.Equal(t, []int{7}, offsets)

	tier, offsets, err = inode.Locate(24, blockSize)
	require.NoError(t, err)
	assert.Equal(t, inode.TierDouble, tier)
	assert.Equal(t, []int{0, 0}, offsets)

	tier, offsets, err = inode.Locate(24+8, blockSize)
	require.NoError(t, err)
	assert.Equal(t, inode.TierDouble, tier)
	assert.Equal(t, []int{1, 0}, offsets)

	tier, offsets, err = inode.Locate(88, blockSize)
	require.NoError(t, err)
	assert.Equal(t, inode.TierTriple, tier)
	assert.Equal(t, []int{0, 0, 0}, offsets)
}

func TestLocateOutOfRange(t *testing.T) {
	const blockSize = 64
	max := inode.MaxAddressableBlocks(blockSize)
	_, _, err := inode.Locate(max, blockSize)
	assert.Error(t, err)
}
