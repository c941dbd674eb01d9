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

package inode

import "fmt"

// Tier identifies which of the four addressing tiers a logical block index
// falls into, per spec.md §3.4.
type Tier int

const (
	TierDirect Tier = iota
	TierSingle
	TierDouble
	TierTriple
)

// Locate resolves a logical file block index i to a tier and the stack of
// offsets needed to descend to it within that tier, given the fan-out A =
// block_size/8. The offsets stack is ordered root-first: for the triple
// tier it has three entries (lvl3 index, lvl2 index, lvl1 index); the
// leaf-most offset is always last.
func Locate(i uint64, blockSize int) (tier Tier, offsets []int, err error) {
	a := uint64(AddressesPerBlock(blockSize))

	if i < NumDirect {
		return TierDirect, []int{int(i)}, nil
	}
	i -= NumDirect

	if i < a {
		return TierSingle, []int{int(i)}, nil
	}
	i -= a

	if i < a*a {
		return TierDouble, []int{int(i / a), int(i % a)}, nil
	}
	i -= a * a

	if i < a*a*a {
		return TierTriple, []int{
			int(i / (a * a)),
			int((i / a) % a),
			int(i % a),
		}, nil
	}

	return tier, nil, fmt.Errorf("inode: block index out of range for block_size %d", blockSize)
}

// MaxAddressableBlocks returns direct + A + A^2 + A^3, the total number of
// logical data blocks reachable from one inode at this block_size.
func MaxAddressableBlocks(blockSize int) uint64 {
	a := uint64(AddressesPerBlock(blockSize))
	return NumDirect + a + a*a + a*a*a
}
