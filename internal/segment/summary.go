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

package segment

import (
	"encoding/binary"
	"fmt"
)

// entrySize is the on-wire width of one (inode_number: u64, block_index:
// u32) summary tuple.
const entrySize = 8 + 4

// EncodeSummary packs entries as a length-prefixed list of (inum, bidx)
// tuples, zero-padded to blockSize (spec.md §6.2). It is an error for the
// entries to not fit in one block; callers must keep the number of
// write_inode calls per segment within MaxSummaryEntries(blockSize).
func EncodeSummary(entries []InodeBlock, blockSize int) ([]byte, error) {
	buf := make([]byte, 0, blockSize)
	var countBytes [4]byte
	binary.LittleEndian.PutUint32(countBytes[:], uint32(len(entries)))
	buf = append(buf, countBytes[:]...)

	for _, e := range entries {
		var entry [entrySize]byte
		binary.LittleEndian.PutUint64(entry[:8], e.InodeNumber)
		binary.LittleEndian.PutUint32(entry[8:12], e.BlockIndex)
		buf = append(buf, entry[:]...)
	}

	if len(buf) > blockSize {
		return nil, fmt.Errorf("segment: summary of %d entries does not fit in block_size %d", len(entries), blockSize)
	}
	out := make([]byte, blockSize)
	copy(out, buf)
	return out, nil
}

// MaxSummaryEntries returns the most (inode_number, block_index) tuples
// that fit in one blockSize-wide summary block, the cap write_inode must
// respect per segment.
func MaxSummaryEntries(blockSize int) int {
	return (blockSize - 4) / entrySize
}

// DecodeSummary reverses EncodeSummary.
func DecodeSummary(block []byte) ([]InodeBlock, error) {
	if len(block) < 4 {
		return nil, fmt.Errorf("segment: summary block too short")
	}
	count := binary.LittleEndian.Uint32(block[:4])
	off := 4

	entries := make([]InodeBlock, 0, count)
	for i := uint32(0); i < count; i++ {
		if off+entrySize > len(block) {
			return nil, fmt.Errorf("segment: summary block truncated at entry %d (declared count %d)", i, count)
		}
		inum := binary.LittleEndian.Uint64(block[off : off+8])
		bidx := binary.LittleEndian.Uint32(block[off+8 : off+12])
		entries = append(entries, InodeBlock{InodeNumber: inum, BlockIndex: bidx})
		off += entrySize
	}
	return entries, nil
}
