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

// Package segment implements the fixed-size on-log segment: a writable
// assemblage of blocks, sealed into a read-only on-wire form of
// summary_block || payload_blocks (spec.md §3.2, §4.1).
package segment

import (
	"fmt"

	"github.com/google/logfuse/internal/inode"
)

// InodeBlock records that a given inode image landed at a given block
// index within a segment; this is exactly what the trailing summary block
// encodes.
type InodeBlock struct {
	InodeNumber uint64
	BlockIndex  uint32
}

// RW is a segment under assembly on the upload-side frontier of the log.
// Only the upcall thread ever mutates an RW segment (spec.md §5).
type RW struct {
	id              uint64
	blockSize       int
	blocksPerSeg    int
	maxInodeEntries int
	blocks          [][]byte
	inodeBlocks     []InodeBlock
}

// NewRW returns an empty writable segment with the given id and
// parameters.
func NewRW(id uint64, blockSize, blocksPerSegment int) *RW {
	return &RW{
		id:              id,
		blockSize:       blockSize,
		blocksPerSeg:    blocksPerSegment,
		maxInodeEntries: MaxSummaryEntries(blockSize),
	}
}

// ID returns the segment's id.
func (s *RW) ID() uint64 { return s.id }

// IsFull reports whether blocks_per_segment blocks have been written, or
// whether one more write_inode call would overflow the trailing summary
// block (spec.md §6.2) — whichever limit the segment hits first.
func (s *RW) IsFull() bool {
	return len(s.blocks) >= s.blocksPerSeg || len(s.inodeBlocks) >= s.maxInodeEntries
}

// HasBlocks reports whether any block has been written to this segment
// yet, so callers can tell a segment worth sealing on flush from an
// untouched one.
func (s *RW) HasBlocks() bool { return len(s.blocks) > 0 }

// WriteData appends one block's worth of bytes, zero-padded to block_size.
// It is an error to write to a full segment or to exceed block_size.
func (s *RW) WriteData(data []byte) (blockIndex int, err error) {
	if s.IsFull() {
		return 0, fmt.Errorf("segment: write_data on full segment %d", s.id)
	}
	padded, err := inode.Pad(data, s.blockSize)
	if err != nil {
		return 0, fmt.Errorf("segment %d: %w", s.id, err)
	}
	s.blocks = append(s.blocks, padded)
	return len(s.blocks) - 1, nil
}

// WriteInode is WriteData plus recording (inode_number, block_index) in
// the segment's summary.
func (s *RW) WriteInode(data []byte, inodeNumber uint64) (blockIndex int, err error) {
	idx, err := s.WriteData(data)
	if err != nil {
		return 0, err
	}
	s.inodeBlocks = append(s.inodeBlocks, InodeBlock{InodeNumber: inodeNumber, BlockIndex: uint32(idx)})
	return idx, nil
}

// ReadBlock returns the bytes written at payload index i.
func (s *RW) ReadBlock(i int) ([]byte, error) {
	if i < 0 || i >= len(s.blocks) {
		return nil, fmt.Errorf("segment %d: block index %d out of range (have %d)", s.id, i, len(s.blocks))
	}
	return s.blocks[i], nil
}

// InodeBlockNumbers returns the (inode_number, block_index) pairs written
// so far, in write order.
func (s *RW) InodeBlockNumbers() []InodeBlock {
	out := make([]InodeBlock, len(s.inodeBlocks))
	copy(out, s.inodeBlocks)
	return out
}

// Seal materializes the summary block and returns the on-wire byte form
// (summary_block || payload_blocks), ready to hand to the log's backend.
// IsFull's inode-entry cap guarantees the summary always fits, so the
// error return here is a last-resort invariant check, not a normal path.
func (s *RW) Seal() ([]byte, error) {
	summary, err := EncodeSummary(s.inodeBlocks, s.blockSize)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, (s.blocksPerSeg+1)*s.blockSize)
	out = append(out, summary...)
	for _, b := range s.blocks {
		out = append(out, b...)
	}
	return out, nil
}

// RO is a sealed segment as loaded back from storage: its summary block
// has already been parsed out, and ReadBlock refers to payload index i.
type RO struct {
	id          uint64
	blockSize   int
	payload     [][]byte
	inodeBlocks []InodeBlock
}

// Decode parses the on-wire bytes of a sealed segment (as produced by
// Seal) back into an RO segment.
func Decode(id uint64, wire []byte, blockSize int) (*RO, error) {
	if len(wire) < blockSize {
		return nil, fmt.Errorf("segment %d: wire form shorter than one block", id)
	}
	summaryBlock := wire[:blockSize]
	payloadBytes := wire[blockSize:]

	inodeBlocks, err := DecodeSummary(summaryBlock)
	if err != nil {
		return nil, fmt.Errorf("segment %d: %w", id, err)
	}

	if len(payloadBytes)%blockSize != 0 {
		return nil, fmt.Errorf("segment %d: payload length %d is not a multiple of block_size %d", id, len(payloadBytes), blockSize)
	}
	n := len(payloadBytes) / blockSize
	payload := make([][]byte, n)
	for i := 0; i < n; i++ {
		payload[i] = payloadBytes[i*blockSize : (i+1)*blockSize]
	}

	return &RO{id: id, blockSize: blockSize, payload: payload, inodeBlocks: inodeBlocks}, nil
}

// ID returns the segment's id.
func (s *RO) ID() uint64 { return s.id }

// IsFull is always true for a sealed, read-only segment.
func (s *RO) IsFull() bool { return true }

// ReadBlock returns payload block i.
func (s *RO) ReadBlock(i int) ([]byte, error) {
	if i < 0 || i >= len(s.payload) {
		return nil, fmt.Errorf("segment %d: block index %d out of range (have %d)", s.id, i, len(s.payload))
	}
	return s.payload[i], nil
}

// InodeBlockNumbers returns the (inode_number, block_index) pairs decoded
// from the summary block, in write order; used by roll-forward.
func (s *RO) InodeBlockNumbers() []InodeBlock {
	out := make([]InodeBlock, len(s.inodeBlocks))
	copy(out, s.inodeBlocks)
	return out
}
