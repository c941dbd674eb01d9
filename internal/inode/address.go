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

// Package inode implements the fixed on-log byte layouts of this
// filesystem: block addresses, address blocks (the nodes of the indirect
// trees), and inode images.
package inode

import "encoding/binary"

// AddressSize is the on-wire width of a BlockAddress: 6 bytes of segment id
// plus 2 bytes of offset.
const AddressSize = 8

// BlockAddress locates a block within the log: the segment that holds it
// and the block's index within that segment's payload. The zero value is
// the sentinel for "unallocated".
type BlockAddress struct {
	SegmentID uint64 // only the low 48 bits are ever significant
	Offset    uint16
}

// IsZero reports whether a is the unallocated sentinel (0, 0).
func (a BlockAddress) IsZero() bool {
	return a.SegmentID == 0 && a.Offset == 0
}

// Encode packs a into its 8-byte little-endian wire form: a 6-byte segment
// id followed by a 2-byte offset.
func (a BlockAddress) Encode() [AddressSize]byte {
	var buf [AddressSize]byte
	var segBytes [8]byte
	binary.LittleEndian.PutUint64(segBytes[:], a.SegmentID)
	copy(buf[:6], segBytes[:6])
	binary.LittleEndian.PutUint16(buf[6:8], a.Offset)
	return buf
}

// DecodeAddress unpacks the 8-byte wire form produced by Encode.
func DecodeAddress(b []byte) BlockAddress {
	var segBytes [8]byte
	copy(segBytes[:6], b[:6])
	return BlockAddress{
		SegmentID: binary.LittleEndian.Uint64(segBytes[:]),
		Offset:    binary.LittleEndian.Uint16(b[6:8]),
	}
}

// AddressBlock is a single on-log block packed with consecutive
// BlockAddresses; it is the node type of the indirect trees.
type AddressBlock struct {
	Addresses []BlockAddress
}

// AddressesPerBlock is the fan-out of one tier of indirection: blockSize/8.
func AddressesPerBlock(blockSize int) int {
	return blockSize / AddressSize
}

// NewAddressBlock returns an all-zero (fully unallocated) address block
// sized for blockSize.
func NewAddressBlock(blockSize int) AddressBlock {
	return AddressBlock{Addresses: make([]BlockAddress, AddressesPerBlock(blockSize))}
}

// Encode packs the address block to exactly blockSize bytes.
func (b AddressBlock) Encode(blockSize int) []byte {
	out := make([]byte, blockSize)
	for i, a := range b.Addresses {
		enc := a.Encode()
		copy(out[i*AddressSize:], enc[:])
	}
	return out
}

// DecodeAddressBlock unpacks blockSize bytes into an AddressBlock.
func DecodeAddressBlock(buf []byte, blockSize int) AddressBlock {
	n := AddressesPerBlock(blockSize)
	b := AddressBlock{Addresses: make([]BlockAddress, n)}
	for i := 0; i < n; i++ {
		off := i * AddressSize
		if off+AddressSize > len(buf) {
			break
		}
		b.Addresses[i] = DecodeAddress(buf[off : off+AddressSize])
	}
	return b
}
