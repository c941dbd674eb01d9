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

import (
	"encoding/binary"
	"fmt"
)

// EncodeChildTable encodes a directory's children as a length-prefixed
// mapping name -> inode_number (spec.md §3.3/§6.2). Encoding is
// deterministic only in the sense that it reproduces whatever iteration
// order the caller supplies; FileSystem is responsible for ordering.
func EncodeChildTable(names []string, inums []uint64) []byte {
	if len(names) != len(inums) {
		panic("inode: EncodeChildTable name/inum length mismatch")
	}

	buf := make([]byte, 0, 64)
	var lenPrefix [4]byte

	binary.LittleEndian.PutUint32(lenPrefix[:], uint32(len(names)))
	buf = append(buf, lenPrefix[:]...)

	for i, name := range names {
		nameBytes := []byte(name)
		var nameLen [4]byte
		binary.LittleEndian.PutUint32(nameLen[:], uint32(len(nameBytes)))
		buf = append(buf, nameLen[:]...)
		buf = append(buf, nameBytes...)

		var inumBytes [8]byte
		binary.LittleEndian.PutUint64(inumBytes[:], inums[i])
		buf = append(buf, inumBytes[:]...)
	}
	return buf
}

// DecodeChildTable reverses EncodeChildTable. Trailing zero padding (from
// the directory's data blocks being block-aligned) is tolerated: decoding
// stops as soon as the declared entry count is satisfied.
func DecodeChildTable(buf []byte) (names []string, inums []uint64, err error) {
	if len(buf) < 4 {
		return nil, nil, fmt.Errorf("inode: child table too short")
	}
	count := binary.LittleEndian.Uint32(buf[:4])
	off := 4

	names = make([]string, 0, count)
	inums = make([]uint64, 0, count)

	for i := uint32(0); i < count; i++ {
		if off+4 > len(buf) {
			return nil, nil, fmt.Errorf("inode: child table truncated at entry %d", i)
		}
		nameLen := int(binary.LittleEndian.Uint32(buf[off : off+4]))
		off += 4
		if off+nameLen+8 > len(buf) {
			return nil, nil, fmt.Errorf("inode: child table truncated reading name of entry %d", i)
		}
		name := string(buf[off : off+nameLen])
		off += nameLen
		inum := binary.LittleEndian.Uint64(buf[off : off+8])
		off += 8

		names = append(names, name)
		inums = append(inums, inum)
	}
	return names, inums, nil
}
